package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Alia5/padbridge/input"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// document is the on-disk shape of a profile. Button names are strings and
// every number is a plain int so the same struct works for JSON, YAML and TOML.
type document struct {
	Name           string      `json:"name" yaml:"name" toml:"name"`
	Description    string      `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Characteristic string      `json:"characteristic" yaml:"characteristic" toml:"characteristic"`
	MinLength      int         `json:"minLength" yaml:"minLength" toml:"minLength"`
	Sentinels      []int       `json:"sentinels,omitempty" yaml:"sentinels,omitempty" toml:"sentinels,omitempty"`
	Buttons        []buttonDoc `json:"buttons" yaml:"buttons" toml:"buttons"`
	Triggers       triggerDoc  `json:"triggers" yaml:"triggers" toml:"triggers"`
	Sticks         sticksDoc   `json:"sticks" yaml:"sticks" toml:"sticks"`
	Range          rangeDoc    `json:"range" yaml:"range" toml:"range"`
}

type buttonDoc struct {
	Button string `json:"button" yaml:"button" toml:"button"`
	Byte   int    `json:"byte" yaml:"byte" toml:"byte"`
	Mask   int    `json:"mask" yaml:"mask" toml:"mask"`
}

type triggerDoc struct {
	Left  int `json:"left" yaml:"left" toml:"left"`
	Right int `json:"right" yaml:"right" toml:"right"`
}

type sticksDoc struct {
	Left  stickDoc `json:"left" yaml:"left" toml:"left"`
	Right stickDoc `json:"right" yaml:"right" toml:"right"`
}

type stickDoc struct {
	X axisDoc `json:"x" yaml:"x" toml:"x"`
	Y axisDoc `json:"y" yaml:"y" toml:"y"`
}

type axisDoc struct {
	Offset int        `json:"offset" yaml:"offset" toml:"offset"`
	Invert bool       `json:"invert,omitempty" yaml:"invert,omitempty" toml:"invert,omitempty"`
	Pieces []pieceDoc `json:"pieces" yaml:"pieces" toml:"pieces"`
}

type pieceDoc struct {
	Byte  int `json:"byte" yaml:"byte" toml:"byte"`
	Mask  int `json:"mask" yaml:"mask" toml:"mask"`
	Shift int `json:"shift" yaml:"shift" toml:"shift"`
}

type rangeDoc struct {
	Min int `json:"min" yaml:"min" toml:"min"`
	Max int `json:"max" yaml:"max" toml:"max"`
}

// FormatFromPath maps a file extension to "json", "yaml" or "toml".
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

// LoadFile reads and validates a profile file. The format follows the extension.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a profile in the given format.
func Parse(data []byte, format string) (*Profile, error) {
	var doc document
	var err error
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	case "toml":
		err = toml.NewDecoder(bytes.NewReader(data)).Strict(true).Decode(&doc)
	default:
		return nil, fmt.Errorf("unsupported profile format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s profile: %w", format, err)
	}

	p, err := doc.profile()
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Marshal encodes p in the given format, suitable as a template for new profiles.
func Marshal(p *Profile, format string) ([]byte, error) {
	doc := newDocument(p)
	switch format {
	case "json":
		return json.MarshalIndent(doc, "", "  ")
	case "yaml":
		return yaml.Marshal(doc)
	case "toml":
		return toml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported profile format %q", format)
	}
}

func toByte(what string, v int, errs *[]error) uint8 {
	if v < 0 || v > 0xFF {
		*errs = append(*errs, fmt.Errorf("%s: %d does not fit in a byte", what, v))
		return 0
	}
	return uint8(v)
}

func toInt32(what string, v int, errs *[]error) int32 {
	if v < math.MinInt32 || v > math.MaxInt32 {
		*errs = append(*errs, fmt.Errorf("%s: %d does not fit in int32", what, v))
		return 0
	}
	return int32(v)
}

func (d *document) profile() (*Profile, error) {
	var errs []error
	p := &Profile{
		Name:           d.Name,
		Description:    d.Description,
		Characteristic: strings.ToLower(d.Characteristic),
		MinLength:      d.MinLength,
		Range:          Range{Min: toInt32("range min", d.Range.Min, &errs), Max: toInt32("range max", d.Range.Max, &errs)},
		Triggers: [2]TriggerBinding{
			input.TriggerLeft:  {Byte: d.Triggers.Left},
			input.TriggerRight: {Byte: d.Triggers.Right},
		},
	}
	for _, s := range d.Sentinels {
		p.Sentinels = append(p.Sentinels, toByte("sentinel", s, &errs))
	}
	for _, b := range d.Buttons {
		id, err := input.ParseButton(b.Button)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.Buttons = append(p.Buttons, ButtonBinding{
			Byte:   b.Byte,
			Mask:   toByte(b.Button+" mask", b.Mask, &errs),
			Button: id,
		})
	}
	axis := func(what string, a axisDoc) AxisBinding {
		out := AxisBinding{Offset: toInt32(what+" offset", a.Offset, &errs), Invert: a.Invert}
		for _, pc := range a.Pieces {
			out.Pieces = append(out.Pieces, BitPiece{
				Byte:  pc.Byte,
				Mask:  toByte(what+" mask", pc.Mask, &errs),
				Shift: pc.Shift,
			})
		}
		return out
	}
	p.Sticks[input.StickLeft] = StickBinding{X: axis("left x", d.Sticks.Left.X), Y: axis("left y", d.Sticks.Left.Y)}
	p.Sticks[input.StickRight] = StickBinding{X: axis("right x", d.Sticks.Right.X), Y: axis("right y", d.Sticks.Right.Y)}

	if len(errs) > 0 {
		return nil, fmt.Errorf("profile %q: %w", d.Name, errors.Join(errs...))
	}
	return p, nil
}

func newDocument(p *Profile) document {
	d := document{
		Name:           p.Name,
		Description:    p.Description,
		Characteristic: p.Characteristic,
		MinLength:      p.MinLength,
		Triggers: triggerDoc{
			Left:  p.Triggers[input.TriggerLeft].Byte,
			Right: p.Triggers[input.TriggerRight].Byte,
		},
		Range: rangeDoc{Min: int(p.Range.Min), Max: int(p.Range.Max)},
	}
	for _, s := range p.Sentinels {
		d.Sentinels = append(d.Sentinels, int(s))
	}
	for _, b := range p.Buttons {
		d.Buttons = append(d.Buttons, buttonDoc{Button: b.Button.String(), Byte: b.Byte, Mask: int(b.Mask)})
	}
	axis := func(a AxisBinding) axisDoc {
		out := axisDoc{Offset: int(a.Offset), Invert: a.Invert}
		for _, pc := range a.Pieces {
			out.Pieces = append(out.Pieces, pieceDoc{Byte: pc.Byte, Mask: int(pc.Mask), Shift: pc.Shift})
		}
		return out
	}
	d.Sticks.Left = stickDoc{X: axis(p.Sticks[input.StickLeft].X), Y: axis(p.Sticks[input.StickLeft].Y)}
	d.Sticks.Right = stickDoc{X: axis(p.Sticks[input.StickRight].X), Y: axis(p.Sticks[input.StickRight].Y)}
	return d
}
