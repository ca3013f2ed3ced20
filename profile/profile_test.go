package profile_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() *profile.Profile {
	return &profile.Profile{
		Name:      "test",
		MinLength: 4,
		Sentinels: []byte{0xEE},
		Buttons: []profile.ButtonBinding{
			{Byte: 3, Mask: 0x01, Button: input.ButtonCross},
		},
		Triggers: [2]profile.TriggerBinding{{Byte: 1}, {Byte: 2}},
		Sticks: [2]profile.StickBinding{
			{X: profile.AxisBinding{Pieces: []profile.BitPiece{{Byte: 0, Mask: 0x0F}}}, Y: profile.AxisBinding{Pieces: []profile.BitPiece{{Byte: 0, Mask: 0xF0, Shift: -4}}}},
			{X: profile.AxisBinding{Pieces: []profile.BitPiece{{Byte: 1, Mask: 0x0F}}}, Y: profile.AxisBinding{Pieces: []profile.BitPiece{{Byte: 1, Mask: 0xF0, Shift: -4}}}},
		},
		Range: profile.Range{Min: -8, Max: 8},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *profile.Profile)
		wantErr string
	}{
		{name: "valid", mutate: func(p *profile.Profile) {}},
		{name: "empty name", mutate: func(p *profile.Profile) { p.Name = "" }, wantErr: "name is empty"},
		{name: "zero length", mutate: func(p *profile.Profile) { p.MinLength = 0 }, wantErr: "minLength must be positive"},
		{
			name:    "button outside frame",
			mutate:  func(p *profile.Profile) { p.Buttons[0].Byte = 4 },
			wantErr: "byte 4 outside frame of 4 bytes",
		},
		{
			name:    "zero button mask",
			mutate:  func(p *profile.Profile) { p.Buttons[0].Mask = 0 },
			wantErr: "mask is zero",
		},
		{
			name: "duplicate button",
			mutate: func(p *profile.Profile) {
				p.Buttons = append(p.Buttons, profile.ButtonBinding{Byte: 2, Mask: 0x02, Button: input.ButtonCross})
			},
			wantErr: "bound more than once",
		},
		{
			name:    "unknown button",
			mutate:  func(p *profile.Profile) { p.Buttons[0].Button = input.NumButtons },
			wantErr: "unknown button",
		},
		{
			name:    "trigger outside frame",
			mutate:  func(p *profile.Profile) { p.Triggers[1].Byte = -1 },
			wantErr: "trigger right: byte -1",
		},
		{
			name:    "axis without pieces",
			mutate:  func(p *profile.Profile) { p.Sticks[1].Y.Pieces = nil },
			wantErr: "stick right y: no bit pieces",
		},
		{
			name:    "shift too wide",
			mutate:  func(p *profile.Profile) { p.Sticks[0].X.Pieces[0].Shift = 24 },
			wantErr: "shift 24 outside",
		},
		{
			name:    "offset overflows int32",
			mutate:  func(p *profile.Profile) { p.Sticks[0].X.Offset = math.MaxInt32 },
			wantErr: "stick left x: offset 2147483647 gives values [2147483647, 2147483662] outside int32",
		},
		{
			name: "inverted offset overflows int32",
			mutate: func(p *profile.Profile) {
				p.Sticks[1].Y.Offset = math.MinInt32
				p.Sticks[1].Y.Invert = true
			},
			wantErr: "stick right y: offset -2147483648",
		},
		{
			name:    "asymmetric range",
			mutate:  func(p *profile.Profile) { p.Range = profile.Range{Min: 0, Max: 1023} },
			wantErr: "must be symmetric",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuiltinGamesirT1d(t *testing.T) {
	p, ok := profile.Lookup("Gamesir-T1d")
	require.True(t, ok)
	assert.Same(t, profile.GamesirT1d, p)
	assert.NoError(t, p.Validate())
	assert.True(t, p.IsSentinel(0xC9))
	assert.False(t, p.IsSentinel(0xC8))
	assert.Contains(t, profile.Names(), "gamesir-t1d")
}

func TestRegisterPanics(t *testing.T) {
	assert.Panics(t, func() { profile.Register(profile.GamesirT1d) }, "duplicate")
	assert.Panics(t, func() { profile.Register(&profile.Profile{Name: "broken"}) }, "invalid")
}

func TestMarshalParse(t *testing.T) {
	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			data, err := profile.Marshal(profile.GamesirT1d, format)
			require.NoError(t, err)

			got, err := profile.Parse(data, format)
			require.NoError(t, err)
			assert.Equal(t, profile.GamesirT1d, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		data    string
		wantErr string
	}{
		{
			name:    "unknown field",
			format:  "json",
			data:    `{"name":"x","bogus":1}`,
			wantErr: "decode json profile",
		},
		{
			name:   "unknown button",
			format: "yaml",
			data: `
name: x
minLength: 2
buttons:
  - {button: turbo, byte: 0, mask: 1}
`,
			wantErr: `unknown button "turbo"`,
		},
		{
			name:   "mask too large",
			format: "toml",
			data: `
name = "x"
minLength = 2
[[buttons]]
button = "cross"
byte = 0
mask = 256
`,
			wantErr: "does not fit in a byte",
		},
		{
			name:   "fails validation",
			format: "yaml",
			data: `
name: x
minLength: 2
range: {min: -8, max: 8}
`,
			wantErr: "no bit pieces",
		},
		{
			name:   "range wider than int32",
			format: "yaml",
			data: `
name: x
minLength: 2
range: {min: -4294967808, max: 4294967808}
`,
			wantErr: "range max: 4294967808 does not fit in int32",
		},
		{
			name:    "offset wider than int32",
			format:  "json",
			data:    `{"name":"x","minLength":2,"sticks":{"left":{"x":{"offset":4294967296,"pieces":[{"byte":0,"mask":255,"shift":0}]}}}}`,
			wantErr: "left x offset: 4294967296 does not fit in int32",
		},
		{
			name:   "unknown toml key",
			format: "toml",
			data: `
name = "x"
minLenght = 2
`,
			wantErr: "decode toml profile",
		},
		{name: "bad format", format: "ini", data: "", wantErr: "unsupported profile format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := profile.Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolve(t *testing.T) {
	p, err := profile.Resolve("gamesir-t1d")
	require.NoError(t, err)
	assert.Equal(t, "gamesir-t1d", p.Name)

	custom := validProfile()
	custom.Name = "custom-pad"
	data, err := profile.Marshal(custom, "yaml")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	p, err = profile.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, custom, p)

	_, err = profile.Resolve("no-such-pad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gamesir-t1d")
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "yaml", profile.FormatFromPath("a/b.YML"))
	assert.Equal(t, "yaml", profile.FormatFromPath("b.yaml"))
	assert.Equal(t, "toml", profile.FormatFromPath("b.toml"))
	assert.Equal(t, "json", profile.FormatFromPath("b.json"))
	assert.Equal(t, "json", profile.FormatFromPath("b"))
}
