package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/Alia5/padbridge/apiclient"
	"github.com/Alia5/padbridge/emit"
	"github.com/Alia5/padbridge/internal/configpaths"
	"github.com/Alia5/padbridge/internal/log"
	"github.com/Alia5/padbridge/internal/util"
	"github.com/Alia5/padbridge/normalize"
	"github.com/Alia5/padbridge/profile"
	"github.com/Alia5/padbridge/sink/ds4"
	"github.com/Alia5/padbridge/sink/logsink"
)

const (
	sinkViiper = "viiper"
	sinkLog    = "log"
)

// PipelineFlags selects the device profile and tunes normalization.
type PipelineFlags struct {
	Profile          string `help:"Built-in profile name or path to a profile file" default:"gamesir-t1d" env:"PADBRIDGE_PROFILE"`
	TriggerMax       uint16 `help:"Upper bound of normalized trigger magnitudes" default:"255" env:"PADBRIDGE_TRIGGER_MAX"`
	TriggerThreshold uint8  `help:"Raw trigger value that also presses the digital L2/R2 button (0 disables)" default:"0" env:"PADBRIDGE_TRIGGER_THRESHOLD"`
}

func (f PipelineFlags) resolve() (*profile.Profile, normalize.Options, error) {
	p, err := profile.Resolve(f.Profile)
	if err != nil {
		return nil, normalize.Options{}, err
	}
	return p, normalize.Options{TriggerMax: f.TriggerMax, TriggerThreshold: f.TriggerThreshold}, nil
}

// ViiperFlags configures the VIIPER API server the virtual pads are plugged into.
type ViiperFlags struct {
	Addr     string        `help:"VIIPER API server address" default:"localhost:3242" env:"PADBRIDGE_VIIPER_ADDR"`
	Password string        `help:"VIIPER API password; read from the local VIIPER key file when empty" env:"PADBRIDGE_VIIPER_PASSWORD"`
	Bus      uint32        `help:"Bus to attach to; 0 picks the first bus or creates one" default:"0" env:"PADBRIDGE_VIIPER_BUS"`
	Timeout  time.Duration `help:"VIIPER API dial and request timeout" default:"5s" env:"PADBRIDGE_VIIPER_TIMEOUT"`
}

// client resolves the password and builds an API client.
func (f ViiperFlags) client(logger *slog.Logger) (*apiclient.Client, error) {
	pwd, err := resolvePassword(f.Addr, f.Password, logger)
	if err != nil {
		return nil, err
	}
	cfg := apiclient.DefaultConfig()
	if f.Timeout > 0 {
		cfg.DialTimeout, cfg.ReadTimeout, cfg.WriteTimeout = f.Timeout, f.Timeout, f.Timeout
	}
	cfg.Password = pwd
	return apiclient.New(f.Addr, &cfg), nil
}

var (
	readKeyFile = func() ([]byte, error) {
		var errs []error
		for _, p := range configpaths.ViiperKeyPaths() {
			b, err := os.ReadFile(p)
			if err == nil {
				return b, nil
			}
			errs = append(errs, err)
		}
		return nil, errors.Join(errs...)
	}
	promptPassword = func() (string, error) {
		return util.PromptPassword(os.Stdin, os.Stderr, "VIIPER password: ")
	}
)

// resolvePassword picks the VIIPER password: an explicit value, then the
// local server's key file for loopback addresses, then an interactive prompt
// for remote ones. An empty result means an unauthenticated connection.
func resolvePassword(addr, explicit string, logger *slog.Logger) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if isLoopback(addr) {
		if b, err := readKeyFile(); err == nil {
			logger.Debug("using password from VIIPER key file")
			return strings.TrimSpace(string(b)), nil
		}
		return "", nil
	}
	pwd, err := promptPassword()
	if errors.Is(err, util.ErrNoTerminal) {
		return "", nil
	}
	return pwd, err
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "" || strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// outputSink is an emit.Sink that owns resources.
type outputSink interface {
	emit.Sink
	Close() error
}

type sinkOptions struct {
	kind       string
	client     *apiclient.Client
	bus        uint32
	triggerMax uint16
	logger     *slog.Logger
	rawLogger  log.RawLogger
}

func openSink(ctx context.Context, o sinkOptions) (outputSink, error) {
	switch o.kind {
	case sinkLog:
		return logsink.New(o.logger, slog.LevelInfo), nil
	case sinkViiper:
		if o.client == nil {
			return nil, errors.New("no VIIPER client configured")
		}
		d, err := ds4.Open(ctx, o.client, ds4.Options{
			BusID:      o.bus,
			TriggerMax: o.triggerMax,
			Logger:     o.logger,
			RawLogger:  o.rawLogger,
		})
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown sink %q", o.kind)
}
