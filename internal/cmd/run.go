package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Alia5/padbridge/apiclient"
	"github.com/Alia5/padbridge/bridge"
	"github.com/Alia5/padbridge/internal/log"
	"github.com/Alia5/padbridge/normalize"
	"github.com/Alia5/padbridge/profile"
	"github.com/Alia5/padbridge/transport/bluez"
)

type Run struct {
	Address        []string      `help:"Bluetooth address of a paired controller; repeat for several controllers" required:"" env:"PADBRIDGE_ADDRESS"`
	Adapter        string        `help:"BlueZ adapter" default:"hci0" env:"PADBRIDGE_ADAPTER"`
	Mode           string        `help:"How frames are read from the controller" enum:"poll,notify" default:"poll" env:"PADBRIDGE_MODE"`
	PollInterval   time.Duration `help:"Minimum gap between two reads in poll mode" default:"0s" env:"PADBRIDGE_POLL_INTERVAL"`
	ConnectTimeout time.Duration `help:"Bluetooth connect and service discovery timeout" default:"20s" env:"PADBRIDGE_CONNECT_TIMEOUT"`
	Reconnect      bool          `help:"Rebuild a controller session after it fails" default:"false" env:"PADBRIDGE_RECONNECT"`
	ReconnectDelay time.Duration `help:"Pause before reconnecting" default:"2s" env:"PADBRIDGE_RECONNECT_DELAY"`
	Sink           string        `help:"Output sink" enum:"viiper,log" default:"viiper" env:"PADBRIDGE_SINK"`

	Pipeline PipelineFlags `embed:""`
	Viiper   ViiperFlags   `embed:"" prefix:"viiper."`
}

var dialSource = func(ctx context.Context, cfg bluez.Config) (bridge.Source, error) {
	src, err := bluez.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.Start(ctx, logger, rawLogger)
}

// Start bridges every configured controller until ctx is cancelled. Each
// controller has its own transport, pipeline and virtual device. Without
// --reconnect, the first failing controller ends the command.
func (r *Run) Start(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	p, opts, err := r.Pipeline.resolve()
	if err != nil {
		return err
	}
	var client *apiclient.Client
	if r.Sink == sinkViiper {
		if client, err = r.Viiper.client(logger); err != nil {
			return err
		}
		if _, err := client.Ping(ctx); err != nil {
			return err
		}
	}

	logger.Info("Starting padbridge", "profile", p.Name, "controllers", len(r.Address), "sink", r.Sink)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, addr := range r.Address {
		c := &controller{
			run:       r,
			address:   addr,
			profile:   p,
			opts:      opts,
			client:    client,
			logger:    logger.With("address", addr),
			rawLogger: log.WithSource(rawLogger, addr),
		}
		wg.Go(func() {
			if err := c.loop(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				cancel()
			}
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

type controller struct {
	run       *Run
	address   string
	profile   *profile.Profile
	opts      normalize.Options
	client    *apiclient.Client
	logger    *slog.Logger
	rawLogger log.RawLogger
}

func (c *controller) loop(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			c.logger.Info("controller stream ended")
		} else {
			c.logger.Error("controller session failed", "error", err)
		}
		if !c.run.Reconnect {
			return err
		}
		c.logger.Info("reconnecting", "delay", c.run.ReconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.run.ReconnectDelay):
		}
	}
}

// session runs one connection: transport, sink and a fresh pipeline, so no
// state survives a reconnect.
func (c *controller) session(ctx context.Context) error {
	src, err := dialSource(ctx, bluez.Config{
		Adapter:        c.run.Adapter,
		Address:        c.address,
		Characteristic: c.profile.Characteristic,
		Mode:           bluez.Mode(c.run.Mode),
		PollInterval:   c.run.PollInterval,
		ConnectTimeout: c.run.ConnectTimeout,
		ResolveTimeout: c.run.ConnectTimeout,
		Logger:         c.logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	sink, err := openSink(ctx, sinkOptions{
		kind:       c.run.Sink,
		client:     c.client,
		bus:        c.run.Viiper.Bus,
		triggerMax: c.opts.TriggerMax,
		logger:     c.logger,
		rawLogger:  c.rawLogger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			c.logger.Warn("failed to close sink", "error", err)
		}
	}()

	pl := bridge.New(bridge.Config{
		Profile:   c.profile,
		Normalize: c.opts,
		Logger:    c.logger,
		RawLogger: c.rawLogger,
	}, sink)
	c.logger.Info("controller connected")

	err = pl.Run(ctx, src)
	c.logger.Info("controller session closed", "stats", pl.Stats())
	return err
}
