package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alia5/padbridge/apiclient"
	"github.com/Alia5/padbridge/bridge"
	"github.com/Alia5/padbridge/internal/log"
	"github.com/Alia5/padbridge/transport/replay"
)

// Replay feeds a recorded capture through the pipeline.
type Replay struct {
	File     string        `arg:"" help:"Raw log capture or hex dump to replay" type:"existingfile"`
	Pace     string        `help:"Frame pacing" enum:"none,capture,fixed" default:"none" env:"PADBRIDGE_REPLAY_PACE"`
	Interval time.Duration `help:"Gap between frames with --pace=fixed" default:"10ms" env:"PADBRIDGE_REPLAY_INTERVAL"`
	Sink     string        `help:"Output sink" enum:"viiper,log" default:"log" env:"PADBRIDGE_REPLAY_SINK"`
	Source   string        `help:"Replay only frames captured from this controller address" env:"PADBRIDGE_REPLAY_SOURCE"`

	Pipeline PipelineFlags `embed:""`
	Viiper   ViiperFlags   `embed:"" prefix:"viiper."`
}

// Run is called by Kong when the replay command is executed.
func (r *Replay) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	_, err := r.Start(ctx, logger, rawLogger)
	return err
}

// Start replays the capture once and returns the pipeline counters.
func (r *Replay) Start(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) (bridge.Stats, error) {
	p, opts, err := r.Pipeline.resolve()
	if err != nil {
		return bridge.Stats{}, err
	}
	pacing, err := replay.ParsePacing(r.Pace)
	if err != nil {
		return bridge.Stats{}, err
	}
	src, err := replay.Open(r.File, replay.Options{Pacing: pacing, Interval: r.Interval, Source: r.Source})
	if err != nil {
		return bridge.Stats{}, err
	}
	defer func() { _ = src.Close() }()

	var client *apiclient.Client
	if r.Sink == sinkViiper {
		if client, err = r.Viiper.client(logger); err != nil {
			return bridge.Stats{}, err
		}
	}
	sink, err := openSink(ctx, sinkOptions{
		kind:       r.Sink,
		client:     client,
		bus:        r.Viiper.Bus,
		triggerMax: opts.TriggerMax,
		logger:     logger,
		rawLogger:  rawLogger,
	})
	if err != nil {
		return bridge.Stats{}, err
	}
	defer func() { _ = sink.Close() }()

	logger.Info("Replaying capture", "file", r.File, "profile", p.Name, "pace", pacing, "sink", r.Sink)
	pl := bridge.New(bridge.Config{
		Profile:   p,
		Normalize: opts,
		Logger:    logger,
		RawLogger: rawLogger,
	}, sink)

	err = pl.Run(ctx, src)
	stats := pl.Stats()
	logger.Info("Replay finished", "stats", stats)
	return stats, err
}
