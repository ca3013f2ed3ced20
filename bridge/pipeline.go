// Package bridge runs the per-connection processing loop:
// validate, decode, detect change, normalize and emit.
package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/Alia5/padbridge/decode"
	"github.com/Alia5/padbridge/emit"
	"github.com/Alia5/padbridge/frame"
	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/internal/log"
	"github.com/Alia5/padbridge/normalize"
	"github.com/Alia5/padbridge/profile"
	"github.com/Alia5/padbridge/session"
)

// Source delivers raw frames in arrival order.
type Source interface {
	// Next blocks until a frame arrives. io.EOF ends the stream.
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

type Config struct {
	Profile   *profile.Profile
	Normalize normalize.Options
	Observers []emit.Observer

	Logger    *slog.Logger
	RawLogger log.RawLogger
}

// Stats is a snapshot of a pipeline's frame counters.
type Stats struct {
	Received  uint64
	Malformed uint64
	Garbage   uint64
	Unchanged uint64
	Emitted   uint64
}

// Pipeline processes the frames of one connection. Ingest and Run must be
// called from a single goroutine; Stats may be read from anywhere.
type Pipeline struct {
	profile    *profile.Profile
	decoder    *decode.Decoder
	session    *session.Session
	normalizer *normalize.Normalizer
	emitter    *emit.Emitter

	logger    *slog.Logger
	rawLogger log.RawLogger

	received  atomic.Uint64
	malformed atomic.Uint64
	garbage   atomic.Uint64
	unchanged atomic.Uint64
	emitted   atomic.Uint64
}

func New(cfg Config, sink emit.Sink) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rawLogger := cfg.RawLogger
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}
	return &Pipeline{
		profile:    cfg.Profile,
		decoder:    decode.New(cfg.Profile),
		session:    session.New(),
		normalizer: normalize.New(cfg.Profile.Range, cfg.Normalize),
		emitter:    emit.New(sink, cfg.Observers...),
		logger:     logger,
		rawLogger:  rawLogger,
	}
}

// Ingest runs one raw frame through the pipeline. It reports whether an
// event was emitted. Rejected and unchanged frames are absorbed; the only
// error returned is an *emit.Error.
func (p *Pipeline) Ingest(raw []byte) (bool, error) {
	p.received.Add(1)
	p.rawLogger.Log(log.RX, raw)

	f, err := frame.Validate(raw, p.profile)
	if err != nil {
		p.reject(raw, err)
		return false, nil
	}

	st, changed := p.session.Observe(p.decoder.Decode(f))
	if !changed {
		p.unchanged.Add(1)
		return false, nil
	}
	p.logger.Debug("state changed", "state", st)

	if err := p.emitter.Emit(p.normalizer.Normalize(st)); err != nil {
		return false, err
	}
	p.emitted.Add(1)
	return true, nil
}

func (p *Pipeline) reject(raw []byte, err error) {
	if errors.Is(err, frame.ErrGarbage) {
		p.garbage.Add(1)
		p.logger.Log(context.Background(), log.LevelTrace, "dropped frame", "reason", frame.Reason(err), "len", len(raw))
		return
	}
	p.malformed.Add(1)
	p.logger.Debug("dropped frame", "reason", frame.Reason(err), "error", err)
}

// Run pulls frames from src until it ends, ctx is cancelled or the sink
// fails. A clean end of stream returns nil. Run does not close src.
func (p *Pipeline) Run(ctx context.Context, src Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		if _, err := p.Ingest(raw); err != nil {
			return err
		}
	}
}

// Last returns the state most recently emitted by this pipeline.
func (p *Pipeline) Last() (input.State, bool) {
	return p.session.Last()
}

// Reset drops the change detection baseline, for example after the sink was
// recreated, so the next valid frame is emitted in full.
func (p *Pipeline) Reset() {
	p.session.Reset()
}

func (p *Pipeline) Stats() Stats {
	return Stats{
		Received:  p.received.Load(),
		Malformed: p.malformed.Load(),
		Garbage:   p.garbage.Load(),
		Unchanged: p.unchanged.Load(),
		Emitted:   p.emitted.Load(),
	}
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("received", s.Received),
		slog.Uint64("malformed", s.Malformed),
		slog.Uint64("garbage", s.Garbage),
		slog.Uint64("unchanged", s.Unchanged),
		slog.Uint64("emitted", s.Emitted),
	)
}
