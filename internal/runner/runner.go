// Package runner hosts a plant: it pumps sensor readings into it, ticks it at
// a fixed cadence, delivers what it says to a sink, appends interaction
// events to the event log and saves state periodically and on shutdown.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/logging"
	"github.com/nvandessel/pixelplant/internal/plant"
	"github.com/nvandessel/pixelplant/internal/session"
	"github.com/nvandessel/pixelplant/internal/store"
)

// readingBuffer bounds the readings queued between the pump and the loop.
const readingBuffer = 64

// errSourceDone ends the loop when the source is exhausted and StopOnEOF
// is set.
var errSourceDone = errors.New("source exhausted")

// Config holds the host loop settings.
type Config struct {
	TickInterval     time.Duration
	AutosaveInterval time.Duration

	// StopOnEOF ends Run once the source is exhausted. Otherwise the plant
	// keeps running on its own until the context is cancelled.
	StopOnEOF bool

	// SessionDir receives session-state.json. Empty disables it.
	SessionDir string
}

// DefaultConfig returns the default loop settings.
func DefaultConfig() Config {
	return Config{
		TickInterval:     constants.DefaultTickInterval,
		AutosaveInterval: constants.DefaultAutosaveInterval,
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDecisionLogger sets the decision trace. The runner tags it with the
// session id.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(r *Runner) { r.decisions = dl }
}

// WithEventLog sets where interaction events are appended.
func WithEventLog(l store.EventLog) Option {
	return func(r *Runner) { r.events = l }
}

// WithSink sets where messages are delivered.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithClock replaces the wall clock used to stamp ticks.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Runner drives one plant until its context is cancelled.
type Runner struct {
	cfg       Config
	plant     *plant.Plant
	source    Source
	sink      Sink
	events    store.EventLog
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	now       func() time.Time

	id      string
	session *session.State
}

// New creates a runner for p. A nil source runs the plant without sensor
// input; readings may still be applied to p directly.
func New(cfg Config, p *plant.Plant, src Source, opts ...Option) *Runner {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = def.AutosaveInterval
	}
	r := &Runner{
		cfg:    cfg,
		plant:  p,
		source: src,
		logger: logging.Discard(),
		now:    time.Now,
		id:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionID returns the id of this run.
func (r *Runner) SessionID() string { return r.id }

// Session returns the counters of this run.
func (r *Runner) Session() session.Summary {
	if r.session == nil {
		return session.Summary{ID: r.id}
	}
	return r.session.Summary()
}

// Run greets, loops until ctx is cancelled (or the source ends with
// StopOnEOF), then says goodnight and saves. Cancellation is a clean stop.
func (r *Runner) Run(ctx context.Context) error {
	start := r.now()
	r.session = session.NewState(r.id, start)
	r.decisions.SetSession(r.id)
	r.decisions.Log(map[string]any{"event": logging.EventSessionStarted})
	r.logger.Info("plant session started", "session", r.id, "tick", r.cfg.TickInterval)

	if out, ok := r.plant.Start(); ok {
		r.emit(ctx, out)
	}

	readings := make(chan plant.Reading, readingBuffer)
	g, gctx := errgroup.WithContext(ctx)
	if r.source != nil {
		g.Go(func() error { return r.pump(gctx, readings) })
	} else {
		close(readings)
	}
	g.Go(func() error { return r.loop(gctx, readings) })

	err := g.Wait()
	if closer, ok := r.source.(io.Closer); ok {
		closer.Close()
	}

	stopCtx := context.WithoutCancel(ctx)
	r.shutdown(stopCtx)

	if errors.Is(err, context.Canceled) || errors.Is(err, errSourceDone) {
		return nil
	}
	return err
}

// pump copies readings from the source into ch and closes it when the
// source is exhausted.
func (r *Runner) pump(ctx context.Context, ch chan<- plant.Reading) error {
	defer close(ch)
	for {
		rd, err := r.source.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			r.logger.Info("sensor source exhausted")
			return nil
		case errors.Is(err, ErrInvalidReading):
			r.logger.Warn("skipping sensor reading", "error", err)
			continue
		case err != nil:
			return fmt.Errorf("reading sensors: %w", err)
		}

		select {
		case ch <- rd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Runner) loop(ctx context.Context, readings <-chan plant.Reading) error {
	tick := time.NewTicker(r.cfg.TickInterval)
	defer tick.Stop()
	autosave := time.NewTicker(r.cfg.AutosaveInterval)
	defer autosave.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rd, ok := <-readings:
			if ok {
				r.plant.Apply(rd)
				continue
			}
			readings = nil
			if r.cfg.StopOnEOF {
				r.step(ctx, r.now())
				return errSourceDone
			}
		case <-tick.C:
			r.step(ctx, r.now())
		case <-autosave.C:
			r.persist(ctx)
		}
	}
}

// step ticks the plant once and records what happened.
func (r *Runner) step(ctx context.Context, now time.Time) {
	if out, ok := r.plant.Tick(now); ok {
		r.emit(ctx, out)
	}
	r.flushEvents(ctx)
	r.session.Tick(now)
}

func (r *Runner) emit(ctx context.Context, out plant.Output) {
	r.session.RecordMessage(out.Category, out.Text)
	r.logger.Info("plant says", "category", out.Category.String(), "mood", out.Mood, "care", out.Care)
	if r.sink == nil {
		return
	}
	if err := r.sink.Emit(ctx, out); err != nil {
		r.logger.Warn("failed to deliver message", "error", err)
	}
}

func (r *Runner) flushEvents(ctx context.Context) {
	events := r.plant.DrainEvents()
	if len(events) == 0 {
		return
	}
	r.session.RecordEvents(events)
	if r.events == nil {
		return
	}
	for _, e := range events {
		if err := r.events.RecordEvent(ctx, e); err != nil {
			r.logger.Warn("failed to record event", "kind", string(e.Kind), "error", err)
		}
	}
}

func (r *Runner) persist(ctx context.Context) {
	if err := r.plant.Save(ctx); err != nil {
		r.logger.Warn("autosave failed", "error", err)
	} else {
		r.logger.Debug("state saved")
	}
	r.saveSession()
}

func (r *Runner) saveSession() {
	if r.cfg.SessionDir == "" {
		return
	}
	if err := session.SaveState(r.session, r.cfg.SessionDir); err != nil {
		r.logger.Warn("failed to save session state", "error", err)
	}
}

func (r *Runner) shutdown(ctx context.Context) {
	if out, ok := r.plant.Stop(); ok {
		r.emit(ctx, out)
	}
	r.flushEvents(ctx)

	end := r.now()
	r.session.End(end)
	r.persist(ctx)

	sum := r.session.Summary()
	r.decisions.Log(map[string]any{
		"event":     logging.EventSessionEnded,
		"messages":  sum.Messages(),
		"reminders": sum.Reminders,
		"responses": sum.Responses,
		"ignored":   sum.Ignored,
	})
	r.logger.Info("plant session ended", "session", r.id, "duration", end.Sub(sum.StartedAt), "messages", sum.Messages())
}
