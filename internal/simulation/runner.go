package simulation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nvandessel/pixelplant/internal/config"
	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/monitor"
	"github.com/nvandessel/pixelplant/internal/personality"
	"github.com/nvandessel/pixelplant/internal/plant"
	"github.com/nvandessel/pixelplant/internal/store"
)

// Clock is a virtual clock shared by every simulated component.
type Clock struct{ t time.Time }

// NewClock returns a clock stopped at t.
func NewClock(t time.Time) *Clock { return &Clock{t: t} }

// Now returns the current virtual time.
func (c *Clock) Now() time.Time { return c.t }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// Result captures everything a simulated session produced.
type Result struct {
	Name    string
	Start   time.Time
	End     time.Time
	Outputs []plant.Output
	Events  []models.Event
	Final   plant.Status

	// Store holds the saved profile, state and event log.
	Store *store.MemoryStore
}

// Count returns how many messages of cat were said.
func (r *Result) Count(cat models.Category) int {
	n := 0
	for _, o := range r.Outputs {
		if o.Category == cat {
			n++
		}
	}
	return n
}

// EventCount returns how many events of kind were recorded.
func (r *Result) EventCount(kind models.EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Report writes a human-readable transcript and summary.
func (r *Result) Report(w io.Writer) {
	banner := strings.Repeat("=", 60)
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "SIMULATION: %s (%s - %s)\n", r.Name, r.Start.Format("Mon 15:04"), r.End.Format("Mon 15:04"))
	fmt.Fprintln(w, banner)
	for _, o := range r.Outputs {
		fmt.Fprintf(w, "%s  %-13s %s\n", o.At.Format("15:04"), o.Category.String(), o.Text)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Messages: %d  Reminders: %d  Responses: %d  Ignored: %d  Breaks: %d\n",
		len(r.Outputs), r.EventCount(models.EventReminder), r.EventCount(models.EventResponse),
		r.EventCount(models.EventIgnored), r.EventCount(models.EventBreak))
	fmt.Fprintf(w, "Final mood: %s  Care: %s  Pattern confidence: %.2f\n",
		r.Final.Mood, r.Final.Care, r.Final.PatternConfidence)
}

// Option configures a simulation.
type Option func(*options)

type options struct {
	cfg    *config.PlantConfig
	logger *slog.Logger
}

// WithConfig runs the plant with cfg instead of the defaults.
func WithConfig(cfg *config.PlantConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// session is one plant on a virtual clock.
type session struct {
	clock  *Clock
	plant  *plant.Plant
	store  *store.MemoryStore
	result *Result
}

func newSession(name string, start time.Time, opts []Option) *session {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg
	if cfg == nil {
		cfg = config.Default()
	}

	clock := NewClock(start)
	st := store.NewMemoryStore()
	m := monitor.New(cfg.MonitorConfig(),
		monitor.WithClock(clock.Now), monitor.WithProfileStore(st), monitor.WithLogger(o.logger))
	e := personality.New(cfg.EngineConfig(),
		personality.WithClock(clock.Now), personality.WithStateStore(st), personality.WithLogger(o.logger))
	p := plant.New(cfg.PlantConfig(), m, e, plant.WithClock(clock.Now), plant.WithLogger(o.logger))

	return &session{
		clock:  clock,
		plant:  p,
		store:  st,
		result: &Result{Name: name, Start: start, Store: st},
	}
}

func (s *session) record(out plant.Output, ok bool) bool {
	if ok {
		s.result.Outputs = append(s.result.Outputs, out)
	}
	s.result.Events = append(s.result.Events, s.plant.DrainEvents()...)
	return ok
}

func (s *session) finish() (*Result, error) {
	s.record(s.plant.Stop())
	s.result.End = s.clock.Now()
	s.result.Final = s.plant.Status()

	ctx := context.Background()
	if err := s.plant.Save(ctx); err != nil {
		return nil, fmt.Errorf("saving simulated state: %w", err)
	}
	for _, e := range s.result.Events {
		if err := s.store.RecordEvent(ctx, e); err != nil {
			return nil, fmt.Errorf("recording simulated event: %w", err)
		}
	}
	return s.result, nil
}

// Run plays sc against a fresh plant and returns what happened.
func Run(sc Scenario, opts ...Option) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	sc = sc.withDefaults()

	s := newSession(sc.Name, sc.Start, opts)
	s.record(s.plant.Start())

	var respondAt time.Time
	for _, ph := range sc.Phases {
		if ph.Sleep != nil {
			s.plant.SetSleep(*ph.Sleep)
		}
		for elapsed := sc.Step; elapsed <= ph.For; elapsed += sc.Step {
			s.clock.Advance(sc.Step)
			now := s.clock.Now()

			rd := ph.reading(elapsed)
			if !respondAt.IsZero() && !now.Before(respondAt) {
				if ph.Present {
					rd.Motion = plant.Bool(true)
				}
				respondAt = time.Time{}
			}
			if !rd.Empty() {
				s.plant.Apply(rd)
			}

			out, ok := s.plant.Tick(now)
			if s.record(out, ok) && sc.RespondAfter > 0 && isReminder(out.Category) {
				respondAt = now.Add(sc.RespondAfter)
			}
		}
	}
	return s.finish()
}

// Replay feeds recorded readings to a fresh plant, ticking every step from
// the first reading to one step past the last. Every reading needs a time.
func Replay(name string, readings []plant.Reading, step time.Duration, opts ...Option) (*Result, error) {
	if len(readings) == 0 {
		return nil, fmt.Errorf("no readings to replay")
	}
	if step <= 0 {
		step = DefaultStep
	}
	sorted := append([]plant.Reading(nil), readings...)
	for i, rd := range sorted {
		if rd.At.IsZero() {
			return nil, fmt.Errorf("reading %d has no time", i+1)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	start := sorted[0].At.Truncate(step)
	end := sorted[len(sorted)-1].At.Add(step)

	s := newSession(name, start, opts)
	s.record(s.plant.Start())

	next := 0
	for s.clock.Now().Before(end) {
		s.clock.Advance(step)
		now := s.clock.Now()
		for next < len(sorted) && !sorted[next].At.After(now) {
			s.plant.Apply(sorted[next])
			next++
		}
		s.record(s.plant.Tick(now))
	}
	return s.finish()
}

func isReminder(cat models.Category) bool {
	switch cat {
	case models.CategoryHydration, models.CategoryMovement, models.CategoryPosture,
		models.CategoryBreak, models.CategoryConcern:
		return true
	}
	return false
}
