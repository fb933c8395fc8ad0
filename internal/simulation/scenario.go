package simulation

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/pixelplant/internal/plant"
)

// DefaultStep is the virtual time between two ticks.
const DefaultStep = time.Minute

// DefaultStart is a Monday morning; scenarios without a start begin here.
var DefaultStart = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

// Scenario defines a complete simulated session.
type Scenario struct {
	Name  string        `yaml:"name"`
	Start time.Time     `yaml:"start,omitempty"`
	Step  time.Duration `yaml:"step,omitempty"`

	// RespondAfter makes the simulated user move this long after every
	// reminder while present. Zero means reminders are ignored.
	RespondAfter time.Duration `yaml:"respond_after,omitempty"`

	Phases []Phase `yaml:"phases"`
}

// Phase is a stretch of uniform user behavior.
type Phase struct {
	Label string        `yaml:"label"`
	For   time.Duration `yaml:"for"`

	// Present shows a face to the camera every step.
	Present bool `yaml:"present"`

	// MotionEvery triggers the motion sensor at this cadence. Zero means the
	// user stays still.
	MotionEvery time.Duration `yaml:"motion_every,omitempty"`

	Posture *float64 `yaml:"posture,omitempty"`
	Light   *float64 `yaml:"light,omitempty"`

	// Sleep forces sleep mode on or off when the phase starts.
	Sleep *bool `yaml:"sleep,omitempty"`
}

// withDefaults fills in the start and the step.
func (s Scenario) withDefaults() Scenario {
	if s.Start.IsZero() {
		s.Start = DefaultStart
	}
	if s.Step <= 0 {
		s.Step = DefaultStep
	}
	return s
}

// Validate checks that the scenario can run.
func (s Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("scenario %q has no phases", s.Name)
	}
	if s.RespondAfter < 0 {
		return fmt.Errorf("respond_after must be non-negative, got %v", s.RespondAfter)
	}
	for i, ph := range s.Phases {
		if ph.For <= 0 {
			return fmt.Errorf("phase %d (%s): duration must be positive", i, ph.Label)
		}
		if ph.MotionEvery < 0 {
			return fmt.Errorf("phase %d (%s): motion_every must be non-negative", i, ph.Label)
		}
		rd := plant.Reading{Posture: ph.Posture, Light: ph.Light}
		if err := rd.Validate(); err != nil {
			return fmt.Errorf("phase %d (%s): %w", i, ph.Label, err)
		}
	}
	return nil
}

// Duration returns the total simulated time.
func (s Scenario) Duration() time.Duration {
	var d time.Duration
	for _, ph := range s.Phases {
		d += ph.For
	}
	return d
}

// reading builds the sensor reading for the step ending elapsed into the
// phase.
func (ph Phase) reading(elapsed time.Duration) plant.Reading {
	var rd plant.Reading
	if ph.Present {
		rd.Face = plant.Bool(true)
		rd.Posture = ph.Posture
		if ph.MotionEvery > 0 && elapsed%ph.MotionEvery == 0 {
			rd.Motion = plant.Bool(true)
		}
	}
	rd.Light = ph.Light
	return rd
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

var builtins = map[string]Scenario{
	"workday": {
		Name:         "workday",
		RespondAfter: 2 * time.Minute,
		Phases: []Phase{
			{Label: "morning focus", For: 3 * time.Hour, Present: true, Posture: plant.Float(0.8)},
			{Label: "lunch", For: 25 * time.Minute},
			{Label: "afternoon slump", For: 3 * time.Hour, Present: true, Posture: plant.Float(0.5)},
			{Label: "wrap up", For: time.Hour, Present: true, MotionEvery: 20 * time.Minute, Posture: plant.Float(0.75)},
		},
	},
	"ignored": {
		Name: "ignored",
		Phases: []Phase{
			{Label: "glued to the desk", For: 4 * time.Hour, Present: true, Posture: plant.Float(0.4)},
		},
	},
	"away": {
		Name: "away",
		Phases: []Phase{
			{Label: "arrive", For: 30 * time.Minute, Present: true, MotionEvery: 10 * time.Minute},
			{Label: "meeting", For: time.Hour},
			{Label: "back", For: 30 * time.Minute, Present: true, MotionEvery: 5 * time.Minute},
		},
	},
	"night": {
		Name:  "night",
		Start: time.Date(2026, 4, 6, 22, 0, 0, 0, time.UTC),
		Phases: []Phase{
			{Label: "late work", For: time.Hour, Present: true, Light: plant.Float(0.1)},
			{Label: "bedtime", For: 2 * time.Hour, Sleep: plant.Bool(true)},
			{Label: "insomnia", For: 30 * time.Minute, Present: true, MotionEvery: 10 * time.Minute},
		},
	},
}

// Builtin returns a named built-in scenario.
func Builtin(name string) (Scenario, bool) {
	s, ok := builtins[name]
	s.Phases = append([]Phase(nil), s.Phases...)
	return s, ok
}

// BuiltinNames lists the built-in scenarios in order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
