package models

import (
	"fmt"
	"strings"
)

// CareLevel is the ordered escalation state that governs how persistent
// generated messages are. Transitions move exactly one step at a time.
type CareLevel int

const (
	CareGentle      CareLevel = iota // Soft suggestions
	CareEncouraging                  // Friendly reminders
	CareConcerned                    // More persistent care
	CareWorried                      // Urgent attention needed
)

// NumCareLevels is the number of defined care levels.
const NumCareLevels = 4

// String returns a string representation of the care level
func (c CareLevel) String() string {
	switch c {
	case CareGentle:
		return "gentle"
	case CareEncouraging:
		return "encouraging"
	case CareConcerned:
		return "concerned"
	case CareWorried:
		return "worried"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the defined care levels.
func (c CareLevel) Valid() bool {
	return c >= CareGentle && c <= CareWorried
}

// Next returns the next higher care level, saturating at CareWorried.
func (c CareLevel) Next() CareLevel {
	if c >= CareWorried {
		return CareWorried
	}
	if c < CareGentle {
		return CareGentle
	}
	return c + 1
}

// Previous returns the next lower care level, saturating at CareGentle.
func (c CareLevel) Previous() CareLevel {
	if c <= CareGentle {
		return CareGentle
	}
	if c > CareWorried {
		return CareWorried
	}
	return c - 1
}

// ParseCareLevel maps a care level name to its value (case-insensitive).
func ParseCareLevel(s string) (CareLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gentle":
		return CareGentle, nil
	case "encouraging":
		return CareEncouraging, nil
	case "concerned":
		return CareConcerned, nil
	case "worried":
		return CareWorried, nil
	default:
		return CareGentle, fmt.Errorf("unknown care level %q", s)
	}
}

// Mood is the device's expressed emotional state. It is recomputed from the
// behavior snapshot on every decision and has no transition history.
type Mood int

const (
	MoodHappy Mood = iota
	MoodCaring
	MoodConcerned
	MoodWorried
	MoodSleeping
	MoodCelebrating
)

// NumMoods is the number of defined moods.
const NumMoods = 6

// String returns a string representation of the mood
func (m Mood) String() string {
	switch m {
	case MoodHappy:
		return "happy"
	case MoodCaring:
		return "caring"
	case MoodConcerned:
		return "concerned"
	case MoodWorried:
		return "worried"
	case MoodSleeping:
		return "sleeping"
	case MoodCelebrating:
		return "celebrating"
	default:
		return "unknown"
	}
}

// Valid reports whether m is one of the defined moods.
func (m Mood) Valid() bool {
	return m >= MoodHappy && m <= MoodCelebrating
}

// ParseMood maps a mood name to its value (case-insensitive).
func ParseMood(s string) (Mood, error) {
	for m := MoodHappy; m <= MoodCelebrating; m++ {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return MoodHappy, fmt.Errorf("unknown mood %q", s)
}

// MarshalText encodes the care level by name.
func (c CareLevel) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid care level %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a care level name.
func (c *CareLevel) UnmarshalText(b []byte) error {
	v, err := ParseCareLevel(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalText encodes the mood by name.
func (m Mood) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mood %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mood name.
func (m *Mood) UnmarshalText(b []byte) error {
	v, err := ParseMood(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
