package models

import "time"

// NamePlaceholder is the only template token substituted in message text.
const NamePlaceholder = "{name}"

// PersonalityMessage is a candidate response template. Text, Mood and
// CareLevel never change after load; LastUsed and UseCount are updated when
// the message is selected.
type PersonalityMessage struct {
	Text      string    `json:"text" yaml:"text"`
	Mood      Mood      `json:"mood" yaml:"mood"`
	CareLevel CareLevel `json:"care_level" yaml:"care_level"`

	LastUsed time.Time `json:"-" yaml:"-"`
	UseCount int       `json:"-" yaml:"-"`
}

// InteractionHistory tracks how the user has reacted to recent messages.
type InteractionHistory struct {
	LastCategory       Category  `json:"last_category" yaml:"last_category"`
	LastResponseTime   time.Time `json:"last_response_time" yaml:"last_response_time"`
	UserResponded      bool      `json:"user_responded" yaml:"user_responded"`
	ConsecutiveIgnored int       `json:"consecutive_ignored" yaml:"consecutive_ignored"`

	// ResponseEffectiveness is a running estimate across all categories.
	ResponseEffectiveness float64 `json:"response_effectiveness" yaml:"response_effectiveness"`
}

// NewInteractionHistory returns the neutral starting history.
func NewInteractionHistory() InteractionHistory {
	return InteractionHistory{
		UserResponded:         true,
		ResponseEffectiveness: 0.5,
	}
}

// PersonalityState is the persisted part of the personality engine.
// Message usage counters are deliberately absent: the bank starts fresh on
// every process start. The user name is configuration and is not stored.
type PersonalityState struct {
	Mood        Mood                   `json:"mood" yaml:"mood"`
	CareLevel   CareLevel              `json:"care_level" yaml:"care_level"`
	Preferences [NumCategories]float64 `json:"preferences" yaml:"preferences"`
	History     InteractionHistory     `json:"history" yaml:"history"`
	SavedAt     time.Time              `json:"saved_at" yaml:"saved_at"`
}

// NewPersonalityState returns the first-run state: happy, gentle, all
// preferences neutral.
func NewPersonalityState() *PersonalityState {
	s := &PersonalityState{
		Mood:      MoodHappy,
		CareLevel: CareGentle,
		History:   NewInteractionHistory(),
	}
	for i := range s.Preferences {
		s.Preferences[i] = 0.5
	}
	return s
}
