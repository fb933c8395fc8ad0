package models

import "time"

// BehaviorSnapshot is the per-tick summary of user activity and needs.
// Every derived field is computed from the same tick's inputs in a single
// pass; a snapshot is never partially updated.
type BehaviorSnapshot struct {
	// Taken is the clock reading the snapshot was computed at.
	Taken time.Time `json:"taken" yaml:"taken"`

	// Activity
	InactivityDuration time.Duration `json:"inactivity_duration" yaml:"inactivity_duration"`
	IsUserPresent      bool          `json:"is_user_present" yaml:"is_user_present"`
	IsUserMoving       bool          `json:"is_user_moving" yaml:"is_user_moving"`
	ActivityLevel      float64       `json:"activity_level" yaml:"activity_level"`

	// Posture
	IsUserSitting  bool    `json:"is_user_sitting" yaml:"is_user_sitting"`
	IsUserStanding bool    `json:"is_user_standing" yaml:"is_user_standing"`
	PostureKnown   bool    `json:"posture_known" yaml:"posture_known"`
	PostureQuality float64 `json:"posture_quality" yaml:"posture_quality"`

	// Needs
	NeedsHydration         bool `json:"needs_hydration" yaml:"needs_hydration"`
	NeedsMovement          bool `json:"needs_movement" yaml:"needs_movement"`
	NeedsPostureAdjustment bool `json:"needs_posture_adjustment" yaml:"needs_posture_adjustment"`
	NeedsBreak             bool `json:"needs_break" yaml:"needs_break"`
	NeedsSupport           bool `json:"needs_support" yaml:"needs_support"`

	// Positive behavior, latched for a short window after the event
	HasPositiveBehavior bool `json:"has_positive_behavior" yaml:"has_positive_behavior"`
	TookBreak           bool `json:"took_break" yaml:"took_break"`
	ImprovedPosture     bool `json:"improved_posture" yaml:"improved_posture"`
	GotUpAndMoved       bool `json:"got_up_and_moved" yaml:"got_up_and_moved"`

	// Timing
	LastMovementTime time.Time     `json:"last_movement_time" yaml:"last_movement_time"`
	LastBreakTime    time.Time     `json:"last_break_time" yaml:"last_break_time"`
	SessionStartTime time.Time     `json:"session_start_time" yaml:"session_start_time"`
	SessionDuration  time.Duration `json:"session_duration" yaml:"session_duration"`

	// Environment
	LightLevel      float64 `json:"light_level" yaml:"light_level"`
	LightKnown      bool    `json:"light_known" yaml:"light_known"`
	EstimatedStress float64 `json:"estimated_stress" yaml:"estimated_stress"`
	HourOfDay       int     `json:"hour_of_day" yaml:"hour_of_day"`

	// Sleeping is true while sleep mode is active. Need flags are always
	// false in a sleeping snapshot.
	Sleeping bool `json:"sleeping" yaml:"sleeping"`

	// ExpectedActivity is the learned activity level for HourOfDay. Only
	// meaningful when PatternKnown is true.
	ExpectedActivity float64 `json:"expected_activity" yaml:"expected_activity"`
	PatternKnown     bool    `json:"pattern_known" yaml:"pattern_known"`
}

// InactivityMinutes returns the inactivity duration in fractional minutes.
func (s BehaviorSnapshot) InactivityMinutes() float64 {
	return s.InactivityDuration.Minutes()
}

// HasAnyNeed reports whether at least one reminder-worthy need is set.
func (s BehaviorSnapshot) HasAnyNeed() bool {
	return s.NeedsHydration || s.NeedsMovement || s.NeedsPostureAdjustment || s.NeedsBreak
}
