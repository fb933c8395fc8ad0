package models

import "time"

// HoursPerDay is the number of hourly activity patterns kept per profile.
const HoursPerDay = 24

// ActivityPattern is the learned activity expectation for one hour of the day.
type ActivityPattern struct {
	Hour             int     `json:"hour" yaml:"hour"`
	ExpectedActivity float64 `json:"expected_activity" yaml:"expected_activity"`

	// Confidence grows by a fixed increment per sample and saturates at 1.0.
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Samples    int     `json:"samples" yaml:"samples"`

	// IsWorkTime comes from the configured working-hours window, not from
	// observed activity.
	IsWorkTime bool `json:"is_work_time" yaml:"is_work_time"`
}

// UserProfile holds the learned and configured preferences of the user.
type UserProfile struct {
	Patterns [HoursPerDay]ActivityPattern `json:"patterns" yaml:"patterns"`

	// PreferredBreakInterval is the desired work session length in minutes.
	PreferredBreakInterval int `json:"preferred_break_interval" yaml:"preferred_break_interval"`

	// HydrationFrequency is the number of hydration reminders per hour.
	HydrationFrequency     float64 `json:"hydration_frequency" yaml:"hydration_frequency"`
	MovementSensitivity    float64 `json:"movement_sensitivity" yaml:"movement_sensitivity"`
	ReminderResponsiveness float64 `json:"reminder_responsiveness" yaml:"reminder_responsiveness"`

	// Goals
	TargetStepsPerHour  int     `json:"target_steps_per_hour" yaml:"target_steps_per_hour"`
	TargetBreaksPerDay  int     `json:"target_breaks_per_day" yaml:"target_breaks_per_day"`
	TargetActivityLevel float64 `json:"target_activity_level" yaml:"target_activity_level"`

	WorkStartHour int `json:"work_start_hour" yaml:"work_start_hour"`
	WorkEndHour   int `json:"work_end_hour" yaml:"work_end_hour"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// LearningConfidence is the mean of the per-hour confidences.
	LearningConfidence float64 `json:"learning_confidence" yaml:"learning_confidence"`
}

// NewUserProfile returns a profile with neutral defaults and no learned data.
// Hours inside [workStart, workEnd) are flagged as work time; windows that
// wrap past midnight are supported.
func NewUserProfile(workStart, workEnd int, now time.Time) *UserProfile {
	p := &UserProfile{
		PreferredBreakInterval: 60,
		HydrationFrequency:     60.0 / 45.0,
		MovementSensitivity:    1.0,
		ReminderResponsiveness: 0.5,
		TargetStepsPerHour:     250,
		TargetBreaksPerDay:     8,
		TargetActivityLevel:    0.5,
		WorkStartHour:          workStart,
		WorkEndHour:            workEnd,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	for h := range p.Patterns {
		p.Patterns[h] = ActivityPattern{
			Hour:       h,
			IsWorkTime: InWorkWindow(h, workStart, workEnd),
		}
	}
	return p
}

// Clone returns a deep copy of the profile. A nil profile clones to nil.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// InWorkWindow reports whether hour falls in [start, end). When start > end
// the window wraps around midnight. An empty window (start == end) contains
// no hours.
func InWorkWindow(hour, start, end int) bool {
	if hour < 0 || hour >= HoursPerDay {
		return false
	}
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
