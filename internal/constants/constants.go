// Package constants provides named constants used throughout the pixelplant codebase.
// This centralizes thresholds, intervals and weights so tests can refer to them by name.
package constants

import "time"

// Inactivity thresholds drive mood derivation and urgency.
const (
	// NormalInactivityThreshold is the inactivity after which urgency starts to build.
	NormalInactivityThreshold = 30 * time.Minute

	// ConcernedInactivityThreshold is the inactivity after which the plant becomes concerned.
	ConcernedInactivityThreshold = 60 * time.Minute

	// UrgentInactivityThreshold is the inactivity after which the plant becomes worried.
	UrgentInactivityThreshold = 120 * time.Minute
)

// Reminder intervals, measured from the last satisfying event.
const (
	HydrationReminderInterval = 45 * time.Minute
	MovementReminderInterval  = 60 * time.Minute
	PostureReminderInterval   = 30 * time.Minute

	// ReminderCooldown is the minimum gap between two reminders for the same need.
	ReminderCooldown = 15 * time.Minute

	// DefaultBreakInterval is the preferred work session length before a break is suggested.
	DefaultBreakInterval = 60 * time.Minute
)

// Presence and break detection.
const (
	// PresenceTimeout is how long presence survives without a motion or face signal.
	PresenceTimeout = 5 * time.Minute

	// BreakMinDuration is the shortest absence that counts as a break.
	// Shorter gaps are sensor noise.
	BreakMinDuration = 2 * time.Minute

	// MovedAfterStillness is the stillness that must precede motion for it to
	// count as "got up and moved".
	MovedAfterStillness = 10 * time.Minute

	// PositiveWindow is how long a positive behavior stays latched in snapshots.
	PositiveWindow = time.Minute
)

// Activity window.
const (
	// ActivityWindowSize is the number of samples in the rolling activity window.
	ActivityWindowSize = 60

	// MotionSample is the window sample recorded when motion is seen.
	MotionSample = 1.0

	// FaceOnlySample is the window sample recorded when only a face is seen.
	FaceOnlySample = 0.2
)

// Behavior analysis thresholds, all on a [0,1] scale.
const (
	// GoodPostureThreshold is the posture score at or above which posture is good.
	GoodPostureThreshold = 0.7

	// MinHealthyActivity is the activity level assumed healthy when no learned pattern is confident.
	MinHealthyActivity = 0.3

	// StressIndicatorThreshold is the estimated stress at which the user needs support.
	StressIndicatorThreshold = 0.6

	// LowLightLevel is the ambient light below which the desk counts as dim.
	LowLightLevel = 0.2

	// MovingActivityThreshold is the activity level above which the user counts as moving.
	MovingActivityThreshold = 0.5
)

// Stress estimate weights.
const (
	StressInactivityWeight = 0.5
	StressPostureWeight    = 0.3
	StressActivityWeight   = 0.2
)

// Learning constants.
const (
	// DefaultLearningRate is the EMA rate for hourly activity patterns.
	DefaultLearningRate = 0.1

	// ConfidenceIncrement is the per-sample confidence gain of an hourly pattern.
	ConfidenceIncrement = 0.01

	// PatternConfidenceMin is the confidence below which a pattern is treated as unknown.
	PatternConfidenceMin = 0.8

	// LearnInterval is the minimum time between two pattern updates.
	LearnInterval = time.Minute

	// DefaultAdaptationRate is the EMA rate for category preferences.
	DefaultAdaptationRate = 0.1

	// NeutralPreference is the starting preference for every category.
	NeutralPreference = 0.5

	// EffectiveTarget, IneffectiveTarget and IgnoredTarget are the EMA targets
	// for the three kinds of user reaction.
	EffectiveTarget   = 1.0
	IneffectiveTarget = 0.0
	IgnoredTarget     = 0.2

	// IgnoredEscalationCount is the number of consecutive ignored messages
	// that escalates the care level.
	IgnoredEscalationCount = 3
)

// Working hours defaults.
const (
	DefaultWorkStartHour = 9
	DefaultWorkEndHour   = 17
)

// Urgency contributions.
const (
	UrgentInactivityUrgency    = 0.8
	ConcernedInactivityUrgency = 0.5
	NormalInactivityUrgency    = 0.3

	HydrationUrgency = 0.3
	MovementUrgency  = 0.2
	PostureUrgency   = 0.1

	// EscalateAbove and DeescalateBelow bound the urgency band in which the
	// care level is left unchanged.
	EscalateAbove   = 0.7
	DeescalateBelow = 0.3
)

// Message selection weights.
const (
	CareMatchWeight    = 0.4
	MoodMatchWeight    = 0.3
	RecencyPerMinute   = 0.2
	FrequencyWeight    = 0.1
	FrequencyNumerator = 10.0
)

// Personality engine defaults.
const (
	// DefaultResponseCooldown is the minimum gap between two generated messages.
	DefaultResponseCooldown = 5 * time.Second

	// DefaultQueueCapacity bounds the outgoing message queue.
	DefaultQueueCapacity = 10

	// DefaultUserName is used when no user name is configured.
	DefaultUserName = "friend"

	// FallbackMessage is returned for empty or unknown categories.
	FallbackMessage = "I care about you! 💚"

	// MaxUserNameLen is the maximum length of a sanitized user name.
	MaxUserNameLen = 32

	// MaxMessageLen is the maximum length of a custom message template.
	MaxMessageLen = 200

	// DefaultWarmth is the personality warmth reported in the status line.
	DefaultWarmth = 0.9
)

// Runner and persistence.
const (
	// DefaultTickInterval is the cadence of the host loop.
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultAutosaveInterval is how often the runner persists profile and state.
	DefaultAutosaveInterval = 5 * time.Minute

	// MaxPendingEvents bounds the interaction events buffered between drains.
	// The oldest events are dropped first.
	MaxPendingEvents = 256

	// MaxBackupRotation is the default maximum number of backup files to keep.
	MaxBackupRotation = 10

	// SleepAfterAway is how long the user must be gone before the plant
	// falls asleep on its own.
	SleepAfterAway = 30 * time.Minute
)

// Insights.
const (
	// MinInsightSamples is the number of outcomes below which a reminder
	// category is not analyzed at all.
	MinInsightSamples = 3

	// SufficientInsightSamples is the number of outcomes at which an analysis
	// is considered reliable.
	SufficientInsightSamples = 10

	// MinActivityRecords is the number of activity samples needed for an
	// hourly pattern analysis.
	MinActivityRecords = 10

	// MinBreakRecords is the number of breaks needed for a weekday analysis.
	MinBreakRecords = 5

	// Response rate bounds of the effectiveness ratings.
	HighlyEffectiveRate     = 0.7
	ModeratelyEffectiveRate = 0.4
	LowEffectivenessRate    = 0.2

	// TopHours is how many hours are listed as most or least active.
	TopHours = 3
)

// DefaultReminderHours are suggested when there is too little activity data.
var DefaultReminderHours = []int{10, 14, 16}
