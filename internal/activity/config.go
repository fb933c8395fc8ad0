package activity

import (
	"time"

	"github.com/nvandessel/pixelplant/internal/constants"
)

// Config holds the tracker thresholds. Zero fields take their defaults.
type Config struct {
	WindowSize int

	PresenceTimeout     time.Duration
	BreakMinDuration    time.Duration
	MovedAfterStillness time.Duration
	PositiveWindow      time.Duration

	HydrationInterval time.Duration
	MovementInterval  time.Duration
	PostureInterval   time.Duration
	BreakInterval     time.Duration
	ReminderCooldown  time.Duration

	// UrgentThreshold saturates the inactivity term of the stress estimate.
	UrgentThreshold time.Duration

	GoodPosture        float64
	MinHealthyActivity float64
	StressThreshold    float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize:          constants.ActivityWindowSize,
		PresenceTimeout:     constants.PresenceTimeout,
		BreakMinDuration:    constants.BreakMinDuration,
		MovedAfterStillness: constants.MovedAfterStillness,
		PositiveWindow:      constants.PositiveWindow,
		HydrationInterval:   constants.HydrationReminderInterval,
		MovementInterval:    constants.MovementReminderInterval,
		PostureInterval:     constants.PostureReminderInterval,
		BreakInterval:       constants.DefaultBreakInterval,
		ReminderCooldown:    constants.ReminderCooldown,
		UrgentThreshold:     constants.UrgentInactivityThreshold,
		GoodPosture:         constants.GoodPostureThreshold,
		MinHealthyActivity:  constants.MinHealthyActivity,
		StressThreshold:     constants.StressIndicatorThreshold,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WindowSize <= 0 {
		c.WindowSize = d.WindowSize
	}
	setDuration(&c.PresenceTimeout, d.PresenceTimeout)
	setDuration(&c.BreakMinDuration, d.BreakMinDuration)
	setDuration(&c.MovedAfterStillness, d.MovedAfterStillness)
	setDuration(&c.PositiveWindow, d.PositiveWindow)
	setDuration(&c.HydrationInterval, d.HydrationInterval)
	setDuration(&c.MovementInterval, d.MovementInterval)
	setDuration(&c.PostureInterval, d.PostureInterval)
	setDuration(&c.BreakInterval, d.BreakInterval)
	setDuration(&c.ReminderCooldown, d.ReminderCooldown)
	setDuration(&c.UrgentThreshold, d.UrgentThreshold)
	if c.GoodPosture <= 0 {
		c.GoodPosture = d.GoodPosture
	}
	if c.MinHealthyActivity <= 0 {
		c.MinHealthyActivity = d.MinHealthyActivity
	}
	if c.StressThreshold <= 0 {
		c.StressThreshold = d.StressThreshold
	}
	return c
}

func (c Config) interval(n Need) time.Duration {
	switch n {
	case NeedHydration:
		return c.HydrationInterval
	case NeedMovement:
		return c.MovementInterval
	case NeedPosture:
		return c.PostureInterval
	default:
		return c.BreakInterval
	}
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}
