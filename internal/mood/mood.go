// Package mood derives the expressed mood and urgency from a behavior
// snapshot and steps the care level.
//
// Mood is a pure function of the snapshot. The care level is sticky and only
// ever moves one step per decision.
package mood

import (
	"fmt"
	"strings"
	"time"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/models"
)

// Thresholds are the inactivity bands used for mood and urgency.
type Thresholds struct {
	Normal    time.Duration `json:"normal" yaml:"normal"`
	Concerned time.Duration `json:"concerned" yaml:"concerned"`
	Urgent    time.Duration `json:"urgent" yaml:"urgent"`
}

// DefaultThresholds returns the 30/60/120 minute bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Normal:    constants.NormalInactivityThreshold,
		Concerned: constants.ConcernedInactivityThreshold,
		Urgent:    constants.UrgentInactivityThreshold,
	}
}

// Derive returns the mood for s. The first matching rule wins: sleeping,
// urgent inactivity, concerning inactivity, positive behavior, needs support.
func Derive(s models.BehaviorSnapshot, th Thresholds) models.Mood {
	switch {
	case s.Sleeping:
		return models.MoodSleeping
	case s.InactivityDuration > th.Urgent:
		return models.MoodWorried
	case s.InactivityDuration > th.Concerned:
		return models.MoodConcerned
	case s.HasPositiveBehavior:
		return models.MoodCelebrating
	case s.NeedsSupport:
		return models.MoodCaring
	default:
		return models.MoodHappy
	}
}

// Urgency blends the inactivity band with outstanding needs, clamped to [0,1].
func Urgency(s models.BehaviorSnapshot, th Thresholds) float64 {
	var u float64
	switch {
	case s.InactivityDuration > th.Urgent:
		u = constants.UrgentInactivityUrgency
	case s.InactivityDuration > th.Concerned:
		u = constants.ConcernedInactivityUrgency
	case s.InactivityDuration > th.Normal:
		u = constants.NormalInactivityUrgency
	}

	if s.NeedsHydration {
		u += constants.HydrationUrgency
	}
	if s.NeedsMovement {
		u += constants.MovementUrgency
	}
	if s.NeedsPostureAdjustment {
		u += constants.PostureUrgency
	}

	if u > 1 {
		return 1
	}
	return u
}

// Step moves current at most one level: up when urgency is above the
// escalation bound, down when it is below the de-escalation bound.
func Step(current models.CareLevel, urgency float64) models.CareLevel {
	switch {
	case urgency > constants.EscalateAbove && current < models.CareWorried:
		return current.Next()
	case urgency < constants.DeescalateBelow && current > models.CareGentle:
		return current.Previous()
	default:
		return current
	}
}

// CaringPhrase is the verb phrase used when narrating care at a level.
func CaringPhrase(level models.CareLevel) string {
	switch level {
	case models.CareGentle:
		return "gently suggests"
	case models.CareEncouraging:
		return "encouragingly reminds you"
	case models.CareConcerned:
		return "is concerned and asks"
	case models.CareWorried:
		return "is really worried and insists"
	default:
		return "cares about you"
	}
}

// Describe renders a short human-readable summary of s.
func Describe(s models.BehaviorSnapshot) string {
	if s.Sleeping {
		return "sleeping"
	}
	if !s.IsUserPresent {
		return "user away"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "present, inactive %.0f min, activity %.2f", s.InactivityMinutes(), s.ActivityLevel)
	if s.PostureKnown {
		fmt.Fprintf(&b, ", posture %.2f", s.PostureQuality)
	}

	var needs []string
	if s.NeedsHydration {
		needs = append(needs, "hydration")
	}
	if s.NeedsMovement {
		needs = append(needs, "movement")
	}
	if s.NeedsPostureAdjustment {
		needs = append(needs, "posture")
	}
	if s.NeedsBreak {
		needs = append(needs, "break")
	}
	if len(needs) > 0 {
		fmt.Fprintf(&b, ", needs %s", strings.Join(needs, "+"))
	}
	if s.HasPositiveBehavior {
		b.WriteString(", doing great")
	}
	return b.String()
}
