package learning

import (
	"time"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/models"
)

// CareChange is the care-level adjustment implied by a user reaction.
type CareChange int

const (
	CareUnchanged CareChange = iota
	CareEscalate
	CareDeescalate
)

// String returns a string representation of the care change
func (c CareChange) String() string {
	switch c {
	case CareUnchanged:
		return "unchanged"
	case CareEscalate:
		return "escalate"
	case CareDeescalate:
		return "deescalate"
	default:
		return "unknown"
	}
}

// Decision is the outcome of recording a user reaction.
type Decision struct {
	Category   models.Category
	Change     CareChange
	Preference float64
}

// InteractionLearner adapts per-category preferences from user reactions and
// tracks consecutive ignored messages.
type InteractionLearner struct {
	prefs   [models.NumCategories]float64
	history models.InteractionHistory
	rate    float64
	enabled bool
}

// NewInteractionLearner creates a learner with neutral preferences. A rate
// outside (0,1] is replaced by constants.DefaultAdaptationRate.
func NewInteractionLearner(rate float64) *InteractionLearner {
	l := &InteractionLearner{enabled: true}
	l.SetRate(rate)
	l.Reset()
	return l
}

// SetRate sets the shared adaptation rate. Values outside (0,1] fall back to
// the default.
func (l *InteractionLearner) SetRate(rate float64) {
	if rate <= 0 || rate > 1 {
		rate = constants.DefaultAdaptationRate
	}
	l.rate = rate
}

// Rate returns the adaptation rate.
func (l *InteractionLearner) Rate() float64 { return l.rate }

// SetEnabled turns preference adaptation on or off. Counters are updated
// either way.
func (l *InteractionLearner) SetEnabled(enabled bool) { l.enabled = enabled }

// Enabled reports whether preference adaptation is on.
func (l *InteractionLearner) Enabled() bool { return l.enabled }

// NoteSent records that a message of cat was just delivered at now.
func (l *InteractionLearner) NoteSent(cat models.Category, now time.Time) {
	if !cat.Valid() {
		return
	}
	l.history.LastCategory = cat
	l.history.LastResponseTime = now
	l.history.UserResponded = false
}

// RecordResponse records that the user reacted to a message of cat.
// An effective reaction pulls the preference toward 1.0 and asks for one
// step of de-escalation; a non-effective one pulls it toward 0.0.
func (l *InteractionLearner) RecordResponse(cat models.Category, effective bool) Decision {
	if !cat.Valid() {
		return Decision{Category: cat}
	}
	l.history.UserResponded = true
	l.history.ConsecutiveIgnored = 0

	target := constants.IneffectiveTarget
	change := CareUnchanged
	if effective {
		target = constants.EffectiveTarget
		change = CareDeescalate
	}
	l.Adapt(cat, target)
	return Decision{Category: cat, Change: change, Preference: l.prefs[cat]}
}

// RecordIgnored records that a message of cat went unanswered. Escalation is
// requested each time the consecutive-ignored counter reaches a multiple of
// constants.IgnoredEscalationCount.
func (l *InteractionLearner) RecordIgnored(cat models.Category) Decision {
	if !cat.Valid() {
		return Decision{Category: cat}
	}
	l.history.UserResponded = false
	l.history.ConsecutiveIgnored++
	l.Adapt(cat, constants.IgnoredTarget)

	change := CareUnchanged
	if l.history.ConsecutiveIgnored%constants.IgnoredEscalationCount == 0 {
		change = CareEscalate
	}
	return Decision{Category: cat, Change: change, Preference: l.prefs[cat]}
}

// Adapt moves the preference for cat toward target by one EMA step and
// updates the overall effectiveness estimate the same way. It is a no-op
// when learning is disabled or cat is invalid.
func (l *InteractionLearner) Adapt(cat models.Category, target float64) {
	if !l.enabled || !cat.Valid() {
		return
	}
	target = clamp01(target)
	l.prefs[cat] = l.prefs[cat]*(1-l.rate) + target*l.rate
	l.history.ResponseEffectiveness = l.history.ResponseEffectiveness*(1-l.rate) + target*l.rate
}

// Preference returns the preference score for cat, or the neutral value for
// invalid categories.
func (l *InteractionLearner) Preference(cat models.Category) float64 {
	if !cat.Valid() {
		return constants.NeutralPreference
	}
	return l.prefs[cat]
}

// Preferences returns a copy of all preference scores.
func (l *InteractionLearner) Preferences() [models.NumCategories]float64 {
	return l.prefs
}

// History returns a copy of the interaction history.
func (l *InteractionLearner) History() models.InteractionHistory {
	return l.history
}

// ConsecutiveIgnored returns the current ignored streak.
func (l *InteractionLearner) ConsecutiveIgnored() int {
	return l.history.ConsecutiveIgnored
}

// Restore replaces preferences and history from persisted state.
func (l *InteractionLearner) Restore(prefs [models.NumCategories]float64, history models.InteractionHistory) {
	for i, p := range prefs {
		l.prefs[i] = clamp01(p)
	}
	history.ResponseEffectiveness = clamp01(history.ResponseEffectiveness)
	if history.ConsecutiveIgnored < 0 {
		history.ConsecutiveIgnored = 0
	}
	if !history.LastCategory.Valid() {
		history.LastCategory = models.CategoryGreeting
	}
	l.history = history
}

// Reset returns every preference to neutral and clears the history.
func (l *InteractionLearner) Reset() {
	for i := range l.prefs {
		l.prefs[i] = constants.NeutralPreference
	}
	l.history = models.NewInteractionHistory()
}
