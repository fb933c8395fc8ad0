package learning

import (
	"math"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/models"
)

// PatternLearner learns the expected activity level for each hour of the day.
//
// Each hour keeps an exponential moving average of observed activity and a
// confidence that grows with every sample. Hours below the minimum
// confidence are reported as unknown so callers fall back to static
// thresholds.
type PatternLearner struct {
	patterns  [models.HoursPerDay]models.ActivityPattern
	rate      float64
	workStart int
	workEnd   int
}

// NewPatternLearner creates a learner with no samples. A rate outside (0,1]
// is replaced by constants.DefaultLearningRate.
func NewPatternLearner(rate float64, workStart, workEnd int) *PatternLearner {
	if rate <= 0 || rate > 1 {
		rate = constants.DefaultLearningRate
	}
	l := &PatternLearner{rate: rate}
	for h := range l.patterns {
		l.patterns[h].Hour = h
	}
	l.SetWorkingHours(workStart, workEnd)
	return l
}

// Update folds one activity observation into the pattern for hour.
// The first sample for an hour seeds the expectation directly. Out-of-range
// hours and NaN observations are ignored; others are clamped to [0,1].
func (l *PatternLearner) Update(hour int, observed float64) {
	if !validHour(hour) || math.IsNaN(observed) {
		return
	}
	observed = clamp01(observed)

	p := &l.patterns[hour]
	if p.Samples == 0 {
		p.ExpectedActivity = observed
	} else {
		p.ExpectedActivity = p.ExpectedActivity*(1-l.rate) + observed*l.rate
	}
	p.Samples++
	p.Confidence += constants.ConfidenceIncrement
	if p.Confidence > 1 {
		p.Confidence = 1
	}
}

// ConfidenceFor returns the confidence for hour, or 0 for invalid hours.
func (l *PatternLearner) ConfidenceFor(hour int) float64 {
	if !validHour(hour) {
		return 0
	}
	return l.patterns[hour].Confidence
}

// Expected returns the learned activity for hour. ok is false when the hour
// is out of range or its confidence is below constants.PatternConfidenceMin.
func (l *PatternLearner) Expected(hour int) (float64, bool) {
	if !validHour(hour) {
		return 0, false
	}
	p := l.patterns[hour]
	if p.Confidence < constants.PatternConfidenceMin {
		return 0, false
	}
	return p.ExpectedActivity, true
}

// IsWorkTime reports whether hour is inside the configured working window.
func (l *PatternLearner) IsWorkTime(hour int) bool {
	if !validHour(hour) {
		return false
	}
	return l.patterns[hour].IsWorkTime
}

// LearningConfidence is the mean of the per-hour confidences.
func (l *PatternLearner) LearningConfidence() float64 {
	var sum float64
	for _, p := range l.patterns {
		sum += p.Confidence
	}
	return sum / models.HoursPerDay
}

// SetWorkingHours recomputes the work-time flag of every hour. Invalid hours
// leave the current window unchanged.
func (l *PatternLearner) SetWorkingHours(start, end int) {
	if !validHour(start) || !validHour(end) {
		return
	}
	l.workStart, l.workEnd = start, end
	for h := range l.patterns {
		l.patterns[h].IsWorkTime = models.InWorkWindow(h, start, end)
	}
}

// WorkingHours returns the configured working window.
func (l *PatternLearner) WorkingHours() (start, end int) {
	return l.workStart, l.workEnd
}

// Patterns returns a copy of all hourly patterns.
func (l *PatternLearner) Patterns() [models.HoursPerDay]models.ActivityPattern {
	return l.patterns
}

// Restore replaces learned values from a persisted profile. Work-time flags
// are recomputed from the current window, and confidences are clamped.
func (l *PatternLearner) Restore(patterns [models.HoursPerDay]models.ActivityPattern) {
	for h, p := range patterns {
		l.patterns[h] = models.ActivityPattern{
			Hour:             h,
			ExpectedActivity: clamp01(p.ExpectedActivity),
			Confidence:       clamp01(p.Confidence),
			Samples:          max(p.Samples, 0),
			IsWorkTime:       models.InWorkWindow(h, l.workStart, l.workEnd),
		}
	}
}

// Reset forgets every learned value. This is the only way confidence decreases.
func (l *PatternLearner) Reset() {
	for h := range l.patterns {
		l.patterns[h] = models.ActivityPattern{
			Hour:       h,
			IsWorkTime: models.InWorkWindow(h, l.workStart, l.workEnd),
		}
	}
}

func validHour(h int) bool {
	return h >= 0 && h < models.HoursPerDay
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
