// Package insights analyzes the interaction log and the learned profile:
// how well each kind of reminder works, when the user is most active and
// when breaks happen.
package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/store"
)

// Rating classifies the response rate of a reminder category.
type Rating string

const (
	RatingHighlyEffective     Rating = "highly_effective"
	RatingModeratelyEffective Rating = "moderately_effective"
	RatingLowEffectiveness    Rating = "low_effectiveness"
	RatingIneffective         Rating = "ineffective"
)

// Rate maps a response rate in [0,1] to a rating.
func Rate(responseRate float64) Rating {
	switch {
	case responseRate >= constants.HighlyEffectiveRate:
		return RatingHighlyEffective
	case responseRate >= constants.ModeratelyEffectiveRate:
		return RatingModeratelyEffective
	case responseRate >= constants.LowEffectivenessRate:
		return RatingLowEffectiveness
	default:
		return RatingIneffective
	}
}

// Effectiveness summarizes the outcomes of one reminder category.
type Effectiveness struct {
	Category   string `json:"category"`
	SampleSize int    `json:"sample_size"`

	// Analyzed is false below MinInsightSamples; the metrics are then zero.
	Analyzed bool `json:"analyzed"`

	// SufficientData marks an analysis backed by enough outcomes to act on.
	SufficientData bool `json:"sufficient_data"`

	Responded int `json:"responded"`
	Effective int `json:"effective"`
	Ignored   int `json:"ignored"`

	ResponseRate    float64       `json:"response_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time,omitempty"`
	Rating          Rating        `json:"rating,omitempty"`
}

// HourStat is the activity observed in one hour of the day.
type HourStat struct {
	Hour         int     `json:"hour"`
	Samples      int     `json:"samples"`
	MeanActivity float64 `json:"mean_activity"`
}

// ActivityPatterns ranks the hours of the day by observed activity.
type ActivityPatterns struct {
	SufficientData bool       `json:"sufficient_data"`
	TotalRecords   int        `json:"total_records"`
	MostActive     []int      `json:"most_active_hours,omitempty"`
	LeastActive    []int      `json:"least_active_hours,omitempty"`
	Hourly         []HourStat `json:"hourly,omitempty"`
}

// BreakPatterns counts detected breaks per weekday.
type BreakPatterns struct {
	SufficientData bool           `json:"sufficient_data"`
	TotalBreaks    int            `json:"total_breaks"`
	ByWeekday      map[string]int `json:"by_weekday,omitempty"`
	BusiestDay     string         `json:"busiest_day,omitempty"`
}

// Report is the full insights analysis.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Since       time.Time `json:"since,omitempty"`
	TotalEvents int       `json:"total_events"`

	Reminders     int              `json:"reminders"`
	Effectiveness []Effectiveness  `json:"effectiveness"`
	Activity      ActivityPatterns `json:"activity"`
	Breaks        BreakPatterns    `json:"breaks"`

	// Learned profile, when one is saved.
	LearningConfidence float64 `json:"learning_confidence"`
	Responsiveness     float64 `json:"responsiveness"`
	ConfidentHours     []int   `json:"confident_hours"`

	SuggestedReminderHours []int `json:"suggested_reminder_hours"`
}

// Source is what Generate reads from.
type Source interface {
	store.ProfileStore
	store.EventLog
}

// Generate loads the events since the given time and the saved profile and
// analyzes them.
func Generate(ctx context.Context, src Source, since, now time.Time) (*Report, error) {
	events, err := src.Events(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	profile, err := src.LoadProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	r := Analyze(events, profile, now)
	r.Since = since
	return r, nil
}

// Analyze builds a report from events and an optional profile.
func Analyze(events []models.Event, profile *models.UserProfile, now time.Time) *Report {
	r := &Report{
		GeneratedAt:    now,
		TotalEvents:    len(events),
		ConfidentHours: []int{},
	}
	for _, e := range events {
		if e.Kind == models.EventReminder {
			r.Reminders++
		}
	}
	r.Effectiveness = AnalyzeEffectiveness(events)
	r.Activity = AnalyzeActivity(events)
	r.Breaks = AnalyzeBreaks(events)

	if profile != nil {
		r.LearningConfidence = profile.LearningConfidence
		r.Responsiveness = profile.ReminderResponsiveness
		for _, p := range profile.Patterns {
			if p.Confidence >= constants.PatternConfidenceMin {
				r.ConfidentHours = append(r.ConfidentHours, p.Hour)
			}
		}
	}

	if r.Activity.SufficientData {
		r.SuggestedReminderHours = append([]int(nil), r.Activity.MostActive...)
	} else {
		r.SuggestedReminderHours = append([]int(nil), constants.DefaultReminderHours...)
	}
	return r
}

// AnalyzeEffectiveness summarizes response and ignore outcomes per reminder
// category, in category order. Categories without outcomes are omitted.
func AnalyzeEffectiveness(events []models.Event) []Effectiveness {
	type tally struct {
		responded, effective, ignored int
		timed                         int
		totalTime                     time.Duration
	}
	var tallies [models.NumCategories]tally
	for _, e := range events {
		if !e.Category.Valid() {
			continue
		}
		t := &tallies[e.Category]
		switch e.Kind {
		case models.EventResponse:
			t.responded++
			if e.Effective {
				t.effective++
			}
			if e.ResponseTime > 0 {
				t.timed++
				t.totalTime += e.ResponseTime
			}
		case models.EventIgnored:
			t.ignored++
		}
	}

	out := []Effectiveness{}
	for _, cat := range models.AllCategories() {
		t := tallies[cat]
		n := t.responded + t.ignored
		if n == 0 {
			continue
		}
		eff := Effectiveness{Category: cat.String(), SampleSize: n}
		if n >= constants.MinInsightSamples {
			eff.Analyzed = true
			eff.SufficientData = n >= constants.SufficientInsightSamples
			eff.Responded = t.responded
			eff.Effective = t.effective
			eff.Ignored = t.ignored
			eff.ResponseRate = float64(t.responded) / float64(n)
			eff.Rating = Rate(eff.ResponseRate)
			if t.timed > 0 {
				eff.AvgResponseTime = t.totalTime / time.Duration(t.timed)
			}
		}
		out = append(out, eff)
	}
	return out
}

// AnalyzeActivity groups activity samples by local hour and ranks the hours
// by mean activity. Ties go to the earlier hour.
func AnalyzeActivity(events []models.Event) ActivityPatterns {
	var sums [models.HoursPerDay]float64
	var counts [models.HoursPerDay]int
	total := 0
	for _, e := range events {
		if e.Kind != models.EventActivity {
			continue
		}
		h := e.At.Hour()
		sums[h] += e.Activity
		counts[h]++
		total++
	}

	ap := ActivityPatterns{TotalRecords: total}
	if total < constants.MinActivityRecords {
		return ap
	}
	ap.SufficientData = true
	for h := 0; h < models.HoursPerDay; h++ {
		if counts[h] == 0 {
			continue
		}
		ap.Hourly = append(ap.Hourly, HourStat{Hour: h, Samples: counts[h], MeanActivity: sums[h] / float64(counts[h])})
	}

	ranked := append([]HourStat(nil), ap.Hourly...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].MeanActivity > ranked[j].MeanActivity })
	n := min(constants.TopHours, len(ranked))
	for _, hs := range ranked[:n] {
		ap.MostActive = append(ap.MostActive, hs.Hour)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].MeanActivity < ranked[j].MeanActivity })
	for _, hs := range ranked[:n] {
		ap.LeastActive = append(ap.LeastActive, hs.Hour)
	}
	return ap
}

// AnalyzeBreaks counts breaks per weekday.
func AnalyzeBreaks(events []models.Event) BreakPatterns {
	var byDay [7]int
	total := 0
	for _, e := range events {
		if e.Kind == models.EventBreak {
			byDay[e.At.Weekday()]++
			total++
		}
	}

	bp := BreakPatterns{TotalBreaks: total}
	if total < constants.MinBreakRecords {
		return bp
	}
	bp.SufficientData = true
	bp.ByWeekday = make(map[string]int)
	best := -1
	for d := time.Monday; ; d = (d + 1) % 7 {
		if byDay[d] > 0 {
			bp.ByWeekday[d.String()] = byDay[d]
			if best < 0 || byDay[d] > byDay[best] {
				best = int(d)
			}
		}
		if d == time.Sunday {
			break
		}
	}
	bp.BusiestDay = time.Weekday(best).String()
	return bp
}
