package simulation

import (
	"testing"
	"time"

	"github.com/nvandessel/pixelplant/internal/models"
)

// AssertSaid asserts that cat was said between min and max times. A negative
// max means no upper bound.
func AssertSaid(t testing.TB, r *Result, cat models.Category, min, max int) {
	t.Helper()
	n := r.Count(cat)
	if n < min || (max >= 0 && n > max) {
		t.Errorf("AssertSaid: %s said %d times, want [%d, %d]", cat, n, min, max)
	}
}

// AssertNoRepeatWithin asserts that two messages of cat are always at least
// gap apart.
func AssertNoRepeatWithin(t testing.TB, r *Result, cat models.Category, gap time.Duration) {
	t.Helper()
	var last time.Time
	for _, o := range r.Outputs {
		if o.Category != cat {
			continue
		}
		if !last.IsZero() && o.At.Sub(last) < gap {
			t.Errorf("AssertNoRepeatWithin: %s at %s only %v after the previous one, want >= %v",
				cat, o.At.Format("15:04"), o.At.Sub(last), gap)
		}
		last = o.At
	}
}

// AssertSilentWhileSleeping asserts that between a goodnight and the next
// greeting the plant says nothing but goodnight.
func AssertSilentWhileSleeping(t testing.TB, r *Result) {
	t.Helper()
	asleep := false
	for _, o := range r.Outputs {
		switch {
		case o.Category == models.CategoryGoodnight:
			asleep = true
		case o.Category == models.CategoryGreeting:
			asleep = false
		case asleep:
			t.Errorf("AssertSilentWhileSleeping: %s said at %s while asleep", o.Category, o.At.Format("15:04"))
		}
	}
}

// AssertEventCount asserts that at least min events of kind were recorded.
// A negative max means no upper bound.
func AssertEventCount(t testing.TB, r *Result, kind models.EventKind, min, max int) {
	t.Helper()
	n := r.EventCount(kind)
	if n < min || (max >= 0 && n > max) {
		t.Errorf("AssertEventCount: %d %s events, want [%d, %d]", n, kind, min, max)
	}
}

// AssertChronological asserts that outputs and events are in time order and
// inside the simulated span.
func AssertChronological(t testing.TB, r *Result) {
	t.Helper()
	prev := r.Start
	for i, o := range r.Outputs {
		if o.At.Before(prev) || o.At.After(r.End) {
			t.Errorf("AssertChronological: output %d (%s) at %s out of order", i, o.Category, o.At.Format("15:04:05"))
		}
		prev = o.At
	}
	prev = r.Start
	for i, e := range r.Events {
		if e.At.Before(prev) || e.At.After(r.End) {
			t.Errorf("AssertChronological: event %d (%s) at %s out of order", i, e.Kind, e.At.Format("15:04:05"))
		}
		prev = e.At
	}
}

// AssertFinalMood asserts the mood at the end of the run.
func AssertFinalMood(t testing.TB, r *Result, want models.Mood) {
	t.Helper()
	if r.Final.Mood != want.String() {
		t.Errorf("AssertFinalMood: mood = %s, want %s", r.Final.Mood, want)
	}
}
