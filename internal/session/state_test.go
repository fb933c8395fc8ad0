package session

import (
	"sync"
	"testing"
	"time"

	"github.com/nvandessel/pixelplant/internal/models"
)

var start = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

func TestState_NewSession(t *testing.T) {
	s := NewState("sess-1", start)
	sum := s.Summary()

	if sum.ID != "sess-1" || !sum.StartedAt.Equal(start) || !sum.LastTick.Equal(start) {
		t.Errorf("new summary = %+v", sum)
	}
	if !sum.Running() {
		t.Error("new session not running")
	}
	if sum.Messages() != 0 || sum.ResponseRate() != 0 {
		t.Errorf("messages/rate = %d/%v, want 0/0", sum.Messages(), sum.ResponseRate())
	}
}

func TestState_RecordMessage(t *testing.T) {
	s := NewState("sess-1", start)
	s.RecordMessage(models.CategoryGreeting, "Hello!")
	s.RecordMessage(models.CategoryHydration, "Drink water")
	s.RecordMessage(models.CategoryHydration, "Water time")

	sum := s.Summary()
	if sum.Spoken["hydration"] != 2 || sum.Spoken["greeting"] != 1 {
		t.Errorf("Spoken = %v", sum.Spoken)
	}
	if sum.Messages() != 3 {
		t.Errorf("Messages() = %d, want 3", sum.Messages())
	}
	if sum.LastMessage != "Water time" || sum.LastCategory != "hydration" {
		t.Errorf("last = %q/%q", sum.LastMessage, sum.LastCategory)
	}

	// The copy is detached from the state.
	sum.Spoken["hydration"] = 99
	if s.Summary().Spoken["hydration"] != 2 {
		t.Error("Summary() shares its map with the state")
	}
}

func TestState_RecordEvents(t *testing.T) {
	s := NewState("sess-1", start)
	s.RecordEvents([]models.Event{
		{Kind: models.EventReminder, Category: models.CategoryHydration},
		{Kind: models.EventResponse, Category: models.CategoryHydration, Effective: true},
		{Kind: models.EventReminder, Category: models.CategoryMovement},
		{Kind: models.EventResponse, Category: models.CategoryMovement},
		{Kind: models.EventReminder, Category: models.CategoryPosture},
		{Kind: models.EventIgnored, Category: models.CategoryPosture},
		{Kind: models.EventBreak, Category: models.CategoryBreak},
		{Kind: models.EventActivity, Activity: 0.4},
	})

	sum := s.Summary()
	if sum.Reminders != 3 || sum.Responses != 2 || sum.Effective != 1 || sum.Ignored != 1 || sum.Breaks != 1 {
		t.Errorf("counters = %+v", sum)
	}
	if got, want := sum.ResponseRate(), 2.0/3.0; got != want {
		t.Errorf("ResponseRate() = %v, want %v", got, want)
	}
}

func TestState_TickAndEnd(t *testing.T) {
	s := NewState("sess-1", start)
	s.Tick(start.Add(time.Minute))
	s.Tick(start.Add(30 * time.Second))

	if got := s.Summary().LastTick; !got.Equal(start.Add(time.Minute)) {
		t.Errorf("LastTick = %v, ticks must not move it backwards", got)
	}

	s.End(start.Add(time.Hour))
	sum := s.Summary()
	if sum.Running() || !sum.EndedAt.Equal(start.Add(time.Hour)) {
		t.Errorf("EndedAt = %v", sum.EndedAt)
	}
}

func TestState_ThreadSafety(t *testing.T) {
	s := NewState("sess-1", start)

	var wg sync.WaitGroup
	const goroutines = 20
	const opsPerGoroutine = 100

	for i := 0; i < goroutines; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				s.RecordMessage(models.Category(id%models.NumCategories), "hi")
				s.RecordEvents([]models.Event{{Kind: models.EventReminder}})
				s.Tick(start.Add(time.Duration(j) * time.Second))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				_ = s.Summary().Messages()
			}
		}()
	}
	wg.Wait()

	sum := s.Summary()
	if sum.Messages() != goroutines*opsPerGoroutine || sum.Reminders != goroutines*opsPerGoroutine {
		t.Errorf("messages/reminders = %d/%d", sum.Messages(), sum.Reminders)
	}
}
