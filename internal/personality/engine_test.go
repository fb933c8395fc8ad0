package personality

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/logging"
	"github.com/nvandessel/pixelplant/internal/messages"
	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)}
}

// testBank has two hydration messages, one celebration, one concern and
// nothing in the other categories.
func testBank() *messages.Bank {
	b := messages.NewBank()
	b.Add(models.CategoryHydration, models.PersonalityMessage{Text: "Water time, {name}!", Mood: models.MoodHappy, CareLevel: models.CareGentle})
	b.Add(models.CategoryHydration, models.PersonalityMessage{Text: "Please drink, {name}.", Mood: models.MoodCaring, CareLevel: models.CareConcerned})
	b.Add(models.CategoryCelebration, models.PersonalityMessage{Text: "Yay!", Mood: models.MoodCelebrating, CareLevel: models.CareGentle})
	b.Add(models.CategoryConcern, models.PersonalityMessage{Text: "I'm worried.", Mood: models.MoodWorried, CareLevel: models.CareWorried})
	return b
}

func newTestEngine(t *testing.T, clock *fakeClock, opts ...Option) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.UserName = "Sam"
	opts = append([]Option{WithClock(clock.Now), WithBank(testBank())}, opts...)
	e := New(cfg, opts...)
	if !e.Initialize() {
		t.Fatal("Initialize() = false")
	}
	return e
}

func TestEngine_CooldownGatesGenerate(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)

	if got := e.Generate(models.CategoryHydration); got == "" {
		t.Fatal("first Generate() on a fresh engine = empty")
	}
	clock.Advance(2 * time.Second)
	if got := e.Generate(models.CategoryHydration); got != "" {
		t.Errorf("Generate() within cooldown = %q, want empty", got)
	}
	if e.CanRespondNow() {
		t.Error("CanRespondNow() = true within cooldown")
	}

	// Exactly at the cooldown boundary the gap is not yet strictly greater.
	clock.Advance(3 * time.Second)
	if got := e.Generate(models.CategoryHydration); got != "" {
		t.Errorf("Generate() at cooldown boundary = %q, want empty", got)
	}
	clock.Advance(time.Millisecond)
	if got := e.Generate(models.CategoryHydration); got == "" {
		t.Error("Generate() after cooldown = empty")
	}
}

func TestEngine_FallbackForEmptyCategory(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)

	tests := []struct {
		name string
		cat  models.Category
	}{
		{"empty category", models.CategoryUrgent},
		{"unknown category", models.Category(99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Advance(time.Minute)
			if got := e.Generate(tt.cat); got != constants.FallbackMessage {
				t.Errorf("Generate(%v) = %q, want fallback", tt.cat, got)
			}
			if e.SelectBestMessage(tt.cat) != nil {
				t.Errorf("SelectBestMessage(%v) != nil", tt.cat)
			}
			// The fallback still consumed the cooldown.
			if got := e.Generate(models.CategoryHydration); got != "" {
				t.Errorf("Generate() right after fallback = %q, want empty", got)
			}
		})
	}
}

func TestEngine_SetBank(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)
	before := e.Bank()

	e.SetBank(nil)
	if e.Bank() != before {
		t.Fatal("SetBank(nil) replaced the bank")
	}

	b := messages.NewBank()
	b.Add(models.CategoryUrgent, models.PersonalityMessage{Text: "Now, please.", Mood: models.MoodConcerned})
	e.SetBank(b)
	if e.Bank() != b {
		t.Fatal("SetBank() did not replace the bank")
	}
	if got := e.Generate(models.CategoryUrgent); got != "Now, please." {
		t.Errorf("Generate(urgent) = %q, want message from new bank", got)
	}
}

func TestEngine_PersonalizesName(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)
	e.SetUserName("<b>Ana</b>\n")

	if got := e.Generate(models.CategoryHydration); got != "Water time, Ana!" {
		t.Errorf("Generate() = %q, want %q", got, "Water time, Ana!")
	}

	e.SetUserName("<>")
	if e.UserName() != constants.DefaultUserName {
		t.Errorf("UserName() = %q, want default", e.UserName())
	}
}

func TestEngine_SelectionFollowsMoodAndCare(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)

	if got := e.Generate(models.CategoryHydration); got != "Water time, Sam!" {
		t.Fatalf("Generate() at happy/gentle = %q", got)
	}

	e.SetMood(models.MoodCaring)
	e.SetCareLevel(models.CareConcerned)
	clock.Advance(10 * time.Second)
	if got := e.Generate(models.CategoryHydration); got != "Please drink, Sam." {
		t.Errorf("Generate() at caring/concerned = %q", got)
	}
}

func TestEngine_VarietyFromUsage(t *testing.T) {
	clock := newClock()
	b := messages.NewBank()
	for i := 0; i < 3; i++ {
		b.Add(models.CategoryGreeting, models.PersonalityMessage{Text: fmt.Sprintf("hi %d", i)})
	}
	e := newTestEngine(t, clock, WithBank(b))

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		seen[e.GenerateGreeting()] = true
		clock.Advance(6 * time.Second)
	}
	if len(seen) != 3 {
		t.Errorf("distinct greetings = %v, want all three", seen)
	}

	m, _ := b.Message(models.CategoryGreeting, 0)
	if m.UseCount != 1 {
		t.Errorf("UseCount = %d, want 1", m.UseCount)
	}
}

func TestEngine_UpdateMoodStepsOneLevel(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)

	urgent := models.BehaviorSnapshot{IsUserPresent: true, InactivityDuration: 130 * time.Minute, NeedsHydration: true}
	e.UpdateMood(urgent)
	if e.Mood() != models.MoodWorried {
		t.Errorf("Mood() = %v, want worried", e.Mood())
	}
	if e.Urgency() != 1 {
		t.Errorf("Urgency() = %v, want 1", e.Urgency())
	}
	if e.CareLevel() != models.CareEncouraging {
		t.Errorf("CareLevel() = %v, want encouraging after one update", e.CareLevel())
	}

	e.UpdateMood(urgent)
	e.UpdateMood(urgent)
	e.UpdateMood(urgent)
	if e.CareLevel() != models.CareWorried {
		t.Errorf("CareLevel() = %v, want worried after saturation", e.CareLevel())
	}

	calm := models.BehaviorSnapshot{IsUserPresent: true}
	e.UpdateMood(calm)
	if e.CareLevel() != models.CareConcerned || e.Mood() != models.MoodHappy {
		t.Errorf("after calm update: care=%v mood=%v, want concerned/happy", e.CareLevel(), e.Mood())
	}
}

func TestEngine_IgnoredEscalatesEveryThird(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)
	e.Generate(models.CategoryHydration)

	e.RecordUserIgnored(models.CategoryHydration)
	e.RecordUserIgnored(models.CategoryHydration)
	if e.CareLevel() != models.CareGentle {
		t.Fatalf("CareLevel() after 2 ignores = %v, want gentle", e.CareLevel())
	}
	e.RecordUserIgnored(models.CategoryHydration)
	if e.CareLevel() != models.CareEncouraging {
		t.Errorf("CareLevel() after 3 ignores = %v, want encouraging", e.CareLevel())
	}
	if e.ConsecutiveIgnored() != 3 {
		t.Errorf("ConsecutiveIgnored() = %d, want 3", e.ConsecutiveIgnored())
	}

	want := "Mood: happy, Care Level: encouraging, Warmth: 0.90, Ignored: 3"
	if got := e.Status(); got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}

	e.RecordUserResponse(models.CategoryHydration, true)
	if e.ConsecutiveIgnored() != 0 {
		t.Errorf("ConsecutiveIgnored() after response = %d", e.ConsecutiveIgnored())
	}
	if e.CareLevel() != models.CareGentle {
		t.Errorf("CareLevel() after effective response = %v, want gentle", e.CareLevel())
	}
}

func TestEngine_ResponseAdaptsPreference(t *testing.T) {
	tests := []struct {
		name      string
		effective bool
		want      float64
	}{
		{"effective moves toward one", true, 0.55},
		{"ineffective moves toward zero", false, 0.45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			e := newTestEngine(t, clock)
			e.Generate(models.CategoryHydration)
			e.RecordUserResponse(models.CategoryHydration, tt.effective)

			got := e.Effectiveness(models.CategoryHydration)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Effectiveness(hydration) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_FeedbackCreditsGivenCategory(t *testing.T) {
	e := newTestEngine(t, newClock())
	e.Generate(models.CategoryHydration)

	if !e.RecordUserResponse(models.CategoryPosture, true) {
		t.Fatal("RecordUserResponse(posture) = false")
	}
	if got := e.Effectiveness(models.CategoryPosture); got <= constants.NeutralPreference {
		t.Errorf("Effectiveness(posture) = %v, want above neutral", got)
	}
	if got := e.Effectiveness(models.CategoryHydration); got != constants.NeutralPreference {
		t.Errorf("Effectiveness(hydration) = %v, want untouched", got)
	}

	if e.RecordUserResponse(models.Category(99), true) {
		t.Error("RecordUserResponse(unknown) = true")
	}
	if e.RecordUserIgnored(models.Category(99)) {
		t.Error("RecordUserIgnored(unknown) = true")
	}
	if e.ConsecutiveIgnored() != 0 {
		t.Errorf("ConsecutiveIgnored() = %d after rejected ignore", e.ConsecutiveIgnored())
	}
	events := e.DrainEvents()
	n := 0
	for _, ev := range events {
		if ev.Kind == models.EventResponse || ev.Kind == models.EventIgnored {
			n++
		}
	}
	if n != 1 {
		t.Errorf("feedback events = %d, want 1", n)
	}
}

func TestEngine_ObserveCelebratesOncePerGap(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)
	positive := models.BehaviorSnapshot{IsUserPresent: true, HasPositiveBehavior: true}

	if got := e.Observe(positive); got == "" {
		t.Fatal("first Observe(positive) = empty")
	}
	// Past the response cooldown but inside the celebration gap.
	clock.Advance(10 * time.Second)
	if got := e.Observe(positive); got != "" {
		t.Errorf("Observe(positive) inside the gap = %q, want empty", got)
	}
	clock.Advance(time.Minute)
	if got := e.Observe(positive); got == "" {
		t.Error("Observe(positive) after the gap = empty")
	}
}

func TestEngine_RestoreKeepsConfiguredName(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	saved := newTestEngine(t, newClock(), WithStateStore(st))
	saved.SetUserName("friend")
	if err := saved.SaveState(ctx); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.UserName = "Ada"
	e := New(cfg, WithStateStore(st), WithBank(testBank()))
	if ok, err := e.LoadState(ctx); !ok || err != nil {
		t.Fatalf("LoadState() = %v, %v", ok, err)
	}
	if got := e.UserName(); got != "Ada" {
		t.Errorf("UserName() after restore = %q, want configured Ada", got)
	}
}

func TestEngine_LoadStateFallsBackOnDamagedStore(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, store.StateFileName), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t, newClock(), WithStateStore(fs))
	ok, err := e.LoadState(context.Background())
	if ok || err != nil {
		t.Fatalf("LoadState() on damaged file = %v, %v, want false, nil", ok, err)
	}
	if e.CareLevel() != models.CareGentle || e.Mood() != models.MoodHappy {
		t.Errorf("state after damaged load = %v/%v, want defaults", e.Mood(), e.CareLevel())
	}
}

func TestEngine_LearningDisabled(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)
	e.EnableLearning(false)
	e.Generate(models.CategoryHydration)
	e.RecordUserResponse(models.CategoryHydration, true)
	e.AdaptToUser(models.CategoryHydration, 1)

	if got := e.Effectiveness(models.CategoryHydration); got != constants.NeutralPreference {
		t.Errorf("Effectiveness() with learning off = %v, want neutral", got)
	}
}

func TestEngine_Observe(t *testing.T) {
	tests := []struct {
		name     string
		snapshot models.BehaviorSnapshot
		want     string
		wantMood models.Mood
	}{
		{"sleeping says nothing", models.BehaviorSnapshot{Sleeping: true, NeedsHydration: true}, "", models.MoodSleeping},
		{"positive celebrates", models.BehaviorSnapshot{IsUserPresent: true, HasPositiveBehavior: true}, "Yay!", models.MoodCelebrating},
		{"need reminds", models.BehaviorSnapshot{IsUserPresent: true, NeedsHydration: true}, "Water time, Sam!", models.MoodHappy},
		{"content stays quiet", models.BehaviorSnapshot{IsUserPresent: true}, "", models.MoodHappy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, newClock())
			if got := e.Observe(tt.snapshot); got != tt.want {
				t.Errorf("Observe() = %q, want %q", got, tt.want)
			}
			if e.Mood() != tt.wantMood {
				t.Errorf("Mood() = %v, want %v", e.Mood(), tt.wantMood)
			}
		})
	}
}

func TestEngine_GenerateContextualPriority(t *testing.T) {
	e := New(DefaultConfig(), WithClock(newClock().Now))
	e.Initialize()

	s := models.BehaviorSnapshot{NeedsMovement: true, NeedsPostureAdjustment: true, NeedsBreak: true}
	got := e.GenerateContextual(s)
	found := false
	for _, m := range e.Bank().Candidates(models.CategoryMovement) {
		if strings.ReplaceAll(m.Text, models.NamePlaceholder, constants.DefaultUserName) == got {
			found = true
		}
	}
	if !found {
		t.Errorf("GenerateContextual() = %q, want a movement message", got)
	}
}

func TestEngine_CelebrationAndUrgent(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)

	if got := e.GenerateCelebration("Great posture"); got != "Yay! Great posture! 🎉" {
		t.Errorf("GenerateCelebration() = %q", got)
	}

	clock.Advance(time.Minute)
	if got := e.GenerateUrgent(); got != "I'm worried." {
		t.Errorf("GenerateUrgent() = %q", got)
	}
	if e.CareLevel() != models.CareEncouraging {
		t.Errorf("CareLevel() after urgent = %v, want encouraging", e.CareLevel())
	}

	// Cooldown active: escalation still happens, no text.
	if got := e.GenerateCelebration("x"); got != "" {
		t.Errorf("GenerateCelebration() in cooldown = %q, want empty", got)
	}
}

func TestEngine_ResponsesDisabled(t *testing.T) {
	e := newTestEngine(t, newClock())
	e.EnableResponses(false)
	if got := e.Generate(models.CategoryHydration); got != "" {
		t.Errorf("Generate() with responses off = %q", got)
	}
}

func TestEngine_Queue(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)

	accepted := 0
	for i := 0; i < 12; i++ {
		if e.QueueMessage(fmt.Sprintf("m%d", i)) {
			accepted++
		}
	}
	if accepted != constants.DefaultQueueCapacity {
		t.Errorf("accepted = %d, want %d", accepted, constants.DefaultQueueCapacity)
	}
	if got, ok := e.NextMessage(); !ok || got != "m0" {
		t.Errorf("NextMessage() = %q, %v, want m0", got, ok)
	}

	e.ClearQueue()
	if !e.QueueCategory(models.CategoryHydration) {
		t.Fatal("QueueCategory() = false")
	}
	if e.QueueCategory(models.CategoryHydration) {
		t.Error("QueueCategory() within cooldown = true")
	}
	if e.PendingMessages() != 1 {
		t.Errorf("PendingMessages() = %d, want 1", e.PendingMessages())
	}
}

func TestEngine_StatePersistence(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	st := store.NewMemoryStore()

	e := newTestEngine(t, clock, WithStateStore(st))
	if ok, err := e.LoadState(ctx); ok || err != nil {
		t.Fatalf("LoadState() on empty store = %v, %v, want false, nil", ok, err)
	}

	e.Generate(models.CategoryHydration)
	e.RecordUserResponse(models.CategoryHydration, true)
	e.SetCareLevel(models.CareConcerned)
	e.SetMood(models.MoodConcerned)
	if err := e.SaveState(ctx); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	restored := newTestEngine(t, clock, WithStateStore(st))
	ok, err := restored.LoadState(ctx)
	if !ok || err != nil {
		t.Fatalf("LoadState() = %v, %v", ok, err)
	}
	if restored.CareLevel() != models.CareConcerned || restored.Mood() != models.MoodConcerned {
		t.Errorf("restored care/mood = %v/%v", restored.CareLevel(), restored.Mood())
	}
	if got, want := restored.Effectiveness(models.CategoryHydration), e.Effectiveness(models.CategoryHydration); got != want {
		t.Errorf("restored preference = %v, want %v", got, want)
	}
	if restored.History().LastCategory != models.CategoryHydration {
		t.Errorf("restored last category = %v", restored.History().LastCategory)
	}

	// Usage counters start fresh after a restart.
	if m, _ := restored.Bank().Message(models.CategoryHydration, 0); m.UseCount != 0 {
		t.Errorf("restored UseCount = %d, want 0", m.UseCount)
	}
}

func TestEngine_SaveWithoutStore(t *testing.T) {
	e := newTestEngine(t, newClock())
	if err := e.SaveState(context.Background()); err == nil {
		t.Error("SaveState() without store error = nil")
	}
	if ok, err := e.LoadState(context.Background()); ok || err != nil {
		t.Errorf("LoadState() without store = %v, %v", ok, err)
	}
}

func TestEngine_DrainEvents(t *testing.T) {
	clock := newClock()
	e := newTestEngine(t, clock)

	e.Generate(models.CategoryHydration)
	clock.Advance(30 * time.Second)
	e.RecordUserResponse(models.CategoryHydration, true)
	e.RecordUserIgnored(models.CategoryHydration)

	events := e.DrainEvents()
	if len(events) != 3 {
		t.Fatalf("len(DrainEvents()) = %d, want 3", len(events))
	}
	kinds := []models.EventKind{models.EventReminder, models.EventResponse, models.EventIgnored}
	for i, k := range kinds {
		if events[i].Kind != k {
			t.Errorf("events[%d].Kind = %v, want %v", i, events[i].Kind, k)
		}
	}
	if events[1].ResponseTime != 30*time.Second {
		t.Errorf("ResponseTime = %v, want 30s", events[1].ResponseTime)
	}
	if len(e.DrainEvents()) != 0 {
		t.Error("second DrainEvents() not empty")
	}
}

func TestEngine_DecisionLog(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEngine(t, newClock(), WithDecisionLogger(logging.NewDecisionWriter(&buf)))

	e.SetCareLevel(models.CareWorried)
	e.Generate(models.CategoryConcern)

	out := buf.String()
	for _, want := range []string{logging.EventCareLevelChanged, logging.EventMessageSelected} {
		if !strings.Contains(out, want) {
			t.Errorf("decision log missing %q: %s", want, out)
		}
	}
}
