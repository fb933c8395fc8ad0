package monitor

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nvandessel/pixelplant/internal/activity"
	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newMonitor(t *testing.T, cfg Config, opts ...Option) (*Monitor, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)}
	m := New(cfg, append([]Option{WithClock(clock.Now)}, opts...)...)
	if !m.Initialize() {
		t.Fatal("Initialize() = false")
	}
	return m, clock
}

// stayPresent feeds a face detection every minute for n minutes.
func stayPresent(m *Monitor, clock *fakeClock, n int) models.BehaviorSnapshot {
	var s models.BehaviorSnapshot
	for i := 0; i < n; i++ {
		clock.Advance(time.Minute)
		m.ProcessCameraData(true, math.NaN())
		s = m.Update(clock.Now())
	}
	return s
}

func TestMonitor_UpdateIsIdempotent(t *testing.T) {
	m, clock := newMonitor(t, DefaultConfig())

	m.ProcessMotionSensor(true)
	m.ProcessCameraData(true, 0.8)
	first := m.Update(clock.Now())
	if !first.IsUserPresent {
		t.Fatal("user not present after motion")
	}

	second := m.Update(clock.Now())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Update changed the snapshot (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(second, m.CurrentBehavior()); diff != "" {
		t.Errorf("CurrentBehavior mismatch (-want +got):\n%s", diff)
	}
}

func TestMonitor_HydrationReminderLifecycle(t *testing.T) {
	m, clock := newMonitor(t, DefaultConfig())

	stayPresent(m, clock, 44)
	if m.IsHydrationReminderDue() {
		t.Fatal("hydration due before 45 minutes")
	}

	s := stayPresent(m, clock, 1)
	if !m.IsHydrationReminderDue() || !s.NeedsHydration {
		t.Fatal("hydration not due at 45 minutes")
	}
	if !m.NeedsReminder(s) {
		t.Error("NeedsReminder() = false with hydration need")
	}

	m.MarkReminderSent(activity.NeedHydration)
	if m.IsHydrationReminderDue() {
		t.Error("hydration still due right after the reminder")
	}

	stayPresent(m, clock, 16)
	if !m.IsHydrationReminderDue() {
		t.Error("hydration not due again after the reminder cooldown")
	}

	m.ResetHydrationTimer()
	if m.IsHydrationReminderDue() {
		t.Error("hydration due right after reset")
	}
}

func TestMonitor_SleepSuppressesNeeds(t *testing.T) {
	tests := []struct {
		name         string
		autoWake     bool
		wantSleeping bool
	}{
		{"motion wakes", true, false},
		{"motion ignored without auto wake", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.AutoWake = tt.autoWake
			m, clock := newMonitor(t, cfg)
			stayPresent(m, clock, 50)

			m.SetSleepMode(true)
			m.ProcessCameraData(true, math.NaN())
			s := m.Update(clock.Now())
			if !s.Sleeping || s.HasAnyNeed() || s.NeedsSupport {
				t.Errorf("sleeping snapshot = %+v, want no needs", s)
			}
			if !m.IsSleepMode() {
				t.Fatal("IsSleepMode() = false")
			}

			clock.Advance(time.Second)
			m.ProcessMotionSensor(true)
			s = m.Update(clock.Now())
			if m.IsSleepMode() != tt.wantSleeping || s.Sleeping != tt.wantSleeping {
				t.Errorf("sleeping after motion = %v, want %v", m.IsSleepMode(), tt.wantSleeping)
			}

			m.WakeUp()
			if m.IsSleepMode() {
				t.Error("IsSleepMode() after WakeUp = true")
			}
		})
	}
}

func TestMonitor_LearnsOncePerInterval(t *testing.T) {
	m, clock := newMonitor(t, DefaultConfig())
	hour := clock.Now().Hour()

	for i := 0; i < 6; i++ {
		m.ProcessMotionSensor(true)
		m.Update(clock.Now())
		clock.Advance(10 * time.Second)
	}
	if got := m.UserProfile().Patterns[hour].Samples; got != 1 {
		t.Fatalf("samples after one minute = %d, want 1", got)
	}

	m.ProcessMotionSensor(true)
	m.Update(clock.Now())
	if got := m.UserProfile().Patterns[hour].Samples; got != 2 {
		t.Errorf("samples after the interval = %d, want 2", got)
	}

	activities := 0
	for _, e := range m.DrainEvents() {
		if e.Kind == models.EventActivity {
			activities++
		}
	}
	if activities != 2 {
		t.Errorf("activity events = %d, want 2", activities)
	}

	m.ResetLearning()
	if got := m.UserProfile().Patterns[hour].Samples; got != 0 {
		t.Errorf("samples after ResetLearning = %d, want 0", got)
	}
	if m.PatternConfidence() != 0 {
		t.Errorf("PatternConfidence() after reset = %v, want 0", m.PatternConfidence())
	}
}

func TestMonitor_NoLearningWhileAwayOrDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearningEnabled = false
	m, clock := newMonitor(t, cfg)
	stayPresent(m, clock, 3)
	if got := m.UserProfile().Patterns[clock.Now().Hour()].Samples; got != 0 {
		t.Errorf("samples with learning disabled = %d, want 0", got)
	}

	m2, clock2 := newMonitor(t, DefaultConfig())
	clock2.Advance(3 * time.Minute)
	m2.Update(clock2.Now())
	if got := m2.UserProfile().Patterns[clock2.Now().Hour()].Samples; got != 0 {
		t.Errorf("samples while away = %d, want 0", got)
	}
}

func TestMonitor_CameraUnavailableClearsPosture(t *testing.T) {
	m, clock := newMonitor(t, DefaultConfig())
	m.ProcessCameraData(true, 0.4)
	if s := m.Update(clock.Now()); !s.PostureKnown {
		t.Fatal("posture unknown after a posture reading")
	}

	clock.Advance(time.Second)
	m.ProcessCameraUnavailable()
	s := m.Update(clock.Now())
	if s.PostureKnown || s.NeedsPostureAdjustment {
		t.Errorf("after camera failure: known=%v needs=%v", s.PostureKnown, s.NeedsPostureAdjustment)
	}
	if !s.IsUserPresent {
		t.Error("camera failure treated as absence")
	}
}

func TestMonitor_BreakEvent(t *testing.T) {
	m, clock := newMonitor(t, DefaultConfig())
	stayPresent(m, clock, 5)
	m.DrainEvents()

	clock.Advance(3 * time.Minute)
	m.ProcessCameraData(true, math.NaN())
	s := m.Update(clock.Now())
	if !s.TookBreak {
		t.Fatal("TookBreak = false after a 3 minute gap")
	}
	m.Update(clock.Now())

	breaks := 0
	for _, e := range m.DrainEvents() {
		if e.Kind == models.EventBreak {
			breaks++
		}
	}
	if breaks != 1 {
		t.Errorf("break events = %d, want 1", breaks)
	}
	if m.BreaksToday() != 1 {
		t.Errorf("BreaksToday() = %d, want 1", m.BreaksToday())
	}
}

func TestMonitor_WorkingHours(t *testing.T) {
	m, _ := newMonitor(t, DefaultConfig())
	if !m.IsInWorkingHours() {
		t.Error("10:00 not inside default 9-17")
	}

	m.SetWorkingHours(18, 2)
	if m.IsInWorkingHours() {
		t.Error("10:00 inside 18-2")
	}
	m.SetWorkingHours(25, 3)
	p := m.UserProfile()
	if p.WorkStartHour != 18 || p.WorkEndHour != 2 {
		t.Errorf("invalid hours changed window to %d-%d", p.WorkStartHour, p.WorkEndHour)
	}
	if !p.Patterns[23].IsWorkTime || p.Patterns[10].IsWorkTime {
		t.Error("work-time flags not recomputed")
	}
}

func TestMonitor_ActivityGoals(t *testing.T) {
	m, clock := newMonitor(t, DefaultConfig())
	if got := m.ActivityGoalProgress(); got != 0 {
		t.Errorf("initial progress = %v, want 0", got)
	}

	m.SetActivityGoals(300, 1)
	if p := m.UserProfile(); p.TargetStepsPerHour != 300 || p.TargetBreaksPerDay != 1 {
		t.Errorf("goals = %d/%d", p.TargetStepsPerHour, p.TargetBreaksPerDay)
	}
	m.SetActivityGoals(0, -1)
	if p := m.UserProfile(); p.TargetStepsPerHour != 300 {
		t.Error("non-positive goal overwrote the target")
	}

	for i := 0; i < 10; i++ {
		clock.Advance(10 * time.Second)
		m.ProcessMotionSensor(true)
		m.Update(clock.Now())
	}
	clock.Advance(3 * time.Minute)
	m.ProcessMotionSensor(true)
	m.Update(clock.Now())

	if !m.IsActivityGoalMet() {
		t.Errorf("goal not met: progress = %v", m.ActivityGoalProgress())
	}
}

func TestMonitor_HasUserResponded(t *testing.T) {
	m, clock := newMonitor(t, DefaultConfig())
	stayPresent(m, clock, 2)
	if m.HasUserResponded() {
		t.Fatal("responded before any reminder")
	}

	m.MarkReminderSent(activity.NeedMovement)
	clock.Advance(2 * time.Minute)
	m.ProcessMotionSensor(true)
	m.Update(clock.Now())
	if !m.HasUserResponded() {
		t.Error("motion within the window not counted as a response")
	}
}

func TestMonitor_RecordUserResponse(t *testing.T) {
	m, _ := newMonitor(t, DefaultConfig())
	m.RecordUserResponse(true)
	if got := m.UserProfile().ReminderResponsiveness; math.Abs(got-0.55) > 1e-9 {
		t.Errorf("ReminderResponsiveness = %v, want 0.55", got)
	}
	m.RecordUserResponse(false)
	if got := m.UserProfile().ReminderResponsiveness; math.Abs(got-0.495) > 1e-9 {
		t.Errorf("ReminderResponsiveness = %v, want 0.495", got)
	}
}

func TestMonitor_StatusAndRecommendations(t *testing.T) {
	m, clock := newMonitor(t, DefaultConfig())
	m.Update(clock.Now())
	if got := m.StatusString(); got != "Away, Breaks: 0" {
		t.Errorf("StatusString() away = %q", got)
	}

	s := stayPresent(m, clock, 45)
	if !s.NeedsHydration {
		t.Fatal("hydration need not raised")
	}
	recs := m.HealthRecommendations()
	if len(recs) == 0 || recs[0] != "Drink a glass of water." {
		t.Errorf("HealthRecommendations() = %v, want hydration first", recs)
	}

	m.SetSleepMode(true)
	m.Update(clock.Now())
	if got := m.StatusString(); got != "Sleeping" {
		t.Errorf("StatusString() asleep = %q", got)
	}
	if recs := m.HealthRecommendations(); len(recs) != 1 {
		t.Errorf("recommendations while asleep = %v", recs)
	}
}

func TestMonitor_ProfilePersistence(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	m, clock := newMonitor(t, DefaultConfig(), WithProfileStore(st))
	if ok, err := m.LoadUserProfile(ctx); ok || err != nil {
		t.Fatalf("LoadUserProfile() on empty store = %v, %v", ok, err)
	}
	stayPresent(m, clock, 5)
	m.SetActivityGoals(0, 4)
	if err := m.SaveUserProfile(ctx); err != nil {
		t.Fatalf("SaveUserProfile() error = %v", err)
	}

	m2, _ := newMonitor(t, DefaultConfig(), WithProfileStore(st))
	ok, err := m2.LoadUserProfile(ctx)
	if !ok || err != nil {
		t.Fatalf("LoadUserProfile() = %v, %v", ok, err)
	}
	want, got := m.UserProfile(), m2.UserProfile()
	if diff := cmp.Diff(want.Patterns, got.Patterns); diff != "" {
		t.Errorf("patterns mismatch (-want +got):\n%s", diff)
	}
	if got.TargetBreaksPerDay != 4 {
		t.Errorf("TargetBreaksPerDay = %d, want 4", got.TargetBreaksPerDay)
	}
	if m2.PatternConfidence() != m.PatternConfidence() {
		t.Errorf("PatternConfidence = %v, want %v", m2.PatternConfidence(), m.PatternConfidence())
	}
}

func TestMonitor_LoadKeepsConfiguredIntervals(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	saved := models.NewUserProfile(7, 15, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	saved.HydrationFrequency = 4
	saved.PreferredBreakInterval = 25
	saved.TargetBreaksPerDay = 5
	if err := st.SaveProfile(ctx, saved); err != nil {
		t.Fatal(err)
	}

	m, _ := newMonitor(t, DefaultConfig(), WithProfileStore(st))
	before := m.UserProfile()
	if ok, err := m.LoadUserProfile(ctx); !ok || err != nil {
		t.Fatalf("LoadUserProfile() = %v, %v", ok, err)
	}
	got := m.UserProfile()
	if got.HydrationFrequency != before.HydrationFrequency || got.PreferredBreakInterval != before.PreferredBreakInterval {
		t.Errorf("intervals = %v/h, %dm; want configured %v/h, %dm",
			got.HydrationFrequency, got.PreferredBreakInterval, before.HydrationFrequency, before.PreferredBreakInterval)
	}
	if got.TargetBreaksPerDay != 5 {
		t.Errorf("TargetBreaksPerDay = %d, want learned 5", got.TargetBreaksPerDay)
	}
}

func TestMonitor_LoadFallsBackOnDamagedProfile(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, store.ProfileFileName), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	m, _ := newMonitor(t, DefaultConfig(), WithProfileStore(fs))
	ok, err := m.LoadUserProfile(context.Background())
	if ok || err != nil {
		t.Fatalf("LoadUserProfile() on damaged file = %v, %v, want false, nil", ok, err)
	}
	if m.PatternConfidence() != 0 {
		t.Errorf("PatternConfidence() = %v, want fresh 0", m.PatternConfidence())
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.LoadUserProfile(canceled); err == nil {
		t.Error("LoadUserProfile() with canceled context error = nil")
	}
}

func TestMonitor_SetUserProfileAppliesIntervals(t *testing.T) {
	m, clock := newMonitor(t, DefaultConfig())
	p := m.UserProfile()
	p.HydrationFrequency = 2 // every 30 minutes
	m.SetUserProfile(p)

	stayPresent(m, clock, 30)
	if !m.IsHydrationReminderDue() {
		t.Error("hydration not due after 30 minutes with frequency 2/h")
	}

	m.SetUserProfile(nil)
	if m.UserProfile().HydrationFrequency != 2 {
		t.Error("SetUserProfile(nil) changed the profile")
	}
}

func TestMonitor_SaveWithoutStore(t *testing.T) {
	m, _ := newMonitor(t, DefaultConfig())
	if err := m.SaveUserProfile(context.Background()); err == nil {
		t.Error("SaveUserProfile() without store error = nil")
	}
}
