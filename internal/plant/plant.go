// Package plant coordinates the behavior monitor and the personality engine
// into one tick-driven companion. It decides when to speak, follows up on
// reminders and handles falling asleep and waking up.
//
// Unlike the components it wraps, a Plant is safe for concurrent use: the
// runner, the MCP server and CLI commands may share one instance.
package plant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/nvandessel/pixelplant/internal/activity"
	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/logging"
	"github.com/nvandessel/pixelplant/internal/messages"
	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/monitor"
	"github.com/nvandessel/pixelplant/internal/personality"
)

// Config holds the coordination settings.
type Config struct {
	// ResponseWindow is how long a reminder waits for the user to react
	// before it counts as ignored.
	ResponseWindow time.Duration

	// CelebrationGap is the minimum time between two celebrations.
	CelebrationGap time.Duration

	// SupportInterval is the minimum time between two encouragement messages
	// sent for stress alone.
	SupportInterval time.Duration

	// SleepAfter puts the plant to sleep when the user has been away this
	// long. Zero disables it.
	SleepAfter time.Duration
}

// DefaultConfig returns the default coordination settings.
func DefaultConfig() Config {
	return Config{
		ResponseWindow:  constants.PresenceTimeout,
		CelebrationGap:  constants.PositiveWindow,
		SupportInterval: constants.ReminderCooldown,
		SleepAfter:      constants.SleepAfterAway,
	}
}

// Option configures a Plant.
type Option func(*Plant)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Plant) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock replaces the wall clock used outside Tick.
func WithClock(now func() time.Time) Option {
	return func(p *Plant) {
		if now != nil {
			p.now = now
		}
	}
}

// Output is one message the plant decided to say.
type Output struct {
	At       time.Time       `json:"at"`
	Text     string          `json:"text"`
	Category models.Category `json:"category"`
	Mood     string          `json:"mood"`
	Care     string          `json:"care"`
}

// pendingReminder is a reminder waiting for a reaction.
type pendingReminder struct {
	need     activity.Need
	category models.Category
	sentAt   time.Time
}

// Plant owns one monitor and one engine.
type Plant struct {
	mu      sync.Mutex
	cfg     Config
	monitor *monitor.Monitor
	engine  *personality.Engine
	logger  *slog.Logger
	now     func() time.Time

	pending         *pendingReminder
	sleeping        bool
	lastSeen        time.Time
	lastCelebration time.Time
	lastSupport     time.Time
}

// New wraps m and e. Non-positive durations in cfg fall back to the
// defaults, except SleepAfter where zero disables auto sleep.
func New(cfg Config, m *monitor.Monitor, e *personality.Engine, opts ...Option) *Plant {
	def := DefaultConfig()
	if cfg.ResponseWindow <= 0 {
		cfg.ResponseWindow = def.ResponseWindow
	}
	if cfg.CelebrationGap <= 0 {
		cfg.CelebrationGap = def.CelebrationGap
	}
	if cfg.SupportInterval <= 0 {
		cfg.SupportInterval = def.SupportInterval
	}
	if cfg.SleepAfter < 0 {
		cfg.SleepAfter = 0
	}

	p := &Plant{
		cfg:     cfg,
		monitor: m,
		engine:  e,
		logger:  logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load restores the saved profile and personality state. Missing data is not
// an error.
func (p *Plant) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if _, err := p.monitor.LoadUserProfile(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := p.engine.LoadState(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Save persists the profile and the personality state.
func (p *Plant) Save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if err := p.monitor.SaveUserProfile(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := p.engine.SaveState(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Start initializes both components and returns the greeting.
func (p *Plant) Start() (Output, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.monitor.Initialize()
	p.engine.Initialize()
	now := p.now()
	p.lastSeen = now
	p.sleeping = p.monitor.IsSleepMode()
	p.logger.Info("plant started", "user", p.engine.UserName())
	return p.speak(now, models.CategoryGreeting, p.engine.GenerateGreeting())
}

// Stop returns the goodnight message said on shutdown.
func (p *Plant) Stop() (Output, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = nil
	p.logger.Info("plant stopping")
	return p.say(p.now(), models.CategoryGoodnight, p.engine.GenerateGoodNight())
}

// Apply hands one sensor reading to the monitor. It is consumed by the next
// Tick.
func (p *Plant) Apply(r Reading) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.Motion != nil {
		p.monitor.ProcessMotionSensor(*r.Motion)
	}
	switch {
	case r.CameraUnavailable:
		p.monitor.ProcessCameraUnavailable()
	case r.Face != nil || r.Posture != nil:
		face := r.Face != nil && *r.Face
		posture := math.NaN()
		if r.Posture != nil {
			posture = *r.Posture
		}
		p.monitor.ProcessCameraData(face, posture)
	}
	if r.Light != nil {
		p.monitor.ProcessEnvironmentalData(*r.Light)
	}
	if r.Sleep != nil {
		if *r.Sleep {
			p.monitor.SetSleepMode(true)
		} else {
			p.monitor.WakeUp()
		}
	}
}

// Tick updates the assessment at now and returns what the plant wants to
// say, if anything. The returned text is also queued on the engine.
func (p *Plant) Tick(now time.Time) (Output, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.monitor.Update(now)
	if s.IsUserPresent {
		p.lastSeen = now
	}
	if !s.Sleeping && p.awayTooLong(now, s) {
		p.logger.Info("user appears away, falling asleep", "away", now.Sub(p.lastSeen))
		p.monitor.SetSleepMode(true)
		s = p.monitor.Update(now)
	}

	// The care level moves at most one step per tick: a follow-up that
	// already moved it leaves only the mood to refresh.
	care := p.engine.CareLevel()
	p.followUp(now)
	if p.engine.CareLevel() != care {
		p.engine.RefreshMood(s)
	} else {
		p.engine.UpdateMood(s)
	}

	if s.Sleeping != p.sleeping {
		p.sleeping = s.Sleeping
		if s.Sleeping {
			p.pending = nil
			return p.speak(now, models.CategoryGoodnight, p.engine.GenerateGoodNight())
		}
		p.lastSeen = now
		return p.speak(now, models.CategoryGreeting, p.engine.GenerateGreeting())
	}
	if s.Sleeping {
		return Output{}, false
	}

	switch {
	case s.HasPositiveBehavior && now.Sub(p.lastCelebration) >= p.cfg.CelebrationGap:
		out, ok := p.speak(now, models.CategoryCelebration, p.engine.GenerateCelebration(achievement(s)))
		if ok {
			p.lastCelebration = now
		}
		return out, ok
	case s.HasAnyNeed():
		return p.remind(now, s)
	case s.NeedsSupport && now.Sub(p.lastSupport) >= p.cfg.SupportInterval:
		out, ok := p.speak(now, models.CategoryEncouragement, p.engine.GenerateCaring())
		if ok {
			p.lastSupport = now
		}
		return out, ok
	}
	return Output{}, false
}

func (p *Plant) awayTooLong(now time.Time, s models.BehaviorSnapshot) bool {
	return p.cfg.SleepAfter > 0 && !s.IsUserPresent && now.Sub(p.lastSeen) >= p.cfg.SleepAfter
}

// remind speaks for the most pressing need. A worried plant sends a concern
// message instead; the care level was already stepped by the mood update.
func (p *Plant) remind(now time.Time, s models.BehaviorSnapshot) (Output, bool) {
	if !p.engine.CanRespondNow() {
		return Output{}, false
	}
	need, cat := pressingNeed(s)
	if p.engine.Mood() == models.MoodWorried {
		cat = models.CategoryConcern
	}
	out, ok := p.speak(now, cat, p.engine.Generate(cat))
	if !ok {
		return out, false
	}

	p.monitor.MarkReminderSent(need)
	p.pending = &pendingReminder{need: need, category: cat, sentAt: now}
	p.logger.Info("reminder sent", "need", need.String(), "category", cat.String(), "care", p.engine.CareLevel().String())
	return out, true
}

// followUp resolves the pending reminder: motion inside the window is a
// response, silence past it is an ignore.
func (p *Plant) followUp(now time.Time) {
	if p.pending == nil {
		return
	}
	switch {
	case p.monitor.HasUserResponded():
		p.logger.Debug("user reacted to reminder", "need", p.pending.need.String())
		p.resolve(true)
	case now.Sub(p.pending.sentAt) > p.cfg.ResponseWindow:
		p.logger.Debug("reminder went unanswered", "need", p.pending.need.String())
		p.engine.RecordUserIgnored(p.pending.category)
		p.monitor.RecordUserResponse(false)
		p.pending = nil
	}
}

// resolve credits the pending reminder's category, or the last message's
// when nothing is pending.
func (p *Plant) resolve(effective bool) {
	cat := p.engine.History().LastCategory
	if p.pending != nil {
		cat = p.pending.category
	}
	p.engine.RecordUserResponse(cat, effective)
	p.monitor.RecordUserResponse(effective)
	if effective && p.pending != nil {
		p.resetTimer(p.pending.need)
	}
	p.pending = nil
}

func (p *Plant) resetTimer(need activity.Need) {
	switch need {
	case activity.NeedHydration:
		p.monitor.ResetHydrationTimer()
	case activity.NeedMovement:
		p.monitor.ResetMovementTimer()
	case activity.NeedPosture:
		p.monitor.ResetPostureTimer()
	case activity.NeedBreak:
		p.monitor.ResetBreakTimer()
	}
}

func (p *Plant) speak(now time.Time, cat models.Category, text string) (Output, bool) {
	out, ok := p.say(now, cat, text)
	if ok {
		p.engine.QueueMessage(out.Text)
	}
	return out, ok
}

func (p *Plant) say(now time.Time, cat models.Category, text string) (Output, bool) {
	if text == "" {
		return Output{}, false
	}
	return Output{
		At:       now,
		Text:     text,
		Category: cat,
		Mood:     p.engine.Mood().String(),
		Care:     p.engine.CareLevel().String(),
	}, true
}

// Feedback records an explicit reaction to the last message. It resolves a
// pending reminder if there is one.
func (p *Plant) Feedback(effective bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolve(effective)
}

// Say generates a message from cat on demand, honoring the cooldown.
func (p *Plant) Say(cat models.Category) (Output, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !cat.Valid() {
		return Output{}, false
	}
	return p.say(p.now(), cat, p.engine.Generate(cat))
}

// NextMessage pops the oldest queued message.
func (p *Plant) NextMessage() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.NextMessage()
}

// SetSleep turns sleep mode on or off. The transition message is said on the
// next Tick.
func (p *Plant) SetSleep(sleeping bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sleeping {
		p.monitor.SetSleepMode(true)
	} else {
		p.monitor.WakeUp()
	}
}

// SetBank swaps the engine's message bank.
func (p *Plant) SetBank(b *messages.Bank) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine.SetBank(b)
}

// Snooze suppresses reminders for d.
func (p *Plant) Snooze(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.monitor.SnoozeReminders(d)
}

// Pending reports the category of the reminder awaiting a reaction.
func (p *Plant) Pending() (models.Category, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return 0, false
	}
	return p.pending.category, true
}

// DrainEvents collects the events buffered by both components, oldest first.
func (p *Plant) DrainEvents() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	events := append(p.monitor.DrainEvents(), p.engine.DrainEvents()...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
	return events
}

// Inspect runs fn with exclusive access to the wrapped components.
func (p *Plant) Inspect(fn func(m *monitor.Monitor, e *personality.Engine)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.monitor, p.engine)
}

// pressingNeed returns the most pressing need in s and its category:
// hydration, then movement, posture and break.
func pressingNeed(s models.BehaviorSnapshot) (activity.Need, models.Category) {
	switch {
	case s.NeedsHydration:
		return activity.NeedHydration, models.CategoryHydration
	case s.NeedsMovement:
		return activity.NeedMovement, models.CategoryMovement
	case s.NeedsPostureAdjustment:
		return activity.NeedPosture, models.CategoryPosture
	default:
		return activity.NeedBreak, models.CategoryBreak
	}
}

func achievement(s models.BehaviorSnapshot) string {
	switch {
	case s.TookBreak:
		return "You took a break"
	case s.GotUpAndMoved:
		return "You got up and moved"
	case s.ImprovedPosture:
		return "Great posture"
	default:
		return ""
	}
}

func (o Output) String() string {
	return fmt.Sprintf("[%s] (%s/%s) %s", o.At.Format("15:04:05"), o.Mood, o.Care, o.Text)
}
