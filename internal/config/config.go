// Package config provides unified configuration loading for pixelplant.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nvandessel/pixelplant/internal/activity"
	"github.com/nvandessel/pixelplant/internal/backup"
	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/logging"
	"github.com/nvandessel/pixelplant/internal/monitor"
	"github.com/nvandessel/pixelplant/internal/mood"
	"github.com/nvandessel/pixelplant/internal/personality"
	"github.com/nvandessel/pixelplant/internal/plant"
	"github.com/nvandessel/pixelplant/internal/ranking"
	"github.com/nvandessel/pixelplant/internal/sanitize"
	"github.com/nvandessel/pixelplant/internal/store"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the config file inside the data dir.
const ConfigFileName = "config.yaml"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// PlantConfig contains all pixelplant configuration settings.
type PlantConfig struct {
	// User identifies the person at the desk and their working window.
	User UserConfig `json:"user" yaml:"user"`

	// Thresholds are the inactivity bands and [0,1] analysis thresholds.
	Thresholds ThresholdsConfig `json:"thresholds" yaml:"thresholds"`

	// Reminders holds the per-need reminder intervals.
	Reminders RemindersConfig `json:"reminders" yaml:"reminders"`

	// Presence configures presence, break and positive-behavior detection.
	Presence PresenceConfig `json:"presence" yaml:"presence"`

	// Personality configures message generation.
	Personality PersonalityConfig `json:"personality" yaml:"personality"`

	// Learning configures pattern and preference learning.
	Learning LearningConfig `json:"learning" yaml:"learning"`

	// Storage selects where profile, state and events are persisted.
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Messages points at an optional YAML file of extra messages.
	Messages MessagesConfig `json:"messages" yaml:"messages"`

	// Runner configures the host loop.
	Runner RunnerConfig `json:"runner" yaml:"runner"`
}

// UserConfig holds the user name and working hours.
type UserConfig struct {
	Name          string `json:"name" yaml:"name" env:"USER_NAME"`
	WorkStartHour int    `json:"work_start_hour" yaml:"work_start_hour" env:"WORK_START"`
	WorkEndHour   int    `json:"work_end_hour" yaml:"work_end_hour" env:"WORK_END"`
}

// ThresholdsConfig holds the inactivity bands and analysis thresholds.
type ThresholdsConfig struct {
	NormalInactivity    time.Duration `json:"normal_inactivity" yaml:"normal_inactivity"`
	ConcernedInactivity time.Duration `json:"concerned_inactivity" yaml:"concerned_inactivity"`
	UrgentInactivity    time.Duration `json:"urgent_inactivity" yaml:"urgent_inactivity"`

	GoodPosture        float64 `json:"good_posture" yaml:"good_posture"`
	MinHealthyActivity float64 `json:"min_healthy_activity" yaml:"min_healthy_activity"`
	Stress             float64 `json:"stress" yaml:"stress"`
}

// RemindersConfig holds the reminder intervals.
type RemindersConfig struct {
	Hydration time.Duration `json:"hydration" yaml:"hydration"`
	Movement  time.Duration `json:"movement" yaml:"movement"`
	Posture   time.Duration `json:"posture" yaml:"posture"`

	// Break is the preferred work session length before a break is due.
	Break time.Duration `json:"break" yaml:"break"`

	// Cooldown is the minimum gap between two reminders for the same need.
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`
}

// PresenceConfig configures presence and break detection.
type PresenceConfig struct {
	Timeout             time.Duration `json:"timeout" yaml:"timeout"`
	BreakMin            time.Duration `json:"break_min" yaml:"break_min"`
	MovedAfterStillness time.Duration `json:"moved_after_stillness" yaml:"moved_after_stillness"`
	PositiveWindow      time.Duration `json:"positive_window" yaml:"positive_window"`
	WindowSize          int           `json:"window_size" yaml:"window_size"`

	// AutoWake leaves sleep mode when motion is detected.
	AutoWake bool `json:"auto_wake" yaml:"auto_wake"`

	// SleepAfter puts the plant to sleep once the user has been away this
	// long. Zero disables it.
	SleepAfter time.Duration `json:"sleep_after" yaml:"sleep_after"`
}

// PersonalityConfig configures the personality engine.
type PersonalityConfig struct {
	ResponseCooldown time.Duration `json:"response_cooldown" yaml:"response_cooldown" env:"RESPONSE_COOLDOWN"`
	ResponsesEnabled bool          `json:"responses_enabled" yaml:"responses_enabled"`
	QueueCapacity    int           `json:"queue_capacity" yaml:"queue_capacity"`
	Warmth           float64       `json:"warmth" yaml:"warmth"`
}

// LearningConfig configures pattern and preference learning.
type LearningConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" env:"LEARNING_ENABLED"`

	// PatternRate is the EMA rate for hourly activity patterns.
	PatternRate float64 `json:"pattern_rate" yaml:"pattern_rate"`

	// AdaptationRate is the EMA rate for category preferences.
	AdaptationRate float64 `json:"adaptation_rate" yaml:"adaptation_rate"`

	// Interval is the minimum time between two pattern updates.
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "memory", "file" or "sqlite".
	Backend string `json:"backend" yaml:"backend" env:"STORAGE_BACKEND"`

	// DataDir holds the store, backups and the decision log. Empty means
	// ~/.pixelplant.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" env:"DATA_DIR"`

	// MaxBackups is the number of backups kept by retention. Zero keeps
	// them all.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`

	// MaxBackupAge also keeps backups younger than this ("30d", "2w",
	// "720h"). Empty disables age-based retention.
	MaxBackupAge string `json:"max_backup_age,omitempty" yaml:"max_backup_age,omitempty"`
}

// LoggingConfig configures pixelplant's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to <data dir>/decisions.jsonl.
	// "trace" additionally logs every tick.
	Level string `json:"level" yaml:"level" env:"LOG_LEVEL"`
}

// MessagesConfig points at custom message files.
type MessagesConfig struct {
	// File is a YAML message file merged into the built-in bank. Supports
	// ${VAR} syntax.
	File string `json:"file,omitempty" yaml:"file,omitempty" env:"MESSAGES_FILE"`
}

// RunnerConfig configures the host loop.
type RunnerConfig struct {
	TickInterval     time.Duration `json:"tick_interval" yaml:"tick_interval"`
	AutosaveInterval time.Duration `json:"autosave_interval" yaml:"autosave_interval"`
}

// Default returns a PlantConfig with sensible defaults.
func Default() *PlantConfig {
	return &PlantConfig{
		User: UserConfig{
			Name:          constants.DefaultUserName,
			WorkStartHour: constants.DefaultWorkStartHour,
			WorkEndHour:   constants.DefaultWorkEndHour,
		},
		Thresholds: ThresholdsConfig{
			NormalInactivity:    constants.NormalInactivityThreshold,
			ConcernedInactivity: constants.ConcernedInactivityThreshold,
			UrgentInactivity:    constants.UrgentInactivityThreshold,
			GoodPosture:         constants.GoodPostureThreshold,
			MinHealthyActivity:  constants.MinHealthyActivity,
			Stress:              constants.StressIndicatorThreshold,
		},
		Reminders: RemindersConfig{
			Hydration: constants.HydrationReminderInterval,
			Movement:  constants.MovementReminderInterval,
			Posture:   constants.PostureReminderInterval,
			Break:     constants.DefaultBreakInterval,
			Cooldown:  constants.ReminderCooldown,
		},
		Presence: PresenceConfig{
			Timeout:             constants.PresenceTimeout,
			BreakMin:            constants.BreakMinDuration,
			MovedAfterStillness: constants.MovedAfterStillness,
			PositiveWindow:      constants.PositiveWindow,
			WindowSize:          constants.ActivityWindowSize,
			AutoWake:            true,
			SleepAfter:          constants.SleepAfterAway,
		},
		Personality: PersonalityConfig{
			ResponseCooldown: constants.DefaultResponseCooldown,
			ResponsesEnabled: true,
			QueueCapacity:    constants.DefaultQueueCapacity,
			Warmth:           constants.DefaultWarmth,
		},
		Learning: LearningConfig{
			Enabled:        true,
			PatternRate:    constants.DefaultLearningRate,
			AdaptationRate: constants.DefaultAdaptationRate,
			Interval:       constants.LearnInterval,
		},
		Storage: StorageConfig{
			Backend:    BackendFile,
			MaxBackups: constants.MaxBackupRotation,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Runner: RunnerConfig{
			TickInterval:     constants.DefaultTickInterval,
			AutosaveInterval: constants.DefaultAutosaveInterval,
		},
	}
}

// DefaultPath returns ~/.pixelplant/config.yaml.
func DefaultPath() (string, error) {
	dir, err := store.DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.pixelplant/config.yaml -> environment variables
func Load() (*PlantConfig, error) {
	config := Default()

	// Try to load from default config file
	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*PlantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Storage.DataDir = expandEnvVars(config.Storage.DataDir)
	config.Messages.File = expandEnvVars(config.Messages.File)

	return config, nil
}

// Save writes the configuration to path, creating the parent directory.
func (c *PlantConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *PlantConfig) Validate() error {
	if !validHour(c.User.WorkStartHour) || !validHour(c.User.WorkEndHour) {
		return fmt.Errorf("working hours must be between 0 and 23, got %d-%d", c.User.WorkStartHour, c.User.WorkEndHour)
	}

	th := c.Thresholds
	if th.NormalInactivity <= 0 || th.ConcernedInactivity <= th.NormalInactivity || th.UrgentInactivity <= th.ConcernedInactivity {
		return fmt.Errorf("inactivity thresholds must be positive and increasing, got %v/%v/%v",
			th.NormalInactivity, th.ConcernedInactivity, th.UrgentInactivity)
	}
	for name, v := range map[string]float64{
		"good_posture":         th.GoodPosture,
		"min_healthy_activity": th.MinHealthyActivity,
		"stress":               th.Stress,
		"warmth":               c.Personality.Warmth,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, v)
		}
	}
	for name, v := range map[string]float64{
		"pattern_rate":    c.Learning.PatternRate,
		"adaptation_rate": c.Learning.AdaptationRate,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %f", name, v)
		}
	}

	for name, d := range map[string]time.Duration{
		"reminders.hydration":           c.Reminders.Hydration,
		"reminders.movement":            c.Reminders.Movement,
		"reminders.posture":             c.Reminders.Posture,
		"reminders.break":               c.Reminders.Break,
		"presence.timeout":              c.Presence.Timeout,
		"presence.break_min":            c.Presence.BreakMin,
		"runner.tick_interval":          c.Runner.TickInterval,
		"runner.autosave_interval":      c.Runner.AutosaveInterval,
		"learning.interval":             c.Learning.Interval,
		"personality.response_cooldown": c.Personality.ResponseCooldown,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if c.Presence.SleepAfter < 0 {
		return fmt.Errorf("presence.sleep_after must be non-negative, got %v", c.Presence.SleepAfter)
	}
	if c.Reminders.Cooldown < 0 {
		return fmt.Errorf("reminders.cooldown must be non-negative, got %v", c.Reminders.Cooldown)
	}
	if c.Presence.WindowSize <= 0 {
		return fmt.Errorf("presence.window_size must be positive, got %d", c.Presence.WindowSize)
	}
	if c.Personality.QueueCapacity <= 0 {
		return fmt.Errorf("personality.queue_capacity must be positive, got %d", c.Personality.QueueCapacity)
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("invalid storage backend: %s (valid: memory, file, sqlite)", c.Storage.Backend)
	}
	if c.Storage.MaxBackups < 0 {
		return fmt.Errorf("storage.max_backups must be non-negative, got %d", c.Storage.MaxBackups)
	}
	if c.Storage.MaxBackupAge != "" {
		if d, err := backup.ParseDuration(c.Storage.MaxBackupAge); err != nil || d <= 0 {
			return fmt.Errorf("invalid storage.max_backup_age: %q", c.Storage.MaxBackupAge)
		}
	}

	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: trace, debug, info, warn, error, or empty for default)", c.Logging.Level)
	}

	return nil
}

// DataDir returns the configured data dir, or ~/.pixelplant.
func (c *PlantConfig) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	return store.DefaultDataDir()
}

// MonitorConfig converts the settings into a behavior monitor config.
func (c *PlantConfig) MonitorConfig() monitor.Config {
	return monitor.Config{
		Activity: activity.Config{
			WindowSize:          c.Presence.WindowSize,
			PresenceTimeout:     c.Presence.Timeout,
			BreakMinDuration:    c.Presence.BreakMin,
			MovedAfterStillness: c.Presence.MovedAfterStillness,
			PositiveWindow:      c.Presence.PositiveWindow,
			HydrationInterval:   c.Reminders.Hydration,
			MovementInterval:    c.Reminders.Movement,
			PostureInterval:     c.Reminders.Posture,
			BreakInterval:       c.Reminders.Break,
			ReminderCooldown:    c.Reminders.Cooldown,
			UrgentThreshold:     c.Thresholds.UrgentInactivity,
			GoodPosture:         c.Thresholds.GoodPosture,
			MinHealthyActivity:  c.Thresholds.MinHealthyActivity,
			StressThreshold:     c.Thresholds.Stress,
		},
		LearningEnabled: c.Learning.Enabled,
		LearningRate:    c.Learning.PatternRate,
		LearnInterval:   c.Learning.Interval,
		WorkStartHour:   c.User.WorkStartHour,
		WorkEndHour:     c.User.WorkEndHour,
		AutoWake:        c.Presence.AutoWake,
		ResponseWindow:  c.Presence.Timeout,
	}
}

// EngineConfig converts the settings into a personality engine config.
func (c *PlantConfig) EngineConfig() personality.Config {
	return personality.Config{
		UserName:         sanitize.UserName(c.User.Name),
		ResponseCooldown: c.Personality.ResponseCooldown,
		AdaptationRate:   c.Learning.AdaptationRate,
		LearningEnabled:  c.Learning.Enabled,
		ResponsesEnabled: c.Personality.ResponsesEnabled,
		QueueCapacity:    c.Personality.QueueCapacity,
		Warmth:           c.Personality.Warmth,
		Thresholds: mood.Thresholds{
			Normal:    c.Thresholds.NormalInactivity,
			Concerned: c.Thresholds.ConcernedInactivity,
			Urgent:    c.Thresholds.UrgentInactivity,
		},
		Scorer:         ranking.DefaultScorerConfig(),
		CelebrationGap: c.Presence.PositiveWindow,
	}
}

// PlantConfig converts the settings into the coordinator config.
func (c *PlantConfig) PlantConfig() plant.Config {
	return plant.Config{
		ResponseWindow:  c.Presence.Timeout,
		CelebrationGap:  c.Presence.PositiveWindow,
		SupportInterval: c.Reminders.Cooldown,
		SleepAfter:      c.Presence.SleepAfter,
	}
}

// EnvPrefix prefixes every environment variable override, as in
// PIXELPLANT_USER_NAME.
const EnvPrefix = "PIXELPLANT_"

// applyEnvOverrides applies PIXELPLANT_* environment variables to the
// fields tagged with env. Unset or empty variables leave the field alone.
func applyEnvOverrides(config *PlantConfig) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

func validHour(h int) bool {
	return h >= 0 && h < 24
}
