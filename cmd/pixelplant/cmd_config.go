package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pixelplant/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pixelplant configuration",
		Long: `View and modify pixelplant configuration settings.

Configuration is stored in ~/.pixelplant/config.yaml. PIXELPLANT_* environment
variables (also read from a .env file) override it at load time.

Examples:
  pixelplant config list                          # Show all settings
  pixelplant config get reminders.hydration       # Get a specific setting
  pixelplant config set reminders.hydration 30m   # Set a setting
  pixelplant config set user.name Ada`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

// configKey binds a dot-notation key to a field of PlantConfig.
type configKey struct {
	get func(c *config.PlantConfig) interface{}
	set func(c *config.PlantConfig, v string) error
}

func durationKey(field func(c *config.PlantConfig) *time.Duration) configKey {
	return configKey{
		get: func(c *config.PlantConfig) interface{} { return field(c).String() },
		set: func(c *config.PlantConfig, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", v)
			}
			*field(c) = d
			return nil
		},
	}
}

func intKey(field func(c *config.PlantConfig) *int) configKey {
	return configKey{
		get: func(c *config.PlantConfig) interface{} { return *field(c) },
		set: func(c *config.PlantConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer: %s", v)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatKey(field func(c *config.PlantConfig) *float64) configKey {
	return configKey{
		get: func(c *config.PlantConfig) interface{} { return *field(c) },
		set: func(c *config.PlantConfig, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid number: %s", v)
			}
			*field(c) = f
			return nil
		},
	}
}

func boolKey(field func(c *config.PlantConfig) *bool) configKey {
	return configKey{
		get: func(c *config.PlantConfig) interface{} { return *field(c) },
		set: func(c *config.PlantConfig, v string) error {
			*field(c) = v == "true" || v == "1"
			return nil
		},
	}
}

func stringKey(field func(c *config.PlantConfig) *string) configKey {
	return configKey{
		get: func(c *config.PlantConfig) interface{} { return *field(c) },
		set: func(c *config.PlantConfig, v string) error {
			*field(c) = v
			return nil
		},
	}
}

var configKeys = map[string]configKey{
	"user.name":            stringKey(func(c *config.PlantConfig) *string { return &c.User.Name }),
	"user.work_start_hour": intKey(func(c *config.PlantConfig) *int { return &c.User.WorkStartHour }),
	"user.work_end_hour":   intKey(func(c *config.PlantConfig) *int { return &c.User.WorkEndHour }),

	"thresholds.normal_inactivity":    durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Thresholds.NormalInactivity }),
	"thresholds.concerned_inactivity": durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Thresholds.ConcernedInactivity }),
	"thresholds.urgent_inactivity":    durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Thresholds.UrgentInactivity }),
	"thresholds.good_posture":         floatKey(func(c *config.PlantConfig) *float64 { return &c.Thresholds.GoodPosture }),

	"reminders.hydration": durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Reminders.Hydration }),
	"reminders.movement":  durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Reminders.Movement }),
	"reminders.posture":   durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Reminders.Posture }),
	"reminders.break":     durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Reminders.Break }),
	"reminders.cooldown":  durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Reminders.Cooldown }),

	"presence.timeout":     durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Presence.Timeout }),
	"presence.sleep_after": durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Presence.SleepAfter }),
	"presence.auto_wake":   boolKey(func(c *config.PlantConfig) *bool { return &c.Presence.AutoWake }),

	"personality.response_cooldown": durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Personality.ResponseCooldown }),
	"personality.responses_enabled": boolKey(func(c *config.PlantConfig) *bool { return &c.Personality.ResponsesEnabled }),
	"personality.warmth":            floatKey(func(c *config.PlantConfig) *float64 { return &c.Personality.Warmth }),

	"learning.enabled":         boolKey(func(c *config.PlantConfig) *bool { return &c.Learning.Enabled }),
	"learning.pattern_rate":    floatKey(func(c *config.PlantConfig) *float64 { return &c.Learning.PatternRate }),
	"learning.adaptation_rate": floatKey(func(c *config.PlantConfig) *float64 { return &c.Learning.AdaptationRate }),

	"storage.backend":     stringKey(func(c *config.PlantConfig) *string { return &c.Storage.Backend }),
	"storage.data_dir":    stringKey(func(c *config.PlantConfig) *string { return &c.Storage.DataDir }),
	"storage.max_backups": intKey(func(c *config.PlantConfig) *int { return &c.Storage.MaxBackups }),

	"storage.max_backup_age": stringKey(func(c *config.PlantConfig) *string { return &c.Storage.MaxBackupAge }),

	"logging.level": stringKey(func(c *config.PlantConfig) *string { return &c.Logging.Level }),
	"messages.file": stringKey(func(c *config.PlantConfig) *string { return &c.Messages.File }),

	"runner.tick_interval":     durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Runner.TickInterval }),
	"runner.autosave_interval": durationKey(func(c *config.PlantConfig) *time.Duration { return &c.Runner.AutosaveInterval }),
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.PlantConfig, key string) (interface{}, bool) {
	k, ok := configKeys[key]
	if !ok {
		return nil, false
	}
	return k.get(cfg), true
}

// setConfigValue sets a configuration value by dot-notation key and
// validates the result. cfg is left unchanged on error.
func setConfigValue(cfg *config.PlantConfig, key, value string) error {
	k, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	updated := *cfg
	if err := k.set(&updated, value); err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	*cfg = updated
	return nil
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}

			path, _ := configPath(cmd)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration (%s):\n\n", path)
			for _, key := range sortedConfigKeys() {
				v, _ := getConfigValue(cfg, key)
				if s, ok := v.(string); ok && s == "" {
					v = "(not set)"
				}
				fmt.Fprintf(out, "  %-32s %v\n", key+":", v)
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}

			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}
