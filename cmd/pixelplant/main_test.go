package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/pixelplant/internal/config"
	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/store"
)

// isolateHome sets HOME to a temp directory to avoid touching real ~/.pixelplant/
// MUST be called for any test that loads config or opens a store
func isolateHome(t *testing.T, tmpDir string) {
	t.Helper()
	tmpHome := filepath.Join(tmpDir, "home")
	if err := os.MkdirAll(tmpHome, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", tmpHome)
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"version", "init", "config", "run", "simulate", "status", "insights", "reset", "backup", "mcp-server"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"json", "config", "data-dir"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "pixelplant version dev") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["version"] != "dev" {
		t.Errorf("version = %q, want dev", got["version"])
	}
}

func TestSetConfigValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
		check   func(c *config.PlantConfig) bool
	}{
		{"duration", "reminders.hydration", "30m", false, func(c *config.PlantConfig) bool { return c.Reminders.Hydration == 30*time.Minute }},
		{"int", "user.work_start_hour", "8", false, func(c *config.PlantConfig) bool { return c.User.WorkStartHour == 8 }},
		{"float", "personality.warmth", "0.9", false, func(c *config.PlantConfig) bool { return c.Personality.Warmth == 0.9 }},
		{"bool", "learning.enabled", "false", false, func(c *config.PlantConfig) bool { return !c.Learning.Enabled }},
		{"string", "user.name", "Ada", false, func(c *config.PlantConfig) bool { return c.User.Name == "Ada" }},
		{"unknown key", "nope.key", "1", true, nil},
		{"bad duration", "reminders.hydration", "soon", true, nil},
		{"bad int", "storage.max_backups", "many", true, nil},
		{"hour out of range", "user.work_start_hour", "25", true, nil},
		{"bad backend", "storage.backend", "nosql", true, nil},
		{"warmth out of range", "personality.warmth", "1.5", true, nil},
		{"backup age", "storage.max_backup_age", "30d", false, func(c *config.PlantConfig) bool { return c.Storage.MaxBackupAge == "30d" }},
		{"bad backup age", "storage.max_backup_age", "forever", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			err := setConfigValue(cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setConfigValue(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				def := config.Default()
				if cfg.User != def.User || cfg.Reminders != def.Reminders || cfg.Storage != def.Storage || cfg.Personality != def.Personality {
					t.Errorf("config changed after failed set")
				}
				return
			}
			if !tt.check(cfg) {
				t.Errorf("value not applied for %s", tt.key)
			}
		})
	}
}

func TestGetConfigValue(t *testing.T) {
	cfg := config.Default()

	v, ok := getConfigValue(cfg, "reminders.hydration")
	if !ok {
		t.Fatal("reminders.hydration not found")
	}
	if v != cfg.Reminders.Hydration.String() {
		t.Errorf("reminders.hydration = %v, want %s", v, cfg.Reminders.Hydration)
	}

	if _, ok := getConfigValue(cfg, "missing"); ok {
		t.Error("unknown key should not be found")
	}
}

func TestSortedConfigKeys(t *testing.T) {
	keys := sortedConfigKeys()
	if len(keys) != len(configKeys) {
		t.Fatalf("got %d keys, want %d", len(keys), len(configKeys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("keys not sorted at %d: %q > %q", i, keys[i-1], keys[i])
		}
	}
}

func TestConfigSetGet(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	cfgPath := filepath.Join(tmpDir, "config.yaml")

	if _, err := execute(t, "--config", cfgPath, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := execute(t, "--config", cfgPath, "config", "set", "reminders.hydration", "30m"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	out, err := execute(t, "--config", cfgPath, "--json", "config", "get", "reminders.hydration")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["value"] != "30m0s" {
		t.Errorf("value = %v, want 30m0s", got["value"])
	}

	if _, err := execute(t, "--config", cfgPath, "config", "set", "user.work_end_hour", "99"); err == nil {
		t.Error("expected error for invalid hour")
	}
	if _, err := execute(t, "--config", cfgPath, "config", "get", "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestInitCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	dataDir := filepath.Join(tmpDir, "data")

	out, err := execute(t, "--config", cfgPath, "--data-dir", dataDir, "init", "--name", "Ada", "--backend", "sqlite")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Wrote") {
		t.Errorf("output = %q, want Wrote", out)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "backups")); err != nil {
		t.Errorf("backups dir not created: %v", err)
	}

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.User.Name != "Ada" || cfg.Storage.Backend != config.BackendSQLite {
		t.Errorf("config = %+v / %s", cfg.User, cfg.Storage.Backend)
	}

	out, err = execute(t, "--config", cfgPath, "--data-dir", dataDir, "init")
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(out, "Kept existing") {
		t.Errorf("second init output = %q, want Kept existing", out)
	}

	if _, err := execute(t, "--config", cfgPath, "init", "--backend", "nosql", "--force"); err == nil {
		t.Error("expected error for invalid backend")
	}
}

func TestSimulateCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, "simulate", "workday")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(out, "SIMULATION: workday") {
		t.Errorf("output missing report header:\n%s", out)
	}

	out, err = execute(t, "simulate", "--list")
	if err != nil {
		t.Fatalf("simulate --list: %v", err)
	}
	if !strings.Contains(out, "workday") {
		t.Errorf("list output = %q", out)
	}

	if _, err := execute(t, "simulate", "holiday-on-mars"); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestSimulateCmd_Replay(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	path := filepath.Join(tmpDir, "readings.jsonl")
	lines := []string{
		`# recorded at the desk`,
		`{"at":"2026-04-06T09:00:00Z","face":true,"motion":true}`,
		`{"at":"2026-04-06T09:30:00Z","face":true,"posture":0.8}`,
		`{"at":"2026-04-06T10:00:00Z","face":true}`,
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--json", "simulate", "--replay", path)
	if err != nil {
		t.Fatalf("simulate --replay: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["name"] != path {
		t.Errorf("name = %v, want %s", got["name"], path)
	}
}

func TestPickScenario(t *testing.T) {
	sc, err := pickScenario(nil, "")
	if err != nil {
		t.Fatalf("default scenario: %v", err)
	}
	if sc.Name != "workday" {
		t.Errorf("default = %q, want workday", sc.Name)
	}

	if _, err := pickScenario([]string{"workday"}, "day.yaml"); err == nil {
		t.Error("expected error when both a name and --file are given")
	}
	if _, err := pickScenario([]string{"unknown"}, ""); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestReadReadings(t *testing.T) {
	in := strings.NewReader("\n# comment\n{\"face\":true}\n{\"motion\":false}\n")
	readings, err := readReadings(in)
	if err != nil {
		t.Fatalf("readReadings: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}

	if _, err := readReadings(strings.NewReader("{\"face\":true}\nnot json\n")); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestBackupCmd_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	dataDir := filepath.Join(tmpDir, "data")

	st, err := store.NewFileStore(dataDir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	at := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		e := models.Event{Kind: models.EventReminder, Category: models.CategoryHydration, At: at.Add(time.Duration(i) * time.Hour)}
		if err := st.RecordEvent(ctx, e); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}
	st.Close()

	out, err := execute(t, "--data-dir", dataDir, "--json", "backup")
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	var created struct {
		Path       string `json:"path"`
		EventCount int    `json:"event_count"`
	}
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.EventCount != 3 {
		t.Errorf("event_count = %d, want 3", created.EventCount)
	}

	out, err = execute(t, "--data-dir", dataDir, "--json", "backup", "list")
	if err != nil {
		t.Fatalf("backup list: %v", err)
	}
	var listed struct {
		TotalCount int `json:"total_count"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listed.TotalCount != 1 {
		t.Errorf("total_count = %d, want 1", listed.TotalCount)
	}

	if _, err := execute(t, "--data-dir", dataDir, "backup", "verify", created.Path); err != nil {
		t.Errorf("verify: %v", err)
	}

	if _, err := execute(t, "--data-dir", dataDir, "reset", "--yes"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	out, err = execute(t, "--data-dir", dataDir, "--json", "backup", "restore", created.Path)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	var restored struct {
		EventsRestored int `json:"events_restored"`
	}
	if err := json.Unmarshal([]byte(out), &restored); err != nil {
		t.Fatalf("decode restore: %v", err)
	}
	if restored.EventsRestored != 3 {
		t.Errorf("events_restored = %d, want 3", restored.EventsRestored)
	}
}

func TestBackupCmd_RejectsOutsidePath(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	dataDir := filepath.Join(tmpDir, "data")
	outside := filepath.Join(tmpDir, "elsewhere.json.gz")

	_, err := execute(t, "--data-dir", dataDir, "backup", "--output", outside)
	if err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Errorf("backup --output outside: err = %v, want rejection", err)
	}
	if _, statErr := os.Stat(outside); !os.IsNotExist(statErr) {
		t.Error("backup written outside the backups dir")
	}

	if _, err := execute(t, "--data-dir", dataDir, "backup", "restore", outside); err == nil {
		t.Error("expected restore outside the backups dir to be rejected")
	}
}

func TestRetentionPolicy(t *testing.T) {
	tests := []struct {
		name       string
		maxBackups int
		maxAge     string
		wantOK     bool
		wantType   string
	}{
		{"disabled", 0, "", false, ""},
		{"count only", 2, "", true, "*backup.CountPolicy"},
		{"age only", 0, "30d", true, "*backup.AgePolicy"},
		{"both", 2, "2w", true, "*backup.CompositePolicy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.MaxBackups = tt.maxBackups
			cfg.Storage.MaxBackupAge = tt.maxAge
			policy, ok := retentionPolicy(cfg)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got := fmt.Sprintf("%T", policy); ok && got != tt.wantType {
				t.Errorf("policy type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestResetCmd_RequiresConfirmation(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	_, err := execute(t, "--data-dir", filepath.Join(tmpDir, "data"), "reset")
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Errorf("reset without --yes: err = %v", err)
	}
}

func TestInsightsCmd_EmptyStore(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	dataDir := filepath.Join(tmpDir, "data")

	out, err := execute(t, "--data-dir", dataDir, "insights")
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if !strings.Contains(out, "LEARNING INSIGHTS REPORT") {
		t.Errorf("output missing header:\n%s", out)
	}

	if _, err := execute(t, "--data-dir", dataDir, "insights", "--days", "0"); err == nil {
		t.Error("expected error for --days 0")
	}
}

func TestStatusCmd_FreshInstall(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, "--data-dir", filepath.Join(tmpDir, "data"), "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Mood:", "Profile:", "No session recorded yet"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{2048, "2.0KB"},
		{5 * 1024 * 1024, "5.0MB"},
		{3 * 1024 * 1024 * 1024, "3.0GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
