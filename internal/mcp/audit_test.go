package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nvandessel/pixelplant/internal/plant"
)

func readAudit(t *testing.T, dir string) []AuditEntry {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, auditFileName))
	if err != nil {
		t.Fatalf("opening audit log: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("parsing audit entry %q: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestAuditLogger_NilSafety(t *testing.T) {
	var logger *AuditLogger
	logger.Log(AuditEntry{Tool: "test"})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger returned error: %v", err)
	}
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	logger.Log(AuditEntry{
		Timestamp:  time.Now(),
		Tool:       "pixelplant_status",
		DurationMs: 42,
		Status:     "success",
		Params:     map[string]string{"_param_count": "0"},
	})
	logger.Log(AuditEntry{Tool: "pixelplant_feedback", Status: "error", Error: "rate limit exceeded"})

	entries := readAudit(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if e := entries[0]; e.Tool != "pixelplant_status" || e.DurationMs != 42 || e.Status != "success" {
		t.Errorf("first entry = %+v", e)
	}
	if e := entries[1]; e.Status != "error" || e.Error != "rate limit exceeded" {
		t.Errorf("second entry = %+v", e)
	}

	info, err := os.Stat(filepath.Join(dir, auditFileName))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}
}

func TestAuditLogger_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	const goroutines = 10
	const entriesPerGoroutine = 5

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < entriesPerGoroutine; i++ {
				logger.Log(AuditEntry{Timestamp: time.Now(), Tool: "pixelplant_observe", DurationMs: int64(id*100 + i), Status: "success"})
			}
		}(g)
	}
	wg.Wait()
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	if got, want := len(readAudit(t, dir)), goroutines*entriesPerGoroutine; got != want {
		t.Errorf("line count = %d, want %d", got, want)
	}
}

func TestAuditLogger_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if logger := NewAuditLogger(filepath.Join(blocker, "audit")); logger != nil {
		logger.Close()
		t.Error("expected nil logger when the directory cannot be created")
	}
}

func TestSanitizeToolParams(t *testing.T) {
	result := sanitizeToolParams(map[string]any{
		"category":  "hydration",
		"effective": true,
		"motion":    plant.Bool(true),
		"face":      (*bool)(nil),
		"posture":   plant.Float(0.4),
		"user_name": "Ada",
	})

	want := map[string]string{
		"category":     "hydration",
		"effective":    "true",
		"motion":       "true",
		"posture":      "(set)",
		"_param_count": "5",
	}
	if len(result) != len(want) {
		t.Errorf("result = %v, want %v", result, want)
	}
	for k, v := range want {
		if result[k] != v {
			t.Errorf("result[%q] = %q, want %q", k, result[k], v)
		}
	}
	if _, ok := result["user_name"]; ok {
		t.Error("unknown params must not be logged")
	}

	if sanitizeToolParams(nil) != nil {
		t.Error("sanitizeToolParams(nil) should be nil")
	}
}

func TestAuditTool_Integration(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestServer(t, dir)

	s.auditTool("pixelplant_message", time.Now(), nil, map[string]string{"category": "posture"})
	s.auditTool("pixelplant_message", time.Now(), errors.New("boom"), nil)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	entries := readAudit(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Params["category"] != "posture" || entries[0].Status != "success" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Errorf("second entry = %+v", entries[1])
	}
}
