package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nvandessel/pixelplant/internal/models"
)

func TestSaveAndLoadState(t *testing.T) {
	dir := t.TempDir()

	s := NewState("sess-1", start)
	s.RecordMessage(models.CategoryGreeting, "Hello!")
	s.RecordEvents([]models.Event{{Kind: models.EventBreak}})
	s.Tick(start.Add(5 * time.Minute))

	if err := SaveState(s, dir); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	info, err := os.Stat(StateFilePath(dir))
	if err != nil {
		t.Fatalf("state file not found: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %o, want 0600", perm)
	}

	loaded, err := LoadState(dir)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if diff := cmp.Diff(s.Summary(), *loaded); diff != "" {
		t.Errorf("loaded summary mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadState_FileNotExist(t *testing.T) {
	s, err := LoadState(t.TempDir())
	if err != nil || s != nil {
		t.Fatalf("LoadState() = %v, %v; want nil, nil for missing file", s, err)
	}
}

func TestLoadState_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, stateFile)

	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	if _, err := LoadState(dir); err == nil {
		t.Fatal("LoadState() error = nil for corrupt file, want error")
	}
}

func TestRemoveState(t *testing.T) {
	dir := t.TempDir()

	if err := SaveState(NewState("sess-1", start), dir); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}
	if err := RemoveState(dir); err != nil {
		t.Fatalf("RemoveState() error = %v", err)
	}
	if _, err := os.Stat(StateFilePath(dir)); !os.IsNotExist(err) {
		t.Error("state file still exists after remove")
	}
	if err := RemoveState(dir); err != nil {
		t.Errorf("RemoveState() on already-removed = %v, want nil", err)
	}
}
