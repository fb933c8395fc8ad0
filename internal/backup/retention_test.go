package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvandessel/pixelplant/internal/store"
)

func TestCountPolicy(t *testing.T) {
	backups := []BackupInfo{{Path: "/b/5"}, {Path: "/b/4"}, {Path: "/b/3"}, {Path: "/b/2"}}

	tests := []struct {
		max  int
		want int
	}{
		{3, 3},
		{10, 4},
		{0, 0},
		{-1, 4},
	}
	for _, tt := range tests {
		keep := (&CountPolicy{MaxCount: tt.max}).Apply(backups)
		if len(keep) != tt.want {
			t.Errorf("CountPolicy{%d} kept %d, want %d", tt.max, len(keep), tt.want)
		}
		if len(keep) > 0 && keep[0].Path != "/b/5" {
			t.Errorf("CountPolicy{%d} dropped the newest backup", tt.max)
		}
	}
}

func TestAgeAndCompositePolicy(t *testing.T) {
	now := t0
	backups := []BackupInfo{
		{Path: "/b/new", CreatedAt: now.Add(-time.Hour)},
		{Path: "/b/old", CreatedAt: now.Add(-48 * time.Hour)},
		{Path: "/b/ancient", CreatedAt: now.Add(-720 * time.Hour)},
	}

	age := &AgePolicy{MaxAge: 24 * time.Hour, Now: func() time.Time { return now }}
	if keep := age.Apply(backups); len(keep) != 1 || keep[0].Path != "/b/new" {
		t.Errorf("AgePolicy kept %v", keep)
	}

	composite := &CompositePolicy{Policies: []RetentionPolicy{age, &CountPolicy{MaxCount: 2}}}
	keep := composite.Apply(backups)
	if len(keep) != 2 || keep[1].Path != "/b/old" {
		t.Errorf("CompositePolicy kept %v", keep)
	}
}

func TestListAndApplyRetention(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := store.NewMemoryStore()

	var paths []string
	for i := 0; i < 4; i++ {
		at := t0.Add(time.Duration(i) * time.Hour)
		path := GenerateBackupPath(dir, at)
		if _, err := Create(ctx, s, path, at); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	list, err := ListBackups(dir)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("ListBackups() = %d entries, want 4", len(list))
	}
	if list[0].Path != paths[3] || !list[0].Valid || !list[0].CreatedAt.Equal(t0.Add(3*time.Hour)) {
		t.Errorf("newest = %+v", list[0])
	}

	deleted, err := ApplyRetention(dir, &CountPolicy{MaxCount: 2})
	if err != nil {
		t.Fatalf("ApplyRetention() error = %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted %d, want 2", len(deleted))
	}
	if _, err := os.Stat(paths[0]); !os.IsNotExist(err) {
		t.Error("oldest backup still present")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("non-backup file removed")
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	list, err := ListBackups(filepath.Join(t.TempDir(), "nope"))
	if err != nil || list != nil {
		t.Errorf("ListBackups() = %v, %v", list, err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"720h", 720 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"", 0, true},
		{"d", 0, true},
		{"5y", 0, true},
		{"xd", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, %v", tt.in, got, err)
		}
	}
}
