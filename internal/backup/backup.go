// Package backup provides backup and restore of the plant's persisted data:
// the user profile, the personality state and the interaction events.
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/store"
)

// DirName is the backup directory inside the data dir.
const DirName = "backups"

const (
	filePrefix = "pixelplant-backup-"
	fileSuffix = ".json.gz"
)

// Snapshot is the payload of a backup file.
type Snapshot struct {
	CreatedAt time.Time                `json:"created_at"`
	Profile   *models.UserProfile      `json:"profile,omitempty"`
	State     *models.PersonalityState `json:"state,omitempty"`
	Events    []models.Event           `json:"events"`
}

// RestoreResult contains statistics about the restore operation.
type RestoreResult struct {
	ID              string `json:"id"`
	ProfileRestored bool   `json:"profile_restored"`
	StateRestored   bool   `json:"state_restored"`
	EventsRestored  int    `json:"events_restored"`
}

// Dir returns the backup directory for dataDir.
func Dir(dataDir string) string {
	return filepath.Join(dataDir, DirName)
}

// Collect reads everything persisted in st into a snapshot.
func Collect(ctx context.Context, st store.Store, now time.Time) (*Snapshot, error) {
	profile, err := st.LoadProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	state, err := st.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	events, err := st.Events(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}

	return &Snapshot{
		CreatedAt: now,
		Profile:   profile,
		State:     state,
		Events:    events,
	}, nil
}

// Create writes a backup of st to outputPath.
func Create(ctx context.Context, st store.Store, outputPath string, now time.Time) (*Header, error) {
	snap, err := Collect(ctx, st, now)
	if err != nil {
		return nil, err
	}

	h, err := WriteV2(outputPath, Header{ID: uuid.NewString()}, snap)
	if err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}
	return h, nil
}

// Restore replaces the contents of st with the backup at inputPath. The
// checksum is verified before the store is touched.
func Restore(ctx context.Context, st store.Store, inputPath string) (*RestoreResult, error) {
	h, snap, err := ReadV2(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	if err := st.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset store: %w", err)
	}

	result := &RestoreResult{ID: h.ID}
	if snap.Profile != nil {
		if err := st.SaveProfile(ctx, snap.Profile); err != nil {
			return nil, fmt.Errorf("failed to restore profile: %w", err)
		}
		result.ProfileRestored = true
	}
	if snap.State != nil {
		if err := st.SaveState(ctx, snap.State); err != nil {
			return nil, fmt.Errorf("failed to restore state: %w", err)
		}
		result.StateRestored = true
	}
	for _, e := range snap.Events {
		if err := st.RecordEvent(ctx, e); err != nil {
			return nil, fmt.Errorf("failed to restore event %s: %w", e.ID, err)
		}
		result.EventsRestored++
	}

	return result, nil
}

// GenerateBackupPath creates a timestamped backup filename in the given directory.
func GenerateBackupPath(dir string, now time.Time) string {
	ts := now.UTC().Format("20060102-150405.000")
	ts = strings.Replace(ts, ".", "-", 1)
	return filepath.Join(dir, filePrefix+ts+fileSuffix)
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}
