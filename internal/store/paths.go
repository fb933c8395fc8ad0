package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names inside the data directory.
const (
	ProfileFileName = "user_profile.json"
	StateFileName   = "personality_state.json"
	EventsFileName  = "events.jsonl"
	DatabaseName    = "pixelplant.db"

	// PreviousSuffix marks the last good copy of a document, kept so a
	// damaged write can be recovered.
	PreviousSuffix = ".bak"
)

// DefaultDataDir returns the default data directory.
// On Unix: ~/.pixelplant
// On Windows: %USERPROFILE%\.pixelplant
func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pixelplant"), nil
}

// EnsureDir creates dir with private permissions if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}
