package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// stateFile is the session state filename inside the data dir.
const stateFile = "session-state.json"

// SaveState persists the session summary to a JSON file in the given
// directory. The directory must already exist.
func SaveState(s *State, dir string) error {
	data, err := json.MarshalIndent(s.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session state: %w", err)
	}

	path := filepath.Join(dir, stateFile)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing session state temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming session state file: %w", err)
	}

	return nil
}

// LoadState reads the last saved session summary from the given directory.
// It returns (nil, nil) when no session has been saved.
func LoadState(dir string) (*Summary, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	var sum Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("unmarshaling session state: %w", err)
	}
	if sum.Spoken == nil {
		sum.Spoken = make(map[string]int)
	}
	return &sum, nil
}

// StateFilePath returns the expected path for the session state file in the given directory.
func StateFilePath(dir string) string {
	return filepath.Join(dir, stateFile)
}

// RemoveState removes the session state file from the given directory.
// It is not an error if the file does not exist.
func RemoveState(dir string) error {
	path := filepath.Join(dir, stateFile)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session state: %w", err)
	}
	return nil
}
