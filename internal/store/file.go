package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/pixelplant/internal/models"
)

// FileStore implements Store with JSON documents in a directory:
// user_profile.json, personality_state.json and an append-only events.jsonl.
// Documents are written atomically via temp file + rename, and the previous
// version is kept beside them with PreviousSuffix.
type FileStore struct {
	mu          sync.Mutex
	dir         string
	profilePath string
	statePath   string
	eventsPath  string
	closed      bool

	// LoadErrors tracks malformed event lines skipped by the last Events call.
	LoadErrors []LoadError
}

// LoadError represents a malformed line found while reading the event log.
type LoadError struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
	Error   string `json:"error"`
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileStore{
		dir:         dir,
		profilePath: filepath.Join(dir, ProfileFileName),
		statePath:   filepath.Join(dir, StateFileName),
		eventsPath:  filepath.Join(dir, EventsFileName),
	}, nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string { return s.dir }

// LoadProfile reads the profile document, falling back to the previous copy
// when it is unreadable. A missing file yields (nil, nil).
func (s *FileStore) LoadProfile(ctx context.Context) (*models.UserProfile, error) {
	return loadDocument[models.UserProfile](s, s.profilePath)
}

// SaveProfile writes the profile document atomically.
func (s *FileStore) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}
	return s.writeDocument(s.profilePath, p)
}

// LoadState reads the state document, falling back to the previous copy
// when it is unreadable. A missing file yields (nil, nil).
func (s *FileStore) LoadState(ctx context.Context) (*models.PersonalityState, error) {
	return loadDocument[models.PersonalityState](s, s.statePath)
}

// SaveState writes the state document atomically.
func (s *FileStore) SaveState(ctx context.Context, st *models.PersonalityState) error {
	if st == nil {
		return fmt.Errorf("state is required")
	}
	return s.writeDocument(s.statePath, st)
}

// RecordEvent appends e to the JSONL event log.
func (s *FileStore) RecordEvent(ctx context.Context, e models.Event) error {
	if err := prepareEvent(&e); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	f, err := os.OpenFile(s.eventsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// Events reads the event log. Malformed lines are skipped and recorded in
// LoadErrors.
func (s *FileStore) Events(ctx context.Context, since time.Time) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	s.LoadErrors = s.LoadErrors[:0]
	f, err := os.Open(s.eventsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Event{}, nil
		}
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	var events []models.Event
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e models.Event
		if err := json.Unmarshal(line, &e); err != nil {
			s.LoadErrors = append(s.LoadErrors, LoadError{
				File:    s.eventsPath,
				Line:    lineNum,
				Content: truncateForError(string(line)),
				Error:   err.Error(),
			})
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}
	return filterEvents(events, since), nil
}

// Reset removes every file the store owns.
func (s *FileStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, path := range []string{
		s.profilePath, s.profilePath + PreviousSuffix,
		s.statePath, s.statePath + PreviousSuffix,
		s.eventsPath,
	} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// Close marks the store closed. Nothing is buffered.
func (s *FileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// loadDocument decodes path, or its previous copy when path is damaged or
// missing. The error for path is returned only when no copy decodes.
func loadDocument[T any](s *FileStore, path string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	v, err := decodeDocument[T](path)
	if err == nil && v != nil {
		return v, nil
	}
	if prev, prevErr := decodeDocument[T](path + PreviousSuffix); prevErr == nil && prev != nil {
		return prev, nil
	}
	return nil, err
}

func decodeDocument[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", filepath.Base(path), err)
	}
	return &v, nil
}

func (s *FileStore) writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	// Write atomically via temp file + rename.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing %s temp file: %w", filepath.Base(path), err)
	}
	if cur, err := os.ReadFile(path); err == nil && json.Valid(cur) {
		if err := os.Rename(path, path+PreviousSuffix); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("keeping previous %s: %w", filepath.Base(path), err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

// truncateForError truncates a string for error reporting to avoid huge messages.
func truncateForError(s string) string {
	const maxLen = 100
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
