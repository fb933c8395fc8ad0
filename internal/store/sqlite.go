package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/pixelplant/internal/models"
)

const (
	profileDocument = "user_profile"
	stateDocument   = "personality_state"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) dir/pixelplant.db.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	return OpenSQLiteStore(filepath.Join(dir, DatabaseName))
}

// OpenSQLiteStore opens the database at dbPath and initializes its schema.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.dbPath }

// LoadProfile reads the profile document and overlays the pattern rows.
func (s *SQLiteStore) LoadProfile(ctx context.Context) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	var p models.UserProfile
	ok, err := s.getDocument(ctx, profileDocument, &p)
	if err != nil || !ok {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT hour, expected_activity, confidence, samples, is_work_time FROM activity_patterns ORDER BY hour`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ap models.ActivityPattern
		var work int
		if err := rows.Scan(&ap.Hour, &ap.ExpectedActivity, &ap.Confidence, &ap.Samples, &work); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		if ap.Hour < 0 || ap.Hour >= models.HoursPerDay {
			continue
		}
		ap.IsWorkTime = work != 0
		p.Patterns[ap.Hour] = ap
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read patterns: %w", err)
	}
	return &p, nil
}

// SaveProfile writes the profile document and all 24 pattern rows in one
// transaction.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Patterns live in their own table.
	doc := *p
	doc.Patterns = [models.HoursPerDay]models.ActivityPattern{}
	if err := putDocument(ctx, tx, profileDocument, &doc); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activity_patterns (hour, expected_activity, confidence, samples, is_work_time)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hour) DO UPDATE SET
			expected_activity = excluded.expected_activity,
			confidence = excluded.confidence,
			samples = excluded.samples,
			is_work_time = excluded.is_work_time`)
	if err != nil {
		return fmt.Errorf("failed to prepare pattern upsert: %w", err)
	}
	defer stmt.Close()

	for h, ap := range p.Patterns {
		if _, err := stmt.ExecContext(ctx, h, ap.ExpectedActivity, ap.Confidence, ap.Samples, boolToInt(ap.IsWorkTime)); err != nil {
			return fmt.Errorf("failed to save pattern for hour %d: %w", h, err)
		}
	}

	return tx.Commit()
}

// LoadState reads the personality state document.
func (s *SQLiteStore) LoadState(ctx context.Context) (*models.PersonalityState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	var st models.PersonalityState
	ok, err := s.getDocument(ctx, stateDocument, &st)
	if err != nil || !ok {
		return nil, err
	}
	return &st, nil
}

// SaveState writes the personality state document.
func (s *SQLiteStore) SaveState(ctx context.Context, st *models.PersonalityState) error {
	if st == nil {
		return fmt.Errorf("state is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := putDocument(ctx, tx, stateDocument, st); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordEvent inserts e into the events table.
func (s *SQLiteStore) RecordEvent(ctx context.Context, e models.Event) error {
	if err := prepareEvent(&e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, kind, category, at_ns, effective, response_time_ns, activity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Category.String(), e.At.UnixNano(),
		boolToInt(e.Effective), int64(e.ResponseTime), e.Activity)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Events returns the events at or after since, oldest first.
func (s *SQLiteStore) Events(ctx context.Context, since time.Time) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	var from int64
	if !since.IsZero() {
		from = since.UnixNano()
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, category, at_ns, effective, response_time_ns, activity
		FROM events WHERE at_ns >= ? ORDER BY at_ns, rowid`, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			e          models.Event
			kind, cat  string
			atNs, rtNs int64
			effective  int
		)
		if err := rows.Scan(&e.ID, &kind, &cat, &atNs, &effective, &rtNs, &e.Activity); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Kind = models.EventKind(kind)
		if c, err := models.ParseCategory(cat); err == nil {
			e.Category = c
		}
		e.At = time.Unix(0, atNs)
		e.Effective = effective != 0
		e.ResponseTime = time.Duration(rtNs)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

// Reset drops and recreates every table.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	return ResetSchema(ctx, s.db)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDocument(ctx context.Context, name string, v any) (bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return true, nil
}

func putDocument(ctx context.Context, tx *sql.Tx, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, string(body))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
