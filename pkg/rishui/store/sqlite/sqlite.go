// Package sqlite implements the assessment store on SQLite.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/civika/rishui/pkg/rishui/internalerr"
	"github.com/civika/rishui/pkg/rishui/store"
)

// sqliteStore implements store.Store using SQLite.
type sqliteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens a SQLite database with WAL mode enabled and the schema
// initialized.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	area REAL NOT NULL,
	seats INTEGER NOT NULL,
	employees INTEGER NOT NULL DEFAULT 0,
	features TEXT,
	report TEXT
);

CREATE TABLE IF NOT EXISTS assessment_matches (
	assessment_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	rule_id TEXT NOT NULL,
	PRIMARY KEY(assessment_id, position),
	FOREIGN KEY(assessment_id) REFERENCES assessments(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

// LogAssessment persists an assessment and its matched rule ids in one
// transaction.
func (s *sqliteStore) LogAssessment(ctx context.Context, a store.Assessment) (string, error) {
	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	// Stored as RFC3339 in UTC: fixed width, so created_at sorts
	// chronologically as text. Same-second ties fall to the time-ordered id.
	a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Second)

	features, err := json.Marshal(a.Features)
	if err != nil {
		return "", fmt.Errorf("marshal features: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assessments (id, created_at, area, seats, employees, features, report)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CreatedAt.Format(time.RFC3339), a.Area, a.Seats, a.Employees,
		string(features), a.Report)
	if err != nil {
		return "", fmt.Errorf("insert assessment: %w", err)
	}

	for i, ruleID := range a.MatchedIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO assessment_matches (assessment_id, position, rule_id)
			VALUES (?, ?, ?)`,
			a.ID, i, ruleID)
		if err != nil {
			return "", fmt.Errorf("insert match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return a.ID, nil
}

// GetAssessment loads one assessment with its matched rule ids in match
// order.
func (s *sqliteStore) GetAssessment(ctx context.Context, id string) (store.Assessment, error) {
	var a store.Assessment
	var createdAt, features string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, area, seats, employees, features, report
		FROM assessments WHERE id = ?`, id).
		Scan(&a.ID, &createdAt, &a.Area, &a.Seats, &a.Employees, &features, &a.Report)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Assessment{}, fmt.Errorf("%w: assessment %s", internalerr.ErrNotFound, id)
	}
	if err != nil {
		return store.Assessment{}, err
	}

	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return store.Assessment{}, fmt.Errorf("parse created_at: %w", err)
	}
	if features != "" {
		if err := json.Unmarshal([]byte(features), &a.Features); err != nil {
			return store.Assessment{}, fmt.Errorf("unmarshal features: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id FROM assessment_matches
		WHERE assessment_id = ? ORDER BY position`, id)
	if err != nil {
		return store.Assessment{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ruleID string
		if err := rows.Scan(&ruleID); err != nil {
			return store.Assessment{}, err
		}
		a.MatchedIDs = append(a.MatchedIDs, ruleID)
	}
	return a, rows.Err()
}

// RecentAssessments returns up to limit assessments, newest first, without
// their match lists.
func (s *sqliteStore) RecentAssessments(ctx context.Context, limit int) ([]store.Assessment, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, area, seats, employees, features, report
		FROM assessments ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Assessment
	for rows.Next() {
		var a store.Assessment
		var createdAt, features string
		if err := rows.Scan(&a.ID, &createdAt, &a.Area, &a.Seats, &a.Employees, &features, &a.Report); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if features != "" {
			if err := json.Unmarshal([]byte(features), &a.Features); err != nil {
				return nil, fmt.Errorf("unmarshal features: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountAssessments returns the total number of logged assessments.
func (s *sqliteStore) CountAssessments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&n)
	return n, err
}
