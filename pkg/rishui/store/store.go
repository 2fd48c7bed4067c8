// Package store persists assessment history: every evaluated business
// profile together with the requirement ids it matched.
package store

import (
	"context"
	"time"
)

// Assessment is one evaluated business profile and its outcome.
type Assessment struct {
	ID         string
	CreatedAt  time.Time
	Area       float64
	Seats      int
	Employees  int
	Features   []string
	MatchedIDs []string
	Report     string // optional generated narrative
}

// Store is the interface for persisting and querying assessment history.
type Store interface {
	Close() error

	// LogAssessment persists an assessment and returns its id. A blank
	// ID is assigned by the store.
	LogAssessment(ctx context.Context, a Assessment) (string, error)

	GetAssessment(ctx context.Context, id string) (Assessment, error)

	// RecentAssessments returns up to limit assessments, newest first.
	RecentAssessments(ctx context.Context, limit int) ([]Assessment, error)

	CountAssessments(ctx context.Context) (int64, error)
}
