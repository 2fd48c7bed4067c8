package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/civika/rishui/pkg/rishui/internalerr"
	"github.com/civika/rishui/pkg/rishui/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TestSQLiteIntegrationBasic tests logging and reading back an assessment
func TestSQLiteIntegrationBasic(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	a := store.Assessment{
		Area:       120,
		Seats:      45,
		Employees:  4,
		Features:   []string{"gas", "delivery"},
		MatchedIDs: []string{"health-baseline", "fire-affidavit", "gas-cert", "delivery-rules"},
		Report:     "דוח דרישות לעסק",
	}

	id, err := st.LogAssessment(ctx, a)
	if err != nil {
		t.Fatalf("LogAssessment: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	got, err := st.GetAssessment(ctx, id)
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}

	if got.Area != 120 || got.Seats != 45 || got.Employees != 4 {
		t.Errorf("profile fields mismatch: %+v", got)
	}
	if len(got.Features) != 2 || got.Features[0] != "gas" {
		t.Errorf("features mismatch: %v", got.Features)
	}
	if len(got.MatchedIDs) != 4 {
		t.Fatalf("expected 4 matched ids, got %v", got.MatchedIDs)
	}
	// Match order is part of the record.
	if got.MatchedIDs[0] != "health-baseline" || got.MatchedIDs[3] != "delivery-rules" {
		t.Errorf("match order lost: %v", got.MatchedIDs)
	}
	if got.Report != a.Report {
		t.Errorf("report mismatch: %q", got.Report)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should be set by the store")
	}
}

func TestSQLiteIntegrationNotFound(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if _, err := st.GetAssessment(ctx, "01ZZZZZZZZZZZZZZZZZZZZZZZZ"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteIntegrationRecent(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := st.LogAssessment(ctx, store.Assessment{
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Area:      float64(50 + i),
			Seats:     10 * i,
		})
		if err != nil {
			t.Fatalf("LogAssessment %d: %v", i, err)
		}
	}

	recent, err := st.RecentAssessments(ctx, 3)
	if err != nil {
		t.Fatalf("RecentAssessments: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3, got %d", len(recent))
	}
	if recent[0].Area != 54 || recent[2].Area != 52 {
		t.Errorf("expected newest first: %+v", recent)
	}

	n, err := st.CountAssessments(ctx)
	if err != nil {
		t.Fatalf("CountAssessments: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 assessments, got %d", n)
	}
}

// TestSQLiteIntegrationSameSecondOrdering logs records that share a wall
// clock second but differ in sub-second noise. The stored timestamps are
// second precision and fixed width, so ordering falls to the insertion-time
// id and stays newest first.
func TestSQLiteIntegrationSameSecondOrdering(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	nanos := []time.Duration{
		500 * time.Millisecond,
		250 * time.Millisecond,
		125 * time.Millisecond,
		0,
	}
	for i, d := range nanos {
		_, err := st.LogAssessment(ctx, store.Assessment{
			CreatedAt: base.Add(d),
			Area:      float64(i),
		})
		if err != nil {
			t.Fatalf("LogAssessment %d: %v", i, err)
		}
	}

	recent, err := st.RecentAssessments(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAssessments: %v", err)
	}
	if len(recent) != len(nanos) {
		t.Fatalf("expected %d records, got %d", len(nanos), len(recent))
	}
	for i := range recent {
		wantArea := float64(len(nanos) - 1 - i)
		if recent[i].Area != wantArea {
			t.Errorf("position %d: area = %v, want %v", i, recent[i].Area, wantArea)
		}
		if !recent[i].CreatedAt.Equal(base) {
			t.Errorf("position %d: created_at = %v, want %v", i, recent[i].CreatedAt, base)
		}
	}
}

func TestSQLiteIntegrationUniqueIDs(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := st.LogAssessment(ctx, store.Assessment{Area: float64(i)})
		if err != nil {
			t.Fatalf("LogAssessment: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestSQLiteIntegrationPersistence(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	st, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := st.LogAssessment(ctx, store.Assessment{Area: 80, Seats: 20})
	if err != nil {
		t.Fatalf("LogAssessment: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and read back.
	st, err = Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	got, err := st.GetAssessment(ctx, id)
	if err != nil {
		t.Fatalf("GetAssessment after reopen: %v", err)
	}
	if got.Area != 80 {
		t.Errorf("unexpected record after reopen: %+v", got)
	}
}

func TestSQLiteIntegrationConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			_, err := st.LogAssessment(ctx, store.Assessment{
				Area:     float64(i),
				Features: []string{fmt.Sprintf("f%d", i)},
			})
			errs <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent LogAssessment: %v", err)
		}
	}

	n, err := st.CountAssessments(ctx)
	if err != nil {
		t.Fatalf("CountAssessments: %v", err)
	}
	if n != 10 {
		t.Errorf("expected 10 assessments, got %d", n)
	}
}
