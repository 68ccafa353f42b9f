package store

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"plankton-eval/internal/evaluate"
	"plankton-eval/internal/metrics"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleReport(id string, accuracy float64) *evaluate.Report {
	return &evaluate.Report{
		RunID:      id,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		DataDir:    "/data/run_01",
		ImageStyle: "collage",
		Examples:   14,
		Duration:   2.5,
		Accuracy:   accuracy,
		Classes:    []string{"A", "B"},
		PerClass: []metrics.ClassMetrics{
			{Label: "A", Precision: 0.9, Recall: 0.8, F1: 0.847, Support: 8},
			{Label: "B", Precision: 0.7, Recall: 0.75, F1: 0.724, Support: 6},
		},
		Confusion: [][]float64{{7, 1}, {2, 4}},
	}
}

func TestStore_SaveAndQuery(t *testing.T) {
	s, err := New(newTestDB(t))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Save(sampleReport("run-1", 0.78)); err != nil {
		t.Fatal(err)
	}

	runs, err := s.LastRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	if runs[0].ID != "run-1" || runs[0].Examples != 14 || runs[0].Accuracy != 0.78 {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestStore_LastRunsLimit(t *testing.T) {
	s, err := New(newTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	for i, id := range []string{"a", "b", "c"} {
		r := sampleReport(id, 0.5)
		r.CreatedAt = time.Date(2026, 8, 1+i, 0, 0, 0, 0, time.UTC)
		if err := s.Save(r); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.LastRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStore_DuplicateRunID(t *testing.T) {
	s, err := New(newTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(sampleReport("dup", 0.5)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(sampleReport("dup", 0.6)); err == nil {
		t.Error("expected primary-key violation for duplicate run id")
	}
}
