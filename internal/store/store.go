// Package store persists evaluation run results in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"plankton-eval/internal/evaluate"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    created_at   TEXT NOT NULL,
    data_dir     TEXT NOT NULL,
    image_style  TEXT NOT NULL,
    examples     INTEGER NOT NULL,
    accuracy     REAL NOT NULL,
    duration_s   REAL NOT NULL
);
`

const classMetricsSchema = `
CREATE TABLE IF NOT EXISTS class_metrics (
    run_id     TEXT NOT NULL REFERENCES runs(id),
    label      TEXT NOT NULL,
    precision  REAL NOT NULL,
    recall     REAL NOT NULL,
    f1         REAL NOT NULL,
    support    INTEGER NOT NULL
);
`

const confusionSchema = `
CREATE TABLE IF NOT EXISTS confusion (
    run_id          TEXT NOT NULL REFERENCES runs(id),
    true_label      TEXT NOT NULL,
    predicted_label TEXT NOT NULL,
    value           REAL NOT NULL
);
`

// Store writes evaluation reports to a SQLite database.
type Store struct {
	db *sql.DB
}

// New initializes the schema and returns a Store.
func New(db *sql.DB) (*Store, error) {
	for _, schema := range []string{runsSchema, classMetricsSchema, confusionSchema} {
		if _, err := db.Exec(schema); err != nil {
			return nil, fmt.Errorf("initialize results schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Save persists a full report in one transaction.
func (s *Store) Save(report *evaluate.Report) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, created_at, data_dir, image_style, examples, accuracy, duration_s)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.CreatedAt.Format(time.RFC3339),
		report.DataDir,
		report.ImageStyle,
		report.Examples,
		report.Accuracy,
		report.Duration,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	for _, cm := range report.PerClass {
		_, err = tx.Exec(`
			INSERT INTO class_metrics (run_id, label, precision, recall, f1, support)
			VALUES (?, ?, ?, ?, ?, ?)`,
			report.RunID, cm.Label, cm.Precision, cm.Recall, cm.F1, cm.Support,
		)
		if err != nil {
			return fmt.Errorf("insert class metrics for %s: %w", cm.Label, err)
		}
	}

	for i, row := range report.Confusion {
		for j, v := range row {
			if v == 0 {
				continue
			}
			_, err = tx.Exec(`
				INSERT INTO confusion (run_id, true_label, predicted_label, value)
				VALUES (?, ?, ?, ?)`,
				report.RunID, report.Classes[i], report.Classes[j], v,
			)
			if err != nil {
				return fmt.Errorf("insert confusion cell (%d,%d): %w", i, j, err)
			}
		}
	}
	return tx.Commit()
}

// RunSummary is one stored run's headline numbers.
type RunSummary struct {
	ID        string
	CreatedAt time.Time
	DataDir   string
	Examples  int
	Accuracy  float64
}

// LastRuns returns the n most recent runs, newest first.
func (s *Store) LastRuns(n int) ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, data_dir, examples, accuracy
		FROM runs ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var created string
		if err := rows.Scan(&r.ID, &created, &r.DataDir, &r.Examples, &r.Accuracy); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
