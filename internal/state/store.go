// Package state persists scan history to SQLite so successive runs
// against the same registry can be compared over time.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/validate"
)

// Scan summarizes one persisted group scan.
type Scan struct {
	ID         string
	GroupID    string
	GroupName  string
	StartedAt  time.Time
	Indicators int
	Findings   int
}

// Store wraps the SQLite scan-history database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates an unopened Store; call Open before use.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWithDB wraps an existing connection. Used by tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens the database at path, creating it if needed. Use ":memory:"
// for an in-memory store.
func (s *Store) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("state: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("state: ping %s: %w", path, err)
	}
	s.db = db
	s.path = path
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveScan stores one group scan with every record and finding, in a
// single transaction, and returns the new scan's id.
func (s *Store) SaveScan(ctx context.Context, result *validate.GroupResult, startedAt time.Time) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("state: database not opened")
	}
	scanID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("state: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, group_id, group_name, started_at) VALUES (?, ?, ?, ?)`,
		scanID, result.Group.ID, result.Group.DisplayName, startedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("state: insert scan: %w", err)
	}

	for pos, rec := range result.Records {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scan_indicators
			   (scan_id, indicator_id, position, display_name,
			    numerator_description, denominator_description, calculation)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			scanID, rec.ID, pos, rec.DisplayName,
			rec.NumeratorDescription, rec.DenominatorDescription, rec.Calculation)
		if err != nil {
			return "", fmt.Errorf("state: insert indicator %s: %w", rec.ID, err)
		}
		for fpos, f := range rec.Findings {
			args, err := json.Marshal(f.Args)
			if err != nil {
				return "", fmt.Errorf("state: encode finding args: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO scan_findings
				   (scan_id, indicator_id, position, code, args)
				 VALUES (?, ?, ?, ?, ?)`,
				scanID, rec.ID, fpos, f.Code.Name(), string(args))
			if err != nil {
				return "", fmt.Errorf("state: insert finding: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("state: commit: %w", err)
	}
	return scanID, nil
}

// ListScans returns every stored scan, newest first, with indicator and
// finding counts.
func (s *Store) ListScans(ctx context.Context) ([]Scan, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state: database not opened")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.group_id, s.group_name, s.started_at,
		       (SELECT COUNT(*) FROM scan_indicators i WHERE i.scan_id = s.id),
		       (SELECT COUNT(*) FROM scan_findings f WHERE f.scan_id = s.id)
		FROM scans s
		ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("state: list scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		var sc Scan
		var startedAt string
		if err := rows.Scan(&sc.ID, &sc.GroupID, &sc.GroupName, &startedAt,
			&sc.Indicators, &sc.Findings); err != nil {
			return nil, fmt.Errorf("state: scan row: %w", err)
		}
		sc.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		scans = append(scans, sc)
	}
	return scans, rows.Err()
}
