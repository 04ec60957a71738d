// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps extracted part documents in a SQLite database so
// features can be queried across runs.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/step-features/internal/serialize"
	"github.com/pdiddy/step-features/pkg/types"
)

// ErrNotFound is returned when a run id is not in the catalog.
var ErrNotFound = errors.New("run not found")

// Store manages the catalog database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Run describes one stored part document.
type Run struct {
	ID        string         `json:"id" yaml:"id"`
	Part      types.PartInfo `json:"part" yaml:"part"`
	Source    string         `json:"source" yaml:"source"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	Features  int            `json:"features" yaml:"features"`
}

// Open opens or creates the catalog database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.CatalogConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("catalog path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			part_id TEXT NOT NULL,
			part_name TEXT NOT NULL,
			material TEXT NOT NULL,
			source TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS features (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			face_id INTEGER NOT NULL,
			surface_type TEXT NOT NULL,
			area REAL NOT NULL,
			com_x REAL NOT NULL,
			com_y REAL NOT NULL,
			com_z REAL NOT NULL,
			radius REAL,
			axis_x REAL,
			axis_y REAL,
			axis_z REAL,
			semi_angle REAL,
			PRIMARY KEY (run_id, face_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_features_surface_type ON features(surface_type)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_part_id ON runs(part_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Add stores doc as a new run and returns it. source is the STEP file the
// document was extracted from.
func (s *Store) Add(ctx context.Context, doc types.PartDocument, source string) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Part:      doc.Part,
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Features:  len(doc.Features),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, part_id, part_name, material, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Part.ID, run.Part.Name, run.Part.Material, run.Source,
		run.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO features (run_id, face_id, surface_type, area, com_x, com_y, com_z,
			radius, axis_x, axis_y, axis_z, semi_angle)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing feature insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range doc.Features {
		var radius, ax, ay, az, semi sql.NullFloat64
		switch p := f.Params.(type) {
		case types.CylinderParams:
			radius = nullFloat(p.Radius)
			ax, ay, az = nullFloat(p.Axis[0]), nullFloat(p.Axis[1]), nullFloat(p.Axis[2])
		case types.SphereParams:
			radius = nullFloat(p.Radius)
		case types.ConeParams:
			radius = nullFloat(p.Radius)
			semi = nullFloat(p.SemiAngle)
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID, f.ID, f.Type.Code(), f.Area,
			f.CenterOfMass[0], f.CenterOfMass[1], f.CenterOfMass[2],
			radius, ax, ay, az, semi,
		); err != nil {
			return Run{}, fmt.Errorf("inserting feature %d: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Runs lists stored runs in insertion order.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.part_id, r.part_name, r.material, r.source, r.created_at,
			(SELECT count(*) FROM features f WHERE f.run_id = r.id)
		FROM runs r
		ORDER BY r.rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			source  sql.NullString
			created string
		)
		if err := rows.Scan(&r.ID, &r.Part.ID, &r.Part.Name, &r.Part.Material, &source, &created, &r.Features); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Source = source.String
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("run %s: parsing created_at: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Document rebuilds the part document stored under runID.
func (s *Store) Document(ctx context.Context, runID string) (types.PartDocument, error) {
	var part types.PartInfo
	err := s.db.QueryRowContext(ctx,
		`SELECT part_id, part_name, material FROM runs WHERE id = ?`, runID,
	).Scan(&part.ID, &part.Name, &part.Material)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.PartDocument{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return types.PartDocument{}, fmt.Errorf("looking up run: %w", err)
	}

	results, err := s.Query(ctx, QueryOptions{RunID: runID, MaxResults: exportLimit})
	if err != nil {
		return types.PartDocument{}, err
	}
	features := make([]types.Feature, len(results))
	for i, r := range results {
		features[i] = r.Feature
	}
	return serialize.Build(part, features), nil
}

// Delete removes a run and its features.
func (s *Store) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}
