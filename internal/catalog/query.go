// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/step-features/pkg/types"
)

// QueryOptions holds the filters for a feature query. Zero values match
// everything.
type QueryOptions struct {
	// Types keeps features whose surface type is any of these.
	Types []types.SurfaceType

	// PartID filters by part identifier.
	PartID string

	// RunID filters by stored run.
	RunID string

	// MinArea and MaxArea bound the face area; zero disables a bound.
	MinArea float64
	MaxArea float64

	// MaxResults limits the result count. Zero uses the store default.
	MaxResults int
}

// QueryResult is a stored feature with the run it belongs to.
type QueryResult struct {
	types.Feature
	RunID  string
	PartID string
}

// Query returns features matching opts ordered by run insertion and
// face id.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT f.run_id, r.part_id, f.face_id, f.surface_type, f.area,
			f.com_x, f.com_y, f.com_z, f.radius, f.axis_x, f.axis_y, f.axis_z, f.semi_angle
		FROM features f
		JOIN runs r ON r.id = f.run_id
		WHERE 1=1`)

	if len(opts.Types) > 0 {
		qb.WriteString(` AND f.surface_type IN (`)
		for i, t := range opts.Types {
			if i > 0 {
				qb.WriteString(`, `)
			}
			qb.WriteString(`?`)
			args = append(args, t.Code())
		}
		qb.WriteString(`)`)
	}
	if opts.PartID != "" {
		qb.WriteString(` AND r.part_id = ?`)
		args = append(args, opts.PartID)
	}
	if opts.RunID != "" {
		qb.WriteString(` AND f.run_id = ?`)
		args = append(args, opts.RunID)
	}
	if opts.MinArea > 0 {
		qb.WriteString(` AND f.area >= ?`)
		args = append(args, opts.MinArea)
	}
	if opts.MaxArea > 0 {
		qb.WriteString(` AND f.area <= ?`)
		args = append(args, opts.MaxArea)
	}

	qb.WriteString(` ORDER BY r.rowid, f.face_id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr                  QueryResult
			code                string
			radius, semi        sql.NullFloat64
			axisX, axisY, axisZ sql.NullFloat64
		)
		if err := rows.Scan(
			&qr.RunID, &qr.PartID, &qr.ID, &code, &qr.Area,
			&qr.CenterOfMass[0], &qr.CenterOfMass[1], &qr.CenterOfMass[2],
			&radius, &axisX, &axisY, &axisZ, &semi,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		st, ok := types.ParseSurfaceType(code)
		if !ok {
			return nil, fmt.Errorf("run %s face %d: unknown surface type %q", qr.RunID, qr.ID, code)
		}
		qr.Type = st

		switch {
		case st == types.SurfaceCylinder && radius.Valid:
			qr.Params = types.CylinderParams{
				Radius: radius.Float64,
				Axis:   types.Vec3{axisX.Float64, axisY.Float64, axisZ.Float64},
			}
		case st == types.SurfaceSphere && radius.Valid:
			qr.Params = types.SphereParams{Radius: radius.Float64}
		case st == types.SurfaceCone && radius.Valid:
			qr.Params = types.ConeParams{Radius: radius.Float64, SemiAngle: semi.Float64}
		}

		results = append(results, qr)
	}
	return results, rows.Err()
}

// TypeCounts returns the number of stored features per surface type code.
func (s *Store) TypeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT surface_type, count(*) FROM features GROUP BY surface_type`)
	if err != nil {
		return nil, fmt.Errorf("counting features: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			code string
			n    int
		)
		if err := rows.Scan(&code, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[code] = n
	}
	return counts, rows.Err()
}
