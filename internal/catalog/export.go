// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/step-features/pkg/types"
)

// ExportEntry is one feature as written by ExportYAML and ExportJSON.
// Payload fields are omitted when the surface type carries none.
type ExportEntry struct {
	RunID       string      `json:"run_id" yaml:"run_id"`
	PartID      string      `json:"part_id" yaml:"part_id"`
	FaceID      int         `json:"face_id" yaml:"face_id"`
	SurfaceType string      `json:"surface_type" yaml:"surface_type"`
	Area        float64     `json:"area" yaml:"area"`
	Centroid    types.Vec3  `json:"centroid" yaml:"centroid,flow"`
	Radius      *float64    `json:"radius,omitempty" yaml:"radius,omitempty"`
	Axis        *types.Vec3 `json:"axis,omitempty" yaml:"axis,omitempty,flow"`
	SemiAngle   *float64    `json:"semi_angle,omitempty" yaml:"semi_angle,omitempty"`
}

const exportLimit = 1000000

// ExportYAML writes the features matching opts to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the features matching opts to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		e := ExportEntry{
			RunID:       r.RunID,
			PartID:      r.PartID,
			FaceID:      r.ID,
			SurfaceType: r.Type.Code(),
			Area:        r.Area,
			Centroid:    r.CenterOfMass,
		}
		switch p := r.Params.(type) {
		case types.CylinderParams:
			e.Radius = &p.Radius
			e.Axis = &p.Axis
		case types.SphereParams:
			e.Radius = &p.Radius
		case types.ConeParams:
			e.Radius = &p.Radius
			e.SemiAngle = &p.SemiAngle
		}
		entries[i] = e
	}
	return entries, nil
}
