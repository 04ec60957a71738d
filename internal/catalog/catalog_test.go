// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/step-features/internal/serialize"
	"github.com/pdiddy/step-features/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.CatalogConfig{Path: filepath.Join(t.TempDir(), "db", "catalog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func pinDocument() types.PartDocument {
	return serialize.Build(types.DefaultPartInfo(), []types.Feature{
		{ID: 1, Type: types.SurfaceCylinder, Area: 314.159, CenterOfMass: types.Vec3{0, 0, 5},
			Params: types.CylinderParams{Radius: 5, Axis: types.Vec3{0, 0, 1}}},
		{ID: 2, Type: types.SurfacePlane, Area: 78.54, CenterOfMass: types.Vec3{0, 0, 10}},
		{ID: 3, Type: types.SurfacePlane, Area: 78.54, CenterOfMass: types.Vec3{0, 0, 0}},
	})
}

func coneDocument() types.PartDocument {
	return serialize.Build(types.PartInfo{ID: "P002", Name: "Nozzle", Material: "Brass"}, []types.Feature{
		{ID: 1, Type: types.SurfaceCone, Area: 18.85, CenterOfMass: types.Vec3{0, 0, 1.155},
			Params: types.ConeParams{Radius: 2, SemiAngle: -0.524}},
		{ID: 2, Type: types.SurfaceSphere, Area: 12.566, Params: types.SphereParams{Radius: 1}},
		{ID: 3, Type: types.SurfaceBSpline, Area: 4.2, CenterOfMass: types.Vec3{1, 1, 0}},
	})
}

func TestAddAndDocument(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, doc := range []types.PartDocument{pinDocument(), coneDocument()} {
		run, err := s.Add(ctx, doc, "part.stp")
		require.NoError(t, err)
		assert.Len(t, run.ID, 36)
		assert.Equal(t, len(doc.Features), run.Features)

		got, err := s.Document(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	}
}

func TestEmptyDocument(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.Add(ctx, serialize.Build(types.DefaultPartInfo(), nil), "empty.stp")
	require.NoError(t, err)

	got, err := s.Document(ctx, run.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Features)
	assert.Empty(t, got.Features)
}

func TestRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.Add(ctx, pinDocument(), "pin.stp")
	require.NoError(t, err)
	second, err := s.Add(ctx, coneDocument(), "nozzle.stp")
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[0].ID)
	assert.Equal(t, "pin.stp", runs[0].Source)
	assert.Equal(t, 3, runs[0].Features)
	assert.Equal(t, second.ID, runs[1].ID)
	assert.Equal(t, "Nozzle", runs[1].Part.Name)
}

func TestQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	pin, err := s.Add(ctx, pinDocument(), "pin.stp")
	require.NoError(t, err)
	_, err = s.Add(ctx, coneDocument(), "nozzle.stp")
	require.NoError(t, err)

	tests := []struct {
		name  string
		opts  QueryOptions
		codes []string
	}{
		{"all", QueryOptions{}, []string{"CYL", "PLN", "PLN", "CON", "SPH", "BSP"}},
		{"planes", QueryOptions{Types: []types.SurfaceType{types.SurfacePlane}}, []string{"PLN", "PLN"}},
		{"quadrics", QueryOptions{Types: []types.SurfaceType{types.SurfaceSphere, types.SurfaceCone}}, []string{"CON", "SPH"}},
		{"part", QueryOptions{PartID: "P002"}, []string{"CON", "SPH", "BSP"}},
		{"run", QueryOptions{RunID: pin.ID}, []string{"CYL", "PLN", "PLN"}},
		{"area range", QueryOptions{MinArea: 10, MaxArea: 100}, []string{"PLN", "PLN", "CON", "SPH"}},
		{"limit", QueryOptions{MaxResults: 2}, []string{"CYL", "PLN"}},
		{"no match", QueryOptions{Types: []types.SurfaceType{types.SurfaceTorus}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.Query(ctx, tt.opts)
			require.NoError(t, err)
			var codes []string
			for _, r := range results {
				codes = append(codes, r.Type.Code())
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}

func TestQueryPayloads(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Add(ctx, coneDocument(), "nozzle.stp")
	require.NoError(t, err)

	results, err := s.Query(ctx, QueryOptions{Types: []types.SurfaceType{types.SurfaceCone}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "P002", results[0].PartID)
	assert.Equal(t, types.ConeParams{Radius: 2, SemiAngle: -0.524}, results[0].Params)
}

func TestTypeCounts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Add(ctx, pinDocument(), "pin.stp")
	require.NoError(t, err)

	counts, err := s.TypeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"CYL": 1, "PLN": 2}, counts)
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	run, err := s.Add(ctx, pinDocument(), "pin.stp")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, run.ID))

	results, err := s.Query(ctx, QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.ErrorIs(t, s.Delete(ctx, run.ID), ErrNotFound)
	_, err = s.Document(ctx, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Add(ctx, pinDocument(), "pin.stp")
	require.NoError(t, err)
	_, err = s.Add(ctx, coneDocument(), "nozzle.stp")
	require.NoError(t, err)

	opts := QueryOptions{Types: []types.SurfaceType{types.SurfaceCylinder, types.SurfaceCone}}

	var jsonOut bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, &jsonOut, opts))
	var fromJSON []ExportEntry
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &fromJSON))

	var yamlOut bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &yamlOut, opts))
	assert.Contains(t, yamlOut.String(), "surface_type: CYL")
	var fromYAML []ExportEntry
	require.NoError(t, yaml.Unmarshal(yamlOut.Bytes(), &fromYAML))

	for _, entries := range [][]ExportEntry{fromJSON, fromYAML} {
		require.Len(t, entries, 2)

		cyl := entries[0]
		assert.Equal(t, "CYL", cyl.SurfaceType)
		assert.Equal(t, 314.159, cyl.Area)
		require.NotNil(t, cyl.Radius)
		assert.Equal(t, 5.0, *cyl.Radius)
		require.NotNil(t, cyl.Axis)
		assert.Equal(t, types.Vec3{0, 0, 1}, *cyl.Axis)
		assert.Nil(t, cyl.SemiAngle)

		cone := entries[1]
		assert.Equal(t, "P002", cone.PartID)
		require.NotNil(t, cone.SemiAngle)
		assert.Equal(t, -0.524, *cone.SemiAngle)
		assert.Nil(t, cone.Axis)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(types.CatalogConfig{})
	assert.Error(t, err)
}
