// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/step-features/internal/brep"
	"github.com/pdiddy/step-features/internal/geom"
	"github.com/pdiddy/step-features/pkg/types"
)

// --- fixtures ---

func circleEdge(id int, z, radius float64, cw bool) brep.Edge {
	c := &geom.Circle{Frame: geom.NewFrame(geom.Vec{Z: z}, geom.Vec{Z: 1}, geom.Vec{X: 1}), Radius: radius}
	if cw {
		return brep.Edge{ID: id, Curve: c, T0: 2 * math.Pi, T1: 0}
	}
	return brep.Edge{ID: id, Curve: c, T0: 0, T1: 2 * math.Pi}
}

func band(id int, s geom.Surface, z0, r0, z1, r1 float64) *brep.Face {
	return &brep.Face{ID: id, Surface: s, SameSense: true, Bounds: []brep.Loop{
		{Edges: []brep.Edge{circleEdge(1, z0, r0, false)}},
		{Edges: []brep.Edge{circleEdge(2, z1, r1, true)}},
	}}
}

func unitSphere(id int) *brep.Face {
	return &brep.Face{ID: id, Surface: &geom.Sphere{Frame: geom.WorldFrame, Radius: 1}, SameSense: true}
}

func brokenFace(id int) *brep.Face {
	return &brep.Face{ID: id, Surface: &geom.Unsupported{Entity: "QUADRATIC_SURFACE"}, Err: errors.New("unsupported surface")}
}

func shapeOf(faces ...*brep.Face) *brep.Shape {
	return &brep.Shape{
		Units:  brep.DefaultUnits,
		Bodies: []brep.Body{{ID: 1, Type: "MANIFOLD_SOLID_BREP", Shells: []brep.Shell{{ID: 2, Faces: faces}}}},
	}
}

// --- Classify ---

func TestClassify(t *testing.T) {
	tests := []struct {
		kind geom.Kind
		want string
	}{
		{geom.KindPlane, "PLN"},
		{geom.KindCylinder, "CYL"},
		{geom.KindSphere, "SPH"},
		{geom.KindCone, "CON"},
		{geom.KindTorus, "TOR"},
		{geom.KindBezier, "BEZ"},
		{geom.KindBSpline, "BSP"},
		{geom.KindRevolution, "REV"},
		{geom.KindExtrusion, "EXT"},
		{geom.KindOffset, "OFS"},
		{geom.KindOther, "OTH"},
		{geom.KindUndefined, "UNK"},
		{geom.Kind(99), "UNK"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.kind).Code(), "kind %d", tt.kind)
	}
}

// --- Round ---

func TestRound(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{12.566370614359172, 12.566},
		{0.0625, 0.062},
		{2.0005, 2.001},
		{1.0005, 1.0},
		{-1e-17, 0},
		{-3.14159, -3.142},
		{78.53981633974483, 78.54},
		{1e20, 1e20},
	}
	for _, tt := range tests {
		got := Round(tt.in)
		assert.Equal(t, tt.want, got, "Round(%v)", tt.in)
		assert.False(t, math.Signbit(got) && got == 0, "negative zero for %v", tt.in)
	}
}

// --- Features ---

func TestFeatures(t *testing.T) {
	cone := &geom.Cone{Frame: geom.WorldFrame, Radius: 1, SemiAngle: math.Pi / 6}
	shape := shapeOf(
		unitSphere(10),
		band(11, &geom.Cylinder{Frame: geom.WorldFrame, Radius: 2}, 0, 2, 3, 2),
		band(12, cone, 0, 1, math.Sqrt(3), 2),
		&brep.Face{ID: 13, Surface: &geom.Torus{Frame: geom.WorldFrame, MajorRadius: 5, MinorRadius: 1}, SameSense: true},
	)

	fts, summary, err := Features(context.Background(), shape, types.ExtractionConfig{}, nil)
	require.NoError(t, err)
	require.Len(t, fts, 4)
	assert.Equal(t, Summary{Faces: 4, Extracted: 4}, summary)

	for i, ft := range fts {
		assert.Equal(t, i+1, ft.ID)
	}

	sph := fts[0]
	assert.Equal(t, types.SurfaceSphere, sph.Type)
	assert.Equal(t, 12.566, sph.Area)
	assert.Equal(t, types.Vec3{0, 0, 0}, sph.CenterOfMass)
	assert.Equal(t, types.SphereParams{Radius: 1}, sph.Params)

	cyl := fts[1]
	assert.Equal(t, types.SurfaceCylinder, cyl.Type)
	assert.Equal(t, 37.699, cyl.Area)
	assert.Equal(t, types.Vec3{0, 0, 1.5}, cyl.CenterOfMass)
	assert.Equal(t, types.CylinderParams{Radius: 2, Axis: types.Vec3{0, 0, 1}}, cyl.Params)

	con := fts[2]
	assert.Equal(t, types.SurfaceCone, con.Type)
	assert.Equal(t, 18.85, con.Area)
	assert.Equal(t, types.ConeParams{Radius: 1, SemiAngle: 0.524}, con.Params)
	r, ok := con.Radius()
	assert.True(t, ok)
	assert.Equal(t, 1.0, r)

	tor := fts[3]
	assert.Equal(t, types.SurfaceTorus, tor.Type)
	assert.Equal(t, 197.392, tor.Area)
	assert.Nil(t, tor.Params)
}

func TestFeaturesEmptyShape(t *testing.T) {
	fts, summary, err := Features(context.Background(), &brep.Shape{Units: brep.DefaultUnits}, types.ExtractionConfig{}, nil)
	require.NoError(t, err)
	assert.Empty(t, fts)
	assert.NotNil(t, fts)
	assert.Equal(t, 0, summary.Faces)
}

func TestFeaturesAbortOnFaceError(t *testing.T) {
	shape := shapeOf(unitSphere(10), brokenFace(11), unitSphere(12))

	fts, _, err := Features(context.Background(), shape, types.ExtractionConfig{OnFaceError: types.FaceErrorAbort}, nil)
	require.Error(t, err)
	assert.Nil(t, fts)

	var gerr *GeometryError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 2, gerr.FaceIndex)
	assert.Equal(t, 11, gerr.EntityID)
	assert.Contains(t, err.Error(), "unsupported surface")
}

func TestFeaturesSkipOnFaceError(t *testing.T) {
	shape := shapeOf(unitSphere(10), brokenFace(11), unitSphere(12))

	fts, summary, err := Features(context.Background(), shape, types.ExtractionConfig{OnFaceError: types.FaceErrorSkip}, nil)
	require.NoError(t, err)
	require.Len(t, fts, 2)
	assert.Equal(t, 1, fts[0].ID)
	assert.Equal(t, 2, fts[1].ID)
	assert.Equal(t, Summary{Faces: 3, Extracted: 2, Skipped: 1}, summary)
	assert.True(t, summary.HasSkipped())
}

func TestFeaturesUnsupportedSurface(t *testing.T) {
	quadric := &brep.Face{ID: 11, Surface: &geom.Unsupported{Entity: "QUADRATIC_SURFACE"}, SameSense: true}

	_, _, err := Features(context.Background(), shapeOf(unitSphere(10), quadric), types.ExtractionConfig{OnFaceError: types.FaceErrorAbort}, nil)
	var gerr *GeometryError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 11, gerr.EntityID)

	fts, summary, err := Features(context.Background(), shapeOf(unitSphere(10), quadric), types.ExtractionConfig{OnFaceError: types.FaceErrorSkip}, nil)
	require.NoError(t, err)
	require.Len(t, fts, 1)
	assert.Equal(t, types.SurfaceSphere, fts[0].Type)
	assert.Equal(t, Summary{Faces: 2, Extracted: 1, Skipped: 1}, summary)
}

func TestFeaturesInvalidPolicy(t *testing.T) {
	_, _, err := Features(context.Background(), shapeOf(), types.ExtractionConfig{OnFaceError: "retry"}, nil)
	assert.ErrorContains(t, err, "retry")
}

func TestFeaturesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fts, _, err := Features(ctx, shapeOf(unitSphere(10)), types.ExtractionConfig{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, fts)
}

func TestFeaturesIdempotent(t *testing.T) {
	shape := shapeOf(unitSphere(10), band(11, &geom.Cylinder{Frame: geom.WorldFrame, Radius: 2}, 0, 2, 3, 2))

	first, _, err := Features(context.Background(), shape, types.ExtractionConfig{}, nil)
	require.NoError(t, err)
	second, _, err := Features(context.Background(), shape, types.ExtractionConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
