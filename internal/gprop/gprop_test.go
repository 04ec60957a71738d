// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gprop

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/step-features/internal/brep"
	"github.com/pdiddy/step-features/internal/geom"
)

var (
	xAxis = geom.Vec{X: 1}
	zAxis = geom.Vec{Z: 1}
)

func segment(id int, a, b geom.Vec) brep.Edge {
	d := b.Sub(a)
	return brep.Edge{ID: id, Curve: &geom.Line{Origin: a, Direction: d.Unit()}, T0: 0, T1: d.Norm()}
}

func polygon(pts ...geom.Vec) brep.Loop {
	var l brep.Loop
	for i := range pts {
		l.Edges = append(l.Edges, segment(i+1, pts[i], pts[(i+1)%len(pts)]))
	}
	return l
}

// circle is a full circle edge parallel to the XY plane, traversed
// counterclockwise unless cw is set.
func circle(id int, center geom.Vec, radius float64, cw bool) brep.Edge {
	c := &geom.Circle{Frame: geom.NewFrame(center, zAxis, xAxis), Radius: radius}
	if cw {
		return brep.Edge{ID: id, Curve: c, T0: 2 * math.Pi, T1: 0}
	}
	return brep.Edge{ID: id, Curve: c, T0: 0, T1: 2 * math.Pi}
}

func ring(e brep.Edge) brep.Loop { return brep.Loop{Edges: []brep.Edge{e}} }

func assertProps(t *testing.T, want Props, got Props) {
	t.Helper()
	tol := 1e-6 * math.Max(1, want.Area)
	assert.InDelta(t, want.Area, got.Area, tol, "area")
	assert.InDelta(t, want.Centroid.X, got.Centroid.X, 1e-6, "centroid x")
	assert.InDelta(t, want.Centroid.Y, got.Centroid.Y, 1e-6, "centroid y")
	assert.InDelta(t, want.Centroid.Z, got.Centroid.Z, 1e-6, "centroid z")
}

func TestSurfaceProperties(t *testing.T) {
	plane := &geom.Plane{Frame: geom.WorldFrame}
	rect := polygon(geom.Vec{}, geom.Vec{X: 4}, geom.Vec{X: 4, Y: 2}, geom.Vec{Y: 2})
	rectCW := polygon(geom.Vec{}, geom.Vec{Y: 2}, geom.Vec{X: 4, Y: 2}, geom.Vec{X: 4})

	cone := &geom.Cone{Frame: geom.WorldFrame, Radius: 1, SemiAngle: math.Pi / 6}
	apexCone := &geom.Cone{Frame: geom.WorldFrame, Radius: 2, SemiAngle: math.Pi / 4}

	meridian := func(id int, u float64, up bool) brep.Edge {
		dir := geom.Vec{X: math.Cos(u), Y: math.Sin(u)}
		c := &geom.Circle{Frame: geom.NewFrame(geom.Vec{}, dir.Cross(zAxis), dir), Radius: 1}
		if up {
			return brep.Edge{ID: id, Curve: c, T0: -math.Pi / 2, T1: math.Pi / 2}
		}
		return brep.Edge{ID: id, Curve: c, T0: math.Pi / 2, T1: -math.Pi / 2}
	}

	torus := &geom.Torus{Frame: geom.WorldFrame, MajorRadius: 5, MinorRadius: 1}

	tests := []struct {
		name string
		face brep.Face
		want Props
	}{
		{
			name: "plane rectangle",
			face: brep.Face{ID: 1, Surface: plane, SameSense: true, Bounds: []brep.Loop{rect}},
			want: Props{Area: 8, Centroid: geom.Vec{X: 2, Y: 1}},
		},
		{
			name: "plane rectangle reversed sense",
			face: brep.Face{ID: 2, Surface: plane, SameSense: false, Bounds: []brep.Loop{rectCW}},
			want: Props{Area: 8, Centroid: geom.Vec{X: 2, Y: 1}},
		},
		{
			name: "disc with offset hole",
			face: brep.Face{ID: 3, Surface: plane, SameSense: true, Bounds: []brep.Loop{
				ring(circle(1, geom.Vec{}, 3, false)),
				ring(circle(2, geom.Vec{X: 1}, 1, true)),
			}},
			want: Props{Area: 8 * math.Pi, Centroid: geom.Vec{X: -0.125}},
		},
		{
			name: "cylinder band",
			face: brep.Face{ID: 4, Surface: &geom.Cylinder{Frame: geom.WorldFrame, Radius: 2}, SameSense: true, Bounds: []brep.Loop{
				ring(circle(1, geom.Vec{}, 2, false)),
				ring(circle(2, geom.Vec{Z: 3}, 2, true)),
			}},
			want: Props{Area: 12 * math.Pi, Centroid: geom.Vec{Z: 1.5}},
		},
		{
			name: "upper hemisphere",
			face: brep.Face{ID: 5, Surface: &geom.Sphere{Frame: geom.WorldFrame, Radius: 2}, SameSense: true, Bounds: []brep.Loop{
				ring(circle(1, geom.Vec{}, 2, false)),
			}},
			want: Props{Area: 8 * math.Pi, Centroid: geom.Vec{Z: 1}},
		},
		{
			name: "lower hemisphere",
			face: brep.Face{ID: 6, Surface: &geom.Sphere{Frame: geom.WorldFrame, Radius: 2}, SameSense: true, Bounds: []brep.Loop{
				ring(circle(1, geom.Vec{}, 2, true)),
			}},
			want: Props{Area: 8 * math.Pi, Centroid: geom.Vec{Z: -1}},
		},
		{
			name: "full sphere",
			face: brep.Face{ID: 7, Surface: &geom.Sphere{
				Frame:  geom.NewFrame(geom.Vec{X: 1, Y: 2, Z: 3}, zAxis, xAxis),
				Radius: 1.5,
			}, SameSense: true},
			want: Props{Area: 9 * math.Pi, Centroid: geom.Vec{X: 1, Y: 2, Z: 3}},
		},
		{
			name: "sphere lune",
			face: brep.Face{ID: 8, Surface: &geom.Sphere{Frame: geom.WorldFrame, Radius: 1}, SameSense: true, Bounds: []brep.Loop{
				{Edges: []brep.Edge{meridian(1, math.Pi/2, true), meridian(2, 0, false)}},
			}},
			want: Props{Area: math.Pi, Centroid: geom.Vec{X: 0.5, Y: 0.5}},
		},
		{
			name: "cone frustum",
			face: brep.Face{ID: 9, Surface: cone, SameSense: true, Bounds: []brep.Loop{
				ring(circle(1, geom.Vec{}, 1, false)),
				ring(circle(2, geom.Vec{Z: math.Sqrt(3)}, 2, true)),
			}},
			want: Props{Area: 6 * math.Pi, Centroid: geom.Vec{Z: 5 * math.Sqrt(3) / 9}},
		},
		{
			name: "cone closed at apex",
			face: brep.Face{ID: 10, Surface: apexCone, SameSense: true, Bounds: []brep.Loop{
				ring(circle(1, geom.Vec{}, 2, true)),
			}},
			want: Props{Area: 4 * math.Sqrt2 * math.Pi, Centroid: geom.Vec{Z: -2.0 / 3}},
		},
		{
			name: "outer half of torus",
			face: brep.Face{ID: 11, Surface: torus, SameSense: true, Bounds: []brep.Loop{
				ring(circle(1, geom.Vec{Z: -1}, 5, false)),
				ring(circle(2, geom.Vec{Z: 1}, 5, true)),
			}},
			want: Props{Area: 2 * math.Pi * (5*math.Pi + 2)},
		},
		{
			name: "inner half of torus",
			face: brep.Face{ID: 12, Surface: torus, SameSense: true, Bounds: []brep.Loop{
				ring(circle(1, geom.Vec{Z: -1}, 5, true)),
				ring(circle(2, geom.Vec{Z: 1}, 5, false)),
			}},
			want: Props{Area: 2 * math.Pi * (5*math.Pi - 2)},
		},
		{
			name: "seam-only loop covers the whole sphere",
			face: brep.Face{ID: 13, Surface: &geom.Sphere{Frame: geom.WorldFrame, Radius: 1}, SameSense: true, Bounds: []brep.Loop{
				{Edges: []brep.Edge{meridian(7, 0, true), meridian(7, 0, false)}},
			}},
			want: Props{Area: 4 * math.Pi},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SurfaceProperties(&tt.face)
			require.NoError(t, err)
			assertProps(t, tt.want, got)
		})
	}
}

func TestSurfacePropertiesVertexLoop(t *testing.T) {
	apex := geom.Vec{Z: 1}
	f := &brep.Face{
		ID:        1,
		Surface:   &geom.Sphere{Frame: geom.WorldFrame, Radius: 1},
		SameSense: true,
		Bounds:    []brep.Loop{{Vertex: &apex}},
	}
	got, err := SurfaceProperties(f)
	require.NoError(t, err)
	assert.InDelta(t, 4*math.Pi, got.Area, 1e-9)
}

func TestSurfacePropertiesBSpline(t *testing.T) {
	// Bilinear patch spanning the rectangle [0,4] x [0,2].
	k := geom.BezierKnots(1)
	s, err := geom.NewBSplineSurface(geom.KindBSpline, k, k, [][]geom.Vec{
		{{}, {Y: 2}},
		{{X: 4}, {X: 4, Y: 2}},
	}, nil)
	require.NoError(t, err)

	f := &brep.Face{ID: 1, Surface: s, SameSense: true, Bounds: []brep.Loop{
		polygon(geom.Vec{}, geom.Vec{X: 4}, geom.Vec{X: 4, Y: 2}, geom.Vec{Y: 2}),
	}}
	got, err := SurfaceProperties(f)
	require.NoError(t, err)
	assertProps(t, Props{Area: 8, Centroid: geom.Vec{X: 2, Y: 1}}, got)

	// Without bounds the natural domain is the whole patch.
	f.Bounds = nil
	got, err = SurfaceProperties(f)
	require.NoError(t, err)
	assertProps(t, Props{Area: 8, Centroid: geom.Vec{X: 2, Y: 1}}, got)
}

func TestSurfacePropertiesErrors(t *testing.T) {
	faceErr := errors.New("bad face")
	plane := &geom.Plane{Frame: geom.WorldFrame}

	t.Run("face error", func(t *testing.T) {
		_, err := SurfaceProperties(&brep.Face{ID: 1, Surface: plane, Err: faceErr})
		assert.ErrorIs(t, err, faceErr)
	})
	t.Run("unsupported surface", func(t *testing.T) {
		_, err := SurfaceProperties(&brep.Face{ID: 2, Surface: &geom.Unsupported{Entity: "QUADRATIC_SURFACE"}})
		assert.ErrorContains(t, err, "face #2")
	})
	t.Run("unbounded plane", func(t *testing.T) {
		_, err := SurfaceProperties(&brep.Face{ID: 3, Surface: plane, SameSense: true})
		assert.ErrorIs(t, err, ErrUnbounded)
	})
	t.Run("open cylinder cap", func(t *testing.T) {
		_, err := SurfaceProperties(&brep.Face{
			ID:        4,
			Surface:   &geom.Cylinder{Frame: geom.WorldFrame, Radius: 1},
			SameSense: true,
			Bounds:    []brep.Loop{ring(circle(1, geom.Vec{}, 1, false))},
		})
		assert.ErrorIs(t, err, ErrUnbounded)
	})
}

func TestSplit(t *testing.T) {
	fwd := split(0, 3, []float64{1, 2, 2, 5}, 1)
	assert.Equal(t, []interval{{0, 1}, {1, 2}, {2, 3}}, fwd)

	back := split(3, 0, []float64{1}, 1)
	assert.Equal(t, []interval{{3, 1}, {1, 0}}, back)

	assert.Empty(t, split(1, 1, nil, 4))

	var sum float64
	for _, iv := range back {
		iv.nodes(func(x, w float64) { sum += w * x * x })
	}
	assert.InDelta(t, -9.0, sum, 1e-12)
}

func TestGaussRule(t *testing.T) {
	require.Len(t, gaussX, gaussOrder)
	require.Len(t, gaussW, gaussOrder)
	last := 0
	for i, x := range gaussX {
		if x > gaussX[last] {
			last = i
		}
	}
	assert.InDelta(t, 0.9602898564975363, gaussX[last], 1e-12)
	assert.InDelta(t, 0.1012285362903763, gaussW[last], 1e-12)

	// An n-point rule integrates polynomials up to degree 2n-1 exactly.
	for deg := 0; deg < 2*gaussOrder; deg++ {
		var sum float64
		for i, x := range gaussX {
			sum += gaussW[i] * math.Pow(x, float64(deg))
		}
		want := 0.0
		if deg%2 == 0 {
			want = 2 / float64(deg+1)
		}
		assert.InDelta(t, want, sum, 1e-12, "degree %d", deg)
	}
}

func TestSeamLoop(t *testing.T) {
	e := brep.Edge{ID: 4}
	assert.True(t, seamLoop([]brep.Edge{e, e.Reversed()}))
	assert.False(t, seamLoop([]brep.Edge{e, {ID: 5}}))
	assert.False(t, seamLoop([]brep.Edge{{}, {}}))
}
