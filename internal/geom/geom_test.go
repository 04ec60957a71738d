// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got Vec, tol float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x")
	assert.InDelta(t, want.Y, got.Y, tol, "y")
	assert.InDelta(t, want.Z, got.Z, tol, "z")
}

func TestNewFrameOrthonormal(t *testing.T) {
	tests := []struct {
		name      string
		axis, ref Vec
	}{
		{"default", Vec{0, 0, 1}, Vec{1, 0, 0}},
		{"skewed reference", Vec{0, 0, 2}, Vec{1, 1, 1}},
		{"reference parallel to axis", Vec{1, 0, 0}, Vec{3, 0, 0}},
		{"missing reference", Vec{0, 1, 1}, Vec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame(Vec{1, 2, 3}, tt.axis, tt.ref)
			assert.InDelta(t, 1, f.X.Norm(), eps)
			assert.InDelta(t, 1, f.Y.Norm(), eps)
			assert.InDelta(t, 1, f.Z.Norm(), eps)
			assert.InDelta(t, 0, f.X.Dot(f.Z), eps)
			assert.InDelta(t, 0, f.X.Dot(f.Y), eps)
			assertVec(t, f.Z, f.X.Cross(f.Y), eps)
		})
	}
}

// numericPartials checks analytic derivatives against central differences.
func numericPartials(t *testing.T, s Surface, u, v float64) {
	t.Helper()
	const h = 1e-6
	_, su, sv := s.Partials(u, v)
	nu := s.Eval(u+h, v).Sub(s.Eval(u-h, v)).Scale(1 / (2 * h))
	nv := s.Eval(u, v+h).Sub(s.Eval(u, v-h)).Scale(1 / (2 * h))
	assertVec(t, nu, su, 1e-5)
	assertVec(t, nv, sv, 1e-5)
}

func TestVecOps(t *testing.T) {
	a, b := Vec{1, 2, 2}, Vec{0, 0, 1}
	assertVec(t, Vec{1, 2, 3}, a.Add(b), eps)
	assertVec(t, Vec{1, 2, 1}, a.Sub(b), eps)
	assertVec(t, Vec{2, 4, 4}, a.Scale(2), eps)
	assertVec(t, Vec{2, -1, 0}, a.Cross(b), eps)
	assert.InDelta(t, 2, a.Dot(b), eps)
	assert.InDelta(t, 3, a.Norm(), eps)
	assert.InDelta(t, math.Sqrt(5), a.Dist(b), eps)

	tests := []struct {
		name string
		in   Vec
		want Vec
	}{
		{"axis", Vec{0, 0, 4}, Vec{0, 0, 1}},
		{"diagonal", Vec{1, 2, 2}, Vec{1.0 / 3, 2.0 / 3, 2.0 / 3}},
		{"zero", Vec{}, Vec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertVec(t, tt.want, tt.in.Unit(), eps)
		})
	}
}

func TestSurfacePartials(t *testing.T) {
	frame := NewFrame(Vec{1, -2, 0.5}, Vec{0.2, 0.3, 1}, Vec{1, 0, 0})
	arc := &Circle{Frame: NewFrame(Vec{5, 0, 0}, Vec{0, 1, 0}, Vec{1, 0, 0}), Radius: 1}
	surfaces := map[string]Surface{
		"plane":      &Plane{Frame: frame},
		"cylinder":   &Cylinder{Frame: frame, Radius: 2},
		"cone":       &Cone{Frame: frame, Radius: 2, SemiAngle: 0.3},
		"sphere":     &Sphere{Frame: frame, Radius: 3},
		"torus":      &Torus{Frame: frame, MajorRadius: 5, MinorRadius: 1},
		"extrusion":  &Extrusion{Curve: arc, Direction: Vec{0, 0, 1}},
		"revolution": &Revolution{Curve: arc, Axis: WorldFrame},
		"offset":     &Offset{Basis: &Sphere{Frame: frame, Radius: 3}, Distance: 0.5},
	}
	for name, s := range surfaces {
		t.Run(name, func(t *testing.T) {
			numericPartials(t, s, 0.7, 0.4)
		})
	}
}

func TestElementaryProjectRoundTrip(t *testing.T) {
	frame := NewFrame(Vec{0, 0, 0}, Vec{0, 0, 1}, Vec{1, 0, 0})
	tests := []struct {
		name string
		s    Surface
		uv   UV
	}{
		{"plane", &Plane{Frame: frame}, UV{3, -4}},
		{"cylinder", &Cylinder{Frame: frame, Radius: 2}, UV{1.2, 7}},
		{"cone", &Cone{Frame: frame, Radius: 2, SemiAngle: 0.4}, UV{4, 1.5}},
		{"sphere", &Sphere{Frame: frame, Radius: 3}, UV{5.5, -0.7}},
		{"torus", &Torus{Frame: frame, MajorRadius: 5, MinorRadius: 1}, UV{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.s.Project(tt.s.Eval(tt.uv.U, tt.uv.V), nil)
			assert.InDelta(t, tt.uv.U, got.U, 1e-9)
			assert.InDelta(t, tt.uv.V, got.V, 1e-9)
		})
	}
}

func TestRationalQuarterCircle(t *testing.T) {
	w := math.Sqrt2 / 2
	c, err := NewBSplineCurve(BezierKnots(2), []Vec{{1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, []float64{1, w, 1})
	require.NoError(t, err)

	for _, tt := range []float64{0, 0.25, 0.5, 0.75, 1} {
		p := c.Eval(tt)
		assert.InDelta(t, 1, p.Norm(), 1e-12, "t=%v", tt)
	}
	assertVec(t, Vec{1, 0, 0}, c.Eval(0), eps)
	assertVec(t, Vec{0, 1, 0}, c.Eval(1), eps)

	// Tangent is perpendicular to the radius everywhere on a circle.
	for _, tt := range []float64{0.1, 0.5, 0.9} {
		assert.InDelta(t, 0, c.Eval(tt).Dot(c.Deriv(tt)), 1e-9)
	}

	mid := c.Eval(0.5)
	assert.InDelta(t, 0.5, c.Project(mid), 1e-9)
}

func TestBSplineCurveKnots(t *testing.T) {
	k, err := ExpandKnots(1, []int{2, 1, 2}, []float64{0, 1, 2})
	require.NoError(t, err)
	c, err := NewBSplineCurve(k, []Vec{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}, nil)
	require.NoError(t, err)

	assertVec(t, Vec{0.5, 0, 0}, c.Eval(0.5), eps)
	assertVec(t, Vec{1, 0.5, 0}, c.Eval(1.5), eps)
	assert.Equal(t, []float64{1}, Breaks(c, 0, 2))

	_, err = NewBSplineCurve(k, []Vec{{0, 0, 0}}, nil)
	assert.Error(t, err)
	_, err = ExpandKnots(2, []int{3}, []float64{0, 1})
	assert.Error(t, err)
	_, err = ExpandKnots(1, []int{2, 2}, []float64{1, 0})
	assert.Error(t, err)
}

func TestBSplineSurfaceBilinear(t *testing.T) {
	poles := [][]Vec{
		{{0, 0, 0}, {0, 2, 0}},
		{{4, 0, 0}, {4, 2, 1}},
	}
	s, err := NewBSplineSurface(KindBSpline, BezierKnots(1), BezierKnots(1), poles, nil)
	require.NoError(t, err)

	assertVec(t, Vec{2, 1, 0.25}, s.Eval(0.5, 0.5), eps)
	numericPartials(t, s, 0.3, 0.6)

	got := s.Project(s.Eval(0.2, 0.9), nil)
	assert.InDelta(t, 0.2, got.U, 1e-9)
	assert.InDelta(t, 0.9, got.V, 1e-9)

	d := s.Domain()
	assert.True(t, d.Bounded())
	assert.Equal(t, Domain{0, 1, 0, 1}, d)
}

func TestCurveProjection(t *testing.T) {
	frame := NewFrame(Vec{1, 1, 1}, Vec{0, 0, 1}, Vec{1, 0, 0})
	curves := map[string]struct {
		c Curve
		t float64
	}{
		"line":      {&Line{Origin: Vec{1, 2, 3}, Direction: Vec{0, 1, 0}}, 4.5},
		"circle":    {&Circle{Frame: frame, Radius: 2}, 5},
		"ellipse":   {&Ellipse{Frame: frame, SemiAxis1: 3, SemiAxis2: 1}, 2.2},
		"parabola":  {&Parabola{Frame: frame, FocalLength: 0.5}, -1.3},
		"hyperbola": {&Hyperbola{Frame: frame, SemiAxis: 2, SemiImag: 1}, 0.8},
		"polyline":  {&Polyline{Points: []Vec{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}}, 1.25},
	}
	for name, tc := range curves {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.t, tc.c.Project(tc.c.Eval(tc.t)), 1e-9)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "cylinder", KindCylinder.String())
	assert.Equal(t, "undefined", Kind(99).String())
	assert.Equal(t, KindUndefined, (&Unsupported{Entity: "FOO"}).Kind())
}
