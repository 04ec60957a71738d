// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geom

import (
	"fmt"
	"sort"
)

// Knots is a non-decreasing knot vector for a B-spline of a given degree.
type Knots struct {
	Degree int
	Values []float64
}

// ExpandKnots builds a flat knot vector from distinct values and their
// multiplicities, the form used by STEP B-spline entities.
func ExpandKnots(degree int, mults []int, values []float64) (Knots, error) {
	if len(mults) != len(values) {
		return Knots{}, fmt.Errorf("%d knot multiplicities for %d knots", len(mults), len(values))
	}
	if degree < 1 {
		return Knots{}, fmt.Errorf("degree %d", degree)
	}
	var flat []float64
	for i, m := range mults {
		if m < 1 {
			return Knots{}, fmt.Errorf("knot %d has multiplicity %d", i, m)
		}
		for j := 0; j < m; j++ {
			flat = append(flat, values[i])
		}
	}
	if !sort.Float64sAreSorted(flat) {
		return Knots{}, fmt.Errorf("knot vector is decreasing")
	}
	return Knots{Degree: degree, Values: flat}, nil
}

// BezierKnots returns the clamped knot vector [0..0, 1..1] of a Bézier
// segment with the given degree.
func BezierKnots(degree int) Knots {
	v := make([]float64, 2*(degree+1))
	for i := degree + 1; i < len(v); i++ {
		v[i] = 1
	}
	return Knots{Degree: degree, Values: v}
}

// PoleCount returns the number of control points the knot vector supports.
func (k Knots) PoleCount() int { return len(k.Values) - k.Degree - 1 }

// Range returns the parameter interval on which the spline is defined.
func (k Knots) Range() (float64, float64) {
	return k.Values[k.Degree], k.Values[k.PoleCount()]
}

func (k Knots) clamp(t float64) float64 {
	lo, hi := k.Range()
	if t < lo {
		return lo
	}
	if t > hi {
		return hi
	}
	return t
}

// span returns the index i with Values[i] <= t < Values[i+1], restricted to
// [Degree, PoleCount-1].
func (k Knots) span(t float64) int {
	n := k.PoleCount() - 1
	p := k.Degree
	if t >= k.Values[n+1] {
		return n
	}
	if t <= k.Values[p] {
		return p
	}
	lo, hi := p, n+1
	mid := (lo + hi) / 2
	for t < k.Values[mid] || t >= k.Values[mid+1] {
		if t < k.Values[mid] {
			hi = mid
		} else {
			lo = mid
		}
		mid = (lo + hi) / 2
	}
	return mid
}

// basis returns the span index and the non-zero basis functions N and
// their first derivatives dN at t.
func (k Knots) basis(t float64) (int, []float64, []float64) {
	p := k.Degree
	t = k.clamp(t)
	s := k.span(t)
	U := k.Values

	// ndu holds the triangular table of Piegl & Tiller, algorithm A2.3.
	ndu := make([][]float64, p+1)
	for i := range ndu {
		ndu[i] = make([]float64, p+1)
	}
	left := make([]float64, p+1)
	right := make([]float64, p+1)
	ndu[0][0] = 1
	for j := 1; j <= p; j++ {
		left[j] = t - U[s+1-j]
		right[j] = U[s+j] - t
		saved := 0.0
		for r := 0; r < j; r++ {
			ndu[j][r] = right[r+1] + left[j-r]
			var temp float64
			if ndu[j][r] != 0 {
				temp = ndu[r][j-1] / ndu[j][r]
			}
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}

	N := make([]float64, p+1)
	dN := make([]float64, p+1)
	for j := 0; j <= p; j++ {
		N[j] = ndu[j][p]
	}
	for r := 0; r <= p; r++ {
		var d float64
		if r >= 1 && ndu[p][r-1] != 0 {
			d += ndu[r-1][p-1] / ndu[p][r-1]
		}
		if r <= p-1 && ndu[p][r] != 0 {
			d -= ndu[r][p-1] / ndu[p][r]
		}
		dN[r] = float64(p) * d
	}
	return s, N, dN
}

// BSplineCurve is a (possibly rational) B-spline curve.
type BSplineCurve struct {
	Knots   Knots
	Poles   []Vec
	Weights []float64 // nil for non-rational curves
}

// NewBSplineCurve validates the pole count against the knot vector.
func NewBSplineCurve(knots Knots, poles []Vec, weights []float64) (*BSplineCurve, error) {
	if len(poles) != knots.PoleCount() {
		return nil, fmt.Errorf("b-spline curve has %d poles, knot vector expects %d", len(poles), knots.PoleCount())
	}
	if weights != nil && len(weights) != len(poles) {
		return nil, fmt.Errorf("b-spline curve has %d weights for %d poles", len(weights), len(poles))
	}
	return &BSplineCurve{Knots: knots, Poles: poles, Weights: weights}, nil
}

func (c *BSplineCurve) weight(i int) float64 {
	if c.Weights == nil {
		return 1
	}
	return c.Weights[i]
}

// eval returns the point and first derivative at t.
func (c *BSplineCurve) eval(t float64) (Vec, Vec) {
	s, N, dN := c.Knots.basis(t)
	p := c.Knots.Degree
	var A, dA Vec
	var W, dW float64
	for j := 0; j <= p; j++ {
		i := s - p + j
		w := c.weight(i)
		A = A.Add(c.Poles[i].Scale(N[j] * w))
		dA = dA.Add(c.Poles[i].Scale(dN[j] * w))
		W += N[j] * w
		dW += dN[j] * w
	}
	pt := A.Scale(1 / W)
	return pt, dA.Sub(pt.Scale(dW)).Scale(1 / W)
}

func (c *BSplineCurve) Eval(t float64) Vec {
	p, _ := c.eval(t)
	return p
}

func (c *BSplineCurve) Deriv(t float64) Vec {
	_, d := c.eval(t)
	return d
}

func (c *BSplineCurve) Domain() (float64, float64) { return c.Knots.Range() }
func (c *BSplineCurve) Period() float64            { return 0 }

func (c *BSplineCurve) Project(p Vec) float64 {
	t0, t1 := c.Domain()
	return projectOnCurve(c, p, t0, t1, 8*len(c.Poles))
}

// BSplineSurface is a (possibly rational) tensor-product B-spline surface.
// Poles[i][j] is indexed by u then v.
type BSplineSurface struct {
	UKnots, VKnots Knots
	Poles          [][]Vec
	Weights        [][]float64 // nil for non-rational surfaces
	kind           Kind
}

// NewBSplineSurface validates pole and weight grids. kind is KindBSpline or
// KindBezier.
func NewBSplineSurface(kind Kind, uk, vk Knots, poles [][]Vec, weights [][]float64) (*BSplineSurface, error) {
	if len(poles) != uk.PoleCount() {
		return nil, fmt.Errorf("b-spline surface has %d pole rows, u knots expect %d", len(poles), uk.PoleCount())
	}
	for i, row := range poles {
		if len(row) != vk.PoleCount() {
			return nil, fmt.Errorf("b-spline surface row %d has %d poles, v knots expect %d", i, len(row), vk.PoleCount())
		}
		if weights != nil && (len(weights) != len(poles) || len(weights[i]) != len(row)) {
			return nil, fmt.Errorf("b-spline surface weight grid does not match poles")
		}
	}
	return &BSplineSurface{UKnots: uk, VKnots: vk, Poles: poles, Weights: weights, kind: kind}, nil
}

func (s *BSplineSurface) Kind() Kind { return s.kind }

func (s *BSplineSurface) weight(i, j int) float64 {
	if s.Weights == nil {
		return 1
	}
	return s.Weights[i][j]
}

func (s *BSplineSurface) Partials(u, v float64) (Vec, Vec, Vec) {
	su, Nu, dNu := s.UKnots.basis(u)
	sv, Nv, dNv := s.VKnots.basis(v)
	p, q := s.UKnots.Degree, s.VKnots.Degree

	var A, Au, Av Vec
	var W, Wu, Wv float64
	for a := 0; a <= p; a++ {
		i := su - p + a
		for b := 0; b <= q; b++ {
			j := sv - q + b
			w := s.weight(i, j)
			P := s.Poles[i][j]
			A = A.Add(P.Scale(Nu[a] * Nv[b] * w))
			Au = Au.Add(P.Scale(dNu[a] * Nv[b] * w))
			Av = Av.Add(P.Scale(Nu[a] * dNv[b] * w))
			W += Nu[a] * Nv[b] * w
			Wu += dNu[a] * Nv[b] * w
			Wv += Nu[a] * dNv[b] * w
		}
	}
	pt := A.Scale(1 / W)
	du := Au.Sub(pt.Scale(Wu)).Scale(1 / W)
	dv := Av.Sub(pt.Scale(Wv)).Scale(1 / W)
	return pt, du, dv
}

func (s *BSplineSurface) Eval(u, v float64) Vec {
	p, _, _ := s.Partials(u, v)
	return p
}

func (s *BSplineSurface) Domain() Domain {
	u0, u1 := s.UKnots.Range()
	v0, v1 := s.VKnots.Range()
	return Domain{U0: u0, U1: u1, V0: v0, V1: v1}
}

func (s *BSplineSurface) Project(p Vec, hint *UV) UV {
	n := 4 * max(len(s.Poles), len(s.Poles[0]))
	return projectOnSurface(s, p, hint, s.Domain(), n)
}
