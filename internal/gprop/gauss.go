// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gprop

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/pdiddy/step-features/internal/geom"
)

// gaussOrder is the number of Gauss-Legendre nodes per interval.
const gaussOrder = 8

// gaussX and gaussW hold the Gauss-Legendre rule on [-1, 1].
var gaussX, gaussW = legendreRule(gaussOrder)

func legendreRule(n int) (x, w []float64) {
	x, w = make([]float64, n), make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, -1, 1)
	return x, w
}

// interval is a signed integration range; b may be less than a.
type interval struct{ a, b float64 }

// nodes calls fn with each abscissa and its weight, scaled to the interval.
// Weights are negative when the interval runs backwards.
func (iv interval) nodes(fn func(t, w float64)) {
	mid, half := (iv.a+iv.b)/2, (iv.b-iv.a)/2
	for i, x := range gaussX {
		fn(mid+half*x, gaussW[i]*half)
	}
}

// split cuts [a, b] at every break strictly inside it and divides each
// piece into n equal parts. The result runs in the direction of a to b.
func split(a, b float64, breaks []float64, n int) []interval {
	if a == b {
		return nil
	}
	lo, hi := math.Min(a, b), math.Max(a, b)
	cuts := []float64{lo}
	sorted := append([]float64(nil), breaks...)
	sort.Float64s(sorted)
	for _, k := range sorted {
		if k > lo && k < hi && k > cuts[len(cuts)-1] {
			cuts = append(cuts, k)
		}
	}
	cuts = append(cuts, hi)

	var out []interval
	for i := 0; i+1 < len(cuts); i++ {
		step := (cuts[i+1] - cuts[i]) / float64(n)
		for j := 0; j < n; j++ {
			out = append(out, interval{cuts[i] + float64(j)*step, cuts[i] + float64(j+1)*step})
		}
	}
	if a > b {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		for i := range out {
			out[i] = interval{out[i].b, out[i].a}
		}
	}
	return out
}

// surfaceBreaks returns parameter values where the surface is only
// piecewise smooth.
func surfaceBreaks(s geom.Surface) (us, vs []float64) {
	switch ss := s.(type) {
	case *geom.BSplineSurface:
		return distinct(ss.UKnots.Values), distinct(ss.VKnots.Values)
	case *geom.Revolution:
		t0, t1 := ss.Curve.Domain()
		return nil, geom.Breaks(ss.Curve, t0, t1)
	case *geom.Extrusion:
		t0, t1 := ss.Curve.Domain()
		return geom.Breaks(ss.Curve, t0, t1), nil
	case *geom.Offset:
		return surfaceBreaks(ss.Basis)
	}
	return nil, nil
}

func distinct(v []float64) []float64 {
	var out []float64
	for i, x := range v {
		if i == 0 || x != v[i-1] {
			out = append(out, x)
		}
	}
	return out
}

// moments holds ∬[1, x, y, z] dA: the area and the first moments.
type moments [4]float64

func (m moments) add(o moments) moments {
	return moments{m[0] + o[0], m[1] + o[1], m[2] + o[2], m[3] + o[3]}
}

func (m moments) scale(k float64) moments {
	return moments{m[0] * k, m[1] * k, m[2] * k, m[3] * k}
}

// density returns the area element and moment densities at (u, v).
func density(s geom.Surface, u, v float64) moments {
	p, su, sv := s.Partials(u, v)
	j := su.Cross(sv).Norm()
	return moments{j, j * p.X, j * p.Y, j * p.Z}
}
