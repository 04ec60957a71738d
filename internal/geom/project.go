// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geom

import "math"

const (
	newtonIterations = 40
	newtonTolerance  = 1e-13
	// projectTolerance is the distance below which a continuation result
	// is accepted without a global search.
	projectTolerance = 1e-6
)

// sampleParams returns n+1 evenly spaced values over [t0, t1].
func sampleParams(t0, t1 float64, n int) []float64 {
	if math.IsInf(t0, 0) || math.IsInf(t1, 0) {
		t0, t1 = -1e3, 1e3
	}
	out := make([]float64, n+1)
	for i := range out {
		out[i] = t0 + (t1-t0)*float64(i)/float64(n)
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// newtonCurve refines t so that C(t) is the foot of p on the curve.
func newtonCurve(c Curve, p Vec, t, lo, hi float64) float64 {
	for range newtonIterations {
		d := c.Deriv(t)
		dd := d.Dot(d)
		if dd == 0 {
			break
		}
		step := -c.Eval(t).Sub(p).Dot(d) / dd
		next := clamp(t+step, lo, hi)
		if math.Abs(next-t) < newtonTolerance*math.Max(1, math.Abs(t)) {
			return next
		}
		t = next
	}
	return t
}

// projectOnCurve samples the curve, then refines the closest sample.
func projectOnCurve(c Curve, p Vec, t0, t1 float64, n int) float64 {
	n = max(n, 16)
	best, bestT := math.Inf(1), t0
	for _, t := range sampleParams(t0, t1, n) {
		if d := c.Eval(t).Dist(p); d < best {
			best, bestT = d, t
		}
	}
	return newtonCurve(c, p, bestT, t0, t1)
}

// newtonProject refines seed by Gauss-Newton on |S(u,v) - p|². Periodic
// directions are left free; the others are clamped to dom.
func newtonProject(s Surface, p Vec, seed UV, dom Domain) UV {
	up, vp := Periods(s)
	uv := seed
	for range newtonIterations {
		pt, su, sv := s.Partials(uv.U, uv.V)
		r := pt.Sub(p)
		a, b, c := su.Dot(su), su.Dot(sv), sv.Dot(sv)
		det := a*c - b*b
		if det <= 1e-300 {
			break
		}
		gu, gv := r.Dot(su), r.Dot(sv)
		du := -(c*gu - b*gv) / det
		dv := -(a*gv - b*gu) / det
		next := UV{uv.U + du, uv.V + dv}
		if up == 0 {
			next.U = clamp(next.U, dom.U0, dom.U1)
		}
		if vp == 0 {
			next.V = clamp(next.V, dom.V0, dom.V1)
		}
		done := math.Abs(next.U-uv.U) < newtonTolerance*math.Max(1, math.Abs(uv.U)) &&
			math.Abs(next.V-uv.V) < newtonTolerance*math.Max(1, math.Abs(uv.V))
		uv = next
		if done {
			break
		}
	}
	return uv
}

// projectOnSurface tries the hint first and falls back to an n×n grid
// search over dom when the hint does not land on p.
func projectOnSurface(s Surface, p Vec, hint *UV, dom Domain, n int) UV {
	scale := math.Max(1, p.Norm())
	if hint != nil {
		uv := newtonProject(s, p, *hint, dom)
		if s.Eval(uv.U, uv.V).Dist(p) < projectTolerance*scale {
			return uv
		}
	}
	n = max(n, 8)
	best, seed := math.Inf(1), UV{dom.U0, dom.V0}
	us := sampleParams(dom.U0, dom.U1, n)
	vs := sampleParams(dom.V0, dom.V1, n)
	for _, u := range us {
		for _, v := range vs {
			if d := s.Eval(u, v).Dist(p); d < best {
				best, seed = d, UV{u, v}
			}
		}
	}
	return newtonProject(s, p, seed, dom)
}
