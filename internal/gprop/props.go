// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gprop computes surface mass properties (area and centroid) of
// B-rep faces.
//
// A face is a region D of its surface's parameter plane. With
// g(u,v) = |Su×Sv|·[1, S(u,v)] and H(u,v) = ∫ g(u,t) dt taken from a fixed
// v*, Green's theorem turns the area integral into a boundary integral,
//
//	∬_D g du dv = -∮_∂D H du,
//
// evaluated by Gauss-Legendre quadrature along each edge mapped into the
// parameter plane. Loops that wind around a periodic direction are closed
// along the degenerate boundary (a pole or apex) the face contains. Faces
// without edge loops cover the surface's whole natural domain.
package gprop

import (
	"errors"
	"fmt"
	"math"

	"github.com/pdiddy/step-features/internal/brep"
	"github.com/pdiddy/step-features/internal/geom"
)

// Props are the mass properties of a face of unit surface density.
type Props struct {
	Area     float64
	Centroid geom.Vec
}

var (
	// ErrUnbounded is returned for a face whose region extends to infinity
	// in parameter space.
	ErrUnbounded = errors.New("face region is unbounded")

	// ErrDoublyWound is returned for loops that wind around both periodic
	// directions of a surface.
	ErrDoublyWound = errors.New("boundary winds around both parameter directions")
)

// SurfaceProperties integrates the area and centroid of f.
func SurfaceProperties(f *brep.Face) (Props, error) {
	if f.Err != nil {
		return Props{}, f.Err
	}
	if f.Surface == nil || f.Surface.Kind() == geom.KindUndefined {
		return Props{}, fmt.Errorf("face #%d: surface cannot be evaluated", f.ID)
	}
	m, err := integrateFace(f)
	if err != nil {
		return Props{}, fmt.Errorf("face #%d: %w", f.ID, err)
	}
	for _, x := range m {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Props{}, fmt.Errorf("face #%d: integration diverged", f.ID)
		}
	}
	return fromMoments(m), nil
}

func fromMoments(m moments) Props {
	if m[0] == 0 {
		return Props{}
	}
	return Props{
		Area:     math.Abs(m[0]),
		Centroid: geom.Vec{X: m[1] / m[0], Y: m[2] / m[0], Z: m[3] / m[0]},
	}
}

func integrateFace(f *brep.Face) (moments, error) {
	s := f.Surface
	tr := newTracer(s)
	var traces []trace
	for _, l := range f.Bounds {
		if len(l.Edges) == 0 || seamLoop(l.Edges) {
			continue
		}
		edges := l.Edges
		if !f.SameSense {
			edges = reversed(edges)
		}
		traces = append(traces, tr.loop(edges))
	}
	if len(traces) == 0 {
		return naturalDomain(s)
	}

	var woundU, woundV bool
	for _, t := range traces {
		woundU = woundU || t.windU != 0
		woundV = woundV || t.windV != 0
	}
	if woundU && woundV {
		return moments{}, ErrDoublyWound
	}
	in := newIntegrator(s, woundV, traces)
	return in.run(traces)
}

// naturalDomain integrates over the full parameter domain.
func naturalDomain(s geom.Surface) (moments, error) {
	d := s.Domain()
	if !d.Bounded() {
		return moments{}, ErrUnbounded
	}
	ub, vb := surfaceBreaks(s)
	var m moments
	for _, iu := range split(d.U0, d.U1, ub, 8) {
		iu.nodes(func(u, wu float64) {
			for _, iv := range split(d.V0, d.V1, vb, 8) {
				iv.nodes(func(v, wv float64) {
					m = m.add(density(s, u, v).scale(wu * wv))
				})
			}
		})
	}
	return m, nil
}

// integrator evaluates the boundary integral with a the coordinate loops
// advance along (u normally) and b the coordinate integrated inside H.
// When loops wind in v instead of u the roles swap; Green's theorem then
// reads ∬ g = +∮ K dv with K integrated over u.
type integrator struct {
	s       geom.Surface
	swapped bool
	sign    float64
	pa, pb  float64
	bStar   float64
	bBreaks []float64
	dom     geom.Domain
}

func newIntegrator(s geom.Surface, swapped bool, traces []trace) *integrator {
	pu, pv := geom.Periods(s)
	ub, vb := surfaceBreaks(s)
	in := &integrator{s: s, swapped: swapped, sign: -1, pa: pu, pb: pv, bBreaks: vb, dom: s.Domain()}
	if swapped {
		in.sign, in.pa, in.pb, in.bBreaks = 1, pv, pu, ub
	}
	first := traces[0].samples
	if len(first) > 0 {
		in.bStar = in.b(first[0].uv)
	}
	return in
}

func (in *integrator) a(uv geom.UV) float64 {
	if in.swapped {
		return uv.V
	}
	return uv.U
}

func (in *integrator) b(uv geom.UV) float64 {
	if in.swapped {
		return uv.U
	}
	return uv.V
}

func (in *integrator) da(smp sample) float64 {
	if in.swapped {
		return smp.dv
	}
	return smp.du
}

func (in *integrator) wind(t trace) int {
	if in.swapped {
		return t.windV
	}
	return t.windU
}

func (in *integrator) lo(t trace) float64 { return in.b(t.lo) }
func (in *integrator) hi(t trace) float64 { return in.b(t.hi) }

func (in *integrator) density(a, b float64) moments {
	if in.swapped {
		return density(in.s, b, a)
	}
	return density(in.s, a, b)
}

// inner returns H(a, b), the integral of g over [b*, b] at fixed a.
func (in *integrator) inner(a, b float64) moments {
	var m moments
	for _, iv := range split(in.bStar, b, in.bBreaks, 2) {
		iv.nodes(func(t, w float64) {
			m = m.add(in.density(a, t).scale(w))
		})
	}
	return m
}

func (in *integrator) loop(t trace) moments {
	var m moments
	for _, smp := range t.samples {
		if da := in.da(smp); da != 0 {
			m = m.add(in.inner(in.a(smp.uv), in.b(smp.uv)).scale(in.sign * da))
		}
	}
	return m
}

func (in *integrator) run(traces []trace) (moments, error) {
	var total moments
	contrib := make([]moments, len(traces))
	net := 0
	for i, t := range traces {
		contrib[i] = in.loop(t)
		total = total.add(contrib[i])
		net += in.wind(t)
	}

	if net != 0 {
		if in.pb > 0 {
			return moments{}, ErrDoublyWound
		}
		closure, err := in.closure(traces, net)
		if err != nil {
			return moments{}, err
		}
		return total.add(closure), nil
	}

	wound := false
	for _, t := range traces {
		wound = wound || in.wind(t) != 0
	}
	if in.pb > 0 && wound {
		return in.chooseCut(traces, total)
	}
	return total, nil
}

// closure integrates along the degenerate boundary that closes loops with
// net winding: above them for positive winding in u, below otherwise.
func (in *integrator) closure(traces []trace, net int) (moments, error) {
	top := (net > 0) != in.swapped
	from := math.Inf(-1)
	if !top {
		from = math.Inf(1)
	}
	var aRef float64
	for _, t := range traces {
		if top {
			from = math.Max(from, in.hi(t))
		} else {
			from = math.Min(from, in.lo(t))
		}
		if len(t.samples) > 0 {
			aRef = in.a(t.samples[0].uv)
		}
	}
	level, err := in.degenerateLevel(aRef, from, top)
	if err != nil {
		return moments{}, err
	}
	var m moments
	for _, iv := range split(0, -float64(net)*in.pa, nil, 16) {
		iv.nodes(func(a, w float64) {
			m = m.add(in.inner(a, level).scale(in.sign * w))
		})
	}
	return m, nil
}

// degenerateLevel finds the first b beyond from where ∂S/∂a vanishes,
// falling back to the domain bound.
func (in *integrator) degenerateLevel(a, from float64, up bool) (float64, error) {
	end := in.dom.V0
	switch {
	case in.swapped && up:
		end = in.dom.U1
	case in.swapped:
		end = in.dom.U0
	case up:
		end = in.dom.V1
	}
	if math.IsInf(end, 0) {
		return 0, ErrUnbounded
	}
	radius := func(b float64) float64 {
		u, v := a, b
		if in.swapped {
			u, v = b, a
		}
		_, su, sv := in.s.Partials(u, v)
		if in.swapped {
			return sv.Norm()
		}
		return su.Norm()
	}

	const steps = 256
	step := (end - from) / steps
	rmax := radius(from)
	for i := 1; i <= steps; i++ {
		b := from + step*float64(i)
		r := radius(b)
		rmax = math.Max(rmax, r)
		if r > 1e-7*rmax {
			continue
		}
		if i == steps {
			return end, nil
		}
		// Ternary search for the zero of |∂S/∂a| around b.
		lo, hi := b-step, b+step
		for range 100 {
			m1, m2 := lo+(hi-lo)/3, hi-(hi-lo)/3
			if radius(m1) < radius(m2) {
				hi = m2
			} else {
				lo = m1
			}
		}
		return (lo + hi) / 2, nil
	}
	return end, nil
}

// chooseCut resolves the period ambiguity of loops that wind around a
// doubly periodic surface such as a torus band. Each candidate cut b = c
// is a level no loop crosses; loops are shifted into (c, c+P] and the cut
// giving the largest positive area is the one outside the face.
func (in *integrator) chooseCut(traces []trace, base moments) (moments, error) {
	full, err := naturalDomain(in.s)
	if err != nil {
		return moments{}, err
	}
	p := in.pb
	var best moments
	found := false
	for i, ti := range traces {
		if in.wind(ti) == 0 {
			continue
		}
		c := in.hi(ti) + 1e-9*p
		valid := true
		for j, tj := range traces {
			if j == i || in.wind(tj) == 0 {
				continue
			}
			x := math.Mod(c-in.lo(tj), p)
			if x < 0 {
				x += p
			}
			if x <= in.hi(tj)-in.lo(tj) {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		total := base
		for _, tj := range traces {
			w := in.wind(tj)
			if w == 0 {
				continue
			}
			k := math.Floor((c-in.lo(tj))/p) + 1
			total = total.add(full.scale(in.sign * k * float64(w)))
		}
		if !found || total[0] > best[0] {
			best, found = total, true
		}
	}
	if !found {
		return moments{}, ErrDoublyWound
	}
	return best, nil
}
