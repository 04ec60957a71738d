// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gprop

import (
	"math"

	"github.com/pdiddy/step-features/internal/brep"
	"github.com/pdiddy/step-features/internal/geom"
)

// sample is a quadrature node on a loop in parameter space with the
// weighted parameter rates w·du/ds and w·dv/ds.
type sample struct {
	uv     geom.UV
	du, dv float64
}

// trace is a boundary loop mapped into the parameter plane. u and v are
// unwrapped continuously along the loop; windU and windV count the net
// number of periods the loop advances.
type trace struct {
	samples      []sample
	windU, windV int
	lo, hi       geom.UV // parameter bounding box
	boxed        bool
}

func (t *trace) include(uv geom.UV) {
	if !t.boxed {
		t.lo, t.hi, t.boxed = uv, uv, true
		return
	}
	t.lo.U, t.hi.U = math.Min(t.lo.U, uv.U), math.Max(t.hi.U, uv.U)
	t.lo.V, t.hi.V = math.Min(t.lo.V, uv.V), math.Max(t.hi.V, uv.V)
}

func (t *trace) add(smp sample) {
	t.include(smp.uv)
	t.samples = append(t.samples, smp)
}

// line adds a straight parameter-space segment from a to b.
func (t *trace) line(a, b geom.UV) {
	du, dv := b.U-a.U, b.V-a.V
	if math.Abs(du) < 1e-14 && math.Abs(dv) < 1e-14 {
		return
	}
	for _, iv := range split(0, 1, nil, 2) {
		iv.nodes(func(s, w float64) {
			t.add(sample{uv: geom.UV{U: a.U + s*du, V: a.V + s*dv}, du: w * du, dv: w * dv})
		})
	}
}

// edgeTrace is one edge in parameter space.
type edgeTrace struct {
	samples    []sample
	start, end geom.UV
	// pole is set when the edge starts or ends where ∂S/∂u vanishes.
	startPole, endPole bool
}

func (et *edgeTrace) shift(du, dv float64) {
	for i := range et.samples {
		et.samples[i].uv.U += du
		et.samples[i].uv.V += dv
	}
	et.start.U, et.start.V = et.start.U+du, et.start.V+dv
	et.end.U, et.end.V = et.end.U+du, et.end.V+dv
}

type tracer struct {
	s      geom.Surface
	pu, pv float64
	dom    geom.Domain
}

func newTracer(s geom.Surface) *tracer {
	pu, pv := geom.Periods(s)
	return &tracer{s: s, pu: pu, pv: pv, dom: s.Domain()}
}

func unwrap(x, ref, period float64) float64 {
	if period == 0 {
		return x
	}
	return x - period*math.Round((x-ref)/period)
}

// project inverts p and unwraps the result next to hint.
func (tr *tracer) project(p geom.Vec, hint *geom.UV) geom.UV {
	uv := tr.s.Project(p, hint)
	if hint != nil {
		uv.U = unwrap(uv.U, hint.U, tr.pu)
		uv.V = unwrap(uv.V, hint.V, tr.pv)
	}
	return uv
}

// pole reports whether ∂S/∂u vanishes at uv, as at the poles of a sphere
// or the apex of a cone.
func (tr *tracer) pole(uv geom.UV) bool {
	_, su, sv := tr.s.Partials(uv.U, uv.V)
	return su.Norm() <= 1e-7*sv.Norm()
}

// rates solves C' = Su·u' + Sv·v' in the least-squares sense.
func (tr *tracer) rates(uv geom.UV, d geom.Vec) (float64, float64) {
	_, su, sv := tr.s.Partials(uv.U, uv.V)
	a, b, c := su.Dot(su), su.Dot(sv), sv.Dot(sv)
	det := a*c - b*b
	if det <= 1e-24*a*c || det == 0 {
		return 0, 0
	}
	pu, pv := su.Dot(d), sv.Dot(d)
	return (c*pu - b*pv) / det, (a*pv - b*pu) / det
}

func edgePieces(c geom.Curve, t0, t1 float64) int {
	switch c.(type) {
	case *geom.BSplineCurve:
		return 2
	}
	if c.Period() > 0 {
		return max(1, int(math.Ceil(math.Abs(t1-t0)/(math.Pi/8))))
	}
	return 4
}

func (tr *tracer) edge(e brep.Edge, hint *geom.UV) edgeTrace {
	var et edgeTrace
	c := e.Curve
	last := hint
	for _, iv := range split(e.T0, e.T1, geom.Breaks(c, e.T0, e.T1), edgePieces(c, e.T0, e.T1)) {
		iv.nodes(func(t, w float64) {
			uv := tr.project(c.Eval(t), last)
			du, dv := tr.rates(uv, c.Deriv(t))
			et.samples = append(et.samples, sample{uv: uv, du: w * du, dv: w * dv})
			last = &uv
		})
	}

	first := hint
	if len(et.samples) > 0 {
		first = &et.samples[0].uv
	}
	et.start = tr.project(e.Start(), first)
	if et.startPole = tr.pole(et.start); et.startPole && first != nil {
		et.start.U = first.U
	}
	et.end = tr.project(e.End(), last)
	if et.endPole = tr.pole(et.end); et.endPole && last != nil {
		et.end.U = last.U
	}
	return et
}

// align returns the period multiples that place to next to from. Across a
// pole u jumps along the degenerate boundary of the parameter domain, so
// the jump direction follows the loop orientation: decreasing u at the
// upper pole, increasing at the lower.
func (tr *tracer) align(from, to geom.UV, pole bool) (float64, float64) {
	var du, dv float64
	if tr.pu > 0 {
		x := (from.U - to.U) / tr.pu
		switch {
		case !pole:
			du = math.Round(x) * tr.pu
		case math.Abs(from.V-tr.dom.V1) < math.Abs(from.V-tr.dom.V0):
			du = math.Floor(x+1e-9) * tr.pu
		default:
			du = math.Ceil(x-1e-9) * tr.pu
		}
	}
	if tr.pv > 0 {
		dv = math.Round((from.V-to.V)/tr.pv) * tr.pv
	}
	return du, dv
}

// loop maps the edges of a loop into the parameter plane, joining
// consecutive edges with straight segments.
func (tr *tracer) loop(edges []brep.Edge) trace {
	var t trace
	var prev edgeTrace
	var first geom.UV
	var firstPole bool
	for i, e := range edges {
		var hint *geom.UV
		if i > 0 {
			hint = &prev.end
		}
		et := tr.edge(e, hint)
		if i == 0 {
			first, firstPole = et.start, et.startPole
			t.include(first)
		} else {
			du, dv := tr.align(prev.end, et.start, prev.endPole || et.startPole)
			et.shift(du, dv)
			t.line(prev.end, et.start)
		}
		for _, smp := range et.samples {
			t.add(smp)
		}
		t.include(et.end)
		prev = et
	}

	du, dv := tr.align(prev.end, first, prev.endPole || firstPole)
	closing := geom.UV{U: first.U + du, V: first.V + dv}
	t.line(prev.end, closing)
	if tr.pu > 0 {
		t.windU = int(math.Round(du / tr.pu))
	}
	if tr.pv > 0 {
		t.windV = int(math.Round(dv / tr.pv))
	}
	return t
}

// seamLoop reports whether every edge of the loop is traversed twice, as
// when a closed surface is bounded only by its seams.
func seamLoop(edges []brep.Edge) bool {
	count := make(map[int]int)
	for _, e := range edges {
		if e.ID == 0 {
			return false
		}
		count[e.ID]++
	}
	for _, n := range count {
		if n != 2 {
			return false
		}
	}
	return len(edges) > 0
}

func reversed(edges []brep.Edge) []brep.Edge {
	out := make([]brep.Edge, len(edges))
	for i, e := range edges {
		out[len(edges)-1-i] = e.Reversed()
	}
	return out
}
