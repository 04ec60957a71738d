// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brep

import (
	"fmt"

	"github.com/pdiddy/step-features/internal/geom"
	"github.com/pdiddy/step-features/internal/p21"
)

type knotForm int

const (
	knotsExplicit knotForm = iota + 1
	knotsBezier
	knotsUniform
	knotsQuasiUniform
)

// splineRecords is the common part of a B-spline curve or surface
// instance, written either as one simple record (name first) or as a
// complex instance whose partial records split the attributes.
type splineRecords struct {
	base    []p21.Value // degree(s), control points, form, closure flags
	knots   []p21.Value // multiplicities and knot values for knotsExplicit
	form    knotForm
	weights p21.Value
}

func readSpline(e *p21.Entity, kind string, nBase int) (splineRecords, error) {
	forms := map[string]knotForm{
		"B_SPLINE_" + kind + "_WITH_KNOTS": knotsExplicit,
		"BEZIER_" + kind:                  knotsBezier,
		"UNIFORM_" + kind:                 knotsUniform,
		"QUASI_UNIFORM_" + kind:           knotsQuasiUniform,
	}
	var s splineRecords
	if !e.Complex() {
		r := e.Records[0]
		form, ok := forms[r.Type]
		if !ok {
			return s, fmt.Errorf("#%d: %s without knot form", e.ID, r.Type)
		}
		if len(r.Params) < 1+nBase {
			return s, fmt.Errorf("#%d %s has %d parameters", e.ID, r.Type, len(r.Params))
		}
		s.form = form
		s.base = r.Params[1 : 1+nBase]
		s.knots = r.Params[1+nBase:]
		return s, nil
	}

	base, err := params(e, "B_SPLINE_"+kind, nBase)
	if err != nil {
		return s, err
	}
	s.base = base
	for _, r := range e.Records {
		if form, ok := forms[r.Type]; ok {
			s.form = form
			s.knots = r.Params
		}
	}
	if s.form == 0 {
		return s, fmt.Errorf("#%d: %s without knot form", e.ID, typeName(e))
	}
	if w, ok := e.Record("RATIONAL_B_SPLINE_" + kind); ok && len(w.Params) > 0 {
		s.weights = w.Params[0]
	}
	return s, nil
}

// knotVector builds the knot vector for nPoles control points. mults and
// values are read only for explicit knots.
func knotVector(form knotForm, degree, nPoles int, mults, values p21.Value) (geom.Knots, error) {
	switch form {
	case knotsExplicit:
		m, err := integers(mults)
		if err != nil {
			return geom.Knots{}, fmt.Errorf("multiplicities: %w", err)
		}
		v, err := numbers(values)
		if err != nil {
			return geom.Knots{}, fmt.Errorf("knots: %w", err)
		}
		return geom.ExpandKnots(degree, m, v)

	case knotsBezier:
		// Piecewise Bezier: one unit-length segment per degree poles.
		n := nPoles - 1
		if degree < 1 || n%degree != 0 {
			return geom.Knots{}, fmt.Errorf("bezier of degree %d with %d poles", degree, nPoles)
		}
		segs := n / degree
		m := make([]int, segs+1)
		v := make([]float64, segs+1)
		for i := range m {
			m[i], v[i] = degree, float64(i)
		}
		m[0], m[segs] = degree+1, degree+1
		return geom.ExpandKnots(degree, m, v)

	case knotsUniform:
		k := geom.Knots{Degree: degree}
		for i := -degree; i <= nPoles; i++ {
			k.Values = append(k.Values, float64(i))
		}
		return k, nil

	case knotsQuasiUniform:
		inner := nPoles - degree - 1
		if inner < 0 {
			return geom.Knots{}, fmt.Errorf("quasi-uniform of degree %d with %d poles", degree, nPoles)
		}
		m := make([]int, inner+2)
		v := make([]float64, inner+2)
		for i := range m {
			m[i], v[i] = 1, float64(i)
		}
		m[0], m[inner+1] = degree+1, degree+1
		return geom.ExpandKnots(degree, m, v)
	}
	return geom.Knots{}, fmt.Errorf("unknown knot form %d", form)
}

func (b *builder) bsplineCurve(e *p21.Entity) (geom.Curve, error) {
	s, err := readSpline(e, "CURVE", 5)
	if err != nil {
		return nil, err
	}
	degree, err := integer(s.base[0])
	if err != nil {
		return nil, fmt.Errorf("#%d degree: %w", e.ID, err)
	}
	poles, err := b.points(s.base[1])
	if err != nil {
		return nil, fmt.Errorf("#%d control points: %w", e.ID, err)
	}
	var mults, values p21.Value
	if s.form == knotsExplicit {
		if len(s.knots) < 2 {
			return nil, fmt.Errorf("#%d: missing knots", e.ID)
		}
		mults, values = s.knots[0], s.knots[1]
	}
	knots, err := knotVector(s.form, degree, len(poles), mults, values)
	if err != nil {
		return nil, fmt.Errorf("#%d: %w", e.ID, err)
	}
	var weights []float64
	if s.weights.Kind == p21.List {
		if weights, err = numbers(s.weights); err != nil {
			return nil, fmt.Errorf("#%d weights: %w", e.ID, err)
		}
	}
	c, err := geom.NewBSplineCurve(knots, poles, weights)
	if err != nil {
		return nil, fmt.Errorf("#%d: %w", e.ID, err)
	}
	return c, nil
}

func (b *builder) bsplineSurface(e *p21.Entity) (geom.Surface, error) {
	s, err := readSpline(e, "SURFACE", 7)
	if err != nil {
		return nil, err
	}
	uDeg, err := integer(s.base[0])
	if err != nil {
		return nil, fmt.Errorf("#%d u degree: %w", e.ID, err)
	}
	vDeg, err := integer(s.base[1])
	if err != nil {
		return nil, fmt.Errorf("#%d v degree: %w", e.ID, err)
	}
	rows, err := list(s.base[2])
	if err != nil {
		return nil, fmt.Errorf("#%d control points: %w", e.ID, err)
	}
	poles := make([][]geom.Vec, len(rows))
	for i, row := range rows {
		if poles[i], err = b.points(row); err != nil {
			return nil, fmt.Errorf("#%d control points: %w", e.ID, err)
		}
	}
	if len(poles) == 0 || len(poles[0]) == 0 {
		return nil, fmt.Errorf("#%d: empty control net", e.ID)
	}

	var um, vm, uk, vk p21.Value
	if s.form == knotsExplicit {
		if len(s.knots) < 4 {
			return nil, fmt.Errorf("#%d: missing knots", e.ID)
		}
		um, vm, uk, vk = s.knots[0], s.knots[1], s.knots[2], s.knots[3]
	}
	uKnots, err := knotVector(s.form, uDeg, len(poles), um, uk)
	if err != nil {
		return nil, fmt.Errorf("#%d u: %w", e.ID, err)
	}
	vKnots, err := knotVector(s.form, vDeg, len(poles[0]), vm, vk)
	if err != nil {
		return nil, fmt.Errorf("#%d v: %w", e.ID, err)
	}

	var weights [][]float64
	if s.weights.Kind == p21.List {
		weights = make([][]float64, len(s.weights.List))
		for i, row := range s.weights.List {
			if weights[i], err = numbers(row); err != nil {
				return nil, fmt.Errorf("#%d weights: %w", e.ID, err)
			}
		}
	}

	kind := geom.KindBSpline
	if s.form == knotsBezier {
		kind = geom.KindBezier
	}
	surf, err := geom.NewBSplineSurface(kind, uKnots, vKnots, poles, weights)
	if err != nil {
		return nil, fmt.Errorf("#%d: %w", e.ID, err)
	}
	return surf, nil
}
