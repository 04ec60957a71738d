// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brep

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/step-features/internal/geom"
	"github.com/pdiddy/step-features/internal/p21"
)

// BodyTypes are the entities resolved as bodies, in no particular order;
// bodies themselves are taken in entity-id order.
var BodyTypes = []string{
	"MANIFOLD_SOLID_BREP",
	"BREP_WITH_VOIDS",
	"FACETED_BREP",
	"SHELL_BASED_SURFACE_MODEL",
}

var shellTypes = []string{"CLOSED_SHELL", "OPEN_SHELL", "ORIENTED_CLOSED_SHELL", "ORIENTED_OPEN_SHELL"}

type builder struct {
	f        *p21.File
	units    Units
	curves   map[int]geom.Curve
	surfaces map[int]geom.Surface
}

func newBuilder(f *p21.File, units Units) *builder {
	return &builder{
		f:        f,
		units:    units,
		curves:   make(map[int]geom.Curve),
		surfaces: make(map[int]geom.Surface),
	}
}

// Build resolves the bodies of f. Errors are structural: a malformed unit
// context, body or shell, or a dangling reference anywhere below a body.
// Faces whose geometry cannot be evaluated carry the cause in Face.Err.
func Build(f *p21.File) (*Shape, error) {
	units, err := ResolveUnits(f)
	if err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}
	b := newBuilder(f, units)
	shape := &Shape{Units: units}

	owned := make(map[int]bool)
	for _, id := range f.IDs() {
		e, _ := f.Get(id)
		if !isAny(e, BodyTypes) {
			continue
		}
		body, err := b.body(e, owned)
		if err != nil {
			return nil, err
		}
		shape.Bodies = append(shape.Bodies, body)
	}

	// Shells placed directly in a representation, outside any body.
	refs := f.References()
	for _, id := range f.IDs() {
		e, _ := f.Get(id)
		if owned[id] || !(e.Is("CLOSED_SHELL") || e.Is("OPEN_SHELL")) || !inRepresentation(f, refs[id]) {
			continue
		}
		sh, err := b.shell(e, owned)
		if err != nil {
			return nil, err
		}
		shape.Bodies = append(shape.Bodies, Body{ID: id, Type: typeName(e), Shells: []Shell{sh}})
	}
	return shape, nil
}

func isAny(e *p21.Entity, types []string) bool {
	for _, t := range types {
		if e.Is(t) {
			return true
		}
	}
	return false
}

func inRepresentation(f *p21.File, referrers []int) bool {
	for _, id := range referrers {
		if e, ok := f.Get(id); ok && strings.Contains(typeName(e), "REPRESENTATION") {
			return true
		}
	}
	return false
}

// body collects every shell the body refers to, in parameter order. This
// covers the outer shell, voids and surface-model shell lists alike.
func (b *builder) body(e *p21.Entity, owned map[int]bool) (Body, error) {
	body := Body{ID: e.ID, Type: typeName(e)}
	var walk func(v p21.Value) error
	walk = func(v p21.Value) error {
		switch v.Kind {
		case p21.String:
			if body.Name == "" {
				body.Name = v.Str
			}
		case p21.List:
			for _, it := range v.List {
				if err := walk(it); err != nil {
					return err
				}
			}
		case p21.Ref:
			target, err := b.entity(v)
			if err != nil {
				return fmt.Errorf("body #%d: %w", e.ID, err)
			}
			if !isAny(target, shellTypes) {
				return nil
			}
			sh, err := b.shell(target, owned)
			if err != nil {
				return fmt.Errorf("body #%d: %w", e.ID, err)
			}
			body.Shells = append(body.Shells, sh)
		}
		return nil
	}
	for _, r := range e.Records {
		for _, p := range r.Params {
			if err := walk(p); err != nil {
				return body, err
			}
		}
	}
	return body, nil
}

func (b *builder) shell(e *p21.Entity, owned map[int]bool) (Shell, error) {
	owned[e.ID] = true
	for _, typ := range []string{"ORIENTED_CLOSED_SHELL", "ORIENTED_OPEN_SHELL"} {
		if e.Is(typ) {
			p, err := params(e, typ, 3)
			if err != nil {
				return Shell{}, err
			}
			inner, err := b.entity(p[2])
			if err != nil {
				return Shell{}, fmt.Errorf("shell #%d: %w", e.ID, err)
			}
			return b.shell(inner, owned)
		}
	}

	typ := "CLOSED_SHELL"
	if e.Is("OPEN_SHELL") {
		typ = "OPEN_SHELL"
	}
	p, err := params(e, typ, 2)
	if err != nil {
		return Shell{}, err
	}
	refs, err := list(p[1])
	if err != nil {
		return Shell{}, fmt.Errorf("shell #%d faces: %w", e.ID, err)
	}
	sh := Shell{ID: e.ID}
	for _, r := range refs {
		face, err := b.face(r, false)
		if err != nil {
			return Shell{}, fmt.Errorf("shell #%d: %w", e.ID, err)
		}
		sh.Faces = append(sh.Faces, face)
	}
	return sh, nil
}

// face builds one face. Only dangling references are returned as errors;
// every other problem is recorded on the face.
func (b *builder) face(v p21.Value, flip bool) (*Face, error) {
	e, err := b.entity(v)
	if err != nil {
		return nil, err
	}
	face := &Face{ID: e.ID, SameSense: true}
	fail := func(err error) (*Face, error) {
		if errors.Is(err, ErrDanglingRef) {
			return nil, fmt.Errorf("face #%d: %w", e.ID, err)
		}
		if face.Surface == nil {
			face.Surface = &geom.Unsupported{Entity: typeName(e)}
		}
		face.Err = err
		return face, nil
	}

	if e.Is("ORIENTED_FACE") {
		p, err := params(e, "ORIENTED_FACE", 4)
		if err != nil {
			return fail(err)
		}
		orientation, err := boolean(p[3])
		if err != nil {
			return fail(err)
		}
		return b.face(p[2], flip != !orientation)
	}

	typ := ""
	for _, t := range []string{"ADVANCED_FACE", "FACE_SURFACE", "FACE"} {
		if e.Is(t) {
			typ = t
			break
		}
	}
	if typ == "" {
		return fail(fmt.Errorf("#%d: unsupported face %s", e.ID, typeName(e)))
	}
	n := 2
	if typ != "FACE" {
		n = 4
	}
	p, err := params(e, typ, n)
	if err != nil {
		return fail(err)
	}

	if typ != "FACE" {
		// The surface is resolved first so the face classifies even when
		// its bounds are unusable.
		s, err := b.surface(p[2])
		face.Surface = s
		if err != nil {
			return fail(err)
		}
		same, err := boolean(p[3])
		if err != nil {
			return fail(err)
		}
		face.SameSense = same
	}
	face.SameSense = face.SameSense != flip

	bounds, err := list(p[1])
	if err != nil {
		return fail(fmt.Errorf("#%d bounds: %w", e.ID, err))
	}
	for _, bv := range bounds {
		loop, err := b.bound(bv)
		if err != nil {
			return fail(err)
		}
		face.Bounds = append(face.Bounds, loop)
	}

	if typ == "FACE" {
		s, err := planeThrough(loopPoints(face.Bounds))
		if err != nil {
			return fail(fmt.Errorf("#%d: %w", e.ID, err))
		}
		face.Surface = s
	}
	return face, nil
}

// loopPoints returns the vertices of the outer (else first) loop.
func loopPoints(loops []Loop) []geom.Vec {
	if len(loops) == 0 {
		return nil
	}
	l := loops[0]
	for _, c := range loops {
		if c.Outer {
			l = c
			break
		}
	}
	pts := make([]geom.Vec, len(l.Edges))
	for i, ed := range l.Edges {
		pts[i] = ed.Start()
	}
	return pts
}

func (b *builder) bound(v p21.Value) (Loop, error) {
	e, err := b.entity(v)
	if err != nil {
		return Loop{}, err
	}
	typ := "FACE_BOUND"
	if e.Is("FACE_OUTER_BOUND") {
		typ = "FACE_OUTER_BOUND"
	}
	p, err := params(e, typ, 3)
	if err != nil {
		return Loop{}, err
	}
	loop, err := b.loop(p[1])
	if err != nil {
		return Loop{}, err
	}
	orientation, err := boolean(p[2])
	if err != nil {
		return Loop{}, fmt.Errorf("#%d orientation: %w", e.ID, err)
	}
	if !orientation {
		loop.Edges = reverseLoop(loop.Edges)
	}
	loop.Outer = typ == "FACE_OUTER_BOUND"
	return loop, nil
}

func (b *builder) loop(v p21.Value) (Loop, error) {
	e, err := b.entity(v)
	if err != nil {
		return Loop{}, err
	}
	loop := Loop{ID: e.ID}
	switch {
	case e.Is("EDGE_LOOP"):
		p, err := params(e, "EDGE_LOOP", 2)
		if err != nil {
			return loop, err
		}
		refs, err := list(p[1])
		if err != nil {
			return loop, fmt.Errorf("#%d edges: %w", e.ID, err)
		}
		for _, r := range refs {
			ed, err := b.orientedEdge(r)
			if err != nil {
				return loop, err
			}
			loop.Edges = append(loop.Edges, ed)
		}

	case e.Is("VERTEX_LOOP"):
		p, err := params(e, "VERTEX_LOOP", 2)
		if err != nil {
			return loop, err
		}
		pt, err := b.vertex(p[1])
		if err != nil {
			return loop, err
		}
		loop.Vertex = &pt

	case e.Is("POLY_LOOP"):
		p, err := params(e, "POLY_LOOP", 2)
		if err != nil {
			return loop, err
		}
		pts, err := b.points(p[1])
		if err != nil {
			return loop, err
		}
		for i, a := range pts {
			c := pts[(i+1)%len(pts)]
			d := c.Sub(a)
			if d.Norm() == 0 {
				continue
			}
			line := &geom.Line{Origin: a, Direction: d.Unit()}
			loop.Edges = append(loop.Edges, Edge{Curve: line, T0: 0, T1: d.Norm()})
		}

	default:
		return loop, fmt.Errorf("#%d: unsupported loop %s", e.ID, typeName(e))
	}
	return loop, nil
}

func (b *builder) vertex(v p21.Value) (geom.Vec, error) {
	e, err := b.entity(v)
	if err != nil {
		return geom.Vec{}, err
	}
	p, err := params(e, "VERTEX_POINT", 2)
	if err != nil {
		return geom.Vec{}, err
	}
	return b.point(p[1])
}

// orientedEdge resolves ORIENTED_EDGE(name, *, *, element, orientation)
// down to an EDGE_CURVE traversed in loop direction.
func (b *builder) orientedEdge(v p21.Value) (Edge, error) {
	e, err := b.entity(v)
	if err != nil {
		return Edge{}, err
	}
	if e.Is("ORIENTED_EDGE") {
		p, err := params(e, "ORIENTED_EDGE", 5)
		if err != nil {
			return Edge{}, err
		}
		ed, err := b.orientedEdge(p[3])
		if err != nil {
			return Edge{}, err
		}
		orientation, err := boolean(p[4])
		if err != nil {
			return Edge{}, fmt.Errorf("#%d orientation: %w", e.ID, err)
		}
		if !orientation {
			ed = ed.Reversed()
		}
		return ed, nil
	}

	p, err := params(e, "EDGE_CURVE", 5)
	if err != nil {
		return Edge{}, err
	}
	start, err := b.vertex(p[1])
	if err != nil {
		return Edge{}, err
	}
	end, err := b.vertex(p[2])
	if err != nil {
		return Edge{}, err
	}
	c, err := b.curve(p[3])
	if err != nil {
		return Edge{}, err
	}
	same, err := boolean(p[4])
	if err != nil {
		return Edge{}, fmt.Errorf("#%d same sense: %w", e.ID, err)
	}
	t0, t1 := edgeRange(c, start, end, same)
	return Edge{ID: e.ID, Curve: c, T0: t0, T1: t1}, nil
}

// edgeRange returns the curve parameters of an edge's start and end
// vertices. sameSense false means the edge runs against the curve.
func edgeRange(c geom.Curve, start, end geom.Vec, sameSense bool) (float64, float64) {
	closed := start.Dist(end) < 1e-7*math.Max(1, start.Norm())
	period := c.Period()
	lo, hi := c.Domain()
	if closed && period == 0 && !math.IsInf(lo, 0) && !math.IsInf(hi, 0) {
		if sameSense {
			return lo, hi
		}
		return hi, lo
	}

	t0, t1 := c.Project(start), c.Project(end)
	if period > 0 {
		switch {
		case closed && sameSense:
			t1 = t0 + period
		case closed:
			t1 = t0 - period
		case sameSense && t1 < t0:
			t1 += period
		case !sameSense && t1 > t0:
			t1 -= period
		}
	}
	return t0, t1
}
