// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brep

import (
	"fmt"
	"math"

	"github.com/pdiddy/step-features/internal/geom"
	"github.com/pdiddy/step-features/internal/p21"
)

func (b *builder) point(v p21.Value) (geom.Vec, error) {
	e, err := b.entity(v)
	if err != nil {
		return geom.Vec{}, err
	}
	p, err := params(e, "CARTESIAN_POINT", 2)
	if err != nil {
		return geom.Vec{}, err
	}
	c, err := numbers(p[1])
	if err != nil {
		return geom.Vec{}, fmt.Errorf("#%d coordinates: %w", e.ID, err)
	}
	var out [3]float64
	copy(out[:], c)
	l := b.units.Length
	return geom.Vec{X: out[0] * l, Y: out[1] * l, Z: out[2] * l}, nil
}

func (b *builder) direction(v p21.Value) (geom.Vec, error) {
	e, err := b.entity(v)
	if err != nil {
		return geom.Vec{}, err
	}
	p, err := params(e, "DIRECTION", 2)
	if err != nil {
		return geom.Vec{}, err
	}
	c, err := numbers(p[1])
	if err != nil {
		return geom.Vec{}, fmt.Errorf("#%d ratios: %w", e.ID, err)
	}
	var out [3]float64
	copy(out[:], c)
	d := geom.Vec{X: out[0], Y: out[1], Z: out[2]}
	if d.Norm() == 0 {
		return d, fmt.Errorf("#%d: zero direction", e.ID)
	}
	return d.Unit(), nil
}

// optionalDirection returns def for $.
func (b *builder) optionalDirection(v p21.Value, def geom.Vec) (geom.Vec, error) {
	if v.IsNull() {
		return def, nil
	}
	return b.direction(v)
}

// vector returns a VECTOR's unit orientation.
func (b *builder) vector(v p21.Value) (geom.Vec, error) {
	e, err := b.entity(v)
	if err != nil {
		return geom.Vec{}, err
	}
	if e.Is("DIRECTION") {
		return b.direction(v)
	}
	p, err := params(e, "VECTOR", 3)
	if err != nil {
		return geom.Vec{}, err
	}
	return b.direction(p[1])
}

// placement resolves AXIS2_PLACEMENT_3D, AXIS2_PLACEMENT_2D and
// AXIS1_PLACEMENT into a frame.
func (b *builder) placement(v p21.Value) (geom.Frame, error) {
	e, err := b.entity(v)
	if err != nil {
		return geom.Frame{}, err
	}
	z, x := geom.Vec{Z: 1}, geom.Vec{X: 1}
	switch {
	case e.Is("AXIS2_PLACEMENT_3D"):
		p, err := params(e, "AXIS2_PLACEMENT_3D", 4)
		if err != nil {
			return geom.Frame{}, err
		}
		o, err := b.point(p[1])
		if err != nil {
			return geom.Frame{}, err
		}
		if z, err = b.optionalDirection(p[2], z); err != nil {
			return geom.Frame{}, err
		}
		if x, err = b.optionalDirection(p[3], x); err != nil {
			return geom.Frame{}, err
		}
		return geom.NewFrame(o, z, x), nil
	case e.Is("AXIS2_PLACEMENT_2D"):
		p, err := params(e, "AXIS2_PLACEMENT_2D", 3)
		if err != nil {
			return geom.Frame{}, err
		}
		o, err := b.point(p[1])
		if err != nil {
			return geom.Frame{}, err
		}
		if x, err = b.optionalDirection(p[2], x); err != nil {
			return geom.Frame{}, err
		}
		return geom.NewFrame(o, z, x), nil
	case e.Is("AXIS1_PLACEMENT"):
		p, err := params(e, "AXIS1_PLACEMENT", 3)
		if err != nil {
			return geom.Frame{}, err
		}
		o, err := b.point(p[1])
		if err != nil {
			return geom.Frame{}, err
		}
		if z, err = b.optionalDirection(p[2], z); err != nil {
			return geom.Frame{}, err
		}
		return geom.NewFrame(o, z, x), nil
	}
	return geom.Frame{}, fmt.Errorf("#%d: unsupported placement %s", e.ID, typeName(e))
}

func (b *builder) length(v p21.Value) (float64, error) {
	x, err := number(v)
	return x * b.units.Length, err
}

// curve resolves a curve entity. Results are cached by instance id.
func (b *builder) curve(v p21.Value) (geom.Curve, error) {
	e, err := b.entity(v)
	if err != nil {
		return nil, err
	}
	if c, ok := b.curves[e.ID]; ok {
		return c, nil
	}
	c, err := b.buildCurve(e)
	if err != nil {
		return nil, err
	}
	b.curves[e.ID] = c
	return c, nil
}

func (b *builder) buildCurve(e *p21.Entity) (geom.Curve, error) {
	switch {
	case e.Is("LINE"):
		p, err := params(e, "LINE", 3)
		if err != nil {
			return nil, err
		}
		o, err := b.point(p[1])
		if err != nil {
			return nil, err
		}
		d, err := b.vector(p[2])
		if err != nil {
			return nil, err
		}
		return &geom.Line{Origin: o, Direction: d}, nil

	case e.Is("CIRCLE"):
		p, err := params(e, "CIRCLE", 3)
		if err != nil {
			return nil, err
		}
		f, err := b.placement(p[1])
		if err != nil {
			return nil, err
		}
		r, err := b.length(p[2])
		if err != nil {
			return nil, err
		}
		return &geom.Circle{Frame: f, Radius: r}, nil

	case e.Is("ELLIPSE"):
		p, err := params(e, "ELLIPSE", 4)
		if err != nil {
			return nil, err
		}
		f, err := b.placement(p[1])
		if err != nil {
			return nil, err
		}
		a, err := b.length(p[2])
		if err != nil {
			return nil, err
		}
		c, err := b.length(p[3])
		if err != nil {
			return nil, err
		}
		return &geom.Ellipse{Frame: f, SemiAxis1: a, SemiAxis2: c}, nil

	case e.Is("PARABOLA"):
		p, err := params(e, "PARABOLA", 3)
		if err != nil {
			return nil, err
		}
		f, err := b.placement(p[1])
		if err != nil {
			return nil, err
		}
		fl, err := b.length(p[2])
		if err != nil {
			return nil, err
		}
		return &geom.Parabola{Frame: f, FocalLength: fl}, nil

	case e.Is("HYPERBOLA"):
		p, err := params(e, "HYPERBOLA", 4)
		if err != nil {
			return nil, err
		}
		f, err := b.placement(p[1])
		if err != nil {
			return nil, err
		}
		a, err := b.length(p[2])
		if err != nil {
			return nil, err
		}
		im, err := b.length(p[3])
		if err != nil {
			return nil, err
		}
		return &geom.Hyperbola{Frame: f, SemiAxis: a, SemiImag: im}, nil

	case e.Is("POLYLINE"):
		p, err := params(e, "POLYLINE", 2)
		if err != nil {
			return nil, err
		}
		pts, err := b.points(p[1])
		if err != nil {
			return nil, err
		}
		return geom.NewPolyline(pts)

	case e.Is("B_SPLINE_CURVE"), e.Is("B_SPLINE_CURVE_WITH_KNOTS"), e.Is("BEZIER_CURVE"),
		e.Is("UNIFORM_CURVE"), e.Is("QUASI_UNIFORM_CURVE"):
		return b.bsplineCurve(e)

	case e.Is("TRIMMED_CURVE"):
		p, err := params(e, "TRIMMED_CURVE", 2)
		if err != nil {
			return nil, err
		}
		return b.curve(p[1])
	}

	for _, typ := range []string{"SURFACE_CURVE", "SEAM_CURVE", "INTERSECTION_CURVE", "BOUNDED_SURFACE_CURVE"} {
		if e.Is(typ) {
			p, err := params(e, typ, 2)
			if err != nil {
				return nil, err
			}
			return b.curve(p[1])
		}
	}
	return nil, fmt.Errorf("#%d: unsupported curve %s", e.ID, typeName(e))
}

func (b *builder) points(v p21.Value) ([]geom.Vec, error) {
	refs, err := list(v)
	if err != nil {
		return nil, err
	}
	out := make([]geom.Vec, len(refs))
	for i, r := range refs {
		if out[i], err = b.point(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// surface resolves a surface entity. An unsupported entity yields a
// geom.Unsupported together with an error.
func (b *builder) surface(v p21.Value) (geom.Surface, error) {
	e, err := b.entity(v)
	if err != nil {
		return nil, err
	}
	if s, ok := b.surfaces[e.ID]; ok {
		return s, nil
	}
	s, err := b.buildSurface(e)
	if err != nil {
		if s == nil {
			s = &geom.Unsupported{Entity: typeName(e)}
		}
		return s, err
	}
	b.surfaces[e.ID] = s
	return s, nil
}

func (b *builder) buildSurface(e *p21.Entity) (geom.Surface, error) {
	switch {
	case e.Is("PLANE"):
		p, err := params(e, "PLANE", 2)
		if err != nil {
			return nil, err
		}
		f, err := b.placement(p[1])
		if err != nil {
			return nil, err
		}
		return &geom.Plane{Frame: f}, nil

	case e.Is("CYLINDRICAL_SURFACE"):
		p, err := params(e, "CYLINDRICAL_SURFACE", 3)
		if err != nil {
			return nil, err
		}
		f, err := b.placement(p[1])
		if err != nil {
			return nil, err
		}
		r, err := b.length(p[2])
		if err != nil {
			return nil, err
		}
		return &geom.Cylinder{Frame: f, Radius: r}, nil

	case e.Is("CONICAL_SURFACE"):
		p, err := params(e, "CONICAL_SURFACE", 4)
		if err != nil {
			return nil, err
		}
		f, err := b.placement(p[1])
		if err != nil {
			return nil, err
		}
		r, err := b.length(p[2])
		if err != nil {
			return nil, err
		}
		a, err := number(p[3])
		if err != nil {
			return nil, err
		}
		return &geom.Cone{Frame: f, Radius: r, SemiAngle: a * b.units.Angle}, nil

	case e.Is("SPHERICAL_SURFACE"):
		p, err := params(e, "SPHERICAL_SURFACE", 3)
		if err != nil {
			return nil, err
		}
		f, err := b.placement(p[1])
		if err != nil {
			return nil, err
		}
		r, err := b.length(p[2])
		if err != nil {
			return nil, err
		}
		return &geom.Sphere{Frame: f, Radius: r}, nil

	case e.Is("TOROIDAL_SURFACE"), e.Is("DEGENERATE_TOROIDAL_SURFACE"):
		typ := "TOROIDAL_SURFACE"
		if e.Is("DEGENERATE_TOROIDAL_SURFACE") {
			typ = "DEGENERATE_TOROIDAL_SURFACE"
		}
		p, err := params(e, typ, 4)
		if err != nil {
			return nil, err
		}
		f, err := b.placement(p[1])
		if err != nil {
			return nil, err
		}
		major, err := b.length(p[2])
		if err != nil {
			return nil, err
		}
		minor, err := b.length(p[3])
		if err != nil {
			return nil, err
		}
		return &geom.Torus{Frame: f, MajorRadius: major, MinorRadius: minor}, nil

	case e.Is("SURFACE_OF_LINEAR_EXTRUSION"):
		p, err := params(e, "SURFACE_OF_LINEAR_EXTRUSION", 3)
		if err != nil {
			return nil, err
		}
		c, err := b.curve(p[1])
		if err != nil {
			return nil, err
		}
		d, err := b.vector(p[2])
		if err != nil {
			return nil, err
		}
		return &geom.Extrusion{Curve: c, Direction: d}, nil

	case e.Is("SURFACE_OF_REVOLUTION"):
		p, err := params(e, "SURFACE_OF_REVOLUTION", 3)
		if err != nil {
			return nil, err
		}
		c, err := b.curve(p[1])
		if err != nil {
			return nil, err
		}
		axis, err := b.placement(p[2])
		if err != nil {
			return nil, err
		}
		return &geom.Revolution{Curve: c, Axis: axis}, nil

	case e.Is("OFFSET_SURFACE"):
		p, err := params(e, "OFFSET_SURFACE", 3)
		if err != nil {
			return nil, err
		}
		d, err := b.length(p[2])
		if err != nil {
			return nil, err
		}
		// An unevaluable basis still classifies as an offset surface.
		basis, err := b.surface(p[1])
		if basis == nil {
			return nil, err
		}
		return &geom.Offset{Basis: basis, Distance: d}, err

	case e.Is("B_SPLINE_SURFACE"), e.Is("B_SPLINE_SURFACE_WITH_KNOTS"), e.Is("BEZIER_SURFACE"),
		e.Is("UNIFORM_SURFACE"), e.Is("QUASI_UNIFORM_SURFACE"):
		return b.bsplineSurface(e)

	case e.Is("RECTANGULAR_TRIMMED_SURFACE"):
		p, err := params(e, "RECTANGULAR_TRIMMED_SURFACE", 2)
		if err != nil {
			return nil, err
		}
		return b.surface(p[1])

	case e.Is("CURVE_BOUNDED_SURFACE"):
		p, err := params(e, "CURVE_BOUNDED_SURFACE", 2)
		if err != nil {
			return nil, err
		}
		return b.surface(p[1])
	}
	return nil, fmt.Errorf("#%d: unsupported surface %s", e.ID, typeName(e))
}

// planeThrough fits a plane to a closed polygon by Newell's method.
func planeThrough(pts []geom.Vec) (*geom.Plane, error) {
	var n geom.Vec
	for i, a := range pts {
		c := pts[(i+1)%len(pts)]
		n.X += (a.Y - c.Y) * (a.Z + c.Z)
		n.Y += (a.Z - c.Z) * (a.X + c.X)
		n.Z += (a.X - c.X) * (a.Y + c.Y)
	}
	if len(pts) < 3 || n.Norm() < 1e-12 {
		return nil, fmt.Errorf("degenerate polygon of %d points", len(pts))
	}
	ref := pts[1].Sub(pts[0])
	if ref.Norm() < 1e-12 || math.IsNaN(ref.X) {
		ref = geom.Vec{}
	}
	return &geom.Plane{Frame: geom.NewFrame(pts[0], n.Unit(), ref)}, nil
}
