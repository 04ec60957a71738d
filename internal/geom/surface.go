// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geom

import "math"

// Kind is the analytic classification of a surface.
type Kind int

const (
	KindUndefined Kind = iota
	KindPlane
	KindCylinder
	KindCone
	KindSphere
	KindTorus
	KindBezier
	KindBSpline
	KindRevolution
	KindExtrusion
	KindOffset
	KindOther
)

var kindNames = [...]string{
	KindUndefined:  "undefined",
	KindPlane:      "plane",
	KindCylinder:   "cylinder",
	KindCone:       "cone",
	KindSphere:     "sphere",
	KindTorus:      "torus",
	KindBezier:     "bezier",
	KindBSpline:    "bspline",
	KindRevolution: "revolution",
	KindExtrusion:  "extrusion",
	KindOffset:     "offset",
	KindOther:      "other",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "undefined"
}

// UV is a point in a surface's parameter plane.
type UV struct{ U, V float64 }

// Domain bounds a surface's parameters. Unbounded directions use ±Inf.
type Domain struct {
	U0, U1, V0, V1 float64
}

// Bounded reports whether all four limits are finite.
func (d Domain) Bounded() bool {
	return !math.IsInf(d.U0, 0) && !math.IsInf(d.U1, 0) && !math.IsInf(d.V0, 0) && !math.IsInf(d.V1, 0)
}

var inf = math.Inf(1)

// Surface is a parametric surface S(u, v).
type Surface interface {
	Kind() Kind
	Eval(u, v float64) Vec
	// Partials returns S, ∂S/∂u and ∂S/∂v.
	Partials(u, v float64) (Vec, Vec, Vec)
	// Domain returns the natural parameter bounds.
	Domain() Domain
	// Project returns the parameters of the surface point closest to p.
	// hint, when non-nil, seeds iterative solvers.
	Project(p Vec, hint *UV) UV
}

// Periodic is implemented by surfaces closed in u or v. A zero period
// means the direction is not periodic.
type Periodic interface {
	Periods() (uPeriod, vPeriod float64)
}

// Periods returns the periods of s, zero for non-periodic directions.
func Periods(s Surface) (float64, float64) {
	if p, ok := s.(Periodic); ok {
		return p.Periods()
	}
	return 0, 0
}

// Plane is S(u,v) = O + uX + vY.
type Plane struct{ Frame Frame }

func (s *Plane) Kind() Kind { return KindPlane }
func (s *Plane) Eval(u, v float64) Vec {
	return s.Frame.Point(u, v, 0)
}
func (s *Plane) Partials(u, v float64) (Vec, Vec, Vec) {
	return s.Eval(u, v), s.Frame.X, s.Frame.Y
}
func (s *Plane) Domain() Domain { return Domain{-inf, inf, -inf, inf} }
func (s *Plane) Project(p Vec, _ *UV) UV {
	x, y, _ := s.Frame.Local(p)
	return UV{x, y}
}

// Cylinder is S(u,v) = O + R(cos u X + sin u Y) + vZ.
type Cylinder struct {
	Frame  Frame
	Radius float64
}

func (s *Cylinder) Kind() Kind                  { return KindCylinder }
func (s *Cylinder) Periods() (float64, float64) { return 2 * math.Pi, 0 }
func (s *Cylinder) Eval(u, v float64) Vec {
	return s.Frame.Point(s.Radius*math.Cos(u), s.Radius*math.Sin(u), v)
}
func (s *Cylinder) Partials(u, v float64) (Vec, Vec, Vec) {
	c, sn := math.Cos(u), math.Sin(u)
	return s.Eval(u, v), s.Frame.Dir(-s.Radius*sn, s.Radius*c, 0), s.Frame.Z
}
func (s *Cylinder) Domain() Domain { return Domain{0, 2 * math.Pi, -inf, inf} }
func (s *Cylinder) Project(p Vec, _ *UV) UV {
	x, y, z := s.Frame.Local(p)
	return UV{Angle(math.Atan2(y, x)), z}
}

// Cone is S(u,v) = O + (R + v sin a)(cos u X + sin u Y) + v cos a Z, with
// R the reference radius and a the semi-angle.
type Cone struct {
	Frame     Frame
	Radius    float64
	SemiAngle float64
}

func (s *Cone) Kind() Kind                  { return KindCone }
func (s *Cone) Periods() (float64, float64) { return 2 * math.Pi, 0 }
func (s *Cone) Eval(u, v float64) Vec {
	r := s.Radius + v*math.Sin(s.SemiAngle)
	return s.Frame.Point(r*math.Cos(u), r*math.Sin(u), v*math.Cos(s.SemiAngle))
}
func (s *Cone) Partials(u, v float64) (Vec, Vec, Vec) {
	c, sn := math.Cos(u), math.Sin(u)
	sa, ca := math.Sin(s.SemiAngle), math.Cos(s.SemiAngle)
	r := s.Radius + v*sa
	return s.Eval(u, v), s.Frame.Dir(-r*sn, r*c, 0), s.Frame.Dir(sa*c, sa*sn, ca)
}

// Domain stops v at the apex so the nappe holding the reference circle is
// the one parameterized.
func (s *Cone) Domain() Domain {
	sa := math.Sin(s.SemiAngle)
	if sa == 0 {
		return Domain{0, 2 * math.Pi, -inf, inf}
	}
	apex := -s.Radius / sa
	if apex < 0 {
		return Domain{0, 2 * math.Pi, apex, inf}
	}
	return Domain{0, 2 * math.Pi, -inf, apex}
}

func (s *Cone) Project(p Vec, hint *UV) UV {
	x, y, z := s.Frame.Local(p)
	rho := math.Hypot(x, y)
	sa, ca := math.Sin(s.SemiAngle), math.Cos(s.SemiAngle)
	v := (rho-s.Radius)*sa + z*ca
	u := Angle(math.Atan2(y, x))
	if rho < 1e-12 && hint != nil {
		u = hint.U
	}
	return UV{u, v}
}

// Sphere is S(u,v) = O + R cos v (cos u X + sin u Y) + R sin v Z, with
// v in [-π/2, π/2].
type Sphere struct {
	Frame  Frame
	Radius float64
}

func (s *Sphere) Kind() Kind                  { return KindSphere }
func (s *Sphere) Periods() (float64, float64) { return 2 * math.Pi, 0 }
func (s *Sphere) Eval(u, v float64) Vec {
	r := s.Radius * math.Cos(v)
	return s.Frame.Point(r*math.Cos(u), r*math.Sin(u), s.Radius*math.Sin(v))
}
func (s *Sphere) Partials(u, v float64) (Vec, Vec, Vec) {
	cu, su := math.Cos(u), math.Sin(u)
	cv, sv := math.Cos(v), math.Sin(v)
	R := s.Radius
	return s.Eval(u, v),
		s.Frame.Dir(-R*cv*su, R*cv*cu, 0),
		s.Frame.Dir(-R*sv*cu, -R*sv*su, R*cv)
}
func (s *Sphere) Domain() Domain { return Domain{0, 2 * math.Pi, -math.Pi / 2, math.Pi / 2} }
func (s *Sphere) Project(p Vec, hint *UV) UV {
	x, y, z := s.Frame.Local(p)
	rho := math.Hypot(x, y)
	u := Angle(math.Atan2(y, x))
	if rho < 1e-9*math.Max(s.Radius, 1) && hint != nil {
		u = hint.U
	}
	return UV{u, math.Atan2(z, rho)}
}

// Torus is S(u,v) = O + (R + r cos v)(cos u X + sin u Y) + r sin v Z.
type Torus struct {
	Frame       Frame
	MajorRadius float64
	MinorRadius float64
}

func (s *Torus) Kind() Kind                  { return KindTorus }
func (s *Torus) Periods() (float64, float64) { return 2 * math.Pi, 2 * math.Pi }
func (s *Torus) Eval(u, v float64) Vec {
	r := s.MajorRadius + s.MinorRadius*math.Cos(v)
	return s.Frame.Point(r*math.Cos(u), r*math.Sin(u), s.MinorRadius*math.Sin(v))
}
func (s *Torus) Partials(u, v float64) (Vec, Vec, Vec) {
	cu, su := math.Cos(u), math.Sin(u)
	cv, sv := math.Cos(v), math.Sin(v)
	r := s.MajorRadius + s.MinorRadius*cv
	return s.Eval(u, v),
		s.Frame.Dir(-r*su, r*cu, 0),
		s.Frame.Dir(-s.MinorRadius*sv*cu, -s.MinorRadius*sv*su, s.MinorRadius*cv)
}
func (s *Torus) Domain() Domain { return Domain{0, 2 * math.Pi, 0, 2 * math.Pi} }
func (s *Torus) Project(p Vec, hint *UV) UV {
	x, y, z := s.Frame.Local(p)
	rho := math.Hypot(x, y)
	u := Angle(math.Atan2(y, x))
	if rho < 1e-12 && hint != nil {
		u = hint.U
	}
	return UV{u, Angle(math.Atan2(z, rho-s.MajorRadius))}
}

// Extrusion sweeps a curve along a unit direction: S(u,v) = C(u) + vD.
type Extrusion struct {
	Curve     Curve
	Direction Vec
}

func (s *Extrusion) Kind() Kind { return KindExtrusion }
func (s *Extrusion) Periods() (float64, float64) {
	return s.Curve.Period(), 0
}
func (s *Extrusion) Eval(u, v float64) Vec {
	return s.Curve.Eval(u).Add(s.Direction.Scale(v))
}
func (s *Extrusion) Partials(u, v float64) (Vec, Vec, Vec) {
	return s.Eval(u, v), s.Curve.Deriv(u), s.Direction
}
func (s *Extrusion) Domain() Domain {
	t0, t1 := s.Curve.Domain()
	return Domain{t0, t1, -inf, inf}
}
func (s *Extrusion) Project(p Vec, hint *UV) UV {
	var seed UV
	if hint != nil {
		seed = *hint
	} else {
		// Project onto the plane normal to D, then onto the curve.
		t0, t1 := s.Curve.Domain()
		best := math.Inf(1)
		for _, t := range sampleParams(t0, t1, 64) {
			c := s.Curve.Eval(t)
			v := p.Sub(c).Dot(s.Direction)
			if d := c.Add(s.Direction.Scale(v)).Dist(p); d < best {
				best, seed = d, UV{t, v}
			}
		}
	}
	return newtonProject(s, p, seed, s.Domain())
}

// Revolution turns a curve about an axis: S(u,v) = Rot(axis, u)·C(v).
type Revolution struct {
	Curve Curve
	Axis  Frame // Z is the rotation axis
}

func (s *Revolution) Kind() Kind { return KindRevolution }
func (s *Revolution) Periods() (float64, float64) {
	return 2 * math.Pi, s.Curve.Period()
}
func (s *Revolution) Eval(u, v float64) Vec {
	return s.Axis.Rotate(s.Curve.Eval(v), u)
}
func (s *Revolution) Partials(u, v float64) (Vec, Vec, Vec) {
	p := s.Eval(u, v)
	// d/du of a rotation about Z is Z × (p - O).
	du := s.Axis.Z.Cross(p.Sub(s.Axis.Origin))
	d := s.Curve.Deriv(v)
	dv := s.Axis.Rotate(s.Axis.Origin.Add(d), u).Sub(s.Axis.Origin)
	return p, du, dv
}
func (s *Revolution) Domain() Domain {
	t0, t1 := s.Curve.Domain()
	return Domain{0, 2 * math.Pi, t0, t1}
}
func (s *Revolution) Project(p Vec, hint *UV) UV {
	var seed UV
	if hint != nil {
		seed = *hint
	} else {
		px, py, pz := s.Axis.Local(p)
		pr := math.Hypot(px, py)
		pa := math.Atan2(py, px)
		t0, t1 := s.Curve.Domain()
		best := math.Inf(1)
		for _, t := range sampleParams(t0, t1, 64) {
			cx, cy, cz := s.Axis.Local(s.Curve.Eval(t))
			cr := math.Hypot(cx, cy)
			if d := math.Hypot(pr-cr, pz-cz); d < best {
				best = d
				seed = UV{Angle(pa - math.Atan2(cy, cx)), t}
			}
		}
	}
	return newtonProject(s, p, seed, s.Domain())
}

// Offset displaces a basis surface along its unit normal by Distance.
type Offset struct {
	Basis    Surface
	Distance float64
}

const offsetStep = 1e-6

func (s *Offset) Kind() Kind { return KindOffset }
func (s *Offset) Periods() (float64, float64) {
	return Periods(s.Basis)
}
func (s *Offset) Eval(u, v float64) Vec {
	p, du, dv := s.Basis.Partials(u, v)
	return p.Add(du.Cross(dv).Unit().Scale(s.Distance))
}

// Partials differentiates the offset numerically; the basis normal's
// derivative would need second derivatives of every surface type.
func (s *Offset) Partials(u, v float64) (Vec, Vec, Vec) {
	p := s.Eval(u, v)
	hu := offsetStep * math.Max(1, math.Abs(u))
	hv := offsetStep * math.Max(1, math.Abs(v))
	du := s.Eval(u+hu, v).Sub(s.Eval(u-hu, v)).Scale(1 / (2 * hu))
	dv := s.Eval(u, v+hv).Sub(s.Eval(u, v-hv)).Scale(1 / (2 * hv))
	return p, du, dv
}
func (s *Offset) Domain() Domain { return s.Basis.Domain() }
func (s *Offset) Project(p Vec, hint *UV) UV {
	seed := s.Basis.Project(p, hint)
	return newtonProject(s, p, seed, s.Domain())
}

// Unsupported stands in for a surface entity the kernel cannot evaluate.
// It is classified as undefined and every evaluation returns NaN.
type Unsupported struct {
	Entity string
}

func (s *Unsupported) Kind() Kind { return KindUndefined }
func (s *Unsupported) Eval(u, v float64) Vec {
	return Vec{math.NaN(), math.NaN(), math.NaN()}
}
func (s *Unsupported) Partials(u, v float64) (Vec, Vec, Vec) {
	n := s.Eval(u, v)
	return n, n, n
}
func (s *Unsupported) Domain() Domain      { return Domain{-inf, inf, -inf, inf} }
func (s *Unsupported) Project(Vec, *UV) UV { return UV{math.NaN(), math.NaN()} }
