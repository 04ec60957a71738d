// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geom provides the curve and surface evaluators used to measure
// B-rep faces: analytic elementary surfaces, swept and offset surfaces,
// and rational B-splines, each with point inversion.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a point or direction in model space.
type Vec r3.Vec

func (a Vec) Add(b Vec) Vec       { return Vec(r3.Add(r3.Vec(a), r3.Vec(b))) }
func (a Vec) Sub(b Vec) Vec       { return Vec(r3.Sub(r3.Vec(a), r3.Vec(b))) }
func (a Vec) Scale(s float64) Vec { return Vec(r3.Scale(s, r3.Vec(a))) }
func (a Vec) Dot(b Vec) float64   { return r3.Dot(r3.Vec(a), r3.Vec(b)) }
func (a Vec) Cross(b Vec) Vec     { return Vec(r3.Cross(r3.Vec(a), r3.Vec(b))) }
func (a Vec) Norm() float64       { return r3.Norm(r3.Vec(a)) }
func (a Vec) Dist(b Vec) float64  { return a.Sub(b).Norm() }

// Unit returns a scaled to length one. The zero vector is returned as is.
func (a Vec) Unit() Vec {
	if a == (Vec{}) {
		return a
	}
	return Vec(r3.Unit(r3.Vec(a)))
}

// Array returns the components as an array.
func (a Vec) Array() [3]float64 { return [3]float64{a.X, a.Y, a.Z} }

// Frame is a right-handed orthonormal placement.
type Frame struct {
	Origin Vec
	X, Y   Vec
	Z      Vec
}

// WorldFrame is the identity placement.
var WorldFrame = Frame{X: Vec{1, 0, 0}, Y: Vec{0, 1, 0}, Z: Vec{0, 0, 1}}

// NewFrame builds a frame from an axis and an approximate reference
// direction. The reference is projected onto the plane normal to the axis;
// when it is missing or parallel to the axis an arbitrary perpendicular is
// chosen.
func NewFrame(origin, axis, ref Vec) Frame {
	z := axis.Unit()
	if z.Norm() == 0 {
		z = Vec{0, 0, 1}
	}
	x := ref.Sub(z.Scale(ref.Dot(z)))
	if x.Norm() < 1e-12 {
		x = perpendicular(z)
	}
	x = x.Unit()
	return Frame{Origin: origin, X: x, Y: z.Cross(x), Z: z}
}

func perpendicular(z Vec) Vec {
	// Same choice as the default reference direction of an axis placement:
	// (1,0,0) unless the axis is close to it.
	ref := Vec{1, 0, 0}
	if math.Abs(z.X) > 0.9 {
		ref = Vec{0, 0, 1}
		if math.Abs(z.Z) > 0.9 {
			ref = Vec{0, 1, 0}
		}
	}
	return ref.Sub(z.Scale(ref.Dot(z)))
}

// Point maps local coordinates to model space.
func (f Frame) Point(x, y, z float64) Vec {
	return f.Origin.Add(f.X.Scale(x)).Add(f.Y.Scale(y)).Add(f.Z.Scale(z))
}

// Dir maps a local direction to model space.
func (f Frame) Dir(x, y, z float64) Vec {
	return f.X.Scale(x).Add(f.Y.Scale(y)).Add(f.Z.Scale(z))
}

// Local returns the coordinates of p in the frame.
func (f Frame) Local(p Vec) (x, y, z float64) {
	d := p.Sub(f.Origin)
	return d.Dot(f.X), d.Dot(f.Y), d.Dot(f.Z)
}

// Rotate turns p by angle about the frame's Z axis.
func (f Frame) Rotate(p Vec, angle float64) Vec {
	x, y, z := f.Local(p)
	c, s := math.Cos(angle), math.Sin(angle)
	return f.Point(c*x-s*y, s*x+c*y, z)
}

// Angle normalizes a to [0, 2π).
func Angle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
