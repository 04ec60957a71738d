// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geom

import (
	"fmt"
	"math"
)

// Curve is a parametric space curve C(t).
type Curve interface {
	Eval(t float64) Vec
	Deriv(t float64) Vec
	// Domain returns the natural parameter bounds (±Inf when unbounded).
	Domain() (float64, float64)
	// Period returns the parameter period, zero for open curves.
	Period() float64
	// Project returns the parameter of the curve point closest to p.
	Project(p Vec) float64
}

// Line is C(t) = P + tD with D a unit vector, so t measures length.
type Line struct {
	Origin    Vec
	Direction Vec
}

func (c *Line) Eval(t float64) Vec         { return c.Origin.Add(c.Direction.Scale(t)) }
func (c *Line) Deriv(float64) Vec          { return c.Direction }
func (c *Line) Domain() (float64, float64) { return -inf, inf }
func (c *Line) Period() float64            { return 0 }
func (c *Line) Project(p Vec) float64      { return p.Sub(c.Origin).Dot(c.Direction) }

// Circle is C(t) = O + R(cos t X + sin t Y).
type Circle struct {
	Frame  Frame
	Radius float64
}

func (c *Circle) Eval(t float64) Vec {
	return c.Frame.Point(c.Radius*math.Cos(t), c.Radius*math.Sin(t), 0)
}
func (c *Circle) Deriv(t float64) Vec {
	return c.Frame.Dir(-c.Radius*math.Sin(t), c.Radius*math.Cos(t), 0)
}
func (c *Circle) Domain() (float64, float64) { return 0, 2 * math.Pi }
func (c *Circle) Period() float64            { return 2 * math.Pi }
func (c *Circle) Project(p Vec) float64 {
	x, y, _ := c.Frame.Local(p)
	return Angle(math.Atan2(y, x))
}

// Ellipse is C(t) = O + A cos t X + B sin t Y.
type Ellipse struct {
	Frame     Frame
	SemiAxis1 float64
	SemiAxis2 float64
}

func (c *Ellipse) Eval(t float64) Vec {
	return c.Frame.Point(c.SemiAxis1*math.Cos(t), c.SemiAxis2*math.Sin(t), 0)
}
func (c *Ellipse) Deriv(t float64) Vec {
	return c.Frame.Dir(-c.SemiAxis1*math.Sin(t), c.SemiAxis2*math.Cos(t), 0)
}
func (c *Ellipse) Domain() (float64, float64) { return 0, 2 * math.Pi }
func (c *Ellipse) Period() float64            { return 2 * math.Pi }
func (c *Ellipse) Project(p Vec) float64 {
	x, y, _ := c.Frame.Local(p)
	t := Angle(math.Atan2(y/c.SemiAxis2, x/c.SemiAxis1))
	return Angle(newtonCurve(c, p, t, math.Inf(-1), math.Inf(1)))
}

// Parabola is C(t) = O + t²/(4F) X + t Y.
type Parabola struct {
	Frame       Frame
	FocalLength float64
}

func (c *Parabola) Eval(t float64) Vec {
	return c.Frame.Point(t*t/(4*c.FocalLength), t, 0)
}
func (c *Parabola) Deriv(t float64) Vec {
	return c.Frame.Dir(t/(2*c.FocalLength), 1, 0)
}
func (c *Parabola) Domain() (float64, float64) { return -inf, inf }
func (c *Parabola) Period() float64            { return 0 }
func (c *Parabola) Project(p Vec) float64 {
	_, y, _ := c.Frame.Local(p)
	return newtonCurve(c, p, y, -inf, inf)
}

// Hyperbola is C(t) = O + A cosh t X + B sinh t Y.
type Hyperbola struct {
	Frame    Frame
	SemiAxis float64
	SemiImag float64
}

func (c *Hyperbola) Eval(t float64) Vec {
	return c.Frame.Point(c.SemiAxis*math.Cosh(t), c.SemiImag*math.Sinh(t), 0)
}
func (c *Hyperbola) Deriv(t float64) Vec {
	return c.Frame.Dir(c.SemiAxis*math.Sinh(t), c.SemiImag*math.Cosh(t), 0)
}
func (c *Hyperbola) Domain() (float64, float64) { return -inf, inf }
func (c *Hyperbola) Period() float64            { return 0 }
func (c *Hyperbola) Project(p Vec) float64 {
	_, y, _ := c.Frame.Local(p)
	return newtonCurve(c, p, math.Asinh(y/c.SemiImag), -inf, inf)
}

// Polyline joins points with straight segments; segment i spans t in [i, i+1].
type Polyline struct {
	Points []Vec
}

// NewPolyline requires at least two points.
func NewPolyline(pts []Vec) (*Polyline, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("polyline has %d points", len(pts))
	}
	return &Polyline{Points: pts}, nil
}

func (c *Polyline) segment(t float64) (int, float64) {
	n := len(c.Points) - 1
	i := int(math.Floor(t))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i, t - float64(i)
}

func (c *Polyline) Eval(t float64) Vec {
	i, f := c.segment(t)
	return c.Points[i].Add(c.Points[i+1].Sub(c.Points[i]).Scale(f))
}
func (c *Polyline) Deriv(t float64) Vec {
	i, _ := c.segment(t)
	return c.Points[i+1].Sub(c.Points[i])
}
func (c *Polyline) Domain() (float64, float64) { return 0, float64(len(c.Points) - 1) }
func (c *Polyline) Period() float64            { return 0 }
func (c *Polyline) Project(p Vec) float64 {
	best, bestT := math.Inf(1), 0.0
	for i := 0; i+1 < len(c.Points); i++ {
		a, b := c.Points[i], c.Points[i+1]
		ab := b.Sub(a)
		f := 0.0
		if l2 := ab.Dot(ab); l2 > 0 {
			f = math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
		}
		if d := a.Add(ab.Scale(f)).Dist(p); d < best {
			best, bestT = d, float64(i)+f
		}
	}
	return bestT
}

// Breaks returns parameters where the curve's derivative may jump, inside
// (t0, t1). Integration splits there.
func Breaks(c Curve, t0, t1 float64) []float64 {
	lo, hi := math.Min(t0, t1), math.Max(t0, t1)
	var out []float64
	switch cc := c.(type) {
	case *Polyline:
		for i := 1; i < len(cc.Points)-1; i++ {
			if t := float64(i); t > lo && t < hi {
				out = append(out, t)
			}
		}
	case *BSplineCurve:
		prev := math.NaN()
		for _, k := range cc.Knots.Values {
			if k > lo && k < hi && k != prev {
				out = append(out, k)
			}
			prev = k
		}
	}
	if t0 > t1 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
