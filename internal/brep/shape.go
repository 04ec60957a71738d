// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package brep builds a boundary-representation shape (bodies, shells,
// faces, loops, edges) from the entity table of a STEP file.
package brep

import "github.com/pdiddy/step-features/internal/geom"

// Shape is every body of a file. Bodies keep entity-id order.
type Shape struct {
	Bodies []Body
	Units  Units
}

// Faces returns all faces in traversal order: body, shell, face list.
func (s *Shape) Faces() []*Face {
	var out []*Face
	for _, b := range s.Bodies {
		for _, sh := range b.Shells {
			out = append(out, sh.Faces...)
		}
	}
	return out
}

// Body is a solid or surface model.
type Body struct {
	ID     int
	Type   string
	Name   string
	Shells []Shell
}

// Shell is an ordered face set.
type Shell struct {
	ID    int
	Faces []*Face
}

// Face is a bounded region of one surface. Err records why its geometry
// could not be built; Surface is still set (possibly geom.Unsupported) so
// the face can be classified.
type Face struct {
	ID        int
	Surface   geom.Surface
	SameSense bool
	Bounds    []Loop
	Err       error
}

// Loop is a closed boundary. Edges are in traversal order with each edge
// already oriented along the loop. A vertex loop has no edges.
type Loop struct {
	ID     int
	Outer  bool
	Edges  []Edge
	Vertex *geom.Vec
}

// Edge is a curve segment traversed from parameter T0 to T1 (T1 may be
// less than T0). ID is the EDGE_CURVE instance, zero for polygon sides.
type Edge struct {
	ID     int
	Curve  geom.Curve
	T0, T1 float64
}

// Start returns the point where traversal begins.
func (e Edge) Start() geom.Vec { return e.Curve.Eval(e.T0) }

// End returns the point where traversal ends.
func (e Edge) End() geom.Vec { return e.Curve.Eval(e.T1) }

// Reversed returns the edge traversed the other way.
func (e Edge) Reversed() Edge {
	return Edge{ID: e.ID, Curve: e.Curve, T0: e.T1, T1: e.T0}
}

func reverseLoop(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[len(edges)-1-i] = e.Reversed()
	}
	return out
}
