// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// SurfaceType classifies the analytic form of a face's underlying surface.
type SurfaceType int

const (
	SurfaceUnknown SurfaceType = iota
	SurfacePlane
	SurfaceCylinder
	SurfaceSphere
	SurfaceCone
	SurfaceTorus
	SurfaceBezier
	SurfaceBSpline
	SurfaceOfRevolution
	SurfaceOfExtrusion
	SurfaceOffset
	SurfaceOther
)

// Code returns the three-letter code written to the "st" field.
func (t SurfaceType) Code() string {
	switch t {
	case SurfacePlane:
		return "PLN"
	case SurfaceCylinder:
		return "CYL"
	case SurfaceSphere:
		return "SPH"
	case SurfaceCone:
		return "CON"
	case SurfaceTorus:
		return "TOR"
	case SurfaceBezier:
		return "BEZ"
	case SurfaceBSpline:
		return "BSP"
	case SurfaceOfRevolution:
		return "REV"
	case SurfaceOfExtrusion:
		return "EXT"
	case SurfaceOffset:
		return "OFS"
	case SurfaceOther:
		return "OTH"
	default:
		return "UNK"
	}
}

// String returns the code.
func (t SurfaceType) String() string { return t.Code() }

// ParseSurfaceType maps a code (case-insensitive) back to its SurfaceType.
// Unrecognized codes yield SurfaceUnknown and false.
func ParseSurfaceType(code string) (SurfaceType, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for t := SurfaceUnknown; t <= SurfaceOther; t++ {
		if t.Code() == code {
			return t, true
		}
	}
	return SurfaceUnknown, false
}

// Vec3 is a rounded 3-vector as written to the document.
type Vec3 [3]float64

// SurfaceParams is the type-specific payload of a Feature. A nil payload
// means the surface type carries no extra fields.
type SurfaceParams interface {
	surfaceParams()
}

// CylinderParams is the payload of a cylindrical face.
type CylinderParams struct {
	Radius float64
	Axis   Vec3
}

// SphereParams is the payload of a spherical face.
type SphereParams struct {
	Radius float64
}

// ConeParams is the payload of a conical face. SemiAngle is in radians and
// keeps the sign stored in the source surface.
type ConeParams struct {
	Radius    float64
	SemiAngle float64
}

func (CylinderParams) surfaceParams() {}
func (SphereParams) surfaceParams()   {}
func (ConeParams) surfaceParams()     {}

// Feature is the per-face record. All reals are rounded to three decimals
// when the record is built and never modified afterwards.
type Feature struct {
	// ID is 1-based and follows face traversal order.
	ID int

	// Type is the surface classification.
	Type SurfaceType

	// Area is the face area in square millimetres.
	Area float64

	// CenterOfMass is the area centroid in millimetres.
	CenterOfMass Vec3

	// Params is nil, CylinderParams, SphereParams or ConeParams.
	Params SurfaceParams
}

// Radius returns the payload radius and whether the feature has one.
func (f Feature) Radius() (float64, bool) {
	switch p := f.Params.(type) {
	case CylinderParams:
		return p.Radius, true
	case SphereParams:
		return p.Radius, true
	case ConeParams:
		return p.Radius, true
	}
	return 0, false
}

// PartDocument is the serialized output aggregate.
type PartDocument struct {
	// FormatDescription documents the abbreviated field names.
	FormatDescription string

	Part PartInfo

	// Features keeps extraction order.
	Features []Feature
}
