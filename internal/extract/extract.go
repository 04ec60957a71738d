// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns the faces of a B-rep shape into feature records:
// surface classification, area, centroid and the analytic parameters of
// cylinders, spheres and cones.
package extract

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/pdiddy/step-features/internal/brep"
	"github.com/pdiddy/step-features/internal/geom"
	"github.com/pdiddy/step-features/internal/gprop"
	"github.com/pdiddy/step-features/pkg/types"
)

// GeometryError reports a face whose geometric queries failed.
type GeometryError struct {
	// FaceIndex is the 1-based position of the face in traversal order.
	FaceIndex int

	// EntityID is the STEP instance id of the face.
	EntityID int

	Err error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("face %d (#%d): %v", e.FaceIndex, e.EntityID, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// Summary holds counts from one extraction run.
type Summary struct {
	Faces     int
	Extracted int
	Skipped   int
}

// HasSkipped reports whether any face was dropped under the skip policy.
func (s Summary) HasSkipped() bool {
	return s.Skipped > 0
}

// Features visits every face of shape in traversal order and builds one
// feature per face. Feature ids run from 1 without gaps over the emitted
// features. With the abort policy the first failing face ends the run with
// a *GeometryError; with the skip policy the face is logged and dropped.
func Features(ctx context.Context, shape *brep.Shape, cfg types.ExtractionConfig, log *zap.Logger) ([]types.Feature, Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.OnFaceError.Valid() {
		return nil, Summary{}, fmt.Errorf("unknown face error policy %q", cfg.OnFaceError)
	}

	faces := shape.Faces()
	summary := Summary{Faces: len(faces)}
	features := make([]types.Feature, 0, len(faces))

	for i, face := range faces {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}

		ft, err := Feature(len(features)+1, face)
		if err != nil {
			gerr := &GeometryError{FaceIndex: i + 1, EntityID: face.ID, Err: err}
			if cfg.OnFaceError != types.FaceErrorSkip {
				return nil, summary, gerr
			}
			log.Warn("skipping face", zap.Int("face", i+1), zap.Int("entity", face.ID), zap.Error(err))
			summary.Skipped++
			continue
		}

		log.Debug("face extracted",
			zap.Int("id", ft.ID),
			zap.Int("entity", face.ID),
			zap.String("type", ft.Type.Code()),
			zap.Float64("area", ft.Area),
		)
		features = append(features, ft)
		summary.Extracted++
	}
	return features, summary, nil
}

// Feature builds the record for one face with the given id.
func Feature(id int, face *brep.Face) (types.Feature, error) {
	props, err := gprop.SurfaceProperties(face)
	if err != nil {
		return types.Feature{}, err
	}
	return types.Feature{
		ID:           id,
		Type:         Classify(face.Surface.Kind()),
		Area:         Round(props.Area),
		CenterOfMass: roundVec(props.Centroid),
		Params:       params(face.Surface),
	}, nil
}

// Classify maps a kernel surface kind to its surface type. Kinds without a
// code map to SurfaceUnknown.
func Classify(k geom.Kind) types.SurfaceType {
	switch k {
	case geom.KindPlane:
		return types.SurfacePlane
	case geom.KindCylinder:
		return types.SurfaceCylinder
	case geom.KindSphere:
		return types.SurfaceSphere
	case geom.KindCone:
		return types.SurfaceCone
	case geom.KindTorus:
		return types.SurfaceTorus
	case geom.KindBezier:
		return types.SurfaceBezier
	case geom.KindBSpline:
		return types.SurfaceBSpline
	case geom.KindRevolution:
		return types.SurfaceOfRevolution
	case geom.KindExtrusion:
		return types.SurfaceOfExtrusion
	case geom.KindOffset:
		return types.SurfaceOffset
	case geom.KindOther:
		return types.SurfaceOther
	}
	return types.SurfaceUnknown
}

func params(s geom.Surface) types.SurfaceParams {
	switch ss := s.(type) {
	case *geom.Cylinder:
		return types.CylinderParams{Radius: Round(ss.Radius), Axis: roundVec(ss.Frame.Z)}
	case *geom.Sphere:
		return types.SphereParams{Radius: Round(ss.Radius)}
	case *geom.Cone:
		return types.ConeParams{Radius: Round(ss.Radius), SemiAngle: Round(ss.SemiAngle)}
	}
	return nil
}

// Round rounds x to three decimals, halves to even on the exact binary
// value. Negative zero becomes zero.
func Round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 3, 64), 64)
	if err != nil || r == 0 {
		return 0
	}
	return r
}

func roundVec(v geom.Vec) types.Vec3 {
	return types.Vec3{Round(v.X), Round(v.Y), Round(v.Z)}
}
