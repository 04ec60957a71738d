// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package serialize

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/step-features/pkg/types"
)

type wireDocument struct {
	Metadata struct {
		FormatDescription string `json:"format_description"`
	} `json:"metadata"`
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Material string        `json:"mat"`
	Features []wireFeature `json:"fts"`
}

type wireFeature struct {
	ID           int         `json:"id"`
	Type         string      `json:"st"`
	Area         float64     `json:"a"`
	CenterOfMass types.Vec3  `json:"com"`
	Radius       *float64    `json:"r"`
	Axis         *types.Vec3 `json:"ad"`
	SemiAngle    *float64    `json:"sa"`
}

// Decode reads a document previously written by Encode.
func Decode(r io.Reader) (types.PartDocument, error) {
	var wd wireDocument
	if err := json.NewDecoder(r).Decode(&wd); err != nil {
		return types.PartDocument{}, fmt.Errorf("decoding part document: %w", err)
	}

	doc := types.PartDocument{
		FormatDescription: wd.Metadata.FormatDescription,
		Part:              types.PartInfo{ID: wd.ID, Name: wd.Name, Material: wd.Material},
		Features:          make([]types.Feature, 0, len(wd.Features)),
	}
	for _, wf := range wd.Features {
		st, ok := types.ParseSurfaceType(wf.Type)
		if !ok {
			return types.PartDocument{}, fmt.Errorf("feature %d: unknown surface type %q", wf.ID, wf.Type)
		}
		doc.Features = append(doc.Features, types.Feature{
			ID:           wf.ID,
			Type:         st,
			Area:         wf.Area,
			CenterOfMass: wf.CenterOfMass,
			Params:       wf.params(st),
		})
	}
	return doc, nil
}

// ReadFile decodes the document at path.
func ReadFile(path string) (types.PartDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.PartDocument{}, err
	}
	defer f.Close()
	return Decode(f)
}

func (wf wireFeature) params(st types.SurfaceType) types.SurfaceParams {
	if wf.Radius == nil {
		return nil
	}
	switch st {
	case types.SurfaceCylinder:
		p := types.CylinderParams{Radius: *wf.Radius}
		if wf.Axis != nil {
			p.Axis = *wf.Axis
		}
		return p
	case types.SurfaceSphere:
		return types.SphereParams{Radius: *wf.Radius}
	case types.SurfaceCone:
		p := types.ConeParams{Radius: *wf.Radius}
		if wf.SemiAngle != nil {
			p.SemiAngle = *wf.SemiAngle
		}
		return p
	}
	return nil
}
