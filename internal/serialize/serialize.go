// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package serialize writes part documents in the compact feature schema.
//
// The layout is fixed: two-space indentation, every object member and
// array element on its own line, no space after separators, reals in
// shortest round-trip form with a trailing ".0" when integral, and
// non-ASCII text written as UTF-8.
package serialize

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/step-features/pkg/types"
)

// FormatDescription documents the abbreviated field names. It is written
// verbatim to metadata.format_description.
const FormatDescription = `Format Description:
Top-level fields:
- "id": Part ID.
- "name": Part name.
- "mat": Material.
- "fts": List of features.

Feature fields:
- "id": Feature ID, integer.
- "st": Surface type, using abbreviated codes:
  - "PLN": Plane
  - "CYL": Cylinder
  - "SPH": Sphere
  - "CON": Cone
  - "TOR": Torus
  - "BEZ": Bezier Surface
  - "BSP": BSpline Surface
  - "REV": Surface of Revolution
  - "EXT": Surface of Extrusion
  - "OFS": Offset Surface
  - "OTH": Other Surface
- "a": Area.
- "com": Center of mass coordinates, [x, y, z].

Additional fields for specific types:
- "r": Radius (applicable to cylinder, sphere, cone, etc.).
- "ad": Axis direction, [x, y, z] (applicable to cylinder).
- "sa": Semi-angle, in radians (applicable to cone).`

// Build assembles the document for a part. A nil feature list is written
// as an empty array.
func Build(part types.PartInfo, features []types.Feature) types.PartDocument {
	if features == nil {
		features = []types.Feature{}
	}
	return types.PartDocument{
		FormatDescription: FormatDescription,
		Part:              part,
		Features:          features,
	}
}

// Encode writes doc to w.
func Encode(w io.Writer, doc types.PartDocument) error {
	_, err := w.Write(Marshal(doc))
	return err
}

// Marshal returns the encoded document.
func Marshal(doc types.PartDocument) []byte {
	var e encoder
	e.value(document(doc), 0)
	return e.buf.Bytes()
}

// Write encodes doc to path. The file is written to a temporary name in
// the same directory and renamed into place, so a failed write leaves no
// partial document behind.
func Write(path string, doc types.PartDocument) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, doc); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

func document(doc types.PartDocument) object {
	fts := make([]any, len(doc.Features))
	for i, f := range doc.Features {
		fts[i] = feature(f)
	}
	return object{
		{"metadata", object{{"format_description", doc.FormatDescription}}},
		{"id", doc.Part.ID},
		{"name", doc.Part.Name},
		{"mat", doc.Part.Material},
		{"fts", fts},
	}
}

func feature(f types.Feature) object {
	o := object{
		{"id", f.ID},
		{"st", f.Type.Code()},
		{"a", f.Area},
		{"com", f.CenterOfMass},
	}
	switch p := f.Params.(type) {
	case types.CylinderParams:
		o = append(o, member{"r", p.Radius}, member{"ad", p.Axis})
	case types.SphereParams:
		o = append(o, member{"r", p.Radius})
	case types.ConeParams:
		o = append(o, member{"r", p.Radius}, member{"sa", p.SemiAngle})
	}
	return o
}

// object is a JSON object with insertion-ordered members.
type object []member

type member struct {
	key   string
	value any
}

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) newline(depth int) {
	e.buf.WriteByte('\n')
	for range depth {
		e.buf.WriteString("  ")
	}
}

func (e *encoder) value(v any, depth int) {
	switch x := v.(type) {
	case object:
		if len(x) == 0 {
			e.buf.WriteString("{}")
			return
		}
		e.buf.WriteByte('{')
		for i, m := range x {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.newline(depth + 1)
			e.buf.WriteString(quote(m.key))
			e.buf.WriteByte(':')
			e.value(m.value, depth+1)
		}
		e.newline(depth)
		e.buf.WriteByte('}')
	case []any:
		e.array(len(x), depth, func(i int) { e.value(x[i], depth+1) })
	case types.Vec3:
		e.array(len(x), depth, func(i int) { e.buf.WriteString(formatFloat(x[i])) })
	case string:
		e.buf.WriteString(quote(x))
	case int:
		fmt.Fprintf(&e.buf, "%d", x)
	case float64:
		e.buf.WriteString(formatFloat(x))
	case nil:
		e.buf.WriteString("null")
	default:
		panic(fmt.Sprintf("serialize: unsupported value %T", v))
	}
}

func (e *encoder) array(n, depth int, elem func(i int)) {
	if n == 0 {
		e.buf.WriteString("[]")
		return
	}
	e.buf.WriteByte('[')
	for i := range n {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		elem(i)
	}
	e.newline(depth)
	e.buf.WriteByte(']')
}
