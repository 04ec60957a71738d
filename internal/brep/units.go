// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brep

import (
	"fmt"

	"github.com/pdiddy/step-features/internal/p21"
)

// Units converts file values to millimetres and radians.
type Units struct {
	// Length is millimetres per file length unit.
	Length float64 `json:"length" yaml:"length"`

	// Angle is radians per file plane-angle unit.
	Angle float64 `json:"angle" yaml:"angle"`
}

// DefaultUnits applies when a file declares no global units.
var DefaultUnits = Units{Length: 1, Angle: 1}

var siPrefixes = map[string]float64{
	"EXA": 1e18, "PETA": 1e15, "TERA": 1e12, "GIGA": 1e9, "MEGA": 1e6,
	"KILO": 1e3, "HECTO": 1e2, "DECA": 1e1,
	"DECI": 1e-1, "CENTI": 1e-2, "MILLI": 1e-3, "MICRO": 1e-6,
	"NANO": 1e-9, "PICO": 1e-12, "FEMTO": 1e-15, "ATTO": 1e-18,
}

// ResolveUnits reads the first GLOBAL_UNIT_ASSIGNED_CONTEXT of the file.
func ResolveUnits(f *p21.File) (Units, error) {
	u := DefaultUnits
	ids := f.OfType("GLOBAL_UNIT_ASSIGNED_CONTEXT")
	if len(ids) == 0 {
		return u, nil
	}
	ctx, _ := f.Get(ids[0])
	rec, _ := ctx.Record("GLOBAL_UNIT_ASSIGNED_CONTEXT")
	if len(rec.Params) == 0 || rec.Params[0].Kind != p21.List {
		return u, fmt.Errorf("#%d: malformed unit list", ctx.ID)
	}
	for _, ref := range rec.Params[0].List {
		if ref.Kind != p21.Ref {
			continue
		}
		unit, ok := f.Get(ref.Ref)
		if !ok {
			return u, fmt.Errorf("#%d: unit #%d not found", ctx.ID, ref.Ref)
		}
		switch {
		case unit.Is("LENGTH_UNIT"):
			factor, err := unitFactor(f, unit, 0)
			if err != nil {
				return u, err
			}
			u.Length = factor * 1000 // metres to millimetres
		case unit.Is("PLANE_ANGLE_UNIT"):
			factor, err := unitFactor(f, unit, 0)
			if err != nil {
				return u, err
			}
			u.Angle = factor
		}
	}
	return u, nil
}

// unitFactor returns the size of a unit in SI base units (metre, radian).
func unitFactor(f *p21.File, unit *p21.Entity, depth int) (float64, error) {
	if depth > 8 {
		return 0, fmt.Errorf("#%d: unit definition too deep", unit.ID)
	}
	if si, ok := unit.Record("SI_UNIT"); ok {
		factor := 1.0
		if len(si.Params) > 0 && si.Params[0].Kind == p21.Enum {
			p, ok := siPrefixes[si.Params[0].Str]
			if !ok {
				return 0, fmt.Errorf("#%d: unknown SI prefix %s", unit.ID, si.Params[0].Str)
			}
			factor = p
		}
		return factor, nil
	}
	if cb, ok := unit.Record("CONVERSION_BASED_UNIT"); ok {
		if len(cb.Params) < 2 || cb.Params[1].Kind != p21.Ref {
			return 0, fmt.Errorf("#%d: malformed conversion based unit", unit.ID)
		}
		m, ok := f.Get(cb.Params[1].Ref)
		if !ok {
			return 0, fmt.Errorf("#%d: conversion factor #%d not found", unit.ID, cb.Params[1].Ref)
		}
		value, base, err := measureWithUnit(m)
		if err != nil {
			return 0, err
		}
		baseUnit, ok := f.Get(base)
		if !ok {
			return 0, fmt.Errorf("#%d: unit #%d not found", m.ID, base)
		}
		baseFactor, err := unitFactor(f, baseUnit, depth+1)
		if err != nil {
			return 0, err
		}
		return value * baseFactor, nil
	}
	return 0, fmt.Errorf("#%d: unsupported unit definition", unit.ID)
}

// measureWithUnit accepts LENGTH_MEASURE_WITH_UNIT(LENGTH_MEASURE(25.4),#u)
// and its complex and plane-angle forms.
func measureWithUnit(m *p21.Entity) (float64, int, error) {
	for _, r := range m.Records {
		if len(r.Params) != 2 || r.Params[1].Kind != p21.Ref {
			continue
		}
		if v, ok := r.Params[0].Float(); ok {
			return v, r.Params[1].Ref, nil
		}
	}
	return 0, 0, fmt.Errorf("#%d: malformed measure with unit", m.ID)
}
