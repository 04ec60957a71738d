// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brep

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/step-features/internal/p21"
)

// ErrDanglingRef marks a reference to an instance the file does not define.
var ErrDanglingRef = errors.New("dangling reference")

// typeName returns the entity type, joining partial types of a complex
// instance with '+'.
func typeName(e *p21.Entity) string {
	if !e.Complex() {
		return e.Type()
	}
	names := make([]string, len(e.Records))
	for i, r := range e.Records {
		names[i] = r.Type
	}
	return strings.Join(names, "+")
}

func (b *builder) entity(v p21.Value) (*p21.Entity, error) {
	if v.Kind != p21.Ref {
		return nil, fmt.Errorf("expected instance reference, got %s", v)
	}
	e, ok := b.f.Get(v.Ref)
	if !ok {
		return nil, fmt.Errorf("%w #%d", ErrDanglingRef, v.Ref)
	}
	return e, nil
}

// params returns the parameters of record typ, requiring at least n.
func params(e *p21.Entity, typ string, n int) ([]p21.Value, error) {
	r, ok := e.Record(typ)
	if !ok {
		return nil, fmt.Errorf("#%d is %s, not %s", e.ID, typeName(e), typ)
	}
	if len(r.Params) < n {
		return nil, fmt.Errorf("#%d %s has %d parameters, want %d", e.ID, typ, len(r.Params), n)
	}
	return r.Params, nil
}

func number(v p21.Value) (float64, error) {
	f, ok := v.Float()
	if !ok {
		return 0, fmt.Errorf("expected number, got %s", v)
	}
	return f, nil
}

func integer(v p21.Value) (int, error) {
	if v.Kind != p21.Integer {
		return 0, fmt.Errorf("expected integer, got %s", v)
	}
	return int(v.Int), nil
}

func boolean(v p21.Value) (bool, error) {
	b, ok := v.Bool()
	if !ok {
		return false, fmt.Errorf("expected logical, got %s", v)
	}
	return b, nil
}

func list(v p21.Value) ([]p21.Value, error) {
	if v.Kind != p21.List {
		return nil, fmt.Errorf("expected list, got %s", v)
	}
	return v.List, nil
}

func numbers(v p21.Value) ([]float64, error) {
	items, err := list(v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, it := range items {
		if out[i], err = number(it); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func integers(v p21.Value) ([]int, error) {
	items, err := list(v)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(items))
	for i, it := range items {
		if out[i], err = integer(it); err != nil {
			return nil, err
		}
	}
	return out, nil
}
