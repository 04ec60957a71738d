// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package p21

import (
	"fmt"
	"sort"
)

// ValueKind identifies the form of a parameter value.
type ValueKind int

const (
	Omitted ValueKind = iota // $
	Derived                  // *
	Integer
	Real
	String
	Enum
	Binary
	Ref
	List
	Typed // KEYWORD(value), e.g. LENGTH_MEASURE(2.5)
)

// Value is one parameter of an entity record.
type Value struct {
	Kind ValueKind
	Int  int64
	Num  float64
	Str  string // String, Enum and Binary text; type name for Typed
	Ref  int
	List []Value
	// Inner holds the wrapped value of a Typed parameter.
	Inner *Value
}

// Float returns the numeric value of an Integer, Real, or a Typed wrapper
// around one (measure values are written as LENGTH_MEASURE(1.0)).
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case Real:
		return v.Num, true
	case Integer:
		return float64(v.Int), true
	case Typed:
		if v.Inner != nil {
			return v.Inner.Float()
		}
	}
	return 0, false
}

// Bool returns the value of a .T./.F. enumeration. Unknown (.U.) is false.
func (v Value) Bool() (bool, bool) {
	if v.Kind != Enum {
		return false, false
	}
	switch v.Str {
	case "T", "TRUE":
		return true, true
	case "F", "FALSE", "U", "UNKNOWN":
		return false, true
	}
	return false, false
}

// IsNull reports whether the value is $ or *.
func (v Value) IsNull() bool {
	return v.Kind == Omitted || v.Kind == Derived
}

func (v Value) String() string {
	switch v.Kind {
	case Omitted:
		return "$"
	case Derived:
		return "*"
	case Integer:
		return fmt.Sprintf("%d", v.Int)
	case Real:
		return fmt.Sprintf("%g", v.Num)
	case String:
		return fmt.Sprintf("'%s'", v.Str)
	case Enum:
		return "." + v.Str + "."
	case Binary:
		return `"` + v.Str + `"`
	case Ref:
		return fmt.Sprintf("#%d", v.Ref)
	case List:
		s := "("
		for i, e := range v.List {
			if i > 0 {
				s += ","
			}
			s += e.String()
		}
		return s + ")"
	case Typed:
		inner := ""
		if v.Inner != nil {
			inner = v.Inner.String()
		}
		return v.Str + "(" + inner + ")"
	}
	return "?"
}

// Record is a single entity type name with its parameters.
type Record struct {
	Type   string
	Params []Value
}

// Entity is one instance of the data section. Simple instances have one
// record; complex instances list one record per partial entity type.
type Entity struct {
	ID      int
	Records []Record
	Line    int
}

// Complex reports whether the instance was written in complex form.
func (e *Entity) Complex() bool { return len(e.Records) != 1 }

// Type returns the entity type of a simple instance, or the empty string
// for a complex one.
func (e *Entity) Type() string {
	if len(e.Records) == 1 {
		return e.Records[0].Type
	}
	return ""
}

// Record returns the partial record with the given type name.
func (e *Entity) Record(typ string) (Record, bool) {
	for _, r := range e.Records {
		if r.Type == typ {
			return r, true
		}
	}
	return Record{}, false
}

// Is reports whether the instance is, or contains a partial record of, typ.
func (e *Entity) Is(typ string) bool {
	_, ok := e.Record(typ)
	return ok
}

// Header holds the three mandatory header entities.
type Header struct {
	Description         []string `json:"description" yaml:"description"`
	ImplementationLevel string   `json:"implementation_level" yaml:"implementation_level"`
	Name                string   `json:"name" yaml:"name"`
	TimeStamp           string   `json:"time_stamp" yaml:"time_stamp"`
	Author              []string `json:"author" yaml:"author"`
	Organization        []string `json:"organization" yaml:"organization"`
	PreprocessorVersion string   `json:"preprocessor_version" yaml:"preprocessor_version"`
	OriginatingSystem   string   `json:"originating_system" yaml:"originating_system"`
	Authorization       string   `json:"authorization" yaml:"authorization"`
	Schemas             []string `json:"schemas" yaml:"schemas"`
}

// File is a parsed exchange structure.
type File struct {
	Header   Header
	Entities map[int]*Entity
}

// Get returns the instance with the given id.
func (f *File) Get(id int) (*Entity, bool) {
	e, ok := f.Entities[id]
	return e, ok
}

// IDs returns all instance ids in ascending order.
func (f *File) IDs() []int {
	ids := make([]int, 0, len(f.Entities))
	for id := range f.Entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// OfType returns the ids of instances that are, or contain, typ, in
// ascending order.
func (f *File) OfType(typ string) []int {
	var ids []int
	for _, id := range f.IDs() {
		if f.Entities[id].Is(typ) {
			ids = append(ids, id)
		}
	}
	return ids
}

// TypeCounts returns the number of instances per entity type. Complex
// instances count once per partial record.
func (f *File) TypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range f.Entities {
		for _, r := range e.Records {
			counts[r.Type]++
		}
	}
	return counts
}

// References returns, for every instance, the ids of the instances that
// refer to it, in ascending order.
func (f *File) References() map[int][]int {
	refs := make(map[int][]int)
	for _, id := range f.IDs() {
		for _, r := range f.Entities[id].Records {
			for _, p := range r.Params {
				walkRefs(p, func(target int) {
					if r := refs[target]; len(r) > 0 && r[len(r)-1] == id {
						return
					}
					refs[target] = append(refs[target], id)
				})
			}
		}
	}
	return refs
}

func walkRefs(v Value, fn func(int)) {
	switch v.Kind {
	case Ref:
		fn(v.Ref)
	case List:
		for _, e := range v.List {
			walkRefs(e, fn)
		}
	case Typed:
		if v.Inner != nil {
			walkRefs(*v.Inner, fn)
		}
	}
}
