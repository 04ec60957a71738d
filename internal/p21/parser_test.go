// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package p21

import (
	"errors"
	"strings"
	"testing"
)

const sampleFile = `ISO-10303-21;
HEADER;
/* generated by hand */
FILE_DESCRIPTION(('sample part'),'2;1');
FILE_NAME('bracket.stp','2026-01-02T03:04:05',('J. Doe'),('Mesh'),'pp 1.0','CAD 9',' ');
FILE_SCHEMA(('AUTOMOTIVE_DESIGN { 1 0 10303 214 1 1 1 1 }'));
ENDSEC;
DATA;
#1=CARTESIAN_POINT('origin',(0.,0.,-1.5E-3));
#2=DIRECTION('',(0.,0.,1.));
#3=AXIS2_PLACEMENT_3D('',#1,#2,$);
#4=(LENGTH_UNIT()NAMED_UNIT(*)SI_UNIT(.MILLI.,.METRE.));
#5=PLANE_ANGLE_MEASURE_WITH_UNIT(PLANE_ANGLE_MEASURE(0.0174532925),#6);
#6=(NAMED_UNIT(*)PLANE_ANGLE_UNIT()SI_UNIT($,.RADIAN.));
#7=PRODUCT('it''s','Gr\X2\00FC\X0\nwald','',(#8));
#8=B_SPLINE_CURVE_WITH_KNOTS('',1,(#1,#1),.UNSPECIFIED.,.F.,.F.,(2,2),(0.,1.),.UNSPECIFIED.);
ENDSEC;
END-ISO-10303-21;
`

func TestParseSample(t *testing.T) {
	f, err := Parse([]byte(sampleFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := f.Header.Name; got != "bracket.stp" {
		t.Errorf("Header.Name = %q, want bracket.stp", got)
	}
	if len(f.Header.Schemas) != 1 || !strings.HasPrefix(f.Header.Schemas[0], "AUTOMOTIVE_DESIGN") {
		t.Errorf("Header.Schemas = %v", f.Header.Schemas)
	}
	if got := f.Header.OriginatingSystem; got != "CAD 9" {
		t.Errorf("Header.OriginatingSystem = %q", got)
	}
	if len(f.Entities) != 8 {
		t.Fatalf("len(Entities) = %d, want 8", len(f.Entities))
	}

	pt, _ := f.Get(1)
	if pt.Type() != "CARTESIAN_POINT" {
		t.Errorf("#1 type = %q", pt.Type())
	}
	coords := pt.Records[0].Params[1].List
	if z, _ := coords[2].Float(); z != -1.5e-3 {
		t.Errorf("#1 z = %v, want -0.0015", z)
	}

	place, _ := f.Get(3)
	if !place.Records[0].Params[3].IsNull() {
		t.Errorf("#3 ref_direction should be omitted")
	}

	unit, _ := f.Get(4)
	if !unit.Complex() || unit.Type() != "" {
		t.Errorf("#4 should be complex")
	}
	si, ok := unit.Record("SI_UNIT")
	if !ok {
		t.Fatal("#4 missing SI_UNIT record")
	}
	if si.Params[0].Kind != Enum || si.Params[0].Str != "MILLI" {
		t.Errorf("SI_UNIT prefix = %v", si.Params[0])
	}

	measure, _ := f.Get(5)
	typed := measure.Records[0].Params[0]
	if typed.Kind != Typed || typed.Str != "PLANE_ANGLE_MEASURE" {
		t.Fatalf("typed param = %v", typed)
	}
	if v, ok := typed.Float(); !ok || v != 0.0174532925 {
		t.Errorf("typed Float = %v, %v", v, ok)
	}

	product, _ := f.Get(7)
	if got := product.Records[0].Params[0].Str; got != "it's" {
		t.Errorf("escaped apostrophe = %q", got)
	}
	if got := product.Records[0].Params[1].Str; got != "Grünwald" {
		t.Errorf("X2 directive = %q", got)
	}

	if got := f.OfType("NAMED_UNIT"); len(got) != 2 || got[0] != 4 || got[1] != 6 {
		t.Errorf("OfType(NAMED_UNIT) = %v", got)
	}
	if got := f.References()[1]; len(got) != 2 || got[0] != 3 || got[1] != 8 {
		t.Errorf("References()[1] = %v, want [3 8]", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:    "corrupted header",
			input:   "ISO-1O3O3-21;\nHEADER;ENDSEC;DATA;ENDSEC;END-ISO-10303-21;",
			wantMsg: "not an ISO-10303-21",
		},
		{
			name:    "empty input",
			input:   "",
			wantMsg: "not an ISO-10303-21",
		},
		{
			name:    "missing data section",
			input:   "ISO-10303-21;HEADER;ENDSEC;END-ISO-10303-21;",
			wantMsg: "missing DATA",
		},
		{
			name:    "unterminated string",
			input:   "ISO-10303-21;HEADER;ENDSEC;DATA;#1=PRODUCT('abc);ENDSEC;END-ISO-10303-21;",
			wantMsg: "unterminated string",
		},
		{
			name:    "duplicate instance",
			input:   "ISO-10303-21;HEADER;ENDSEC;DATA;#1=A();#1=B();ENDSEC;END-ISO-10303-21;",
			wantMsg: "duplicate instance #1",
		},
		{
			name:    "missing semicolon",
			input:   "ISO-10303-21;HEADER;ENDSEC;DATA;#1=A()#2=B();ENDSEC;END-ISO-10303-21;",
			wantMsg: "expected ';'",
		},
		{
			name:    "unterminated comment",
			input:   "ISO-10303-21;/* oops",
			wantMsg: "unterminated comment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not a *SyntaxError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestDecodeString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`plain`, "plain"},
		{`back\\slash`, `back\slash`},
		{`\X\E9t\X\E9`, "été"},
		{`\S\i`, "é"},
		{`\X2\03B103B2\X0\`, "αβ"},
		{`\X4\0001F600\X0\`, "😀"},
		{`\PB\\S\1`, "ą"},
		{`Grüße`, "Grüße"},
	}
	for _, tt := range tests {
		got, err := decodeString(tt.raw)
		if err != nil {
			t.Errorf("decodeString(%q): %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("decodeString(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}

	if _, err := decodeString(`\X2\00E`); err == nil {
		t.Error("expected error for unterminated \\X2\\ directive")
	}
}
