package report

import (
	"testing"
	"time"

	"github.com/trezcool/escolar/core"
)

func Test_Criteria_Validate(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		wantErr  bool
	}{
		{name: "empty is valid", criteria: Criteria{}},
		{name: "full set valid", criteria: Criteria{Course: "1A", Status: "activo", DateFrom: "2026-03-01", DateTo: "2026-03-31"}},
		{name: "whitespace cleaned", criteria: Criteria{Course: "  1A  "}},
		{name: "bad date format", criteria: Criteria{DateFrom: "01-03-2026"}, wantErr: true},
		{name: "not a date", criteria: Criteria{DateTo: "pronto"}, wantErr: true},
		{name: "reversed range", criteria: Criteria{DateFrom: "2026-04-01", DateTo: "2026-03-01"}, wantErr: true},
		{name: "equal bounds valid", criteria: Criteria{DateFrom: "2026-03-01", DateTo: "2026-03-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.criteria.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_Criteria_Validate_reversedRange(t *testing.T) {
	criteria := Criteria{DateFrom: "2026-04-01", DateTo: "2026-03-01"}
	err := criteria.Validate()
	if !core.IsValidationError(err) {
		t.Fatalf("Validate() error = %v, want validation error", err)
	}
}

func Test_EntityRecord_coercions(t *testing.T) {
	rec := EntityRecord{
		"id":      123,
		"nombre":  "Ana",
		"nota":    "6.5",
		"activo":  "true",
		"fecha":   "15-03-2026",
		"nothing": nil,
	}

	if got := rec.ID(); got != "123" {
		t.Errorf("ID() = %q, want %q", got, "123")
	}
	if f, ok := rec.Float("nota"); !ok || f != 6.5 {
		t.Errorf("Float(nota) = %v, %v", f, ok)
	}
	if b, ok := rec.Bool("activo"); !ok || !b {
		t.Errorf("Bool(activo) = %v, %v", b, ok)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if ts, ok := rec.Time("fecha"); !ok || !ts.Equal(want) {
		t.Errorf("Time(fecha) = %v, %v", ts, ok)
	}
	if got := rec.Str("nothing"); got != "" {
		t.Errorf("Str(nothing) = %q, want empty", got)
	}
	if _, ok := rec.Float("nombre"); ok {
		t.Error("Float(nombre) parsed a name")
	}
}

func Test_EntityRecord_Clone(t *testing.T) {
	rec := EntityRecord{"id": "1", "curso": "1A"}
	cp := rec.Clone()
	cp["curso"] = "2B"
	if rec.Str("curso") != "1A" {
		t.Error("Clone() shares storage with its source")
	}
}
