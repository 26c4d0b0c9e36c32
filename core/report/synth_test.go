package report

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

type fakeSubs struct {
	subs map[string]map[EntityKind][]EntityRecord
	err  error
}

func (f *fakeSubs) QuerySubRecords(_ context.Context, entityID string, kind EntityKind) ([]EntityRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subs[entityID][kind], nil
}

func subsFor(id string, kind EntityKind, recs ...EntityRecord) *fakeSubs {
	return &fakeSubs{subs: map[string]map[EntityKind][]EntityRecord{
		id: {kind: recs},
	}}
}

func Test_Synthesizer_attendance(t *testing.T) {
	ctx := context.Background()
	records := []EntityRecord{{"id": "1", "nombre": "Ana", "curso": "1A"}}

	t.Run("marks tally and percentage", func(t *testing.T) {
		subs := subsFor("1", KindAsistencias,
			EntityRecord{"estado": "presente"},
			EntityRecord{"estado": "Presente"},
			EntityRecord{"estado": "ausente"},
			EntityRecord{"estado": "atrasado"}, // any non-presente mark is an absence
		)
		rows, warnings, err := NewSynthesizer(subs, nil).Synthesize(ctx, records, Attendance, nil)
		if err != nil {
			t.Fatalf("Synthesize() failed: %v", err)
		}
		if warnings != 0 {
			t.Errorf("Synthesize() warnings = %d, want 0", warnings)
		}
		if len(rows) != 1 {
			t.Fatalf("Synthesize() returned %d rows, want 1", len(rows))
		}
		row := rows[0]
		present, absent, total := row["dias_presente"].(int), row["dias_ausente"].(int), row["total_dias"].(int)
		if present != 2 || absent != 2 {
			t.Errorf("tally = (%d, %d), want (2, 2)", present, absent)
		}
		if present+absent != total {
			t.Errorf("dias_presente + dias_ausente = %d, want total_dias %d", present+absent, total)
		}
		pct := row["porcentaje_asistencia"].(float64)
		if pct < 0 || pct > 100 {
			t.Errorf("porcentaje_asistencia = %v out of range", pct)
		}
		if pct != 50 {
			t.Errorf("porcentaje_asistencia = %v, want 50", pct)
		}
	})

	t.Run("no marks is zero percent", func(t *testing.T) {
		rows, _, err := NewSynthesizer(&fakeSubs{}, nil).Synthesize(ctx, records, Attendance, nil)
		if err != nil {
			t.Fatalf("Synthesize() failed: %v", err)
		}
		row := rows[0]
		if row["total_dias"].(int) != 0 || row["porcentaje_asistencia"].(float64) != 0 {
			t.Errorf("empty attendance row = %v, want zero counts", row)
		}
	})

	t.Run("record without id gets sentinels", func(t *testing.T) {
		noID := []EntityRecord{{"nombre": "Sin Id", "curso": "1A"}}
		rows, warnings, err := NewSynthesizer(&fakeSubs{}, nil).Synthesize(ctx, noID, Attendance, nil)
		if err != nil {
			t.Fatalf("Synthesize() failed: %v", err)
		}
		if rows[0]["porcentaje_asistencia"] != NotRecorded {
			t.Errorf("porcentaje_asistencia = %v, want sentinel", rows[0]["porcentaje_asistencia"])
		}
		if warnings == 0 {
			t.Error("Synthesize() warnings = 0, want substitutions counted")
		}
	})

	t.Run("transport failure is fatal", func(t *testing.T) {
		subs := &fakeSubs{err: errors.New("connection refused")}
		if _, _, err := NewSynthesizer(subs, nil).Synthesize(ctx, records, Attendance, nil); err == nil {
			t.Error("Synthesize() expected error, got nil")
		}
	})
}

func Test_Synthesizer_individual(t *testing.T) {
	ctx := context.Background()
	records := []EntityRecord{{"id": "1", "nombre": "Ana", "curso": "1medio a", "estado": "activo"}}
	columns := []string{"nombre", "curso", "promedio_notas", "promedio_conducta", "entrevistas", "test_vocacional"}

	t.Run("grade average over nota field", func(t *testing.T) {
		subs := &fakeSubs{subs: map[string]map[EntityKind][]EntityRecord{
			"1": {
				KindNotas:       {{"nota": 6.0}, {"nota": 7.0}},
				KindConducta:    {},
				KindEntrevistas: {{"id": "e1"}, {"id": "e2"}, {"id": "e3"}},
			},
		}}
		rows, warnings, err := NewSynthesizer(subs, nil).Synthesize(ctx, records, Individual, columns)
		if err != nil {
			t.Fatalf("Synthesize() failed: %v", err)
		}
		row := rows[0]
		if got := row["promedio_notas"].(float64); got != 6.5 {
			t.Errorf("promedio_notas = %v, want 6.5", got)
		}
		// empty conducta collection substitutes the sentinel
		if row["promedio_conducta"] != NotRecorded {
			t.Errorf("promedio_conducta = %v, want sentinel", row["promedio_conducta"])
		}
		if warnings != 1 {
			t.Errorf("Synthesize() warnings = %d, want 1", warnings)
		}
		if got := row["entrevistas"].(int); got != 3 {
			t.Errorf("entrevistas = %v, want 3", got)
		}
		// no test records yet
		if row["test_vocacional"] != "Pendiente" {
			t.Errorf("test_vocacional = %v, want Pendiente", row["test_vocacional"])
		}
		// identity fields carry over, course canonicalized
		if row[FieldCourse] != "1° Medio A" {
			t.Errorf("curso = %v, want canonical label", row[FieldCourse])
		}
	})

	t.Run("vocational test completion", func(t *testing.T) {
		subs := subsFor("1", KindTestVocacional, EntityRecord{"completado": true})
		rows, _, err := NewSynthesizer(subs, nil).Synthesize(ctx, records, Individual, []string{"test_vocacional"})
		if err != nil {
			t.Fatalf("Synthesize() failed: %v", err)
		}
		if rows[0]["test_vocacional"] != "Completado" {
			t.Errorf("test_vocacional = %v, want Completado", rows[0]["test_vocacional"])
		}
	})

	t.Run("unrequested metrics are not computed", func(t *testing.T) {
		subs := &fakeSubs{err: errors.New("must not be queried")}
		rows, _, err := NewSynthesizer(subs, nil).Synthesize(ctx, records, Individual, []string{"nombre", "curso"})
		if err != nil {
			t.Fatalf("Synthesize() failed: %v", err)
		}
		if _, ok := rows[0]["promedio_notas"]; ok {
			t.Error("promedio_notas computed without being requested")
		}
	})
}

func Test_Synthesizer_institutional(t *testing.T) {
	ctx := context.Background()
	// spelling variants of the same course group together
	records := []EntityRecord{
		{"id": "1", "nombre": "Ana", "curso": "1° Medio A", "estado": "activo"},
		{"id": "2", "nombre": "Benito", "curso": "1 medio a", "estado": "inactivo"},
		{"id": "3", "nombre": "Carla", "curso": "2° Medio B", "estado": "activo"},
	}
	columns := []string{"curso", "total_alumnos", "activos", "inactivos", "porcentaje_asistencia"}

	subs := &fakeSubs{subs: map[string]map[EntityKind][]EntityRecord{
		"1": {KindAsistencias: {{"estado": "presente"}, {"estado": "ausente"}}},
		"2": {KindAsistencias: {{"estado": "presente"}}},
	}}
	rows, warnings, err := NewSynthesizer(subs, nil).Synthesize(ctx, records, Institutional, columns)
	if err != nil {
		t.Fatalf("Synthesize() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Synthesize() returned %d groups, want 2", len(rows))
	}

	first, second := rows[0], rows[1]
	if first[FieldCourse] != "1° Medio A" || second[FieldCourse] != "2° Medio B" {
		t.Fatalf("groups out of order: %v, %v", first[FieldCourse], second[FieldCourse])
	}
	if first["total_alumnos"].(int) != 2 || first["activos"].(int) != 1 || first["inactivos"].(int) != 1 {
		t.Errorf("1° Medio A counts = %v", first)
	}
	// mean of member percentages: (50 + 100) / 2
	if got := first["porcentaje_asistencia"].(float64); got != 75 {
		t.Errorf("porcentaje_asistencia = %v, want 75", got)
	}
	// a group with no attendance marks gets the sentinel, counted as a warning
	if second["porcentaje_asistencia"] != NotRecorded {
		t.Errorf("2° Medio B porcentaje_asistencia = %v, want sentinel", second["porcentaje_asistencia"])
	}
	if warnings != 1 {
		t.Errorf("Synthesize() warnings = %d, want 1", warnings)
	}
}
