package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/escolar/core"
	"github.com/trezcool/escolar/core/report"
)

// EntitySeeder is implemented by the dummy entity repository.
type EntitySeeder interface {
	SeedEntity(kind report.EntityKind, rec report.EntityRecord)
	SeedSubRecord(entityID string, kind report.EntityKind, rec report.EntityRecord)
}

func NewConfig() *core.Config {
	return &core.Config{
		TestMode: true,
		Env:      "TEST",
		AppName:  "Escolar",
		Report: core.ReportConfig{
			RowsPerPage:   28,
			MaxTextLen:    40,
			Establishment: "Liceo Municipal",
		},
	}
}

// Logger routes engine logs to the test log.
type Logger struct {
	T *testing.T
}

var _ core.Logger = (*Logger)(nil)

func (l Logger) log(level, msg string, args []interface{}) {
	l.T.Helper()
	l.T.Logf("%s: %s %v", level, msg, args)
}

func (l Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

func SeedStudent(
	t *testing.T,
	seeder EntitySeeder,
	id, name, rut, course, status string,
	registered ...time.Time,
) report.EntityRecord {
	t.Helper()
	rec := report.EntityRecord{
		"id":     id,
		"nombre": name,
		"rut":    rut,
		"curso":  course,
		"estado": status,
	}
	if len(registered) > 0 {
		rec["fecha_registro"] = registered[0].Format("2006-01-02")
	}
	seeder.SeedEntity(report.KindAlumnos, rec)
	return rec
}

func SeedAttendance(t *testing.T, seeder EntitySeeder, studentID, mark string, date time.Time) {
	t.Helper()
	seeder.SeedSubRecord(studentID, report.KindAsistencias, report.EntityRecord{
		"alumno_id": studentID,
		"estado":    mark,
		"fecha":     date.Format("2006-01-02"),
	})
}

func SeedNota(t *testing.T, seeder EntitySeeder, studentID string, kind report.EntityKind, nota float64) {
	t.Helper()
	seeder.SeedSubRecord(studentID, kind, report.EntityRecord{
		"alumno_id": studentID,
		"nota":      nota,
	})
}

func SeedSub(t *testing.T, seeder EntitySeeder, studentID string, kind report.EntityKind) {
	t.Helper()
	seeder.SeedSubRecord(studentID, kind, report.EntityRecord{"alumno_id": studentID})
}

func SaveTemplate(
	t *testing.T,
	repo report.TemplateRepository,
	name, rawKind string,
	columns []string,
) report.Template {
	t.Helper()
	tpl, err := repo.SaveTemplate(context.Background(), report.Template{
		Name:    name,
		RawKind: rawKind,
		Columns: columns,
	})
	if err != nil {
		t.Fatalf("SaveTemplate() failed: %v", err)
	}
	return tpl
}
