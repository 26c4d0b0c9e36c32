package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/escolar/core"
)

type fakeEntityRepo struct {
	fakeSubs
	records []EntityRecord
	err     error
}

func (f *fakeEntityRepo) QueryEntities(_ context.Context, kind EntityKind) ([]EntityRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeRenderer struct {
	lastTable Table
	lastMeta  Metadata
	err       error
}

func (f *fakeRenderer) Render(tbl Table, meta Metadata) (*Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastTable = tbl
	f.lastMeta = meta
	return &Document{ContentType: "application/pdf", Content: []byte("%PDF"), Pages: 1}, nil
}

func testConfig() *core.Config {
	return &core.Config{
		TestMode: true,
		Report: core.ReportConfig{
			RowsPerPage:   28,
			MaxTextLen:    40,
			Establishment: "Liceo Municipal",
		},
	}
}

func Test_Service_Assemble(t *testing.T) {
	ctx := context.Background()
	entities := &fakeEntityRepo{records: []EntityRecord{
		{"id": "1", "nombre": "Ana", "curso": "1A", "estado": "activo", "fecha_registro": "2026-03-01", "telefono": "+56 9"},
		{"id": "2", "nombre": "Benito", "curso": "2B", "estado": "inactivo"},
	}}
	svc := NewService(testConfig(), entities, &fakeTemplateRepo{}, &fakeRenderer{}, nil)

	resolved, tbl, err := svc.Assemble(ctx, Criteria{}, "")
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}

	assert.Equal(t, Custom, resolved.Kind)
	assert.Len(t, tbl.Rows, 2)
	assert.Len(t, tbl.Columns, 4)

	// rows hold exactly the template's columns
	for _, row := range tbl.Rows {
		assert.Len(t, row, 4)
		assert.NotContains(t, row, "telefono")
	}
	assert.Equal(t, "Ana", tbl.Rows[0]["nombre"])
	assert.Equal(t, "1° Medio A", tbl.Rows[0]["curso"])
	// absent source field surfaces as the sentinel
	assert.Equal(t, NotRecorded, tbl.Rows[1]["fecha_registro"])
}

func Test_Service_Assemble_failures(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid criteria", func(t *testing.T) {
		svc := NewService(testConfig(), &fakeEntityRepo{}, &fakeTemplateRepo{}, &fakeRenderer{}, nil)
		_, _, err := svc.Assemble(ctx, Criteria{DateFrom: "2026-04-01", DateTo: "2026-03-01"}, "")
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("entity store down", func(t *testing.T) {
		entities := &fakeEntityRepo{err: assert.AnError}
		svc := NewService(testConfig(), entities, &fakeTemplateRepo{}, &fakeRenderer{}, nil)
		_, _, err := svc.Assemble(ctx, Criteria{}, "")
		assert.True(t, core.IsCollaboratorError(err))
	})
}

func Test_Service_GenerateReport(t *testing.T) {
	ctx := context.Background()
	entities := &fakeEntityRepo{records: []EntityRecord{
		{"id": "1", "nombre": "Ana", "curso": "1A", "estado": "activo", "fecha_registro": "2026-03-01"},
	}}
	renderer := &fakeRenderer{}
	svc := NewService(testConfig(), entities, &fakeTemplateRepo{}, renderer, nil)
	svc.nowFunc = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	doc, err := svc.GenerateReport(ctx, Criteria{Status: "activo"}, "")
	if err != nil {
		t.Fatalf("GenerateReport() failed: %v", err)
	}

	assert.Equal(t, "Reporte_General_2026-03-15", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "Reporte General", renderer.lastMeta.Title)
	assert.Equal(t, "Liceo Municipal", renderer.lastMeta.Establishment)
	assert.Equal(t, 1, renderer.lastMeta.RowCount)
	assert.Equal(t, "activo", renderer.lastMeta.Criteria.Status)

	t.Run("renderer failure is a collaborator error", func(t *testing.T) {
		svc := NewService(testConfig(), entities, &fakeTemplateRepo{}, &fakeRenderer{err: assert.AnError}, nil)
		_, err := svc.GenerateReport(ctx, Criteria{}, "")
		assert.True(t, core.IsCollaboratorError(err))
	})
}

func Test_SuggestedFilename(t *testing.T) {
	at := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Reporte_Mensual_General_2026-03-15", SuggestedFilename("Reporte Mensual General", at))
	assert.Equal(t, "reporte_2026-03-15", SuggestedFilename("  ", at))
}
