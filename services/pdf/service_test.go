package pdfsvc

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/escolar/core/report"
	"github.com/trezcool/escolar/tests"
)

var generatedAt = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func renderTable(t *testing.T, rowCount int) *report.Document {
	t.Helper()
	svc := NewService(testutil.NewConfig())

	cols := report.CatalogColumns([]string{"nombre", "curso", "estado"})
	rows := make([]report.Row, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		rows = append(rows, report.Row{
			"nombre": fmt.Sprintf("Alumno %d", i+1),
			"curso":  "1° Medio A",
			"estado": "activo",
		})
	}
	meta := report.Metadata{
		Title:         "Reporte General",
		Establishment: "Liceo Municipal",
		GeneratedAt:   generatedAt,
		RowCount:      rowCount,
	}

	doc, err := svc.Render(report.Table{Columns: cols, Rows: rows}, meta)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	return doc
}

func Test_Service_Render(t *testing.T) {
	doc := renderTable(t, 5)

	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "Reporte_General_2026-03-15.pdf", doc.Filename)
	assert.Equal(t, 1, doc.Pages)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")), "content is not a PDF")
}

func Test_Service_Render_emptyTable(t *testing.T) {
	// zero matching records still yields a header-only document
	doc := renderTable(t, 0)

	assert.Equal(t, 1, doc.Pages)
	assert.NotEmpty(t, doc.Content)
}

func Test_Service_Render_paginates(t *testing.T) {
	// 28 rows per page: the 29th row opens a second page
	assert.Equal(t, 1, renderTable(t, 28).Pages)
	assert.Equal(t, 2, renderTable(t, 29).Pages)
}

func Test_criteriaSummary(t *testing.T) {
	assert.Equal(t, "ninguno", criteriaSummary(report.Criteria{}))

	full := report.Criteria{Course: "1° Medio A", Status: "activo", DateFrom: "2026-03-01", DateTo: "2026-03-31"}
	assert.Equal(t, "Curso: 1° Medio A · Estado: activo · Desde: 2026-03-01 · Hasta: 2026-03-31", criteriaSummary(full))
}
