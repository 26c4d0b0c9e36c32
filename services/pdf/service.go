package pdfsvc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/trezcool/escolar/core"
	"github.com/trezcool/escolar/core/report"
)

const contentType = "application/pdf"

// Service renders assembled report tables as paginated A4 PDF documents.
type Service struct {
	conf *core.Config
}

var _ report.Renderer = (*Service)(nil) // interface compliance check

func NewService(conf *core.Config) *Service {
	return &Service{conf: conf}
}

func (svc *Service) Render(tbl report.Table, meta report.Metadata) (*report.Document, error) {
	orientation := "P"
	if len(tbl.Columns) > 6 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	svc.renderHeader(pdf, tr, meta)

	colWidths := svc.columnWidths(pdf, len(tbl.Columns))
	if len(tbl.Rows) > 0 {
		svc.renderTableHeader(pdf, tr, tbl.Columns, colWidths)

		rowsPerPage := svc.conf.Report.RowsPerPage
		if rowsPerPage <= 0 {
			rowsPerPage = 28
		}
		for i, row := range tbl.Rows {
			if i > 0 && i%rowsPerPage == 0 {
				pdf.AddPage()
				svc.renderTableHeader(pdf, tr, tbl.Columns, colWidths)
			}
			svc.renderRow(pdf, tr, tbl.Columns, colWidths, row, i%2 == 0)
		}
	} else {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.Cell(0, 10, tr("Sin registros para los filtros aplicados."))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &report.Document{
		Filename:    report.SuggestedFilename(meta.Title, meta.GeneratedAt) + ".pdf",
		ContentType: contentType,
		Content:     buf.Bytes(),
		Pages:       pdf.PageCount(),
	}, nil
}

func (svc *Service) renderHeader(pdf *gofpdf.Fpdf, tr func(string) string, meta report.Metadata) {
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 8, tr(strings.ToUpper(svc.conf.Report.Establishment)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 7, tr(meta.Title))
	pdf.Ln(8)

	pdf.SetDrawColor(40, 145, 108)
	pdf.SetLineWidth(0.5)
	left, _, right, _ := pdf.GetMargins()
	w, _ := pdf.GetPageSize()
	pdf.Line(left, pdf.GetY(), w-right, pdf.GetY())
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 5, tr("Generado el: "+meta.GeneratedAt.Format("02-01-2006 15:04")))
	pdf.Ln(4)
	pdf.Cell(0, 5, tr("Filtros: "+criteriaSummary(meta.Criteria)))
	pdf.Ln(4)
	summary := fmt.Sprintf("%d registros", meta.RowCount)
	if meta.Warnings > 0 {
		summary += fmt.Sprintf(" · %d campos sin registro", meta.Warnings)
	}
	pdf.Cell(0, 5, tr(summary))
	pdf.Ln(7)
}

func (svc *Service) columnWidths(pdf *gofpdf.Fpdf, n int) []float64 {
	if n == 0 {
		return nil
	}
	left, _, right, _ := pdf.GetMargins()
	w, _ := pdf.GetPageSize()
	usable := w - left - right
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = usable / float64(n)
	}
	return widths
}

func (svc *Service) renderTableHeader(pdf *gofpdf.Fpdf, tr func(string) string, cols []report.ColumnDescriptor, widths []float64) {
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(40, 145, 108)
	pdf.SetTextColor(255, 255, 255)
	for i, col := range cols {
		last := i == len(cols)-1
		ln := 0
		if last {
			ln = 1
		}
		pdf.CellFormat(widths[i], 8, tr(col.Label), "1", ln, "L", true, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

func (svc *Service) renderRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []report.ColumnDescriptor, widths []float64, row report.Row, fill bool) {
	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(245, 245, 245)
	for i, col := range cols {
		last := i == len(cols)-1
		ln := 0
		if last {
			ln = 1
		}
		val := report.FormatValue(col, row[col.ID], svc.conf.Report.MaxTextLen)
		pdf.CellFormat(widths[i], 7, tr(val), "1", ln, "L", fill, 0, "")
	}
}

func criteriaSummary(c report.Criteria) string {
	var parts []string
	if c.Course != "" {
		parts = append(parts, "Curso: "+c.Course)
	}
	if c.Status != "" {
		parts = append(parts, "Estado: "+c.Status)
	}
	if c.DateFrom != "" {
		parts = append(parts, "Desde: "+c.DateFrom)
	}
	if c.DateTo != "" {
		parts = append(parts, "Hasta: "+c.DateTo)
	}
	if len(parts) == 0 {
		return "ninguno"
	}
	return strings.Join(parts, " · ")
}
