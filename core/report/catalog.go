package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the Chilean day-month-year rendering of dates.
const DateLayout = "02-01-2006"

// catalog is the single registry of known report columns, shared by every
// consumer (preview, export) so labels and formats never diverge.
var catalog = map[string]ColumnDescriptor{
	"nombre":                {ID: "nombre", Label: "Nombre", Format: FormatIdentity},
	"rut":                   {ID: "rut", Label: "RUT", Format: FormatIdentity},
	"curso":                 {ID: "curso", Label: "Curso", Format: FormatText},
	"estado":                {ID: "estado", Label: "Estado", Format: FormatText},
	"fecha_registro":        {ID: "fecha_registro", Label: "Fecha de Registro", Format: FormatDate},
	"dias_presente":         {ID: "dias_presente", Label: "Días Presente", Format: FormatCount},
	"dias_ausente":          {ID: "dias_ausente", Label: "Días Ausente", Format: FormatCount},
	"total_dias":            {ID: "total_dias", Label: "Total Días", Format: FormatCount},
	"porcentaje_asistencia": {ID: "porcentaje_asistencia", Label: "% Asistencia", Format: FormatPercent},
	"promedio_notas":        {ID: "promedio_notas", Label: "Promedio de Notas", Format: FormatAverage},
	"promedio_conducta":     {ID: "promedio_conducta", Label: "Promedio de Conducta", Format: FormatAverage},
	"entrevistas":           {ID: "entrevistas", Label: "Entrevistas", Format: FormatCount},
	"intervenciones":        {ID: "intervenciones", Label: "Intervenciones", Format: FormatCount},
	"entregas_recursos":     {ID: "entregas_recursos", Label: "Entregas de Recursos", Format: FormatCount},
	"test_vocacional":       {ID: "test_vocacional", Label: "Test Vocacional", Format: FormatText},
	"total_alumnos":         {ID: "total_alumnos", Label: "Total Alumnos", Format: FormatCount},
	"activos":               {ID: "activos", Label: "Activos", Format: FormatCount},
	"inactivos":             {ID: "inactivos", Label: "Inactivos", Format: FormatCount},
	"observaciones":         {ID: "observaciones", Label: "Observaciones", Format: FormatText},
}

// LookupColumn returns the descriptor for a column id. Unknown ids fall back
// to identity formatting with the raw id as label.
func LookupColumn(id string) ColumnDescriptor {
	if desc, ok := catalog[id]; ok {
		return desc
	}
	return ColumnDescriptor{ID: id, Label: id, Format: FormatIdentity}
}

// CatalogColumns binds an ordered column id list to its descriptors.
func CatalogColumns(ids []string) []ColumnDescriptor {
	cols := make([]ColumnDescriptor, 0, len(ids))
	for _, id := range ids {
		cols = append(cols, LookupColumn(id))
	}
	return cols
}

// FormatValue renders a consolidated value according to the column's format
// kind. A nil value or the NotRecorded sentinel renders as the sentinel.
func FormatValue(desc ColumnDescriptor, v interface{}, maxTextLen int) string {
	if v == nil {
		return NotRecorded
	}
	if s, ok := v.(string); ok && s == NotRecorded {
		return NotRecorded
	}

	switch desc.Format {
	case FormatDate:
		if t, ok := v.(time.Time); ok {
			return t.Format(DateLayout)
		}
		if t, ok := (EntityRecord{"v": v}).Time("v"); ok {
			return t.Format(DateLayout)
		}
		return NotRecorded
	case FormatPercent:
		if f, ok := toFloat(v); ok {
			return strconv.Itoa(int(f+0.5)) + "%"
		}
		return NotRecorded
	case FormatAverage:
		if f, ok := toFloat(v); ok {
			return strconv.FormatFloat(f, 'f', 1, 64)
		}
		return NotRecorded
	case FormatCount:
		if f, ok := toFloat(v); ok {
			return strconv.Itoa(int(f + 0.5))
		}
		return NotRecorded
	case FormatText:
		return truncate(stringify(v), maxTextLen)
	case FormatIdentity:
		return strings.ToUpper(stringify(v))
	}
	return stringify(v)
}

func toFloat(v interface{}) (float64, bool) {
	return (EntityRecord{"v": v}).Float("v")
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
