package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/trezcool/escolar/core"
)

var (
	// errors
	ErrTemplateNotFound = errors.New("report template not found")
	ErrDateRange        = errors.New("fecha_desde must not be after fecha_hasta")
)

// NotRecorded marks a derived field whose source data is unavailable.
// It is distinct from a legitimate zero.
const NotRecorded = "No registrado"

// EntityKind identifies a collection served by the persistence provider.
type EntityKind string

const (
	KindAlumnos        EntityKind = "alumnos"
	KindEntrevistas    EntityKind = "entrevistas"
	KindAsistencias    EntityKind = "asistencias"
	KindIntervenciones EntityKind = "intervenciones"
	KindEntregas       EntityKind = "entregas_recursos"
	KindNotas          EntityKind = "notas"
	KindConducta       EntityKind = "conducta"
	KindTestVocacional EntityKind = "test_vocacional"
)

// EntityRecord is a flat field → scalar snapshot of an upstream row.
// The engine treats records as immutable for the duration of a report run.
type EntityRecord map[string]interface{}

// Str returns the record field coerced to a string ("" when absent).
func (rec EntityRecord) Str(key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Float returns the record field coerced to a float64.
func (rec EntityRecord) Float(key string) (float64, bool) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(val), 64)
		return f, err == nil
	}
	return 0, false
}

// Bool returns the record field coerced to a bool.
func (rec EntityRecord) Bool(key string) (bool, bool) {
	v, ok := rec[key]
	if !ok || v == nil {
		return false, false
	}
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(val)
		return b, err == nil
	case int, int32, int64:
		f, _ := rec.Float(key)
		return f != 0, true
	}
	return false, false
}

var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
}

// Time returns the record field parsed as a timestamp.
func (rec EntityRecord) Time(key string) (time.Time, bool) {
	v, ok := rec[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	s := rec.Str(key)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ID returns the record's unique id within its collection.
func (rec EntityRecord) ID() string { return rec.Str("id") }

// Clone returns a shallow copy. Mutating pipeline steps work on clones so the
// caller's snapshot is never touched.
func (rec EntityRecord) Clone() EntityRecord {
	cp := make(EntityRecord, len(rec))
	for k, v := range rec {
		cp[k] = v
	}
	return cp
}

// ReportKind classifies a report's shape.
type ReportKind string

const (
	Institutional ReportKind = "institucional" // one row per course group
	Individual    ReportKind = "individual"    // one row per student
	Attendance    ReportKind = "asistencia"    // one row per student, attendance metrics
	Custom        ReportKind = "personalizado" // Individual restricted to the template's columns
)

// FormatKind selects the value formatter applied by the renderer.
type FormatKind string

const (
	FormatDate     FormatKind = "date"
	FormatPercent  FormatKind = "percent"
	FormatAverage  FormatKind = "average"
	FormatCount    FormatKind = "count"
	FormatText     FormatKind = "text"
	FormatIdentity FormatKind = "identity"
)

// ColumnDescriptor describes a derivable report column.
type ColumnDescriptor struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Format FormatKind `json:"format"`
}

// Criteria holds the user-supplied report filters. Absence of a field means
// "no constraint". Dates use the YYYY-MM-DD wire format.
type Criteria struct {
	Course   string `json:"curso"`
	Status   string `json:"estado"`
	DateFrom string `json:"fecha_desde" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"fecha_hasta" validate:"omitempty,datetime=2006-01-02"`
}

func (c *Criteria) IsEmpty() bool {
	return c.Course == "" && c.Status == "" && c.DateFrom == "" && c.DateTo == ""
}

func (c *Criteria) Clean() {
	c.Course = core.CleanString(c.Course)
	c.Status = core.CleanString(c.Status)
	c.DateFrom = core.CleanString(c.DateFrom)
	c.DateTo = core.CleanString(c.DateTo)
}

// Validate checks field formats and the date-range invariant. A reversed
// range is a validation error, never silently corrected.
func (c *Criteria) Validate() error {
	c.Clean()
	if err := core.Validate.Struct(c); err != nil {
		return err
	}
	from, hasFrom := c.From()
	to, hasTo := c.To()
	if hasFrom && hasTo && from.After(to) {
		return core.NewValidationError(ErrDateRange,
			core.FieldError{Field: "fecha_desde", Error: ErrDateRange.Error()})
	}
	return nil
}

func (c *Criteria) From() (time.Time, bool) { return parseCriteriaDate(c.DateFrom) }
func (c *Criteria) To() (time.Time, bool)   { return parseCriteriaDate(c.DateTo) }

func parseCriteriaDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

// Template is a named, ordered list of column identifiers plus a raw report
// kind, controlling what a generated report contains. The engine only reads
// templates, except for the one-time auto-fill of default columns.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"nombre"`
	RawKind   string    `json:"tipo_reporte"`
	Columns   []string  `json:"columnas"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// ResolvedTemplate is a Template with its report kind decided and its column
// ids bound to catalog descriptors.
type ResolvedTemplate struct {
	Template Template
	Kind     ReportKind
	Columns  []ColumnDescriptor
}

// ColumnIDs returns the resolved column ids in template order.
func (rt ResolvedTemplate) ColumnIDs() []string {
	ids := make([]string, 0, len(rt.Columns))
	for _, col := range rt.Columns {
		ids = append(ids, col.ID)
	}
	return ids
}

// Row maps a column id to its consolidated (unformatted) value.
type Row map[string]interface{}

// Table is an assembled report ready for rendering. Warnings counts the
// partial-data substitutions made during synthesis.
type Table struct {
	Columns  []ColumnDescriptor
	Rows     []Row
	Warnings int
}

// Metadata feeds the rendered document's header and footer.
type Metadata struct {
	Title         string
	Establishment string
	GeneratedAt   time.Time
	Criteria      Criteria
	RowCount      int
	Warnings      int
}

// Document is a rendered, paginated report. The engine produces it; file I/O
// and delivery belong to the caller.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
	Pages       int
}

type (
	// EntityRepository is the persistence provider: it serves entity
	// collections and per-entity sub-collections as read-only snapshots.
	EntityRepository interface {
		QueryEntities(ctx context.Context, kind EntityKind) ([]EntityRecord, error)
		QuerySubRecords(ctx context.Context, entityID string, kind EntityKind) ([]EntityRecord, error)
	}

	// TemplateRepository is the template store.
	TemplateRepository interface {
		GetTemplate(ctx context.Context, id string) (Template, error)
		QueryAllTemplates(ctx context.Context) ([]Template, error)
		// SaveTemplate upserts by template id; it must be safe under retries.
		SaveTemplate(ctx context.Context, tpl Template) (Template, error)
	}

	// Renderer turns an assembled table into a paginated document.
	Renderer interface {
		Render(tbl Table, meta Metadata) (*Document, error)
	}
)
