package report

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/escolar/core"
)

// minimum similarity ratio for a template name to count as a well-known one
const nameMaxSim = 0.9

// well-known template names whose empty column lists are auto-filled
const (
	TemplateMensualGeneral  = "Reporte Mensual General"
	TemplateAsistencia      = "Reporte de Asistencia"
	TemplateFichaIndividual = "Ficha Individual del Alumno"
)

// DefaultTemplateColumns returns the auto-fill column lists for the
// well-known template names. Injected into the Resolver so deployments can
// override it without touching resolver logic.
func DefaultTemplateColumns() map[string][]string {
	return map[string][]string{
		TemplateMensualGeneral: {
			"curso", "total_alumnos", "activos", "inactivos",
			"porcentaje_asistencia", "entrevistas", "intervenciones", "entregas_recursos",
		},
		TemplateAsistencia: {
			"nombre", "curso", "dias_presente", "dias_ausente", "total_dias", "porcentaje_asistencia",
		},
		TemplateFichaIndividual: {
			"nombre", "rut", "curso", "estado", "promedio_notas", "promedio_conducta",
			"entrevistas", "intervenciones", "entregas_recursos", "test_vocacional",
		},
	}
}

// builtinTemplate is served when no template id is supplied: reports must
// always be produced, even unconfigured.
func builtinTemplate() Template {
	return Template{
		Name:    "Reporte General",
		RawKind: string(Custom),
		Columns: []string{"nombre", "curso", "estado", "fecha_registro"},
	}
}

// Resolver looks templates up in the store, heals empty well-known templates
// and decides each template's report kind.
type Resolver struct {
	store    TemplateRepository
	defaults map[string][]string
	log      core.Logger
}

func NewResolver(store TemplateRepository, defaults map[string][]string, log core.Logger) *Resolver {
	return &Resolver{store: store, defaults: defaults, log: log}
}

// Resolve returns the template's ordered columns bound to catalog descriptors
// and its report kind.
//
// A well-known template found with an empty column list is auto-filled from
// the injected defaults and persisted back (idempotent: once filled, the
// write-back never fires again). An absent template id resolves to a built-in
// default rather than failing.
func (r *Resolver) Resolve(ctx context.Context, templateID string) (ResolvedTemplate, error) {
	var tpl Template

	if templateID == "" {
		tpl = builtinTemplate()
	} else {
		var err error
		tpl, err = r.store.GetTemplate(ctx, templateID)
		if errors.Is(err, ErrTemplateNotFound) {
			if r.log != nil {
				r.log.Warn("report: plantilla no encontrada, usando plantilla por defecto", templateID)
			}
			tpl = builtinTemplate()
		} else if err != nil {
			return ResolvedTemplate{}, core.NewCollaboratorError("template store", err)
		}
	}

	if len(tpl.Columns) == 0 {
		if cols, ok := r.defaultColumnsFor(tpl.Name); ok {
			tpl.Columns = cols
			tpl.UpdatedAt = time.Now().UTC()
			saved, err := r.store.SaveTemplate(ctx, tpl)
			if err != nil {
				return ResolvedTemplate{}, core.NewCollaboratorError("template store", err)
			}
			tpl = saved
		} else {
			// unknown template with no columns: fall back to the built-in
			// column list rather than producing an empty document
			tpl.Columns = builtinTemplate().Columns
		}
	}

	return ResolvedTemplate{
		Template: tpl,
		Kind:     resolveKind(tpl),
		Columns:  CatalogColumns(tpl.Columns),
	}, nil
}

func (r *Resolver) defaultColumnsFor(name string) ([]string, bool) {
	name = core.CleanString(name)
	for known, cols := range r.defaults {
		if strings.EqualFold(name, known) || nameRatio(name, known) >= nameMaxSim {
			// copy: the resolver must never share its defaults slice with a
			// stored template
			out := make([]string, len(cols))
			copy(out, cols)
			return out, true
		}
	}
	return nil, false
}

// nameRatio tolerates near-miss spellings of the well-known names (double
// spaces, dropped accents) observed in hand-entered templates.
func nameRatio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).QuickRatio()
}

// resolveKind infers the report kind by keyword. The explicit tipo_reporte
// field takes precedence over the template name; unclassifiable templates
// are Custom.
func resolveKind(tpl Template) ReportKind {
	if kind, ok := kindFromKeywords(tpl.RawKind); ok {
		return kind
	}
	if kind, ok := kindFromKeywords(tpl.Name); ok {
		return kind
	}
	return Custom
}

func kindFromKeywords(s string) (ReportKind, bool) {
	s = strings.ToLower(s)
	switch {
	case s == "":
		return Custom, false
	case strings.Contains(s, "personalizado"):
		return Custom, true
	case strings.Contains(s, "asistencia"):
		return Attendance, true
	case strings.Contains(s, "institucional"), strings.Contains(s, "mensual"), strings.Contains(s, "general"):
		return Institutional, true
	case strings.Contains(s, "individual"), strings.Contains(s, "ficha"):
		return Individual, true
	}
	return Custom, false
}
