package report

import (
	"context"
	"strings"
	"time"

	"github.com/trezcool/escolar/core"
)

// Service is the report engine's sole public entry point. It orchestrates
// template resolution, entity filtering, metric synthesis and rendering.
// Collaborators are awaited sequentially: templates → entities → (optional)
// template auto-fill write-back.
type Service struct {
	entities  EntityRepository
	templates TemplateRepository
	resolver  *Resolver
	synth     *Synthesizer
	renderer  Renderer
	conf      *core.Config
	log       core.Logger

	nowFunc func() time.Time // mockable
}

func NewService(conf *core.Config, entities EntityRepository, templates TemplateRepository, renderer Renderer, log core.Logger) *Service {
	return &Service{
		entities:  entities,
		templates: templates,
		resolver:  NewResolver(templates, DefaultTemplateColumns(), log),
		synth:     NewSynthesizer(entities, log),
		renderer:  renderer,
		conf:      conf,
		log:       log,
		nowFunc:   time.Now,
	}
}

// Assemble produces the ordered table for the given criteria and template:
// resolved columns plus one consolidated row per entity (or per course group
// for institutional reports). Every resolved column id is present in every
// row. An empty result set is a valid zero-row table, not a failure.
func (svc *Service) Assemble(ctx context.Context, criteria Criteria, templateID string) (ResolvedTemplate, *Table, error) {
	if err := criteria.Validate(); err != nil {
		return ResolvedTemplate{}, nil, err
	}

	resolved, err := svc.resolver.Resolve(ctx, templateID)
	if err != nil {
		return ResolvedTemplate{}, nil, err
	}

	records, err := svc.entities.QueryEntities(ctx, KindAlumnos)
	if err != nil {
		return ResolvedTemplate{}, nil, core.NewCollaboratorError("persistence provider", err)
	}

	matched := Filter(records, criteria)

	rows, warnings, err := svc.synth.Synthesize(ctx, matched, resolved.Kind, resolved.ColumnIDs())
	if err != nil {
		return ResolvedTemplate{}, nil, core.NewCollaboratorError("persistence provider", err)
	}

	tbl := &Table{
		Columns:  resolved.Columns,
		Rows:     project(rows, resolved.ColumnIDs()),
		Warnings: warnings,
	}
	return resolved, tbl, nil
}

// GenerateReport runs the full pipeline and hands the assembled table to the
// renderer. The caller owns delivery of the returned document.
func (svc *Service) GenerateReport(ctx context.Context, criteria Criteria, templateID string) (*Document, error) {
	resolved, tbl, err := svc.Assemble(ctx, criteria, templateID)
	if err != nil {
		return nil, err
	}

	now := svc.nowFunc().UTC()
	meta := Metadata{
		Title:         resolved.Template.Name,
		Establishment: svc.conf.Report.Establishment,
		GeneratedAt:   now,
		Criteria:      criteria,
		RowCount:      len(tbl.Rows),
		Warnings:      tbl.Warnings,
	}

	doc, err := svc.renderer.Render(*tbl, meta)
	if err != nil {
		return nil, core.NewCollaboratorError("document renderer", err)
	}
	if doc.Filename == "" {
		doc.Filename = SuggestedFilename(resolved.Template.Name, now)
	}
	return doc, nil
}

// project keeps only the template's column ids in each row, in a fresh map;
// extra synthesized fields never leak into the output. Missing values render
// as the sentinel.
func project(rows []Row, columnIDs []string) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		projected := make(Row, len(columnIDs))
		for _, id := range columnIDs {
			if v, ok := row[id]; ok && v != nil {
				projected[id] = v
			} else {
				projected[id] = NotRecorded
			}
		}
		out = append(out, projected)
	}
	return out
}

// SuggestedFilename derives "{templateName}_{date}" for the document sink.
func SuggestedFilename(templateName string, t time.Time) string {
	name := core.CleanString(templateName)
	if name == "" {
		name = "reporte"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return name + "_" + t.Format("2006-01-02")
}
