package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/escolar/core/report"
)

type templateRepository struct {
	db *sqlx.DB
}

var _ report.TemplateRepository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(db *sqlx.DB) *templateRepository {
	return &templateRepository{db: db}
}

// templateRow is the plantillas table shape.
type templateRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"nombre"`
	RawKind   null.String    `db:"tipo_reporte"`
	Columns   pq.StringArray `db:"columnas"`
	UpdatedAt null.Time      `db:"updated_at"`
}

func (row templateRow) toTemplate() report.Template {
	return report.Template{
		ID:        row.ID,
		Name:      row.Name,
		RawKind:   row.RawKind.String,
		Columns:   []string(row.Columns),
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func fromTemplate(tpl report.Template) templateRow {
	return templateRow{
		ID:        tpl.ID,
		Name:      tpl.Name,
		RawKind:   null.NewString(tpl.RawKind, tpl.RawKind != ""),
		Columns:   pq.StringArray(tpl.Columns),
		UpdatedAt: null.NewTime(tpl.UpdatedAt.UTC(), !tpl.UpdatedAt.IsZero()),
	}
}

// trapNoRowsErr maps psql "no rows" err to report.ErrTemplateNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return report.ErrTemplateNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *templateRepository) GetTemplate(ctx context.Context, id string) (report.Template, error) {
	if _, err := uuid.Parse(id); err != nil {
		return report.Template{}, report.ErrTemplateNotFound
	}

	var row templateRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, nombre, tipo_reporte, columnas, updated_at FROM plantillas WHERE id = $1`, id)
	if err != nil {
		return report.Template{}, trapNoRowsErr(err, "finding template by ID")
	}
	return row.toTemplate(), nil
}

func (repo *templateRepository) QueryAllTemplates(ctx context.Context) ([]report.Template, error) {
	var rows []templateRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, nombre, tipo_reporte, columnas, updated_at FROM plantillas ORDER BY nombre`)
	if err != nil {
		return nil, errors.Wrap(err, "querying templates")
	}

	tpls := make([]report.Template, 0, len(rows))
	for _, row := range rows {
		tpls = append(tpls, row.toTemplate())
	}
	return tpls, nil
}

// SaveTemplate upserts by template id: safe under retries, as required by the
// one-time column auto-fill.
func (repo *templateRepository) SaveTemplate(ctx context.Context, tpl report.Template) (report.Template, error) {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	if tpl.UpdatedAt.IsZero() {
		tpl.UpdatedAt = time.Now().UTC()
	}
	row := fromTemplate(tpl)

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO plantillas (id, nombre, tipo_reporte, columnas, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET nombre = EXCLUDED.nombre,
		    tipo_reporte = EXCLUDED.tipo_reporte,
		    columnas = EXCLUDED.columnas,
		    updated_at = EXCLUDED.updated_at`,
		row.ID, row.Name, row.RawKind, row.Columns, row.UpdatedAt)
	if err != nil {
		return report.Template{}, errors.Wrap(err, "upserting template")
	}
	return tpl, nil
}
