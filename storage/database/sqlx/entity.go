package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/escolar/core"
	"github.com/trezcool/escolar/core/report"
)

// snapshot ordering must be stable across runs
var defaultOrdering = core.DBOrdering{Field: "id", Ascending: true}

// entityTables whitelists the collections the provider serves; kind never
// reaches SQL unchecked.
var entityTables = map[report.EntityKind]string{
	report.KindAlumnos:        "alumnos",
	report.KindEntrevistas:    "entrevistas",
	report.KindAsistencias:    "asistencias",
	report.KindIntervenciones: "intervenciones",
	report.KindEntregas:       "entregas_recursos",
	report.KindNotas:          "notas",
	report.KindConducta:       "conducta",
	report.KindTestVocacional: "tests_vocacionales",
}

type entityRepository struct {
	db      *sqlx.DB
	aliases report.AliasTable
}

var _ report.EntityRepository = (*entityRepository)(nil) // interface compliance check

func NewEntityRepository(db *sqlx.DB, aliases report.AliasTable) *entityRepository {
	return &entityRepository{db: db, aliases: aliases}
}

// QueryEntities returns a whole collection as schemaless records. Rows are
// scanned into maps (upstream tables do not share a schema) and
// alias-resolved before leaving the storage boundary.
func (repo *entityRepository) QueryEntities(ctx context.Context, kind report.EntityKind) ([]report.EntityRecord, error) {
	table, ok := entityTables[kind]
	if !ok {
		return nil, errors.Errorf("unknown entity kind %q", kind)
	}

	rows, err := repo.db.QueryxContext(ctx, fmt.Sprintf(`SELECT * FROM %s ORDER BY %s`, table, defaultOrdering))
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	defer func() { _ = rows.Close() }()

	return repo.scan(rows, kind, table)
}

// QuerySubRecords returns one entity's sub-collection (attendance marks,
// grades, interviews...), keyed by the owning student.
func (repo *entityRepository) QuerySubRecords(ctx context.Context, entityID string, kind report.EntityKind) ([]report.EntityRecord, error) {
	table, ok := entityTables[kind]
	if !ok {
		return nil, errors.Errorf("unknown entity kind %q", kind)
	}

	rows, err := repo.db.QueryxContext(ctx,
		fmt.Sprintf(`SELECT * FROM %s WHERE alumno_id = $1 ORDER BY %s`, table, defaultOrdering), entityID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s for alumno %s", table, entityID)
	}
	defer func() { _ = rows.Close() }()

	return repo.scan(rows, kind, table)
}

func (repo *entityRepository) scan(rows *sqlx.Rows, kind report.EntityKind, table string) ([]report.EntityRecord, error) {
	var recs []report.EntityRecord
	for rows.Next() {
		rec := make(map[string]interface{})
		if err := rows.MapScan(rec); err != nil {
			return nil, errors.Wrapf(err, "scanning %s row", table)
		}
		recs = append(recs, repo.aliases.Resolve(kind, normalize(rec)))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s rows", table)
	}
	return recs, nil
}

// normalize unwraps driver byte slices so records hold plain scalars.
func normalize(rec map[string]interface{}) report.EntityRecord {
	out := make(report.EntityRecord, len(rec))
	for k, v := range rec {
		if b, ok := v.([]byte); ok {
			out[k] = string(b)
		} else {
			out[k] = v
		}
	}
	return out
}
