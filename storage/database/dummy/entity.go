package dummydb

import (
	"context"

	"github.com/trezcool/escolar/core/report"
)

type entityRepository struct {
	db      *entityTable
	aliases report.AliasTable
}

var _ report.EntityRepository = (*entityRepository)(nil) // interface compliance check

func NewEntityRepository(db *DB, aliases report.AliasTable) *entityRepository {
	return &entityRepository{db: db.entities, aliases: aliases}
}

// SeedEntity registers a record in a collection (test/demo data).
func (repo *entityRepository) SeedEntity(kind report.EntityKind, rec report.EntityRecord) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[kind] = append(repo.db.table[kind], rec)
}

// SeedSubRecord registers a sub-record under its owning entity.
func (repo *entityRepository) SeedSubRecord(entityID string, kind report.EntityKind, rec report.EntityRecord) {
	repo.db.Lock()
	defer repo.db.Unlock()
	subs, ok := repo.db.subs[entityID]
	if !ok {
		subs = make(map[report.EntityKind][]report.EntityRecord)
		repo.db.subs[entityID] = subs
	}
	subs[kind] = append(subs[kind], rec)
}

func (repo *entityRepository) QueryEntities(_ context.Context, kind report.EntityKind) ([]report.EntityRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]report.EntityRecord, 0, len(repo.db.table[kind]))
	for _, rec := range repo.db.table[kind] {
		recs = append(recs, repo.aliases.Resolve(kind, rec))
	}
	return recs, nil
}

func (repo *entityRepository) QuerySubRecords(_ context.Context, entityID string, kind report.EntityKind) ([]report.EntityRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs, ok := repo.db.subs[entityID]
	if !ok {
		return nil, nil
	}
	recs := make([]report.EntityRecord, 0, len(subs[kind]))
	for _, rec := range subs[kind] {
		recs = append(recs, repo.aliases.Resolve(kind, rec))
	}
	return recs, nil
}
