package dummydb

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/trezcool/escolar/core/report"
)

var pkCount int

type templateRepository struct {
	db *templateTable
}

var _ report.TemplateRepository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(db *DB) *templateRepository {
	return &templateRepository{db: db.templates}
}

func (repo *templateRepository) GetTemplate(_ context.Context, id string) (report.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tpl, ok := repo.db.table[id]; ok {
		return copyTemplate(*tpl), nil
	}
	return report.Template{}, report.ErrTemplateNotFound
}

func (repo *templateRepository) QueryAllTemplates(_ context.Context) ([]report.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tpls := make([]report.Template, 0, len(repo.db.table))
	for _, tpl := range repo.db.table {
		tpls = append(tpls, copyTemplate(*tpl))
	}
	sort.Slice(tpls, func(i, j int) bool { return tpls[i].Name < tpls[j].Name })
	return tpls, nil
}

func (repo *templateRepository) SaveTemplate(_ context.Context, tpl report.Template) (report.Template, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if tpl.ID == "" {
		pkCount++
		tpl.ID = strconv.Itoa(pkCount)
	}
	if tpl.UpdatedAt.IsZero() {
		tpl.UpdatedAt = time.Now().UTC()
	}
	saved := copyTemplate(tpl)
	repo.db.table[tpl.ID] = &saved
	return copyTemplate(saved), nil
}

// copyTemplate keeps stored column slices from aliasing caller slices.
func copyTemplate(tpl report.Template) report.Template {
	cols := make([]string, len(tpl.Columns))
	copy(cols, tpl.Columns)
	tpl.Columns = cols
	return tpl
}
