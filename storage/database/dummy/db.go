package dummydb

import (
	"sync"

	"github.com/trezcool/escolar/core/report"
)

type (
	DB struct {
		entities  *entityTable
		templates *templateTable
	}

	entityTable struct {
		sync.RWMutex
		// collections by kind; sub-collections by owning entity id, then kind
		table map[report.EntityKind][]report.EntityRecord
		subs  map[string]map[report.EntityKind][]report.EntityRecord
	}

	templateTable struct {
		sync.RWMutex
		table map[string]*report.Template
	}
)

func Open() (*DB, error) {
	db := &DB{
		entities: &entityTable{
			table: make(map[report.EntityKind][]report.EntityRecord),
			subs:  make(map[string]map[report.EntityKind][]report.EntityRecord),
		},
		templates: &templateTable{table: make(map[string]*report.Template)},
	}
	return db, nil
}
