package report

// Upstream collections disagree on field names (legacy imports, per-school
// spreadsheets). An AliasTable maps each canonical field to the candidate
// upstream names, in priority order; resolution happens once, at the
// collaborator boundary, so the rest of the engine only ever sees canonical
// fields.
type AliasTable map[EntityKind]map[string][]string

// Canonical logical fields.
const (
	FieldCourse     = "curso"
	FieldStatus     = "estado"
	FieldRegistered = "fecha_registro"
)

// DefaultAliases covers the upstream schema variants observed in production
// data.
func DefaultAliases() AliasTable {
	return AliasTable{
		KindAlumnos: {
			FieldCourse:     {"curso", "curso_actual", "grado"},
			FieldStatus:     {"estado", "estado_actual", "activo"},
			FieldRegistered: {"fecha_registro", "fecha_ingreso"},
		},
		KindEntrevistas: {
			FieldRegistered: {"fecha_registro", "fecha_entrevista", "fecha"},
		},
		KindAsistencias: {
			FieldStatus:     {"estado", "tipo"},
			FieldRegistered: {"fecha_registro", "fecha"},
		},
		KindIntervenciones: {
			FieldRegistered: {"fecha_registro", "fecha"},
		},
		KindEntregas: {
			FieldRegistered: {"fecha_registro", "fecha_entrega", "fecha"},
		},
	}
}

// Resolve returns a copy of rec with every canonical field populated from the
// first non-empty candidate. The input record is not mutated. Records of a
// kind without alias entries pass through unchanged.
func (at AliasTable) Resolve(kind EntityKind, rec EntityRecord) EntityRecord {
	aliases, ok := at[kind]
	if !ok {
		return rec
	}
	resolved := rec.Clone()
	for canonical, candidates := range aliases {
		for _, name := range candidates {
			v, ok := rec[name]
			if !ok || v == nil || rec.Str(name) == "" {
				continue
			}
			resolved[canonical] = coerceField(canonical, name, rec)
			break
		}
	}
	return resolved
}

// ResolveAll resolves a whole collection.
func (at AliasTable) ResolveAll(kind EntityKind, recs []EntityRecord) []EntityRecord {
	out := make([]EntityRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, at.Resolve(kind, rec))
	}
	return out
}

// coerceField normalizes alias values whose upstream representation differs
// from the canonical one. The only such case today is the boolean "activo"
// column standing in for the textual "estado".
func coerceField(canonical, alias string, rec EntityRecord) interface{} {
	if canonical == FieldStatus && alias == "activo" {
		if active, ok := rec.Bool(alias); ok {
			if active {
				return "activo"
			}
			return "inactivo"
		}
	}
	return rec[alias]
}
