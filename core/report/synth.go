package report

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/escolar/core"
)

// label used to group records whose course field never resolved; sorts after
// every real course.
const unknownCourse = "SIN CURSO"

// SubRecordSource serves per-entity sub-collections (attendance marks,
// grades, interviews...).
type SubRecordSource interface {
	QuerySubRecords(ctx context.Context, entityID string, kind EntityKind) ([]EntityRecord, error)
}

// Synthesizer consolidates filtered entity records into derived per-record or
// per-group metrics. A malformed record never aborts a run: the unresolvable
// field gets the NotRecorded sentinel, the substitution is counted, and
// synthesis continues.
type Synthesizer struct {
	subs SubRecordSource
	log  core.Logger
}

func NewSynthesizer(subs SubRecordSource, log core.Logger) *Synthesizer {
	return &Synthesizer{subs: subs, log: log}
}

// Synthesize computes the report-kind-specific rows for the given records.
// columns lists the template's requested column ids: derived fields not
// requested are not computed. It returns the rows and the number of
// partial-data substitutions made.
//
// Sub-collection transport failures are fatal (collaborator errors), as
// opposed to per-record data gaps.
func (s *Synthesizer) Synthesize(ctx context.Context, records []EntityRecord, kind ReportKind, columns []string) ([]Row, int, error) {
	requested := make(map[string]bool, len(columns))
	for _, id := range columns {
		requested[id] = true
	}

	switch kind {
	case Attendance:
		return s.attendanceRows(ctx, records)
	case Institutional:
		return s.institutionalRows(ctx, records, requested)
	case Individual, Custom:
		return s.individualRows(ctx, records, requested)
	default:
		// unclassified kinds behave like Custom
		return s.individualRows(ctx, records, requested)
	}
}

// attendanceTally counts a record's attendance marks. Marks with estado
// "presente" count as present; every other mark counts as absent, so
// present + absent always equals the number of marks.
func (s *Synthesizer) attendanceTally(ctx context.Context, entityID string) (present, absent int, err error) {
	marks, err := s.subs.QuerySubRecords(ctx, entityID, KindAsistencias)
	if err != nil {
		return 0, 0, errors.Wrap(err, "querying attendance marks")
	}
	for _, mark := range marks {
		if strings.EqualFold(strings.TrimSpace(mark.Str(FieldStatus)), "presente") {
			present++
		} else {
			absent++
		}
	}
	return present, absent, nil
}

// attendancePct is defined as 0 when there are no marks.
func attendancePct(present, absent int) float64 {
	total := present + absent
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

func (s *Synthesizer) attendanceRows(ctx context.Context, records []EntityRecord) ([]Row, int, error) {
	rows := make([]Row, 0, len(records))
	var warnings int

	for _, rec := range records {
		row := s.identityFields(rec)
		if rec.ID() == "" {
			warnings += s.flagMissing(row, rec, "dias_presente", "dias_ausente", "total_dias", "porcentaje_asistencia")
			rows = append(rows, row)
			continue
		}
		present, absent, err := s.attendanceTally(ctx, rec.ID())
		if err != nil {
			return nil, 0, err
		}
		row["dias_presente"] = present
		row["dias_ausente"] = absent
		row["total_dias"] = present + absent
		row["porcentaje_asistencia"] = attendancePct(present, absent)
		rows = append(rows, row)
	}
	return rows, warnings, nil
}

func (s *Synthesizer) individualRows(ctx context.Context, records []EntityRecord, requested map[string]bool) ([]Row, int, error) {
	rows := make([]Row, 0, len(records))
	var warnings int

	for _, rec := range records {
		row := s.identityFields(rec)

		if rec.ID() == "" {
			warnings += s.flagMissing(row, rec,
				"promedio_notas", "promedio_conducta", "entrevistas", "intervenciones",
				"entregas_recursos", "test_vocacional", "dias_presente", "dias_ausente",
				"total_dias", "porcentaje_asistencia")
			rows = append(rows, row)
			continue
		}

		if requested["promedio_notas"] {
			w, err := s.setAverage(ctx, row, rec, "promedio_notas", KindNotas)
			if err != nil {
				return nil, 0, err
			}
			warnings += w
		}
		if requested["promedio_conducta"] {
			w, err := s.setAverage(ctx, row, rec, "promedio_conducta", KindConducta)
			if err != nil {
				return nil, 0, err
			}
			warnings += w
		}
		if requested["entrevistas"] {
			n, err := s.countSubRecords(ctx, rec.ID(), KindEntrevistas)
			if err != nil {
				return nil, 0, err
			}
			row["entrevistas"] = n
		}
		if requested["intervenciones"] {
			n, err := s.countSubRecords(ctx, rec.ID(), KindIntervenciones)
			if err != nil {
				return nil, 0, err
			}
			row["intervenciones"] = n
		}
		if requested["entregas_recursos"] {
			n, err := s.countSubRecords(ctx, rec.ID(), KindEntregas)
			if err != nil {
				return nil, 0, err
			}
			row["entregas_recursos"] = n
		}
		if requested["test_vocacional"] {
			if err := s.setVocationalFlag(ctx, row, rec); err != nil {
				return nil, 0, err
			}
		}
		if requested["dias_presente"] || requested["dias_ausente"] ||
			requested["total_dias"] || requested["porcentaje_asistencia"] {
			present, absent, err := s.attendanceTally(ctx, rec.ID())
			if err != nil {
				return nil, 0, err
			}
			row["dias_presente"] = present
			row["dias_ausente"] = absent
			row["total_dias"] = present + absent
			row["porcentaje_asistencia"] = attendancePct(present, absent)
		}

		rows = append(rows, row)
	}
	return rows, warnings, nil
}

func (s *Synthesizer) institutionalRows(ctx context.Context, records []EntityRecord, requested map[string]bool) ([]Row, int, error) {
	type courseGroup struct {
		total, active                         int
		attendanceSum                         float64
		attendanceN                           int
		interviews, interventions, deliveries int
	}

	groups := make(map[string]*courseGroup)
	var warnings int

	for _, rec := range records {
		label := CanonicalCourse(rec.Str(FieldCourse))
		if label == "" {
			label = unknownCourse
		}
		grp, ok := groups[label]
		if !ok {
			grp = &courseGroup{}
			groups[label] = grp
		}

		grp.total++
		if strings.EqualFold(strings.TrimSpace(rec.Str(FieldStatus)), "activo") {
			grp.active++
		}

		if rec.ID() == "" {
			s.warnf("report: registro sin id, métricas de grupo omitidas", rec)
			warnings++
			continue
		}
		if requested["porcentaje_asistencia"] {
			present, absent, err := s.attendanceTally(ctx, rec.ID())
			if err != nil {
				return nil, 0, err
			}
			if present+absent > 0 {
				grp.attendanceSum += attendancePct(present, absent)
				grp.attendanceN++
			}
		}
		if requested["entrevistas"] {
			n, err := s.countSubRecords(ctx, rec.ID(), KindEntrevistas)
			if err != nil {
				return nil, 0, err
			}
			grp.interviews += n
		}
		if requested["intervenciones"] {
			n, err := s.countSubRecords(ctx, rec.ID(), KindIntervenciones)
			if err != nil {
				return nil, 0, err
			}
			grp.interventions += n
		}
		if requested["entregas_recursos"] {
			n, err := s.countSubRecords(ctx, rec.ID(), KindEntregas)
			if err != nil {
				return nil, 0, err
			}
			grp.deliveries += n
		}
	}

	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return CourseLess(labels[i], labels[j]) })

	rows := make([]Row, 0, len(labels))
	for _, label := range labels {
		grp := groups[label]
		row := Row{
			FieldCourse:         label,
			"total_alumnos":     grp.total,
			"activos":           grp.active,
			"inactivos":         grp.total - grp.active,
			"entrevistas":       grp.interviews,
			"intervenciones":    grp.interventions,
			"entregas_recursos": grp.deliveries,
		}
		if grp.attendanceN > 0 {
			row["porcentaje_asistencia"] = grp.attendanceSum / float64(grp.attendanceN)
		} else if requested["porcentaje_asistencia"] {
			row["porcentaje_asistencia"] = NotRecorded
			warnings++
		}
		rows = append(rows, row)
	}
	return rows, warnings, nil
}

// identityFields carries a record's own fields into its row, canonicalizing
// the course label for display.
func (s *Synthesizer) identityFields(rec EntityRecord) Row {
	row := Row{}
	for _, field := range []string{"nombre", "rut", FieldStatus, FieldRegistered, "observaciones"} {
		if v, ok := rec[field]; ok && v != nil {
			row[field] = v
		}
	}
	if t, ok := rec.Time(FieldRegistered); ok {
		row[FieldRegistered] = t
	}
	if course := rec.Str(FieldCourse); course != "" {
		row[FieldCourse] = CanonicalCourse(course)
	}
	return row
}

// setAverage computes the mean of the "nota" field over a sub-collection.
// An empty or unparsable collection yields the sentinel (counted); a
// transport error is fatal. Returns the number of substitutions made.
func (s *Synthesizer) setAverage(ctx context.Context, row Row, rec EntityRecord, column string, kind EntityKind) (int, error) {
	recs, err := s.subs.QuerySubRecords(ctx, rec.ID(), kind)
	if err != nil {
		return 0, errors.Wrapf(err, "querying %s", kind)
	}
	var sum float64
	var n int
	for _, sub := range recs {
		if f, ok := sub.Float("nota"); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		row[column] = NotRecorded
		s.warnf("report: sin registros de "+string(kind), rec)
		return 1, nil
	}
	row[column] = sum / float64(n)
	return 0, nil
}

func (s *Synthesizer) countSubRecords(ctx context.Context, entityID string, kind EntityKind) (int, error) {
	recs, err := s.subs.QuerySubRecords(ctx, entityID, kind)
	if err != nil {
		return 0, errors.Wrapf(err, "querying %s", kind)
	}
	return len(recs), nil
}

// setVocationalFlag reports test completion: "Completado" when any test
// record is marked complete, "Pendiente" when none is. A student with no test
// records simply has not taken it yet.
func (s *Synthesizer) setVocationalFlag(ctx context.Context, row Row, rec EntityRecord) error {
	recs, err := s.subs.QuerySubRecords(ctx, rec.ID(), KindTestVocacional)
	if err != nil {
		return errors.Wrap(err, "querying test vocacional")
	}
	for _, sub := range recs {
		if done, ok := sub.Bool("completado"); ok && done {
			row["test_vocacional"] = "Completado"
			return nil
		}
	}
	row["test_vocacional"] = "Pendiente"
	return nil
}

// flagMissing fills the given columns with the sentinel and logs once.
func (s *Synthesizer) flagMissing(row Row, rec EntityRecord, columns ...string) int {
	for _, column := range columns {
		row[column] = NotRecorded
	}
	s.warnf("report: registro sin id, campos derivados sin registro", rec)
	return len(columns)
}

func (s *Synthesizer) warnf(msg string, rec EntityRecord, args ...interface{}) {
	if s.log == nil {
		return
	}
	args = append([]interface{}{map[string]interface{}{"nombre": rec.Str("nombre"), "curso": rec.Str(FieldCourse)}}, args...)
	s.log.Warn(msg, args...)
}
