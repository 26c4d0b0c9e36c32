package report

import "strings"

// Filter returns the subset of records matching the criteria, preserving the
// original relative order. Active criteria compose with logical AND; absent
// criteria impose no constraint. The input slice is never mutated.
//
// Records are expected to be alias-resolved (see AliasTable): only the
// canonical curso/estado/fecha_registro fields are consulted.
func Filter(records []EntityRecord, criteria Criteria) []EntityRecord {
	filtered := make([]EntityRecord, 0, len(records))

	course := strings.ToLower(strings.TrimSpace(criteria.Course))
	status := strings.ToLower(strings.TrimSpace(criteria.Status))
	from, hasFrom := criteria.From()
	to, hasTo := criteria.To()

	for _, rec := range records {
		// course: case-insensitive substring match
		if course != "" {
			if !strings.Contains(strings.ToLower(rec.Str(FieldCourse)), course) {
				continue
			}
		}
		// status: case-insensitive exact match after string coercion
		if status != "" {
			if !strings.EqualFold(strings.TrimSpace(rec.Str(FieldStatus)), status) {
				continue
			}
		}
		// date range: a record missing its registration date is excluded by
		// an active bound (safer-exclude)
		if hasFrom || hasTo {
			registered, ok := rec.Time(FieldRegistered)
			if !ok {
				continue
			}
			if hasFrom && registered.Before(from) {
				continue
			}
			if hasTo && registered.After(to) {
				continue
			}
		}
		filtered = append(filtered, rec)
	}
	return filtered
}
