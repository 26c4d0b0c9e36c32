package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/trezcool/escolar/core"
)

// Free-text course labels arrive in several spellings ("1° Medio A",
// "1medio a", "1A"). Grouping and display must reconcile them to one
// canonical form, tried against these patterns in order.
var coursePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([1-4])\s*°?\s*MEDIO\s*([A-E])$`),
	regexp.MustCompile(`^([1-4])\s*°?\s*([A-E])$`),
	regexp.MustCompile(`^([1-4])([A-E])$`),
}

// CanonicalCourse normalizes a raw course label to "{N}° Medio {X}" with
// N ∈ 1..4 and X ∈ A..E. Labels matching no pattern are returned trimmed and
// upper-cased, unchanged otherwise. Idempotent; never fails.
func CanonicalCourse(raw string) string {
	label := strings.ToUpper(core.CleanString(raw))
	for _, pattern := range coursePatterns {
		if m := pattern.FindStringSubmatch(label); m != nil {
			return fmt.Sprintf("%s° Medio %s", m[1], m[2])
		}
	}
	return label
}

var canonicalCourseRegex = regexp.MustCompile(`^([1-4])° Medio ([A-E])$`)

// courseSortKey parses a canonical label into (grade level, section letter).
// ok is false for labels that did not canonicalize.
func courseSortKey(label string) (grade int, section string, ok bool) {
	m := canonicalCourseRegex.FindStringSubmatch(label)
	if m == nil {
		return 0, "", false
	}
	grade, _ = strconv.Atoi(m[1])
	return grade, m[2], true
}

// CourseLess orders canonical course labels by grade level, then section
// letter, ascending. Unparsable labels sort last, alphabetically among
// themselves, to keep output deterministic.
func CourseLess(a, b string) bool {
	ga, sa, okA := courseSortKey(a)
	gb, sb, okB := courseSortKey(b)
	switch {
	case okA && !okB:
		return true
	case !okA && okB:
		return false
	case !okA && !okB:
		return a < b
	}
	if ga != gb {
		return ga < gb
	}
	return sa < sb
}
