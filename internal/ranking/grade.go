// Package ranking derives totals, letter grades and class positions from
// raw component scores. Everything here is pure: no storage, no clocks,
// no logging, and no mutation of caller-supplied slices, so callers may
// run any number of computations concurrently over their own snapshots.
package ranking

// Grade is a single report-card letter.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Band maps the lower bound of a half-open interval to a letter. A total
// belongs to the first band whose Min it meets when bands are evaluated
// highest-first.
type Band struct {
	Min   float64
	Grade Grade
}

// Scale is an ordered sequence of bands, highest minimum first. Totals
// below every band fall through to F.
type Scale []Band

// DefaultScale is the school's grading scale over totals out of 100.
var DefaultScale = Scale{
	{Min: 80, Grade: GradeA},
	{Min: 70, Grade: GradeB},
	{Min: 60, Grade: GradeC},
	{Min: 50, Grade: GradeD},
}

// Letter resolves a total against the scale.
func (s Scale) Letter(total float64) Grade {
	for _, band := range s {
		if total >= band.Min {
			return band.Grade
		}
	}
	return GradeF
}

// Total sums the two component scores. Components are validated upstream
// at entry time; out-of-range input is summed as-is rather than rejected.
func Total(classScore, examScore float64) float64 {
	return classScore + examScore
}

// Letter maps a total to a letter on the default scale.
func Letter(total float64) Grade {
	return DefaultScale.Letter(total)
}

// Remark returns the qualitative comment for a letter grade.
func Remark(g Grade) string {
	switch g {
	case GradeA:
		return "Excellent"
	case GradeB:
		return "Very Good"
	case GradeC:
		return "Good"
	case GradeD:
		return "Pass"
	default:
		return "Fail"
	}
}
