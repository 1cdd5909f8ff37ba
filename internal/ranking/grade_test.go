package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalSumsComponents(t *testing.T) {
	assert.Equal(t, 0.0, Total(0, 0))
	assert.Equal(t, 100.0, Total(50, 50))
	assert.Equal(t, 72.5, Total(40.5, 32))
	// out-of-range input is summed, not rejected
	assert.Equal(t, 120.0, Total(60, 60))
	assert.Equal(t, -5.0, Total(-5, 0))
}

func TestLetterBoundaries(t *testing.T) {
	cases := []struct {
		total float64
		want  Grade
	}{
		{100, GradeA},
		{80, GradeA},
		{79.99, GradeB},
		{70, GradeB},
		{69.99, GradeC},
		{60, GradeC},
		{59.99, GradeD},
		{50, GradeD},
		{49.99, GradeF},
		{0, GradeF},
		{-3, GradeF},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Letter(tc.total), "total %v", tc.total)
	}
}

func TestRemarkIsTotalOverGrades(t *testing.T) {
	assert.Equal(t, "Excellent", Remark(GradeA))
	assert.Equal(t, "Very Good", Remark(GradeB))
	assert.Equal(t, "Good", Remark(GradeC))
	assert.Equal(t, "Pass", Remark(GradeD))
	assert.Equal(t, "Fail", Remark(GradeF))
}

func TestRemarkDependsOnlyOnGrade(t *testing.T) {
	// totals in the same band share a remark
	assert.Equal(t, Remark(Letter(81)), Remark(Letter(99.5)))
	assert.Equal(t, Remark(Letter(50)), Remark(Letter(59.99)))
	assert.NotEqual(t, Remark(Letter(79.99)), Remark(Letter(80)))
}

func TestCustomScale(t *testing.T) {
	passFail := Scale{{Min: 40, Grade: GradeD}}
	assert.Equal(t, GradeD, passFail.Letter(40))
	assert.Equal(t, GradeF, passFail.Letter(39.9))
}
