package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dashboardRepoStub struct {
	students    int
	teachers    int
	subjects    int
	gradeLevels int
	scores      int
	totals      []float64
}

func (d *dashboardRepoStub) CountStudents(ctx context.Context) (int, error)    { return d.students, nil }
func (d *dashboardRepoStub) CountTeachers(ctx context.Context) (int, error)    { return d.teachers, nil }
func (d *dashboardRepoStub) CountSubjects(ctx context.Context) (int, error)    { return d.subjects, nil }
func (d *dashboardRepoStub) CountGradeLevels(ctx context.Context) (int, error) { return d.gradeLevels, nil }

func (d *dashboardRepoStub) ScoresEntered(ctx context.Context, termID, academicYearID string) (int, error) {
	return d.scores, nil
}

func (d *dashboardRepoStub) TotalsForTerm(ctx context.Context, termID, academicYearID string) ([]float64, error) {
	return d.totals, nil
}

func TestDashboardSummaryBuildsGradeDistribution(t *testing.T) {
	repo := &dashboardRepoStub{
		students:    120,
		teachers:    14,
		subjects:    9,
		gradeLevels: 6,
		scores:      4,
		totals:      []float64{92, 81, 74, 43},
	}
	svc := NewDashboardService(repo, &periodStub{period: testPeriod()}, nil, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, summary.Students)
	assert.Equal(t, 14, summary.Teachers)
	assert.Equal(t, 9, summary.Subjects)
	assert.Equal(t, 6, summary.GradeLevels)
	assert.Equal(t, 4, summary.ScoresEntered)
	require.NotNil(t, summary.CurrentPeriod)
	assert.Equal(t, "t1", summary.CurrentPeriod.Term.ID)
	assert.Equal(t, map[string]int{"A": 2, "B": 1, "F": 1}, summary.GradeDistribution)
}

func TestDashboardSummaryWithoutCurrentTerm(t *testing.T) {
	repo := &dashboardRepoStub{students: 30, teachers: 5, subjects: 7, gradeLevels: 3}
	svc := NewDashboardService(repo, &periodStub{}, nil, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, summary.Students)
	assert.Nil(t, summary.CurrentPeriod)
	assert.Zero(t, summary.ScoresEntered)
	assert.Nil(t, summary.GradeDistribution)
}
