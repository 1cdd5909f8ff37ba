package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
	"github.com/noah-isme/edu-report-api/internal/ranking"
)

type dashboardCounter interface {
	CountStudents(ctx context.Context) (int, error)
	CountTeachers(ctx context.Context) (int, error)
	CountSubjects(ctx context.Context) (int, error)
	CountGradeLevels(ctx context.Context) (int, error)
	ScoresEntered(ctx context.Context, termID, academicYearID string) (int, error)
	TotalsForTerm(ctx context.Context, termID, academicYearID string) ([]float64, error)
}

// DashboardService composes the admin dashboard summary.
type DashboardService struct {
	repo    dashboardCounter
	periods currentPeriodReader
	metrics *MetricsService
	logger  *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardCounter, periods currentPeriodReader, metrics *MetricsService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, periods: periods, metrics: metrics, logger: logger}
}

// Summary returns headline counts and the grade distribution for the current
// period. A school without a current term still gets the entity counts.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	summary := &models.DashboardSummary{}

	var err error
	if summary.Students, err = s.repo.CountStudents(ctx); err != nil {
		return nil, err
	}
	if summary.Teachers, err = s.repo.CountTeachers(ctx); err != nil {
		return nil, err
	}
	if summary.Subjects, err = s.repo.CountSubjects(ctx); err != nil {
		return nil, err
	}
	if summary.GradeLevels, err = s.repo.CountGradeLevels(ctx); err != nil {
		return nil, err
	}

	period, err := s.periods.CurrentPeriod(ctx)
	if err != nil {
		if errors.Is(err, appErrors.ErrNoCurrentTerm) {
			return summary, nil
		}
		return nil, err
	}
	summary.CurrentPeriod = period

	if summary.ScoresEntered, err = s.repo.ScoresEntered(ctx, period.Term.ID, period.AcademicYear.ID); err != nil {
		return nil, err
	}

	totals, err := s.repo.TotalsForTerm(ctx, period.Term.ID, period.AcademicYear.ID)
	if err != nil {
		return nil, err
	}
	if len(totals) > 0 {
		distribution := make(map[string]int)
		for _, total := range totals {
			distribution[string(ranking.Letter(total))]++
		}
		summary.GradeDistribution = distribution
	}
	return summary, nil
}

// Metrics returns a runtime metrics snapshot.
func (s *DashboardService) Metrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}
