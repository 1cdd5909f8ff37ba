package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DashboardRepository runs the aggregate queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// CountStudents returns the number of active students.
func (r *DashboardRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM students WHERE active = TRUE`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// CountTeachers returns the number of active teachers.
func (r *DashboardRepository) CountTeachers(ctx context.Context) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM teachers WHERE active = TRUE`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return count, nil
}

// CountSubjects returns the number of subjects on offer.
func (r *DashboardRepository) CountSubjects(ctx context.Context) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM subjects`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return count, nil
}

// CountGradeLevels returns the number of configured grade levels.
func (r *DashboardRepository) CountGradeLevels(ctx context.Context) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM grade_levels`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count grade levels: %w", err)
	}
	return count, nil
}

// ScoresEntered returns how many score rows exist for the given period.
func (r *DashboardRepository) ScoresEntered(ctx context.Context, termID, academicYearID string) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM scores WHERE term_id = $1 AND academic_year_id = $2`
	if err := r.db.GetContext(ctx, &count, query, termID, academicYearID); err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return count, nil
}

// TotalsForTerm returns per-subject totals recorded in the period. Each row
// is class score plus exam score for one student and subject.
func (r *DashboardRepository) TotalsForTerm(ctx context.Context, termID, academicYearID string) ([]float64, error) {
	const query = `SELECT class_score + exam_score
        FROM scores
        WHERE term_id = $1 AND academic_year_id = $2`
	var totals []float64
	if err := r.db.SelectContext(ctx, &totals, query, termID, academicYearID); err != nil {
		return nil, fmt.Errorf("term totals: %w", err)
	}
	return totals, nil
}
