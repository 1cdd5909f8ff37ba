package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-report-api/internal/models"
)

// ScoreRepository manages persistence for score records.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert writes a score row keyed by its natural key, overwriting the
// component scores when the row already exists.
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO scores (id, student_id, subject_id, term_id, academic_year_id, class_score, exam_score, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :term_id, :academic_year_id, :class_score, :exam_score, :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id, term_id, academic_year_id)
        DO UPDATE SET class_score = EXCLUDED.class_score, exam_score = EXCLUDED.exam_score, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// BulkUpsert writes a batch of score rows in one transaction.
func (r *ScoreRepository) BulkUpsert(ctx context.Context, scores []models.Score) error {
	if len(scores) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO scores (id, student_id, subject_id, term_id, academic_year_id, class_score, exam_score, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :term_id, :academic_year_id, :class_score, :exam_score, :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id, term_id, academic_year_id)
        DO UPDATE SET class_score = EXCLUDED.class_score, exam_score = EXCLUDED.exam_score, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range scores {
		if scores[i].ID == "" {
			scores[i].ID = uuid.NewString()
		}
		if scores[i].CreatedAt.IsZero() {
			scores[i].CreatedAt = now
		}
		scores[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, scores[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	return nil
}

// List returns score rows matching the provided filter.
func (r *ScoreRepository) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error) {
	base := "SELECT s.id, s.student_id, s.subject_id, s.term_id, s.academic_year_id, s.class_score, s.exam_score, s.created_at, s.updated_at FROM scores s"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.GradeLevelID != "" {
		base += " JOIN students st ON st.id = s.student_id"
		conditions = append(conditions, fmt.Sprintf("st.grade_level_id = $%d", len(args)+1))
		args = append(args, filter.GradeLevelID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("s.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("s.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.AcademicYearID != "" {
		conditions = append(conditions, fmt.Sprintf("s.academic_year_id = $%d", len(args)+1))
		args = append(args, filter.AcademicYearID)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY s.student_id, s.subject_id", base, strings.Join(conditions, " AND "))
	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// FetchCohort returns the full score snapshot for one grade level, term
// and academic year, joined with student and subject names for report
// assembly. The ranking engine treats the result as immutable.
func (r *ScoreRepository) FetchCohort(ctx context.Context, termID, academicYearID, gradeLevelID string) ([]models.CohortScore, error) {
	const query = `SELECT s.student_id, st.first_name || ' ' || st.last_name AS student_name,
        s.subject_id, sub.name AS subject_name, s.class_score, s.exam_score
        FROM scores s
        JOIN students st ON st.id = s.student_id
        JOIN subjects sub ON sub.id = s.subject_id
        WHERE s.term_id = $1 AND s.academic_year_id = $2 AND st.grade_level_id = $3
        ORDER BY st.last_name, st.first_name, sub.name`
	var rows []models.CohortScore
	if err := r.db.SelectContext(ctx, &rows, query, termID, academicYearID, gradeLevelID); err != nil {
		return nil, fmt.Errorf("fetch cohort scores: %w", err)
	}
	return rows, nil
}

// FetchByStudent returns one student's scores for a term and year.
func (r *ScoreRepository) FetchByStudent(ctx context.Context, studentID, termID, academicYearID string) ([]models.CohortScore, error) {
	const query = `SELECT s.student_id, st.first_name || ' ' || st.last_name AS student_name,
        s.subject_id, sub.name AS subject_name, s.class_score, s.exam_score
        FROM scores s
        JOIN students st ON st.id = s.student_id
        JOIN subjects sub ON sub.id = s.subject_id
        WHERE s.student_id = $1 AND s.term_id = $2 AND s.academic_year_id = $3
        ORDER BY sub.name`
	var rows []models.CohortScore
	if err := r.db.SelectContext(ctx, &rows, query, studentID, termID, academicYearID); err != nil {
		return nil, fmt.Errorf("fetch student scores: %w", err)
	}
	return rows, nil
}
