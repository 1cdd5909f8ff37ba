package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
)

// TermRepository manages academic years and the terms within them.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs a TermRepository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// ListAcademicYears returns every academic year, newest first.
func (r *TermRepository) ListAcademicYears(ctx context.Context) ([]models.AcademicYear, error) {
	const query = `SELECT id, label, is_current, created_at, updated_at
        FROM academic_years ORDER BY label DESC`
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	return years, nil
}

// CreateAcademicYear inserts a new academic year.
func (r *TermRepository) CreateAcademicYear(ctx context.Context, year *models.AcademicYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	year.CreatedAt = now
	year.UpdatedAt = now
	const query = `INSERT INTO academic_years (id, label, is_current, created_at, updated_at)
        VALUES (:id, :label, :is_current, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create academic year: %w", err)
	}
	return nil
}

// ListTerms returns terms matching the filter ordered by start date.
func (r *TermRepository) ListTerms(ctx context.Context, filter models.TermFilter) ([]models.Term, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.AcademicYearID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year_id = $%d", len(args)+1))
		args = append(args, filter.AcademicYearID)
	}
	if filter.IsCurrent != nil {
		conditions = append(conditions, fmt.Sprintf("is_current = $%d", len(args)+1))
		args = append(args, *filter.IsCurrent)
	}

	query := fmt.Sprintf(`SELECT id, academic_year_id, name, start_date, end_date,
        vacation_date, reopening_date, is_current, scores_finalized, created_at, updated_at
        FROM terms WHERE %s ORDER BY start_date`, strings.Join(conditions, " AND "))
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, args...); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

// FindTermByID returns one term.
func (r *TermRepository) FindTermByID(ctx context.Context, id string) (*models.Term, error) {
	const query = `SELECT id, academic_year_id, name, start_date, end_date,
        vacation_date, reopening_date, is_current, scores_finalized, created_at, updated_at
        FROM terms WHERE id = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find term: %w", err)
	}
	return &term, nil
}

// CreateTerm inserts a new term.
func (r *TermRepository) CreateTerm(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	term.CreatedAt = now
	term.UpdatedAt = now
	const query = `INSERT INTO terms (id, academic_year_id, name, start_date, end_date, vacation_date, reopening_date, is_current, scores_finalized, created_at, updated_at)
        VALUES (:id, :academic_year_id, :name, :start_date, :end_date, :vacation_date, :reopening_date, :is_current, :scores_finalized, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}

// UpdateTerm rewrites a term's mutable fields.
func (r *TermRepository) UpdateTerm(ctx context.Context, term *models.Term) error {
	term.UpdatedAt = time.Now().UTC()
	const query = `UPDATE terms SET name = :name, start_date = :start_date, end_date = :end_date,
        vacation_date = :vacation_date, reopening_date = :reopening_date, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, term)
	if err != nil {
		return fmt.Errorf("update term: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

// SetCurrentTerm marks one term as current and clears the flag on every
// other term, along with the owning academic year, in one transaction.
func (r *TermRepository) SetCurrentTerm(ctx context.Context, termID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	var yearID string
	if err := tx.GetContext(ctx, &yearID, "SELECT academic_year_id FROM terms WHERE id = $1", termID); err != nil {
		tx.Rollback() //nolint:errcheck
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return fmt.Errorf("resolve term year: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE terms SET is_current = FALSE WHERE is_current = TRUE"); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear current term: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE terms SET is_current = TRUE, updated_at = $2 WHERE id = $1", termID, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("set current term: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE academic_years SET is_current = FALSE WHERE is_current = TRUE"); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear current year: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE academic_years SET is_current = TRUE, updated_at = $2 WHERE id = $1", yearID, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("set current year: %w", err)
	}
	return tx.Commit()
}

// SetScoresFinalized toggles the score lock on a term.
func (r *TermRepository) SetScoresFinalized(ctx context.Context, termID string, finalized bool) error {
	const query = `UPDATE terms SET scores_finalized = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, termID, finalized, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set scores finalized: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

// CurrentPeriod returns the active academic year and term. Score entry
// and report assembly refuse to run without one.
func (r *TermRepository) CurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error) {
	const query = `SELECT t.id, t.academic_year_id, t.name, t.start_date, t.end_date,
        t.vacation_date, t.reopening_date, t.is_current, t.scores_finalized, t.created_at, t.updated_at
        FROM terms t WHERE t.is_current = TRUE LIMIT 1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoCurrentTerm
		}
		return nil, fmt.Errorf("current term: %w", err)
	}
	const yearQuery = `SELECT id, label, is_current, created_at, updated_at
        FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, yearQuery, term.AcademicYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoCurrentTerm
		}
		return nil, fmt.Errorf("current academic year: %w", err)
	}
	return &models.CurrentPeriod{AcademicYear: year, Term: term}, nil
}

// FindAcademicYearByID returns one academic year.
func (r *TermRepository) FindAcademicYearByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	const query = `SELECT id, label, is_current, created_at, updated_at
        FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find academic year: %w", err)
	}
	return &year, nil
}
