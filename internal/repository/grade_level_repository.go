package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
)

// GradeLevelRepository manages persistence for grade levels.
type GradeLevelRepository struct {
	db *sqlx.DB
}

// NewGradeLevelRepository constructs a GradeLevelRepository.
func NewGradeLevelRepository(db *sqlx.DB) *GradeLevelRepository {
	return &GradeLevelRepository{db: db}
}

// List returns every grade level in display order.
func (r *GradeLevelRepository) List(ctx context.Context) ([]models.GradeLevel, error) {
	const query = `SELECT id, name, sort_order, created_at, updated_at
        FROM grade_levels ORDER BY sort_order, name`
	var levels []models.GradeLevel
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list grade levels: %w", err)
	}
	return levels, nil
}

// FindByID returns one grade level.
func (r *GradeLevelRepository) FindByID(ctx context.Context, id string) (*models.GradeLevel, error) {
	const query = `SELECT id, name, sort_order, created_at, updated_at FROM grade_levels WHERE id = $1`
	var level models.GradeLevel
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find grade level: %w", err)
	}
	return &level, nil
}

// Create inserts a new grade level.
func (r *GradeLevelRepository) Create(ctx context.Context, level *models.GradeLevel) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	level.CreatedAt = now
	level.UpdatedAt = now
	const query = `INSERT INTO grade_levels (id, name, sort_order, created_at, updated_at)
        VALUES (:id, :name, :sort_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("create grade level: %w", err)
	}
	return nil
}

// Update rewrites a grade level.
func (r *GradeLevelRepository) Update(ctx context.Context, level *models.GradeLevel) error {
	level.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grade_levels SET name = :name, sort_order = :sort_order, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, level)
	if err != nil {
		return fmt.Errorf("update grade level: %w", err)
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

// Delete removes a grade level.
func (r *GradeLevelRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM grade_levels WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete grade level: %w", err)
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
