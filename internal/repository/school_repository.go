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

// SchoolRepository manages the single school profile row.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// Get returns the school profile.
func (r *SchoolRepository) Get(ctx context.Context) (*models.School, error) {
	const query = `SELECT id, name, address, motto, created_at, updated_at FROM schools LIMIT 1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get school: %w", err)
	}
	return &school, nil
}

// Upsert creates the school profile or rewrites the existing one.
func (r *SchoolRepository) Upsert(ctx context.Context, school *models.School) error {
	existing, err := r.Get(ctx)
	switch {
	case err == nil:
		school.ID = existing.ID
		school.UpdatedAt = time.Now().UTC()
		const update = `UPDATE schools SET name = :name, address = :address, motto = :motto, updated_at = :updated_at WHERE id = :id`
		if _, err := r.db.NamedExecContext(ctx, update, school); err != nil {
			return fmt.Errorf("update school: %w", err)
		}
		return nil
	case errors.Is(err, appErrors.ErrNotFound):
		if school.ID == "" {
			school.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		school.CreatedAt = now
		school.UpdatedAt = now
		const insert = `INSERT INTO schools (id, name, address, motto, created_at, updated_at)
            VALUES (:id, :name, :address, :motto, :created_at, :updated_at)`
		if _, err := r.db.NamedExecContext(ctx, insert, school); err != nil {
			return fmt.Errorf("create school: %w", err)
		}
		return nil
	default:
		return err
	}
}
