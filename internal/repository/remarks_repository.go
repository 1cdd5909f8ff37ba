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

// RemarksRepository manages the qualitative report card section.
type RemarksRepository struct {
	db *sqlx.DB
}

// NewRemarksRepository constructs a RemarksRepository.
func NewRemarksRepository(db *sqlx.DB) *RemarksRepository {
	return &RemarksRepository{db: db}
}

// Find returns the remarks for one student, term and academic year.
func (r *RemarksRepository) Find(ctx context.Context, studentID, termID, academicYearID string) (*models.ReportRemarks, error) {
	const query = `SELECT id, student_id, term_id, academic_year_id,
        attendance_days_present, attendance_days_absent, talent_and_interest,
        class_teacher_remarks, head_teacher_remarks, class_teacher_id, head_teacher_id,
        created_at, updated_at
        FROM report_remarks WHERE student_id = $1 AND term_id = $2 AND academic_year_id = $3`
	var remarks models.ReportRemarks
	if err := r.db.GetContext(ctx, &remarks, query, studentID, termID, academicYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find remarks: %w", err)
	}
	return &remarks, nil
}

// Upsert writes remarks keyed by (student, term, academic year).
func (r *RemarksRepository) Upsert(ctx context.Context, remarks *models.ReportRemarks) error {
	if remarks.ID == "" {
		remarks.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if remarks.CreatedAt.IsZero() {
		remarks.CreatedAt = now
	}
	remarks.UpdatedAt = now
	const query = `INSERT INTO report_remarks (id, student_id, term_id, academic_year_id,
        attendance_days_present, attendance_days_absent, talent_and_interest,
        class_teacher_remarks, head_teacher_remarks, class_teacher_id, head_teacher_id,
        created_at, updated_at)
        VALUES (:id, :student_id, :term_id, :academic_year_id,
        :attendance_days_present, :attendance_days_absent, :talent_and_interest,
        :class_teacher_remarks, :head_teacher_remarks, :class_teacher_id, :head_teacher_id,
        :created_at, :updated_at)
        ON CONFLICT (student_id, term_id, academic_year_id)
        DO UPDATE SET attendance_days_present = EXCLUDED.attendance_days_present,
        attendance_days_absent = EXCLUDED.attendance_days_absent,
        talent_and_interest = EXCLUDED.talent_and_interest,
        class_teacher_remarks = EXCLUDED.class_teacher_remarks,
        head_teacher_remarks = EXCLUDED.head_teacher_remarks,
        class_teacher_id = EXCLUDED.class_teacher_id,
        head_teacher_id = EXCLUDED.head_teacher_id,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, remarks); err != nil {
		return fmt.Errorf("upsert remarks: %w", err)
	}
	return nil
}
