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

var teacherAllowedSort = map[string]string{
	"full_name":  "t.full_name",
	"created_at": "t.created_at",
}

// TeacherRepository manages persistence for teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching the filter along with the total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("t.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.GradeLevelID != "" {
		conditions = append(conditions, fmt.Sprintf("t.class_teacher_of = $%d", len(args)+1))
		args = append(args, filter.GradeLevelID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("t.full_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM teachers t WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	sortCol, ok := teacherAllowedSort[filter.SortBy]
	if !ok {
		sortCol = "t.full_name"
	}
	order := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT t.id, t.user_id, t.full_name, t.phone, t.class_teacher_of, t.active, t.created_at, t.updated_at
        FROM teachers t WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`, where, sortCol, order, len(args)+1, len(args)+2)
	args = append(args, size, offset)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID returns one teacher with their assigned subjects.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	const query = `SELECT id, user_id, full_name, phone, class_teacher_of, active, created_at, updated_at
        FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	var subjectIDs []string
	if err := r.db.SelectContext(ctx, &subjectIDs, "SELECT subject_id FROM teacher_subjects WHERE teacher_id = $1", id); err != nil {
		return nil, fmt.Errorf("find teacher subjects: %w", err)
	}
	return &models.TeacherDetail{Teacher: teacher, SubjectIDs: subjectIDs}, nil
}

// FindByUserID returns the teacher profile linked to a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, full_name, phone, class_teacher_of, active, created_at, updated_at
        FROM teachers WHERE user_id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find teacher by user: %w", err)
	}
	return &teacher, nil
}

// Create inserts a new teacher profile.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, user_id, full_name, phone, class_teacher_of, active, created_at, updated_at)
        VALUES (:id, :user_id, :full_name, :phone, :class_teacher_of, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update rewrites a teacher profile.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET full_name = :full_name, phone = :phone,
        class_teacher_of = :class_teacher_of, active = :active, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, teacher)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
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

// AssignSubjects replaces a teacher's subject assignments.
func (r *TeacherRepository) AssignSubjects(ctx context.Context, teacherID string, subjectIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM teacher_subjects WHERE teacher_id = $1", teacherID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear teacher subjects: %w", err)
	}
	for _, subjectID := range subjectIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO teacher_subjects (teacher_id, subject_id) VALUES ($1, $2)", teacherID, subjectID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("assign teacher subject: %w", err)
		}
	}
	return tx.Commit()
}

// TeachesSubject reports whether the teacher is assigned to the subject.
func (r *TeacherRepository) TeachesSubject(ctx context.Context, teacherID, subjectID string) (bool, error) {
	var count int
	const query = `SELECT COUNT(*) FROM teacher_subjects WHERE teacher_id = $1 AND subject_id = $2`
	if err := r.db.GetContext(ctx, &count, query, teacherID, subjectID); err != nil {
		return false, fmt.Errorf("check teacher subject: %w", err)
	}
	return count > 0, nil
}
