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

var studentAllowedSort = map[string]string{
	"last_name":      "st.last_name",
	"first_name":     "st.first_name",
	"student_number": "st.student_number",
	"created_at":     "st.created_at",
}

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the filter along with the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.GradeLevelID != "" {
		conditions = append(conditions, fmt.Sprintf("st.grade_level_id = $%d", len(args)+1))
		args = append(args, filter.GradeLevelID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("st.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(st.first_name ILIKE $%d OR st.last_name ILIKE $%d OR st.student_number ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students st WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	sortCol, ok := studentAllowedSort[filter.SortBy]
	if !ok {
		sortCol = "st.last_name"
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

	query := fmt.Sprintf(`SELECT st.id, st.student_number, st.first_name, st.last_name, st.gender,
        st.grade_level_id, st.current_academic_year_id, st.active, st.created_at, st.updated_at,
        gl.name AS grade_level_name, ay.label AS academic_year_label
        FROM students st
        JOIN grade_levels gl ON gl.id = st.grade_level_id
        LEFT JOIN academic_years ay ON ay.id = st.current_academic_year_id
        WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`, where, sortCol, order, len(args)+1, len(args)+2)
	args = append(args, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student with grade level and academic year names.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT st.id, st.student_number, st.first_name, st.last_name, st.gender,
        st.grade_level_id, st.current_academic_year_id, st.active, st.created_at, st.updated_at,
        gl.name AS grade_level_name, ay.label AS academic_year_label
        FROM students st
        JOIN grade_levels gl ON gl.id = st.grade_level_id
        LEFT JOIN academic_years ay ON ay.id = st.current_academic_year_id
        WHERE st.id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindByNumber returns a student by their student number.
func (r *StudentRepository) FindByNumber(ctx context.Context, number string) (*models.Student, error) {
	const query = `SELECT id, student_number, first_name, last_name, gender,
        grade_level_id, current_academic_year_id, active, created_at, updated_at
        FROM students WHERE student_number = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find student by number: %w", err)
	}
	return &student, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_number, first_name, last_name, gender, grade_level_id, current_academic_year_id, active, created_at, updated_at)
        VALUES (:id, :student_number, :first_name, :last_name, :gender, :grade_level_id, :current_academic_year_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update rewrites a student's mutable fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET student_number = :student_number, first_name = :first_name,
        last_name = :last_name, gender = :gender, grade_level_id = :grade_level_id,
        current_academic_year_id = :current_academic_year_id, active = :active,
        updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
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

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
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

// Roster returns the IDs of every active student enrolled in a grade
// level for an academic year, whether or not they have any score rows.
// Overall class positions are computed over this set.
func (r *StudentRepository) Roster(ctx context.Context, gradeLevelID, academicYearID string) ([]string, error) {
	const query = `SELECT id FROM students
        WHERE grade_level_id = $1 AND current_academic_year_id = $2 AND active = TRUE
        ORDER BY last_name, first_name`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, gradeLevelID, academicYearID); err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	return ids, nil
}
