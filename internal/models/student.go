package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID                    string    `db:"id" json:"id"`
	StudentNumber         string    `db:"student_number" json:"student_number"`
	FirstName             string    `db:"first_name" json:"first_name"`
	LastName              string    `db:"last_name" json:"last_name"`
	Gender                string    `db:"gender" json:"gender"`
	GradeLevelID          string    `db:"grade_level_id" json:"grade_level_id"`
	CurrentAcademicYearID *string   `db:"current_academic_year_id" json:"current_academic_year_id,omitempty"`
	Active                bool      `db:"active" json:"active"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins the student's given and family names.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search       string
	GradeLevelID string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// StudentDetail contains student information with grade-level context.
type StudentDetail struct {
	Student
	GradeLevelName    string  `db:"grade_level_name" json:"grade_level_name"`
	AcademicYearLabel *string `db:"academic_year_label" json:"academic_year_label,omitempty"`
}
