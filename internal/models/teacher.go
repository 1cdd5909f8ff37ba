package models

import "time"

// Teacher represents an instructor profile linked to a user account.
type Teacher struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	FullName       string    `db:"full_name" json:"full_name"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	ClassTeacherOf *string   `db:"class_teacher_of" json:"class_teacher_of,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherDetail attaches the subjects a teacher is assigned to.
type TeacherDetail struct {
	Teacher
	SubjectIDs []string `json:"subject_ids"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search       string
	Active       *bool
	GradeLevelID string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
