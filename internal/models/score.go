package models

import "time"

// Score records one student's marks in one subject for one term and year.
// (student_id, subject_id, term_id, academic_year_id) is the natural key;
// class and exam components are each marked out of 50. Totals, letter
// grades and remarks are derived on read and never stored.
type Score struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	TermID         string    `db:"term_id" json:"term_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	ClassScore     float64   `db:"class_score" json:"class_score"`
	ExamScore      float64   `db:"exam_score" json:"exam_score"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreFilter allows querying of score entries.
type ScoreFilter struct {
	StudentID      string
	SubjectID      string
	TermID         string
	AcademicYearID string
	GradeLevelID   string
}

// CohortScore is a score row joined with cohort context, the unit the
// ranking engine consumes.
type CohortScore struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	SubjectID   string  `db:"subject_id" json:"subject_id"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	ClassScore  float64 `db:"class_score" json:"class_score"`
	ExamScore   float64 `db:"exam_score" json:"exam_score"`
}
