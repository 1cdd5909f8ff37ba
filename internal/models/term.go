package models

import "time"

// AcademicYear models one school year, e.g. "2023/2024".
type AcademicYear struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	IsCurrent bool      `db:"is_current" json:"is_current"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TermName enumerates the three terms of an academic year.
type TermName string

const (
	TermOne   TermName = "Term 1"
	TermTwo   TermName = "Term 2"
	TermThree TermName = "Term 3"
)

// Term models one term within an academic year.
type Term struct {
	ID             string     `db:"id" json:"id"`
	AcademicYearID string     `db:"academic_year_id" json:"academic_year_id"`
	Name           TermName   `db:"name" json:"name"`
	StartDate      time.Time  `db:"start_date" json:"start_date"`
	EndDate        time.Time  `db:"end_date" json:"end_date"`
	VacationDate   *time.Time `db:"vacation_date" json:"vacation_date,omitempty"`
	ReopeningDate  *time.Time `db:"reopening_date" json:"reopening_date,omitempty"`
	IsCurrent      bool       `db:"is_current" json:"is_current"`
	// ScoresFinalized blocks further score entry for the term.
	ScoresFinalized bool `db:"scores_finalized" json:"scores_finalized"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// CurrentPeriod pairs the active academic year and term.
type CurrentPeriod struct {
	AcademicYear AcademicYear `json:"academic_year"`
	Term         Term         `json:"term"`
}

// TermFilter defines filters supported by term list endpoints.
type TermFilter struct {
	AcademicYearID string
	IsCurrent      *bool
}
