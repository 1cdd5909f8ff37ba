package models

import "time"

// ReportRemarks captures the qualitative section of a report card for one
// student, term and academic year.
type ReportRemarks struct {
	ID                    string    `db:"id" json:"id"`
	StudentID             string    `db:"student_id" json:"student_id"`
	TermID                string    `db:"term_id" json:"term_id"`
	AcademicYearID        string    `db:"academic_year_id" json:"academic_year_id"`
	AttendanceDaysPresent int       `db:"attendance_days_present" json:"attendance_days_present"`
	AttendanceDaysAbsent  int       `db:"attendance_days_absent" json:"attendance_days_absent"`
	TalentAndInterest     string    `db:"talent_and_interest" json:"talent_and_interest"`
	ClassTeacherRemarks   string    `db:"class_teacher_remarks" json:"class_teacher_remarks"`
	HeadTeacherRemarks    string    `db:"head_teacher_remarks" json:"head_teacher_remarks"`
	ClassTeacherID        *string   `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
	HeadTeacherID         *string   `db:"head_teacher_id" json:"head_teacher_id,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}
