package models

// SubjectLine is one row of a report card: a subject's component scores,
// the derived total/grade/remark and the student's position in that
// subject within the cohort. Position is nil when the subject was not
// ranked (no comparable scores).
type SubjectLine struct {
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	ClassScore  float64 `json:"class_score"`
	ExamScore   float64 `json:"exam_score"`
	Total       float64 `json:"total"`
	Grade       string  `json:"grade"`
	Remark      string  `json:"remark"`
	Position    *int    `json:"position,omitempty"`
}

// StudentReportCard is the assembled per-student view for one term.
type StudentReportCard struct {
	Student       StudentDetail  `json:"student"`
	School        *School        `json:"school,omitempty"`
	AcademicYear  AcademicYear   `json:"academic_year"`
	Term          Term           `json:"term"`
	Subjects      []SubjectLine  `json:"subjects"`
	AverageScore  float64        `json:"average_score"`
	ClassPosition *int           `json:"class_position,omitempty"`
	ClassSize     int            `json:"class_size"`
	Remarks       *ReportRemarks `json:"remarks,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// ClassReportRow summarises one student on the class sheet.
type ClassReportRow struct {
	StudentID     string        `json:"student_id"`
	StudentName   string        `json:"student_name"`
	Subjects      []SubjectLine `json:"subjects"`
	AverageScore  float64       `json:"average_score"`
	ClassPosition int           `json:"class_position"`
}

// ClassReportSheet is the assembled per-cohort view for one term.
type ClassReportSheet struct {
	GradeLevel   GradeLevel       `json:"grade_level"`
	AcademicYear AcademicYear     `json:"academic_year"`
	Term         Term             `json:"term"`
	Rows         []ClassReportRow `json:"rows"`
	Warnings     []string         `json:"warnings,omitempty"`
}
