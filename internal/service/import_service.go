package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-report-api/internal/models"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
)

type studentNumberReader interface {
	FindByNumber(ctx context.Context, number string) (*models.Student, error)
}

type subjectCodeReader interface {
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
}

type scoreBulkWriter interface {
	BulkUpsert(ctx context.Context, scores []models.Score) error
}

// ImportConfig bounds bulk uploads.
type ImportConfig struct {
	MaxRows int
}

// ImportRowError describes one rejected CSV row.
type ImportRowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult summarises a bulk upload.
type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// ImportService ingests score CSV uploads. Expected columns:
// student_number, subject_code, class_score, exam_score. Rows that fail
// validation are reported individually; valid rows are still written.
type ImportService struct {
	students studentNumberReader
	subjects subjectCodeReader
	scores   scoreBulkWriter
	terms    scorePeriodReader
	cache    cacheInvalidator
	cfg      ImportConfig
	logger   *zap.Logger
}

// NewImportService constructs ImportService.
func NewImportService(students studentNumberReader, subjects subjectCodeReader, scores scoreBulkWriter, terms scorePeriodReader, cache cacheInvalidator, cfg ImportConfig, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 2000
	}
	return &ImportService{
		students: students,
		subjects: subjects,
		scores:   scores,
		terms:    terms,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}
}

var importColumns = []string{"student_number", "subject_code", "class_score", "exam_score"}

// ImportScores parses the CSV stream and upserts every valid row for
// the given term and academic year. Empty IDs resolve to the current
// period.
func (s *ImportService) ImportScores(ctx context.Context, r io.Reader, termID, academicYearID string) (*ImportResult, error) {
	termID, academicYearID, err := s.resolvePeriod(ctx, termID, academicYearID)
	if err != nil {
		return nil, err
	}
	if err := ensureScoresWritable(ctx, s.terms, termID); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty or unreadable csv file")
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	// Cache lookups so a class-sized file costs one query per student
	// and subject, not one per row.
	studentIDs := make(map[string]string)
	subjectIDs := make(map[string]string)
	var batch []models.Score

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Line: line, Reason: "malformed csv row"})
			continue
		}
		if line-1 > s.cfg.MaxRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d row limit", s.cfg.MaxRows))
		}

		row, rowErr := s.parseRow(ctx, record, columns, studentIDs, subjectIDs)
		if rowErr != "" {
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Line: line, Reason: rowErr})
			continue
		}
		row.TermID = termID
		row.AcademicYearID = academicYearID
		batch = append(batch, *row)
	}

	if len(batch) > 0 {
		if err := s.scores.BulkUpsert(ctx, batch); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save imported scores")
		}
		if s.cache != nil {
			pattern := fmt.Sprintf("reports:%s:%s:*", academicYearID, termID)
			if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
				s.logger.Warn("report cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
			}
		}
	}
	result.Imported = len(batch)
	s.logger.Info("score import finished",
		zap.String("term_id", termID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (s *ImportService) parseRow(ctx context.Context, record []string, columns map[string]int, studentIDs, subjectIDs map[string]string) (*models.Score, string) {
	get := func(name string) string {
		idx := columns[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	number := get("student_number")
	if number == "" {
		return nil, "student_number is empty"
	}
	code := get("subject_code")
	if code == "" {
		return nil, "subject_code is empty"
	}

	classScore, err := parseScore(get("class_score"))
	if err != nil {
		return nil, fmt.Sprintf("class_score: %v", err)
	}
	examScore, err := parseScore(get("exam_score"))
	if err != nil {
		return nil, fmt.Sprintf("exam_score: %v", err)
	}

	studentID, ok := studentIDs[number]
	if !ok {
		student, err := s.students.FindByNumber(ctx, number)
		if err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return nil, fmt.Sprintf("unknown student number %q", number)
			}
			return nil, "student lookup failed"
		}
		studentID = student.ID
		studentIDs[number] = studentID
	}

	subjectID, ok := subjectIDs[code]
	if !ok {
		subject, err := s.subjects.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return nil, fmt.Sprintf("unknown subject code %q", code)
			}
			return nil, "subject lookup failed"
		}
		subjectID = subject.ID
		subjectIDs[code] = subjectID
	}

	return &models.Score{
		StudentID:  studentID,
		SubjectID:  subjectID,
		ClassScore: classScore,
		ExamScore:  examScore,
	}, ""
}

func (s *ImportService) resolvePeriod(ctx context.Context, termID, academicYearID string) (string, string, error) {
	if termID != "" && academicYearID != "" {
		return termID, academicYearID, nil
	}
	period, err := s.terms.CurrentPeriod(ctx)
	if err != nil {
		if errors.Is(err, appErrors.ErrNoCurrentTerm) {
			return "", "", appErrors.ErrNoCurrentTerm
		}
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve current period")
	}
	if termID == "" {
		termID = period.Term.ID
	}
	if academicYearID == "" {
		academicYearID = period.AcademicYear.ID
	}
	return termID, academicYearID, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range importColumns {
		if _, ok := columns[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing required column %q", required))
		}
	}
	return columns, nil
}

func parseScore(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("value is empty")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if value < 0 || value > 50 {
		return 0, fmt.Errorf("must be between 0 and 50")
	}
	return value, nil
}
