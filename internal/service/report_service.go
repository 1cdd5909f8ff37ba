package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-report-api/internal/models"
	"github.com/noah-isme/edu-report-api/internal/ranking"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
)

type cohortScoreReader interface {
	FetchCohort(ctx context.Context, termID, academicYearID, gradeLevelID string) ([]models.CohortScore, error)
}

type rosterReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	Roster(ctx context.Context, gradeLevelID, academicYearID string) ([]string, error)
}

type periodReader interface {
	CurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error)
	FindTermByID(ctx context.Context, id string) (*models.Term, error)
	FindAcademicYearByID(ctx context.Context, id string) (*models.AcademicYear, error)
}

type gradeLevelReader interface {
	FindByID(ctx context.Context, id string) (*models.GradeLevel, error)
}

type schoolReader interface {
	Get(ctx context.Context) (*models.School, error)
}

type remarksReader interface {
	Find(ctx context.Context, studentID, termID, academicYearID string) (*models.ReportRemarks, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReportService assembles report cards and class sheets from stored
// scores. Totals, grades, remarks and positions are derived on every
// read; nothing ranked is ever persisted.
type ReportService struct {
	scores      cohortScoreReader
	students    rosterReader
	terms       periodReader
	gradeLevels gradeLevelReader
	school      schoolReader
	remarks     remarksReader
	cache       reportCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewReportService constructs ReportService. A nil cache disables
// report payload caching.
func NewReportService(scores cohortScoreReader, students rosterReader, terms periodReader, gradeLevels gradeLevelReader, school schoolReader, remarks remarksReader, cache reportCache, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &ReportService{
		scores:      scores,
		students:    students,
		terms:       terms,
		gradeLevels: gradeLevels,
		school:      school,
		remarks:     remarks,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// StudentReportCard assembles one student's report card for a term.
// Empty term or year IDs resolve to the current period.
func (s *ReportService) StudentReportCard(ctx context.Context, studentID, termID, academicYearID string) (*models.StudentReportCard, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	term, year, err := s.resolvePeriod(ctx, termID, academicYearID)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("reports:%s:%s:card:%s", year.ID, term.ID, studentID)
	if s.cache != nil {
		var cached models.StudentReportCard
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("report cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	cohort, err := s.scores.FetchCohort(ctx, term.ID, year.ID, student.GradeLevelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort scores")
	}
	roster, err := s.students.Roster(ctx, student.GradeLevelID, year.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}

	records := toRecords(cohort)
	subjectRanks, _ := ranking.BySubject(records)
	overallRanks, overallEntries := ranking.Overall(records, roster)

	var subjects []models.SubjectLine
	for _, row := range cohort {
		if row.StudentID != studentID {
			continue
		}
		subjects = append(subjects, subjectLine(row, subjectRanks))
	}

	card := &models.StudentReportCard{
		Student:      *student,
		AcademicYear: *year,
		Term:         *term,
		Subjects:     subjects,
		ClassSize:    classSize(roster, records),
	}
	if pos, ok := overallRanks[studentID]; ok {
		card.ClassPosition = &pos
	}
	for _, entry := range overallEntries {
		if entry.StudentID == studentID {
			card.AverageScore = entry.Value
			break
		}
	}
	card.Warnings = rosterWarnings(records, roster)

	if school, err := s.school.Get(ctx); err == nil {
		card.School = school
	} else if !errors.Is(err, appErrors.ErrNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school profile")
	}

	if remarks, err := s.remarks.Find(ctx, studentID, term.ID, year.ID); err == nil {
		card.Remarks = remarks
	} else if !errors.Is(err, appErrors.ErrNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report remarks")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, card, s.cacheTTL); err != nil {
			s.logger.Warn("report cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return card, nil
}

// ClassReportSheet assembles the whole-class view for a term, rows
// ordered by overall position.
func (s *ReportService) ClassReportSheet(ctx context.Context, gradeLevelID, termID, academicYearID string) (*models.ClassReportSheet, error) {
	level, err := s.gradeLevels.FindByID(ctx, gradeLevelID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade level")
	}

	term, year, err := s.resolvePeriod(ctx, termID, academicYearID)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("reports:%s:%s:sheet:%s", year.ID, term.ID, gradeLevelID)
	if s.cache != nil {
		var cached models.ClassReportSheet
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("report cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	cohort, err := s.scores.FetchCohort(ctx, term.ID, year.ID, gradeLevelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort scores")
	}
	roster, err := s.students.Roster(ctx, gradeLevelID, year.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}

	records := toRecords(cohort)
	subjectRanks, _ := ranking.BySubject(records)
	overallRanks, overallEntries := ranking.Overall(records, roster)

	names := make(map[string]string, len(cohort))
	linesByStudent := make(map[string][]models.SubjectLine)
	for _, row := range cohort {
		names[row.StudentID] = row.StudentName
		linesByStudent[row.StudentID] = append(linesByStudent[row.StudentID], subjectLine(row, subjectRanks))
	}

	rows := make([]models.ClassReportRow, 0, len(overallEntries))
	for _, entry := range overallEntries {
		rows = append(rows, models.ClassReportRow{
			StudentID:     entry.StudentID,
			StudentName:   names[entry.StudentID],
			Subjects:      linesByStudent[entry.StudentID],
			AverageScore:  entry.Value,
			ClassPosition: overallRanks[entry.StudentID],
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ClassPosition < rows[j].ClassPosition })

	sheet := &models.ClassReportSheet{
		GradeLevel:   *level,
		AcademicYear: *year,
		Term:         *term,
		Rows:         rows,
		Warnings:     rosterWarnings(records, roster),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, sheet, s.cacheTTL); err != nil {
			s.logger.Warn("report cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return sheet, nil
}

func (s *ReportService) resolvePeriod(ctx context.Context, termID, academicYearID string) (*models.Term, *models.AcademicYear, error) {
	if termID == "" || academicYearID == "" {
		period, err := s.terms.CurrentPeriod(ctx)
		if err != nil {
			if errors.Is(err, appErrors.ErrNoCurrentTerm) {
				return nil, nil, appErrors.ErrNoCurrentTerm
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve current period")
		}
		return &period.Term, &period.AcademicYear, nil
	}
	term, err := s.terms.FindTermByID(ctx, termID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	year, err := s.terms.FindAcademicYearByID(ctx, academicYearID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return term, year, nil
}

func toRecords(cohort []models.CohortScore) []ranking.ScoreRecord {
	records := make([]ranking.ScoreRecord, 0, len(cohort))
	for _, row := range cohort {
		records = append(records, ranking.ScoreRecord{
			StudentID:  row.StudentID,
			SubjectID:  row.SubjectID,
			ClassScore: row.ClassScore,
			ExamScore:  row.ExamScore,
		})
	}
	return records
}

func subjectLine(row models.CohortScore, subjectRanks map[ranking.SubjectStudent]int) models.SubjectLine {
	total := ranking.Total(row.ClassScore, row.ExamScore)
	grade := ranking.Letter(total)
	line := models.SubjectLine{
		SubjectID:   row.SubjectID,
		SubjectName: row.SubjectName,
		ClassScore:  row.ClassScore,
		ExamScore:   row.ExamScore,
		Total:       total,
		Grade:       string(grade),
		Remark:      ranking.Remark(grade),
	}
	if pos, ok := subjectRanks[ranking.SubjectStudent{SubjectID: row.SubjectID, StudentID: row.StudentID}]; ok {
		line.Position = &pos
	}
	return line
}

// classSize counts everyone ranked overall: the roster plus any scored
// student missing from it.
func classSize(roster []string, records []ranking.ScoreRecord) int {
	return len(roster) + len(ranking.MissingFromRoster(records, roster))
}

func rosterWarnings(records []ranking.ScoreRecord, roster []string) []string {
	missing := ranking.MissingFromRoster(records, roster)
	if len(missing) == 0 {
		return nil
	}
	warnings := make([]string, 0, len(missing))
	for _, id := range missing {
		warnings = append(warnings, fmt.Sprintf("student %s has scores but is not on the class roster", id))
	}
	return warnings
}
