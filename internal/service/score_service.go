package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-report-api/internal/models"
	"github.com/noah-isme/edu-report-api/internal/ranking"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
)

type scoreRepo interface {
	Upsert(ctx context.Context, score *models.Score) error
	BulkUpsert(ctx context.Context, scores []models.Score) error
	List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type currentPeriodReader interface {
	CurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error)
}

type scorePeriodReader interface {
	currentPeriodReader
	FindTermByID(ctx context.Context, id string) (*models.Term, error)
}

type teacherAccessReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	TeachesSubject(ctx context.Context, teacherID, subjectID string) (bool, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// UpsertScoreRequest is a single score entry payload. Term and academic
// year default to the current period when omitted.
type UpsertScoreRequest struct {
	StudentID      string  `json:"student_id" validate:"required"`
	SubjectID      string  `json:"subject_id" validate:"required"`
	TermID         string  `json:"term_id"`
	AcademicYearID string  `json:"academic_year_id"`
	ClassScore     float64 `json:"class_score" validate:"min=0,max=50"`
	ExamScore      float64 `json:"exam_score" validate:"min=0,max=50"`
}

// BulkScoreItem is one entry in a bulk submission.
type BulkScoreItem struct {
	StudentID  string  `json:"student_id" validate:"required"`
	ClassScore float64 `json:"class_score" validate:"min=0,max=50"`
	ExamScore  float64 `json:"exam_score" validate:"min=0,max=50"`
}

// BulkScoresRequest submits a subject's scores for a whole class at once.
type BulkScoresRequest struct {
	SubjectID      string          `json:"subject_id" validate:"required"`
	TermID         string          `json:"term_id"`
	AcademicYearID string          `json:"academic_year_id"`
	Items          []BulkScoreItem `json:"items" validate:"required,min=1,dive"`
}

// ScoreView is a stored score with its derived total, grade and remark.
type ScoreView struct {
	models.Score
	Total  float64 `json:"total"`
	Grade  string  `json:"grade"`
	Remark string  `json:"remark"`
}

// ScoreService orchestrates score entry and lookup.
type ScoreService struct {
	scores    scoreRepo
	students  studentReader
	subjects  subjectReader
	terms     scorePeriodReader
	teachers  teacherAccessReader
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs ScoreService.
func NewScoreService(scores scoreRepo, students studentReader, subjects subjectReader, terms scorePeriodReader, teachers teacherAccessReader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{
		scores:    scores,
		students:  students,
		subjects:  subjects,
		terms:     terms,
		teachers:  teachers,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// EnsureCanRecord checks that the caller may enter scores for the given
// subject and students. Admins and head teachers may record anywhere,
// subject teachers only in their assigned subjects, class teachers only
// for students of their own class.
func (s *ScoreService) EnsureCanRecord(ctx context.Context, claims *models.JWTClaims, subjectID string, studentIDs ...string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleAdmin || claims.Role == models.RoleHeadTeacher {
		return nil
	}

	teacher, err := s.teachers.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrForbidden, "no teacher profile linked to this account")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
	}

	switch claims.Role {
	case models.RoleSubjectTeacher:
		ok, err := s.teachers.TeachesSubject(ctx, teacher.ID, subjectID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject assignment")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "subject is not assigned to this teacher")
		}
	case models.RoleClassTeacher:
		if teacher.ClassTeacherOf == nil {
			return appErrors.Clone(appErrors.ErrForbidden, "teacher is not assigned to a class")
		}
		for _, studentID := range studentIDs {
			student, err := s.students.FindByID(ctx, studentID)
			if err != nil {
				if errors.Is(err, appErrors.ErrNotFound) {
					return appErrors.Clone(appErrors.ErrNotFound, "student not found")
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
			}
			if student.GradeLevelID != *teacher.ClassTeacherOf {
				return appErrors.Clone(appErrors.ErrForbidden, "student is not in this teacher's class")
			}
		}
	default:
		return appErrors.ErrForbidden
	}
	return nil
}

// List returns scores matching the filter with derived fields attached.
func (s *ScoreService) List(ctx context.Context, filter models.ScoreFilter) ([]ScoreView, error) {
	scores, err := s.scores.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	views := make([]ScoreView, 0, len(scores))
	for _, score := range scores {
		views = append(views, newScoreView(score))
	}
	return views, nil
}

// Upsert records one student's marks in one subject, overwriting any
// previous entry for the same term and year.
func (s *ScoreService) Upsert(ctx context.Context, req UpsertScoreRequest) (*ScoreView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	termID, yearID, err := s.resolvePeriod(ctx, req.TermID, req.AcademicYearID)
	if err != nil {
		return nil, err
	}
	if err := ensureScoresWritable(ctx, s.terms, termID); err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	score := models.Score{
		StudentID:      req.StudentID,
		SubjectID:      req.SubjectID,
		TermID:         termID,
		AcademicYearID: yearID,
		ClassScore:     req.ClassScore,
		ExamScore:      req.ExamScore,
	}
	if err := s.scores.Upsert(ctx, &score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score")
	}
	s.invalidateReports(ctx, termID, yearID)
	view := newScoreView(score)
	return &view, nil
}

// BulkUpsert records a subject's scores for many students at once. The
// whole batch is validated before anything is written.
func (s *ScoreService) BulkUpsert(ctx context.Context, req BulkScoresRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk score payload")
	}
	termID, yearID, err := s.resolvePeriod(ctx, req.TermID, req.AcademicYearID)
	if err != nil {
		return 0, err
	}
	if err := ensureScoresWritable(ctx, s.terms, termID); err != nil {
		return 0, err
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	seen := make(map[string]struct{}, len(req.Items))
	scores := make([]models.Score, 0, len(req.Items))
	for _, item := range req.Items {
		if _, dup := seen[item.StudentID]; dup {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate entry for student %s", item.StudentID))
		}
		seen[item.StudentID] = struct{}{}
		scores = append(scores, models.Score{
			StudentID:      item.StudentID,
			SubjectID:      req.SubjectID,
			TermID:         termID,
			AcademicYearID: yearID,
			ClassScore:     item.ClassScore,
			ExamScore:      item.ExamScore,
		})
	}
	if err := s.scores.BulkUpsert(ctx, scores); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save scores")
	}
	s.invalidateReports(ctx, termID, yearID)
	s.logger.Info("bulk scores saved",
		zap.String("subject_id", req.SubjectID),
		zap.String("term_id", termID),
		zap.Int("count", len(scores)))
	return len(scores), nil
}

func (s *ScoreService) resolvePeriod(ctx context.Context, termID, yearID string) (string, string, error) {
	if termID != "" && yearID != "" {
		return termID, yearID, nil
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
	if yearID == "" {
		yearID = period.AcademicYear.ID
	}
	return termID, yearID, nil
}

// ensureScoresWritable rejects writes to a term whose scores have been
// finalized.
func ensureScoresWritable(ctx context.Context, terms scorePeriodReader, termID string) error {
	term, err := terms.FindTermByID(ctx, termID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrValidation, "term does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if term.ScoresFinalized {
		return appErrors.ErrScoresLocked
	}
	return nil
}

func (s *ScoreService) invalidateReports(ctx context.Context, termID, yearID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("reports:%s:%s:*", yearID, termID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func newScoreView(score models.Score) ScoreView {
	total := ranking.Total(score.ClassScore, score.ExamScore)
	grade := ranking.Letter(total)
	return ScoreView{
		Score:  score,
		Total:  total,
		Grade:  string(grade),
		Remark: ranking.Remark(grade),
	}
}
