package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
)

type remarksRepository interface {
	Find(ctx context.Context, studentID, termID, academicYearID string) (*models.ReportRemarks, error)
	Upsert(ctx context.Context, remarks *models.ReportRemarks) error
}

// UpsertRemarksRequest captures the qualitative report card section. Term
// and academic year default to the current period when omitted.
type UpsertRemarksRequest struct {
	StudentID             string  `json:"student_id" validate:"required"`
	TermID                string  `json:"term_id"`
	AcademicYearID        string  `json:"academic_year_id"`
	AttendanceDaysPresent int     `json:"attendance_days_present" validate:"gte=0"`
	AttendanceDaysAbsent  int     `json:"attendance_days_absent" validate:"gte=0"`
	TalentAndInterest     string  `json:"talent_and_interest"`
	ClassTeacherRemarks   string  `json:"class_teacher_remarks"`
	HeadTeacherRemarks    string  `json:"head_teacher_remarks"`
	ClassTeacherID        *string `json:"class_teacher_id"`
	HeadTeacherID         *string `json:"head_teacher_id"`
}

// RemarksService manages report card remarks.
type RemarksService struct {
	repo      remarksRepository
	students  studentReader
	periods   currentPeriodReader
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRemarksService constructs a RemarksService.
func NewRemarksService(repo remarksRepository, students studentReader, periods currentPeriodReader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *RemarksService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemarksService{repo: repo, students: students, periods: periods, cache: cache, validator: validate, logger: logger}
}

// Get returns the remarks recorded for a student in the given period.
func (s *RemarksService) Get(ctx context.Context, studentID, termID, academicYearID string) (*models.ReportRemarks, error) {
	termID, academicYearID, err := s.resolvePeriod(ctx, termID, academicYearID)
	if err != nil {
		return nil, err
	}
	remarks, err := s.repo.Find(ctx, studentID, termID, academicYearID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no remarks recorded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load remarks")
	}
	return remarks, nil
}

// Upsert records or replaces remarks for a student's report card.
func (s *RemarksService) Upsert(ctx context.Context, req UpsertRemarksRequest) (*models.ReportRemarks, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remarks payload")
	}

	termID, academicYearID, err := s.resolvePeriod(ctx, req.TermID, req.AcademicYearID)
	if err != nil {
		return nil, err
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}

	remarks := &models.ReportRemarks{
		StudentID:             req.StudentID,
		TermID:                termID,
		AcademicYearID:        academicYearID,
		AttendanceDaysPresent: req.AttendanceDaysPresent,
		AttendanceDaysAbsent:  req.AttendanceDaysAbsent,
		TalentAndInterest:     req.TalentAndInterest,
		ClassTeacherRemarks:   req.ClassTeacherRemarks,
		HeadTeacherRemarks:    req.HeadTeacherRemarks,
		ClassTeacherID:        req.ClassTeacherID,
		HeadTeacherID:         req.HeadTeacherID,
	}
	if err := s.repo.Upsert(ctx, remarks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save remarks")
	}

	if s.cache != nil {
		pattern := fmt.Sprintf("reports:%s:%s:*", academicYearID, termID)
		if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("report cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
	return remarks, nil
}

func (s *RemarksService) resolvePeriod(ctx context.Context, termID, academicYearID string) (string, string, error) {
	if termID != "" && academicYearID != "" {
		return termID, academicYearID, nil
	}
	period, err := s.periods.CurrentPeriod(ctx)
	if err != nil {
		if errors.Is(err, appErrors.ErrNoCurrentTerm) {
			return "", "", err
		}
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}
	if termID == "" {
		termID = period.Term.ID
	}
	if academicYearID == "" {
		academicYearID = period.AcademicYear.ID
	}
	return termID, academicYearID, nil
}
