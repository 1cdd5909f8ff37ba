package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
)

type termRepository interface {
	ListAcademicYears(ctx context.Context) ([]models.AcademicYear, error)
	CreateAcademicYear(ctx context.Context, year *models.AcademicYear) error
	FindAcademicYearByID(ctx context.Context, id string) (*models.AcademicYear, error)
	ListTerms(ctx context.Context, filter models.TermFilter) ([]models.Term, error)
	FindTermByID(ctx context.Context, id string) (*models.Term, error)
	CreateTerm(ctx context.Context, term *models.Term) error
	UpdateTerm(ctx context.Context, term *models.Term) error
	SetCurrentTerm(ctx context.Context, termID string) error
	SetScoresFinalized(ctx context.Context, termID string, finalized bool) error
	CurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error)
}

var academicYearLabel = regexp.MustCompile(`^\d{4}/\d{4}$`)

// CreateAcademicYearRequest captures a new school year.
type CreateAcademicYearRequest struct {
	Label string `json:"label" validate:"required"`
}

// CreateTermRequest captures a new term within a year.
type CreateTermRequest struct {
	AcademicYearID string     `json:"academic_year_id" validate:"required"`
	Name           string     `json:"name" validate:"required,oneof='Term 1' 'Term 2' 'Term 3'"`
	StartDate      time.Time  `json:"start_date" validate:"required"`
	EndDate        time.Time  `json:"end_date" validate:"required"`
	VacationDate   *time.Time `json:"vacation_date"`
	ReopeningDate  *time.Time `json:"reopening_date"`
}

// UpdateTermRequest modifies term dates.
type UpdateTermRequest struct {
	StartDate     time.Time  `json:"start_date" validate:"required"`
	EndDate       time.Time  `json:"end_date" validate:"required"`
	VacationDate  *time.Time `json:"vacation_date"`
	ReopeningDate *time.Time `json:"reopening_date"`
}

// TermService manages academic years and terms.
type TermService struct {
	repo      termRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermService constructs a TermService.
func NewTermService(repo termRepository, validate *validator.Validate, logger *zap.Logger) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, validator: validate, logger: logger}
}

// ListAcademicYears returns all academic years.
func (s *TermService) ListAcademicYears(ctx context.Context) ([]models.AcademicYear, error) {
	years, err := s.repo.ListAcademicYears(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, nil
}

// CreateAcademicYear registers a new school year.
func (s *TermService) CreateAcademicYear(ctx context.Context, req CreateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	if !academicYearLabel.MatchString(req.Label) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "label must look like 2023/2024")
	}
	year := &models.AcademicYear{Label: req.Label}
	if err := s.repo.CreateAcademicYear(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}
	return year, nil
}

// ListTerms returns terms, optionally filtered by academic year.
func (s *TermService) ListTerms(ctx context.Context, filter models.TermFilter) ([]models.Term, error) {
	terms, err := s.repo.ListTerms(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// CreateTerm adds a term to an academic year. A year carries at most one
// term of each name.
func (s *TermService) CreateTerm(ctx context.Context, req CreateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	if _, err := s.repo.FindAcademicYearByID(ctx, req.AcademicYearID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "academic year does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check academic year")
	}

	siblings, err := s.repo.ListTerms(ctx, models.TermFilter{AcademicYearID: req.AcademicYearID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	for _, sibling := range siblings {
		if string(sibling.Name) == req.Name {
			return nil, appErrors.Clone(appErrors.ErrConflict, "term already exists for this academic year")
		}
	}

	term := &models.Term{
		AcademicYearID: req.AcademicYearID,
		Name:           models.TermName(req.Name),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		VacationDate:   req.VacationDate,
		ReopeningDate:  req.ReopeningDate,
	}
	if err := s.repo.CreateTerm(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}
	return term, nil
}

// UpdateTerm adjusts term dates.
func (s *TermService) UpdateTerm(ctx context.Context, id string, req UpdateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	term, err := s.repo.FindTermByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	term.StartDate = req.StartDate
	term.EndDate = req.EndDate
	term.VacationDate = req.VacationDate
	term.ReopeningDate = req.ReopeningDate
	if err := s.repo.UpdateTerm(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term")
	}
	return term, nil
}

// SetCurrentTerm marks the given term and its academic year as current,
// clearing any previous current markers.
func (s *TermService) SetCurrentTerm(ctx context.Context, termID string) (*models.CurrentPeriod, error) {
	if _, err := s.repo.FindTermByID(ctx, termID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if err := s.repo.SetCurrentTerm(ctx, termID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set current term")
	}
	period, err := s.repo.CurrentPeriod(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}
	s.logger.Info("current term changed", zap.String("term_id", period.Term.ID), zap.String("academic_year_id", period.AcademicYear.ID))
	return period, nil
}

// FinalizeScores locks a term against further score entry. Report
// assembly and exports keep working on the frozen data.
func (s *TermService) FinalizeScores(ctx context.Context, termID string) (*models.Term, error) {
	return s.setScoresFinalized(ctx, termID, true)
}

// ReopenScores lifts the score lock on a term.
func (s *TermService) ReopenScores(ctx context.Context, termID string) (*models.Term, error) {
	return s.setScoresFinalized(ctx, termID, false)
}

func (s *TermService) setScoresFinalized(ctx context.Context, termID string, finalized bool) (*models.Term, error) {
	term, err := s.repo.FindTermByID(ctx, termID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if term.ScoresFinalized == finalized {
		return term, nil
	}
	if err := s.repo.SetScoresFinalized(ctx, termID, finalized); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update score lock")
	}
	term.ScoresFinalized = finalized
	s.logger.Info("term score lock changed", zap.String("term_id", termID), zap.Bool("finalized", finalized))
	return term, nil
}

// CurrentPeriod returns the active academic year and term.
func (s *TermService) CurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error) {
	period, err := s.repo.CurrentPeriod(ctx)
	if err != nil {
		if errors.Is(err, appErrors.ErrNoCurrentTerm) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}
	return period, nil
}
