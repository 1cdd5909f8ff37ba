package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
)

type schoolRepository interface {
	Get(ctx context.Context) (*models.School, error)
	Upsert(ctx context.Context, school *models.School) error
}

// SchoolProfileRequest updates the institution profile printed on reports.
type SchoolProfileRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Motto   string `json:"motto"`
}

// SchoolService manages the single school profile.
type SchoolService struct {
	repo      schoolRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs a SchoolService.
func NewSchoolService(repo schoolRepository, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{repo: repo, validator: validate, logger: logger}
}

// Get returns the school profile.
func (s *SchoolService) Get(ctx context.Context) (*models.School, error) {
	school, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school profile not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school profile")
	}
	return school, nil
}

// Update creates or replaces the school profile.
func (s *SchoolService) Update(ctx context.Context, req SchoolProfileRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	school := &models.School{Name: req.Name, Address: req.Address, Motto: req.Motto}
	if err := s.repo.Upsert(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save school profile")
	}
	return school, nil
}
