package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
)

type gradeLevelRepository interface {
	List(ctx context.Context) ([]models.GradeLevel, error)
	FindByID(ctx context.Context, id string) (*models.GradeLevel, error)
	Create(ctx context.Context, level *models.GradeLevel) error
	Update(ctx context.Context, level *models.GradeLevel) error
	Delete(ctx context.Context, id string) error
}

// GradeLevelRequest captures creation and update payloads.
type GradeLevelRequest struct {
	Name      string `json:"name" validate:"required"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

// GradeLevelService manages the school's grade level structure.
type GradeLevelService struct {
	repo      gradeLevelRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeLevelService constructs a GradeLevelService.
func NewGradeLevelService(repo gradeLevelRepository, validate *validator.Validate, logger *zap.Logger) *GradeLevelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeLevelService{repo: repo, validator: validate, logger: logger}
}

// List returns all grade levels in display order.
func (s *GradeLevelService) List(ctx context.Context) ([]models.GradeLevel, error) {
	levels, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade levels")
	}
	return levels, nil
}

// Get returns one grade level.
func (s *GradeLevelService) Get(ctx context.Context, id string) (*models.GradeLevel, error) {
	level, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade level")
	}
	return level, nil
}

// Create adds a grade level.
func (s *GradeLevelService) Create(ctx context.Context, req GradeLevelRequest) (*models.GradeLevel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade level payload")
	}
	level := &models.GradeLevel{Name: req.Name, SortOrder: req.SortOrder}
	if err := s.repo.Create(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade level")
	}
	return level, nil
}

// Update modifies a grade level.
func (s *GradeLevelService) Update(ctx context.Context, id string, req GradeLevelRequest) (*models.GradeLevel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade level payload")
	}
	level, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade level")
	}
	level.Name = req.Name
	level.SortOrder = req.SortOrder
	if err := s.repo.Update(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade level")
	}
	return level, nil
}

// Delete removes a grade level.
func (s *GradeLevelService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade level not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade level")
	}
	return nil
}
