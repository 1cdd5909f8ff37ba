package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	AssignSubjects(ctx context.Context, teacherID string, subjectIDs []string) error
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateTeacherRequest links a teacher profile to an existing user account.
type CreateTeacherRequest struct {
	UserID         string  `json:"user_id" validate:"required"`
	FullName       string  `json:"full_name" validate:"required"`
	Phone          *string `json:"phone"`
	ClassTeacherOf *string `json:"class_teacher_of"`
}

// UpdateTeacherRequest modifies a teacher profile.
type UpdateTeacherRequest struct {
	FullName       string  `json:"full_name" validate:"required"`
	Phone          *string `json:"phone"`
	ClassTeacherOf *string `json:"class_teacher_of"`
	Active         *bool   `json:"active"`
}

// AssignSubjectsRequest replaces a teacher's subject assignments.
type AssignSubjectsRequest struct {
	SubjectIDs []string `json:"subject_ids" validate:"required,min=1,dive,required"`
}

// TeacherService manages teacher profiles and subject assignments.
type TeacherService struct {
	repo        teacherRepository
	users       userFinder
	subjects    subjectReader
	gradeLevels gradeLevelReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, users userFinder, subjects subjectReader, gradeLevels gradeLevelReader, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, users: users, subjects: subjects, gradeLevels: gradeLevels, validator: validate, logger: logger}
}

// List returns teachers with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return teachers, pagination, nil
}

// Get returns one teacher with assigned subject IDs.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher profile for an existing user account. One user
// holds at most one profile.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "user account does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user account")
	}
	if user.Role == models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "admin accounts cannot hold a teacher profile")
	}

	existing, err := s.repo.FindByUserID(ctx, req.UserID)
	if err != nil && !errors.Is(err, appErrors.ErrNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher profile")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already has a teacher profile")
	}

	if req.ClassTeacherOf != nil {
		if _, err := s.gradeLevels.FindByID(ctx, *req.ClassTeacherOf); err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "grade level does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check grade level")
		}
	}

	teacher := &models.Teacher{
		UserID:         req.UserID,
		FullName:       req.FullName,
		Phone:          req.Phone,
		ClassTeacherOf: req.ClassTeacherOf,
		Active:         true,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies a teacher profile.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	if req.ClassTeacherOf != nil {
		if _, err := s.gradeLevels.FindByID(ctx, *req.ClassTeacherOf); err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "grade level does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check grade level")
		}
	}

	teacher := detail.Teacher
	teacher.FullName = req.FullName
	teacher.Phone = req.Phone
	teacher.ClassTeacherOf = req.ClassTeacherOf
	if req.Active != nil {
		teacher.Active = *req.Active
	}
	if err := s.repo.Update(ctx, &teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return &teacher, nil
}

// AssignSubjects replaces the teacher's subject assignments.
func (s *TeacherService) AssignSubjects(ctx context.Context, teacherID string, req AssignSubjectsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.repo.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	for _, subjectID := range req.SubjectIDs {
		if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrValidation, "subject does not exist: "+subjectID)
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
		}
	}

	if err := s.repo.AssignSubjects(ctx, teacherID, req.SubjectIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign subjects")
	}
	return nil
}
