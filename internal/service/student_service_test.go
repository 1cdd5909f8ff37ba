package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
)

type studentRepoStub struct {
	students map[string]*models.StudentDetail
	byNumber map[string]*models.Student
	created  []*models.Student
}

func newStudentRepoStub() *studentRepoStub {
	return &studentRepoStub{
		students: make(map[string]*models.StudentDetail),
		byNumber: make(map[string]*models.Student),
	}
}

func (s *studentRepoStub) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var out []models.StudentDetail
	for _, detail := range s.students {
		out = append(out, *detail)
	}
	return out, len(out), nil
}

func (s *studentRepoStub) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, ok := s.students[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return detail, nil
}

func (s *studentRepoStub) FindByNumber(ctx context.Context, number string) (*models.Student, error) {
	student, ok := s.byNumber[number]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return student, nil
}

func (s *studentRepoStub) Create(ctx context.Context, student *models.Student) error {
	student.ID = "generated"
	s.created = append(s.created, student)
	s.byNumber[student.StudentNumber] = student
	s.students[student.ID] = &models.StudentDetail{Student: *student}
	return nil
}

func (s *studentRepoStub) Update(ctx context.Context, student *models.Student) error {
	if _, ok := s.students[student.ID]; !ok {
		return appErrors.ErrNotFound
	}
	s.students[student.ID] = &models.StudentDetail{Student: *student}
	return nil
}

func (s *studentRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.students[id]; !ok {
		return appErrors.ErrNotFound
	}
	delete(s.students, id)
	return nil
}

func testGradeLevels() *gradeLevelStub {
	return &gradeLevelStub{levels: map[string]*models.GradeLevel{
		"g1": {ID: "g1", Name: "Basic 1", SortOrder: 1},
	}}
}

func TestStudentServiceCreate(t *testing.T) {
	repo := newStudentRepoStub()
	svc := NewStudentService(repo, testGradeLevels(), nil, nil)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: "STU-001",
		FirstName:     "Ama",
		LastName:      "Mensah",
		Gender:        "FEMALE",
		GradeLevelID:  "g1",
	})
	require.NoError(t, err)
	assert.Equal(t, "generated", student.ID)
	assert.True(t, student.Active)
	require.Len(t, repo.created, 1)
}

func TestStudentServiceCreateDuplicateNumber(t *testing.T) {
	repo := newStudentRepoStub()
	repo.byNumber["STU-001"] = &models.Student{ID: "s1", StudentNumber: "STU-001"}
	svc := NewStudentService(repo, testGradeLevels(), nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: "STU-001",
		FirstName:     "Kofi",
		LastName:      "Owusu",
		Gender:        "MALE",
		GradeLevelID:  "g1",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestStudentServiceCreateUnknownGradeLevel(t *testing.T) {
	svc := NewStudentService(newStudentRepoStub(), testGradeLevels(), nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: "STU-002",
		FirstName:     "Kofi",
		LastName:      "Owusu",
		Gender:        "MALE",
		GradeLevelID:  "missing",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceUpdatePreservesNumber(t *testing.T) {
	repo := newStudentRepoStub()
	repo.students["s1"] = &models.StudentDetail{Student: models.Student{
		ID:            "s1",
		StudentNumber: "STU-001",
		FirstName:     "Ama",
		LastName:      "Mensah",
		Gender:        "FEMALE",
		GradeLevelID:  "g1",
		Active:        true,
	}}
	svc := NewStudentService(repo, testGradeLevels(), nil, nil)

	inactive := false
	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{
		FirstName:    "Ama",
		LastName:     "Boateng",
		Gender:       "FEMALE",
		GradeLevelID: "g1",
		Active:       &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "STU-001", updated.StudentNumber)
	assert.Equal(t, "Boateng", updated.LastName)
	assert.False(t, updated.Active)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := NewStudentService(newStudentRepoStub(), testGradeLevels(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
