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

type scoreRepoStub struct {
	stored []models.Score
	listed []models.Score
}

func (s *scoreRepoStub) Upsert(ctx context.Context, score *models.Score) error {
	s.stored = append(s.stored, *score)
	return nil
}

func (s *scoreRepoStub) BulkUpsert(ctx context.Context, scores []models.Score) error {
	s.stored = append(s.stored, scores...)
	return nil
}

func (s *scoreRepoStub) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error) {
	return s.listed, nil
}

type scoreStudentStub struct {
	ids    map[string]struct{}
	grades map[string]string
}

func (s *scoreStudentStub) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if _, ok := s.ids[id]; !ok {
		return nil, appErrors.ErrNotFound
	}
	return &models.StudentDetail{Student: models.Student{ID: id, GradeLevelID: s.grades[id]}}, nil
}

type scoreSubjectStub struct {
	ids map[string]struct{}
}

func (s *scoreSubjectStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if _, ok := s.ids[id]; !ok {
		return nil, appErrors.ErrNotFound
	}
	return &models.Subject{ID: id}, nil
}

type teacherAccessStub struct {
	byUser   map[string]*models.Teacher
	subjects map[string]map[string]struct{}
}

func (t *teacherAccessStub) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	teacher, ok := t.byUser[userID]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return teacher, nil
}

func (t *teacherAccessStub) TeachesSubject(ctx context.Context, teacherID, subjectID string) (bool, error) {
	_, ok := t.subjects[teacherID][subjectID]
	return ok, nil
}

type invalidatorStub struct {
	patterns []string
}

func (s *invalidatorStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newTestScoreService(repo *scoreRepoStub, cache *invalidatorStub) *ScoreService {
	students := &scoreStudentStub{ids: map[string]struct{}{"s1": {}, "s2": {}}}
	subjects := &scoreSubjectStub{ids: map[string]struct{}{"math": {}}}
	return NewScoreService(repo, students, subjects, &periodStub{period: testPeriod()}, &teacherAccessStub{}, cache, nil, nil)
}

func TestScoreUpsertDerivesGrade(t *testing.T) {
	repo := &scoreRepoStub{}
	cache := &invalidatorStub{}
	svc := newTestScoreService(repo, cache)

	view, err := svc.Upsert(context.Background(), UpsertScoreRequest{
		StudentID:  "s1",
		SubjectID:  "math",
		ClassScore: 42,
		ExamScore:  45,
	})
	require.NoError(t, err)
	assert.Equal(t, 87.0, view.Total)
	assert.Equal(t, "A", view.Grade)
	assert.Equal(t, "Excellent", view.Remark)
	assert.Equal(t, "t1", view.TermID)
	assert.Equal(t, "y1", view.AcademicYearID)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, []string{"reports:y1:t1:*"}, cache.patterns)
}

func TestScoreUpsertRejectsOutOfRange(t *testing.T) {
	svc := newTestScoreService(&scoreRepoStub{}, nil)

	_, err := svc.Upsert(context.Background(), UpsertScoreRequest{
		StudentID:  "s1",
		SubjectID:  "math",
		ClassScore: 51,
		ExamScore:  10,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestScoreUpsertUnknownStudent(t *testing.T) {
	svc := newTestScoreService(&scoreRepoStub{}, nil)

	_, err := svc.Upsert(context.Background(), UpsertScoreRequest{
		StudentID:  "ghost",
		SubjectID:  "math",
		ClassScore: 20,
		ExamScore:  20,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScoreUpsertNoCurrentTerm(t *testing.T) {
	repo := &scoreRepoStub{}
	students := &scoreStudentStub{ids: map[string]struct{}{"s1": {}}}
	subjects := &scoreSubjectStub{ids: map[string]struct{}{"math": {}}}
	svc := NewScoreService(repo, students, subjects, &periodStub{}, &teacherAccessStub{}, nil, nil, nil)

	_, err := svc.Upsert(context.Background(), UpsertScoreRequest{
		StudentID:  "s1",
		SubjectID:  "math",
		ClassScore: 20,
		ExamScore:  20,
	})
	require.ErrorIs(t, err, appErrors.ErrNoCurrentTerm)
	assert.Empty(t, repo.stored)
}

func TestScoreUpsertRejectsFinalizedTerm(t *testing.T) {
	repo := &scoreRepoStub{}
	students := &scoreStudentStub{ids: map[string]struct{}{"s1": {}}}
	subjects := &scoreSubjectStub{ids: map[string]struct{}{"math": {}}}
	period := testPeriod()
	period.Term.ScoresFinalized = true
	svc := NewScoreService(repo, students, subjects, &periodStub{period: period}, &teacherAccessStub{}, nil, nil, nil)

	_, err := svc.Upsert(context.Background(), UpsertScoreRequest{
		StudentID:  "s1",
		SubjectID:  "math",
		ClassScore: 20,
		ExamScore:  20,
	})
	require.ErrorIs(t, err, appErrors.ErrScoresLocked)
	assert.Empty(t, repo.stored)
}

func TestScoreBulkUpsertRejectsDuplicates(t *testing.T) {
	repo := &scoreRepoStub{}
	svc := newTestScoreService(repo, nil)

	_, err := svc.BulkUpsert(context.Background(), BulkScoresRequest{
		SubjectID: "math",
		Items: []BulkScoreItem{
			{StudentID: "s1", ClassScore: 30, ExamScore: 30},
			{StudentID: "s1", ClassScore: 40, ExamScore: 40},
		},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.stored)
}

func TestScoreBulkUpsertSavesBatch(t *testing.T) {
	repo := &scoreRepoStub{}
	cache := &invalidatorStub{}
	svc := newTestScoreService(repo, cache)

	count, err := svc.BulkUpsert(context.Background(), BulkScoresRequest{
		SubjectID: "math",
		Items: []BulkScoreItem{
			{StudentID: "s1", ClassScore: 45, ExamScore: 45},
			{StudentID: "s2", ClassScore: 25, ExamScore: 20},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, repo.stored, 2)
	assert.Equal(t, "t1", repo.stored[0].TermID)
	assert.Len(t, cache.patterns, 1)
}

func TestScoreEnsureCanRecordSubjectTeacher(t *testing.T) {
	students := &scoreStudentStub{ids: map[string]struct{}{"s1": {}}}
	subjects := &scoreSubjectStub{ids: map[string]struct{}{"math": {}, "eng": {}}}
	teachers := &teacherAccessStub{
		byUser:   map[string]*models.Teacher{"u1": {ID: "tch1", UserID: "u1"}},
		subjects: map[string]map[string]struct{}{"tch1": {"math": {}}},
	}
	svc := NewScoreService(&scoreRepoStub{}, students, subjects, &periodStub{period: testPeriod()}, teachers, nil, nil, nil)
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleSubjectTeacher}

	require.NoError(t, svc.EnsureCanRecord(context.Background(), claims, "math", "s1"))

	err := svc.EnsureCanRecord(context.Background(), claims, "eng", "s1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestScoreEnsureCanRecordClassTeacher(t *testing.T) {
	ownClass := "g1"
	students := &scoreStudentStub{
		ids:    map[string]struct{}{"s1": {}, "s2": {}},
		grades: map[string]string{"s1": "g1", "s2": "g2"},
	}
	subjects := &scoreSubjectStub{ids: map[string]struct{}{"math": {}}}
	teachers := &teacherAccessStub{
		byUser: map[string]*models.Teacher{"u2": {ID: "tch2", UserID: "u2", ClassTeacherOf: &ownClass}},
	}
	svc := NewScoreService(&scoreRepoStub{}, students, subjects, &periodStub{period: testPeriod()}, teachers, nil, nil, nil)
	claims := &models.JWTClaims{UserID: "u2", Role: models.RoleClassTeacher}

	require.NoError(t, svc.EnsureCanRecord(context.Background(), claims, "math", "s1"))

	err := svc.EnsureCanRecord(context.Background(), claims, "math", "s1", "s2")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestScoreEnsureCanRecordAdminBypass(t *testing.T) {
	svc := newTestScoreService(&scoreRepoStub{}, nil)

	claims := &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}
	require.NoError(t, svc.EnsureCanRecord(context.Background(), claims, "math", "s1"))

	require.ErrorIs(t, svc.EnsureCanRecord(context.Background(), nil, "math", "s1"), appErrors.ErrUnauthorized)
}

func TestScoreListAttachesDerivedFields(t *testing.T) {
	repo := &scoreRepoStub{listed: []models.Score{
		{StudentID: "s1", SubjectID: "math", ClassScore: 30, ExamScore: 31},
		{StudentID: "s2", SubjectID: "math", ClassScore: 20, ExamScore: 25},
	}}
	svc := newTestScoreService(repo, nil)

	views, err := svc.List(context.Background(), models.ScoreFilter{SubjectID: "math"})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "C", views[0].Grade)
	assert.Equal(t, "Good", views[0].Remark)
	assert.Equal(t, "F", views[1].Grade)
	assert.Equal(t, "Fail", views[1].Remark)
}
