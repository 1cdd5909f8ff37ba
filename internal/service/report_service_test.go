package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-report-api/internal/models"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
)

type cohortStub struct {
	rows []models.CohortScore
}

func (c *cohortStub) FetchCohort(ctx context.Context, termID, academicYearID, gradeLevelID string) ([]models.CohortScore, error) {
	return c.rows, nil
}

type rosterStub struct {
	students map[string]*models.StudentDetail
	roster   []string
}

func (r *rosterStub) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, ok := r.students[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return student, nil
}

func (r *rosterStub) Roster(ctx context.Context, gradeLevelID, academicYearID string) ([]string, error) {
	return r.roster, nil
}

type periodStub struct {
	period *models.CurrentPeriod
}

func (p *periodStub) CurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error) {
	if p.period == nil {
		return nil, appErrors.ErrNoCurrentTerm
	}
	return p.period, nil
}

func (p *periodStub) FindTermByID(ctx context.Context, id string) (*models.Term, error) {
	if p.period != nil && p.period.Term.ID == id {
		term := p.period.Term
		return &term, nil
	}
	return nil, appErrors.ErrNotFound
}

func (p *periodStub) FindAcademicYearByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	if p.period != nil && p.period.AcademicYear.ID == id {
		year := p.period.AcademicYear
		return &year, nil
	}
	return nil, appErrors.ErrNotFound
}

type gradeLevelStub struct {
	levels map[string]*models.GradeLevel
}

func (g *gradeLevelStub) FindByID(ctx context.Context, id string) (*models.GradeLevel, error) {
	level, ok := g.levels[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return level, nil
}

type schoolStub struct {
	school *models.School
}

func (s *schoolStub) Get(ctx context.Context) (*models.School, error) {
	if s.school == nil {
		return nil, appErrors.ErrNotFound
	}
	return s.school, nil
}

type remarksStub struct {
	remarks map[string]*models.ReportRemarks
}

func (r *remarksStub) Find(ctx context.Context, studentID, termID, academicYearID string) (*models.ReportRemarks, error) {
	remarks, ok := r.remarks[studentID]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return remarks, nil
}

type cacheStub struct {
	values map[string][]byte
	sets   int
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	return nil
}

func testPeriod() *models.CurrentPeriod {
	return &models.CurrentPeriod{
		AcademicYear: models.AcademicYear{ID: "y1", Label: "2023/2024", IsCurrent: true},
		Term:         models.Term{ID: "t1", AcademicYearID: "y1", Name: models.TermOne, IsCurrent: true},
	}
}

func testCohort() []models.CohortScore {
	return []models.CohortScore{
		{StudentID: "s1", StudentName: "Ama Mensah", SubjectID: "math", SubjectName: "Mathematics", ClassScore: 45, ExamScore: 45},
		{StudentID: "s1", StudentName: "Ama Mensah", SubjectID: "eng", SubjectName: "English", ClassScore: 40, ExamScore: 40},
		{StudentID: "s2", StudentName: "Kofi Owusu", SubjectID: "math", SubjectName: "Mathematics", ClassScore: 45, ExamScore: 45},
		{StudentID: "s2", StudentName: "Kofi Owusu", SubjectID: "eng", SubjectName: "English", ClassScore: 35, ExamScore: 35},
	}
}

func newTestReportService(cohort []models.CohortScore, roster []string, cache reportCache) *ReportService {
	students := &rosterStub{
		students: map[string]*models.StudentDetail{
			"s1": {Student: models.Student{ID: "s1", FirstName: "Ama", LastName: "Mensah", GradeLevelID: "g1"}},
			"s2": {Student: models.Student{ID: "s2", FirstName: "Kofi", LastName: "Owusu", GradeLevelID: "g1"}},
			"s3": {Student: models.Student{ID: "s3", FirstName: "Esi", LastName: "Asante", GradeLevelID: "g1"}},
		},
		roster: roster,
	}
	levels := &gradeLevelStub{levels: map[string]*models.GradeLevel{"g1": {ID: "g1", Name: "Basic 6"}}}
	return NewReportService(
		&cohortStub{rows: cohort},
		students,
		&periodStub{period: testPeriod()},
		levels,
		&schoolStub{school: &models.School{ID: "sch1", Name: "Unity Basic School"}},
		&remarksStub{remarks: map[string]*models.ReportRemarks{}},
		cache,
		time.Minute,
		nil,
	)
}

func TestStudentReportCardDerivesGradesAndPositions(t *testing.T) {
	svc := newTestReportService(testCohort(), []string{"s1", "s2"}, nil)

	card, err := svc.StudentReportCard(context.Background(), "s1", "", "")
	require.NoError(t, err)

	require.Len(t, card.Subjects, 2)
	math := card.Subjects[0]
	assert.Equal(t, "Mathematics", math.SubjectName)
	assert.Equal(t, 90.0, math.Total)
	assert.Equal(t, "A", math.Grade)
	assert.Equal(t, "Excellent", math.Remark)
	require.NotNil(t, math.Position)
	assert.Equal(t, 1, *math.Position)

	eng := card.Subjects[1]
	assert.Equal(t, 80.0, eng.Total)
	require.NotNil(t, eng.Position)
	assert.Equal(t, 1, *eng.Position)

	assert.Equal(t, 85.0, card.AverageScore)
	require.NotNil(t, card.ClassPosition)
	assert.Equal(t, 1, *card.ClassPosition)
	assert.Equal(t, 2, card.ClassSize)
	require.NotNil(t, card.School)
	assert.Equal(t, "Unity Basic School", card.School.Name)
}

func TestStudentReportCardSharedSubjectPosition(t *testing.T) {
	svc := newTestReportService(testCohort(), []string{"s1", "s2"}, nil)

	card, err := svc.StudentReportCard(context.Background(), "s2", "", "")
	require.NoError(t, err)

	require.Len(t, card.Subjects, 2)
	// s2 ties s1 in mathematics, trails in english.
	require.NotNil(t, card.Subjects[0].Position)
	assert.Equal(t, 1, *card.Subjects[0].Position)
	require.NotNil(t, card.Subjects[1].Position)
	assert.Equal(t, 2, *card.Subjects[1].Position)
	require.NotNil(t, card.ClassPosition)
	assert.Equal(t, 2, *card.ClassPosition)
}

func TestStudentReportCardZeroRecordStudent(t *testing.T) {
	svc := newTestReportService(testCohort(), []string{"s1", "s2", "s3"}, nil)

	card, err := svc.StudentReportCard(context.Background(), "s3", "", "")
	require.NoError(t, err)

	assert.Empty(t, card.Subjects)
	assert.Equal(t, 0.0, card.AverageScore)
	require.NotNil(t, card.ClassPosition)
	assert.Equal(t, 3, *card.ClassPosition)
	assert.Equal(t, 3, card.ClassSize)
}

func TestStudentReportCardUnknownStudent(t *testing.T) {
	svc := newTestReportService(testCohort(), []string{"s1", "s2"}, nil)

	_, err := svc.StudentReportCard(context.Background(), "ghost", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentReportCardNoCurrentTerm(t *testing.T) {
	svc := newTestReportService(testCohort(), []string{"s1"}, nil)
	svc.terms = &periodStub{}

	_, err := svc.StudentReportCard(context.Background(), "s1", "", "")
	assert.ErrorIs(t, err, appErrors.ErrNoCurrentTerm)
}

func TestStudentReportCardCachesPayload(t *testing.T) {
	cache := &cacheStub{}
	svc := newTestReportService(testCohort(), []string{"s1", "s2"}, cache)

	_, err := svc.StudentReportCard(context.Background(), "s1", "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
}

func TestClassReportSheetOrdersByPosition(t *testing.T) {
	svc := newTestReportService(testCohort(), []string{"s1", "s2", "s3"}, nil)

	sheet, err := svc.ClassReportSheet(context.Background(), "g1", "t1", "y1")
	require.NoError(t, err)

	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "s1", sheet.Rows[0].StudentID)
	assert.Equal(t, 1, sheet.Rows[0].ClassPosition)
	assert.Equal(t, "s2", sheet.Rows[1].StudentID)
	assert.Equal(t, 2, sheet.Rows[1].ClassPosition)
	assert.Equal(t, "s3", sheet.Rows[2].StudentID)
	assert.Equal(t, 3, sheet.Rows[2].ClassPosition)
	assert.Equal(t, 0.0, sheet.Rows[2].AverageScore)
	assert.Empty(t, sheet.Warnings)
}

func TestClassReportSheetWarnsOnOffRosterScores(t *testing.T) {
	svc := newTestReportService(testCohort(), []string{"s1"}, nil)

	sheet, err := svc.ClassReportSheet(context.Background(), "g1", "t1", "y1")
	require.NoError(t, err)

	require.Len(t, sheet.Warnings, 1)
	assert.Contains(t, sheet.Warnings[0], "s2")
	// s2 is still ranked even though the roster missed them.
	require.Len(t, sheet.Rows, 2)
}
