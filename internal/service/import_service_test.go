package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-report-api/internal/models"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
)

type studentNumberStub struct {
	byNumber map[string]*models.Student
	lookups  int
}

func (s *studentNumberStub) FindByNumber(ctx context.Context, number string) (*models.Student, error) {
	s.lookups++
	student, ok := s.byNumber[number]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return student, nil
}

type subjectCodeStub struct {
	byCode map[string]*models.Subject
}

func (s *subjectCodeStub) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	subject, ok := s.byCode[code]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return subject, nil
}

type bulkWriterStub struct {
	saved []models.Score
}

func (b *bulkWriterStub) BulkUpsert(ctx context.Context, scores []models.Score) error {
	b.saved = append(b.saved, scores...)
	return nil
}

func newTestImportService(writer *bulkWriterStub, students *studentNumberStub) *ImportService {
	subjects := &subjectCodeStub{byCode: map[string]*models.Subject{
		"MATH": {ID: "math", Code: "MATH", Name: "Mathematics"},
		"ENG":  {ID: "eng", Code: "ENG", Name: "English"},
	}}
	return NewImportService(students, subjects, writer, &periodStub{period: testPeriod()}, nil, ImportConfig{MaxRows: 100}, nil)
}

func importStudents() *studentNumberStub {
	return &studentNumberStub{byNumber: map[string]*models.Student{
		"STU-001": {ID: "s1", StudentNumber: "STU-001"},
		"STU-002": {ID: "s2", StudentNumber: "STU-002"},
	}}
}

func TestImportScoresHappyPath(t *testing.T) {
	writer := &bulkWriterStub{}
	svc := newTestImportService(writer, importStudents())

	csvBody := strings.Join([]string{
		"student_number,subject_code,class_score,exam_score",
		"STU-001,MATH,45,45",
		"STU-001,ENG,40,40",
		"STU-002,MATH,30,35",
	}, "\n")

	result, err := svc.ImportScores(context.Background(), strings.NewReader(csvBody), "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	require.Len(t, writer.saved, 3)
	assert.Equal(t, "s1", writer.saved[0].StudentID)
	assert.Equal(t, "math", writer.saved[0].SubjectID)
	assert.Equal(t, "t1", writer.saved[0].TermID)
	assert.Equal(t, "y1", writer.saved[0].AcademicYearID)
}

func TestImportScoresCollectsRowErrors(t *testing.T) {
	writer := &bulkWriterStub{}
	svc := newTestImportService(writer, importStudents())

	csvBody := strings.Join([]string{
		"student_number,subject_code,class_score,exam_score",
		"STU-001,MATH,45,45",
		"STU-999,MATH,30,30",
		"STU-002,PHY,30,30",
		"STU-002,MATH,70,30",
		"STU-002,ENG,abc,30",
	}, "\n")

	result, err := svc.ImportScores(context.Background(), strings.NewReader(csvBody), "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 4, result.Skipped)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, 3, result.Errors[0].Line)
	assert.Contains(t, result.Errors[0].Reason, "STU-999")
	assert.Contains(t, result.Errors[1].Reason, "PHY")
	assert.Contains(t, result.Errors[2].Reason, "between 0 and 50")
	assert.Contains(t, result.Errors[3].Reason, "not a number")
}

func TestImportScoresMissingColumn(t *testing.T) {
	svc := newTestImportService(&bulkWriterStub{}, importStudents())

	csvBody := "student_number,class_score,exam_score\nSTU-001,45,45"
	_, err := svc.ImportScores(context.Background(), strings.NewReader(csvBody), "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportScoresCachesLookups(t *testing.T) {
	writer := &bulkWriterStub{}
	students := importStudents()
	svc := newTestImportService(writer, students)

	csvBody := strings.Join([]string{
		"student_number,subject_code,class_score,exam_score",
		"STU-001,MATH,45,45",
		"STU-001,ENG,40,40",
	}, "\n")

	_, err := svc.ImportScores(context.Background(), strings.NewReader(csvBody), "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, students.lookups)
}

func TestImportScoresNoCurrentTerm(t *testing.T) {
	subjects := &subjectCodeStub{byCode: map[string]*models.Subject{}}
	svc := NewImportService(importStudents(), subjects, &bulkWriterStub{}, &periodStub{}, nil, ImportConfig{}, nil)

	_, err := svc.ImportScores(context.Background(), strings.NewReader("x"), "", "")
	assert.ErrorIs(t, err, appErrors.ErrNoCurrentTerm)
}

func TestImportScoresFinalizedTerm(t *testing.T) {
	writer := &bulkWriterStub{}
	subjects := &subjectCodeStub{byCode: map[string]*models.Subject{}}
	period := testPeriod()
	period.Term.ScoresFinalized = true
	svc := NewImportService(importStudents(), subjects, writer, &periodStub{period: period}, nil, ImportConfig{}, nil)

	_, err := svc.ImportScores(context.Background(), strings.NewReader("x"), "", "")
	assert.ErrorIs(t, err, appErrors.ErrScoresLocked)
	assert.Empty(t, writer.saved)
}
