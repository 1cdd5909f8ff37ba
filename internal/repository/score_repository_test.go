package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-report-api/internal/models"
)

func newScoreMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScoreRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec("INSERT INTO scores").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	score := &models.Score{StudentID: "s1", SubjectID: "sub1", TermID: "t1", AcademicYearID: "y1", ClassScore: 40, ExamScore: 45}
	err := repo.Upsert(context.Background(), score)
	require.NoError(t, err)
	assert.NotEmpty(t, score.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scores").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scores").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	scores := []models.Score{
		{StudentID: "s1", SubjectID: "sub1", TermID: "t1", AcademicYearID: "y1", ClassScore: 40, ExamScore: 45},
		{StudentID: "s2", SubjectID: "sub1", TermID: "t1", AcademicYearID: "y1", ClassScore: 30, ExamScore: 35},
	}
	err := repo.BulkUpsert(context.Background(), scores)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryBulkUpsertEmpty(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	err := repo.BulkUpsert(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFetchCohort(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "student_name", "subject_id", "subject_name", "class_score", "exam_score"}).
		AddRow("s1", "Ama Mensah", "sub1", "Mathematics", 40.0, 45.0).
		AddRow("s2", "Kofi Owusu", "sub1", "Mathematics", 30.0, 35.0)
	mock.ExpectQuery("FROM scores s").
		WithArgs("t1", "y1", "g1").
		WillReturnRows(rows)

	cohort, err := repo.FetchCohort(context.Background(), "t1", "y1", "g1")
	require.NoError(t, err)
	require.Len(t, cohort, 2)
	assert.Equal(t, "Mathematics", cohort[0].SubjectName)
	assert.Equal(t, 45.0, cohort[0].ExamScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
