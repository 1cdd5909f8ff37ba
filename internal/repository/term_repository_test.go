package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"

	"github.com/noah-isme/edu-report-api/internal/models"
)

func newTermMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTermRepositoryCurrentPeriod(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	now := time.Now()
	termRows := sqlmock.NewRows([]string{"id", "academic_year_id", "name", "start_date", "end_date", "vacation_date", "reopening_date", "is_current", "scores_finalized", "created_at", "updated_at"}).
		AddRow("t1", "y1", "Term 2", now, now, nil, nil, true, false, now, now)
	mock.ExpectQuery("FROM terms t WHERE t.is_current = TRUE").WillReturnRows(termRows)

	yearRows := sqlmock.NewRows([]string{"id", "label", "is_current", "created_at", "updated_at"}).
		AddRow("y1", "2023/2024", true, now, now)
	mock.ExpectQuery("FROM academic_years WHERE id").WithArgs("y1").WillReturnRows(yearRows)

	period, err := repo.CurrentPeriod(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TermTwo, period.Term.Name)
	assert.Equal(t, "2023/2024", period.AcademicYear.Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryCurrentPeriodMissing(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectQuery("FROM terms t WHERE t.is_current = TRUE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.CurrentPeriod(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrNoCurrentTerm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositorySetCurrentTerm(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT academic_year_id FROM terms").
		WithArgs("t2").
		WillReturnRows(sqlmock.NewRows([]string{"academic_year_id"}).AddRow("y1"))
	mock.ExpectExec("UPDATE terms SET is_current = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE terms SET is_current = TRUE").
		WithArgs("t2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_years SET is_current = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_years SET is_current = TRUE").
		WithArgs("y1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetCurrentTerm(context.Background(), "t2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositorySetScoresFinalized(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectExec("UPDATE terms SET scores_finalized").
		WithArgs("t1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetScoresFinalized(context.Background(), "t1", true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositorySetScoresFinalizedUnknownTerm(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectExec("UPDATE terms SET scores_finalized").
		WithArgs("missing", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetScoresFinalized(context.Background(), "missing", true)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
