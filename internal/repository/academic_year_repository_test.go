package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcademicYearRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE academic_years SET is_active = FALSE").
		WithArgs(sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_years SET is_active = TRUE").
		WithArgs(int64(2), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetActive(context.Background(), 2)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryEnsureActiveFindsExisting(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "is_active", "created_at", "updated_at"}).
		AddRow(int64(1), "2025/2026", time.Now(), time.Now().AddDate(1, 0, 0), true, time.Now(), time.Now())
	mock.ExpectQuery("FROM academic_years WHERE is_active = TRUE").
		WillReturnRows(rows)

	year, err := repo.EnsureActive(context.Background(), nil, "2026/2027")
	require.NoError(t, err)
	assert.Equal(t, "2025/2026", year.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryEnsureActiveCreatesFallback(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectQuery("FROM academic_years WHERE is_active = TRUE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO academic_years").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	year, err := repo.EnsureActive(context.Background(), nil, "2026/2027")
	require.NoError(t, err)
	assert.Equal(t, int64(5), year.ID)
	assert.Equal(t, "2026/2027", year.Name)
	assert.True(t, year.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
