package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
)

func TestHistoryRepositoryInsertDefaultsScores(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHistoryRepository(db)

	mock.ExpectQuery("INSERT INTO student_histories").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(13)))

	history := &models.StudentHistory{
		StudentID:      3,
		StatusType:     models.HistoryStatusGraduate,
		CompletionDate: time.Now(),
		GraduationYear: "2026",
	}
	err := repo.Insert(context.Background(), nil, history)
	require.NoError(t, err)
	assert.Equal(t, int64(13), history.ID)
	assert.JSONEq(t, `{}`, string(history.Scores))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryUpdateClericalBuildsSetClause(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHistoryRepository(db)

	cert := "IJZ/2026/017"
	grade := 86.5
	mock.ExpectExec("UPDATE student_histories SET certificate_number = \\$1, final_grade = \\$2, updated_at = \\$3 WHERE id = \\$4").
		WithArgs(cert, grade, sqlmock.AnyArg(), int64(13)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateClerical(context.Background(), 13, ClericalUpdate{CertificateNumber: &cert, FinalGrade: &grade})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryUpdateClericalSkipsEmptyUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHistoryRepository(db)

	err := repo.UpdateClerical(context.Background(), 13, ClericalUpdate{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
