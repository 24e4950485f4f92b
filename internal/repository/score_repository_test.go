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

func TestScoreRepositoryUpsertScore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectQuery("INSERT INTO student_scores").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	value := 88.5
	score := &models.StudentScore{StudentID: 3, ClassSubjectID: 5, AssessmentTypeID: 1, Score: &value}
	err := repo.UpsertScore(context.Background(), score)
	require.NoError(t, err)
	assert.Equal(t, int64(42), score.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryWeightMap(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "weight", "created_at", "updated_at"}).
		AddRow(int64(1), "PH", "Penilaian Harian", 2.0, time.Now(), time.Now()).
		AddRow(int64(2), "PAS", "Penilaian Akhir Semester", 1.0, time.Now(), time.Now())
	mock.ExpectQuery("FROM assessment_types").
		WillReturnRows(rows)

	weights, err := repo.WeightMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"PH": 2.0, "PAS": 1.0}, weights)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryScoreRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	value := 90.0
	rows := sqlmock.NewRows([]string{"assessment_code", "weight", "score"}).
		AddRow("PH", 2.0, value).
		AddRow("PAS", 1.0, nil)
	mock.ExpectQuery("FROM student_scores").
		WithArgs(int64(3), int64(5)).
		WillReturnRows(rows)

	scores, err := repo.ScoreRows(context.Background(), 3, 5)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "PH", scores[0].AssessmentCode)
	require.NotNil(t, scores[0].Score)
	assert.Equal(t, value, *scores[0].Score)
	assert.Nil(t, scores[1].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
