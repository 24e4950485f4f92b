package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
)

func TestRombelRepositoryFindByIDLocksInsideTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRombelRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rombels WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "class_id", "academic_year_id", "student_capacity"}).
			AddRow(int64(4), "X-A", int64(1), int64(2), 32))

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	rombel, err := repo.FindByID(context.Background(), tx, 4)
	require.NoError(t, err)
	assert.Equal(t, 32, rombel.StudentCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelRepositoryCountActiveMembers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRombelRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM rombel_students").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(31))

	count, err := repo.CountActiveMembers(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 31, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelRepositoryInsertMembership(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRombelRepository(db)

	mock.ExpectExec("INSERT INTO rombel_students").
		WithArgs(int64(4), int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.InsertMembership(context.Background(), nil, 4, 3)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelRepositoryDeactivateMembership(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRombelRepository(db)

	mock.ExpectQuery("UPDATE rombel_students SET is_active = FALSE").
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"rombel_id"}).AddRow(int64(4)))

	rombelID, err := repo.DeactivateMembership(context.Background(), nil, 3)
	require.NoError(t, err)
	require.NotNil(t, rombelID)
	assert.Equal(t, int64(4), *rombelID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelRepositoryDeactivateMembershipWithoutActiveRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRombelRepository(db)

	mock.ExpectQuery("UPDATE rombel_students SET is_active = FALSE").
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"rombel_id"}))

	rombelID, err := repo.DeactivateMembership(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Nil(t, rombelID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelRepositoryListTargets(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRombelRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "current_count"}).
		AddRow(int64(11), "XI-A", 32, 30).
		AddRow(int64(12), "XI-B", 32, 32)
	mock.ExpectQuery("SELECT r.id, r.name, r.student_capacity AS capacity").
		WithArgs(int64(2), int64(1)).
		WillReturnRows(rows)

	targets, err := repo.ListTargets(context.Background(), 2, 1)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "XI-A", targets[0].Name)
	assert.Equal(t, 32, targets[1].CurrentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelRepositoryCreateInsideTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRombelRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO rombels").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	rombel := &models.Rombel{Name: "X-C", ClassID: 1, AcademicYearID: 1, StudentCapacity: 30}
	require.NoError(t, repo.Create(context.Background(), tx, rombel))
	require.NoError(t, tx.Commit())
	assert.Equal(t, int64(21), rombel.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelRepositoryDeleteCascadeHelpers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRombelRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students SET rombel_id = NULL").
		WithArgs(int64(4), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM rombel_students").
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM rombels").
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.NullifyStudentRefs(context.Background(), tx, 4))
	require.NoError(t, repo.DeleteMemberships(context.Background(), tx, 4))
	require.NoError(t, repo.Delete(context.Background(), tx, 4))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
