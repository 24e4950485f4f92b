package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	"github.com/syauqi357/siakad-madrasah-sub000/internal/repository"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type fakeLifecycleStudents struct {
	students map[int64]*models.Student
	statuses map[int64]models.StudentStatus
	refs     map[int64]*int64
}

func newFakeLifecycleStudents(students ...*models.Student) *fakeLifecycleStudents {
	f := &fakeLifecycleStudents{
		students: make(map[int64]*models.Student),
		statuses: make(map[int64]models.StudentStatus),
		refs:     make(map[int64]*int64),
	}
	for _, s := range students {
		f.students[s.ID] = s
	}
	return f
}

func (f *fakeLifecycleStudents) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLifecycleStudents) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int64, status models.StudentStatus) error {
	f.statuses[id] = status
	if s, ok := f.students[id]; ok {
		s.Status = status
	}
	return nil
}

func (f *fakeLifecycleStudents) SyncRombelRef(ctx context.Context, exec sqlx.ExtContext, studentID int64, rombelID *int64) error {
	f.refs[studentID] = rombelID
	if s, ok := f.students[studentID]; ok {
		s.RombelID = rombelID
	}
	return nil
}

type fakeLifecycleMemberships struct {
	active  map[int64]int64
	rombels map[int64]*models.Rombel
}

func (f *fakeLifecycleMemberships) DeactivateMembership(ctx context.Context, exec sqlx.ExtContext, studentID int64) (*int64, error) {
	rombelID, ok := f.active[studentID]
	if !ok {
		return nil, nil
	}
	delete(f.active, studentID)
	return &rombelID, nil
}

func (f *fakeLifecycleMemberships) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Rombel, error) {
	if r, ok := f.rombels[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

type fakeLifecycleHistories struct {
	inserted []*models.StudentHistory
	updates  map[int64]repository.ClericalUpdate
}

func (f *fakeLifecycleHistories) Insert(ctx context.Context, exec sqlx.ExtContext, history *models.StudentHistory) error {
	history.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, history)
	return nil
}

func (f *fakeLifecycleHistories) FindByStudentID(ctx context.Context, studentID int64) (*models.StudentHistory, error) {
	for i := len(f.inserted) - 1; i >= 0; i-- {
		if f.inserted[i].StudentID == studentID {
			return f.inserted[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLifecycleHistories) UpdateClerical(ctx context.Context, id int64, update repository.ClericalUpdate) error {
	if f.updates == nil {
		f.updates = make(map[int64]repository.ClericalUpdate)
	}
	f.updates[id] = update
	return nil
}

func newEnrollmentFixture(t *testing.T, students *fakeLifecycleStudents, memberships *fakeLifecycleMemberships, histories *fakeLifecycleHistories) (*EnrollmentService, sqlmock.Sqlmock) {
	tx, mock := newTxProviderMock(t)
	svc := NewEnrollmentService(students, memberships, histories, tx, validator.New(), zap.NewNop())
	return svc, mock
}

func TestEnrollmentServiceGraduate(t *testing.T) {
	students := newFakeLifecycleStudents(&models.Student{ID: 1, NISN: "0051", FullName: "Siti Rahma", Status: models.StudentStatusActive})
	memberships := &fakeLifecycleMemberships{
		active:  map[int64]int64{1: 4},
		rombels: map[int64]*models.Rombel{4: {ID: 4, Name: "XII-A"}},
	}
	histories := &fakeLifecycleHistories{}
	svc, mock := newEnrollmentFixture(t, students, memberships, histories)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.Graduate(context.Background(), 1, GraduateStudentRequest{
		CompletionDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		GraduationYear: "2025/2026",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusGraduate, result.Student.Status)
	assert.Equal(t, models.StudentStatusGraduate, students.statuses[1])
	require.NotNil(t, result.History)
	require.NotNil(t, result.History.RombelID)
	assert.Equal(t, int64(4), *result.History.RombelID)
	require.NotNil(t, result.RombelName)
	assert.Equal(t, "XII-A", *result.RombelName)

	// membership closed and back-reference cleared
	_, stillActive := memberships.active[1]
	assert.False(t, stillActive)
	ref, synced := students.refs[1]
	assert.True(t, synced)
	assert.Nil(t, ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceGraduateNotActive(t *testing.T) {
	students := newFakeLifecycleStudents(&models.Student{ID: 1, FullName: "Budi", Status: models.StudentStatusGraduate})
	histories := &fakeLifecycleHistories{}
	svc, mock := newEnrollmentFixture(t, students, &fakeLifecycleMemberships{}, histories)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Graduate(context.Background(), 1, GraduateStudentRequest{
		CompletionDate: time.Now(),
		GraduationYear: "2025/2026",
	})
	require.Error(t, err)
	tagged := appErrors.FromError(err)
	assert.Equal(t, "NOT_ACTIVE", tagged.Code)
	assert.Empty(t, histories.inserted)
	assert.Empty(t, students.statuses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceGraduateNotFound(t *testing.T) {
	svc, mock := newEnrollmentFixture(t, newFakeLifecycleStudents(), &fakeLifecycleMemberships{}, &fakeLifecycleHistories{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Graduate(context.Background(), 99, GraduateStudentRequest{
		CompletionDate: time.Now(),
		GraduationYear: "2025/2026",
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceBulkGraduatePartialSuccess(t *testing.T) {
	students := newFakeLifecycleStudents(
		&models.Student{ID: 1, FullName: "Siti", Status: models.StudentStatusActive},
		&models.Student{ID: 2, FullName: "Budi", Status: models.StudentStatusMutasi},
	)
	memberships := &fakeLifecycleMemberships{active: map[int64]int64{1: 4}, rombels: map[int64]*models.Rombel{}}
	histories := &fakeLifecycleHistories{}
	svc, mock := newEnrollmentFixture(t, students, memberships, histories)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.BulkGraduate(context.Background(), BulkGraduateRequest{
		Items: []BulkGraduateItem{
			{StudentID: 1},
			{StudentID: 2},
			{StudentID: 9999},
		},
		CompletionDate: time.Now(),
		GraduationYear: "2025/2026",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.FailedCount)
	require.Len(t, result.Success, 1)
	assert.Equal(t, int64(1), result.Success[0].StudentID)
	assert.Len(t, histories.inserted, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceWithdraw(t *testing.T) {
	students := newFakeLifecycleStudents(&models.Student{ID: 3, FullName: "Rina", Status: models.StudentStatusActive})
	memberships := &fakeLifecycleMemberships{
		active:  map[int64]int64{3: 7},
		rombels: map[int64]*models.Rombel{7: {ID: 7, Name: "XI-B"}},
	}
	histories := &fakeLifecycleHistories{}
	svc, mock := newEnrollmentFixture(t, students, memberships, histories)

	mock.ExpectBegin()
	mock.ExpectCommit()

	dest := "SMA Negeri 2"
	result, err := svc.Withdraw(context.Background(), 3, WithdrawStudentRequest{
		CompletionDate:    time.Now(),
		MutasiType:        "PINDAH",
		DestinationSchool: &dest,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusMutasi, result.Student.Status)
	require.Len(t, histories.inserted, 1)
	assert.Equal(t, models.HistoryStatusMutasi, histories.inserted[0].StatusType)
	require.NotNil(t, histories.inserted[0].MutasiType)
	assert.Equal(t, "PINDAH", *histories.inserted[0].MutasiType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceUpdateHistoryRequiresGraduate(t *testing.T) {
	students := newFakeLifecycleStudents(&models.Student{ID: 1, Status: models.StudentStatusActive})
	svc, _ := newEnrollmentFixture(t, students, &fakeLifecycleMemberships{}, &fakeLifecycleHistories{})

	cert := "IJZ/2026/001"
	_, err := svc.UpdateHistory(context.Background(), 1, UpdateHistoryRequest{CertificateNumber: &cert})
	require.Error(t, err)
	assert.Equal(t, "NOT_GRADUATE", appErrors.FromError(err).Code)
}

func TestEnrollmentServiceUpdateHistoryRejectsEmptyPayload(t *testing.T) {
	students := newFakeLifecycleStudents(&models.Student{ID: 1, Status: models.StudentStatusGraduate})
	histories := &fakeLifecycleHistories{inserted: []*models.StudentHistory{{ID: 10, StudentID: 1, StatusType: models.HistoryStatusGraduate}}}
	svc, _ := newEnrollmentFixture(t, students, &fakeLifecycleMemberships{}, histories)

	_, err := svc.UpdateHistory(context.Background(), 1, UpdateHistoryRequest{})
	require.Error(t, err)
	assert.Equal(t, "NO_DATA", appErrors.FromError(err).Code)
}

func TestEnrollmentServiceUpdateHistory(t *testing.T) {
	students := newFakeLifecycleStudents(&models.Student{ID: 1, Status: models.StudentStatusGraduate})
	histories := &fakeLifecycleHistories{inserted: []*models.StudentHistory{{ID: 10, StudentID: 1, StatusType: models.HistoryStatusGraduate}}}
	svc, _ := newEnrollmentFixture(t, students, &fakeLifecycleMemberships{}, histories)

	cert := "IJZ/2026/001"
	grade := 88.25
	updated, err := svc.UpdateHistory(context.Background(), 1, UpdateHistoryRequest{CertificateNumber: &cert, FinalGrade: &grade})
	require.NoError(t, err)
	assert.Equal(t, int64(10), updated.ID)
	stored := histories.updates[10]
	require.NotNil(t, stored.CertificateNumber)
	assert.Equal(t, cert, *stored.CertificateNumber)
	require.NotNil(t, stored.FinalGrade)
	assert.Equal(t, grade, *stored.FinalGrade)
}

func TestEnrollmentServiceUpdateHistoryMissingHistory(t *testing.T) {
	students := newFakeLifecycleStudents(&models.Student{ID: 1, Status: models.StudentStatusGraduate})
	svc, _ := newEnrollmentFixture(t, students, &fakeLifecycleMemberships{}, &fakeLifecycleHistories{})

	cert := "IJZ/2026/001"
	_, err := svc.UpdateHistory(context.Background(), 1, UpdateHistoryRequest{CertificateNumber: &cert})
	require.Error(t, err)
	assert.Equal(t, "HISTORY_NOT_FOUND", appErrors.FromError(err).Code)
}
