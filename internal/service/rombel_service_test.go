package service

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
)

type fakeRombels struct {
	rombels      map[int64]*models.Rombel
	memberships  map[int64]int64
	targets      []models.TargetRombel
	nextID       int64
	nullified    []int64
	membersWiped []int64
	deleted      []int64
}

func newFakeRombels(rombels ...*models.Rombel) *fakeRombels {
	f := &fakeRombels{
		rombels:     make(map[int64]*models.Rombel),
		memberships: make(map[int64]int64),
		nextID:      100,
	}
	for _, r := range rombels {
		f.rombels[r.ID] = r
	}
	return f
}

func (f *fakeRombels) List(ctx context.Context, filter models.RombelFilter) ([]models.RombelDetail, int, error) {
	details := make([]models.RombelDetail, 0, len(f.rombels))
	for _, r := range f.rombels {
		details = append(details, models.RombelDetail{Rombel: *r})
	}
	return details, len(details), nil
}

func (f *fakeRombels) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Rombel, error) {
	if r, ok := f.rombels[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRombels) FindDetailByID(ctx context.Context, id int64) (*models.RombelDetail, error) {
	r, ok := f.rombels[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	count := 0
	for _, rombelID := range f.memberships {
		if rombelID == id {
			count++
		}
	}
	return &models.RombelDetail{Rombel: *r, ActiveCount: count}, nil
}

func (f *fakeRombels) CountActiveMembers(ctx context.Context, exec sqlx.ExtContext, rombelID int64) (int, error) {
	count := 0
	for _, id := range f.memberships {
		if id == rombelID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRombels) ListTargets(ctx context.Context, classID, academicYearID int64) ([]models.TargetRombel, error) {
	return f.targets, nil
}

func (f *fakeRombels) Create(ctx context.Context, exec sqlx.ExtContext, rombel *models.Rombel) error {
	f.nextID++
	rombel.ID = f.nextID
	f.rombels[rombel.ID] = rombel
	return nil
}

func (f *fakeRombels) InsertMembership(ctx context.Context, exec sqlx.ExtContext, rombelID, studentID int64) error {
	f.memberships[studentID] = rombelID
	return nil
}

func (f *fakeRombels) DeactivateMembership(ctx context.Context, exec sqlx.ExtContext, studentID int64) (*int64, error) {
	rombelID, ok := f.memberships[studentID]
	if !ok {
		return nil, nil
	}
	delete(f.memberships, studentID)
	return &rombelID, nil
}

func (f *fakeRombels) ListActiveMemberDetails(ctx context.Context, rombelID int64) ([]models.StudentSummary, error) {
	members := make([]models.StudentSummary, 0)
	for studentID, id := range f.memberships {
		if id == rombelID {
			members = append(members, models.StudentSummary{ID: studentID})
		}
	}
	return members, nil
}

func (f *fakeRombels) NullifyStudentRefs(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	f.nullified = append(f.nullified, rombelID)
	return nil
}

func (f *fakeRombels) DeleteMemberships(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	f.membersWiped = append(f.membersWiped, rombelID)
	for studentID, id := range f.memberships {
		if id == rombelID {
			delete(f.memberships, studentID)
		}
	}
	return nil
}

func (f *fakeRombels) Delete(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	f.deleted = append(f.deleted, rombelID)
	delete(f.rombels, rombelID)
	return nil
}

type fakeMembershipStudents struct {
	students map[int64]*models.Student
	refs     map[int64]*int64
}

func newFakeMembershipStudents(students ...*models.Student) *fakeMembershipStudents {
	f := &fakeMembershipStudents{
		students: make(map[int64]*models.Student),
		refs:     make(map[int64]*int64),
	}
	for _, s := range students {
		f.students[s.ID] = s
	}
	return f
}

func (f *fakeMembershipStudents) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeMembershipStudents) SyncRombelRef(ctx context.Context, exec sqlx.ExtContext, studentID int64, rombelID *int64) error {
	f.refs[studentID] = rombelID
	return nil
}

type fakeClasses struct {
	classes []models.Class
}

func (f *fakeClasses) List(ctx context.Context) ([]models.Class, error) {
	return f.classes, nil
}

func (f *fakeClasses) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	for i := range f.classes {
		if f.classes[i].ID == id {
			return &f.classes[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeAcademicYears struct {
	active *models.AcademicYear
}

func (f *fakeAcademicYears) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	if f.active == nil {
		return nil, sql.ErrNoRows
	}
	return f.active, nil
}

func (f *fakeAcademicYears) EnsureActive(ctx context.Context, exec sqlx.ExtContext, fallbackName string) (*models.AcademicYear, error) {
	if f.active == nil {
		f.active = &models.AcademicYear{ID: 1, Name: fallbackName, IsActive: true}
	}
	return f.active, nil
}

type fakeHistoryCleaner struct {
	nullified []int64
}

func (f *fakeHistoryCleaner) NullifyRombelRefs(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	f.nullified = append(f.nullified, rombelID)
	return nil
}

type fakeAttendanceCleaner struct {
	deleted []int64
}

func (f *fakeAttendanceCleaner) DeleteByRombel(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	f.deleted = append(f.deleted, rombelID)
	return nil
}

type rombelFixture struct {
	svc      *RombelService
	rombels  *fakeRombels
	students *fakeMembershipStudents
	classes  *fakeClasses
	years    *fakeAcademicYears
	attends  *fakeAttendanceCleaner
	cleaner  *fakeHistoryCleaner
}

func newRombelFixture(t *testing.T, rombels *fakeRombels, students *fakeMembershipStudents) (*rombelFixture, sqlmock.Sqlmock) {
	tx, mock := newTxProviderMock(t)
	classes := &fakeClasses{}
	years := &fakeAcademicYears{active: &models.AcademicYear{ID: 1, Name: "2026/2027", IsActive: true}}
	cleaner := &fakeHistoryCleaner{}
	attends := &fakeAttendanceCleaner{}
	svc := NewRombelService(rombels, students, classes, years, cleaner, attends, nil, nil, tx, nil, zap.NewNop(), RombelServiceConfig{})
	return &rombelFixture{
		svc:      svc,
		rombels:  rombels,
		students: students,
		classes:  classes,
		years:    years,
		attends:  attends,
		cleaner:  cleaner,
	}, mock
}

func TestRombelServiceRegister(t *testing.T) {
	rombels := newFakeRombels()
	students := newFakeMembershipStudents(
		&models.Student{ID: 1, Status: models.StudentStatusActive},
		&models.Student{ID: 2, Status: models.StudentStatusActive},
	)
	fx, mock := newRombelFixture(t, rombels, students)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := fx.svc.Register(context.Background(), RegisterRombelRequest{
		Items: []RegisterRombelItem{
			{Name: "X-A", ClassID: 1, StudentCapacity: 30, StudentIDs: []int64{1, 2}},
		},
	})
	require.NoError(t, err)
	require.Len(t, rombels.rombels, 1)

	var created *models.Rombel
	for _, r := range rombels.rombels {
		created = r
	}
	assert.Equal(t, "X-A", created.Name)
	assert.Equal(t, int64(1), created.AcademicYearID)

	// roster lands active and the back-references follow
	assert.Equal(t, created.ID, rombels.memberships[1])
	assert.Equal(t, created.ID, rombels.memberships[2])
	require.NotNil(t, students.refs[1])
	assert.Equal(t, created.ID, *students.refs[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelServiceRegisterDefaultsCapacity(t *testing.T) {
	rombels := newFakeRombels()
	fx, mock := newRombelFixture(t, rombels, newFakeMembershipStudents())

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := fx.svc.Register(context.Background(), RegisterRombelRequest{
		Items: []RegisterRombelItem{{Name: "X-B", ClassID: 1}},
	})
	require.NoError(t, err)
	for _, r := range rombels.rombels {
		assert.Equal(t, 32, r.StudentCapacity)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelServiceRegisterRejectsOversizedRoster(t *testing.T) {
	rombels := newFakeRombels()
	fx, mock := newRombelFixture(t, rombels, newFakeMembershipStudents())

	err := fx.svc.Register(context.Background(), RegisterRombelRequest{
		Items: []RegisterRombelItem{
			{Name: "X-A", ClassID: 1, StudentCapacity: 1, StudentIDs: []int64{1, 2}},
		},
	})
	require.Error(t, err)
	tagged := appErrors.FromError(err)
	assert.Equal(t, "CAPACITY_EXCEEDED", tagged.Code)
	assert.Equal(t, 2, tagged.Details["requested"])
	assert.Empty(t, rombels.rombels)
	// rejected before any transaction was opened
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelServiceRegisterRejectsNegativeCapacity(t *testing.T) {
	fx, mock := newRombelFixture(t, newFakeRombels(), newFakeMembershipStudents())

	err := fx.svc.Register(context.Background(), RegisterRombelRequest{
		Items: []RegisterRombelItem{{Name: "X-A", ClassID: 1, StudentCapacity: -5}},
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CAPACITY", appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelServiceAddStudents(t *testing.T) {
	rombels := newFakeRombels(&models.Rombel{ID: 5, Name: "XI-A", StudentCapacity: 3})
	students := newFakeMembershipStudents(&models.Student{ID: 1, Status: models.StudentStatusActive})
	fx, mock := newRombelFixture(t, rombels, students)

	mock.ExpectBegin()
	mock.ExpectCommit()

	added, err := fx.svc.AddStudents(context.Background(), 5, AddStudentsRequest{StudentIDs: []int64{1}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, int64(5), rombels.memberships[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelServiceAddStudentsCapacityExceeded(t *testing.T) {
	rombels := newFakeRombels(&models.Rombel{ID: 5, Name: "XI-A", StudentCapacity: 2})
	rombels.memberships[10] = 5
	rombels.memberships[11] = 5
	students := newFakeMembershipStudents(&models.Student{ID: 1, Status: models.StudentStatusActive})
	fx, mock := newRombelFixture(t, rombels, students)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := fx.svc.AddStudents(context.Background(), 5, AddStudentsRequest{StudentIDs: []int64{1}})
	require.Error(t, err)
	tagged := appErrors.FromError(err)
	assert.Equal(t, "CAPACITY_EXCEEDED", tagged.Code)
	assert.Equal(t, 0, tagged.Details["available"])
	assert.Equal(t, 1, tagged.Details["requested"])
	_, assigned := rombels.memberships[1]
	assert.False(t, assigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelServicePromotePartialSuccess(t *testing.T) {
	rombels := newFakeRombels(
		&models.Rombel{ID: 1, Name: "X-A", StudentCapacity: 30},
		&models.Rombel{ID: 2, Name: "XI-A", StudentCapacity: 30},
	)
	rombels.memberships[1] = 1
	rombels.memberships[2] = 1
	students := newFakeMembershipStudents(
		&models.Student{ID: 1, FullName: "Siti", Status: models.StudentStatusActive},
		&models.Student{ID: 2, FullName: "Budi", Status: models.StudentStatusActive},
		&models.Student{ID: 3, FullName: "Rina", Status: models.StudentStatusMutasi},
	)
	fx, mock := newRombelFixture(t, rombels, students)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := fx.svc.Promote(context.Background(), PromoteStudentsRequest{
		StudentIDs:     []int64{1, 2, 3, 9999},
		TargetRombelID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, "Siti", result.Success[0].Name)

	reasons := map[int64]string{}
	for _, failed := range result.Failed {
		reasons[failed.StudentID] = failed.Reason
	}
	assert.Equal(t, "student is not active", reasons[3])
	assert.Equal(t, "student not found", reasons[9999])

	// movers carry exactly one active membership, in the target
	assert.Equal(t, int64(2), rombels.memberships[1])
	assert.Equal(t, int64(2), rombels.memberships[2])
	require.NotNil(t, students.refs[1])
	assert.Equal(t, int64(2), *students.refs[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelServicePromoteTargetNotFound(t *testing.T) {
	fx, mock := newRombelFixture(t, newFakeRombels(), newFakeMembershipStudents())

	_, err := fx.svc.Promote(context.Background(), PromoteStudentsRequest{
		StudentIDs:     []int64{1},
		TargetRombelID: 42,
	})
	require.Error(t, err)
	assert.Equal(t, "TARGET_NOT_FOUND", appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelServicePromoteCapacityExceeded(t *testing.T) {
	rombels := newFakeRombels(&models.Rombel{ID: 2, Name: "XI-A", StudentCapacity: 1})
	rombels.memberships[10] = 2
	fx, mock := newRombelFixture(t, rombels, newFakeMembershipStudents())

	_, err := fx.svc.Promote(context.Background(), PromoteStudentsRequest{
		StudentIDs:     []int64{1},
		TargetRombelID: 2,
	})
	require.Error(t, err)
	tagged := appErrors.FromError(err)
	assert.Equal(t, "CAPACITY_EXCEEDED", tagged.Code)
	assert.Equal(t, 0, tagged.Details["available"])
	// pre-check fires before the transaction begins
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRombelServiceTargetRombels(t *testing.T) {
	rombels := newFakeRombels()
	rombels.targets = []models.TargetRombel{
		{ID: 7, Name: "XI-A", Capacity: 30, CurrentCount: 28},
		{ID: 8, Name: "XI-B", Capacity: 30, CurrentCount: 30},
	}
	fx, _ := newRombelFixture(t, rombels, newFakeMembershipStudents())
	fx.classes.classes = []models.Class{
		{ID: 1, Name: "Kelas X", Level: "X"},
		{ID: 2, Name: "Kelas XI", Level: "XI"},
		{ID: 3, Name: "Kelas XII", Level: "XII"},
	}

	targets, err := fx.svc.TargetRombels(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, 2, targets[0].AvailableSlots)
	assert.Equal(t, 0, targets[1].AvailableSlots)
}

func TestRombelServiceTargetRombelsFinalLevel(t *testing.T) {
	fx, _ := newRombelFixture(t, newFakeRombels(), newFakeMembershipStudents())
	fx.classes.classes = []models.Class{
		{ID: 1, Name: "Kelas X", Level: "X"},
		{ID: 3, Name: "Kelas XII", Level: "XII"},
	}

	targets, err := fx.svc.TargetRombels(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestRombelServiceTargetRombelsNoActiveYear(t *testing.T) {
	fx, _ := newRombelFixture(t, newFakeRombels(), newFakeMembershipStudents())
	fx.classes.classes = []models.Class{
		{ID: 1, Name: "Kelas X", Level: "X"},
		{ID: 2, Name: "Kelas XI", Level: "XI"},
	}
	fx.years.active = nil

	_, err := fx.svc.TargetRombels(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestRombelServiceDeleteCascades(t *testing.T) {
	rombels := newFakeRombels(&models.Rombel{ID: 5, Name: "XI-A", StudentCapacity: 30})
	rombels.memberships[1] = 5
	fx, mock := newRombelFixture(t, rombels, newFakeMembershipStudents())

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := fx.svc.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, rombels.nullified)
	assert.Equal(t, []int64{5}, fx.attends.deleted)
	assert.Equal(t, []int64{5}, fx.cleaner.nullified)
	assert.Equal(t, []int64{5}, rombels.membersWiped)
	assert.Equal(t, []int64{5}, rombels.deleted)
	assert.Empty(t, rombels.memberships)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassLevelRank(t *testing.T) {
	assert.Equal(t, 10, classLevelRank("X"))
	assert.Equal(t, 11, classLevelRank(" xi "))
	assert.Equal(t, 12, classLevelRank("XII"))
	assert.Equal(t, 7, classLevelRank("7"))
	assert.Equal(t, 99, classLevelRank("Akselerasi"))
}
