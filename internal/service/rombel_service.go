package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
)

type rombelRepository interface {
	List(ctx context.Context, filter models.RombelFilter) ([]models.RombelDetail, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Rombel, error)
	FindDetailByID(ctx context.Context, id int64) (*models.RombelDetail, error)
	CountActiveMembers(ctx context.Context, exec sqlx.ExtContext, rombelID int64) (int, error)
	ListTargets(ctx context.Context, classID, academicYearID int64) ([]models.TargetRombel, error)
	Create(ctx context.Context, exec sqlx.ExtContext, rombel *models.Rombel) error
	InsertMembership(ctx context.Context, exec sqlx.ExtContext, rombelID, studentID int64) error
	DeactivateMembership(ctx context.Context, exec sqlx.ExtContext, studentID int64) (*int64, error)
	ListActiveMemberDetails(ctx context.Context, rombelID int64) ([]models.StudentSummary, error)
	NullifyStudentRefs(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error
	DeleteMemberships(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error
	Delete(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error
}

type membershipStudentRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error)
	SyncRombelRef(ctx context.Context, exec sqlx.ExtContext, studentID int64, rombelID *int64) error
}

type rombelClassReader interface {
	List(ctx context.Context) ([]models.Class, error)
	FindByID(ctx context.Context, id int64) (*models.Class, error)
}

type rombelAcademicYearRepository interface {
	FindActive(ctx context.Context) (*models.AcademicYear, error)
	EnsureActive(ctx context.Context, exec sqlx.ExtContext, fallbackName string) (*models.AcademicYear, error)
}

type rombelHistoryCleaner interface {
	NullifyRombelRefs(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error
}

type rombelAttendanceCleaner interface {
	DeleteByRombel(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error
}

// RegisterRombelItem describes one class group to create, optionally with a
// pre-assigned roster.
type RegisterRombelItem struct {
	Name            string  `json:"nama_rombel" validate:"required"`
	ClassID         int64   `json:"tingkat_kelas" validate:"required"`
	AdvisorID       *int64  `json:"wali_kelas"`
	ClassroomLabel  string  `json:"nama_ruangan"`
	StudentCapacity int     `json:"student_capacity"`
	CurriculumID    *int64  `json:"kurikulum"`
	StudentIDs      []int64 `json:"siswa"`
}

// RegisterRombelRequest creates one or more class groups in a single batch.
type RegisterRombelRequest struct {
	Items []RegisterRombelItem `json:"items" validate:"required,min=1,dive"`
}

// AddStudentsRequest assigns students to an existing class group.
type AddStudentsRequest struct {
	StudentIDs []int64 `json:"student_ids" validate:"required,min=1"`
}

// PromoteStudentsRequest moves students into a target class group.
type PromoteStudentsRequest struct {
	StudentIDs     []int64 `json:"student_ids" validate:"required,min=1"`
	TargetRombelID int64   `json:"target_rombel_id" validate:"required"`
}

// RombelServiceConfig tunes capacity defaults and target caching.
type RombelServiceConfig struct {
	DefaultCapacity int
	DefaultYearName string
	TargetCacheTTL  time.Duration
}

// RombelService enforces the class-group capacity invariant and drives
// roster mutations: registration, assignment, year-end promotion, deletion.
// Capacity checks and membership writes always share one transaction so
// concurrent calls against the same group serialize on the rombel row lock.
type RombelService struct {
	rombels   rombelRepository
	students  membershipStudentRepository
	classes   rombelClassReader
	years     rombelAcademicYearRepository
	histories rombelHistoryCleaner
	attends   rombelAttendanceCleaner
	cache     *CacheService
	metrics   *MetricsService
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RombelServiceConfig
}

// NewRombelService wires the capacity engine's dependencies.
func NewRombelService(
	rombels rombelRepository,
	students membershipStudentRepository,
	classes rombelClassReader,
	years rombelAcademicYearRepository,
	histories rombelHistoryCleaner,
	attends rombelAttendanceCleaner,
	cache *CacheService,
	metrics *MetricsService,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RombelServiceConfig,
) *RombelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = 32
	}
	if cfg.TargetCacheTTL <= 0 {
		cfg.TargetCacheTTL = 5 * time.Minute
	}
	return &RombelService{
		rombels:   rombels,
		students:  students,
		classes:   classes,
		years:     years,
		histories: histories,
		attends:   attends,
		cache:     cache,
		metrics:   metrics,
		tx:        tx,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns class groups with pagination metadata.
func (s *RombelService) List(ctx context.Context, filter models.RombelFilter) ([]models.RombelDetail, *models.Pagination, error) {
	rombels, total, err := s.rombels.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rombels")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return rombels, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one class group with joined context and live member count.
func (s *RombelService) Get(ctx context.Context, id int64) (*models.RombelDetail, error) {
	detail, err := s.rombels.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rombel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rombel")
	}
	return detail, nil
}

// Members lists the active roster of a class group.
func (s *RombelService) Members(ctx context.Context, id int64) ([]models.StudentSummary, error) {
	if _, err := s.rombels.FindByID(ctx, nil, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rombel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rombel")
	}
	members, err := s.rombels.ListActiveMemberDetails(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, nil
}

// Register creates class groups in bulk. All payload items are validated
// against the capacity invariant before any write happens; one failing item
// rejects the whole batch.
func (s *RombelService) Register(ctx context.Context, req RegisterRombelRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rombel registration payload")
	}

	capacities := make([]int, len(req.Items))
	for i, item := range req.Items {
		capacity := item.StudentCapacity
		if capacity == 0 {
			capacity = s.cfg.DefaultCapacity
		}
		if capacity < 0 {
			return appErrors.WithDetails(appErrors.ErrInvalidCapacity, map[string]interface{}{
				"rombel":   item.Name,
				"capacity": item.StudentCapacity,
			})
		}
		if len(item.StudentIDs) > capacity {
			return appErrors.WithDetails(appErrors.ErrCapacityExceeded, map[string]interface{}{
				"rombel":    item.Name,
				"requested": len(item.StudentIDs),
				"capacity":  capacity,
			})
		}
		capacities[i] = capacity
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var year *models.AcademicYear
	year, err = s.years.EnsureActive(ctx, tx, s.cfg.DefaultYearName)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic year")
	}

	for i, item := range req.Items {
		rombel := &models.Rombel{
			Name:            item.Name,
			ClassID:         item.ClassID,
			AcademicYearID:  year.ID,
			AdvisorID:       item.AdvisorID,
			ClassroomLabel:  item.ClassroomLabel,
			StudentCapacity: capacities[i],
			CurriculumID:    item.CurriculumID,
		}
		if err = s.rombels.Create(ctx, tx, rombel); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rombel")
		}
		for _, studentID := range item.StudentIDs {
			if err = s.moveStudent(ctx, tx, studentID, rombel.ID); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit rombel registration")
	}

	s.invalidateTargetCache(ctx)
	s.logger.Info("rombels registered", zap.Int("count", len(req.Items)), zap.Int64("academic_year_id", year.ID))
	return nil
}

// AddStudents assigns students to a class group. Admission is all or
// nothing: the batch is rejected when it does not fit the free capacity.
func (s *RombelService) AddStudents(ctx context.Context, rombelID int64, req AddStudentsRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid add students payload")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var rombel *models.Rombel
	rombel, err = s.rombels.FindByID(ctx, tx, rombelID)
	if err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "rombel not found")
			return 0, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rombel")
		return 0, err
	}

	var current int
	current, err = s.rombels.CountActiveMembers(ctx, tx, rombelID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count members")
		return 0, err
	}
	available := rombel.StudentCapacity - current
	if len(req.StudentIDs) > available {
		err = appErrors.WithDetails(appErrors.ErrCapacityExceeded, map[string]interface{}{
			"available": available,
			"requested": len(req.StudentIDs),
		})
		return 0, err
	}

	for _, studentID := range req.StudentIDs {
		if err = s.moveStudent(ctx, tx, studentID, rombelID); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit member assignment")
	}

	s.invalidateTargetCache(ctx)
	s.logger.Info("students added to rombel", zap.Int64("rombel_id", rombelID), zap.Int("added", len(req.StudentIDs)))
	return len(req.StudentIDs), nil
}

// Promote moves students into the target group. The batch must fit the
// target's free capacity as a whole; within that bound each student is
// processed independently and failures are collected, not thrown.
func (s *RombelService) Promote(ctx context.Context, req PromoteStudentsRequest) (*models.PromotionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid promotion payload")
	}

	target, err := s.rombels.FindByID(ctx, nil, req.TargetRombelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrTargetNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target rombel")
	}
	current, err := s.rombels.CountActiveMembers(ctx, nil, req.TargetRombelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count members")
	}
	if available := target.StudentCapacity - current; len(req.StudentIDs) > available {
		return nil, appErrors.WithDetails(appErrors.ErrCapacityExceeded, map[string]interface{}{
			"available": available,
			"requested": len(req.StudentIDs),
		})
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Re-check under the row lock: the unlocked pre-check above can race
	// with a concurrent batch against the same target.
	target, err = s.rombels.FindByID(ctx, tx, req.TargetRombelID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock target rombel")
		return nil, err
	}
	current, err = s.rombels.CountActiveMembers(ctx, tx, req.TargetRombelID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count members")
		return nil, err
	}
	if available := target.StudentCapacity - current; len(req.StudentIDs) > available {
		err = appErrors.WithDetails(appErrors.ErrCapacityExceeded, map[string]interface{}{
			"available": available,
			"requested": len(req.StudentIDs),
		})
		return nil, err
	}

	result := &models.PromotionResult{
		Success: make([]models.PromotedStudent, 0, len(req.StudentIDs)),
		Failed:  make([]models.FailedPromotion, 0),
	}
	for _, studentID := range req.StudentIDs {
		var student *models.Student
		student, err = s.students.FindByID(ctx, tx, studentID)
		if err != nil {
			if err == sql.ErrNoRows {
				result.Failed = append(result.Failed, models.FailedPromotion{StudentID: studentID, Reason: "student not found"})
				result.FailedCount++
				err = nil
				continue
			}
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
			return nil, err
		}
		if student.Status != models.StudentStatusActive {
			result.Failed = append(result.Failed, models.FailedPromotion{StudentID: studentID, Reason: "student is not active"})
			result.FailedCount++
			continue
		}
		if err = s.moveStudent(ctx, tx, studentID, req.TargetRombelID); err != nil {
			return nil, err
		}
		result.Success = append(result.Success, models.PromotedStudent{StudentID: studentID, Name: student.FullName})
		result.SuccessCount++
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit promotion")
	}

	if s.metrics != nil {
		s.metrics.RecordPromotion(result.SuccessCount, result.FailedCount)
	}
	s.invalidateTargetCache(ctx)
	s.logger.Info("promotion finished",
		zap.Int64("target_rombel_id", req.TargetRombelID),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}

// TargetRombels lists the promotion candidates one class level above the
// source, within the active academic year, annotated with free slots. A
// source at the final level yields an empty list.
func (s *RombelService) TargetRombels(ctx context.Context, sourceClassID int64) ([]models.TargetRombel, error) {
	source, err := s.classes.FindByID(ctx, sourceClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	next, err := s.nextClassLevel(ctx, source)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return []models.TargetRombel{}, nil
	}

	year, err := s.years.FindActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active academic year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}

	cacheKey := fmt.Sprintf("promotion:targets:%d:%d", next.ID, year.ID)
	var cached []models.TargetRombel
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	targets, err := s.rombels.ListTargets(ctx, next.ID, year.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list target rombels")
	}
	for i := range targets {
		targets[i].AvailableSlots = targets[i].Capacity - targets[i].CurrentCount
	}

	_ = s.cache.Set(ctx, cacheKey, targets, s.cfg.TargetCacheTTL)
	return targets, nil
}

// Delete removes a class group after cascading cleanup, in dependency
// order: student back-references, attendance, history references,
// memberships, then the group itself.
func (s *RombelService) Delete(ctx context.Context, rombelID int64) error {
	if _, err := s.rombels.FindByID(ctx, nil, rombelID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "rombel not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rombel")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.rombels.NullifyStudentRefs(ctx, tx, rombelID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear student references")
	}
	if err = s.attends.DeleteByRombel(ctx, tx, rombelID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance rows")
	}
	if err = s.histories.NullifyRombelRefs(ctx, tx, rombelID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear history references")
	}
	if err = s.rombels.DeleteMemberships(ctx, tx, rombelID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete memberships")
	}
	if err = s.rombels.Delete(ctx, tx, rombelID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rombel")
	}

	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit rombel deletion")
	}

	s.invalidateTargetCache(ctx)
	s.logger.Info("rombel deleted", zap.Int64("rombel_id", rombelID))
	return nil
}

// moveStudent closes any current membership, opens one in the destination
// group and syncs the student's denormalized back-reference. All membership
// mutation paths go through here so the single-active invariant holds.
func (s *RombelService) moveStudent(ctx context.Context, tx *sqlx.Tx, studentID, rombelID int64) error {
	if _, err := s.students.FindByID(ctx, tx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %d not found", studentID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.rombels.DeactivateMembership(ctx, tx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close membership")
	}
	if err := s.rombels.InsertMembership(ctx, tx, rombelID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert membership")
	}
	if err := s.students.SyncRombelRef(ctx, tx, studentID, &rombelID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync rombel reference")
	}
	return nil
}

func (s *RombelService) invalidateTargetCache(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, "promotion:targets:*")
}

// nextClassLevel resolves the class one rank above the source using the
// Roman numeral ordering, or nil when the source is the final level.
func (s *RombelService) nextClassLevel(ctx context.Context, source *models.Class) (*models.Class, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}

	sourceRank := classLevelRank(source.Level)
	var next *models.Class
	nextRank := 0
	for i := range classes {
		rank := classLevelRank(classes[i].Level)
		if rank <= sourceRank {
			continue
		}
		if next == nil || rank < nextRank {
			next = &classes[i]
			nextRank = rank
		}
	}
	return next, nil
}

var romanLevelRanks = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5, "VI": 6,
	"VII": 7, "VIII": 8, "IX": 9, "X": 10, "XI": 11, "XII": 12,
}

// classLevelRank orders grade levels. Unknown labels fall back to a numeric
// parse, then to rank 99 so they sort last.
func classLevelRank(level string) int {
	normalized := strings.ToUpper(strings.TrimSpace(level))
	if rank, ok := romanLevelRanks[normalized]; ok {
		return rank
	}
	if value, err := strconv.Atoi(normalized); err == nil {
		return value
	}
	return 99
}
