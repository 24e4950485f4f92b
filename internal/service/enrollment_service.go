package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	"github.com/syauqi357/siakad-madrasah-sub000/internal/repository"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
)

type lifecycleStudentRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int64, status models.StudentStatus) error
	SyncRombelRef(ctx context.Context, exec sqlx.ExtContext, studentID int64, rombelID *int64) error
}

type lifecycleMembershipRepository interface {
	DeactivateMembership(ctx context.Context, exec sqlx.ExtContext, studentID int64) (*int64, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Rombel, error)
}

type lifecycleHistoryRepository interface {
	Insert(ctx context.Context, exec sqlx.ExtContext, history *models.StudentHistory) error
	FindByStudentID(ctx context.Context, studentID int64) (*models.StudentHistory, error)
	UpdateClerical(ctx context.Context, id int64, update repository.ClericalUpdate) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// GraduateStudentRequest carries the data recorded at graduation.
type GraduateStudentRequest struct {
	CompletionDate    time.Time       `json:"completion_date" validate:"required"`
	GraduationYear    string          `json:"graduation_year" validate:"required"`
	CertificateNumber *string         `json:"certificate_number"`
	FinalGrade        *float64        `json:"final_grade"`
	Scores            json.RawMessage `json:"scores"`
}

// BulkGraduateItem is one student's entry in a batch graduation.
type BulkGraduateItem struct {
	StudentID         int64           `json:"student_id" validate:"required"`
	CertificateNumber *string         `json:"certificate_number"`
	FinalGrade        *float64        `json:"final_grade"`
	Scores            json.RawMessage `json:"scores"`
}

// BulkGraduateRequest graduates many students with shared completion data.
type BulkGraduateRequest struct {
	Items          []BulkGraduateItem `json:"items" validate:"required,min=1,dive"`
	CompletionDate time.Time          `json:"completion_date" validate:"required"`
	GraduationYear string             `json:"graduation_year" validate:"required"`
}

// WithdrawStudentRequest records a transfer out of the madrasah.
type WithdrawStudentRequest struct {
	CompletionDate    time.Time `json:"completion_date" validate:"required"`
	MutasiType        string    `json:"mutasi_type" validate:"required"`
	DestinationSchool *string   `json:"destination_school"`
}

// UpdateHistoryRequest corrects clerical fields on an existing history record.
type UpdateHistoryRequest struct {
	CertificateNumber *string         `json:"certificate_number"`
	FinalGrade        *float64        `json:"final_grade"`
	Scores            json.RawMessage `json:"scores"`
	GraduationYear    *string         `json:"graduation_year"`
	CompletionDate    *time.Time      `json:"completion_date"`
}

/// EnrollmentService drives the student lifecycle: the ACTIVE status is the
// only one transitions start from, and GRADUATE and MUTASI are terminal.
// Every transition updates the student row, the membership rows and the
// history table inside one transaction.
type EnrollmentService struct {
	students    lifecycleStudentRepository
	memberships lifecycleMembershipRepository
	histories   lifecycleHistoryRepository
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(students lifecycleStudentRepository, memberships lifecycleMembershipRepository, histories lifecycleHistoryRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{students: students, memberships: memberships, histories: histories, tx: tx, validator: validate, logger: logger}
}

// Graduate moves an ACTIVE student to GRADUATE, closes their membership and
// appends the history record, all atomically.
func (s *EnrollmentService) Graduate(ctx context.Context, studentID int64, req GraduateStudentRequest) (*models.HistoryResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid graduation payload")
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

	var result *models.HistoryResult
	result, err = s.graduateOne(ctx, tx, studentID, req.CompletionDate, req.GraduationYear, req.CertificateNumber, req.FinalGrade, req.Scores)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit graduation")
	}

	s.attachRombelName(ctx, result)
	s.logger.Info("student graduated", zap.Int64("student_id", studentID), zap.String("graduation_year", req.GraduationYear))
	return result, nil
}

// BulkGraduate graduates a batch in one transaction, collecting per-student
// failures without aborting the rest. Only unexpected store errors roll the
// whole batch back.
func (s *EnrollmentService) BulkGraduate(ctx context.Context, req BulkGraduateRequest) (*models.BulkGraduationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk graduation payload")
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

	result := &models.BulkGraduationResult{
		Success: make([]models.GraduatedStudent, 0, len(req.Items)),
		Failed:  make([]models.FailedGraduation, 0),
	}
	for _, item := range req.Items {
		var one *models.HistoryResult
		one, err = s.graduateOne(ctx, tx, item.StudentID, req.CompletionDate, req.GraduationYear, item.CertificateNumber, item.FinalGrade, item.Scores)
		if err != nil {
			var tagged *appErrors.Error
			if errors.As(err, &tagged) && tagged.Status < 500 {
				result.Failed = append(result.Failed, models.FailedGraduation{StudentID: item.StudentID, Reason: tagged.Message})
				result.FailedCount++
				err = nil
				continue
			}
			return nil, err
		}
		result.Success = append(result.Success, models.GraduatedStudent{StudentID: one.Student.ID, Name: one.Student.FullName})
		result.SuccessCount++
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit bulk graduation")
	}

	s.logger.Info("bulk graduation finished", zap.Int("success", result.SuccessCount), zap.Int("failed", result.FailedCount))
	return result, nil
}

// Withdraw moves an ACTIVE student to MUTASI, mirroring Graduate.
func (s *EnrollmentService) Withdraw(ctx context.Context, studentID int64, req WithdrawStudentRequest) (*models.HistoryResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid withdrawal payload")
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

	var student *models.Student
	student, err = s.loadActiveStudent(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}

	var rombelID *int64
	rombelID, err = s.memberships.DeactivateMembership(ctx, tx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close membership")
	}

	history := &models.StudentHistory{
		StudentID:         studentID,
		StatusType:        models.HistoryStatusMutasi,
		RombelID:          rombelID,
		CompletionDate:    req.CompletionDate,
		MutasiType:        &req.MutasiType,
		DestinationSchool: req.DestinationSchool,
	}
	if err = s.histories.Insert(ctx, tx, history); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record withdrawal history")
	}

	if err = s.students.UpdateStatus(ctx, tx, studentID, models.StudentStatusMutasi); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}
	if err = s.students.SyncRombelRef(ctx, tx, studentID, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync rombel reference")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit withdrawal")
	}

	result := &models.HistoryResult{
		Student: models.StudentSummary{ID: student.ID, NISN: student.NISN, FullName: student.FullName, Status: models.StudentStatusMutasi},
		History: history,
	}
	s.attachRombelName(ctx, result)
	s.logger.Info("student withdrawn", zap.Int64("student_id", studentID), zap.String("mutasi_type", req.MutasiType))
	return result, nil
}

// UpdateHistory corrects clerical fields on a graduated student's record.
func (s *EnrollmentService) UpdateHistory(ctx context.Context, studentID int64, req UpdateHistoryRequest) (*models.StudentHistory, error) {
	student, err := s.students.FindByID(ctx, nil, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StudentStatusGraduate {
		return nil, appErrors.Clone(appErrors.ErrNotGraduate, "")
	}

	history, err := s.histories.FindByStudentID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrHistoryNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}

	update := repository.ClericalUpdate{
		CertificateNumber: req.CertificateNumber,
		FinalGrade:        req.FinalGrade,
		GraduationYear:    req.GraduationYear,
		CompletionDate:    req.CompletionDate,
	}
	if len(req.Scores) > 0 {
		update.Scores = types.JSONText(req.Scores)
	}
	if update.Empty() {
		return nil, appErrors.Clone(appErrors.ErrNoData, "")
	}

	if err := s.histories.UpdateClerical(ctx, history.ID, update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update history")
	}

	updated, err := s.histories.FindByStudentID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload history")
	}
	return updated, nil
}

// graduateOne performs the three-step GRADUATE transition inside the given
// transaction. Precondition failures come back as tagged errors so bulk
// callers can distinguish them from store failures.
func (s *EnrollmentService) graduateOne(ctx context.Context, tx *sqlx.Tx, studentID int64, completionDate time.Time, graduationYear string, certificateNumber *string, finalGrade *float64, scores json.RawMessage) (*models.HistoryResult, error) {
	student, err := s.loadActiveStudent(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}

	rombelID, err := s.memberships.DeactivateMembership(ctx, tx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close membership")
	}

	history := &models.StudentHistory{
		StudentID:         studentID,
		StatusType:        models.HistoryStatusGraduate,
		RombelID:          rombelID,
		CompletionDate:    completionDate,
		GraduationYear:    graduationYear,
		CertificateNumber: certificateNumber,
		FinalGrade:        finalGrade,
	}
	if len(scores) > 0 {
		history.Scores = types.JSONText(scores)
	}
	if err := s.histories.Insert(ctx, tx, history); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record graduation history")
	}

	if err := s.students.UpdateStatus(ctx, tx, studentID, models.StudentStatusGraduate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}
	if err := s.students.SyncRombelRef(ctx, tx, studentID, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync rombel reference")
	}

	return &models.HistoryResult{
		Student: models.StudentSummary{ID: student.ID, NISN: student.NISN, FullName: student.FullName, Status: models.StudentStatusGraduate},
		History: history,
	}, nil
}

// loadActiveStudent locks the student row inside the transaction and checks
// the transition precondition.
func (s *EnrollmentService) loadActiveStudent(ctx context.Context, tx *sqlx.Tx, studentID int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, tx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %d not found", studentID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StudentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotActive, fmt.Sprintf("student %d is not active", studentID))
	}
	return student, nil
}

// attachRombelName resolves the name of the rombel recorded on the history
// row. Resolution happens after commit and is best effort.
func (s *EnrollmentService) attachRombelName(ctx context.Context, result *models.HistoryResult) {
	if result == nil || result.History == nil || result.History.RombelID == nil {
		return
	}
	rombel, err := s.memberships.FindByID(ctx, nil, *result.History.RombelID)
	if err != nil {
		s.logger.Warn("failed to resolve rombel name", zap.Int64("rombel_id", *result.History.RombelID), zap.Error(err))
		return
	}
	result.RombelName = &rombel.Name
}
