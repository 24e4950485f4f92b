package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
)

type attendanceRepository interface {
	Record(ctx context.Context, att *models.Attendance) error
	ListByRombelAndDate(ctx context.Context, rombelID int64, date time.Time) ([]models.Attendance, error)
}

type attendanceRombelReader interface {
	FindDetailByID(ctx context.Context, id int64) (*models.RombelDetail, error)
	ListActiveMemberDetails(ctx context.Context, rombelID int64) ([]models.StudentSummary, error)
}

// RecordAttendanceItem is one student's presence mark.
type RecordAttendanceItem struct {
	StudentID int64  `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=HADIR SAKIT IZIN ALPA"`
}

// RecordAttendanceRequest marks presence for a rombel on one date.
type RecordAttendanceRequest struct {
	Date  time.Time              `json:"date" validate:"required"`
	Items []RecordAttendanceItem `json:"items" validate:"required,min=1,dive"`
}

// AttendanceService records daily presence per rombel. Marks are accepted
// only for students currently enrolled in the rombel.
type AttendanceService struct {
	repo      attendanceRepository
	rombels   attendanceRombelReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, rombels attendanceRombelReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, rombels: rombels, validator: validate, logger: logger}
}

// Record stores presence marks for a rombel on a date.
func (s *AttendanceService) Record(ctx context.Context, rombelID int64, req RecordAttendanceRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := s.rombels.FindDetailByID(ctx, rombelID); err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "rombel not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rombel")
	}

	members, err := s.rombels.ListActiveMemberDetails(ctx, rombelID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	enrolled := make(map[int64]bool, len(members))
	for _, m := range members {
		enrolled[m.ID] = true
	}

	for _, item := range req.Items {
		if !enrolled[item.StudentID] {
			return 0, appErrors.WithDetails(appErrors.ErrValidation, map[string]interface{}{
				"student_id": item.StudentID,
				"reason":     "student is not an active member of this rombel",
			})
		}
	}

	for _, item := range req.Items {
		att := &models.Attendance{
			RombelID:  rombelID,
			StudentID: item.StudentID,
			Date:      req.Date,
			Status:    item.Status,
		}
		if err := s.repo.Record(ctx, att); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
		}
	}

	s.logger.Info("attendance recorded",
		zap.Int64("rombel_id", rombelID),
		zap.Time("date", req.Date),
		zap.Int("marks", len(req.Items)))
	return len(req.Items), nil
}

// ListByDate returns the presence marks of a rombel on a date.
func (s *AttendanceService) ListByDate(ctx context.Context, rombelID int64, date time.Time) ([]models.Attendance, error) {
	if _, err := s.rombels.FindDetailByID(ctx, rombelID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rombel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rombel")
	}
	marks, err := s.repo.ListByRombelAndDate(ctx, rombelID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return marks, nil
}
