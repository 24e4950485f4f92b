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

type studentCrudRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindDetailByID(ctx context.Context, id int64) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

type studentHistoryReader interface {
	FindByStudentID(ctx context.Context, studentID int64) (*models.StudentHistory, error)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	NISN         string    `json:"nisn" validate:"required"`
	NIS          string    `json:"nis" validate:"required"`
	FullName     string    `json:"full_name" validate:"required"`
	Gender       string    `json:"gender" validate:"required,oneof=L P"`
	BirthPlace   string    `json:"birth_place"`
	BirthDate    time.Time `json:"birth_date" validate:"required"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	GuardianName string    `json:"guardian_name"`
}

// UpdateStudentRequest holds payload for updating student demographics.
// Lifecycle status and rombel assignment have their own endpoints.
type UpdateStudentRequest struct {
	NISN         string    `json:"nisn" validate:"required"`
	NIS          string    `json:"nis" validate:"required"`
	FullName     string    `json:"full_name" validate:"required"`
	Gender       string    `json:"gender" validate:"required,oneof=L P"`
	BirthPlace   string    `json:"birth_place"`
	BirthDate    time.Time `json:"birth_date" validate:"required"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	GuardianName string    `json:"guardian_name"`
}

// StudentService handles student CRUD use-cases.
type StudentService struct {
	repo      studentCrudRepository
	histories studentHistoryReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentCrudRepository, histories studentHistoryReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, histories: histories, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns detailed student information with rombel context.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.StudentDetail, error) {
	student, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// History returns the terminal-transition record of a student, if any.
func (s *StudentService) History(ctx context.Context, id int64) (*models.StudentHistory, error) {
	if _, err := s.repo.FindDetailByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	history, err := s.histories.FindByStudentID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrHistoryNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	return history, nil
}

// Create registers a new student with status ACTIVE.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		NISN:         req.NISN,
		NIS:          req.NIS,
		FullName:     req.FullName,
		Gender:       req.Gender,
		BirthPlace:   req.BirthPlace,
		BirthDate:    req.BirthDate,
		Address:      req.Address,
		Phone:        req.Phone,
		GuardianName: req.GuardianName,
		Status:       models.StudentStatusActive,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.Int64("student_id", student.ID), zap.String("nisn", student.NISN))
	return student, nil
}

// Update modifies demographic fields of an existing student.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student := detail.Student
	student.NISN = req.NISN
	student.NIS = req.NIS
	student.FullName = req.FullName
	student.Gender = req.Gender
	student.BirthPlace = req.BirthPlace
	student.BirthDate = req.BirthDate
	student.Address = req.Address
	student.Phone = req.Phone
	student.GuardianName = req.GuardianName
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return &student, nil
}

// Delete removes a student permanently.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindDetailByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.Int64("student_id", id))
	return nil
}
