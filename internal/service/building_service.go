package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
)

type buildingRepository interface {
	List(ctx context.Context) ([]models.Building, error)
	FindByID(ctx context.Context, id int64) (*models.Building, error)
	Create(ctx context.Context, building *models.Building) error
	Update(ctx context.Context, building *models.Building) error
	Delete(ctx context.Context, id int64) error
}

// BuildingRequest creates or updates a facility record.
type BuildingRequest struct {
	Code      string `json:"code" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Condition string `json:"condition" validate:"required,oneof=BAIK RUSAK_RINGAN RUSAK_BERAT"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
	Notes     string `json:"notes"`
}

// BuildingService manages facility inventory.
type BuildingService struct {
	repo      buildingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBuildingService constructs the building service.
func NewBuildingService(repo buildingRepository, validate *validator.Validate, logger *zap.Logger) *BuildingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuildingService{repo: repo, validator: validate, logger: logger}
}

// List returns all facility records.
func (s *BuildingService) List(ctx context.Context) ([]models.Building, error) {
	buildings, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list buildings")
	}
	return buildings, nil
}

// Get returns one facility record.
func (s *BuildingService) Get(ctx context.Context, id int64) (*models.Building, error) {
	building, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "building not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load building")
	}
	return building, nil
}

// Create registers a facility record.
func (s *BuildingService) Create(ctx context.Context, req BuildingRequest) (*models.Building, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid building payload")
	}
	building := &models.Building{
		Code:      req.Code,
		Name:      req.Name,
		Condition: req.Condition,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, building); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create building")
	}
	return building, nil
}

// Update modifies a facility record.
func (s *BuildingService) Update(ctx context.Context, id int64, req BuildingRequest) (*models.Building, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid building payload")
	}
	building, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "building not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load building")
	}
	building.Code = req.Code
	building.Name = req.Name
	building.Condition = req.Condition
	building.Quantity = req.Quantity
	building.Notes = req.Notes
	if err := s.repo.Update(ctx, building); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update building")
	}
	return building, nil
}

// Delete removes a facility record.
func (s *BuildingService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "building not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load building")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete building")
	}
	return nil
}
