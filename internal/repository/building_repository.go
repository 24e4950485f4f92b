package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
)

// BuildingRepository handles persistence of building assets.
type BuildingRepository struct {
	db *sqlx.DB
}

// NewBuildingRepository constructs the repository.
func NewBuildingRepository(db *sqlx.DB) *BuildingRepository {
	return &BuildingRepository{db: db}
}

// List returns all building assets.
func (r *BuildingRepository) List(ctx context.Context) ([]models.Building, error) {
	const query = `SELECT id, code, name, condition, quantity, notes, created_at, updated_at FROM buildings ORDER BY code ASC`
	var buildings []models.Building
	if err := r.db.SelectContext(ctx, &buildings, query); err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	return buildings, nil
}

// FindByID loads a building asset by identifier.
func (r *BuildingRepository) FindByID(ctx context.Context, id int64) (*models.Building, error) {
	const query = `SELECT id, code, name, condition, quantity, notes, created_at, updated_at FROM buildings WHERE id = $1`
	var building models.Building
	if err := r.db.GetContext(ctx, &building, query, id); err != nil {
		return nil, err
	}
	return &building, nil
}

// Create inserts a new building asset.
func (r *BuildingRepository) Create(ctx context.Context, building *models.Building) error {
	now := time.Now().UTC()
	if building.CreatedAt.IsZero() {
		building.CreatedAt = now
	}
	building.UpdatedAt = now
	const query = `INSERT INTO buildings (code, name, condition, quantity, notes, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &building.ID, query, building.Code, building.Name, building.Condition, building.Quantity, building.Notes, building.CreatedAt, building.UpdatedAt); err != nil {
		return fmt.Errorf("create building: %w", err)
	}
	return nil
}

// Update modifies an existing building asset.
func (r *BuildingRepository) Update(ctx context.Context, building *models.Building) error {
	building.UpdatedAt = time.Now().UTC()
	const query = `UPDATE buildings SET code = :code, name = :name, condition = :condition, quantity = :quantity, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, building); err != nil {
		return fmt.Errorf("update building: %w", err)
	}
	return nil
}

// Delete removes a building asset permanently.
func (r *BuildingRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM buildings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete building: %w", err)
	}
	return nil
}
