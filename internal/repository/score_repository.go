package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
)

// ScoreRepository handles assessment types and student scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ListAssessmentTypes returns all scoring categories.
func (r *ScoreRepository) ListAssessmentTypes(ctx context.Context) ([]models.AssessmentType, error) {
	const query = `SELECT id, code, name, weight, created_at, updated_at FROM assessment_types ORDER BY code ASC`
	var kinds []models.AssessmentType
	if err := r.db.SelectContext(ctx, &kinds, query); err != nil {
		return nil, fmt.Errorf("list assessment types: %w", err)
	}
	return kinds, nil
}

// FindAssessmentTypeByID loads one scoring category.
func (r *ScoreRepository) FindAssessmentTypeByID(ctx context.Context, id int64) (*models.AssessmentType, error) {
	const query = `SELECT id, code, name, weight, created_at, updated_at FROM assessment_types WHERE id = $1`
	var kind models.AssessmentType
	if err := r.db.GetContext(ctx, &kind, query, id); err != nil {
		return nil, err
	}
	return &kind, nil
}

// CreateAssessmentType inserts a scoring category.
func (r *ScoreRepository) CreateAssessmentType(ctx context.Context, kind *models.AssessmentType) error {
	now := time.Now().UTC()
	if kind.CreatedAt.IsZero() {
		kind.CreatedAt = now
	}
	kind.UpdatedAt = now
	const query = `INSERT INTO assessment_types (code, name, weight, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &kind.ID, query, kind.Code, kind.Name, kind.Weight, kind.CreatedAt, kind.UpdatedAt); err != nil {
		return fmt.Errorf("create assessment type: %w", err)
	}
	return nil
}

// UpdateAssessmentType modifies a scoring category.
func (r *ScoreRepository) UpdateAssessmentType(ctx context.Context, kind *models.AssessmentType) error {
	kind.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessment_types SET code = :code, name = :name, weight = :weight, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, kind); err != nil {
		return fmt.Errorf("update assessment type: %w", err)
	}
	return nil
}

// DeleteAssessmentType removes a scoring category.
func (r *ScoreRepository) DeleteAssessmentType(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assessment_types WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assessment type: %w", err)
	}
	return nil
}

// WeightMap returns assessment weights keyed by code.
func (r *ScoreRepository) WeightMap(ctx context.Context) (map[string]float64, error) {
	kinds, err := r.ListAssessmentTypes(ctx)
	if err != nil {
		return nil, err
	}
	weights := make(map[string]float64, len(kinds))
	for _, kind := range kinds {
		weights[kind.Code] = kind.Weight
	}
	return weights, nil
}

// UpsertScore writes one score value, relying on the unique constraint over
// the (student, class subject, assessment type) triple.
func (r *ScoreRepository) UpsertScore(ctx context.Context, score *models.StudentScore) error {
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO student_scores (student_id, class_subject_id, assessment_type_id, score, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (student_id, class_subject_id, assessment_type_id)
        DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at
        RETURNING id`
	if err := r.db.GetContext(ctx, &score.ID, query,
		score.StudentID, score.ClassSubjectID, score.AssessmentTypeID, score.Score, score.CreatedAt, score.UpdatedAt); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// ScoreRows returns the stored scores for a student on a class subject,
// joined with the assessment code and weight.
func (r *ScoreRepository) ScoreRows(ctx context.Context, studentID, classSubjectID int64) ([]models.ScoreRow, error) {
	const query = `SELECT at.code AS assessment_code, at.weight, ss.score
        FROM student_scores ss
        JOIN assessment_types at ON at.id = ss.assessment_type_id
        WHERE ss.student_id = $1 AND ss.class_subject_id = $2
        ORDER BY at.code ASC`
	var rows []models.ScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, classSubjectID); err != nil {
		return nil, fmt.Errorf("list score rows: %w", err)
	}
	return rows, nil
}
