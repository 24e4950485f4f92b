package service

import (
	"context"
	"database/sql"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
)

type scoreRepository interface {
	ListAssessmentTypes(ctx context.Context) ([]models.AssessmentType, error)
	FindAssessmentTypeByID(ctx context.Context, id int64) (*models.AssessmentType, error)
	CreateAssessmentType(ctx context.Context, kind *models.AssessmentType) error
	UpdateAssessmentType(ctx context.Context, kind *models.AssessmentType) error
	DeleteAssessmentType(ctx context.Context, id int64) error
	WeightMap(ctx context.Context) (map[string]float64, error)
	UpsertScore(ctx context.Context, score *models.StudentScore) error
	ScoreRows(ctx context.Context, studentID, classSubjectID int64) ([]models.ScoreRow, error)
}

type scoreClassSubjectReader interface {
	FindClassSubjectByID(ctx context.Context, id int64) (*models.ClassSubject, error)
}

// UpsertScoreRequest writes one score value for a student.
type UpsertScoreRequest struct {
	StudentID        int64    `json:"student_id" validate:"required"`
	ClassSubjectID   int64    `json:"class_subject_id" validate:"required"`
	AssessmentTypeID int64    `json:"assessment_type_id" validate:"required"`
	Score            *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
}

// AssessmentTypeRequest creates or updates a scoring category.
type AssessmentTypeRequest struct {
	Code   string  `json:"code" validate:"required"`
	Name   string  `json:"name" validate:"required"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

// SubjectReport is a per-student, per-subject score breakdown.
type SubjectReport struct {
	StudentID      int64              `json:"student_id"`
	ClassSubjectID int64              `json:"class_subject_id"`
	Scores         []models.ScoreRow  `json:"scores"`
	Totals         models.ScoreTotals `json:"totals"`
}

// ScoreService manages assessment types, score entry and aggregation.
type ScoreService struct {
	scores        scoreRepository
	classSubjects scoreClassSubjectReader
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewScoreService constructs ScoreService.
func NewScoreService(scores scoreRepository, classSubjects scoreClassSubjectReader, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{scores: scores, classSubjects: classSubjects, validator: validate, logger: logger}
}

// CalculateScoreTotals aggregates per-assessment scores into a total, plain
// average and weighted average. Nil entries are skipped; an empty input
// yields the zero result. Averages round half-up at two decimals. When no
// entry has a positive weight the weighted average falls back to the plain
// average.
func CalculateScoreTotals(scores map[string]*float64, weights map[string]float64) models.ScoreTotals {
	var totals models.ScoreTotals
	var count int
	var weightedSum, weightSum float64

	for code, value := range scores {
		if value == nil {
			continue
		}
		totals.Total += *value
		count++
		if weight := weights[code]; weight > 0 {
			weightedSum += *value * weight
			weightSum += weight
		}
	}
	if count == 0 {
		return totals
	}

	totals.Average = round2(totals.Total / float64(count))
	if weightSum > 0 {
		totals.WeightedAverage = round2(weightedSum / weightSum)
	} else {
		totals.WeightedAverage = totals.Average
	}
	return totals
}

// round2 rounds half-up at two decimal places.
func round2(value float64) float64 {
	return math.Floor(value*100+0.5) / 100
}

// ListAssessmentTypes returns all scoring categories.
func (s *ScoreService) ListAssessmentTypes(ctx context.Context) ([]models.AssessmentType, error) {
	kinds, err := s.scores.ListAssessmentTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessment types")
	}
	return kinds, nil
}

// CreateAssessmentType registers a new scoring category.
func (s *ScoreService) CreateAssessmentType(ctx context.Context, req AssessmentTypeRequest) (*models.AssessmentType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment type payload")
	}
	kind := &models.AssessmentType{Code: req.Code, Name: req.Name, Weight: req.Weight}
	if err := s.scores.CreateAssessmentType(ctx, kind); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment type")
	}
	return kind, nil
}

// UpdateAssessmentType modifies a scoring category.
func (s *ScoreService) UpdateAssessmentType(ctx context.Context, id int64, req AssessmentTypeRequest) (*models.AssessmentType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment type payload")
	}
	kind, err := s.scores.FindAssessmentTypeByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment type")
	}
	kind.Code = req.Code
	kind.Name = req.Name
	kind.Weight = req.Weight
	if err := s.scores.UpdateAssessmentType(ctx, kind); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assessment type")
	}
	return kind, nil
}

// DeleteAssessmentType removes a scoring category.
func (s *ScoreService) DeleteAssessmentType(ctx context.Context, id int64) error {
	if _, err := s.scores.FindAssessmentTypeByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assessment type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment type")
	}
	if err := s.scores.DeleteAssessmentType(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assessment type")
	}
	return nil
}

// UpsertScore writes one score value for a (student, class subject,
// assessment type) triple, overwriting any previous value.
func (s *ScoreService) UpsertScore(ctx context.Context, req UpsertScoreRequest) (*models.StudentScore, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if _, err := s.scores.FindAssessmentTypeByID(ctx, req.AssessmentTypeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment type")
	}
	if _, err := s.classSubjects.FindClassSubjectByID(ctx, req.ClassSubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class subject")
	}

	score := &models.StudentScore{
		StudentID:        req.StudentID,
		ClassSubjectID:   req.ClassSubjectID,
		AssessmentTypeID: req.AssessmentTypeID,
		Score:            req.Score,
	}
	if err := s.scores.UpsertScore(ctx, score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert score")
	}
	return score, nil
}

// SubjectReport aggregates a student's stored scores on one class subject.
func (s *ScoreService) SubjectReport(ctx context.Context, studentID, classSubjectID int64) (*SubjectReport, error) {
	rows, err := s.scores.ScoreRows(ctx, studentID, classSubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}

	scores := make(map[string]*float64, len(rows))
	weights := make(map[string]float64, len(rows))
	for _, row := range rows {
		scores[row.AssessmentCode] = row.Score
		weights[row.AssessmentCode] = row.Weight
	}

	return &SubjectReport{
		StudentID:      studentID,
		ClassSubjectID: classSubjectID,
		Scores:         rows,
		Totals:         CalculateScoreTotals(scores, weights),
	}, nil
}
