package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
)

func scorePtr(v float64) *float64 { return &v }

func TestCalculateScoreTotalsEmpty(t *testing.T) {
	totals := CalculateScoreTotals(map[string]*float64{}, map[string]float64{})
	assert.Equal(t, models.ScoreTotals{}, totals)
}

func TestCalculateScoreTotalsSkipsNilEntries(t *testing.T) {
	totals := CalculateScoreTotals(map[string]*float64{
		"UH":  scorePtr(80),
		"UTS": nil,
	}, map[string]float64{"UH": 20, "UTS": 30})
	assert.Equal(t, 80.0, totals.Total)
	assert.Equal(t, 80.0, totals.Average)
	assert.Equal(t, 80.0, totals.WeightedAverage)
}

func TestCalculateScoreTotalsWeighted(t *testing.T) {
	totals := CalculateScoreTotals(map[string]*float64{
		"UH":  scorePtr(80),
		"UTS": scorePtr(90),
	}, map[string]float64{"UH": 20, "UTS": 30})
	assert.Equal(t, 170.0, totals.Total)
	assert.Equal(t, 85.0, totals.Average)
	// (80*20 + 90*30) / 50
	assert.Equal(t, 86.0, totals.WeightedAverage)
}

func TestCalculateScoreTotalsZeroWeightFallsBackToAverage(t *testing.T) {
	totals := CalculateScoreTotals(map[string]*float64{
		"UH":  scorePtr(70),
		"UTS": scorePtr(90),
	}, map[string]float64{"UH": 0, "UTS": 0})
	assert.Equal(t, 80.0, totals.Average)
	assert.Equal(t, 80.0, totals.WeightedAverage)
}

func TestCalculateScoreTotalsRoundsHalfUp(t *testing.T) {
	totals := CalculateScoreTotals(map[string]*float64{
		"UH":  scorePtr(80.11),
		"UTS": scorePtr(80.12),
	}, nil)
	// raw average 80.115 rounds up, not to even
	assert.Equal(t, 80.12, totals.Average)
}

type fakeScores struct {
	types  map[int64]*models.AssessmentType
	rows   []models.ScoreRow
	stored []*models.StudentScore
}

func (f *fakeScores) ListAssessmentTypes(ctx context.Context) ([]models.AssessmentType, error) {
	kinds := make([]models.AssessmentType, 0, len(f.types))
	for _, kind := range f.types {
		kinds = append(kinds, *kind)
	}
	return kinds, nil
}

func (f *fakeScores) FindAssessmentTypeByID(ctx context.Context, id int64) (*models.AssessmentType, error) {
	if kind, ok := f.types[id]; ok {
		return kind, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeScores) CreateAssessmentType(ctx context.Context, kind *models.AssessmentType) error {
	kind.ID = int64(len(f.types) + 1)
	if f.types == nil {
		f.types = make(map[int64]*models.AssessmentType)
	}
	f.types[kind.ID] = kind
	return nil
}

func (f *fakeScores) UpdateAssessmentType(ctx context.Context, kind *models.AssessmentType) error {
	f.types[kind.ID] = kind
	return nil
}

func (f *fakeScores) DeleteAssessmentType(ctx context.Context, id int64) error {
	delete(f.types, id)
	return nil
}

func (f *fakeScores) WeightMap(ctx context.Context) (map[string]float64, error) {
	weights := make(map[string]float64, len(f.types))
	for _, kind := range f.types {
		weights[kind.Code] = kind.Weight
	}
	return weights, nil
}

func (f *fakeScores) UpsertScore(ctx context.Context, score *models.StudentScore) error {
	score.ID = int64(len(f.stored) + 1)
	f.stored = append(f.stored, score)
	return nil
}

func (f *fakeScores) ScoreRows(ctx context.Context, studentID, classSubjectID int64) ([]models.ScoreRow, error) {
	return f.rows, nil
}

type fakeClassSubjects struct {
	subjects map[int64]*models.ClassSubject
}

func (f *fakeClassSubjects) FindClassSubjectByID(ctx context.Context, id int64) (*models.ClassSubject, error) {
	if cs, ok := f.subjects[id]; ok {
		return cs, nil
	}
	return nil, sql.ErrNoRows
}

func TestScoreServiceUpsertScore(t *testing.T) {
	scores := &fakeScores{types: map[int64]*models.AssessmentType{1: {ID: 1, Code: "UH", Weight: 20}}}
	classSubjects := &fakeClassSubjects{subjects: map[int64]*models.ClassSubject{3: {ID: 3}}}
	svc := NewScoreService(scores, classSubjects, nil, nil)

	stored, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID:        7,
		ClassSubjectID:   3,
		AssessmentTypeID: 1,
		Score:            scorePtr(92.5),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.StudentID)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 92.5, *stored.Score)
	require.Len(t, scores.stored, 1)
}

func TestScoreServiceUpsertScoreUnknownAssessmentType(t *testing.T) {
	svc := NewScoreService(&fakeScores{}, &fakeClassSubjects{}, nil, nil)

	_, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID:        7,
		ClassSubjectID:   3,
		AssessmentTypeID: 99,
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestScoreServiceUpsertScoreRejectsOutOfRange(t *testing.T) {
	svc := NewScoreService(&fakeScores{}, &fakeClassSubjects{}, nil, nil)

	_, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID:        7,
		ClassSubjectID:   3,
		AssessmentTypeID: 1,
		Score:            scorePtr(101),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestScoreServiceSubjectReport(t *testing.T) {
	scores := &fakeScores{rows: []models.ScoreRow{
		{AssessmentCode: "UH", Weight: 20, Score: scorePtr(80)},
		{AssessmentCode: "UTS", Weight: 30, Score: scorePtr(90)},
		{AssessmentCode: "UAS", Weight: 50, Score: nil},
	}}
	svc := NewScoreService(scores, &fakeClassSubjects{}, nil, nil)

	report, err := svc.SubjectReport(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), report.StudentID)
	assert.Len(t, report.Scores, 3)
	assert.Equal(t, 170.0, report.Totals.Total)
	assert.Equal(t, 85.0, report.Totals.Average)
	assert.Equal(t, 86.0, report.Totals.WeightedAverage)
}

func TestScoreServiceDeleteAssessmentType(t *testing.T) {
	scores := &fakeScores{types: map[int64]*models.AssessmentType{1: {ID: 1, Code: "UH"}}}
	svc := NewScoreService(scores, &fakeClassSubjects{}, nil, nil)

	require.NoError(t, svc.DeleteAssessmentType(context.Background(), 1))
	assert.Empty(t, scores.types)

	err := svc.DeleteAssessmentType(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}
