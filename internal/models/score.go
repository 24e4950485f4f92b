package models

import "time"

// AssessmentType is a weighted scoring category (UH, UTS, UAS, ...).
type AssessmentType struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Weight    float64   `db:"weight" json:"weight"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentScore stores one score value per (student, class subject, assessment
// type) triple; uniqueness is enforced on the triple.
type StudentScore struct {
	ID               int64     `db:"id" json:"id"`
	StudentID        int64     `db:"student_id" json:"student_id"`
	ClassSubjectID   int64     `db:"class_subject_id" json:"class_subject_id"`
	AssessmentTypeID int64     `db:"assessment_type_id" json:"assessment_type_id"`
	Score            *float64  `db:"score" json:"score"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreRow joins a stored score with its assessment-type code and weight.
type ScoreRow struct {
	AssessmentCode string   `db:"assessment_code" json:"assessment_code"`
	Weight         float64  `db:"weight" json:"weight"`
	Score          *float64 `db:"score" json:"score"`
}

// ScoreTotals is the aggregation result for one student and subject.
type ScoreTotals struct {
	Total           float64 `json:"total"`
	Average         float64 `json:"average"`
	WeightedAverage float64 `json:"weighted_average"`
}
