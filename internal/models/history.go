package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// HistoryStatusType tags the terminal transition a history row records.
type HistoryStatusType string

const (
	HistoryStatusGraduate HistoryStatusType = "GRADUATE"
	HistoryStatusMutasi   HistoryStatusType = "MUTASI"
)

// StudentHistory is the append-only record of a terminal lifecycle
// transition. The rombel reference is nullable so that deleting a rombel
// preserves history.
type StudentHistory struct {
	ID                int64             `db:"id" json:"id"`
	StudentID         int64             `db:"student_id" json:"student_id"`
	StatusType        HistoryStatusType `db:"status_type" json:"status_type"`
	RombelID          *int64            `db:"rombel_id" json:"rombel_id,omitempty"`
	CompletionDate    time.Time         `db:"completion_date" json:"completion_date"`
	GraduationYear    string            `db:"graduation_year" json:"graduation_year"`
	CertificateNumber *string           `db:"certificate_number" json:"certificate_number,omitempty"`
	FinalGrade        *float64          `db:"final_grade" json:"final_grade,omitempty"`
	Scores            types.JSONText    `db:"scores" json:"scores,omitempty"`
	MutasiType        *string           `db:"mutasi_type" json:"mutasi_type,omitempty"`
	DestinationSchool *string           `db:"destination_school" json:"destination_school,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// HistoryResult is returned by lifecycle transitions.
type HistoryResult struct {
	Student    StudentSummary  `json:"student"`
	History    *StudentHistory `json:"history"`
	RombelName *string         `json:"rombel_name,omitempty"`
}

// GraduatedStudent identifies one successfully graduated student in a batch.
type GraduatedStudent struct {
	StudentID int64  `json:"student_id"`
	Name      string `json:"name"`
}

// FailedGraduation carries the per-student skip reason in a batch.
type FailedGraduation struct {
	StudentID int64  `json:"student_id"`
	Reason    string `json:"reason"`
}

// BulkGraduationResult summarises a per-student partial-success batch.
type BulkGraduationResult struct {
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	Success      []GraduatedStudent `json:"success"`
	Failed       []FailedGraduation `json:"failed"`
}

// Attendance records presence of a student in a rombel on a date. The rombel
// reference is mandatory, so attendance rows go away with their rombel.
type Attendance struct {
	ID        int64     `db:"id" json:"id"`
	RombelID  int64     `db:"rombel_id" json:"rombel_id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Date      time.Time `db:"date" json:"date"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
