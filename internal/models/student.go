package models

import "time"

// StudentStatus enumerates the enrollment lifecycle states.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "ACTIVE"
	StudentStatusMutasi   StudentStatus = "MUTASI"
	StudentStatusGraduate StudentStatus = "GRADUATE"
)

// Student represents a learner registered in the madrasah.
type Student struct {
	ID           int64         `db:"id" json:"id"`
	NISN         string        `db:"nisn" json:"nisn"`
	NIS          string        `db:"nis" json:"nis"`
	FullName     string        `db:"full_name" json:"full_name"`
	Gender       string        `db:"gender" json:"gender"`
	BirthPlace   string        `db:"birth_place" json:"birth_place"`
	BirthDate    time.Time     `db:"birth_date" json:"birth_date"`
	Address      string        `db:"address" json:"address"`
	Phone        string        `db:"phone" json:"phone"`
	GuardianName string        `db:"guardian_name" json:"guardian_name"`
	Status       StudentStatus `db:"status" json:"status"`
	RombelID     *int64        `db:"rombel_id" json:"rombel_id,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Status    StudentStatus
	RombelID  int64
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information with rombel context.
type StudentDetail struct {
	Student
	RombelName       *string `db:"rombel_name" json:"rombel_name,omitempty"`
	ClassName        *string `db:"class_name" json:"class_name,omitempty"`
	AcademicYearName *string `db:"academic_year_name" json:"academic_year_name,omitempty"`
}

// StudentSummary is the compact projection returned by lifecycle transitions.
type StudentSummary struct {
	ID       int64         `db:"id" json:"id"`
	NISN     string        `db:"nisn" json:"nisn"`
	FullName string        `db:"full_name" json:"full_name"`
	Status   StudentStatus `db:"status" json:"status"`
}
