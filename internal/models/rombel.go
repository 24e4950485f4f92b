package models

import "time"

// Rombel is a class group: a cohort within one class level and academic year.
type Rombel struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	ClassID         int64     `db:"class_id" json:"class_id"`
	AcademicYearID  int64     `db:"academic_year_id" json:"academic_year_id"`
	AdvisorID       *int64    `db:"advisor_id" json:"advisor_id,omitempty"`
	ClassroomLabel  string    `db:"classroom_label" json:"classroom_label"`
	StudentCapacity int       `db:"student_capacity" json:"student_capacity"`
	CurriculumID    *int64    `db:"curriculum_id" json:"curriculum_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// RombelDetail extends Rombel with joined context and the live member count.
type RombelDetail struct {
	Rombel
	ClassName        string  `db:"class_name" json:"class_name"`
	AcademicYearName string  `db:"academic_year_name" json:"academic_year_name"`
	AdvisorName      *string `db:"advisor_name" json:"advisor_name,omitempty"`
	ActiveCount      int     `db:"active_count" json:"active_count"`
}

// RombelStudent is the membership join row between a student and a rombel.
// At most one row per student may be active at a time.
type RombelStudent struct {
	ID        int64      `db:"id" json:"id"`
	RombelID  int64      `db:"rombel_id" json:"rombel_id"`
	StudentID int64      `db:"student_id" json:"student_id"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	JoinedAt  time.Time  `db:"joined_at" json:"joined_at"`
	LeftAt    *time.Time `db:"left_at" json:"left_at,omitempty"`
}

// RombelFilter restricts rombel listings.
type RombelFilter struct {
	ClassID        int64
	AcademicYearID int64
	Search         string
	Page           int
	PageSize       int
}

// TargetRombel annotates a promotion candidate with its free capacity.
type TargetRombel struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Capacity       int    `db:"capacity" json:"capacity"`
	CurrentCount   int    `db:"current_count" json:"current_count"`
	AvailableSlots int    `json:"available_slots"`
}

// PromotionResult summarises a per-student partial-success batch.
type PromotionResult struct {
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	Success      []PromotedStudent  `json:"success"`
	Failed       []FailedPromotion  `json:"failed"`
}

// PromotedStudent identifies a successfully moved student.
type PromotedStudent struct {
	StudentID int64  `json:"student_id"`
	Name      string `json:"name"`
}

// FailedPromotion carries the per-student skip reason.
type FailedPromotion struct {
	StudentID int64  `json:"student_id"`
	Reason    string `json:"reason"`
}
