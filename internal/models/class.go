package models

import "time"

// Class is an ordered grade tier (X, XI, XII) independent of academic year.
type Class struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Level     string    `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSubject maps a subject (and optionally a teacher) onto a rombel.
type ClassSubject struct {
	ID        int64     `db:"id" json:"id"`
	RombelID  int64     `db:"rombel_id" json:"rombel_id"`
	SubjectID int64     `db:"subject_id" json:"subject_id"`
	TeacherID *int64    `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassSubjectDetail includes subject and teacher info for responses.
type ClassSubjectDetail struct {
	ClassSubject
	SubjectName string  `db:"subject_name" json:"subject_name"`
	SubjectCode string  `db:"subject_code" json:"subject_code"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}
