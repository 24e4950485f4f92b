package models

import "time"

// Teacher represents teaching staff; a teacher may advise one or more rombels.
type Teacher struct {
	ID        int64     `db:"id" json:"id"`
	NIP       string    `db:"nip" json:"nip"`
	FullName  string    `db:"full_name" json:"full_name"`
	Gender    string    `db:"gender" json:"gender"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter restricts teacher listings.
type TeacherFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
