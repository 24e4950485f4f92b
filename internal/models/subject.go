package models

import "time"

// Subject is a taught discipline with its minimum competency score (KKM).
type Subject struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	KKM       float64   `db:"kkm" json:"kkm"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter restricts subject listings.
type SubjectFilter struct {
	Search   string
	Page     int
	PageSize int
}
