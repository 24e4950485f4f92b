package models

import "time"

// Building is a physical asset record (room, hall, facility).
type Building struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Condition string    `db:"condition" json:"condition"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
