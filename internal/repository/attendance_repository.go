package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
)

// AttendanceRepository persists per-day attendance rows. Attendance has a
// mandatory rombel reference, so the rows are removed outright when their
// rombel is deleted.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Record upserts one attendance entry for a student on a date.
func (r *AttendanceRepository) Record(ctx context.Context, att *models.Attendance) error {
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendances (rombel_id, student_id, date, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (rombel_id, student_id, date) DO UPDATE SET status = EXCLUDED.status
        RETURNING id`
	if err := r.db.GetContext(ctx, &att.ID, query, att.RombelID, att.StudentID, att.Date, att.Status, att.CreatedAt); err != nil {
		return fmt.Errorf("record attendance: %w", err)
	}
	return nil
}

// ListByRombelAndDate returns the group's attendance sheet for a date.
func (r *AttendanceRepository) ListByRombelAndDate(ctx context.Context, rombelID int64, date time.Time) ([]models.Attendance, error) {
	const query = `SELECT id, rombel_id, student_id, date, status, created_at FROM attendances WHERE rombel_id = $1 AND date = $2 ORDER BY student_id ASC`
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, rombelID, date); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// DeleteByRombel removes every attendance row of the group within the
// caller's transaction.
func (r *AttendanceRepository) DeleteByRombel(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM attendances WHERE rombel_id = $1`, rombelID); err != nil {
		return fmt.Errorf("delete rombel attendance: %w", err)
	}
	return nil
}
