package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
)

// HistoryRepository persists student lifecycle history records.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Insert appends a lifecycle history row within the caller's transaction.
func (r *HistoryRepository) Insert(ctx context.Context, exec sqlx.ExtContext, history *models.StudentHistory) error {
	now := time.Now().UTC()
	if history.CreatedAt.IsZero() {
		history.CreatedAt = now
	}
	history.UpdatedAt = now
	if len(history.Scores) == 0 {
		history.Scores = types.JSONText(`{}`)
	}
	const query = `INSERT INTO student_histories (student_id, status_type, rombel_id, completion_date, graduation_year, certificate_number, final_grade, scores, mutasi_type, destination_school, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &history.ID, query,
		history.StudentID, history.StatusType, history.RombelID, history.CompletionDate, history.GraduationYear,
		history.CertificateNumber, history.FinalGrade, history.Scores, history.MutasiType, history.DestinationSchool,
		history.CreatedAt, history.UpdatedAt); err != nil {
		return fmt.Errorf("insert student history: %w", err)
	}
	return nil
}

// FindByStudentID returns the most recent history row for a student.
func (r *HistoryRepository) FindByStudentID(ctx context.Context, studentID int64) (*models.StudentHistory, error) {
	const query = `SELECT id, student_id, status_type, rombel_id, completion_date, graduation_year, certificate_number, final_grade, scores, mutasi_type, destination_school, created_at, updated_at
        FROM student_histories WHERE student_id = $1 ORDER BY created_at DESC LIMIT 1`
	var history models.StudentHistory
	if err := r.db.GetContext(ctx, &history, query, studentID); err != nil {
		return nil, err
	}
	return &history, nil
}

// ClericalUpdate carries the post-hoc correctable fields of a history row.
// Nil pointers leave the column untouched.
type ClericalUpdate struct {
	CertificateNumber *string
	FinalGrade        *float64
	Scores            types.JSONText
	GraduationYear    *string
	CompletionDate    *time.Time
}

// Empty reports whether the update carries no recognized field.
func (u ClericalUpdate) Empty() bool {
	return u.CertificateNumber == nil && u.FinalGrade == nil && len(u.Scores) == 0 &&
		u.GraduationYear == nil && u.CompletionDate == nil
}

// UpdateClerical corrects clerical fields on an existing history row.
func (r *HistoryRepository) UpdateClerical(ctx context.Context, id int64, update ClericalUpdate) error {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.CertificateNumber != nil {
		add("certificate_number", *update.CertificateNumber)
	}
	if update.FinalGrade != nil {
		add("final_grade", *update.FinalGrade)
	}
	if len(update.Scores) > 0 {
		add("scores", update.Scores)
	}
	if update.GraduationYear != nil {
		add("graduation_year", *update.GraduationYear)
	}
	if update.CompletionDate != nil {
		add("completion_date", *update.CompletionDate)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE student_histories SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update student history: %w", err)
	}
	return nil
}

// NullifyRombelRefs detaches history rows from a rombel being deleted while
// preserving the records themselves.
func (r *HistoryRepository) NullifyRombelRefs(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	const query = `UPDATE student_histories SET rombel_id = NULL, updated_at = $2 WHERE rombel_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, rombelID, time.Now().UTC()); err != nil {
		return fmt.Errorf("nullify history rombel refs: %w", err)
	}
	return nil
}
