package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
)

// SubjectRepository handles subjects and their rombel assignments.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects filtered by the provided criteria.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, code, name, kkm, created_at, updated_at %s ORDER BY code ASC LIMIT %d OFFSET %d", base, size, offset)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return subjects, total, nil
}

// FindByID loads a subject by identifier.
func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	const query = `SELECT id, code, name, kkm, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (code, name, kkm, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &subject.ID, query, subject.Code, subject.Name, subject.KKM, subject.CreatedAt, subject.UpdatedAt); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies an existing subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET code = :code, name = :name, kkm = :kkm, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject permanently.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// ListByRombel returns subject assignments for a rombel.
func (r *SubjectRepository) ListByRombel(ctx context.Context, rombelID int64) ([]models.ClassSubjectDetail, error) {
	const query = `SELECT cs.id, cs.rombel_id, cs.subject_id, cs.teacher_id, cs.created_at,
        s.name AS subject_name, s.code AS subject_code, t.full_name AS teacher_name
        FROM class_subjects cs
        JOIN subjects s ON s.id = cs.subject_id
        LEFT JOIN teachers t ON t.id = cs.teacher_id
        WHERE cs.rombel_id = $1
        ORDER BY s.code ASC`
	var assignments []models.ClassSubjectDetail
	if err := r.db.SelectContext(ctx, &assignments, query, rombelID); err != nil {
		return nil, fmt.Errorf("list rombel subjects: %w", err)
	}
	return assignments, nil
}

// FindClassSubjectByID loads a single subject assignment.
func (r *SubjectRepository) FindClassSubjectByID(ctx context.Context, id int64) (*models.ClassSubject, error) {
	const query = `SELECT id, rombel_id, subject_id, teacher_id, created_at FROM class_subjects WHERE id = $1`
	var assignment models.ClassSubject
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Assign attaches a subject (and optional teacher) to a rombel.
func (r *SubjectRepository) Assign(ctx context.Context, assignment *models.ClassSubject) error {
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO class_subjects (rombel_id, subject_id, teacher_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &assignment.ID, query, assignment.RombelID, assignment.SubjectID, assignment.TeacherID, assignment.CreatedAt); err != nil {
		return fmt.Errorf("assign subject: %w", err)
	}
	return nil
}

// Unassign removes a subject assignment from a rombel.
func (r *SubjectRepository) Unassign(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("unassign subject: %w", err)
	}
	return nil
}
