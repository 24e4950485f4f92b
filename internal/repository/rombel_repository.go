package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
)

// RombelRepository handles persistence of class groups and memberships.
type RombelRepository struct {
	db *sqlx.DB
}

// NewRombelRepository constructs the repository.
func NewRombelRepository(db *sqlx.DB) *RombelRepository {
	return &RombelRepository{db: db}
}

func (r *RombelRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns rombels with joined context and live member counts.
func (r *RombelRepository) List(ctx context.Context, filter models.RombelFilter) ([]models.RombelDetail, int, error) {
	base := `FROM rombels r
JOIN classes c ON c.id = r.class_id
JOIN academic_years ay ON ay.id = r.academic_year_id
LEFT JOIN teachers t ON t.id = r.advisor_id`
	var conditions []string
	var args []interface{}

	if filter.ClassID > 0 {
		conditions = append(conditions, fmt.Sprintf("r.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.AcademicYearID > 0 {
		conditions = append(conditions, fmt.Sprintf("r.academic_year_id = $%d", len(args)+1))
		args = append(args, filter.AcademicYearID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("r.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT r.id, r.name, r.class_id, r.academic_year_id, r.advisor_id, r.classroom_label, r.student_capacity, r.curriculum_id, r.created_at, r.updated_at,
        c.name AS class_name, ay.name AS academic_year_name, t.full_name AS advisor_name,
        (SELECT COUNT(*) FROM rombel_students rs WHERE rs.rombel_id = r.id AND rs.is_active = TRUE) AS active_count
        %s ORDER BY c.level ASC, r.name ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var rombels []models.RombelDetail
	if err := r.db.SelectContext(ctx, &rombels, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rombels: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rombels: %w", err)
	}
	return rombels, total, nil
}

// FindByID returns a rombel by its ID. A non-nil exec joins the caller's
// transaction and locks the row, serializing concurrent capacity checks
// against the same group.
func (r *RombelRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Rombel, error) {
	query := `SELECT id, name, class_id, academic_year_id, advisor_id, classroom_label, student_capacity, curriculum_id, created_at, updated_at FROM rombels WHERE id = $1`
	if exec != nil {
		query += " FOR UPDATE"
	}
	var rombel models.Rombel
	if err := sqlx.GetContext(ctx, r.exec(exec), &rombel, query, id); err != nil {
		return nil, err
	}
	return &rombel, nil
}

// FindDetailByID returns a rombel with joined context.
func (r *RombelRepository) FindDetailByID(ctx context.Context, id int64) (*models.RombelDetail, error) {
	const query = `SELECT r.id, r.name, r.class_id, r.academic_year_id, r.advisor_id, r.classroom_label, r.student_capacity, r.curriculum_id, r.created_at, r.updated_at,
        c.name AS class_name, ay.name AS academic_year_name, t.full_name AS advisor_name,
        (SELECT COUNT(*) FROM rombel_students rs WHERE rs.rombel_id = r.id AND rs.is_active = TRUE) AS active_count
        FROM rombels r
        JOIN classes c ON c.id = r.class_id
        JOIN academic_years ay ON ay.id = r.academic_year_id
        LEFT JOIN teachers t ON t.id = r.advisor_id
        WHERE r.id = $1`
	var detail models.RombelDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CountActiveMembers counts active memberships for the group within the
// caller's transaction so the capacity check and the insert see the same
// state.
func (r *RombelRepository) CountActiveMembers(ctx context.Context, exec sqlx.ExtContext, rombelID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM rombel_students WHERE rombel_id = $1 AND is_active = TRUE`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, rombelID); err != nil {
		return 0, fmt.Errorf("count active members: %w", err)
	}
	return count, nil
}

// ListTargets returns rombels at the given class level within an academic
// year, annotated with their active member counts.
func (r *RombelRepository) ListTargets(ctx context.Context, classID, academicYearID int64) ([]models.TargetRombel, error) {
	const query = `SELECT r.id, r.name, r.student_capacity AS capacity,
        (SELECT COUNT(*) FROM rombel_students rs WHERE rs.rombel_id = r.id AND rs.is_active = TRUE) AS current_count
        FROM rombels r
        WHERE r.class_id = $1 AND r.academic_year_id = $2
        ORDER BY r.name ASC`
	var targets []models.TargetRombel
	if err := r.db.SelectContext(ctx, &targets, query, classID, academicYearID); err != nil {
		return nil, fmt.Errorf("list target rombels: %w", err)
	}
	return targets, nil
}

// Create inserts a class group within the caller's transaction.
func (r *RombelRepository) Create(ctx context.Context, exec sqlx.ExtContext, rombel *models.Rombel) error {
	now := time.Now().UTC()
	if rombel.CreatedAt.IsZero() {
		rombel.CreatedAt = now
	}
	rombel.UpdatedAt = now
	const query = `INSERT INTO rombels (name, class_id, academic_year_id, advisor_id, classroom_label, student_capacity, curriculum_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &rombel.ID, query,
		rombel.Name, rombel.ClassID, rombel.AcademicYearID, rombel.AdvisorID, rombel.ClassroomLabel,
		rombel.StudentCapacity, rombel.CurriculumID, rombel.CreatedAt, rombel.UpdatedAt); err != nil {
		return fmt.Errorf("create rombel: %w", err)
	}
	return nil
}

// InsertMembership adds an active membership row.
func (r *RombelRepository) InsertMembership(ctx context.Context, exec sqlx.ExtContext, rombelID, studentID int64) error {
	const query = `INSERT INTO rombel_students (rombel_id, student_id, is_active, joined_at) VALUES ($1, $2, TRUE, $3)`
	if _, err := r.exec(exec).ExecContext(ctx, query, rombelID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// DeactivateMembership closes the student's active membership, stamping
// left_at, and reports the rombel that was left. Returns nil when the
// student had no active membership.
func (r *RombelRepository) DeactivateMembership(ctx context.Context, exec sqlx.ExtContext, studentID int64) (*int64, error) {
	const query = `UPDATE rombel_students SET is_active = FALSE, left_at = $2 WHERE student_id = $1 AND is_active = TRUE RETURNING rombel_id`
	var rombelID int64
	if err := sqlx.GetContext(ctx, r.exec(exec), &rombelID, query, studentID, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("deactivate membership: %w", err)
	}
	return &rombelID, nil
}

// FindActiveMembership returns the student's single active membership row.
func (r *RombelRepository) FindActiveMembership(ctx context.Context, exec sqlx.ExtContext, studentID int64) (*models.RombelStudent, error) {
	const query = `SELECT id, rombel_id, student_id, is_active, joined_at, left_at FROM rombel_students WHERE student_id = $1 AND is_active = TRUE LIMIT 1`
	var membership models.RombelStudent
	if err := sqlx.GetContext(ctx, r.exec(exec), &membership, query, studentID); err != nil {
		return nil, err
	}
	return &membership, nil
}

// ListActiveMemberDetails returns basic info on the group's active members.
func (r *RombelRepository) ListActiveMemberDetails(ctx context.Context, rombelID int64) ([]models.StudentSummary, error) {
	const query = `SELECT s.id, s.nisn, s.full_name, s.status
        FROM rombel_students rs
        JOIN students s ON s.id = rs.student_id
        WHERE rs.rombel_id = $1 AND rs.is_active = TRUE
        ORDER BY s.full_name ASC`
	var members []models.StudentSummary
	if err := r.db.SelectContext(ctx, &members, query, rombelID); err != nil {
		return nil, fmt.Errorf("list rombel members: %w", err)
	}
	return members, nil
}

// NullifyStudentRefs clears the back-reference on students pointing at the
// group being deleted.
func (r *RombelRepository) NullifyStudentRefs(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	const query = `UPDATE students SET rombel_id = NULL, updated_at = $2 WHERE rombel_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, rombelID, time.Now().UTC()); err != nil {
		return fmt.Errorf("nullify student rombel refs: %w", err)
	}
	return nil
}

// DeleteMemberships removes all membership rows for the group.
func (r *RombelRepository) DeleteMemberships(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM rombel_students WHERE rombel_id = $1`, rombelID); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	return nil
}

// Delete removes the class group row itself.
func (r *RombelRepository) Delete(ctx context.Context, exec sqlx.ExtContext, rombelID int64) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM rombels WHERE id = $1`, rombelID); err != nil {
		return fmt.Errorf("delete rombel: %w", err)
	}
	return nil
}
