package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
)

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := `FROM students s
LEFT JOIN rombels r ON r.id = s.rombel_id
LEFT JOIN classes c ON c.id = r.class_id
LEFT JOIN academic_years ay ON ay.id = r.academic_year_id`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.full_name ILIKE $%d OR s.nisn ILIKE $%d OR s.nis ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.RombelID > 0 {
		conditions = append(conditions, fmt.Sprintf("s.rombel_id = $%d", len(args)+1))
		args = append(args, filter.RombelID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"nisn":       "s.nisn",
		"created_at": "s.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT s.id, s.nisn, s.nis, s.full_name, s.gender, s.birth_place, s.birth_date, s.address, s.phone, s.guardian_name, s.status, s.rombel_id, s.created_at, s.updated_at,
        r.name AS rombel_name, c.name AS class_name, ay.name AS academic_year_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by its ID. A non-nil exec joins the caller's
// transaction and locks the row for the remainder of it.
func (r *StudentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error) {
	query := `SELECT id, nisn, nis, full_name, gender, birth_place, birth_date, address, phone, guardian_name, status, rombel_id, created_at, updated_at FROM students WHERE id = $1`
	if exec != nil {
		query += " FOR UPDATE"
	}
	var student models.Student
	if err := sqlx.GetContext(ctx, r.exec(exec), &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindDetailByID returns a student with rombel context.
func (r *StudentRepository) FindDetailByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.nisn, s.nis, s.full_name, s.gender, s.birth_place, s.birth_date, s.address, s.phone, s.guardian_name, s.status, s.rombel_id, s.created_at, s.updated_at,
        r.name AS rombel_name, c.name AS class_name, ay.name AS academic_year_name
        FROM students s
        LEFT JOIN rombels r ON r.id = s.rombel_id
        LEFT JOIN classes c ON c.id = r.class_id
        LEFT JOIN academic_years ay ON ay.id = r.academic_year_id
        WHERE s.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new student record with status ACTIVE.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	const query = `INSERT INTO students (nisn, nis, full_name, gender, birth_place, birth_date, address, phone, guardian_name, status, rombel_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	if err := r.db.GetContext(ctx, &student.ID, query,
		student.NISN, student.NIS, student.FullName, student.Gender, student.BirthPlace, student.BirthDate,
		student.Address, student.Phone, student.GuardianName, student.Status, student.RombelID,
		student.CreatedAt, student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies demographic fields; status and rombel_id are owned by the
// lifecycle and membership paths and are never written here.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET nisn = :nisn, nis = :nis, full_name = :full_name, gender = :gender, birth_place = :birth_place, birth_date = :birth_date, address = :address, phone = :phone, guardian_name = :guardian_name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student permanently.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// UpdateStatus sets the lifecycle status within the caller's transaction.
func (r *StudentRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int64, status models.StudentStatus) error {
	const query = `UPDATE students SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	return nil
}

// SyncRombelRef maintains the denormalized current-rombel back-reference.
// Every membership mutation goes through this helper so the cached column
// never drifts from the rombel_students rows.
func (r *StudentRepository) SyncRombelRef(ctx context.Context, exec sqlx.ExtContext, studentID int64, rombelID *int64) error {
	const query = `UPDATE students SET rombel_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, studentID, rombelID, time.Now().UTC()); err != nil {
		return fmt.Errorf("sync student rombel ref: %w", err)
	}
	return nil
}
