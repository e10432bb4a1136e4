package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/google/uuid"
)

// StudentsRepository handles student persistence.
type StudentsRepository struct {
	db *sql.DB
}

// NewStudentsRepository creates a new students repository.
func NewStudentsRepository(db *sql.DB) *StudentsRepository {
	return &StudentsRepository{db: db}
}

// Create creates a new student. The unique index on access_code is the
// authoritative guard against code collisions; a violation is surfaced
// as domain.ErrDuplicateAccessCode so the caller can regenerate.
func (r *StudentsRepository) Create(ctx context.Context, student *domain.Student) error {
	query := `
		INSERT INTO students (id, name, class_id, class_name, access_code, created_by_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		student.ID, student.Name, student.ClassID, student.ClassName,
		student.AccessCode, student.CreatedByID, student.IsActive,
		student.CreatedAt, student.UpdatedAt,
	)
	if IsUniqueViolation(err) {
		return domain.ErrDuplicateAccessCode
	}
	return err
}

// GetByNameAndClass retrieves a student by name within a class.
func (r *StudentsRepository) GetByNameAndClass(ctx context.Context, name string, classID uuid.UUID) (*domain.Student, error) {
	query := `
		SELECT id, name, class_id, class_name, access_code, created_by_id, is_active, created_at, updated_at
		FROM students
		WHERE name = $1 AND class_id = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name, classID))
}

// GetByNameAndAccessCode retrieves an active student by login
// credentials.
func (r *StudentsRepository) GetByNameAndAccessCode(ctx context.Context, name, accessCode string) (*domain.Student, error) {
	query := `
		SELECT id, name, class_id, class_name, access_code, created_by_id, is_active, created_at, updated_at
		FROM students
		WHERE name = $1 AND access_code = $2 AND is_active = true
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name, accessCode))
}

// ListByClass lists a class's students, newest first.
func (r *StudentsRepository) ListByClass(ctx context.Context, classID uuid.UUID) ([]*domain.Student, error) {
	query := `
		SELECT id, name, class_id, class_name, access_code, created_by_id, is_active, created_at, updated_at
		FROM students
		WHERE class_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*domain.Student
	for rows.Next() {
		student := &domain.Student{}
		if err := rows.Scan(
			&student.ID, &student.Name, &student.ClassID, &student.ClassName,
			&student.AccessCode, &student.CreatedByID, &student.IsActive,
			&student.CreatedAt, &student.UpdatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

// ExistsByAccessCode checks if an access code is already taken.
func (r *StudentsRepository) ExistsByAccessCode(ctx context.Context, accessCode string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM students WHERE access_code = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, accessCode).Scan(&exists)
	return exists, err
}

// SetActive updates a student's active flag (re-join reactivates).
func (r *StudentsRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE students
		SET is_active = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, active, time.Now())
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrStudentNotFound
	}
	return nil
}

func (r *StudentsRepository) scanOne(row *sql.Row) (*domain.Student, error) {
	student := &domain.Student{}
	err := row.Scan(
		&student.ID, &student.Name, &student.ClassID, &student.ClassName,
		&student.AccessCode, &student.CreatedByID, &student.IsActive,
		&student.CreatedAt, &student.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return student, nil
}
