package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/google/uuid"
)

// ClassesRepository handles class persistence.
type ClassesRepository struct {
	db *sql.DB
}

// NewClassesRepository creates a new classes repository.
func NewClassesRepository(db *sql.DB) *ClassesRepository {
	return &ClassesRepository{db: db}
}

// Create creates a new class. The unique index on join_code is the
// authoritative guard against code collisions; a violation is surfaced
// as domain.ErrDuplicateJoinCode so the caller can regenerate.
func (r *ClassesRepository) Create(ctx context.Context, class *domain.Class) error {
	query := `
		INSERT INTO classes (id, name, join_code, teacher_id, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		class.ID, class.Name, class.JoinCode, class.TeacherID,
		class.Description, class.IsActive, class.CreatedAt, class.UpdatedAt,
	)
	if IsUniqueViolation(err) {
		return domain.ErrDuplicateJoinCode
	}
	return err
}

// GetByID retrieves a class by ID.
func (r *ClassesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Class, error) {
	query := `
		SELECT id, name, join_code, teacher_id, description, is_active, created_at, updated_at
		FROM classes
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByJoinCode retrieves a class by its join code.
func (r *ClassesRepository) GetByJoinCode(ctx context.Context, joinCode string) (*domain.Class, error) {
	query := `
		SELECT id, name, join_code, teacher_id, description, is_active, created_at, updated_at
		FROM classes
		WHERE join_code = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, joinCode))
}

// ListByTeacher lists a teacher's classes, newest first.
func (r *ClassesRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.Class, error) {
	query := `
		SELECT id, name, join_code, teacher_id, description, is_active, created_at, updated_at
		FROM classes
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []*domain.Class
	for rows.Next() {
		class := &domain.Class{}
		if err := rows.Scan(
			&class.ID, &class.Name, &class.JoinCode, &class.TeacherID,
			&class.Description, &class.IsActive, &class.CreatedAt, &class.UpdatedAt,
		); err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, rows.Err()
}

// ExistsByJoinCode checks if a join code is already taken.
func (r *ClassesRepository) ExistsByJoinCode(ctx context.Context, joinCode string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM classes WHERE join_code = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, joinCode).Scan(&exists)
	return exists, err
}

// UpdateJoinCode replaces a class's join code (explicit regeneration).
func (r *ClassesRepository) UpdateJoinCode(ctx context.Context, id uuid.UUID, joinCode string) error {
	query := `
		UPDATE classes
		SET join_code = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, joinCode, time.Now())
	if IsUniqueViolation(err) {
		return domain.ErrDuplicateJoinCode
	}
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrClassNotFound
	}
	return nil
}

func (r *ClassesRepository) scanOne(row *sql.Row) (*domain.Class, error) {
	class := &domain.Class{}
	err := row.Scan(
		&class.ID, &class.Name, &class.JoinCode, &class.TeacherID,
		&class.Description, &class.IsActive, &class.CreatedAt, &class.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	return class, nil
}
