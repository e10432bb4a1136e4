package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/google/uuid"
)

// TeachersRepository handles teacher account persistence.
type TeachersRepository struct {
	db *sql.DB
}

// NewTeachersRepository creates a new teachers repository.
func NewTeachersRepository(db *sql.DB) *TeachersRepository {
	return &TeachersRepository{db: db}
}

// Create creates a new teacher account. A unique violation on email or
// naver_id is surfaced as domain.ErrTeacherAlreadyExists so callers
// can re-resolve after a concurrent-signup race.
func (r *TeachersRepository) Create(ctx context.Context, teacher *domain.Teacher) error {
	query := `
		INSERT INTO teachers (id, email, name, naver_id, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		teacher.ID, teacher.Email, teacher.Name, teacher.NaverID,
		teacher.PasswordHash, teacher.IsActive, teacher.CreatedAt, teacher.UpdatedAt,
	)
	if IsUniqueViolation(err) {
		return domain.ErrTeacherAlreadyExists
	}
	return err
}

// GetByID retrieves a teacher by ID.
func (r *TeachersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Teacher, error) {
	query := `
		SELECT id, email, name, naver_id, password_hash, is_active, created_at, updated_at
		FROM teachers
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a teacher by normalized email.
func (r *TeachersRepository) GetByEmail(ctx context.Context, email string) (*domain.Teacher, error) {
	query := `
		SELECT id, email, name, naver_id, password_hash, is_active, created_at, updated_at
		FROM teachers
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByNaverID retrieves a teacher by linked Naver identity.
func (r *TeachersRepository) GetByNaverID(ctx context.Context, naverID string) (*domain.Teacher, error) {
	query := `
		SELECT id, email, name, naver_id, password_hash, is_active, created_at, updated_at
		FROM teachers
		WHERE naver_id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, naverID))
}

// Update updates a teacher account.
func (r *TeachersRepository) Update(ctx context.Context, teacher *domain.Teacher) error {
	query := `
		UPDATE teachers
		SET email = $2, name = $3, naver_id = $4, password_hash = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		teacher.ID, teacher.Email, teacher.Name, teacher.NaverID,
		teacher.PasswordHash, teacher.IsActive, time.Now(),
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTeacherNotFound
	}
	return nil
}

// Deactivate marks a teacher account inactive. Accounts are never
// hard-deleted by this service.
func (r *TeachersRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE teachers
		SET is_active = false, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTeacherNotFound
	}
	return nil
}

func (r *TeachersRepository) scanOne(row *sql.Row) (*domain.Teacher, error) {
	teacher := &domain.Teacher{}
	err := row.Scan(
		&teacher.ID, &teacher.Email, &teacher.Name, &teacher.NaverID,
		&teacher.PasswordHash, &teacher.IsActive, &teacher.CreatedAt, &teacher.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTeacherNotFound
	}
	if err != nil {
		return nil, err
	}
	return teacher, nil
}
