package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// Argon2 parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16

	minPasswordLen = 6
	maxNameLen     = 50
	maxEmailLen    = 100
)

// PasswordService handles teacher password registration and login.
type PasswordService struct {
	teachers AccountRepository
}

// NewPasswordService creates a new password service.
func NewPasswordService(teachers AccountRepository) *PasswordService {
	return &PasswordService{teachers: teachers}
}

// Register creates a new teacher account with password credentials.
func (s *PasswordService) Register(ctx context.Context, email, name, password string) (*domain.Teacher, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, fmt.Errorf("name must be between 1 and %d characters", maxNameLen)
	}
	if len(password) < minPasswordLen {
		return nil, domain.ErrWeakPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	teacher := &domain.Teacher{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, err
	}
	return teacher, nil
}

// Authenticate verifies email and password. Lookup failures and
// password mismatches collapse to the same error so login responses do
// not reveal which accounts exist.
func (s *PasswordService) Authenticate(ctx context.Context, email, password string) (*domain.Teacher, error) {
	teacher, err := s.teachers.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrTeacherNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, teacher.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !teacher.IsActive {
		return nil, domain.ErrAccountDeactivated
	}
	return teacher, nil
}

// NormalizeEmail lowercases and trims an email address. All lookups
// and writes go through this so the unique index sees one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic address shape and length.
func ValidateEmail(email string) error {
	if email == "" || len(email) > maxEmailLen {
		return domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.ErrInvalidEmail
	}
	return nil
}

// HashPassword hashes a password with Argon2id.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encoded as: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword verifies a password against an Argon2id hash.
func VerifyPassword(password, encodedHash string) bool {
	hash, salt, time, memory, threads, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, computed) == 1
}

// PlaceholderPasswordHash returns the hash of 32 fresh random bytes.
// It is used for accounts created via federated login: the plaintext
// is discarded immediately, so no password can ever match.
func PlaceholderPasswordHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return HashPassword(base64.RawURLEncoding.EncodeToString(b))
}

func decodeArgon2Hash(encoded string) (hash, salt []byte, time, memory uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, errors.New("invalid hash format")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, err
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, errors.New("unsupported argon2 version")
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, 0, 0, 0, err
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, err
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, err
	}
	return hash, salt, time, memory, threads, nil
}
