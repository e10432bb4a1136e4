package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var sessionSecret = []byte("test-session-secret-32-bytes-min")

func sessionTeacher() *domain.Teacher {
	return &domain.Teacher{
		ID:       uuid.New(),
		Email:    "a@x.com",
		Name:     "Kim",
		IsActive: true,
	}
}

func TestSessionService_IssueAndValidate(t *testing.T) {
	service := NewSessionService(SessionConfig{
		JWTSecret:  sessionSecret,
		Issuer:     "classfeed",
		SessionTTL: time.Hour,
	})
	teacher := sessionTeacher()

	token, err := service.IssueSession(teacher)
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}

	claims, err := service.ValidateSession(token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if claims.Subject != teacher.ID.String() {
		t.Errorf("Subject = %q, want teacher id", claims.Subject)
	}
	if claims.Email != "a@x.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Issuer != "classfeed" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 59*time.Minute || remaining > time.Hour {
		t.Errorf("Unexpected expiry, %v remaining", remaining)
	}
}

func TestSessionService_RejectsTamperedToken(t *testing.T) {
	service := NewSessionService(SessionConfig{JWTSecret: sessionSecret})
	token, err := service.IssueSession(sessionTeacher())
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}

	if _, err := service.ValidateSession(token + "x"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for tampered token, got %v", err)
	}
	if _, err := service.ValidateSession("not.a.jwt"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for garbage, got %v", err)
	}
	if _, err := service.ValidateSession(""); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestSessionService_RejectsWrongSecret(t *testing.T) {
	issuer := NewSessionService(SessionConfig{JWTSecret: sessionSecret})
	validator := NewSessionService(SessionConfig{JWTSecret: []byte("a-completely-different-secret!!!")})

	token, err := issuer.IssueSession(sessionTeacher())
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}
	if _, err := validator.ValidateSession(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken across secrets, got %v", err)
	}
}

func TestSessionService_RejectsExpiredToken(t *testing.T) {
	service := NewSessionService(SessionConfig{JWTSecret: sessionSecret})

	past := time.Now().Add(-2 * time.Hour)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sessionSecret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := service.ValidateSession(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestSessionService_RejectsUnsignedToken(t *testing.T) {
	service := NewSessionService(SessionConfig{JWTSecret: sessionSecret})

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := service.ValidateSession(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for alg=none token, got %v", err)
	}
}

func TestSessionService_DefaultTTL(t *testing.T) {
	service := NewSessionService(SessionConfig{JWTSecret: sessionSecret})
	if service.SessionTTL() != DefaultSessionTTL {
		t.Errorf("Expected default TTL %v, got %v", DefaultSessionTTL, service.SessionTTL())
	}
}
