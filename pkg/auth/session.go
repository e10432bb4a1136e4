package auth

import (
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the default lifetime of a teacher session.
const DefaultSessionTTL = 24 * time.Hour

// SessionConfig holds session configuration.
type SessionConfig struct {
	JWTSecret  []byte
	Issuer     string
	SessionTTL time.Duration
}

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// SessionService turns a resolved account into an authenticated
// session: a signed JWT held in an HttpOnly cookie. Identity is never
// trusted from a client-writable store.
type SessionService struct {
	config SessionConfig
}

// NewSessionService creates a new session service.
func NewSessionService(config SessionConfig) *SessionService {
	if config.SessionTTL == 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	return &SessionService{config: config}
}

// SessionTTL returns the configured session lifetime.
func (s *SessionService) SessionTTL() time.Duration {
	return s.config.SessionTTL
}

// IssueSession signs a session token for a resolved teacher account.
func (s *SessionService) IssueSession(teacher *domain.Teacher) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   teacher.ID.String(),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.SessionTTL)),
		},
		Email: teacher.Email,
		Name:  teacher.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.config.JWTSecret)
}

// ValidateSession parses and verifies a session token.
func (s *SessionService) ValidateSession(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.config.JWTSecret, nil
	})
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
