package domain

import (
	"time"

	"github.com/google/uuid"
)

// Teacher represents the account. Federated logins and password logins
// both resolve to a Teacher.
type Teacher struct {
	ID           uuid.UUID
	Email        string
	Name         string
	NaverID      *string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ExternalIdentity is the verified profile returned by the identity
// provider. It is transient: constructed from the provider response and
// immediately folded into a Teacher, never stored verbatim.
type ExternalIdentity struct {
	Provider string
	ID       string
	Email    string
	Name     string
}

// IdentityProvider constants
const (
	ProviderNaver = "naver"
)
