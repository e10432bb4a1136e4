package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/google/uuid"
)

// AccountRepository is the persistence surface the resolver needs.
// The Postgres implementation lives in pkg/repository; tests use an
// in-memory fake.
type AccountRepository interface {
	GetByNaverID(ctx context.Context, naverID string) (*domain.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*domain.Teacher, error)
	Create(ctx context.Context, teacher *domain.Teacher) error
	Update(ctx context.Context, teacher *domain.Teacher) error
}

// AccountResolver maps a verified external identity to exactly one
// local account.
type AccountResolver struct {
	accounts AccountRepository
}

// NewAccountResolver creates a new account resolver.
func NewAccountResolver(accounts AccountRepository) *AccountResolver {
	return &AccountResolver{accounts: accounts}
}

// Resolve finds or creates the account for identity. The order defines
// the dedup policy:
//
//  1. match by external id, returned unchanged;
//  2. match by normalized email, attaching the external id once (an
//     existing link is never overwritten) so password-registered
//     teachers can switch to federated login without a duplicate;
//  3. create a new account with a placeholder password hash.
//
// Two concurrent first logins for the same email can both reach step 3;
// the loser's unique violation means the winner's row now exists, so
// steps 1-2 are re-run once before giving up.
func (r *AccountResolver) Resolve(ctx context.Context, identity *domain.ExternalIdentity) (*domain.Teacher, error) {
	teacher, err := r.lookup(ctx, identity)
	if err == nil {
		return teacher, nil
	}
	if !errors.Is(err, domain.ErrTeacherNotFound) {
		return nil, err
	}

	teacher, err = r.create(ctx, identity)
	if err == nil {
		return teacher, nil
	}
	if !errors.Is(err, domain.ErrTeacherAlreadyExists) {
		return nil, err
	}

	// Lost the race: the other writer's account is findable now.
	return r.lookup(ctx, identity)
}

func (r *AccountResolver) lookup(ctx context.Context, identity *domain.ExternalIdentity) (*domain.Teacher, error) {
	teacher, err := r.accounts.GetByNaverID(ctx, identity.ID)
	if err == nil {
		return teacher, nil
	}
	if !errors.Is(err, domain.ErrTeacherNotFound) {
		return nil, err
	}

	teacher, err = r.accounts.GetByEmail(ctx, NormalizeEmail(identity.Email))
	if err != nil {
		return nil, err
	}

	if teacher.NaverID == nil {
		naverID := identity.ID
		teacher.NaverID = &naverID
		if err := r.accounts.Update(ctx, teacher); err != nil {
			return nil, fmt.Errorf("failed to link external identity: %w", err)
		}
	}
	return teacher, nil
}

func (r *AccountResolver) create(ctx context.Context, identity *domain.ExternalIdentity) (*domain.Teacher, error) {
	// Federated accounts never authenticate with a password, but the
	// column is required; hash unpredictable random material so the
	// placeholder can neither be derived nor revealed.
	placeholder, err := PlaceholderPasswordHash()
	if err != nil {
		return nil, err
	}

	naverID := identity.ID
	now := time.Now()
	teacher := &domain.Teacher{
		ID:           uuid.New(),
		Email:        NormalizeEmail(identity.Email),
		Name:         identity.Name,
		NaverID:      &naverID,
		PasswordHash: placeholder,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.accounts.Create(ctx, teacher); err != nil {
		return nil, err
	}
	return teacher, nil
}
