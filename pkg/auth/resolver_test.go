package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/google/uuid"
)

// fakeAccounts is an in-memory AccountRepository.
type fakeAccounts struct {
	teachers []*domain.Teacher

	// createRejections makes the next n Create calls fail with
	// ErrTeacherAlreadyExists while inserting winner, simulating a
	// concurrent writer beating this one to the unique index.
	createRejections int
	winner           *domain.Teacher

	createCalls int
	updateCalls int
}

func (f *fakeAccounts) GetByNaverID(ctx context.Context, naverID string) (*domain.Teacher, error) {
	for _, teacher := range f.teachers {
		if teacher.NaverID != nil && *teacher.NaverID == naverID {
			return teacher, nil
		}
	}
	return nil, domain.ErrTeacherNotFound
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (*domain.Teacher, error) {
	for _, teacher := range f.teachers {
		if teacher.Email == email {
			return teacher, nil
		}
	}
	return nil, domain.ErrTeacherNotFound
}

func (f *fakeAccounts) Create(ctx context.Context, teacher *domain.Teacher) error {
	f.createCalls++
	if f.createRejections > 0 {
		f.createRejections--
		if f.winner != nil {
			f.teachers = append(f.teachers, f.winner)
			f.winner = nil
		}
		return domain.ErrTeacherAlreadyExists
	}
	for _, existing := range f.teachers {
		if existing.Email == teacher.Email {
			return domain.ErrTeacherAlreadyExists
		}
	}
	f.teachers = append(f.teachers, teacher)
	return nil
}

func (f *fakeAccounts) Update(ctx context.Context, teacher *domain.Teacher) error {
	f.updateCalls++
	for i, existing := range f.teachers {
		if existing.ID == teacher.ID {
			f.teachers[i] = teacher
			return nil
		}
	}
	return domain.ErrTeacherNotFound
}

func naverIdentity() *domain.ExternalIdentity {
	return &domain.ExternalIdentity{
		Provider: domain.ProviderNaver,
		ID:       "ext1",
		Email:    "a@x.com",
		Name:     "Kim",
	}
}

func TestResolve_CreatesNewAccount(t *testing.T) {
	accounts := &fakeAccounts{}
	resolver := NewAccountResolver(accounts)

	teacher, err := resolver.Resolve(context.Background(), naverIdentity())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if teacher.Email != "a@x.com" {
		t.Errorf("Email = %q", teacher.Email)
	}
	if teacher.NaverID == nil || *teacher.NaverID != "ext1" {
		t.Errorf("NaverID = %v, want ext1", teacher.NaverID)
	}
	if !teacher.IsActive {
		t.Error("New account should be active")
	}
	if teacher.PasswordHash == "" {
		t.Error("New federated account must carry a placeholder password hash")
	}
	if !strings.HasPrefix(teacher.PasswordHash, "$argon2id$") {
		t.Errorf("Placeholder hash should be Argon2id-encoded, got %q", teacher.PasswordHash)
	}
}

func TestResolve_PlaceholderHashesAreUnpredictable(t *testing.T) {
	accounts := &fakeAccounts{}
	resolver := NewAccountResolver(accounts)

	first, err := resolver.Resolve(context.Background(), naverIdentity())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := resolver.Resolve(context.Background(), &domain.ExternalIdentity{
		Provider: domain.ProviderNaver, ID: "ext2", Email: "b@x.com", Name: "Lee",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if first.PasswordHash == second.PasswordHash {
		t.Error("Placeholder hashes must differ between accounts")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	accounts := &fakeAccounts{}
	resolver := NewAccountResolver(accounts)

	first, err := resolver.Resolve(context.Background(), naverIdentity())
	if err != nil {
		t.Fatalf("First Resolve() error = %v", err)
	}
	second, err := resolver.Resolve(context.Background(), naverIdentity())
	if err != nil {
		t.Fatalf("Second Resolve() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected same account, got %s and %s", first.ID, second.ID)
	}
	if len(accounts.teachers) != 1 {
		t.Errorf("Expected exactly one account, got %d", len(accounts.teachers))
	}
}

func TestResolve_EmailFallbackLinksExistingAccount(t *testing.T) {
	existing := &domain.Teacher{
		ID:           uuid.New(),
		Email:        "a@x.com",
		Name:         "Kim",
		PasswordHash: "$argon2id$existing",
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	accounts := &fakeAccounts{teachers: []*domain.Teacher{existing}}
	resolver := NewAccountResolver(accounts)

	teacher, err := resolver.Resolve(context.Background(), naverIdentity())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if teacher.ID != existing.ID {
		t.Errorf("Expected the password-registered account, got a new one")
	}
	if teacher.NaverID == nil || *teacher.NaverID != "ext1" {
		t.Errorf("NaverID = %v, want ext1 attached", teacher.NaverID)
	}
	if accounts.updateCalls != 1 {
		t.Errorf("Expected one Update to persist the link, got %d", accounts.updateCalls)
	}
	if len(accounts.teachers) != 1 {
		t.Errorf("Expected no duplicate account, got %d accounts", len(accounts.teachers))
	}
}

func TestResolve_NeverOverwritesExistingLink(t *testing.T) {
	linked := "ext-original"
	existing := &domain.Teacher{
		ID:       uuid.New(),
		Email:    "a@x.com",
		Name:     "Kim",
		NaverID:  &linked,
		IsActive: true,
	}
	accounts := &fakeAccounts{teachers: []*domain.Teacher{existing}}
	resolver := NewAccountResolver(accounts)

	// Same email, different external id: the email match must not
	// replace the already-linked identity.
	teacher, err := resolver.Resolve(context.Background(), naverIdentity())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if *teacher.NaverID != "ext-original" {
		t.Errorf("NaverID = %q, existing link must be kept", *teacher.NaverID)
	}
	if accounts.updateCalls != 0 {
		t.Errorf("Expected no Update, got %d", accounts.updateCalls)
	}
}

func TestResolve_NormalizesEmail(t *testing.T) {
	existing := &domain.Teacher{
		ID:       uuid.New(),
		Email:    "a@x.com",
		Name:     "Kim",
		IsActive: true,
	}
	accounts := &fakeAccounts{teachers: []*domain.Teacher{existing}}
	resolver := NewAccountResolver(accounts)

	identity := naverIdentity()
	identity.Email = "  A@X.Com "
	teacher, err := resolver.Resolve(context.Background(), identity)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if teacher.ID != existing.ID {
		t.Error("Email matching must be case- and whitespace-insensitive")
	}
}

func TestResolve_RetriesAfterCreateRace(t *testing.T) {
	winner := &domain.Teacher{
		ID:       uuid.New(),
		Email:    "a@x.com",
		Name:     "Kim",
		IsActive: true,
	}
	accounts := &fakeAccounts{createRejections: 1, winner: winner}
	resolver := NewAccountResolver(accounts)

	teacher, err := resolver.Resolve(context.Background(), naverIdentity())
	if err != nil {
		t.Fatalf("Resolve() after race error = %v", err)
	}
	if teacher.ID != winner.ID {
		t.Error("Expected the racing writer's account on retry")
	}
	if accounts.createCalls != 1 {
		t.Errorf("Expected a single Create attempt, got %d", accounts.createCalls)
	}
	// The retry path goes through the email fallback and links the
	// external id to the winner's row.
	if teacher.NaverID == nil || *teacher.NaverID != "ext1" {
		t.Errorf("NaverID = %v, want ext1 linked on retry", teacher.NaverID)
	}
}

func TestResolve_SurfacesHardErrors(t *testing.T) {
	accounts := &fakeAccounts{createRejections: 2}
	resolver := NewAccountResolver(accounts)

	// Create rejected but no winner row appears: the single re-lookup
	// fails and the error surfaces.
	_, err := resolver.Resolve(context.Background(), naverIdentity())
	if !errors.Is(err, domain.ErrTeacherNotFound) {
		t.Errorf("Expected ErrTeacherNotFound after failed retry, got %v", err)
	}
}
