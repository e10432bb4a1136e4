// Package codes generates the short human-typeable codes used for
// class join codes and student access codes.
package codes

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Alphabet excludes 0/O and 1/I: codes are read off a projector
	// and typed by children.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// CodeLength is the length of join codes and access codes.
	CodeLength = 4

	// DefaultMaxAttempts bounds the collision-retry loop in
	// GenerateUnique.
	DefaultMaxAttempts = 10
)

// ExistsFunc reports whether a code is already taken in the caller's
// namespace (classes and students are separate namespaces).
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// ExhaustedError reports that no free code was found within the
// attempt budget. It is retryable: the caller may simply try again.
type ExhaustedError struct {
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("could not allocate a unique code after %d attempts, try again", e.Attempts)
}

// Generate returns length symbols drawn independently and uniformly
// from alphabet using crypto/rand. Codes gate access to student data,
// so a predictable source is not acceptable.
func Generate(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}
	if len(alphabet) < 2 {
		return "", fmt.Errorf("alphabet too small: %q", alphabet)
	}

	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}

// GenerateUnique repeatedly generates codes and checks them against
// existsFn until a free one is found or maxAttempts is exhausted.
//
// The pre-check is an optimization only: two callers can race between
// the check and the write, so the store's uniqueness constraint stays
// authoritative. A write rejected there should draw a fresh code from
// the caller's remaining attempt budget, never a new full budget.
func GenerateUnique(ctx context.Context, length int, alphabet string, existsFn ExistsFunc, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := Generate(length, alphabet)
		if err != nil {
			return "", err
		}
		taken, err := existsFn(ctx, code)
		if err != nil {
			return "", fmt.Errorf("code existence check failed: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", &ExhaustedError{Attempts: maxAttempts}
}

// IsValid checks length and alphabet membership only. Existence is a
// store-dependent concern and deliberately not checked here.
func IsValid(code string, length int, alphabet string) bool {
	if len(code) != length {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
