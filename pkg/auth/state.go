package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
)

const (
	// stateTokenLen is the raw entropy of a state token in bytes.
	stateTokenLen = 16

	// DefaultStateTTL is how long a login attempt stays valid.
	DefaultStateTTL = 5 * time.Minute
)

// State is one login attempt's CSRF token. Token travels to the
// provider and back as the state query parameter; Cookie is the signed
// form stored on the initiating browser, so the two can be matched on
// callback. It lives only for the browser round-trip and is never
// persisted server-side.
type State struct {
	Token     string
	Cookie    string
	ExpiresAt time.Time
}

// StateIssuer mints and verifies OAuth CSRF state tokens. The cookie
// value is HMAC-signed so it can be trusted without server-side
// storage, which keeps callbacks working across replicas.
type StateIssuer struct {
	key []byte
	ttl time.Duration
}

// NewStateIssuer creates a state issuer. ttl <= 0 selects the default
// five minute policy.
func NewStateIssuer(key []byte, ttl time.Duration) *StateIssuer {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateIssuer{key: key, ttl: ttl}
}

// Issue mints a fresh state token for one login attempt.
func (s *StateIssuer) Issue() (*State, error) {
	b := make([]byte, stateTokenLen)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	expiresAt := time.Now().Add(s.ttl)

	return &State{
		Token:     token,
		Cookie:    s.encode(token, expiresAt),
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks a callback's observed state against the signed cookie
// value stored when the attempt started. It fails closed: a missing
// cookie, a bad signature, an expired attempt, or a token mismatch all
// reject the login. A failure here means the attempt must restart from
// scratch with a new state.
func (s *StateIssuer) Verify(cookieValue, observedState string, now time.Time) error {
	if cookieValue == "" || observedState == "" {
		return domain.ErrStateMissing
	}

	parts := strings.Split(cookieValue, ".")
	if len(parts) != 3 {
		return domain.ErrStateMismatch
	}
	token, expiresRaw, sig := parts[0], parts[1], parts[2]

	expected := s.sign(token, expiresRaw)
	if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) != 1 {
		return domain.ErrStateMismatch
	}

	expiresUnix, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return domain.ErrStateMismatch
	}
	if now.After(time.Unix(expiresUnix, 0)) {
		return domain.ErrStateExpired
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(observedState)) != 1 {
		return domain.ErrStateMismatch
	}
	return nil
}

// TTL returns the configured state lifetime.
func (s *StateIssuer) TTL() time.Duration {
	return s.ttl
}

func (s *StateIssuer) encode(token string, expiresAt time.Time) string {
	expiresRaw := strconv.FormatInt(expiresAt.Unix(), 10)
	return fmt.Sprintf("%s.%s.%s", token, expiresRaw, s.sign(token, expiresRaw))
}

func (s *StateIssuer) sign(token, expiresRaw string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(token))
	mac.Write([]byte("."))
	mac.Write([]byte(expiresRaw))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
