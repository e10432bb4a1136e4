package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/classfeed/classfeed/pkg/domain"
)

const (
	naverAuthURL    = "https://nid.naver.com/oauth2.0/authorize"
	naverTokenURL   = "https://nid.naver.com/oauth2.0/token"
	naverProfileURL = "https://openapi.naver.com/v1/nid/me"

	// naverResultOK is the resultcode Naver returns on a successful
	// profile response.
	naverResultOK = "00"

	// Naver profiles without a display name still need one for the
	// account record.
	defaultDisplayName = "Naver User"
)

// NaverConfig holds Naver OAuth configuration. RedirectURI must exactly
// match the value registered with Naver; a mismatch is a configuration
// error, not something a user can fix.
type NaverConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Endpoint overrides for tests. Empty selects the real Naver
	// endpoints.
	AuthURL    string
	TokenURL   string
	ProfileURL string
}

// NaverService performs the authorization-code exchange and profile
// fetch against Naver.
type NaverService struct {
	config     NaverConfig
	httpClient *http.Client
}

// NewNaverService creates a new Naver OAuth client. Outbound calls
// carry a bounded timeout so a slow provider cannot stall the callback
// handler.
func NewNaverService(config NaverConfig) *NaverService {
	if config.AuthURL == "" {
		config.AuthURL = naverAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = naverTokenURL
	}
	if config.ProfileURL == "" {
		config.ProfileURL = naverProfileURL
	}
	return &NaverService{
		config:     config,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// AuthCodeURL builds the provider authorization URL for one login
// attempt.
func (s *NaverService) AuthCodeURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {s.config.ClientID},
		"redirect_uri":  {s.config.RedirectURI},
		"state":         {state},
	}
	return s.config.AuthURL + "?" + params.Encode()
}

// NaverTokenResponse represents the response from the Naver token
// endpoint.
type NaverTokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        string `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode exchanges an authorization code for an access token.
// Authorization codes are single-use, so this call is never retried:
// a retry with the same code is guaranteed to fail and must not be
// treated as transient.
func (s *NaverService) ExchangeCode(ctx context.Context, code, state string) (*NaverTokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {s.config.ClientID},
		"client_secret": {s.config.ClientSecret},
		"code":          {code},
		"state":         {state},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrTokenExchange, resp.StatusCode)
	}

	var tokenResp NaverTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenExchange, err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: response has no access token (%s)", domain.ErrTokenExchange, tokenResp.Error)
	}

	return &tokenResp, nil
}

// naverProfileResponse is the envelope Naver wraps profile data in.
type naverProfileResponse struct {
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	Response   struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"response"`
}

// FetchProfile fetches the user's profile with the access token and
// folds it into an ExternalIdentity. The external id is required; a
// missing email is its own failure because this system keys accounts
// on email.
func (s *NaverService) FetchProfile(ctx context.Context, accessToken string) (*domain.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProfileFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProfileFetch, resp.StatusCode)
	}

	var profile naverProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProfileFetch, err)
	}
	if profile.ResultCode != naverResultOK {
		return nil, fmt.Errorf("%w: resultcode %s", domain.ErrProfileFetch, profile.ResultCode)
	}

	if profile.Response.ID == "" {
		return nil, domain.ErrIncompleteProfile
	}
	if profile.Response.Email == "" {
		return nil, domain.ErrEmailMissing
	}

	name := profile.Response.Name
	if name == "" {
		name = defaultDisplayName
	}

	return &domain.ExternalIdentity{
		Provider: domain.ProviderNaver,
		ID:       profile.Response.ID,
		Email:    profile.Response.Email,
		Name:     name,
	}, nil
}
