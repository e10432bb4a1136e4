package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/classfeed/classfeed/pkg/domain"
)

func TestNaverService_AuthCodeURL(t *testing.T) {
	service := NewNaverService(NaverConfig{
		ClientID:    "client-123",
		RedirectURI: "https://app.example.com/v1/auth/naver/callback",
	})

	raw := service.AuthCodeURL("state-abc")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthCodeURL produced unparseable URL: %v", err)
	}
	if !strings.HasPrefix(raw, "https://nid.naver.com/oauth2.0/authorize?") {
		t.Errorf("Expected real Naver authorize endpoint, got %s", raw)
	}

	q := parsed.Query()
	if got := q.Get("response_type"); got != "code" {
		t.Errorf("response_type = %q, want code", got)
	}
	if got := q.Get("client_id"); got != "client-123" {
		t.Errorf("client_id = %q", got)
	}
	if got := q.Get("redirect_uri"); got != "https://app.example.com/v1/auth/naver/callback" {
		t.Errorf("redirect_uri = %q", got)
	}
	if got := q.Get("state"); got != "state-abc" {
		t.Errorf("state = %q", got)
	}
}

func TestNaverService_ExchangeCode(t *testing.T) {
	var gotForm url.Values
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		r.ParseForm()
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":"3600"}`))
	}))
	defer tokenServer.Close()

	service := NewNaverService(NaverConfig{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		TokenURL:     tokenServer.URL,
	})

	resp, err := service.ExchangeCode(context.Background(), "code-abc", "state-abc")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}
	if resp.AccessToken != "tok-1" {
		t.Errorf("AccessToken = %q", resp.AccessToken)
	}

	want := map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     "client-123",
		"client_secret": "secret-456",
		"code":          "code-abc",
		"state":         "state-abc",
	}
	for key, val := range want {
		if got := gotForm.Get(key); got != val {
			t.Errorf("form %s = %q, want %q", key, got, val)
		}
	}
}

func TestNaverService_ExchangeCode_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200 status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}},
		{"missing access token", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"invalid_grant","error_description":"code already used"}`))
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			service := NewNaverService(NaverConfig{TokenURL: server.URL})
			_, err := service.ExchangeCode(context.Background(), "code", "state")
			if !errors.Is(err, domain.ErrTokenExchange) {
				t.Errorf("Expected ErrTokenExchange, got %v", err)
			}
		})
	}
}

func TestNaverService_FetchProfile(t *testing.T) {
	profileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"resultcode":"00","message":"success","response":{"id":"naver-789","email":"teacher@example.com","name":"Kim"}}`))
	}))
	defer profileServer.Close()

	service := NewNaverService(NaverConfig{ProfileURL: profileServer.URL})

	identity, err := service.FetchProfile(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("FetchProfile() error = %v", err)
	}
	if identity.Provider != domain.ProviderNaver {
		t.Errorf("Provider = %q", identity.Provider)
	}
	if identity.ID != "naver-789" {
		t.Errorf("ID = %q", identity.ID)
	}
	if identity.Email != "teacher@example.com" {
		t.Errorf("Email = %q", identity.Email)
	}
	if identity.Name != "Kim" {
		t.Errorf("Name = %q", identity.Name)
	}
}

func TestNaverService_FetchProfile_DefaultName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resultcode":"00","response":{"id":"naver-789","email":"teacher@example.com"}}`))
	}))
	defer server.Close()

	service := NewNaverService(NaverConfig{ProfileURL: server.URL})
	identity, err := service.FetchProfile(context.Background(), "tok")
	if err != nil {
		t.Fatalf("FetchProfile() error = %v", err)
	}
	if identity.Name != defaultDisplayName {
		t.Errorf("Name = %q, want default", identity.Name)
	}
}

func TestNaverService_FetchProfile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr error
	}{
		{"non-200 status", "", http.StatusUnauthorized, domain.ErrProfileFetch},
		{"provider result code", `{"resultcode":"024","message":"Authentication failed"}`, http.StatusOK, domain.ErrProfileFetch},
		{"missing external id", `{"resultcode":"00","response":{"email":"a@x.com"}}`, http.StatusOK, domain.ErrIncompleteProfile},
		{"missing email", `{"resultcode":"00","response":{"id":"naver-1","name":"Kim"}}`, http.StatusOK, domain.ErrEmailMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			service := NewNaverService(NaverConfig{ProfileURL: server.URL})
			_, err := service.FetchProfile(context.Background(), "tok")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
