// Package naver implements the federated login endpoints: the
// authorize redirect and the provider callback.
package naver

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/classfeed/classfeed/internal/httputil"
	"github.com/classfeed/classfeed/pkg/auth"
	"github.com/classfeed/classfeed/pkg/domain"
)

// Failure reason codes carried on the login redirect. Internal error
// detail never crosses into the redirect URL.
const (
	reasonMissingClientID    = "missing_client_id"
	reasonMissingEnvVars     = "missing_env_vars"
	reasonMissingParams      = "missing_params"
	reasonInvalidState       = "invalid_state"
	reasonTokenError         = "token_error"
	reasonProfileError       = "profile_error"
	reasonEmailMissing       = "email_missing"
	reasonCallbackError      = "callback_error"
	reasonAccountDeactivated = "account_deactivated"
)

const (
	loginPath     = "/teacher/login"
	dashboardPath = "/teacher/dashboard"
)

// Handler handles the Naver OAuth endpoints.
type Handler struct {
	naverService   *auth.NaverService
	sessionService *auth.SessionService
	resolver       *auth.AccountResolver
	stateIssuer    *auth.StateIssuer
	logger         *slog.Logger
	cookies        httputil.CookieConfig
	appBaseURL     string
	clientIDSet    bool
	secretSet      bool
}

// Config wires the handler's collaborators.
type Config struct {
	NaverService   *auth.NaverService
	SessionService *auth.SessionService
	Resolver       *auth.AccountResolver
	StateIssuer    *auth.StateIssuer
	Logger         *slog.Logger
	Cookies        httputil.CookieConfig
	AppBaseURL     string
	ClientIDSet    bool
	SecretSet      bool
}

// NewHandler creates a new Naver login handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		naverService:   cfg.NaverService,
		sessionService: cfg.SessionService,
		resolver:       cfg.Resolver,
		stateIssuer:    cfg.StateIssuer,
		logger:         cfg.Logger,
		cookies:        cfg.Cookies,
		appBaseURL:     cfg.AppBaseURL,
		clientIDSet:    cfg.ClientIDSet,
		secretSet:      cfg.SecretSet,
	}
}

// Start initiates the login flow.
// GET /v1/auth/naver
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if !h.clientIDSet {
		h.logger.Error("naver login attempted without NAVER_CLIENT_ID configured")
		h.loginRedirect(w, r, reasonMissingClientID)
		return
	}

	state, err := h.stateIssuer.Issue()
	if err != nil {
		h.logger.Error("failed to issue oauth state", "error", err)
		h.loginRedirect(w, r, reasonCallbackError)
		return
	}

	httputil.SetStateCookie(w, state.Cookie, h.stateIssuer.TTL(), h.cookies)
	http.Redirect(w, r, h.naverService.AuthCodeURL(state.Token), http.StatusFound)
}

// Callback completes the login flow.
// GET /v1/auth/naver/callback?code=...&state=...
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	providerErr := r.URL.Query().Get("error")

	// The state token is single-use: invalidate it on every outcome
	// so a captured callback URL cannot be replayed.
	storedState, _ := httputil.GetStateFromCookie(r)
	httputil.ClearStateCookie(w, h.cookies)

	if providerErr != "" {
		h.logger.Warn("provider declined login", "provider_error", providerErr)
		h.loginRedirect(w, r, safeReason(providerErr))
		return
	}

	if code == "" || state == "" {
		h.loginRedirect(w, r, reasonMissingParams)
		return
	}

	if err := h.stateIssuer.Verify(storedState, state, time.Now()); err != nil {
		// CSRF defense tripping is a security event, not a retryable
		// error; the attempt restarts from scratch.
		h.logger.Warn("oauth state verification failed", "error", err, "ip", r.RemoteAddr)
		h.loginRedirect(w, r, reasonInvalidState)
		return
	}

	if !h.clientIDSet || !h.secretSet {
		h.logger.Error("naver callback without complete OAuth configuration")
		h.loginRedirect(w, r, reasonMissingEnvVars)
		return
	}

	tokenResp, err := h.naverService.ExchangeCode(r.Context(), code, state)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		h.loginRedirect(w, r, reasonTokenError)
		return
	}

	identity, err := h.naverService.FetchProfile(r.Context(), tokenResp.AccessToken)
	if err != nil {
		if errors.Is(err, domain.ErrEmailMissing) {
			h.logger.Warn("naver profile has no email")
			h.loginRedirect(w, r, reasonEmailMissing)
			return
		}
		h.logger.Error("profile fetch failed", "error", err)
		h.loginRedirect(w, r, reasonProfileError)
		return
	}

	teacher, err := h.resolver.Resolve(r.Context(), identity)
	if err != nil {
		h.logger.Error("account resolution failed", "error", err)
		h.loginRedirect(w, r, reasonCallbackError)
		return
	}

	// is_active gates every login path, federated included.
	if !teacher.IsActive {
		h.logger.Warn("naver login for deactivated account", "teacher_id", teacher.ID)
		h.loginRedirect(w, r, reasonAccountDeactivated)
		return
	}

	token, err := h.sessionService.IssueSession(teacher)
	if err != nil {
		h.logger.Error("failed to issue session", "error", err, "teacher_id", teacher.ID)
		h.loginRedirect(w, r, reasonCallbackError)
		return
	}

	h.logger.Info("naver login succeeded", "teacher_id", teacher.ID)
	httputil.SetSessionCookie(w, token, h.sessionService.SessionTTL(), h.cookies)
	http.Redirect(w, r, h.appBaseURL+dashboardPath, http.StatusFound)
}

func (h *Handler) loginRedirect(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.appBaseURL+loginPath+"?error="+url.QueryEscape(reason), http.StatusFound)
}

// safeReason passes provider error codes (access_denied and friends)
// through to the login page, falling back to a generic reason for
// anything that does not look like a plain code.
func safeReason(providerErr string) string {
	if len(providerErr) > 64 {
		return reasonCallbackError
	}
	for _, r := range providerErr {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return reasonCallbackError
		}
	}
	return providerErr
}
