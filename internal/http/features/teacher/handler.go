// Package teacher implements password registration and login for
// teacher accounts.
package teacher

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/classfeed/classfeed/internal/http/middleware"
	"github.com/classfeed/classfeed/internal/httputil"
	"github.com/classfeed/classfeed/pkg/auth"
	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/google/uuid"
)

// AccountStore is the persistence surface for the account endpoints.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Teacher, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// Handler handles teacher password auth and account endpoints.
type Handler struct {
	passwordService *auth.PasswordService
	sessionService  *auth.SessionService
	accounts        AccountStore
	logger          *slog.Logger
	cookies         httputil.CookieConfig
}

// NewHandler creates a new teacher handler.
func NewHandler(
	passwordService *auth.PasswordService,
	sessionService *auth.SessionService,
	accounts AccountStore,
	logger *slog.Logger,
	cookies httputil.CookieConfig,
) *Handler {
	return &Handler{
		passwordService: passwordService,
		sessionService:  sessionService,
		accounts:        accounts,
		logger:          logger,
		cookies:         cookies,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type teacherResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register creates a new teacher account.
// POST /v1/teacher/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email, name and password are required")
		return
	}

	teacher, err := h.passwordService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTeacherAlreadyExists):
			httputil.Error(w, http.StatusConflict, "email is already registered")
		case errors.Is(err, domain.ErrInvalidEmail):
			httputil.Error(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, domain.ErrWeakPassword):
			httputil.Error(w, http.StatusBadRequest, "password must be at least 6 characters")
		default:
			h.logger.Error("registration failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	httputil.JSON(w, http.StatusCreated, teacherResponse{
		ID:    teacher.ID.String(),
		Email: teacher.Email,
		Name:  teacher.Name,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a teacher and sets the session cookie.
// POST /v1/teacher/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	teacher, err := h.passwordService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			httputil.Error(w, http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, domain.ErrAccountDeactivated):
			httputil.Error(w, http.StatusForbidden, "account is deactivated")
		default:
			h.logger.Error("login failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	token, err := h.sessionService.IssueSession(teacher)
	if err != nil {
		h.logger.Error("failed to issue session", "error", err, "teacher_id", teacher.ID)
		httputil.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	httputil.SetSessionCookie(w, token, h.sessionService.SessionTTL(), h.cookies)
	httputil.JSON(w, http.StatusOK, teacherResponse{
		ID:    teacher.ID.String(),
		Email: teacher.Email,
		Name:  teacher.Name,
	})
}

// Logout clears the session cookie.
// POST /v1/teacher/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.ClearSessionCookie(w, h.cookies)
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated teacher's account, loaded fresh so
// changes since the session was issued are visible.
// GET /v1/teacher/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.TeacherID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	teacher, err := h.accounts.GetByID(r.Context(), teacherID)
	if err != nil {
		if errors.Is(err, domain.ErrTeacherNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		h.logger.Error("failed to load account", "error", err, "teacher_id", teacherID)
		httputil.Error(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	if !teacher.IsActive {
		httputil.Error(w, http.StatusForbidden, "account is deactivated")
		return
	}

	httputil.JSON(w, http.StatusOK, teacherResponse{
		ID:    teacher.ID.String(),
		Email: teacher.Email,
		Name:  teacher.Name,
	})
}

// Deactivate soft-deletes the authenticated teacher's account and ends
// the session. The row is kept; is_active gates every login path.
// DELETE /v1/teacher/me
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.TeacherID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	if err := h.accounts.Deactivate(r.Context(), teacherID); err != nil {
		if errors.Is(err, domain.ErrTeacherNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		h.logger.Error("failed to deactivate account", "error", err, "teacher_id", teacherID)
		httputil.Error(w, http.StatusInternalServerError, "failed to deactivate account")
		return
	}

	h.logger.Info("teacher account deactivated", "teacher_id", teacherID)
	httputil.ClearSessionCookie(w, h.cookies)
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
