// Package classes implements class creation and join-code management.
package classes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/classfeed/classfeed/internal/http/middleware"
	"github.com/classfeed/classfeed/internal/httputil"
	"github.com/classfeed/classfeed/pkg/codes"
	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxClassNameLen   = 100
	maxDescriptionLen = 500
)

// ClassStore is the persistence surface the handler needs. The Postgres
// implementation lives in pkg/repository.
type ClassStore interface {
	Create(ctx context.Context, class *domain.Class) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Class, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.Class, error)
	ExistsByJoinCode(ctx context.Context, joinCode string) (bool, error)
	UpdateJoinCode(ctx context.Context, id uuid.UUID, joinCode string) error
}

// StudentLister lists a class's roster.
type StudentLister interface {
	ListByClass(ctx context.Context, classID uuid.UUID) ([]*domain.Student, error)
}

// Handler handles class endpoints.
type Handler struct {
	classes  ClassStore
	students StudentLister
	logger   *slog.Logger
}

// NewHandler creates a new classes handler.
func NewHandler(classes ClassStore, students StudentLister, logger *slog.Logger) *Handler {
	return &Handler{classes: classes, students: students, logger: logger}
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type classResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	JoinCode    string `json:"joinCode"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
}

// Create creates a class with a freshly allocated join code.
// POST /v1/classes
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.TeacherID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || len(req.Name) > maxClassNameLen {
		httputil.Error(w, http.StatusBadRequest, "class name must be between 1 and 100 characters")
		return
	}
	if len(req.Description) > maxDescriptionLen {
		httputil.Error(w, http.StatusBadRequest, "description must be at most 500 characters")
		return
	}

	// The existence pre-check in GenerateUnique only reduces write
	// conflicts; the unique index decides. A rejected insert draws a
	// fresh code from the same budget: every generated code costs one
	// existence check, so counting those caps total draws at
	// DefaultMaxAttempts across pre-checks and write retries.
	drawn := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		drawn++
		return h.classes.ExistsByJoinCode(ctx, code)
	}
	var class *domain.Class
	for class == nil && drawn < codes.DefaultMaxAttempts {
		joinCode, err := codes.GenerateUnique(r.Context(), codes.CodeLength, codes.Alphabet,
			exists, codes.DefaultMaxAttempts-drawn)
		if err != nil {
			h.codeAllocationError(w, err)
			return
		}

		now := time.Now()
		candidate := &domain.Class{
			ID:          uuid.New(),
			Name:        req.Name,
			JoinCode:    joinCode,
			TeacherID:   teacherID,
			Description: req.Description,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err = h.classes.Create(r.Context(), candidate)
		if errors.Is(err, domain.ErrDuplicateJoinCode) {
			continue
		}
		if err != nil {
			h.logger.Error("failed to create class", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "failed to create class")
			return
		}
		class = candidate
	}
	if class == nil {
		h.codeAllocationError(w, &codes.ExhaustedError{Attempts: codes.DefaultMaxAttempts})
		return
	}

	httputil.JSON(w, http.StatusCreated, classResponse{
		ID:          class.ID.String(),
		Name:        class.Name,
		JoinCode:    class.JoinCode,
		Description: class.Description,
		IsActive:    class.IsActive,
	})
}

// List lists the authenticated teacher's classes.
// GET /v1/classes
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.TeacherID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	classList, err := h.classes.ListByTeacher(r.Context(), teacherID)
	if err != nil {
		h.logger.Error("failed to list classes", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list classes")
		return
	}

	resp := make([]classResponse, 0, len(classList))
	for _, class := range classList {
		resp = append(resp, classResponse{
			ID:          class.ID.String(),
			Name:        class.Name,
			JoinCode:    class.JoinCode,
			Description: class.Description,
			IsActive:    class.IsActive,
		})
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// RegenerateJoinCode replaces a class's join code. Join codes are
// immutable except through this explicit regeneration.
// POST /v1/classes/{id}/join-code
func (h *Handler) RegenerateJoinCode(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.TeacherID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	classID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid class id")
		return
	}

	class, err := h.classes.GetByID(r.Context(), classID)
	if err != nil {
		if errors.Is(err, domain.ErrClassNotFound) {
			httputil.Error(w, http.StatusNotFound, "class not found")
			return
		}
		h.logger.Error("failed to load class", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to regenerate join code")
		return
	}
	if class.TeacherID != teacherID {
		httputil.Error(w, http.StatusForbidden, "not your class")
		return
	}

	drawn := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		drawn++
		return h.classes.ExistsByJoinCode(ctx, code)
	}
	for drawn < codes.DefaultMaxAttempts {
		joinCode, err := codes.GenerateUnique(r.Context(), codes.CodeLength, codes.Alphabet,
			exists, codes.DefaultMaxAttempts-drawn)
		if err != nil {
			h.codeAllocationError(w, err)
			return
		}

		err = h.classes.UpdateJoinCode(r.Context(), classID, joinCode)
		if errors.Is(err, domain.ErrDuplicateJoinCode) {
			continue
		}
		if err != nil {
			h.logger.Error("failed to update join code", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "failed to regenerate join code")
			return
		}

		httputil.JSON(w, http.StatusOK, map[string]string{"joinCode": joinCode})
		return
	}
	h.codeAllocationError(w, &codes.ExhaustedError{Attempts: codes.DefaultMaxAttempts})
}

type rosterEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AccessCode string `json:"accessCode"`
	IsActive   bool   `json:"isActive"`
}

// ListStudents lists a class's roster, access codes included: the
// teacher hands codes back to students who lose them.
// GET /v1/classes/{id}/students
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.TeacherID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	classID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid class id")
		return
	}

	class, err := h.classes.GetByID(r.Context(), classID)
	if err != nil {
		if errors.Is(err, domain.ErrClassNotFound) {
			httputil.Error(w, http.StatusNotFound, "class not found")
			return
		}
		h.logger.Error("failed to load class", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	if class.TeacherID != teacherID {
		httputil.Error(w, http.StatusForbidden, "not your class")
		return
	}

	studentList, err := h.students.ListByClass(r.Context(), classID)
	if err != nil {
		h.logger.Error("failed to list students", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	resp := make([]rosterEntry, 0, len(studentList))
	for _, student := range studentList {
		resp = append(resp, rosterEntry{
			ID:         student.ID.String(),
			Name:       student.Name,
			AccessCode: student.AccessCode,
			IsActive:   student.IsActive,
		})
	}
	httputil.JSON(w, http.StatusOK, resp)
}

func (h *Handler) codeAllocationError(w http.ResponseWriter, err error) {
	var exhausted *codes.ExhaustedError
	if errors.As(err, &exhausted) {
		h.logger.Warn("join code allocation exhausted", "attempts", exhausted.Attempts)
		httputil.Error(w, http.StatusServiceUnavailable, "could not allocate a unique code, try again")
		return
	}
	h.logger.Error("join code allocation failed", "error", err)
	httputil.Error(w, http.StatusInternalServerError, "failed to allocate join code")
}
