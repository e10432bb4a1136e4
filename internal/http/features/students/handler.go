// Package students implements class joining and student login.
package students

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/classfeed/classfeed/internal/httputil"
	"github.com/classfeed/classfeed/pkg/codes"
	"github.com/classfeed/classfeed/pkg/domain"
	"github.com/google/uuid"
)

const (
	minStudentNameLen = 2
	maxStudentNameLen = 50
)

// ClassFinder resolves join codes to classes.
type ClassFinder interface {
	GetByJoinCode(ctx context.Context, joinCode string) (*domain.Class, error)
}

// StudentStore is the persistence surface the handler needs.
type StudentStore interface {
	Create(ctx context.Context, student *domain.Student) error
	GetByNameAndClass(ctx context.Context, name string, classID uuid.UUID) (*domain.Student, error)
	GetByNameAndAccessCode(ctx context.Context, name, accessCode string) (*domain.Student, error)
	ExistsByAccessCode(ctx context.Context, accessCode string) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// Handler handles student endpoints.
type Handler struct {
	classes  ClassFinder
	students StudentStore
	logger   *slog.Logger
}

// NewHandler creates a new students handler.
func NewHandler(classes ClassFinder, students StudentStore, logger *slog.Logger) *Handler {
	return &Handler{classes: classes, students: students, logger: logger}
}

type joinRequest struct {
	Name     string `json:"name"`
	JoinCode string `json:"joinCode"`
}

type studentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClassName  string `json:"className"`
	AccessCode string `json:"accessCode,omitempty"`
}

// Join enrolls a student into a class by join code and issues their
// personal access code. Re-joining reactivates the existing record and
// keeps the code already issued.
// POST /v1/student/join
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if len(name) < minStudentNameLen || len(name) > maxStudentNameLen {
		httputil.Error(w, http.StatusBadRequest, "name must be between 2 and 50 characters")
		return
	}
	joinCode := strings.ToUpper(strings.TrimSpace(req.JoinCode))
	if !codes.IsValid(joinCode, codes.CodeLength, codes.Alphabet) {
		httputil.Error(w, http.StatusBadRequest, "invalid join code")
		return
	}

	class, err := h.classes.GetByJoinCode(r.Context(), joinCode)
	if err != nil {
		if errors.Is(err, domain.ErrClassNotFound) {
			httputil.Error(w, http.StatusNotFound, "no class with that join code")
			return
		}
		h.logger.Error("failed to look up class", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to join class")
		return
	}
	if !class.IsActive {
		httputil.Error(w, http.StatusForbidden, "class is deactivated")
		return
	}

	// Same name in the same class means re-join, not a new record.
	existing, err := h.students.GetByNameAndClass(r.Context(), name, class.ID)
	if err == nil {
		if !existing.IsActive {
			if err := h.students.SetActive(r.Context(), existing.ID, true); err != nil {
				h.logger.Error("failed to reactivate student", "error", err, "student_id", existing.ID)
				httputil.Error(w, http.StatusInternalServerError, "failed to join class")
				return
			}
		}
		httputil.JSON(w, http.StatusOK, studentResponse{
			ID:         existing.ID.String(),
			Name:       existing.Name,
			ClassName:  existing.ClassName,
			AccessCode: existing.AccessCode,
		})
		return
	}
	if !errors.Is(err, domain.ErrStudentNotFound) {
		h.logger.Error("failed to look up student", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to join class")
		return
	}

	student, err := h.createStudent(r, name, class)
	if err != nil {
		var exhausted *codes.ExhaustedError
		if errors.As(err, &exhausted) {
			h.logger.Warn("access code allocation exhausted", "attempts", exhausted.Attempts)
			httputil.Error(w, http.StatusServiceUnavailable, "could not allocate a unique code, try again")
			return
		}
		h.logger.Error("failed to create student", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to join class")
		return
	}

	httputil.JSON(w, http.StatusCreated, studentResponse{
		ID:         student.ID.String(),
		Name:       student.Name,
		ClassName:  student.ClassName,
		AccessCode: student.AccessCode,
	})
}

// createStudent allocates an access code and inserts the student,
// regenerating on a write-time code collision. Pre-checks and write
// retries draw from one shared attempt budget: every generated code
// costs one existence check, counted below.
func (h *Handler) createStudent(r *http.Request, name string, class *domain.Class) (*domain.Student, error) {
	drawn := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		drawn++
		return h.students.ExistsByAccessCode(ctx, code)
	}
	for drawn < codes.DefaultMaxAttempts {
		accessCode, err := codes.GenerateUnique(r.Context(), codes.CodeLength, codes.Alphabet,
			exists, codes.DefaultMaxAttempts-drawn)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		student := &domain.Student{
			ID:          uuid.New(),
			Name:        name,
			ClassID:     class.ID,
			ClassName:   class.Name,
			AccessCode:  accessCode,
			CreatedByID: class.TeacherID,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err = h.students.Create(r.Context(), student)
		if errors.Is(err, domain.ErrDuplicateAccessCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return student, nil
	}
	return nil, &codes.ExhaustedError{Attempts: codes.DefaultMaxAttempts}
}

type loginRequest struct {
	StudentName string `json:"studentName"`
	AccessCode  string `json:"accessCode"`
}

// Login authenticates a student by name and access code.
// POST /v1/student/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.StudentName)
	accessCode := strings.ToUpper(strings.TrimSpace(req.AccessCode))
	if name == "" || accessCode == "" {
		httputil.Error(w, http.StatusBadRequest, "name and access code are required")
		return
	}

	student, err := h.students.GetByNameAndAccessCode(r.Context(), name, accessCode)
	if err != nil {
		if errors.Is(err, domain.ErrStudentNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "student not found. check name and access code")
			return
		}
		h.logger.Error("student login failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	httputil.JSON(w, http.StatusOK, studentResponse{
		ID:        student.ID.String(),
		Name:      student.Name,
		ClassName: student.ClassName,
	})
}
