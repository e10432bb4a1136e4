package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/classfeed/classfeed/internal/httputil"
	"github.com/classfeed/classfeed/pkg/auth"
	"github.com/google/uuid"
)

type contextKey string

const (
	// TeacherIDKey is the context key for the authenticated teacher ID.
	TeacherIDKey contextKey = "teacher_id"
	// ClaimsKey is the context key for the session claims.
	ClaimsKey contextKey = "claims"
)

// Auth validates the session token on teacher-scoped routes. Checks
// the Authorization header first, then falls back to the session
// cookie.
func Auth(sessionService *auth.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = parts[1]
				}
			}

			if tokenString == "" {
				if token, ok := httputil.GetSessionFromCookie(r); ok {
					tokenString = token
				}
			}

			if tokenString == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			claims, err := sessionService.ValidateSession(tokenString)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			teacherID, err := uuid.Parse(claims.Subject)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid session subject")
				return
			}

			ctx := context.WithValue(r.Context(), TeacherIDKey, teacherID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TeacherID extracts the authenticated teacher ID from the request
// context.
func TeacherID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(TeacherIDKey).(uuid.UUID)
	return id, ok
}
