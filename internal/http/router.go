package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/classfeed/classfeed/internal/config"
	"github.com/classfeed/classfeed/internal/http/features/classes"
	"github.com/classfeed/classfeed/internal/http/features/naver"
	"github.com/classfeed/classfeed/internal/http/features/students"
	"github.com/classfeed/classfeed/internal/http/features/teacher"
	"github.com/classfeed/classfeed/internal/http/middleware"
	"github.com/classfeed/classfeed/internal/httputil"
	"github.com/classfeed/classfeed/pkg/auth"
	"github.com/classfeed/classfeed/pkg/repository"
	"github.com/go-chi/chi/v5"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	Config          *config.Config
	NaverService    *auth.NaverService
	SessionService  *auth.SessionService
	PasswordService *auth.PasswordService
	Resolver        *auth.AccountResolver
	StateIssuer     *auth.StateIssuer
	TeachersRepo    *repository.TeachersRepository
	ClassesRepo     *repository.ClassesRepository
	StudentsRepo    *repository.StudentsRepository
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:  cfg.Config.RateLimitEnabled,
		Requests: cfg.Config.AuthRequestsPerWindow,
		Window:   time.Duration(cfg.Config.AuthWindowMinutes) * time.Minute,
		Logger:   cfg.Logger,
	})

	cookies := httputil.CookieConfig{Secure: cfg.Config.CookieSecure}

	// Federated login. Registered even when Naver is unconfigured so
	// the route degrades to a coded error redirect instead of a 404.
	naverHandler := naver.NewHandler(naver.Config{
		NaverService:   cfg.NaverService,
		SessionService: cfg.SessionService,
		Resolver:       cfg.Resolver,
		StateIssuer:    cfg.StateIssuer,
		Logger:         cfg.Logger,
		Cookies:        cookies,
		AppBaseURL:     cfg.Config.AppBaseURL,
		ClientIDSet:    cfg.Config.NaverClientID != "",
		SecretSet:      cfg.Config.NaverClientSecret != "",
	})
	r.Get("/v1/auth/naver", naverHandler.Start)
	r.Get("/v1/auth/naver/callback", naverHandler.Callback)

	// Teacher password auth and account
	teacherHandler := teacher.NewHandler(cfg.PasswordService, cfg.SessionService, cfg.TeachersRepo, cfg.Logger, cookies)
	r.Group(func(r chi.Router) {
		r.Use(authLimit)
		r.Post("/v1/teacher/register", teacherHandler.Register)
		r.Post("/v1/teacher/login", teacherHandler.Login)
	})
	r.Post("/v1/teacher/logout", teacherHandler.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.SessionService))
		r.Get("/v1/teacher/me", teacherHandler.Me)
		r.Delete("/v1/teacher/me", teacherHandler.Deactivate)
	})

	// Classes (teacher session required)
	classesHandler := classes.NewHandler(cfg.ClassesRepo, cfg.StudentsRepo, cfg.Logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.SessionService))
		r.Post("/v1/classes", classesHandler.Create)
		r.Get("/v1/classes", classesHandler.List)
		r.Post("/v1/classes/{id}/join-code", classesHandler.RegenerateJoinCode)
		r.Get("/v1/classes/{id}/students", classesHandler.ListStudents)
	})

	// Students
	studentsHandler := students.NewHandler(cfg.ClassesRepo, cfg.StudentsRepo, cfg.Logger)
	r.Group(func(r chi.Router) {
		r.Use(authLimit)
		r.Post("/v1/student/join", studentsHandler.Join)
		r.Post("/v1/student/login", studentsHandler.Login)
	})

	return r
}
