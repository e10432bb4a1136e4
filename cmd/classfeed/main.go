package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classfeed/classfeed/internal/config"
	httpserver "github.com/classfeed/classfeed/internal/http"
	"github.com/classfeed/classfeed/pkg/auth"
	"github.com/classfeed/classfeed/pkg/repository"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	teachersRepo := repository.NewTeachersRepository(db)
	classesRepo := repository.NewClassesRepository(db)
	studentsRepo := repository.NewStudentsRepository(db)

	naverService := auth.NewNaverService(auth.NaverConfig{
		ClientID:     cfg.NaverClientID,
		ClientSecret: cfg.NaverClientSecret,
		RedirectURI:  cfg.NaverRedirectURI,
	})
	if cfg.HasNaverOAuth() {
		logger.Info("Naver OAuth enabled")
	} else {
		// Configuration errors should be loud: the login route will
		// answer with a coded error redirect until this is fixed.
		logger.Warn("Naver OAuth not fully configured",
			"client_id_set", cfg.NaverClientID != "",
			"client_secret_set", cfg.NaverClientSecret != "",
			"redirect_uri_set", cfg.NaverRedirectURI != "",
		)
	}

	sessionService := auth.NewSessionService(auth.SessionConfig{
		JWTSecret:  []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		SessionTTL: cfg.SessionTTL,
	})
	passwordService := auth.NewPasswordService(teachersRepo)
	resolver := auth.NewAccountResolver(teachersRepo)
	stateIssuer := auth.NewStateIssuer([]byte(cfg.JWTSecret), auth.DefaultStateTTL)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		Config:          cfg,
		NaverService:    naverService,
		SessionService:  sessionService,
		PasswordService: passwordService,
		Resolver:        resolver,
		StateIssuer:     stateIssuer,
		TeachersRepo:    teachersRepo,
		ClassesRepo:     classesRepo,
		StudentsRepo:    studentsRepo,
	})

	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
