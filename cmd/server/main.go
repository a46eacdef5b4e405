// Learning & Development role-play training server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abelikov/skillsim/internal/api"
	"github.com/abelikov/skillsim/internal/config"
	"github.com/abelikov/skillsim/internal/eval"
	"github.com/abelikov/skillsim/internal/llm"
	"github.com/abelikov/skillsim/internal/middleware"
	"github.com/abelikov/skillsim/internal/sim"
	"github.com/abelikov/skillsim/internal/store"
	"github.com/abelikov/skillsim/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "provider", cfg.Provider, "store", cfg.SessionStore)

	// Initialize dependencies.
	var sessions store.Store
	switch cfg.SessionStore {
	case "sqlite":
		repo, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		if err := repo.Ping(context.Background()); err != nil {
			slog.Error("Database health check failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Database connected", "path", cfg.DBPath)
		sessions = repo
	default:
		sessions = store.NewMemory()
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	client, err := llm.New(cfg.Provider, llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		slog.Error("Failed to initialize completion client", "error", err)
		os.Exit(1)
	}

	ctrl := sim.New(sessions, client, eval.RegexParser{}, sim.Settings{
		TargetRounds:    cfg.TargetRounds,
		MaxRounds:       cfg.MaxRounds,
		MaxTokens:       cfg.MaxTokens,
		MaxMessageWords: cfg.MaxMessageLength,
	})
	handler := api.NewHandler(ctrl)

	// Setup router.
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	handler.RegisterRoutes(r)
	r.Get("/health", handler.Health)

	// Serve the embedded training UI for everything else.
	r.Handle("/*", web.StaticHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute, // evaluation turns can take a while upstream
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
