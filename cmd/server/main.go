package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/config"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/handlers"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/jwt"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/middleware"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	jwtSvc := jwt.NewService(cfg.JWTSecret, cfg.AccessTokenTTL)

	authHandler := handlers.NewAuthHandler(logger, store, store, store, jwtSvc, cfg.VerificationCodeTTL)
	profileHandler := handlers.NewProfileHandler(logger, store)
	healthHandler := handlers.NewHealthHandler(logger, Version)

	authRequired := middleware.AuthMiddleware(logger, jwtSvc, store)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("GET /token_status", authHandler.TokenStatus)
	mux.HandleFunc("POST /send_verification", authHandler.SendVerification)
	mux.HandleFunc("POST /register", authHandler.Register)
	mux.HandleFunc("POST /update_password", authHandler.UpdatePassword)
	mux.Handle("GET /profile", authRequired(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("PATCH /profile", authRequired(http.HandlerFunc(profileHandler.Update)))
	mux.HandleFunc("GET /health", healthHandler.Health)

	// Цепочка: recovery -> logging -> ratelimit -> mux
	var handler http.Handler = mux
	handler = middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateWindow, logger)(handler)
	handler = middleware.LoggingWithSkip(logger, []string{"/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Фоновая очистка истекших записей отзыва и кодов
	go runCleanup(ctx, logger, store, cfg.CleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// runCleanup периодически удаляет истекшие коды и записи отзыва токенов
func runCleanup(ctx context.Context, logger *slog.Logger, store *sqlite.Storage, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tokens, err := store.DeleteExpiredTokens(ctx)
			if err != nil {
				logger.Error("failed to delete expired tokens", "error", err)
			}
			codes, err := store.DeleteExpiredCodes(ctx)
			if err != nil {
				logger.Error("failed to delete expired codes", "error", err)
			}
			if tokens > 0 || codes > 0 {
				logger.Info("cleanup done", "tokens", tokens, "codes", codes)
			}
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printVersion() {
	fmt.Printf("Tutor Platform Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
