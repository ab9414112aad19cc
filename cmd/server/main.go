// Package main initializes and starts the todo-app-pro HTTP API server,
// setting up configuration, logging, database connections, repositories,
// services and handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/todo-app-pro/internal/config"
	"github.com/atinyakov/todo-app-pro/internal/db"
	"github.com/atinyakov/todo-app-pro/internal/logger"
	"github.com/atinyakov/todo-app-pro/internal/repository"
	"github.com/atinyakov/todo-app-pro/internal/server/handler/http"
	"github.com/atinyakov/todo-app-pro/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Initialize repositories for users, projects and todos.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	projectRepo := repository.NewPostgresProjectRepository(postgresDB)
	todoRepo := repository.NewPostgresTodoRepository(postgresDB)

	// Initialize business-logic services.
	tokens := service.NewTokenManager(options.JWTSecret, options.TokenTTL())
	authService := service.NewAuthService(authRepo, tokens)
	projectService := service.NewProjectService(projectRepo, todoRepo)

	// Create HTTP handlers for auth and project endpoints.
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}
	projectHandler := &http.ProjectHandler{ProjectService: projectService, Log: zapLogger}

	// Build the router with middleware and routes.
	router, err := http.NewRouter(authHandler, projectHandler, tokens, http.Policy{
		AllowedOrigins:       options.AllowedOrigins,
		AllowedOriginPattern: options.AllowedOriginPattern,
		AuthRateLimit:        options.AuthRateLimit,
		AuthRateWindow:       options.AuthRateWindow,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to build router", zap.Error(err))
	}

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("server stopped unexpectedly", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("failed to shutdown server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
