package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/immxrtalbeast/rnplay/internal/api/http"
	"github.com/immxrtalbeast/rnplay/internal/config"
	"github.com/immxrtalbeast/rnplay/internal/repository"
	"github.com/immxrtalbeast/rnplay/internal/repository/model"
	"github.com/immxrtalbeast/rnplay/internal/sandbox"
	"github.com/immxrtalbeast/rnplay/internal/service"
	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func serverCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the session API, signaling relay and sandbox manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoadPath(config.ResolvePath(configPath))
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := setupLogger(cfg.Env)

	projects, users, err := setupRepositories(cfg.Database, log)
	if err != nil {
		return err
	}

	store := repository.NewSessionStore()
	runtime := sandbox.NewDockerRuntime(cfg.Sandbox.DockerBinary)
	manager := sandbox.NewManager(cfg.Sandbox, cfg.WebRTC.STUNServers, runtime, store, log)

	relayService := service.NewRelayService(store, log)
	sessionService := service.NewSessionService(projects, manager, store, log)

	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret is empty; every session request will be rejected")
	}

	router := httpapi.SetupRouter(httpapi.RouterDeps{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		SignalingPath:  cfg.Signaling.Path,
		Auth:           httpapi.AuthMiddleware(cfg.Auth.JWTSecret, users, log),
		Sessions:       httpapi.NewSessionController(sessionService),
		Signaling:      httpapi.NewSignalingController(relayService, cfg.Signaling, cfg.HTTP.AllowedOrigins, log),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("http server stopped", sl.Err(err))
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", sl.Err(err))
	}

	if err := manager.StopAll(shutdownCtx); err != nil {
		log.Error("failed to stop every sandbox", sl.Err(err))
		return err
	}

	log.Info("server stopped")
	return nil
}

func setupRepositories(cfg config.DatabaseConfig, log *slog.Logger) (repository.ProjectRepository, repository.UserRepository, error) {
	if cfg.DSN == "" {
		log.Warn("database dsn is empty, using in-memory repositories")
		return repository.NewInMemoryProjectRepository(), repository.NewInMemoryUserRepository(), nil
	}

	db, err := connectDatabase(cfg)
	if err != nil {
		log.Error("failed to connect database", sl.Err(err))
		return nil, nil, err
	}

	return repository.NewPostgresProjectRepository(db), repository.NewPostgresUserRepository(db), nil
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.User{}, &model.Project{}, &model.File{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
