package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/assetcatalog/backend/internal/handlers"
	"github.com/assetcatalog/backend/internal/models"
	"github.com/assetcatalog/backend/internal/services"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := models.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisClient := models.InitRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, err := services.NewFileStore(cfg)
	if err != nil {
		return fmt.Errorf("init attachment storage: %w", err)
	}

	if _, err := services.NewAdminService(db, cfg).CreateDefaultAdmin(ctx); err != nil {
		logrus.WithError(err).Error("Failed to create default admin")
	}
	if err := services.NewAuthService(db, redisClient, cfg).CleanupExpiredTokens(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to remove expired refresh tokens")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(cfg, db, redisClient, store)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":        cfg.Port,
			"env":         cfg.Env,
			"transitions": cfg.StatusTransitions,
			"storage":     cfg.StorageBackend,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}
