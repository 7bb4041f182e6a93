package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/gspeech/internal/api"
	"github.com/satriahrh/gspeech/internal/auth"
	"github.com/satriahrh/gspeech/internal/metrics"
	"github.com/satriahrh/gspeech/usecase"
)

var port string

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the transcription HTTP API",
		RunE:  runServe,
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize adapters
	fs := afero.NewOsFs()
	m := metrics.NewMetrics()
	transcriber, closeBackend, err := buildTranscriber(context.Background(), cfg, fs, m, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	var tokens *auth.TokenManager
	if cfg.Server.JWTSecret != "" {
		tokens, err = auth.NewTokenManager(cfg.Server.JWTSecret, 0)
		if err != nil {
			return err
		}
	}

	// Initialize API routes
	api.InitRoutes(e, api.Dependencies{
		Service:   usecase.NewTranscriptionService(transcriber, cfg.Concurrency, logger),
		Fs:        fs,
		UploadDir: cfg.Server.UploadDir,
		Tokens:    tokens,
		Metrics:   m,
		Logger:    logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Server.Port),
		zap.String("backend", cfg.Backend))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
