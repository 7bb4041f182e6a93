package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/gspeech/internal/metrics"
	"github.com/satriahrh/gspeech/usecase"
)

var (
	// Transcribe command flags
	minConfidence float64
	retries       int
	keepSource    bool
	fullResult    bool
	concurrency   int
)

func transcribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe FILE...",
		Short: "Transcribe audio files",
		Long: `Transcribe one or more audio chunks and print one JSON object per file.

Source files are deleted after they are read unless --keep-source is set.

Examples:
  # Transcribe FLAC chunks with the legacy endpoint
  GOOGLE_API_KEY=... gspeech transcribe chunk-0001.flac chunk-0002.flac

  # Use the client library and keep the chunks
  gspeech transcribe --backend cloud_client --keep-source talk.mp3`,
		Args: cobra.MinimumNArgs(1),
		RunE: runTranscribe,
	}

	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Drop transcripts at or below this confidence")
	cmd.Flags().IntVar(&retries, "retries", 0, "Attempts per file for the HTTP backends")
	cmd.Flags().BoolVar(&keepSource, "keep-source", false, "Keep audio files after reading them")
	cmd.Flags().BoolVar(&fullResult, "full-result", false, "Print the full backend response")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of files transcribed in parallel")

	return cmd
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	// Handle interrupts, in-flight calls resolve to no result
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("min-confidence") {
		cfg.MinConfidence = minConfidence
	}
	if flags.Changed("retries") {
		cfg.Retries = retries
	}
	if flags.Changed("keep-source") {
		cfg.KeepSource = keepSource
	}
	if flags.Changed("full-result") {
		cfg.FullResult = fullResult
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrency
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	transcriber, closeBackend, err := buildTranscriber(ctx, cfg, afero.NewOsFs(), metrics.NewMetrics(), logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	service := usecase.NewTranscriptionService(transcriber, cfg.Concurrency, logger)
	messages := service.TranscribeBatch(ctx, args)

	encoder := json.NewEncoder(os.Stdout)
	failed := 0
	for _, msg := range messages {
		if msg.Error != "" {
			failed++
		}
		if err := encoder.Encode(msg); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}

	if failed > 0 {
		logger.Warn("Some files failed", zap.Int("failed", failed), zap.Int("total", len(messages)))
		return fmt.Errorf("%d of %d files failed", failed, len(messages))
	}
	return nil
}
