package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/gspeech/domain"
	"github.com/satriahrh/gspeech/domain/repositories"
)

const defaultConcurrency = 10

// TranscriptionService orchestrates transcription of audio files
type TranscriptionService struct {
	transcriber repositories.Transcriber
	concurrency int
	logger      *zap.Logger
}

// NewTranscriptionService creates a new transcription service. A concurrency
// below one uses the default of 10 workers for batches.
func NewTranscriptionService(transcriber repositories.Transcriber, concurrency int, logger *zap.Logger) *TranscriptionService {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &TranscriptionService{
		transcriber: transcriber,
		concurrency: concurrency,
		logger:      logger,
	}
}

// TranscribeFile transcribes one file. Only malformed backend responses and
// unreadable files are returned as errors.
func (s *TranscriptionService) TranscribeFile(ctx context.Context, path string) (*domain.TranscriptionMessage, error) {
	msg := &domain.TranscriptionMessage{
		RequestID: uuid.NewString(),
		File:      path,
	}

	s.logger.Info("Transcribing audio file",
		zap.String("requestID", msg.RequestID),
		zap.String("path", path))

	outcome, err := s.transcriber.Transcribe(ctx, path)
	if err != nil {
		msg.Error = err.Error()
		if errors.Is(err, domain.ErrMalformedResponse) {
			s.logger.Error("Backend returned a malformed response",
				zap.String("requestID", msg.RequestID),
				zap.Error(err))
		}
		return msg, fmt.Errorf("transcription failed: %w", err)
	}

	if outcome.Found() {
		msg.Found = true
		msg.Transcript = outcome.Transcript
		msg.Result = outcome.Result
	}

	s.logger.Info("Transcription completed",
		zap.String("requestID", msg.RequestID),
		zap.Bool("found", msg.Found),
		zap.String("text", msg.Transcript))

	return msg, nil
}

// TranscribeBatch transcribes files concurrently and returns one message per
// path in input order. Per-file failures are recorded on the message and do
// not stop the batch.
func (s *TranscriptionService) TranscribeBatch(ctx context.Context, paths []string) []*domain.TranscriptionMessage {
	messages := make([]*domain.TranscriptionMessage, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			msg, err := s.TranscribeFile(ctx, path)
			if err != nil {
				s.logger.Warn("Batch item failed",
					zap.String("path", path),
					zap.Error(err))
			}
			messages[i] = msg
			return nil
		})
	}

	// workers never return errors
	_ = g.Wait()

	s.logger.Info("Batch completed", zap.Int("files", len(paths)))
	return messages
}
