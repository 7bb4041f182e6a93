package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/satriahrh/gspeech/domain/entities"
	"github.com/satriahrh/gspeech/domain/repositories"
)

// MockTranscriber is a placeholder backend for local development. It reads
// the file like the real backends do and answers based on its size.
type MockTranscriber struct {
	opts Options
	deps Deps
}

// NewMockTranscriber creates a new mock backend
func NewMockTranscriber(opts Options, deps Deps) repositories.Transcriber {
	deps = deps.withDefaults()
	return &MockTranscriber{
		opts: opts.withDefaults(deps.Logger),
		deps: deps,
	}
}

// Transcribe implements repositories.Transcriber
func (m *MockTranscriber) Transcribe(ctx context.Context, path string) (*entities.Outcome, error) {
	if ctx.Err() != nil {
		return nil, nil
	}

	audio, err := loadAudio(m.deps.Fs, path, m.opts.KeepSource, m.deps.Logger)
	if err != nil {
		return nil, err
	}

	m.deps.Logger.Info("Processing mock transcription",
		zap.String("path", path),
		zap.Int("audioSize", len(audio)))

	// Mock transcription based on audio size
	var transcript string
	var confidence float64
	switch {
	case len(audio) == 0:
		return nil, nil
	case len(audio) > 10000:
		transcript, confidence = "hello there, how’s it going today?", 0.92
	case len(audio) > 1000:
		transcript, confidence = "thanks for listening", 0.81
	default:
		transcript, confidence = "hi", 0.4
	}

	result := map[string]interface{}{
		"results": []interface{}{
			map[string]interface{}{
				"alternatives": []interface{}{
					map[string]interface{}{"transcript": transcript, "confidence": confidence},
				},
			},
		},
	}
	return cloudOutcome(m.opts, result)
}
