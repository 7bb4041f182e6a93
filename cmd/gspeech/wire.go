package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/satriahrh/gspeech/adapters/stt"
	"github.com/satriahrh/gspeech/domain/entities"
	"github.com/satriahrh/gspeech/domain/repositories"
	"github.com/satriahrh/gspeech/internal/config"
	"github.com/satriahrh/gspeech/internal/metrics"
)

// buildTranscriber creates the backend selected in cfg. The returned close
// function releases backend resources and is never nil.
func buildTranscriber(ctx context.Context, cfg config.Config, fs afero.Fs, m *metrics.Metrics, logger *zap.Logger) (repositories.Transcriber, func() error, error) {
	noop := func() error { return nil }

	opts := stt.Options{
		MinConfidence: cfg.MinConfidence,
		Retries:       cfg.Retries,
		KeepSource:    cfg.KeepSource,
		FullResult:    cfg.FullResult,
	}
	recognition := cfg.RecognitionSettings()
	deps := stt.Deps{Fs: fs, Logger: logger.With(zap.String("backend", cfg.Backend)), Metrics: m}

	switch cfg.Backend {
	case config.BackendSpeechV2:
		apiURL := cfg.APIURL
		if apiURL == "" {
			apiURL = stt.SpeechV2URL(cfg.Language, cfg.APIKey)
		}
		encoding := recognition.Encoding
		if encoding == entities.EncodingUnspecified {
			encoding = entities.EncodingFLAC
		}
		t, err := stt.NewSpeechV2(stt.SpeechV2Config{
			APIURL:  apiURL,
			Headers: stt.SpeechV2Headers(encoding, cfg.SampleRate),
			Options: opts,
		}, nil, deps)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create speech v2 backend: %w", err)
		}
		return t, noop, nil

	case config.BackendCloudREST:
		apiURL := cfg.APIURL
		if apiURL == "" {
			apiURL = stt.CloudRESTURL(cfg.APIKey)
		}
		t, err := stt.NewCloudREST(stt.CloudRESTConfig{
			APIURL:      apiURL,
			Recognition: recognition,
			Options:     opts,
		}, nil, deps)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create cloud REST backend: %w", err)
		}
		return t, noop, nil

	case config.BackendCloudClient:
		t, err := stt.NewCloudClient(ctx, stt.CloudClientConfig{
			Recognition:     recognition,
			CredentialsFile: cfg.CredentialsFile,
			Endpoint:        cfg.Endpoint,
			Options:         opts,
		}, deps)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create cloud client backend: %w", err)
		}
		return t, t.Close, nil

	case config.BackendMock:
		return stt.NewMockTranscriber(opts, deps), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
