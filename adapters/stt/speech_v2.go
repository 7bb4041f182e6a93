package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/satriahrh/gspeech/domain/entities"
	"github.com/satriahrh/gspeech/domain/repositories"
	"github.com/satriahrh/gspeech/internal/metrics"
)

const (
	backendSpeechV2 = "speech_v2"

	speechV2URLFormat = "http://www.google.com/speech-api/v2/recognize?client=chromium&lang=%s&key=%s"
	defaultSampleRate = 44100
)

// SpeechV2Config holds configuration for the legacy Speech V2 backend
// Required fields:
// - APIURL: full recognize URL, see SpeechV2URL
// Optional fields:
// - Headers: request headers, see SpeechV2Headers
type SpeechV2Config struct {
	APIURL  string
	Headers map[string]string
	Options
}

// SpeechV2 transcribes FLAC/PCM files with the legacy Speech V2 endpoint. The
// endpoint answers with one JSON document per line.
type SpeechV2 struct {
	apiURL  string
	headers map[string]string
	opts    Options
	client  HTTPDoer
	deps    Deps
}

var _ repositories.Transcriber = (*SpeechV2)(nil)

// SpeechV2URL builds the recognize URL for a language and API key
func SpeechV2URL(language, apiKey string) string {
	return fmt.Sprintf(speechV2URLFormat, url.QueryEscape(language), url.QueryEscape(apiKey))
}

// SpeechV2Headers returns the headers describing the uploaded audio
func SpeechV2Headers(encoding entities.AudioEncoding, sampleRate int) map[string]string {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}

	contentType := "audio/x-flac"
	switch encoding {
	case entities.EncodingLinear16:
		contentType = "audio/l16"
	case entities.EncodingOggOpus:
		contentType = "audio/ogg"
	case entities.EncodingMP3:
		contentType = "audio/mpeg"
	}

	return map[string]string{
		"Content-Type": fmt.Sprintf("%s; rate=%d", contentType, sampleRate),
	}
}

// ValidateSpeechV2Config validates the SpeechV2Config
func ValidateSpeechV2Config(config SpeechV2Config) error {
	if config.APIURL == "" {
		return fmt.Errorf("speech v2 API URL is required")
	}
	if _, err := url.ParseRequestURI(config.APIURL); err != nil {
		return fmt.Errorf("invalid speech v2 API URL: %w", err)
	}
	return ValidateOptions(config.Options)
}

// NewSpeechV2 creates a Speech V2 backend. A nil client falls back to an
// http.Client with a 60 second timeout.
func NewSpeechV2(config SpeechV2Config, client HTTPDoer, deps Deps) (*SpeechV2, error) {
	if err := ValidateSpeechV2Config(config); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()

	if client == nil {
		client = newHTTPClient()
	}

	headers := config.Headers
	if headers == nil {
		headers = SpeechV2Headers(entities.EncodingFLAC, defaultSampleRate)
		deps.Logger.Info("Using default Speech V2 headers", zap.Any("headers", headers))
	}

	return &SpeechV2{
		apiURL:  config.APIURL,
		headers: headers,
		opts:    config.Options.withDefaults(deps.Logger),
		client:  client,
		deps:    deps,
	}, nil
}

// Transcribe implements repositories.Transcriber
func (s *SpeechV2) Transcribe(ctx context.Context, path string) (*entities.Outcome, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	started := time.Now()

	audio, err := loadAudio(s.deps.Fs, path, s.opts.KeepSource, s.deps.Logger)
	if err != nil {
		return nil, err
	}

	var outcome *entities.Outcome
	err = attempts(ctx, s.opts.Retries, func(ctx context.Context) error {
		status, body, err := post(ctx, s.client, s.apiURL, s.headers, audio)
		if err != nil {
			s.deps.Metrics.RecordAttempt(backendSpeechV2, metrics.AttemptTransportError)
			s.deps.Logger.Warn("Speech V2 request failed", zap.String("path", path), zap.Error(err))
			return retry.RetryableError(err)
		}
		s.deps.Metrics.RecordAttempt(backendSpeechV2, metrics.AttemptOK)
		s.deps.Logger.Debug("Received Speech V2 response",
			zap.String("path", path),
			zap.Int("statusCode", status),
			zap.Int("size", len(body)))

		// A response that was received ends the call, even without a transcript
		outcome = s.scan(body)
		return nil
	})
	if err != nil {
		if !interrupted(ctx, err) {
			s.deps.Logger.Warn("Speech V2 attempts exhausted",
				zap.String("path", path),
				zap.Int("retries", s.opts.Retries),
				zap.Error(err))
		}
		outcome = nil
	}

	s.deps.Metrics.RecordTranscription(backendSpeechV2, outcomeLabel(outcome), time.Since(started).Seconds())
	return outcome, nil
}

// scan returns the first line carrying a transcript that passes the gate.
// Lines that are not JSON objects are skipped.
func (s *SpeechV2) scan(body []byte) *entities.Outcome {
	for _, line := range bytes.Split(body, []byte("\n")) {
		var result map[string]interface{}
		if err := json.Unmarshal(line, &result); err != nil {
			continue
		}

		transcript, ok := NormalizeSpeechV2(s.opts.MinConfidence, result)
		if !ok || transcript == "" {
			continue
		}

		if s.opts.FullResult {
			return &entities.Outcome{Result: result}
		}
		return &entities.Outcome{Transcript: transcript}
	}

	return nil
}

func outcomeLabel(outcome *entities.Outcome) string {
	if outcome == nil {
		return "none"
	}
	return "found"
}
