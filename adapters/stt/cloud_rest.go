package stt

import (
	"context"
	"encoding/base64"
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
	backendCloudREST = "cloud_rest"

	cloudRESTURLFormat = "https://speech.googleapis.com/v1p1beta1/speech:recognize?key=%s"
)

// CloudRESTConfig holds configuration for the V1P1Beta1 REST backend
// Required fields:
// - APIURL: recognize URL, see CloudRESTURL
// - Recognition.LanguageCode
// Optional fields:
// - Headers: request headers (default: Content-Type application/json)
type CloudRESTConfig struct {
	APIURL      string
	Headers     map[string]string
	Recognition entities.RecognitionConfig
	Options
}

// CloudREST transcribes files by posting JSON to the V1P1Beta1 recognize
// endpoint.
type CloudREST struct {
	apiURL      string
	headers     map[string]string
	recognition entities.RecognitionConfig
	opts        Options
	client      HTTPDoer
	deps        Deps
}

var _ repositories.Transcriber = (*CloudREST)(nil)

type cloudRESTAudio struct {
	Content string `json:"content"`
}

type cloudRESTRequest struct {
	Config entities.RecognitionConfig `json:"config"`
	Audio  cloudRESTAudio             `json:"audio"`
}

// CloudRESTURL builds the recognize URL for an API key
func CloudRESTURL(apiKey string) string {
	return fmt.Sprintf(cloudRESTURLFormat, url.QueryEscape(apiKey))
}

// ValidateCloudRESTConfig validates the CloudRESTConfig
func ValidateCloudRESTConfig(config CloudRESTConfig) error {
	if config.APIURL == "" {
		return fmt.Errorf("cloud REST API URL is required")
	}
	if _, err := url.ParseRequestURI(config.APIURL); err != nil {
		return fmt.Errorf("invalid cloud REST API URL: %w", err)
	}
	if config.Recognition.LanguageCode == "" {
		return fmt.Errorf("recognition language code is required")
	}
	return ValidateOptions(config.Options)
}

// NewCloudREST creates a V1P1Beta1 REST backend. A nil client falls back to an
// http.Client with a 60 second timeout.
func NewCloudREST(config CloudRESTConfig, client HTTPDoer, deps Deps) (*CloudREST, error) {
	if err := ValidateCloudRESTConfig(config); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()

	if client == nil {
		client = newHTTPClient()
	}

	headers := config.Headers
	if headers == nil {
		headers = map[string]string{"Content-Type": "application/json; charset=utf-8"}
	}

	return &CloudREST{
		apiURL:      config.APIURL,
		headers:     headers,
		recognition: config.Recognition,
		opts:        config.Options.withDefaults(deps.Logger),
		client:      client,
		deps:        deps,
	}, nil
}

// Transcribe implements repositories.Transcriber
func (c *CloudREST) Transcribe(ctx context.Context, path string) (*entities.Outcome, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	started := time.Now()

	audio, err := loadAudio(c.deps.Fs, path, c.opts.KeepSource, c.deps.Logger)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(cloudRESTRequest{
		Config: c.recognition.ForFile(path),
		Audio:  cloudRESTAudio{Content: base64.StdEncoding.EncodeToString(audio)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var result map[string]interface{}
	err = attempts(ctx, c.opts.Retries, func(ctx context.Context) error {
		status, content, err := post(ctx, c.client, c.apiURL, c.headers, body)
		if err != nil {
			c.deps.Metrics.RecordAttempt(backendCloudREST, metrics.AttemptTransportError)
			c.deps.Logger.Warn("Cloud REST request failed", zap.String("path", path), zap.Error(err))
			return retry.RetryableError(err)
		}

		var parsed map[string]interface{}
		if err := json.Unmarshal(content, &parsed); err != nil {
			c.deps.Metrics.RecordAttempt(backendCloudREST, metrics.AttemptInvalidBody)
			c.deps.Logger.Warn("Cloud REST response is not JSON",
				zap.String("path", path),
				zap.Int("statusCode", status),
				zap.Error(err))
			return retry.RetryableError(fmt.Errorf("failed to decode response: %w", err))
		}

		c.deps.Metrics.RecordAttempt(backendCloudREST, metrics.AttemptOK)
		result = parsed
		return nil
	})
	if err != nil {
		if !interrupted(ctx, err) {
			c.deps.Logger.Warn("Cloud REST attempts exhausted",
				zap.String("path", path),
				zap.Int("retries", c.opts.Retries),
				zap.Error(err))
		}
		c.deps.Metrics.RecordTranscription(backendCloudREST, outcomeLabel(nil), time.Since(started).Seconds())
		return nil, nil
	}

	outcome, err := cloudOutcome(c.opts, result)
	if err != nil {
		c.deps.Metrics.RecordTranscription(backendCloudREST, "malformed", time.Since(started).Seconds())
		return nil, err
	}

	c.deps.Metrics.RecordTranscription(backendCloudREST, outcomeLabel(outcome), time.Since(started).Seconds())
	return outcome, nil
}

// cloudOutcome turns a V1P1Beta1 response into an outcome for either mode
func cloudOutcome(opts Options, result map[string]interface{}) (*entities.Outcome, error) {
	if opts.FullResult {
		// a JSON null body decodes to a nil map
		if result == nil {
			return nil, nil
		}
		return &entities.Outcome{Result: result}, nil
	}

	transcript, ok, err := NormalizeCloud(opts.MinConfidence, result)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &entities.Outcome{Transcript: transcript}, nil
}
