package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	speech "cloud.google.com/go/speech/apiv1p1beta1"
	"cloud.google.com/go/speech/apiv1p1beta1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/satriahrh/gspeech/domain/entities"
	"github.com/satriahrh/gspeech/domain/repositories"
	"github.com/satriahrh/gspeech/internal/metrics"
)

const backendCloudClient = "cloud_client"

// Recognizer is the part of the V1P1Beta1 client used here; *speech.Client
// satisfies it.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

// CloudClientConfig holds configuration for the V1P1Beta1 client library backend
// Required fields:
// - Recognition.LanguageCode
// Optional fields:
// - CredentialsFile: service account JSON (default: application default credentials)
// - Endpoint: override the API endpoint
// Options.Retries is ignored, the client library call is made once.
type CloudClientConfig struct {
	Recognition     entities.RecognitionConfig
	CredentialsFile string
	Endpoint        string
	Options
}

// CloudClient transcribes files with the official V1P1Beta1 client library
type CloudClient struct {
	recognizer  Recognizer
	closer      func() error
	recognition entities.RecognitionConfig
	opts        Options
	deps        Deps
}

var _ repositories.Transcriber = (*CloudClient)(nil)

// ValidateCloudClientConfig validates the CloudClientConfig
func ValidateCloudClientConfig(config CloudClientConfig) error {
	if config.Recognition.LanguageCode == "" {
		return fmt.Errorf("recognition language code is required")
	}
	return ValidateOptions(config.Options)
}

// NewCloudClient dials the Speech-to-Text V1P1Beta1 service
func NewCloudClient(ctx context.Context, config CloudClientConfig, deps Deps) (*CloudClient, error) {
	if err := ValidateCloudClientConfig(config); err != nil {
		return nil, err
	}

	var clientOpts []option.ClientOption
	if config.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(config.CredentialsFile))
	}
	if config.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(config.Endpoint))
	}

	client, err := speech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	c, err := NewCloudClientWithRecognizer(config, client, deps)
	if err != nil {
		client.Close()
		return nil, err
	}
	c.closer = client.Close
	return c, nil
}

// NewCloudClientWithRecognizer builds the backend on top of an existing recognizer
func NewCloudClientWithRecognizer(config CloudClientConfig, recognizer Recognizer, deps Deps) (*CloudClient, error) {
	if err := ValidateCloudClientConfig(config); err != nil {
		return nil, err
	}
	if recognizer == nil {
		return nil, fmt.Errorf("recognizer is required")
	}
	deps = deps.withDefaults()

	return &CloudClient{
		recognizer:  recognizer,
		closer:      func() error { return nil },
		recognition: config.Recognition,
		opts:        config.Options.withDefaults(deps.Logger),
		deps:        deps,
	}, nil
}

// Close releases the underlying client connection
func (c *CloudClient) Close() error {
	return c.closer()
}

// Transcribe implements repositories.Transcriber
func (c *CloudClient) Transcribe(ctx context.Context, path string) (*entities.Outcome, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	started := time.Now()

	audio, err := loadAudio(c.deps.Fs, path, c.opts.KeepSource, c.deps.Logger)
	if err != nil {
		return nil, err
	}

	resp, err := c.recognizer.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: toRecognitionConfig(c.recognition.ForFile(path)),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		c.deps.Metrics.RecordAttempt(backendCloudClient, metrics.AttemptTransportError)
		if !interrupted(ctx, err) {
			c.deps.Logger.Warn("Cloud client recognize failed", zap.String("path", path), zap.Error(err))
		}
		c.deps.Metrics.RecordTranscription(backendCloudClient, outcomeLabel(nil), time.Since(started).Seconds())
		return nil, nil
	}
	c.deps.Metrics.RecordAttempt(backendCloudClient, metrics.AttemptOK)

	result, err := responseToMap(resp)
	if err != nil {
		return nil, err
	}

	outcome, err := cloudOutcome(c.opts, result)
	if err != nil {
		c.deps.Metrics.RecordTranscription(backendCloudClient, "malformed", time.Since(started).Seconds())
		return nil, err
	}

	c.deps.Metrics.RecordTranscription(backendCloudClient, outcomeLabel(outcome), time.Since(started).Seconds())
	return outcome, nil
}

// responseToMap converts the response keeping the proto field names, so the
// map has the same shape as the REST backend's JSON.
func responseToMap(resp *speechpb.RecognizeResponse) (map[string]interface{}, error) {
	if resp == nil {
		resp = &speechpb.RecognizeResponse{}
	}

	data, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recognize response: %w", err)
	}

	result := map[string]interface{}{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode recognize response: %w", err)
	}
	return result, nil
}

func toRecognitionConfig(config entities.RecognitionConfig) *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		Encoding:                   toProtoEncoding(config.Encoding),
		SampleRateHertz:            config.SampleRateHertz,
		AudioChannelCount:          config.AudioChannelCount,
		LanguageCode:               config.LanguageCode,
		MaxAlternatives:            config.MaxAlternatives,
		ProfanityFilter:            config.ProfanityFilter,
		EnableAutomaticPunctuation: config.EnableAutomaticPunctuation,
		Model:                      config.Model,
	}
}

// toProtoEncoding converts an encoding to the V1P1Beta1 enum
func toProtoEncoding(encoding entities.AudioEncoding) speechpb.RecognitionConfig_AudioEncoding {
	switch encoding {
	case entities.EncodingLinear16:
		return speechpb.RecognitionConfig_LINEAR16
	case entities.EncodingFLAC:
		return speechpb.RecognitionConfig_FLAC
	case entities.EncodingOggOpus:
		return speechpb.RecognitionConfig_OGG_OPUS
	case entities.EncodingMP3:
		return speechpb.RecognitionConfig_MP3
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
