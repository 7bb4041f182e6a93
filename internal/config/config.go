package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/satriahrh/gspeech/domain/entities"
)

// Backend names accepted in the configuration
const (
	BackendSpeechV2    = "speech_v2"
	BackendCloudClient = "cloud_client"
	BackendCloudREST   = "cloud_rest"
	BackendMock        = "mock"
)

// Config is the top level configuration of the gspeech binary
type Config struct {
	Backend       string  `yaml:"backend"`
	Language      string  `yaml:"language"`
	SampleRate    int     `yaml:"sample_rate"`
	MinConfidence float64 `yaml:"min_confidence"`
	Retries       int     `yaml:"retries"`
	KeepSource    bool    `yaml:"keep_source"`
	FullResult    bool    `yaml:"full_result"`
	Concurrency   int     `yaml:"concurrency"`

	APIKey          string `yaml:"api_key"`
	APIURL          string `yaml:"api_url"`
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`

	Recognition entities.RecognitionConfig `yaml:"recognition"`
	Server      ServerConfig               `yaml:"server"`
	Logging     LoggingConfig              `yaml:"logging"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port      string `yaml:"port"`
	UploadDir string `yaml:"upload_dir"`
	JWTSecret string `yaml:"jwt_secret"`
}

// LoggingConfig configures the root logger
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Backend:     BackendSpeechV2,
		Language:    "en-US",
		SampleRate:  44100,
		Retries:     3,
		Concurrency: 10,
		Server: ServerConfig{
			Port:      "8080",
			UploadDir: os.TempDir(),
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path
// skips the file. Environment overrides are applied afterwards.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("GSPEECH_BACKEND", &c.Backend)
	str("GSPEECH_LANGUAGE", &c.Language)
	str("GSPEECH_API_URL", &c.APIURL)
	str("GSPEECH_ENDPOINT", &c.Endpoint)
	str("GOOGLE_API_KEY", &c.APIKey)
	str("GSPEECH_API_KEY", &c.APIKey)
	str("GOOGLE_APPLICATION_CREDENTIALS", &c.CredentialsFile)
	str("GSPEECH_CREDENTIALS_FILE", &c.CredentialsFile)
	str("GSPEECH_UPLOAD_DIR", &c.Server.UploadDir)
	str("GSPEECH_JWT_SECRET", &c.Server.JWTSecret)
	str("GSPEECH_LOG_LEVEL", &c.Logging.Level)
	str("PORT", &c.Server.Port)
	str("GSPEECH_PORT", &c.Server.Port)

	ints := map[string]*int{
		"GSPEECH_SAMPLE_RATE": &c.SampleRate,
		"GSPEECH_RETRIES":     &c.Retries,
		"GSPEECH_CONCURRENCY": &c.Concurrency,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup("GSPEECH_MIN_CONFIDENCE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid GSPEECH_MIN_CONFIDENCE: %w", err)
		}
		c.MinConfidence = f
	}

	bools := map[string]*bool{
		"GSPEECH_KEEP_SOURCE": &c.KeepSource,
		"GSPEECH_FULL_RESULT": &c.FullResult,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = b
		}
	}

	return nil
}

// RecognitionSettings returns the recognition block with the shared language
// and sample rate filled in where it leaves them unset.
func (c Config) RecognitionSettings() entities.RecognitionConfig {
	r := c.Recognition
	if r.LanguageCode == "" {
		r.LanguageCode = c.Language
	}
	if r.SampleRateHertz == 0 {
		r.SampleRateHertz = int32(c.SampleRate)
	}
	return r
}

// Validate checks the configuration for the selected backend
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSpeechV2, BackendCloudREST:
		if c.APIKey == "" && c.APIURL == "" {
			return fmt.Errorf("backend %s needs an API key or an API URL", c.Backend)
		}
	case BackendCloudClient, BackendMock:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.Language == "" {
		return errors.New("language is required")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.MinConfidence < 0 {
		return fmt.Errorf("min confidence must not be negative, got %f", c.MinConfidence)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be positive, got %d", c.Retries)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// NewLogger builds the root logger from the logging section
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(c.Logging.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zapConfig := zap.NewProductionConfig()
	if c.Logging.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}
