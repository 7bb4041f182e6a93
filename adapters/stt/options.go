package stt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/satriahrh/gspeech/internal/metrics"
)

const (
	defaultRetries     = 3
	defaultHTTPTimeout = 60 * time.Second
)

// Options holds the settings shared by every backend
// Optional fields with defaults:
// - MinConfidence: transcripts at or below this confidence are dropped (default: 0.0)
// - Retries: attempts per call for the HTTP backends (default: 3)
// - KeepSource: keep the audio file after reading it (default: false)
// - FullResult: return the parsed response instead of the transcript (default: false)
type Options struct {
	MinConfidence float64
	Retries       int
	KeepSource    bool
	FullResult    bool
}

// ValidateOptions validates Options
func ValidateOptions(opts Options) error {
	if opts.MinConfidence < 0 {
		return fmt.Errorf("min confidence must not be negative, got %f", opts.MinConfidence)
	}
	if opts.Retries < 0 {
		return fmt.Errorf("retries must be positive, got %d", opts.Retries)
	}
	return nil
}

func (o Options) withDefaults(logger *zap.Logger) Options {
	if o.Retries == 0 {
		o.Retries = defaultRetries
		logger.Info("Using default retries", zap.Int("retries", o.Retries))
	}
	return o
}

// Deps carries the collaborators a backend talks to. Zero values are replaced
// with production defaults.
type Deps struct {
	Fs      afero.Fs
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// attempts runs fn at most n times with no delay in between. fn asks for
// another try by wrapping its error with retry.RetryableError. When the tries
// run out the last retryable error is returned.
func attempts(ctx context.Context, n int, fn retry.RetryFunc) error {
	immediately := retry.BackoffFunc(func() (time.Duration, bool) {
		return 0, false
	})
	return retry.Do(ctx, retry.WithMaxRetries(uint64(n-1), immediately), fn)
}

// interrupted reports whether err comes from a cancelled call
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
