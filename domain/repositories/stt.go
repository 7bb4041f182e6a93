package repositories

import (
	"context"

	"github.com/satriahrh/gspeech/domain/entities"
)

// Transcriber abstracts speech recognition backends that work on audio files
type Transcriber interface {
	// Transcribe reads the audio file at path and returns the recognized
	// outcome. A nil outcome with a nil error means nothing usable came back.
	Transcribe(ctx context.Context, path string) (*entities.Outcome, error)
}
