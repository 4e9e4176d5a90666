package transcriber

import (
	"context"
	"errors"
)

// ErrEmptyTranscript is returned when the model hears no speech.
var ErrEmptyTranscript = errors.New("no speech detected in audio")

// Transcriber converts an audio file into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Service is a Transcriber that owns a model and must be closed on shutdown.
type Service interface {
	Transcriber
	Close() error
}

// Model is a loaded speech-to-text model. It is shared by all requests.
type Model interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
	Close() error
}

// Loader creates the Model. It is called at most once per successful load.
type Loader func() (Model, error)
