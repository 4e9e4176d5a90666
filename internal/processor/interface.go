package processor

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNoAudio is returned when a request carries no upload.
var ErrNoAudio = errors.New("no audio file uploaded")

// Processor defines the interface for the audio → transcript → notes pipeline
type Processor interface {
	Process(ctx context.Context, req Request) (*Result, error)
}

// Request is one user action: an uploaded lecture and an optional typed key.
type Request struct {
	Audio    io.Reader
	Filename string
	APIKey   string
}

// Result is everything produced for one request. Nothing is kept afterwards.
type Result struct {
	RequestID  string
	Filename   string
	Transcript string
	Notes      string
	Attempts   int
	Duration   time.Duration
}
