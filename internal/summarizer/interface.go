package summarizer

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited marks a Generator failure that may succeed if retried later.
	ErrRateLimited = errors.New("rate limited by generative API")
	// ErrRetriesExhausted is returned when every attempt was rate limited.
	ErrRetriesExhausted = errors.New("generative API still rate limited after all retries")
	// ErrEmptyResponse is returned when the API answers without any text.
	ErrEmptyResponse = errors.New("empty response from generative API")
)

// Summarizer turns a lecture transcript into study notes.
type Summarizer interface {
	Summarize(ctx context.Context, apiKey, transcript string) (*Notes, error)
}

// Generator is one remote text-generation call. Implementations wrap
// ErrRateLimited for failures worth retrying; everything else is final.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientFactory builds a Generator for the caller's API key.
type ClientFactory func(ctx context.Context, apiKey string) (Generator, error)

// Notes is the summarizer output.
type Notes struct {
	Text     string
	Attempts int
}
