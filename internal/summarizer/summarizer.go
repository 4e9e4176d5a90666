package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const notesPrompt = `You are an expert student assistant.
Take this lecture transcript and convert it into:
1. A Bulleted Summary
2. 5 Key Study Questions (with answers at the bottom)

Transcript: %s
`

// BuildPrompt embeds the transcript verbatim in the notes template.
func BuildPrompt(transcript string) string {
	return fmt.Sprintf(notesPrompt, transcript)
}

// Summarize sends the transcript to the generative API. Rate-limited calls are
// retried after a fixed delay up to the attempt limit; any other failure
// returns immediately.
func (s *implSummarizer) Summarize(ctx context.Context, apiKey, transcript string) (*Notes, error) {
	gen, err := s.newClient(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	prompt := BuildPrompt(transcript)
	attempts := 0

	text, err := backoff.Retry(ctx, func() (string, error) {
		attempts++
		text, err := gen.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, ErrRateLimited) {
			return "", err
		}
		return "", backoff.Permanent(err)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(s.retryDelay)),
		backoff.WithMaxTries(uint(s.maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Warn(ctx, "Traffic is high. Retrying in %s... (Attempt %d/%d)", next, attempts, s.maxAttempts)
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
		if errors.Is(err, ErrRateLimited) {
			return nil, fmt.Errorf("%w (%d attempts): %w", ErrRetriesExhausted, attempts, err)
		}
		return nil, err
	}

	s.logger.Info(ctx, "Notes generated after %d attempt(s), %d chars", attempts, len(text))
	return &Notes{Text: strings.TrimSpace(text), Attempts: attempts}, nil
}
