package transcriber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/audio"
)

// blankMarkers are what whisper emits for silence.
var blankMarkers = []string{"[BLANK_AUDIO]", "BLANK_AUDIO", "(silence)"}

// Transcribe decodes the audio at audioPath and runs it through the shared model.
func (t *implTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	model, err := t.loadModel(ctx)
	if err != nil {
		return "", err
	}

	samples, err := t.decoder.Decode(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("decode audio: %w", err)
	}

	start := time.Now()
	text, err := model.Transcribe(ctx, samples)
	if err != nil {
		return "", fmt.Errorf("run model: %w", err)
	}

	text = strings.TrimSpace(text)
	if isBlank(text) {
		return "", ErrEmptyTranscript
	}

	t.logger.Info(ctx, "Transcribed %.1fs of audio in %s (%d chars)",
		float64(len(samples))/audio.SampleRate, time.Since(start).Round(time.Millisecond), len(text))
	return text, nil
}

// loadModel returns the shared model, loading it on first use. Callers that
// arrive during a load wait for it. A failed load is retried by the next call.
func (t *implTranscriber) loadModel(ctx context.Context) (Model, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model != nil {
		return t.model, nil
	}

	t.logger.Info(ctx, "Loading speech model (first use)")
	start := time.Now()

	model, err := t.load()
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	t.model = model
	t.logger.Info(ctx, "Speech model loaded in %s", time.Since(start).Round(time.Millisecond))
	return model, nil
}

// Close releases the model if it was loaded.
func (t *implTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model == nil {
		return nil
	}
	err := t.model.Close()
	t.model = nil
	return err
}

func isBlank(text string) bool {
	rest := text
	for _, m := range blankMarkers {
		rest = strings.ReplaceAll(rest, m, "")
	}
	return strings.TrimSpace(rest) == ""
}
