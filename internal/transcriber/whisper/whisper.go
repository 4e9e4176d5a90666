// Package whisper adapts the whisper.cpp Go bindings to transcriber.Model.
package whisper

import (
	"context"
	"fmt"
	"strings"
	"sync"

	whispercpp "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/transcriber"
)

type model struct {
	model    whispercpp.Model
	language string
	threads  uint

	// whisper.cpp is not safe for concurrent Process calls on one model.
	inferenceMu sync.Mutex
}

// Loader returns a transcriber.Loader that opens the ggml model at cfg.ModelPath.
func Loader(cfg config.WhisperConfig) transcriber.Loader {
	return func() (transcriber.Model, error) {
		m, err := whispercpp.New(cfg.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("open whisper model %s: %w", cfg.ModelPath, err)
		}
		return &model{
			model:    m,
			language: cfg.Language,
			threads:  uint(cfg.Threads),
		}, nil
	}
}

func (m *model) Transcribe(ctx context.Context, samples []float32) (string, error) {
	wctx, err := m.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}

	if err := wctx.SetLanguage(m.language); err != nil {
		return "", fmt.Errorf("set language %q: %w", m.language, err)
	}
	wctx.SetTranslate(false)
	if m.threads > 0 {
		wctx.SetThreads(m.threads)
	}

	var text strings.Builder
	onSegment := func(segment whispercpp.Segment) {
		text.WriteString(segment.Text)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.inferenceMu.Lock()
	err = wctx.Process(samples, nil, onSegment, nil)
	m.inferenceMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	return strings.TrimSpace(text.String()), nil
}

func (m *model) Close() error {
	return m.model.Close()
}
