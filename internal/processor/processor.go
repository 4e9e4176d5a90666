package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/lecture-notes/internal/audio"
	"github.com/nguyentantai21042004/lecture-notes/internal/credential"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/metrics"
	"github.com/nguyentantai21042004/lecture-notes/internal/summarizer"
	"github.com/nguyentantai21042004/lecture-notes/internal/transcriber"
)

const (
	stageTranscribe = "transcribe"
	stageSummarize  = "summarize"
)

// Process runs the whole pipeline for one upload. Any error is returned to
// the caller for display; the staged audio never outlives the call.
func (p *implProcessor) Process(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	requestID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, requestID)

	result, err := p.process(ctx, req)
	p.metrics.RecordRequest(outcomeOf(err))
	if err != nil {
		p.logger.Error(ctx, "Processing %s failed: %v", req.Filename, err)
		return nil, err
	}

	result.RequestID = requestID
	result.Duration = time.Since(startTime)

	p.logger.Info(ctx, "Done! %s processed in %s", req.Filename, result.Duration.Round(time.Millisecond))
	return result, nil
}

func (p *implProcessor) process(ctx context.Context, req Request) (*Result, error) {
	// Credential first: nothing is staged or called without one.
	apiKey, err := p.credentials.Resolve(req.APIKey)
	if err != nil {
		return nil, err
	}

	if req.Audio == nil {
		return nil, ErrNoAudio
	}
	if !audio.IsSupported(req.Filename) {
		return nil, audio.ErrUnsupportedFormat
	}

	if !p.sem.tryAcquire() {
		p.logger.Info(ctx, "Another lecture is being processed, waiting for a free slot")
		if err := p.sem.acquire(ctx); err != nil {
			return nil, fmt.Errorf("wait for free slot: %w", err)
		}
	}
	defer p.sem.release()

	p.logger.Info(ctx, "Processing upload: %s", req.Filename)

	staged, err := audio.Stage(p.tempDir, req.Filename, req.Audio)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	p.metrics.TempFileStaged(staged.Size)
	defer p.cleanupTempFile(ctx, staged)

	p.logger.Info(ctx, "Step 1/2: Listening to the lecture (%d bytes)", staged.Size)
	stageStart := time.Now()
	transcript, err := p.transcriber.Transcribe(ctx, staged.Path)
	p.metrics.ObserveStage(stageTranscribe, time.Since(stageStart))
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	p.logger.Info(ctx, "Step 2/2: Writing notes")
	stageStart = time.Now()
	notes, err := p.summarizer.Summarize(ctx, apiKey, transcript)
	p.metrics.ObserveStage(stageSummarize, time.Since(stageStart))
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	p.metrics.RecordAttempts(notes.Attempts)

	return &Result{
		Filename:   req.Filename,
		Transcript: transcript,
		Notes:      notes.Text,
		Attempts:   notes.Attempts,
	}, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, credential.ErrNoCredential):
		return metrics.OutcomeNoCredential
	case errors.Is(err, ErrNoAudio),
		errors.Is(err, audio.ErrUnsupportedFormat),
		errors.Is(err, transcriber.ErrEmptyTranscript):
		return metrics.OutcomeBadInput
	case errors.Is(err, summarizer.ErrRetriesExhausted):
		return metrics.OutcomeRetryExhausted
	default:
		return metrics.OutcomeFailed
	}
}
