package summarizer

import (
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

type implSummarizer struct {
	newClient   ClientFactory
	maxAttempts int
	retryDelay  time.Duration
	logger      logger.Logger
}

// New creates a Summarizer that retries rate-limited calls with a fixed delay.
func New(newClient ClientFactory, cfg config.GeminiConfig, log logger.Logger) Summarizer {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}

	return &implSummarizer{
		newClient:   newClient,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      log,
	}
}
