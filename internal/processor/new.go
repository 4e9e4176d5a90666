package processor

import (
	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/credential"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/metrics"
	"github.com/nguyentantai21042004/lecture-notes/internal/summarizer"
	"github.com/nguyentantai21042004/lecture-notes/internal/transcriber"
)

type implProcessor struct {
	tempDir     string
	credentials credential.Resolver
	transcriber transcriber.Transcriber
	summarizer  summarizer.Summarizer
	metrics     *metrics.Metrics
	logger      logger.Logger
	sem         *semaphore
}

// New creates a new Processor instance. m may be nil.
func New(
	cfg *config.Config,
	creds credential.Resolver,
	tr transcriber.Transcriber,
	sum summarizer.Summarizer,
	m *metrics.Metrics,
	log logger.Logger,
) Processor {
	maxConcurrent := cfg.Performance.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &implProcessor{
		tempDir:     cfg.Paths.Temp,
		credentials: creds,
		transcriber: tr,
		summarizer:  sum,
		metrics:     m,
		logger:      log,
		sem:         newSemaphore(maxConcurrent),
	}
}
