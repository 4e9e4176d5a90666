package transcriber

import (
	"sync"

	"github.com/nguyentantai21042004/lecture-notes/internal/audio"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

type implTranscriber struct {
	load    Loader
	decoder audio.Decoder
	logger  logger.Logger

	mu    sync.Mutex
	model Model
}

// New creates a Transcriber. The model is not loaded until the first call.
func New(load Loader, decoder audio.Decoder, log logger.Logger) Service {
	return &implTranscriber{
		load:    load,
		decoder: decoder,
		logger:  log,
	}
}
