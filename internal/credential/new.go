package credential

import (
	"context"
	"os"
	"sync"

	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

type implStore struct {
	keyName     string
	secretsFile string
	lookupEnv   func(string) (string, bool)
	logger      logger.Logger

	mu       sync.RWMutex
	fromFile string
}

// New creates a Store and performs the initial load of the secrets file.
// A missing secrets file is not an error.
func New(ctx context.Context, cfg config.CredentialsConfig, log logger.Logger) (Store, error) {
	s := &implStore{
		keyName:     cfg.KeyName,
		secretsFile: cfg.SecretsFile,
		lookupEnv:   os.LookupEnv,
		logger:      log,
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	return s, nil
}
