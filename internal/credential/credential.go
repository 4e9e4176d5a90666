package credential

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nguyentantai21042004/lecture-notes/internal/watcher"
)

// Resolve applies the precedence: secrets file, then environment, then the
// key typed by the user.
func (s *implStore) Resolve(userInput string) (string, error) {
	if key := s.configured(); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(userInput); key != "" {
		return key, nil
	}
	return "", ErrNoCredential
}

func (s *implStore) configured() string {
	s.mu.RLock()
	key := s.fromFile
	s.mu.RUnlock()
	if key != "" {
		return key
	}

	if v, ok := s.lookupEnv(s.keyName); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Reload rereads the secrets file. The key value is never logged.
func (s *implStore) Reload(ctx context.Context) error {
	key, err := s.readFile()
	if err != nil {
		return err
	}

	s.mu.Lock()
	changed := (s.fromFile == "") != (key == "")
	s.fromFile = key
	s.mu.Unlock()

	if changed {
		if key != "" {
			s.logger.Info(ctx, "Loaded %s from %s", s.keyName, s.secretsFile)
		} else {
			s.logger.Info(ctx, "%s no longer present in %s", s.keyName, s.secretsFile)
		}
	}
	return nil
}

func (s *implStore) readFile() (string, error) {
	if s.secretsFile == "" {
		return "", nil
	}

	values, err := godotenv.Read(s.secretsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file %s: %w", s.secretsFile, err)
	}

	return strings.TrimSpace(values[s.keyName]), nil
}

// Watch reloads the secrets file on every change to it.
func (s *implStore) Watch(ctx context.Context) error {
	if s.secretsFile == "" {
		return nil
	}

	abs, err := filepath.Abs(s.secretsFile)
	if err != nil {
		return fmt.Errorf("resolve secrets file: %w", err)
	}

	filter := func(path string) bool {
		p, err := filepath.Abs(path)
		return err == nil && p == abs
	}
	handler := func(ctx context.Context, _ string) error {
		return s.Reload(ctx)
	}

	w, err := watcher.New(filepath.Dir(abs), filter, handler, s.logger)
	if err != nil {
		return fmt.Errorf("watch secrets file: %w", err)
	}
	defer w.Stop()

	return w.Start(ctx)
}
