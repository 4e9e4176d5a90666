package audio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TempFile is an upload materialized on disk for the duration of one request.
type TempFile struct {
	Path string
	Size int64

	once sync.Once
	err  error
}

// Stage copies src into a new temporary file in dir, keeping the extension of
// filename so decoders can sniff the container. The caller owns the file and
// must call Remove on every exit path.
func Stage(dir, filename string, src io.Reader) (*TempFile, error) {
	if !IsSupported(filename) {
		return nil, ErrUnsupportedFormat
	}

	ext := strings.ToLower(filepath.Ext(filename))
	f, err := os.CreateTemp(dir, "lecture-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	return &TempFile{Path: f.Name(), Size: n}, nil
}

// Remove deletes the file. Safe to call more than once; a file that is
// already gone is not an error.
func (t *TempFile) Remove() error {
	t.once.Do(func() {
		if err := os.Remove(t.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.err = err
		}
	})
	return t.err
}
