package audio

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for uploads that are not mp3, wav or m4a.
var ErrUnsupportedFormat = errors.New("unsupported audio format: expected .mp3, .wav or .m4a")

// SupportedExtensions lists the accepted upload containers.
var SupportedExtensions = []string{".mp3", ".wav", ".m4a"}

// IsSupported checks if the file has a supported audio extension
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range SupportedExtensions {
		if ext == format {
			return true
		}
	}
	return false
}
