package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/pkg/executor"
)

// Decoder turns an audio file into model-ready PCM samples.
type Decoder interface {
	Decode(ctx context.Context, path string) ([]float32, error)
}

type ffmpegDecoder struct {
	executor   executor.Executor
	ffmpegPath string
	tempDir    string
	logger     logger.Logger
}

// NewDecoder creates a Decoder that normalizes audio through ffmpeg.
func NewDecoder(exec executor.Executor, ffmpegPath, tempDir string, log logger.Logger) Decoder {
	return &ffmpegDecoder{
		executor:   exec,
		ffmpegPath: ffmpegPath,
		tempDir:    tempDir,
		logger:     log,
	}
}

// Decode converts path to 16kHz mono WAV in a scratch directory and reads it.
// The scratch directory is removed before returning.
func (d *ffmpegDecoder) Decode(ctx context.Context, path string) ([]float32, error) {
	scratch, err := os.MkdirTemp(d.tempDir, "decode-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	wavPath := filepath.Join(scratch, "audio.wav")

	// -vn: drop any embedded cover art stream
	// -ar 16000 -ac 1 pcm_s16le: the input format whisper expects
	args := []string{
		"-nostdin",
		"-i", path,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		wavPath,
	}

	d.logger.Debug(ctx, "Normalizing audio: %s", path)
	if _, err := d.executor.Execute(ctx, d.ffmpegPath, args...); err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("open decoded audio: %w", err)
	}
	defer f.Close()

	samples, err := ReadPCM(f)
	if err != nil {
		return nil, fmt.Errorf("read decoded audio: %w", err)
	}

	d.logger.Debug(ctx, "Decoded %d samples (%.1fs)", len(samples), float64(len(samples))/SampleRate)
	return samples, nil
}
