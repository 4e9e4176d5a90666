package processor

import (
	"context"

	"github.com/nguyentantai21042004/lecture-notes/internal/audio"
)

// cleanupTempFile removes the staged upload, logs warning if fails
func (p *implProcessor) cleanupTempFile(ctx context.Context, tmp *audio.TempFile) {
	if err := tmp.Remove(); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", tmp.Path, err)
		return
	}
	p.metrics.TempFileRemoved()
	p.logger.Debug(ctx, "Cleaned up temp file: %s", tmp.Path)
}
