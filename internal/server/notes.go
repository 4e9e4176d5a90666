package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nguyentantai21042004/lecture-notes/internal/audio"
	"github.com/nguyentantai21042004/lecture-notes/internal/credential"
	"github.com/nguyentantai21042004/lecture-notes/internal/export"
	"github.com/nguyentantai21042004/lecture-notes/internal/processor"
	"github.com/nguyentantai21042004/lecture-notes/internal/summarizer"
	"github.com/nguyentantai21042004/lecture-notes/internal/transcriber"
)

const (
	formatJSON = "json"
	formatDocx = "docx"

	headerAPIKey = "X-API-Key"
)

type notesResponse struct {
	RequestID  string `json:"request_id"`
	Filename   string `json:"filename"`
	Transcript string `json:"transcript"`
	Notes      string `json:"notes"`
	Attempts   int    `json:"attempts"`
	DurationMS int64  `json:"duration_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleNotes accepts a multipart upload (field "audio", optional "api_key")
// and answers with the transcript and notes as JSON or a .docx download.
func (h *HTTPServer) handleNotes(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", formatJSON))
	if format != formatJSON && format != formatDocx {
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown format %q: use json or docx", format)})
		return
	}

	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	req := processor.Request{}

	fh, err := c.FormFile("audio")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("read upload: %v", err)})
			return
		}
		defer f.Close()
		req.Audio = f
		req.Filename = fh.Filename
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// Leave Audio nil; the processor reports credential problems first.
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("upload exceeds %d MB", h.maxUpload>>20)})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("parse upload: %v", err)})
		return
	}

	req.APIKey = c.PostForm("api_key")
	if req.APIKey == "" {
		req.APIKey = c.GetHeader(headerAPIKey)
	}

	result, err := h.processor.Process(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	if format == formatDocx {
		h.sendDocx(c, result)
		return
	}

	c.JSON(http.StatusOK, notesResponse{
		RequestID:  result.RequestID,
		Filename:   result.Filename,
		Transcript: result.Transcript,
		Notes:      result.Notes,
		Attempts:   result.Attempts,
		DurationMS: result.Duration.Milliseconds(),
	})
}

// sendDocx renders the notes into a scratch file, streams it, then removes it.
func (h *HTTPServer) sendDocx(c *gin.Context, result *processor.Result) {
	f, err := os.CreateTemp(h.tempDir, "notes-*.docx")
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("create document: %v", err)})
		return
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	title := strings.TrimSuffix(result.Filename, filepath.Ext(result.Filename))
	if err := export.WriteDocx(path, "Study Notes: "+title, result.Notes, result.Transcript); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	c.Header("X-Request-ID", result.RequestID)
	c.FileAttachment(path, title+"-notes.docx")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, credential.ErrNoCredential),
		errors.Is(err, processor.ErrNoAudio):
		return http.StatusBadRequest
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, transcriber.ErrEmptyTranscript):
		return http.StatusUnprocessableEntity
	case errors.Is(err, summarizer.ErrRetriesExhausted):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
