package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/audio"
	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/credential"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/metrics"
	"github.com/nguyentantai21042004/lecture-notes/internal/summarizer"
	"github.com/nguyentantai21042004/lecture-notes/internal/transcriber"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeResolver struct {
	configured string
}

func (r fakeResolver) Resolve(userInput string) (string, error) {
	if r.configured != "" {
		return r.configured, nil
	}
	if strings.TrimSpace(userInput) != "" {
		return strings.TrimSpace(userInput), nil
	}
	return "", credential.ErrNoCredential
}

// fakeTranscriber records each path and whether the file existed during the call.
type fakeTranscriber struct {
	mu       sync.Mutex
	text     string
	err      error
	paths    []string
	existed  []bool
	contents []string
	delay    time.Duration
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	data, statErr := os.ReadFile(path)

	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.existed = append(f.existed, statErr == nil)
	f.contents = append(f.contents, string(data))
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeTranscriber) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

type fakeSummarizer struct {
	mu          sync.Mutex
	notes       *summarizer.Notes
	err         error
	keys        []string
	transcripts []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, apiKey, transcript string) (*summarizer.Notes, error) {
	f.mu.Lock()
	f.keys = append(f.keys, apiKey)
	f.transcripts = append(f.transcripts, transcript)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.notes, nil
}

func (f *fakeSummarizer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func newTestProcessor(t *testing.T, creds credential.Resolver, tr transcriber.Transcriber, sum summarizer.Summarizer, m *metrics.Metrics) (Processor, string) {
	t.Helper()
	tempDir := t.TempDir()
	cfg := &config.Config{
		Paths:       config.PathsConfig{Temp: tempDir},
		Performance: config.PerformanceConfig{MaxConcurrent: 1},
	}
	return New(cfg, creds, tr, sum, m, logger.NewNop()), tempDir
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir has %d leftover entries", len(entries))
	}
}

func TestProcessSuccess(t *testing.T) {
	tr := &fakeTranscriber{text: "Today: dynamic programming."}
	sum := &fakeSummarizer{notes: &summarizer.Notes{Text: "## Summary\n- DP", Attempts: 1}}
	m := metrics.New()
	proc, tempDir := newTestProcessor(t, fakeResolver{}, tr, sum, m)

	res, err := proc.Process(context.Background(), Request{
		Audio:    strings.NewReader("mp3 bytes"),
		Filename: "lecture.mp3",
		APIKey:   "user-key",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if res.Transcript != "Today: dynamic programming." || res.Notes != "## Summary\n- DP" {
		t.Errorf("result = %+v", res)
	}
	if res.RequestID == "" || res.Attempts != 1 || res.Filename != "lecture.mp3" {
		t.Errorf("result metadata = %+v", res)
	}

	if !tr.existed[0] || tr.contents[0] != "mp3 bytes" {
		t.Error("transcriber did not see the staged upload")
	}
	if !strings.HasSuffix(tr.paths[0], ".mp3") {
		t.Errorf("staged path %q lost the extension", tr.paths[0])
	}
	if sum.keys[0] != "user-key" || sum.transcripts[0] != res.Transcript {
		t.Errorf("summarizer got key %q transcript %q", sum.keys[0], sum.transcripts[0])
	}

	if _, err := os.Stat(tr.paths[0]); !os.IsNotExist(err) {
		t.Error("staged file still exists after a successful run")
	}
	assertNoTempFiles(t, tempDir)

	if got := testutil.ToFloat64(m.Requests.WithLabelValues(metrics.OutcomeSuccess)); got != 1 {
		t.Errorf("success counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TempFilesActive); got != 0 {
		t.Errorf("temp files gauge = %v, want 0", got)
	}
}

func TestProcessMissingCredential(t *testing.T) {
	tr := &fakeTranscriber{text: "unused"}
	sum := &fakeSummarizer{notes: &summarizer.Notes{Text: "unused", Attempts: 1}}
	proc, tempDir := newTestProcessor(t, fakeResolver{}, tr, sum, nil)

	_, err := proc.Process(context.Background(), Request{
		Audio:    strings.NewReader("wav bytes"),
		Filename: "lecture.wav",
	})
	if !errors.Is(err, credential.ErrNoCredential) {
		t.Fatalf("Process() error = %v, want ErrNoCredential", err)
	}
	if tr.calls() != 0 || sum.calls() != 0 {
		t.Errorf("transcriber calls = %d, summarizer calls = %d, want 0", tr.calls(), sum.calls())
	}
	assertNoTempFiles(t, tempDir)
}

func TestProcessConfiguredKeyWins(t *testing.T) {
	sum := &fakeSummarizer{notes: &summarizer.Notes{Text: "notes", Attempts: 1}}
	proc, _ := newTestProcessor(t, fakeResolver{configured: "store-key"}, &fakeTranscriber{text: "t"}, sum, nil)

	if _, err := proc.Process(context.Background(), Request{
		Audio: strings.NewReader("x"), Filename: "a.m4a", APIKey: "typed-key",
	}); err != nil {
		t.Fatal(err)
	}
	if sum.keys[0] != "store-key" {
		t.Errorf("summarizer key = %q, want store-key", sum.keys[0])
	}
}

func TestProcessRejectsInput(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"unsupported format", Request{Audio: strings.NewReader("x"), Filename: "lecture.ogg", APIKey: "k"}, audio.ErrUnsupportedFormat},
		{"no audio", Request{Filename: "lecture.mp3", APIKey: "k"}, ErrNoAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTranscriber{text: "unused"}
			proc, tempDir := newTestProcessor(t, fakeResolver{}, tr, &fakeSummarizer{}, nil)

			_, err := proc.Process(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Process() error = %v, want %v", err, tt.wantErr)
			}
			if tr.calls() != 0 {
				t.Errorf("transcriber called %d times", tr.calls())
			}
			assertNoTempFiles(t, tempDir)
		})
	}
}

func TestProcessCleansUpOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		tr      *fakeTranscriber
		sum     *fakeSummarizer
		wantErr error
	}{
		{
			name:    "transcription fails",
			tr:      &fakeTranscriber{err: errors.New("ffmpeg decode: Invalid data found")},
			sum:     &fakeSummarizer{},
			wantErr: nil,
		},
		{
			name:    "empty transcript",
			tr:      &fakeTranscriber{err: transcriber.ErrEmptyTranscript},
			sum:     &fakeSummarizer{},
			wantErr: transcriber.ErrEmptyTranscript,
		},
		{
			name:    "summarization fails",
			tr:      &fakeTranscriber{text: "transcript"},
			sum:     &fakeSummarizer{err: errors.New("generate content: 403 permission denied")},
			wantErr: nil,
		},
		{
			name:    "retries exhausted",
			tr:      &fakeTranscriber{text: "transcript"},
			sum:     &fakeSummarizer{err: fmt.Errorf("%w (3 attempts)", summarizer.ErrRetriesExhausted)},
			wantErr: summarizer.ErrRetriesExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			proc, tempDir := newTestProcessor(t, fakeResolver{configured: "k"}, tt.tr, tt.sum, m)

			_, err := proc.Process(context.Background(), Request{
				Audio:    strings.NewReader("audio"),
				Filename: "lecture.wav",
			})
			if err == nil {
				t.Fatal("Process() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Process() error = %v, want %v", err, tt.wantErr)
			}

			if len(tt.tr.paths) != 1 || !tt.tr.existed[0] {
				t.Fatal("transcriber should have seen the staged file")
			}
			if _, statErr := os.Stat(tt.tr.paths[0]); !os.IsNotExist(statErr) {
				t.Error("staged file leaked on the error path")
			}
			assertNoTempFiles(t, tempDir)

			if got := testutil.ToFloat64(m.TempFilesActive); got != 0 {
				t.Errorf("temp files gauge = %v, want 0", got)
			}
		})
	}
}

func TestProcessErrorMessageIsVerbatim(t *testing.T) {
	cause := errors.New("generate content: Error 403, Message: API key not valid")
	proc, _ := newTestProcessor(t, fakeResolver{configured: "k"}, &fakeTranscriber{text: "t"}, &fakeSummarizer{err: cause}, nil)

	_, err := proc.Process(context.Background(), Request{Audio: strings.NewReader("a"), Filename: "a.mp3"})
	if !errors.Is(err, cause) || !strings.Contains(err.Error(), cause.Error()) {
		t.Errorf("Process() error = %v, want it to carry %v", err, cause)
	}
}

func TestProcessHonoursConcurrencyLimit(t *testing.T) {
	tr := &fakeTranscriber{text: "t", delay: 30 * time.Millisecond}
	sum := &fakeSummarizer{notes: &summarizer.Notes{Text: "n", Attempts: 1}}
	proc, _ := newTestProcessor(t, fakeResolver{configured: "k"}, tr, sum, nil)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		active int
		peak   int
	)
	wrapped := &trackingTranscriber{inner: tr, onEnter: func() {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
	}, onExit: func() {
		mu.Lock()
		active--
		mu.Unlock()
	}}
	proc.(*implProcessor).transcriber = wrapped

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := proc.Process(context.Background(), Request{Audio: strings.NewReader("a"), Filename: "a.mp3"}); err != nil {
				t.Errorf("Process() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak concurrent transcriptions = %d, want 1", peak)
	}
}

func TestProcessCancelledWhileWaiting(t *testing.T) {
	proc, _ := newTestProcessor(t, fakeResolver{configured: "k"}, &fakeTranscriber{text: "t"}, &fakeSummarizer{}, nil)
	impl := proc.(*implProcessor)
	if !impl.sem.tryAcquire() {
		t.Fatal("slot should be free")
	}
	defer impl.sem.release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := proc.Process(ctx, Request{Audio: strings.NewReader("a"), Filename: "a.mp3"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Process() error = %v, want deadline exceeded", err)
	}
}

type trackingTranscriber struct {
	inner   transcriber.Transcriber
	onEnter func()
	onExit  func()
}

func (t *trackingTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	t.onEnter()
	defer t.onExit()
	return t.inner.Transcribe(ctx, path)
}
