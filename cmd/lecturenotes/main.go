package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nguyentantai21042004/lecture-notes/internal/audio"
	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/credential"
	"github.com/nguyentantai21042004/lecture-notes/internal/export"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/metrics"
	"github.com/nguyentantai21042004/lecture-notes/internal/processor"
	"github.com/nguyentantai21042004/lecture-notes/internal/server"
	"github.com/nguyentantai21042004/lecture-notes/internal/summarizer"
	"github.com/nguyentantai21042004/lecture-notes/internal/transcriber"
	"github.com/nguyentantai21042004/lecture-notes/internal/transcriber/whisper"
	"github.com/nguyentantai21042004/lecture-notes/pkg/executor"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	apiKey := flag.String("api-key", "", "Gemini API key, used when none is configured")
	docxPath := flag.String("docx", "", "also write the notes to this .docx file (one-shot mode)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [lecture.mp3|.wav|.m4a]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(flag.CommandLine.Output(), "With an audio file: print study notes and exit. Without: serve the HTTP API.")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	if err := os.MkdirAll(cfg.Paths.Temp, 0755); err != nil {
		log.Error(ctx, "Failed to create temp directory %s: %v", cfg.Paths.Temp, err)
		os.Exit(1)
	}

	creds, err := credential.New(ctx, cfg.Credentials, log)
	if err != nil {
		log.Error(ctx, "Failed to load credentials: %v", err)
		os.Exit(1)
	}

	// Initialize dependencies
	exec := executor.New()
	decoder := audio.NewDecoder(exec, cfg.Whisper.FFmpegPath, cfg.Paths.Temp, log)
	tr := transcriber.New(whisper.Loader(cfg.Whisper), decoder, log)
	defer tr.Close()
	sum := summarizer.New(summarizer.GeminiFactory(cfg.Gemini.Model), cfg.Gemini, log)
	m := metrics.New()
	proc := processor.New(cfg, creds, tr, sum, m, log)

	if flag.NArg() > 0 {
		if err := runOnce(ctx, proc, flag.Arg(0), *apiKey, *docxPath); err != nil {
			// The message is shown to the user as-is.
			fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
			tr.Close()
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, cfg, creds, proc, m, log); err != nil {
		log.Error(ctx, "Server error: %v", err)
		tr.Close()
		os.Exit(1)
	}
}

// runOnce processes a single lecture file and prints the notes.
func runOnce(ctx context.Context, proc processor.Processor, path, apiKey, docxPath string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := proc.Process(ctx, processor.Request{
		Audio:    f,
		Filename: filepath.Base(path),
		APIKey:   apiKey,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Notes)

	if docxPath != "" {
		title := strings.TrimSuffix(result.Filename, filepath.Ext(result.Filename))
		if err := export.WriteDocx(docxPath, "Study Notes: "+title, result.Notes, result.Transcript); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Notes saved to %s\n", docxPath)
	}

	return nil
}

// serve runs the HTTP API until SIGINT/SIGTERM.
func serve(ctx context.Context, cfg *config.Config, creds credential.Store, proc processor.Processor, m *metrics.Metrics, log logger.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	log.Info(ctx, "========================================")
	log.Info(ctx, "Lecture Notes")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "CPU Cores: %d", runtime.NumCPU())
	log.Info(ctx, "Whisper model: %s (%d threads, language %s)", cfg.Whisper.ModelPath, cfg.Whisper.Threads, cfg.Whisper.Language)
	log.Info(ctx, "Gemini model: %s (%d attempts, %s apart)", cfg.Gemini.Model, cfg.Gemini.MaxAttempts, cfg.Gemini.RetryDelay)
	log.Info(ctx, "Max Concurrent Processing: %d", cfg.Performance.MaxConcurrent)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 2)

	if cfg.Credentials.Watch {
		go func() {
			if err := creds.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("credential watcher: %w", err)
			}
		}()
		log.Info(ctx, "Watching %s for key changes", cfg.Credentials.SecretsFile)
	}

	srv := server.New(cfg.Server, cfg.Paths.Temp, proc, m, log)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	log.Info(ctx, "Ready! POST audio to http://%s/api/v1/notes", cfg.Server.Address)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	var runErr error
	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case runErr = <-errChan:
	}

	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "HTTP shutdown: %v", err)
	}

	log.Info(ctx, "Lecture Notes stopped")
	return runErr
}
