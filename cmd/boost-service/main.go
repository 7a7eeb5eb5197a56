// main package for the boost-service
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/maum-on/boost-service/internal/boost"
	"github.com/maum-on/boost-service/internal/config"
	"github.com/maum-on/boost-service/internal/core"
	"github.com/maum-on/boost-service/internal/diary"
	"github.com/maum-on/boost-service/internal/fileutil"
	"github.com/maum-on/boost-service/internal/httpapi"
	"github.com/maum-on/boost-service/internal/llm"
	"github.com/maum-on/boost-service/internal/objectstore"
	"github.com/maum-on/boost-service/internal/stt"
	"github.com/maum-on/boost-service/internal/sttdiary"
	"github.com/maum-on/boost-service/internal/tts"
	"github.com/maum-on/boost-service/internal/worker"
)

const (
	envAPIKey = "OPENAI_API_KEY"

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	sweepInterval     = time.Hour
)

var errAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable is not set")

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "boost-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runService(ctx, cfg, finalLog)
}

func runService(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	apiKey := os.Getenv(envAPIKey)
	if apiKey == "" {
		return errAPIKeyMissing
	}

	err := fileutil.EnsureDir(cfg.Paths.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}

	store, natsCleanup, err := setupObjectStore(cfg, log)
	if err != nil {
		return err
	}

	if natsCleanup != nil {
		defer natsCleanup()
	}

	pipeline, converter, synthesizer := buildPipeline(cfg, apiKey, store, log)

	startWorker(ctx, cfg, pipeline, log)
	startRetentionSweep(ctx, cfg, log)

	server := &http.Server{
		Addr:              cfg.Boost.ListenAddress,
		Handler:           httpapi.NewServer(pipeline, converter, synthesizer, cfg.Paths.OutputDir, log),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr := server.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			log.Error("HTTP server shutdown failed: %v", shutdownErr)
		}
	}()

	log.System("Boost service listening on %s", cfg.Boost.ListenAddress)

	serveErr := server.ListenAndServe()
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", serveErr)
	}

	return nil
}

// buildPipeline wires the provider clients into the generation pipeline and
// the speech-to-diary service.
func buildPipeline(
	cfg *config.Config,
	apiKey string,
	store core.ObjectStore,
	log *logger.Logger,
) (*boost.Pipeline, *sttdiary.Service, core.SpeechSynthesizer) {
	providerTimeout := time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second
	backendTimeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second

	diaryClient := diary.NewClient(cfg.Backend.BaseURL, backendTimeout, log)

	speechClient := tts.NewClient(cfg.OpenAI.BaseURL, apiKey, providerTimeout)
	synthesizer := tts.NewEngine(speechClient, cfg.OpenAI.SpeechModel, cfg.OpenAI.Voice, providerTimeout, log)

	completionClient := llm.NewClient(cfg.OpenAI.BaseURL, apiKey, providerTimeout)

	var narrator core.NarrationGenerator
	if cfg.Boost.UseNarration {
		narrator = llm.NewGenerator(completionClient, cfg.OpenAI.NarrationModel)
	}

	pipeline := boost.New(
		diaryClient,
		narrator,
		synthesizer,
		store,
		cfg.Paths.OutputDir,
		cfg.Storage.Namespace,
		cfg.Storage.DeleteLocalAfterUpload,
		log,
	)

	transcriber := stt.NewClient(cfg.OpenAI.BaseURL, apiKey, cfg.OpenAI.TranscriptionModel, providerTimeout)
	converter := sttdiary.New(transcriber, completionClient, cfg.OpenAI.DiaryModel, log)

	return pipeline, converter, synthesizer
}

// setupObjectStore connects to NATS and binds the audio bucket. Durable
// delivery is optional; when disabled no NATS connection is made here and the
// worker is the only consumer of the connection.
func setupObjectStore(cfg *config.Config, log *logger.Logger) (core.ObjectStore, func(), error) {
	if !cfg.Boost.UploadAudio {
		return nil, nil, nil
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		natsConnection.Close()

		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket, cfg.Storage.PublicBaseURL)
	if err != nil {
		natsConnection.Close()

		return nil, nil, err
	}

	log.Info("Durable audio delivery enabled on bucket %s", cfg.NATS.AudioObjectStoreBucket)

	return store, natsConnection.Close, nil
}

// startWorker subscribes the boost request worker when a subject is
// configured.
func startWorker(ctx context.Context, cfg *config.Config, pipeline *boost.Pipeline, log *logger.Logger) {
	if cfg.NATS.BoostRequestSubject == "" {
		return
	}

	go func() {
		natsConnection, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			log.Error("Worker failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

			return
		}
		defer natsConnection.Close()

		natsWorker, err := worker.NewNatsWorker(natsConnection, cfg.NATS.BoostRequestSubject, pipeline, log)
		if err != nil {
			log.Error("Failed to create worker: %v", err)

			return
		}

		log.System("Worker listening for boost requests on subject: %s", cfg.NATS.BoostRequestSubject)

		runErr := natsWorker.Run(ctx)
		if runErr != nil {
			log.Error("Worker stopped with error: %v", runErr)
		}
	}()
}

// startRetentionSweep periodically removes expired audio artifacts.
func startRetentionSweep(ctx context.Context, cfg *config.Config, log *logger.Logger) {
	if cfg.Boost.RetentionHours <= 0 {
		return
	}

	maxAge := time.Duration(cfg.Boost.RetentionHours) * time.Hour

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, sweepErr := boost.SweepArtifacts(cfg.Paths.OutputDir, maxAge, log)
				if sweepErr != nil {
					log.Warn("Retention sweep failed: %v", sweepErr)
				}
			}
		}
	}()
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
