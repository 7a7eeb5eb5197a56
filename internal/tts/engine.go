package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/maum-on/boost-service/internal/fileutil"
)

// pingPhrase is the short fixed phrase synthesized by the self-check.
const pingPhrase = "테스트입니다."

// pingTimeout bounds the self-check independently of the engine timeout.
const pingTimeout = 10 * time.Second

// DefaultTimeout bounds a synthesis call when no usable timeout is
// configured. A zero timeout would make every context expire on arrival.
const DefaultTimeout = 60 * time.Second

// filePermissions for written artifacts.
const filePermissions = 0o600

// ErrOutputPathEmpty indicates that the output path is empty.
var ErrOutputPathEmpty = errors.New("output path cannot be empty")

// Engine produces audio artifacts on local storage by streaming provider
// output straight to disk. It is safe for concurrent use; callers guarantee
// distinct output paths.
type Engine struct {
	client  *Client
	model   string
	voice   string
	timeout time.Duration
	log     *logger.Logger
}

// NewEngine creates a speech engine around a provider client. A non-positive
// timeout falls back to DefaultTimeout.
func NewEngine(client *Client, model, voice string, timeout time.Duration, log *logger.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Engine{
		client:  client,
		model:   model,
		voice:   voice,
		timeout: timeout,
		log:     log,
	}
}

// Synthesize writes spoken audio for text to outputPath. The parent
// directory is created if missing. A partial file left by a failed stream is
// removed so no truncated artifact can ever be served.
func (e *Engine) Synthesize(ctx context.Context, text, outputPath string) error {
	if text == "" {
		return ErrTextEmpty
	}

	if outputPath == "" {
		return ErrOutputPathEmpty
	}

	dirErr := fileutil.EnsureDir(filepath.Dir(outputPath))
	if dirErr != nil {
		return fmt.Errorf("failed to prepare output directory: %w", dirErr)
	}

	// O_EXCL enforces the no-overwrite invariant on artifact files.
	file, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	written, streamErr := e.client.StreamSpeech(ctx, e.model, e.voice, text, file)

	closeErr := file.Close()

	if streamErr != nil {
		removeErr := os.Remove(outputPath)
		if removeErr != nil {
			e.log.Warn("Failed to remove partial artifact '%s': %v", outputPath, removeErr)
		}

		return fmt.Errorf("failed to generate speech: %w", streamErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close audio file: %w", closeErr)
	}

	e.log.Info("Generated audio: %s (%d bytes)", outputPath, written)

	return nil
}

// Ping synthesizes a short fixed phrase to a throwaway path, then deletes
// it. It reports provider reachability for health endpoints and is never
// used for production artifacts.
func (e *Engine) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	throwaway := filepath.Join(os.TempDir(), "boost-ping-"+uuid.NewString()+".mp3")

	err := e.Synthesize(ctx, pingPhrase, throwaway)

	removeErr := os.Remove(throwaway)
	if removeErr != nil && !os.IsNotExist(removeErr) {
		e.log.Warn("Failed to remove ping artifact '%s': %v", throwaway, removeErr)
	}

	if err != nil {
		e.log.Warn("Speech provider ping failed: %v", err)

		return false
	}

	return true
}
