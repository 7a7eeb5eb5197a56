// Package boost orchestrates the diary-to-audio generation pipeline:
// fetch the latest diary, compose a synthesis request, optionally rewrite it
// into a narration, synthesize speech, and deliver the artifact.
package boost

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/maum-on/boost-service/internal/core"
	"github.com/maum-on/boost-service/internal/emotion"
	"github.com/maum-on/boost-service/internal/fileutil"
	"github.com/maum-on/boost-service/internal/prompt"
)

// Log formats.
const (
	logDiaryUnavailable = "Diary lookup for user %s degraded to generic prompt: %s"
	logUploadFailed     = "Upload of artifact %s failed, serving local copy: %v"
	logLocalRemoved     = "Removed local artifact %s after durable upload"
)

// Static errors.
var (
	ErrUserIDEmpty   = errors.New("user id cannot be empty")
	ErrStoreDisabled = errors.New("object store is not configured")
)

// Request describes one pipeline run. When SnapshotProvided is set, Snapshot
// is used verbatim (nil meaning "no diary") and the backend is not contacted.
type Request struct {
	UserID           string
	Snapshot         *core.DiarySnapshot
	SnapshotProvided bool
	Mode             core.DeliveryMode
}

// Pipeline wires the diary source, the optional narration generator, the
// speech synthesizer and the optional object store into one run sequence.
type Pipeline struct {
	diary             core.DiarySource
	narrator          core.NarrationGenerator
	synthesizer       core.SpeechSynthesizer
	store             core.ObjectStore
	outputDir         string
	namespace         string
	deleteAfterUpload bool
	log               *logger.Logger
}

// New creates a Pipeline. narrator may be nil to synthesize the composed
// request directly; store may be nil to disable durable delivery entirely.
func New(
	diary core.DiarySource,
	narrator core.NarrationGenerator,
	synthesizer core.SpeechSynthesizer,
	store core.ObjectStore,
	outputDir, namespace string,
	deleteAfterUpload bool,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		diary:             diary,
		narrator:          narrator,
		synthesizer:       synthesizer,
		store:             store,
		outputDir:         outputDir,
		namespace:         namespace,
		deleteAfterUpload: deleteAfterUpload,
		log:               log,
	}
}

// ArtifactFilename derives a unique artifact filename for a user. The user id
// is sanitized for filesystem safety and suffixed with a random hex token, so
// repeated runs for the same user never collide.
func ArtifactFilename(userID string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")

	return fileutil.SanitizeFilename(userID) + "_" + token + ".mp3"
}

// Run executes the full pipeline for one request and returns the result
// envelope. Synthesis and narration failures abort the run; a failed upload
// aborts only when the durable URL is the sole delivery channel.
func (p *Pipeline) Run(ctx context.Context, req Request) (*core.BoostResult, error) {
	if req.UserID == "" {
		return nil, ErrUserIDEmpty
	}

	snapshot := req.Snapshot
	if !req.SnapshotProvided {
		lookup := p.diary.FetchLatest(ctx, req.UserID)
		if lookup.Found() {
			snapshot = lookup.Snapshot
		} else if lookup.Status == core.LookupTransportError {
			p.log.Warn(logDiaryUnavailable, req.UserID, lookup.Detail)
		}
	}

	text := prompt.Compose(req.UserID, snapshot, time.Now())

	if p.narrator != nil {
		narration, err := p.narrator.GenerateNarration(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("narration stage failed for user %s: %w", req.UserID, err)
		}

		text = narration
	}

	outputPath := filepath.Join(p.outputDir, ArtifactFilename(req.UserID))

	err := p.synthesizer.Synthesize(ctx, text, outputPath)
	if err != nil {
		return nil, fmt.Errorf("synthesis stage failed for user %s: %w", req.UserID, err)
	}

	artifact := core.AudioArtifact{
		LocalPath:     outputPath,
		MIMEType:      core.MIMETypeMP3,
		OwnerUserID:   req.UserID,
		CorrelationID: strings.TrimSuffix(filepath.Base(outputPath), ".mp3"),
	}

	result := &core.BoostResult{
		UserID:            req.UserID,
		DiaryUsed:         snapshot != nil,
		Emotion:           emotionOf(snapshot),
		NormalizedEmotion: emotion.NormalizeForTransport(emotionOf(snapshot)),
		Artifact:          artifact,
		AudioURL:          "",
	}

	err = p.deliver(ctx, req.Mode, result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// deliver uploads the artifact when a store is configured. The upload is
// best-effort unless the caller asked for durable-URL delivery, in which case
// a failed upload leaves nothing to return.
func (p *Pipeline) deliver(ctx context.Context, mode core.DeliveryMode, result *core.BoostResult) error {
	if p.store == nil {
		if mode == core.DeliverDurableURL {
			return fmt.Errorf("durable delivery requested for user %s: %w", result.UserID, ErrStoreDisabled)
		}

		return nil
	}

	data, err := os.ReadFile(result.Artifact.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to read artifact %s for upload: %w", result.Artifact.LocalPath, err)
	}

	key := p.ObjectKey(result.UserID, result.Artifact.Filename())

	err = p.store.Upload(ctx, key, result.Artifact.MIMEType, data)
	if err != nil {
		if mode == core.DeliverDurableURL {
			return fmt.Errorf("upload of artifact %s failed: %w", key, err)
		}

		p.log.Warn(logUploadFailed, key, err)

		return nil
	}

	result.AudioURL = p.store.PublicURL(key)

	if p.deleteAfterUpload && mode == core.DeliverDurableURL {
		removeErr := os.Remove(result.Artifact.LocalPath)
		if removeErr == nil {
			p.log.Info(logLocalRemoved, result.Artifact.LocalPath)
		}
	}

	return nil
}

// ObjectKey derives the store key for a user's artifact,
// {namespace}/{userId}/{filename}.
func (p *Pipeline) ObjectKey(userID, filename string) string {
	return p.namespace + "/" + userID + "/" + filename
}

func emotionOf(snapshot *core.DiarySnapshot) string {
	if snapshot == nil {
		return ""
	}

	return snapshot.Emotion
}
