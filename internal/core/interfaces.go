// Package core defines the domain types and provider interfaces for the boost service.
package core

import (
	"context"
	"path/filepath"
)

// MIMETypeMP3 is the content type of every audio artifact this service produces.
const MIMETypeMP3 = "audio/mpeg"

// DiarySnapshot is one day's journal entry and its derived metadata, as
// provided by the external journal backend. Instances live for a single
// pipeline run and are never persisted by this service.
type DiarySnapshot struct {
	Emotion                    string
	DrawingRef                 string
	NarrativeText              string
	FileSummaryKeywords        []string
	PriorAssistantReply        string
	PriorDrawingAssistantReply string
}

// LookupStatus tags the outcome of a diary fetch.
type LookupStatus int

const (
	// LookupFound means the backend returned a usable snapshot.
	LookupFound LookupStatus = iota
	// LookupNotFound means the backend answered but had no diary to give.
	LookupNotFound
	// LookupTransportError means the backend could not be reached or its
	// response could not be parsed.
	LookupTransportError
)

// Lookup is the typed result of a diary fetch. NotFound and TransportError
// both degrade to the generic prompt branch; they stay distinguishable so
// callers and tests can tell "no diary" from "backend down".
type Lookup struct {
	Status   LookupStatus
	Snapshot *DiarySnapshot
	Detail   string
}

// Found reports whether the lookup produced a snapshot.
func (l Lookup) Found() bool {
	return l.Status == LookupFound && l.Snapshot != nil
}

// AudioArtifact is a produced spoken-word recording on local storage.
type AudioArtifact struct {
	LocalPath     string
	MIMEType      string
	OwnerUserID   string
	CorrelationID string
}

// Filename returns the artifact's base filename ({userId}_{token}.mp3).
func (a AudioArtifact) Filename() string {
	return filepath.Base(a.LocalPath)
}

// DeliveryMode selects how a produced artifact reaches the caller.
type DeliveryMode int

const (
	// DeliverPathReference returns the local artifact path as metadata.
	DeliverPathReference DeliveryMode = iota
	// DeliverStream returns the audio bytes with metadata in headers.
	DeliverStream
	// DeliverDurableURL uploads the artifact and returns a public URL.
	DeliverDurableURL
)

// BoostResult is the response envelope of one pipeline run.
type BoostResult struct {
	UserID            string
	DiaryUsed         bool
	Emotion           string
	NormalizedEmotion string
	Artifact          AudioArtifact
	AudioURL          string
}

// DiarySource fetches the latest diary snapshot for a user.
type DiarySource interface {
	FetchLatest(ctx context.Context, userID string) Lookup
}

// NarrationGenerator turns a composed synthesis request into the final
// spoken-language narration text.
type NarrationGenerator interface {
	GenerateNarration(ctx context.Context, prompt string) (string, error)
}

// SpeechSynthesizer writes spoken audio for the given text to outputPath.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string) error
	// Ping synthesizes a short fixed phrase to a throwaway path and reports
	// whether the provider is reachable. Never used for production artifacts.
	Ping(ctx context.Context) bool
}

// Transcriber converts recorded audio bytes into a transcript. The filename
// is forwarded to the provider for format inference.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// ObjectStore is a key-value blob store used for durable audio delivery.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	// PublicURL derives the externally reachable URL for a stored key.
	PublicURL(key string) string
}
