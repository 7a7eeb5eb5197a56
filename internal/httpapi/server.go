// Package httpapi exposes the boost and diary pipelines over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/book-expert/logger"

	"github.com/maum-on/boost-service/internal/boost"
	"github.com/maum-on/boost-service/internal/core"
	"github.com/maum-on/boost-service/internal/sttdiary"
)

// Query parameters and delivery selector values.
const (
	queryUserID   = "user_id"
	queryDelivery = "delivery"

	deliveryPath   = "path"
	deliveryStream = "stream"
	deliveryURL    = "url"
)

// Response headers carried on streamed audio.
const (
	headerContentType      = "Content-Type"
	headerUserID           = "X-User-Id"
	headerDiaryUsed        = "X-Diary-Used"
	headerEmotion          = "X-Emotion"
	headerAudioURL         = "X-Audio-Url"
	headerUploadedFilename = "X-Uploaded-Filename"
)

const contentTypeJSON = "application/json"

// Uploads larger than this are rejected outright.
const maxUploadBytes = 20 << 20

// defaultUserID names runs for callers who did not identify a user.
const defaultUserID = "anonymous"

// ErrUnknownDelivery indicates an unrecognized delivery selector value.
var ErrUnknownDelivery = errors.New("unknown delivery mode")

// BoostRunner executes one generation run.
type BoostRunner interface {
	Run(ctx context.Context, req boost.Request) (*core.BoostResult, error)
}

// DiaryConverter turns a voice memo into a diary entry.
type DiaryConverter interface {
	AudioToDiary(ctx context.Context, audio []byte, filename string) (*sttdiary.Result, error)
}

// Server routes HTTP requests to the pipelines.
type Server struct {
	runner      BoostRunner
	converter   DiaryConverter
	synthesizer core.SpeechSynthesizer
	outputDir   string
	log         *logger.Logger
	mux         *http.ServeMux
}

// NewServer creates the HTTP surface. converter may be nil to disable the
// speech-to-diary route; outputDir is served read-only under /audio/.
func NewServer(
	runner BoostRunner,
	converter DiaryConverter,
	synthesizer core.SpeechSynthesizer,
	outputDir string,
	log *logger.Logger,
) *Server {
	s := &Server{
		runner:      runner,
		converter:   converter,
		synthesizer: synthesizer,
		outputDir:   outputDir,
		log:         log,
		mux:         http.NewServeMux(),
	}
	s.routes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ping-openai", s.handlePingOpenAI)
	s.mux.HandleFunc("GET /boost", s.handleBoost)
	s.mux.HandleFunc("POST /boost/stream", s.handleBoostStream)
	s.mux.HandleFunc("POST /boost/from-json", s.handleBoostFromJSON)
	s.mux.HandleFunc("POST /boost/from-file", s.handleBoostFromFile)
	s.mux.HandleFunc("POST /diary/stt", s.handleDiarySTT)

	fileServer := http.FileServer(http.Dir(s.outputDir))
	s.mux.Handle("GET /audio/", http.StripPrefix("/audio/", fileServer))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePingOpenAI synthesizes a short throwaway phrase to verify the speech
// provider is reachable with the configured credentials.
func (s *Server) handlePingOpenAI(w http.ResponseWriter, r *http.Request) {
	ok := s.synthesizer.Ping(r.Context())

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

// parseDeliveryMode maps the delivery query parameter onto a delivery mode.
// Absent means path-reference delivery.
func parseDeliveryMode(value string) (core.DeliveryMode, error) {
	switch value {
	case "", deliveryPath:
		return core.DeliverPathReference, nil
	case deliveryStream:
		return core.DeliverStream, nil
	case deliveryURL:
		return core.DeliverDurableURL, nil
	default:
		return core.DeliverPathReference, ErrUnknownDelivery
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		s.log.Error("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
