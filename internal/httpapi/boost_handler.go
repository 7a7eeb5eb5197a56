package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"unicode"

	"github.com/maum-on/boost-service/internal/boost"
	"github.com/maum-on/boost-service/internal/core"
	"github.com/maum-on/boost-service/internal/diary"
	"github.com/maum-on/boost-service/internal/fileutil"
)

// Backend envelope code that marks a usable diary.
const envelopeCodeSuccess = 200

// uploadedEnvelope is the diary backend's response shape with an optional
// user id, as accepted on the JSON boost routes.
type uploadedEnvelope struct {
	UserID  string         `json:"user_id"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    *diary.Payload `json:"data"`
}

// diaryMeta summarizes the diary that fed a run.
type diaryMeta struct {
	HasDiary bool   `json:"has_diary"`
	Emotion  string `json:"emotion"`
}

// boostResponse is the JSON envelope for path and durable-URL delivery.
type boostResponse struct {
	Status    string    `json:"status"`
	UserID    string    `json:"user_id"`
	DiaryUsed bool      `json:"diary_used"`
	AudioPath string    `json:"audio_path"`
	AudioURL  string    `json:"audio_url,omitempty"`
	DiaryMeta diaryMeta `json:"diary_meta"`
}

// handleBoost generates a boost for a user, fetching their latest diary from
// the backend.
func (s *Server) handleBoost(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get(queryUserID)
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id query parameter is required")

		return
	}

	mode, err := parseDeliveryMode(r.URL.Query().Get(queryDelivery))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	s.runBoost(w, r, boost.Request{
		UserID:           userID,
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             mode,
	}, "")
}

// handleBoostStream is the streaming alias of handleBoost: the diary is
// fetched from the backend and the audio bytes come back in the response
// body, with run metadata in headers.
func (s *Server) handleBoostStream(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get(queryUserID)
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id query parameter is required")

		return
	}

	s.runBoost(w, r, boost.Request{
		UserID:           userID,
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverStream,
	}, "")
}

// handleBoostFromJSON generates a boost from a diary envelope in the request
// body, without contacting the backend.
func (s *Server) handleBoostFromJSON(w http.ResponseWriter, r *http.Request) {
	var envelope uploadedEnvelope

	err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&envelope)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "request body is not valid JSON: "+err.Error())

		return
	}

	s.boostFromEnvelope(w, r, &envelope, "")
}

// handleBoostFromFile is the multipart variant of handleBoostFromJSON,
// accepting the envelope as an uploaded .json document.
func (s *Server) handleBoostFromFile(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())

		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "multipart field 'file' is required")

		return
	}
	defer file.Close()

	declared := header.Header.Get(headerContentType)
	if !fileutil.IsJSONUploadContentType(declared) {
		s.writeError(w, http.StatusBadRequest, "uploaded file must be a JSON document, got "+declared)

		return
	}

	var envelope uploadedEnvelope

	err = json.NewDecoder(io.LimitReader(file, maxUploadBytes)).Decode(&envelope)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "uploaded file is not valid JSON: "+err.Error())

		return
	}

	s.boostFromEnvelope(w, r, &envelope, header.Filename)
}

// boostFromEnvelope validates an uploaded envelope and runs the pipeline with
// its snapshot. The envelope is authoritative: the backend is never consulted,
// and a failure code inside it means a boost without a diary.
func (s *Server) boostFromEnvelope(
	w http.ResponseWriter,
	r *http.Request,
	envelope *uploadedEnvelope,
	uploadedFilename string,
) {
	mode, err := parseDeliveryMode(r.URL.Query().Get(queryDelivery))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	userID := envelope.UserID
	if userID == "" {
		userID = defaultUserID
	}

	var snapshot *core.DiarySnapshot

	if envelope.Code == envelopeCodeSuccess && envelope.Data != nil {
		validationErr := envelope.Data.Validate()
		if validationErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid diary payload: "+validationErr.Error())

			return
		}

		snapshot = envelope.Data.Snapshot()
	}

	s.runBoost(w, r, boost.Request{
		UserID:           userID,
		Snapshot:         snapshot,
		SnapshotProvided: true,
		Mode:             mode,
	}, uploadedFilename)
}

// runBoost executes the pipeline and writes the response in the requested
// delivery shape.
func (s *Server) runBoost(w http.ResponseWriter, r *http.Request, req boost.Request, uploadedFilename string) {
	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		s.log.Error("Boost generation failed for user %s: %v", req.UserID, err)
		s.writeError(w, http.StatusBadGateway, "boost generation failed")

		return
	}

	if req.Mode == core.DeliverStream {
		s.streamArtifact(w, result, uploadedFilename)

		return
	}

	s.writeJSON(w, http.StatusOK, boostResponse{
		Status:    "ok",
		UserID:    result.UserID,
		DiaryUsed: result.DiaryUsed,
		AudioPath: result.Artifact.LocalPath,
		AudioURL:  result.AudioURL,
		DiaryMeta: diaryMeta{HasDiary: result.DiaryUsed, Emotion: result.Emotion},
	})
}

// streamArtifact writes the audio bytes with run metadata in headers. Header
// values must be ASCII, so the emotion travels in normalized form only.
func (s *Server) streamArtifact(w http.ResponseWriter, result *core.BoostResult, uploadedFilename string) {
	data, err := os.ReadFile(result.Artifact.LocalPath)
	if err != nil {
		s.log.Error("Failed to read artifact %s: %v", result.Artifact.LocalPath, err)
		s.writeError(w, http.StatusInternalServerError, "failed to read generated audio")

		return
	}

	w.Header().Set(headerContentType, result.Artifact.MIMEType)
	w.Header().Set(headerUserID, result.UserID)
	w.Header().Set(headerDiaryUsed, boolString(result.DiaryUsed))

	if result.NormalizedEmotion != "" {
		w.Header().Set(headerEmotion, result.NormalizedEmotion)
	}

	if result.AudioURL != "" {
		w.Header().Set(headerAudioURL, result.AudioURL)
	}

	// Header values must stay ASCII, same gate as the emotion channel.
	if filename := fileutil.SanitizeFilename(uploadedFilename); filename != "" && isASCII(filename) {
		w.Header().Set(headerUploadedFilename, filename)
	}

	_, err = w.Write(data)
	if err != nil {
		s.log.Error("Failed to write audio response: %v", err)
	}
}

func isASCII(value string) bool {
	for _, r := range value {
		if r > unicode.MaxASCII {
			return false
		}
	}

	return true
}

func boolString(value bool) string {
	if value {
		return "true"
	}

	return "false"
}
