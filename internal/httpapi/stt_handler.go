package httpapi

import (
	"io"
	"net/http"

	"github.com/maum-on/boost-service/internal/fileutil"
)

// handleDiarySTT converts an uploaded voice memo into a diary entry.
func (s *Server) handleDiarySTT(w http.ResponseWriter, r *http.Request) {
	if s.converter == nil {
		s.writeError(w, http.StatusServiceUnavailable, "speech-to-diary is not configured")

		return
	}

	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())

		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "multipart field 'audio' is required")

		return
	}
	defer file.Close()

	declared := header.Header.Get(headerContentType)
	if !fileutil.IsAudioContentType(declared) && !fileutil.HasAudioExtension(header.Filename) {
		s.writeError(w, http.StatusBadRequest, "uploaded file does not look like audio, got "+declared)

		return
	}

	audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read uploaded audio: "+err.Error())

		return
	}

	result, err := s.converter.AudioToDiary(r.Context(), audio, header.Filename)
	if err != nil {
		s.log.Error("Speech-to-diary conversion failed for %s: %v", header.Filename, err)
		s.writeError(w, http.StatusBadGateway, "speech-to-diary conversion failed")

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}
