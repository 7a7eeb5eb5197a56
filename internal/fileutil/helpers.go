// Package fileutil provides file, path, and content-type helpers for the
// boost service, adhering to platform-agnostic path handling.
package fileutil

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Directory permissions for lazily created output directories.
const defaultDirPermissions = 0o750

// Content type prefixes and values accepted at the API boundary.
const (
	audioContentTypePrefix = "audio/"
	contentTypeJSON        = "application/json"
	contentTypeOctetStream = "application/octet-stream"
)

// File extension constants.
const (
	extAAC  = ".aac"
	extFLAC = ".flac"
	extM4A  = ".m4a"
	extMP3  = ".mp3"
	extOGG  = ".ogg"
	extWAV  = ".wav"
)

// EnsureDir ensures a directory exists at the given path, creating it and any
// missing parents if needed. Calling it repeatedly is safe.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		mkdirErr := os.MkdirAll(path, defaultDirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, mkdirErr)
		}
	}

	return nil
}

// IsAudioContentType reports whether a declared content type names an audio
// kind (e.g. "audio/mpeg", "audio/wav; codecs=1").
func IsAudioContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return strings.HasPrefix(mediaType, audioContentTypePrefix)
}

// IsJSONUploadContentType reports whether a declared content type is accepted
// for an uploaded JSON document. Browsers frequently tag .json uploads as a
// generic binary stream, so that is accepted alongside application/json.
func IsJSONUploadContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == contentTypeJSON || mediaType == contentTypeOctetStream
}

// HasAudioExtension checks if a filename has a common audio file extension.
func HasAudioExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case extWAV, extMP3, extFLAC, extOGG, extM4A, extAAC:
		return true
	default:
		return false
	}
}

// SanitizeFilename removes or replaces characters that are invalid in most
// filesystems, so user-supplied identifiers can appear in artifact names.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", "_",
		">", "_",
		":", "_",
		"\"", "_",
		"/", "_",
		"\\", "_",
		"|", "_",
		"?", "_",
		"*", "_",
		" ", "_",
	)

	return replacer.Replace(filename)
}
