// Package fileutil_test tests the file and content-type helpers.
package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maum-on/boost-service/internal/fileutil"
)

func TestEnsureDirIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "output")

	require.NoError(t, fileutil.EnsureDir(dir))
	require.NoError(t, fileutil.EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestIsAudioContentType(t *testing.T) {
	t.Parallel()

	assert.True(t, fileutil.IsAudioContentType("audio/mpeg"))
	assert.True(t, fileutil.IsAudioContentType("audio/wav; codecs=1"))
	assert.False(t, fileutil.IsAudioContentType("application/json"))
	assert.False(t, fileutil.IsAudioContentType(""))
}

func TestIsJSONUploadContentType(t *testing.T) {
	t.Parallel()

	assert.True(t, fileutil.IsJSONUploadContentType("application/json"))
	assert.True(t, fileutil.IsJSONUploadContentType("application/json; charset=utf-8"))
	assert.True(t, fileutil.IsJSONUploadContentType("application/octet-stream"))
	assert.False(t, fileutil.IsJSONUploadContentType("text/html"))
}

func TestHasAudioExtension(t *testing.T) {
	t.Parallel()

	assert.True(t, fileutil.HasAudioExtension("recording.mp3"))
	assert.True(t, fileutil.HasAudioExtension("RECORDING.WAV"))
	assert.False(t, fileutil.HasAudioExtension("diary.json"))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a_b_c", fileutil.SanitizeFilename("a/b:c"))
	assert.Equal(t, "user_1", fileutil.SanitizeFilename("user 1"))
}
