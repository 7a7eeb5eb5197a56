// Package boost_test tests the generation pipeline orchestration.
package boost_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maum-on/boost-service/internal/boost"
	"github.com/maum-on/boost-service/internal/core"
	"github.com/maum-on/boost-service/internal/diary"
)

var errProviderDown = errors.New("provider down")

// mockDiarySource returns a canned lookup and records whether it was called.
type mockDiarySource struct {
	lookup core.Lookup
	called bool
}

func (m *mockDiarySource) FetchLatest(_ context.Context, _ string) core.Lookup {
	m.called = true

	return m.lookup
}

// mockNarrator records the prompt it received.
type mockNarrator struct {
	narration string
	err       error
	gotPrompt string
}

func (m *mockNarrator) GenerateNarration(_ context.Context, prompt string) (string, error) {
	m.gotPrompt = prompt

	return m.narration, m.err
}

// mockSynthesizer writes a small file to outputPath and records the text.
type mockSynthesizer struct {
	err     error
	gotText string
}

func (m *mockSynthesizer) Synthesize(_ context.Context, text, outputPath string) error {
	if m.err != nil {
		return m.err
	}

	m.gotText = text

	return os.WriteFile(outputPath, []byte("mp3"), 0o600)
}

func (m *mockSynthesizer) Ping(_ context.Context) bool {
	return m.err == nil
}

// mockStore records uploads in memory.
type mockStore struct {
	uploadErr      error
	gotKey         string
	gotContentType string
	gotData        []byte
}

func (m *mockStore) Upload(_ context.Context, key, contentType string, data []byte) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}

	m.gotKey = key
	m.gotContentType = contentType
	m.gotData = data

	return nil
}

func (m *mockStore) Download(_ context.Context, _ string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	return log
}

func happySnapshot() *core.DiarySnapshot {
	return &core.DiarySnapshot{
		Emotion:                    "행복",
		DrawingRef:                 "",
		NarrativeText:              "오늘은 정말 좋은 하루였다.",
		FileSummaryKeywords:        []string{"산책", "커피"},
		PriorAssistantReply:        "",
		PriorDrawingAssistantReply: "",
	}
}

func TestRunWithDiaryProducesArtifactAndEmotion(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{
		Status:   core.LookupFound,
		Snapshot: happySnapshot(),
		Detail:   "",
	}}
	synth := &mockSynthesizer{}
	outputDir := t.TempDir()

	pipeline := boost.New(source, nil, synth, nil, outputDir, "morning_boost", false, newTestLogger(t))

	result, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverPathReference,
	})
	require.NoError(t, err)

	assert.True(t, result.DiaryUsed)
	assert.Equal(t, "행복", result.Emotion)
	assert.Equal(t, "happy", result.NormalizedEmotion)
	assert.Empty(t, result.AudioURL)

	assert.Equal(t, outputDir, filepath.Dir(result.Artifact.LocalPath))
	assert.True(t, strings.HasPrefix(result.Artifact.Filename(), "user-1_"))
	assert.True(t, strings.HasSuffix(result.Artifact.Filename(), ".mp3"))

	_, statErr := os.Stat(result.Artifact.LocalPath)
	require.NoError(t, statErr)

	assert.Contains(t, synth.gotText, "오늘은 정말 좋은 하루였다.")
}

func TestRunWithoutDiaryUsesGenericText(t *testing.T) {
	t.Parallel()

	for _, status := range []core.LookupStatus{core.LookupNotFound, core.LookupTransportError} {
		source := &mockDiarySource{lookup: core.Lookup{Status: status, Snapshot: nil, Detail: "backend said no"}}
		synth := &mockSynthesizer{}

		pipeline := boost.New(source, nil, synth, nil, t.TempDir(), "morning_boost", false, newTestLogger(t))

		result, err := pipeline.Run(context.Background(), boost.Request{
			UserID:           "user-1",
			Snapshot:         nil,
			SnapshotProvided: false,
			Mode:             core.DeliverPathReference,
		})
		require.NoError(t, err)

		assert.False(t, result.DiaryUsed)
		assert.Empty(t, result.Emotion)
		assert.Empty(t, result.NormalizedEmotion)
		assert.NotContains(t, synth.gotText, "【일기 내용】")
	}
}

func TestRunWithProvidedSnapshotSkipsBackend(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{Status: core.LookupTransportError, Snapshot: nil, Detail: ""}}
	synth := &mockSynthesizer{}

	pipeline := boost.New(source, nil, synth, nil, t.TempDir(), "morning_boost", false, newTestLogger(t))

	result, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         happySnapshot(),
		SnapshotProvided: true,
		Mode:             core.DeliverPathReference,
	})
	require.NoError(t, err)

	assert.False(t, source.called)
	assert.True(t, result.DiaryUsed)
}

func TestRunNarrationRewritesSynthesisText(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: ""}}
	narrator := &mockNarrator{narration: "힘찬 하루 되세요!", err: nil, gotPrompt: ""}
	synth := &mockSynthesizer{}

	pipeline := boost.New(source, narrator, synth, nil, t.TempDir(), "morning_boost", false, newTestLogger(t))

	_, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverPathReference,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, narrator.gotPrompt)
	assert.Equal(t, "힘찬 하루 되세요!", synth.gotText)
}

func TestRunNarrationFailureAbortsRun(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: ""}}
	narrator := &mockNarrator{narration: "", err: errProviderDown, gotPrompt: ""}
	synth := &mockSynthesizer{}

	pipeline := boost.New(source, narrator, synth, nil, t.TempDir(), "morning_boost", false, newTestLogger(t))

	_, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverPathReference,
	})
	require.ErrorIs(t, err, errProviderDown)
	assert.Empty(t, synth.gotText)
}

func TestRunSynthesisFailureAbortsRun(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: ""}}
	synth := &mockSynthesizer{err: errProviderDown}

	pipeline := boost.New(source, nil, synth, nil, t.TempDir(), "morning_boost", false, newTestLogger(t))

	_, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverPathReference,
	})
	require.ErrorIs(t, err, errProviderDown)
}

func TestRunRejectsEmptyUserID(t *testing.T) {
	t.Parallel()

	pipeline := boost.New(&mockDiarySource{}, nil, &mockSynthesizer{}, nil,
		t.TempDir(), "morning_boost", false, newTestLogger(t))

	_, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverPathReference,
	})
	require.ErrorIs(t, err, boost.ErrUserIDEmpty)
}

func TestRunUploadsArtifactAndSetsURL(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: ""}}
	store := &mockStore{}

	pipeline := boost.New(source, nil, &mockSynthesizer{}, store,
		t.TempDir(), "morning_boost", false, newTestLogger(t))

	result, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverDurableURL,
	})
	require.NoError(t, err)

	assert.Equal(t, "morning_boost/user-1/"+result.Artifact.Filename(), store.gotKey)
	assert.Equal(t, "audio/mpeg", store.gotContentType)
	assert.Equal(t, []byte("mp3"), store.gotData)
	assert.Equal(t, "https://cdn.example.com/"+store.gotKey, result.AudioURL)
}

func TestRunUploadFailureIsBestEffortForPathDelivery(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: ""}}
	store := &mockStore{uploadErr: errProviderDown}

	pipeline := boost.New(source, nil, &mockSynthesizer{}, store,
		t.TempDir(), "morning_boost", false, newTestLogger(t))

	result, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverPathReference,
	})
	require.NoError(t, err)
	assert.Empty(t, result.AudioURL)

	_, statErr := os.Stat(result.Artifact.LocalPath)
	require.NoError(t, statErr)
}

func TestRunUploadFailureIsFatalForDurableDelivery(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: ""}}
	store := &mockStore{uploadErr: errProviderDown}

	pipeline := boost.New(source, nil, &mockSynthesizer{}, store,
		t.TempDir(), "morning_boost", false, newTestLogger(t))

	_, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverDurableURL,
	})
	require.ErrorIs(t, err, errProviderDown)
}

func TestRunDurableDeliveryWithoutStoreIsError(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: ""}}

	pipeline := boost.New(source, nil, &mockSynthesizer{}, nil,
		t.TempDir(), "morning_boost", false, newTestLogger(t))

	_, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverDurableURL,
	})
	require.ErrorIs(t, err, boost.ErrStoreDisabled)
}

func TestRunDeletesLocalCopyAfterDurableUpload(t *testing.T) {
	t.Parallel()

	source := &mockDiarySource{lookup: core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: ""}}

	pipeline := boost.New(source, nil, &mockSynthesizer{}, &mockStore{},
		t.TempDir(), "morning_boost", true, newTestLogger(t))

	result, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverDurableURL,
	})
	require.NoError(t, err)

	_, statErr := os.Stat(result.Artifact.LocalPath)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestArtifactFilenameIsUniqueAndSanitized(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 10000)

	for range 10000 {
		name := boost.ArtifactFilename("user-1")
		_, dup := seen[name]
		require.False(t, dup, "duplicate artifact filename: %s", name)
		seen[name] = struct{}{}
	}

	name := boost.ArtifactFilename("a/b c")
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, " ")
	assert.True(t, strings.HasSuffix(name, ".mp3"))
}

// A backend that answers HTTP 200 with a failure code in the body must be
// treated as "no diary", not as an error, all the way through the pipeline.
func TestRunBackendBodyFailureDegradesToGeneric(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":500,"message":"no diary today","data":null}`))
	}))
	defer backend.Close()

	log := newTestLogger(t)
	source := diary.NewClient(backend.URL, 5*time.Second, log)
	synth := &mockSynthesizer{}

	pipeline := boost.New(source, nil, synth, nil, t.TempDir(), "morning_boost", false, log)

	result, err := pipeline.Run(context.Background(), boost.Request{
		UserID:           "user-1",
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverPathReference,
	})
	require.NoError(t, err)

	assert.False(t, result.DiaryUsed)
	assert.NotContains(t, synth.gotText, "【일기 내용】")
}
