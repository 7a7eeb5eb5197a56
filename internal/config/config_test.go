// Package config_test tests the configuration loading for the boost-service.
package config_test

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maum-on/boost-service/internal/config"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[backend]
base_url = "http://localhost:8080"
timeout_seconds = 5

[openai]
base_url = "https://api.openai.com"
speech_model = "gpt-4o-mini-tts"
voice = "alloy"
narration_model = "gpt-4o-mini"
diary_model = "gpt-4.1-mini"
transcription_model = "gpt-4o-mini-transcribe"
timeout_seconds = 60

[nats]
url = "nats://127.0.0.1:4222"
boost_request_subject = "boost.requested"
audio_object_store_bucket = "BOOST_AUDIO"

[storage]
namespace = "morning_boost"
public_base_url = "https://cdn.example.com"
delete_local_after_upload = true

[paths]
output_dir = "data/morning_boost"
base_logs_dir = "/var/log/boost-service"

[boost]
listen_address = ":8010"
use_narration = false
upload_audio = true
retention_hours = 72
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 5, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, "gpt-4o-mini-tts", cfg.OpenAI.SpeechModel)
	assert.Equal(t, "alloy", cfg.OpenAI.Voice)
	assert.Equal(t, "gpt-4o-mini-transcribe", cfg.OpenAI.TranscriptionModel)
	assert.Equal(t, 60, cfg.OpenAI.TimeoutSeconds)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "boost.requested", cfg.NATS.BoostRequestSubject)
	assert.Equal(t, "BOOST_AUDIO", cfg.NATS.AudioObjectStoreBucket)
	assert.Equal(t, "morning_boost", cfg.Storage.Namespace)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicBaseURL)
	assert.True(t, cfg.Storage.DeleteLocalAfterUpload)
	assert.Equal(t, "data/morning_boost", cfg.Paths.OutputDir)
	assert.Equal(t, ":8010", cfg.Boost.ListenAddress)
	assert.False(t, cfg.Boost.UseNarration)
	assert.True(t, cfg.Boost.UploadAudio)
	assert.Equal(t, 72, cfg.Boost.RetentionHours)
}

func TestValidateDefaultsUnsetTimeouts(t *testing.T) {
	t.Parallel()

	tomlData := `
[openai]
speech_model = "gpt-4o-mini-tts"
voice = "alloy"
`

	var cfg config.Config

	require.NoError(t, toml.Unmarshal([]byte(tomlData), &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 60, cfg.OpenAI.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Backend.TimeoutSeconds)
}

func TestValidateRejectsMissingSpeechModel(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.OpenAI.Voice = "alloy"

	require.ErrorIs(t, cfg.Validate(), config.ErrSpeechModelEmpty)
}

func TestValidateRejectsMissingVoice(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.OpenAI.SpeechModel = "gpt-4o-mini-tts"

	require.ErrorIs(t, cfg.Validate(), config.ErrVoiceEmpty)
}
