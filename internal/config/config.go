// Package config provides the configuration structure for the boost-service.
package config

import (
	"errors"
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Timeout defaults applied when the TOML leaves a timeout unset. A zero
// timeout would expire every provider call on arrival.
const (
	defaultBackendTimeoutSeconds = 5
	defaultOpenAITimeoutSeconds  = 60
)

// Static errors.
var (
	ErrSpeechModelEmpty = errors.New("openai speech_model cannot be empty")
	ErrVoiceEmpty       = errors.New("openai voice cannot be empty")
)

// BackendConfig holds the configuration for the external journal backend.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// OpenAIConfig holds the configuration for the speech and language providers.
// The API key itself is never stored in TOML; it is read from the
// OPENAI_API_KEY environment variable at startup.
type OpenAIConfig struct {
	BaseURL            string `toml:"base_url"`
	SpeechModel        string `toml:"speech_model"`
	Voice              string `toml:"voice"`
	NarrationModel     string `toml:"narration_model"`
	DiaryModel         string `toml:"diary_model"`
	TranscriptionModel string `toml:"transcription_model"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	BoostRequestSubject    string `toml:"boost_request_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
}

// StorageConfig holds the configuration for durable audio delivery.
type StorageConfig struct {
	Namespace              string `toml:"namespace"`
	PublicBaseURL          string `toml:"public_base_url"`
	DeleteLocalAfterUpload bool   `toml:"delete_local_after_upload"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	OutputDir   string `toml:"output_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// BoostConfig holds the pipeline-level knobs.
type BoostConfig struct {
	ListenAddress  string `toml:"listen_address"`
	UseNarration   bool   `toml:"use_narration"`
	UploadAudio    bool   `toml:"upload_audio"`
	RetentionHours int    `toml:"retention_hours"`
}

// Config is the root configuration structure.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	OpenAI  OpenAIConfig  `toml:"openai"`
	NATS    NATSConfig    `toml:"nats"`
	Storage StorageConfig `toml:"storage"`
	Paths   PathsConfig   `toml:"paths"`
	Boost   BoostConfig   `toml:"boost"`
}

// Validate checks the loaded configuration and applies timeout defaults.
// The speech model and voice have no sensible fallback and must be named.
func (c *Config) Validate() error {
	if c.OpenAI.SpeechModel == "" {
		return ErrSpeechModelEmpty
	}

	if c.OpenAI.Voice == "" {
		return ErrVoiceEmpty
	}

	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeoutSeconds
	}

	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeoutSeconds
	}

	return nil
}

// Load loads the configuration for the boost-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
