// Package stt provides the speech-recognition client for the diary pipeline.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// API endpoints and paths.
const (
	apiTranscriptions = "/v1/audio/transcriptions"

	// DefaultBaseURL is the provider endpoint used when none is configured.
	DefaultBaseURL = "https://api.openai.com"
)

// HTTP headers.
const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
)

// Form field names.
const (
	formFieldFile  = "file"
	formFieldModel = "model"
)

// Static errors.
var (
	ErrAudioEmpty      = errors.New("audio data cannot be empty")
	ErrEmptyTranscript = errors.New("provider returned an empty transcript")
)

// Client is an HTTP client for the provider's transcription endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// transcriptionResponse is the provider's JSON response shape.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// NewClient creates a transcription client bound to one model. An empty
// baseURL selects the provider default.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// Transcribe uploads in-memory audio bytes as a multipart form and returns
// the transcript. The caller's filename is preserved on the form part so the
// provider can infer the audio container format from its extension.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", ErrAudioEmpty
	}

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(formFieldFile, filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}

	_, err = part.Write(audio)
	if err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}

	err = writer.WriteField(formFieldModel, c.model)
	if err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}

	err = writer.Close()
	if err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiTranscriptions,
		&buf,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}

	httpReq.Header.Set(headerAuthorization, "Bearer "+c.apiKey)
	httpReq.Header.Set(headerContentType, writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to reach transcription provider at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("transcription provider returned non-OK status: %s, body: %s",
			resp.Status, string(body))
	}

	var transcription transcriptionResponse

	err = json.NewDecoder(resp.Body).Decode(&transcription)
	if err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	if transcription.Text == "" {
		return "", ErrEmptyTranscript
	}

	return transcription.Text, nil
}
