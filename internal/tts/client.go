// Package tts converts narration text into audio artifacts through the
// OpenAI speech API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API endpoints and paths.
const (
	apiSpeech = "/v1/audio/speech"

	// DefaultBaseURL is the provider endpoint used when none is configured.
	DefaultBaseURL = "https://api.openai.com"
)

// HTTP headers.
const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	contentTypeJSON     = "application/json"
	contentTypeMP3      = "audio/mpeg"
)

// responseFormatMP3 requests MP3 output from the provider.
const responseFormatMP3 = "mp3"

// Static errors.
var (
	ErrTextEmpty  = errors.New("text cannot be empty")
	ErrEmptyAudio = errors.New("received empty audio stream")
)

// Client is an HTTP client for the provider's speech endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// speechRequest is the JSON payload of a speech generation request.
type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// apiErrorResponse is the provider's structured error body.
type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient creates a speech client. The baseURL should include protocol and
// host; an empty baseURL selects the provider default.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// StreamSpeech requests synthesis of text and copies the provider's audio
// body directly into w, returning the number of audio bytes written. The
// artifact is never buffered whole in memory.
func (c *Client) StreamSpeech(
	ctx context.Context,
	model, voice, text string,
	w io.Writer,
) (int64, error) {
	if text == "" {
		return 0, ErrTextEmpty
	}

	requestBody, err := json.Marshal(speechRequest{
		Model:          model,
		Voice:          voice,
		Input:          text,
		ResponseFormat: responseFormatMP3,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create speech request: %w", err)
	}

	httpReq.Header.Set(headerAuthorization, "Bearer "+c.apiKey)
	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeMP3)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("failed to reach speech provider at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, c.parseErrorResponse(resp)
	}

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("failed to stream audio data: %w", err)
	}

	if written == 0 {
		return 0, ErrEmptyAudio
	}

	return written, nil
}

// parseErrorResponse decodes a structured provider error, falling back to the
// raw body so diagnostics are never lost.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr apiErrorResponse

	err := json.Unmarshal(body, &apiErr)
	if err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("speech provider error (%s): %s (type: %s)",
			resp.Status, apiErr.Error.Message, apiErr.Error.Type)
	}

	return fmt.Errorf("speech provider returned non-OK status: %s, body: %s",
		resp.Status, string(body))
}
