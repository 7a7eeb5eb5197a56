// Package llm provides the language-generation client used by the narration
// stage and the diary rewrite stage.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// API endpoints and paths.
const (
	apiChatCompletions = "/v1/chat/completions"

	// DefaultBaseURL is the provider endpoint used when none is configured.
	DefaultBaseURL = "https://api.openai.com"
)

// HTTP headers.
const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	contentTypeJSON     = "application/json"
)

// Message roles.
const (
	roleSystem = "system"
	roleUser   = "user"
)

// Static errors.
var (
	ErrPromptEmpty = errors.New("prompt cannot be empty")
	ErrNoChoices   = errors.New("provider returned no completion choices")
)

// Client is an HTTP client for the provider's chat completion endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a completion client. An empty baseURL selects the
// provider default.
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

// Complete sends a system+user instruction pair to the given model and
// returns the trimmed completion text. An empty systemPrompt sends the user
// turn alone.
func (c *Client) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	if userPrompt == "" {
		return "", ErrPromptEmpty
	}

	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: roleSystem, Content: systemPrompt})
	}

	messages = append(messages, chatMessage{Role: roleUser, Content: userPrompt})

	requestBody, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiChatCompletions,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}

	httpReq.Header.Set(headerAuthorization, "Bearer "+c.apiKey)
	httpReq.Header.Set(headerContentType, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to reach completion provider at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("completion provider returned non-OK status: %s, body: %s",
			resp.Status, string(body))
	}

	var completion chatResponse

	err = json.NewDecoder(resp.Body).Decode(&completion)
	if err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrNoChoices
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// Generator adapts Client to the narration contract with a fixed model.
type Generator struct {
	client *Client
	model  string
}

// NewGenerator creates a narration generator bound to one model.
func NewGenerator(client *Client, model string) *Generator {
	return &Generator{client: client, model: model}
}

// GenerateNarration delegates the composed synthesis request to the language
// provider and returns the trimmed narration text. Any provider failure is a
// hard failure; there is no local fallback narration.
func (g *Generator) GenerateNarration(ctx context.Context, prompt string) (string, error) {
	narration, err := g.client.Complete(ctx, g.model, "", prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate narration: %w", err)
	}

	return narration, nil
}
