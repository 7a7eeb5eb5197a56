// Package diary provides the client for the external journal backend and the
// wire shapes shared with client-submitted diary bodies.
package diary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/book-expert/logger"

	"github.com/maum-on/boost-service/internal/core"
)

// DefaultTimeout bounds the latest-diary read; retrieval must fail soft well
// before the caller's own deadline.
const DefaultTimeout = 5 * time.Second

const (
	latestDiaryPath = "/api/diary/latest"
	queryUserID     = "user_id"
	successCode     = 200
)

// ErrMissingNarrative indicates a diary payload without the required
// narrative text.
var ErrMissingNarrative = errors.New("diary payload is missing write_diary")

// Envelope is the journal backend's response wrapper. The same shape arrives
// in client-submitted JSON bodies and uploads.
type Envelope struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Data    *Payload `json:"data"`
}

// Payload is the diary data block of an Envelope.
type Payload struct {
	Emotion       string   `json:"emotion,omitempty"`
	Draw          string   `json:"draw,omitempty"`
	WriteDiary    string   `json:"write_diary"`
	FileSummation []string `json:"file_summation,omitempty"`
	AIReply       string   `json:"ai_reply,omitempty"`
	AIDrawReply   string   `json:"ai_draw_reply,omitempty"`
}

// Validate checks the payload for the fields a pipeline run requires.
func (p *Payload) Validate() error {
	if p == nil || p.WriteDiary == "" {
		return ErrMissingNarrative
	}

	return nil
}

// Snapshot normalizes the payload into the in-memory snapshot form. An
// absent keyword list is coerced to an empty, never-nil sequence.
func (p *Payload) Snapshot() *core.DiarySnapshot {
	keywords := p.FileSummation
	if keywords == nil {
		keywords = []string{}
	}

	return &core.DiarySnapshot{
		Emotion:                    p.Emotion,
		DrawingRef:                 p.Draw,
		NarrativeText:              p.WriteDiary,
		FileSummaryKeywords:        keywords,
		PriorAssistantReply:        p.AIReply,
		PriorDrawingAssistantReply: p.AIDrawReply,
	}
}

// Client fetches the latest diary snapshot from the journal backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// NewClient creates a diary client for the given backend base URL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 || timeout > DefaultTimeout {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		log:        log,
	}
}

// FetchLatest retrieves the user's latest diary snapshot.
//
// Diary absence is a normal, expected outcome: every transport failure,
// non-success status, and parse failure is converted into a non-found
// Lookup rather than an error, so the pipeline can always proceed with the
// generic branch.
func (c *Client) FetchLatest(ctx context.Context, userID string) core.Lookup {
	endpoint := c.baseURL + latestDiaryPath + "?" + url.Values{queryUserID: {userID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return c.transportError(fmt.Errorf("failed to create diary request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(fmt.Errorf("diary backend unreachable at %s: %w", c.baseURL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.transportError(fmt.Errorf("diary backend returned status %s", resp.Status))
	}

	var envelope Envelope

	err = json.NewDecoder(resp.Body).Decode(&envelope)
	if err != nil {
		return c.transportError(fmt.Errorf("failed to decode diary response: %w", err))
	}

	if envelope.Code != successCode || envelope.Data == nil {
		c.log.Info("No diary for user: backend code %d", envelope.Code)

		return core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: envelope.Message}
	}

	validationErr := envelope.Data.Validate()
	if validationErr != nil {
		c.log.Info("Diary payload unusable: %v", validationErr)

		return core.Lookup{Status: core.LookupNotFound, Snapshot: nil, Detail: validationErr.Error()}
	}

	return core.Lookup{Status: core.LookupFound, Snapshot: envelope.Data.Snapshot(), Detail: ""}
}

func (c *Client) transportError(err error) core.Lookup {
	c.log.Warn("Diary fetch degraded to no-diary: %v", err)

	return core.Lookup{Status: core.LookupTransportError, Snapshot: nil, Detail: err.Error()}
}
