// Package worker provides a NATS worker that serves boost generation
// requests published by schedulers and other services.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/maum-on/boost-service/internal/boost"
	"github.com/maum-on/boost-service/internal/core"
)

// The full pipeline makes several provider round trips, so the per-message
// budget is generous.
const handleMessageTimeout = 120 * time.Second

// ErrUserIDMissing indicates a request message without a user id.
var ErrUserIDMissing = errors.New("boost request is missing a user id")

// BoostRequestedMessage asks the worker to generate a boost for one user.
type BoostRequestedMessage struct {
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
}

// BoostCompletedMessage is the worker's reply. Error is set (and the other
// result fields empty) when generation failed.
type BoostCompletedMessage struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	DiaryUsed bool   `json:"diary_used"`
	AudioPath string `json:"audio_path"`
	AudioURL  string `json:"audio_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BoostRunner executes one generation run.
type BoostRunner interface {
	Run(ctx context.Context, req boost.Request) (*core.BoostResult, error)
}

// NatsWorker listens for boost requests on a NATS subject and runs the
// pipeline for each.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	runner         BoostRunner
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	runner BoostRunner,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		runner:         runner,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	request, err := w.parseAndValidateRequest(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate boost request: %v", err)

		return
	}

	reply := w.processBoostRequest(ctx, request)

	err = w.publishReply(msg, reply)
	if err != nil {
		w.log.Error("Failed to publish reply for request %s: %v", request.RequestID, err)
	}
}

// processBoostRequest runs the pipeline and translates the outcome into a
// reply message. Failures are reported to the requester, not swallowed.
func (w *NatsWorker) processBoostRequest(ctx context.Context, request *BoostRequestedMessage) *BoostCompletedMessage {
	result, err := w.runner.Run(ctx, boost.Request{
		UserID:           request.UserID,
		Snapshot:         nil,
		SnapshotProvided: false,
		Mode:             core.DeliverPathReference,
	})
	if err != nil {
		w.log.Error("Boost generation failed for user %s: %v", request.UserID, err)

		return &BoostCompletedMessage{
			RequestID: request.RequestID,
			UserID:    request.UserID,
			DiaryUsed: false,
			AudioPath: "",
			AudioURL:  "",
			Error:     err.Error(),
		}
	}

	return &BoostCompletedMessage{
		RequestID: request.RequestID,
		UserID:    result.UserID,
		DiaryUsed: result.DiaryUsed,
		AudioPath: result.Artifact.LocalPath,
		AudioURL:  result.AudioURL,
		Error:     "",
	}
}

// publishReply marshals and responds with the BoostCompletedMessage.
func (w *NatsWorker) publishReply(msg *nats.Msg, reply *BoostCompletedMessage) error {
	replyData, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply: %w", err)
	}

	return nil
}

func (w *NatsWorker) parseAndValidateRequest(msg *nats.Msg) (*BoostRequestedMessage, error) {
	var request BoostRequestedMessage

	err := json.Unmarshal(msg.Data, &request)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}

	if request.UserID == "" {
		return nil, ErrUserIDMissing
	}

	return &request, nil
}
