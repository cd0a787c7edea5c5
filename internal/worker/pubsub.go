package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// BroadcastMessage is the wire format for queued broadcast jobs.
type BroadcastMessage struct {
	JobType string `json:"job_type"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Target  string `json:"target"`
}

// jobTypeBroadcast is the only job type the worker currently handles.
const jobTypeBroadcast = "broadcast"

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	broadcastJob     *BroadcastJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	BroadcastJob     *BroadcastJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings. Broadcasts to large segments can take
	// minutes, so the ack deadline is extended generously.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 2
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		broadcastJob:     cfg.BroadcastJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	// Parse message.
	var broadcastMsg BroadcastMessage
	if err := json.Unmarshal(msg.Data, &broadcastMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	if broadcastMsg.JobType != jobTypeBroadcast {
		logger.Warn().Str("job_type", broadcastMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	sent, failed, err := h.broadcastJob.Run(ctx, broadcastMsg.Title, broadcastMsg.Body, broadcastMsg.Target)
	if err != nil {
		logger.Error().Err(err).Msg("broadcast job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("target", broadcastMsg.Target).
		Int("sent", sent).
		Int("failed", failed).
		Dur("duration", time.Since(startTime)).
		Msg("broadcast job completed")

	// Delivery is at-most-once per attempt: even a fully failed fan-out
	// is acked, never replayed.
	msg.Ack()
}
