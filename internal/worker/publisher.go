package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Publisher queues broadcast jobs onto the worker's Pub/Sub topic.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// PublisherConfig holds configuration for the broadcast publisher.
type PublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// NewPublisher creates a new broadcast publisher.
func NewPublisher(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger,
	}, nil
}

// PublishBroadcast queues one broadcast job and returns the message ID.
func (p *Publisher) PublishBroadcast(ctx context.Context, title, body, target string) (string, error) {
	data, err := json.Marshal(BroadcastMessage{
		JobType: jobTypeBroadcast,
		Title:   title,
		Body:    body,
		Target:  target,
	})
	if err != nil {
		return "", fmt.Errorf("encoding broadcast message: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing broadcast: %w", err)
	}

	p.logger.Info().
		Str("message_id", id).
		Str("topic", p.topicName).
		Str("target", target).
		Msg("broadcast queued")

	return id, nil
}

// Close stops the publisher and closes the Pub/Sub client.
func (p *Publisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
