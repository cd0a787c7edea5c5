package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sangamlabs/sangam/internal/push"
)

// Sender delivers an emitted notification to a member's devices.
// Implemented by push.Dispatcher.
type Sender interface {
	DispatchToMember(ctx context.Context, memberID string, payload push.Payload) push.DispatchResult
}

// ServiceConfig holds configuration for creating a Service.
type ServiceConfig struct {
	Repository Repository

	// Sender is optional; when nil, notifications are stored without
	// push delivery.
	Sender Sender

	Logger zerolog.Logger

	// DispatchTimeout bounds the background push attempt that follows an
	// Emit. Default 15s.
	DispatchTimeout time.Duration
}

// Service is the notification outbox. Emit is the side-effect sink for the
// engagement and view-ledger flows: the durable write always wins, push
// delivery behind it is best-effort.
type Service struct {
	repo            Repository
	sender          Sender
	logger          zerolog.Logger
	dispatchTimeout time.Duration
}

// NewService creates a new notification service.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		repo:            cfg.Repository,
		sender:          cfg.Sender,
		logger:          cfg.Logger,
		dispatchTimeout: timeout,
	}
}

// Emit durably stores a notification and then triggers push delivery in the
// background. The returned notification is valid as soon as the store write
// succeeds; push failure never surfaces to the caller.
func (s *Service) Emit(ctx context.Context, recipientID, senderID string, kind Kind, title, body, relatedID string) (*Notification, error) {
	n := &Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Kind:        kind,
		Title:       title,
		Body:        body,
		RelatedID:   relatedID,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.dispatchAsync(n)
	return n, nil
}

// dispatchAsync hands the notification to the push dispatcher on its own
// goroutine with a detached context, so delivery outlives the HTTP request
// that triggered the emit and never blocks it.
func (s *Service) dispatchAsync(n *Notification) {
	if s.sender == nil {
		return
	}

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Msg("push dispatch panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		result := s.sender.DispatchToMember(ctx, n.RecipientID, push.Payload{
			Title: n.Title,
			Body:  n.Body,
			Data: map[string]string{
				"notificationId": n.ID,
				"kind":           string(n.Kind),
				"relatedId":      n.RelatedID,
			},
		})

		if len(result.Errors) > 0 {
			s.logger.Warn().
				Str("notification_id", n.ID).
				Int("failed", result.Failed).
				Errs("errors", result.Errors).
				Msg("push delivery incomplete")
		}
	}()
}

// ListForRecipient retrieves the recipient's notifications, newest first.
// limit <= 0 falls back to DefaultListLimit.
func (s *Service) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.repo.ListByRecipient(ctx, recipientID, limit)
}

// MarkRead marks one notification read, scoped to the recipient. A miss,
// including an ID belonging to another member, reports found=false rather
// than an authorization error.
func (s *Service) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	return s.repo.MarkRead(ctx, id, recipientID)
}

// MarkAllRead marks every unread notification for the recipient and
// returns the number updated.
func (s *Service) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}

// UnreadCount returns the recipient's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}
