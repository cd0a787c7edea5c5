package notification

import "context"

// Repository defines the interface for notification persistence.
type Repository interface {
	// Create persists a new notification.
	Create(ctx context.Context, n *Notification) error

	// ListByRecipient retrieves up to limit notifications for the
	// recipient, newest first.
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*Notification, error)

	// MarkRead sets the read flag on one notification, scoped to the
	// recipient. Returns false when no matching row exists.
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)

	// MarkAllRead sets the read flag on every unread notification for
	// the recipient and returns the number updated.
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)

	// CountUnread returns the recipient's unread notification count.
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}
