// Package notification provides the in-app notification outbox: durable
// notification records emitted as side effects of engagement events and
// profile views, with best-effort push delivery behind them.
package notification

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// Kind classifies a notification.
type Kind string

const (
	KindInterestReceived Kind = "interest_received"
	KindInterestAccepted Kind = "interest_accepted"
	KindShortlisted      Kind = "shortlisted"
	KindProfileViewed    Kind = "profile_viewed"
	KindSystem           Kind = "system"
)

// Notification is one in-app notification record. Records are created by
// Emit and mutated only through the read flag; they are never deleted by
// normal flow.
type Notification struct {
	ID          string
	RecipientID string

	// SenderID is the member who triggered the notification. Empty for
	// system/admin-originated notifications.
	SenderID string

	Kind  Kind
	Title string
	Body  string

	IsRead bool

	// RelatedID links back to the originating record (engagement action
	// ID, view record, ...). Opaque to this package.
	RelatedID string

	CreatedAt time.Time
}

// DefaultListLimit bounds ListForRecipient when the caller does not ask
// for a specific page size.
const DefaultListLimit = 50
