// Package push delivers notifications to registered devices through an
// external push gateway and reconciles dead device tokens back into the
// device registry.
package push

import "context"

// Payload is the provider-agnostic notification payload.
type Payload struct {
	Title string
	Body  string

	// Data is an opaque string map delivered alongside the notification.
	// Receivers deduplicate on data["notificationId"].
	Data map[string]string
}

// TokenOutcome is the gateway's per-token delivery result.
type TokenOutcome struct {
	Token string

	// Err is nil on successful delivery.
	Err error

	// PermanentFailure reports that the token is dead (unregistered,
	// not found, malformed) and must be deactivated in the registry.
	// Transient failures (rate limit, gateway timeout) leave it false.
	PermanentFailure bool
}

// Gateway is the minimal capability required of a push provider: send one
// payload to a batch of tokens and report a per-token outcome. Keeping the
// surface this small lets the dispatcher run against a fake in tests.
type Gateway interface {
	Send(ctx context.Context, tokens []string, payload Payload) ([]TokenOutcome, error)
}
