// Package featureflags provides runtime configuration flags with caching
// and default fallback.
package featureflags

import (
	"errors"
	"time"
)

// ErrFlagNotFound is returned when a feature flag is not found.
var ErrFlagNotFound = errors.New("feature flag not found")

// Well-known feature flag keys.
const (
	// FlagDisablePushSending prevents all push notification delivery.
	// The dispatcher consults it before touching the gateway; in-app
	// notifications are unaffected.
	FlagDisablePushSending = "disable_push_sending"

	// FlagBroadcastChunkSize overrides the token batch size for admin
	// broadcast dispatch.
	FlagBroadcastChunkSize = "broadcast_chunk_size"
)

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// IntValue returns the flag value as an int.
// Returns the default value if the flag is nil or not numeric.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}

// DefaultFlags returns the built-in flag values used when the repository
// has no override.
func DefaultFlags() map[string]*Flag {
	return map[string]*Flag{
		FlagDisablePushSending: {Key: FlagDisablePushSending, Value: false},
		FlagBroadcastChunkSize: {Key: FlagBroadcastChunkSize, Value: 500},
	}
}
