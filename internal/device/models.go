// Package device provides the registry of per-member push-token
// registrations. A member may hold many active registrations at once
// (multiple devices, multiple platforms); dead tokens are deactivated,
// never physically deleted, so the history stays auditable.
package device

import (
	"errors"
	"strings"
	"time"
)

// Registry errors.
var (
	ErrTokenRequired   = errors.New("push token is required")
	ErrInvalidPlatform = errors.New("platform must be mobile or web")
)

// Platform identifies the client surface a token belongs to.
type Platform string

const (
	PlatformMobile Platform = "mobile"
	PlatformWeb    Platform = "web"
)

// ParsePlatform validates and returns a platform.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformMobile, PlatformWeb:
		return Platform(s), true
	}
	return "", false
}

// Registration is one device push-token registration.
type Registration struct {
	ID       string
	MemberID string

	PushToken string
	Platform  Platform

	// DeviceLabel is free-form client-supplied device info
	// ("Samsung Galaxy S21", "Chrome Browser").
	DeviceLabel string

	LastKnownIP string

	// IsActive is false once the token is known dead or superseded.
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenLast4 returns the tail of the token for display and logs; the full
// token is never echoed back to clients.
func (r *Registration) TokenLast4() string {
	if len(r.PushToken) < 4 {
		return r.PushToken
	}
	return r.PushToken[len(r.PushToken)-4:]
}

// placeholderSubstrings mark tokens some client builds register before a
// real token is issued. They are stored but never worth a gateway call.
var placeholderSubstrings = []string{
	"fcm_token_placeholder",
	"web_fcm_token",
}

// IsPlaceholderToken reports whether the token is recognizably junk.
func IsPlaceholderToken(token string) bool {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return true
	}
	for _, s := range placeholderSubstrings {
		if strings.Contains(trimmed, s) {
			return true
		}
	}
	return false
}
