// Package engagement owns the profile-action records between members:
// interest, shortlist, reject, and accept. The four kinds are independent
// flags, not ordered transitions; a member can shortlist a profile they
// never sent an interest to, and an accept does not require a prior
// opposite-direction interest.
package engagement

import (
	"errors"
	"time"
)

// Store errors.
var (
	ErrInvalidKind    = errors.New("invalid action kind")
	ErrSelfAction     = errors.New("cannot act on own profile")
	ErrTargetNotFound = errors.New("target member not found")
)

// ActionKind classifies a profile action.
type ActionKind string

const (
	KindInterest  ActionKind = "interest"
	KindShortlist ActionKind = "shortlist"
	KindReject    ActionKind = "reject"
	KindAccept    ActionKind = "accept"
)

// ParseActionKind validates and returns an action kind.
func ParseActionKind(s string) (ActionKind, bool) {
	switch ActionKind(s) {
	case KindInterest, KindShortlist, KindReject, KindAccept:
		return ActionKind(s), true
	}
	return "", false
}

// Action is one (actor, target, kind) record. At most one row exists per
// triple; re-issuing the same kind refreshes UpdatedAt instead of
// duplicating.
type Action struct {
	ID       string
	ActorID  string
	TargetID string
	Kind     ActionKind

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertResult reports the outcome of an UpsertAction call.
type UpsertResult struct {
	Action *Action

	// Created is false when the triple already existed and only its
	// timestamp was refreshed. Not an error.
	Created bool
}
