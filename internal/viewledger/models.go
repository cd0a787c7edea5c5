// Package viewledger meters the profile-view token economy: each member
// holds a balance of view tokens and spends exactly one per distinct
// profile unlocked. Re-viewing an already-unlocked profile is free.
package viewledger

import (
	"errors"
	"time"
)

// Ledger errors.
var (
	// ErrInsufficientTokens is an expected business outcome, not a system
	// fault: the viewer's balance is exhausted and the caller must block
	// the profile read and surface an upgrade prompt.
	ErrInsufficientTokens = errors.New("insufficient view tokens")

	// ErrTargetNotFound reports the viewed profile does not exist or is
	// not active.
	ErrTargetNotFound = errors.New("target member not found")
)

// ViewRecord marks that a viewer has unlocked a target's profile. Created
// at most once per (viewer, viewed) pair, never updated, never deleted.
type ViewRecord struct {
	ViewerID  string
	ViewedID  string
	CreatedAt time.Time
}

// SpendResult reports the outcome of a spend attempt.
type SpendResult struct {
	// AlreadyUnlocked reports the profile was viewable without spending:
	// a self-view or a repeat view of a previously unlocked profile.
	AlreadyUnlocked bool

	// Spent reports exactly one token was deducted by this call.
	Spent bool

	// RemainingTokens is the viewer's balance after this call. Not
	// populated for self-views.
	RemainingTokens int
}
