// Package member provides a read-only view of the member directory.
//
// The directory is owned by the identity/user-management service; this core
// only reads identity, gender, and activity flags to validate targets and to
// resolve broadcast segments. Member rows are never written here, with the
// single exception of the view-token balance column, which is mutated only
// by the viewledger package's atomic spend.
package member

import (
	"errors"
	"time"
)

// Directory errors.
var (
	ErrMemberNotFound = errors.New("member not found")
)

// Gender is the member's declared gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Member is the directory's read-only view of a platform member.
type Member struct {
	// ID is the member's stable account identifier (UUID string).
	ID string

	Gender     Gender
	IsActive   bool
	IsVerified bool

	// IsPremium reports whether the member holds an active paid subscription.
	IsPremium bool

	// RemainingViewTokens is the profile-view allowance. Read-only here;
	// spent exclusively through the view-token ledger.
	RemainingViewTokens int

	LastActiveAt time.Time
	CreatedAt    time.Time
}

// Segment selects a set of members for broadcast delivery.
type Segment string

const (
	SegmentAll            Segment = "all"
	SegmentPremium        Segment = "premium"
	SegmentRecentlyActive Segment = "recently_active"
)

// RecentActivityWindow bounds the recently_active segment.
const RecentActivityWindow = 30 * 24 * time.Hour

// ParseSegment validates and returns a broadcast segment.
func ParseSegment(s string) (Segment, bool) {
	switch Segment(s) {
	case SegmentAll, SegmentPremium, SegmentRecentlyActive:
		return Segment(s), true
	}
	return "", false
}
