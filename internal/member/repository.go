package member

import "context"

// Repository defines read access to the member directory.
type Repository interface {
	// Get retrieves a member by account ID.
	Get(ctx context.Context, id string) (*Member, error)

	// ListIDsBySegment retrieves the account IDs of all active members in
	// the given broadcast segment.
	ListIDsBySegment(ctx context.Context, segment Segment) ([]string, error)
}
