package member

import (
	"context"
	"errors"
)

// Service errors.
var (
	ErrMemberInactive = errors.New("member is not active")
)

// Directory provides read access to member identity and broadcast segments.
type Directory struct {
	repo Repository
}

// NewDirectory creates a new member directory.
func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// Get retrieves a member by account ID.
func (d *Directory) Get(ctx context.Context, id string) (*Member, error) {
	return d.repo.Get(ctx, id)
}

// GetActive retrieves a member and verifies the account is active.
// Returns ErrMemberNotFound for unknown IDs and ErrMemberInactive for
// deactivated accounts.
func (d *Directory) GetActive(ctx context.Context, id string) (*Member, error) {
	m, err := d.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, ErrMemberInactive
	}
	return m, nil
}

// ResolveSegment returns the account IDs of active members in the segment.
func (d *Directory) ResolveSegment(ctx context.Context, segment Segment) ([]string, error) {
	return d.repo.ListIDsBySegment(ctx, segment)
}
