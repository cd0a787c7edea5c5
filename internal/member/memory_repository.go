package member

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for tests. Production uses the Postgres implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	members map[string]*Member
}

// NewInMemoryRepository creates a new in-memory member repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		members: make(map[string]*Member),
	}
}

// Put stores a member. Test setup helper; the production directory is
// populated by the identity service.
func (r *InMemoryRepository) Put(m *Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *m
	r.members[m.ID] = &cp
}

// Get retrieves a member by account ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}

	cp := *m
	return &cp, nil
}

// ListIDsBySegment retrieves active member IDs in the given segment.
func (r *InMemoryRepository) ListIDsBySegment(_ context.Context, segment Segment) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().Add(-RecentActivityWindow)

	var ids []string
	for id, m := range r.members {
		if !m.IsActive {
			continue
		}
		switch segment {
		case SegmentPremium:
			if !m.IsPremium {
				continue
			}
		case SegmentRecentlyActive:
			if m.LastActiveAt.Before(cutoff) {
				continue
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
