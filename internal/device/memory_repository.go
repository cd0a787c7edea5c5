package device

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for tests. Production uses the Postgres implementation.
type InMemoryRepository struct {
	mu   sync.RWMutex
	regs []*Registration
}

// NewInMemoryRepository creates a new in-memory registration repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// GetByKey retrieves the registration for (member, platform, token).
func (r *InMemoryRepository) GetByKey(_ context.Context, memberID string, platform Platform, token string) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reg := range r.regs {
		if reg.MemberID == memberID && reg.Platform == platform && reg.PushToken == token {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, nil
}

// Create inserts a new registration.
func (r *InMemoryRepository) Create(_ context.Context, reg *Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *reg
	r.regs = append(r.regs, &cp)
	return nil
}

// Update rewrites a registration's metadata and activity flag.
func (r *InMemoryRepository) Update(_ context.Context, reg *Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.regs {
		if existing.ID == reg.ID {
			cp := *reg
			r.regs[i] = &cp
			return nil
		}
	}
	return nil
}

// DeactivateSlot deactivates active registrations for (member, platform)
// holding a different token.
func (r *InMemoryRepository) DeactivateSlot(_ context.Context, memberID string, platform Platform, keepToken string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, reg := range r.regs {
		if reg.MemberID == memberID && reg.Platform == platform && reg.IsActive && reg.PushToken != keepToken {
			reg.IsActive = false
			reg.UpdatedAt = time.Now()
			count++
		}
	}
	return count, nil
}

// DeactivateByToken deactivates every active registration holding the token.
func (r *InMemoryRepository) DeactivateByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range r.regs {
		if reg.PushToken == token && reg.IsActive {
			reg.IsActive = false
			reg.UpdatedAt = time.Now()
		}
	}
	return nil
}

// ListActiveByMembers retrieves all active registrations for the members.
func (r *InMemoryRepository) ListActiveByMembers(_ context.Context, memberIDs []string) ([]*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		wanted[id] = struct{}{}
	}

	var out []*Registration
	for _, reg := range r.regs {
		if _, ok := wanted[reg.MemberID]; ok && reg.IsActive {
			cp := *reg
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListByMember retrieves a member's active registrations, most recently
// updated first.
func (r *InMemoryRepository) ListByMember(_ context.Context, memberID string) ([]*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Registration
	for _, reg := range r.regs {
		if reg.MemberID == memberID && reg.IsActive {
			cp := *reg
			out = append(out, &cp)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// DeactivateByID deactivates one registration owned by the member.
func (r *InMemoryRepository) DeactivateByID(_ context.Context, id, memberID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range r.regs {
		if reg.ID == id && reg.MemberID == memberID && reg.IsActive {
			reg.IsActive = false
			reg.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
