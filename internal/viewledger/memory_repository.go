package viewledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

type pairKey struct {
	viewer string
	viewed string
}

// InMemoryRepository is an in-memory implementation of Repository. A single
// mutex spans the check-decrement-insert sequence, giving the same
// atomicity the Postgres implementation gets from its conditional UPDATE.
// This is intended for tests.
type InMemoryRepository struct {
	mu       sync.Mutex
	balances map[string]int
	views    map[pairKey]*ViewRecord
}

// NewInMemoryRepository creates a new in-memory ledger repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		balances: make(map[string]int),
		views:    make(map[pairKey]*ViewRecord),
	}
}

// SetBalance seeds a viewer's token balance. Test setup helper.
func (r *InMemoryRepository) SetBalance(viewerID string, tokens int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[viewerID] = tokens
}

// Spend records the view, deducting one token on a first view.
func (r *InMemoryRepository) Spend(_ context.Context, viewerID, viewedID string) (SpendResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{viewer: viewerID, viewed: viewedID}
	if _, ok := r.views[key]; ok {
		return SpendResult{AlreadyUnlocked: true, RemainingTokens: r.balances[viewerID]}, nil
	}

	if r.balances[viewerID] <= 0 {
		return SpendResult{}, ErrInsufficientTokens
	}

	r.balances[viewerID]--
	r.views[key] = &ViewRecord{
		ViewerID:  viewerID,
		ViewedID:  viewedID,
		CreatedAt: time.Now(),
	}

	return SpendResult{Spent: true, RemainingTokens: r.balances[viewerID]}, nil
}

// RemainingTokens returns the viewer's current balance.
func (r *InMemoryRepository) RemainingTokens(_ context.Context, viewerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[viewerID], nil
}

// ListViewers retrieves up to limit view records targeting viewedID.
func (r *InMemoryRepository) ListViewers(_ context.Context, viewedID string, limit int) ([]*ViewRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*ViewRecord
	for _, rec := range r.views {
		if rec.ViewedID == viewedID {
			cp := *rec
			out = append(out, &cp)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ViewCount returns the number of view records held by the repository.
// Test helper.
func (r *InMemoryRepository) ViewCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
