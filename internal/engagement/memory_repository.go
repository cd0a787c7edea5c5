package engagement

import (
	"context"
	"sort"
	"sync"
	"time"
)

type tripleKey struct {
	actor  string
	target string
	kind   ActionKind
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for tests. Production uses the Postgres implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	actions map[tripleKey]*Action
}

// NewInMemoryRepository creates a new in-memory action repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		actions: make(map[tripleKey]*Action),
	}
}

// Upsert finds or creates the action row for (actor, target, kind).
func (r *InMemoryRepository) Upsert(_ context.Context, action *Action) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tripleKey{actor: action.ActorID, target: action.TargetID, kind: action.Kind}
	if existing, ok := r.actions[key]; ok {
		existing.UpdatedAt = time.Now()
		*action = *existing
		return false, nil
	}

	cp := *action
	r.actions[key] = &cp
	return true, nil
}

// Delete removes the action row if present.
func (r *InMemoryRepository) Delete(_ context.Context, actorID, targetID string, kind ActionKind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tripleKey{actor: actorID, target: targetID, kind: kind}
	if _, ok := r.actions[key]; !ok {
		return false, nil
	}
	delete(r.actions, key)
	return true, nil
}

// ListByActor retrieves actions performed by the actor, newest first.
func (r *InMemoryRepository) ListByActor(_ context.Context, actorID string, filter ListFilter) ([]*Action, error) {
	return r.list(func(a *Action) bool { return a.ActorID == actorID }, filter), nil
}

// ListByTarget retrieves actions received by the target, newest first.
func (r *InMemoryRepository) ListByTarget(_ context.Context, targetID string, filter ListFilter) ([]*Action, error) {
	return r.list(func(a *Action) bool { return a.TargetID == targetID }, filter), nil
}

func (r *InMemoryRepository) list(match func(*Action) bool, filter ListFilter) []*Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Action
	for _, a := range r.actions {
		if !match(a) {
			continue
		}
		if filter.Kind != "" && a.Kind != filter.Kind {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
