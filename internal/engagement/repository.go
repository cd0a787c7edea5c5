package engagement

import "context"

// ListFilter narrows action listings. Zero value lists everything.
type ListFilter struct {
	// Kind filters to one action kind when non-empty.
	Kind ActionKind

	// Limit bounds the result when positive.
	Limit int
}

// Repository defines the interface for action persistence. Uniqueness on
// (actor_id, target_id, kind) is the only concurrency discipline required;
// last-writer-wins under concurrent identical upserts is acceptable.
type Repository interface {
	// Upsert finds or creates the action row for (actor, target, kind).
	// The existing row has its UpdatedAt refreshed. Returns whether a new
	// row was created.
	Upsert(ctx context.Context, action *Action) (created bool, err error)

	// Delete removes the action row. Returns false when no row existed.
	Delete(ctx context.Context, actorID, targetID string, kind ActionKind) (found bool, err error)

	// ListByActor retrieves actions performed by the actor, newest first.
	ListByActor(ctx context.Context, actorID string, filter ListFilter) ([]*Action, error)

	// ListByTarget retrieves actions received by the target, newest first.
	ListByTarget(ctx context.Context, targetID string, filter ListFilter) ([]*Action, error)
}
