package viewledger

import "context"

// Repository defines the interface for ledger persistence.
//
// Spend is the one operation in the system needing a strict atomicity
// guarantee: the already-viewed check, balance check, decrement, and view
// record insert must be a single atomic unit with respect to concurrent
// spends by the same viewer. Spends by different viewers must not contend.
type Repository interface {
	// Spend records that viewer unlocked viewed, deducting one token if
	// this is a first view. Returns ErrInsufficientTokens when a first
	// view finds no balance; the balance never goes negative.
	Spend(ctx context.Context, viewerID, viewedID string) (SpendResult, error)

	// RemainingTokens returns the viewer's current balance.
	RemainingTokens(ctx context.Context, viewerID string) (int, error)

	// ListViewers retrieves up to limit view records targeting viewedID,
	// newest first.
	ListViewers(ctx context.Context, viewedID string, limit int) ([]*ViewRecord, error)
}
