package device

import "context"

// Repository defines the interface for registration persistence.
type Repository interface {
	// GetByKey retrieves the registration for (member, platform, token),
	// active or not. Returns nil when absent.
	GetByKey(ctx context.Context, memberID string, platform Platform, token string) (*Registration, error)

	// Create inserts a new registration.
	Create(ctx context.Context, reg *Registration) error

	// Update rewrites a registration's metadata and activity flag.
	Update(ctx context.Context, reg *Registration) error

	// DeactivateSlot deactivates every active registration for
	// (member, platform) holding a token other than keepToken, and
	// returns the number deactivated. A platform slot holds at most one
	// token believed current.
	DeactivateSlot(ctx context.Context, memberID string, platform Platform, keepToken string) (int64, error)

	// DeactivateByToken deactivates every active registration holding
	// the token, across members. Idempotent.
	DeactivateByToken(ctx context.Context, token string) error

	// ListActiveByMembers retrieves all active registrations for the
	// given members.
	ListActiveByMembers(ctx context.Context, memberIDs []string) ([]*Registration, error)

	// ListByMember retrieves a member's active registrations, most
	// recently updated first.
	ListByMember(ctx context.Context, memberID string) ([]*Registration, error)

	// DeactivateByID deactivates one registration owned by the member.
	// Returns false when no matching active row exists.
	DeactivateByID(ctx context.Context, id, memberID string) (bool, error)
}
