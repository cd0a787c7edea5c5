package device

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	MemberID    string
	Platform    Platform
	PushToken   string
	DeviceLabel string
	IP          string
}

// Service provides the device registry operations. It satisfies
// push.TokenSource: the dispatcher resolves tokens and reports dead ones
// back through it.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new device registry service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register upserts a registration keyed on (member, platform, token).
//
// A matching active row has its metadata refreshed; an inactive one is
// reactivated. A genuinely new token first deactivates any other active
// token in the same (member, platform) slot, since a device reinstalling
// the app gets a fresh token and the old one would otherwise pile up.
// Returns the registration and whether a new row was created.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Registration, bool, error) {
	if strings.TrimSpace(input.PushToken) == "" {
		return nil, false, ErrTokenRequired
	}
	if _, ok := ParsePlatform(string(input.Platform)); !ok {
		return nil, false, ErrInvalidPlatform
	}

	now := time.Now()

	existing, err := s.repo.GetByKey(ctx, input.MemberID, input.Platform, input.PushToken)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		if input.DeviceLabel != "" {
			existing.DeviceLabel = input.DeviceLabel
		}
		existing.LastKnownIP = input.IP
		existing.IsActive = true
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	superseded, err := s.repo.DeactivateSlot(ctx, input.MemberID, input.Platform, input.PushToken)
	if err != nil {
		return nil, false, err
	}
	if superseded > 0 {
		s.logger.Info().
			Str("member_id", input.MemberID).
			Str("platform", string(input.Platform)).
			Int64("superseded", superseded).
			Msg("deactivated superseded device tokens")
	}

	reg := &Registration{
		ID:          uuid.New().String(),
		MemberID:    input.MemberID,
		PushToken:   input.PushToken,
		Platform:    input.Platform,
		DeviceLabel: input.DeviceLabel,
		LastKnownIP: input.IP,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, false, err
	}
	return reg, true, nil
}

// ListActiveTokens resolves members to their active push tokens, dropping
// placeholder values so callers never pay a gateway round trip for tokens
// known a priori to be junk.
func (s *Service) ListActiveTokens(ctx context.Context, memberIDs []string) (map[string][]string, error) {
	regs, err := s.repo.ListActiveByMembers(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	for _, reg := range regs {
		if IsPlaceholderToken(reg.PushToken) {
			continue
		}
		out[reg.MemberID] = append(out[reg.MemberID], reg.PushToken)
	}
	return out, nil
}

// Deactivate marks every registration holding the token as dead.
// Idempotent: an already-inactive or unknown token is a no-op.
func (s *Service) Deactivate(ctx context.Context, token string) error {
	return s.repo.DeactivateByToken(ctx, token)
}

// ListForMember retrieves a member's active registrations.
func (s *Service) ListForMember(ctx context.Context, memberID string) ([]*Registration, error) {
	return s.repo.ListByMember(ctx, memberID)
}

// Unregister deactivates one registration owned by the member. Returns
// false when no matching active registration exists.
func (s *Service) Unregister(ctx context.Context, id, memberID string) (bool, error) {
	return s.repo.DeactivateByID(ctx, id, memberID)
}
