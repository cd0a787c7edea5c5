package viewledger

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/sangamlabs/sangam/internal/member"
	"github.com/sangamlabs/sangam/internal/notification"
)

// Directory validates view targets against the member directory.
type Directory interface {
	GetActive(ctx context.Context, id string) (*member.Member, error)
}

// Emitter records a notification as a side effect of a spent view.
// Implemented by notification.Service.
type Emitter interface {
	Emit(ctx context.Context, recipientID, senderID string, kind notification.Kind, title, body, relatedID string) (*notification.Notification, error)
}

// ServiceConfig holds configuration for creating a Service.
type ServiceConfig struct {
	Repository Repository
	Directory  Directory

	// Emitter is optional; when nil, spent views produce no notification.
	Emitter Emitter

	Logger zerolog.Logger
}

// Service provides the view-token ledger operations.
type Service struct {
	repo      Repository
	directory Directory
	emitter   Emitter
	logger    zerolog.Logger
}

// NewService creates a new view-ledger service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repository,
		directory: cfg.Directory,
		emitter:   cfg.Emitter,
		logger:    cfg.Logger,
	}
}

// SpendViewToken unlocks targetID's profile for viewerID.
//
// Self-views and repeat views are free and report AlreadyUnlocked. A first
// view deducts exactly one token atomically; an exhausted balance returns
// ErrInsufficientTokens and the caller must fail closed, blocking the
// profile read. A spent first view emits a profile_viewed notification to
// the target, best-effort.
func (s *Service) SpendViewToken(ctx context.Context, viewerID, targetID string) (SpendResult, error) {
	if viewerID == targetID {
		return SpendResult{AlreadyUnlocked: true}, nil
	}

	if _, err := s.directory.GetActive(ctx, targetID); err != nil {
		if errors.Is(err, member.ErrMemberNotFound) || errors.Is(err, member.ErrMemberInactive) {
			return SpendResult{}, ErrTargetNotFound
		}
		return SpendResult{}, err
	}

	result, err := s.repo.Spend(ctx, viewerID, targetID)
	if err != nil {
		return SpendResult{}, err
	}

	// Only a paid first view notifies the target; idempotent re-views
	// stay silent.
	if result.Spent && s.emitter != nil {
		_, emitErr := s.emitter.Emit(ctx, targetID, viewerID,
			notification.KindProfileViewed,
			"Profile Viewed",
			"A member viewed your profile.",
			"")
		if emitErr != nil {
			s.logger.Warn().Err(emitErr).
				Str("viewer_id", viewerID).
				Str("target_id", targetID).
				Msg("failed to emit profile_viewed notification")
		}
	}

	return result, nil
}

// RemainingTokens returns the viewer's current balance.
func (s *Service) RemainingTokens(ctx context.Context, viewerID string) (int, error) {
	return s.repo.RemainingTokens(ctx, viewerID)
}

// ListViewers retrieves up to limit members who viewed the given profile,
// newest first.
func (s *Service) ListViewers(ctx context.Context, viewedID string, limit int) ([]*ViewRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.repo.ListViewers(ctx, viewedID, limit)
}
