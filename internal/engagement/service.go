package engagement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sangamlabs/sangam/internal/member"
	"github.com/sangamlabs/sangam/internal/notification"
)

// Directory validates action targets against the member directory.
type Directory interface {
	GetActive(ctx context.Context, id string) (*member.Member, error)
}

// Emitter records a notification as a side effect of a created action.
// Implemented by notification.Service.
type Emitter interface {
	Emit(ctx context.Context, recipientID, senderID string, kind notification.Kind, title, body, relatedID string) (*notification.Notification, error)
}

// ServiceConfig holds configuration for creating a Service.
type ServiceConfig struct {
	Repository Repository
	Directory  Directory

	// Emitter is optional; when nil, created actions produce no
	// notifications.
	Emitter Emitter

	Logger zerolog.Logger
}

// Service provides the engagement store operations.
type Service struct {
	repo      Repository
	directory Directory
	emitter   Emitter
	logger    zerolog.Logger
}

// NewService creates a new engagement service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repository,
		directory: cfg.Directory,
		emitter:   cfg.Emitter,
		logger:    cfg.Logger,
	}
}

// UpsertAction records kind from actor towards target. Re-issuing the same
// kind refreshes the existing row and reports Created=false; that is not an
// error. A freshly created interest, accept, or shortlist notifies the
// target; reject is a private signal and never does. Notification failure
// is logged and swallowed; the action row is the source of truth.
func (s *Service) UpsertAction(ctx context.Context, actorID, targetID string, kind ActionKind) (UpsertResult, error) {
	if _, ok := ParseActionKind(string(kind)); !ok {
		return UpsertResult{}, ErrInvalidKind
	}
	if actorID == targetID {
		return UpsertResult{}, ErrSelfAction
	}

	if _, err := s.directory.GetActive(ctx, targetID); err != nil {
		if errors.Is(err, member.ErrMemberNotFound) || errors.Is(err, member.ErrMemberInactive) {
			return UpsertResult{}, ErrTargetNotFound
		}
		return UpsertResult{}, err
	}

	now := time.Now()
	action := &Action{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		TargetID:  targetID,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Upsert(ctx, action)
	if err != nil {
		return UpsertResult{}, err
	}

	if created {
		s.notifyTarget(ctx, action)
	}

	return UpsertResult{Action: action, Created: created}, nil
}

// WithdrawAction removes the (actor, target, kind) row. Absence is not an
// error; the call reports found=false and has no side effects.
func (s *Service) WithdrawAction(ctx context.Context, actorID, targetID string, kind ActionKind) (bool, error) {
	if _, ok := ParseActionKind(string(kind)); !ok {
		return false, ErrInvalidKind
	}
	return s.repo.Delete(ctx, actorID, targetID, kind)
}

// ListByActor retrieves actions performed by the actor, newest first,
// optionally filtered by kind.
func (s *Service) ListByActor(ctx context.Context, actorID string, kind ActionKind) ([]*Action, error) {
	return s.repo.ListByActor(ctx, actorID, ListFilter{Kind: kind})
}

// ListByTarget retrieves actions received by the target, newest first,
// optionally filtered by kind.
func (s *Service) ListByTarget(ctx context.Context, targetID string, kind ActionKind) ([]*Action, error) {
	return s.repo.ListByTarget(ctx, targetID, ListFilter{Kind: kind})
}

func (s *Service) notifyTarget(ctx context.Context, action *Action) {
	if s.emitter == nil {
		return
	}

	var (
		kind  notification.Kind
		title string
		body  string
	)
	switch action.Kind {
	case KindInterest:
		kind = notification.KindInterestReceived
		title = "New Interest Received"
		body = "A member has sent you an interest."
	case KindAccept:
		kind = notification.KindInterestAccepted
		title = "Interest Accepted"
		body = "A member has accepted your interest!"
	case KindShortlist:
		kind = notification.KindShortlisted
		title = "Profile Shortlisted"
		body = "A member has shortlisted your profile."
	default:
		// reject stays private.
		return
	}

	_, err := s.emitter.Emit(ctx, action.TargetID, action.ActorID, kind, title, body, action.ID)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("action_id", action.ID).
			Str("kind", string(action.Kind)).
			Msg("failed to emit action notification")
	}
}
