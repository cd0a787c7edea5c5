package push

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// fcmMulticastCeiling is the provider's per-call token limit.
const fcmMulticastCeiling = 500

// TokenSource resolves member IDs to active device tokens and accepts
// deactivations discovered during delivery. Implemented by the device
// registry service.
type TokenSource interface {
	ListActiveTokens(ctx context.Context, memberIDs []string) (map[string][]string, error)
	Deactivate(ctx context.Context, token string) error
}

// KillSwitch reports whether push sending is administratively disabled.
type KillSwitch interface {
	IsPushSendingDisabled(ctx context.Context) bool
}

// DispatchResult summarizes one delivery attempt.
type DispatchResult struct {
	// Sent is the number of tokens the gateway accepted the message for.
	Sent int

	// Failed is the number of tokens that did not receive this attempt,
	// transient and permanent failures alike. No retry is performed.
	Failed int

	// Deactivated is the number of permanently-dead tokens pruned from
	// the registry as a result of this attempt.
	Deactivated int

	// Errors carries whole-call failures (gateway unreachable, chunk
	// send error). Per-token failures are counted, not collected.
	Errors []error
}

// DispatcherConfig holds configuration for creating a Dispatcher.
type DispatcherConfig struct {
	Gateway Gateway
	Tokens  TokenSource

	// Flags is optional; when set, a raised kill switch short-circuits
	// dispatch with an empty result.
	Flags KillSwitch

	// Metrics is optional; when set, dispatch outcomes are recorded.
	Metrics *Metrics

	Logger zerolog.Logger

	// SendTimeout bounds each gateway call. Default 10s.
	SendTimeout time.Duration

	// ChunkSize caps tokens per gateway call. Default 500 (FCM ceiling).
	ChunkSize int
}

// Dispatcher fans notifications out to member devices. Delivery is
// best-effort and at-most-once per attempt: failures are counted and
// logged, never propagated to the caller's primary request path.
type Dispatcher struct {
	gateway     Gateway
	tokens      TokenSource
	flags       KillSwitch
	metrics     *Metrics
	logger      zerolog.Logger
	sendTimeout time.Duration
	chunkSize   int
}

// NewDispatcher creates a new push dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 || chunkSize > fcmMulticastCeiling {
		chunkSize = fcmMulticastCeiling
	}

	return &Dispatcher{
		gateway:     cfg.Gateway,
		tokens:      cfg.Tokens,
		flags:       cfg.Flags,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		sendTimeout: sendTimeout,
		chunkSize:   chunkSize,
	}
}

// DispatchToMember delivers the payload to all of one member's devices.
func (d *Dispatcher) DispatchToMember(ctx context.Context, memberID string, payload Payload) DispatchResult {
	return d.DispatchToMembers(ctx, []string{memberID}, payload)
}

// DispatchToMembers delivers the payload to every device of every listed
// member. Members without a registered device contribute nothing to the
// result; that is not a failure. Tokens the gateway reports as permanently
// invalid are deactivated in the registry regardless of the overall outcome.
func (d *Dispatcher) DispatchToMembers(ctx context.Context, memberIDs []string, payload Payload) DispatchResult {
	var result DispatchResult

	if d.flags != nil && d.flags.IsPushSendingDisabled(ctx) {
		d.logger.Info().Msg("push sending disabled by flag, skipping dispatch")
		return result
	}

	byMember, err := d.tokens.ListActiveTokens(ctx, memberIDs)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to resolve device tokens")
		result.Errors = append(result.Errors, err)
		return result
	}

	var tokens []string
	for _, memberTokens := range byMember {
		tokens = append(tokens, memberTokens...)
	}
	if len(tokens) == 0 {
		return result
	}

	for start := 0; start < len(tokens); start += d.chunkSize {
		end := start + d.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		d.sendChunk(ctx, tokens[start:end], payload, &result)
	}

	d.logger.Info().
		Int("members", len(memberIDs)).
		Int("tokens", len(tokens)).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Int("deactivated", result.Deactivated).
		Msg("push dispatch complete")

	if d.metrics != nil {
		d.metrics.RecordDispatch(result, payload.Data["kind"])
	}

	return result
}

func (d *Dispatcher) sendChunk(ctx context.Context, tokens []string, payload Payload, result *DispatchResult) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	outcomes, err := d.gateway.Send(sendCtx, tokens, payload)
	if err != nil {
		// Whole-call failure: gateway unreachable, timeout, open breaker.
		// Transient for every token in the chunk.
		d.logger.Warn().Err(err).Int("tokens", len(tokens)).Msg("push gateway send failed")
		result.Failed += len(tokens)
		result.Errors = append(result.Errors, err)
		return
	}

	for _, outcome := range outcomes {
		if outcome.Err == nil {
			result.Sent++
			continue
		}

		result.Failed++
		if !outcome.PermanentFailure {
			d.logger.Debug().Err(outcome.Err).Msg("transient push failure")
			continue
		}

		// Reconciliation: the token is dead, prune it. Uses the parent
		// context so registry writes survive the send timeout.
		if err := d.tokens.Deactivate(ctx, outcome.Token); err != nil {
			d.logger.Error().Err(err).Msg("failed to deactivate dead token")
			continue
		}
		result.Deactivated++
		d.logger.Info().Str("token_last4", tokenLast4(outcome.Token)).Msg("deactivated dead device token")
	}
}

func tokenLast4(token string) string {
	if len(token) < 4 {
		return token
	}
	return token[len(token)-4:]
}
