package push

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds circuit breaker configuration for the push gateway.
type BreakerConfig struct {
	// Name identifies the breaker in logs.
	Name string

	// MaxRequests is the number of probe requests allowed in half-open state.
	MaxRequests uint32

	// Timeout is the period of open state before switching to half-open.
	Timeout time.Duration

	Logger zerolog.Logger
}

// DefaultBreakerConfig returns the breaker defaults used for the gateway.
func DefaultBreakerConfig(log zerolog.Logger) BreakerConfig {
	return BreakerConfig{
		Name:        "push-gateway",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		Logger:      log,
	}
}

// BreakerGateway wraps a Gateway with a circuit breaker. When the gateway
// has been failing, sends are rejected locally instead of paying the network
// round trip; the dispatcher counts the rejection as a transient failure.
type BreakerGateway struct {
	next    Gateway
	breaker *gobreaker.CircuitBreaker[[]TokenOutcome]
}

// NewBreakerGateway wraps next with a circuit breaker.
func NewBreakerGateway(next Gateway, cfg BreakerConfig) *BreakerGateway {
	log := cfg.Logger
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("push gateway circuit breaker state changed")
		},
	}

	return &BreakerGateway{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]TokenOutcome](settings),
	}
}

// Send forwards to the wrapped gateway through the breaker. Per-token
// failures do not trip the breaker; only whole-call errors count.
func (g *BreakerGateway) Send(ctx context.Context, tokens []string, payload Payload) ([]TokenOutcome, error) {
	return g.breaker.Execute(func() ([]TokenOutcome, error) {
		return g.next.Send(ctx, tokens, payload)
	})
}

// Ensure BreakerGateway implements Gateway.
var _ Gateway = (*BreakerGateway)(nil)
