package push_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamlabs/sangam/internal/push"
)

type countingGateway struct {
	calls   atomic.Int32
	sendErr error
}

func (g *countingGateway) Send(_ context.Context, tokens []string, _ push.Payload) ([]push.TokenOutcome, error) {
	g.calls.Add(1)
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	outcomes := make([]push.TokenOutcome, len(tokens))
	for i, tok := range tokens {
		outcomes[i].Token = tok
	}
	return outcomes, nil
}

func TestBreakerGateway_PassesThroughSuccess(t *testing.T) {
	inner := &countingGateway{}
	gateway := push.NewBreakerGateway(inner, push.DefaultBreakerConfig(zerolog.Nop()))

	outcomes, err := gateway.Send(context.Background(), []string{"tok_a", "tok_b"}, push.Payload{Title: "t"})
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestBreakerGateway_PerTokenFailuresDoNotTrip(t *testing.T) {
	inner := &countingGateway{}
	gateway := push.NewBreakerGateway(inner, push.DefaultBreakerConfig(zerolog.Nop()))

	// Per-token outcomes carry errors but the call itself succeeds; the
	// breaker must stay closed no matter how many of these go through.
	for i := 0; i < 20; i++ {
		_, err := gateway.Send(context.Background(), []string{"dead_a"}, push.Payload{Title: "t"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(20), inner.calls.Load())
}

func TestBreakerGateway_TripsOnRepeatedFailure(t *testing.T) {
	inner := &countingGateway{sendErr: errors.New("gateway unreachable")}
	gateway := push.NewBreakerGateway(inner, push.BreakerConfig{
		Name:        "test-breaker",
		MaxRequests: 1,
		Timeout:     time.Minute,
		Logger:      zerolog.Nop(),
	})

	for i := 0; i < 5; i++ {
		_, err := gateway.Send(context.Background(), []string{"tok_a"}, push.Payload{Title: "t"})
		require.Error(t, err)
	}

	callsBeforeTrip := inner.calls.Load()

	// Open breaker rejects locally without touching the gateway.
	_, err := gateway.Send(context.Background(), []string{"tok_a"}, push.Payload{Title: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBeforeTrip, inner.calls.Load())
}
