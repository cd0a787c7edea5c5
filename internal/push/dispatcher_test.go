package push_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sangamlabs/sangam/internal/push"
)

type fakeTokenSource struct {
	mu          sync.Mutex
	tokens      map[string][]string
	deactivated []string
	listErr     error
}

func (f *fakeTokenSource) ListActiveTokens(_ context.Context, memberIDs []string) (map[string][]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string][]string)
	for _, id := range memberIDs {
		if toks, ok := f.tokens[id]; ok {
			out[id] = toks
		}
	}
	return out, nil
}

func (f *fakeTokenSource) Deactivate(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, token)
	return nil
}

// fakeGateway treats tokens prefixed dead_ as unregistered and tokens
// prefixed slow_ as transient failures; everything else succeeds.
type fakeGateway struct {
	mu      sync.Mutex
	calls   [][]string
	sendErr error
}

func (f *fakeGateway) Send(_ context.Context, tokens []string, _ push.Payload) ([]push.TokenOutcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, tokens)
	f.mu.Unlock()

	if f.sendErr != nil {
		return nil, f.sendErr
	}

	outcomes := make([]push.TokenOutcome, len(tokens))
	for i, tok := range tokens {
		outcomes[i].Token = tok
		switch {
		case strings.HasPrefix(tok, "dead_"):
			outcomes[i].Err = errors.New("registration-token-not-registered")
			outcomes[i].PermanentFailure = true
		case strings.HasPrefix(tok, "slow_"):
			outcomes[i].Err = errors.New("quota exceeded")
		}
	}
	return outcomes, nil
}

type stuckFlag bool

func (f stuckFlag) IsPushSendingDisabled(context.Context) bool { return bool(f) }

func newDispatcher(gateway push.Gateway, tokens push.TokenSource, flags push.KillSwitch, chunkSize int) *push.Dispatcher {
	return push.NewDispatcher(push.DispatcherConfig{
		Gateway:   gateway,
		Tokens:    tokens,
		Flags:     flags,
		Logger:    zerolog.Nop(),
		ChunkSize: chunkSize,
	})
}

func TestDispatch_CountsAndPrunesDeadTokens(t *testing.T) {
	source := &fakeTokenSource{tokens: map[string][]string{
		"mem_1": {"tok_a", "dead_b", "slow_c", "tok_d", "dead_e"},
	}}
	gateway := &fakeGateway{}
	d := newDispatcher(gateway, source, nil, 0)

	result := d.DispatchToMember(context.Background(), "mem_1", push.Payload{Title: "t", Body: "b"})

	if result.Sent != 2 {
		t.Errorf("sent = %d, expected 2", result.Sent)
	}
	if result.Failed != 3 {
		t.Errorf("failed = %d, expected 3", result.Failed)
	}
	if result.Deactivated != 2 {
		t.Errorf("deactivated = %d, expected 2", result.Deactivated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected whole-call errors: %v", result.Errors)
	}

	if len(source.deactivated) != 2 {
		t.Fatalf("expected 2 registry deactivations, got %v", source.deactivated)
	}
	for _, tok := range source.deactivated {
		if !strings.HasPrefix(tok, "dead_") {
			t.Errorf("deactivated a live token: %s", tok)
		}
	}
}

func TestDispatch_NoDevicesIsNotAFailure(t *testing.T) {
	source := &fakeTokenSource{tokens: map[string][]string{}}
	gateway := &fakeGateway{}
	d := newDispatcher(gateway, source, nil, 0)

	result := d.DispatchToMember(context.Background(), "mem_1", push.Payload{Title: "t"})

	if result.Sent != 0 || result.Failed != 0 || len(result.Errors) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if len(gateway.calls) != 0 {
		t.Error("gateway should not be called with zero tokens")
	}
}

func TestDispatch_GatewayFailureIsContained(t *testing.T) {
	source := &fakeTokenSource{tokens: map[string][]string{
		"mem_1": {"tok_a", "tok_b"},
	}}
	gateway := &fakeGateway{sendErr: errors.New("gateway unreachable")}
	d := newDispatcher(gateway, source, nil, 0)

	result := d.DispatchToMember(context.Background(), "mem_1", push.Payload{Title: "t"})

	if result.Failed != 2 {
		t.Errorf("failed = %d, expected 2", result.Failed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 whole-call error, got %v", result.Errors)
	}
	if len(source.deactivated) != 0 {
		t.Errorf("transient failure must not prune tokens, got %v", source.deactivated)
	}
}

func TestDispatch_Chunking(t *testing.T) {
	tokens := make([]string, 5)
	for i := range tokens {
		tokens[i] = "tok_" + string(rune('a'+i))
	}
	source := &fakeTokenSource{tokens: map[string][]string{"mem_1": tokens}}
	gateway := &fakeGateway{}
	d := newDispatcher(gateway, source, nil, 2)

	result := d.DispatchToMember(context.Background(), "mem_1", push.Payload{Title: "t"})

	if result.Sent != 5 {
		t.Errorf("sent = %d, expected 5", result.Sent)
	}
	if len(gateway.calls) != 3 {
		t.Fatalf("expected 3 gateway calls, got %d", len(gateway.calls))
	}
	for i, call := range gateway.calls[:2] {
		if len(call) != 2 {
			t.Errorf("call %d carried %d tokens, expected 2", i, len(call))
		}
	}
	if len(gateway.calls[2]) != 1 {
		t.Errorf("final call carried %d tokens, expected 1", len(gateway.calls[2]))
	}
}

func TestDispatch_KillSwitchShortCircuits(t *testing.T) {
	source := &fakeTokenSource{tokens: map[string][]string{
		"mem_1": {"tok_a"},
	}}
	gateway := &fakeGateway{}
	d := newDispatcher(gateway, source, stuckFlag(true), 0)

	result := d.DispatchToMember(context.Background(), "mem_1", push.Payload{Title: "t"})

	if result.Sent != 0 || result.Failed != 0 {
		t.Errorf("expected empty result under kill switch, got %+v", result)
	}
	if len(gateway.calls) != 0 {
		t.Error("gateway must not be called while disabled")
	}
}

func TestDispatch_TokenResolutionError(t *testing.T) {
	source := &fakeTokenSource{listErr: errors.New("db down")}
	gateway := &fakeGateway{}
	d := newDispatcher(gateway, source, nil, 0)

	result := d.DispatchToMembers(context.Background(), []string{"mem_1", "mem_2"}, push.Payload{Title: "t"})

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if len(gateway.calls) != 0 {
		t.Error("gateway must not be called when resolution fails")
	}
}
