package device_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sangamlabs/sangam/internal/device"
)

func newRegistry(t *testing.T) *device.Service {
	t.Helper()
	return device.NewService(device.NewInMemoryRepository(), zerolog.Nop())
}

func register(t *testing.T, svc *device.Service, memberID string, platform device.Platform, token string) *device.Registration {
	t.Helper()
	reg, _, err := svc.Register(context.Background(), device.RegisterInput{
		MemberID:  memberID,
		Platform:  platform,
		PushToken: token,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return reg
}

func TestRegister_NewToken(t *testing.T) {
	svc := newRegistry(t)

	reg, created, err := svc.Register(context.Background(), device.RegisterInput{
		MemberID:    "mem_1",
		Platform:    device.PlatformMobile,
		PushToken:   "tok_abcd1234",
		DeviceLabel: "Pixel 8",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !created {
		t.Error("expected created=true for a new token")
	}
	if !reg.IsActive {
		t.Error("expected registration to be active")
	}
	if reg.TokenLast4() != "1234" {
		t.Errorf("token last4 = %q, expected 1234", reg.TokenLast4())
	}
}

func TestRegister_RefreshIsNotCreate(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()

	first := register(t, svc, "mem_1", device.PlatformMobile, "tok_1")

	reg, created, err := svc.Register(ctx, device.RegisterInput{
		MemberID:    "mem_1",
		Platform:    device.PlatformMobile,
		PushToken:   "tok_1",
		DeviceLabel: "Pixel 8 Pro",
	})
	if err != nil {
		t.Fatalf("second register failed: %v", err)
	}
	if created {
		t.Error("expected created=false on refresh")
	}
	if reg.ID != first.ID {
		t.Errorf("refresh returned id %s, expected %s", reg.ID, first.ID)
	}
	if reg.DeviceLabel != "Pixel 8 Pro" {
		t.Errorf("expected label refresh, got %q", reg.DeviceLabel)
	}

	regs, err := svc.ListForMember(ctx, "mem_1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(regs) != 1 {
		t.Errorf("expected a single row after refresh, got %d", len(regs))
	}
}

func TestRegister_NewTokenSupersedesSlot(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()

	register(t, svc, "mem_1", device.PlatformMobile, "tok_old")
	// App reinstall on the same device issues a fresh token.
	register(t, svc, "mem_1", device.PlatformMobile, "tok_new")
	// A web registration lives in its own slot.
	register(t, svc, "mem_1", device.PlatformWeb, "tok_web")

	tokens, err := svc.ListActiveTokens(ctx, []string{"mem_1"})
	if err != nil {
		t.Fatalf("list tokens failed: %v", err)
	}
	got := tokens["mem_1"]
	if len(got) != 2 {
		t.Fatalf("expected 2 active tokens, got %v", got)
	}
	for _, tok := range got {
		if tok == "tok_old" {
			t.Error("superseded token still active")
		}
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, device.RegisterInput{
		MemberID: "mem_1",
		Platform: device.PlatformMobile,
	})
	if err != device.ErrTokenRequired {
		t.Errorf("empty token: got %v, expected ErrTokenRequired", err)
	}

	_, _, err = svc.Register(ctx, device.RegisterInput{
		MemberID:  "mem_1",
		Platform:  "desktop",
		PushToken: "tok_1",
	})
	if err != device.ErrInvalidPlatform {
		t.Errorf("bad platform: got %v, expected ErrInvalidPlatform", err)
	}
}

func TestListActiveTokens_FiltersPlaceholders(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()

	register(t, svc, "mem_1", device.PlatformMobile, "tok_real")
	register(t, svc, "mem_1", device.PlatformWeb, "web_fcm_token_12345")
	register(t, svc, "mem_2", device.PlatformMobile, "fcm_token_placeholder")

	tokens, err := svc.ListActiveTokens(ctx, []string{"mem_1", "mem_2"})
	if err != nil {
		t.Fatalf("list tokens failed: %v", err)
	}
	if got := tokens["mem_1"]; len(got) != 1 || got[0] != "tok_real" {
		t.Errorf("mem_1 tokens = %v, expected only tok_real", got)
	}
	if _, ok := tokens["mem_2"]; ok {
		t.Error("mem_2 should have no usable tokens")
	}
}

func TestDeactivate_Idempotent(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()

	register(t, svc, "mem_1", device.PlatformMobile, "tok_dead")

	if err := svc.Deactivate(ctx, "tok_dead"); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if err := svc.Deactivate(ctx, "tok_dead"); err != nil {
		t.Fatalf("repeat deactivate failed: %v", err)
	}
	if err := svc.Deactivate(ctx, "tok_never_seen"); err != nil {
		t.Fatalf("unknown token deactivate failed: %v", err)
	}

	tokens, err := svc.ListActiveTokens(ctx, []string{"mem_1"})
	if err != nil {
		t.Fatalf("list tokens failed: %v", err)
	}
	if len(tokens["mem_1"]) != 0 {
		t.Errorf("expected no active tokens, got %v", tokens["mem_1"])
	}
}

func TestUnregister(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()

	reg := register(t, svc, "mem_1", device.PlatformMobile, "tok_1")

	// Another member cannot release it.
	found, err := svc.Unregister(ctx, reg.ID, "mem_2")
	if err != nil {
		t.Fatalf("unregister failed: %v", err)
	}
	if found {
		t.Error("expected found=false for foreign member")
	}

	found, err = svc.Unregister(ctx, reg.ID, "mem_1")
	if err != nil {
		t.Fatalf("unregister failed: %v", err)
	}
	if !found {
		t.Error("expected found=true for owner")
	}

	found, err = svc.Unregister(ctx, reg.ID, "mem_1")
	if err != nil {
		t.Fatalf("repeat unregister failed: %v", err)
	}
	if found {
		t.Error("expected found=false once deactivated")
	}
}
