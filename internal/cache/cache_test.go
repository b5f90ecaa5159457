package cache

import (
	"context"
	"testing"

	"github.com/bluepay/internal/config"
)

func TestDisabledCacheBypass(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	if err := SetBalance(ctx, &BalanceSnapshot{UserID: 1, ReferralEarnings: "150000.00"}, 0); err != nil {
		t.Fatalf("set balance should be a no-op: %v", err)
	}
	if _, hit, err := GetBalance(ctx, 1); err != nil || hit {
		t.Fatalf("expected miss without error, hit=%v err=%v", hit, err)
	}
	if err := InvalidateBalance(ctx, 1, 0, 2); err != nil {
		t.Fatalf("invalidate should be a no-op: %v", err)
	}
	if _, hit, err := GetUserAuthState(ctx, 1); err != nil || hit {
		t.Fatalf("expected auth state miss, hit=%v err=%v", hit, err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	old := redisPrefix
	t.Cleanup(func() { redisPrefix = old })
	redisPrefix = "bp"
	if got := buildKey(balanceKey(7)); got != "bp:balance:7" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := buildKey(userAuthStateKey(7)); got != "bp:auth:user:7" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestUserAuthStateRejectKey(t *testing.T) {
	var missing *UserAuthState
	if got := missing.RejectKey(0); got != "error.token_invalid" {
		t.Fatalf("nil state should be invalid, got %q", got)
	}
	state := &UserAuthState{UserID: 1, Status: "Active", TokenVersion: 3}
	if got := state.RejectKey(3); got != "" {
		t.Fatalf("active state with matching version should pass, got %q", got)
	}
	if got := state.RejectKey(2); got != "error.token_revoked" {
		t.Fatalf("stale token version should be revoked, got %q", got)
	}
	state.Status = "disabled"
	if got := state.RejectKey(3); got != "error.user_disabled" {
		t.Fatalf("disabled user should be rejected, got %q", got)
	}
}
