package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "openai@localhost:11434"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst 1 is spent for this endpoint only
	if limiter.Allow("openai") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}
	if !limiter.Allow("openai@localhost:11434") {
		t.Errorf("expected allow for other endpoint")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	_ = limiter.Allow("slow")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "slow"); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("openai") {
			t.Fatalf("expected unlimited limiter to allow request %d", i)
		}
	}
}

func TestEndpointKey(t *testing.T) {
	tests := []struct {
		provider string
		baseURL  string
		expected string
		wantErr  bool
		desc     string
	}{
		{provider: "openai", baseURL: "", expected: "openai", desc: "default endpoint"},
		{provider: "openai", baseURL: "http://localhost:11434/v1", expected: "openai@localhost:11434", desc: "custom base url"},
		{provider: "openai", baseURL: "::invalid", wantErr: true, desc: "unparseable url"},
		{provider: "openai", baseURL: "/v1", wantErr: true, desc: "url without host"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := EndpointKey(tt.provider, tt.baseURL)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
