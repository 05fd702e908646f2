package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Burst(t *testing.T) {
	l := New(60) // 1 rps, burst 6

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow() {
			allowed++
		}
	}
	if allowed != 6 {
		t.Errorf("allowed = %d, want 6", allowed)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	l := New(0)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("request %d rejected by unlimited limiter", i)
		}
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := NewWithBurst(0.001, 1)
	_ = l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("Wait should fail when the next token is beyond the deadline")
	}
}
