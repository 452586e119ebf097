package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNew_BurstIsATenthOfTheBudget(t *testing.T) {
	l := New("kraken", 600)
	for i := 0; i < 60; i++ {
		if !l.Allow() {
			t.Fatalf("call %d refused inside the burst", i+1)
		}
	}
	if l.Allow() {
		t.Error("call beyond the burst was allowed immediately")
	}
}

func TestNew_NonPositiveBudgetFallsBack(t *testing.T) {
	l := New("coinbase", 0)
	for i := 0; i < 6; i++ {
		if !l.Allow() {
			t.Fatalf("call %d refused inside the 60/min burst of 6", i+1)
		}
	}
	if l.Allow() {
		t.Error("seventh call was allowed immediately")
	}
	if l.Name() != "coinbase" {
		t.Errorf("Name() = %q", l.Name())
	}
}

func TestWait_HonoursDeadline(t *testing.T) {
	l := New("crypto.com", 1)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected the second Wait to fail within a 20ms deadline")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait blocked for %s", elapsed)
	}
}

func TestWait_DoneContextGetsNoToken(t *testing.T) {
	l := New("coinbase", 60)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx); err == nil {
		t.Fatal("Wait on a cancelled context returned nil")
	}
	for i := 0; i < 6; i++ {
		if !l.Allow() {
			t.Fatalf("call %d refused: the cancelled Wait consumed a token", i+1)
		}
	}
}
