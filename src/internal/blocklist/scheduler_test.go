package blocklist

import (
	"context"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestScheduler_RefreshesAfterInterval(t *testing.T) {
	src := &fakeSource{name: "fake", hosts: []string{"ads.example"}}
	cache := NewCache([]Source{src}, nil)

	s := NewScheduler(cache, 30*time.Millisecond)
	s.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, "two refreshes", func() bool { return src.calls.Load() >= 2 })
	if !cache.Check("ads.example") {
		t.Error("Expected scheduled refresh to publish entries")
	}
}

func TestScheduler_WaitsForInterval(t *testing.T) {
	src := &fakeSource{name: "fake"}
	s := NewScheduler(NewCache([]Source{src}, nil), time.Hour)
	s.pollInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()

	if got := src.calls.Load(); got != 0 {
		t.Errorf("Expected no refresh before the interval elapsed, got %d", got)
	}
}

func TestScheduler_Trigger(t *testing.T) {
	src := &fakeSource{name: "fake"}
	s := NewScheduler(NewCache([]Source{src}, nil), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Trigger()
	waitFor(t, "triggered refresh", func() bool { return src.calls.Load() == 1 })

	s.Trigger()
	waitFor(t, "second triggered refresh", func() bool { return src.calls.Load() == 2 })
}

func TestScheduler_TriggerDoesNotBlock(t *testing.T) {
	s := NewScheduler(NewCache(nil, nil), time.Hour)

	for i := 0; i < 10; i++ {
		s.Trigger()
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	s := NewScheduler(NewCache(nil, nil), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
