package blocklist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
	"github.com/maksimkurb/tinydnsproxy/src/internal/metrics"
	"github.com/maksimkurb/tinydnsproxy/src/internal/testutil"
)

// fakeSource serves a fixed host list. If release is set, Fetch signals
// started and waits on release after emitting its hosts.
type fakeSource struct {
	name    string
	hosts   []string
	err     error
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (s *fakeSource) String() string {
	return s.name
}

func (s *fakeSource) Fetch(ctx context.Context, add func(string)) error {
	s.calls.Add(1)
	for _, h := range s.hosts {
		add(h)
	}
	if s.release != nil {
		s.started <- struct{}{}
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

func TestCache_EmptyBeforeRefresh(t *testing.T) {
	cache := NewCache(nil, nil)

	if cache.Check("example.com") {
		t.Error("Expected empty cache to block nothing")
	}
	if err := cache.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh() with no sources error = %v", err)
	}
	if cache.Size() != 0 {
		t.Errorf("Size() = %d, want 0", cache.Size())
	}
}

func TestCache_FailingSourceDoesNotAbortRefresh(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	unreachable := server.URL
	server.Close()

	path := testutil.WriteFile(t, t.TempDir(), "list.txt", []byte("0.0.0.0 ads.example.com\ntracker.example.org\n"))

	cache := NewCache([]Source{
		NewHTTPSource(unreachable, nil),
		NewFileSource(path),
	}, metrics.New())

	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	for _, domain := range []string{"ads.example.com", "tracker.example.org"} {
		if !cache.Check(domain) {
			t.Errorf("Expected %s to be blocked", domain)
		}
	}

	stats := cache.Stats()
	if stats.Domains != 2 {
		t.Errorf("Stats().Domains = %d, want 2", stats.Domains)
	}
	if len(stats.Sources) != 2 {
		t.Fatalf("Expected 2 source stats, got %d", len(stats.Sources))
	}
	if stats.Sources[0].LastError == "" {
		t.Error("Expected the unreachable source to report an error")
	}
	if stats.Sources[1].Entries != 2 || stats.Sources[1].LastError != "" {
		t.Errorf("Unexpected file source stats: %+v", stats.Sources[1])
	}
}

func TestCache_CheckIsExactMatch(t *testing.T) {
	cache := NewCache([]Source{&fakeSource{name: "fake", hosts: []string{"example.com"}}}, nil)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	tests := []struct {
		domain  string
		blocked bool
	}{
		{"example.com", true},
		{"sub.example.com", false},
		{"example.com.", false},
		{"com", false},
	}
	for _, tt := range tests {
		if got := cache.Check(tt.domain); got != tt.blocked {
			t.Errorf("Check(%q) = %v, want %v", tt.domain, got, tt.blocked)
		}
	}
}

func TestCache_RefreshReplacesSet(t *testing.T) {
	src := &fakeSource{name: "fake", hosts: []string{"old.example", "kept.example"}}
	cache := NewCache([]Source{src}, nil)

	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	checksum := cache.Stats().Checksum

	src.hosts = []string{"kept.example", "new.example"}
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if cache.Check("old.example") {
		t.Error("Expected entries removed from the source to disappear")
	}
	if !cache.Check("kept.example") || !cache.Check("new.example") {
		t.Error("Expected current entries to be blocked")
	}
	if cache.Stats().Checksum == checksum {
		t.Error("Expected checksum to change with the content")
	}
}

func TestCache_RefreshInProgressIsInvisible(t *testing.T) {
	slow := &fakeSource{
		name:    "slow",
		hosts:   []string{"new.example"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	cache := NewCache([]Source{slow}, nil)
	cache.domains.Put("old.example")

	done := make(chan error, 1)
	go func() { done <- cache.Refresh(context.Background()) }()
	<-slow.started

	if !cache.Check("old.example") {
		t.Error("Expected the previous set to stay active during refresh")
	}
	if cache.Check("new.example") {
		t.Error("Expected no entries of a refresh in progress to be visible")
	}

	err := cache.Refresh(context.Background())
	if !errors.Is(err, apperrors.ErrSync) {
		t.Errorf("Expected overlapping refresh to fail with ErrSync, got %v", err)
	}

	close(slow.release)
	if err := <-done; err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if cache.Check("old.example") || !cache.Check("new.example") {
		t.Error("Expected the new set to be active after refresh")
	}
	if got := slow.calls.Load(); got != 1 {
		t.Errorf("Expected exactly one fetch, got %d", got)
	}
}

func TestCache_CheckFailsOpenWhileLocked(t *testing.T) {
	cache := NewCache(nil, nil)
	cache.domains.Put("blocked.example")

	cache.mu.Lock()
	blocked := cache.Check("blocked.example")
	cache.mu.Unlock()

	if blocked {
		t.Error("Expected Check to report not blocked while the set is locked")
	}
	if !cache.Check("blocked.example") {
		t.Error("Expected Check to block after the lock is released")
	}
}

func TestCache_CanceledRefreshKeepsSet(t *testing.T) {
	slow := &fakeSource{
		name:    "slow",
		hosts:   []string{"new.example"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	cache := NewCache([]Source{slow}, nil)
	cache.domains.Put("old.example")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cache.Refresh(ctx) }()
	<-slow.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Refresh did not return after cancel")
	}

	if !cache.Check("old.example") || cache.Check("new.example") {
		t.Error("Expected a canceled refresh to leave the set untouched")
	}
}
