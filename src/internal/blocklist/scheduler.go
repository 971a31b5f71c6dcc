package blocklist

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
	"github.com/maksimkurb/tinydnsproxy/src/internal/log"
)

const defaultPollInterval = 5 * time.Second

// Scheduler refreshes a Cache once the refresh interval has elapsed since the
// previous pass, checking every poll interval.
type Scheduler struct {
	cache        *Cache
	interval     time.Duration
	pollInterval time.Duration
	trigger      chan struct{}
}

func NewScheduler(cache *Cache, interval time.Duration) *Scheduler {
	return &Scheduler{
		cache:        cache,
		interval:     interval,
		pollInterval: defaultPollInterval,
		trigger:      make(chan struct{}, 1),
	}
}

// Trigger requests a refresh on the next loop iteration. Requests made while
// one is pending are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done. The elapsed time marker starts when Run is
// called and is reset after every refresh attempt, successful or not.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	lastRefresh := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			log.Infof("Block list refresh requested")
		case <-ticker.C:
			if time.Since(lastRefresh) < s.interval {
				continue
			}
		}

		s.refresh(ctx)
		lastRefresh = time.Now()
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	err := s.cache.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrSync):
		log.Warnf("Skipping block list refresh: %v", err)
	case ctx.Err() != nil:
		log.Debugf("Block list refresh interrupted: %v", err)
	default:
		log.Errorf("Block list refresh failed: %v", err)
	}
}
