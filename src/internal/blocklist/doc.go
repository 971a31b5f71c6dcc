// Package blocklist maintains the set of blocked domains and keeps it fresh.
//
// A Cache owns the active set. Refresh fetches every configured Source into a
// new set without holding the cache lock and publishes it with a single swap,
// so Check never observes a partially built set. Check does not wait for a
// writer: if the lock is busy the domain is reported as not blocked.
//
// Sources share one line format. Everything from the first '#' is a comment,
// and the hostname is the last whitespace separated field on the line:
//
//	# comment
//	0.0.0.0 ads.example.com
//	tracker.example.org   # trailing comment
//
// A Scheduler refreshes the cache on a fixed interval or on demand, and a
// Watcher asks the scheduler for an early refresh when a file source changes.
//
//	cache := blocklist.NewCache(blocklist.NewSourcesFromConfig(cfg, nil), m)
//	if err := cache.Refresh(ctx); err != nil {
//	    log.Errorf("%v", err)
//	}
//	scheduler := blocklist.NewScheduler(cache, cfg.GetRefreshInterval())
//	go scheduler.Run(ctx)
package blocklist
