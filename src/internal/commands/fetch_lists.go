package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/maksimkurb/tinydnsproxy/src/internal/blocklist"
	"github.com/maksimkurb/tinydnsproxy/src/internal/config"
)

func CreateFetchListsCommand() *FetchListsCommand {
	return &FetchListsCommand{
		fs: flag.NewFlagSet("fetch-lists", flag.ExitOnError),
	}
}

// FetchListsCommand runs a single refresh pass and reports what each source contributed.
type FetchListsCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config
	ctx *AppContext
}

func (c *FetchListsCommand) Name() string {
	return c.fs.Name()
}

func (c *FetchListsCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	return nil
}

func (c *FetchListsCommand) Run() error {
	ctx, stop := signalContext()
	defer stop()

	cache, err := refreshOnce(ctx, c.cfg)
	if err != nil {
		return err
	}

	out := c.ctx.out()
	stats := cache.Stats()
	for _, src := range stats.Sources {
		if src.LastError != "" {
			fmt.Fprintf(out, "%s: %d entries, error: %s\n", src.Source, src.Entries, src.LastError)
			continue
		}
		fmt.Fprintf(out, "%s: %d entries\n", src.Source, src.Entries)
	}
	fmt.Fprintf(out, "Total: %d unique domains (checksum %s, took %s)\n",
		stats.Domains, stats.Checksum, stats.LastDuration.Round(time.Millisecond))

	return nil
}

// refreshOnce builds a cache from the configured sources and runs one refresh pass.
func refreshOnce(ctx context.Context, cfg *config.Config) (*blocklist.Cache, error) {
	cache := blocklist.NewCache(blocklist.NewSourcesFromConfig(cfg, nil), nil)
	if err := cache.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to refresh block lists: %w", err)
	}
	return cache, nil
}
