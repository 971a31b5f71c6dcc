package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maksimkurb/tinydnsproxy/src/internal/api"
	"github.com/maksimkurb/tinydnsproxy/src/internal/blocklist"
	"github.com/maksimkurb/tinydnsproxy/src/internal/config"
	"github.com/maksimkurb/tinydnsproxy/src/internal/dnsproxy"
	"github.com/maksimkurb/tinydnsproxy/src/internal/log"
	"github.com/maksimkurb/tinydnsproxy/src/internal/metrics"
	"github.com/maksimkurb/tinydnsproxy/src/internal/upstream"
)

const apiShutdownTimeout = 5 * time.Second

func CreateServiceCommand() *ServiceCommand {
	return &ServiceCommand{
		fs: flag.NewFlagSet("service", flag.ExitOnError),
	}
}

type ServiceCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config
	ctx *AppContext

	metrics   *metrics.Metrics
	providers *upstream.Providers
	cache     *blocklist.Cache
	scheduler *blocklist.Scheduler
	watcher   *blocklist.Watcher
	apiServer *api.Server
	dnsProxy  *dnsproxy.DNSProxy
}

func (s *ServiceCommand) Name() string {
	return s.fs.Name()
}

func (s *ServiceCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	s.cfg = cfg

	providers, err := upstream.NewProvidersFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to load DoT providers: %w", err)
	}
	s.providers = providers

	s.metrics = metrics.New()
	sources := blocklist.NewSourcesFromConfig(cfg, nil)
	s.cache = blocklist.NewCache(sources, s.metrics)
	s.scheduler = blocklist.NewScheduler(s.cache, cfg.GetRefreshInterval())

	if cfg.General.WatchFileLists {
		if paths := blocklist.FilePaths(sources); len(paths) > 0 {
			watcher, err := blocklist.NewWatcher(paths, s.scheduler.Trigger)
			if err != nil {
				log.Warnf("File block lists will not be watched: %v", err)
			} else {
				s.watcher = watcher
			}
		}
	}

	proxyConfig := dnsproxy.ProxyConfigFromAppConfig(cfg)
	s.dnsProxy = dnsproxy.NewDNSProxy(proxyConfig, s.cache, s.providers,
		upstream.NewClient(cfg.GetUpstreamTimeout()), s.metrics)

	if cfg.General.APIListen != "" {
		s.apiServer = api.NewServer(cfg.General.APIListen, api.NewRouter(api.Deps{
			BlockList:  s.cache,
			Refresher:  s.scheduler,
			Providers:  s.providers,
			Metrics:    s.metrics,
			ListenAddr: proxyConfig.ListenAddr,
			Workers:    proxyConfig.Workers,
		}))
	}

	return nil
}

func (s *ServiceCommand) Run() error {
	ctx, stop := signalContext()
	defer stop()

	return s.run(ctx)
}

// run performs the first block list sync, binds the listeners and serves until
// ctx is canceled or the DNS proxy fails.
func (s *ServiceCommand) run(ctx context.Context) error {
	log.Infof("Starting tinydnsproxy %s with %d DoT provider(s)", api.Version, s.providers.Len())

	if err := s.cache.Refresh(ctx); err != nil {
		log.Errorf("Initial block list sync failed: %v", err)
	}

	if err := s.dnsProxy.Listen(); err != nil {
		return fmt.Errorf("failed to start DNS proxy: %w", err)
	}

	if s.apiServer != nil {
		if err := s.apiServer.Listen(); err != nil {
			log.Errorf("Failed to start API server: %v", err)
			log.Warnf("Status API will not be available")
			s.apiServer = nil
		} else {
			log.Infof("Status API listening on %s", s.apiServer.Addr())
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.scheduler.Run(gctx)
		return nil
	})

	if s.watcher != nil {
		g.Go(func() error {
			s.watcher.Run(gctx)
			return nil
		})
	}

	if s.apiServer != nil {
		g.Go(s.apiServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), apiShutdownTimeout)
			defer cancel()
			return s.apiServer.Stop(shutdownCtx)
		})
	}

	g.Go(func() error {
		return s.dnsProxy.Serve(gctx)
	})

	err := g.Wait()
	if err != nil {
		log.Errorf("Service stopped with error: %v", err)
		return err
	}

	log.Infof("Service stopped")
	return nil
}
