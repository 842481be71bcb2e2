package app

import (
	"context"
	"time"

	"github.com/brunodmn/threadchat/internal/api"
	"github.com/brunodmn/threadchat/internal/bus"
	"github.com/brunodmn/threadchat/internal/chat"
	"github.com/brunodmn/threadchat/internal/config"
	"github.com/brunodmn/threadchat/internal/lock"
	"github.com/brunodmn/threadchat/internal/logging"
	"github.com/brunodmn/threadchat/internal/profilecache"
	"github.com/brunodmn/threadchat/internal/push"
	"github.com/brunodmn/threadchat/internal/session"
	"github.com/brunodmn/threadchat/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
}

// Module returns the fx module for the client, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("threadchat",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideCache,
			provideAPIClient,
			provideStore,
			provideCoordinator,
			provideEnricher,
			provideSearchResolver,
			provideEngine,
			provideStateMachine,
			providePushClient,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	// Console output is off: stderr belongs to the terminal UI.
	return logging.New(session.LogPath(p.Profile), p.Profile, false)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(session.LockPath(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideCache(p Params, cfg *config.Config, logger *zap.Logger) (*profilecache.Cache, error) {
	if cfg.CacheMaxAgeMinutes == 0 {
		logger.Info("profile cache disabled")
		return nil, nil
	}
	dbPath := session.CacheDBPath(p.Profile)
	cache, err := profilecache.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := cache.Migrate()
	if err != nil {
		_ = cache.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("cache migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("cache migrations up to date", zap.Uint("version", result.Version))
	}
	maxAge := time.Duration(cfg.CacheMaxAgeMinutes) * time.Minute
	if err := cache.Prune(maxAge); err != nil {
		logger.Warn("pruning stale cache entries failed", zap.Error(err))
	}
	logger.Info("profile cache initialized", zap.String("path", dbPath))
	return cache, nil
}

func provideAPIClient(cfg *config.Config, cache *profilecache.Cache, logger *zap.Logger) (*api.Client, error) {
	opts := []api.Option{}
	if cache != nil {
		maxAge := time.Duration(cfg.CacheMaxAgeMinutes) * time.Minute
		opts = append(opts, api.WithCache(cache, maxAge))
	}
	return api.New(cfg.ServerURL, cfg.Token, logger, opts...)
}

func provideStore(b *bus.Bus) *chat.Store {
	return chat.NewStore(b)
}

func provideCoordinator(b *bus.Bus) *chat.Coordinator {
	return chat.NewCoordinator(b)
}

func provideEnricher(client *api.Client, b *bus.Bus, logger *zap.Logger) *chat.Enricher {
	return chat.NewEnricher(client, b, logger)
}

func provideSearchResolver(store *chat.Store, sel *chat.Coordinator, client *api.Client, cfg *config.Config, logger *zap.Logger) *chat.SearchResolver {
	return chat.NewSearchResolver(store, sel, client, cfg.UserID, logger)
}

func provideEngine(store *chat.Store, enricher *chat.Enricher, client *api.Client, b *bus.Bus, logger *zap.Logger) *chat.Engine {
	return chat.NewEngine(store, enricher, client, b, logger)
}

func provideStateMachine(b *bus.Bus) *push.Machine {
	return push.NewMachine(b)
}

func providePushClient(cfg *config.Config, b *bus.Bus, machine *push.Machine, logger *zap.Logger) (*push.Client, error) {
	return push.NewClient(cfg.ServerURL, cfg.Token, b, machine, logger)
}

func provideApp(b *bus.Bus, engine *chat.Engine, enricher *chat.Enricher, sel *chat.Coordinator, search *chat.SearchResolver, p Params, logger *zap.Logger) *tui.App {
	return tui.NewApp(b, engine, enricher, sel, search, p.Profile, logger)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, cache *profilecache.Cache, engine *chat.Engine, pushClient *push.Client, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The engine must subscribe before the push channel opens so
			// no early event slips past it.
			engine.Start(context.Background())
			pushClient.Start(context.Background())
			return nil
		},
		OnStop: func(_ context.Context) error {
			pushClient.Stop()
			engine.Stop()
			if cache != nil {
				if err := cache.Close(); err != nil {
					logger.Warn("error closing profile cache", zap.Error(err))
				}
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
