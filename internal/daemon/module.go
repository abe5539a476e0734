package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bashchat/bashchatd/internal/api"
	"github.com/bashchat/bashchatd/internal/auth"
	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/cache"
	"github.com/bashchat/bashchatd/internal/config"
	"github.com/bashchat/bashchatd/internal/conn"
	"github.com/bashchat/bashchatd/internal/dispatch"
	"github.com/bashchat/bashchatd/internal/lock"
	"github.com/bashchat/bashchatd/internal/logging"
	"github.com/bashchat/bashchatd/internal/outbound"
	"github.com/bashchat/bashchatd/internal/presence"
	"github.com/bashchat/bashchatd/internal/secure"
	"github.com/bashchat/bashchatd/internal/session"
	"github.com/bashchat/bashchatd/internal/state"
	"github.com/bashchat/bashchatd/internal/status"
	"github.com/bashchat/bashchatd/internal/wire"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	ServerAddr  string // optional override for testing; empty = use config
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideSecureStore,
			provideAuthClient,
			provideCache,
			provideCacheEngine,
			provideDispatcher,
			provideConnManager,
			provideCoordinator,
			provideWatcher,
			provideAPIServer,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideConfig(p Params) (*config.Config, error) {
	cfg, err := config.Resolve(session.ConfigPath())
	if err != nil {
		return nil, err
	}
	if p.ServerAddr != "" {
		cfg.ServerAddr = p.ServerAddr
	}
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(b *bus.Bus, logger *zap.Logger) *state.Store {
	return state.New(b, logger)
}

func provideSecureStore(p Params) *secure.Store {
	return secure.New(session.CredentialsDir(p.SessionName))
}

func provideAuthClient(cfg *config.Config, sec *secure.Store, st *state.Store, b *bus.Bus, logger *zap.Logger) *auth.Client {
	return auth.NewClient(cfg.ServerAddr, sec, st, b, logger)
}

func provideCache(p Params, logger *zap.Logger) (*cache.DB, error) {
	dbPath := session.CachePath(p.SessionName)
	db, err := cache.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("cache migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("cache migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("cache initialized", zap.String("path", dbPath))
	return db, nil
}

func provideCacheEngine(db *cache.DB, logger *zap.Logger) *cache.Engine {
	return cache.NewEngine(db, logger)
}

func provideDispatcher(st *state.Store, logger *zap.Logger) *dispatch.Dispatcher {
	return dispatch.New(st, logger)
}

func provideConnManager(cfg *config.Config, authc *auth.Client, machine *status.Machine, b *bus.Bus, d *dispatch.Dispatcher, engine *cache.Engine, logger *zap.Logger) *conn.Manager {
	// Every inbound frame feeds state first, then the cache mirror.
	fanout := func(f *wire.Frame) {
		d.Dispatch(f)
		engine.Ingest(f)
	}
	return conn.New(cfg.ServerAddr, authc, machine, b, fanout, logger)
}

func provideCoordinator(st *state.Store, m *conn.Manager, logger *zap.Logger) *outbound.Coordinator {
	return outbound.New(st, m, logger)
}

func provideWatcher(st *state.Store, b *bus.Bus, logger *zap.Logger) *presence.Watcher {
	return presence.NewWatcher(st, b, logger)
}

func provideAPIServer(st *state.Store, out *outbound.Coordinator, machine *status.Machine, m *conn.Manager, authc *auth.Client, db *cache.DB, logger *zap.Logger) *api.Server {
	return api.NewServer(st, out, machine, m, authc, db, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, manager *conn.Manager, engine *cache.Engine, watcher *presence.Watcher, authc *auth.Client, db *cache.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			engine.Start(context.Background())
			watcher.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("api server error", zap.Error(err))
				}
			}()

			// Resume the previous session in the background so startup
			// never blocks on the backend.
			go func() {
				ctx := context.Background()
				ok, err := authc.Resume(ctx)
				if err != nil {
					logger.Warn("session resume failed", zap.Error(err))
					return
				}
				if !ok {
					logger.Info("no stored credentials, sign in required")
					return
				}
				if err := manager.Connect(ctx); err != nil {
					logger.Warn("auto-connect failed", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			manager.Close()
			watcher.Stop()
			engine.Stop()
			srv.Stop(ctx)
			_ = db.Close()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
