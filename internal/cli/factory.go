package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/adapters/sqlite"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
)

// Environment bundles what every command needs: config, logger and the document store.
type Environment struct {
	Config  config.Config
	Logger  *slog.Logger
	Store   ports.DocumentStore
	Locker  ports.DistributedLocker
	Metrics *observability.Metrics

	closers []func() error
}

// Setup loads the configuration for dir and opens the configured store.
// An empty configPath means <dir>/canopy.yaml.
func Setup(ctx context.Context, dir, configPath string) (*Environment, error) {
	if configPath == "" {
		configPath = filepath.Join(dir, config.DefaultFile)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Resolve(dir)

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	env := &Environment{Config: cfg, Logger: logger}
	if err := env.openStore(ctx); err != nil {
		return nil, err
	}
	return env, nil
}

func (e *Environment) openStore(ctx context.Context) error {
	sc := e.Config.Store
	var store ports.DocumentStore

	switch sc.Backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile:
		store = file.New(sc.Path)
	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, sqlite.Config{Path: sc.Path})
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		e.closers = append(e.closers, s.Close)
		store = s
	case config.BackendRedis:
		opts := []redis.Option{redis.WithPrefix(sc.Redis.Prefix)}
		if sc.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(sc.Redis.TTL))
		}
		s := redis.New(sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB, opts...)
		e.closers = append(e.closers, s.Close)
		e.Locker = redis.NewLocker(s.Client(), sc.Redis.Prefix)
		store = s
	default:
		return fmt.Errorf("unknown store backend %q", sc.Backend)
	}

	var mws []middleware.Middleware
	if len(sc.Redact) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(sc.Redact))
	}
	active, fallback, err := sc.Keys()
	if err != nil {
		return err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	e.Store = middleware.Chain(store, mws...)
	e.Logger.Debug("document store ready", "backend", sc.Backend, "middlewares", len(mws))
	return nil
}

// EnableMetrics creates the metrics registry shared by builders made afterwards.
func (e *Environment) EnableMetrics() *observability.Metrics {
	if e.Metrics == nil {
		e.Metrics = observability.NewMetrics(observability.WithRuntimeCollectors())
	}
	return e.Metrics
}

// NewBuilder creates a builder wired to the environment. A non-empty docID loads
// that document when it exists.
func (e *Environment) NewBuilder(ctx context.Context, docID string, extra ...canopy.Option) (*canopy.Builder, error) {
	reg := registry.NewDefault(registry.WithLogger(e.Logger))
	if e.Config.Catalog != "" {
		n, err := reg.LoadCatalogFile(e.Config.Catalog)
		if err != nil {
			return nil, err
		}
		e.Logger.Debug("catalog loaded", "path", e.Config.Catalog, "types", n)
	}

	opts := []canopy.Option{
		canopy.WithLogger(e.Logger),
		canopy.WithRegistry(reg),
		canopy.WithStore(e.Store),
		canopy.WithHistoryLimits(e.Config.History.Max, e.Config.History.Trim),
		canopy.WithFilterCache(e.Config.Hooks.FilterCacheSize),
		canopy.WithMinIntersectionRatio(e.Config.Collision.MinIntersectionRatio),
	}
	if e.Locker != nil {
		opts = append(opts, canopy.WithLocker(e.Locker))
	}
	if e.Config.Store.LockTTL > 0 {
		opts = append(opts, canopy.WithLockTTL(e.Config.Store.LockTTL))
	}
	if e.Metrics != nil {
		opts = append(opts, canopy.WithMetrics(e.Metrics))
	}
	if docID != "" {
		opts = append(opts, canopy.WithDocumentID(docID))
	}
	b := canopy.New(append(opts, extra...)...)

	if docID != "" {
		err := b.Load(ctx, docID)
		if err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, err
		}
	}
	return b, nil
}

// Close releases store connections.
func (e *Environment) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
