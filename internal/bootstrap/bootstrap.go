// Package bootstrap assembles a running game from the configuration.
package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/myrjola/unsolved/internal/ai"
	"github.com/myrjola/unsolved/internal/broker"
	"github.com/myrjola/unsolved/internal/cases"
	"github.com/myrjola/unsolved/internal/config"
	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/game"
	"github.com/myrjola/unsolved/internal/kvstore"
	"github.com/myrjola/unsolved/internal/logging"
	"github.com/myrjola/unsolved/internal/metrics"
	"github.com/myrjola/unsolved/internal/random"
	"github.com/myrjola/unsolved/internal/saves"
	"github.com/myrjola/unsolved/internal/sqlite"
	"github.com/myrjola/unsolved/internal/suspects"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	eventBuffer       = 256
	optimizerInterval = time.Hour
)

// Runtime is everything a command needs to play or inspect a game.
type Runtime struct {
	Config   config.Config
	Logger   *slog.Logger
	Store    kvstore.Store
	Registry *prometheus.Registry
	Metrics  *metrics.GameMetrics
	Catalog  *cases.Catalog
	Events   *broker.Broker[game.Event]
	Game     *game.Controller

	cancel  context.CancelFunc
	closers []func() error
}

// New connects the configured store and starts a game whose presentation events are published on Events.
// Close releases everything.
func New(ctx context.Context, cfg config.Config, logOutput io.Writer) (*Runtime, error) {
	ctx, cancel := context.WithCancel(ctx)
	rt := &Runtime{
		Config:   cfg,
		Logger:   logging.NewLogger(logOutput, logging.ParseLevel(cfg.LogLevel)),
		Registry: prometheus.NewRegistry(),
		cancel:   cancel,
	}
	rt.Metrics = metrics.NewGameMetrics(rt.Registry)

	var err error
	if rt.Store, err = rt.openStore(ctx); err != nil {
		return nil, errors.Join(err, rt.Close(ctx))
	}
	if rt.Catalog, err = cases.Load(); err != nil {
		return nil, errors.Join(err, rt.Close(ctx))
	}

	rt.Events = broker.New[game.Event](eventBuffer)
	go rt.Events.Start()
	rt.closers = append(rt.closers, func() error {
		rt.Events.Stop()
		return nil
	})

	var rng random.Source = random.NewSource()
	if cfg.Seed != 0 {
		rng = random.NewSeeded(uint64(cfg.Seed)) //nolint:gosec // any seed is fine
	}

	presenter := game.NewBrokerPresenter(rt.Events)
	rt.Game, err = game.New(ctx, rt.Logger, game.Dependencies{
		Store:     rt.Store,
		RNG:       rng,
		Metrics:   rt.Metrics,
		Catalog:   rt.Catalog,
		Now:       time.Now,
		Audio:     presenter,
		Overlay:   presenter,
		Messages:  presenter,
		Responses: rt.responses(),
	}, game.Options{
		StartHour: cfg.StartHour,
		Sanity:    cfg.NewSanity(),
		Saves: saves.Options{
			CorruptionChance:  cfg.CorruptionChance,
			Policy:            cfg.Policy(),
			AutosaveRetention: saves.DefaultAutosaveRetention,
		},
	})
	if err != nil {
		return nil, errors.Join(errors.Wrap(err, "start game"), rt.Close(ctx))
	}
	return rt, nil
}

// FromEnv loads the configuration from the environment and calls New.
func FromEnv(ctx context.Context, logOutput io.Writer) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, logOutput)
}

func (rt *Runtime) openStore(ctx context.Context) (kvstore.Store, error) {
	switch rt.Config.Store {
	case config.StoreMemory:
		return kvstore.NewMemory(), nil
	case config.StoreSQLite:
		db, err := sqlite.NewDatabase(ctx, rt.Config.SQLiteURL, rt.Logger)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite", slog.String("url", rt.Config.SQLiteURL))
		}
		rt.closers = append(rt.closers, db.Close)
		go db.StartOptimizer(ctx, optimizerInterval)
		return kvstore.NewSQLite(db, rt.Logger), nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: rt.Config.RedisAddr}) //nolint:exhaustruct
		rt.closers = append(rt.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrap(err, "ping redis", slog.String("addr", rt.Config.RedisAddr))
		}
		return kvstore.NewRedis(client, rt.Config.RedisPrefix), nil
	}
	return nil, errors.Wrap(config.ErrInvalidConfig, "unknown store", slog.String("store", rt.Config.Store))
}

// responses lets a language model voice the suspects when an API key is configured.
func (rt *Runtime) responses() game.ResponseWrapper {
	if rt.Config.OpenAIAPIKey == "" {
		return nil
	}
	client := ai.NewClient(rt.Config.OpenAIAPIKey, rt.Config.OpenAIBaseURL, rt.Config.OpenAIModel)
	return func(c *cases.Case) suspects.ResponseSource {
		return ai.NewResponder(client, c, rt.Logger)
	}
}

// Close stops the game and releases the store. It is safe to call more than once and on a partially built
// Runtime.
func (rt *Runtime) Close(ctx context.Context) error {
	if rt.Game != nil {
		rt.Game.Destroy(ctx)
	}
	rt.cancel()
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if len(errs) > 0 {
		return errors.Wrap(errors.Join(errs...), "close runtime")
	}
	return nil
}
