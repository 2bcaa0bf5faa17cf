package factory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/chessgraph/chessgraph/internal/chesscom"
	"github.com/chessgraph/chessgraph/internal/config"
	"github.com/chessgraph/chessgraph/internal/dependencies/clock"
	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/scheduler"
	"github.com/chessgraph/chessgraph/internal/services/discovery"
	"github.com/chessgraph/chessgraph/internal/services/fetcher"
	"github.com/chessgraph/chessgraph/internal/services/lifecycle"
	"github.com/chessgraph/chessgraph/internal/services/merge"
	"github.com/chessgraph/chessgraph/internal/services/quota"
	"github.com/chessgraph/chessgraph/internal/store"
	"github.com/chessgraph/chessgraph/internal/store/memory"
	neo4jstore "github.com/chessgraph/chessgraph/internal/store/neo4j"
)

// archiveCacheTTL bounds how long a cached closed-month archive lives.
// Closed months never change; the TTL only caps cache growth.
const archiveCacheTTL = 30 * 24 * time.Hour

// staleAfter is how old a player's data must be before an incremental
// run refreshes it
const staleAfter = 30 * 24 * time.Hour

// incrementalLimit caps players re-ingested per incremental run
const incrementalLimit = 1000

// App contains all wired application components
type App struct {
	Store store.Store
	Clock clock.Clock

	Client     *chesscom.Client
	Fetcher    *fetcher.Service
	Discoverer *discovery.Discoverer
	Merger     *merge.Service
	Monitor    *quota.Monitor
	Manager    *lifecycle.Manager
	Scheduler  *scheduler.Scheduler

	cache chesscom.ArchiveCache
}

// New creates a new application with all dependencies wired from config
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var st store.Store
	switch cfg.StoreType {
	case config.StoreTypeMemory:
		st = memory.New()
	case config.StoreTypeNeo4j:
		neo4j, err := neo4jstore.New(ctx, neo4jstore.Config{
			URI:      cfg.Neo4jURI,
			User:     cfg.Neo4jUser,
			Password: cfg.Neo4jPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to neo4j: %w", err)
		}
		st = neo4j
	default:
		return nil, fmt.Errorf("invalid store type %q", cfg.StoreType)
	}

	var cache chesscom.ArchiveCache
	if cfg.RedisURL != "" {
		redisCache, err := chesscom.NewRedisCache(cfg.RedisURL, archiveCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		cache = redisCache
	}

	return newWithDependencies(st, cache, clock.New(), cfg, logger), nil
}

// newWithDependencies wires the services around the given store, cache
// and clock (useful for testing)
func newWithDependencies(st store.Store, cache chesscom.ArchiveCache, clk clock.Clock, cfg config.Config, logger *slog.Logger) *App {
	client := chesscom.New(chesscom.Config{
		BaseURL:     cfg.ProviderBaseURL,
		Concurrency: int64(cfg.FetchConcurrency),
		Timeout:     30 * time.Second,
	}, cache, clk, logger)

	fetch := fetcher.New(client, fetcher.Config{
		BatchSize:  cfg.EffectiveBatchSize(),
		BatchPause: cfg.BatchPause,
	}, logger)

	limits := discovery.Limits{MaxTotalPlayers: cfg.MaxTotalPlayers}
	if cfg.ReducedResources {
		limits.MaxPlayersPerRun = cfg.MaxPlayersPerRun
		limits.LevelTruncate = cfg.LevelTruncate
	}
	disc := discovery.New(fetch, limits, logger)

	merger := merge.New(st, client, clk, logger)
	monitor := quota.New(st, quota.Limits{
		PlayerCeiling:      cfg.PlayerCeiling,
		EdgeCeiling:        cfg.EdgeCeiling,
		MaxPlayersPerLevel: int64(cfg.MaxPlayersPerLevel),
	}, logger)

	seed := model.NormalizeUsername(cfg.SeedPlayer)
	manager := lifecycle.New(st, fetch, disc, merger, monitor, clk, lifecycle.Config{
		Seed:                seed,
		MaxLevel:            cfg.MaxLevel,
		MaxMonthsHistorical: cfg.MaxMonthsHistorical,
		StaleAfter:          staleAfter,
		IncrementalLimit:    incrementalLimit,
	}, logger)

	return &App{
		Store:      st,
		Clock:      clk,
		Client:     client,
		Fetcher:    fetch,
		Discoverer: disc,
		Merger:     merger,
		Monitor:    monitor,
		Manager:    manager,
		Scheduler:  scheduler.New(manager, seed, logger),
		cache:      cache,
	}
}

// Close releases the app's external connections
func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache: %w", err))
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
