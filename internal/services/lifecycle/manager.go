package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/chessgraph/chessgraph/internal/dependencies/clock"
	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/services/discovery"
	"github.com/chessgraph/chessgraph/internal/services/fetcher"
	"github.com/chessgraph/chessgraph/internal/services/merge"
	"github.com/chessgraph/chessgraph/internal/services/quota"
	"github.com/chessgraph/chessgraph/internal/store"
)

// Config bounds the lifecycle runs
type Config struct {
	Seed                model.Username
	MaxLevel            int
	MaxMonthsHistorical int
	// StaleAfter is how old a player's LastUpdated must be before an
	// incremental run picks them up
	StaleAfter time.Duration
	// IncrementalLimit caps how many stale players one incremental run
	// re-ingests
	IncrementalLimit int
}

// HistoricalSummary reports what a historical ingestion run covered
type HistoricalSummary struct {
	Seed              model.Username `json:"seed"`
	PlayersDiscovered int            `json:"players_discovered"`
	PlayersIngested   int            `json:"players_ingested"`
	PlayersSkipped    int            `json:"players_skipped"`
	EdgesMerged       int            `json:"edges_merged"`
	LevelCounts       map[int]int    `json:"level_counts"`
}

// IncrementalSummary reports what an incremental update run covered
type IncrementalSummary struct {
	Months         int `json:"months"`
	PlayersUpdated int `json:"players_updated"`
	PlayersSkipped int `json:"players_skipped"`
	EdgesMerged    int `json:"edges_merged"`
}

// Manager drives the ingestion lifecycle: historical backfill,
// incremental refresh, usage monitoring and age-based cleanup
type Manager struct {
	store      store.Store
	fetcher    *fetcher.Service
	discoverer *discovery.Discoverer
	merger     *merge.Service
	monitor    *quota.Monitor
	clock      clock.Clock
	cfg        Config
	logger     *slog.Logger
}

// New creates a lifecycle manager
func New(st store.Store, fetch *fetcher.Service, disc *discovery.Discoverer, merger *merge.Service, monitor *quota.Monitor, clk clock.Clock, cfg Config, logger *slog.Logger) *Manager {
	return &Manager{
		store:      st,
		fetcher:    fetch,
		discoverer: disc,
		merger:     merger,
		monitor:    monitor,
		clock:      clk,
		cfg:        cfg,
		logger:     logger,
	}
}

// IngestHistorical discovers the graph outward from seed and ingests
// every discovered player's full game history, level by level. A
// player whose ingestion fails is logged and skipped; store
// connectivity failures abort the run.
func (m *Manager) IngestHistorical(ctx context.Context, seed model.Username) (*HistoricalSummary, error) {
	if seed == "" {
		seed = m.cfg.Seed
	}
	seed = model.NormalizeUsername(string(seed))

	if err := m.store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	m.logger.Info("starting historical ingestion",
		slog.String("seed", string(seed)),
		slog.Int("max_level", m.cfg.MaxLevel),
	)

	result, err := m.discoverer.Discover(ctx, seed, m.cfg.MaxLevel)
	if err != nil {
		return nil, fmt.Errorf("discovering from %s: %w", seed, err)
	}

	summary := &HistoricalSummary{
		Seed:              seed,
		PlayersDiscovered: result.Total(),
		LevelCounts:       make(map[int]int, len(result.Levels)),
	}

	for _, level := range sortedLevels(result.Levels) {
		players := sortedUsernames(result.Levels[level])
		summary.LevelCounts[level] = len(players)

		for _, player := range players {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			edges, err := m.ingestPlayer(ctx, player, 0, level)
			if err != nil {
				summary.PlayersSkipped++
				m.logger.Warn("skipping player during historical ingestion",
					slog.String("username", string(player)),
					slog.Int("level", level),
					slog.String("error", err.Error()),
				)
				continue
			}
			summary.PlayersIngested++
			summary.EdgesMerged += edges
		}

		m.logger.Info("ingested level",
			slog.Int("level", level),
			slog.Int("players", len(players)),
		)
	}

	if err := m.saveMetadata(ctx, model.IngestionHistorical); err != nil {
		return nil, err
	}
	return summary, nil
}

// IncrementalUpdate re-ingests recent archives for players whose data
// has gone stale, nearest to the seed first
func (m *Manager) IncrementalUpdate(ctx context.Context, months int) (*IncrementalSummary, error) {
	if months <= 0 {
		months = 1
	}

	olderThan := m.clock.Now().Add(-m.cfg.StaleAfter)
	stale, err := m.store.StalePlayers(ctx, olderThan, m.cfg.IncrementalLimit)
	if err != nil {
		return nil, fmt.Errorf("listing stale players: %w", err)
	}

	m.logger.Info("starting incremental update",
		slog.Int("stale_players", len(stale)),
		slog.Int("months", months),
	)

	summary := &IncrementalSummary{Months: months}
	for _, player := range stale {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		edges, err := m.ingestPlayer(ctx, player, months, -1)
		if err != nil {
			summary.PlayersSkipped++
			m.logger.Warn("skipping player during incremental update",
				slog.String("username", string(player)),
				slog.String("error", err.Error()),
			)
			continue
		}
		summary.PlayersUpdated++
		summary.EdgesMerged += edges
	}

	if err := m.saveMetadata(ctx, model.IngestionIncremental); err != nil {
		return nil, err
	}
	return summary, nil
}

// IngestRecent ingests one player's last months of games on demand
func (m *Manager) IngestRecent(ctx context.Context, username model.Username, months int) (int, error) {
	return m.ingestPlayer(ctx, model.NormalizeUsername(string(username)), months, -1)
}

// PathToSeed ingests the player's most recent month so a fresh edge can
// connect them, then resolves the shortest stored path to the seed
func (m *Manager) PathToSeed(ctx context.Context, username model.Username) ([]model.Username, error) {
	username = model.NormalizeUsername(string(username))

	if _, err := m.ingestPlayer(ctx, username, 1, -1); err != nil {
		m.logger.Warn("ingestion before path lookup failed",
			slog.String("username", string(username)),
			slog.String("error", err.Error()),
		)
	}
	return m.store.ShortestPath(ctx, username, m.cfg.Seed, m.cfg.MaxLevel)
}

// MonitorStorageUsage reports current storage usage
func (m *Manager) MonitorStorageUsage(ctx context.Context) (*model.UsageReport, error) {
	return m.monitor.Usage(ctx)
}

// CleanupOldData deletes edges older than maxAgeYears and any players
// left with no edges at all
func (m *Manager) CleanupOldData(ctx context.Context, maxAgeYears int) (*model.CleanupResult, error) {
	if maxAgeYears <= 0 {
		maxAgeYears = 5
	}
	cutoff := m.clock.Now().AddDate(-maxAgeYears, 0, 0)

	edges, err := m.store.DeleteEdgesBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("deleting old edges: %w", err)
	}
	players, err := m.store.DeleteOrphanPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("deleting orphan players: %w", err)
	}

	m.logger.Info("cleanup finished",
		slog.Int("max_age_years", maxAgeYears),
		slog.Int64("deleted_games", edges),
		slog.Int64("deleted_players", players),
	)
	return &model.CleanupResult{DeletedEdges: edges, DeletedPlayers: players}, nil
}

// ingestPlayer fetches a player's games (full history when months <= 0)
// and merges them. distance < 0 means the discovery level is unknown.
func (m *Manager) ingestPlayer(ctx context.Context, username model.Username, months, distance int) (int, error) {
	var (
		games []model.GameRecord
		err   error
	)
	if months > 0 {
		games, err = m.fetcher.RecentGames(ctx, username, months)
	} else {
		games, err = m.fetcher.AllGames(ctx, username)
	}
	if err != nil {
		return 0, err
	}

	var d *int
	if distance >= 0 {
		d = &distance
	}
	return m.merger.MergeGames(ctx, username, games, d)
}

func (m *Manager) saveMetadata(ctx context.Context, ingestionType string) error {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading stats for metadata: %w", err)
	}

	now := m.clock.Now()
	meta := &model.IngestionMetadata{
		LastRefreshed:      now,
		StoringFrom:        now.AddDate(0, -m.cfg.MaxMonthsHistorical, 0),
		IngestionType:      ingestionType,
		TotalPlayers:       stats.Players,
		TotalRelationships: stats.Edges,
	}
	if err := m.store.SaveMetadata(ctx, meta); err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}
	return nil
}

func sortedLevels(levels map[int]map[model.Username]struct{}) []int {
	out := make([]int, 0, len(levels))
	for level := range levels {
		out = append(out, level)
	}
	sort.Ints(out)
	return out
}

func sortedUsernames(set map[model.Username]struct{}) []model.Username {
	out := make([]model.Username, 0, len(set))
	for username := range set {
		out = append(out, username)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
