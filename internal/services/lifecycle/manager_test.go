package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessgraph/chessgraph/internal/chesscom"
	"github.com/chessgraph/chessgraph/internal/dependencies/mocks"
	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/services/discovery"
	"github.com/chessgraph/chessgraph/internal/services/fetcher"
	"github.com/chessgraph/chessgraph/internal/services/lifecycle"
	"github.com/chessgraph/chessgraph/internal/services/merge"
	"github.com/chessgraph/chessgraph/internal/services/quota"
	"github.com/chessgraph/chessgraph/internal/store/memory"
	"github.com/chessgraph/chessgraph/internal/testutil"
)

type fixture struct {
	manager *lifecycle.Manager
	store   *memory.Store
	clock   *mocks.MockClock
}

func newFixture(t *testing.T, provider *testutil.StubProvider, cfg lifecycle.Config) *fixture {
	t.Helper()

	logger := testutil.NopLogger()
	st := memory.New()
	clk := mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	client := chesscom.New(chesscom.Config{
		BaseURL:     provider.URL(),
		Concurrency: 1,
		Timeout:     5 * time.Second,
	}, nil, clk, logger)

	fetch := fetcher.New(client, fetcher.Config{BatchSize: 12}, logger)
	disc := discovery.New(fetch, discovery.Limits{MaxTotalPlayers: 100}, logger)
	merger := merge.New(st, client, clk, logger)
	monitor := quota.New(st, quota.Limits{
		PlayerCeiling:      1023,
		EdgeCeiling:        3298,
		MaxPlayersPerLevel: 100,
	}, logger)

	if cfg.Seed == "" {
		cfg.Seed = "magnuscarlsen"
	}
	if cfg.MaxLevel == 0 {
		cfg.MaxLevel = 1
	}
	if cfg.MaxMonthsHistorical == 0 {
		cfg.MaxMonthsHistorical = 120
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = 30 * 24 * time.Hour
	}
	if cfg.IncrementalLimit == 0 {
		cfg.IncrementalLimit = 1000
	}

	return &fixture{
		manager: lifecycle.New(st, fetch, disc, merger, monitor, clk, cfg, logger),
		store:   st,
		clock:   clk,
	}
}

func seededProvider(t *testing.T) *testutil.StubProvider {
	t.Helper()
	provider := testutil.NewStubProvider(t)
	provider.AddPlayer("magnuscarlsen",
		testutil.Game("magnuscarlsen", "a", 1700000000),
		testutil.Game("b", "magnuscarlsen", 1700001000),
	)
	provider.AddPlayer("a",
		testutil.Game("magnuscarlsen", "a", 1700000000),
	)
	// b exists only in the seed's games; the provider has no profile
	return provider
}

func TestHistoricalIngestionBuildsGraph(t *testing.T) {
	f := newFixture(t, seededProvider(t), lifecycle.Config{})
	ctx := context.Background()

	summary, err := f.manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, model.Username("magnuscarlsen"), summary.Seed)
	assert.Equal(t, 3, summary.PlayersDiscovered)
	assert.Equal(t, 3, summary.PlayersIngested)
	assert.Zero(t, summary.PlayersSkipped)
	assert.Equal(t, map[int]int{0: 1, 1: 2}, summary.LevelCounts)

	stats, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Players)
	assert.EqualValues(t, 2, stats.Edges)

	seed, err := f.store.GetPlayer(ctx, "magnuscarlsen")
	require.NoError(t, err)
	require.NotNil(t, seed.Distance)
	assert.Equal(t, 0, *seed.Distance)

	for _, username := range []model.Username{"a", "b"} {
		player, err := f.store.GetPlayer(ctx, username)
		require.NoError(t, err)
		require.NotNil(t, player.Distance)
		assert.Equal(t, 1, *player.Distance)
	}
}

func TestHistoricalIngestionWritesMetadata(t *testing.T) {
	f := newFixture(t, seededProvider(t), lifecycle.Config{MaxMonthsHistorical: 120})
	ctx := context.Background()

	_, err := f.manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	meta, err := f.store.GetMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.IngestionHistorical, meta.IngestionType)
	assert.Equal(t, f.clock.Now(), meta.LastRefreshed)
	assert.Equal(t, f.clock.Now().AddDate(0, -120, 0), meta.StoringFrom)
	assert.EqualValues(t, 3, meta.TotalPlayers)
	assert.EqualValues(t, 2, meta.TotalRelationships)
}

func TestPathToSeed(t *testing.T) {
	f := newFixture(t, seededProvider(t), lifecycle.Config{MaxLevel: 3})
	ctx := context.Background()

	_, err := f.manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	path, err := f.manager.PathToSeed(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []model.Username{"a", "magnuscarlsen"}, path)
}

func TestPathToSeedNoPath(t *testing.T) {
	provider := seededProvider(t)
	provider.AddPlayer("loner",
		testutil.Game("loner", "hermit", 1700002000),
	)

	f := newFixture(t, provider, lifecycle.Config{MaxLevel: 3})
	ctx := context.Background()

	_, err := f.manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	_, err = f.manager.PathToSeed(ctx, "loner")
	assert.ErrorIs(t, err, model.ErrNoPath)
}

func TestIncrementalUpdatePicksUpStalePlayers(t *testing.T) {
	provider := seededProvider(t)
	f := newFixture(t, provider, lifecycle.Config{})
	ctx := context.Background()

	_, err := f.manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	// 40 days later everyone is stale; a has played someone new
	f.clock.Advance(40 * 24 * time.Hour)
	provider.AddPlayerArchives("a",
		[]model.GameRecord{testutil.Game("magnuscarlsen", "a", 1700000000)},
		[]model.GameRecord{testutil.Game("a", "c", 1700050000)},
	)

	summary, err := f.manager.IncrementalUpdate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.PlayersUpdated)
	assert.Zero(t, summary.PlayersSkipped)

	c, err := f.store.GetPlayer(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, c.Distance)

	_, err = f.store.GetEdge(ctx, model.NewPairKey("a", "c"))
	require.NoError(t, err)

	meta, err := f.store.GetMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.IngestionIncremental, meta.IngestionType)
}

func TestIncrementalUpdateSkipsFreshPlayers(t *testing.T) {
	f := newFixture(t, seededProvider(t), lifecycle.Config{})
	ctx := context.Background()

	_, err := f.manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	summary, err := f.manager.IncrementalUpdate(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, summary.PlayersUpdated)
}

func TestIncrementalUpdateHonorsLimit(t *testing.T) {
	f := newFixture(t, seededProvider(t), lifecycle.Config{IncrementalLimit: 1})
	ctx := context.Background()

	_, err := f.manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	f.clock.Advance(40 * 24 * time.Hour)
	summary, err := f.manager.IncrementalUpdate(ctx, 1)
	require.NoError(t, err)

	// The seed sits at distance 0, so it goes first
	assert.Equal(t, 1, summary.PlayersUpdated)
	seed, err := f.store.GetPlayer(ctx, "magnuscarlsen")
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), seed.LastUpdated)
}

func TestCleanupOldData(t *testing.T) {
	f := newFixture(t, seededProvider(t), lifecycle.Config{})
	ctx := context.Background()

	_, err := f.manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	// All ingested games date from 2023; jump far enough that a
	// two-year window drops every edge
	f.clock.Set(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	result, err := f.manager.CleanupOldData(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.DeletedEdges)
	assert.EqualValues(t, 3, result.DeletedPlayers)

	stats, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Players)
	assert.Zero(t, stats.Edges)
}

func TestCleanupKeepsRecentEdges(t *testing.T) {
	f := newFixture(t, seededProvider(t), lifecycle.Config{})
	ctx := context.Background()

	_, err := f.manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	result, err := f.manager.CleanupOldData(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, result.DeletedEdges)
	assert.Zero(t, result.DeletedPlayers)
}
