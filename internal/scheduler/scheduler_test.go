package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessgraph/chessgraph/internal/chesscom"
	"github.com/chessgraph/chessgraph/internal/dependencies/mocks"
	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/scheduler"
	"github.com/chessgraph/chessgraph/internal/services/discovery"
	"github.com/chessgraph/chessgraph/internal/services/fetcher"
	"github.com/chessgraph/chessgraph/internal/services/lifecycle"
	"github.com/chessgraph/chessgraph/internal/services/merge"
	"github.com/chessgraph/chessgraph/internal/services/quota"
	"github.com/chessgraph/chessgraph/internal/store/memory"
	"github.com/chessgraph/chessgraph/internal/testutil"
)

func newScheduler(t *testing.T, limits quota.Limits) (*scheduler.Scheduler, *lifecycle.Manager, *memory.Store, *mocks.MockClock) {
	t.Helper()

	provider := testutil.NewStubProvider(t)
	provider.AddPlayer("magnuscarlsen",
		testutil.Game("magnuscarlsen", "a", 1700000000),
	)
	provider.AddPlayer("a",
		testutil.Game("magnuscarlsen", "a", 1700000000),
	)

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

	manager := lifecycle.New(st, fetch, disc, merge.New(st, client, clk, logger),
		quota.New(st, limits, logger), clk, lifecycle.Config{
			Seed:                "magnuscarlsen",
			MaxLevel:            1,
			MaxMonthsHistorical: 120,
			StaleAfter:          30 * 24 * time.Hour,
			IncrementalLimit:    1000,
		}, logger)

	return scheduler.New(manager, "magnuscarlsen", logger), manager, st, clk
}

func TestMonthlyUpdateRefreshesStalePlayers(t *testing.T) {
	s, manager, st, clk := newScheduler(t, quota.Limits{PlayerCeiling: 1000, EdgeCeiling: 1000})
	ctx := context.Background()

	_, err := manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	clk.Advance(40 * 24 * time.Hour)
	s.RunMonthlyUpdate(ctx)

	seed, err := st.GetPlayer(ctx, "magnuscarlsen")
	require.NoError(t, err)
	assert.Equal(t, clk.Now(), seed.LastUpdated)
}

func TestMonthlyUpdateTriggersAutoCleanup(t *testing.T) {
	// Ceiling of 2 puts 2 players at 100% usage, past the cleanup
	// threshold; the ingested games are old enough for a 3 year window
	s, manager, st, clk := newScheduler(t, quota.Limits{PlayerCeiling: 2, EdgeCeiling: 1000})
	ctx := context.Background()

	_, err := manager.IngestHistorical(ctx, "")
	require.NoError(t, err)

	clk.Set(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	s.RunMonthlyUpdate(ctx)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Edges)
}

func TestWeeklyCheckRefreshesSeed(t *testing.T) {
	s, _, st, clk := newScheduler(t, quota.Limits{PlayerCeiling: 1000, EdgeCeiling: 1000})
	ctx := context.Background()

	s.RunWeeklyCheck(ctx)

	seed, err := st.GetPlayer(ctx, "magnuscarlsen")
	require.NoError(t, err)
	assert.Equal(t, clk.Now(), seed.LastUpdated)

	_, err = st.GetEdge(ctx, model.NewPairKey("magnuscarlsen", "a"))
	require.NoError(t, err)
}

func TestStartAndStop(t *testing.T) {
	s, _, _, _ := newScheduler(t, quota.Limits{PlayerCeiling: 1000, EdgeCeiling: 1000})

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
