package quota_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/services/quota"
	"github.com/chessgraph/chessgraph/internal/store/memory"
	"github.com/chessgraph/chessgraph/internal/testutil"
)

func seedStore(t *testing.T, st *memory.Store, playersAtLevel map[int]int, edges int) {
	t.Helper()
	ctx := context.Background()

	for level, count := range playersAtLevel {
		for i := 0; i < count; i++ {
			l := level
			require.NoError(t, st.UpsertPlayer(ctx, &model.Player{
				Username:    model.Username(fmt.Sprintf("level%d-player%d", level, i)),
				Distance:    &l,
				LastUpdated: time.Now(),
			}))
		}
	}
	for i := 0; i < edges; i++ {
		require.NoError(t, st.UpsertEdge(ctx, &model.PlayedEdge{
			Pair: model.NewPairKey(
				model.Username(fmt.Sprintf("level0-player%d", i)),
				model.Username(fmt.Sprintf("level1-player%d", i)),
			),
		}))
	}
}

func TestUsageBelowThreshold(t *testing.T) {
	st := memory.New()
	seedStore(t, st, map[int]int{0: 1, 1: 3}, 3)

	monitor := quota.New(st, quota.Limits{
		PlayerCeiling:      100,
		EdgeCeiling:        100,
		MaxPlayersPerLevel: 50,
	}, testutil.NopLogger())

	report, err := monitor.Usage(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 4, report.Stats.Players)
	assert.EqualValues(t, 3, report.Stats.Edges)
	assert.InDelta(t, 4.0, report.PlayerUsagePct, 0.01)
	assert.InDelta(t, 3.0, report.EdgeUsagePct, 0.01)
	assert.Empty(t, report.Recommendations)
	assert.Empty(t, report.HeavyLevels)
}

func TestUsageRecommendsAboveThreshold(t *testing.T) {
	st := memory.New()
	seedStore(t, st, map[int]int{1: 9}, 9)

	monitor := quota.New(st, quota.Limits{
		PlayerCeiling:      10,
		EdgeCeiling:        10,
		MaxPlayersPerLevel: 50,
	}, testutil.NopLogger())

	report, err := monitor.Usage(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 90.0, report.PlayerUsagePct, 0.01)
	assert.Len(t, report.Recommendations, 2)
}

func TestUsageFlagsHeavyLevels(t *testing.T) {
	st := memory.New()
	seedStore(t, st, map[int]int{1: 2, 2: 5}, 0)

	monitor := quota.New(st, quota.Limits{
		PlayerCeiling:      1000,
		EdgeCeiling:        1000,
		MaxPlayersPerLevel: 3,
	}, testutil.NopLogger())

	report, err := monitor.Usage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{2}, report.HeavyLevels)
	assert.Len(t, report.Recommendations, 1)
}

func TestUsageEmptyStore(t *testing.T) {
	monitor := quota.New(memory.New(), quota.Limits{
		PlayerCeiling: 10,
		EdgeCeiling:   10,
	}, testutil.NopLogger())

	report, err := monitor.Usage(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.PlayerUsagePct)
	assert.Zero(t, report.EdgeUsagePct)
	assert.Empty(t, report.Breakdown)
}
