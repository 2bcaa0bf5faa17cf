package merge_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessgraph/chessgraph/internal/dependencies/mocks"
	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/services/merge"
	"github.com/chessgraph/chessgraph/internal/store/memory"
	"github.com/chessgraph/chessgraph/internal/testutil"
)

// fakeProfiles is a canned profile source that counts lookups
type fakeProfiles struct {
	profiles map[model.Username]*model.PlayerProfile
	lookups  map[model.Username]int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		profiles: make(map[model.Username]*model.PlayerProfile),
		lookups:  make(map[model.Username]int),
	}
}

func (f *fakeProfiles) Profile(ctx context.Context, username model.Username) (*model.PlayerProfile, error) {
	f.lookups[username]++
	if profile, ok := f.profiles[username]; ok {
		return profile, nil
	}
	return nil, errors.New("provider unavailable")
}

func newService(t *testing.T) (*merge.Service, *memory.Store, *fakeProfiles, *mocks.MockClock) {
	t.Helper()
	st := memory.New()
	profiles := newFakeProfiles()
	clk := mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return merge.New(st, profiles, clk, testutil.NopLogger()), st, profiles, clk
}

func TestCollapseEdgesLatestGameWins(t *testing.T) {
	games := []model.GameRecord{
		testutil.Game("alice", "bob", 1000),
		testutil.Game("alice", "bob", 3000),
		testutil.Game("bob", "alice", 2000),
	}

	edges := merge.CollapseEdges(games)
	require.Len(t, edges, 1)

	edge := edges[model.NewPairKey("alice", "bob")]
	require.NotNil(t, edge)
	assert.Equal(t, time.Unix(3000, 0).UTC(), edge.Date)
}

func TestCollapseEdgesTimestampFallback(t *testing.T) {
	older := testutil.Game("alice", "bob", 0)
	older.StartTime = 1000
	newer := testutil.Game("alice", "bob", 0)
	newer.LastActivity = 2000

	edges := merge.CollapseEdges([]model.GameRecord{newer, older})
	require.Len(t, edges, 1)

	edge := edges[model.NewPairKey("alice", "bob")]
	assert.Equal(t, time.Unix(2000, 0).UTC(), edge.Date)
}

func TestCollapseEdgesTieGoesToLaterRecord(t *testing.T) {
	first := testutil.Game("alice", "bob", 1000)
	first.URL = "https://games/first"
	second := testutil.Game("alice", "bob", 1000)
	second.URL = "https://games/second"

	edges := merge.CollapseEdges([]model.GameRecord{first, second})
	require.Len(t, edges, 1)
	assert.Equal(t, "https://games/second", edges[model.NewPairKey("alice", "bob")].URL)
}

func TestCollapseEdgesSeparatePairs(t *testing.T) {
	games := []model.GameRecord{
		testutil.Game("alice", "bob", 1000),
		testutil.Game("alice", "carol", 2000),
	}

	edges := merge.CollapseEdges(games)
	assert.Len(t, edges, 2)
}

func TestCollapseEdgesSkipsDegenerateRecords(t *testing.T) {
	games := []model.GameRecord{
		testutil.Game("alice", "", 1000),
		testutil.Game("Alice", "alice", 2000),
	}

	edges := merge.CollapseEdges(games)
	assert.Empty(t, edges)
}

func TestMergeGamesUpsertsPlayersAndEdges(t *testing.T) {
	svc, st, profiles, clk := newService(t)
	profiles.profiles["alice"] = &model.PlayerProfile{
		Username: "alice",
		Title:    "GM",
		Country:  "NO",
	}

	distance := 1
	count, err := svc.MergeGames(context.Background(), "alice", []model.GameRecord{
		testutil.Game("alice", "bob", 1000),
		testutil.Game("carol", "alice", 2000),
	}, &distance)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	alice, err := st.GetPlayer(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "GM", alice.Title)
	assert.Equal(t, 2, alice.GamesPlayed)
	require.NotNil(t, alice.Distance)
	assert.Equal(t, 1, *alice.Distance)
	assert.Equal(t, clk.Now(), alice.LastUpdated)

	// Opponents are stored without a distance
	bob, err := st.GetPlayer(context.Background(), "bob")
	require.NoError(t, err)
	assert.Nil(t, bob.Distance)

	edge, err := st.GetEdge(context.Background(), model.NewPairKey("alice", "bob"))
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1000, 0).UTC(), edge.Date)
}

func TestMergeGamesProfileFailureStoresBarePlayer(t *testing.T) {
	svc, st, _, _ := newService(t)

	count, err := svc.MergeGames(context.Background(), "alice", []model.GameRecord{
		testutil.Game("alice", "bob", 1000),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	alice, err := st.GetPlayer(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, alice.Title)
	assert.Empty(t, alice.Country)
}

func TestMergeGamesMemoizesProfileLookups(t *testing.T) {
	svc, _, profiles, _ := newService(t)

	_, err := svc.MergeGames(context.Background(), "alice", []model.GameRecord{
		testutil.Game("alice", "bob", 1000),
		testutil.Game("bob", "alice", 2000),
		testutil.Game("alice", "bob", 3000),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, profiles.lookups["alice"])
	assert.Equal(t, 1, profiles.lookups["bob"])
}

func TestMergeGamesPreservesOpponentDistance(t *testing.T) {
	svc, st, _, _ := newService(t)

	one := 1
	require.NoError(t, st.UpsertPlayer(context.Background(), &model.Player{
		Username: "bob",
		Distance: &one,
	}))

	_, err := svc.MergeGames(context.Background(), "alice", []model.GameRecord{
		testutil.Game("alice", "bob", 1000),
	}, nil)
	require.NoError(t, err)

	bob, err := st.GetPlayer(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, bob.Distance)
	assert.Equal(t, 1, *bob.Distance)
}

func TestMergeGamesIdempotent(t *testing.T) {
	svc, st, _, clk := newService(t)

	games := []model.GameRecord{testutil.Game("alice", "bob", 1000)}
	distance := 2

	_, err := svc.MergeGames(context.Background(), "alice", games, &distance)
	require.NoError(t, err)
	before, err := st.GetPlayer(context.Background(), "alice")
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = svc.MergeGames(context.Background(), "alice", games, &distance)
	require.NoError(t, err)

	after, err := st.GetPlayer(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, before.LastUpdated.Add(time.Hour), after.LastUpdated)

	before.LastUpdated = after.LastUpdated
	assert.Equal(t, before, after)

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Players)
	assert.EqualValues(t, 1, stats.Edges)
}
