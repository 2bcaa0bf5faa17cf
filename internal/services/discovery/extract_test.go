package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/testutil"
)

func TestOpponentsExcludesSelf(t *testing.T) {
	games := []model.GameRecord{
		testutil.Game("alice", "bob", 1),
		testutil.Game("carol", "alice", 2),
	}

	opponents := Opponents(games, "alice")

	assert.Equal(t, map[model.Username]struct{}{"bob": {}, "carol": {}}, opponents)
}

func TestOpponentsCaseFolds(t *testing.T) {
	games := []model.GameRecord{
		testutil.Game("Alice", "BOB", 1),
		testutil.Game("bob", "Alice", 2),
	}

	opponents := Opponents(games, "alice")

	assert.Equal(t, map[model.Username]struct{}{"bob": {}}, opponents)
}

func TestOpponentsOrderIndependent(t *testing.T) {
	games := []model.GameRecord{
		testutil.Game("alice", "bob", 1),
		testutil.Game("alice", "carol", 2),
		testutil.Game("dave", "alice", 3),
	}
	reversed := []model.GameRecord{games[2], games[1], games[0]}

	assert.Equal(t, Opponents(games, "alice"), Opponents(reversed, "alice"))
}

func TestOpponentsEmptyGames(t *testing.T) {
	assert.Empty(t, Opponents(nil, "alice"))
}

func TestOpponentsDeduplicates(t *testing.T) {
	games := []model.GameRecord{
		testutil.Game("alice", "bob", 1),
		testutil.Game("bob", "alice", 2),
		testutil.Game("alice", "bob", 3),
	}

	opponents := Opponents(games, "alice")

	assert.Len(t, opponents, 1)
}
