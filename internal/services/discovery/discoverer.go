package discovery

import (
	"context"
	"log/slog"
	"sort"

	"github.com/chessgraph/chessgraph/internal/model"
)

// Limits bounds how far a discovery run may expand
type Limits struct {
	// MaxTotalPlayers halts discovery once the running total across all
	// levels exceeds it. Checked only at level boundaries; the in-flight
	// level always completes.
	MaxTotalPlayers int
	// MaxPlayersPerRun and LevelTruncate apply only under reduced-resource
	// operation: once the running total exceeds MaxPlayersPerRun, each
	// subsequent level is truncated to its first LevelTruncate members in
	// sorted username order. Zero values disable truncation.
	MaxPlayersPerRun int
	LevelTruncate    int
}

// GameSource fetches a player's full game history
type GameSource interface {
	AllGames(ctx context.Context, username model.Username) ([]model.GameRecord, error)
}

// Discoverer expands the social graph outward from a seed player, level
// by level, over edges that are only known once each player's games are
// fetched
type Discoverer struct {
	source GameSource
	limits Limits
	logger *slog.Logger
}

// New creates a discoverer
func New(source GameSource, limits Limits, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		source: source,
		limits: limits,
		logger: logger,
	}
}

// Discover runs breadth-first expansion from seed up to maxLevel.
// Hitting the storage quota is not an error: the levels computed so far
// are returned as a partial result.
func (d *Discoverer) Discover(ctx context.Context, seed model.Username, maxLevel int) (*model.DiscoveryResult, error) {
	result := model.NewDiscoveryResult(seed)

	for level := 1; level <= maxLevel; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if d.limits.MaxTotalPlayers > 0 && result.Total() > d.limits.MaxTotalPlayers {
			d.logger.Warn("storage quota reached, halting discovery",
				slog.Int("level", level-1),
				slog.Int("total_players", result.Total()),
			)
			break
		}

		newPlayers := d.expandLevel(ctx, result.Levels[level-1], result.Processed)
		if len(newPlayers) == 0 {
			break
		}

		newPlayers = d.truncate(newPlayers, result.Total())
		result.Levels[level] = newPlayers

		// Processed absorbs the new set only after the level completes;
		// duplicates discovered mid-level collapse via set semantics.
		for username := range newPlayers {
			result.Processed[username] = struct{}{}
		}

		d.logger.Info("discovered level",
			slog.Int("level", level),
			slog.Int("new_players", len(newPlayers)),
			slog.Int("total_players", result.Total()),
		)
	}

	return result, nil
}

// expandLevel collects opponents of every player in the previous level
// that have not been processed yet. A player whose games cannot be
// fetched contributes zero opponents.
func (d *Discoverer) expandLevel(ctx context.Context, previous map[model.Username]struct{}, processed map[model.Username]struct{}) map[model.Username]struct{} {
	newPlayers := make(map[model.Username]struct{})

	for player := range previous {
		games, err := d.source.AllGames(ctx, player)
		if err != nil {
			d.logger.Warn("skipping player during expansion",
				slog.String("username", string(player)),
				slog.String("error", err.Error()),
			)
			continue
		}

		for opponent := range Opponents(games, player) {
			if _, seen := processed[opponent]; !seen {
				newPlayers[opponent] = struct{}{}
			}
		}
	}

	return newPlayers
}

// truncate caps a level's set under reduced-resource operation. The set
// is cut to the first LevelTruncate usernames in sorted order so the
// truncation is deterministic.
func (d *Discoverer) truncate(players map[model.Username]struct{}, runningTotal int) map[model.Username]struct{} {
	if d.limits.MaxPlayersPerRun <= 0 || d.limits.LevelTruncate <= 0 {
		return players
	}
	if runningTotal+len(players) <= d.limits.MaxPlayersPerRun || len(players) <= d.limits.LevelTruncate {
		return players
	}

	sorted := make([]model.Username, 0, len(players))
	for username := range players {
		sorted = append(sorted, username)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	truncated := make(map[model.Username]struct{}, d.limits.LevelTruncate)
	for _, username := range sorted[:d.limits.LevelTruncate] {
		truncated[username] = struct{}{}
	}

	d.logger.Warn("truncated level under reduced resources",
		slog.Int("original", len(players)),
		slog.Int("kept", d.limits.LevelTruncate),
	)
	return truncated
}
