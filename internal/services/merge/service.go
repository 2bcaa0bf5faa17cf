package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chessgraph/chessgraph/internal/chesscom"
	"github.com/chessgraph/chessgraph/internal/dependencies/clock"
	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/store"
)

// ProfileSource resolves provider profiles for players touched by a
// merge
type ProfileSource interface {
	Profile(ctx context.Context, username model.Username) (*model.PlayerProfile, error)
}

var _ ProfileSource = (*chesscom.Client)(nil)

// Service folds fetched game histories into the graph store
type Service struct {
	store    store.Store
	profiles ProfileSource
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a merge service
func New(st store.Store, profiles ProfileSource, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		profiles: profiles,
		clock:    clk,
		logger:   logger,
	}
}

// CollapseEdges reduces a game list to one candidate edge per opponent
// pair. The game with the greatest best-effort timestamp supplies the
// edge attributes; on an equal or missing timestamp the record seen
// later wins.
func CollapseEdges(games []model.GameRecord) map[model.PairKey]*model.PlayedEdge {
	edges := make(map[model.PairKey]*model.PlayedEdge)

	for _, game := range games {
		white := model.NormalizeUsername(game.White.Username)
		black := model.NormalizeUsername(game.Black.Username)
		if white == "" || black == "" || white == black {
			continue
		}

		pair := model.NewPairKey(white, black)
		date := game.EventTime()
		if existing, ok := edges[pair]; ok && date.Before(existing.Date) {
			continue
		}

		edges[pair] = &model.PlayedEdge{
			Pair:        pair,
			URL:         game.URL,
			Date:        date,
			Result:      game.White.Result,
			TimeControl: game.TimeControl,
			Rated:       game.Rated,
		}
	}

	return edges
}

// MergeGames writes one player's game history into the graph: a node
// upsert for every username touched and one PLAYED edge per opponent
// pair. distance is recorded only on the ingested player when provided.
// Re-merging identical input changes nothing but LastUpdated.
func (s *Service) MergeGames(ctx context.Context, username model.Username, games []model.GameRecord, distance *int) (int, error) {
	username = model.NormalizeUsername(string(username))
	edges := CollapseEdges(games)

	touched := map[model.Username]struct{}{username: {}}
	for pair := range edges {
		touched[pair.A] = struct{}{}
		touched[pair.B] = struct{}{}
	}

	// Profile lookups are memoized for the duration of the call so a
	// player appearing on both sides of many games is resolved once.
	resolved := make(map[model.Username]*model.PlayerProfile)
	now := s.clock.Now()

	for u := range touched {
		player, err := s.loadPlayer(ctx, u)
		if err != nil {
			return 0, err
		}
		player.LastUpdated = now

		if profile := s.resolveProfile(ctx, resolved, u); profile != nil {
			player.Avatar = profile.Avatar
			player.Title = profile.Title
			player.Name = profile.Name
			player.Country = profile.Country
			player.Joined = profile.Joined
		}
		if u == username {
			if distance != nil {
				player.Distance = distance
			}
			// A zero-game merge still refreshes the player but says
			// nothing about their history
			if len(games) > 0 {
				player.GamesPlayed = len(games)
			}
		}

		if err := s.store.UpsertPlayer(ctx, player); err != nil {
			return 0, fmt.Errorf("upserting player %s: %w", u, err)
		}
	}

	for _, edge := range edges {
		if err := s.store.UpsertEdge(ctx, edge); err != nil {
			return 0, fmt.Errorf("upserting edge %s-%s: %w", edge.Pair.A, edge.Pair.B, err)
		}
	}

	return len(edges), nil
}

// loadPlayer fetches the stored player so an upsert refreshes mutable
// attributes without clobbering distance learned by a previous run
func (s *Service) loadPlayer(ctx context.Context, username model.Username) (*model.Player, error) {
	player, err := s.store.GetPlayer(ctx, username)
	switch {
	case err == nil:
		return player, nil
	case errors.Is(err, model.ErrPlayerNotFound):
		return &model.Player{Username: username}, nil
	default:
		return nil, fmt.Errorf("loading player %s: %w", username, err)
	}
}

// resolveProfile returns the memoized profile for a username, or nil
// when the provider cannot supply one
func (s *Service) resolveProfile(ctx context.Context, resolved map[model.Username]*model.PlayerProfile, username model.Username) *model.PlayerProfile {
	if profile, ok := resolved[username]; ok {
		return profile
	}

	profile, err := s.profiles.Profile(ctx, username)
	if err != nil {
		s.logger.Warn("profile unavailable, storing player without attributes",
			slog.String("username", string(username)),
			slog.String("error", err.Error()),
		)
		profile = nil
	}
	resolved[username] = profile
	return profile
}
