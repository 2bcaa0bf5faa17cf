package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/store"
)

// Store is an in-memory implementation of the graph store, used for
// tests and local development
type Store struct {
	mu sync.RWMutex

	players  map[model.Username]*model.Player
	edges    map[model.PairKey]*model.PlayedEdge
	metadata *model.IngestionMetadata
}

// New creates a new in-memory store instance
func New() *Store {
	return &Store{
		players: make(map[model.Username]*model.Player),
		edges:   make(map[model.PairKey]*model.PlayedEdge),
	}
}

// Ensure Store implements the interface
var _ store.Store = (*Store)(nil)

// EnsureSchema is a no-op for the in-memory store
func (s *Store) EnsureSchema(ctx context.Context) error {
	return nil
}

// Player operations

func (s *Store) UpsertPlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *player
	s.players[player.Username] = &copied
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, username model.Username) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, ok := s.players[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	copied := *player
	return &copied, nil
}

func (s *Store) TouchPlayer(ctx context.Context, username model.Username, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[username]
	if !ok {
		return model.ErrPlayerNotFound
	}
	player.LastUpdated = at
	return nil
}

func (s *Store) StalePlayers(ctx context.Context, olderThan time.Time, limit int) ([]model.Username, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stale []*model.Player
	for _, p := range s.players {
		if p.LastUpdated.Before(olderThan) {
			stale = append(stale, p)
		}
	}

	sort.Slice(stale, func(i, j int) bool {
		di, dj := stale[i].Distance, stale[j].Distance
		switch {
		case di == nil && dj == nil:
			return stale[i].Username < stale[j].Username
		case di == nil:
			return false
		case dj == nil:
			return true
		case *di != *dj:
			return *di < *dj
		default:
			return stale[i].Username < stale[j].Username
		}
	})

	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}

	usernames := make([]model.Username, len(stale))
	for i, p := range stale {
		usernames[i] = p.Username
	}
	return usernames, nil
}

// Edge operations

func (s *Store) UpsertEdge(ctx context.Context, edge *model.PlayedEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *edge
	s.edges[edge.Pair] = &copied
	return nil
}

func (s *Store) GetEdge(ctx context.Context, pair model.PairKey) (*model.PlayedEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edge, ok := s.edges[pair]
	if !ok {
		return nil, model.ErrEdgeNotFound
	}
	copied := *edge
	return &copied, nil
}

// Aggregates

func (s *Store) Stats(ctx context.Context) (model.GraphStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.GraphStats{
		Players: int64(len(s.players)),
		Edges:   int64(len(s.edges)),
	}
	for _, p := range s.players {
		stats.TotalGames += int64(p.GamesPlayed)
	}
	return stats, nil
}

func (s *Store) LevelBreakdown(ctx context.Context) ([]model.LevelUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byLevel := make(map[int]*model.LevelUsage)
	for _, p := range s.players {
		level := -1
		if p.Distance != nil {
			level = *p.Distance
		}
		usage, ok := byLevel[level]
		if !ok {
			usage = &model.LevelUsage{Level: level}
			byLevel[level] = usage
		}
		usage.Players++
		usage.Games += int64(p.GamesPlayed)
	}

	breakdown := make([]model.LevelUsage, 0, len(byLevel))
	for _, usage := range byLevel {
		if usage.Players > 0 {
			usage.AvgGames = float64(usage.Games) / float64(usage.Players)
		}
		breakdown = append(breakdown, *usage)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Level < breakdown[j].Level
	})
	return breakdown, nil
}

// Metadata singleton

func (s *Store) SaveMetadata(ctx context.Context, meta *model.IngestionMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *meta
	s.metadata = &copied
	return nil
}

func (s *Store) GetMetadata(ctx context.Context) (*model.IngestionMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.metadata == nil {
		return nil, model.ErrMetadataNotFound
	}
	copied := *s.metadata
	return &copied, nil
}

// Cleanup

func (s *Store) DeleteEdgesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for pair, edge := range s.edges {
		if edge.Date.Before(cutoff) {
			delete(s.edges, pair)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) DeleteOrphanPlayers(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	connected := make(map[model.Username]struct{}, len(s.edges)*2)
	for pair := range s.edges {
		connected[pair.A] = struct{}{}
		connected[pair.B] = struct{}{}
	}

	var deleted int64
	for username := range s.players {
		if _, ok := connected[username]; !ok {
			delete(s.players, username)
			deleted++
		}
	}
	return deleted, nil
}

// ShortestPath runs a breadth-first search over the in-memory edge set.
// The production store delegates to the database's native path engine;
// this exists so tests and local development behave the same way.
func (s *Store) ShortestPath(ctx context.Context, from, to model.Username, maxDepth int) ([]model.Username, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.players[from]; !ok {
		return nil, model.ErrPlayerNotFound
	}
	if _, ok := s.players[to]; !ok {
		return nil, model.ErrPlayerNotFound
	}
	if from == to {
		return []model.Username{from}, nil
	}

	adjacency := make(map[model.Username][]model.Username, len(s.players))
	for pair := range s.edges {
		adjacency[pair.A] = append(adjacency[pair.A], pair.B)
		adjacency[pair.B] = append(adjacency[pair.B], pair.A)
	}

	parent := map[model.Username]model.Username{from: from}
	frontier := []model.Username{from}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []model.Username
		for _, current := range frontier {
			for _, neighbor := range adjacency[current] {
				if _, seen := parent[neighbor]; seen {
					continue
				}
				parent[neighbor] = current
				if neighbor == to {
					return buildPath(parent, from, to), nil
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return nil, model.ErrNoPath
}

func buildPath(parent map[model.Username]model.Username, from, to model.Username) []model.Username {
	var reversed []model.Username
	for current := to; ; current = parent[current] {
		reversed = append(reversed, current)
		if current == from {
			break
		}
	}

	path := make([]model.Username, len(reversed))
	for i, username := range reversed {
		path[len(reversed)-1-i] = username
	}
	return path
}

// Close is a no-op for the in-memory store
func (s *Store) Close() error {
	return nil
}
