package store

import (
	"context"
	"time"

	"github.com/chessgraph/chessgraph/internal/model"
)

// Store defines the graph-store interface. Every write is a
// self-contained upsert so partial completion of an ingestion run leaves
// the graph valid, never corrupt.
type Store interface {
	// EnsureSchema creates constraints and indexes; safe to call repeatedly
	EnsureSchema(ctx context.Context) error

	// Player operations
	UpsertPlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, username model.Username) (*model.Player, error)
	// TouchPlayer refreshes only a player's LastUpdated timestamp
	TouchPlayer(ctx context.Context, username model.Username, at time.Time) error
	// StalePlayers returns up to limit usernames whose LastUpdated is
	// before olderThan, ordered by ascending distance from the seed
	// (unknown distance last)
	StalePlayers(ctx context.Context, olderThan time.Time, limit int) ([]model.Username, error)

	// Edge operations
	UpsertEdge(ctx context.Context, edge *model.PlayedEdge) error
	GetEdge(ctx context.Context, pair model.PairKey) (*model.PlayedEdge, error)

	// Aggregates
	Stats(ctx context.Context) (model.GraphStats, error)
	LevelBreakdown(ctx context.Context) ([]model.LevelUsage, error)

	// Metadata singleton
	SaveMetadata(ctx context.Context, meta *model.IngestionMetadata) error
	GetMetadata(ctx context.Context) (*model.IngestionMetadata, error)

	// Cleanup
	DeleteEdgesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOrphanPlayers(ctx context.Context) (int64, error)

	// ShortestPath returns the usernames along a shortest PLAYED path
	// from one player to another, inclusive of both endpoints, bounded
	// by maxDepth hops. Path finding runs natively in the graph store.
	ShortestPath(ctx context.Context, from, to model.Username, maxDepth int) ([]model.Username, error)

	Close() error
}
