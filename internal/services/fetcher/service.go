package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chessgraph/chessgraph/internal/chesscom"
	"github.com/chessgraph/chessgraph/internal/model"
)

// Config holds fetcher settings
type Config struct {
	// BatchSize is the number of archives requested before pausing
	BatchSize int
	// BatchPause is how long to wait between batches. No pause follows
	// the final batch.
	BatchPause time.Duration
}

// DefaultConfig returns defaults matching the provider's tolerance
func DefaultConfig() Config {
	return Config{
		BatchSize:  12,
		BatchPause: time.Second,
	}
}

// ArchiveSource is the provider surface the fetcher needs
type ArchiveSource interface {
	Profile(ctx context.Context, username model.Username) (*model.PlayerProfile, error)
	Archive(ctx context.Context, url string) ([]model.GameRecord, error)
}

var _ ArchiveSource = (*chesscom.Client)(nil)

// Service retrieves a player's monthly game archives in rate-respecting
// batches. Individual archive failures are logged and skipped; a player
// with no archives yields an empty list, not an error.
type Service struct {
	source ArchiveSource
	cfg    Config
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a fetcher service
func New(source ArchiveSource, cfg Config, logger *slog.Logger) *Service {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Service{
		source: source,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AllGames returns the player's full game history across every monthly
// archive, oldest first as provided by the source
func (s *Service) AllGames(ctx context.Context, username model.Username) ([]model.GameRecord, error) {
	return s.games(ctx, username, 0)
}

// RecentGames returns only the player's last `months` archives of games
func (s *Service) RecentGames(ctx context.Context, username model.Username, months int) ([]model.GameRecord, error) {
	if months < 1 {
		months = 1
	}
	return s.games(ctx, username, months)
}

// games fetches archives in batches. tailMonths restricts the fetch to
// the final N archive URLs; 0 means all.
func (s *Service) games(ctx context.Context, username model.Username, tailMonths int) ([]model.GameRecord, error) {
	profile, err := s.source.Profile(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			// New or removed account: zero contribution
			return nil, nil
		}
		return nil, fmt.Errorf("resolving archives for %s: %w", username, err)
	}

	urls := profile.Archives
	if len(urls) == 0 {
		return nil, nil
	}
	if tailMonths > 0 && len(urls) > tailMonths {
		urls = urls[len(urls)-tailMonths:]
	}

	var games []model.GameRecord
	for start := 0; start < len(urls); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(urls))

		for _, url := range urls[start:end] {
			archiveGames, err := s.source.Archive(ctx, url)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.Warn("skipping archive",
					slog.String("username", string(username)),
					slog.String("url", url),
					slog.String("error", err.Error()),
				)
				continue
			}
			games = append(games, archiveGames...)
		}

		if end < len(urls) && s.cfg.BatchPause > 0 {
			if err := s.sleep(ctx, s.cfg.BatchPause); err != nil {
				return nil, err
			}
		}
	}

	return games, nil
}
