package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/chessgraph/chessgraph/internal/dependencies/clock"
	"github.com/chessgraph/chessgraph/internal/model"
)

// Config holds settings for the provider client
type Config struct {
	// BaseURL is the provider API root
	BaseURL string
	// Concurrency is the maximum number of in-flight requests to the
	// provider across the whole process
	Concurrency int64
	// Timeout applies to each individual request
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for the public chess.com API
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.chess.com/pub",
		Concurrency: 1,
		Timeout:     30 * time.Second,
	}
}

// Client fetches player profiles and monthly game archives. All requests
// pass through a weighted semaphore so at most Concurrency requests are
// outstanding against the provider at any time, process-wide.
type Client struct {
	baseURL    string
	httpClient *http.Client
	gate       *semaphore.Weighted
	cache      ArchiveCache
	clock      clock.Clock
	logger     *slog.Logger
}

// New creates a provider client. cache may be nil to disable archive
// caching.
func New(cfg Config, cache ArchiveCache, clk clock.Clock, logger *slog.Logger) *Client {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		gate:       semaphore.NewWeighted(concurrency),
		cache:      cache,
		clock:      clk,
		logger:     logger,
	}
}

// Profile fetches a player's profile, including the list of monthly
// archive URLs
func (c *Client) Profile(ctx context.Context, username model.Username) (*model.PlayerProfile, error) {
	var profile model.PlayerProfile
	url := fmt.Sprintf("%s/player/%s", c.baseURL, username)
	if err := c.fetchJSON(ctx, url, &profile); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("profile for %s: %w", username, model.ErrProfileNotFound)
		}
		return nil, fmt.Errorf("fetching profile for %s: %w", username, err)
	}
	return &profile, nil
}

// archivePayload is the wire shape of a monthly archive response
type archivePayload struct {
	Games []model.GameRecord `json:"games"`
}

// Archive fetches one monthly archive by its URL. Archives for months
// that have already closed are immutable and served from the cache when
// one is configured.
func (c *Client) Archive(ctx context.Context, url string) ([]model.GameRecord, error) {
	cacheable := c.cache != nil && isClosedMonth(url, c.clock.Now())

	if cacheable {
		games, ok, err := c.cache.Get(ctx, url)
		if err != nil {
			c.logger.Warn("archive cache read failed", slog.String("url", url), slog.String("error", err.Error()))
		} else if ok {
			return games, nil
		}
	}

	var payload archivePayload
	if err := c.fetchJSON(ctx, url, &payload); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("archive %s: %w", url, model.ErrArchiveNotFound)
		}
		return nil, fmt.Errorf("fetching archive %s: %w", url, err)
	}

	if cacheable {
		if err := c.cache.Set(ctx, url, payload.Games); err != nil {
			c.logger.Warn("archive cache write failed", slog.String("url", url), slog.String("error", err.Error()))
		}
	}

	return payload.Games, nil
}

// statusError carries a non-2xx response status
type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.status, e.url)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func (c *Client) fetchJSON(ctx context.Context, url string, out any) error {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.gate.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{status: resp.StatusCode, url: url}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
