package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage type constants
const (
	StoreTypeMemory = "memory"
	StoreTypeNeo4j  = "neo4j"
)

// Config is the immutable process configuration, loaded once from the
// environment and passed into components at construction
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:""`
	Port       int    `env:"PORT" envDefault:"8080"`

	StoreType     string `env:"STORE_TYPE" envDefault:"memory"`
	Neo4jURI      string `env:"NEO4J_URI"`
	Neo4jUser     string `env:"NEO4J_USER"`
	Neo4jPassword string `env:"NEO4J_PASSWORD"`

	// RedisURL enables the provider archive cache when set
	RedisURL string `env:"REDIS_URL"`

	ProviderBaseURL string `env:"PROVIDER_BASE_URL" envDefault:"https://api.chess.com/pub"`
	SeedPlayer      string `env:"SEED_PLAYER" envDefault:"magnuscarlsen"`

	MaxLevel            int `env:"MAX_LEVEL" envDefault:"6"`
	MaxPlayersPerLevel  int `env:"MAX_PLAYERS_PER_LEVEL" envDefault:"10000"`
	MaxTotalPlayers     int `env:"MAX_TOTAL_PLAYERS" envDefault:"50000"`
	MaxMonthsHistorical int `env:"MAX_MONTHS_HISTORICAL" envDefault:"120"`

	ArchiveBatchSize int           `env:"ARCHIVE_BATCH_SIZE" envDefault:"12"`
	BatchPause       time.Duration `env:"BATCH_PAUSE" envDefault:"1s"`
	FetchConcurrency int           `env:"FETCH_CONCURRENCY" envDefault:"1"`

	// ReducedResources toggles smaller fetch batches and a hard cap on
	// players processed per historical run
	ReducedResources bool `env:"REDUCED_RESOURCES" envDefault:"false"`
	MaxPlayersPerRun int  `env:"MAX_PLAYERS_PER_RUN" envDefault:"1000"`
	LevelTruncate    int  `env:"LEVEL_TRUNCATE" envDefault:"200"`

	// Storage ceilings the quota monitor reports against
	PlayerCeiling int64 `env:"PLAYER_CEILING" envDefault:"1023"`
	EdgeCeiling   int64 `env:"EDGE_CEILING" envDefault:"3298"`

	SchedulerEnabled bool `env:"SCHEDULER_ENABLED" envDefault:"false"`
}

// Load reads configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c Config) Validate() error {
	switch c.StoreType {
	case StoreTypeMemory:
	case StoreTypeNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI required when STORE_TYPE=%s", StoreTypeNeo4j)
		}
	default:
		return fmt.Errorf("invalid STORE_TYPE %q: must be %q or %q", c.StoreType, StoreTypeMemory, StoreTypeNeo4j)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1, got %d", c.FetchConcurrency)
	}
	if c.ArchiveBatchSize < 1 {
		return fmt.Errorf("ARCHIVE_BATCH_SIZE must be at least 1, got %d", c.ArchiveBatchSize)
	}
	return nil
}

// EffectiveBatchSize returns the archive batch size, shrunk under
// reduced-resource operation
func (c Config) EffectiveBatchSize() int {
	if c.ReducedResources && c.ArchiveBatchSize > 4 {
		return 4
	}
	return c.ArchiveBatchSize
}
