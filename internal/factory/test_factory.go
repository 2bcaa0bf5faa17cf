package factory

import (
	"time"

	"github.com/chessgraph/chessgraph/internal/config"
	"github.com/chessgraph/chessgraph/internal/dependencies/mocks"
	"github.com/chessgraph/chessgraph/internal/store/memory"
	"github.com/chessgraph/chessgraph/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	MockClock *mocks.MockClock
	Memory    *memory.Store
}

// NewTestApp creates an App wired against the given provider base URL,
// with an in-memory store and a mocked clock
func NewTestApp(providerURL string) *TestApp {
	st := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	cfg := config.Config{
		StoreType:           config.StoreTypeMemory,
		ProviderBaseURL:     providerURL,
		SeedPlayer:          "magnuscarlsen",
		MaxLevel:            2,
		MaxPlayersPerLevel:  10000,
		MaxTotalPlayers:     50000,
		MaxMonthsHistorical: 120,
		ArchiveBatchSize:    12,
		FetchConcurrency:    1,
		PlayerCeiling:       1023,
		EdgeCeiling:         3298,
	}

	app := newWithDependencies(st, nil, mockClock, cfg, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		Memory:    st,
	}
}
