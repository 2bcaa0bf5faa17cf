package model

// DiscoveryResult is the outcome of one level-bounded discovery run.
// Levels maps discovery level (0 = seed) to the set of usernames first
// seen at that level; Processed is the union of all of them.
type DiscoveryResult struct {
	Levels    map[int]map[Username]struct{}
	Processed map[Username]struct{}
}

// NewDiscoveryResult creates an empty result seeded at level 0
func NewDiscoveryResult(seed Username) *DiscoveryResult {
	return &DiscoveryResult{
		Levels:    map[int]map[Username]struct{}{0: {seed: {}}},
		Processed: map[Username]struct{}{seed: {}},
	}
}

// Total returns the number of players discovered across all levels
func (r *DiscoveryResult) Total() int {
	total := 0
	for _, players := range r.Levels {
		total += len(players)
	}
	return total
}

// GraphStats is the aggregate size of the stored graph
type GraphStats struct {
	Players    int64 `json:"players"`
	Edges      int64 `json:"relationships"`
	TotalGames int64 `json:"total_games"`
}

// LevelUsage is the per-discovery-level storage breakdown.
// Level -1 groups players whose distance is not yet known.
type LevelUsage struct {
	Level    int     `json:"level"`
	Players  int64   `json:"players"`
	Games    int64   `json:"total_games"`
	AvgGames float64 `json:"avg_games"`
}

// UsageReport is the quota monitor's advisory view of storage usage
type UsageReport struct {
	Stats           GraphStats   `json:"current_stats"`
	PlayerUsagePct  float64      `json:"player_usage_pct"`
	EdgeUsagePct    float64      `json:"relationship_usage_pct"`
	Breakdown       []LevelUsage `json:"breakdown"`
	Recommendations []string     `json:"recommendations"`
	HeavyLevels     []int        `json:"heavy_levels"`
}

// CleanupResult reports what an age-based cleanup pass deleted
type CleanupResult struct {
	DeletedEdges   int64 `json:"deleted_games"`
	DeletedPlayers int64 `json:"deleted_players"`
}
