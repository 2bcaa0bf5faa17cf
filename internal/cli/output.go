package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HistoricalSummary:
		o.printHistoricalSummary(v)
	case IncrementalSummary:
		o.printIncrementalSummary(v)
	case UsageReport:
		o.printUsageReport(v)
	case CleanupResult:
		o.printCleanupResult(v)
	case Path:
		o.printPath(v)
	case Player:
		o.printPlayer(v)
	case Metadata:
		o.printMetadata(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HistoricalSummary response type (matches API)
type HistoricalSummary struct {
	Seed              string      `json:"seed"`
	PlayersDiscovered int         `json:"players_discovered"`
	PlayersIngested   int         `json:"players_ingested"`
	PlayersSkipped    int         `json:"players_skipped"`
	EdgesMerged       int         `json:"edges_merged"`
	LevelCounts       map[int]int `json:"level_counts"`
}

// IncrementalSummary response type
type IncrementalSummary struct {
	Months         int `json:"months"`
	PlayersUpdated int `json:"players_updated"`
	PlayersSkipped int `json:"players_skipped"`
	EdgesMerged    int `json:"edges_merged"`
}

// UsageReport response type
type UsageReport struct {
	Stats           GraphStats   `json:"current_stats"`
	PlayerUsagePct  float64      `json:"player_usage_pct"`
	EdgeUsagePct    float64      `json:"relationship_usage_pct"`
	Breakdown       []LevelUsage `json:"breakdown"`
	Recommendations []string     `json:"recommendations"`
	HeavyLevels     []int        `json:"heavy_levels"`
}

// GraphStats response type
type GraphStats struct {
	Players    int64 `json:"players"`
	Edges      int64 `json:"relationships"`
	TotalGames int64 `json:"total_games"`
}

// LevelUsage response type
type LevelUsage struct {
	Level    int     `json:"level"`
	Players  int64   `json:"players"`
	Games    int64   `json:"total_games"`
	AvgGames float64 `json:"avg_games"`
}

// CleanupResult response type
type CleanupResult struct {
	DeletedGames   int64 `json:"deleted_games"`
	DeletedPlayers int64 `json:"deleted_players"`
}

// Path response type
type Path struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Path   []string `json:"path"`
	Length int      `json:"length"`
}

// Player response type
type Player struct {
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar,omitempty"`
	Title       string    `json:"title,omitempty"`
	Name        string    `json:"name,omitempty"`
	Country     string    `json:"country,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
	GamesPlayed int       `json:"games_played"`
	Distance    *int      `json:"distance"`
}

// Metadata response type
type Metadata struct {
	LastRefreshed      time.Time `json:"last_refreshed"`
	StoringFrom        time.Time `json:"storing_from"`
	IngestionType      string    `json:"ingestion_type"`
	TotalPlayers       int64     `json:"total_players"`
	TotalRelationships int64     `json:"total_relationships"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printHistoricalSummary(s HistoricalSummary) {
	fmt.Printf("Seed: %s\n", s.Seed)
	fmt.Printf("Players Discovered: %d\n", s.PlayersDiscovered)
	fmt.Printf("Players Ingested: %d\n", s.PlayersIngested)
	if s.PlayersSkipped > 0 {
		fmt.Printf("Players Skipped: %d\n", s.PlayersSkipped)
	}
	fmt.Printf("Edges Merged: %d\n", s.EdgesMerged)

	levels := make([]int, 0, len(s.LevelCounts))
	for level := range s.LevelCounts {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	for _, level := range levels {
		fmt.Printf("  Level %d: %d players\n", level, s.LevelCounts[level])
	}
}

func (o *Output) printIncrementalSummary(s IncrementalSummary) {
	fmt.Printf("Months Refreshed: %d\n", s.Months)
	fmt.Printf("Players Updated: %d\n", s.PlayersUpdated)
	if s.PlayersSkipped > 0 {
		fmt.Printf("Players Skipped: %d\n", s.PlayersSkipped)
	}
	fmt.Printf("Edges Merged: %d\n", s.EdgesMerged)
}

func (o *Output) printUsageReport(r UsageReport) {
	fmt.Printf("Players: %d (%.1f%% of ceiling)\n", r.Stats.Players, r.PlayerUsagePct)
	fmt.Printf("Relationships: %d (%.1f%% of ceiling)\n", r.Stats.Edges, r.EdgeUsagePct)

	if len(r.Breakdown) > 0 {
		fmt.Println("Breakdown:")
		for _, level := range r.Breakdown {
			label := fmt.Sprintf("Level %d", level.Level)
			if level.Level < 0 {
				label = "Unknown"
			}
			fmt.Printf("  %s: %d players, %.1f avg games\n", label, level.Players, level.AvgGames)
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Println("Recommendations:")
		for _, rec := range r.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
}

func (o *Output) printCleanupResult(r CleanupResult) {
	fmt.Printf("Deleted Games: %d\n", r.DeletedGames)
	fmt.Printf("Deleted Players: %d\n", r.DeletedPlayers)
}

func (o *Output) printPath(p Path) {
	fmt.Printf("Path (%d hops): %s\n", p.Length, strings.Join(p.Path, " -> "))
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s\n", p.Username)
	if p.Title != "" {
		fmt.Printf("Title: %s\n", p.Title)
	}
	if p.Name != "" {
		fmt.Printf("Name: %s\n", p.Name)
	}
	if p.Country != "" {
		fmt.Printf("Country: %s\n", p.Country)
	}
	if p.Distance != nil {
		fmt.Printf("Distance: %d\n", *p.Distance)
	}
	fmt.Printf("Games Played: %d\n", p.GamesPlayed)
	fmt.Printf("Last Updated: %s\n", p.LastUpdated.Format(time.RFC3339))
}

func (o *Output) printMetadata(m Metadata) {
	fmt.Printf("Last Refreshed: %s\n", m.LastRefreshed.Format(time.RFC3339))
	fmt.Printf("Storing From: %s\n", m.StoringFrom.Format(time.RFC3339))
	fmt.Printf("Ingestion Type: %s\n", m.IngestionType)
	fmt.Printf("Total Players: %d\n", m.TotalPlayers)
	fmt.Printf("Total Relationships: %d\n", m.TotalRelationships)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
