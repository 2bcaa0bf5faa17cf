package model

import (
	"strings"
	"time"
)

// Username is a chess.com username, always stored case-folded
type Username string

// NormalizeUsername folds a raw provider username to its canonical form
func NormalizeUsername(raw string) Username {
	return Username(strings.ToLower(strings.TrimSpace(raw)))
}

// Player is a node in the social graph, keyed by username
type Player struct {
	Username    Username  `json:"username"`
	Avatar      string    `json:"avatar"`
	Title       string    `json:"title"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	Joined      int64     `json:"joined"` // unix seconds, 0 if unknown
	LastUpdated time.Time `json:"last_updated"`
	GamesPlayed int       `json:"games_played"`
	// Distance is the discovery level from the seed player.
	// nil until the player has been reached by a discovery run.
	Distance *int `json:"distance"`
}

// PlayerProfile is the provider's view of a player, including the list
// of monthly archive URLs
type PlayerProfile struct {
	Username string   `json:"username"`
	Avatar   string   `json:"avatar"`
	Title    string   `json:"title"`
	Name     string   `json:"name"`
	Country  string   `json:"country"`
	Joined   int64    `json:"joined"`
	Archives []string `json:"archives"`
}
