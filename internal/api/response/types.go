package response

import (
	"time"

	"github.com/chessgraph/chessgraph/internal/model"
)

// Player is the API representation of a stored player
type Player struct {
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar,omitempty"`
	Title       string    `json:"title,omitempty"`
	Name        string    `json:"name,omitempty"`
	Country     string    `json:"country,omitempty"`
	Joined      int64     `json:"joined,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
	GamesPlayed int       `json:"games_played"`
	Distance    *int      `json:"distance"`
}

// PlayerFromModel converts a model player to its API representation
func PlayerFromModel(p *model.Player) Player {
	return Player{
		Username:    string(p.Username),
		Avatar:      p.Avatar,
		Title:       p.Title,
		Name:        p.Name,
		Country:     p.Country,
		Joined:      p.Joined,
		LastUpdated: p.LastUpdated,
		GamesPlayed: p.GamesPlayed,
		Distance:    p.Distance,
	}
}

// Path is the API representation of a shortest path between two players
type Path struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Path   []string `json:"path"`
	Length int      `json:"length"`
}

// PathFromUsernames converts a resolved path to its API representation.
// Length counts hops, not nodes.
func PathFromUsernames(path []model.Username) Path {
	usernames := make([]string, len(path))
	for i, u := range path {
		usernames[i] = string(u)
	}
	return Path{
		From:   usernames[0],
		To:     usernames[len(usernames)-1],
		Path:   usernames,
		Length: len(usernames) - 1,
	}
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}
