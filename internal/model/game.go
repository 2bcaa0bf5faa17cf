package model

import "time"

// GameSide is one side of a game as reported by the provider
type GameSide struct {
	Username string `json:"username"`
	Result   string `json:"result"`
}

// GameRecord is a single game from a monthly archive, in the provider's
// wire shape. Timestamp fields are unix seconds and any of them may be
// zero for incomplete records.
type GameRecord struct {
	White        GameSide `json:"white"`
	Black        GameSide `json:"black"`
	URL          string   `json:"url"`
	EndTime      int64    `json:"end_time"`
	LastActivity int64    `json:"last_activity"`
	StartTime    int64    `json:"start_time"`
	TimeControl  string   `json:"time_control"`
	Rated        bool     `json:"rated"`
}

// EventTime returns the best-effort event timestamp for the game:
// end time, else last activity, else start time. The zero time means
// no timestamp is available at all.
func (g GameRecord) EventTime() time.Time {
	for _, ts := range []int64{g.EndTime, g.LastActivity, g.StartTime} {
		if ts > 0 {
			return time.Unix(ts, 0).UTC()
		}
	}
	return time.Time{}
}

// PairKey identifies a PLAYED edge by its unordered username pair
type PairKey struct {
	A Username
	B Username
}

// NewPairKey builds the canonical key for two usernames; the pair is
// unordered so the lexically smaller username always comes first
func NewPairKey(x, y Username) PairKey {
	if y < x {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

// PlayedEdge is an undirected played-against relationship between two
// players. One edge is retained per pair; the most recent game between
// the pair supplies its attributes.
type PlayedEdge struct {
	Pair        PairKey   `json:"pair"`
	URL         string    `json:"url"`
	Date        time.Time `json:"date"`
	Result      string    `json:"result"`
	TimeControl string    `json:"time_control"`
	Rated       bool      `json:"rated"`
}
