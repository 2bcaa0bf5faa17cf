package discovery

import "github.com/chessgraph/chessgraph/internal/model"

// Opponents derives the set of distinct opponents a player faced in the
// given games. Usernames are case-folded and the player themselves is
// never included. Pure function: deterministic, no I/O.
func Opponents(games []model.GameRecord, self model.Username) map[model.Username]struct{} {
	opponents := make(map[model.Username]struct{})
	for _, game := range games {
		for _, raw := range []string{game.White.Username, game.Black.Username} {
			username := model.NormalizeUsername(raw)
			if username != "" && username != self {
				opponents[username] = struct{}{}
			}
		}
	}
	return opponents
}
