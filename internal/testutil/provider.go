package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/chessgraph/chessgraph/internal/model"
)

// StubProvider is a fake game-history provider backed by httptest.
// Tests register players and archives, then point a chesscom.Client at
// URL().
type StubProvider struct {
	mu       sync.Mutex
	server   *httptest.Server
	profiles map[string]model.PlayerProfile
	archives map[string][]model.GameRecord
	broken   map[string]int // archive path -> status code to return
	requests []string
}

// NewStubProvider starts a stub provider, closed automatically when the
// test finishes
func NewStubProvider(t *testing.T) *StubProvider {
	t.Helper()

	p := &StubProvider{
		profiles: make(map[string]model.PlayerProfile),
		archives: make(map[string][]model.GameRecord),
		broken:   make(map[string]int),
	}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.server.Close)
	return p
}

// URL returns the provider base URL
func (p *StubProvider) URL() string {
	return p.server.URL
}

// AddPlayer registers a player whose games all live in a single monthly
// archive
func (p *StubProvider) AddPlayer(username string, games ...model.GameRecord) {
	p.AddPlayerArchives(username, games)
}

// AddPlayerArchives registers a player with one archive per slice of
// games, in chronological order
func (p *StubProvider) AddPlayerArchives(username string, archives ...[]model.GameRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	profile := model.PlayerProfile{Username: username}
	for i, games := range archives {
		path := fmt.Sprintf("/archives/%s/%d", username, i+1)
		p.archives[path] = games
		profile.Archives = append(profile.Archives, p.server.URL+path)
	}
	p.profiles[username] = profile
}

// SetProfile overrides the registered profile attributes for a player,
// preserving any archives already registered
func (p *StubProvider) SetProfile(profile model.PlayerProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.profiles[profile.Username]; ok && len(profile.Archives) == 0 {
		profile.Archives = existing.Archives
	}
	p.profiles[profile.Username] = profile
}

// BreakArchive makes the numbered archive (1-based) for a player return
// the given status code
func (p *StubProvider) BreakArchive(username string, n, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broken[fmt.Sprintf("/archives/%s/%d", username, n)] = status
}

// Requests returns the paths requested so far, in order
func (p *StubProvider) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.requests))
	copy(out, p.requests)
	return out
}

func (p *StubProvider) handle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.requests = append(p.requests, r.URL.Path)

	if status, ok := p.broken[r.URL.Path]; ok {
		p.mu.Unlock()
		w.WriteHeader(status)
		return
	}

	if username, ok := strings.CutPrefix(r.URL.Path, "/player/"); ok {
		profile, found := p.profiles[username]
		p.mu.Unlock()
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, profile)
		return
	}

	if games, ok := p.archives[r.URL.Path]; ok {
		p.mu.Unlock()
		writeJSON(w, map[string][]model.GameRecord{"games": games})
		return
	}

	p.mu.Unlock()
	w.WriteHeader(http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// Game builds a rated game record between two usernames ending at the
// given unix time
func Game(white, black string, endTime int64) model.GameRecord {
	return model.GameRecord{
		White:       model.GameSide{Username: white, Result: "win"},
		Black:       model.GameSide{Username: black, Result: "resigned"},
		URL:         fmt.Sprintf("https://example.com/game/%s-%s-%d", white, black, endTime),
		EndTime:     endTime,
		TimeControl: "600",
		Rated:       true,
	}
}
