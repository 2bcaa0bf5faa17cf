package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/store"
)

// Store is the Neo4j-backed implementation of the graph store. Path
// queries run natively in the database via shortestPath; every write is
// a single MERGE-based upsert statement.
type Store struct {
	driver neo4j.DriverWithContext
	cfg    Config
}

// New connects to Neo4j and verifies connectivity
func New(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	return &Store{driver: driver, cfg: cfg}, nil
}

// Ensure Store implements the interface
var _ store.Store = (*Store)(nil)

func (s *Store) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, s.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.cfg.Database))
}

// EnsureSchema creates the uniqueness constraint and query indexes.
// All statements use IF NOT EXISTS, so repeated calls are safe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE CONSTRAINT player_username_unique IF NOT EXISTS
		 FOR (p:Player) REQUIRE p.username IS UNIQUE`,
		`CREATE INDEX player_distance_index IF NOT EXISTS
		 FOR (p:Player) ON (p.distance)`,
		`CREATE INDEX player_last_updated_index IF NOT EXISTS
		 FOR (p:Player) ON (p.last_updated)`,
		`CREATE INDEX played_date_index IF NOT EXISTS
		 FOR ()-[r:PLAYED]-() ON (r.date)`,
	}

	for _, stmt := range statements {
		if _, err := s.run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// Player operations

func (s *Store) UpsertPlayer(ctx context.Context, player *model.Player) error {
	var distance any
	if player.Distance != nil {
		distance = int64(*player.Distance)
	}

	_, err := s.run(ctx, `
		MERGE (p:Player {username: $username})
		SET p.avatar = $avatar,
		    p.title = $title,
		    p.name = $name,
		    p.country = $country,
		    p.joined = $joined,
		    p.last_updated = $last_updated,
		    p.games_played = $games_played,
		    p.distance = $distance`,
		map[string]any{
			"username":     string(player.Username),
			"avatar":       player.Avatar,
			"title":        player.Title,
			"name":         player.Name,
			"country":      player.Country,
			"joined":       player.Joined,
			"last_updated": player.LastUpdated.UTC(),
			"games_played": int64(player.GamesPlayed),
			"distance":     distance,
		})
	if err != nil {
		return fmt.Errorf("upserting player %s: %w", player.Username, err)
	}
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, username model.Username) (*model.Player, error) {
	result, err := s.run(ctx, `
		MATCH (p:Player {username: $username})
		RETURN p.username AS username, p.avatar AS avatar, p.title AS title,
		       p.name AS name, p.country AS country, p.joined AS joined,
		       p.last_updated AS last_updated, p.games_played AS games_played,
		       p.distance AS distance`,
		map[string]any{"username": string(username)})
	if err != nil {
		return nil, fmt.Errorf("fetching player %s: %w", username, err)
	}
	if len(result.Records) == 0 {
		return nil, model.ErrPlayerNotFound
	}

	return playerFromRecord(result.Records[0]), nil
}

func playerFromRecord(record *neo4j.Record) *model.Player {
	player := &model.Player{
		Username:    model.Username(stringValue(record, "username")),
		Avatar:      stringValue(record, "avatar"),
		Title:       stringValue(record, "title"),
		Name:        stringValue(record, "name"),
		Country:     stringValue(record, "country"),
		Joined:      intValue(record, "joined"),
		GamesPlayed: int(intValue(record, "games_played")),
	}
	if ts, ok := record.Get("last_updated"); ok {
		if t, ok := ts.(time.Time); ok {
			player.LastUpdated = t
		}
	}
	if d, ok := record.Get("distance"); ok && d != nil {
		if level, ok := d.(int64); ok {
			intLevel := int(level)
			player.Distance = &intLevel
		}
	}
	return player
}

func (s *Store) TouchPlayer(ctx context.Context, username model.Username, at time.Time) error {
	result, err := s.run(ctx, `
		MATCH (p:Player {username: $username})
		SET p.last_updated = $at
		RETURN p.username`,
		map[string]any{"username": string(username), "at": at.UTC()})
	if err != nil {
		return fmt.Errorf("touching player %s: %w", username, err)
	}
	if len(result.Records) == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

func (s *Store) StalePlayers(ctx context.Context, olderThan time.Time, limit int) ([]model.Username, error) {
	result, err := s.run(ctx, `
		MATCH (p:Player)
		WHERE p.last_updated < $older_than
		RETURN p.username AS username
		ORDER BY coalesce(p.distance, 2147483647) ASC, p.username ASC
		LIMIT $limit`,
		map[string]any{"older_than": olderThan.UTC(), "limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("listing stale players: %w", err)
	}

	usernames := make([]model.Username, 0, len(result.Records))
	for _, record := range result.Records {
		usernames = append(usernames, model.Username(stringValue(record, "username")))
	}
	return usernames, nil
}

// Edge operations

func (s *Store) UpsertEdge(ctx context.Context, edge *model.PlayedEdge) error {
	// The pair key is already sorted, so one directed relationship per
	// pair represents the undirected edge without duplicates.
	_, err := s.run(ctx, `
		MERGE (a:Player {username: $a})
		MERGE (b:Player {username: $b})
		MERGE (a)-[r:PLAYED]->(b)
		SET r.url = $url,
		    r.date = $date,
		    r.result = $result,
		    r.time_control = $time_control,
		    r.rated = $rated`,
		map[string]any{
			"a":            string(edge.Pair.A),
			"b":            string(edge.Pair.B),
			"url":          edge.URL,
			"date":         edge.Date.UTC(),
			"result":       edge.Result,
			"time_control": edge.TimeControl,
			"rated":        edge.Rated,
		})
	if err != nil {
		return fmt.Errorf("upserting edge %s-%s: %w", edge.Pair.A, edge.Pair.B, err)
	}
	return nil
}

func (s *Store) GetEdge(ctx context.Context, pair model.PairKey) (*model.PlayedEdge, error) {
	result, err := s.run(ctx, `
		MATCH (a:Player {username: $a})-[r:PLAYED]-(b:Player {username: $b})
		RETURN r.url AS url, r.date AS date, r.result AS result,
		       r.time_control AS time_control, r.rated AS rated
		LIMIT 1`,
		map[string]any{"a": string(pair.A), "b": string(pair.B)})
	if err != nil {
		return nil, fmt.Errorf("fetching edge %s-%s: %w", pair.A, pair.B, err)
	}
	if len(result.Records) == 0 {
		return nil, model.ErrEdgeNotFound
	}

	record := result.Records[0]
	edge := &model.PlayedEdge{
		Pair:        pair,
		URL:         stringValue(record, "url"),
		Result:      stringValue(record, "result"),
		TimeControl: stringValue(record, "time_control"),
	}
	if ts, ok := record.Get("date"); ok {
		if t, ok := ts.(time.Time); ok {
			edge.Date = t
		}
	}
	if rated, ok := record.Get("rated"); ok {
		if b, ok := rated.(bool); ok {
			edge.Rated = b
		}
	}
	return edge, nil
}

// Aggregates

func (s *Store) Stats(ctx context.Context) (model.GraphStats, error) {
	result, err := s.run(ctx, `
		MATCH (p:Player)
		RETURN count(p) AS players, sum(coalesce(p.games_played, 0)) AS total_games`,
		nil)
	if err != nil {
		return model.GraphStats{}, fmt.Errorf("counting players: %w", err)
	}

	var stats model.GraphStats
	if len(result.Records) > 0 {
		stats.Players = intValue(result.Records[0], "players")
		stats.TotalGames = intValue(result.Records[0], "total_games")
	}

	result, err = s.run(ctx, `MATCH ()-[r:PLAYED]->() RETURN count(r) AS relationships`, nil)
	if err != nil {
		return model.GraphStats{}, fmt.Errorf("counting relationships: %w", err)
	}
	if len(result.Records) > 0 {
		stats.Edges = intValue(result.Records[0], "relationships")
	}
	return stats, nil
}

func (s *Store) LevelBreakdown(ctx context.Context) ([]model.LevelUsage, error) {
	result, err := s.run(ctx, `
		MATCH (p:Player)
		RETURN coalesce(p.distance, -1) AS level,
		       count(p) AS players,
		       sum(coalesce(p.games_played, 0)) AS total_games
		ORDER BY level ASC`,
		nil)
	if err != nil {
		return nil, fmt.Errorf("computing level breakdown: %w", err)
	}

	breakdown := make([]model.LevelUsage, 0, len(result.Records))
	for _, record := range result.Records {
		usage := model.LevelUsage{
			Level:   int(intValue(record, "level")),
			Players: intValue(record, "players"),
			Games:   intValue(record, "total_games"),
		}
		if usage.Players > 0 {
			usage.AvgGames = float64(usage.Games) / float64(usage.Players)
		}
		breakdown = append(breakdown, usage)
	}
	return breakdown, nil
}

// Metadata singleton

func (s *Store) SaveMetadata(ctx context.Context, meta *model.IngestionMetadata) error {
	_, err := s.run(ctx, `
		MERGE (m:DataMetadata)
		SET m.last_refreshed = $last_refreshed,
		    m.storing_from = $storing_from,
		    m.ingestion_type = $ingestion_type,
		    m.total_players = $total_players,
		    m.total_relationships = $total_relationships`,
		map[string]any{
			"last_refreshed":      meta.LastRefreshed.UTC(),
			"storing_from":        meta.StoringFrom.UTC(),
			"ingestion_type":      meta.IngestionType,
			"total_players":       meta.TotalPlayers,
			"total_relationships": meta.TotalRelationships,
		})
	if err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}
	return nil
}

func (s *Store) GetMetadata(ctx context.Context) (*model.IngestionMetadata, error) {
	result, err := s.run(ctx, `
		MATCH (m:DataMetadata)
		RETURN m.last_refreshed AS last_refreshed, m.storing_from AS storing_from,
		       m.ingestion_type AS ingestion_type, m.total_players AS total_players,
		       m.total_relationships AS total_relationships
		LIMIT 1`,
		nil)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, model.ErrMetadataNotFound
	}

	record := result.Records[0]
	meta := &model.IngestionMetadata{
		IngestionType:      stringValue(record, "ingestion_type"),
		TotalPlayers:       intValue(record, "total_players"),
		TotalRelationships: intValue(record, "total_relationships"),
	}
	if ts, ok := record.Get("last_refreshed"); ok {
		if t, ok := ts.(time.Time); ok {
			meta.LastRefreshed = t
		}
	}
	if ts, ok := record.Get("storing_from"); ok {
		if t, ok := ts.(time.Time); ok {
			meta.StoringFrom = t
		}
	}
	return meta, nil
}

// Cleanup

func (s *Store) DeleteEdgesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.run(ctx, `
		MATCH ()-[r:PLAYED]->()
		WHERE r.date < $cutoff
		DELETE r`,
		map[string]any{"cutoff": cutoff.UTC()})
	if err != nil {
		return 0, fmt.Errorf("deleting old edges: %w", err)
	}
	return int64(result.Summary.Counters().RelationshipsDeleted()), nil
}

func (s *Store) DeleteOrphanPlayers(ctx context.Context) (int64, error) {
	result, err := s.run(ctx, `
		MATCH (p:Player)
		WHERE NOT (p)-[:PLAYED]-()
		DELETE p`,
		nil)
	if err != nil {
		return 0, fmt.Errorf("deleting orphan players: %w", err)
	}
	return int64(result.Summary.Counters().NodesDeleted()), nil
}

// ShortestPath delegates to the database's native shortestPath engine.
// The hop bound cannot be parameterized in Cypher, so it is validated
// and inlined.
func (s *Store) ShortestPath(ctx context.Context, from, to model.Username, maxDepth int) ([]model.Username, error) {
	if maxDepth < 1 {
		return nil, fmt.Errorf("maxDepth must be at least 1, got %d", maxDepth)
	}

	query := fmt.Sprintf(`
		MATCH (from:Player {username: $from}), (to:Player {username: $to})
		MATCH p = shortestPath((from)-[:PLAYED*..%d]-(to))
		RETURN [n IN nodes(p) | n.username] AS path`, maxDepth)

	result, err := s.run(ctx, query, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	if err != nil {
		return nil, fmt.Errorf("finding shortest path: %w", err)
	}

	if len(result.Records) == 0 {
		// Distinguish unknown players from a genuinely missing path
		if _, err := s.GetPlayer(ctx, from); err != nil {
			return nil, err
		}
		if _, err := s.GetPlayer(ctx, to); err != nil {
			return nil, err
		}
		return nil, model.ErrNoPath
	}

	raw, _ := result.Records[0].Get("path")
	nodes, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected path result type %T", raw)
	}

	path := make([]model.Username, 0, len(nodes))
	for _, node := range nodes {
		if username, ok := node.(string); ok {
			path = append(path, model.Username(username))
		}
	}
	return path, nil
}

// Close releases the underlying driver
func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

// Record value helpers; Neo4j returns nil for absent properties

func stringValue(record *neo4j.Record, key string) string {
	if v, ok := record.Get(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

func intValue(record *neo4j.Record, key string) int64 {
	if v, ok := record.Get(key); ok {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return 0
}
