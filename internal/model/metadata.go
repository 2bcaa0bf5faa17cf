package model

import "time"

// Ingestion types recorded in metadata
const (
	IngestionHistorical  = "historical"
	IngestionIncremental = "incremental"
)

// IngestionMetadata is the singleton bookkeeping record for the store.
// It is overwritten, never appended, on every ingestion run.
type IngestionMetadata struct {
	LastRefreshed      time.Time `json:"last_refreshed"`
	StoringFrom        time.Time `json:"storing_from"`
	IngestionType      string    `json:"ingestion_type"`
	TotalPlayers       int64     `json:"total_players"`
	TotalRelationships int64     `json:"total_relationships"`
}
