package request

// HistoricalIngestRequest is the body for POST /ingest/historical.
// Seed falls back to the configured seed player when empty.
type HistoricalIngestRequest struct {
	Seed string `json:"seed"`
}

// IncrementalIngestRequest is the body for POST /ingest/incremental
type IncrementalIngestRequest struct {
	Months int `json:"months"`
}

// CleanupRequest is the body for POST /storage/cleanup
type CleanupRequest struct {
	MaxAgeYears int `json:"max_age_years"`
}
