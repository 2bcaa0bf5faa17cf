package neo4j

// Config holds Neo4j connection settings
type Config struct {
	// URI is the bolt/neo4j connection target, e.g. neo4j+s://host
	URI      string
	User     string
	Password string
	// Database selects a named database; empty uses the server default
	Database string
}
