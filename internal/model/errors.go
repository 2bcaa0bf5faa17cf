package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Path errors
	ErrNoPath = errors.New("no path to seed player")

	// Metadata errors
	ErrMetadataNotFound = errors.New("ingestion metadata not found")

	// Edge errors
	ErrEdgeNotFound = errors.New("relationship not found")

	// Provider errors
	ErrArchiveNotFound = errors.New("archive not found")
	ErrProfileNotFound = errors.New("profile not found")
)
