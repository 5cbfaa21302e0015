// Package backend builds the remote source of truth selected by
// DATA_BACKEND.
package backend

import (
	"context"
	"time"

	"viagem/internal/sheets"
)

// Backend is the remote source of truth for one trip.
type Backend = sheets.TripAPI

// BackendResult contains the backend instance and optional hooks.
type BackendResult struct {
	Backend Backend
	// Probe checks the backend is reachable; nil means always ready.
	Probe func(ctx context.Context) error
	// Cleanup releases resources; nil when there is nothing to release.
	Cleanup func() error
}

// Ready runs Probe when the backend has one.
func (r *BackendResult) Ready(ctx context.Context) error {
	if r.Probe == nil {
		return nil
	}
	return r.Probe(ctx)
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	GoogleSpreadsheetID   string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	GoogleSheetCacheTTL   time.Duration

	// MemorySeedFile seeds the memory backend; a missing file is an empty trip.
	MemorySeedFile string
}

type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) IsValid() bool {
	return bt == SheetsBackend || bt == MemoryBackend
}
