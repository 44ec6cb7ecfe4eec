package services

import (
	"context"
	"time"

	"github.com/nexconsult/dian-api/internal/models"
)

// Searcher runs one browser search. *dian.Orchestrator implements it.
type Searcher interface {
	Execute(ctx context.Context, identifier string) models.SearchOutcome
}

// SearchServiceInterface defines the interface for the document search service
type SearchServiceInterface interface {
	// Search looks up one document. Failures are reported inside the outcome.
	Search(ctx context.Context, cufe string) models.SearchOutcome

	// TrySearch is Search, but reports a missing browser session as an error
	TrySearch(ctx context.Context, cufe string) (models.SearchOutcome, error)

	// SearchBatch looks up several documents, bounded by the session limit
	SearchBatch(ctx context.Context, cufes []string) models.BatchSearchResponse

	// Stats returns session pool statistics
	Stats() map[string]interface{}

	// Health returns service health status
	Health() map[string]interface{}

	// Close releases the browser driver
	Close() error
}

// CacheServiceInterface defines the interface for the outcome cache
type CacheServiceInterface interface {
	// GetOutcome returns a cached outcome for cufe
	GetOutcome(ctx context.Context, cufe string) (models.SearchOutcome, bool)

	// SetOutcome stores a successful outcome. Failed outcomes are ignored.
	SetOutcome(ctx context.Context, cufe string, outcome models.SearchOutcome) error

	// Delete removes the entry for cufe
	Delete(ctx context.Context, cufe string) error

	// Clear removes every cached outcome
	Clear(ctx context.Context) error

	// Enabled reports whether outcomes are cached at all
	Enabled() bool

	// GetStats returns cache statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Health returns cache service health status
	Health() map[string]interface{}
}

// MetricsRecorder receives search metrics. *metrics.Metrics implements it.
type MetricsRecorder interface {
	ObserveSearch(result string, duration time.Duration)
	SessionStarted()
	SessionFinished()
	CacheHit()
}
