package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nexconsult/dian-api/internal/logger"
	"github.com/nexconsult/dian-api/internal/metrics"
	"github.com/nexconsult/dian-api/internal/models"
	"github.com/nexconsult/dian-api/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SearchService implements document search on top of the orchestrator
type SearchService struct {
	searcher     Searcher
	browsers     *BrowserService
	cache        CacheServiceInterface
	metrics      MetricsRecorder
	logger       *logrus.Logger
	queueTimeout time.Duration

	requests atomic.Int64
	success  atomic.Int64
	failures atomic.Int64
}

// NewSearchService creates a new search service. queueTimeout bounds the wait
// for a free browser session (0: as long as the caller's context allows).
func NewSearchService(searcher Searcher, browsers *BrowserService, cache CacheServiceInterface, recorder MetricsRecorder, queueTimeout time.Duration, logger *logrus.Logger) *SearchService {
	return &SearchService{
		searcher:     searcher,
		browsers:     browsers,
		cache:        cache,
		metrics:      recorder,
		logger:       logger,
		queueTimeout: queueTimeout,
	}
}

// Search looks up one document; failures are reported in the outcome
func (s *SearchService) Search(ctx context.Context, cufe string) models.SearchOutcome {
	outcome, err := s.TrySearch(ctx, cufe)
	if err != nil {
		return models.Failure(err.Error())
	}
	return outcome
}

// TrySearch is Search, except that failing to get a browser session is returned
// as an error wrapping ErrNoSession
func (s *SearchService) TrySearch(ctx context.Context, cufe string) (models.SearchOutcome, error) {
	start := time.Now()
	cufe = utils.CleanIdentifier(cufe)
	s.requests.Add(1)

	log := s.logger.WithFields(logrus.Fields{
		"component":  "search",
		"request_id": logger.RequestID(ctx),
		"cufe":       utils.MaskIdentifier(cufe),
	})

	if cufe == "" {
		s.failures.Add(1)
		return models.Failure("identifier is required"), nil
	}

	if outcome, ok := s.cache.GetOutcome(ctx, cufe); ok {
		s.success.Add(1)
		s.metrics.CacheHit()
		s.metrics.ObserveSearch(metrics.ResultCached, time.Since(start))
		log.WithField("duration", time.Since(start)).Info("Outcome served from cache")
		return outcome, nil
	}

	release, err := s.browsers.Acquire(ctx, s.queueTimeout)
	if err != nil {
		s.failures.Add(1)
		s.metrics.ObserveSearch(metrics.ResultCancelled, time.Since(start))
		log.WithError(err).Warn("No browser session available")
		return models.SearchOutcome{}, fmt.Errorf("search not started: %w", err)
	}
	defer release()

	s.metrics.SessionStarted()
	outcome := s.searcher.Execute(ctx, cufe)
	s.metrics.SessionFinished()

	result := resultLabel(outcome)
	s.metrics.ObserveSearch(result, time.Since(start))
	if outcome.Ok {
		s.success.Add(1)
		if err := s.cache.SetOutcome(ctx, cufe, outcome); err != nil {
			log.WithError(err).Warn("Failed to cache outcome")
		}
	} else {
		s.failures.Add(1)
	}

	log.WithFields(logrus.Fields{
		"result":   result,
		"events":   len(outcome.Events),
		"duration": time.Since(start),
	}).Info("Search completed")
	return outcome, nil
}

// SearchBatch runs the searches concurrently, at most one per session slot
func (s *SearchService) SearchBatch(ctx context.Context, cufes []string) models.BatchSearchResponse {
	start := time.Now()
	results := make([]models.BatchResult, len(cufes))

	g := new(errgroup.Group)
	g.SetLimit(s.browsers.MaxSessions())
	for i, cufe := range cufes {
		i, cufe := i, cufe
		g.Go(func() error {
			results[i] = models.BatchResult{
				CUFE:    utils.CleanIdentifier(cufe),
				Outcome: s.Search(ctx, cufe),
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := models.BatchSearchResponse{
		Results:    results,
		Total:      len(results),
		DurationMs: time.Since(start).Milliseconds(),
	}
	for _, r := range results {
		if r.Outcome.Ok {
			resp.Success++
		} else {
			resp.Errors++
		}
	}
	return resp
}

// Stats returns request counters and the session pool statistics
func (s *SearchService) Stats() map[string]interface{} {
	return map[string]interface{}{
		"requests": s.requests.Load(),
		"success":  s.success.Load(),
		"failures": s.failures.Load(),
		"sessions": s.browsers.GetStats(),
	}
}

// Health returns service health status
func (s *SearchService) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":   "healthy",
		"requests": s.requests.Load(),
		"browser":  s.browsers.Health(),
	}
}

// Close releases the browser driver
func (s *SearchService) Close() error {
	return s.browsers.Close()
}

// IsNoSession reports whether err means no browser session could be obtained
func IsNoSession(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrBrowserClosed)
}

func resultLabel(outcome models.SearchOutcome) string {
	switch {
	case outcome.Ok:
		return metrics.ResultSuccess
	case outcome.ErrorID != nil || strings.HasPrefix(outcome.ErrorMessage(), "DIAN rejected"):
		return metrics.ResultRejected
	default:
		return metrics.ResultFailed
	}
}
