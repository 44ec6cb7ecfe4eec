package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/nexconsult/dian-api/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ErrNoSession is returned when no browser session slot frees up in time
var ErrNoSession = errors.New("no browser session available")

// ErrBrowserClosed is returned after the browser service has been closed
var ErrBrowserClosed = errors.New("browser service is closed")

// BrowserService bounds how many browser sessions run at once
type BrowserService struct {
	config config.BrowserConfig
	driver browser.Driver
	logger *logrus.Logger

	sem      *semaphore.Weighted
	max      int64
	inUse    atomic.Int64
	waiting  atomic.Int64
	acquired atomic.Int64
	timeouts atomic.Int64

	mu        sync.RWMutex
	closed    bool
	startedAt time.Time
}

// NewBrowserService creates a new browser service around driver
func NewBrowserService(cfg config.BrowserConfig, driver browser.Driver, logger *logrus.Logger) *BrowserService {
	max := int64(cfg.MaxSessions)
	if max < 1 {
		max = 1
	}
	logger.WithFields(logrus.Fields{
		"driver":       driver.Name(),
		"max_sessions": max,
		"headless":     cfg.Headless,
	}).Info("Browser service initialized")

	return &BrowserService{
		config:    cfg,
		driver:    driver,
		logger:    logger,
		sem:       semaphore.NewWeighted(max),
		max:       max,
		startedAt: time.Now(),
	}
}

// Driver returns the underlying page driver
func (s *BrowserService) Driver() browser.Driver {
	return s.driver
}

// MaxSessions returns the concurrency bound
func (s *BrowserService) MaxSessions() int {
	return int(s.max)
}

// Acquire reserves a session slot, waiting at most wait (0 waits as long as ctx allows).
// The returned release func must be called exactly once.
func (s *BrowserService) Acquire(ctx context.Context, wait time.Duration) (func(), error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrBrowserClosed
	}

	acquireCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	s.waiting.Add(1)
	err := s.sem.Acquire(acquireCtx, 1)
	s.waiting.Add(-1)
	if err != nil {
		s.timeouts.Add(1)
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	s.inUse.Add(1)
	s.acquired.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.inUse.Add(-1)
			s.sem.Release(1)
		})
	}, nil
}

// GetStats returns session pool statistics
func (s *BrowserService) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"driver":         s.driver.Name(),
		"max_sessions":   s.max,
		"in_use":         s.inUse.Load(),
		"waiting":        s.waiting.Load(),
		"total_acquired": s.acquired.Load(),
		"acquire_errors": s.timeouts.Load(),
		"headless":       s.config.Headless,
		"uptime":         time.Since(s.startedAt).Round(time.Second).String(),
	}
	if counter, ok := s.driver.(browser.SessionCounter); ok {
		stats["open_sessions"] = counter.ActiveSessions()
	}
	return stats
}

// Health returns browser service health status
func (s *BrowserService) Health() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := "healthy"
	switch {
	case s.closed:
		status = "unhealthy"
	case s.inUse.Load() >= s.max && s.waiting.Load() > 0:
		status = "degraded"
	}
	return map[string]interface{}{
		"status":       status,
		"driver":       s.driver.Name(),
		"in_use":       s.inUse.Load(),
		"max_sessions": s.max,
	}
}

// Close shuts the driver down; later Acquire calls fail
func (s *BrowserService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.logger.Info("Closing browser service")
	return s.driver.Close()
}
