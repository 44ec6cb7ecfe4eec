package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrSessionClosed is returned by any session operation after Close
var ErrSessionClosed = errors.New("browser session is closed")

// Driver opens isolated browser sessions
type Driver interface {
	// NewSession opens a fresh browser context with one page, configured by profile
	NewSession(ctx context.Context, profile Profile) (Session, error)

	// Name identifies the backend ("chromedp", "playwright")
	Name() string

	// Close releases backend-wide resources
	Close() error
}

// Session is one browser context plus one page, owned by a single search run
type Session interface {
	// Navigate loads url and waits for the DOM to be ready
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// WaitForElement waits until selector is attached to the DOM
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) error

	// WaitForNetworkIdle waits until no requests have been in flight for a short quiet window
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error

	// Evaluate runs a JavaScript expression in the page and decodes its result into out (may be nil)
	Evaluate(ctx context.Context, expression string, out any) error

	// InputValue returns the value of the first element matching selector, or "" when absent
	InputValue(ctx context.Context, selector string) (string, error)

	// Fill replaces the value of an input
	Fill(ctx context.Context, selector, value string) error

	// Type focuses selector and types text one key at a time, pausing delay between keys
	Type(ctx context.Context, selector, text string, delay time.Duration) error

	// Click clicks on an element
	Click(ctx context.Context, selector string) error

	// ClickAndWaitNavigation clicks selector and waits up to timeout for the main frame to navigate.
	// The bool reports whether a navigation was observed; only the click itself can fail.
	ClickAndWaitNavigation(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	// Hover moves the pointer over an element
	Hover(ctx context.Context, selector string) error

	// Content returns the full page markup
	Content(ctx context.Context) (string, error)

	// Cookies returns the cookies visible to the page
	Cookies(ctx context.Context) ([]Cookie, error)

	// Close closes the page and its browser context
	Close() error
}

// SessionCounter is implemented by drivers that track their open sessions
type SessionCounter interface {
	ActiveSessions() int64
}

// NewDriver returns the backend registered under name
func NewDriver(name string, logger *logrus.Logger) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "chromedp", "chrome":
		return NewChromeDriver(logger), nil
	case "playwright":
		return NewPlaywrightDriver(logger), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", name)
	}
}

// Cookie represents an HTTP cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// boundedTimeout clamps timeout to whatever is left of ctx's deadline
func boundedTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout < 0 {
		timeout = 0
	}
	return timeout
}

// sleepCtx pauses for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// decodeResult converts a generic script result into out
func decodeResult(result any, out any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode script result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode script result: %w", err)
	}
	return nil
}
