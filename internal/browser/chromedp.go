package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	// sessionSetupTimeout bounds browser launch plus emulation setup
	sessionSetupTimeout = 30 * time.Second
	// defaultOpTimeout bounds operations that take no explicit timeout
	defaultOpTimeout = 15 * time.Second
	// networkQuietWindow is how long the network must stay idle to count as settled
	networkQuietWindow = 500 * time.Millisecond
	statePollInterval  = 100 * time.Millisecond
)

// ChromeDriver launches one Chrome process per session through chromedp
type ChromeDriver struct {
	logger *logrus.Logger
	active atomic.Int64
}

// NewChromeDriver creates a new chromedp backed driver
func NewChromeDriver(logger *logrus.Logger) *ChromeDriver {
	return &ChromeDriver{logger: logger}
}

// Name returns the backend name
func (d *ChromeDriver) Name() string { return "chromedp" }

// ActiveSessions returns the number of sessions not yet closed
func (d *ChromeDriver) ActiveSessions() int64 { return d.active.Load() }

// Close is a no-op: every session owns its own process
func (d *ChromeDriver) Close() error { return nil }

// allocatorOptions builds the Chrome command line for a profile
func (d *ChromeDriver) allocatorOptions(p Profile) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", p.Headless),
		chromedp.Flag("disable-software-rasterizer", p.Headless),
		chromedp.Flag("lang", p.Locale),
	)
	if p.ViewportWidth > 0 && p.ViewportHeight > 0 {
		opts = append(opts, chromedp.WindowSize(p.ViewportWidth, p.ViewportHeight))
	}
	if p.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(p.UserAgent))
	}
	if p.MaskAutomation {
		opts = append(opts, chromedp.Flag("disable-blink-features", "AutomationControlled"))
	}
	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}
	return opts
}

// NewSession launches Chrome, opens a tab and applies the profile
func (d *ChromeDriver) NewSession(ctx context.Context, profile Profile) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), d.allocatorOptions(profile)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		tabCtx:   tabCtx,
		cancel:   func() { tabCancel(); allocCancel() },
		inflight: make(map[network.RequestID]struct{}),
		logger:   d.logger.WithField("component", "chromedp"),
		release:  func() { d.active.Add(-1) },
	}
	d.active.Add(1)
	s.listen()

	// The first Run starts the browser; it must not carry a timeout or the
	// process would die with it.
	stop := context.AfterFunc(ctx, s.cancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	if err := s.run(ctx, sessionSetupTimeout, s.applyProfile(profile)); err != nil {
		s.Close()
		return nil, fmt.Errorf("apply browser profile: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"headless": profile.Headless,
		"locale":   profile.Locale,
		"timezone": profile.Timezone,
	}).Debug("Chrome session started")
	return s, nil
}

// chromeSession implements Session on a single chromedp tab
type chromeSession struct {
	tabCtx  context.Context
	cancel  context.CancelFunc
	logger  *logrus.Entry
	release func()

	closeOnce sync.Once
	closed    atomic.Bool

	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time

	domContentEvents atomic.Int64
}

// listen tracks in-flight requests and document loads for the idle and navigation waits
func (s *chromeSession) listen() {
	s.lastActivity = time.Now()
	chromedp.ListenTarget(s.tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			s.mu.Lock()
			s.inflight[e.RequestID] = struct{}{}
			s.lastActivity = time.Now()
			s.mu.Unlock()
		case *network.EventLoadingFinished:
			s.finishRequest(e.RequestID)
		case *network.EventLoadingFailed:
			s.finishRequest(e.RequestID)
		case *page.EventDomContentEventFired:
			s.domContentEvents.Add(1)
		}
	})
}

func (s *chromeSession) finishRequest(id network.RequestID) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// idleFor reports how long the network has been quiet (zero while requests are in flight)
func (s *chromeSession) idleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inflight) > 0 {
		return 0
	}
	return time.Since(s.lastActivity)
}

func (s *chromeSession) applyProfile(p Profile) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network: %w", err)
		}
		if p.Locale != "" {
			if err := emulation.SetLocaleOverride().WithLocale(p.Locale).Do(ctx); err != nil {
				return fmt.Errorf("set locale: %w", err)
			}
		}
		if p.Timezone != "" {
			if err := emulation.SetTimezoneOverride(p.Timezone).Do(ctx); err != nil {
				return fmt.Errorf("set timezone: %w", err)
			}
		}
		if p.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(p.UserAgent).WithAcceptLanguage(p.AcceptLanguage()).Do(ctx); err != nil {
				return fmt.Errorf("set user agent: %w", err)
			}
		}
		if p.ColorScheme != "" {
			err := emulation.SetEmulatedMedia().
				WithFeatures([]*emulation.MediaFeature{{Name: "prefers-color-scheme", Value: p.ColorScheme}}).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("set color scheme: %w", err)
			}
		}
		if script := p.InitScript(); script != "" {
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return fmt.Errorf("add init script: %w", err)
			}
		}
		return nil
	})
}

// scoped derives a context from the tab that also ends when the caller's ctx does
func (s *chromeSession) scoped(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.tabCtx, boundedTimeout(ctx, timeout))
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	runCtx, cancel := s.scoped(ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the document to be ready
func (s *chromeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// WaitForElement waits until selector is present in the DOM
func (s *chromeSession) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// WaitForNetworkIdle waits for a quiet window with no requests in flight
func (s *chromeSession) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	waitCtx, cancel := s.scoped(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(statePollInterval)
	defer ticker.Stop()
	for {
		if s.idleFor() >= networkQuietWindow {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("wait for network idle: %w", waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// Evaluate runs a JavaScript expression and decodes the result into out
func (s *chromeSession) Evaluate(ctx context.Context, expression string, out any) error {
	if err := s.run(ctx, defaultOpTimeout, chromedp.Evaluate(expression, out)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

// InputValue reads an element's value without waiting for it to exist
func (s *chromeSession) InputValue(ctx context.Context, selector string) (string, error) {
	var value string
	expr := fmt.Sprintf(`(() => { const el = document.querySelector(%s); return el && typeof el.value === 'string' ? el.value : ''; })()`, jsLiteral(selector))
	if err := s.run(ctx, defaultOpTimeout, chromedp.Evaluate(expr, &value)); err != nil {
		return "", fmt.Errorf("read value of %s: %w", selector, err)
	}
	return value, nil
}

// Fill replaces the value of an input
func (s *chromeSession) Fill(ctx context.Context, selector, value string) error {
	if err := s.run(ctx, defaultOpTimeout, chromedp.SetValue(selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

// Type sends text one key event at a time
func (s *chromeSession) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	timeout := defaultOpTimeout + time.Duration(len(text))*delay
	err := s.run(ctx, timeout,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, r := range text {
				if err := chromedp.KeyEvent(string(r)).Do(ctx); err != nil {
					return err
				}
				if err := sleepCtx(ctx, delay); err != nil {
					return err
				}
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

// Click clicks on an element
func (s *chromeSession) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, defaultOpTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// ClickAndWaitNavigation clicks and waits for the next DOMContentLoaded of the page
func (s *chromeSession) ClickAndWaitNavigation(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	before := s.domContentEvents.Load()
	if err := s.Click(ctx, selector); err != nil {
		return false, err
	}

	waitCtx, cancel := s.scoped(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(statePollInterval)
	defer ticker.Stop()
	for {
		if s.domContentEvents.Load() > before {
			return true, nil
		}
		select {
		case <-waitCtx.Done():
			return false, nil
		case <-ticker.C:
		}
	}
}

// Hover scrolls an element into view and moves the mouse over its center
func (s *chromeSession) Hover(ctx context.Context, selector string) error {
	var box struct {
		Found bool    `json:"found"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	expr := fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) return { found: false, x: 0, y: 0 };
  el.scrollIntoView({ block: 'center' });
  const r = el.getBoundingClientRect();
  return { found: true, x: r.left + r.width / 2, y: r.top + r.height / 2 };
})()`, jsLiteral(selector))

	err := s.run(ctx, defaultOpTimeout,
		chromedp.Evaluate(expr, &box),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if !box.Found {
				return fmt.Errorf("element not found")
			}
			return input.DispatchMouseEvent(input.MouseMoved, box.X, box.Y).Do(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("hover %s: %w", selector, err)
	}
	return nil
}

// Content returns the full page markup
func (s *chromeSession) Content(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, defaultOpTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return html, nil
}

// Cookies returns the cookies for the current page
func (s *chromeSession) Cookies(ctx context.Context) ([]Cookie, error) {
	var cookies []Cookie
	err := s.run(ctx, defaultOpTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		cookies = make([]Cookie, 0, len(raw))
		for _, c := range raw {
			cookies = append(cookies, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
				SameSite: string(c.SameSite),
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	return cookies, nil
}

// Close closes the tab and kills the browser process
func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		if s.release != nil {
			s.release()
		}
		s.logger.Debug("Chrome session closed")
	})
	return nil
}

// jsLiteral encodes a Go string as a JavaScript string literal
func jsLiteral(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}
