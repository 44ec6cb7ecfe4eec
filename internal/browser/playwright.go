package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// PlaywrightDriver shares one Chromium process and opens a browser context per session
type PlaywrightDriver struct {
	logger *logrus.Logger

	mu       sync.Mutex
	pw       *playwright.Playwright
	browser  playwright.Browser
	headless bool
	active   atomic.Int64
}

// NewPlaywrightDriver creates a new playwright backed driver. The browser is
// launched on the first session.
func NewPlaywrightDriver(logger *logrus.Logger) *PlaywrightDriver {
	return &PlaywrightDriver{logger: logger}
}

// Name returns the backend name
func (d *PlaywrightDriver) Name() string { return "playwright" }

// ActiveSessions returns the number of sessions not yet closed
func (d *PlaywrightDriver) ActiveSessions() int64 { return d.active.Load() }

// ensureBrowser starts playwright and Chromium, relaunching when the headless mode changes
func (d *PlaywrightDriver) ensureBrowser(profile Profile) (playwright.Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser != nil && d.browser.IsConnected() && d.headless == profile.Headless {
		return d.browser, nil
	}
	if d.browser != nil {
		if d.active.Load() > 0 {
			return nil, fmt.Errorf("browser is busy in headless=%t mode", d.headless)
		}
		_ = d.browser.Close()
		d.browser = nil
	}

	if d.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("start playwright: %w", err)
		}
		d.pw = pw
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(profile.Headless),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
	}
	if profile.MaskAutomation {
		opts.Args = append(opts.Args, "--disable-blink-features=AutomationControlled")
	}
	if profile.ExecPath != "" {
		opts.ExecutablePath = playwright.String(profile.ExecPath)
	}

	browser, err := d.pw.Chromium.Launch(opts)
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	d.browser = browser
	d.headless = profile.Headless

	d.logger.WithFields(logrus.Fields{
		"component": "playwright",
		"headless":  profile.Headless,
		"version":   browser.Version(),
	}).Info("Chromium launched")
	return browser, nil
}

func contextOptions(p Profile) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		Locale:     playwright.String(p.Locale),
		TimezoneId: playwright.String(p.Timezone),
	}
	if p.UserAgent != "" {
		opts.UserAgent = playwright.String(p.UserAgent)
	}
	if p.ViewportWidth > 0 && p.ViewportHeight > 0 {
		opts.Viewport = &playwright.Size{Width: p.ViewportWidth, Height: p.ViewportHeight}
	}
	if lang := p.AcceptLanguage(); lang != "" {
		opts.ExtraHttpHeaders = map[string]string{"Accept-Language": lang}
	}
	switch p.ColorScheme {
	case "light":
		opts.ColorScheme = playwright.ColorSchemeLight
	case "dark":
		opts.ColorScheme = playwright.ColorSchemeDark
	}
	return opts
}

// NewSession opens a fresh browser context with a single page
func (d *PlaywrightDriver) NewSession(ctx context.Context, profile Profile) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browser, err := d.ensureBrowser(profile)
	if err != nil {
		return nil, err
	}

	bctx, err := browser.NewContext(contextOptions(profile))
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	if script := profile.InitScript(); script != "" {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("add init script: %w", err)
		}
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	d.active.Add(1)
	return &pwSession{
		bctx:    bctx,
		page:    page,
		logger:  d.logger.WithField("component", "playwright"),
		release: func() { d.active.Add(-1) },
	}, nil
}

// Close shuts down the shared browser and the playwright driver
func (d *PlaywrightDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []string
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		d.browser = nil
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil {
			errs = append(errs, err.Error())
		}
		d.pw = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close playwright: %s", strings.Join(errs, "; "))
	}
	return nil
}

// pwSession implements Session on one playwright BrowserContext
type pwSession struct {
	bctx    playwright.BrowserContext
	page    playwright.Page
	logger  *logrus.Entry
	release func()

	closeOnce sync.Once
	closed    atomic.Bool
}

// ms converts a timeout bounded by ctx into playwright milliseconds. Zero means
// "no timeout" to playwright, so the result is at least 1.
func ms(ctx context.Context, timeout time.Duration) *float64 {
	v := float64(boundedTimeout(ctx, timeout).Milliseconds())
	if v < 1 {
		v = 1
	}
	return playwright.Float(v)
}

func (s *pwSession) check(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return ctx.Err()
}

// Navigate loads url and waits for DOMContentLoaded
func (s *pwSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   ms(ctx, timeout),
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// WaitForElement waits until selector is attached
func (s *pwSession) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	_, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: ms(ctx, timeout),
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// WaitForNetworkIdle waits for the networkidle load state
func (s *pwSession) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: ms(ctx, timeout),
	})
	if err != nil {
		return fmt.Errorf("wait for network idle: %w", err)
	}
	return nil
}

// Evaluate runs expression in the page. The result is re-decoded into out
// through JSON.
func (s *pwSession) Evaluate(ctx context.Context, expression string, out any) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	result, err := s.page.Evaluate(expression)
	if err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	if out == nil {
		return nil
	}
	return decodeResult(result, out)
}

// InputValue reads an element's value without waiting for it to exist
func (s *pwSession) InputValue(ctx context.Context, selector string) (string, error) {
	var value string
	expr := fmt.Sprintf(`(() => { const el = document.querySelector(%s); return el && typeof el.value === 'string' ? el.value : ''; })()`, jsLiteral(selector))
	if err := s.Evaluate(ctx, expr, &value); err != nil {
		return "", fmt.Errorf("read value of %s: %w", selector, err)
	}
	return value, nil
}

// Fill replaces the value of an input
func (s *pwSession) Fill(ctx context.Context, selector, value string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := s.page.Fill(selector, value, playwright.PageFillOptions{Timeout: ms(ctx, defaultOpTimeout)}); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

// Type types text with a delay between key presses
func (s *pwSession) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	timeout := defaultOpTimeout + time.Duration(len(text))*delay
	err := s.page.Type(selector, text, playwright.PageTypeOptions{
		Delay:   playwright.Float(float64(delay.Milliseconds())),
		Timeout: ms(ctx, timeout),
	})
	if err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

// Click clicks on an element
func (s *pwSession) Click(ctx context.Context, selector string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := s.page.Click(selector, playwright.PageClickOptions{Timeout: ms(ctx, defaultOpTimeout)}); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// ClickAndWaitNavigation clicks and waits for the next DOMContentLoaded. A click
// failure is returned; a navigation timeout only reports false.
func (s *pwSession) ClickAndWaitNavigation(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}
	var clickErr error
	_, err := s.page.ExpectNavigation(func() error {
		clickErr = s.page.Click(selector, playwright.PageClickOptions{Timeout: ms(ctx, defaultOpTimeout)})
		return clickErr
	}, playwright.PageExpectNavigationOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   ms(ctx, timeout),
	})
	if clickErr != nil {
		return false, fmt.Errorf("click %s: %w", selector, clickErr)
	}
	if err != nil {
		s.logger.WithError(err).Debug("No navigation after click")
		return false, nil
	}
	return true, nil
}

// Hover moves the pointer over an element
func (s *pwSession) Hover(ctx context.Context, selector string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := s.page.Hover(selector, playwright.PageHoverOptions{Timeout: ms(ctx, defaultOpTimeout)}); err != nil {
		return fmt.Errorf("hover %s: %w", selector, err)
	}
	return nil
}

// Content returns the full page markup
func (s *pwSession) Content(ctx context.Context) (string, error) {
	if err := s.check(ctx); err != nil {
		return "", err
	}
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return html, nil
}

// Cookies returns the cookies of the browser context
func (s *pwSession) Cookies(ctx context.Context) ([]Cookie, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	raw, err := s.bctx.Cookies()
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
			SameSite: sameSite(c.SameSite),
		})
	}
	return cookies, nil
}

// Close closes the page and its browser context
func (s *pwSession) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if err := s.bctx.Close(); err != nil && !strings.Contains(err.Error(), "closed") {
			closeErr = fmt.Errorf("close browser context: %w", err)
		}
		if s.release != nil {
			s.release()
		}
		s.logger.Debug("Browser context closed")
	})
	return closeErr
}

func sameSite(v any) string {
	switch s := v.(type) {
	case *playwright.SameSiteAttribute:
		if s == nil {
			return ""
		}
		return string(*s)
	case playwright.SameSiteAttribute:
		return string(s)
	default:
		return ""
	}
}
