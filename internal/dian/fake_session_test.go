package dian

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/sirupsen/logrus"
)

// fakeSession is a scripted browser.Session that records every call
type fakeSession struct {
	mu sync.Mutex

	values      map[string]string
	tokenValues []string
	tokenErr    error
	tokenPolls  int

	preHTML  string
	postHTML string

	navigateErr error
	waitErrs    map[string]error
	clickErr    error
	contentErr  error
	navigated   bool
	blockNav    bool
	panicOn     string

	submitted  bool
	closeCalls int
	fillCalls  int
	typeCalls  int
	clickCalls int
	hoverCalls int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		values:    map[string]string{},
		waitErrs:  map[string]error{},
		navigated: true,
		preHTML:   `<html><body><form><input id="DocumentKey"><div class="cf-turnstile"></div></form></body></html>`,
		postHTML:  `<html><body><p>Sin resultados</p></body></html>`,
	}
}

func (f *fakeSession) maybePanic(op string) {
	if f.panicOn == op {
		panic("fake driver blew up in " + op)
	}
}

func (f *fakeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	f.maybePanic("navigate")
	if f.blockNav {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.navigateErr
}

func (f *fakeSession) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	return f.waitErrs[selector]
}

func (f *fakeSession) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return nil
}

func (f *fakeSession) Evaluate(ctx context.Context, expression string, out any) error {
	return nil
}

func (f *fakeSession) InputValue(ctx context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if selector == DefaultSelectors().TokenField {
		f.tokenPolls++
		if f.tokenErr != nil {
			return "", f.tokenErr
		}
		if len(f.tokenValues) == 0 {
			return "", nil
		}
		idx := f.tokenPolls - 1
		if idx >= len(f.tokenValues) {
			idx = len(f.tokenValues) - 1
		}
		return f.tokenValues[idx], nil
	}
	return f.values[selector], nil
}

func (f *fakeSession) Fill(ctx context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fillCalls++
	f.values[selector] = value
	return nil
}

func (f *fakeSession) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	f.maybePanic("type")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typeCalls++
	f.values[selector] += text
	return nil
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	_, err := f.ClickAndWaitNavigation(ctx, selector, 0)
	return err
}

func (f *fakeSession) ClickAndWaitNavigation(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clickCalls++
	if f.clickErr != nil {
		return false, f.clickErr
	}
	f.submitted = true
	return f.navigated, nil
}

func (f *fakeSession) Hover(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hoverCalls++
	return nil
}

func (f *fakeSession) Content(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contentErr != nil {
		return "", f.contentErr
	}
	if f.submitted {
		return f.postHTML, nil
	}
	return f.preHTML, nil
}

func (f *fakeSession) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	return []browser.Cookie{{Name: "ASP.NET_SessionId", Value: "x"}}, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

// fakeDriver hands out a single prepared session
type fakeDriver struct {
	session  *fakeSession
	newErr   error
	profiles []browser.Profile
}

func (d *fakeDriver) NewSession(ctx context.Context, profile browser.Profile) (browser.Session, error) {
	d.profiles = append(d.profiles, profile)
	if d.newErr != nil {
		return nil, d.newErr
	}
	return d.session, nil
}

func (d *fakeDriver) Name() string { return "fake" }
func (d *fakeDriver) Close() error { return nil }

var errFake = errors.New("fake failure")

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// testConfig keeps the real selectors but removes the pacing
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Interaction = Interaction{}
	cfg.Timeouts.ChallengePoll = 40 * time.Millisecond
	cfg.Timeouts.PollInterval = 5 * time.Millisecond
	cfg.Timeouts.Overall = 5 * time.Second
	return cfg
}
