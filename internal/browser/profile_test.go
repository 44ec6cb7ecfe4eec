package browser

import (
	"context"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()

	assert.True(t, p.Headless)
	assert.Equal(t, "es-CO", p.Locale)
	assert.Equal(t, "America/Bogota", p.Timezone)
	assert.Equal(t, 1920, p.ViewportWidth)
	assert.Equal(t, 1080, p.ViewportHeight)
	assert.Contains(t, p.UserAgent, "Edg/")
}

func TestAcceptLanguage(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    string
	}{
		{"default languages", DefaultProfile(), "es-CO,es;q=0.9,en;q=0.8"},
		{"no languages falls back to locale", Profile{Locale: "es-CO"}, "es-CO"},
		{"single language", Profile{Languages: []string{"en-US"}}, "en-US"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.AcceptLanguage())
		})
	}
}

func TestInitScript(t *testing.T) {
	p := DefaultProfile()
	script := p.InitScript()
	assert.Contains(t, script, "webdriver")
	assert.Contains(t, script, `"es-CO", "es", "en"`)

	p.MaskAutomation = false
	assert.Empty(t, p.InitScript())
}

func TestNewDriver(t *testing.T) {
	logger := logrus.New()

	d, err := NewDriver("", logger)
	require.NoError(t, err)
	assert.Equal(t, "chromedp", d.Name())

	d, err = NewDriver("Playwright", logger)
	require.NoError(t, err)
	assert.Equal(t, "playwright", d.Name())

	_, err = NewDriver("selenium", logger)
	assert.Error(t, err)
}

func TestBoundedTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, boundedTimeout(context.Background(), 5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got := boundedTimeout(ctx, time.Minute)
	assert.LessOrEqual(t, got, time.Second)
	assert.Greater(t, got, time.Duration(0))

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	assert.Equal(t, time.Duration(0), boundedTimeout(expired, time.Minute))
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

func TestDecodeResult(t *testing.T) {
	var box struct {
		Found bool    `json:"found"`
		X     float64 `json:"x"`
	}
	err := decodeResult(map[string]any{"found": true, "x": 12.5}, &box)
	require.NoError(t, err)
	assert.True(t, box.Found)
	assert.Equal(t, 12.5, box.X)

	var s string
	assert.Error(t, decodeResult(42, &s))
}

func TestJSLiteral(t *testing.T) {
	assert.Equal(t, `"#DocumentKey"`, jsLiteral("#DocumentKey"))
	assert.Equal(t, `"input[name=\"cf-turnstile-response\"]"`, jsLiteral(`input[name="cf-turnstile-response"]`))
}

func TestSameSite(t *testing.T) {
	assert.Equal(t, "Lax", sameSite(playwright.SameSiteAttributeLax))
	assert.Equal(t, "", sameSite(nil))
}

func TestPlaywrightContextOptions(t *testing.T) {
	opts := contextOptions(DefaultProfile())

	require.NotNil(t, opts.Locale)
	assert.Equal(t, "es-CO", *opts.Locale)
	require.NotNil(t, opts.TimezoneId)
	assert.Equal(t, "America/Bogota", *opts.TimezoneId)
	require.NotNil(t, opts.Viewport)
	assert.Equal(t, 1920, opts.Viewport.Width)
	assert.Equal(t, "es-CO,es;q=0.9,en;q=0.8", opts.ExtraHttpHeaders["Accept-Language"])
}

func TestClosedChromeSessionRejectsOperations(t *testing.T) {
	s := &chromeSession{
		tabCtx: context.Background(),
		cancel: func() {},
		logger: logrus.NewEntry(logrus.New()),
	}
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err := s.Navigate(context.Background(), "https://example.com", time.Second)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Content(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}
