package dian

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/sirupsen/logrus"
)

const scrollNudgeScript = `(() => { window.scrollBy(0, 200); window.scrollBy(0, -120); return true; })()`

// TokenWaiter polls the hidden challenge field until the widget has written a plausible token
type TokenWaiter struct {
	TokenField     string
	Widget         string
	MinTokenLength int
	PollInterval   time.Duration
	Nudge          bool
	Logger         *logrus.Entry
}

// NewTokenWaiter builds a waiter from cfg
func NewTokenWaiter(cfg Config, logger *logrus.Entry) *TokenWaiter {
	cfg = cfg.withDefaults()
	return &TokenWaiter{
		TokenField:     cfg.Selectors.TokenField,
		Widget:         cfg.Selectors.Widget,
		MinTokenLength: cfg.MinTokenLength,
		PollInterval:   cfg.Timeouts.PollInterval,
		Nudge:          cfg.Interaction.Nudge,
		Logger:         logger,
	}
}

// Resolved reports whether value is long enough to be a real token
func (w *TokenWaiter) Resolved(value string) bool {
	return len(value) > w.MinTokenLength
}

// Wait polls until a resolved token appears, timeout elapses or ctx ends.
// A miss is reported as ok=false and never as an error.
func (w *TokenWaiter) Wait(ctx context.Context, page browser.Session, timeout time.Duration) (string, bool) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if w.Nudge {
		w.nudge(waitCtx, page)
	}

	interval := w.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	polls := 0
	for {
		polls++
		value, err := page.InputValue(waitCtx, w.TokenField)
		if err == nil && w.Resolved(value) {
			w.debug(logrus.Fields{"polls": polls, "token_length": len(value)}, "Challenge token resolved")
			return value, true
		}

		select {
		case <-waitCtx.Done():
			w.debug(logrus.Fields{"polls": polls, "token_length": len(value)}, "Challenge token not resolved before timeout")
			return "", false
		case <-ticker.C:
		}
	}
}

// nudge makes the page look attended so the widget starts solving. Errors are ignored.
func (w *TokenWaiter) nudge(ctx context.Context, page browser.Session) {
	_ = page.Evaluate(ctx, scrollNudgeScript, nil)
	if w.Widget == "" {
		return
	}
	if err := page.Hover(ctx, w.Widget); err != nil {
		w.debug(logrus.Fields{"error": err.Error()}, "Widget hover skipped")
		return
	}
	focus := `(() => { const el = document.querySelector(` + quoteJS(w.Widget) + `); if (el && el.focus) el.focus(); return true; })()`
	_ = page.Evaluate(ctx, focus, nil)
}

func (w *TokenWaiter) debug(fields logrus.Fields, msg string) {
	if w.Logger != nil {
		w.Logger.WithFields(fields).Debug(msg)
	}
}

// quoteJS encodes s as a JavaScript string literal
func quoteJS(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
