package dian

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/nexconsult/dian-api/internal/logger"
	"github.com/nexconsult/dian-api/internal/models"
	"github.com/nexconsult/dian-api/internal/utils"
	"github.com/sirupsen/logrus"
)

const captchaMissingMessage = "DIAN rejected the request: missing captcha validation token (Turnstile). The challenge was not solved before submit."

// Observer receives per-run signals, typically for metrics
type Observer interface {
	ObserveChallengeToken(resolved bool)
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithObserver attaches an observer to every run
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// Orchestrator runs one document search per call, each in its own browser session
type Orchestrator struct {
	driver   browser.Driver
	cfg      Config
	logger   *logrus.Logger
	observer Observer
}

// NewOrchestrator creates a new orchestrator. Zero values in cfg take their defaults.
func NewOrchestrator(driver browser.Driver, cfg Config, log *logrus.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		driver: driver,
		cfg:    cfg.withDefaults(),
		logger: log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the effective configuration
func (o *Orchestrator) Config() Config { return o.cfg }

// Execute searches identifier on the portal. It never returns an error: every
// failure, panics included, becomes an outcome with ok=false. The session is
// closed exactly once whatever the exit path.
func (o *Orchestrator) Execute(ctx context.Context, identifier string) (outcome models.SearchOutcome) {
	start := time.Now()
	identifier = strings.TrimSpace(identifier)
	log := o.logger.WithFields(logrus.Fields{
		"component":  "orchestrator",
		"request_id": logger.RequestID(ctx),
		"cufe":       utils.MaskIdentifier(identifier),
	})

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeouts.Overall)
	defer cancel()

	var session browser.Session
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Search run panicked")
			outcome = models.Failure(fmt.Sprintf("internal error: %v", r))
		}
		if session != nil {
			if err := session.Close(); err != nil {
				log.WithError(err).Warn("Failed to close browser session")
			}
		}
		log.WithFields(logrus.Fields{
			"ok":       outcome.Ok,
			"events":   len(outcome.Events),
			"duration": time.Since(start),
		}).Info("Search finished")
	}()

	if identifier == "" {
		return models.Failure("identifier is required")
	}

	log.Info("Starting document search")
	s, err := o.driver.NewSession(ctx, o.cfg.Profile)
	if err != nil {
		log.WithError(err).Error("Failed to open browser session")
		return models.Failure(navigationFailed(err))
	}
	session = s

	return o.run(ctx, session, identifier, log)
}

func (o *Orchestrator) run(ctx context.Context, page browser.Session, identifier string, log *logrus.Entry) models.SearchOutcome {
	sel, t := o.cfg.Selectors, o.cfg.Timeouts

	log.WithField("url", o.cfg.SearchURL).Debug("Navigating to search page")
	if err := page.Navigate(ctx, o.cfg.SearchURL, t.Navigation); err != nil {
		log.WithError(err).Error("Navigation failed")
		return models.Failure(navigationFailed(err))
	}
	if err := page.WaitForElement(ctx, sel.DocumentKey, t.ElementWait); err != nil {
		log.WithError(err).Error("Search form not found")
		return models.Failure(navigationFailed(err))
	}

	if err := page.WaitForElement(ctx, sel.Widget, t.WidgetWait); err != nil {
		log.WithError(err).Debug("Challenge widget not found")
	}
	if cookies, err := page.Cookies(ctx); err == nil {
		log.WithField("cookies", len(cookies)).Debug("Session cookies after load")
	}

	waiter := NewTokenWaiter(o.cfg, log)
	token, resolved := waiter.Wait(ctx, page, t.ChallengePoll)
	if o.observer != nil {
		o.observer.ObserveChallengeToken(resolved)
	}
	log.WithFields(logrus.Fields{"resolved": resolved, "token_length": len(token)}).Info("Challenge wait finished")

	if sig := Classify(ctx, page); sig.HasError() {
		log.WithFields(logrus.Fields{"kind": sig.Kind.String(), "error_id": sig.Detail}).Warn("Page rejected before submit")
		return models.Rejection(preSubmitMessage(sig), "", sig.Detail)
	}

	if err := NewSubmitter(o.cfg, log).Submit(ctx, page, identifier); err != nil {
		log.WithError(err).Error("Form submission failed")
		return models.Failure(fmt.Sprintf("submit failed: %v", err))
	}

	html, err := page.Content(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to read result page")
		return models.Failure(fmt.Sprintf("failed to read result page: %v", err))
	}

	if sig := ClassifyHTML(html); sig.HasError() {
		log.WithFields(logrus.Fields{"kind": sig.Kind.String(), "error_id": sig.Detail}).Warn("Request rejected after submit")
		return models.Rejection(postSubmitMessage(sig), html, sig.Detail)
	}

	return models.Success(html, ExtractHTML(html))
}

func navigationFailed(err error) string {
	return fmt.Sprintf("navigation failed: %v", err)
}

func preSubmitMessage(sig ErrorSignal) string {
	if sig.Kind == CaptchaMissing {
		return captchaMissingMessage
	}
	return fmt.Sprintf("DIAN rejected the request. Error ID: %s. Possible automation detection.", errorIDOrUnknown(sig.Detail))
}

func postSubmitMessage(sig ErrorSignal) string {
	if sig.Kind == CaptchaMissing {
		return captchaMissingMessage
	}
	return fmt.Sprintf("DIAN rejected the request after submit. Error ID: %s.", errorIDOrUnknown(sig.Detail))
}

func errorIDOrUnknown(id string) string {
	if id == "" {
		return "unknown"
	}
	return id
}
