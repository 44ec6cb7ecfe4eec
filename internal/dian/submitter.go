package dian

import (
	"context"
	"fmt"
	"time"

	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/sirupsen/logrus"
)

// Submitter types the identifier into the search form and submits it
type Submitter struct {
	Input          string
	Button         string
	KeyDelay       time.Duration
	PreTypePause   time.Duration
	PreSubmitPause time.Duration
	NavTimeout     time.Duration
	SettleTimeout  time.Duration
	Logger         *logrus.Entry
}

// NewSubmitter builds a submitter from cfg
func NewSubmitter(cfg Config, logger *logrus.Entry) *Submitter {
	cfg = cfg.withDefaults()
	return &Submitter{
		Input:          cfg.Selectors.DocumentKey,
		Button:         cfg.Selectors.SubmitButton,
		KeyDelay:       cfg.Interaction.KeyDelay,
		PreTypePause:   cfg.Interaction.PreTypePause,
		PreSubmitPause: cfg.Interaction.PreSubmitPause,
		NavTimeout:     cfg.Timeouts.NavigationAfterSubmit,
		SettleTimeout:  cfg.Timeouts.NetworkSettle,
		Logger:         logger,
	}
}

// Submit enters identifier and clicks the search button. Typing is skipped when
// the input already holds identifier. A submit that does not navigate is not an error.
func (s *Submitter) Submit(ctx context.Context, page browser.Session, identifier string) error {
	current, err := page.InputValue(ctx, s.Input)
	if err != nil {
		return fmt.Errorf("read identifier field: %w", err)
	}

	if current != identifier {
		if err := page.Fill(ctx, s.Input, ""); err != nil {
			return fmt.Errorf("clear identifier field: %w", err)
		}
		if err := pause(ctx, s.PreTypePause); err != nil {
			return err
		}
		if err := page.Type(ctx, s.Input, identifier, s.KeyDelay); err != nil {
			return fmt.Errorf("type identifier: %w", err)
		}
	} else {
		s.log().Debug("Identifier already entered, skipping input")
	}

	if err := pause(ctx, s.PreSubmitPause); err != nil {
		return err
	}

	navigated, err := page.ClickAndWaitNavigation(ctx, s.Button, s.NavTimeout)
	if err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	if !navigated {
		s.log().Debug("No navigation after submit, continuing with current page")
	}

	if err := page.WaitForNetworkIdle(ctx, s.SettleTimeout); err != nil {
		s.log().WithError(err).Debug("Network did not settle after submit")
	}
	return nil
}

func (s *Submitter) log() *logrus.Entry {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// pause waits for d unless ctx ends first
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
