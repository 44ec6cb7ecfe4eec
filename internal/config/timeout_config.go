package config

import (
	"strings"
	"time"

	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/nexconsult/dian-api/internal/dian"
)

// TimeoutConfig holds every bound of a search run
type TimeoutConfig struct {
	Navigation            time.Duration `json:"navigation" yaml:"navigation"`
	ElementWait           time.Duration `json:"element_wait" yaml:"element_wait"`
	WidgetWait            time.Duration `json:"widget_wait" yaml:"widget_wait"`
	ChallengePoll         time.Duration `json:"challenge_poll" yaml:"challenge_poll"`
	PollInterval          time.Duration `json:"poll_interval" yaml:"poll_interval"`
	NavigationAfterSubmit time.Duration `json:"navigation_after_submit" yaml:"navigation_after_submit"`
	NetworkSettle         time.Duration `json:"network_settle" yaml:"network_settle"`
	Overall               time.Duration `json:"overall" yaml:"overall"`
}

// DefaultTimeoutConfig returns the default search timeouts
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Navigation:            25 * time.Second,
		ElementWait:           15 * time.Second,
		WidgetWait:            10 * time.Second,
		ChallengePoll:         20 * time.Second,
		PollInterval:          500 * time.Millisecond,
		NavigationAfterSubmit: 30 * time.Second,
		NetworkSettle:         12 * time.Second,
		Overall:               120 * time.Second,
	}
}

func (t *TimeoutConfig) applyEnv() {
	t.Navigation = getEnvAsDuration("DIAN_NAVIGATION_TIMEOUT", t.Navigation)
	t.ElementWait = getEnvAsDuration("DIAN_ELEMENT_TIMEOUT", t.ElementWait)
	t.WidgetWait = getEnvAsDuration("DIAN_WIDGET_TIMEOUT", t.WidgetWait)
	t.ChallengePoll = getEnvAsDuration("DIAN_CHALLENGE_TIMEOUT", t.ChallengePoll)
	t.PollInterval = getEnvAsDuration("DIAN_POLL_INTERVAL", t.PollInterval)
	t.NavigationAfterSubmit = getEnvAsDuration("DIAN_SUBMIT_TIMEOUT", t.NavigationAfterSubmit)
	t.NetworkSettle = getEnvAsDuration("DIAN_SETTLE_TIMEOUT", t.NetworkSettle)
	t.Overall = getEnvAsDuration("DIAN_OVERALL_TIMEOUT", t.Overall)
}

// SearchConfig builds the orchestrator configuration. The DIAN mode picks the
// preset; explicit timeouts, selectors and browser settings are layered on top.
func (c *Config) SearchConfig() dian.Config {
	cfg := dian.DefaultConfig()
	if strings.EqualFold(c.DIAN.Mode, "visible") {
		cfg = dian.VisibleConfig()
	}

	cfg.SearchURL = c.DIAN.SearchURL
	cfg.MinTokenLength = c.DIAN.MinTokenLength
	cfg.Interaction.Nudge = c.DIAN.Nudge
	cfg.Selectors = dian.Selectors{
		DocumentKey:  c.DIAN.Selectors.DocumentKey,
		SubmitButton: c.DIAN.Selectors.SubmitButton,
		TokenField:   c.DIAN.Selectors.TokenField,
		Widget:       c.DIAN.Selectors.Widget,
	}

	t := c.DIAN.Timeouts
	cfg.Timeouts.Navigation = t.Navigation
	cfg.Timeouts.ElementWait = t.ElementWait
	cfg.Timeouts.WidgetWait = t.WidgetWait
	cfg.Timeouts.PollInterval = t.PollInterval
	cfg.Timeouts.NavigationAfterSubmit = t.NavigationAfterSubmit
	cfg.Timeouts.Overall = t.Overall
	// the preset keeps its own challenge and settle bounds unless they were overridden
	def := DefaultTimeoutConfig()
	if t.ChallengePoll != def.ChallengePoll {
		cfg.Timeouts.ChallengePoll = t.ChallengePoll
	}
	if t.NetworkSettle != def.NetworkSettle {
		cfg.Timeouts.NetworkSettle = t.NetworkSettle
	}

	cfg.Profile = c.Profile(cfg.Profile)
	return cfg
}

// Profile applies the browser settings to base
func (c *Config) Profile(base browser.Profile) browser.Profile {
	p := base
	if strings.EqualFold(c.DIAN.Mode, "visible") {
		p.Headless = false
	} else {
		p.Headless = c.Browser.Headless
	}
	if c.Browser.UserAgent != "" {
		p.UserAgent = c.Browser.UserAgent
	}
	if c.Browser.ViewportWidth > 0 && c.Browser.ViewportHeight > 0 {
		p.ViewportWidth = c.Browser.ViewportWidth
		p.ViewportHeight = c.Browser.ViewportHeight
	}
	p.ExecPath = c.Browser.ExecPath
	return p
}
