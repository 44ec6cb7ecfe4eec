package dian

import (
	"time"

	"github.com/nexconsult/dian-api/internal/browser"
)

// DefaultSearchURL is the public document search page of the DIAN catalogue
const DefaultSearchURL = "https://catalogo-vpfe.dian.gov.co/User/SearchDocument"

// DefaultMinTokenLength is the length a challenge token must exceed to count as solved
const DefaultMinTokenLength = 50

// Selectors locates the elements of the search page
type Selectors struct {
	DocumentKey  string
	SubmitButton string
	TokenField   string
	Widget       string
}

// Timeouts bounds every wait of a search run
type Timeouts struct {
	Navigation            time.Duration
	ElementWait           time.Duration
	WidgetWait            time.Duration
	ChallengePoll         time.Duration
	PollInterval          time.Duration
	NavigationAfterSubmit time.Duration
	NetworkSettle         time.Duration
	Overall               time.Duration
}

// Interaction controls the pacing of form input
type Interaction struct {
	KeyDelay       time.Duration
	PreTypePause   time.Duration
	PreSubmitPause time.Duration
	// Nudge scrolls and hovers the challenge widget before polling for its token
	Nudge bool
}

// Config parameterises one orchestrator
type Config struct {
	SearchURL      string
	Selectors      Selectors
	Timeouts       Timeouts
	Interaction    Interaction
	MinTokenLength int
	Profile        browser.Profile
}

// DefaultSelectors returns the selectors of the current portal markup
func DefaultSelectors() Selectors {
	return Selectors{
		DocumentKey:  "#DocumentKey",
		SubmitButton: "button.search-document",
		TokenField:   `input[name="cf-turnstile-response"]`,
		Widget:       ".cf-turnstile",
	}
}

// DefaultTimeouts returns the standard wait bounds
func DefaultTimeouts() Timeouts {
	return Timeouts{
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

// DefaultConfig is the headless preset
func DefaultConfig() Config {
	return Config{
		SearchURL: DefaultSearchURL,
		Selectors: DefaultSelectors(),
		Timeouts:  DefaultTimeouts(),
		Interaction: Interaction{
			KeyDelay:       50 * time.Millisecond,
			PreTypePause:   300 * time.Millisecond,
			PreSubmitPause: time.Second,
			Nudge:          true,
		},
		MinTokenLength: DefaultMinTokenLength,
		Profile:        browser.DefaultProfile(),
	}
}

// VisibleConfig is the preset for a visible browser window, paced closer to a person
func VisibleConfig() Config {
	cfg := DefaultConfig()
	cfg.Profile.Headless = false
	cfg.Interaction.KeyDelay = 150 * time.Millisecond
	cfg.Interaction.PreTypePause = time.Second
	cfg.Interaction.PreSubmitPause = 3 * time.Second
	cfg.Timeouts.ChallengePoll = 30 * time.Second
	cfg.Timeouts.NetworkSettle = 20 * time.Second
	return cfg
}

// withDefaults fills zero values from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SearchURL == "" {
		c.SearchURL = def.SearchURL
	}
	if c.Selectors.DocumentKey == "" {
		c.Selectors.DocumentKey = def.Selectors.DocumentKey
	}
	if c.Selectors.SubmitButton == "" {
		c.Selectors.SubmitButton = def.Selectors.SubmitButton
	}
	if c.Selectors.TokenField == "" {
		c.Selectors.TokenField = def.Selectors.TokenField
	}
	if c.Selectors.Widget == "" {
		c.Selectors.Widget = def.Selectors.Widget
	}
	if c.MinTokenLength <= 0 {
		c.MinTokenLength = def.MinTokenLength
	}

	t, d := &c.Timeouts, def.Timeouts
	for _, pair := range []struct {
		v   *time.Duration
		def time.Duration
	}{
		{&t.Navigation, d.Navigation},
		{&t.ElementWait, d.ElementWait},
		{&t.WidgetWait, d.WidgetWait},
		{&t.ChallengePoll, d.ChallengePoll},
		{&t.PollInterval, d.PollInterval},
		{&t.NavigationAfterSubmit, d.NavigationAfterSubmit},
		{&t.NetworkSettle, d.NetworkSettle},
		{&t.Overall, d.Overall},
	} {
		if *pair.v <= 0 {
			*pair.v = pair.def
		}
	}
	return c
}
