package browser

import (
	"fmt"
	"strings"
)

// Profile is the presentation configuration of a session: how the browser looks to the remote page.
// Everything here is best effort and nothing downstream may rely on it for correctness.
type Profile struct {
	Headless       bool
	UserAgent      string
	Locale         string
	Timezone       string
	ViewportWidth  int
	ViewportHeight int
	ColorScheme    string
	// Languages is exposed as navigator.languages by the init script
	Languages []string
	// MaskAutomation hides navigator.webdriver and disables the AutomationControlled blink feature
	MaskAutomation bool
	// ExecPath points at a specific Chrome/Chromium binary (empty: backend default)
	ExecPath string
}

// DefaultProfile mirrors an ordinary Colombian desktop browser
func DefaultProfile() Profile {
	return Profile{
		Headless:       true,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
		Locale:         "es-CO",
		Timezone:       "America/Bogota",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		ColorScheme:    "light",
		Languages:      []string{"es-CO", "es", "en"},
		MaskAutomation: true,
	}
}

// AcceptLanguage renders Languages as an Accept-Language header value
func (p Profile) AcceptLanguage() string {
	if len(p.Languages) == 0 {
		return p.Locale
	}
	parts := make([]string, 0, len(p.Languages))
	for i, lang := range p.Languages {
		if i == 0 {
			parts = append(parts, lang)
			continue
		}
		q := 1.0 - float64(i)*0.1
		if q < 0.1 {
			q = 0.1
		}
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", lang, q))
	}
	return strings.Join(parts, ",")
}

// InitScript returns the script injected before any page script runs, or "" when masking is off
func (p Profile) InitScript() string {
	if !p.MaskAutomation {
		return ""
	}
	langs := make([]string, 0, len(p.Languages))
	for _, l := range p.Languages {
		langs = append(langs, fmt.Sprintf("%q", l))
	}
	return fmt.Sprintf(`(() => {
  try { Object.defineProperty(navigator, 'webdriver', { get: () => false }); } catch (e) {}
  try { window.chrome = window.chrome || { runtime: {} }; } catch (e) {}
  try { Object.defineProperty(navigator, 'languages', { get: () => [%s] }); } catch (e) {}
})();`, strings.Join(langs, ", "))
}
