package dian

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nexconsult/dian-api/internal/browser"
)

// ErrorKind is the class of a remote rejection
type ErrorKind int

const (
	// None means no known rejection pattern was found
	None ErrorKind = iota
	// DianRejection is the generic "could not process the request" server error
	DianRejection
	// CaptchaMissing is the validation error for an absent challenge token
	CaptchaMissing
)

func (k ErrorKind) String() string {
	switch k {
	case DianRejection:
		return "dian_rejection"
	case CaptchaMissing:
		return "captcha_missing"
	default:
		return "none"
	}
}

// ErrorSignal is the classifier verdict. Detail holds the correlation id of a DianRejection, if any.
type ErrorSignal struct {
	Kind   ErrorKind
	Detail string
}

// HasError reports whether a rejection was found
func (s ErrorSignal) HasError() bool { return s.Kind != None }

var (
	serverErrorPhrases = []string{
		"No se pudo procesar la solicitud",
		"The service was not able to process",
	}
	captchaPhrase         = "Token de validación de captcha"
	validationErrorMarker = "field-validation-error"
	errorIDPattern        = regexp.MustCompile(`(?i)Id:\s*([a-f0-9-]+)`)
)

// Classify reads the current page and classifies it. Read failures yield None.
func Classify(ctx context.Context, page browser.Session) ErrorSignal {
	html, err := page.Content(ctx)
	if err != nil {
		return ErrorSignal{}
	}
	return ClassifyHTML(html)
}

// ClassifyHTML matches the page body against the known rejection patterns.
// The server error is checked before the validation error.
func ClassifyHTML(html string) ErrorSignal {
	text, markup := bodyTextAndMarkup(html)

	for _, phrase := range serverErrorPhrases {
		if strings.Contains(text, phrase) {
			sig := ErrorSignal{Kind: DianRejection}
			if m := errorIDPattern.FindStringSubmatch(text); m != nil {
				sig.Detail = m[1]
			}
			return sig
		}
	}

	if strings.Contains(text, captchaPhrase) ||
		strings.Contains(markup, captchaPhrase) ||
		strings.Contains(markup, validationErrorMarker) {
		return ErrorSignal{Kind: CaptchaMissing}
	}

	return ErrorSignal{}
}

// bodyTextAndMarkup returns the visible text and inner markup of <body>,
// falling back to the raw input when it cannot be parsed
func bodyTextAndMarkup(html string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, html
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return doc.Text(), html
	}
	markup, err := body.Html()
	if err != nil {
		markup = html
	}
	return body.Text(), markup
}
