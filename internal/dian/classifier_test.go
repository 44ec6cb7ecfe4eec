package dian

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHTML(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		kind   ErrorKind
		detail string
	}{
		{
			name:   "spanish server error with id",
			html:   `<html><body><h2>Error</h2><p>No se pudo procesar la solicitud. Id: abc-123</p></body></html>`,
			kind:   DianRejection,
			detail: "abc-123",
		},
		{
			name:   "english server error with uppercase id label",
			html:   `<html><body><p>The service was not able to process your request.</p><small>ID: 0f3e-9a1b-77c2</small></body></html>`,
			kind:   DianRejection,
			detail: "0f3e-9a1b-77c2",
		},
		{
			name: "server error without id",
			html: `<html><body><p>No se pudo procesar la solicitud</p></body></html>`,
			kind: DianRejection,
		},
		{
			name: "captcha token message in text",
			html: `<html><body><span>Token de validación de captcha no es válido</span></body></html>`,
			kind: CaptchaMissing,
		},
		{
			name: "field validation marker in markup",
			html: `<html><body><span class="field-validation-error" data-valmsg-for="DocumentKey"></span></body></html>`,
			kind: CaptchaMissing,
		},
		{
			name:   "server error wins over validation error",
			html:   `<html><body><span class="field-validation-error"></span><p>No se pudo procesar la solicitud. Id: dead-beef</p></body></html>`,
			kind:   DianRejection,
			detail: "dead-beef",
		},
		{
			name: "phrase only in head is ignored",
			html: `<html><head><title>No se pudo procesar la solicitud</title></head><body><form></form></body></html>`,
			kind: None,
		},
		{
			name: "ordinary search page",
			html: `<html><body><form><input id="DocumentKey"><span class="field-validation-valid"></span></form></body></html>`,
			kind: None,
		},
		{
			name: "empty document",
			html: ``,
			kind: None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := ClassifyHTML(tt.html)
			assert.Equal(t, tt.kind, sig.Kind)
			assert.Equal(t, tt.detail, sig.Detail)
			assert.Equal(t, tt.kind != None, sig.HasError())
		})
	}
}

func TestClassifyReadsPage(t *testing.T) {
	page := newFakeSession()
	page.preHTML = `<html><body>No se pudo procesar la solicitud. Id: abc-123</body></html>`

	sig := Classify(context.Background(), page)

	assert.True(t, sig.HasError())
	assert.Equal(t, DianRejection, sig.Kind)
	assert.Equal(t, "abc-123", sig.Detail)
}

func TestClassifyReadErrorIsNone(t *testing.T) {
	page := newFakeSession()
	page.contentErr = errFake

	assert.Equal(t, ErrorSignal{}, Classify(context.Background(), page))
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "dian_rejection", DianRejection.String())
	assert.Equal(t, "captcha_missing", CaptchaMissing.String())
}
