package models

import (
	"strings"
)

// SearchRequest represents a document search request.
// The identifier is accepted under the aliases the public endpoint has always taken.
type SearchRequest struct {
	Identifier  string `json:"identifier,omitempty" example:"6667fe1f8018f00e0b631cc9e3d790508f24d474dd3a75d2bc941196e78c8c235990877c2207b82eb5407ff41cbcfc45"`
	CUFE        string `json:"cufe,omitempty"`
	CUFEUpper   string `json:"CUFE,omitempty"`
	DocumentKey string `json:"DocumentKey,omitempty"`
}

// Key returns the first nonempty alias, trimmed.
func (r SearchRequest) Key() string {
	for _, v := range []string{r.Identifier, r.CUFE, r.CUFEUpper, r.DocumentKey} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// EventRecord is one row of the document event table.
type EventRecord struct {
	Code          string `json:"code" example:"030"`
	Description   string `json:"description" example:"Acuse de recibo de Factura Electrónica de Venta"`
	Date          string `json:"date" example:"2024-01-01"`
	IssuerID      string `json:"issuerId" example:"900123456"`
	IssuerName    string `json:"issuerName" example:"EMPRESA EMISORA SAS"`
	RecipientID   string `json:"recipientId" example:"800987654"`
	RecipientName string `json:"recipientName" example:"EMPRESA RECEPTORA SAS"`
}

// SearchOutcome is the result of one search run.
//
// Ok and Error are mutually exclusive, and a failed outcome never carries events.
// HTML is set whenever the post-submit page was reached.
type SearchOutcome struct {
	Ok      bool          `json:"ok" example:"true"`
	HTML    *string       `json:"html"`
	Events  []EventRecord `json:"events"`
	Error   *string       `json:"error"`
	ErrorID *string       `json:"errorId"`
}

// Success builds an ok outcome. A nil event slice is normalised to empty.
func Success(html string, events []EventRecord) SearchOutcome {
	if events == nil {
		events = []EventRecord{}
	}
	return SearchOutcome{
		Ok:     true,
		HTML:   &html,
		Events: events,
	}
}

// Failure builds a failed outcome with no captured markup.
func Failure(message string) SearchOutcome {
	return SearchOutcome{
		Events: []EventRecord{},
		Error:  &message,
	}
}

// Rejection builds a failed outcome for a remote rejection. An empty html or
// errorID is reported as null.
func Rejection(message, html, errorID string) SearchOutcome {
	out := Failure(message)
	if html != "" {
		out.HTML = &html
	}
	if errorID != "" {
		out.ErrorID = &errorID
	}
	return out
}

// ErrorMessage returns the error text or an empty string.
func (o SearchOutcome) ErrorMessage() string {
	if o.Error == nil {
		return ""
	}
	return *o.Error
}

// BatchSearchRequest represents a batch search request
type BatchSearchRequest struct {
	CUFEs []string `json:"cufes" binding:"required,min=1" example:"[\"6667fe1f8018f00e0b631cc9e3d790508f24d474dd3a75d2bc941196e78c8c235990877c2207b82eb5407ff41cbcfc45\"]"`
}

// BatchResult is one entry of a batch response
type BatchResult struct {
	CUFE    string        `json:"cufe"`
	Outcome SearchOutcome `json:"outcome"`
}

// BatchSearchResponse represents a batch search response
type BatchSearchResponse struct {
	Results    []BatchResult `json:"results"`
	Total      int           `json:"total" example:"2"`
	Success    int           `json:"success" example:"1"`
	Errors     int           `json:"errors" example:"1"`
	DurationMs int64         `json:"durationMs" example:"42000"`
}
