// Package render wraps the external PDF rendering engine. The engine
// receives a ticket payload and answers with the finished PDF, either
// inline as base64 or as a hosted URL (or both).
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Payload is the JSON body sent to the rendering engine for one ticket
// unit. QuantityIdx is 1-based for display. The event_* fields are
// optional and omitted when the product carries no event metadata.
type Payload struct {
	TicketUUID       string  `json:"ticket_uuid"`
	TicketNumber     string  `json:"ticket_number"`
	Attendee         string  `json:"attendee"`
	Event            string  `json:"event"`
	OrderID          uint64  `json:"order_id"`
	OrderKey         string  `json:"order_key"`
	QuantityIdx      int     `json:"quantity_idx"`
	PurchaseTS       string  `json:"purchase_ts"`
	QRValidationURL  string  `json:"qr_validation_url"`
	TicketPrice      float64 `json:"ticket_price"`
	Currency         string  `json:"currency"`
	EventLocation    string  `json:"event_location,omitempty"`
	EventDate        string  `json:"event_date,omitempty"`
	EventTime        string  `json:"event_time,omitempty"`
	EventAddress     string  `json:"event_address,omitempty"`
	EventDescription string  `json:"event_description,omitempty"`
	EventOrganizer   string  `json:"event_organizer,omitempty"`
	EventWebsite     string  `json:"event_website,omitempty"`
	EventContact     string  `json:"event_contact,omitempty"`
}

// Result is the engine's answer on HTTP 200. Either field may be
// empty; a response with neither still counts as a successful call,
// and the unit stays eligible for a later re-attempt.
type Result struct {
	PDFURL    string `json:"pdf_url"`
	PDFBase64 string `json:"pdf_base64"`
}

// Error describes a failed render call: a transport failure or any
// non-200 response. Render errors are non-fatal to generation; the
// orchestrator skips the unit and records a note on the order.
type Error struct {
	Cause string
}

func (e *Error) Error() string { return "render: " + e.Cause }

// Client calls the rendering engine over HTTP. Calls are synchronous
// and bounded by the client timeout; there is no retry here, a failed
// unit is simply picked up by the next generation trigger.
type Client struct {
	endpoint string
	apiKey   string
	hc       *http.Client
}

// NewClient builds a Client for the given endpoint. The API key is
// sent as X-API-Key on every request; timeout bounds the whole call
// and defaults to 60 seconds when zero.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		hc:       &http.Client{Timeout: timeout},
	}
}

// Render posts the payload and decodes the engine's response. Any
// transport error or non-200 status is returned as *Error with a
// human-readable cause.
func (c *Client) Render(ctx context.Context, p Payload) (*Result, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, &Error{Cause: fmt.Sprintf("encode payload: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Cause: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &Error{Cause: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the note; engines tend to
		// answer with a short JSON error.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		cause := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if len(snippet) > 0 {
			cause += ": " + string(snippet)
		}
		return nil, &Error{Cause: cause}
	}
	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, &Error{Cause: fmt.Sprintf("decode response: %v", err)}
	}
	return &res, nil
}
