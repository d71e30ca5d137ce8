package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func samplePayload() Payload {
	return Payload{
		TicketUUID:      "11111111-2222-3333-4444-555555555555",
		TicketNumber:    "0350-1",
		Attendee:        "Ada Lovelace",
		Event:           "Spring Gala",
		OrderID:         350,
		OrderKey:        "wc_order_abc",
		QuantityIdx:     1,
		PurchaseTS:      "2026-03-14T12:00:00Z",
		QRValidationURL: "https://shop.example.com/v1/tickets/11111111-2222-3333-4444-555555555555",
		TicketPrice:     25,
		Currency:        "EUR",
	}
}

func TestRenderSuccess(t *testing.T) {
	var gotKey string
	var gotPayload Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Result{PDFBase64: "JVBERi0xLjQ="})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "render-key", 5*time.Second)
	res, err := c.Render(context.Background(), samplePayload())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.PDFBase64 != "JVBERi0xLjQ=" {
		t.Errorf("pdf_base64 = %q", res.PDFBase64)
	}
	if gotKey != "render-key" {
		t.Errorf("X-API-Key = %q", gotKey)
	}
	if gotPayload.TicketNumber != "0350-1" || gotPayload.QuantityIdx != 1 {
		t.Errorf("payload arrived mangled: %+v", gotPayload)
	}
}

func TestRenderNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"engine overloaded"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	_, err := c.Render(context.Background(), samplePayload())
	if err == nil {
		t.Fatal("expected error on HTTP 503")
	}
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("error type = %T, want *render.Error", err)
	}
	if !strings.Contains(rerr.Cause, "HTTP 503") || !strings.Contains(rerr.Cause, "engine overloaded") {
		t.Errorf("cause = %q, want status and body snippet", rerr.Cause)
	}
}

func TestRenderTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "k", 500*time.Millisecond)
	_, err := c.Render(context.Background(), samplePayload())
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("error type = %T, want *render.Error", err)
	}
}

func TestRenderBadJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	if _, err := c.Render(context.Background(), samplePayload()); err == nil {
		t.Fatal("expected decode error")
	}
}
