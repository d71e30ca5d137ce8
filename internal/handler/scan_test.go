package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bigfranky/ticket-service/internal/utils"
)

func postScan(t *testing.T, h *ScanHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Scan(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestScanRejectsWrongAPIKey(t *testing.T) {
	h := NewScanHandler(nil, "gate-key", "")
	rec := postScan(t, h, `{"api_key":"wrong","uuid":"abc"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestScanRejectsEmptyAPIKey(t *testing.T) {
	h := NewScanHandler(nil, "gate-key", "")
	rec := postScan(t, h, `{"uuid":"abc"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestScanRejectsMissingUUID(t *testing.T) {
	h := NewScanHandler(nil, "gate-key", "")
	rec := postScan(t, h, `{"api_key":"gate-key","uuid":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestScanAcceptsHashedKey(t *testing.T) {
	hash, err := utils.HashScanKey("gate-key")
	if err != nil {
		t.Fatalf("HashScanKey: %v", err)
	}
	h := NewScanHandler(nil, "", hash)
	if !h.keyValid("gate-key") {
		t.Error("hashed key must validate the matching plaintext")
	}
	if h.keyValid("other") {
		t.Error("hashed key must reject a wrong plaintext")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"0350-1":        "0350-1",
		"a b/c":         "a_b_c",
		`x"y`:           "x_y",
		"тикет":         "_____",
		"safe_name-123": "safe_name-123",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
