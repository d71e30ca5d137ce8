package service

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestScannerKeyProperties(t *testing.T) {
	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	key := ScannerKey("secret", "Spring Gala", march)
	if len(key) != 16 {
		t.Fatalf("key length = %d, want 16", len(key))
	}
	for _, r := range key {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("key %q is not lowercase hex", key)
		}
	}
	if key != ScannerKey("secret", "Spring Gala", march) {
		t.Error("key must be stable within a month")
	}
	if lateMarch := march.AddDate(0, 0, 27); key != ScannerKey("secret", "Spring Gala", lateMarch) {
		t.Error("key must be stable across the whole month")
	}
	if key == ScannerKey("secret", "Spring Gala", april) {
		t.Error("key must rotate monthly")
	}
	if key == ScannerKey("secret", "Other Event", march) {
		t.Error("key must differ per event")
	}
	if key == ScannerKey("other-secret", "Spring Gala", march) {
		t.Error("key must depend on the secret")
	}
}

func TestScannerURL(t *testing.T) {
	month := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	raw := ScannerURL("https://shop.example.com", "secret", "Spring Gala & Friends", month)

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("unparsable URL %q: %v", raw, err)
	}
	if u.Path != "/scanner" {
		t.Errorf("path = %q, want /scanner", u.Path)
	}
	if got := u.Query().Get("event"); got != "Spring Gala & Friends" {
		t.Errorf("event = %q", got)
	}
	if got := u.Query().Get("key"); got != ScannerKey("secret", "Spring Gala & Friends", month) {
		t.Errorf("key = %q does not match derived key", got)
	}
}
