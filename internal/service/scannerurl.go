package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"time"
)

// ScannerKey derives the access key for the event's scanner page. The
// key is the first 16 hex characters of an HMAC-SHA256 over
// "<event>:<YYYY-MM>", so links rotate monthly and cannot be forged
// without the secret.
func ScannerKey(secret, event string, month time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(event + ":" + month.UTC().Format("2006-01")))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

// ScannerURL builds the gate operator link for an event, embedding the
// event name and the current month's access key.
func ScannerURL(baseURL, secret, event string, month time.Time) string {
	q := url.Values{}
	q.Set("event", event)
	q.Set("key", ScannerKey(secret, event, month))
	return baseURL + "/scanner?" + q.Encode()
}
