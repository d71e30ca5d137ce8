// Package config loads application configuration from environment
// variables. Required settings are enforced at startup via must();
// optional ones fall back to sensible defaults.
package config

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values. Each field maps to an
// environment variable. Secrets (render engine key, scanner key, JWT
// secret) are strings; durations use Go duration syntax in the env.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret string // secret verifying admin bearer tokens

	RenderEndpoint string        // PDF rendering engine URL
	RenderAPIKey   string        // shared secret sent as X-API-Key
	RenderTimeout  time.Duration // per-call deadline for render requests

	ScanAPIKey     string // static scanner secret accepted by the scan endpoint
	ScanAPIKeyHash string // optional bcrypt hash; preferred over the plaintext key when set

	PublicBaseURL  string // base URL embedded into QR validation links
	SiteName       string // fallback organizer name on rendered tickets
	TicketDir      string // directory for stored ticket PDFs
	ScannerBaseURL string // base URL of the scanner frontend
	ScannerSecret  string // HMAC secret for event-scoped scanner links

	AutoCompleteDelay time.Duration // wait after "processing" before auto-completion
}

// Load reads configuration from environment variables. Missing
// required variables abort startup with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		RenderEndpoint: must("RENDER_ENDPOINT"),
		RenderAPIKey:   must("RENDER_API_KEY"),
		RenderTimeout:  envDur("RENDER_TIMEOUT", 60*time.Second),
		ScanAPIKey:     os.Getenv("SCAN_API_KEY"),
		ScanAPIKeyHash: os.Getenv("SCAN_API_KEY_HASH"),
		PublicBaseURL:  must("PUBLIC_BASE_URL"),
		SiteName:       envStr("SITE_NAME", "Ticket Shop"),
		TicketDir:      envStr("TICKET_DIR", "data/tickets"),
		ScannerBaseURL: envStr("SCANNER_BASE_URL", ""),
		ScannerSecret:  envStr("SCANNER_SECRET", "ticket-scanner-secret"),

		AutoCompleteDelay: envDur("AUTOCOMPLETE_DELAY", 30*time.Second),
	}
	if cfg.ScanAPIKey == "" && cfg.ScanAPIKeyHash == "" {
		log.Fatal("either SCAN_API_KEY or SCAN_API_KEY_HASH must be set")
	}
	if cfg.ScannerBaseURL == "" {
		cfg.ScannerBaseURL = cfg.PublicBaseURL
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application exits with a fatal log.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
