package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bigfranky/ticket-service/internal/config"
)

type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(p []byte) (int, error) {
	if w.buf.Len()+len(p) <= w.limit {
		w.buf.Write(p)
	} else {
		// Oversized bodies are served but never cached.
		w.buf.Reset()
		w.limit = -1
	}
	return w.ResponseWriter.Write(p)
}

// NewLookupCache caches successful GET responses in Redis for a short
// TTL. It is applied to the public ticket lookup route only; scan
// requests mutate state and must never be served from cache. Keys use
// the concrete request path and query string, not the route pattern,
// so each ticket caches independently.
func NewLookupCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}

			key := cacheKey(cfg.Prefix, req)
			ctx := req.Context()

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cr cachedResponse
				if jerr := json.Unmarshal(raw, &cr); jerr == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.JSONBlob(cr.Status, cr.Body)
				}
			}

			cw := &captureWriter{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          cfg.MaxBodyBytes,
			}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			ct := c.Response().Header().Get(echo.HeaderContentType)
			if cw.status == http.StatusOK && cw.limit >= 0 && strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
				if raw, err := json.Marshal(cachedResponse{Status: cw.status, Body: cw.buf.Bytes()}); err == nil {
					rdb.Set(ctx, key, raw, cfg.TTL)
				}
			}
			return nil
		}
	}
}

func cacheKey(prefix string, req *http.Request) string {
	key := prefix + ":" + req.URL.Path
	if q := req.URL.RawQuery; q != "" {
		key += "?" + q
	}
	return key
}
