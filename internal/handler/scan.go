package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bigfranky/ticket-service/internal/service"
	"github.com/bigfranky/ticket-service/internal/utils"
)

// ScanHandler serves the public gate endpoints: the recording scan and
// the read-only lookup linked from printed QR codes.
type ScanHandler struct {
	scanner    *service.Scanner
	apiKey     string
	apiKeyHash string
}

// NewScanHandler builds a ScanHandler. apiKeyHash, when non-empty,
// takes precedence over the plaintext key.
func NewScanHandler(scanner *service.Scanner, apiKey, apiKeyHash string) *ScanHandler {
	return &ScanHandler{scanner: scanner, apiKey: apiKey, apiKeyHash: apiKeyHash}
}

type scanRequest struct {
	APIKey string `json:"api_key"`
	UUID   string `json:"uuid"`
}

// Scan handles POST /v1/scan. The scanner app sends its shared key and
// the token read from the QR code; the response carries the full scan
// outcome including duplicate information.
func (h *ScanHandler) Scan(c echo.Context) error {
	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !h.keyValid(req.APIKey) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid api key"})
	}
	req.UUID = strings.TrimSpace(req.UUID)
	if req.UUID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing uuid"})
	}

	res, err := h.scanner.ValidateAndScan(c.Request().Context(), req.UUID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan failed"})
	}
	return c.JSON(http.StatusOK, res)
}

// Lookup handles GET /v1/tickets/:uuid. It never mutates scan state
// and requires no scanner key; the token itself is the credential.
func (h *ScanHandler) Lookup(c echo.Context) error {
	token := strings.TrimSpace(c.Param("uuid"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing uuid"})
	}
	res, err := h.scanner.Lookup(c.Request().Context(), token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ScanHandler) keyValid(key string) bool {
	if key == "" {
		return false
	}
	if h.apiKeyHash != "" {
		return utils.CheckScanKey(h.apiKeyHash, key)
	}
	return subtle.ConstantTimeCompare([]byte(h.apiKey), []byte(key)) == 1
}
