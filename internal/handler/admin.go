package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bigfranky/ticket-service/internal/model"
	"github.com/bigfranky/ticket-service/internal/pdfstore"
	"github.com/bigfranky/ticket-service/internal/repository"
	"github.com/bigfranky/ticket-service/internal/service"
)

// AdminHandler serves the staff surface: ticket listings, per-event
// roll-ups, unit toggling, PDF download, regeneration, manual order
// completion and the CSV export.
type AdminHandler struct {
	orders *repository.OrderRepo
	items  *repository.ItemRepo
	units  *repository.TicketUnitRepo
	gen    *service.Generator
	auto   *service.AutoCompleter
	pdfs   *pdfstore.Store

	scannerBaseURL string
	scannerSecret  string
}

// NewAdminHandler wires the admin surface from its dependencies.
func NewAdminHandler(orders *repository.OrderRepo, items *repository.ItemRepo, units *repository.TicketUnitRepo,
	gen *service.Generator, auto *service.AutoCompleter, pdfs *pdfstore.Store,
	scannerBaseURL, scannerSecret string) *AdminHandler {
	return &AdminHandler{
		orders: orders, items: items, units: units,
		gen: gen, auto: auto, pdfs: pdfs,
		scannerBaseURL: scannerBaseURL, scannerSecret: scannerSecret,
	}
}

// ticketRow is one unit in the admin listing and the CSV export.
type ticketRow struct {
	OrderID      uint64 `json:"order_id"`
	OrderDate    string `json:"order_date"`
	OrderStatus  string `json:"order_status"`
	Customer     string `json:"customer"`
	ItemID       uint64 `json:"item_id"`
	Event        string `json:"event"`
	UnitIdx      int    `json:"unit_idx"`
	TicketNumber string `json:"ticket_number"`
	UUID         string `json:"uuid"`
	TicketStatus string `json:"ticket_status"`
	ScanCount    int    `json:"scan_count"`
	FirstScan    string `json:"first_scan,omitempty"`
	Delivered    bool   `json:"delivered"`
}

// ListTickets handles GET /v1/admin/tickets. Query parameters: days
// (lookback window, default 30) and status (comma-separated order
// statuses). Units are listed flat, newest orders first.
func (h *AdminHandler) ListTickets(c echo.Context) error {
	days := queryInt(c, "days", 30)
	statuses := splitCSV(c.QueryParam("status"))

	rows, err := h.collectRows(c, days, statuses, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "listing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": rows, "count": len(rows)})
}

// collectRows walks recent orders and flattens their ticket units.
// eventFilter, when non-empty, keeps only items with that exact name.
func (h *AdminHandler) collectRows(c echo.Context, days int, statuses []string, eventFilter string) ([]ticketRow, error) {
	ctx := c.Request().Context()
	ids, err := h.orders.ListRecentIDs(ctx, days, statuses)
	if err != nil {
		return nil, err
	}
	rows := make([]ticketRow, 0)
	for _, id := range ids {
		order, err := h.orders.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		items, err := h.items.ListByOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if !it.Product.IsTicket {
				continue
			}
			if eventFilter != "" && it.Name != eventFilter {
				continue
			}
			units, err := h.units.ListByItem(ctx, it.ID)
			if err != nil {
				return nil, err
			}
			for _, u := range units {
				row := ticketRow{
					OrderID:      order.ID,
					OrderDate:    order.CreatedAt.UTC().Format(time.RFC3339),
					OrderStatus:  order.Status,
					Customer:     order.CustomerName(),
					ItemID:       it.ID,
					Event:        it.Name,
					UnitIdx:      u.UnitIdx,
					TicketNumber: u.Number,
					UUID:         u.Token,
					TicketStatus: u.Status,
					ScanCount:    u.ScanCount,
					Delivered:    u.Delivered(),
				}
				if u.FirstScanAt != nil {
					row.FirstScan = u.FirstScanAt.Format(time.RFC3339)
				}
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

// ListEvents handles GET /v1/admin/events: a per-product roll-up of
// sold quantities and unit counters, with the month's scanner link.
func (h *AdminHandler) ListEvents(c echo.Context) error {
	ctx := c.Request().Context()
	products, err := h.items.ListTicketProducts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "listing failed"})
	}
	now := time.Now()
	type eventRow struct {
		ProductID  uint64 `json:"product_id"`
		Event      string `json:"event"`
		Sold       int    `json:"sold"`
		Generated  int    `json:"generated"`
		Active     int    `json:"active"`
		Disabled   int    `json:"disabled"`
		Scanned    int    `json:"scanned"`
		ScannerURL string `json:"scanner_url"`
	}
	rows := make([]eventRow, 0, len(products))
	for _, p := range products {
		sold, err := h.items.SoldByProduct(ctx, p.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "listing failed"})
		}
		stats, err := h.units.StatsByProduct(ctx, p.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "listing failed"})
		}
		rows = append(rows, eventRow{
			ProductID:  p.ID,
			Event:      p.Name,
			Sold:       sold,
			Generated:  stats.Generated,
			Active:     stats.Active,
			Disabled:   stats.Disabled,
			Scanned:    stats.Scanned,
			ScannerURL: service.ScannerURL(h.scannerBaseURL, h.scannerSecret, p.Name, now),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": rows})
}

// Regenerate handles POST /v1/admin/orders/:id/regenerate. All ticket
// items of the order get fresh tokens, numbers and PDFs; previous QR
// codes stop validating.
func (h *AdminHandler) Regenerate(c echo.Context) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	n, err := h.gen.RegenerateOrder(c.Request().Context(), orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "regeneration failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"regenerated_items": n})
}

// Complete handles POST /v1/admin/orders/:id/complete. Manual
// completion notifies the customer, unlike the automatic policy.
func (h *AdminHandler) Complete(c echo.Context) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	if _, err := h.orders.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "completion failed"})
	}
	if err := h.auto.CompleteOrder(ctx, orderID, "Order completed by staff.", false); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "completion failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"order_id": orderID, "status": model.OrderStatusCompleted})
}

// Toggle handles POST /v1/admin/items/:item_id/units/:idx/toggle,
// flipping one unit between active and disabled.
func (h *AdminHandler) Toggle(c echo.Context) error {
	itemID, err := paramUint(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit index"})
	}
	ctx := c.Request().Context()
	u, err := h.units.Get(ctx, itemID, idx)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle failed"})
	}
	next := model.TicketStatusDisabled
	if u.Status == model.TicketStatusDisabled {
		next = model.TicketStatusActive
	}
	if err := h.units.SetStatus(ctx, itemID, idx, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item_id": itemID, "unit_idx": idx,
		"ticket_number": u.Number, "status": next,
	})
}

// Download handles GET /v1/admin/items/:item_id/units/:idx/download.
// Locally stored PDFs stream with a sanitized attachment name; units
// with only a hosted URL redirect to it.
func (h *AdminHandler) Download(c echo.Context) error {
	itemID, err := paramUint(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit index"})
	}
	ctx := c.Request().Context()
	u, err := h.units.Get(ctx, itemID, idx)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "download failed"})
	}
	if u.PDFPath != "" {
		data, rerr := h.pdfs.Read(u.Token)
		if rerr != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pdf not available"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			`attachment; filename="ticket_`+sanitizeFilename(u.Number)+`.pdf"`)
		return c.Blob(http.StatusOK, "application/pdf", data)
	}
	if u.PDFURL != "" {
		return c.Redirect(http.StatusFound, u.PDFURL)
	}
	return c.JSON(http.StatusNotFound, echo.Map{"error": "pdf not available"})
}

// sanitizeFilename keeps letters, digits, dash and underscore so a
// ticket number can never smuggle header or path characters into the
// attachment name.
func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func paramUint(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
