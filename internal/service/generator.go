package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bigfranky/ticket-service/internal/model"
	"github.com/bigfranky/ticket-service/internal/render"
	"github.com/bigfranky/ticket-service/internal/repository"
	"github.com/bigfranky/ticket-service/internal/ticket"
)

// Generator orchestrates ticket generation for paid orders. It walks
// the ticket-flagged line items of an order, allocates unit identities,
// calls the rendering engine and stores the resulting PDFs.
//
// Generation is idempotent per line item: an item whose units all carry
// a PDF reference is skipped, so broker redeliveries and repeated
// status transitions cannot mint duplicate tickets. An item with any
// undelivered unit is regenerated from scratch with fresh tokens.
type Generator struct {
	orders   OrderStore
	items    ItemStore
	units    UnitStore
	renderer Renderer
	pdfs     PDFSink
	log      *zap.Logger

	publicBaseURL string
	siteName      string
}

// NewGenerator wires a Generator from its dependencies. publicBaseURL
// is embedded into QR validation links; siteName is the organizer
// fallback printed on tickets whose product has none.
func NewGenerator(orders OrderStore, items ItemStore, units UnitStore, renderer Renderer, pdfs PDFSink, publicBaseURL, siteName string, log *zap.Logger) *Generator {
	return &Generator{
		orders:        orders,
		items:         items,
		units:         units,
		renderer:      renderer,
		pdfs:          pdfs,
		log:           log,
		publicBaseURL: publicBaseURL,
		siteName:      siteName,
	}
}

// GenerateForOrder generates tickets for every ticket-flagged line item
// of the order. Unknown orders and orders that are not paid are
// no-ops; a stale broker message must not create tickets for an order
// that was refunded in the meantime.
func (g *Generator) GenerateForOrder(ctx context.Context, orderID uint64) error {
	order, err := g.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		g.log.Warn("generate: order not found", zap.Uint64("order_id", orderID))
		return nil
	}
	if err != nil {
		return err
	}
	if !model.OrderPaid(order.Status) {
		g.log.Info("generate: order not paid, skipping",
			zap.Uint64("order_id", orderID), zap.String("status", order.Status))
		return nil
	}

	items, err := g.items.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for i := range items {
		if !items[i].Product.IsTicket {
			continue
		}
		if err := g.generateItem(ctx, order, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// RegenerateOrder wipes the units of every ticket item on the order
// and generates them anew. Previous tokens, numbers and PDF references
// are discarded first, so QR codes on already-delivered tickets stop
// validating before replacements exist. An order note records the
// action. Returns the number of regenerated items.
func (g *Generator) RegenerateOrder(ctx context.Context, orderID uint64) (int, error) {
	order, err := g.orders.GetByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	items, err := g.items.ListByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	regenerated := 0
	for i := range items {
		if !items[i].Product.IsTicket {
			continue
		}
		if err := g.units.DeleteByItem(ctx, items[i].ID); err != nil {
			return regenerated, err
		}
		g.log.Info("regenerate: units cleared",
			zap.Uint64("order_id", order.ID), zap.Uint64("item_id", items[i].ID))
		if err := g.generateItem(ctx, order, &items[i]); err != nil {
			return regenerated, err
		}
		regenerated++
	}
	if regenerated > 0 {
		if err := g.orders.AddNote(ctx, order.ID,
			"Tickets regenerated. Previous QR codes are no longer valid."); err != nil {
			return regenerated, err
		}
	}
	return regenerated, nil
}

// generateItem produces the units of one line item unless they are
// already complete. A render failure skips the failed unit, records an
// order note and moves on; the item stays incomplete and is picked up
// again by the next trigger.
func (g *Generator) generateItem(ctx context.Context, order *model.Order, item *model.LineItem) error {
	existing, err := g.units.ListByItem(ctx, item.ID)
	if err != nil {
		return err
	}
	if itemComplete(existing, item.UnitCount()) {
		g.log.Debug("generate: item already complete",
			zap.Uint64("order_id", order.ID), zap.Uint64("item_id", item.ID))
		return nil
	}

	count := item.UnitCount()
	generated := 0
	for idx := 0; idx < count; idx++ {
		token := ticket.NewToken()
		number := ticket.Number(order.ID, idx)

		start := time.Now()
		res, err := g.renderer.Render(ctx, g.payload(order, item, token, number, idx))
		if err != nil {
			g.log.Error("generate: render failed",
				zap.Uint64("order_id", order.ID),
				zap.Uint64("item_id", item.ID),
				zap.String("ticket_number", number),
				zap.Error(err))
			_ = g.orders.AddNote(ctx, order.ID,
				fmt.Sprintf("Ticket generation failed for %s: %v", number, err))
			continue
		}

		unit := model.TicketUnit{
			ItemID:  item.ID,
			UnitIdx: idx,
			OrderID: order.ID,
			Token:   token,
			Number:  number,
			Status:  model.TicketStatusActive,
			PDFURL:  res.PDFURL,
		}
		if res.PDFBase64 != "" {
			data, derr := base64.StdEncoding.DecodeString(res.PDFBase64)
			if derr != nil {
				g.log.Error("generate: bad base64 from engine",
					zap.Uint64("order_id", order.ID),
					zap.String("ticket_number", number),
					zap.Error(derr))
				_ = g.orders.AddNote(ctx, order.ID,
					fmt.Sprintf("Ticket generation failed for %s: invalid PDF data", number))
				continue
			}
			path, serr := g.pdfs.Save(token, data)
			if serr != nil {
				return serr
			}
			unit.PDFPath = path
		}
		if err := g.units.Save(ctx, &unit); err != nil {
			return err
		}
		generated++
		g.log.Info("generate: unit ready",
			zap.Uint64("order_id", order.ID),
			zap.Uint64("item_id", item.ID),
			zap.String("ticket_number", number),
			zap.Bool("delivered", unit.Delivered()),
			zap.Duration("render_ms", time.Since(start)))
	}

	g.log.Info("generate: item done",
		zap.Uint64("order_id", order.ID),
		zap.Uint64("item_id", item.ID),
		zap.Int("units", count),
		zap.Int("generated", generated))
	return nil
}

// itemComplete reports whether every expected unit exists and carries a
// PDF reference.
func itemComplete(units []model.TicketUnit, want int) bool {
	if len(units) != want {
		return false
	}
	for _, u := range units {
		if !u.Delivered() {
			return false
		}
	}
	return true
}

// payload assembles the render request for one unit. Prices are per
// unit; the line total is split evenly across the quantity.
func (g *Generator) payload(order *model.Order, item *model.LineItem, token, number string, idx int) render.Payload {
	organizer := item.Product.EventOrganizer
	if organizer == "" {
		organizer = g.siteName
	}
	return render.Payload{
		TicketUUID:       token,
		TicketNumber:     number,
		Attendee:         order.CustomerName(),
		Event:            item.Name,
		OrderID:          order.ID,
		OrderKey:         order.OrderKey,
		QuantityIdx:      idx + 1,
		PurchaseTS:       order.CreatedAt.UTC().Format(time.RFC3339),
		QRValidationURL:  g.publicBaseURL + "/v1/tickets/" + token,
		TicketPrice:      float64(item.UnitPriceCents()) / 100,
		Currency:         order.Currency,
		EventLocation:    item.Product.EventLocation,
		EventDate:        item.Product.EventDate,
		EventTime:        item.Product.EventTime,
		EventAddress:     item.Product.EventAddress,
		EventDescription: item.Product.EventDescription,
		EventOrganizer:   organizer,
		EventWebsite:     item.Product.EventWebsite,
		EventContact:     item.Product.EventContact,
	}
}
