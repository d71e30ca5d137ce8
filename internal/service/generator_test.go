package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bigfranky/ticket-service/internal/model"
	"github.com/bigfranky/ticket-service/internal/render"
	"github.com/bigfranky/ticket-service/internal/repository"
)

func ticketOrder(id uint64, status string) *model.Order {
	return &model.Order{
		ID:               id,
		Status:           status,
		Currency:         "EUR",
		OrderKey:         "wc_order_abc",
		BillingFirstName: "Ada",
		BillingLastName:  "Lovelace",
		CreatedAt:        time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func ticketItem(id, orderID uint64, qty int) model.LineItem {
	return model.LineItem{
		ID:         id,
		OrderID:    orderID,
		ProductID:  900 + id,
		Name:       "Spring Gala",
		Quantity:   qty,
		TotalCents: int64(qty) * 2500,
		Product: model.Product{
			ID:       900 + id,
			Name:     "Spring Gala",
			IsTicket: true,
		},
	}
}

func newTestGenerator(orders *stubOrders, items *stubItems, units *stubUnits, r *stubRenderer) (*Generator, *stubPDFs) {
	pdfs := &stubPDFs{}
	gen := NewGenerator(orders, items, units, r, pdfs,
		"https://shop.example.com", "Ticket Shop", zap.NewNop())
	return gen, pdfs
}

func TestGenerateForOrderCreatesAllUnits(t *testing.T) {
	orders := newStubOrders(ticketOrder(350, model.OrderStatusProcessing))
	items := &stubItems{items: []model.LineItem{ticketItem(7, 350, 2)}}
	units := &stubUnits{}
	r := &stubRenderer{}
	gen, pdfs := newTestGenerator(orders, items, units, r)

	if err := gen.GenerateForOrder(context.Background(), 350); err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("renderer calls = %d, want 2", r.calls)
	}
	got, _ := units.ListByItem(context.Background(), 7)
	if len(got) != 2 {
		t.Fatalf("units = %d, want 2", len(got))
	}
	if got[0].Number != "0350-1" || got[1].Number != "0350-2" {
		t.Errorf("numbers = %q, %q, want 0350-1, 0350-2", got[0].Number, got[1].Number)
	}
	if got[0].Token == got[1].Token {
		t.Error("tokens must be unique per unit")
	}
	for _, u := range got {
		if !u.Delivered() {
			t.Errorf("unit %s not delivered", u.Number)
		}
		if u.Status != model.TicketStatusActive {
			t.Errorf("unit %s status = %q, want active", u.Number, u.Status)
		}
		if _, ok := pdfs.saved[u.Token]; !ok {
			t.Errorf("no PDF stored for %s", u.Number)
		}
	}
}

func TestGenerateForOrderIsIdempotent(t *testing.T) {
	orders := newStubOrders(ticketOrder(350, model.OrderStatusCompleted))
	items := &stubItems{items: []model.LineItem{ticketItem(7, 350, 2)}}
	units := &stubUnits{}
	r := &stubRenderer{}
	gen, _ := newTestGenerator(orders, items, units, r)

	ctx := context.Background()
	if err := gen.GenerateForOrder(ctx, 350); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := units.ListByItem(ctx, 7)

	if err := gen.GenerateForOrder(ctx, 350); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("renderer calls after rerun = %d, want 2 (no re-render)", r.calls)
	}
	second, _ := units.ListByItem(ctx, 7)
	for i := range first {
		if first[i].Token != second[i].Token {
			t.Errorf("unit %d token changed on rerun", i)
		}
	}
}

func TestGenerateForOrderSkipsUnpaid(t *testing.T) {
	for _, status := range []string{model.OrderStatusPending, model.OrderStatusOnHold, model.OrderStatusCancelled} {
		orders := newStubOrders(ticketOrder(350, status))
		items := &stubItems{items: []model.LineItem{ticketItem(7, 350, 1)}}
		units := &stubUnits{}
		r := &stubRenderer{}
		gen, _ := newTestGenerator(orders, items, units, r)

		if err := gen.GenerateForOrder(context.Background(), 350); err != nil {
			t.Fatalf("status %s: %v", status, err)
		}
		if r.calls != 0 {
			t.Errorf("status %s: renderer called %d times, want 0", status, r.calls)
		}
	}
}

func TestGenerateForOrderUnknownOrderIsNoop(t *testing.T) {
	gen, _ := newTestGenerator(newStubOrders(), &stubItems{}, &stubUnits{}, &stubRenderer{})
	if err := gen.GenerateForOrder(context.Background(), 999); err != nil {
		t.Fatalf("unknown order must be a no-op, got %v", err)
	}
}

func TestGenerateRenderFailureSkipsUnitAndAddsNote(t *testing.T) {
	orders := newStubOrders(ticketOrder(42, model.OrderStatusProcessing))
	items := &stubItems{items: []model.LineItem{ticketItem(7, 42, 2)}}
	units := &stubUnits{}
	fail := true
	r := &stubRenderer{fn: func(p render.Payload) (*render.Result, error) {
		if fail {
			fail = false
			return nil, &render.Error{Cause: "HTTP 503"}
		}
		return &render.Result{PDFBase64: pdfBase64}, nil
	}}
	gen, _ := newTestGenerator(orders, items, units, r)

	if err := gen.GenerateForOrder(context.Background(), 42); err != nil {
		t.Fatalf("render failure must not fail the trigger: %v", err)
	}
	got, _ := units.ListByItem(context.Background(), 7)
	if len(got) != 1 {
		t.Fatalf("units = %d, want 1 (failed unit skipped)", len(got))
	}
	if got[0].Number != "0042-2" {
		t.Errorf("surviving unit = %q, want 0042-2", got[0].Number)
	}
	if len(orders.notes) != 1 || !strings.Contains(orders.notes[0], "0042-1") {
		t.Errorf("expected a failure note naming 0042-1, got %v", orders.notes)
	}
}

func TestGenerateSuccessWithoutPDFStillSavesUnit(t *testing.T) {
	orders := newStubOrders(ticketOrder(42, model.OrderStatusProcessing))
	items := &stubItems{items: []model.LineItem{ticketItem(7, 42, 1)}}
	units := &stubUnits{}
	r := &stubRenderer{fn: func(render.Payload) (*render.Result, error) {
		return &render.Result{}, nil
	}}
	gen, _ := newTestGenerator(orders, items, units, r)

	ctx := context.Background()
	if err := gen.GenerateForOrder(ctx, 42); err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	got, _ := units.ListByItem(ctx, 7)
	if len(got) != 1 || got[0].Delivered() {
		t.Fatalf("expected one undelivered unit, got %+v", got)
	}

	// The undelivered unit keeps the item incomplete, so the next
	// trigger regenerates it.
	if err := gen.GenerateForOrder(ctx, 42); err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if r.calls != 2 {
		t.Errorf("renderer calls = %d, want 2 (undelivered unit retried)", r.calls)
	}
}

func TestGenerateHostedURLSkipsLocalStore(t *testing.T) {
	orders := newStubOrders(ticketOrder(42, model.OrderStatusProcessing))
	items := &stubItems{items: []model.LineItem{ticketItem(7, 42, 1)}}
	units := &stubUnits{}
	r := &stubRenderer{fn: func(render.Payload) (*render.Result, error) {
		return &render.Result{PDFURL: "https://cdn.example.com/t.pdf"}, nil
	}}
	gen, pdfs := newTestGenerator(orders, items, units, r)

	if err := gen.GenerateForOrder(context.Background(), 42); err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	got, _ := units.ListByItem(context.Background(), 7)
	if len(got) != 1 || got[0].PDFURL == "" || got[0].PDFPath != "" {
		t.Fatalf("expected URL-only unit, got %+v", got)
	}
	if len(pdfs.saved) != 0 {
		t.Error("no local PDF should be stored for hosted results")
	}
}

func TestGeneratePayloadFields(t *testing.T) {
	orders := newStubOrders(ticketOrder(350, model.OrderStatusProcessing))
	item := ticketItem(7, 350, 2)
	item.Product.EventLocation = "Town Hall"
	items := &stubItems{items: []model.LineItem{item}}
	units := &stubUnits{}
	r := &stubRenderer{}
	gen, _ := newTestGenerator(orders, items, units, r)

	if err := gen.GenerateForOrder(context.Background(), 350); err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	if len(r.payloads) != 2 {
		t.Fatalf("payloads = %d, want 2", len(r.payloads))
	}
	p := r.payloads[0]
	if p.Attendee != "Ada Lovelace" {
		t.Errorf("attendee = %q", p.Attendee)
	}
	if p.QuantityIdx != 1 || r.payloads[1].QuantityIdx != 2 {
		t.Errorf("quantity_idx = %d, %d, want 1, 2", p.QuantityIdx, r.payloads[1].QuantityIdx)
	}
	if p.TicketPrice != 25.00 {
		t.Errorf("ticket_price = %v, want 25 (line total split per unit)", p.TicketPrice)
	}
	if p.EventOrganizer != "Ticket Shop" {
		t.Errorf("organizer = %q, want site name fallback", p.EventOrganizer)
	}
	if p.EventLocation != "Town Hall" {
		t.Errorf("event_location = %q", p.EventLocation)
	}
	want := "https://shop.example.com/v1/tickets/" + p.TicketUUID
	if p.QRValidationURL != want {
		t.Errorf("qr_validation_url = %q, want %q", p.QRValidationURL, want)
	}
}

func TestRegenerateOrderAssignsFreshIdentities(t *testing.T) {
	orders := newStubOrders(ticketOrder(350, model.OrderStatusCompleted))
	items := &stubItems{items: []model.LineItem{ticketItem(7, 350, 1)}}
	units := &stubUnits{}
	r := &stubRenderer{}
	gen, _ := newTestGenerator(orders, items, units, r)

	ctx := context.Background()
	if err := gen.GenerateForOrder(ctx, 350); err != nil {
		t.Fatalf("initial generation: %v", err)
	}
	before, _ := units.ListByItem(ctx, 7)

	n, err := gen.RegenerateOrder(ctx, 350)
	if err != nil {
		t.Fatalf("RegenerateOrder: %v", err)
	}
	if n != 1 {
		t.Fatalf("regenerated items = %d, want 1", n)
	}
	after, _ := units.ListByItem(ctx, 7)
	if len(after) != 1 {
		t.Fatalf("units = %d, want 1", len(after))
	}
	if after[0].Token == before[0].Token {
		t.Error("regeneration must assign a fresh token")
	}
	found := false
	for _, note := range orders.notes {
		if strings.Contains(note, "regenerated") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a regeneration note, got %v", orders.notes)
	}
}

func TestRegenerateOrderUnknownOrder(t *testing.T) {
	gen, _ := newTestGenerator(newStubOrders(), &stubItems{}, &stubUnits{}, &stubRenderer{})
	_, err := gen.RegenerateOrder(context.Background(), 999)
	if !errors.Is(err, repository.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}
