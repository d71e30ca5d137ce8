package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bigfranky/ticket-service/internal/model"
	"github.com/bigfranky/ticket-service/internal/render"
	"github.com/bigfranky/ticket-service/internal/repository"
)

type statusUpdate struct {
	orderID uint64
	status  string
}

type stubOrders struct {
	mu      sync.Mutex
	orders  map[uint64]*model.Order
	notes   []string
	updates []statusUpdate
}

func newStubOrders(orders ...*model.Order) *stubOrders {
	s := &stubOrders{orders: make(map[uint64]*model.Order)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *stubOrders) GetByID(_ context.Context, orderID uint64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, orderID uint64, status, note string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status == status {
		return false, nil
	}
	o.Status = status
	s.updates = append(s.updates, statusUpdate{orderID: orderID, status: status})
	if note != "" {
		s.notes = append(s.notes, note)
	}
	return true, nil
}

func (s *stubOrders) AddNote(_ context.Context, _ uint64, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note)
	return nil
}

type stubItems struct {
	items []model.LineItem
}

func (s *stubItems) ListByOrder(_ context.Context, orderID uint64) ([]model.LineItem, error) {
	out := make([]model.LineItem, 0)
	for _, it := range s.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

type stubUnits struct {
	mu    sync.Mutex
	units []model.TicketUnit
	names map[uint64]string // item id -> event name for FindByToken
}

func (s *stubUnits) ListByItem(_ context.Context, itemID uint64) ([]model.TicketUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TicketUnit, 0)
	for _, u := range s.units {
		if u.ItemID == itemID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubUnits) Save(_ context.Context, u *model.TicketUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.units {
		if s.units[i].ItemID == u.ItemID && s.units[i].UnitIdx == u.UnitIdx {
			s.units[i] = *u
			return nil
		}
	}
	s.units = append(s.units, *u)
	return nil
}

func (s *stubUnits) DeleteByItem(_ context.Context, itemID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.units[:0]
	for _, u := range s.units {
		if u.ItemID != itemID {
			kept = append(kept, u)
		}
	}
	s.units = kept
	return nil
}

func (s *stubUnits) FindByToken(_ context.Context, token string) (*repository.TokenMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.Token == token {
			return &repository.TokenMatch{Unit: u, ItemName: s.names[u.ItemID]}, nil
		}
	}
	return nil, repository.ErrTicketNotFound
}

func (s *stubUnits) RecordScan(_ context.Context, token string, now time.Time) (*repository.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.units {
		if s.units[i].Token != token {
			continue
		}
		rec := &repository.ScanRecord{PrevCount: s.units[i].ScanCount}
		s.units[i].ScanCount++
		rec.NewCount = s.units[i].ScanCount
		if s.units[i].FirstScanAt == nil {
			t := now.UTC()
			s.units[i].FirstScanAt = &t
		}
		rec.FirstScanAt = *s.units[i].FirstScanAt
		return rec, nil
	}
	return nil, repository.ErrTicketNotFound
}

type stubRenderer struct {
	mu       sync.Mutex
	calls    int
	payloads []render.Payload
	fn       func(render.Payload) (*render.Result, error)
}

func (s *stubRenderer) Render(_ context.Context, p render.Payload) (*render.Result, error) {
	s.mu.Lock()
	s.calls++
	s.payloads = append(s.payloads, p)
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(p)
	}
	return &render.Result{PDFBase64: pdfBase64}, nil
}

// "%PDF-1.4" encoded, enough to stand in for engine output.
const pdfBase64 = "JVBERi0xLjQ="

type stubPDFs struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (s *stubPDFs) Save(token string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[token] = data
	return fmt.Sprintf("/tickets/%s.pdf", token), nil
}

type stubNotifier struct {
	mu       sync.Mutex
	notified []uint64
}

func (s *stubNotifier) NotifyOrderCompleted(_ context.Context, orderID uint64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified = append(s.notified, orderID)
	return nil
}
