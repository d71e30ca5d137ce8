package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bigfranky/ticket-service/internal/model"
	"github.com/bigfranky/ticket-service/internal/repository"
)

// Scan outcome statuses returned to gate devices.
const (
	ScanStatusValid    = "valid"
	ScanStatusInvalid  = "invalid"
	ScanStatusDisabled = "disabled"
	ScanStatusUnpaid   = "unpaid"
)

// ScanResult is the JSON answer for both the recording scan and the
// read-only lookup. Fields beyond status and message are filled only
// when the token resolved to a ticket.
type ScanResult struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Warning      string `json:"warning,omitempty"`
	Event        string `json:"event,omitempty"`
	Customer     string `json:"customer,omitempty"`
	OrderID      uint64 `json:"order_id,omitempty"`
	TicketNumber string `json:"ticket_number,omitempty"`
	UUID         string `json:"uuid,omitempty"`
	ScanCount    int    `json:"scan_count"`
	FirstScan    string `json:"first_scan,omitempty"`
	ScanTime     string `json:"scan_time,omitempty"`
	IsDuplicate  bool   `json:"is_duplicate"`
}

// Scanner validates tokens at the gate and records scans. The
// recording path accepts any resolvable active token regardless of the
// order's payment state; the read-only lookup additionally enforces
// the payment gate because it is linked from the printed QR code.
type Scanner struct {
	units  UnitStore
	orders OrderStore
	log    *zap.Logger
}

// NewScanner wires a Scanner from its stores.
func NewScanner(units UnitStore, orders OrderStore, log *zap.Logger) *Scanner {
	return &Scanner{units: units, orders: orders, log: log}
}

// ValidateAndScan resolves the token, rejects disabled tickets and
// records the scan. A previously scanned ticket still answers valid
// but is flagged as a duplicate with its scan history, so the gate
// operator decides what to do with it.
func (s *Scanner) ValidateAndScan(ctx context.Context, token string) (*ScanResult, error) {
	m, err := s.units.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrTicketNotFound) {
		s.log.Info("scan: unknown token")
		return &ScanResult{Status: ScanStatusInvalid, Message: "Ticket not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	customer := ""
	if order, oerr := s.orders.GetByID(ctx, m.Unit.OrderID); oerr == nil {
		customer = order.CustomerName()
	}

	if m.Unit.Status == model.TicketStatusDisabled {
		s.log.Info("scan: disabled ticket",
			zap.Uint64("order_id", m.Unit.OrderID),
			zap.String("ticket_number", m.Unit.Number))
		res := resultFor(&m.Unit, m.ItemName, customer)
		res.Status = ScanStatusDisabled
		res.Message = "Ticket has been disabled"
		return res, nil
	}

	now := time.Now().UTC()
	rec, err := s.units.RecordScan(ctx, token, now)
	if err != nil {
		return nil, err
	}

	res := resultFor(&m.Unit, m.ItemName, customer)
	res.Status = ScanStatusValid
	res.Message = "admitted"
	res.ScanCount = rec.NewCount
	res.FirstScan = rec.FirstScanAt.Format(time.RFC3339)
	res.ScanTime = now.Format(time.RFC3339)
	res.IsDuplicate = rec.PrevCount > 0
	if res.IsDuplicate {
		res.Message = "Ticket already scanned"
		res.Warning = fmt.Sprintf("Already scanned %d time(s), first at %s",
			rec.PrevCount, rec.FirstScanAt.Format(time.RFC3339))
	}

	s.log.Info("scan: recorded",
		zap.Uint64("order_id", m.Unit.OrderID),
		zap.String("ticket_number", m.Unit.Number),
		zap.Int("scan_count", rec.NewCount),
		zap.Bool("duplicate", res.IsDuplicate))
	return res, nil
}

// Lookup answers the read-only ticket check behind the QR validation
// link. It never mutates scan state. Unlike the gate path it rejects
// tickets whose order is not in a paid status.
func (s *Scanner) Lookup(ctx context.Context, token string) (*ScanResult, error) {
	m, err := s.units.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return &ScanResult{Status: ScanStatusInvalid, Message: "Ticket not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, m.Unit.OrderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		// A ticket whose order vanished is indistinguishable from a
		// forged token to the caller.
		return &ScanResult{Status: ScanStatusInvalid, Message: "Order not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	customer := order.CustomerName()
	if !model.OrderPaid(order.Status) {
		res := resultFor(&m.Unit, m.ItemName, customer)
		res.Status = ScanStatusUnpaid
		res.Message = "Order is not paid"
		return res, nil
	}
	if m.Unit.Status == model.TicketStatusDisabled {
		res := resultFor(&m.Unit, m.ItemName, customer)
		res.Status = ScanStatusDisabled
		res.Message = "Ticket has been disabled"
		return res, nil
	}

	res := resultFor(&m.Unit, m.ItemName, customer)
	res.Status = ScanStatusValid
	res.Message = "Ticket is valid"
	return res, nil
}

func resultFor(u *model.TicketUnit, event, customer string) *ScanResult {
	res := &ScanResult{
		Event:        event,
		Customer:     customer,
		OrderID:      u.OrderID,
		TicketNumber: u.Number,
		UUID:         u.Token,
		ScanCount:    u.ScanCount,
	}
	if u.FirstScanAt != nil {
		res.FirstScan = u.FirstScanAt.Format(time.RFC3339)
	}
	return res
}
