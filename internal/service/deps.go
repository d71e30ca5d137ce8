// Package service implements the ticket lifecycle: generation on
// payment, gate validation with duplicate tracking, and the order
// auto-completion policy. Services depend on narrow interfaces so the
// database-backed repositories can be swapped for stubs in tests.
package service

import (
	"context"
	"time"

	"github.com/bigfranky/ticket-service/internal/model"
	"github.com/bigfranky/ticket-service/internal/queue"
	"github.com/bigfranky/ticket-service/internal/render"
	"github.com/bigfranky/ticket-service/internal/repository"
)

// OrderStore reads orders and performs status transitions.
type OrderStore interface {
	GetByID(ctx context.Context, orderID uint64) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID uint64, status, note string) (bool, error)
	AddNote(ctx context.Context, orderID uint64, note string) error
}

// ItemStore reads order line items with their product metadata.
type ItemStore interface {
	ListByOrder(ctx context.Context, orderID uint64) ([]model.LineItem, error)
}

// UnitStore persists ticket units and their scan state.
type UnitStore interface {
	ListByItem(ctx context.Context, itemID uint64) ([]model.TicketUnit, error)
	Save(ctx context.Context, u *model.TicketUnit) error
	DeleteByItem(ctx context.Context, itemID uint64) error
	FindByToken(ctx context.Context, token string) (*repository.TokenMatch, error)
	RecordScan(ctx context.Context, token string, now time.Time) (*repository.ScanRecord, error)
}

// Renderer produces a finished ticket PDF for one unit payload.
type Renderer interface {
	Render(ctx context.Context, p render.Payload) (*render.Result, error)
}

// PDFSink stores rendered PDF bytes keyed by the unit token and
// returns the stored path.
type PDFSink interface {
	Save(token string, data []byte) (string, error)
}

// Notifier delivers customer-facing notifications. The broker-backed
// implementation enqueues a message for the shop's mailer.
type Notifier interface {
	NotifyOrderCompleted(ctx context.Context, orderID uint64, message string) error
}

// QueueNotifier publishes notifications to the order.notification
// queue.
type QueueNotifier struct{}

// NotifyOrderCompleted enqueues the completed-order email event.
func (QueueNotifier) NotifyOrderCompleted(ctx context.Context, orderID uint64, message string) error {
	return queue.PublishOrderNotification(ctx, queue.NotificationEvent{
		OrderID: orderID,
		Kind:    queue.NotificationKindOrderCompleted,
		Message: message,
	})
}
