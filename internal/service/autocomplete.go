package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/bigfranky/ticket-service/internal/model"
	"github.com/bigfranky/ticket-service/internal/repository"
)

// AutoCompleter advances processing orders to completed. Orders that
// contain tickets and nothing that needs shipping can close on their
// own once the tickets are generated. Auto-completed orders suppress
// the completed-order email; the customer already got their tickets
// with the payment confirmation.
type AutoCompleter struct {
	orders   OrderStore
	items    ItemStore
	notifier Notifier
	log      *zap.Logger
}

// NewAutoCompleter wires an AutoCompleter from its dependencies.
func NewAutoCompleter(orders OrderStore, items ItemStore, notifier Notifier, log *zap.Logger) *AutoCompleter {
	return &AutoCompleter{orders: orders, items: items, notifier: notifier, log: log}
}

// AutoComplete applies the completion policy to one order: at least
// one ticket item and no physical items. Other digital goods do not
// block completion. Orders that moved past processing while the
// completion timer was pending are left alone.
func (a *AutoCompleter) AutoComplete(ctx context.Context, orderID uint64) error {
	order, err := a.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if order.Status != model.OrderStatusProcessing {
		return nil
	}

	items, err := a.items.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	hasTicket := false
	for _, it := range items {
		if it.Product.IsTicket {
			hasTicket = true
			continue
		}
		if it.Product.Physical() {
			a.log.Debug("autocomplete: order needs shipping, skipping",
				zap.Uint64("order_id", orderID))
			return nil
		}
	}
	if !hasTicket {
		return nil
	}

	return a.CompleteOrder(ctx, orderID,
		"Order auto-completed: tickets with nothing to ship.", true)
}

// CompleteOrder sets the order to completed with the given note. When
// suppressNotification is false and the status actually changed, a
// completed-order notification is enqueued for the mailer. The admin
// complete action uses the notifying path; the automatic policy always
// suppresses.
func (a *AutoCompleter) CompleteOrder(ctx context.Context, orderID uint64, note string, suppressNotification bool) error {
	changed, err := a.orders.UpdateStatus(ctx, orderID, model.OrderStatusCompleted, note)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	a.log.Info("order completed",
		zap.Uint64("order_id", orderID),
		zap.Bool("notification_suppressed", suppressNotification))
	if suppressNotification {
		return nil
	}
	if err := a.notifier.NotifyOrderCompleted(ctx, orderID, note); err != nil {
		// Notification failure must not undo or fail the completion.
		a.log.Warn("completed-order notification failed",
			zap.Uint64("order_id", orderID), zap.Error(err))
	}
	return nil
}
