package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LifecycleHandler reacts to order lifecycle events from the broker.
// Payment events trigger ticket generation; processing events trigger
// generation and arm the auto-completion timer. The delay gives the
// shop's own post-payment hooks time to finish before the status
// advances underneath them.
type LifecycleHandler struct {
	gen   *Generator
	auto  *AutoCompleter
	delay time.Duration
	log   *zap.Logger
}

// NewLifecycleHandler wires the broker-facing handler.
func NewLifecycleHandler(gen *Generator, auto *AutoCompleter, delay time.Duration, log *zap.Logger) *LifecycleHandler {
	return &LifecycleHandler{gen: gen, auto: auto, delay: delay, log: log}
}

// HandleOrderPaid generates tickets for a freshly paid order.
func (h *LifecycleHandler) HandleOrderPaid(ctx context.Context, orderID uint64) error {
	return h.gen.GenerateForOrder(ctx, orderID)
}

// HandleOrderProcessing generates tickets and schedules the delayed
// auto-completion check. The timer runs detached from the consumer so
// a slow completion cannot block the delivery loop.
func (h *LifecycleHandler) HandleOrderProcessing(ctx context.Context, orderID uint64) error {
	if err := h.gen.GenerateForOrder(ctx, orderID); err != nil {
		return err
	}
	time.AfterFunc(h.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := h.auto.AutoComplete(ctx, orderID); err != nil {
			h.log.Error("autocomplete failed",
				zap.Uint64("order_id", orderID), zap.Error(err))
		}
	})
	return nil
}
