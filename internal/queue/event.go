// Package queue defines message payloads exchanged over the message
// broker and the consumer that reacts to order lifecycle events.
package queue

// Queue names for order lifecycle events. The shop publishes to
// order.paid and order.processing when an order reaches the matching
// status; this service consumes both and generates tickets. The
// notification queue is written by this service when a customer-facing
// email should go out.
const (
	QueueOrderPaid         = "order.paid"
	QueueOrderProcessing   = "order.processing"
	QueueOrderNotification = "order.notification"
)

// OrderEvent is published when an order changes status. It carries only
// the order ID and the status that triggered the event; consumers load
// the rest from the database so stale payloads cannot cause stale
// tickets.
type OrderEvent struct {
	OrderID uint64 `json:"order_id"`
	Status  string `json:"status,omitempty"`
}

// NotificationEvent asks the mailer to send a customer notification for
// an order. Auto-completed orders suppress this on purpose since the
// tickets were already delivered with the payment confirmation.
type NotificationEvent struct {
	OrderID uint64 `json:"order_id"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// NotificationKindOrderCompleted marks the completed-order email.
const NotificationKindOrderCompleted = "order_completed"
