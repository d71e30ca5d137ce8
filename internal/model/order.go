package model

import (
	"strings"
	"time"
)

// Order statuses mirrored from the shop database.  The service never
// creates orders; it only reads them and, for shippable-free orders,
// advances processing to completed.
const (
	OrderStatusPending    = "pending"
	OrderStatusOnHold     = "on-hold"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// OrderPaid reports whether an order status counts as paid for ticket
// validation purposes.  Only processing and completed orders admit.
func OrderPaid(status string) bool {
	return status == OrderStatusProcessing || status == OrderStatusCompleted
}

// Order is a read model of the shop's orders table.
//
// Fields:
//  ID               – primary key identifier.
//  Status           – order status (pending, processing, completed, ...).
//  Currency         – ISO currency code of the order total.
//  OrderKey         – opaque key assigned by the shop at checkout.
//  BillingFirstName – customer billing first name.
//  BillingLastName  – customer billing last name.
//  CreatedAt        – order creation timestamp (UTC).
type Order struct {
	ID               uint64    // orders.id
	Status           string    // orders.status
	Currency         string    // orders.currency
	OrderKey         string    // orders.order_key
	BillingFirstName string    // orders.billing_first_name
	BillingLastName  string    // orders.billing_last_name
	CreatedAt        time.Time // orders.created_at
}

// CustomerName joins the billing first and last name the way the
// shop renders it on invoices and tickets.
func (o Order) CustomerName() string {
	return strings.TrimSpace(o.BillingFirstName + " " + o.BillingLastName)
}

// LineItem is a read model of one order line together with the flags
// and event metadata of its product.  Quantity is the number of ticket
// units the line represents when the product is ticket-flagged.
type LineItem struct {
	ID         uint64  // order_items.id
	OrderID    uint64  // order_items.order_id
	ProductID  uint64  // order_items.product_id
	Name       string  // order_items.name (the event name for tickets)
	Quantity   int     // order_items.quantity
	TotalCents int64   // order_items.total_cents (line total across all units)
	Product    Product // joined product flags and event metadata
}

// UnitCount returns the number of ticket units on the line.  The shop
// allows zero-quantity rows in edge cases; a minimum of one is enforced
// so that every ticket line yields at least one unit.
func (li LineItem) UnitCount() int {
	if li.Quantity < 1 {
		return 1
	}
	return li.Quantity
}

// UnitPriceCents divides the line total evenly across its units.
func (li LineItem) UnitPriceCents() int64 {
	return li.TotalCents / int64(li.UnitCount())
}

// Product carries the ticket flag, the shipping classification used by
// the auto-completion policy, and the optional event metadata printed
// on rendered tickets.  Empty strings mean the field is unset.
type Product struct {
	ID             uint64
	Name           string
	IsTicket       bool
	IsVirtual      bool
	IsDownloadable bool

	EventLocation    string
	EventDate        string
	EventTime        string
	EventAddress     string
	EventDescription string
	EventOrganizer   string
	EventWebsite     string
	EventContact     string
}

// Physical reports whether the product requires shipping.  Ticket
// products are never physical regardless of their shipping flags.
func (p Product) Physical() bool {
	if p.IsTicket {
		return false
	}
	return !p.IsVirtual && !p.IsDownloadable
}
