// Package repository defines sentinel error values that are reused
// across repositories. They let handlers and services distinguish
// between failure scenarios without inspecting SQL errors directly:
// ErrOrderNotFound makes a stale generation trigger a silent no-op,
// while ErrTicketNotFound maps to the scanner's "invalid" outcome.
package repository

import "errors"

// ErrOrderNotFound is returned when an order id does not exist in the
// shop database. Generation triggers treat this as a no-op because
// orders may be deleted while lifecycle events for them are in flight.
var ErrOrderNotFound = errors.New("order not found")

// ErrItemNotFound is returned when an order line item id does not
// exist. Admin endpoints translate this into an HTTP 404 response.
var ErrItemNotFound = errors.New("order item not found")

// ErrTicketNotFound is returned when no ticket unit matches a token or
// a (item, unit index) key. The scan path reports this as "invalid".
var ErrTicketNotFound = errors.New("ticket not found")
