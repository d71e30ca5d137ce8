package repository

import (
	"context"
	"database/sql"

	"github.com/bigfranky/ticket-service/internal/model"
)

// ItemRepo reads order line items joined with their product's ticket
// flag, shipping classification and event metadata. The product join
// is done eagerly because every consumer of a line item immediately
// needs to know whether it is ticket-flagged.
type ItemRepo struct {
	db *sql.DB
}

// NewItemRepo returns a new ItemRepo bound to the given database.
func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

const itemColumns = `oi.id, oi.order_id, oi.product_id, oi.name, oi.quantity, oi.total_cents,
	       p.id, p.name, p.is_ticket, p.is_virtual, p.is_downloadable,
	       COALESCE(p.event_location, ''), COALESCE(p.event_date, ''), COALESCE(p.event_time, ''),
	       COALESCE(p.event_address, ''), COALESCE(p.event_description, ''), COALESCE(p.event_organizer, ''),
	       COALESCE(p.event_website, ''), COALESCE(p.event_contact, '')`

func scanItem(s interface{ Scan(...interface{}) error }) (model.LineItem, error) {
	var li model.LineItem
	err := s.Scan(
		&li.ID, &li.OrderID, &li.ProductID, &li.Name, &li.Quantity, &li.TotalCents,
		&li.Product.ID, &li.Product.Name, &li.Product.IsTicket, &li.Product.IsVirtual, &li.Product.IsDownloadable,
		&li.Product.EventLocation, &li.Product.EventDate, &li.Product.EventTime,
		&li.Product.EventAddress, &li.Product.EventDescription, &li.Product.EventOrganizer,
		&li.Product.EventWebsite, &li.Product.EventContact,
	)
	return li, err
}

// ListByOrder returns all line items of an order with product details,
// in insertion order. Orders without items yield an empty slice.
func (r *ItemRepo) ListByOrder(ctx context.Context, orderID uint64) ([]model.LineItem, error) {
	q := `SELECT ` + itemColumns + `
	      FROM order_items oi
	      JOIN products p ON p.id = oi.product_id
	      WHERE oi.order_id = ?
	      ORDER BY oi.id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.LineItem, 0)
	for rows.Next() {
		li, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

// GetByID loads a single line item with product details. It returns
// ErrItemNotFound when the id does not exist.
func (r *ItemRepo) GetByID(ctx context.Context, itemID uint64) (*model.LineItem, error) {
	q := `SELECT ` + itemColumns + `
	      FROM order_items oi
	      JOIN products p ON p.id = oi.product_id
	      WHERE oi.id = ?`
	li, err := scanItem(r.db.QueryRowContext(ctx, q, itemID))
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &li, nil
}

// SoldByProduct sums the quantity of a product across orders in the
// ticket-relevant statuses. Together with TicketUnitRepo.StatsByProduct
// this drives the per-event roll-up.
func (r *ItemRepo) SoldByProduct(ctx context.Context, productID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(oi.quantity), 0)
	           FROM order_items oi
	           JOIN orders o ON o.id = oi.order_id
	           WHERE oi.product_id = ? AND o.status IN (?, ?, ?)`
	var sold int
	err := r.db.QueryRowContext(ctx, q, productID,
		model.OrderStatusProcessing, model.OrderStatusCompleted, model.OrderStatusOnHold).Scan(&sold)
	return sold, err
}

// ListTicketProducts returns every product flagged as a ticket. The
// admin event roll-up iterates these to aggregate per-event counters.
func (r *ItemRepo) ListTicketProducts(ctx context.Context) ([]model.Product, error) {
	const q = `SELECT p.id, p.name, p.is_ticket, p.is_virtual, p.is_downloadable,
	                  COALESCE(p.event_location, ''), COALESCE(p.event_date, ''), COALESCE(p.event_time, ''),
	                  COALESCE(p.event_address, ''), COALESCE(p.event_description, ''), COALESCE(p.event_organizer, ''),
	                  COALESCE(p.event_website, ''), COALESCE(p.event_contact, '')
	           FROM products p WHERE p.is_ticket = 1 ORDER BY p.name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.IsTicket, &p.IsVirtual, &p.IsDownloadable,
			&p.EventLocation, &p.EventDate, &p.EventTime,
			&p.EventAddress, &p.EventDescription, &p.EventOrganizer,
			&p.EventWebsite, &p.EventContact,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
