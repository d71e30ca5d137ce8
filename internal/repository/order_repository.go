package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bigfranky/ticket-service/internal/model"
)

// OrderRepo reads orders from the shop database and performs the one
// write this service is allowed to make: advancing an order's status.
// Order notes are appended to the order_notes table so the shop's
// admin timeline picks them up. All timestamps are stored in UTC.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle for callers that need to open a
// transaction spanning multiple repositories.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// GetByID loads a single order. It returns ErrOrderNotFound when the
// id does not exist, which generation triggers treat as a no-op.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (*model.Order, error) {
	const q = `SELECT id, status, currency, order_key, billing_first_name, billing_last_name, created_at
	           FROM orders WHERE id = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&o.ID, &o.Status, &o.Currency, &o.OrderKey,
		&o.BillingFirstName, &o.BillingLastName, &o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus sets the order status and appends a note describing the
// transition. It only touches the row when the status actually changes
// and reports whether an update happened so the caller can decide
// whether a customer notification is due.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uint64, status, note string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		status, time.Now().UTC(), orderID, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if note != "" {
		if err := r.AddNote(ctx, orderID, note); err != nil {
			return true, err
		}
	}
	return true, nil
}

// AddNote appends a diagnostic note to the order's timeline. Notes are
// how generation failures surface to shop staff without failing the
// triggering event.
func (r *OrderRepo) AddNote(ctx context.Context, orderID uint64, note string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_notes (order_id, note, created_at) VALUES (?, ?, ?)`,
		orderID, note, time.Now().UTC())
	return err
}

// ListRecentIDs returns ids of orders created within the last `days`
// days whose status is in the given set, newest first. It backs the
// admin ticket listing and the CSV export. An empty status set matches
// the ticket-relevant statuses (processing, completed, on-hold).
func (r *OrderRepo) ListRecentIDs(ctx context.Context, days int, statuses []string) ([]uint64, error) {
	if days < 1 {
		days = 1
	}
	if len(statuses) == 0 {
		statuses = []string{model.OrderStatusProcessing, model.OrderStatusCompleted, model.OrderStatusOnHold}
	}
	placeholders := make([]string, len(statuses))
	args := make([]interface{}, 0, len(statuses)+1)
	for i, s := range statuses {
		placeholders[i] = "?"
		args = append(args, s)
	}
	args = append(args, time.Now().UTC().AddDate(0, 0, -days))
	q := `SELECT id FROM orders WHERE status IN (` + strings.Join(placeholders, ",") + `)
	      AND created_at > ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
