package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/bigfranky/ticket-service/internal/model"
)

// TicketUnitRepo persists ticket units, one row per (order item, unit
// index). It is the storage half of the ticket lifecycle: generation
// inserts identities, the scanner mutates scan counters, and the admin
// surface toggles status or wipes units for regeneration.
//
// Scan counting must be atomic per token because two gate devices can
// scan the same QR code at the same moment. RecordScan therefore runs
// inside a transaction with a row lock so that no increment is lost
// and the reported previous count is exact.
type TicketUnitRepo struct {
	db *sql.DB
}

// NewTicketUnitRepo returns a new TicketUnitRepo bound to the database.
func NewTicketUnitRepo(db *sql.DB) *TicketUnitRepo { return &TicketUnitRepo{db: db} }

const unitColumns = `order_item_id, unit_idx, order_id, token, ticket_number, status,
	       scan_count, first_scan_at, COALESCE(pdf_path, ''), COALESCE(pdf_url, ''), created_at, updated_at`

func scanUnit(s interface{ Scan(...interface{}) error }) (model.TicketUnit, error) {
	var u model.TicketUnit
	var firstScan sql.NullTime
	err := s.Scan(
		&u.ItemID, &u.UnitIdx, &u.OrderID, &u.Token, &u.Number, &u.Status,
		&u.ScanCount, &firstScan, &u.PDFPath, &u.PDFURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return u, err
	}
	if firstScan.Valid {
		t := firstScan.Time.UTC()
		u.FirstScanAt = &t
	}
	return u, nil
}

// Get loads one unit by its (item, index) key. It returns
// ErrTicketNotFound when no such unit exists.
func (r *TicketUnitRepo) Get(ctx context.Context, itemID uint64, unitIdx int) (*model.TicketUnit, error) {
	q := `SELECT ` + unitColumns + ` FROM ticket_units WHERE order_item_id = ? AND unit_idx = ?`
	u, err := scanUnit(r.db.QueryRowContext(ctx, q, itemID, unitIdx))
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListByItem returns all units of a line item ordered by unit index.
// Items that were never generated yield an empty slice.
func (r *TicketUnitRepo) ListByItem(ctx context.Context, itemID uint64) ([]model.TicketUnit, error) {
	q := `SELECT ` + unitColumns + ` FROM ticket_units WHERE order_item_id = ? ORDER BY unit_idx`
	rows, err := r.db.QueryContext(ctx, q, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	units := make([]model.TicketUnit, 0)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// Save writes a unit produced by a generation cycle. An existing row
// for the same (item, index) is replaced wholesale: generation always
// assigns a fresh token and resets scan state, matching the rule that
// a re-attempted unit starts over.
func (r *TicketUnitRepo) Save(ctx context.Context, u *model.TicketUnit) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ticket_units
		 (order_item_id, unit_idx, order_id, token, ticket_number, status, scan_count, first_scan_at, pdf_path, pdf_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		 token = VALUES(token), ticket_number = VALUES(ticket_number), status = VALUES(status),
		 scan_count = VALUES(scan_count), first_scan_at = NULL,
		 pdf_path = VALUES(pdf_path), pdf_url = VALUES(pdf_url), updated_at = VALUES(updated_at)`,
		u.ItemID, u.UnitIdx, u.OrderID, u.Token, u.Number, u.Status, u.ScanCount,
		nullable(u.PDFPath), nullable(u.PDFURL), now, now)
	return err
}

// DeleteByItem removes every unit of a line item. Regeneration calls
// this first so that prior tokens, numbers and PDF references are
// cleared before new identities are allocated.
func (r *TicketUnitRepo) DeleteByItem(ctx context.Context, itemID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ticket_units WHERE order_item_id = ?`, itemID)
	return err
}

// TokenMatch is a unit found by token lookup together with the line
// item name, which doubles as the event name on scanner responses.
type TokenMatch struct {
	Unit     model.TicketUnit
	ItemName string
}

// FindByToken resolves a validation token to its unit and event name.
// Tokens are unique, so at most one row matches; ErrTicketNotFound is
// returned otherwise.
func (r *TicketUnitRepo) FindByToken(ctx context.Context, token string) (*TokenMatch, error) {
	q := `SELECT tu.order_item_id, tu.unit_idx, tu.order_id, tu.token, tu.ticket_number, tu.status,
	             tu.scan_count, tu.first_scan_at, COALESCE(tu.pdf_path, ''), COALESCE(tu.pdf_url, ''),
	             tu.created_at, tu.updated_at, oi.name
	      FROM ticket_units tu
	      JOIN order_items oi ON oi.id = tu.order_item_id
	      WHERE tu.token = ?`
	var m TokenMatch
	var firstScan sql.NullTime
	err := r.db.QueryRowContext(ctx, q, token).Scan(
		&m.Unit.ItemID, &m.Unit.UnitIdx, &m.Unit.OrderID, &m.Unit.Token, &m.Unit.Number, &m.Unit.Status,
		&m.Unit.ScanCount, &firstScan, &m.Unit.PDFPath, &m.Unit.PDFURL,
		&m.Unit.CreatedAt, &m.Unit.UpdatedAt, &m.ItemName,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	if firstScan.Valid {
		t := firstScan.Time.UTC()
		m.Unit.FirstScanAt = &t
	}
	return &m, nil
}

// ScanRecord reports the state around one recorded scan: the count
// before the scan, the count after, and the first-scan timestamp that
// is now in effect.
type ScanRecord struct {
	PrevCount   int
	NewCount    int
	FirstScanAt time.Time
}

// RecordScan increments the scan counter for a token and sets the
// first-scan timestamp if this is the first scan. The read-increment
// pair runs under a row lock so concurrent scans of the same token
// serialize instead of losing updates.
func (r *TicketUnitRepo) RecordScan(ctx context.Context, token string, now time.Time) (*ScanRecord, error) {
	now = now.UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var rec ScanRecord
	var firstScan sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT scan_count, first_scan_at FROM ticket_units WHERE token = ? FOR UPDATE`,
		token).Scan(&rec.PrevCount, &firstScan)
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.NewCount = rec.PrevCount + 1
	if firstScan.Valid {
		rec.FirstScanAt = firstScan.Time.UTC()
	} else {
		rec.FirstScanAt = now
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE ticket_units SET scan_count = ?, first_scan_at = COALESCE(first_scan_at, ?), updated_at = ? WHERE token = ?`,
		rec.NewCount, now, now, token); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &rec, nil
}

// SetStatus flips a unit between active and disabled. Scan history is
// preserved either way. ErrTicketNotFound is returned when the key
// does not match an existing unit.
func (r *TicketUnitRepo) SetStatus(ctx context.Context, itemID uint64, unitIdx int, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ticket_units SET status = ?, updated_at = ? WHERE order_item_id = ? AND unit_idx = ?`,
		status, time.Now().UTC(), itemID, unitIdx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// ProductStats aggregates ticket counters for one event product.
type ProductStats struct {
	Generated int
	Active    int
	Disabled  int
	Scanned   int
}

// StatsByProduct rolls up unit counters across every order of a ticket
// product. Scanned counts only active units with at least one scan,
// mirroring the admin event overview.
func (r *TicketUnitRepo) StatsByProduct(ctx context.Context, productID uint64) (*ProductStats, error) {
	const q = `SELECT COUNT(*),
	                  COALESCE(SUM(tu.status = 'active'), 0),
	                  COALESCE(SUM(tu.status = 'disabled'), 0),
	                  COALESCE(SUM(tu.status = 'active' AND tu.scan_count > 0), 0)
	           FROM ticket_units tu
	           JOIN order_items oi ON oi.id = tu.order_item_id
	           WHERE oi.product_id = ?`
	var s ProductStats
	if err := r.db.QueryRowContext(ctx, q, productID).Scan(&s.Generated, &s.Active, &s.Disabled, &s.Scanned); err != nil {
		return nil, err
	}
	return &s, nil
}

// nullable maps the empty string to SQL NULL so that an absent PDF
// reference stays distinguishable from an explicitly empty one.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
