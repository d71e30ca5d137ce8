package model

import "time"

// Ticket statuses.  A disabled ticket is rejected at the gate but keeps
// its scan history; the toggle is reversible from the admin surface.
const (
	TicketStatusActive   = "active"
	TicketStatusDisabled = "disabled"
)

// TicketUnit is one individually scannable ticket within a purchased
// quantity.  Units are keyed by (ItemID, UnitIdx); UnitIdx is the
// 0-based position inside the line item's quantity.
//
// Token is the unguessable credential used for QR validation and PDF
// lookup; it is assigned once per generation cycle and replaced only by
// an explicit regeneration.  Number is the human-readable label derived
// from the order id and unit index; it is not security sensitive.
type TicketUnit struct {
	ItemID      uint64     // ticket_units.order_item_id
	UnitIdx     int        // ticket_units.unit_idx (0-based)
	OrderID     uint64     // ticket_units.order_id (denormalized for lookups)
	Token       string     // ticket_units.token (unique)
	Number      string     // ticket_units.ticket_number
	Status      string     // ticket_units.status (active/disabled)
	ScanCount   int        // ticket_units.scan_count
	FirstScanAt *time.Time // ticket_units.first_scan_at (nil until first scan)
	PDFPath     string     // ticket_units.pdf_path (local file, empty if none)
	PDFURL      string     // ticket_units.pdf_url (remote copy, empty if none)
	CreatedAt   time.Time  // ticket_units.created_at
	UpdatedAt   time.Time  // ticket_units.updated_at
}

// Delivered reports whether the unit has a usable PDF reference, either
// a stored file or an externally hosted URL.  Generation treats an item
// as complete only when every unit is delivered; a token without a PDF
// stays eligible for a re-attempt.
func (u TicketUnit) Delivered() bool {
	return u.PDFPath != "" || u.PDFURL != ""
}
