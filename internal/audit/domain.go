package audit

import (
	"errors"
	"time"
)

// Recognized lifecycle event names. The auditable_events table is the
// authoritative catalog; these constants mirror its seed rows.
const (
	EventRFPCreated          = "RFP_CREATED"
	EventRFPUpdated          = "RFP_UPDATED"
	EventQuotationSubmitted  = "QUOTATION_SUBMITTED"
	EventPOCreated           = "PO_CREATED"
	EventVendorStatusChanged = "VENDOR_STATUS_CHANGED"
	EventQueryRaised         = "QUERY_RAISED"
)

var (
	// ErrUnknownEvent indicates the event name is not in the catalog.
	ErrUnknownEvent = errors.New("audit: invalid auditable event")
	// ErrInvalidActor indicates the acting user lacks an id or role.
	ErrInvalidActor = errors.New("audit: invalid user")
)

// Event is a catalog entry. Read-only reference data.
type Event struct {
	ID   int64
	Name string
}

// Actor captures who triggered an event. A snapshot of it is embedded in
// the trail details record.
type Actor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Trail is one append-only audit row. No update or delete path exists.
type Trail struct {
	ID        int64
	EventID   int64
	EventName string
	UserID    int64
	Details   map[string]any
	CreatedAt time.Time
}
