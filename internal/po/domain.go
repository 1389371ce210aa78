package po

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PurchaseOrder commits an RFP to one vendor's quotation. Issuing it is the
// point of no return: the RFP leaves the quotation-collection phase.
type PurchaseOrder struct {
	ID          uuid.UUID
	POID        string
	RFPID       uuid.UUID
	QuotationID uuid.UUID
	VendorID    uuid.UUID
	CompanyID   uuid.UUID
	CreatedByID int64
	Remarks     string
	CreatedAt   time.Time
}

var (
	// ErrNotFound indicates the purchase order, RFP, or quotation is missing.
	ErrNotFound = errors.New("po: not found")
	// ErrQuotationMismatch indicates the quotation belongs to a different RFP.
	ErrQuotationMismatch = errors.New("po: quotation does not belong to rfp")
	// ErrAlreadyIssued indicates a purchase order already exists for the quotation.
	ErrAlreadyIssued = errors.New("po: purchase order already issued")
	// ErrRFPNotReady indicates the RFP is not in a state that allows issuing.
	ErrRFPNotReady = errors.New("po: rfp not ready for purchase order")
)
