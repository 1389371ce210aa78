package quotation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Quotation is one vendor's priced response to an RFP. Submission replaces
// the vendor's prior pricing, charges, and documents wholesale.
type Quotation struct {
	ID                    uuid.UUID
	RFPID                 uuid.UUID
	VendorID              uuid.UUID
	RefNo                 string
	TotalAmount           float64
	TotalAmountWithoutGST float64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// VendorPricing prices one RFP product line. It references the RFPProduct,
// not the bare product, so the price is scoped to this RFP's quantity.
type VendorPricing struct {
	ID           uuid.UUID
	QuotationID  uuid.UUID
	RFPProductID uuid.UUID
	Price        float64
	GSTRate      float64
}

// OtherCharge is a named extra cost on a quotation.
type OtherCharge struct {
	ID          uuid.UUID
	QuotationID uuid.UUID
	Name        string
	Price       float64
	GSTRate     float64
}

// SupportingDocument records an uploaded file backing a quotation.
type SupportingDocument struct {
	ID           uuid.UUID
	QuotationID  uuid.UUID
	DocumentType string
	DocumentName string
	Location     string
}

var (
	// ErrNotFound indicates the target RFP does not exist.
	ErrNotFound = errors.New("quotation: rfp not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("quotation: invalid input")
	// ErrMalformedID indicates an identifier failed its format check.
	ErrMalformedID = errors.New("quotation: malformed identifier")
	// ErrRFPNotOpen indicates the RFP is not accepting quotations.
	ErrRFPNotOpen = errors.New("quotation: rfp not accepting quotations")
)
