package rfp

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status enumerates the RFP lifecycle states.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusSubmitted   Status = "SUBMITTED"
	StatusPOCreated   Status = "PO_CREATED"
	StatusPaymentDone Status = "PAYMENT_DONE"
)

// ParseStatus validates a status value against the fixed enumeration.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusDraft, StatusSubmitted, StatusPOCreated, StatusPaymentDone:
		return Status(value), true
	}
	return "", false
}

// RFP domain model. The display identifier RFPID is date-scoped sequential
// (RFP-YYYY-MM-DD-NNNN); ID is the internal key.
type RFP struct {
	ID                   uuid.UUID
	RFPID                string
	RequirementType      string
	DateOfOrdering       time.Time
	DeliveryLocation     string
	DeliveryByDate       time.Time
	Status               Status
	PreferredQuotationID *uuid.UUID
	RequesterID          int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ProductLine links an RFP to a product with a requested quantity. Wholly
// owned by the RFP and replaced as a set on update.
type ProductLine struct {
	ID        uuid.UUID
	RFPID     uuid.UUID
	ProductID uuid.UUID
	Quantity  float64
}

// Approver tracks a user's sign-off against an RFP. Replaced as a set on
// update; replacement resets Approved to false.
type Approver struct {
	ID       uuid.UUID
	RFPID    uuid.UUID
	UserID   int64
	Approved bool
}

// SummaryRow is the denormalized dashboard listing entry. Serialized both
// into API responses and the redis summary cache.
type SummaryRow struct {
	ID               uuid.UUID `json:"id"`
	RFPID            string    `json:"rfpId"`
	RequirementType  string    `json:"requirementType"`
	DeliveryLocation string    `json:"deliveryLocation"`
	DeliveryByDate   time.Time `json:"deliveryByDate"`
	Status           Status    `json:"status"`
	ProductCount     int       `json:"productCount"`
	QuotationCount   int       `json:"quotationCount"`
	PreferredTotal   float64   `json:"preferredTotal"`
}

var (
	// ErrNotFound indicates the RFP does not exist.
	ErrNotFound = errors.New("rfp: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("rfp: invalid input")
	// ErrInvalidStatus indicates an unrecognized status value.
	ErrInvalidStatus = errors.New("rfp: invalid status value")
)
