package po

import (
	"time"

	"github.com/google/uuid"
)

// CreatePORequest issues a purchase order against a quotation.
type CreatePORequest struct {
	RFPID       uuid.UUID `json:"rfpId" validate:"required"`
	QuotationID uuid.UUID `json:"quotationId" validate:"required"`
	CompanyID   uuid.UUID `json:"companyId" validate:"required"`
	Remarks     string    `json:"remarks" validate:"max=500"`
}

// POResponse is the API shape of a purchase order.
type POResponse struct {
	ID          uuid.UUID `json:"id"`
	POID        string    `json:"poId"`
	RFPID       uuid.UUID `json:"rfpId"`
	QuotationID uuid.UUID `json:"quotationId"`
	VendorID    uuid.UUID `json:"vendorId"`
	CompanyID   uuid.UUID `json:"companyId"`
	CreatedByID int64     `json:"createdById"`
	Remarks     string    `json:"remarks"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewPOResponse maps a purchase order to its API shape.
func NewPOResponse(order PurchaseOrder) POResponse {
	return POResponse{
		ID:          order.ID,
		POID:        order.POID,
		RFPID:       order.RFPID,
		QuotationID: order.QuotationID,
		VendorID:    order.VendorID,
		CompanyID:   order.CompanyID,
		CreatedByID: order.CreatedByID,
		Remarks:     order.Remarks,
		CreatedAt:   order.CreatedAt,
	}
}
