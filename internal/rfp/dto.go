package rfp

import (
	"time"

	"github.com/google/uuid"
)

// CreateRFPRequest is the POST /rfp payload.
type CreateRFPRequest struct {
	RequirementType  string                `json:"requirementType" validate:"required,max=120"`
	DateOfOrdering   time.Time             `json:"dateOfOrdering" validate:"required"`
	DeliveryLocation string                `json:"deliveryLocation" validate:"required,max=255"`
	DeliveryByDate   time.Time             `json:"deliveryByDate" validate:"required"`
	Products         []ProductLineRequest  `json:"rfpProducts" validate:"required,min=1,dive"`
	Approvers        []ApproverRequest     `json:"approvers" validate:"required,min=1,dive"`
}

// UpdateRFPRequest is the PUT /rfp/{id} payload.
type UpdateRFPRequest struct {
	RequirementType  string               `json:"requirementType" validate:"required,max=120"`
	DateOfOrdering   time.Time            `json:"dateOfOrdering" validate:"required"`
	DeliveryLocation string               `json:"deliveryLocation" validate:"required,max=255"`
	DeliveryByDate   time.Time            `json:"deliveryByDate" validate:"required"`
	Status           string               `json:"rfpStatus" validate:"required"`
	Products         []ProductLineRequest `json:"rfpProducts" validate:"required,min=1,dive"`
	Approvers        []ApproverRequest    `json:"approvers" validate:"required,min=1,dive"`
}

// ProductLineRequest describes one requested product.
type ProductLineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  float64   `json:"quantity" validate:"required,gt=0"`
}

// ApproverRequest names one approving user.
type ApproverRequest struct {
	ApproverID int64 `json:"approverId" validate:"required,gt=0"`
}

// RFPResponse is the JSON shape returned for an RFP with its children.
type RFPResponse struct {
	ID                   uuid.UUID             `json:"id"`
	RFPID                string                `json:"rfpId"`
	RequirementType      string                `json:"requirementType"`
	DateOfOrdering       time.Time             `json:"dateOfOrdering"`
	DeliveryLocation     string                `json:"deliveryLocation"`
	DeliveryByDate       time.Time             `json:"deliveryByDate"`
	Status               Status                `json:"rfpStatus"`
	PreferredQuotationID *uuid.UUID            `json:"preferredQuotationId,omitempty"`
	Products             []ProductLineResponse `json:"rfpProducts"`
	Approvers            []ApproverResponse    `json:"approvers"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
}

// ProductLineResponse mirrors ProductLine for responses.
type ProductLineResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  float64   `json:"quantity"`
}

// ApproverResponse mirrors Approver for responses.
type ApproverResponse struct {
	ID         uuid.UUID `json:"id"`
	ApproverID int64     `json:"approverId"`
	Approved   bool      `json:"approved"`
}

// NewRFPResponse maps a domain RFP and its children to the response shape.
func NewRFPResponse(doc RFP, products []ProductLine, approvers []Approver) RFPResponse {
	resp := RFPResponse{
		ID:                   doc.ID,
		RFPID:                doc.RFPID,
		RequirementType:      doc.RequirementType,
		DateOfOrdering:       doc.DateOfOrdering,
		DeliveryLocation:     doc.DeliveryLocation,
		DeliveryByDate:       doc.DeliveryByDate,
		Status:               doc.Status,
		PreferredQuotationID: doc.PreferredQuotationID,
		Products:             make([]ProductLineResponse, 0, len(products)),
		Approvers:            make([]ApproverResponse, 0, len(approvers)),
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
	for _, p := range products {
		resp.Products = append(resp.Products, ProductLineResponse{ID: p.ID, ProductID: p.ProductID, Quantity: p.Quantity})
	}
	for _, a := range approvers {
		resp.Approvers = append(resp.Approvers, ApproverResponse{ID: a.ID, ApproverID: a.UserID, Approved: a.Approved})
	}
	return resp
}
