package quotation

import (
	"github.com/google/uuid"
)

// SubmitRequest is the JSON `data` field of the multipart submission.
type SubmitRequest struct {
	Quotations        []QuotationInput `json:"quotations" validate:"required,min=1,dive"`
	PreferredVendorID string           `json:"preferredVendorId,omitempty"`
	RFPStatus         string           `json:"rfpStatus,omitempty"`
}

// QuotationInput carries one vendor's submission.
type QuotationInput struct {
	VendorID              string          `json:"vendorId" validate:"required"`
	RefNo                 string          `json:"refNo" validate:"max=60"`
	TotalAmount           float64         `json:"totalAmount" validate:"gte=0"`
	TotalAmountWithoutGST float64         `json:"totalAmountWithoutGST" validate:"gte=0"`
	Products              []PricingInput  `json:"products" validate:"dive"`
	OtherCharges          []ChargeInput   `json:"otherCharges" validate:"dive"`
	Documents             []DocumentInput `json:"supportingDocuments" validate:"dive"`
}

// PricingInput prices one product of the RFP.
type PricingInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Price     float64   `json:"price" validate:"gte=0"`
	GSTRate   float64   `json:"gstRate" validate:"gte=0,lte=100"`
}

// ChargeInput is a named extra cost.
type ChargeInput struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Price   float64 `json:"price" validate:"gte=0"`
	GSTRate float64 `json:"gstRate" validate:"gte=0,lte=100"`
}

// DocumentInput declares one expected upload slot. The actual file arrives
// as the multipart field "{vendorId}-{documentName}"; a missing file skips
// the slot without error.
type DocumentInput struct {
	DocumentType string `json:"documentType" validate:"required,max=60"`
	DocumentName string `json:"documentName" validate:"required,max=120"`
}

// SubmitResponse returns the updated RFP state with the processed quotations.
type SubmitResponse struct {
	RFPID                uuid.UUID           `json:"rfpId"`
	RFPDisplayID         string              `json:"rfpDisplayId"`
	RFPStatus            string              `json:"rfpStatus"`
	PreferredQuotationID *uuid.UUID          `json:"preferredQuotationId,omitempty"`
	Quotations           []QuotationResponse `json:"quotations"`
}

// QuotationResponse is the processed state of one vendor's quotation.
type QuotationResponse struct {
	ID                    uuid.UUID          `json:"id"`
	VendorID              uuid.UUID          `json:"vendorId"`
	RefNo                 string             `json:"refNo"`
	TotalAmount           float64            `json:"totalAmount"`
	TotalAmountWithoutGST float64            `json:"totalAmountWithoutGST"`
	Pricing               []PricingResponse  `json:"pricing"`
	OtherCharges          []ChargeResponse   `json:"otherCharges"`
	Documents             []DocumentResponse `json:"supportingDocuments"`
}

// PricingResponse mirrors VendorPricing for responses.
type PricingResponse struct {
	ID           uuid.UUID `json:"id"`
	RFPProductID uuid.UUID `json:"rfpProductId"`
	Price        float64   `json:"price"`
	GSTRate      float64   `json:"gstRate"`
}

// ChargeResponse mirrors OtherCharge for responses.
type ChargeResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Price   float64   `json:"price"`
	GSTRate float64   `json:"gstRate"`
}

// DocumentResponse mirrors SupportingDocument for responses.
type DocumentResponse struct {
	ID           uuid.UUID `json:"id"`
	DocumentType string    `json:"documentType"`
	DocumentName string    `json:"documentName"`
	Location     string    `json:"location"`
}
