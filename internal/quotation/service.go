package quotation

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/sourcedesk/sourcedesk/internal/audit"
	"github.com/sourcedesk/sourcedesk/internal/rfp"
)

// RFPInfo is the slice of RFP state the intake flow needs.
type RFPInfo struct {
	ID                   uuid.UUID
	DisplayID            string
	Status               rfp.Status
	PreferredQuotationID *uuid.UUID
}

// RFPProductRef maps a product to its RFP product line.
type RFPProductRef struct {
	ID        uuid.UUID
	ProductID uuid.UUID
}

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRFPInfo(ctx context.Context, id uuid.UUID) (RFPInfo, error)
	ListRFPProducts(ctx context.Context, rfpID uuid.UUID) ([]RFPProductRef, error)
	ListByRFP(ctx context.Context, rfpID uuid.UUID) ([]Quotation, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	FindQuotationID(ctx context.Context, rfpID, vendorID uuid.UUID) (uuid.UUID, bool, error)
	InsertQuotation(ctx context.Context, q Quotation) error
	UpdateQuotation(ctx context.Context, q Quotation) error
	DeletePricing(ctx context.Context, quotationID uuid.UUID) error
	InsertPricing(ctx context.Context, p VendorPricing) error
	DeleteCharges(ctx context.Context, quotationID uuid.UUID) error
	InsertCharge(ctx context.Context, c OtherCharge) error
	DeleteDocuments(ctx context.Context, quotationID uuid.UUID) error
	InsertDocument(ctx context.Context, d SupportingDocument) error
	SetPreferredQuotation(ctx context.Context, rfpID, quotationID uuid.UUID) error
	UpdateRFPStatus(ctx context.Context, rfpID uuid.UUID, status rfp.Status) error
}

// Staged is a file parked in the staging area, pending promotion.
type Staged interface {
	Location() string
	Commit() error
	Discard()
}

// DocumentStore stages uploads for post-commit promotion into the asset tree.
type DocumentStore interface {
	Stage(src io.Reader, rfpDisplayID string, vendorID uuid.UUID, documentName string) (Staged, error)
}

// AuditPort records lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, eventName string, actor audit.Actor, details map[string]any) error
}

// SummaryInvalidator drops the cached dashboard summary after mutations.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service accepts vendor quotations against an RFP.
type Service struct {
	repo      RepositoryPort
	documents DocumentStore
	auditor   AuditPort
	summaries SummaryInvalidator
}

// NewService constructs the intake service.
func NewService(repo RepositoryPort, documents DocumentStore, auditor AuditPort, summaries SummaryInvalidator) *Service {
	return &Service{repo: repo, documents: documents, auditor: auditor, summaries: summaries}
}

// Submit processes one or more vendor quotations for the RFP. The whole
// submission is one transaction: a single malformed vendor identifier aborts
// every vendor's changes. Files are staged during the transaction and only
// promoted into the asset tree after commit. The response carries the RFP's
// complete quotation set, not just the vendors in this submission.
func (s *Service) Submit(ctx context.Context, rfpID uuid.UUID, req SubmitRequest, files map[string]io.Reader, actor audit.Actor) (SubmitResponse, error) {
	if len(req.Quotations) == 0 {
		return SubmitResponse{}, fmt.Errorf("%w: at least one quotation required", ErrValidation)
	}

	// Every identifier is format-checked before any persistence.
	vendorIDs := make([]uuid.UUID, len(req.Quotations))
	for i, q := range req.Quotations {
		vendorID, err := uuid.Parse(q.VendorID)
		if err != nil {
			return SubmitResponse{}, fmt.Errorf("%w: vendor id %q", ErrMalformedID, q.VendorID)
		}
		vendorIDs[i] = vendorID
	}
	var preferredVendor *uuid.UUID
	if req.PreferredVendorID != "" {
		id, err := uuid.Parse(req.PreferredVendorID)
		if err != nil {
			return SubmitResponse{}, fmt.Errorf("%w: preferred vendor id %q", ErrMalformedID, req.PreferredVendorID)
		}
		preferredVendor = &id
	}
	var nextStatus *rfp.Status
	if req.RFPStatus != "" {
		status, ok := rfp.ParseStatus(req.RFPStatus)
		if !ok {
			return SubmitResponse{}, fmt.Errorf("%w: rfp status %q", rfp.ErrInvalidStatus, req.RFPStatus)
		}
		nextStatus = &status
	}

	info, err := s.repo.GetRFPInfo(ctx, rfpID)
	if err != nil {
		return SubmitResponse{}, err
	}
	if info.Status != rfp.StatusSubmitted {
		return SubmitResponse{}, fmt.Errorf("%w: status %s", ErrRFPNotOpen, info.Status)
	}

	productRefs, err := s.repo.ListRFPProducts(ctx, rfpID)
	if err != nil {
		return SubmitResponse{}, err
	}
	refByProduct := make(map[uuid.UUID]uuid.UUID, len(productRefs))
	for _, ref := range productRefs {
		refByProduct[ref.ProductID] = ref.ID
	}

	var staged []Staged
	defer func() {
		// Anything not committed below is discarded.
		for _, doc := range staged {
			doc.Discard()
		}
	}()

	resp := SubmitResponse{RFPID: info.ID, RFPDisplayID: info.DisplayID, RFPStatus: string(info.Status), PreferredQuotationID: info.PreferredQuotationID}
	detail := make(map[uuid.UUID]QuotationResponse, len(req.Quotations))
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		quotationByVendor := make(map[uuid.UUID]uuid.UUID, len(req.Quotations))
		for i, input := range req.Quotations {
			vendorID := vendorIDs[i]
			q := Quotation{
				RFPID:                 rfpID,
				VendorID:              vendorID,
				RefNo:                 input.RefNo,
				TotalAmount:           input.TotalAmount,
				TotalAmountWithoutGST: input.TotalAmountWithoutGST,
			}

			existingID, found, err := tx.FindQuotationID(ctx, rfpID, vendorID)
			if err != nil {
				return err
			}
			if found {
				q.ID = existingID
				if err := tx.UpdateQuotation(ctx, q); err != nil {
					return err
				}
				// Full replacement: prior pricing, charges, documents go away.
				if err := tx.DeletePricing(ctx, q.ID); err != nil {
					return err
				}
				if err := tx.DeleteCharges(ctx, q.ID); err != nil {
					return err
				}
				if err := tx.DeleteDocuments(ctx, q.ID); err != nil {
					return err
				}
			} else {
				q.ID = uuid.New()
				if err := tx.InsertQuotation(ctx, q); err != nil {
					return err
				}
			}
			quotationByVendor[vendorID] = q.ID

			out := QuotationResponse{
				ID:                    q.ID,
				VendorID:              vendorID,
				RefNo:                 q.RefNo,
				TotalAmount:           q.TotalAmount,
				TotalAmountWithoutGST: q.TotalAmountWithoutGST,
			}

			for _, p := range input.Products {
				rfpProductID, ok := refByProduct[p.ProductID]
				if !ok {
					return fmt.Errorf("%w: product %s not requested by this rfp", ErrValidation, p.ProductID)
				}
				pricing := VendorPricing{ID: uuid.New(), QuotationID: q.ID, RFPProductID: rfpProductID, Price: p.Price, GSTRate: p.GSTRate}
				if err := tx.InsertPricing(ctx, pricing); err != nil {
					return err
				}
				out.Pricing = append(out.Pricing, PricingResponse{ID: pricing.ID, RFPProductID: rfpProductID, Price: p.Price, GSTRate: p.GSTRate})
			}
			for _, c := range input.OtherCharges {
				charge := OtherCharge{ID: uuid.New(), QuotationID: q.ID, Name: c.Name, Price: c.Price, GSTRate: c.GSTRate}
				if err := tx.InsertCharge(ctx, charge); err != nil {
					return err
				}
				out.OtherCharges = append(out.OtherCharges, ChargeResponse{ID: charge.ID, Name: c.Name, Price: c.Price, GSTRate: c.GSTRate})
			}
			for _, d := range input.Documents {
				src, ok := files[fmt.Sprintf("%s-%s", input.VendorID, d.DocumentName)]
				if !ok {
					// Partial document sets are allowed; absent slots are skipped.
					continue
				}
				stagedDoc, err := s.documents.Stage(src, info.DisplayID, vendorID, d.DocumentName)
				if err != nil {
					return err
				}
				staged = append(staged, stagedDoc)
				doc := SupportingDocument{ID: uuid.New(), QuotationID: q.ID, DocumentType: d.DocumentType, DocumentName: d.DocumentName, Location: stagedDoc.Location()}
				if err := tx.InsertDocument(ctx, doc); err != nil {
					return err
				}
				out.Documents = append(out.Documents, DocumentResponse{ID: doc.ID, DocumentType: doc.DocumentType, DocumentName: doc.DocumentName, Location: doc.Location})
			}
			detail[vendorID] = out
		}

		if preferredVendor != nil {
			if quotationID, ok := quotationByVendor[*preferredVendor]; ok {
				if err := tx.SetPreferredQuotation(ctx, rfpID, quotationID); err != nil {
					return err
				}
				resp.PreferredQuotationID = &quotationID
			}
			// No matching vendor leaves the preference unset rather than erroring.
		}
		if nextStatus != nil {
			if err := tx.UpdateRFPStatus(ctx, rfpID, *nextStatus); err != nil {
				return err
			}
			resp.RFPStatus = string(*nextStatus)
		}
		return nil
	})
	if err != nil {
		resp = SubmitResponse{}
		return resp, err
	}

	// Promote staged files now that the transaction is durable.
	for _, doc := range staged {
		_ = doc.Commit()
	}
	staged = nil

	s.recordAudit(ctx, actor, info.DisplayID, len(req.Quotations))
	if s.summaries != nil {
		s.summaries.Invalidate(ctx)
	}

	// The persisted rows are durable at this point; quotations from earlier
	// submissions come back with row fields only.
	quotes, err := s.repo.ListByRFP(ctx, rfpID)
	if err != nil {
		return SubmitResponse{}, err
	}
	resp.Quotations = make([]QuotationResponse, 0, len(quotes))
	for _, q := range quotes {
		if out, ok := detail[q.VendorID]; ok {
			resp.Quotations = append(resp.Quotations, out)
			continue
		}
		resp.Quotations = append(resp.Quotations, QuotationResponse{
			ID:                    q.ID,
			VendorID:              q.VendorID,
			RefNo:                 q.RefNo,
			TotalAmount:           q.TotalAmount,
			TotalAmountWithoutGST: q.TotalAmountWithoutGST,
		})
	}
	return resp, nil
}

func (s *Service) recordAudit(ctx context.Context, actor audit.Actor, rfpDisplayID string, count int) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, audit.EventQuotationSubmitted, actor, map[string]any{
		"rfpId":      rfpDisplayID,
		"quotations": count,
	})
}
