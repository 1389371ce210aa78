package po

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sourcedesk/sourcedesk/internal/audit"
	"github.com/sourcedesk/sourcedesk/internal/rfp"
	"github.com/sourcedesk/sourcedesk/internal/sequence"
)

// QuotationRef locates a quotation within its RFP.
type QuotationRef struct {
	ID       uuid.UUID
	RFPID    uuid.UUID
	VendorID uuid.UUID
}

// RFPInfo is the slice of RFP state the issuer needs.
type RFPInfo struct {
	ID        uuid.UUID
	DisplayID string
	Status    rfp.Status
}

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetQuotationRef(ctx context.Context, quotationID uuid.UUID) (QuotationRef, error)
	GetRFPInfo(ctx context.Context, rfpID uuid.UUID) (RFPInfo, error)
	GetPO(ctx context.Context, id uuid.UUID) (PurchaseOrder, error)
	ListPOs(ctx context.Context, limit, offset int) ([]PurchaseOrder, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	NextDocumentID(ctx context.Context, kind sequence.Kind, day time.Time) (string, error)
	ExistsForQuotation(ctx context.Context, quotationID uuid.UUID) (bool, error)
	InsertPO(ctx context.Context, order PurchaseOrder) error
	UpdateRFPStatus(ctx context.Context, rfpID uuid.UUID, status rfp.Status) error
}

// AuditPort records lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, eventName string, actor audit.Actor, details map[string]any) error
}

// Notifier hands off vendor notification delivery.
type Notifier interface {
	NotifyPOIssued(ctx context.Context, order PurchaseOrder) error
}

// SummaryInvalidator drops the cached dashboard summary after mutations.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service issues purchase orders.
type Service struct {
	repo      RepositoryPort
	auditor   AuditPort
	notifier  Notifier
	summaries SummaryInvalidator
	now       func() time.Time
}

// NewService constructs the issuer service.
func NewService(repo RepositoryPort, auditor AuditPort, notifier Notifier, summaries SummaryInvalidator) *Service {
	return &Service{repo: repo, auditor: auditor, notifier: notifier, summaries: summaries, now: time.Now}
}

// Create issues a purchase order for the quotation. The RFP status change and
// the PO insert commit together or not at all.
func (s *Service) Create(ctx context.Context, req CreatePORequest, actor audit.Actor) (POResponse, error) {
	ref, err := s.repo.GetQuotationRef(ctx, req.QuotationID)
	if err != nil {
		return POResponse{}, err
	}
	if ref.RFPID != req.RFPID {
		return POResponse{}, fmt.Errorf("%w: quotation %s", ErrQuotationMismatch, req.QuotationID)
	}
	info, err := s.repo.GetRFPInfo(ctx, req.RFPID)
	if err != nil {
		return POResponse{}, err
	}
	if info.Status != rfp.StatusSubmitted {
		return POResponse{}, fmt.Errorf("%w: status %s", ErrRFPNotReady, info.Status)
	}

	order := PurchaseOrder{
		ID:          uuid.New(),
		RFPID:       req.RFPID,
		QuotationID: req.QuotationID,
		VendorID:    ref.VendorID,
		CompanyID:   req.CompanyID,
		CreatedByID: actor.ID,
		Remarks:     req.Remarks,
		CreatedAt:   s.now(),
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.ExistsForQuotation(ctx, req.QuotationID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyIssued
		}
		poID, err := tx.NextDocumentID(ctx, sequence.KindPO, s.now())
		if err != nil {
			return err
		}
		order.POID = poID
		if err := tx.InsertPO(ctx, order); err != nil {
			return err
		}
		return tx.UpdateRFPStatus(ctx, req.RFPID, rfp.StatusPOCreated)
	})
	if err != nil {
		return POResponse{}, err
	}

	if s.auditor != nil {
		_ = s.auditor.Record(ctx, audit.EventPOCreated, actor, map[string]any{
			"poId":        order.POID,
			"rfpId":       info.DisplayID,
			"quotationId": order.QuotationID.String(),
		})
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyPOIssued(ctx, order)
	}
	if s.summaries != nil {
		s.summaries.Invalidate(ctx)
	}
	return NewPOResponse(order), nil
}

// Get returns one purchase order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (POResponse, error) {
	order, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return POResponse{}, err
	}
	return NewPOResponse(order), nil
}

// List returns purchase orders, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]POResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.repo.ListPOs(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]POResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, NewPOResponse(order))
	}
	return out, nil
}
