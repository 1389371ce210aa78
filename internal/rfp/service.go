package rfp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sourcedesk/sourcedesk/internal/audit"
	"github.com/sourcedesk/sourcedesk/internal/sequence"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRFP(ctx context.Context, id uuid.UUID) (RFP, []ProductLine, []Approver, error)
	ListRFPs(ctx context.Context, limit, offset int) ([]RFP, error)
	Summary(ctx context.Context) ([]SummaryRow, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	NextDocumentID(ctx context.Context, kind sequence.Kind, day time.Time) (string, error)
	InsertRFP(ctx context.Context, doc RFP) error
	UpdateRFP(ctx context.Context, doc RFP) error
	DeleteProductLines(ctx context.Context, rfpID uuid.UUID) error
	InsertProductLine(ctx context.Context, line ProductLine) error
	DeleteApprovers(ctx context.Context, rfpID uuid.UUID) error
	InsertApprover(ctx context.Context, approver Approver) error
}

// AuditPort records lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, eventName string, actor audit.Actor, details map[string]any) error
}

// Service owns RFP creation and update.
type Service struct {
	repo    RepositoryPort
	auditor AuditPort
	cache   *SummaryCache
	now     func() time.Time
}

// NewService constructs the RFP service.
func NewService(repo RepositoryPort, auditor AuditPort, cache *SummaryCache) *Service {
	return &Service{repo: repo, auditor: auditor, cache: cache, now: time.Now}
}

// Create persists a new RFP with its product lines and approvers in one
// transaction, assigning the display identifier inside the same transaction.
func (s *Service) Create(ctx context.Context, input CreateRFPRequest, actor audit.Actor) (RFPResponse, error) {
	if len(input.Products) == 0 || len(input.Approvers) == 0 {
		return RFPResponse{}, fmt.Errorf("%w: at least one product line and one approver required", ErrValidation)
	}

	doc := RFP{
		ID:               uuid.New(),
		RequirementType:  input.RequirementType,
		DateOfOrdering:   input.DateOfOrdering,
		DeliveryLocation: input.DeliveryLocation,
		DeliveryByDate:   input.DeliveryByDate,
		Status:           StatusDraft,
		RequesterID:      actor.ID,
	}

	var (
		products  []ProductLine
		approvers []Approver
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rfpID, err := tx.NextDocumentID(ctx, sequence.KindRFP, s.now())
		if err != nil {
			return err
		}
		doc.RFPID = rfpID
		if err := tx.InsertRFP(ctx, doc); err != nil {
			return err
		}
		for _, p := range input.Products {
			if p.ProductID == uuid.Nil || p.Quantity <= 0 {
				return fmt.Errorf("%w: product line requires product id and positive quantity", ErrValidation)
			}
			line := ProductLine{ID: uuid.New(), RFPID: doc.ID, ProductID: p.ProductID, Quantity: p.Quantity}
			if err := tx.InsertProductLine(ctx, line); err != nil {
				return err
			}
			products = append(products, line)
		}
		for _, a := range input.Approvers {
			if a.ApproverID <= 0 {
				return fmt.Errorf("%w: approver id required", ErrValidation)
			}
			approver := Approver{ID: uuid.New(), RFPID: doc.ID, UserID: a.ApproverID}
			if err := tx.InsertApprover(ctx, approver); err != nil {
				return err
			}
			approvers = append(approvers, approver)
		}
		return nil
	})
	if err != nil {
		return RFPResponse{}, err
	}

	s.recordAudit(ctx, audit.EventRFPCreated, actor, map[string]any{
		"rfpId":       doc.RFPID,
		"description": doc.RequirementType,
	})
	s.invalidateSummary(ctx)
	return NewRFPResponse(doc, products, approvers), nil
}

// Update rewrites the RFP's scalar fields and replaces its product-line and
// approver sets inside one transaction. Replacement resets every approver to
// unapproved. Authorization (PR_MANAGER only) happens at the route gate.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateRFPRequest, actor audit.Actor) (RFPResponse, error) {
	status, ok := ParseStatus(input.Status)
	if !ok {
		return RFPResponse{}, fmt.Errorf("%w: %q", ErrInvalidStatus, input.Status)
	}
	if len(input.Products) == 0 || len(input.Approvers) == 0 {
		return RFPResponse{}, fmt.Errorf("%w: at least one product line and one approver required", ErrValidation)
	}

	existing, _, _, err := s.repo.GetRFP(ctx, id)
	if err != nil {
		return RFPResponse{}, err
	}

	doc := existing
	doc.RequirementType = input.RequirementType
	doc.DateOfOrdering = input.DateOfOrdering
	doc.DeliveryLocation = input.DeliveryLocation
	doc.DeliveryByDate = input.DeliveryByDate
	doc.Status = status

	var (
		products  []ProductLine
		approvers []Approver
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateRFP(ctx, doc); err != nil {
			return err
		}
		if err := tx.DeleteProductLines(ctx, doc.ID); err != nil {
			return err
		}
		for _, p := range input.Products {
			if p.ProductID == uuid.Nil || p.Quantity <= 0 {
				return fmt.Errorf("%w: product line requires product id and positive quantity", ErrValidation)
			}
			line := ProductLine{ID: uuid.New(), RFPID: doc.ID, ProductID: p.ProductID, Quantity: p.Quantity}
			if err := tx.InsertProductLine(ctx, line); err != nil {
				return err
			}
			products = append(products, line)
		}
		if err := tx.DeleteApprovers(ctx, doc.ID); err != nil {
			return err
		}
		for _, a := range input.Approvers {
			if a.ApproverID <= 0 {
				return fmt.Errorf("%w: approver id required", ErrValidation)
			}
			approver := Approver{ID: uuid.New(), RFPID: doc.ID, UserID: a.ApproverID}
			if err := tx.InsertApprover(ctx, approver); err != nil {
				return err
			}
			approvers = append(approvers, approver)
		}
		return nil
	})
	if err != nil {
		return RFPResponse{}, err
	}

	s.recordAudit(ctx, audit.EventRFPUpdated, actor, map[string]any{
		"rfpId":  doc.RFPID,
		"status": string(doc.Status),
	})
	s.invalidateSummary(ctx)
	return NewRFPResponse(doc, products, approvers), nil
}

// Get returns one RFP with children.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (RFPResponse, error) {
	doc, products, approvers, err := s.repo.GetRFP(ctx, id)
	if err != nil {
		return RFPResponse{}, err
	}
	return NewRFPResponse(doc, products, approvers), nil
}

// List returns RFP headers, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]RFP, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListRFPs(ctx, limit, offset)
}

// Summary returns the denormalized dashboard listing, via the shared cache
// when one is configured.
func (s *Service) Summary(ctx context.Context) ([]SummaryRow, error) {
	if s.cache == nil {
		return s.repo.Summary(ctx)
	}
	return s.cache.GetOrLoad(ctx, func() ([]SummaryRow, error) {
		return s.repo.Summary(ctx)
	})
}

// Audit failures never fail the primary operation.
func (s *Service) recordAudit(ctx context.Context, event string, actor audit.Actor, details map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, event, actor, details)
}

func (s *Service) invalidateSummary(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
