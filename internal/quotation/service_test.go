package quotation

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sourcedesk/sourcedesk/internal/audit"
	"github.com/sourcedesk/sourcedesk/internal/rfp"
)

type memoryQuoteRepo struct {
	rfps       map[uuid.UUID]RFPInfo
	products   map[uuid.UUID][]RFPProductRef
	quotations map[uuid.UUID]Quotation
	inserted   []uuid.UUID
	pricing    map[uuid.UUID][]VendorPricing
	charges    map[uuid.UUID][]OtherCharge
	documents  map[uuid.UUID][]SupportingDocument

	failInsertDocument bool
}

type memoryQuoteTx struct {
	repo *memoryQuoteRepo
}

func newMemoryQuoteRepo() *memoryQuoteRepo {
	return &memoryQuoteRepo{
		rfps:       make(map[uuid.UUID]RFPInfo),
		products:   make(map[uuid.UUID][]RFPProductRef),
		quotations: make(map[uuid.UUID]Quotation),
		pricing:    make(map[uuid.UUID][]VendorPricing),
		charges:    make(map[uuid.UUID][]OtherCharge),
		documents:  make(map[uuid.UUID][]SupportingDocument),
	}
}

func (r *memoryQuoteRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryQuoteTx{repo: r})
}

func (r *memoryQuoteRepo) GetRFPInfo(ctx context.Context, id uuid.UUID) (RFPInfo, error) {
	info, ok := r.rfps[id]
	if !ok {
		return RFPInfo{}, ErrNotFound
	}
	return info, nil
}

func (r *memoryQuoteRepo) ListRFPProducts(ctx context.Context, rfpID uuid.UUID) ([]RFPProductRef, error) {
	return append([]RFPProductRef(nil), r.products[rfpID]...), nil
}

func (r *memoryQuoteRepo) ListByRFP(ctx context.Context, rfpID uuid.UUID) ([]Quotation, error) {
	var quotes []Quotation
	for _, id := range r.inserted {
		q, ok := r.quotations[id]
		if ok && q.RFPID == rfpID {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

func (tx *memoryQuoteTx) FindQuotationID(ctx context.Context, rfpID, vendorID uuid.UUID) (uuid.UUID, bool, error) {
	for id, q := range tx.repo.quotations {
		if q.RFPID == rfpID && q.VendorID == vendorID {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (tx *memoryQuoteTx) InsertQuotation(ctx context.Context, q Quotation) error {
	tx.repo.quotations[q.ID] = q
	tx.repo.inserted = append(tx.repo.inserted, q.ID)
	return nil
}

func (tx *memoryQuoteTx) UpdateQuotation(ctx context.Context, q Quotation) error {
	tx.repo.quotations[q.ID] = q
	return nil
}

func (tx *memoryQuoteTx) DeletePricing(ctx context.Context, quotationID uuid.UUID) error {
	delete(tx.repo.pricing, quotationID)
	return nil
}

func (tx *memoryQuoteTx) InsertPricing(ctx context.Context, p VendorPricing) error {
	tx.repo.pricing[p.QuotationID] = append(tx.repo.pricing[p.QuotationID], p)
	return nil
}

func (tx *memoryQuoteTx) DeleteCharges(ctx context.Context, quotationID uuid.UUID) error {
	delete(tx.repo.charges, quotationID)
	return nil
}

func (tx *memoryQuoteTx) InsertCharge(ctx context.Context, c OtherCharge) error {
	tx.repo.charges[c.QuotationID] = append(tx.repo.charges[c.QuotationID], c)
	return nil
}

func (tx *memoryQuoteTx) DeleteDocuments(ctx context.Context, quotationID uuid.UUID) error {
	delete(tx.repo.documents, quotationID)
	return nil
}

func (tx *memoryQuoteTx) InsertDocument(ctx context.Context, d SupportingDocument) error {
	if tx.repo.failInsertDocument {
		return errors.New("boom")
	}
	tx.repo.documents[d.QuotationID] = append(tx.repo.documents[d.QuotationID], d)
	return nil
}

func (tx *memoryQuoteTx) SetPreferredQuotation(ctx context.Context, rfpID, quotationID uuid.UUID) error {
	info := tx.repo.rfps[rfpID]
	info.PreferredQuotationID = &quotationID
	tx.repo.rfps[rfpID] = info
	return nil
}

func (tx *memoryQuoteTx) UpdateRFPStatus(ctx context.Context, rfpID uuid.UUID, status rfp.Status) error {
	info := tx.repo.rfps[rfpID]
	info.Status = status
	tx.repo.rfps[rfpID] = info
	return nil
}

type stagedStub struct {
	location  string
	committed bool
	discarded bool
}

func (s *stagedStub) Location() string { return s.location }
func (s *stagedStub) Commit() error {
	s.committed = true
	return nil
}
func (s *stagedStub) Discard() {
	if !s.committed {
		s.discarded = true
	}
}

type stubDocStore struct {
	staged []*stagedStub
}

func (s *stubDocStore) Stage(src io.Reader, rfpDisplayID string, vendorID uuid.UUID, documentName string) (Staged, error) {
	_, _ = io.Copy(io.Discard, src)
	doc := &stagedStub{location: "RFP-" + rfpDisplayID + "/" + vendorID.String() + "/" + documentName}
	s.staged = append(s.staged, doc)
	return doc, nil
}

type quoteAuditor struct {
	events []string
}

func (a *quoteAuditor) Record(ctx context.Context, eventName string, actor audit.Actor, details map[string]any) error {
	a.events = append(a.events, eventName)
	return nil
}

func seedRFP(repo *memoryQuoteRepo, status rfp.Status) (uuid.UUID, uuid.UUID) {
	rfpID := uuid.New()
	productID := uuid.New()
	repo.rfps[rfpID] = RFPInfo{ID: rfpID, DisplayID: "RFP-2026-03-10-0000", Status: status}
	repo.products[rfpID] = []RFPProductRef{{ID: uuid.New(), ProductID: productID}}
	return rfpID, productID
}

func submitActor() audit.Actor {
	return audit.Actor{ID: 3, Name: "Vikram", Role: "USER"}
}

func TestSubmitStoresQuotationWithChildren(t *testing.T) {
	repo := newMemoryQuoteRepo()
	store := &stubDocStore{}
	auditor := &quoteAuditor{}
	svc := NewService(repo, store, auditor, nil)
	ctx := context.Background()

	rfpID, productID := seedRFP(repo, rfp.StatusSubmitted)
	vendorID := uuid.New()

	req := SubmitRequest{
		Quotations: []QuotationInput{{
			VendorID:              vendorID.String(),
			RefNo:                 "Q-100",
			TotalAmount:           1180,
			TotalAmountWithoutGST: 1000,
			Products:              []PricingInput{{ProductID: productID, Price: 1000, GSTRate: 18}},
			OtherCharges:          []ChargeInput{{Name: "Freight", Price: 50, GSTRate: 18}},
			Documents:             []DocumentInput{{DocumentType: "quote", DocumentName: "quote.pdf"}},
		}},
	}
	files := map[string]io.Reader{
		vendorID.String() + "-quote.pdf": strings.NewReader("pdf bytes"),
	}

	resp, err := svc.Submit(ctx, rfpID, req, files, submitActor())
	require.NoError(t, err)
	require.Len(t, resp.Quotations, 1)
	q := resp.Quotations[0]
	require.Equal(t, vendorID, q.VendorID)
	require.Len(t, q.Pricing, 1)
	require.Len(t, q.OtherCharges, 1)
	require.Len(t, q.Documents, 1)

	require.Len(t, store.staged, 1)
	require.True(t, store.staged[0].committed)
	require.False(t, store.staged[0].discarded)

	require.Equal(t, []string{audit.EventQuotationSubmitted}, auditor.events)
}

func TestSubmitMalformedVendorAbortsAll(t *testing.T) {
	repo := newMemoryQuoteRepo()
	svc := NewService(repo, &stubDocStore{}, nil, nil)
	ctx := context.Background()

	rfpID, productID := seedRFP(repo, rfp.StatusSubmitted)
	goodVendor := uuid.New()

	req := SubmitRequest{
		Quotations: []QuotationInput{
			{
				VendorID: goodVendor.String(),
				Products: []PricingInput{{ProductID: productID, Price: 10}},
			},
			{
				VendorID: "not-a-uuid",
			},
		},
	}
	_, err := svc.Submit(ctx, rfpID, req, nil, submitActor())
	require.ErrorIs(t, err, ErrMalformedID)
	require.Empty(t, repo.quotations)
}

func TestSubmitRejectsRFPNotAcceptingQuotations(t *testing.T) {
	repo := newMemoryQuoteRepo()
	svc := NewService(repo, &stubDocStore{}, nil, nil)
	ctx := context.Background()

	rfpID, _ := seedRFP(repo, rfp.StatusDraft)
	req := SubmitRequest{
		Quotations: []QuotationInput{{VendorID: uuid.New().String()}},
	}
	_, err := svc.Submit(ctx, rfpID, req, nil, submitActor())
	require.ErrorIs(t, err, ErrRFPNotOpen)
}

func TestSubmitReplacesPriorVendorQuotation(t *testing.T) {
	repo := newMemoryQuoteRepo()
	svc := NewService(repo, &stubDocStore{}, nil, nil)
	ctx := context.Background()

	rfpID, productID := seedRFP(repo, rfp.StatusSubmitted)
	vendorID := uuid.New()

	first := SubmitRequest{
		Quotations: []QuotationInput{{
			VendorID: vendorID.String(),
			RefNo:    "Q-1",
			Products: []PricingInput{{ProductID: productID, Price: 100}},
			OtherCharges: []ChargeInput{
				{Name: "Freight", Price: 10},
				{Name: "Handling", Price: 5},
			},
		}},
	}
	resp, err := svc.Submit(ctx, rfpID, first, nil, submitActor())
	require.NoError(t, err)
	quotationID := resp.Quotations[0].ID

	second := SubmitRequest{
		Quotations: []QuotationInput{{
			VendorID: vendorID.String(),
			RefNo:    "Q-2",
			Products: []PricingInput{{ProductID: productID, Price: 90}},
		}},
	}
	resp, err = svc.Submit(ctx, rfpID, second, nil, submitActor())
	require.NoError(t, err)

	// Same quotation row, replaced children.
	require.Equal(t, quotationID, resp.Quotations[0].ID)
	require.Len(t, repo.quotations, 1)
	require.Equal(t, "Q-2", repo.quotations[quotationID].RefNo)
	require.Len(t, repo.pricing[quotationID], 1)
	require.Empty(t, repo.charges[quotationID])
}

func TestSubmitResolvesPreferredVendor(t *testing.T) {
	repo := newMemoryQuoteRepo()
	svc := NewService(repo, &stubDocStore{}, nil, nil)
	ctx := context.Background()

	rfpID, productID := seedRFP(repo, rfp.StatusSubmitted)
	vendorA := uuid.New()
	vendorB := uuid.New()

	req := SubmitRequest{
		PreferredVendorID: vendorB.String(),
		RFPStatus:         string(rfp.StatusSubmitted),
		Quotations: []QuotationInput{
			{VendorID: vendorA.String(), Products: []PricingInput{{ProductID: productID, Price: 100}}},
			{VendorID: vendorB.String(), Products: []PricingInput{{ProductID: productID, Price: 90}}},
		},
	}
	resp, err := svc.Submit(ctx, rfpID, req, nil, submitActor())
	require.NoError(t, err)
	require.NotNil(t, resp.PreferredQuotationID)
	require.Equal(t, resp.Quotations[1].ID, *resp.PreferredQuotationID)
	require.NotNil(t, repo.rfps[rfpID].PreferredQuotationID)
}

func TestSubmitUnresolvablePreferredVendorIsIgnored(t *testing.T) {
	repo := newMemoryQuoteRepo()
	svc := NewService(repo, &stubDocStore{}, nil, nil)
	ctx := context.Background()

	rfpID, productID := seedRFP(repo, rfp.StatusSubmitted)
	vendorID := uuid.New()

	req := SubmitRequest{
		PreferredVendorID: uuid.New().String(),
		Quotations: []QuotationInput{
			{VendorID: vendorID.String(), Products: []PricingInput{{ProductID: productID, Price: 100}}},
		},
	}
	resp, err := svc.Submit(ctx, rfpID, req, nil, submitActor())
	require.NoError(t, err)
	require.Nil(t, resp.PreferredQuotationID)
	require.Nil(t, repo.rfps[rfpID].PreferredQuotationID)
}

func TestSubmitReturnsFullQuotationSet(t *testing.T) {
	repo := newMemoryQuoteRepo()
	svc := NewService(repo, &stubDocStore{}, nil, nil)
	ctx := context.Background()

	rfpID, productID := seedRFP(repo, rfp.StatusSubmitted)
	vendorA := uuid.New()
	vendorB := uuid.New()

	both := SubmitRequest{
		Quotations: []QuotationInput{
			{VendorID: vendorA.String(), RefNo: "A-1", Products: []PricingInput{{ProductID: productID, Price: 100}}},
			{VendorID: vendorB.String(), RefNo: "B-1", Products: []PricingInput{{ProductID: productID, Price: 90}}},
		},
	}
	resp, err := svc.Submit(ctx, rfpID, both, nil, submitActor())
	require.NoError(t, err)
	require.Len(t, resp.Quotations, 2)
	quotationB := resp.Quotations[1].ID

	// Resubmitting vendor A alone must still surface vendor B's quotation.
	onlyA := SubmitRequest{
		Quotations: []QuotationInput{
			{VendorID: vendorA.String(), RefNo: "A-2", Products: []PricingInput{{ProductID: productID, Price: 95}}},
		},
	}
	resp, err = svc.Submit(ctx, rfpID, onlyA, nil, submitActor())
	require.NoError(t, err)
	require.Len(t, resp.Quotations, 2)
	require.Equal(t, vendorA, resp.Quotations[0].VendorID)
	require.Equal(t, "A-2", resp.Quotations[0].RefNo)
	require.Equal(t, quotationB, resp.Quotations[1].ID)
	require.Equal(t, "B-1", resp.Quotations[1].RefNo)
}

func TestSubmitRejectsForeignProduct(t *testing.T) {
	repo := newMemoryQuoteRepo()
	svc := NewService(repo, &stubDocStore{}, nil, nil)
	ctx := context.Background()

	rfpID, _ := seedRFP(repo, rfp.StatusSubmitted)
	req := SubmitRequest{
		Quotations: []QuotationInput{{
			VendorID: uuid.New().String(),
			Products: []PricingInput{{ProductID: uuid.New(), Price: 100}},
		}},
	}
	_, err := svc.Submit(ctx, rfpID, req, nil, submitActor())
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmitDiscardsStagedFilesOnFailure(t *testing.T) {
	repo := newMemoryQuoteRepo()
	repo.failInsertDocument = true
	store := &stubDocStore{}
	svc := NewService(repo, store, nil, nil)
	ctx := context.Background()

	rfpID, productID := seedRFP(repo, rfp.StatusSubmitted)
	vendorID := uuid.New()

	req := SubmitRequest{
		Quotations: []QuotationInput{{
			VendorID:  vendorID.String(),
			Products:  []PricingInput{{ProductID: productID, Price: 100}},
			Documents: []DocumentInput{{DocumentType: "quote", DocumentName: "quote.pdf"}},
		}},
	}
	files := map[string]io.Reader{
		vendorID.String() + "-quote.pdf": strings.NewReader("pdf bytes"),
	}
	_, err := svc.Submit(ctx, rfpID, req, files, submitActor())
	require.Error(t, err)
	require.Len(t, store.staged, 1)
	require.False(t, store.staged[0].committed)
	require.True(t, store.staged[0].discarded)
}

func TestSubmitSkipsMissingDocumentSlot(t *testing.T) {
	repo := newMemoryQuoteRepo()
	store := &stubDocStore{}
	svc := NewService(repo, store, nil, nil)
	ctx := context.Background()

	rfpID, productID := seedRFP(repo, rfp.StatusSubmitted)
	vendorID := uuid.New()

	req := SubmitRequest{
		Quotations: []QuotationInput{{
			VendorID:  vendorID.String(),
			Products:  []PricingInput{{ProductID: productID, Price: 100}},
			Documents: []DocumentInput{{DocumentType: "quote", DocumentName: "quote.pdf"}},
		}},
	}
	resp, err := svc.Submit(ctx, rfpID, req, nil, submitActor())
	require.NoError(t, err)
	require.Empty(t, resp.Quotations[0].Documents)
	require.Empty(t, store.staged)
}
