package rfp

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sourcedesk/sourcedesk/internal/audit"
	"github.com/sourcedesk/sourcedesk/internal/sequence"
)

type memoryRFPRepo struct {
	rfps      map[uuid.UUID]RFP
	products  map[uuid.UUID][]ProductLine
	approvers map[uuid.UUID][]Approver
	counter   int64
}

type memoryRFPTx struct {
	repo *memoryRFPRepo
}

func newMemoryRFPRepo() *memoryRFPRepo {
	return &memoryRFPRepo{
		rfps:      make(map[uuid.UUID]RFP),
		products:  make(map[uuid.UUID][]ProductLine),
		approvers: make(map[uuid.UUID][]Approver),
	}
}

func (r *memoryRFPRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryRFPTx{repo: r})
}

func (r *memoryRFPRepo) GetRFP(ctx context.Context, id uuid.UUID) (RFP, []ProductLine, []Approver, error) {
	doc, ok := r.rfps[id]
	if !ok {
		return RFP{}, nil, nil, ErrNotFound
	}
	return doc, append([]ProductLine(nil), r.products[id]...), append([]Approver(nil), r.approvers[id]...), nil
}

func (r *memoryRFPRepo) ListRFPs(ctx context.Context, limit, offset int) ([]RFP, error) {
	docs := make([]RFP, 0, len(r.rfps))
	for _, doc := range r.rfps {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *memoryRFPRepo) Summary(ctx context.Context) ([]SummaryRow, error) {
	rows := make([]SummaryRow, 0, len(r.rfps))
	for id, doc := range r.rfps {
		rows = append(rows, SummaryRow{
			ID:           doc.ID,
			RFPID:        doc.RFPID,
			Status:       doc.Status,
			ProductCount: len(r.products[id]),
		})
	}
	return rows, nil
}

func (tx *memoryRFPTx) NextDocumentID(ctx context.Context, kind sequence.Kind, day time.Time) (string, error) {
	value := tx.repo.counter
	tx.repo.counter++
	return sequence.Format(kind, day, value), nil
}

func (tx *memoryRFPTx) InsertRFP(ctx context.Context, doc RFP) error {
	tx.repo.rfps[doc.ID] = doc
	return nil
}

func (tx *memoryRFPTx) UpdateRFP(ctx context.Context, doc RFP) error {
	if _, ok := tx.repo.rfps[doc.ID]; !ok {
		return ErrNotFound
	}
	tx.repo.rfps[doc.ID] = doc
	return nil
}

func (tx *memoryRFPTx) DeleteProductLines(ctx context.Context, rfpID uuid.UUID) error {
	delete(tx.repo.products, rfpID)
	return nil
}

func (tx *memoryRFPTx) InsertProductLine(ctx context.Context, line ProductLine) error {
	tx.repo.products[line.RFPID] = append(tx.repo.products[line.RFPID], line)
	return nil
}

func (tx *memoryRFPTx) DeleteApprovers(ctx context.Context, rfpID uuid.UUID) error {
	delete(tx.repo.approvers, rfpID)
	return nil
}

func (tx *memoryRFPTx) InsertApprover(ctx context.Context, approver Approver) error {
	tx.repo.approvers[approver.RFPID] = append(tx.repo.approvers[approver.RFPID], approver)
	return nil
}

type recordedEvent struct {
	name    string
	actor   audit.Actor
	details map[string]any
}

type stubAuditor struct {
	events []recordedEvent
}

func (s *stubAuditor) Record(ctx context.Context, eventName string, actor audit.Actor, details map[string]any) error {
	s.events = append(s.events, recordedEvent{name: eventName, actor: actor, details: details})
	return nil
}

func testActor() audit.Actor {
	return audit.Actor{ID: 7, Name: "Priya", Role: "PR_MANAGER"}
}

func createInput() CreateRFPRequest {
	return CreateRFPRequest{
		RequirementType:  "Office chairs",
		DateOfOrdering:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DeliveryLocation: "Pune warehouse",
		DeliveryByDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Products: []ProductLineRequest{
			{ProductID: uuid.New(), Quantity: 25},
		},
		Approvers: []ApproverRequest{
			{ApproverID: 42},
		},
	}
}

func TestCreateAssignsSequentialIdentifier(t *testing.T) {
	repo := newMemoryRFPRepo()
	auditor := &stubAuditor{}
	svc := NewService(repo, auditor, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	first, err := svc.Create(ctx, createInput(), testActor())
	require.NoError(t, err)
	require.Equal(t, "RFP-2026-03-10-0000", first.RFPID)
	require.Equal(t, StatusDraft, first.Status)
	require.Len(t, first.Products, 1)
	require.Len(t, first.Approvers, 1)

	second, err := svc.Create(ctx, createInput(), testActor())
	require.NoError(t, err)
	require.Equal(t, "RFP-2026-03-10-0001", second.RFPID)

	require.Len(t, auditor.events, 2)
	require.Equal(t, audit.EventRFPCreated, auditor.events[0].name)
	require.Equal(t, first.RFPID, auditor.events[0].details["rfpId"])
}

func TestCreateRequiresProductsAndApprovers(t *testing.T) {
	svc := NewService(newMemoryRFPRepo(), nil, nil)
	ctx := context.Background()

	input := createInput()
	input.Products = nil
	_, err := svc.Create(ctx, input, testActor())
	require.ErrorIs(t, err, ErrValidation)

	input = createInput()
	input.Approvers = nil
	_, err = svc.Create(ctx, input, testActor())
	require.ErrorIs(t, err, ErrValidation)

	input = createInput()
	input.Products[0].Quantity = 0
	_, err = svc.Create(ctx, input, testActor())
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateReplacesChildrenAndResetsApproval(t *testing.T) {
	repo := newMemoryRFPRepo()
	auditor := &stubAuditor{}
	svc := NewService(repo, auditor, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, createInput(), testActor())
	require.NoError(t, err)

	// Simulate an approver having signed off before the update.
	approvers := repo.approvers[created.ID]
	approvers[0].Approved = true
	repo.approvers[created.ID] = approvers

	update := UpdateRFPRequest{
		RequirementType:  "Office chairs, ergonomic",
		DateOfOrdering:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		DeliveryLocation: "Mumbai warehouse",
		DeliveryByDate:   time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		Status:           string(StatusSubmitted),
		Products: []ProductLineRequest{
			{ProductID: uuid.New(), Quantity: 10},
			{ProductID: uuid.New(), Quantity: 5},
		},
		Approvers: []ApproverRequest{
			{ApproverID: 42},
			{ApproverID: 43},
		},
	}
	updated, err := svc.Update(ctx, created.ID, update, testActor())
	require.NoError(t, err)
	require.Equal(t, created.RFPID, updated.RFPID)
	require.Equal(t, StatusSubmitted, updated.Status)
	require.Len(t, repo.products[created.ID], 2)
	require.Len(t, repo.approvers[created.ID], 2)
	for _, a := range repo.approvers[created.ID] {
		require.False(t, a.Approved)
	}

	require.Equal(t, audit.EventRFPUpdated, auditor.events[len(auditor.events)-1].name)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	repo := newMemoryRFPRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, createInput(), testActor())
	require.NoError(t, err)

	update := UpdateRFPRequest{
		RequirementType:  "x",
		DateOfOrdering:   time.Now(),
		DeliveryLocation: "x",
		DeliveryByDate:   time.Now(),
		Status:           "APPROVED",
		Products:         []ProductLineRequest{{ProductID: uuid.New(), Quantity: 1}},
		Approvers:        []ApproverRequest{{ApproverID: 1}},
	}
	_, err = svc.Update(ctx, created.ID, update, testActor())
	require.ErrorIs(t, err, ErrInvalidStatus)
	// Nothing changed.
	require.Equal(t, StatusDraft, repo.rfps[created.ID].Status)
}

func TestUpdateMissingRFP(t *testing.T) {
	svc := NewService(newMemoryRFPRepo(), nil, nil)

	update := UpdateRFPRequest{
		Status:    string(StatusDraft),
		Products:  []ProductLineRequest{{ProductID: uuid.New(), Quantity: 1}},
		Approvers: []ApproverRequest{{ApproverID: 1}},
	}
	_, err := svc.Update(context.Background(), uuid.New(), update, testActor())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryCSVFormatsAmounts(t *testing.T) {
	rows := []SummaryRow{
		{RFPID: "RFP-2026-03-10-0000", RequirementType: "Chairs", Status: StatusSubmitted, ProductCount: 2, QuotationCount: 3, PreferredTotal: 1234567.5},
	}
	data, err := SummaryCSV(rows)
	require.NoError(t, err)
	require.Contains(t, string(data), "RFP-2026-03-10-0000")
	require.Contains(t, string(data), "1,234,567.50")
}

func TestListClampsPaging(t *testing.T) {
	repo := newMemoryRFPRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, createInput(), testActor())
		require.NoError(t, err)
	}
	docs, err := svc.List(ctx, -5, -1)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for _, doc := range docs {
		require.NotEmpty(t, doc.RFPID)
	}
}
