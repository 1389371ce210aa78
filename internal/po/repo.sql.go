package po

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sourcedesk/sourcedesk/internal/platform/db"
	"github.com/sourcedesk/sourcedesk/internal/rfp"
	"github.com/sourcedesk/sourcedesk/internal/sequence"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetQuotationRef locates a quotation and its owning RFP and vendor.
func (r *Repository) GetQuotationRef(ctx context.Context, quotationID uuid.UUID) (QuotationRef, error) {
	var ref QuotationRef
	err := r.pool.QueryRow(ctx, `SELECT id, rfp_id, vendor_id FROM quotations WHERE id=$1`, quotationID).
		Scan(&ref.ID, &ref.RFPID, &ref.VendorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QuotationRef{}, ErrNotFound
		}
		return QuotationRef{}, err
	}
	return ref, nil
}

// GetRFPInfo returns the issuer-relevant view of an RFP.
func (r *Repository) GetRFPInfo(ctx context.Context, rfpID uuid.UUID) (RFPInfo, error) {
	var info RFPInfo
	var status string
	err := r.pool.QueryRow(ctx, `SELECT id, rfp_id, status FROM rfps WHERE id=$1`, rfpID).
		Scan(&info.ID, &info.DisplayID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RFPInfo{}, ErrNotFound
		}
		return RFPInfo{}, err
	}
	info.Status = rfp.Status(status)
	return info, nil
}

// GetPO returns one purchase order.
func (r *Repository) GetPO(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	var order PurchaseOrder
	err := r.pool.QueryRow(ctx, `SELECT id, po_id, rfp_id, quotation_id, vendor_id, company_id, created_by_id, remarks, created_at
FROM purchase_orders WHERE id=$1`, id).
		Scan(&order.ID, &order.POID, &order.RFPID, &order.QuotationID, &order.VendorID, &order.CompanyID, &order.CreatedByID, &order.Remarks, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	return order, nil
}

// ListPOs returns purchase orders, newest first.
func (r *Repository) ListPOs(ctx context.Context, limit, offset int) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, po_id, rfp_id, quotation_id, vendor_id, company_id, created_by_id, remarks, created_at
FROM purchase_orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []PurchaseOrder
	for rows.Next() {
		var order PurchaseOrder
		if err := rows.Scan(&order.ID, &order.POID, &order.RFPID, &order.QuotationID, &order.VendorID, &order.CompanyID, &order.CreatedByID, &order.Remarks, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (tx *txRepo) NextDocumentID(ctx context.Context, kind sequence.Kind, day time.Time) (string, error) {
	return sequence.NextIn(ctx, tx.tx, kind, day)
}

func (tx *txRepo) ExistsForQuotation(ctx context.Context, quotationID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM purchase_orders WHERE quotation_id=$1)`, quotationID).Scan(&exists)
	return exists, err
}

func (tx *txRepo) InsertPO(ctx context.Context, order PurchaseOrder) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO purchase_orders (id, po_id, rfp_id, quotation_id, vendor_id, company_id, created_by_id, remarks, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		order.ID, order.POID, order.RFPID, order.QuotationID, order.VendorID, order.CompanyID, order.CreatedByID, order.Remarks, order.CreatedAt)
	return err
}

func (tx *txRepo) UpdateRFPStatus(ctx context.Context, rfpID uuid.UUID, status rfp.Status) error {
	_, err := tx.tx.Exec(ctx, `UPDATE rfps SET status=$1, updated_at=NOW() WHERE id=$2`, status, rfpID)
	return err
}
