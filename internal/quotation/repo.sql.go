package quotation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sourcedesk/sourcedesk/internal/platform/db"
	"github.com/sourcedesk/sourcedesk/internal/rfp"
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

// GetRFPInfo returns the intake-relevant view of an RFP.
func (r *Repository) GetRFPInfo(ctx context.Context, id uuid.UUID) (RFPInfo, error) {
	var info RFPInfo
	var status string
	err := r.pool.QueryRow(ctx, `SELECT id, rfp_id, status, preferred_quotation_id FROM rfps WHERE id=$1`, id).
		Scan(&info.ID, &info.DisplayID, &status, &info.PreferredQuotationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RFPInfo{}, ErrNotFound
		}
		return RFPInfo{}, err
	}
	info.Status = rfp.Status(status)
	return info, nil
}

// ListRFPProducts returns the requested product lines for the RFP.
func (r *Repository) ListRFPProducts(ctx context.Context, rfpID uuid.UUID) ([]RFPProductRef, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id FROM rfp_products WHERE rfp_id=$1`, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []RFPProductRef
	for rows.Next() {
		var ref RFPProductRef
		if err := rows.Scan(&ref.ID, &ref.ProductID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ListByRFP returns every quotation row for the RFP, with children.
func (r *Repository) ListByRFP(ctx context.Context, rfpID uuid.UUID) ([]Quotation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, rfp_id, vendor_id, ref_no, total_amount, total_amount_without_gst, created_at, updated_at
FROM quotations WHERE rfp_id=$1 ORDER BY created_at`, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quotes []Quotation
	for rows.Next() {
		var q Quotation
		if err := rows.Scan(&q.ID, &q.RFPID, &q.VendorID, &q.RefNo, &q.TotalAmount, &q.TotalAmountWithoutGST, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (tx *txRepo) FindQuotationID(ctx context.Context, rfpID, vendorID uuid.UUID) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := tx.tx.QueryRow(ctx, `SELECT id FROM quotations WHERE rfp_id=$1 AND vendor_id=$2`, rfpID, vendorID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (tx *txRepo) InsertQuotation(ctx context.Context, q Quotation) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO quotations (id, rfp_id, vendor_id, ref_no, total_amount, total_amount_without_gst, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())`,
		q.ID, q.RFPID, q.VendorID, q.RefNo, q.TotalAmount, q.TotalAmountWithoutGST)
	return err
}

func (tx *txRepo) UpdateQuotation(ctx context.Context, q Quotation) error {
	_, err := tx.tx.Exec(ctx, `UPDATE quotations SET ref_no=$1, total_amount=$2, total_amount_without_gst=$3, updated_at=NOW() WHERE id=$4`,
		q.RefNo, q.TotalAmount, q.TotalAmountWithoutGST, q.ID)
	return err
}

func (tx *txRepo) DeletePricing(ctx context.Context, quotationID uuid.UUID) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM vendor_pricings WHERE quotation_id=$1`, quotationID)
	return err
}

func (tx *txRepo) InsertPricing(ctx context.Context, p VendorPricing) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO vendor_pricings (id, quotation_id, rfp_product_id, price, gst_rate) VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.QuotationID, p.RFPProductID, p.Price, p.GSTRate)
	return err
}

func (tx *txRepo) DeleteCharges(ctx context.Context, quotationID uuid.UUID) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM other_charges WHERE quotation_id=$1`, quotationID)
	return err
}

func (tx *txRepo) InsertCharge(ctx context.Context, c OtherCharge) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO other_charges (id, quotation_id, name, price, gst_rate) VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.QuotationID, c.Name, c.Price, c.GSTRate)
	return err
}

func (tx *txRepo) DeleteDocuments(ctx context.Context, quotationID uuid.UUID) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM supporting_documents WHERE quotation_id=$1`, quotationID)
	return err
}

func (tx *txRepo) InsertDocument(ctx context.Context, d SupportingDocument) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO supporting_documents (id, quotation_id, document_type, document_name, location) VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.QuotationID, d.DocumentType, d.DocumentName, d.Location)
	return err
}

func (tx *txRepo) SetPreferredQuotation(ctx context.Context, rfpID, quotationID uuid.UUID) error {
	_, err := tx.tx.Exec(ctx, `UPDATE rfps SET preferred_quotation_id=$1, updated_at=NOW() WHERE id=$2`, quotationID, rfpID)
	return err
}

func (tx *txRepo) UpdateRFPStatus(ctx context.Context, rfpID uuid.UUID, status rfp.Status) error {
	_, err := tx.tx.Exec(ctx, `UPDATE rfps SET status=$1, updated_at=NOW() WHERE id=$2`, status, rfpID)
	return err
}
