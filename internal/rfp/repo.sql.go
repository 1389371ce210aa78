package rfp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sourcedesk/sourcedesk/internal/platform/db"
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

// GetRFP returns the RFP with its product lines and approvers.
func (r *Repository) GetRFP(ctx context.Context, id uuid.UUID) (RFP, []ProductLine, []Approver, error) {
	var doc RFP
	err := r.pool.QueryRow(ctx, `SELECT id, rfp_id, requirement_type, date_of_ordering, delivery_location, delivery_by_date, status, preferred_quotation_id, requester_id, created_at, updated_at
FROM rfps WHERE id=$1`, id).
		Scan(&doc.ID, &doc.RFPID, &doc.RequirementType, &doc.DateOfOrdering, &doc.DeliveryLocation, &doc.DeliveryByDate, &doc.Status, &doc.PreferredQuotationID, &doc.RequesterID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RFP{}, nil, nil, ErrNotFound
		}
		return RFP{}, nil, nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, rfp_id, product_id, quantity FROM rfp_products WHERE rfp_id=$1 ORDER BY id`, id)
	if err != nil {
		return RFP{}, nil, nil, err
	}
	defer rows.Close()
	var products []ProductLine
	for rows.Next() {
		var line ProductLine
		if err := rows.Scan(&line.ID, &line.RFPID, &line.ProductID, &line.Quantity); err != nil {
			return RFP{}, nil, nil, err
		}
		products = append(products, line)
	}
	if err := rows.Err(); err != nil {
		return RFP{}, nil, nil, err
	}

	arows, err := r.pool.Query(ctx, `SELECT id, rfp_id, user_id, approved FROM approvers WHERE rfp_id=$1 ORDER BY id`, id)
	if err != nil {
		return RFP{}, nil, nil, err
	}
	defer arows.Close()
	var approvers []Approver
	for arows.Next() {
		var a Approver
		if err := arows.Scan(&a.ID, &a.RFPID, &a.UserID, &a.Approved); err != nil {
			return RFP{}, nil, nil, err
		}
		approvers = append(approvers, a)
	}
	if err := arows.Err(); err != nil {
		return RFP{}, nil, nil, err
	}
	return doc, products, approvers, nil
}

// ListRFPs returns RFP headers, newest first.
func (r *Repository) ListRFPs(ctx context.Context, limit, offset int) ([]RFP, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, rfp_id, requirement_type, date_of_ordering, delivery_location, delivery_by_date, status, preferred_quotation_id, requester_id, created_at, updated_at
FROM rfps ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []RFP
	for rows.Next() {
		var doc RFP
		if err := rows.Scan(&doc.ID, &doc.RFPID, &doc.RequirementType, &doc.DateOfOrdering, &doc.DeliveryLocation, &doc.DeliveryByDate, &doc.Status, &doc.PreferredQuotationID, &doc.RequesterID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Summary returns the denormalized dashboard listing with child counts and
// the preferred quotation's total when one is selected.
func (r *Repository) Summary(ctx context.Context) ([]SummaryRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT r.id, r.rfp_id, r.requirement_type, r.delivery_location, r.delivery_by_date, r.status,
(SELECT COUNT(*) FROM rfp_products p WHERE p.rfp_id = r.id),
(SELECT COUNT(*) FROM quotations q WHERE q.rfp_id = r.id),
COALESCE((SELECT q.total_amount FROM quotations q WHERE q.id = r.preferred_quotation_id), 0)
FROM rfps r ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summary []SummaryRow
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.ID, &row.RFPID, &row.RequirementType, &row.DeliveryLocation, &row.DeliveryByDate, &row.Status, &row.ProductCount, &row.QuotationCount, &row.PreferredTotal); err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

func (tx *txRepo) NextDocumentID(ctx context.Context, kind sequence.Kind, day time.Time) (string, error) {
	return sequence.NextIn(ctx, tx.tx, kind, day)
}

func (tx *txRepo) InsertRFP(ctx context.Context, doc RFP) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO rfps (id, rfp_id, requirement_type, date_of_ordering, delivery_location, delivery_by_date, status, requester_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())`,
		doc.ID, doc.RFPID, doc.RequirementType, doc.DateOfOrdering, doc.DeliveryLocation, doc.DeliveryByDate, doc.Status, doc.RequesterID)
	return err
}

func (tx *txRepo) UpdateRFP(ctx context.Context, doc RFP) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE rfps SET requirement_type=$1, date_of_ordering=$2, delivery_location=$3, delivery_by_date=$4, status=$5, updated_at=NOW() WHERE id=$6`,
		doc.RequirementType, doc.DateOfOrdering, doc.DeliveryLocation, doc.DeliveryByDate, doc.Status, doc.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (tx *txRepo) DeleteProductLines(ctx context.Context, rfpID uuid.UUID) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM rfp_products WHERE rfp_id=$1`, rfpID)
	return err
}

func (tx *txRepo) InsertProductLine(ctx context.Context, line ProductLine) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO rfp_products (id, rfp_id, product_id, quantity) VALUES ($1,$2,$3,$4)`,
		line.ID, line.RFPID, line.ProductID, line.Quantity)
	return err
}

func (tx *txRepo) DeleteApprovers(ctx context.Context, rfpID uuid.UUID) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM approvers WHERE rfp_id=$1`, rfpID)
	return err
}

func (tx *txRepo) InsertApprover(ctx context.Context, approver Approver) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO approvers (id, rfp_id, user_id, approved) VALUES ($1,$2,$3,$4)`,
		approver.ID, approver.RFPID, approver.UserID, approver.Approved)
	return err
}
