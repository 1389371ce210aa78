// Package sequence issues date-scoped document identifiers such as
// RFP-2025-01-31-0007 and PO-2025-01-31-0002.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Kind selects the counter family for a document identifier.
type Kind string

const (
	KindRFP Kind = "RFP"
	KindPO  Kind = "PO"
)

// ErrUnknownKind indicates an unsupported identifier kind.
var ErrUnknownKind = errors.New("sequence: unknown kind")

// Querier is satisfied by *pgxpool.Pool and pgx.Tx, so identifiers can be
// reserved inside the caller's transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Generator reserves identifiers from the document_counters table. The
// increment is a single conditional upsert, so two concurrent reservations
// for the same (kind, day) pair can never observe the same value.
type Generator struct {
	q Querier
}

// NewGenerator constructs a Generator.
func NewGenerator(pool *pgxpool.Pool) *Generator {
	return &Generator{q: pool}
}

// Next reserves and formats the next identifier for kind on the given day
// using the shared pool.
func (g *Generator) Next(ctx context.Context, kind Kind, day time.Time) (string, error) {
	return NextIn(ctx, g.q, kind, day)
}

// Peek formats the identifier the next reservation would produce without
// consuming it. Display-only: the value is stale the moment it is returned.
func (g *Generator) Peek(ctx context.Context, kind Kind, day time.Time) (string, error) {
	if err := validKind(kind); err != nil {
		return "", err
	}
	var next int64
	err := g.q.QueryRow(ctx,
		`SELECT COALESCE((SELECT value + 1 FROM document_counters WHERE kind = $1 AND day = $2), 0)`,
		string(kind), day.Format("2006-01-02")).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("sequence: peek %s: %w", kind, err)
	}
	return Format(kind, day, next), nil
}

// NextIn reserves the next identifier using the supplied querier, typically
// a transaction so the reservation commits or rolls back with the document.
func NextIn(ctx context.Context, q Querier, kind Kind, day time.Time) (string, error) {
	if err := validKind(kind); err != nil {
		return "", err
	}
	var value int64
	err := q.QueryRow(ctx,
		`INSERT INTO document_counters (kind, day, value) VALUES ($1, $2, 0)
ON CONFLICT (kind, day) DO UPDATE SET value = document_counters.value + 1
RETURNING value`,
		string(kind), day.Format("2006-01-02")).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("sequence: next %s: %w", kind, err)
	}
	return Format(kind, day, value), nil
}

// Format renders the identifier. Padding is four digits; once a day passes
// 9999 documents the suffix simply widens.
func Format(kind Kind, day time.Time, value int64) string {
	return fmt.Sprintf("%s-%s-%04d", kind, day.Format("2006-01-02"), value)
}

func validKind(kind Kind) error {
	switch kind {
	case KindRFP, KindPO:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
