package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sourcedesk/sourcedesk/internal/po"
)

// VendorNotifier enqueues vendor-facing mail when documents are issued.
type VendorNotifier struct {
	client *Client
	pool   *pgxpool.Pool
}

// NewVendorNotifier constructs a VendorNotifier.
func NewVendorNotifier(client *Client, pool *pgxpool.Pool) *VendorNotifier {
	return &VendorNotifier{client: client, pool: pool}
}

// NotifyPOIssued queues the purchase-order notification for the vendor.
func (n *VendorNotifier) NotifyPOIssued(ctx context.Context, order po.PurchaseOrder) error {
	var name, email string
	err := n.pool.QueryRow(ctx, `SELECT name, email FROM vendors WHERE id=$1`, order.VendorID).Scan(&name, &email)
	if err != nil {
		return err
	}
	payload := SendEmailPayload{
		To:      email,
		Subject: fmt.Sprintf("Purchase order %s issued", order.POID),
		Body:    fmt.Sprintf("Hello %s,\n\nPurchase order %s has been issued against your quotation.\n", name, order.POID),
	}
	_, err = n.client.EnqueueSendEmail(ctx, payload)
	return err
}

var _ po.Notifier = (*VendorNotifier)(nil)
