package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/platform/database"
	"github.com/georgemunganga/storefront-backend/internal/platform/sequence"
	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, inv *Invoice) error {
	billing, err := json.Marshal(inv.BillingAddress)
	if err != nil {
		return err
	}
	shipping, err := json.Marshal(inv.ShippingAddress)
	if err != nil {
		return err
	}
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO invoices
		  (id, invoice_number, order_id, order_number, user_id, billing_address,
		   shipping_address, items, subtotal_paise, cgst_paise, sgst_paise, igst_paise,
		   total_tax_paise, grand_total_paise, is_intra_state, seller_state,
		   document_url, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$19)`,
		inv.ID, inv.InvoiceNumber, inv.OrderID, inv.OrderNumber, inv.UserID, billing,
		shipping, items, inv.SubtotalPaise, inv.CGSTPaise, inv.SGSTPaise, inv.IGSTPaise,
		inv.TotalTaxPaise, inv.GrandTotalPaise, inv.IsIntraState, inv.SellerState,
		inv.DocumentURL, inv.Status, inv.CreatedAt)
	if constraint, ok := database.UniqueConstraint(err); ok {
		if strings.Contains(constraint, "order_id") {
			return ErrOrderInvoiced
		}
		return fmt.Errorf("invoice number %s: %w", inv.InvoiceNumber, sequence.ErrCollision)
	}
	return err
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return r.one(r.db.QueryRowContext(ctx, selectSQL+" WHERE id=$1", id))
}

func (r *postgresRepo) GetByOrder(ctx context.Context, orderID uuid.UUID) (*Invoice, error) {
	return r.one(r.db.QueryRowContext(ctx, selectSQL+" WHERE order_id=$1", orderID))
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Invoice, error) {
	return r.many(ctx, selectSQL+" WHERE user_id=$1 ORDER BY created_at DESC", userID)
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Invoice, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != nil {
		add("user_id=$%d", *f.UserID)
	}
	if f.Status != "" {
		add("status=$%d", f.Status)
	}
	if f.From != nil {
		add("created_at>=$%d", *f.From)
	}
	if f.To != nil {
		add("created_at<$%d", *f.To)
	}

	query := selectSQL
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return r.many(ctx, query, args...)
}

func (r *postgresRepo) UpdateDocumentURL(ctx context.Context, id uuid.UUID, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET document_url=$1, updated_at=$2 WHERE id=$3`, url, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) LastNumber(ctx context.Context, prefix string) (string, error) {
	var number string
	err := r.db.QueryRowContext(ctx, `
		SELECT invoice_number FROM invoices
		WHERE invoice_number LIKE $1
		ORDER BY length(invoice_number) DESC, invoice_number DESC
		LIMIT 1`, prefix+"%").Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return number, err
}

// ── Scanner ───────────────────────────────────────────────────────────────────

const selectSQL = `
	SELECT id, invoice_number, order_id, order_number, user_id, billing_address,
	       shipping_address, items, subtotal_paise, cgst_paise, sgst_paise, igst_paise,
	       total_tax_paise, grand_total_paise, is_intra_state, seller_state,
	       document_url, status, created_at, updated_at
	FROM invoices`

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) one(row rowScanner) (*Invoice, error) {
	inv, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (r *postgresRepo) many(ctx context.Context, query string, args ...interface{}) ([]*Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invs := []*Invoice{}
	for rows.Next() {
		inv, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *postgresRepo) scan(row rowScanner) (*Invoice, error) {
	inv := &Invoice{}
	var billing, shipping, items []byte
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.OrderNumber, &inv.UserID, &billing,
		&shipping, &items, &inv.SubtotalPaise, &inv.CGSTPaise, &inv.SGSTPaise, &inv.IGSTPaise,
		&inv.TotalTaxPaise, &inv.GrandTotalPaise, &inv.IsIntraState, &inv.SellerState,
		&inv.DocumentURL, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billing, &inv.BillingAddress); err != nil {
		return nil, fmt.Errorf("decode billing address: %w", err)
	}
	if err := json.Unmarshal(shipping, &inv.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}
	return inv, nil
}
