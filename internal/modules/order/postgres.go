package order

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
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, o *Order) error {
	cols, err := encode(o)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders
		  (id, order_number, user_id, status, items, shipping_address, subtotal_paise,
		   total_paise, payment, remote_order_id, stock_reserved, reservation_expires_at,
		   requires_reconciliation, status_history, tracking_number, tracking_url,
		   cancelled_at, cancelled_by, cancellation_reason, invoice_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$21)`,
		o.ID, o.OrderNumber, o.UserID, o.Status, cols.items, cols.address, o.SubtotalPaise,
		o.TotalPaise, cols.payment, nilIfEmpty(o.Payment.RemoteOrderID), o.StockReserved,
		o.ReservationExpiresAt, o.RequiresReconciliation, cols.history, o.TrackingNumber,
		o.TrackingURL, o.CancelledAt, o.CancelledBy, o.CancellationReason, o.InvoiceID, o.CreatedAt)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("order number %s: %w", o.OrderNumber, sequence.ErrCollision)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.one(r.db.QueryRowContext(ctx, selectSQL+" WHERE id=$1", id))
}

func (r *postgresRepo) GetByRemoteOrderID(ctx context.Context, remoteOrderID string) (*Order, error) {
	return r.one(r.db.QueryRowContext(ctx, selectSQL+" WHERE remote_order_id=$1", remoteOrderID))
}

func (r *postgresRepo) Update(ctx context.Context, o *Order, expected Status) error {
	cols, err := encode(o)
	if err != nil {
		return err
	}
	o.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
		  status=$1, payment=$2, remote_order_id=$3, stock_reserved=$4,
		  reservation_expires_at=$5, requires_reconciliation=$6, status_history=$7,
		  tracking_number=$8, tracking_url=$9, cancelled_at=$10, cancelled_by=$11,
		  cancellation_reason=$12, invoice_id=$13, updated_at=$14
		WHERE id=$15 AND status=$16`,
		o.Status, cols.payment, nilIfEmpty(o.Payment.RemoteOrderID), o.StockReserved,
		o.ReservationExpiresAt, o.RequiresReconciliation, cols.history,
		o.TrackingNumber, o.TrackingURL, o.CancelledAt, o.CancelledBy,
		o.CancellationReason, o.InvoiceID, o.UpdatedAt, o.ID, expected)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.OrderNumber, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s is no longer %s", ErrConflict, o.OrderNumber, expected)
	}
	return nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	return r.many(ctx, selectSQL+" WHERE user_id=$1 ORDER BY created_at DESC", userID)
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Order, error) {
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

func (r *postgresRepo) ListReservedByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	return r.many(ctx, selectSQL+" WHERE user_id=$1 AND stock_reserved AND status = ANY($2)",
		userID, pq.Array(statusStrings(sweepableStatuses)))
}

func (r *postgresRepo) ListExpiredReservations(ctx context.Context, now time.Time) ([]*Order, error) {
	return r.many(ctx, selectSQL+`
		WHERE stock_reserved AND reservation_expires_at < $1 AND status = ANY($2)
		ORDER BY reservation_expires_at`,
		now, pq.Array(statusStrings(sweepableStatuses)))
}

func (r *postgresRepo) LastOrderNumber(ctx context.Context, prefix string) (string, error) {
	var number string
	err := r.db.QueryRowContext(ctx, `
		SELECT order_number FROM orders
		WHERE order_number LIKE $1
		ORDER BY length(order_number) DESC, order_number DESC
		LIMIT 1`, prefix+"%").Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return number, err
}

// ── Scanner ───────────────────────────────────────────────────────────────────

const selectSQL = `
	SELECT id, order_number, user_id, status, items, shipping_address, subtotal_paise,
	       total_paise, payment, stock_reserved, reservation_expires_at,
	       requires_reconciliation, status_history, tracking_number, tracking_url,
	       cancelled_at, cancelled_by, cancellation_reason, invoice_id, created_at, updated_at
	FROM orders`

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) one(row rowScanner) (*Order, error) {
	o, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (r *postgresRepo) many(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) scan(row rowScanner) (*Order, error) {
	o := &Order{}
	var items, address, pay, history []byte
	var expiresAt, cancelledAt sql.NullTime
	var invoiceID uuid.NullUUID
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &items, &address, &o.SubtotalPaise,
		&o.TotalPaise, &pay, &o.StockReserved, &expiresAt,
		&o.RequiresReconciliation, &history, &o.TrackingNumber, &o.TrackingURL,
		&cancelledAt, &o.CancelledBy, &o.CancellationReason, &invoiceID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{{items, &o.Items}, {address, &o.ShippingAddress}, {pay, &o.Payment}, {history, &o.History}} {
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", o.OrderNumber, err)
		}
	}
	if expiresAt.Valid {
		o.ReservationExpiresAt = &expiresAt.Time
	}
	if cancelledAt.Valid {
		o.CancelledAt = &cancelledAt.Time
	}
	if invoiceID.Valid {
		o.InvoiceID = &invoiceID.UUID
	}
	return o, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type encoded struct{ items, address, payment, history []byte }

func encode(o *Order) (encoded, error) {
	var e encoded
	var err error
	if e.items, err = json.Marshal(o.Items); err != nil {
		return e, err
	}
	if e.address, err = json.Marshal(o.ShippingAddress); err != nil {
		return e, err
	}
	if e.payment, err = json.Marshal(o.Payment); err != nil {
		return e, err
	}
	if e.history, err = json.Marshal(o.History); err != nil {
		return e, err
	}
	return e, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
