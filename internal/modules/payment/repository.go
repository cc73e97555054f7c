package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no transaction matches.
var ErrNotFound = errors.New("payment transaction not found")

// Repository defines data access for payment transactions.
type Repository interface {
	// Create inserts a PENDING transaction before the gateway is called.
	Create(ctx context.Context, tx *Transaction) error

	// MarkCreated attaches the remote order id once the gateway accepted it.
	MarkCreated(ctx context.Context, id uuid.UUID, remoteOrderID string) error

	// MarkFailed records a gateway error against a PENDING transaction.
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error

	// UpdateByRemoteOrder moves a transaction to CAPTURED or FAILED.
	UpdateByRemoteOrder(ctx context.Context, remoteOrderID string, status TxStatus, remotePaymentID, lastError string) error

	// RecordWebhook stores the raw webhook body on the matching transaction.
	RecordWebhook(ctx context.Context, remoteOrderID string, payload []byte) error

	GetByRemoteOrder(ctx context.Context, remoteOrderID string) (*Transaction, error)

	// ListByReceipt returns every attempt for one store order, newest first.
	ListByReceipt(ctx context.Context, receipt string) ([]*Transaction, error)
}

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, tx *Transaction) error {
	notes, err := json.Marshal(tx.Notes)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO payment_transactions
		  (id, receipt, remote_order_id, status, amount_paise, currency, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		tx.ID, tx.Receipt, nilIfEmpty(tx.RemoteOrderID), tx.Status,
		tx.AmountPaise, tx.Currency, notes)
	return err
}

func (r *postgresRepo) MarkCreated(ctx context.Context, id uuid.UUID, remoteOrderID string) error {
	return r.exec(ctx, `
		UPDATE payment_transactions SET remote_order_id=$1, status=$2, updated_at=$3 WHERE id=$4`,
		remoteOrderID, TxCreated, time.Now(), id)
}

func (r *postgresRepo) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.exec(ctx, `
		UPDATE payment_transactions SET status=$1, last_error=$2, updated_at=$3 WHERE id=$4`,
		TxFailed, lastError, time.Now(), id)
}

func (r *postgresRepo) UpdateByRemoteOrder(ctx context.Context, remoteOrderID string, status TxStatus, remotePaymentID, lastError string) error {
	return r.exec(ctx, `
		UPDATE payment_transactions
		SET status=$1, remote_payment_id=COALESCE($2, remote_payment_id), last_error=$3, updated_at=$4
		WHERE remote_order_id=$5`,
		status, nilIfEmpty(remotePaymentID), lastError, time.Now(), remoteOrderID)
}

func (r *postgresRepo) RecordWebhook(ctx context.Context, remoteOrderID string, payload []byte) error {
	return r.exec(ctx, `
		UPDATE payment_transactions SET webhook_payload=$1, updated_at=$2 WHERE remote_order_id=$3`,
		payload, time.Now(), remoteOrderID)
}

func (r *postgresRepo) GetByRemoteOrder(ctx context.Context, remoteOrderID string) (*Transaction, error) {
	tx, err := r.scan(r.db.QueryRowContext(ctx, selectSQL+" WHERE remote_order_id=$1", remoteOrderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tx, err
}

func (r *postgresRepo) ListByReceipt(ctx context.Context, receipt string) ([]*Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectSQL+" WHERE receipt=$1 ORDER BY created_at DESC", receipt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []*Transaction{}
	for rows.Next() {
		tx, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *postgresRepo) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Scanner ───────────────────────────────────────────────────────────────────

const selectSQL = `
	SELECT id, receipt, remote_order_id, remote_payment_id, status, amount_paise,
	       currency, notes, last_error, webhook_payload, created_at, updated_at
	FROM payment_transactions`

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Transaction, error) {
	tx := &Transaction{}
	var remoteOrderID, remotePaymentID sql.NullString
	var notes, webhookPayload []byte

	err := row.Scan(
		&tx.ID, &tx.Receipt, &remoteOrderID, &remotePaymentID, &tx.Status,
		&tx.AmountPaise, &tx.Currency, &notes, &tx.LastError, &webhookPayload,
		&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	tx.RemoteOrderID = remoteOrderID.String
	tx.RemotePaymentID = remotePaymentID.String
	if len(notes) > 0 {
		_ = json.Unmarshal(notes, &tx.Notes)
	}
	if len(webhookPayload) > 0 {
		tx.WebhookPayload = webhookPayload
	}
	return tx, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
