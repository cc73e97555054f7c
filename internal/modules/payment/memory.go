package payment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps transactions in process. Reads return copies.
type MemoryRepository struct {
	mu  sync.RWMutex
	txs map[uuid.UUID]*Transaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{txs: make(map[uuid.UUID]*Transaction)}
}

func (r *MemoryRepository) Create(_ context.Context, tx *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	cp := cloneTx(tx)
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.txs[tx.ID] = cp
	return nil
}

func (r *MemoryRepository) MarkCreated(_ context.Context, id uuid.UUID, remoteOrderID string) error {
	return r.mutate(func(tx *Transaction) bool { return tx.ID == id }, func(tx *Transaction) {
		tx.RemoteOrderID = remoteOrderID
		tx.Status = TxCreated
	})
}

func (r *MemoryRepository) MarkFailed(_ context.Context, id uuid.UUID, lastError string) error {
	return r.mutate(func(tx *Transaction) bool { return tx.ID == id }, func(tx *Transaction) {
		tx.Status = TxFailed
		tx.LastError = lastError
	})
}

func (r *MemoryRepository) UpdateByRemoteOrder(_ context.Context, remoteOrderID string, status TxStatus, remotePaymentID, lastError string) error {
	return r.mutate(byRemote(remoteOrderID), func(tx *Transaction) {
		tx.Status = status
		if remotePaymentID != "" {
			tx.RemotePaymentID = remotePaymentID
		}
		tx.LastError = lastError
	})
}

func (r *MemoryRepository) RecordWebhook(_ context.Context, remoteOrderID string, payload []byte) error {
	return r.mutate(byRemote(remoteOrderID), func(tx *Transaction) {
		tx.WebhookPayload = append([]byte(nil), payload...)
	})
}

func (r *MemoryRepository) GetByRemoteOrder(_ context.Context, remoteOrderID string) (*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tx := range r.txs {
		if tx.RemoteOrderID == remoteOrderID && remoteOrderID != "" {
			return cloneTx(tx), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListByReceipt(_ context.Context, receipt string) ([]*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*Transaction{}
	for _, tx := range r.txs {
		if tx.Receipt == receipt {
			out = append(out, cloneTx(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) mutate(match func(*Transaction) bool, apply func(*Transaction)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if match(tx) {
			apply(tx)
			tx.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func byRemote(remoteOrderID string) func(*Transaction) bool {
	return func(tx *Transaction) bool { return remoteOrderID != "" && tx.RemoteOrderID == remoteOrderID }
}

func cloneTx(tx *Transaction) *Transaction {
	cp := *tx
	if tx.Notes != nil {
		cp.Notes = make(map[string]string, len(tx.Notes))
		for k, v := range tx.Notes {
			cp.Notes[k] = v
		}
	}
	cp.WebhookPayload = append([]byte(nil), tx.WebhookPayload...)
	return &cp
}
