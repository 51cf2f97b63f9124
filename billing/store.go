/*
store.go - Persistence interfaces for the payout engine

PURPOSE:
  Defines the boundary between the calculation engine and the database.
  The engine only ever reads a batch snapshot and writes payment records;
  everything else is plain CRUD owned by the stores.

KEY INTERFACES:
  Directory:    Batch reads of managers/clients/ledger/one-time work
  PaymentStore: Monthly payment records (one row per manager+month)
  RosterStore:  Client lifecycle and ledger mutations (used by roster pkg)

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - store/memory: In-memory store for tests and dev
*/
package billing

import (
	"context"
	"fmt"
)

// Directory provides the batch reads a calculation snapshot is built from.
type Directory interface {
	ListManagers(ctx context.Context) ([]CampaignManager, error)
	ListClients(ctx context.Context) ([]Client, error)
	ListHistory(ctx context.Context) ([]HistoryRecord, error)
	ListOneTimeWork(ctx context.Context) ([]OneTimeWork, error)
}

// PaymentStore persists monthly payment records. SavePayment is an upsert
// keyed by (ManagerID, Month): implementations must guarantee at most one
// row per key, making "mark as paid" double-submission idempotent.
type PaymentStore interface {
	ListPayments(ctx context.Context) ([]Payment, error)
	PaymentsByManager(ctx context.Context, managerID string) ([]Payment, error)

	// FindPayment returns nil (no error) when no record exists for the key.
	FindPayment(ctx context.Context, managerID, monthKey string) (*Payment, error)

	// GetPayment returns ErrPaymentNotFound for an unknown id.
	GetPayment(ctx context.Context, id string) (*Payment, error)

	SavePayment(ctx context.Context, p Payment) error
}

// RosterStore covers the client lifecycle and ledger mutations that sit
// outside the pure calculation: pausing, resuming, manager handoffs.
type RosterStore interface {
	GetClient(ctx context.Context, id string) (*Client, error)
	SaveClient(ctx context.Context, c Client) error
	CreateClient(ctx context.Context, c Client) error
	DeleteClient(ctx context.Context, id string) error

	GetManager(ctx context.Context, id string) (*CampaignManager, error)
	SaveManager(ctx context.Context, m CampaignManager) error

	// OpenHistoryFor returns the client's single open ledger record, or nil.
	OpenHistoryFor(ctx context.Context, clientID string) (*HistoryRecord, error)
	CloseHistory(ctx context.Context, id string, end Day) error
	AppendHistory(ctx context.Context, rec HistoryRecord) error

	CreateOneTimeWork(ctx context.Context, w OneTimeWork) error
	SaveOneTimeWork(ctx context.Context, w OneTimeWork) error
}

// LoadSnapshot batch-loads everything a calculation needs. Any fetch failure
// surfaces as a retryable ErrSnapshotUnavailable; a partial snapshot is
// never returned.
func LoadSnapshot(ctx context.Context, dir Directory, payments PaymentStore) (*Snapshot, error) {
	managers, err := dir.ListManagers(ctx)
	if err != nil {
		return nil, snapshotErr("managers", err)
	}
	clients, err := dir.ListClients(ctx)
	if err != nil {
		return nil, snapshotErr("clients", err)
	}
	history, err := dir.ListHistory(ctx)
	if err != nil {
		return nil, snapshotErr("history", err)
	}
	works, err := dir.ListOneTimeWork(ctx)
	if err != nil {
		return nil, snapshotErr("one-time work", err)
	}
	records, err := payments.ListPayments(ctx)
	if err != nil {
		return nil, snapshotErr("payments", err)
	}
	return &Snapshot{
		Managers:     managers,
		Clients:      clients,
		History:      history,
		OneTimeWorks: works,
		Payments:     records,
	}, nil
}

func snapshotErr(what string, err error) error {
	return fmt.Errorf("%w: loading %s: %v", ErrSnapshotUnavailable, what, err)
}
