// Package service defines the interfaces for the engine's collaborators.
package service

import (
	"context"

	"github.com/jgv115/moneymate-engine/internal/model"
	"github.com/jgv115/moneymate-engine/internal/suggest"
)

// Pagination bounds a list query. Offset and Limit are applied after the
// backend's stable ordering.
type Pagination struct {
	Offset int
	Limit  int
}

// PayerPayeeStore is the persistence contract for payer/payee identities.
// Every call is scoped by (profileID, payerPayeeType); implementations
// must never leak records across profiles.
type PayerPayeeStore interface {
	// Create stores a new identity. It fails with common.ErrExists when a
	// record with the same (profile, type, name, externalID) already
	// exists; the existence check and insert are atomic with respect to
	// concurrent creates of the identical pair.
	Create(ctx context.Context, record model.PayerPayee) error

	// Put stores or replaces an identity without the uniqueness check.
	Put(ctx context.Context, record model.PayerPayee) error

	// Get returns the identity with the given id, or common.ErrNotFound.
	Get(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, payerPayeeID string) (*model.PayerPayee, error)

	// List returns identities of one role in stable name order with
	// pagination applied after ordering.
	List(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, page Pagination) ([]model.PayerPayee, error)

	// Find runs the broader fuzzy match used for dedup checks and the
	// legacy find endpoint. Empty query returns an empty result.
	Find(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error)

	// Autocomplete matches identities whose name contains every word of
	// the query as a case-insensitive prefix fragment. The result set
	// carries no ordering guarantee and is de-duplicated by id.
	Autocomplete(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error)

	Close() error
}

// TransactionHistory is the aggregate query surface the suggestion
// ranker consumes, plus the seeding path that feeds it.
type TransactionHistory interface {
	AddTransaction(ctx context.Context, txn model.Transaction) error
	CountByPayerPayee(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, suggestionContext suggest.Context) (map[string]int, error)
}

// Backend is the full storage surface a single backend provides. Both the
// SQL and the key-value implementations satisfy it.
type Backend interface {
	PayerPayeeStore
	TransactionHistory

	// Migrate prepares backend schema or indexes. A no-op where the
	// backend needs none.
	Migrate(ctx context.Context) error
}
