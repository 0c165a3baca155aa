// Package kv implements the payer/payee store and transaction history on
// BadgerDB. Badger indexes only by key, so substring and case-insensitive
// search are simulated with a derived n-gram token index written
// alongside every record; read-time queries become exact-prefix scans.
package kv

import (
	"context"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Store implements service.Backend using BadgerDB.
type Store struct {
	db *badger.DB
}

// New opens a BadgerDB-backed store at dir. An empty dir opens an
// in-memory database, which tests use.
func New(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already-opened BadgerDB instance. The caller keeps
// ownership of the db lifecycle.
func NewWithDB(db *badger.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db must not be nil")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate rebuilds the derived search indexes from the stored records.
// Token derivation is idempotent, so running this against a healthy
// database rewrites the same keys.
func (s *Store) Migrate(ctx context.Context) error {
	if ctx == nil {
		return errNilContext
	}

	records, err := s.allRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records for reindex: %w", err)
	}

	for i := range records {
		record := records[i]
		err := s.db.Update(func(txn *badger.Txn) error {
			return writeSearchIndex(txn, &record)
		})
		if err != nil {
			return fmt.Errorf("failed to reindex %s %s: %w", record.Type, record.ID, err)
		}
	}

	slog.Info("Rebuilt search indexes", "records", len(records))
	return nil
}
