package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/jgv115/moneymate-engine/internal/common"
	"github.com/jgv115/moneymate-engine/internal/model"
	"github.com/jgv115/moneymate-engine/internal/ngram"
	"github.com/jgv115/moneymate-engine/internal/service"
)

var (
	errNilContext = errors.New("context cannot be nil")
	errEmptyID    = errors.New("payerPayeeID cannot be empty")
)

// Create stores a new payer/payee. The uniqueness key is read and written
// inside one serializable transaction, so concurrent creates of the same
// (profile, type, name, externalID) pair resolve to exactly one stored
// record; the loser observes common.ErrExists.
func (s *Store) Create(ctx context.Context, record model.PayerPayee) error {
	if err := validateRecordInput(ctx, &record); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(uniqueKey(&record))
		if err == nil {
			return fmt.Errorf("%s with name %q and external id %q %w",
				record.Type, record.Name, record.ExternalID, common.ErrExists)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check for existing %s: %w", record.Type, err)
		}

		return writeRecord(txn, &record)
	})

	// A conflict means a concurrent create of the identical pair
	// committed first.
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%s with name %q and external id %q %w",
			record.Type, record.Name, record.ExternalID, common.ErrExists)
	}
	return err
}

// Put stores or replaces a payer/payee, rewriting the derived index
// entries for the previous name if the record already existed.
func (s *Store) Put(ctx context.Context, record model.PayerPayee) error {
	if err := validateRecordInput(ctx, &record); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		old, err := readRecord(txn, recordKey(record.ProfileID, record.Type, record.ID))
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if old != nil {
			clearDerivedKeys(txn, old)
		}

		return writeRecord(txn, &record)
	})
}

// Get retrieves a payer/payee by id.
func (s *Store) Get(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, payerPayeeID string) (*model.PayerPayee, error) {
	if ctx == nil {
		return nil, errNilContext
	}
	if strings.TrimSpace(payerPayeeID) == "" {
		return nil, errEmptyID
	}

	var record *model.PayerPayee
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		record, err = readRecord(txn, recordKey(profileID, payerPayeeType, payerPayeeID))
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%s %s %w", payerPayeeType, payerPayeeID, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// List returns payers or payees in name order. The name index keys sort
// lexicographically by name then id, which gives the stable ordering the
// pagination contract needs.
func (s *Store) List(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, page service.Pagination) ([]model.PayerPayee, error) {
	if ctx == nil {
		return nil, errNilContext
	}
	limit := page.Limit
	if limit <= 0 {
		limit = 20
	}

	records := []model.PayerPayee{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := scopePrefix(keyPrefixName, profileID, payerPayeeType)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skipped < page.Offset {
				skipped++
				continue
			}
			if len(records) >= limit {
				break
			}

			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read name index entry: %w", err)
			}
			record, err := readRecord(txn, recordKey(profileID, payerPayeeType, string(id)))
			if err != nil {
				return err
			}
			records = append(records, *record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", payerPayeeType, err)
	}

	return records, nil
}

// Autocomplete prefix-matches stored names against every leading-letter
// capitalisation combination of the query, then unions the results
// de-duplicated by id.
func (s *Store) Autocomplete(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error) {
	if ctx == nil {
		return nil, errNilContext
	}

	variants := ngram.Combinations(query)
	if len(variants) == 0 {
		return []model.PayerPayee{}, nil
	}

	ids := make(map[string]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		for _, variant := range variants {
			if err := collectIndexIDs(txn, searchPrefix(keyPrefixName, profileID, payerPayeeType, variant), ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to autocomplete %ss: %w", payerPayeeType, err)
	}

	return s.resolveIDs(profileID, payerPayeeType, ids)
}

// Find matches names sharing an n-gram with every word of the query:
// within one word the two-case token variants are unioned, across words
// the matches are intersected.
func (s *Store) Find(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error) {
	if ctx == nil {
		return nil, errNilContext
	}

	words := strings.Fields(query)
	if len(words) == 0 {
		return []model.PayerPayee{}, nil
	}

	var matched map[string]struct{}
	err := s.db.View(func(txn *badger.Txn) error {
		for _, word := range words {
			wordIDs := make(map[string]struct{})
			for _, token := range ngram.Tokens(word, ngram.DefaultMinTokenSize, true) {
				if err := collectIndexIDs(txn, searchPrefix(keyPrefixToken, profileID, payerPayeeType, token), wordIDs); err != nil {
					return err
				}
			}

			if matched == nil {
				matched = wordIDs
				continue
			}
			for id := range matched {
				if _, ok := wordIDs[id]; !ok {
					delete(matched, id)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find %ss: %w", payerPayeeType, err)
	}

	return s.resolveIDs(profileID, payerPayeeType, matched)
}

func (s *Store) resolveIDs(profileID string, payerPayeeType model.PayerPayeeType, ids map[string]struct{}) ([]model.PayerPayee, error) {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	records := make([]model.PayerPayee, 0, len(sorted))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range sorted {
			record, err := readRecord(txn, recordKey(profileID, payerPayeeType, id))
			if err != nil {
				return err
			}
			records = append(records, *record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (s *Store) allRecords(_ context.Context) ([]model.PayerPayee, error) {
	var records []model.PayerPayee
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(keyPrefixRecord)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record model.PayerPayee
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return fmt.Errorf("failed to decode record: %w", err)
			}
			records = append(records, record)
		}
		return nil
	})
	return records, err
}

// collectIndexIDs adds every id reachable under the given index prefix.
func collectIndexIDs(txn *badger.Txn, prefix []byte, ids map[string]struct{}) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		id, err := it.Item().ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to read index entry: %w", err)
		}
		ids[string(id)] = struct{}{}
	}
	return nil
}

func readRecord(txn *badger.Txn, key []byte) (*model.PayerPayee, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var record model.PayerPayee
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &record, nil
}

func writeRecord(txn *badger.Txn, record *model.PayerPayee) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if err := txn.Set(recordKey(record.ProfileID, record.Type, record.ID), raw); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := txn.Set(uniqueKey(record), []byte(record.ID)); err != nil {
		return fmt.Errorf("failed to write uniqueness key: %w", err)
	}
	return writeSearchIndex(txn, record)
}

// writeSearchIndex derives the name and token entries for a record.
// Token derivation is deterministic, so rewriting an unchanged record
// reproduces the same key set.
func writeSearchIndex(txn *badger.Txn, record *model.PayerPayee) error {
	id := []byte(record.ID)
	if err := txn.Set(nameKey(record.ProfileID, record.Type, record.Name, record.ID), id); err != nil {
		return fmt.Errorf("failed to write name index: %w", err)
	}
	for _, token := range ngram.Tokens(record.Name, ngram.DefaultMinTokenSize, true) {
		if err := txn.Set(tokenKey(record.ProfileID, record.Type, token, record.ID), id); err != nil {
			return fmt.Errorf("failed to write token index: %w", err)
		}
	}
	return nil
}

func clearDerivedKeys(txn *badger.Txn, record *model.PayerPayee) {
	_ = txn.Delete(uniqueKey(record))
	_ = txn.Delete(nameKey(record.ProfileID, record.Type, record.Name, record.ID))
	for _, token := range ngram.Tokens(record.Name, ngram.DefaultMinTokenSize, true) {
		_ = txn.Delete(tokenKey(record.ProfileID, record.Type, token, record.ID))
	}
}

func validateRecordInput(ctx context.Context, record *model.PayerPayee) error {
	if ctx == nil {
		return errNilContext
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("payer/payee record: %w", errEmptyID)
	}
	if strings.TrimSpace(record.ProfileID) == "" {
		return errors.New("payer/payee record: profile id cannot be empty")
	}
	if strings.TrimSpace(record.Name) == "" {
		return errors.New("payer/payee record: name cannot be empty")
	}
	if !record.Type.Valid() {
		return fmt.Errorf("payer/payee record: unknown type %q", record.Type)
	}
	return nil
}
