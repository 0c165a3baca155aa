package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/jgv115/moneymate-engine/internal/model"
	"github.com/jgv115/moneymate-engine/internal/suggest"
)

// AddTransaction records one historical transaction under the profile
// and role scope the suggestion counts are read from.
func (s *Store) AddTransaction(ctx context.Context, txn model.Transaction) error {
	if ctx == nil {
		return errNilContext
	}
	if strings.TrimSpace(txn.ID) == "" {
		return errors.New("transaction: id cannot be empty")
	}
	if strings.TrimSpace(txn.ProfileID) == "" {
		return errors.New("transaction: profile id cannot be empty")
	}
	if strings.TrimSpace(txn.PayerPayeeID) == "" {
		return errors.New("transaction: payer/payee id cannot be empty")
	}
	if !txn.Type.Valid() {
		return fmt.Errorf("transaction: unknown type %q", txn.Type)
	}

	raw, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %w", err)
	}

	err = s.db.Update(func(t *badger.Txn) error {
		return t.Set(txnKey(txn.ProfileID, txn.Type, txn.ID), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to add transaction: %w", err)
	}
	return nil
}

// CountByPayerPayee scans the role's transactions and counts the ones
// matching the suggestion context per payer/payee id. A key-value backend
// has no aggregate queries, so the narrowing happens record by record.
func (s *Store) CountByPayerPayee(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, suggestionContext suggest.Context) (map[string]int, error) {
	if ctx == nil {
		return nil, errNilContext
	}

	counts := make(map[string]int)
	err := s.db.View(func(t *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := scopePrefix(keyPrefixTxn, profileID, payerPayeeType)
		opts.Prefix = prefix

		it := t.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var txn model.Transaction
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &txn)
			})
			if err != nil {
				return fmt.Errorf("failed to decode transaction: %w", err)
			}

			if !matchesContext(&txn, suggestionContext) {
				continue
			}
			counts[txn.PayerPayeeID]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	return counts, nil
}

func matchesContext(txn *model.Transaction, suggestionContext suggest.Context) bool {
	switch suggestionContext.Kind {
	case suggest.KindCategory:
		return txn.Category == suggestionContext.Category
	case suggest.KindSubcategory:
		return txn.Category == suggestionContext.Category && txn.Subcategory == suggestionContext.Subcategory
	default:
		return true
	}
}
