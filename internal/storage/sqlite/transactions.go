package sqlite

import (
	"context"
	"fmt"

	"github.com/jgv115/moneymate-engine/internal/model"
	"github.com/jgv115/moneymate-engine/internal/suggest"
)

// AddTransaction records one historical transaction. The suggestion
// ranker aggregates over these rows; everything else about transactions
// lives outside this engine.
func (s *Store) AddTransaction(ctx context.Context, txn model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(&txn); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, profile_id, payerpayee_id, payerpayee_type, category, subcategory, amount, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.ProfileID, txn.PayerPayeeID, string(txn.Type), txn.Category, txn.Subcategory, txn.Amount, txn.Date)

	if err != nil {
		return fmt.Errorf("failed to add transaction: %w", err)
	}

	return nil
}

// CountByPayerPayee returns transaction counts per payer/payee id for the
// given suggestion context. A subcategory context counts only rows whose
// category and subcategory both match, a category context only rows whose
// category matches, and a general context counts every row for the role.
func (s *Store) CountByPayerPayee(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, suggestionContext suggest.Context) (map[string]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT payerpayee_id, COUNT(1)
		FROM transactions
		WHERE profile_id = ? AND payerpayee_type = ?`
	args := []any{profileID, string(payerPayeeType)}

	switch suggestionContext.Kind {
	case suggest.KindCategory:
		query += " AND category = ?"
		args = append(args, suggestionContext.Category)
	case suggest.KindSubcategory:
		query += " AND category = ? AND subcategory = ?"
		args = append(args, suggestionContext.Category, suggestionContext.Subcategory)
	case suggest.KindGeneral:
		// no narrowing
	}
	query += " GROUP BY payerpayee_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan transaction count: %w", err)
		}
		counts[id] = count
	}

	return counts, rows.Err()
}
