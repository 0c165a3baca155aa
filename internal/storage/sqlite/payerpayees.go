package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/jgv115/moneymate-engine/internal/common"
	"github.com/jgv115/moneymate-engine/internal/model"
	"github.com/jgv115/moneymate-engine/internal/service"
)

// Create stores a new payer/payee. The UNIQUE constraint on
// (profile_id, payerpayee_type, name, external_id) makes the existence
// check and insert a single atomic step: the loser of a concurrent create
// of the identical pair observes common.ErrExists.
func (s *Store) Create(ctx context.Context, record model.PayerPayee) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePayerPayee(&record); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payerpayees (id, profile_id, name, payerpayee_type, external_id)
		VALUES (?, ?, ?, ?, ?)
	`, record.ID, record.ProfileID, record.Name, string(record.Type), record.ExternalID)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%s with name %q and external id %q %w",
				record.Type, record.Name, record.ExternalID, common.ErrExists)
		}
		return fmt.Errorf("failed to create %s: %w", record.Type, err)
	}

	return nil
}

// Put stores or replaces a payer/payee without the uniqueness check.
func (s *Store) Put(ctx context.Context, record model.PayerPayee) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePayerPayee(&record); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payerpayees (id, profile_id, name, payerpayee_type, external_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			external_id = excluded.external_id
	`, record.ID, record.ProfileID, record.Name, string(record.Type), record.ExternalID)

	if err != nil {
		return fmt.Errorf("failed to put %s: %w", record.Type, err)
	}

	return nil
}

// Get retrieves a payer/payee by id.
func (s *Store) Get(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, payerPayeeID string) (*model.PayerPayee, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(payerPayeeID, "payerPayeeID"); err != nil {
		return nil, err
	}

	var record model.PayerPayee
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, name, payerpayee_type, external_id
		FROM payerpayees
		WHERE profile_id = ? AND payerpayee_type = ? AND id = ?
	`, profileID, string(payerPayeeType), payerPayeeID).Scan(
		&record.ID,
		&record.ProfileID,
		&record.Name,
		&record.Type,
		&record.ExternalID,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s %w", payerPayeeType, payerPayeeID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", payerPayeeType, err)
	}

	return &record, nil
}

// List returns payers or payees in name order, with pagination applied
// after ordering. The id is the tiebreak so the ordering is stable across
// calls.
func (s *Store) List(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, page service.Pagination) ([]model.PayerPayee, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	limit := page.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, name, payerpayee_type, external_id
		FROM payerpayees
		WHERE profile_id = ? AND payerpayee_type = ?
		ORDER BY name, id
		LIMIT ? OFFSET ?
	`, profileID, string(payerPayeeType), limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query %ss: %w", payerPayeeType, err)
	}
	defer func() { _ = rows.Close() }()

	return scanPayerPayees(rows)
}

// Autocomplete matches names containing every query word as a
// case-insensitive substring. SQLite's LIKE is case-insensitive for
// ASCII, which is the ILIKE-equivalent the search contract needs.
func (s *Store) Autocomplete(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error) {
	return s.searchByWords(ctx, profileID, payerPayeeType, query)
}

// Find is the broader fuzzy match. On a SQL backend it degrades to the
// same conjoined substring search as autocomplete; the external contract
// is identical to the key-value backend's n-gram realisation.
func (s *Store) Find(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error) {
	return s.searchByWords(ctx, profileID, payerPayeeType, query)
}

func (s *Store) searchByWords(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	words := strings.Fields(query)
	if len(words) == 0 {
		return []model.PayerPayee{}, nil
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, profile_id, name, payerpayee_type, external_id
		FROM payerpayees
		WHERE profile_id = ? AND payerpayee_type = ?`)
	args := []any{profileID, string(payerPayeeType)}
	for _, word := range words {
		sb.WriteString(" AND name LIKE '%' || ? || '%' ESCAPE '\\'")
		args = append(args, escapeLike(word))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search %ss: %w", payerPayeeType, err)
	}
	defer func() { _ = rows.Close() }()

	return scanPayerPayees(rows)
}

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

func scanPayerPayees(rows *sql.Rows) ([]model.PayerPayee, error) {
	records := []model.PayerPayee{}
	for rows.Next() {
		var record model.PayerPayee
		err := rows.Scan(
			&record.ID,
			&record.ProfileID,
			&record.Name,
			&record.Type,
			&record.ExternalID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payer/payee: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
