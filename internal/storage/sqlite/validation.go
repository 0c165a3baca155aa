package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jgv115/moneymate-engine/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrInvalidPayerPayee  = errors.New("invalid payer/payee")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validatePayerPayee validates a payer/payee record before storage.
func validatePayerPayee(record *model.PayerPayee) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidPayerPayee)
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPayerPayee)
	}
	if strings.TrimSpace(record.ProfileID) == "" {
		return fmt.Errorf("%w: missing profile id", ErrInvalidPayerPayee)
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPayerPayee)
	}
	if !record.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPayerPayee, record.Type)
	}
	return nil
}

// validateTransaction validates a transaction record before storage.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction is nil", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.ProfileID) == "" {
		return fmt.Errorf("%w: missing profile id", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.PayerPayeeID) == "" {
		return fmt.Errorf("%w: missing payer/payee id", ErrInvalidTransaction)
	}
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	return nil
}
