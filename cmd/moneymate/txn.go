package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jgv115/moneymate-engine/internal/cli"
	"github.com/jgv115/moneymate-engine/internal/common"
	"github.com/jgv115/moneymate-engine/internal/model"
)

func txnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Record transactions that feed suggestions",
		Long: `Record transaction history. Suggestions rank payers and payees by how
often they appear here.`,
	}

	cmd.AddCommand(txnAddCmd())
	return cmd
}

func txnAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <payer-or-payee-name>",
		Short: "Record a transaction",
		Long: `Record a transaction against a payer or payee by name. The name is
resolved to an existing identity, or a new identity is created when no
exact match exists.`,
		Args: cobra.ExactArgs(1),
		RunE: runTxnAdd,
	}

	cmd.Flags().String("type", "payee", "Counterparty role (payer for income, payee for expense)")
	cmd.Flags().String("date", "", "Transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64("amount", 0, "Transaction amount")
	cmd.Flags().String("category", "", "Transaction category")
	cmd.Flags().String("subcategory", "", "Transaction subcategory")

	return cmd
}

func runTxnAdd(cmd *cobra.Command, args []string) error {
	roleStr, _ := cmd.Flags().GetString("type")
	dateStr, _ := cmd.Flags().GetString("date")
	amount, _ := cmd.Flags().GetFloat64("amount")
	category, _ := cmd.Flags().GetString("category")
	subcategory, _ := cmd.Flags().GetString("subcategory")

	role := model.PayerPayeeType(roleStr)
	if !role.Valid() {
		return fmt.Errorf("invalid type %q (expected payer or payee)", roleStr)
	}

	date := time.Now()
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
		date = parsed
	}

	profileID, err := requireProfile()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backend, err := initBackend(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			common.LogError(closeErr, "failed to close storage", nil)
		}
	}()

	svc := newService(backend)

	record, err := svc.Resolve(ctx, profileID, role, args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", role, err)
	}

	txn := model.Transaction{
		ID:           uuid.NewString(),
		ProfileID:    profileID,
		PayerPayeeID: record.ID,
		Type:         role,
		Date:         date,
		Amount:       amount,
		Category:     category,
		Subcategory:  subcategory,
	}
	if err := backend.AddTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded transaction against %q", record.Name))) //nolint:forbidigo // User-facing output
	return nil
}
