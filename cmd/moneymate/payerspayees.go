package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgv115/moneymate-engine/internal/cli"
	"github.com/jgv115/moneymate-engine/internal/common"
	"github.com/jgv115/moneymate-engine/internal/engine"
	"github.com/jgv115/moneymate-engine/internal/model"
	"github.com/jgv115/moneymate-engine/internal/service"
	"github.com/jgv115/moneymate-engine/internal/suggest"
)

func payersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payers",
		Short: "Manage payer identities",
		Long:  `List, look up, search, suggest and create payer identities.`,
	}

	addPayerPayeeCommands(cmd, model.PayerPayeeTypePayer)
	return cmd
}

func payeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payees",
		Short: "Manage payee identities",
		Long:  `List, look up, search, suggest and create payee identities.`,
	}

	addPayerPayeeCommands(cmd, model.PayerPayeeTypePayee)
	return cmd
}

func roleTitle(role model.PayerPayeeType) string {
	if role == model.PayerPayeeTypePayer {
		return "Payers"
	}
	return "Payees"
}

// addPayerPayeeCommands attaches the shared subcommand tree for one role.
// Payers and payees have identical operations; only the role differs.
func addPayerPayeeCommands(cmd *cobra.Command, role model.PayerPayeeType) {
	cmd.AddCommand(listCmd(role))
	cmd.AddCommand(getCmd(role))
	cmd.AddCommand(searchCmd(role))
	cmd.AddCommand(suggestCmd(role))
	cmd.AddCommand(createCmd(role))
	cmd.AddCommand(resolveCmd(role))
}

func listCmd(role model.PayerPayeeType) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List all %ss", role),
		Long:  fmt.Sprintf(`List %s identities in stable name order, one page at a time.`, role),
		RunE: func(cmd *cobra.Command, _ []string) error {
			offset, _ := cmd.Flags().GetInt("offset")
			limit, _ := cmd.Flags().GetInt("limit")
			enrichFlag, _ := cmd.Flags().GetBool("enrich")
			if enrichFlag {
				warnMissingPlacesKey()
			}

			return withService(cmd, func(svc *engine.PayerPayeeService, profileID string) error {
				var (
					records []model.PayerPayeeViewModel
					err     error
				)
				page := service.Pagination{Offset: offset, Limit: limit}
				if role == model.PayerPayeeTypePayer {
					records, err = svc.ListPayers(cmd.Context(), profileID, page, enrichFlag)
				} else {
					records, err = svc.ListPayees(cmd.Context(), profileID, page, enrichFlag)
				}
				if err != nil {
					return fmt.Errorf("failed to list %ss: %w", role, err)
				}

				fmt.Println(cli.FormatTitle(roleTitle(role))) //nolint:forbidigo // User-facing output
				return printViewModels(records)
			})
		},
	}

	cmd.Flags().Int("offset", 0, "Number of records to skip")
	cmd.Flags().Int("limit", 0, "Maximum records to return (0 uses the default)")
	cmd.Flags().Bool("enrich", false, "Fetch live external details for each record")

	return cmd
}

func getCmd(role model.PayerPayeeType) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show one %s", role),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnMissingPlacesKey()

			return withService(cmd, func(svc *engine.PayerPayeeService, profileID string) error {
				var (
					record model.PayerPayeeViewModel
					err    error
				)
				if role == model.PayerPayeeTypePayer {
					record, err = svc.GetPayer(cmd.Context(), profileID, args[0])
				} else {
					record, err = svc.GetPayee(cmd.Context(), profileID, args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to get %s: %w", role, err)
				}

				details := fmt.Sprintf("ID:          %s\nExternal ID: %s\nAddress:     %s",
					record.ID, record.ExternalID, record.Address)
				fmt.Println(cli.RenderBox(record.Name, details)) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}
}

func searchCmd(role model.PayerPayeeType) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: fmt.Sprintf("Search %ss by name", role),
		Long: fmt.Sprintf(`Search %s identities whose names contain every word of the query,
matching case-insensitively on word prefixes.`, role),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnMissingPlacesKey()

			return withService(cmd, func(svc *engine.PayerPayeeService, profileID string) error {
				var (
					records []model.PayerPayeeViewModel
					err     error
				)
				if role == model.PayerPayeeTypePayer {
					records, err = svc.AutocompletePayers(cmd.Context(), profileID, args[0])
				} else {
					records, err = svc.AutocompletePayees(cmd.Context(), profileID, args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to search %ss: %w", role, err)
				}
				return printViewModels(records)
			})
		},
	}
}

func suggestCmd(role model.PayerPayeeType) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: fmt.Sprintf("Suggest %ss from transaction history", role),
		Long: fmt.Sprintf(`Rank %ss by how often they appear in past transactions.

Without flags the ranking spans all transactions. Pass --category to
narrow to one category, or --category and --subcategory together to
narrow further.`, role),
		RunE: func(cmd *cobra.Command, _ []string) error {
			category, _ := cmd.Flags().GetString("category")
			subcategory, _ := cmd.Flags().GetString("subcategory")
			limit, _ := cmd.Flags().GetInt("limit")
			enrichFlag, _ := cmd.Flags().GetBool("enrich")
			if enrichFlag {
				warnMissingPlacesKey()
			}

			suggestionContext, err := suggest.InferContext(category, subcategory)
			if err != nil {
				return err
			}

			return withService(cmd, func(svc *engine.PayerPayeeService, profileID string) error {
				var records []model.PayerPayeeViewModel
				if role == model.PayerPayeeTypePayer {
					records, err = svc.SuggestPayers(cmd.Context(), profileID, suggestionContext, limit, enrichFlag)
				} else {
					records, err = svc.SuggestPayees(cmd.Context(), profileID, suggestionContext, limit, enrichFlag)
				}
				if err != nil {
					return fmt.Errorf("failed to suggest %ss: %w", role, err)
				}

				fmt.Println(cli.FormatTitle("Suggested " + roleTitle(role))) //nolint:forbidigo // User-facing output
				return printViewModels(records)
			})
		},
	}

	cmd.Flags().String("category", "", "Narrow suggestions to one category")
	cmd.Flags().String("subcategory", "", "Narrow suggestions to one subcategory (requires --category)")
	cmd.Flags().Int("limit", 0, "Maximum suggestions to return (0 uses the default)")
	cmd.Flags().Bool("enrich", false, "Fetch live external details for each suggestion")

	return cmd
}

func createCmd(role model.PayerPayeeType) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: fmt.Sprintf("Create a %s", role),
		Long: fmt.Sprintf(`Create a new %s identity. Creation fails when an identity with the
same name and external id already exists in the profile.`, role),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			externalID, _ := cmd.Flags().GetString("external-id")

			return withService(cmd, func(svc *engine.PayerPayeeService, profileID string) error {
				var (
					record model.PayerPayeeViewModel
					err    error
				)
				if role == model.PayerPayeeTypePayer {
					record, err = svc.CreatePayer(cmd.Context(), profileID, args[0], externalID)
				} else {
					record, err = svc.CreatePayee(cmd.Context(), profileID, args[0], externalID)
				}
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", role, err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created %s %q", role, record.Name))) //nolint:forbidigo // User-facing output
				return printViewModels([]model.PayerPayeeViewModel{record})
			})
		},
	}

	cmd.Flags().String("external-id", "", "External place identifier to attach")

	return cmd
}

func resolveCmd(role model.PayerPayeeType) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: fmt.Sprintf("Resolve a name to a %s, creating it if missing", role),
		Long: fmt.Sprintf(`Resolve a free-form name to an existing %s with that exact name, or
create one when no match exists. Concurrent resolves of the same name
converge on a single identity.`, role),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *engine.PayerPayeeService, profileID string) error {
				record, err := svc.Resolve(cmd.Context(), profileID, role, args[0])
				if err != nil {
					return fmt.Errorf("failed to resolve %s: %w", role, err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Resolved %q to %s", record.Name, record.ID))) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}
}

// withService opens the backend, wires the engine, and runs fn with the
// active profile. The backend is closed when fn returns.
func withService(cmd *cobra.Command, fn func(svc *engine.PayerPayeeService, profileID string) error) error {
	profileID, err := requireProfile()
	if err != nil {
		return err
	}

	backend, err := initBackend(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			common.LogError(closeErr, "failed to close storage", nil)
		}
	}()

	return fn(newService(backend), profileID)
}
