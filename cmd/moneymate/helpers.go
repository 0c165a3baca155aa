package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/viper"

	"github.com/jgv115/moneymate-engine/internal/cli"
	"github.com/jgv115/moneymate-engine/internal/common"
	"github.com/jgv115/moneymate-engine/internal/config"
	"github.com/jgv115/moneymate-engine/internal/engine"
	"github.com/jgv115/moneymate-engine/internal/enrich"
	"github.com/jgv115/moneymate-engine/internal/model"
	"github.com/jgv115/moneymate-engine/internal/service"
	"github.com/jgv115/moneymate-engine/internal/storage/kv"
	"github.com/jgv115/moneymate-engine/internal/storage/sqlite"
	"github.com/jgv115/moneymate-engine/internal/suggest"
)

// initBackend opens the configured storage backend and runs its
// migrations. Callers own the returned backend and must Close it.
func initBackend(ctx context.Context) (service.Backend, error) {
	backend := viper.GetString("storage.backend")

	var store service.Backend
	switch backend {
	case "", "sqlite":
		dbPath := viper.GetString("storage.path")
		if dbPath == "" {
			dbPath = "$HOME/.local/share/moneymate/moneymate.db"
		}
		dbPath = config.ExpandPath(dbPath)

		s, err := sqlite.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		store = s
	case "badger":
		dir := viper.GetString("storage.path")
		if dir == "" {
			dir = "$HOME/.local/share/moneymate/badger"
		}
		dir = config.ExpandPath(dir)

		s, err := kv.New(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		store = s
	default:
		return nil, common.NewUserError(
			fmt.Sprintf("unknown storage backend %q (expected sqlite or badger)", backend),
			common.ErrInvalidConfig,
		)
	}

	if err := store.Migrate(ctx); err != nil {
		if closeErr := store.Close(); closeErr != nil {
			common.LogError(closeErr, "failed to close storage", nil)
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newService wires the resolution engine onto a backend: the backend
// serves identities and history, the places client serves enrichment.
func newService(backend service.Backend) *engine.PayerPayeeService {
	baseURL := viper.GetString("places.base_url")
	if baseURL == "" {
		baseURL = "https://places.googleapis.com"
	}
	provider := enrich.NewPlacesClient(baseURL, viper.GetString("places.api_key"))

	return engine.New(
		backend,
		suggest.NewRanker(backend, backend),
		enrich.NewEnricher(provider, backend),
	)
}

// requireProfile returns the active profile id or a user-facing error.
func requireProfile() (string, error) {
	profileID := viper.GetString("profile")
	if profileID == "" {
		return "", common.NewUserError(
			"no profile selected (pass --profile or set MONEYMATE_PROFILE)",
			common.ErrMissingConfig,
		)
	}
	return profileID, nil
}

// warnMissingPlacesKey flags enrichment requests that cannot reach the
// places API because no key is configured.
func warnMissingPlacesKey() {
	if viper.GetString("places.api_key") == "" {
		fmt.Println(cli.FormatWarning("places.api_key is not set; external details may be unavailable")) //nolint:forbidigo // User-facing output
	}
}

// printViewModels renders identities as an aligned table.
func printViewModels(records []model.PayerPayeeViewModel) error {
	if len(records) == 0 {
		fmt.Println(cli.FormatInfo("No payers or payees found.")) //nolint:forbidigo // User-facing output
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("ID"),
		cli.TableHeaderStyle.Render("Name"),
		cli.TableHeaderStyle.Render("External ID"),
		cli.TableHeaderStyle.Render("Address")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		strings.Repeat("─", 36),
		strings.Repeat("─", 20),
		strings.Repeat("─", 12),
		strings.Repeat("─", 20)); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for _, record := range records {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			record.ID,
			record.Name,
			record.ExternalID,
			record.Address); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d record(s)", len(records)))) //nolint:forbidigo // User-facing output
	return nil
}
