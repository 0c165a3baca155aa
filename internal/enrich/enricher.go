package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jgv115/moneymate-engine/internal/model"
)

// RecordWriter persists a payer/payee whose external identifier was
// refreshed, so the healed id survives the request.
type RecordWriter interface {
	Put(ctx context.Context, record model.PayerPayee) error
}

// Enricher merges identities with live details from the provider. A
// stale external identifier is healed with exactly one refresh attempt:
// resolve, refresh on not-found, retry the resolve once with the new id.
type Enricher struct {
	provider Provider
	store    RecordWriter
}

// NewEnricher creates an Enricher over the given provider and store.
func NewEnricher(provider Provider, store RecordWriter) *Enricher {
	return &Enricher{provider: provider, store: store}
}

// Details fetches the enriched details for an external identifier,
// healing it if the provider no longer recognises it.
func (e *Enricher) Details(ctx context.Context, externalID string) (*model.PayerPayeeDetails, error) {
	address, _, err := e.resolve(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return &model.PayerPayeeDetails{Address: address}, nil
}

// Enrich merges one identity with its external details. An identity
// without an external id skips the network call entirely. When the
// resolve succeeds through a refreshed identifier, the new id is
// persisted and returned in the view model.
func (e *Enricher) Enrich(ctx context.Context, record model.PayerPayee) (model.PayerPayeeViewModel, error) {
	if record.ExternalID == "" {
		return model.PayerPayeeViewModel{
			ID:   record.ID,
			Name: record.Name,
		}, nil
	}

	address, resolvedID, err := e.resolve(ctx, record.ExternalID)
	if err != nil {
		return model.PayerPayeeViewModel{}, err
	}

	if resolvedID != record.ExternalID {
		slog.Info("Persisting refreshed external id",
			"payerpayee_id", record.ID,
			"old_external_id", record.ExternalID,
			"new_external_id", resolvedID)
		record.ExternalID = resolvedID
		if err := e.store.Put(ctx, record); err != nil {
			return model.PayerPayeeViewModel{}, fmt.Errorf("failed to persist refreshed external id: %w", err)
		}
	}

	return model.PayerPayeeViewModel{
		ID:         record.ID,
		Name:       record.Name,
		ExternalID: resolvedID,
		Address:    address,
	}, nil
}

// EnrichAll enriches a batch concurrently, one independent operation per
// identity, preserving input order in the result. The policy is
// fail-fast: the first enrichment error fails the whole batch and
// partial results are discarded.
func (e *Enricher) EnrichAll(ctx context.Context, records []model.PayerPayee) ([]model.PayerPayeeViewModel, error) {
	viewModels := make([]model.PayerPayeeViewModel, len(records))

	g, gctx := errgroup.WithContext(ctx)
	for i := range records {
		g.Go(func() error {
			vm, err := e.Enrich(gctx, records[i])
			if err != nil {
				return err
			}
			viewModels[i] = vm
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return viewModels, nil
}

// resolve runs the self-healing sequence for one external id. The steps
// are strictly ordered: resolve, refresh on not-found, retry the resolve
// exactly once with the refreshed id.
func (e *Enricher) resolve(ctx context.Context, externalID string) (address, resolvedID string, err error) {
	result, err := e.provider.Lookup(ctx, externalID, FieldAddress)
	if err != nil {
		return "", "", fmt.Errorf("place details lookup failed: %w", err)
	}

	switch result.Status {
	case StatusOK:
		return result.Data.Address, externalID, nil
	case StatusNotFound:
		return e.refreshAndRetry(ctx, externalID)
	default:
		return "", "", &Error{Status: result.ErrorStatus, Message: result.ErrorMessage}
	}
}

func (e *Enricher) refreshAndRetry(ctx context.Context, externalID string) (address, resolvedID string, err error) {
	slog.Info("External id no longer resolves, refreshing it", "external_id", externalID)

	refresh, err := e.provider.Lookup(ctx, externalID, FieldPlaceID)
	if err != nil {
		return "", "", fmt.Errorf("external id refresh failed: %w", err)
	}

	switch refresh.Status {
	case StatusNotFound:
		// Terminal: the provider cannot map the old id to a new one.
		return "", "", &DefunctExternalIDError{ExternalID: externalID}
	case StatusError:
		return "", "", &Error{Status: refresh.ErrorStatus, Message: refresh.ErrorMessage}
	}

	newID := refresh.Data.PlaceID
	if newID == "" {
		return "", "", &Error{Message: "refreshed identifier returned as null"}
	}

	// One retry with the refreshed id; any failure here surfaces as-is.
	retry, err := e.provider.Lookup(ctx, newID, FieldAddress)
	if err != nil {
		return "", "", fmt.Errorf("place details lookup failed: %w", err)
	}
	if retry.Status != StatusOK {
		return "", "", &Error{Status: retry.ErrorStatus, Message: retry.ErrorMessage}
	}

	return retry.Data.Address, newID, nil
}
