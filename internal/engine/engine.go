// Package engine orchestrates payer/payee resolution: listing, lookup,
// autocomplete, suggestions and creation, with optional enrichment.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jgv115/moneymate-engine/internal/common"
	"github.com/jgv115/moneymate-engine/internal/model"
	"github.com/jgv115/moneymate-engine/internal/service"
	"github.com/jgv115/moneymate-engine/internal/suggest"
)

// Enricher merges identities with live external details.
type Enricher interface {
	Enrich(ctx context.Context, record model.PayerPayee) (model.PayerPayeeViewModel, error)
	EnrichAll(ctx context.Context, records []model.PayerPayee) ([]model.PayerPayeeViewModel, error)
}

// Ranker orders identities by historical usage within a context.
type Ranker interface {
	Suggest(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, suggestionContext suggest.Context, limit int) ([]model.PayerPayee, error)
}

// PayerPayeeService is the engine's exposed surface. Controllers call it
// with an explicit profile scope on every operation; the service keeps no
// per-request state.
type PayerPayeeService struct {
	store    service.PayerPayeeStore
	ranker   Ranker
	enricher Enricher
}

// New creates a PayerPayeeService with the given collaborators.
func New(store service.PayerPayeeStore, ranker Ranker, enricher Enricher) *PayerPayeeService {
	return &PayerPayeeService{
		store:    store,
		ranker:   ranker,
		enricher: enricher,
	}
}

// ListPayers returns a page of payers, enriched when requested.
func (s *PayerPayeeService) ListPayers(ctx context.Context, profileID string, page service.Pagination, enrich bool) ([]model.PayerPayeeViewModel, error) {
	return s.list(ctx, profileID, model.PayerPayeeTypePayer, page, enrich)
}

// ListPayees returns a page of payees, enriched when requested.
func (s *PayerPayeeService) ListPayees(ctx context.Context, profileID string, page service.Pagination, enrich bool) ([]model.PayerPayeeViewModel, error) {
	return s.list(ctx, profileID, model.PayerPayeeTypePayee, page, enrich)
}

func (s *PayerPayeeService) list(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, page service.Pagination, enrich bool) ([]model.PayerPayeeViewModel, error) {
	records, err := s.store.List(ctx, profileID, payerPayeeType, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", payerPayeeType, err)
	}
	if enrich {
		return s.enricher.EnrichAll(ctx, records)
	}
	return bareViewModels(records), nil
}

// GetPayer returns a single payer merged with its external details.
func (s *PayerPayeeService) GetPayer(ctx context.Context, profileID, payerPayeeID string) (model.PayerPayeeViewModel, error) {
	return s.get(ctx, profileID, model.PayerPayeeTypePayer, payerPayeeID)
}

// GetPayee returns a single payee merged with its external details.
func (s *PayerPayeeService) GetPayee(ctx context.Context, profileID, payerPayeeID string) (model.PayerPayeeViewModel, error) {
	return s.get(ctx, profileID, model.PayerPayeeTypePayee, payerPayeeID)
}

func (s *PayerPayeeService) get(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, payerPayeeID string) (model.PayerPayeeViewModel, error) {
	record, err := s.store.Get(ctx, profileID, payerPayeeType, payerPayeeID)
	if err != nil {
		return model.PayerPayeeViewModel{}, err
	}
	return s.enricher.Enrich(ctx, *record)
}

// AutocompletePayers matches payers against a partially typed query.
func (s *PayerPayeeService) AutocompletePayers(ctx context.Context, profileID, query string) ([]model.PayerPayeeViewModel, error) {
	return s.autocomplete(ctx, profileID, model.PayerPayeeTypePayer, query)
}

// AutocompletePayees matches payees against a partially typed query.
func (s *PayerPayeeService) AutocompletePayees(ctx context.Context, profileID, query string) ([]model.PayerPayeeViewModel, error) {
	return s.autocomplete(ctx, profileID, model.PayerPayeeTypePayee, query)
}

func (s *PayerPayeeService) autocomplete(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayeeViewModel, error) {
	records, err := s.store.Autocomplete(ctx, profileID, payerPayeeType, query)
	if err != nil {
		return nil, fmt.Errorf("failed to autocomplete %ss: %w", payerPayeeType, err)
	}
	return s.enricher.EnrichAll(ctx, records)
}

// SuggestPayers ranks payers by historical usage within the context.
func (s *PayerPayeeService) SuggestPayers(ctx context.Context, profileID string, suggestionContext suggest.Context, limit int, enrich bool) ([]model.PayerPayeeViewModel, error) {
	return s.suggestions(ctx, profileID, model.PayerPayeeTypePayer, suggestionContext, limit, enrich)
}

// SuggestPayees ranks payees by historical usage within the context.
func (s *PayerPayeeService) SuggestPayees(ctx context.Context, profileID string, suggestionContext suggest.Context, limit int, enrich bool) ([]model.PayerPayeeViewModel, error) {
	return s.suggestions(ctx, profileID, model.PayerPayeeTypePayee, suggestionContext, limit, enrich)
}

func (s *PayerPayeeService) suggestions(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, suggestionContext suggest.Context, limit int, enrich bool) ([]model.PayerPayeeViewModel, error) {
	records, err := s.ranker.Suggest(ctx, profileID, payerPayeeType, suggestionContext, limit)
	if err != nil {
		return nil, err
	}
	if enrich {
		return s.enricher.EnrichAll(ctx, records)
	}

	// Unenriched suggestions carry only id and name.
	viewModels := make([]model.PayerPayeeViewModel, len(records))
	for i, record := range records {
		viewModels[i] = model.PayerPayeeViewModel{ID: record.ID, Name: record.Name}
	}
	return viewModels, nil
}

// CreatePayer stores a new payer identity and returns its enriched view.
func (s *PayerPayeeService) CreatePayer(ctx context.Context, profileID, name, externalID string) (model.PayerPayeeViewModel, error) {
	return s.create(ctx, profileID, model.PayerPayeeTypePayer, name, externalID)
}

// CreatePayee stores a new payee identity and returns its enriched view.
func (s *PayerPayeeService) CreatePayee(ctx context.Context, profileID, name, externalID string) (model.PayerPayeeViewModel, error) {
	return s.create(ctx, profileID, model.PayerPayeeTypePayee, name, externalID)
}

func (s *PayerPayeeService) create(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, name, externalID string) (model.PayerPayeeViewModel, error) {
	record := model.PayerPayee{
		ID:         uuid.NewString(),
		ProfileID:  profileID,
		Name:       name,
		Type:       payerPayeeType,
		ExternalID: externalID,
	}

	if err := s.store.Create(ctx, record); err != nil {
		return model.PayerPayeeViewModel{}, err
	}

	slog.Info("Created payer/payee",
		"type", payerPayeeType,
		"id", record.ID,
		"name", record.Name)

	return s.enricher.Enrich(ctx, record)
}

// Resolve returns the identity with the given name, creating it on first
// reference. A concurrent create of the same name resolves to the
// winner's record.
func (s *PayerPayeeService) Resolve(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, name string) (*model.PayerPayee, error) {
	if existing, err := s.findByName(ctx, profileID, payerPayeeType, name); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	record := model.PayerPayee{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Name:      name,
		Type:      payerPayeeType,
	}
	err := s.store.Create(ctx, record)
	if errors.Is(err, common.ErrExists) {
		// Lost the race; the winner's record is now readable.
		existing, findErr := s.findByName(ctx, profileID, payerPayeeType, name)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, fmt.Errorf("%s %q reported as existing but %w", payerPayeeType, name, common.ErrNotFound)
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (s *PayerPayeeService) findByName(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, name string) (*model.PayerPayee, error) {
	matches, err := s.store.Find(ctx, profileID, payerPayeeType, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s by name: %w", payerPayeeType, err)
	}
	for i := range matches {
		if matches[i].Name == name {
			return &matches[i], nil
		}
	}
	return nil, nil
}

func bareViewModels(records []model.PayerPayee) []model.PayerPayeeViewModel {
	viewModels := make([]model.PayerPayeeViewModel, len(records))
	for i, record := range records {
		viewModels[i] = model.PayerPayeeViewModel{
			ID:         record.ID,
			Name:       record.Name,
			ExternalID: record.ExternalID,
		}
	}
	return viewModels
}
