package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgv115/moneymate-engine/internal/common"
	"github.com/jgv115/moneymate-engine/internal/model"
	"github.com/jgv115/moneymate-engine/internal/service"
	"github.com/jgv115/moneymate-engine/internal/suggest"
)

// mockStore is an in-memory PayerPayeeStore with scriptable failures.
type mockStore struct {
	records map[string]model.PayerPayee

	createErr  error
	createdIDs []string
}

func newMockStore(records ...model.PayerPayee) *mockStore {
	store := &mockStore{records: make(map[string]model.PayerPayee)}
	for _, record := range records {
		store.records[record.ID] = record
	}
	return store
}

func (m *mockStore) Create(_ context.Context, record model.PayerPayee) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.records {
		if existing.ProfileID == record.ProfileID && existing.Type == record.Type &&
			existing.Name == record.Name && existing.ExternalID == record.ExternalID {
			return fmt.Errorf("%s with name %q %w", record.Type, record.Name, common.ErrExists)
		}
	}
	m.records[record.ID] = record
	m.createdIDs = append(m.createdIDs, record.ID)
	return nil
}

func (m *mockStore) Put(_ context.Context, record model.PayerPayee) error {
	m.records[record.ID] = record
	return nil
}

func (m *mockStore) Get(_ context.Context, profileID string, payerPayeeType model.PayerPayeeType, payerPayeeID string) (*model.PayerPayee, error) {
	record, ok := m.records[payerPayeeID]
	if !ok || record.ProfileID != profileID || record.Type != payerPayeeType {
		return nil, fmt.Errorf("%s %s %w", payerPayeeType, payerPayeeID, common.ErrNotFound)
	}
	return &record, nil
}

func (m *mockStore) List(_ context.Context, profileID string, payerPayeeType model.PayerPayeeType, _ service.Pagination) ([]model.PayerPayee, error) {
	return m.matching(profileID, payerPayeeType, func(model.PayerPayee) bool { return true }), nil
}

func (m *mockStore) Find(_ context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error) {
	return m.matching(profileID, payerPayeeType, func(record model.PayerPayee) bool {
		return record.Name == query
	}), nil
}

func (m *mockStore) Autocomplete(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error) {
	return m.Find(ctx, profileID, payerPayeeType, query)
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) matching(profileID string, payerPayeeType model.PayerPayeeType, keep func(model.PayerPayee) bool) []model.PayerPayee {
	var matches []model.PayerPayee
	for _, record := range m.records {
		if record.ProfileID == profileID && record.Type == payerPayeeType && keep(record) {
			matches = append(matches, record)
		}
	}
	return matches
}

// mockRanker returns a fixed ordering.
type mockRanker struct {
	suggestions []model.PayerPayee
	err         error
}

func (m *mockRanker) Suggest(_ context.Context, _ string, _ model.PayerPayeeType, _ suggest.Context, _ int) ([]model.PayerPayee, error) {
	return m.suggestions, m.err
}

// mockEnricher marks every record it touches so tests can tell enriched
// output from bare output.
type mockEnricher struct {
	err error
}

func (m *mockEnricher) Enrich(_ context.Context, record model.PayerPayee) (model.PayerPayeeViewModel, error) {
	if m.err != nil {
		return model.PayerPayeeViewModel{}, m.err
	}
	return model.PayerPayeeViewModel{
		ID:         record.ID,
		Name:       record.Name,
		ExternalID: record.ExternalID,
		Address:    "enriched address",
	}, nil
}

func (m *mockEnricher) EnrichAll(ctx context.Context, records []model.PayerPayee) ([]model.PayerPayeeViewModel, error) {
	viewModels := make([]model.PayerPayeeViewModel, 0, len(records))
	for _, record := range records {
		vm, err := m.Enrich(ctx, record)
		if err != nil {
			return nil, err
		}
		viewModels = append(viewModels, vm)
	}
	return viewModels, nil
}

func payee(id, name string) model.PayerPayee {
	return model.PayerPayee{
		ID:        id,
		ProfileID: "profile1",
		Name:      name,
		Type:      model.PayerPayeeTypePayee,
	}
}

func TestPayerPayeeService_List(t *testing.T) {
	record := payee("pp-1", "Coles")
	record.ExternalID = "place-1"
	svc := New(newMockStore(record), &mockRanker{}, &mockEnricher{})
	ctx := context.Background()

	t.Run("bare by default", func(t *testing.T) {
		viewModels, err := svc.ListPayees(ctx, "profile1", service.Pagination{}, false)
		require.NoError(t, err)
		require.Len(t, viewModels, 1)
		assert.Equal(t, "Coles", viewModels[0].Name)
		assert.Equal(t, "place-1", viewModels[0].ExternalID)
		assert.Empty(t, viewModels[0].Address)
	})

	t.Run("enriched on request", func(t *testing.T) {
		viewModels, err := svc.ListPayees(ctx, "profile1", service.Pagination{}, true)
		require.NoError(t, err)
		require.Len(t, viewModels, 1)
		assert.Equal(t, "enriched address", viewModels[0].Address)
	})

	t.Run("payers are separate", func(t *testing.T) {
		viewModels, err := svc.ListPayers(ctx, "profile1", service.Pagination{}, false)
		require.NoError(t, err)
		assert.Empty(t, viewModels)
	})
}

func TestPayerPayeeService_Get(t *testing.T) {
	svc := New(newMockStore(payee("pp-1", "Coles")), &mockRanker{}, &mockEnricher{})
	ctx := context.Background()

	t.Run("always enriched", func(t *testing.T) {
		vm, err := svc.GetPayee(ctx, "profile1", "pp-1")
		require.NoError(t, err)
		assert.Equal(t, "enriched address", vm.Address)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := svc.GetPayee(ctx, "profile1", "missing")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("enrichment failure surfaces", func(t *testing.T) {
		enrichErr := errors.New("provider down")
		failing := New(newMockStore(payee("pp-1", "Coles")), &mockRanker{}, &mockEnricher{err: enrichErr})
		_, err := failing.GetPayee(ctx, "profile1", "pp-1")
		assert.ErrorIs(t, err, enrichErr)
	})
}

func TestPayerPayeeService_Autocomplete(t *testing.T) {
	svc := New(newMockStore(payee("pp-1", "Coles")), &mockRanker{}, &mockEnricher{})

	viewModels, err := svc.AutocompletePayees(context.Background(), "profile1", "Coles")
	require.NoError(t, err)
	require.Len(t, viewModels, 1)
	assert.Equal(t, "enriched address", viewModels[0].Address)
}

func TestPayerPayeeService_Suggestions(t *testing.T) {
	ranked := []model.PayerPayee{payee("pp-2", "Woolworths"), payee("pp-1", "Coles")}
	svc := New(newMockStore(), &mockRanker{suggestions: ranked}, &mockEnricher{})
	ctx := context.Background()

	t.Run("bare suggestions carry only id and name", func(t *testing.T) {
		viewModels, err := svc.SuggestPayees(ctx, "profile1", suggest.Context{Kind: suggest.KindGeneral}, 0, false)
		require.NoError(t, err)
		require.Len(t, viewModels, 2)
		assert.Equal(t, "pp-2", viewModels[0].ID)
		assert.Equal(t, "Woolworths", viewModels[0].Name)
		assert.Empty(t, viewModels[0].Address)
		assert.Empty(t, viewModels[0].ExternalID)
	})

	t.Run("enriched on request", func(t *testing.T) {
		viewModels, err := svc.SuggestPayees(ctx, "profile1", suggest.Context{Kind: suggest.KindGeneral}, 0, true)
		require.NoError(t, err)
		require.Len(t, viewModels, 2)
		assert.Equal(t, "enriched address", viewModels[0].Address)
	})

	t.Run("ranker failure surfaces", func(t *testing.T) {
		rankErr := errors.New("history unavailable")
		failing := New(newMockStore(), &mockRanker{err: rankErr}, &mockEnricher{})
		_, err := failing.SuggestPayees(ctx, "profile1", suggest.Context{Kind: suggest.KindGeneral}, 0, false)
		assert.ErrorIs(t, err, rankErr)
	})
}

func TestPayerPayeeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns an id and enriches", func(t *testing.T) {
		store := newMockStore()
		svc := New(store, &mockRanker{}, &mockEnricher{})

		vm, err := svc.CreatePayee(ctx, "profile1", "Coles", "place-1")
		require.NoError(t, err)
		assert.NotEmpty(t, vm.ID)
		assert.Equal(t, "Coles", vm.Name)
		assert.Equal(t, "enriched address", vm.Address)
		require.Len(t, store.createdIDs, 1)
	})

	t.Run("duplicate surfaces ErrExists", func(t *testing.T) {
		store := newMockStore()
		svc := New(store, &mockRanker{}, &mockEnricher{})

		_, err := svc.CreatePayee(ctx, "profile1", "Coles", "place-1")
		require.NoError(t, err)
		_, err = svc.CreatePayee(ctx, "profile1", "Coles", "place-1")
		assert.ErrorIs(t, err, common.ErrExists)
	})
}

func TestPayerPayeeService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns existing record", func(t *testing.T) {
		existing := payee("pp-1", "Coles")
		store := newMockStore(existing)
		svc := New(store, &mockRanker{}, &mockEnricher{})

		record, err := svc.Resolve(ctx, "profile1", model.PayerPayeeTypePayee, "Coles")
		require.NoError(t, err)
		assert.Equal(t, "pp-1", record.ID)
		assert.Empty(t, store.createdIDs, "resolve must not create when a match exists")
	})

	t.Run("creates on first reference", func(t *testing.T) {
		store := newMockStore()
		svc := New(store, &mockRanker{}, &mockEnricher{})

		record, err := svc.Resolve(ctx, "profile1", model.PayerPayeeTypePayee, "Coles")
		require.NoError(t, err)
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "Coles", record.Name)
		assert.Equal(t, model.PayerPayeeTypePayee, record.Type)
		require.Len(t, store.createdIDs, 1)
	})

	t.Run("repeated resolves converge on one identity", func(t *testing.T) {
		store := newMockStore()
		svc := New(store, &mockRanker{}, &mockEnricher{})

		first, err := svc.Resolve(ctx, "profile1", model.PayerPayeeTypePayee, "Coles")
		require.NoError(t, err)
		second, err := svc.Resolve(ctx, "profile1", model.PayerPayeeTypePayee, "Coles")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("lost race re-reads the winner", func(t *testing.T) {
		winner := payee("pp-winner", "Coles")
		store := newMockStore(winner)
		// Force the create path even though the record is findable: the
		// store reports ErrExists as a concurrent writer would.
		store.createErr = fmt.Errorf("payee %w", common.ErrExists)
		svc := New(&raceStore{mockStore: store}, &mockRanker{}, &mockEnricher{})

		record, err := svc.Resolve(ctx, "profile1", model.PayerPayeeTypePayee, "Coles")
		require.NoError(t, err)
		assert.Equal(t, "pp-winner", record.ID)
	})
}

// raceStore simulates a concurrent create winning between the initial
// find (which sees nothing) and the create call.
type raceStore struct {
	*mockStore
	finds int
}

func (r *raceStore) Find(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, query string) ([]model.PayerPayee, error) {
	r.finds++
	if r.finds == 1 {
		return nil, nil
	}
	return r.mockStore.Find(ctx, profileID, payerPayeeType, query)
}
