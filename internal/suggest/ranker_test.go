package suggest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgv115/moneymate-engine/internal/common"
	"github.com/jgv115/moneymate-engine/internal/model"
)

type mockHistory struct {
	counts map[string]int
	err    error

	// lastContext records the context the ranker passed through.
	lastContext Context
}

func (m *mockHistory) CountByPayerPayee(_ context.Context, _ string, _ model.PayerPayeeType, suggestionContext Context) (map[string]int, error) {
	m.lastContext = suggestionContext
	return m.counts, m.err
}

type mockStore struct {
	records map[string]model.PayerPayee
}

func (m *mockStore) Get(_ context.Context, _ string, _ model.PayerPayeeType, payerPayeeID string) (*model.PayerPayee, error) {
	record, ok := m.records[payerPayeeID]
	if !ok {
		return nil, fmt.Errorf("%s %w", payerPayeeID, common.ErrNotFound)
	}
	return &record, nil
}

func newMockStore(ids ...string) *mockStore {
	records := make(map[string]model.PayerPayee, len(ids))
	for _, id := range ids {
		records[id] = model.PayerPayee{
			ID:        id,
			ProfileID: "profile1",
			Name:      "Payee " + id,
			Type:      model.PayerPayeeTypePayee,
		}
	}
	return &mockStore{records: records}
}

func TestRanker_Suggest_OrdersByCount(t *testing.T) {
	history := &mockHistory{counts: map[string]int{"a": 10, "b": 8, "c": 12}}
	ranker := NewRanker(history, newMockStore("a", "b", "c"))

	suggestions, err := ranker.Suggest(context.Background(), "profile1", model.PayerPayeeTypePayee, Context{Kind: KindGeneral}, 0)
	require.NoError(t, err)
	require.Len(t, suggestions, 3)
	assert.Equal(t, "c", suggestions[0].ID)
	assert.Equal(t, "a", suggestions[1].ID)
	assert.Equal(t, "b", suggestions[2].ID)
}

func TestRanker_Suggest_TiesBreakByID(t *testing.T) {
	history := &mockHistory{counts: map[string]int{"b": 5, "a": 5, "c": 5}}
	ranker := NewRanker(history, newMockStore("a", "b", "c"))

	// Repeated calls over identical data must return identical orderings.
	for i := 0; i < 5; i++ {
		suggestions, err := ranker.Suggest(context.Background(), "profile1", model.PayerPayeeTypePayee, Context{Kind: KindGeneral}, 0)
		require.NoError(t, err)
		require.Len(t, suggestions, 3)
		assert.Equal(t, "a", suggestions[0].ID)
		assert.Equal(t, "b", suggestions[1].ID)
		assert.Equal(t, "c", suggestions[2].ID)
	}
}

func TestRanker_Suggest_AppliesLimit(t *testing.T) {
	counts := make(map[string]int)
	ids := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("pp-%02d", i)
		counts[id] = 30 - i
		ids = append(ids, id)
	}
	history := &mockHistory{counts: counts}
	ranker := NewRanker(history, newMockStore(ids...))

	t.Run("explicit limit", func(t *testing.T) {
		suggestions, err := ranker.Suggest(context.Background(), "profile1", model.PayerPayeeTypePayee, Context{Kind: KindGeneral}, 3)
		require.NoError(t, err)
		require.Len(t, suggestions, 3)
		assert.Equal(t, "pp-00", suggestions[0].ID)
	})

	t.Run("zero limit uses the default", func(t *testing.T) {
		suggestions, err := ranker.Suggest(context.Background(), "profile1", model.PayerPayeeTypePayee, Context{Kind: KindGeneral}, 0)
		require.NoError(t, err)
		assert.Len(t, suggestions, DefaultLimit)
	})
}

func TestRanker_Suggest_EmptyHistory(t *testing.T) {
	history := &mockHistory{counts: map[string]int{}}
	ranker := NewRanker(history, newMockStore())

	suggestions, err := ranker.Suggest(context.Background(), "profile1", model.PayerPayeeTypePayee, Context{Kind: KindGeneral}, 0)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestRanker_Suggest_PropagatesContext(t *testing.T) {
	history := &mockHistory{counts: map[string]int{}}
	ranker := NewRanker(history, newMockStore())

	suggestionContext := Context{Kind: KindSubcategory, Category: "Groceries", Subcategory: "Food"}
	_, err := ranker.Suggest(context.Background(), "profile1", model.PayerPayeeTypePayee, suggestionContext, 0)
	require.NoError(t, err)
	assert.Equal(t, suggestionContext, history.lastContext)
}

func TestRanker_Suggest_HistoryError(t *testing.T) {
	historyErr := errors.New("history unavailable")
	ranker := NewRanker(&mockHistory{err: historyErr}, newMockStore())

	_, err := ranker.Suggest(context.Background(), "profile1", model.PayerPayeeTypePayee, Context{Kind: KindGeneral}, 0)
	assert.ErrorIs(t, err, historyErr)
}

func TestNewContext(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		category    string
		subcategory string
		wantErr     bool
	}{
		{name: "general", kind: KindGeneral},
		{name: "empty kind defaults to general", kind: ""},
		{name: "general rejects category", kind: KindGeneral, category: "Groceries", wantErr: true},
		{name: "category", kind: KindCategory, category: "Groceries"},
		{name: "category requires a value", kind: KindCategory, wantErr: true},
		{name: "subcategory", kind: KindSubcategory, category: "Groceries", subcategory: "Food"},
		{name: "subcategory requires both values", kind: KindSubcategory, category: "Groceries", wantErr: true},
		{name: "unknown kind", kind: "vendor", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggestionContext, err := NewContext(tt.kind, tt.category, tt.subcategory)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidContext)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.category, suggestionContext.Category)
			assert.Equal(t, tt.subcategory, suggestionContext.Subcategory)
		})
	}
}

func TestInferContext(t *testing.T) {
	t.Run("both empty is general", func(t *testing.T) {
		suggestionContext, err := InferContext("", "")
		require.NoError(t, err)
		assert.Equal(t, KindGeneral, suggestionContext.Kind)
	})

	t.Run("category alone", func(t *testing.T) {
		suggestionContext, err := InferContext("Groceries", "")
		require.NoError(t, err)
		assert.Equal(t, KindCategory, suggestionContext.Kind)
	})

	t.Run("both narrow to subcategory", func(t *testing.T) {
		suggestionContext, err := InferContext("Groceries", "Food")
		require.NoError(t, err)
		assert.Equal(t, KindSubcategory, suggestionContext.Kind)
	})

	t.Run("subcategory without category is invalid", func(t *testing.T) {
		_, err := InferContext("", "Food")
		assert.ErrorIs(t, err, common.ErrInvalidContext)
	})
}
