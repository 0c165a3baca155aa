package suggest

import (
	"context"
	"fmt"
	"sort"

	"github.com/jgv115/moneymate-engine/internal/model"
)

// DefaultLimit caps a suggestion result when the caller gives no limit.
const DefaultLimit = 20

// History supplies per-identity transaction counts for a context.
type History interface {
	CountByPayerPayee(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, suggestionContext Context) (map[string]int, error)
}

// Store resolves identity ids into full records.
type Store interface {
	Get(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, payerPayeeID string) (*model.PayerPayee, error)
}

// Ranker orders payers or payees by descending historical usage.
type Ranker struct {
	history History
	store   Store
}

// NewRanker creates a Ranker over the given history and store.
func NewRanker(history History, store Store) *Ranker {
	return &Ranker{history: history, store: store}
}

// Suggest returns up to limit identities of the given role, ordered by
// decreasing transaction count within the suggestion context. Ties are
// broken by ascending identity id so repeated calls over identical data
// return identical orderings. An empty history yields an empty slice.
func (r *Ranker) Suggest(ctx context.Context, profileID string, payerPayeeType model.PayerPayeeType, suggestionContext Context, limit int) ([]model.PayerPayee, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	counts, err := r.history.CountByPayerPayee(ctx, profileID, payerPayeeType, suggestionContext)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions for suggestions: %w", err)
	}
	if len(counts) == 0 {
		return []model.PayerPayee{}, nil
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})

	if len(ids) > limit {
		ids = ids[:limit]
	}

	suggestions := make([]model.PayerPayee, 0, len(ids))
	for _, id := range ids {
		record, err := r.store.Get(ctx, profileID, payerPayeeType, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve suggested %s %s: %w", payerPayeeType, id, err)
		}
		suggestions = append(suggestions, *record)
	}

	return suggestions, nil
}
