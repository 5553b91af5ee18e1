package export

import (
	"encoding/json"
	"fmt"

	"setuplab/internal/backtest"
	"setuplab/internal/store"
)

// StoreEntries serialises rankings for store.SaveRanking, keeping their
// order and scoring each by composite LD
func StoreEntries(rankings []backtest.Ranking) ([]store.RankingEntry, error) {
	entries := make([]store.RankingEntry, 0, len(rankings))
	for _, r := range rankings {
		payload, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", r.Ticker, err)
		}
		entries = append(entries, store.RankingEntry{Ticker: r.Ticker, Score: r.CompositeLD, Payload: payload})
	}
	return entries, nil
}

// FromStore decodes a stored ranking run
func FromStore(run *store.RankingRun) ([]backtest.Ranking, error) {
	out := make([]backtest.Ranking, 0, len(run.Entries))
	for _, e := range run.Entries {
		var r backtest.Ranking
		if err := json.Unmarshal(e.Payload, &r); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", e.Ticker, err)
		}
		out = append(out, r)
	}
	return out, nil
}
