// Package stats summarizes the token registry.
package stats

import (
	"context"
	"time"

	statsmodels "io.winapps.pushrelay/internal/models/stats"
)

// Counter is satisfied by tokens.Store.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type Aggregator struct {
	store Counter
	now   func() time.Time
}

func NewAggregator(store Counter) *Aggregator {
	return &Aggregator{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Compute reads the record count once and reports it as both the user and the
// token total, since a user holds at most one token.
func (a *Aggregator) Compute(ctx context.Context) (*statsmodels.Stats, error) {
	n, err := a.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &statsmodels.Stats{
		TotalUsers:  n,
		TotalTokens: n,
		Timestamp:   a.now(),
	}, nil
}
