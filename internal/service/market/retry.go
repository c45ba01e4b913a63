package market

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

// Retrying retries transient upstream failures with exponential backoff.
// Unknown symbols and empty histories are returned immediately.
type Retrying struct {
	F          Fetcher
	MaxRetries uint64

	// newBackOff is replaceable in tests.
	newBackOff func() backoff.BackOff
}

// NewRetrying wraps f with up to maxRetries extra attempts.
func NewRetrying(f Fetcher, maxRetries int) *Retrying {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrying{
		F:          f,
		MaxRetries: uint64(maxRetries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 300 * time.Millisecond
			b.MaxInterval = 3 * time.Second
			return b
		},
	}
}

func (r *Retrying) Name() string { return r.F.Name() }

func (r *Retrying) Fetch(ctx context.Context, symbol string, rng market.Range) (*market.Ticker, error) {
	var (
		result  *market.Ticker
		attempt int
	)

	operation := func() error {
		attempt++
		tk, err := r.F.Fetch(ctx, symbol, rng)
		if err != nil {
			if permanent(err) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			log.Printf("[market] %s attempt %d for %s failed: %v", r.F.Name(), attempt, symbol, err)
			return err
		}
		result = tk
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.MaxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return result, nil
}
