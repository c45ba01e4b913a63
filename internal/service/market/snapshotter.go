package market

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

// Snapshotter turns a ticker query into a complete snapshot or a FetchError.
type Snapshotter struct {
	fetcher    Fetcher
	rng        market.Range
	maxSymbols int
	now        func() time.Time
}

// NewSnapshotter wraps fetcher. maxSymbols <= 0 disables the symbol cap.
func NewSnapshotter(fetcher Fetcher, rng market.Range, maxSymbols int) *Snapshotter {
	if !rng.Valid() {
		rng = market.Range1mo
	}
	return &Snapshotter{
		fetcher:    fetcher,
		rng:        rng,
		maxSymbols: maxSymbols,
		now:        time.Now,
	}
}

// Snapshot fetches the query over the default range.
func (s *Snapshotter) Snapshot(ctx context.Context, query string) (*market.Snapshot, error) {
	return s.SnapshotRange(ctx, query, s.rng)
}

// SnapshotRange fetches every symbol of query concurrently. A failure on any
// symbol fails the whole query so callers never see a partial snapshot.
func (s *Snapshotter) SnapshotRange(ctx context.Context, query string, rng market.Range) (*market.Snapshot, error) {
	symbols := ParseSymbols(query)
	if len(symbols) == 0 {
		return nil, &FetchError{Query: query, Err: ErrEmptyQuery}
	}
	if s.maxSymbols > 0 && len(symbols) > s.maxSymbols {
		return nil, &FetchError{Query: query, Err: fmt.Errorf("%w: %d > %d", ErrTooManySymbols, len(symbols), s.maxSymbols)}
	}

	tickers := make([]market.Ticker, len(symbols))
	errs := make([]error, len(symbols))

	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk, err := s.fetchOne(ctx, sym, rng)
			if err != nil {
				errs[i] = err
				return
			}
			tickers[i] = *tk
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			log.Printf("[market] %s fetch failed for %s: %v", s.fetcher.Name(), symbols[i], err)
			return nil, &FetchError{Query: query, Symbol: symbols[i], Err: err}
		}
	}

	return &market.Snapshot{
		Query:     query,
		Symbols:   symbols,
		Range:     rng,
		FetchedAt: s.now().UTC(),
		Tickers:   tickers,
	}, nil
}

func (s *Snapshotter) fetchOne(ctx context.Context, symbol string, rng market.Range) (*market.Ticker, error) {
	tk, err := s.fetcher.Fetch(ctx, symbol, rng)
	if err != nil {
		return nil, err
	}
	if tk == nil {
		return nil, ErrSymbolNotFound
	}
	if tk.History.Len() == 0 {
		return nil, ErrEmptyHistory
	}

	out := *tk
	if out.Symbol == "" {
		out.Symbol = symbol
	}
	out.FillFromHistory()
	return &out, nil
}
