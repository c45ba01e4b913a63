package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

var (
	ErrSymbolNotFound = errors.New("ticker not found or may be delisted")
	ErrEmptyHistory   = errors.New("no historical data available")
	ErrUpstream       = errors.New("market data provider unavailable")
	ErrTooManySymbols = errors.New("too many symbols in query")
	ErrEmptyQuery     = errors.New("no ticker symbols given")
)

// Fetcher retrieves normalized data for one symbol over a trailing range.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, symbol string, rng market.Range) (*market.Ticker, error)
}

// FetchError reports why a ticker query could not be turned into a snapshot.
type FetchError struct {
	Query  string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("unable to fetch stock data for %s: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("unable to fetch stock data for %s: %s: %v", e.Query, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// permanent reports whether retrying cannot change the outcome.
func permanent(err error) bool {
	return errors.Is(err, ErrSymbolNotFound) || errors.Is(err, ErrEmptyHistory)
}

// ParseSymbols splits a comma separated query into upper-case, de-duplicated symbols.
func ParseSymbols(query string) []string {
	parts := strings.Split(query, ",")
	symbols := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		sym := strings.ToUpper(strings.TrimSpace(p))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	return symbols
}
