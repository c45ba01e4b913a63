package market

import (
	"context"
	"fmt"
	"net/http"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

// YahooFetcher reads quotes and daily bars from Yahoo Finance via finance-go.
type YahooFetcher struct {
	getEquity func(symbol string) (*finance.Equity, error)
	getBars   func(params *chart.Params) ([]*finance.ChartBar, error)
	now       func() time.Time
}

// NewYahooFetcher configures finance-go's shared HTTP client with timeout and
// returns a fetcher backed by it.
func NewYahooFetcher(timeout time.Duration) *YahooFetcher {
	if timeout > 0 {
		finance.SetHTTPClient(&http.Client{Timeout: timeout})
	}
	return &YahooFetcher{
		getEquity: equity.Get,
		getBars:   collectBars,
		now:       time.Now,
	}
}

func (y *YahooFetcher) Name() string { return "yahoo" }

// Fetch loads the equity quote and the daily close series for symbol.
// finance-go decodes quotes into plain floats, so a zero there cannot be told
// apart from a missing field and is reported as absent.
func (y *YahooFetcher) Fetch(ctx context.Context, symbol string, rng market.Range) (*market.Ticker, error) {
	eq, err := callWithContext(ctx, func() (*finance.Equity, error) {
		return y.getEquity(symbol)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: quote %s: %v", ErrUpstream, symbol, err)
	}
	if eq == nil {
		return nil, ErrSymbolNotFound
	}

	end := y.now()
	start := rng.Start(end)
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	bars, err := callWithContext(ctx, func() ([]*finance.ChartBar, error) {
		return y.getBars(params)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: chart %s: %v", ErrUpstream, symbol, err)
	}
	if len(bars) == 0 {
		return nil, ErrEmptyHistory
	}

	return tickerFromEquity(symbol, eq, bars), nil
}

func tickerFromEquity(symbol string, eq *finance.Equity, bars []*finance.ChartBar) *market.Ticker {
	name := eq.LongName
	if name == "" {
		name = eq.ShortName
	}
	if eq.Symbol != "" {
		symbol = eq.Symbol
	}

	tk := &market.Ticker{
		Symbol:      symbol,
		CompanyName: name,
		Currency:    eq.CurrencyID,
		Exchange:    eq.FullExchangeName,

		CurrentPrice: nonZero(eq.RegularMarketPrice),
		DailyChange: market.Change{
			Value:      nonZeroRounded(eq.RegularMarketChange),
			Percentage: nonZeroRounded(eq.RegularMarketChangePercent),
		},

		MarketCap:        nonZeroInt(eq.MarketCap),
		PERatio:          nonZero(eq.TrailingPE),
		ForwardPE:        nonZero(eq.ForwardPE),
		EarningsPerShare: nonZero(eq.EpsTrailingTwelveMonths),
		DividendYield:    nonZero(eq.TrailingAnnualDividendYield),
		PriceToBook:      nonZero(eq.PriceToBook),

		FiftyTwoWeek: market.TradingRange{
			High: nonZero(eq.FiftyTwoWeekHigh),
			Low:  nonZero(eq.FiftyTwoWeekLow),
		},
		BalanceSheet: market.BalanceSheet{
			BookValuePerShare: nonZero(eq.BookValue),
		},
	}
	if eq.RegularMarketVolume > 0 {
		tk.Volume = market.Int64(int64(eq.RegularMarketVolume))
	}
	if eq.SharesOutstanding > 0 {
		tk.BalanceSheet.SharesOutstanding = market.Int64(int64(eq.SharesOutstanding))
	}

	for _, bar := range bars {
		if bar == nil || bar.Close.IsZero() {
			continue
		}
		tk.History.Append(time.Unix(int64(bar.Timestamp), 0).UTC(), bar.Close, int64(bar.Volume))
	}
	return tk
}

func collectBars(params *chart.Params) ([]*finance.ChartBar, error) {
	iter := chart.Get(params)
	bars := make([]*finance.ChartBar, 0, 32)
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// callWithContext runs a blocking call that takes no context and gives up when
// ctx is done. The call itself finishes in the background, bounded by the
// HTTP client timeout.
func callWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.value, r.err
	}
}

func nonZero(f float64) decimal.NullDecimal {
	if f == 0 {
		return decimal.NullDecimal{}
	}
	return market.FromFloat(f)
}

func nonZeroRounded(f float64) decimal.NullDecimal {
	if f == 0 {
		return decimal.NullDecimal{}
	}
	return market.Known(decimal.NewFromFloat(f).Round(2))
}

func nonZeroInt(v int64) decimal.NullDecimal {
	if v == 0 {
		return decimal.NullDecimal{}
	}
	return market.Known(decimal.NewFromInt(v))
}
