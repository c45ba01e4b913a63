package market

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, matching what clients already parse.
	decimal.MarshalJSONWithoutQuotes = true
}

// Range is a trailing history window expressed the way Yahoo names chart ranges.
type Range string

const (
	Range5d  Range = "5d"
	Range1mo Range = "1mo"
	Range3mo Range = "3mo"
	Range6mo Range = "6mo"
	Range1y  Range = "1y"
)

// Valid reports whether r is a supported range.
func (r Range) Valid() bool {
	switch r {
	case Range5d, Range1mo, Range3mo, Range6mo, Range1y:
		return true
	}
	return false
}

// Start returns the first instant covered by the window ending at end.
func (r Range) Start(end time.Time) time.Time {
	switch r {
	case Range5d:
		return end.AddDate(0, 0, -5)
	case Range3mo:
		return end.AddDate(0, -3, 0)
	case Range6mo:
		return end.AddDate(0, -6, 0)
	case Range1y:
		return end.AddDate(-1, 0, 0)
	default:
		return end.AddDate(0, -1, 0)
	}
}

// Snapshot is the normalized result of one ticker query.
type Snapshot struct {
	Query     string    `json:"query"`
	Symbols   []string  `json:"symbols"`
	Range     Range     `json:"range"`
	FetchedAt time.Time `json:"fetched_at"`
	Tickers   []Ticker  `json:"tickers"`
}

// Ticker holds the data for a single symbol. Every number is optional and
// encodes as null when the upstream did not report it.
type Ticker struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Currency    string `json:"currency"`
	Exchange    string `json:"exchange"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Country     string `json:"country"`
	Website     string `json:"website"`

	CurrentPrice decimal.NullDecimal `json:"current_price"`
	DailyChange  Change              `json:"daily_change"`

	MarketCap        decimal.NullDecimal `json:"market_cap"`
	Volume           *int64              `json:"volume"`
	PERatio          decimal.NullDecimal `json:"pe_ratio"`
	ForwardPE        decimal.NullDecimal `json:"forward_pe"`
	EarningsPerShare decimal.NullDecimal `json:"earnings_per_share"`
	DividendYield    decimal.NullDecimal `json:"dividend_yield"`
	PriceToBook      decimal.NullDecimal `json:"price_to_book"`

	FiftyTwoWeek TradingRange `json:"52_week"`
	BalanceSheet BalanceSheet `json:"balance_sheet"`
	History      Series       `json:"historical_data"`
}

// Change is a day-over-day move.
type Change struct {
	Value      decimal.NullDecimal `json:"value"`
	Percentage decimal.NullDecimal `json:"percentage"`
}

// TradingRange is a high/low band.
type TradingRange struct {
	High decimal.NullDecimal `json:"high"`
	Low  decimal.NullDecimal `json:"low"`
}

// BalanceSheet carries the headline balance-sheet figures.
type BalanceSheet struct {
	BookValuePerShare decimal.NullDecimal `json:"book_value_per_share"`
	SharesOutstanding *int64              `json:"shares_outstanding"`
	CurrentRatio      decimal.NullDecimal `json:"current_ratio"`
	DebtToEquity      decimal.NullDecimal `json:"debt_to_equity"`
}

// Series is a daily close series kept as parallel lists, oldest first.
type Series struct {
	Dates   []string          `json:"dates"`
	Prices  []decimal.Decimal `json:"prices"`
	Volumes []int64           `json:"volumes"`
}

// Len returns the number of bars in the series.
func (s Series) Len() int {
	return len(s.Prices)
}

// Append adds one bar. Prices are rounded to cents.
func (s *Series) Append(day time.Time, price decimal.Decimal, volume int64) {
	s.Dates = append(s.Dates, day.Format("2006-01-02"))
	s.Prices = append(s.Prices, price.Round(2))
	s.Volumes = append(s.Volumes, volume)
}

// FillFromHistory derives the current price and daily change from the series
// when the upstream quote did not report them.
func (t *Ticker) FillFromHistory() {
	n := t.History.Len()
	if n == 0 {
		return
	}
	last := t.History.Prices[n-1]
	if !t.CurrentPrice.Valid {
		t.CurrentPrice = Known(last)
	}
	if n < 2 || t.DailyChange.Value.Valid {
		return
	}
	prev := t.History.Prices[n-2]
	delta := last.Sub(prev)
	t.DailyChange.Value = Known(delta.Round(2))
	if !prev.IsZero() {
		t.DailyChange.Percentage = Known(delta.Div(prev).Mul(decimal.NewFromInt(100)).Round(2))
	}
}

// Known wraps d as a present value.
func Known(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// FromFloat wraps f as a present value.
func FromFloat(f float64) decimal.NullDecimal {
	return Known(decimal.NewFromFloat(f))
}

// FromFloatPtr returns an absent value for nil.
func FromFloatPtr(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return FromFloat(*f)
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
