package market

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

const defaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubFetcher reads quotes, company profiles, metrics and daily candles
// from the Finnhub REST API.
type FinnhubFetcher struct {
	client *resty.Client
	now    func() time.Time
}

// NewFinnhubFetcher returns a fetcher authenticated with apiKey.
func NewFinnhubFetcher(apiKey, baseURL string, timeout time.Duration) *FinnhubFetcher {
	if baseURL == "" {
		baseURL = defaultFinnhubBaseURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("X-Finnhub-Token", apiKey)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &FinnhubFetcher{client: client, now: time.Now}
}

func (f *FinnhubFetcher) Name() string { return "finnhub" }

type finnhubQuote struct {
	Current       *float64 `json:"c"`
	Change        *float64 `json:"d"`
	ChangePercent *float64 `json:"dp"`
	Timestamp     int64    `json:"t"`
}

type finnhubProfile struct {
	Name              string   `json:"name"`
	Ticker            string   `json:"ticker"`
	Currency          string   `json:"currency"`
	Exchange          string   `json:"exchange"`
	Industry          string   `json:"finnhubIndustry"`
	Country           string   `json:"country"`
	WebURL            string   `json:"weburl"`
	MarketCapMillions *float64 `json:"marketCapitalization"`
	SharesMillions    *float64 `json:"shareOutstanding"`
}

type finnhubMetrics struct {
	Metric map[string]*float64 `json:"metric"`
}

type finnhubCandles struct {
	Close     []float64 `json:"c"`
	Volume    []float64 `json:"v"`
	Timestamp []int64   `json:"t"`
	Status    string    `json:"s"`
}

// Fetch assembles a ticker from four Finnhub endpoints.
func (f *FinnhubFetcher) Fetch(ctx context.Context, symbol string, rng market.Range) (*market.Ticker, error) {
	var quote finnhubQuote
	if err := f.get(ctx, "/quote", map[string]string{"symbol": symbol}, &quote); err != nil {
		return nil, err
	}
	// Finnhub answers unknown symbols with an all-zero quote.
	if quote.Timestamp == 0 && (quote.Current == nil || *quote.Current == 0) {
		return nil, ErrSymbolNotFound
	}

	var profile finnhubProfile
	if err := f.get(ctx, "/stock/profile2", map[string]string{"symbol": symbol}, &profile); err != nil {
		return nil, err
	}

	var metrics finnhubMetrics
	if err := f.get(ctx, "/stock/metric", map[string]string{"symbol": symbol, "metric": "all"}, &metrics); err != nil {
		return nil, err
	}

	end := f.now()
	var candles finnhubCandles
	err := f.get(ctx, "/stock/candle", map[string]string{
		"symbol":     symbol,
		"resolution": "D",
		"from":       strconv.FormatInt(rng.Start(end).Unix(), 10),
		"to":         strconv.FormatInt(end.Unix(), 10),
	}, &candles)
	if err != nil {
		return nil, err
	}
	if candles.Status != "ok" || len(candles.Close) == 0 {
		return nil, ErrEmptyHistory
	}

	tk := &market.Ticker{
		Symbol:      symbol,
		CompanyName: profile.Name,
		Currency:    profile.Currency,
		Exchange:    profile.Exchange,
		Industry:    profile.Industry,
		Country:     profile.Country,
		Website:     profile.WebURL,

		CurrentPrice: market.FromFloatPtr(quote.Current),
		DailyChange: market.Change{
			Value:      roundedPtr(quote.Change),
			Percentage: roundedPtr(quote.ChangePercent),
		},

		MarketCap:        millions(profile.MarketCapMillions),
		PERatio:          metric(metrics.Metric, "peTTM", "peBasicExclExtraTTM"),
		EarningsPerShare: metric(metrics.Metric, "epsTTM", "epsBasicExclExtraItemsTTM"),
		DividendYield:    metric(metrics.Metric, "dividendYieldIndicatedAnnual"),
		PriceToBook:      metric(metrics.Metric, "pbQuarterly", "pbAnnual"),

		FiftyTwoWeek: market.TradingRange{
			High: metric(metrics.Metric, "52WeekHigh"),
			Low:  metric(metrics.Metric, "52WeekLow"),
		},
		BalanceSheet: market.BalanceSheet{
			BookValuePerShare: metric(metrics.Metric, "bookValuePerShareQuarterly", "bookValuePerShareAnnual"),
			CurrentRatio:      metric(metrics.Metric, "currentRatioQuarterly", "currentRatioAnnual"),
			DebtToEquity:      metric(metrics.Metric, "totalDebt/totalEquityQuarterly", "totalDebt/totalEquityAnnual"),
		},
	}
	if profile.Ticker != "" {
		tk.Symbol = profile.Ticker
	}
	if profile.SharesMillions != nil {
		tk.BalanceSheet.SharesOutstanding = market.Int64(int64(*profile.SharesMillions * 1e6))
	}

	for i, c := range candles.Close {
		if i >= len(candles.Timestamp) {
			break
		}
		var vol int64
		if i < len(candles.Volume) {
			vol = int64(candles.Volume[i])
		}
		tk.History.Append(time.Unix(candles.Timestamp[i], 0).UTC(), decimal.NewFromFloat(c), vol)
	}
	if n := len(candles.Volume); n > 0 {
		tk.Volume = market.Int64(int64(candles.Volume[n-1]))
	}

	return tk, nil
}

func (f *FinnhubFetcher) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, path, err)
	}

	switch {
	case resp.StatusCode() == http.StatusOK:
		return nil
	case resp.StatusCode() == http.StatusNotFound:
		return ErrSymbolNotFound
	default:
		return fmt.Errorf("%w: %s returned %d: %s", ErrUpstream, path, resp.StatusCode(), resp.String())
	}
}

// metric returns the first present key.
func metric(m map[string]*float64, keys ...string) decimal.NullDecimal {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return market.FromFloat(*v)
		}
	}
	return decimal.NullDecimal{}
}

func millions(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return market.Known(decimal.NewFromFloat(*v).Mul(decimal.NewFromInt(1_000_000)).Round(0))
}

func roundedPtr(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return market.Known(decimal.NewFromFloat(*v).Round(2))
}
