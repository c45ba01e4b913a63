// Package digest renders a market snapshot as the plain-text block injected
// into every analyst prompt.
package digest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

// Missing is printed for every field the upstream did not report.
const Missing = "N/A"

// Format returns a fixed-section digest of snap. It never fails; a nil or empty
// snapshot yields an explicit "no data" block.
func Format(snap *market.Snapshot) string {
	var b strings.Builder

	if snap == nil || len(snap.Tickers) == 0 {
		b.WriteString("No ticker data available.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Query: %s\n", text(snap.Query))
	fmt.Fprintf(&b, "Symbols: %s\n", strings.Join(snap.Symbols, ", "))
	if !snap.FetchedAt.IsZero() {
		fmt.Fprintf(&b, "Fetched at: %s\n", snap.FetchedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}

	for _, tk := range snap.Tickers {
		b.WriteString("\n")
		writeTicker(&b, tk, snap.Range)
	}
	return b.String()
}

func writeTicker(b *strings.Builder, tk market.Ticker, rng market.Range) {
	fmt.Fprintf(b, "=== %s ===\n", text(tk.Symbol))

	b.WriteString("Identity:\n")
	line(b, "symbol", text(tk.Symbol))
	line(b, "company_name", text(tk.CompanyName))
	line(b, "currency", text(tk.Currency))
	line(b, "exchange", text(tk.Exchange))
	line(b, "sector", text(tk.Sector))
	line(b, "industry", text(tk.Industry))
	line(b, "country", text(tk.Country))
	line(b, "website", text(tk.Website))

	b.WriteString("Price:\n")
	line(b, "current_price", num(tk.CurrentPrice))
	line(b, "daily_change", num(tk.DailyChange.Value))
	line(b, "daily_change_percent", num(tk.DailyChange.Percentage))

	b.WriteString("Valuation:\n")
	line(b, "market_cap", num(tk.MarketCap))
	line(b, "volume", integer(tk.Volume))
	line(b, "pe_ratio", num(tk.PERatio))
	line(b, "forward_pe", num(tk.ForwardPE))
	line(b, "earnings_per_share", num(tk.EarningsPerShare))
	line(b, "dividend_yield", num(tk.DividendYield))
	line(b, "price_to_book", num(tk.PriceToBook))

	b.WriteString("Trading range:\n")
	line(b, "52_week_high", num(tk.FiftyTwoWeek.High))
	line(b, "52_week_low", num(tk.FiftyTwoWeek.Low))

	b.WriteString("Balance sheet:\n")
	line(b, "book_value_per_share", num(tk.BalanceSheet.BookValuePerShare))
	line(b, "shares_outstanding", integer(tk.BalanceSheet.SharesOutstanding))
	line(b, "current_ratio", num(tk.BalanceSheet.CurrentRatio))
	line(b, "debt_to_equity", num(tk.BalanceSheet.DebtToEquity))

	if rng == "" {
		rng = market.Range1mo
	}
	fmt.Fprintf(b, "Historical data (%s, %d sessions):\n", rng, tk.History.Len())
	line(b, "dates", "["+strings.Join(tk.History.Dates, ", ")+"]")
	line(b, "prices", "["+joinDecimals(tk.History.Prices)+"]")
	line(b, "volumes", "["+joinInts(tk.History.Volumes)+"]")
}

func line(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "- %s: %s\n", key, value)
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return Missing
	}
	return s
}

func num(d decimal.NullDecimal) string {
	if !d.Valid {
		return Missing
	}
	return d.Decimal.String()
}

func integer(v *int64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatInt(*v, 10)
}

func joinDecimals(values []decimal.Decimal) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func joinInts(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ", ")
}
