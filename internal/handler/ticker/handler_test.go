package ticker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
	chatservice "github.com/zhouzirui/finbot/backend/internal/service/chat"
	marketservice "github.com/zhouzirui/finbot/backend/internal/service/market"
	"github.com/zhouzirui/finbot/backend/internal/service/session"
)

type stubFetcher struct {
	mu     sync.Mutex
	ranges []market.Range
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) Fetch(_ context.Context, symbol string, rng market.Range) (*market.Ticker, error) {
	f.mu.Lock()
	f.ranges = append(f.ranges, rng)
	f.mu.Unlock()

	switch symbol {
	case "AAPL":
		tk := &market.Ticker{Symbol: "AAPL", CompanyName: "Apple Inc."}
		day := time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC)
		tk.History.Append(day, decimal.RequireFromString("187.5"), 100)
		tk.History.Append(day.AddDate(0, 0, 1), decimal.RequireFromString("189.84"), 200)
		return tk, nil
	case "EMPTY":
		return &market.Ticker{Symbol: "EMPTY"}, nil
	default:
		return nil, marketservice.ErrSymbolNotFound
	}
}

type envelope struct {
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Data json.RawMessage `json:"data"`
}

func setupRouter() (*chi.Mux, *session.Store, *stubFetcher) {
	fetcher := &stubFetcher{}
	store := session.NewStore()
	snapshotter := marketservice.NewSnapshotter(fetcher, market.Range1mo, 5)
	chatSvc := chatservice.NewService(store, snapshotter, nil, chatservice.Config{FetchTimeout: time.Second})
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r, r)
	return r, store, fetcher
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope %q: %v", resp.Body.String(), err)
	}
	return env
}

func TestGetTickerDataMissingSessionID(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/get_ticker_data?tickers=AAPL", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	env := decode(t, resp)
	if env.Status.Message != "Session ID is required" || string(env.Data) != "null" {
		t.Fatalf("unexpected envelope: %+v data=%s", env.Status, env.Data)
	}
}

func TestGetTickerDataMissingTickers(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/get_ticker_data?session_id=s1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetTickerDataStoresSnapshot(t *testing.T) {
	r, store, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/get_ticker_data?session_id=s1&tickers=aapl", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var snap market.Snapshot
	if err := json.Unmarshal(decode(t, resp).Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Tickers) != 1 || snap.Tickers[0].Symbol != "AAPL" {
		t.Fatalf("AAPL missing from %+v", snap.Symbols)
	}
	tk := snap.Tickers[0]
	if tk.CurrentPrice.Decimal.String() != "189.84" {
		t.Fatalf("unexpected current price %s", tk.CurrentPrice.Decimal)
	}

	if _, _, ok := store.Snapshot(context.Background(), "s1"); !ok {
		t.Fatal("snapshot was not stored for the session")
	}
}

func TestGetTickerDataFetchErrorKeepsPreviousSnapshot(t *testing.T) {
	r, store, _ := setupRouter()

	ok := httptest.NewRecorder()
	r.ServeHTTP(ok, httptest.NewRequest(http.MethodGet, "/get_ticker_data?session_id=s1&tickers=AAPL", nil))
	if ok.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", ok.Code)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/get_ticker_data?session_id=s1&tickers=AAPL,NOPE", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if env := decode(t, resp); string(env.Data) != "null" {
		t.Fatalf("expected null data, got %s", env.Data)
	}

	query, _, found := store.Snapshot(context.Background(), "s1")
	if !found || query != "AAPL" {
		t.Fatalf("previous snapshot not retained: query=%q found=%v", query, found)
	}
}

func TestTickerDefaultsToOneYear(t *testing.T) {
	r, store, fetcher := setupRouter()

	payload, _ := json.Marshal(map[string]string{"ticker": "AAPL"})
	req := httptest.NewRequest(http.MethodPost, "/ticker", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(fetcher.ranges) != 1 || fetcher.ranges[0] != market.Range1y {
		t.Fatalf("expected a single 1y fetch, got %v", fetcher.ranges)
	}
	if store.Len() != 0 {
		t.Fatal("ticker lookup must not create sessions")
	}
}

func TestTickerUnknownSymbol(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/ticker", bytes.NewReader([]byte(`{"ticker":"NOPE"}`)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if msg := decode(t, resp).Status.Message; msg != "Ticker 'NOPE' not found or may be delisted." {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestTickerWithoutHistory(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/ticker", bytes.NewReader([]byte(`{"ticker":"EMPTY"}`)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if msg := decode(t, resp).Status.Message; msg != "No historical data available for ticker 'EMPTY'." {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestTickerMissingField(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/ticker", bytes.NewReader([]byte(`{}`)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
