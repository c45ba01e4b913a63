package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/finbot/backend/internal/config"
	"github.com/zhouzirui/finbot/backend/internal/handler"
	"github.com/zhouzirui/finbot/backend/internal/service/ai"
	"github.com/zhouzirui/finbot/backend/internal/service/chat"
	"github.com/zhouzirui/finbot/backend/internal/service/market"
	"github.com/zhouzirui/finbot/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Market data: provider -> retry -> cache -> per-query snapshotter
	var fetcher market.Fetcher
	switch cfg.Market.Provider {
	case config.MarketFinnhub:
		fetcher = market.NewFinnhubFetcher(cfg.Market.FinnhubAPIKey, cfg.Market.FinnhubURL, cfg.Market.Timeout)
	default:
		fetcher = market.NewYahooFetcher(cfg.Market.Timeout)
	}
	fetcher = market.NewRetrying(fetcher, cfg.Market.MaxRetries)
	if cfg.Market.CacheTTL > 0 {
		fetcher = market.NewCached(fetcher, cfg.Market.CacheTTL, cfg.Market.CacheMaxItems)
	}
	snapshotter := market.NewSnapshotter(fetcher, cfg.Market.HistoryRange, cfg.Market.MaxSymbols)
	log.Printf("market data provider: %s (range %s)", fetcher.Name(), cfg.Market.HistoryRange)

	// Session store with background expiry
	store := session.NewStore(
		session.WithIdleTTL(cfg.Session.IdleTTL),
		session.WithMaxSessions(cfg.Session.MaxSessions),
	)
	go store.Run(ctx, cfg.Session.SweepInterval)

	// Initialize AI service
	var completer chat.Completer
	if cfg.AI.Enabled() {
		aiService, err := newAIService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality, /chat will answer 500")
		} else {
			completer = aiService
			log.Printf("AI service initialized successfully (provider %s)", cfg.AI.Provider)
		}
	} else {
		log.Printf("%s credentials not configured, skipping AI initialization", cfg.AI.Provider)
	}

	chatService := chat.NewService(store, snapshotter, completer, chat.Config{
		FetchTimeout: cfg.Market.Timeout,
		LLMTimeout:   cfg.AI.Timeout,
	})

	router := handler.NewRouter(chatService, handler.Options{
		Auth:      cfg.Auth,
		CORS:      cfg.CORS,
		RateLimit: cfg.RateLimit,
	})

	startServer(ctx, cfg.Server, router)
}

func newAIService(ctx context.Context, cfg config.AIConfig) (*ai.Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, err
	}
	return ai.NewService(ctx, chatModel, cfg.HistoryLimit)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("FinBot backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
