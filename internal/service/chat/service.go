package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/finbot/backend/internal/model/chat"
	"github.com/zhouzirui/finbot/backend/internal/model/market"
	"github.com/zhouzirui/finbot/backend/internal/service/ai"
	"github.com/zhouzirui/finbot/backend/internal/service/session"
)

//go:generate mockgen -package=chat_test -destination=mock_service_test.go -source=service.go

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoSnapshot      = errors.New("no ticker data found for this session, please call /get_ticker_data first")
	ErrLLMUnavailable  = errors.New("error processing chat request")
)

// Completer produces the assistant reply for a prompt given the prior transcript.
type Completer interface {
	Complete(ctx context.Context, sessionID string, history []chat.Turn, prompt string) (string, error)
}

// SnapshotFetcher turns a ticker query into a market snapshot.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context, query string) (*market.Snapshot, error)
	SnapshotRange(ctx context.Context, query string, rng market.Range) (*market.Snapshot, error)
}

// Store is the session state the orchestrator reads and writes.
type Store interface {
	PutSnapshot(ctx context.Context, sessionID, query string, snapshot *market.Snapshot) error
	Load(ctx context.Context, sessionID string) (chat.Session, bool)
	CommitTurns(ctx context.Context, sessionID string, generation uint64, turns ...chat.Turn) error
	Cleanup(ctx context.Context, sessionID string)
}

// Reply is the outcome of one successful chat turn.
type Reply struct {
	Response string
	Query    string
	Snapshot *market.Snapshot
}

// Config bounds the external calls made on behalf of a session.
type Config struct {
	FetchTimeout time.Duration
	LLMTimeout   time.Duration
}

// Service binds ticker snapshots, transcripts and the LLM per session.
type Service struct {
	store     Store
	fetcher   SnapshotFetcher
	completer Completer
	cfg       Config
	now       func() time.Time
}

// NewService wires the orchestrator. A nil completer makes every Ask fail with
// ErrLLMUnavailable while the fetch flow keeps working.
func NewService(store Store, fetcher SnapshotFetcher, completer Completer, cfg Config) *Service {
	return &Service{
		store:     store,
		fetcher:   fetcher,
		completer: completer,
		cfg:       cfg,
		now:       time.Now,
	}
}

// FetchAndStore fetches a snapshot for query and makes it the session's current one.
// On failure the previously stored snapshot is left untouched.
func (s *Service) FetchAndStore(ctx context.Context, sessionID, query string) (*market.Snapshot, error) {
	sessionID = strings.TrimSpace(sessionID)
	query = strings.TrimSpace(query)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	if query == "" {
		return nil, fmt.Errorf("%w: tickers are required", ErrInvalidArgument)
	}

	fetchCtx, cancel := withTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	snap, err := s.fetcher.Snapshot(fetchCtx, query)
	if err != nil {
		return nil, err
	}

	if err := s.store.PutSnapshot(ctx, sessionID, query, snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	log.Printf("[chat] stored snapshot for session=%s, symbols=%v", sessionID, snap.Symbols)
	return snap, nil
}

// Lookup fetches a one-off snapshot over rng without touching any session.
func (s *Service) Lookup(ctx context.Context, query string, rng market.Range) (*market.Snapshot, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidArgument)
	}
	if !rng.Valid() {
		return nil, fmt.Errorf("%w: unsupported range %q", ErrInvalidArgument, rng)
	}

	fetchCtx, cancel := withTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	return s.fetcher.SnapshotRange(fetchCtx, query, rng)
}

// Ask answers message grounded in the session's current snapshot and records
// the exchange in the transcript.
func (s *Service) Ask(ctx context.Context, sessionID, message string) (*Reply, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidArgument)
	}

	state, ok := s.store.Load(ctx, sessionID)
	if !ok || !state.HasSnapshot() {
		return nil, ErrNoSnapshot
	}

	if s.completer == nil {
		return nil, ErrLLMUnavailable
	}

	grounding := ai.BuildGrounding(state.Query, state.Snapshot)
	prompt := ai.BuildPrompt(grounding, message)

	llmCtx, cancel := withTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	response, err := s.completer.Complete(llmCtx, sessionID, state.History, prompt)
	if err != nil {
		log.Printf("[chat] completion failed for session=%s: %v", sessionID, err)
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}

	now := s.now().UTC()
	turns := []chat.Turn{
		{ID: uuid.NewString(), Role: chat.RoleUser, Content: message, CreatedAt: now},
		{ID: uuid.NewString(), Role: chat.RoleAssistant, Content: response, CreatedAt: now},
	}
	if err := s.store.CommitTurns(ctx, sessionID, state.Generation, turns...); err != nil {
		if !errors.Is(err, session.ErrSessionGone) {
			return nil, err
		}
		log.Printf("[chat] session=%s cleaned up during completion, reply not recorded", sessionID)
	}

	return &Reply{
		Response: response,
		Query:    state.Query,
		Snapshot: state.Snapshot,
	}, nil
}

// Cleanup drops everything stored for the session. Unknown sessions are ignored.
func (s *Service) Cleanup(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	s.store.Cleanup(ctx, sessionID)
	log.Printf("[chat] cleaned up session=%s", sessionID)
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
