package session

import (
	"container/list"
	"context"
	"errors"
	"hash/fnv"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zhouzirui/finbot/backend/internal/model/chat"
	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

var (
	ErrEmptySessionID = errors.New("session id is required")
	ErrSessionGone    = errors.New("session was cleaned up or expired")
)

const defaultShards = 32

// Store keeps per-session ticker snapshots and transcripts in memory.
//
// Sessions are spread over independently locked shards so that traffic on one
// session never waits on another shard. Every operation on a given session runs
// under its shard lock, which makes them linearizable per session. The lock is
// never held across I/O. Stored snapshots are shared and must not be mutated.
type Store struct {
	shards  []*shard
	idleTTL time.Duration
	max     int
	now     func() time.Time
	gen     atomic.Uint64
}

type shard struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	lru      *list.List // front is most recently used
	capacity int
}

type entry struct {
	id         string
	query      string
	snapshot   *market.Snapshot
	history    []chat.Turn
	touchedAt  time.Time
	generation uint64
}

// Option customizes a Store.
type Option func(*Store)

// WithIdleTTL expires sessions untouched for longer than ttl. Zero disables expiry.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Store) { s.idleTTL = ttl }
}

// WithMaxSessions caps the number of live sessions, evicting the least recently
// used ones. The cap is enforced per shard, so the effective limit is rounded up
// to a multiple of the shard count. Zero means unbounded.
func WithMaxSessions(n int) Option {
	return func(s *Store) { s.max = n }
}

// WithShards sets the number of lock shards.
func WithShards(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		shards: make([]*shard, defaultShards),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.max > 0 && s.max < len(s.shards) {
		s.shards = s.shards[:s.max]
	}
	capacity := 0
	if s.max > 0 {
		capacity = (s.max + len(s.shards) - 1) / len(s.shards)
	}
	for i := range s.shards {
		s.shards[i] = &shard{
			entries:  make(map[string]*list.Element),
			lru:      list.New(),
			capacity: capacity,
		}
	}
	return s
}

// PutSnapshot replaces the session's snapshot, creating the session if needed.
func (s *Store) PutSnapshot(_ context.Context, sessionID, query string, snapshot *market.Snapshot) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.getOrCreate(sh, sessionID)
	e.query = query
	e.snapshot = snapshot
	return nil
}

// Snapshot returns the query and snapshot last stored for the session.
func (s *Store) Snapshot(_ context.Context, sessionID string) (string, *market.Snapshot, bool) {
	if sessionID == "" {
		return "", nil, false
	}

	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.lookup(sh, sessionID)
	if e == nil || e.snapshot == nil {
		return "", nil, false
	}
	return e.query, e.snapshot, true
}

// AppendTurn appends turns to the transcript in order, creating the session if needed.
func (s *Store) AppendTurn(_ context.Context, sessionID string, turns ...chat.Turn) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.getOrCreate(sh, sessionID)
	e.history = append(e.history, turns...)
	return nil
}

// CommitTurns appends turns only while the session generation still matches.
// It reports ErrSessionGone when the session was removed since it was loaded.
func (s *Store) CommitTurns(_ context.Context, sessionID string, generation uint64, turns ...chat.Turn) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.lookup(sh, sessionID)
	if e == nil || e.generation != generation {
		return ErrSessionGone
	}
	e.history = append(e.history, turns...)
	return nil
}

// History returns a copy of the transcript, possibly empty.
func (s *Store) History(_ context.Context, sessionID string) []chat.Turn {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.lookup(sh, sessionID)
	if e == nil {
		return []chat.Turn{}
	}
	return cloneTurns(e.history)
}

// Load returns snapshot, transcript and generation read atomically.
func (s *Store) Load(_ context.Context, sessionID string) (chat.Session, bool) {
	if sessionID == "" {
		return chat.Session{}, false
	}

	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.lookup(sh, sessionID)
	if e == nil {
		return chat.Session{}, false
	}
	return chat.Session{
		Query:      e.query,
		Snapshot:   e.snapshot,
		History:    cloneTurns(e.history),
		Generation: e.generation,
	}, true
}

// Cleanup removes the session. Removing an unknown session is a no-op.
func (s *Store) Cleanup(_ context.Context, sessionID string) {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if el, ok := sh.entries[sessionID]; ok {
		sh.remove(el)
	}
}

// Len returns the number of live sessions, including expired ones not yet swept.
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.entries)
		sh.mu.Unlock()
	}
	return total
}

// Sweep drops every session idle for longer than the TTL and returns how many it removed.
func (s *Store) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}

	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		now := s.now()
		// The back of the list holds the least recently used entries.
		for el := sh.lru.Back(); el != nil; {
			prev := el.Prev()
			if !s.expired(el.Value.(*entry), now) {
				break
			}
			sh.remove(el)
			removed++
			el = prev
		}
		sh.mu.Unlock()
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("[session] swept %d idle sessions, %d remain", n, s.Len())
			}
		}
	}
}

func (s *Store) shardFor(sessionID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// lookup returns the live entry and marks it used. Callers hold sh.mu.
func (s *Store) lookup(sh *shard, sessionID string) *entry {
	el, ok := sh.entries[sessionID]
	if !ok {
		return nil
	}

	now := s.now()
	e := el.Value.(*entry)
	if s.expired(e, now) {
		sh.remove(el)
		return nil
	}

	e.touchedAt = now
	sh.lru.MoveToFront(el)
	return e
}

// getOrCreate returns the live entry, creating it when absent. Callers hold sh.mu.
func (s *Store) getOrCreate(sh *shard, sessionID string) *entry {
	if e := s.lookup(sh, sessionID); e != nil {
		return e
	}

	now := s.now()
	e := &entry{
		id:         sessionID,
		touchedAt:  now,
		generation: s.gen.Add(1),
	}
	sh.entries[sessionID] = sh.lru.PushFront(e)

	for sh.capacity > 0 && len(sh.entries) > sh.capacity {
		oldest := sh.lru.Back()
		if oldest == nil || oldest.Value.(*entry) == e {
			break
		}
		log.Printf("[session] evicting least recently used session=%s", oldest.Value.(*entry).id)
		sh.remove(oldest)
	}
	return e
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.idleTTL > 0 && now.Sub(e.touchedAt) > s.idleTTL
}

func (sh *shard) remove(el *list.Element) {
	e := el.Value.(*entry)
	delete(sh.entries, e.id)
	sh.lru.Remove(el)
}

func cloneTurns(turns []chat.Turn) []chat.Turn {
	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied
}
