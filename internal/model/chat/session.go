package chat

import "github.com/zhouzirui/finbot/backend/internal/model/market"

// Session is a consistent view of one session's state.
type Session struct {
	Query    string
	Snapshot *market.Snapshot
	History  []Turn

	// Generation changes whenever the session is recreated after cleanup or expiry.
	Generation uint64
}

// HasSnapshot reports whether ticker data has been stored for the session.
func (s Session) HasSnapshot() bool {
	return s.Snapshot != nil
}
