package ratelimit

import (
	"context"
	"sync"
	"time"

	"remitcompare/internal/provider"
	"remitcompare/internal/quote"
)

// MinInterval wraps an adapter and enforces a minimum time between calls.
// Concurrent calls wait until the interval has elapsed since the last call,
// or return early if the context is canceled.
type MinInterval struct {
	A        provider.Adapter
	Interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func (m *MinInterval) Name() string { return m.A.Name() }

func (m *MinInterval) FetchQuote(ctx context.Context, req quote.Request) (quote.Quote, error) {
	if m.Interval > 0 {
		// reserve a slot under the lock so concurrent callers serialize;
		// a canceled waiter still consumes its slot
		m.mu.Lock()
		now := time.Now()
		next := m.last.Add(m.Interval)
		if next.Before(now) {
			next = now
		}
		m.last = next
		m.mu.Unlock()
		if wait := time.Until(next); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return quote.Quote{}, ctx.Err()
			case <-t.C:
			}
		}
	}
	return m.A.FetchQuote(ctx, req)
}
