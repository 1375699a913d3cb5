// Package budget enforces the chatbot's rate limits and spend caps: per-IP
// request limits, a global circuit breaker, per-session turn/token/duration
// limits, and daily plus rolling-month dollar caps.
package budget

import (
	"context"
	"sync"
	"time"
)

// ledger day-key retention. A day's spend only matters for the rolling
// 30-day window, so keys can expire shortly after falling out of it.
const ledgerRetention = 31 * 24 * time.Hour

// Ledger tracks LLM spend across restarts. Implementations must be safe for
// concurrent use.
type Ledger interface {
	// AddSpend records cost (in dollars) against the given day.
	AddSpend(ctx context.Context, day time.Time, cost float64) error

	// DaySpend returns the total recorded for the given day.
	DaySpend(ctx context.Context, day time.Time) (float64, error)

	// WindowSpend returns the total recorded for the `days` days ending at
	// (and including) the given day.
	WindowSpend(ctx context.Context, day time.Time, days int) (float64, error)
}

// dayKey collapses a timestamp to its UTC calendar day.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MemoryLedger is the in-process fallback ledger, used when no Redis address
// is configured. Spend resets on restart, which under-counts; the caps still
// bound the worst case within any single process lifetime.
type MemoryLedger struct {
	spend map[string]float64
	mu    sync.Mutex
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{spend: make(map[string]float64)}
}

// AddSpend records cost against the given day.
func (l *MemoryLedger) AddSpend(_ context.Context, day time.Time, cost float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spend[dayKey(day)] += cost
	l.pruneLocked(day)
	return nil
}

// DaySpend returns the total recorded for the given day.
func (l *MemoryLedger) DaySpend(_ context.Context, day time.Time) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spend[dayKey(day)], nil
}

// WindowSpend sums the trailing window ending at the given day.
func (l *MemoryLedger) WindowSpend(_ context.Context, day time.Time, days int) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total float64
	for i := 0; i < days; i++ {
		total += l.spend[dayKey(day.AddDate(0, 0, -i))]
	}
	return total, nil
}

// pruneLocked drops days older than the retention horizon. Caller holds mu.
func (l *MemoryLedger) pruneLocked(now time.Time) {
	horizon := dayKey(now.Add(-ledgerRetention))
	for key := range l.spend {
		if key < horizon {
			delete(l.spend, key)
		}
	}
}
