package budget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a controllable time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGuard(cfg Config) (*Guard, *fakeClock, *MemoryLedger) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	ledger := NewMemoryLedger()
	return NewGuard(cfg, ledger, WithClock(clock.Now)), clock, ledger
}

func TestGuard_PerIPWindow(t *testing.T) {
	g, clock, _ := newTestGuard(DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, g.Admit(ctx, "1.2.3.4", "s1", 10), "request %d", i)
	}
	assert.ErrorIs(t, g.Admit(ctx, "1.2.3.4", "s1", 10), ErrIPRateLimited)

	// A different address is unaffected.
	assert.NoError(t, g.Admit(ctx, "5.6.7.8", "s2", 10))

	// The window resets after a minute.
	clock.advance(time.Minute)
	assert.NoError(t, g.Admit(ctx, "1.2.3.4", "s1", 10))
}

func TestGuard_CircuitBreaker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerIPPerMinute = 1000
	cfg.SessionMaxTurns = 1000
	cfg.SessionMaxInputTokens = 1 << 20
	g, clock, _ := newTestGuard(cfg)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, g.Admit(ctx, "1.2.3.4", "s1", 1))
	}
	// Circuit opens for every client, even fresh ones.
	assert.ErrorIs(t, g.Admit(ctx, "1.2.3.4", "s1", 1), ErrCircuitOpen)
	assert.ErrorIs(t, g.Admit(ctx, "9.9.9.9", "s2", 1), ErrCircuitOpen)

	clock.advance(time.Hour)
	assert.NoError(t, g.Admit(ctx, "1.2.3.4", "s3", 1))
}

func TestGuard_SessionTurnLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerIPPerMinute = 1000
	g, clock, _ := newTestGuard(cfg)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if i%5 == 4 {
			clock.advance(time.Minute) // stay under the per-IP window
		}
		require.NoError(t, g.Admit(ctx, "1.2.3.4", "s1", 10), "turn %d", i)
	}
	assert.ErrorIs(t, g.Admit(ctx, "1.2.3.4", "s1", 10), ErrSessionTurns)

	// A new session starts fresh.
	assert.NoError(t, g.Admit(ctx, "1.2.3.4", "s2", 10))
}

func TestGuard_SessionTokenLimits(t *testing.T) {
	g, _, _ := newTestGuard(DefaultConfig())
	ctx := context.Background()

	require.NoError(t, g.Admit(ctx, "1.2.3.4", "s1", 2900))
	// 2900 + 200 blows the 3000 input budget.
	assert.ErrorIs(t, g.Admit(ctx, "1.2.3.4", "s1", 200), ErrSessionTokens)

	// Output tokens count too: once recorded past the cap, the session is
	// done sending.
	require.NoError(t, g.RecordUsage(ctx, "s1", 2900, 1500))
	assert.ErrorIs(t, g.Admit(ctx, "1.2.3.4", "s1", 10), ErrSessionTokens)
}

func TestGuard_SessionExpiry(t *testing.T) {
	g, clock, _ := newTestGuard(DefaultConfig())
	ctx := context.Background()

	require.NoError(t, g.Admit(ctx, "1.2.3.4", "s1", 10))
	clock.advance(8 * time.Minute)
	assert.ErrorIs(t, g.Admit(ctx, "1.2.3.4", "s1", 10), ErrSessionExpired)
}

func TestGuard_DailyCap(t *testing.T) {
	g, clock, ledger := newTestGuard(DefaultConfig())
	ctx := context.Background()

	require.NoError(t, ledger.AddSpend(ctx, clock.Now(), 4.999999))
	assert.ErrorIs(t, g.Admit(ctx, "1.2.3.4", "s1", 1000), ErrDailyCap)

	// The next day the cap resets but the month window still counts it.
	clock.advance(24 * time.Hour)
	assert.NoError(t, g.Admit(ctx, "1.2.3.4", "s2", 1000))
}

func TestGuard_MonthlyCap(t *testing.T) {
	g, clock, ledger := newTestGuard(DefaultConfig())
	ctx := context.Background()

	// Spread spend over the window so no single day trips the daily cap.
	for i := 0; i < 25; i++ {
		require.NoError(t, ledger.AddSpend(ctx, clock.Now().AddDate(0, 0, -i), 4))
	}
	assert.ErrorIs(t, g.Admit(ctx, "1.2.3.4", "s1", 1000), ErrMonthlyCap)

	// Old spend rolls off the 30-day window.
	clock.advance(10 * 24 * time.Hour)
	assert.NoError(t, g.Admit(ctx, "1.2.3.4", "s2", 1000))
}

func TestGuard_RecordUsageBooksSpend(t *testing.T) {
	g, clock, ledger := newTestGuard(DefaultConfig())
	ctx := context.Background()

	require.NoError(t, g.Admit(ctx, "1.2.3.4", "s1", 1000))
	require.NoError(t, g.RecordUsage(ctx, "s1", 1000, 500))

	day, err := ledger.DaySpend(ctx, clock.Now())
	require.NoError(t, err)
	assert.InDelta(t, Cost(1000, 500), day, 1e-9)
}

func TestGuard_Stats(t *testing.T) {
	g, _, ledger := newTestGuard(DefaultConfig())
	ctx := context.Background()

	require.NoError(t, g.Admit(ctx, "1.2.3.4", "s1", 100))
	require.NoError(t, ledger.AddSpend(ctx, g.now(), 1.25))

	stats, err := g.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.HourlyRequests)
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.InDelta(t, 1.25, stats.DaySpendUSD, 1e-9)
	assert.False(t, stats.CircuitOpen)
}

func TestCost(t *testing.T) {
	assert.InDelta(t, 3.0, Cost(1_000_000, 0), 1e-9)
	assert.InDelta(t, 15.0, Cost(0, 1_000_000), 1e-9)
	assert.InDelta(t, 0.0, Cost(0, 0), 1e-9)
}

func TestEstimator_FallbackCount(t *testing.T) {
	e := &Estimator{} // no codec: byte heuristic
	assert.Equal(t, 0, e.Count(""))
	assert.Equal(t, 1, e.Count("hi"))
	assert.Equal(t, 5, e.Count("twenty characters её"))
}

func TestMemoryLedger_WindowSpend(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.AddSpend(ctx, day, 1))
	require.NoError(t, l.AddSpend(ctx, day.AddDate(0, 0, -29), 2))
	require.NoError(t, l.AddSpend(ctx, day.AddDate(0, 0, -30), 4)) // outside

	got, err := l.WindowSpend(ctx, day, 30)
	require.NoError(t, err)
	assert.InDelta(t, 3, got, 1e-9)
}
