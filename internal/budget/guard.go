package budget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Admission errors. Handlers map all of these to 429; the message tells the
// client which limit it hit.
var (
	ErrIPRateLimited  = errors.New("too many requests from this address")
	ErrCircuitOpen    = errors.New("service is over its hourly request budget")
	ErrSessionTurns   = errors.New("session turn limit reached")
	ErrSessionTokens  = errors.New("session token limit reached")
	ErrSessionExpired = errors.New("session has expired")
	ErrDailyCap       = errors.New("daily spend cap reached")
	ErrMonthlyCap     = errors.New("monthly spend cap reached")
)

// Config holds the guard's limits and caps.
type Config struct {
	PerIPPerMinute int // requests per IP per minute
	GlobalPerHour  int // circuit breaker across all clients

	SessionMaxTurns        int
	SessionMaxInputTokens  int
	SessionMaxOutputTokens int
	SessionMaxDuration     time.Duration

	DailyCapUSD     float64
	MonthlyCapUSD   float64
	MonthWindowDays int
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		PerIPPerMinute:         10,
		GlobalPerHour:          100,
		SessionMaxTurns:        12,
		SessionMaxInputTokens:  3000,
		SessionMaxOutputTokens: 1500,
		SessionMaxDuration:     8 * time.Minute,
		DailyCapUSD:            5,
		MonthlyCapUSD:          100,
		MonthWindowDays:        30,
	}
}

// window is a fixed-window request counter.
type window struct {
	start time.Time
	count int
}

// sessionState tracks one conversation's consumption.
type sessionState struct {
	startedAt    time.Time
	lastSeen     time.Time
	turns        int
	inputTokens  int
	outputTokens int
}

// Guard enforces the chatbot budget. Request and session counters live in
// memory behind a mutex; dollar spend goes through the Ledger so it can be
// shared and persisted.
type Guard struct {
	config   Config
	ledger   Ledger
	now      func() time.Time
	ips      map[string]*window
	sessions map[string]*sessionState
	global   window
	mu       sync.Mutex
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithClock replaces the guard's time source for tests.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// NewGuard creates a budget guard over the given ledger.
func NewGuard(config Config, ledger Ledger, opts ...GuardOption) *Guard {
	g := &Guard{
		config:   config,
		ledger:   ledger,
		now:      time.Now,
		ips:      make(map[string]*window),
		sessions: make(map[string]*sessionState),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Admit checks every limit that can be known before the LLM call: per-IP
// rate, circuit breaker, session turn/token/duration limits, and the spend
// caps with the estimated input cost included. The first failed check wins;
// nothing is consumed on rejection except the request counters themselves.
func (g *Guard) Admit(ctx context.Context, ip, sessionID string, inputTokens int) error {
	now := g.now()

	if err := g.admitCounters(now, ip, sessionID, inputTokens); err != nil {
		return err
	}

	return g.checkSpendCaps(ctx, now, Cost(inputTokens, 0))
}

// admitCounters applies the in-memory checks under one lock acquisition.
func (g *Guard) admitCounters(now time.Time, ip, sessionID string, inputTokens int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Circuit breaker before the per-IP check: when the whole service is
	// over budget, individual clients should not burn their windows.
	if g.global.start.IsZero() || now.Sub(g.global.start) >= time.Hour {
		g.global = window{start: now}
	}
	if g.global.count >= g.config.GlobalPerHour {
		return ErrCircuitOpen
	}

	w := g.ips[ip]
	if w == nil || now.Sub(w.start) >= time.Minute {
		w = &window{start: now}
		g.ips[ip] = w
	}
	if w.count >= g.config.PerIPPerMinute {
		return ErrIPRateLimited
	}

	sess := g.sessions[sessionID]
	if sess == nil {
		sess = &sessionState{startedAt: now}
		g.sessions[sessionID] = sess
		g.pruneSessionsLocked(now)
	}
	if now.Sub(sess.startedAt) >= g.config.SessionMaxDuration {
		return ErrSessionExpired
	}
	if sess.turns >= g.config.SessionMaxTurns {
		return ErrSessionTurns
	}
	if sess.inputTokens+inputTokens > g.config.SessionMaxInputTokens ||
		sess.outputTokens >= g.config.SessionMaxOutputTokens {
		return ErrSessionTokens
	}

	g.global.count++
	w.count++
	sess.turns++
	sess.inputTokens += inputTokens
	sess.lastSeen = now
	return nil
}

// checkSpendCaps verifies the day and rolling-month caps would survive the
// projected cost.
func (g *Guard) checkSpendCaps(ctx context.Context, now time.Time, projected float64) error {
	day, err := g.ledger.DaySpend(ctx, now)
	if err != nil {
		return fmt.Errorf("read day spend: %w", err)
	}
	if day+projected > g.config.DailyCapUSD {
		return ErrDailyCap
	}

	month, err := g.ledger.WindowSpend(ctx, now, g.config.MonthWindowDays)
	if err != nil {
		return fmt.Errorf("read month spend: %w", err)
	}
	if month+projected > g.config.MonthlyCapUSD {
		return ErrMonthlyCap
	}
	return nil
}

// RecordUsage books the actual token consumption of a completed LLM call
// against the session and the spend ledger.
func (g *Guard) RecordUsage(ctx context.Context, sessionID string, inputTokens, outputTokens int) error {
	now := g.now()

	g.mu.Lock()
	if sess := g.sessions[sessionID]; sess != nil {
		sess.outputTokens += outputTokens
		sess.lastSeen = now
	}
	g.mu.Unlock()

	if err := g.ledger.AddSpend(ctx, now, Cost(inputTokens, outputTokens)); err != nil {
		return fmt.Errorf("record spend: %w", err)
	}
	return nil
}

// pruneSessionsLocked drops sessions past their duration limit. Caller holds
// mu. Runs on session creation, which bounds the map by active traffic.
func (g *Guard) pruneSessionsLocked(now time.Time) {
	for id, sess := range g.sessions {
		if now.Sub(sess.startedAt) >= g.config.SessionMaxDuration {
			delete(g.sessions, id)
		}
	}
}

// UsageStats is the admin view of the guard's state.
type UsageStats struct {
	DaySpendUSD    float64 `json:"day_spend_usd"`
	MonthSpendUSD  float64 `json:"month_spend_usd"`
	DailyCapUSD    float64 `json:"daily_cap_usd"`
	MonthlyCapUSD  float64 `json:"monthly_cap_usd"`
	HourlyRequests int     `json:"hourly_requests"`
	ActiveSessions int     `json:"active_sessions"`
	CircuitOpen    bool    `json:"circuit_open"`
}

// Stats reports current consumption against the caps.
func (g *Guard) Stats(ctx context.Context) (*UsageStats, error) {
	now := g.now()

	g.mu.Lock()
	hourly := g.global.count
	if !g.global.start.IsZero() && now.Sub(g.global.start) >= time.Hour {
		hourly = 0
	}
	active := 0
	for _, sess := range g.sessions {
		if now.Sub(sess.startedAt) < g.config.SessionMaxDuration {
			active++
		}
	}
	g.mu.Unlock()

	day, err := g.ledger.DaySpend(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("read day spend: %w", err)
	}
	month, err := g.ledger.WindowSpend(ctx, now, g.config.MonthWindowDays)
	if err != nil {
		return nil, fmt.Errorf("read month spend: %w", err)
	}

	return &UsageStats{
		DaySpendUSD:    day,
		MonthSpendUSD:  month,
		DailyCapUSD:    g.config.DailyCapUSD,
		MonthlyCapUSD:  g.config.MonthlyCapUSD,
		HourlyRequests: hourly,
		ActiveSessions: active,
		CircuitOpen:    hourly >= g.config.GlobalPerHour,
	}, nil
}
