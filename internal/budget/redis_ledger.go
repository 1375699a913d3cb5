package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// spendKeyPrefix namespaces the ledger's keys in a shared Redis.
const spendKeyPrefix = "namematch:spend:"

// RedisLedger persists spend in Redis so the caps survive restarts and are
// shared across replicas. One key per UTC day, expired once it falls out of
// the rolling window.
type RedisLedger struct {
	pool *redis.Pool
}

// NewRedisLedger creates a ledger over the given address and verifies the
// connection with a PING.
func NewRedisLedger(addr string) (*RedisLedger, error) {
	pool := &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 4 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(2*time.Second),
				redis.DialWriteTimeout(2*time.Second),
			)
		},
	}

	conn, err := pool.GetContext(context.Background())
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisLedger{pool: pool}, nil
}

// Close releases the connection pool.
func (l *RedisLedger) Close() error {
	return l.pool.Close()
}

// Pool exposes the underlying pool for components that share the connection
// (the conversation log).
func (l *RedisLedger) Pool() *redis.Pool {
	return l.pool
}

// AddSpend records cost against the day's key and refreshes its expiry.
func (l *RedisLedger) AddSpend(ctx context.Context, day time.Time, cost float64) error {
	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	key := spendKeyPrefix + dayKey(day)
	if _, err := conn.Do("INCRBYFLOAT", key, cost); err != nil {
		return fmt.Errorf("incr spend: %w", err)
	}
	if _, err := conn.Do("EXPIRE", key, int(ledgerRetention.Seconds())); err != nil {
		return fmt.Errorf("expire spend key: %w", err)
	}
	return nil
}

// DaySpend returns the total recorded for the given day.
func (l *RedisLedger) DaySpend(ctx context.Context, day time.Time) (float64, error) {
	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	total, err := redis.Float64(conn.Do("GET", spendKeyPrefix+dayKey(day)))
	if errors.Is(err, redis.ErrNil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get spend: %w", err)
	}
	return total, nil
}

// WindowSpend sums the day keys of the trailing window with a single MGET.
func (l *RedisLedger) WindowSpend(ctx context.Context, day time.Time, days int) (float64, error) {
	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	keys := make([]interface{}, days)
	for i := 0; i < days; i++ {
		keys[i] = spendKeyPrefix + dayKey(day.AddDate(0, 0, -i))
	}

	values, err := redis.Values(conn.Do("MGET", keys...))
	if err != nil {
		return 0, fmt.Errorf("mget spend: %w", err)
	}

	var total float64
	for _, v := range values {
		if v == nil {
			continue
		}
		f, err := redis.Float64(v, nil)
		if err != nil {
			return 0, fmt.Errorf("parse spend value: %w", err)
		}
		total += f
	}
	return total, nil
}
