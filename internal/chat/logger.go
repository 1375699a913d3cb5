package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Conversation retention. Logs are kept for monitoring abuse of the budget,
// not analytics, but the retention requirement is five years.
const conversationRetention = 5 * 365 * 24 * time.Hour

const (
	conversationKeyPrefix = "namematch:conv:"
	conversationIndexKey  = "namematch:conv:index"
)

// LoggedMessage is one archived turn.
type LoggedMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Intent    string `json:"intent,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ConversationRecord is the archived conversation envelope. The visitor's
// address is stored only as a salted hash.
type ConversationRecord struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"session_id"`
	AnonymizedIP string          `json:"anonymized_ip"`
	StartTime    int64           `json:"start_time"`
	LastActivity int64           `json:"last_activity"`
	Messages     []LoggedMessage `json:"messages"`
}

// NewConversationID mints a sortable conversation identifier.
func NewConversationID() string {
	return fmt.Sprintf("conv_%d_%s", time.Now().UnixMilli(), uuid.NewString())
}

// NewSessionID mints a budget-session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ConversationLogger archives conversations to Redis. A nil logger (no
// Redis configured) is valid and drops everything.
type ConversationLogger struct {
	pool *redis.Pool
	salt string
}

// NewConversationLogger creates a logger over a shared Redis pool. The salt
// keys the IP anonymization; it should be stable across restarts so one
// visitor hashes consistently.
func NewConversationLogger(pool *redis.Pool, salt string) *ConversationLogger {
	if salt == "" {
		salt = uuid.NewString()
		log.Warn().Msg("ip salt not configured, using a runtime-generated salt; hashes will not be stable across restarts")
	}
	return &ConversationLogger{pool: pool, salt: salt}
}

// anonymizeIP hashes the address with the salt and truncates. The raw
// address never reaches Redis.
func (l *ConversationLogger) anonymizeIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + l.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// Start opens a conversation record.
func (l *ConversationLogger) Start(ctx context.Context, conversationID, sessionID, ip string) error {
	if l == nil {
		return nil
	}

	now := time.Now().UnixMilli()
	record := ConversationRecord{
		ID:           conversationID,
		SessionID:    sessionID,
		AnonymizedIP: l.anonymizeIP(ip),
		StartTime:    now,
		LastActivity: now,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	key := conversationKeyPrefix + conversationID
	if _, err := conn.Do("SET", key, data, "EX", int(conversationRetention.Seconds())); err != nil {
		return fmt.Errorf("store conversation: %w", err)
	}
	if _, err := conn.Do("ZADD", conversationIndexKey, now, conversationID); err != nil {
		return fmt.Errorf("index conversation: %w", err)
	}
	return nil
}

// Append adds one message to an existing conversation. A missing record is
// recreated rather than erroring: losing a log entry should never fail the
// chat request it belongs to.
func (l *ConversationLogger) Append(ctx context.Context, conversationID string, msg LoggedMessage) error {
	if l == nil {
		return nil
	}

	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	key := conversationKeyPrefix + conversationID
	var record ConversationRecord
	data, err := redis.Bytes(conn.Do("GET", key))
	switch {
	case err == redis.ErrNil:
		record = ConversationRecord{ID: conversationID, StartTime: time.Now().UnixMilli()}
	case err != nil:
		return fmt.Errorf("load conversation: %w", err)
	default:
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("parse conversation: %w", err)
		}
	}

	record.Messages = append(record.Messages, msg)
	record.LastActivity = time.Now().UnixMilli()

	out, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	if _, err := conn.Do("SET", key, out, "EX", int(conversationRetention.Seconds())); err != nil {
		return fmt.Errorf("store conversation: %w", err)
	}
	return nil
}
