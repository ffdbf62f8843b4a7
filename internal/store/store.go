// Package store implements PostgreSQL persistence for conversations,
// messages, and the order/payment records consulted by responder tools.
package store

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Message roles. Agent messages carry the agent type of the responder
// that produced them; user messages never do.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Conversation is a chat thread owned by a user.
type Conversation struct {
	ID        uuid.UUID
	UserID    string
	CreatedAt time.Time
}

// Message is one transcript entry. AgentType is nil for user messages.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           string
	Content        string
	AgentType      *string
	CreatedAt      time.Time
}

// ConversationWithMessages is a conversation plus its transcript,
// ascending by creation time.
type ConversationWithMessages struct {
	Conversation
	Messages []Message
}

// Order is a read-only record consulted by the order responder's tools.
type Order struct {
	ID        uuid.UUID
	UserID    string
	Status    string
	Tracking  *string
	CreatedAt time.Time
}

// Payment is a read-only record consulted by the billing responder's tool.
type Payment struct {
	ID        uuid.UUID
	UserID    string
	Amount    int
	Status    string
	CreatedAt time.Time
}

// Store provides typed CRUD over the shared connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store. A nil logger falls back to slog.Default().
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}
