package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateConversation creates a new conversation for the given user.
func (s *Store) CreateConversation(ctx context.Context, userID string) (*Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (user_id) VALUES ($1)
		 RETURNING id, user_id, created_at`,
		userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return &c, nil
}

// AddMessage appends a message to a conversation. agentType must be nil
// for user messages and the producing responder's intent for agent messages.
func (s *Store) AddMessage(ctx context.Context, conversationID uuid.UUID, role, content string, agentType *string) (*Message, error) {
	var m Message
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, role, content, agent_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, conversation_id, role, content, agent_type, created_at`,
		conversationID, role, content, agentType,
	).Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.AgentType, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("adding message: %w", err)
	}
	return &m, nil
}

// Messages returns a conversation's transcript ascending by creation time.
func (s *Store) Messages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, agent_type, created_at
		 FROM messages
		 WHERE conversation_id = $1
		 ORDER BY created_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ConversationsByUser lists a user's conversations without messages.
func (s *Store) ConversationsByUser(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, created_at
		 FROM conversations
		 WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	conversations := []Conversation{}
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading conversations: %w", err)
	}
	return conversations, nil
}

// ConversationsWithMessages lists a user's conversations, each with its
// transcript ascending by creation time.
func (s *Store) ConversationsWithMessages(ctx context.Context, userID string) ([]ConversationWithMessages, error) {
	conversations, err := s.ConversationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return []ConversationWithMessages{}, nil
	}

	ids := make([]uuid.UUID, len(conversations))
	for i, c := range conversations {
		ids[i] = c.ID
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, agent_type, created_at
		 FROM messages
		 WHERE conversation_id = ANY($1)
		 ORDER BY created_at ASC`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	byConversation := make(map[uuid.UUID][]Message, len(conversations))
	for _, m := range messages {
		byConversation[m.ConversationID] = append(byConversation[m.ConversationID], m)
	}

	result := make([]ConversationWithMessages, len(conversations))
	for i, c := range conversations {
		msgs := byConversation[c.ID]
		if msgs == nil {
			msgs = []Message{}
		}
		result[i] = ConversationWithMessages{Conversation: c, Messages: msgs}
	}
	return result, nil
}

// ConversationWithMessages fetches one conversation and its transcript.
// Returns ErrNotFound if the conversation does not exist.
func (s *Store) ConversationWithMessages(ctx context.Context, id uuid.UUID) (*ConversationWithMessages, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM conversations WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	messages, err := s.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConversationWithMessages{Conversation: c, Messages: messages}, nil
}

// DeleteConversation deletes a conversation (messages cascade) and returns
// the deleted record. Returns ErrNotFound if the id does not exist.
func (s *Store) DeleteConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`DELETE FROM conversations WHERE id = $1
		 RETURNING id, user_id, created_at`,
		id,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("deleting conversation: %w", err)
	}
	return &c, nil
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.AgentType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}
	return messages, nil
}
