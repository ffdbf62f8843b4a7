// Package chat implements the message pipeline: persist the inbound
// message, classify it, dispatch to a responder, and tee the streamed
// reply to the caller and to the store.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/supportdesk/supportdesk/internal/agent"
	"github.com/supportdesk/supportdesk/internal/store"
)

// Uniform failure errors. Underlying causes are logged internally and
// never exposed to callers.
var (
	ErrSendMessage         = errors.New("failed to send message")
	ErrListConversations   = errors.New("failed to list conversations")
	ErrGetConversation     = errors.New("failed to get conversation")
	ErrDeleteConversation  = errors.New("failed to delete conversation")
	ErrNotFound            = errors.New("conversation not found")
	errAlreadyStreamed     = errors.New("reply already streamed")
	errUnresolvedConversID = errors.New("store returned conversation without id")
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	CreateConversation(ctx context.Context, userID string) (*store.Conversation, error)
	AddMessage(ctx context.Context, conversationID uuid.UUID, role, content string, agentType *string) (*store.Message, error)
	Messages(ctx context.Context, conversationID uuid.UUID) ([]store.Message, error)
	ConversationsByUser(ctx context.Context, userID string) ([]store.Conversation, error)
	ConversationsWithMessages(ctx context.Context, userID string) ([]store.ConversationWithMessages, error)
	ConversationWithMessages(ctx context.Context, id uuid.UUID) (*store.ConversationWithMessages, error)
	DeleteConversation(ctx context.Context, id uuid.UUID) (*store.Conversation, error)
}

// Classifier resolves a message plus transcript to an Intent.
type Classifier interface {
	Classify(ctx context.Context, message string, history []agent.Turn) (agent.Intent, error)
}

// Service orchestrates the routing and streaming pipeline.
type Service struct {
	store      Store
	classifier Classifier
	responders agent.Registry
	logger     *slog.Logger
}

// NewService creates the pipeline service.
func NewService(st Store, classifier Classifier, responders agent.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      st,
		classifier: classifier,
		responders: responders,
		logger:     logger,
	}
}

// Reply is a pending streamed response. The conversation id and intent are
// resolved before generation starts; the caller must drive Stream to
// completion for the agent message to be persisted.
type Reply struct {
	ConversationID uuid.UUID
	Intent         agent.Intent

	svc       *Service
	responder agent.Responder
	req       agent.Request
	streamed  bool
}

// SendMessage runs steps 1-5 of the pipeline: resolve or create the
// conversation, persist the user message, reload the transcript, classify,
// and select the responder. Generation has not started when it returns.
//
// conversationID == uuid.Nil means "create a new conversation".
// All failures collapse to ErrSendMessage; causes are logged.
func (s *Service) SendMessage(ctx context.Context, conversationID uuid.UUID, userID, message string) (*Reply, error) {
	if conversationID == uuid.Nil {
		conv, err := s.store.CreateConversation(ctx, userID)
		if err != nil {
			return nil, s.failSend("creating conversation", err)
		}
		if conv == nil || conv.ID == uuid.Nil {
			return nil, s.failSend("resolving conversation id", errUnresolvedConversID)
		}
		conversationID = conv.ID
	}

	if _, err := s.store.AddMessage(ctx, conversationID, store.RoleUser, message, nil); err != nil {
		return nil, s.failSend("persisting user message", err)
	}

	// The reload includes the message just persisted, so the classifier
	// and responder see it both at the tail of history and as the final
	// explicit turn. Intentional: the final turn is always the new message.
	messages, err := s.store.Messages(ctx, conversationID)
	if err != nil {
		return nil, s.failSend("loading transcript", err)
	}
	history := toTurns(messages)

	intent, err := s.classifier.Classify(ctx, message, history)
	if err != nil {
		return nil, s.failSend("classifying message", err)
	}

	responder, ok := s.responders.For(intent)
	if !ok {
		return nil, s.failSend("selecting responder", fmt.Errorf("no responder for intent %q", intent))
	}

	return &Reply{
		ConversationID: conversationID,
		Intent:         intent,
		svc:            s,
		responder:      responder,
		req: agent.Request{
			UserID:  userID,
			Message: message,
			History: history,
		},
	}, nil
}

// Stream drives generation, forwarding each fragment to sink as it
// arrives while accumulating the full reply. On clean completion a
// non-blank reply is persisted as one agent message tagged with the
// resolved intent. A sink error (client gone) or generation error skips
// persistence entirely; fragments already forwarded stay delivered.
// Stream may be called at most once.
func (r *Reply) Stream(ctx context.Context, sink func(fragment string) error) error {
	if r.streamed {
		return errAlreadyStreamed
	}
	r.streamed = true

	var buf strings.Builder
	err := r.responder.Respond(ctx, r.req, func(_ context.Context, fragment string) error {
		if err := sink(fragment); err != nil {
			return err
		}
		buf.WriteString(fragment)
		return nil
	})
	if err != nil {
		r.svc.logger.Warn("response generation aborted",
			"conversation_id", r.ConversationID,
			"intent", r.Intent,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrSendMessage, err)
	}

	reply := buf.String()
	if strings.TrimSpace(reply) == "" {
		r.svc.logger.Warn("blank reply not persisted",
			"conversation_id", r.ConversationID,
			"intent", r.Intent,
		)
		return nil
	}

	agentType := r.Intent.String()
	if _, err := r.svc.store.AddMessage(ctx, r.ConversationID, store.RoleAgent, reply, &agentType); err != nil {
		r.svc.logger.Error("persisting agent message",
			"conversation_id", r.ConversationID,
			"intent", r.Intent,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrSendMessage, err)
	}

	return nil
}

// ListConversations lists a user's conversations without messages.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]store.Conversation, error) {
	conversations, err := s.store.ConversationsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("listing conversations", "user_id", userID, "error", err)
		return nil, ErrListConversations
	}
	return conversations, nil
}

// ListConversationsWithMessages lists a user's conversations with full
// transcripts.
func (s *Service) ListConversationsWithMessages(ctx context.Context, userID string) ([]store.ConversationWithMessages, error) {
	conversations, err := s.store.ConversationsWithMessages(ctx, userID)
	if err != nil {
		s.logger.Error("listing conversations with messages", "user_id", userID, "error", err)
		return nil, ErrListConversations
	}
	return conversations, nil
}

// GetConversation fetches one conversation with its transcript.
// Returns ErrNotFound when the id does not exist.
func (s *Service) GetConversation(ctx context.Context, id uuid.UUID) (*store.ConversationWithMessages, error) {
	conversation, err := s.store.ConversationWithMessages(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("getting conversation", "conversation_id", id, "error", err)
		return nil, ErrGetConversation
	}
	return conversation, nil
}

// DeleteConversation deletes a conversation and returns the deleted
// record. A missing id surfaces the generic delete failure, not a silent
// success.
func (s *Service) DeleteConversation(ctx context.Context, id uuid.UUID) (*store.Conversation, error) {
	conversation, err := s.store.DeleteConversation(ctx, id)
	if err != nil {
		s.logger.Error("deleting conversation", "conversation_id", id, "error", err)
		return nil, ErrDeleteConversation
	}
	return conversation, nil
}

// failSend logs the cause and returns the uniform send failure.
func (s *Service) failSend(stage string, err error) error {
	s.logger.Error("send message pipeline failed", "stage", stage, "error", err)
	return ErrSendMessage
}

// toTurns converts stored messages into model-facing transcript turns.
func toTurns(messages []store.Message) []agent.Turn {
	turns := make([]agent.Turn, len(messages))
	for i, m := range messages {
		turns[i] = agent.Turn{Role: m.Role, Content: m.Content}
	}
	return turns
}
