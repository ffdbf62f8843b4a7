package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/supportdesk/supportdesk/internal/chat"
	"github.com/supportdesk/supportdesk/internal/store"
)

// conversationHandler serves conversation listing, fetch, and deletion.
type conversationHandler struct {
	chat   *chat.Service
	logger *slog.Logger
}

// conversationDTO is the wire form of a conversation.
type conversationDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
}

// messageDTO is the wire form of a message. AgentType is null for
// user-role messages.
type messageDTO struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversationId"`
	Role           string  `json:"role"`
	Content        string  `json:"content"`
	AgentType      *string `json:"agentType"`
	CreatedAt      string  `json:"createdAt"`
}

// conversationWithMessagesDTO nests ascending-ordered messages.
type conversationWithMessagesDTO struct {
	conversationDTO
	Messages []messageDTO `json:"messages"`
}

func toConversationDTO(c store.Conversation) conversationDTO {
	return conversationDTO{
		ID:        c.ID.String(),
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toMessageDTOs(messages []store.Message) []messageDTO {
	out := make([]messageDTO, len(messages))
	for i, m := range messages {
		out[i] = messageDTO{
			ID:             m.ID.String(),
			ConversationID: m.ConversationID.String(),
			Role:           m.Role,
			Content:        m.Content,
			AgentType:      m.AgentType,
			CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}

func toConversationWithMessagesDTO(c store.ConversationWithMessages) conversationWithMessagesDTO {
	return conversationWithMessagesDTO{
		conversationDTO: toConversationDTO(c.Conversation),
		Messages:        toMessageDTOs(c.Messages),
	}
}

// list handles GET /api/v1/chat/conversations?userId=<id>.
func (h *conversationHandler) list(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}

	conversations, err := h.chat.ListConversations(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, msgListFailed)
		return
	}

	out := make([]conversationDTO, len(conversations))
	for i, c := range conversations {
		out[i] = toConversationDTO(c)
	}
	WriteJSON(w, http.StatusOK, out)
}

// listWithMessages handles GET /api/v1/chat/conversations/messages?userId=<id>.
func (h *conversationHandler) listWithMessages(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}

	conversations, err := h.chat.ListConversationsWithMessages(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, msgListFailed)
		return
	}

	out := make([]conversationWithMessagesDTO, len(conversations))
	for i, c := range conversations {
		out[i] = toConversationWithMessagesDTO(c)
	}
	WriteJSON(w, http.StatusOK, out)
}

// get handles GET /api/v1/chat/conversations/{id}.
func (h *conversationHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		// A malformed id cannot name any conversation.
		WriteError(w, http.StatusNotFound, msgConversationAbsent)
		return
	}

	conversation, err := h.chat.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			WriteError(w, http.StatusNotFound, msgConversationAbsent)
			return
		}
		WriteError(w, http.StatusInternalServerError, msgGetFailed)
		return
	}

	WriteJSON(w, http.StatusOK, toConversationWithMessagesDTO(*conversation))
}

// remove handles DELETE /api/v1/chat/conversations/{id}.
// A missing id surfaces the generic delete failure, matching the
// all-errors-collapse contract of the delete operation.
func (h *conversationHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, msgDeleteFailed)
		return
	}

	conversation, err := h.chat.DeleteConversation(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, msgDeleteFailed)
		return
	}

	WriteJSON(w, http.StatusOK, toConversationDTO(*conversation))
}
