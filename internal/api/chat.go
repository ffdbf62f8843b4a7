package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/supportdesk/supportdesk/internal/chat"
)

// Fixed client-facing error strings. Internal causes stay in the logs.
const (
	msgSendFailed         = "Failed to send message"
	msgListFailed         = "Failed to list conversations"
	msgGetFailed          = "Failed to get conversation"
	msgDeleteFailed       = "Failed to delete conversation"
	msgConversationAbsent = "Conversation not found"
	msgUserIDRequired     = "userId is required"
)

// chatHandler serves the message pipeline endpoint.
type chatHandler struct {
	chat   *chat.Service
	logger *slog.Logger
}

// sendRequest is the POST /api/v1/chat/messages body.
type sendRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	UserID         string `json:"userId"`
	Message        string `json:"message"`
}

// send runs the full pipeline and streams the reply as plain text.
// The resolved conversation id and agent type travel in response headers
// because the body is the raw reply stream.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Only userId is validated here. An empty message flows into the
	// pipeline like any other; the blank-reply rule decides what, if
	// anything, gets persisted on the agent side.
	if req.UserID == "" {
		WriteError(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}

	conversationID := uuid.Nil
	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid conversationId")
			return
		}
		conversationID = id
	}

	// r.Context() is canceled when the client disconnects, which aborts
	// generation and skips persistence of the partial reply.
	ctx := r.Context()

	reply, err := h.chat.SendMessage(ctx, conversationID, req.UserID, req.Message)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, msgSendFailed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Conversation-Id", reply.ConversationID.String())
	w.Header().Set("X-Agent-Type", reply.Intent.String())
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	err = reply.Stream(ctx, func(fragment string) error {
		if _, err := w.Write([]byte(fragment)); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil {
		// Headers are already out; the client sees a truncated stream.
		h.logger.Warn("reply stream aborted",
			"conversation_id", reply.ConversationID,
			"agent_type", reply.Intent,
			"error", err,
		)
	}
}
