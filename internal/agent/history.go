package agent

import (
	"github.com/firebase/genkit/go/ai"
)

// Turn is one transcript entry as fed to the model: the store's role
// string plus text content.
type Turn struct {
	Role    string // "user" or "agent"
	Content string
}

// translateHistory converts a transcript into model messages: agent turns
// become the model's own prior turns, everything else a user turn. The
// translation is total and order-preserving; consecutive same-role turns
// are never merged.
func translateHistory(history []Turn) []*ai.Message {
	messages := make([]*ai.Message, 0, len(history))
	for _, t := range history {
		if t.Role == roleAgent {
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(t.Content)))
		} else {
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(t.Content)))
		}
	}
	return messages
}

// roleAgent mirrors store.RoleAgent without importing the store package
// into the model-facing layer.
const roleAgent = "agent"
