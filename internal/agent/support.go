package agent

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
)

const supportSystemPrompt = `You are a general customer support agent.
Answer FAQs and guide users clearly.
Use conversation history if helpful.`

// SupportResponder handles general questions. It declares no tools; the
// transcript is its only context.
type SupportResponder struct {
	gen generator
}

// NewSupportResponder creates the support responder.
func NewSupportResponder(g *genkit.Genkit, modelName string, maxTurns int, logger *slog.Logger) *SupportResponder {
	return &SupportResponder{gen: newGenerator(g, modelName, maxTurns, logger)}
}

func (r *SupportResponder) Intent() Intent { return IntentSupport }

func (r *SupportResponder) Respond(ctx context.Context, req Request, cb StreamCallback) error {
	return r.gen.respond(ctx, supportSystemPrompt, nil, req, cb)
}
