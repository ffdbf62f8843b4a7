package agent

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const orderSystemPrompt = `You are an Order Support Agent.
Handle order status, tracking, cancellations.
Use tools when needed. Be concise and accurate.`

// OrderResponder handles order questions with the two order lookup tools.
type OrderResponder struct {
	gen   generator
	tools []ai.ToolRef
}

// NewOrderResponder creates the order responder.
func NewOrderResponder(g *genkit.Genkit, modelName string, maxTurns int, toolset *Toolset, logger *slog.Logger) *OrderResponder {
	return &OrderResponder{
		gen:   newGenerator(g, modelName, maxTurns, logger),
		tools: []ai.ToolRef{toolset.LatestOrder, toolset.OrderByTracking},
	}
}

func (r *OrderResponder) Intent() Intent { return IntentOrder }

func (r *OrderResponder) Respond(ctx context.Context, req Request, cb StreamCallback) error {
	return r.gen.respond(ctx, orderSystemPrompt, r.tools, req, cb)
}
