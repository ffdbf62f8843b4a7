package agent

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const billingSystemPrompt = `You are a Billing Support Agent.
Handle payments, refunds, invoices.
Use tools to fetch payment data.`

// BillingResponder handles payment questions with the payment lookup tool.
type BillingResponder struct {
	gen   generator
	tools []ai.ToolRef
}

// NewBillingResponder creates the billing responder.
func NewBillingResponder(g *genkit.Genkit, modelName string, maxTurns int, toolset *Toolset, logger *slog.Logger) *BillingResponder {
	return &BillingResponder{
		gen:   newGenerator(g, modelName, maxTurns, logger),
		tools: []ai.ToolRef{toolset.LatestPayment},
	}
}

func (r *BillingResponder) Intent() Intent { return IntentBilling }

func (r *BillingResponder) Respond(ctx context.Context, req Request, cb StreamCallback) error {
	return r.gen.respond(ctx, billingSystemPrompt, r.tools, req, cb)
}
