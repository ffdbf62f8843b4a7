package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// routerSystemPrompt instructs the model to answer with a single word.
// ParseIntent tolerates anything else.
const routerSystemPrompt = `You are a router agent in a customer support system.
Classify the user's intent into exactly one of:
- support
- order
- billing

Return ONLY one word: support OR order OR billing.`

// Classifier resolves a message (plus transcript) to an Intent with a
// single one-shot completion.
type Classifier struct {
	g         *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// NewClassifier creates a Classifier. modelName is provider-qualified.
func NewClassifier(g *genkit.Genkit, modelName string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{g: g, modelName: modelName, logger: logger}
}

// Classify returns the Intent for a message given the prior transcript.
// The transcript is translated (agent turns become model turns) and the
// new message is appended as the final user turn. Backend errors
// propagate; there is no retry at this layer.
func (c *Classifier) Classify(ctx context.Context, message string, history []Turn) (Intent, error) {
	messages := translateHistory(history)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(message)))

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithSystem(routerSystemPrompt),
		ai.WithMessages(messages...),
	)
	if err != nil {
		return "", fmt.Errorf("classifying message: %w", err)
	}

	intent := ParseIntent(resp.Text())
	c.logger.Debug("classified message",
		"intent", intent,
		"raw", resp.Text(),
		"history_len", len(history),
	)
	return intent, nil
}
