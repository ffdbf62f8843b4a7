package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// defaultMaxTurns bounds one response generation: each model turn or tool
// invocation consumes a step, and generation fails once the ceiling is
// reached without a final text answer.
const defaultMaxTurns = 5

// Request carries everything a responder needs for one reply.
type Request struct {
	UserID  string
	Message string
	History []Turn
}

// StreamCallback receives each text fragment as it is generated.
// Returning an error aborts generation.
type StreamCallback func(ctx context.Context, fragment string) error

// Responder generates a streamed reply for one intent.
type Responder interface {
	Intent() Intent
	Respond(ctx context.Context, req Request, cb StreamCallback) error
}

// Registry maps each Intent to its Responder.
type Registry map[Intent]Responder

// NewRegistry builds the registry from the given responders.
func NewRegistry(responders ...Responder) Registry {
	r := make(Registry, len(responders))
	for _, resp := range responders {
		r[resp.Intent()] = resp
	}
	return r
}

// For returns the responder for an intent.
func (r Registry) For(intent Intent) (Responder, bool) {
	resp, ok := r[intent]
	return resp, ok
}

// generator holds the shared generation dependencies for all responders.
type generator struct {
	g         *genkit.Genkit
	modelName string
	maxTurns  int
	logger    *slog.Logger
}

func newGenerator(g *genkit.Genkit, modelName string, maxTurns int, logger *slog.Logger) generator {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	if logger == nil {
		logger = slog.Default()
	}
	return generator{g: g, modelName: modelName, maxTurns: maxTurns, logger: logger}
}

// respond issues one streaming generation: system prompt, translated
// history, the new message as the final user turn, and the responder's
// tools. The user identity is placed in the context for tool handlers
// before generation starts.
func (gen generator) respond(ctx context.Context, systemPrompt string, tools []ai.ToolRef, req Request, cb StreamCallback) error {
	ctx = WithUserID(ctx, req.UserID)

	messages := translateHistory(req.History)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(req.Message)))

	opts := []ai.GenerateOption{
		ai.WithModelName(gen.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
		ai.WithMaxTurns(gen.maxTurns),
		ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			text := chunk.Text()
			if text == "" {
				return nil
			}
			return cb(ctx, text)
		}),
	}
	if len(tools) > 0 {
		opts = append(opts, ai.WithTools(tools...))
	}

	if _, err := genkit.Generate(ctx, gen.g, opts...); err != nil {
		return fmt.Errorf("generating response: %w", err)
	}
	return nil
}
