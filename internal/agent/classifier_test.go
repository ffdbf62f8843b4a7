package agent_test

import (
	"context"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/supportdesk/supportdesk/internal/agent"
	"github.com/supportdesk/supportdesk/internal/log"
	"github.com/supportdesk/supportdesk/internal/testutil"
)

func TestClassify(t *testing.T) {
	ctx := context.Background()
	g := genkit.Init(ctx)

	mock := testutil.NewMockLLM("unknown")
	mock.AddResponse("where is my order", "order")
	mock.AddResponse("refund", "billing")
	mock.RegisterModel(g)

	c := agent.NewClassifier(g, testutil.MockModelName, log.NewNop())

	tests := []struct {
		message string
		want    agent.Intent
	}{
		{"Where is my order?", agent.IntentOrder},
		{"I want a refund", agent.IntentBilling},
		{"Hello", agent.IntentSupport}, // fallback "unknown" parses to support
	}
	for _, tt := range tests {
		got, err := c.Classify(ctx, tt.message, nil)
		if err != nil {
			t.Fatalf("Classify(%q): %v", tt.message, err)
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestClassifySendsRouterInstructionAndFinalTurn(t *testing.T) {
	ctx := context.Background()
	g := genkit.Init(ctx)

	mock := testutil.NewMockLLM("support")
	mock.RegisterModel(g)

	c := agent.NewClassifier(g, testutil.MockModelName, log.NewNop())

	history := []agent.Turn{
		{Role: "user", Content: "Where is my order?"},
		{Role: "agent", Content: "Let me check."},
	}
	if _, err := c.Classify(ctx, "Follow up", history); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].System, "router agent") {
		t.Errorf("system instruction missing router prompt: %q", calls[0].System)
	}
	if calls[0].UserMessage != "Follow up" {
		t.Errorf("final turn = %q, want the new message", calls[0].UserMessage)
	}
}
