package agent

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func TestTranslateHistory(t *testing.T) {
	history := []Turn{
		{Role: "agent", Content: "A"},
		{Role: "user", Content: "B"},
	}

	messages := translateHistory(history)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != ai.RoleModel || messages[0].Text() != "A" {
		t.Errorf("message 0 = %v %q", messages[0].Role, messages[0].Text())
	}
	if messages[1].Role != ai.RoleUser || messages[1].Text() != "B" {
		t.Errorf("message 1 = %v %q", messages[1].Role, messages[1].Text())
	}
}

func TestTranslateHistoryConsecutiveUserTurnsNotMerged(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "first"},
		{Role: "user", Content: "second"},
	}

	messages := translateHistory(history)
	if len(messages) != 2 {
		t.Fatalf("consecutive user turns must stay separate, got %d messages", len(messages))
	}
	if messages[0].Text() != "first" || messages[1].Text() != "second" {
		t.Errorf("order not preserved: %q, %q", messages[0].Text(), messages[1].Text())
	}
}

func TestTranslateHistoryEmpty(t *testing.T) {
	if got := translateHistory(nil); len(got) != 0 {
		t.Errorf("expected empty translation, got %d", len(got))
	}
}
