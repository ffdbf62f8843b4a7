package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/supportdesk/supportdesk/internal/agent"
	"github.com/supportdesk/supportdesk/internal/api"
	"github.com/supportdesk/supportdesk/internal/chat"
	"github.com/supportdesk/supportdesk/internal/log"
	"github.com/supportdesk/supportdesk/internal/store"
)

// memStore is a minimal in-memory chat.Store for handler tests.
type memStore struct {
	conversations map[uuid.UUID]*store.Conversation
	messages      map[uuid.UUID][]store.Message
	fail          error
}

func newMemStore() *memStore {
	return &memStore{
		conversations: make(map[uuid.UUID]*store.Conversation),
		messages:      make(map[uuid.UUID][]store.Message),
	}
}

func (m *memStore) CreateConversation(_ context.Context, userID string) (*store.Conversation, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	conv := &store.Conversation{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
	m.conversations[conv.ID] = conv
	return conv, nil
}

func (m *memStore) AddMessage(_ context.Context, conversationID uuid.UUID, role, content string, agentType *string) (*store.Message, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	msg := store.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		AgentType:      agentType,
		CreatedAt:      time.Now(),
	}
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	return &msg, nil
}

func (m *memStore) Messages(_ context.Context, conversationID uuid.UUID) ([]store.Message, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	return m.messages[conversationID], nil
}

func (m *memStore) ConversationsByUser(_ context.Context, userID string) ([]store.Conversation, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	out := []store.Conversation{}
	for _, c := range m.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) ConversationsWithMessages(_ context.Context, userID string) ([]store.ConversationWithMessages, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	out := []store.ConversationWithMessages{}
	for _, c := range m.conversations {
		if c.UserID == userID {
			out = append(out, store.ConversationWithMessages{Conversation: *c, Messages: m.messages[c.ID]})
		}
	}
	return out, nil
}

func (m *memStore) ConversationWithMessages(_ context.Context, id uuid.UUID) (*store.ConversationWithMessages, error) {
	c, ok := m.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.ConversationWithMessages{Conversation: *c, Messages: m.messages[id]}, nil
}

func (m *memStore) DeleteConversation(_ context.Context, id uuid.UUID) (*store.Conversation, error) {
	c, ok := m.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(m.conversations, id)
	delete(m.messages, id)
	return c, nil
}

type fixedClassifier struct {
	intent agent.Intent
}

func (f fixedClassifier) Classify(context.Context, string, []agent.Turn) (agent.Intent, error) {
	return f.intent, nil
}

type scriptedResponder struct {
	intent    agent.Intent
	fragments []string
}

func (s scriptedResponder) Intent() agent.Intent { return s.intent }

func (s scriptedResponder) Respond(ctx context.Context, _ agent.Request, cb agent.StreamCallback) error {
	for _, f := range s.fragments {
		if err := cb(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func newTestServer(t *testing.T, st chat.Store, intent agent.Intent, fragments []string, rateBurst int) (*httptest.Server, *memStore) {
	t.Helper()

	svc := chat.NewService(st, fixedClassifier{intent: intent},
		agent.NewRegistry(scriptedResponder{intent: intent, fragments: fragments}),
		log.NewNop())

	srv, err := api.NewServer(api.ServerConfig{
		Logger:      log.NewNop(),
		Chat:        svc,
		CORSOrigins: []string{"*"},
		RateBurst:   rateBurst,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ms, _ := st.(*memStore)
	return ts, ms
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body.Error
}

func TestSendMessage(t *testing.T) {
	ts, ms := newTestServer(t, newMemStore(), agent.IntentOrder,
		[]string{"Your order ", "has shipped."}, 0)

	resp, err := http.Post(ts.URL+"/api/v1/chat/messages", "application/json",
		strings.NewReader(`{"userId":"u1","message":"Where is my order?"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Agent-Type"); got != "order" {
		t.Errorf("X-Agent-Type = %q", got)
	}
	convID := resp.Header.Get("X-Conversation-Id")
	if _, err := uuid.Parse(convID); err != nil {
		t.Errorf("X-Conversation-Id = %q: %v", convID, err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := new(strings.Builder)
	buf := make([]byte, 512)
	for {
		n, err := resp.Body.Read(buf)
		body.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if body.String() != "Your order has shipped." {
		t.Errorf("body = %q", body.String())
	}

	// Persisted transcript: user message plus one tagged agent message.
	id := uuid.MustParse(convID)
	msgs := ms.messages[id]
	if len(msgs) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(msgs))
	}
	if msgs[1].Role != store.RoleAgent || msgs[1].AgentType == nil || *msgs[1].AgentType != "order" {
		t.Errorf("agent message = %+v", msgs[1])
	}
}

func TestSendMessageValidation(t *testing.T) {
	ts, _ := newTestServer(t, newMemStore(), agent.IntentSupport, []string{"ok"}, 0)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing userId", `{"message":"hi"}`, "userId is required"},
		{"malformed json", `{`, "invalid request body"},
		{"bad conversationId", `{"userId":"u1","message":"hi","conversationId":"nope"}`, "invalid conversationId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/chat/messages", "application/json",
				strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if got := decodeError(t, resp); got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestSendMessageEmptyMessageForwarded(t *testing.T) {
	ts, ms := newTestServer(t, newMemStore(), agent.IntentSupport,
		[]string{"How can I help?"}, 0)

	// An empty message is not rejected up front; it runs the pipeline
	// like any other and the empty user turn is persisted.
	resp, err := http.Post(ts.URL+"/api/v1/chat/messages", "application/json",
		strings.NewReader(`{"userId":"u1","message":""}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	// Drain the stream so the handler has finished before inspecting
	// the store.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		t.Fatalf("draining body: %v", err)
	}
	convID := uuid.MustParse(resp.Header.Get("X-Conversation-Id"))
	msgs := ms.messages[convID]
	if len(msgs) == 0 || msgs[0].Role != store.RoleUser || msgs[0].Content != "" {
		t.Errorf("empty user message not persisted: %+v", msgs)
	}
}

func TestSendMessagePipelineFailure(t *testing.T) {
	st := newMemStore()
	st.fail = errors.New("db down")
	ts, _ := newTestServer(t, st, agent.IntentSupport, []string{"ok"}, 0)

	resp, err := http.Post(ts.URL+"/api/v1/chat/messages", "application/json",
		strings.NewReader(`{"userId":"u1","message":"hi"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if got := decodeError(t, resp); got != "Failed to send message" {
		t.Errorf("error = %q", got)
	}
}

func TestListConversations(t *testing.T) {
	st := newMemStore()
	ts, _ := newTestServer(t, st, agent.IntentSupport, []string{"ok"}, 0)

	t.Run("missing userId", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/chat/conversations")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
		if got := decodeError(t, resp); got != "userId is required" {
			t.Errorf("error = %q", got)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/chat/conversations?userId=nobody")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var out []json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(out) != 0 {
			t.Errorf("got %d conversations, want 0", len(out))
		}
	})

	t.Run("with conversations", func(t *testing.T) {
		conv, _ := st.CreateConversation(context.Background(), "u1")

		resp, err := http.Get(ts.URL + "/api/v1/chat/conversations?userId=u1")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer resp.Body.Close()
		var out []struct {
			ID        string `json:"id"`
			UserID    string `json:"userId"`
			CreatedAt string `json:"createdAt"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(out) != 1 || out[0].ID != conv.ID.String() || out[0].UserID != "u1" {
			t.Errorf("list = %+v", out)
		}
		if _, err := time.Parse(time.RFC3339, out[0].CreatedAt); err != nil {
			t.Errorf("createdAt = %q: %v", out[0].CreatedAt, err)
		}
	})
}

func TestGetConversation(t *testing.T) {
	st := newMemStore()
	ts, _ := newTestServer(t, st, agent.IntentSupport, []string{"ok"}, 0)

	conv, _ := st.CreateConversation(context.Background(), "u1")
	agentType := "support"
	st.AddMessage(context.Background(), conv.ID, store.RoleUser, "hi", nil)
	st.AddMessage(context.Background(), conv.ID, store.RoleAgent, "hello", &agentType)

	t.Run("found", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/chat/conversations/" + conv.ID.String())
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var out struct {
			ID       string `json:"id"`
			Messages []struct {
				Role      string  `json:"role"`
				AgentType *string `json:"agentType"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.ID != conv.ID.String() || len(out.Messages) != 2 {
			t.Fatalf("conversation = %+v", out)
		}
		if out.Messages[0].AgentType != nil {
			t.Errorf("user message agentType = %v, want null", out.Messages[0].AgentType)
		}
		if out.Messages[1].AgentType == nil || *out.Messages[1].AgentType != "support" {
			t.Errorf("agent message agentType = %v", out.Messages[1].AgentType)
		}
	})

	t.Run("not found", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/chat/conversations/" + uuid.NewString())
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
		if got := decodeError(t, resp); got != "Conversation not found" {
			t.Errorf("error = %q", got)
		}
	})
}

func TestDeleteConversation(t *testing.T) {
	st := newMemStore()
	ts, _ := newTestServer(t, st, agent.IntentSupport, []string{"ok"}, 0)

	conv, _ := st.CreateConversation(context.Background(), "u1")

	req, _ := http.NewRequest(http.MethodDelete,
		ts.URL+"/api/v1/chat/conversations/"+conv.ID.String(), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != conv.ID.String() {
		t.Errorf("deleted id = %q", out.ID)
	}

	// Deleting again is a generic failure, not a silent success.
	req2, _ := http.NewRequest(http.MethodDelete,
		ts.URL+"/api/v1/chat/conversations/"+conv.ID.String(), nil)
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusInternalServerError {
		t.Errorf("second delete status = %d, want 500", resp2.StatusCode)
	}
	if got := decodeError(t, resp2); got != "Failed to delete conversation" {
		t.Errorf("error = %q", got)
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, newMemStore(), agent.IntentSupport, []string{"ok"}, 0)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestRateLimit(t *testing.T) {
	ts, _ := newTestServer(t, newMemStore(), agent.IntentSupport, []string{"ok"}, 1)

	// Burst of 1: the first request passes, the second is limited.
	resp1, err := http.Get(ts.URL + "/api/v1/chat/conversations?userId=u1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp1.Body.Close()
	if resp1.StatusCode != http.StatusOK {
		t.Fatalf("first request status = %d", resp1.StatusCode)
	}

	resp2, err := http.Get(ts.URL + "/api/v1/chat/conversations?userId=u1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", resp2.StatusCode)
	}
	if got := resp2.Header.Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, newMemStore(), agent.IntentSupport, []string{"ok"}, 0)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/chat/messages", nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
	expose := resp.Header.Get("Access-Control-Expose-Headers")
	if !strings.Contains(expose, "X-Conversation-Id") || !strings.Contains(expose, "X-Agent-Type") {
		t.Errorf("Expose-Headers = %q", expose)
	}
}
