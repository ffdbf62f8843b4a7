// Package api exposes the chat pipeline over HTTP: a streaming message
// endpoint plus conversation CRUD, behind the standard middleware stack.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/supportdesk/internal/chat"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Chat        *chat.Service // Required
	Pool        *pgxpool.Pool // Optional: nil makes /ready report unavailable
	CORSOrigins []string      // Allowed origins for CORS ("*" for any)
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateBurst   int           // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON-and-stream HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{chat: cfg.Chat, logger: logger}
	cv := &conversationHandler{chat: cfg.Chat, logger: logger}

	mux := http.NewServeMux()

	// Message pipeline
	mux.HandleFunc("POST /api/v1/chat/messages", ch.send)

	// Conversation CRUD. The static "messages" route must be registered
	// alongside the {id} route; ServeMux prefers the literal match.
	mux.HandleFunc("GET /api/v1/chat/conversations", cv.list)
	mux.HandleFunc("GET /api/v1/chat/conversations/messages", cv.listWithMessages)
	mux.HandleFunc("GET /api/v1/chat/conversations/{id}", cv.get)
	mux.HandleFunc("DELETE /api/v1/chat/conversations/{id}", cv.remove)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newIPLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes. CORS must be before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Use a top-level mux to keep health probes outside the middleware
	// stack so probes are never rate limited.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
