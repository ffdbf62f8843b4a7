// Package app provides application initialization and dependency wiring.
//
// App is the container holding every long-lived component: the database
// pool, the Genkit runtime with the configured AI provider, the store,
// and the chat pipeline service.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/supportdesk/internal/chat"
	"github.com/supportdesk/supportdesk/internal/config"
	"github.com/supportdesk/supportdesk/internal/store"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit *genkit.Genkit
	Pool   *pgxpool.Pool
	Store  *store.Store
	Chat   *chat.Service

	otelCleanup func()
}

// Close gracefully releases all resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.Pool != nil {
		a.Pool.Close()
		if a.Logger != nil {
			a.Logger.Info("database pool closed")
		}
	}

	// Flush pending spans last so pool teardown is still traced.
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
