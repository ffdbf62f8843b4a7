package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/supportdesk/supportdesk/internal/store"
)

// Lookup is the read-only store surface the tools query.
type Lookup interface {
	LatestOrder(ctx context.Context, userID string) (*store.Order, error)
	OrderByTracking(ctx context.Context, tracking string) (*store.Order, error)
	LatestPayment(ctx context.Context, userID string) (*store.Payment, error)
}

// ErrNoUserIdentity indicates a tool was invoked without a user identity
// in the context. Responders always set one via WithUserID.
var ErrNoUserIdentity = errors.New("no user identity in context")

// Toolset holds the registered lookup tools. Order responders use the two
// order tools; the billing responder uses the payment tool.
type Toolset struct {
	LatestOrder     ai.Tool
	OrderByTracking ai.Tool
	LatestPayment   ai.Tool
}

// orderResult is the tool output fed back into the model's context.
type orderResult struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Tracking  string `json:"tracking,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// paymentResult is the payment tool output.
type paymentResult struct {
	ID        string `json:"id"`
	Amount    int    `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// RegisterTools registers the lookup tools with Genkit. Registration
// happens once at startup; per-request identity is read from the context.
//
// Tool failures return errors so generation fails rather than continuing
// on a silently empty result.
func RegisterTools(g *genkit.Genkit, lookup Lookup, logger *slog.Logger) *Toolset {
	if logger == nil {
		logger = slog.Default()
	}

	latestOrder := genkit.DefineTool(
		g,
		"getLatestOrder",
		"Fetch the user's latest order",
		func(ctx *ai.ToolContext, _ struct{}) (*orderResult, error) {
			userID, ok := UserIDFromContext(ctx.Context)
			if !ok {
				return nil, ErrNoUserIdentity
			}
			order, err := lookup.LatestOrder(ctx.Context, userID)
			if err != nil {
				return nil, fmt.Errorf("fetching latest order: %w", err)
			}
			logger.Debug("tool call", "tool", "getLatestOrder", "user_id", userID)
			return newOrderResult(order), nil
		},
	)

	orderByTracking := genkit.DefineTool(
		g,
		"getOrderByTracking",
		"Fetch order by tracking id",
		func(ctx *ai.ToolContext, input struct {
			Tracking string `json:"tracking" jsonschema_description:"Tracking id of the order to look up (e.g. 'TRACK123')"`
		},
		) (*orderResult, error) {
			if strings.TrimSpace(input.Tracking) == "" {
				return nil, errors.New("tracking id is required")
			}
			order, err := lookup.OrderByTracking(ctx.Context, input.Tracking)
			if err != nil {
				return nil, fmt.Errorf("fetching order by tracking: %w", err)
			}
			logger.Debug("tool call", "tool", "getOrderByTracking", "tracking", input.Tracking)
			return newOrderResult(order), nil
		},
	)

	latestPayment := genkit.DefineTool(
		g,
		"getLatestPayment",
		"Fetch user's latest payment",
		func(ctx *ai.ToolContext, _ struct{}) (*paymentResult, error) {
			userID, ok := UserIDFromContext(ctx.Context)
			if !ok {
				return nil, ErrNoUserIdentity
			}
			payment, err := lookup.LatestPayment(ctx.Context, userID)
			if err != nil {
				return nil, fmt.Errorf("fetching latest payment: %w", err)
			}
			logger.Debug("tool call", "tool", "getLatestPayment", "user_id", userID)
			return &paymentResult{
				ID:        payment.ID.String(),
				Amount:    payment.Amount,
				Status:    payment.Status,
				CreatedAt: payment.CreatedAt.Format(time.RFC3339),
			}, nil
		},
	)

	return &Toolset{
		LatestOrder:     latestOrder,
		OrderByTracking: orderByTracking,
		LatestPayment:   latestPayment,
	}
}

func newOrderResult(order *store.Order) *orderResult {
	r := &orderResult{
		ID:        order.ID.String(),
		Status:    order.Status,
		CreatedAt: order.CreatedAt.Format(time.RFC3339),
	}
	if order.Tracking != nil {
		r.Tracking = *order.Tracking
	}
	return r
}
