package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/b2b-pricing/internal/cart"
	"github.com/noah-isme/b2b-pricing/internal/pricing"
)

// TypeCartRecalculate is the asynq task type that reprices one cart.
const TypeCartRecalculate = "cart:recalculate"

// QueueDefault is the queue recalculation tasks are routed to.
const QueueDefault = "default"

// ErrInvalidPayload reports a task payload without a cart id.
var ErrInvalidPayload = errors.New("jobs: invalid payload")

// CartRecalcPayload is the body of a cart:recalculate task.
type CartRecalcPayload struct {
	CartID string `json:"cartId"`
}

// NewCartRecalcTask builds a recalculation task for cartID.
func NewCartRecalcTask(cartID string) (*asynq.Task, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return nil, ErrInvalidPayload
	}
	payload, err := json.Marshal(CartRecalcPayload{CartID: cartID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCartRecalculate, payload), nil
}

// TaskEnqueuer is the subset of *asynq.Client used by Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client enqueues recalculation tasks. A cart already waiting in the queue within
// UniqueFor is not enqueued twice; the duplicate is reported as accepted.
type Client struct {
	Tasks     TaskEnqueuer
	MaxRetry  int
	Timeout   time.Duration
	UniqueFor time.Duration
}

// EnqueueCartRecalculation queues cartID for recalculation and returns the task id.
func (c *Client) EnqueueCartRecalculation(ctx context.Context, cartID string) (string, error) {
	if c == nil || c.Tasks == nil {
		return "", errors.New("jobs: client not configured")
	}
	task, err := NewCartRecalcTask(cartID)
	if err != nil {
		return "", err
	}
	info, err := c.Tasks.EnqueueContext(ctx, task, c.options()...)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return "", nil
		}
		return "", fmt.Errorf("enqueue %s: %w", TypeCartRecalculate, err)
	}
	return info.ID, nil
}

func (c *Client) options() []asynq.Option {
	opts := []asynq.Option{asynq.Queue(QueueDefault)}
	if c.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(c.MaxRetry))
	}
	if c.Timeout > 0 {
		opts = append(opts, asynq.Timeout(c.Timeout))
	}
	if c.UniqueFor > 0 {
		opts = append(opts, asynq.Unique(c.UniqueFor))
	}
	return opts
}

// Recalculator reprices and persists a cart.
type Recalculator interface {
	RecalculateCart(ctx context.Context, cartID string) (cart.Totals, error)
}

// CartRecalcHandler processes cart:recalculate tasks. Missing carts and deleted
// variants are not retried; conflicts and storage failures are.
type CartRecalcHandler struct {
	Carts  Recalculator
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *CartRecalcHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload CartRecalcPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || strings.TrimSpace(payload.CartID) == "" {
		h.Logger.Warn().Str("task", t.Type()).Msg("cart_recalc_payload_invalid")
		return fmt.Errorf("%w: %w", ErrInvalidPayload, asynq.SkipRetry)
	}
	totals, err := h.Carts.RecalculateCart(ctx, payload.CartID)
	switch {
	case err == nil:
		h.Logger.Debug().Str("cart_id", totals.CartID).Str("total", totals.Total.String()).Msg("cart_recalc_task_done")
		return nil
	case errors.Is(err, cart.ErrNotFound), errors.Is(err, pricing.ErrVariantNotFound):
		h.Logger.Warn().Err(err).Str("cart_id", payload.CartID).Msg("cart_recalc_task_dropped")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}

// NewServeMux routes every task type handled by the worker.
func NewServeMux(recalc *CartRecalcHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeCartRecalculate, recalc)
	return mux
}
