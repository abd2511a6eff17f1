package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/b2b-pricing/internal/cart"
	"github.com/noah-isme/b2b-pricing/internal/jobs"
	"github.com/noah-isme/b2b-pricing/internal/pricing"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	r.opts = append(r.opts, opts)
	return &asynq.TaskInfo{ID: "task-42", Type: task.Type()}, nil
}

type recalcFunc func(ctx context.Context, cartID string) (cart.Totals, error)

func (f recalcFunc) RecalculateCart(ctx context.Context, cartID string) (cart.Totals, error) {
	return f(ctx, cartID)
}

func TestNewCartRecalcTask(t *testing.T) {
	task, err := jobs.NewCartRecalcTask(" c1 ")
	require.NoError(t, err)
	require.Equal(t, jobs.TypeCartRecalculate, task.Type())

	var payload jobs.CartRecalcPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "c1", payload.CartID)

	_, err = jobs.NewCartRecalcTask("  ")
	require.ErrorIs(t, err, jobs.ErrInvalidPayload)
}

func TestClientEnqueue(t *testing.T) {
	rec := &recordingEnqueuer{}
	client := &jobs.Client{Tasks: rec, MaxRetry: 3, Timeout: time.Minute, UniqueFor: 30 * time.Second}

	id, err := client.EnqueueCartRecalculation(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "task-42", id)
	require.Len(t, rec.tasks, 1)
	require.Len(t, rec.opts[0], 4)

	rec.err = asynq.ErrDuplicateTask
	id, err = client.EnqueueCartRecalculation(context.Background(), "c1")
	require.NoError(t, err)
	require.Empty(t, id)

	rec.err = errors.New("dial tcp: refused")
	_, err = client.EnqueueCartRecalculation(context.Background(), "c1")
	require.Error(t, err)

	_, err = (&jobs.Client{}).EnqueueCartRecalculation(context.Background(), "c1")
	require.Error(t, err)
}

func TestCartRecalcHandler(t *testing.T) {
	var seen []string
	results := map[string]error{
		"missing":   cart.ErrNotFound,
		"orphaned":  pricing.ErrVariantNotFound,
		"contended": cart.ErrConflict,
	}
	h := &jobs.CartRecalcHandler{Carts: recalcFunc(func(ctx context.Context, cartID string) (cart.Totals, error) {
		seen = append(seen, cartID)
		if err := results[cartID]; err != nil {
			return cart.Totals{}, err
		}
		return cart.Totals{CartID: cartID, Total: decimal.NewFromInt(10)}, nil
	})}
	mux := jobs.NewServeMux(h)

	process := func(cartID string) error {
		task, err := jobs.NewCartRecalcTask(cartID)
		require.NoError(t, err)
		return mux.ProcessTask(context.Background(), task)
	}

	require.NoError(t, process("c1"))

	err := process("missing")
	require.ErrorIs(t, err, cart.ErrNotFound)
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = process("orphaned")
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = process("contended")
	require.ErrorIs(t, err, cart.ErrConflict)
	require.False(t, errors.Is(err, asynq.SkipRetry))

	err = h.ProcessTask(context.Background(), asynq.NewTask(jobs.TypeCartRecalculate, []byte(`{}`)))
	require.ErrorIs(t, err, jobs.ErrInvalidPayload)
	require.ErrorIs(t, err, asynq.SkipRetry)

	require.Equal(t, []string{"c1", "missing", "orphaned", "contended"}, seen)
}
