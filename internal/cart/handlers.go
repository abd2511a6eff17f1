package cart

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/b2b-pricing/internal/common"
	"github.com/noah-isme/b2b-pricing/internal/lock"
	"github.com/noah-isme/b2b-pricing/internal/pricing"
)

// Enqueuer schedules a recalculation to run in the background.
type Enqueuer interface {
	EnqueueCartRecalculation(ctx context.Context, cartID string) (string, error)
}

// Handler wires cart services to HTTP.
type Handler struct {
	Svc   *Service
	Queue Enqueuer
}

// Recalculate reprices a cart and persists the result.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	totals, err := h.Svc.RecalculateCart(r.Context(), cartIDParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, totals)
}

// Preview reports the totals a recalculation would produce without persisting them.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	totals, err := h.Svc.Preview(r.Context(), cartIDParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, totals)
}

// RecalculateAsync enqueues a background recalculation.
func (h *Handler) RecalculateAsync(w http.ResponseWriter, r *http.Request) {
	if h.Queue == nil {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeQueueUnavailable, "background recalculation disabled", nil)
		return
	}
	cartID := cartIDParam(r)
	if cartID == "" {
		writeError(w, ErrNotFound)
		return
	}
	taskID, err := h.Queue.EnqueueCartRecalculation(r.Context(), cartID)
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeQueueUnavailable, "unable to enqueue recalculation", nil)
		return
	}
	common.Data(w, http.StatusAccepted, map[string]string{"cartId": cartID, "taskId": taskID})
}

func cartIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "cart not found", nil)
	case errors.Is(err, ErrConflict), errors.Is(err, lock.ErrNotAcquired), errors.Is(err, lock.ErrLost):
		common.JSONError(w, http.StatusConflict, common.CodeConflict, "cart is being recalculated, retry", nil)
	case errors.Is(err, pricing.ErrVariantNotFound):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeVariantNotFound, "cart references a variant that no longer exists", nil)
	default:
		common.WriteError(w, err)
	}
}
