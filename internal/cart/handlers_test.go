package cart_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/b2b-pricing/internal/cart"
	"github.com/noah-isme/b2b-pricing/internal/lock"
)

type fakeQueue struct {
	cartIDs []string
	err     error
}

func (q *fakeQueue) EnqueueCartRecalculation(ctx context.Context, cartID string) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.cartIDs = append(q.cartIDs, cartID)
	return "task-1", nil
}

func cartRouter(h *cart.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/carts/{id}/recalculate", h.Recalculate)
	r.Get("/carts/{id}/preview", h.Preview)
	r.Post("/carts/{id}/recalculate:async", h.RecalculateAsync)
	return r
}

func TestHandlerRecalculate(t *testing.T) {
	store, rules := fixture()
	router := cartRouter(&cart.Handler{Svc: newService(store, rules)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/c1/recalculate", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data cart.Totals `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "c1", body.Data.CartID)
	require.True(t, body.Data.Total.Equal(money("234")))
	require.Len(t, store.writes, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/nope/recalculate", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerPreviewDoesNotPersist(t *testing.T) {
	store, rules := fixture()
	router := cartRouter(&cart.Handler{Svc: newService(store, rules)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/carts/c1/preview", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, store.writes)
}

func TestHandlerMapsConflict(t *testing.T) {
	store, rules := fixture()
	store.beforePersist = func() { store.bump("c1") }
	svc := newService(store, rules)
	svc.OptimisticLocking = true
	router := cartRouter(&cart.Handler{Svc: svc})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/c1/recalculate", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerRecalculateAsync(t *testing.T) {
	queue := &fakeQueue{}
	router := cartRouter(&cart.Handler{Queue: queue})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/c1/recalculate:async", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{"c1"}, queue.cartIDs)

	queue.err = errors.New("redis down")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/c2/recalculate:async", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	cartRouter(&cart.Handler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/c1/recalculate:async", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerMapsLostLockToConflict(t *testing.T) {
	store, rules := fixture()
	store.failWith = fmt.Errorf("cart:recalc:c1: %w", lock.ErrLost)
	router := cartRouter(&cart.Handler{Svc: newService(store, rules)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/c1/recalculate", nil))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}
