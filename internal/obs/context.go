package obs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/b2b-pricing/internal/merchant"
)

// Labels are per-request attributes captured while the request is routed. Outer
// instrumentation reads them after the handler returns, when the inner request
// context is no longer reachable.
type Labels struct {
	Route    string
	Merchant string
}

type labelsKey struct{}

// WithLabels attaches an empty Labels to ctx. A ctx that already carries labels is
// returned unchanged.
func WithLabels(ctx context.Context) (context.Context, *Labels) {
	if l := LabelsFrom(ctx); l != nil {
		return ctx, l
	}
	l := &Labels{}
	return context.WithValue(ctx, labelsKey{}, l), l
}

// LabelsFrom returns the labels attached to ctx, or nil.
func LabelsFrom(ctx context.Context) *Labels {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(labelsKey{}).(*Labels)
	return l
}

// RequestLabels installs Labels on every request. Mount it ahead of the metrics,
// tracing and logging middleware.
func RequestLabels(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := WithLabels(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CaptureLabels records the matched route pattern and the resolved merchant once the
// handler has returned. Mount it on the routers whose handlers should be labelled.
func CaptureLabels(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		l := LabelsFrom(r.Context())
		if l == nil {
			return
		}
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if pattern := rc.RoutePattern(); pattern != "" {
				l.Route = pattern
			}
		}
		if id, ok := merchant.From(r.Context()); ok {
			l.Merchant = id
		}
	})
}

func routeLabel(r *http.Request, fallback string) string {
	if l := LabelsFrom(r.Context()); l != nil && l.Route != "" {
		return l.Route
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}

func merchantLabel(r *http.Request) string {
	if id, ok := merchant.From(r.Context()); ok {
		return id
	}
	if l := LabelsFrom(r.Context()); l != nil {
		return l.Merchant
	}
	return ""
}
