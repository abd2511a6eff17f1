package merchant

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/noah-isme/b2b-pricing/internal/common"
)

type contextKey string

const merchantContextKey contextKey = "merchant.id"

// DefaultHeader carries the merchant identifier when no other header is configured.
const DefaultHeader = "X-Merchant-ID"

// Resolver finds the merchant a request is made on behalf of, from a header or the
// first label of the host below RootDomain.
type Resolver struct {
	HeaderName string
	RootDomain string
}

// NewResolver returns a resolver reading headerName, falling back to DefaultHeader.
func NewResolver(headerName, rootDomain string) *Resolver {
	if strings.TrimSpace(headerName) == "" {
		headerName = DefaultHeader
	}
	return &Resolver{
		HeaderName: headerName,
		RootDomain: strings.ToLower(strings.TrimSpace(rootDomain)),
	}
}

// Middleware stores the resolved merchant in the request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if id := r.Resolve(req); id != "" {
			req = req.WithContext(With(req.Context(), id))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve returns the merchant identifier of req or an empty string.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if id := strings.TrimSpace(req.Header.Get(r.HeaderName)); id != "" {
		return id
	}
	if r.RootDomain == "" {
		return ""
	}
	host := strings.ToLower(hostWithoutPort(req.Host))
	suffix := "." + r.RootDomain
	if host == "" || host == r.RootDomain || !strings.HasSuffix(host, suffix) {
		return ""
	}
	labels := strings.Split(strings.TrimSuffix(host, suffix), ".")
	return strings.TrimSpace(labels[0])
}

// Require rejects requests without a merchant in context.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := From(r.Context()); !ok {
			common.JSONError(w, http.StatusBadRequest, common.CodeMerchantRequired, "merchant is required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// With stores the merchant identifier in ctx.
func With(ctx context.Context, merchantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, merchantContextKey, merchantID)
}

// From extracts the merchant identifier from ctx.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(merchantContextKey).(string)
	if !ok {
		return "", false
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

func hostWithoutPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return hostport
}
