package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/csvbatch/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already processed by middleware.TrustedRealIP
	ua := r.Header.Get("User-Agent")
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, ua)
	return ctx
}

// requestContext returns the request context with audit metadata and the
// owner set by middleware.BearerAuth ("" when the caller sent no token).
func requestContext(r *http.Request) (context.Context, string) {
	ctx := WithRequestMetadata(r.Context(), r)
	return ctx, core.OwnerFromContext(ctx)
}
