package middleware

import (
	"context"
	"net/http"

	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxAccessID  contextKey = "access_id"
)

// PrincipalFromContext returns the caller attached by Auth.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	if ctx == nil {
		return auth.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(auth.Principal)
	return p, ok
}

// AccessIDFromContext returns the session id (jti) of the bearer token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal injects a caller into the context. Used by Auth and by tests.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// Actor returns the authenticated caller or an UNAUTHORIZED error for handlers
// mounted outside Auth by mistake.
func Actor(r *http.Request) (auth.Principal, error) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return p, nil
}
