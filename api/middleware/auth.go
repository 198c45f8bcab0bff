package middleware

import (
	"net/http"
	"strings"

	"github.com/farmfresh/farmfresh-backend/api/responses"
	pkgAuth "github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/auth/session"
	"github.com/farmfresh/farmfresh-backend/pkg/config"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the principal.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			principal := claims.Principal()
			ctx := WithPrincipal(r.Context(), principal)
			ctx = withAccessID(ctx, claims.ID)

			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.UserID.String())
				ctx = logg.WithActorRole(ctx, string(principal.Role))
				if principal.FarmerProfileID != nil {
					ctx = logg.WithFarmerProfileID(ctx, principal.FarmerProfileID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
