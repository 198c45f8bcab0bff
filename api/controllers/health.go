package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/farmfresh/farmfresh-backend/api/responses"
	"github.com/farmfresh/farmfresh-backend/pkg/config"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
)

const readyTimeout = 3 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FarmFresh-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and reports the first failure as 503.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FarmFresh-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		status := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]any{"dependency": name}))
				return
			}
			status[name] = "ok"
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
