package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the configured origin allow-list. A lone "*" opens the API to
// any origin without credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowCredentials := true
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		origins = []string{"*"}
		allowCredentials = false
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	}).Handler
}
