package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/emlakhub/emlakhub-backend/pkg/config"
)

// CORS returns middleware that applies the configured origin policy.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", IdempotencyHeader, "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Language", RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           cfg.MaxAgeSeconds,
	}).Handler
}
