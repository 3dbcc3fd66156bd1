package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/raushankrgupta/listing-poster/utils"
)

// NewRouter mounts the handler's endpoints. A browser-escalated listing can
// take two browser timeouts, so the request timeout is generous.
func NewRouter(h *Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(utils.LatencyMiddleware)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Post-QR-URL", "X-Post-Price", "X-Post-Published-URL"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.HealthHandler)
	r.Get("/post", h.PostHandler)
	r.Post("/post", h.PostHandler)
	r.Get("/posts", h.PostsHandler)
	return r
}
