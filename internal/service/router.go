package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/powerpay/backend/internal/auth"
	"github.com/powerpay/backend/internal/metrics"
)

// NewRouter mounts the channel API. Health and metrics endpoints stay outside
// the authenticated API subtree so probes and scrapers need no token.
func NewRouter(h *Handler, tokens *auth.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/channel", func(r chi.Router) {
		r.Use(requireAuth(tokens))

		r.Post("/create", h.createChannel)
		r.Route("/{channelID}", func(r chi.Router) {
			r.Get("/", h.getChannel)
			r.Post("/micropayment", h.addIntent)
			r.Post("/process", h.processPayment)
			r.Post("/close", h.closeChannel)
			if h.testRoutes {
				r.Post("/test-distribution", h.testDistribution)
			}
		})
	})

	return r
}
