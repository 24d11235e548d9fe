package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all cache maintenance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cache", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)                        // Staleness report + daily stats
		r.Post("/optimize", h.HandleOptimize)                   // Sweep + retention tuning
		r.Post("/preload", h.HandlePreload)                     // Bulk warm-up (1-10 symbols)
		r.Get("/refresh-candidates", h.HandleRefreshCandidates) // Symbols nearing expiry
		r.Post("/clear-expired", h.HandleClearExpired)          // Sweep only
	})
}
