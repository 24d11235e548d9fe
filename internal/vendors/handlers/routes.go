package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all vendor and portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/vendors", func(r chi.Router) {
		r.Get("/", h.HandleListVendors)       // All vendors with risk scores
		r.Get("/{symbol}", h.HandleGetVendor) // One vendor, cache-first
		// Force refetch. GET is the documented shape; POST also accepted.
		r.Get("/{symbol}/refresh", h.HandleRefreshVendor)
		r.Post("/{symbol}/refresh", h.HandleRefreshVendor)
	})

	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/kpis", h.HandleKPIs)                  // Headline numbers
		r.Get("/metrics", h.HandleMetrics)            // Raw memoized metrics
		r.Get("/risk-analysis", h.HandleRiskAnalysis) // Tier distribution + recommendations
	})
}
