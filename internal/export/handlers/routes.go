package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all export routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/export", func(r chi.Router) {
		r.Get("/csv", h.HandleCSV)               // CSV download
		r.Get("/json", h.HandleJSON)             // Machine-readable dump
		r.Get("/risk-report", h.HandleRiskReport) // Stored scores + analysis
	})
}
