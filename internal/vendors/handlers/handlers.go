// Package handlers exposes the vendor and portfolio HTTP API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Atharva9281/WindBorne/internal/vendors"
)

// Handler contains HTTP handlers for the vendor API.
type Handler struct {
	svc       *vendors.Service
	portfolio *vendors.PortfolioService
	log       zerolog.Logger
}

// NewHandler creates vendor API handlers.
func NewHandler(svc *vendors.Service, portfolio *vendors.PortfolioService, log zerolog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		portfolio: portfolio,
		log:       log.With().Str("handler", "vendors").Logger(),
	}
}

// HandleListVendors handles GET /api/vendors - all tracked vendors with
// fresh-or-cached data and risk scores.
func (h *Handler) HandleListVendors(w http.ResponseWriter, r *http.Request) {
	scored, err := h.svc.ProcessAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to process vendors")
		http.Error(w, "Failed to process vendors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"vendors": scored,
		"count":   len(scored),
	})
}

// HandleGetVendor handles GET /api/vendors/{symbol}.
func (h *Handler) HandleGetVendor(w http.ResponseWriter, r *http.Request) {
	h.serveVendor(w, r, false)
}

// HandleRefreshVendor handles POST /api/vendors/{symbol}/refresh - invalidates
// every cached kind for the vendor and refetches.
func (h *Handler) HandleRefreshVendor(w http.ResponseWriter, r *http.Request) {
	h.serveVendor(w, r, true)
}

func (h *Handler) serveVendor(w http.ResponseWriter, r *http.Request, force bool) {
	symbol := chi.URLParam(r, "symbol")

	vendor := vendors.TrackedBySymbol(symbol)
	if vendor == nil {
		http.Error(w, "Unknown vendor symbol", http.StatusNotFound)
		return
	}

	scored, err := h.svc.ProcessOne(r.Context(), *vendor, force)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to process vendor")
		http.Error(w, "Failed to process vendor", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scored)
}

// HandleKPIs handles GET /api/portfolio/kpis.
func (h *Handler) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.portfolio.KPIs()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute KPIs")
		http.Error(w, "Failed to compute KPIs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(kpis)
}

// HandleMetrics handles GET /api/portfolio/metrics - the raw memoized rows.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.portfolio.Metrics()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load metrics")
		http.Error(w, "Failed to load metrics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(metrics)
}

// HandleRiskAnalysis handles GET /api/portfolio/risk-analysis.
func (h *Handler) HandleRiskAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.portfolio.RiskAnalysis()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute risk analysis")
		http.Error(w, "Failed to compute risk analysis", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(analysis)
}
