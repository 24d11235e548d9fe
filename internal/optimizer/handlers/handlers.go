// Package handlers exposes the cache maintenance HTTP API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Atharva9281/WindBorne/internal/optimizer"
)

// Handler contains HTTP handlers for cache maintenance.
type Handler struct {
	opt *optimizer.Optimizer
	log zerolog.Logger
}

// NewHandler creates cache API handlers.
func NewHandler(opt *optimizer.Optimizer, log zerolog.Logger) *Handler {
	return &Handler{
		opt: opt,
		log: log.With().Str("handler", "cache").Logger(),
	}
}

// HandleStatus handles GET /api/cache/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.opt.Analyze()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to analyze cache")
		http.Error(w, "Failed to analyze cache", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

// HandleOptimize handles POST /api/cache/optimize - sweeps expired entries
// and tunes retention for high-usage kinds.
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	swept, err := h.opt.SweepExpired()
	if err != nil {
		h.log.Error().Err(err).Msg("Cache sweep failed")
		http.Error(w, "Cache optimization failed", http.StatusInternalServerError)
		return
	}

	tuned, err := h.opt.TuneExpiry()
	if err != nil {
		h.log.Error().Err(err).Msg("Expiry tuning failed")
		http.Error(w, "Cache optimization failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"sweptEntries":   swept,
		"updatedEntries": tuned.UpdatedEntries,
	})
}

type preloadRequest struct {
	Symbols []string `json:"symbols"`
}

// HandlePreload handles POST /api/cache/preload - warms the cache for 1 to
// 10 symbols.
func (h *Handler) HandlePreload(w http.ResponseWriter, r *http.Request) {
	var req preloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Symbols) == 0 {
		http.Error(w, "No symbols provided", http.StatusBadRequest)
		return
	}
	if len(req.Symbols) > optimizer.MaxPreloadSymbols {
		http.Error(w, fmt.Sprintf("At most %d symbols per preload", optimizer.MaxPreloadSymbols), http.StatusBadRequest)
		return
	}

	result := h.opt.Preload(r.Context(), req.Symbols)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// HandleRefreshCandidates handles GET /api/cache/refresh-candidates.
func (h *Handler) HandleRefreshCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.opt.RefreshCandidates()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list refresh candidates")
		http.Error(w, "Failed to list refresh candidates", http.StatusInternalServerError)
		return
	}
	if candidates == nil {
		candidates = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// HandleClearExpired handles POST /api/cache/clear-expired.
func (h *Handler) HandleClearExpired(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.opt.SweepExpired()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to clear expired entries")
		http.Error(w, "Failed to clear expired entries", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"deletedEntries": deleted,
	})
}
