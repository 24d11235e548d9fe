// Package handlers exposes the export HTTP API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Atharva9281/WindBorne/internal/export"
)

// Handler contains HTTP handlers for report downloads.
type Handler struct {
	svc *export.Service
	log zerolog.Logger
}

// NewHandler creates export API handlers.
func NewHandler(svc *export.Service, log zerolog.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log.With().Str("handler", "export").Logger(),
	}
}

// HandleCSV handles GET /api/export/csv.
func (h *Handler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	csv, err := h.svc.CSV(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("CSV export failed")
		http.Error(w, "CSV export failed", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("vendors-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write([]byte(csv))
}

// HandleJSON handles GET /api/export/json.
func (h *Handler) HandleJSON(w http.ResponseWriter, r *http.Request) {
	scored, err := h.svc.JSON(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("JSON export failed")
		http.Error(w, "JSON export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"exportedAt": time.Now().UTC(),
		"vendors":    scored,
	})
}

// HandleRiskReport handles GET /api/export/risk-report.
func (h *Handler) HandleRiskReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RiskReport()
	if err != nil {
		h.log.Error().Err(err).Msg("Risk report failed")
		http.Error(w, "Risk report failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
