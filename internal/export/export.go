// Package export renders the vendor portfolio as downloadable CSV and JSON
// reports.
package export

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"github.com/Atharva9281/WindBorne/internal/scoring"
	"github.com/Atharva9281/WindBorne/internal/vendors"
)

// CSVRow is one vendor line in the CSV export.
type CSVRow struct {
	Symbol        string  `csv:"symbol"`
	Name          string  `csv:"name"`
	VendorType    string  `csv:"vendor_type"`
	Industry      string  `csv:"industry"`
	MarketCapB    float64 `csv:"market_cap_billions"`
	RevenueB      float64 `csv:"revenue_billions"`
	ProfitMargin  float64 `csv:"profit_margin_pct"`
	PERatio       float64 `csv:"pe_ratio"`
	Beta          float64 `csv:"beta"`
	RiskScore     int     `csv:"risk_score"`
	OverallRisk   string  `csv:"overall_risk"`
	LastUpdated   string  `csv:"last_updated"`
}

// RiskReport is the combined per-vendor and portfolio-level risk view.
type RiskReport struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Vendors     []*scoring.RiskScore   `json:"vendors"`
	Portfolio   *vendors.RiskAnalysis  `json:"portfolio"`
}

// Service builds export payloads from the processed vendor portfolio.
type Service struct {
	vendors   *vendors.Service
	portfolio *vendors.PortfolioService
	scores    *vendors.RiskRepository
	log       zerolog.Logger
}

// NewService creates an export service.
func NewService(vendorSvc *vendors.Service, portfolio *vendors.PortfolioService, scores *vendors.RiskRepository, log zerolog.Logger) *Service {
	return &Service{
		vendors:   vendorSvc,
		portfolio: portfolio,
		scores:    scores,
		log:       log.With().Str("component", "export").Logger(),
	}
}

// CSV renders the full portfolio as CSV, one row per vendor, ordered by
// symbol.
func (s *Service) CSV(ctx context.Context) (string, error) {
	scored, err := s.vendors.ProcessAll(ctx)
	if err != nil {
		return "", err
	}

	rows := make([]*CSVRow, 0, len(scored))
	for _, sv := range scored {
		rows = append(rows, toRow(sv))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return "", fmt.Errorf("failed to render CSV: %w", err)
	}
	return out, nil
}

// JSON returns the full scored portfolio for machine consumption.
func (s *Service) JSON(ctx context.Context) ([]*vendors.ScoredVendor, error) {
	scored, err := s.vendors.ProcessAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Data.Symbol < scored[j].Data.Symbol })
	return scored, nil
}

// RiskReport combines stored per-vendor scores with the portfolio analysis.
// It reads stored scores rather than reprocessing, so it is cheap to serve.
func (s *Service) RiskReport() (*RiskReport, error) {
	scores, err := s.scores.All()
	if err != nil {
		return nil, err
	}
	analysis, err := s.portfolio.RiskAnalysis()
	if err != nil {
		return nil, err
	}

	return &RiskReport{
		GeneratedAt: time.Now().UTC(),
		Vendors:     scores,
		Portfolio:   analysis,
	}, nil
}

func toRow(sv *vendors.ScoredVendor) *CSVRow {
	row := &CSVRow{
		Symbol:       sv.Data.Symbol,
		Name:         sv.Data.Name,
		VendorType:   sv.Data.VendorType,
		Industry:     sv.Data.Industry,
		MarketCapB:   sv.Data.MarketCap / 1e9,
		RevenueB:     sv.Data.Revenue / 1e9,
		ProfitMargin: sv.Data.ProfitMargin,
		PERatio:      sv.Data.PERatio,
		Beta:         sv.Data.Beta,
		LastUpdated:  sv.Data.LastUpdated,
	}
	if sv.Risk != nil {
		row.RiskScore = sv.Risk.RiskScore
		row.OverallRisk = string(sv.Risk.OverallRisk)
	}
	return row
}
