package vendors

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Atharva9281/WindBorne/internal/cache"
	"github.com/Atharva9281/WindBorne/internal/database"
	"github.com/Atharva9281/WindBorne/internal/scoring"
)

// Recomputed KPIs are reused for this long before being rebuilt from the
// underlying scores and cached records.
const kpiMaxAge = time.Hour

// KPISet holds the portfolio-level headline numbers.
type KPISet struct {
	TotalPortfolioValue string    `json:"totalPortfolioValue"`
	AvgProfitMargin     string    `json:"avgProfitMargin"`
	ActiveVendors       int       `json:"activeVendors"`
	AvgRiskScore        int       `json:"avgRiskScore"`
	HighRiskVendors     int       `json:"highRiskVendors"`
	TopPerformingVendor string    `json:"topPerformingVendor"`
	CalculatedAt        time.Time `json:"calculatedAt"`
}

// RiskAnalysis summarizes the portfolio's risk posture.
type RiskAnalysis struct {
	Distribution          map[scoring.Tier]int `json:"distribution"`
	AvgRiskScore          float64              `json:"avgRiskScore"`
	AvgFinancialHealth    float64              `json:"avgFinancialHealth"`
	AvgMarketStability    float64              `json:"avgMarketStability"`
	AvgGrowthProspects    float64              `json:"avgGrowthProspects"`
	AvgFinancialStability float64              `json:"avgFinancialStability"`
	HighRiskSymbols       []string             `json:"highRiskSymbols"`
	Recommendations       []string             `json:"recommendations"`
}

// PortfolioService aggregates stored risk scores and cached financial records
// into portfolio-level metrics, memoized in the portfolio_metrics table.
type PortfolioService struct {
	db     *sql.DB
	cache  *cache.Manager
	scores *RiskRepository
	log    zerolog.Logger
	now    func() time.Time
}

// NewPortfolioService creates a portfolio aggregation service.
func NewPortfolioService(db *sql.DB, cacheMgr *cache.Manager, scores *RiskRepository, log zerolog.Logger) *PortfolioService {
	return &PortfolioService{
		db:     db,
		cache:  cacheMgr,
		scores: scores,
		log:    log.With().Str("component", "portfolio").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// KPIs returns the portfolio headline numbers, serving the memoized set when
// it is younger than kpiMaxAge and recomputing otherwise.
func (p *PortfolioService) KPIs() (*KPISet, error) {
	now := p.now()

	if cached, err := p.loadStoredKPIs(now); err != nil {
		p.log.Warn().Err(err).Msg("Failed to load stored KPIs, recomputing")
	} else if cached != nil {
		return cached, nil
	}

	kpis, err := p.computeKPIs(now)
	if err != nil {
		return nil, err
	}
	if err := p.storeKPIs(kpis, now); err != nil {
		p.log.Warn().Err(err).Msg("Failed to memoize KPIs")
	}
	return kpis, nil
}

// Metrics returns the raw memoized metric rows, newest first.
func (p *PortfolioService) Metrics() (map[string]string, error) {
	rows, err := p.db.Query("SELECT metric_name, metric_value FROM portfolio_metrics ORDER BY calculated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio metrics: %w", err)
	}
	defer rows.Close()

	metrics := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		if _, ok := metrics[name]; !ok {
			metrics[name] = value
		}
	}
	return metrics, rows.Err()
}

func (p *PortfolioService) computeKPIs(now time.Time) (*KPISet, error) {
	scores, err := p.scores.All()
	if err != nil {
		return nil, err
	}

	kpis := &KPISet{TopPerformingVendor: "N/A", CalculatedAt: now}

	var totalValue, totalMargin float64
	var marginCount int
	for _, vendor := range Tracked {
		entry, err := p.cache.Store().Get(vendor.Symbol, cache.KindComprehensive)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		var record scoring.FinancialRecord
		if err := json.Unmarshal(entry.Payload, &record); err != nil {
			continue
		}
		kpis.ActiveVendors++
		totalValue += record.MarketCap
		if record.ProfitMargin != 0 {
			totalMargin += record.ProfitMargin
			marginCount++
		}
	}

	kpis.TotalPortfolioValue = fmt.Sprintf("$%.1fB", totalValue/1e9)
	if marginCount > 0 {
		kpis.AvgProfitMargin = fmt.Sprintf("%.1f%%", totalMargin/float64(marginCount))
	} else {
		kpis.AvgProfitMargin = "0.0%"
	}

	if len(scores) > 0 {
		var sum, best int
		for _, score := range scores {
			sum += score.RiskScore
			if score.OverallRisk == scoring.TierHigh {
				kpis.HighRiskVendors++
			}
			if score.RiskScore > best {
				best = score.RiskScore
				kpis.TopPerformingVendor = score.Symbol
			}
		}
		kpis.AvgRiskScore = int(float64(sum)/float64(len(scores)) + 0.5)
	}

	return kpis, nil
}

// RiskAnalysis aggregates the stored component scores into a portfolio view
// with tier distribution and plain-language recommendations.
func (p *PortfolioService) RiskAnalysis() (*RiskAnalysis, error) {
	scores, err := p.scores.All()
	if err != nil {
		return nil, err
	}

	analysis := &RiskAnalysis{
		Distribution: map[scoring.Tier]int{
			scoring.TierLow:    0,
			scoring.TierMedium: 0,
			scoring.TierHigh:   0,
		},
	}
	if len(scores) == 0 {
		analysis.Recommendations = []string{"No risk scores available yet; run vendor processing first"}
		return analysis, nil
	}

	var composite, fh, ms, gp, fs int
	for _, score := range scores {
		analysis.Distribution[score.OverallRisk]++
		composite += score.RiskScore
		fh += score.FinancialHealth
		ms += score.MarketStability
		gp += score.GrowthProspects
		fs += score.FinancialStability
		if score.OverallRisk == scoring.TierHigh {
			analysis.HighRiskSymbols = append(analysis.HighRiskSymbols, score.Symbol)
		}
	}

	n := float64(len(scores))
	analysis.AvgRiskScore = float64(composite) / n
	analysis.AvgFinancialHealth = float64(fh) / n
	analysis.AvgMarketStability = float64(ms) / n
	analysis.AvgGrowthProspects = float64(gp) / n
	analysis.AvgFinancialStability = float64(fs) / n

	if len(analysis.HighRiskSymbols) > 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			"Review exposure to high-risk vendors: "+strings.Join(analysis.HighRiskSymbols, ", "))
	}
	if analysis.AvgRiskScore < 60 {
		analysis.Recommendations = append(analysis.Recommendations,
			"Portfolio-wide risk is elevated; consider diversifying the supplier base")
	}
	if analysis.Distribution[scoring.TierLow] == 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			"No vendor currently rates low-risk; monitor quarterly filings closely")
	}
	if len(analysis.Recommendations) == 0 {
		analysis.Recommendations = []string{"Portfolio risk posture is healthy; no action required"}
	}
	return analysis, nil
}

// Metric row names for the memoized KPI set.
const (
	metricPortfolioValue = "total_portfolio_value"
	metricProfitMargin   = "avg_profit_margin"
	metricActiveVendors  = "active_vendors"
	metricAvgRisk        = "avg_risk_score"
	metricHighRisk       = "high_risk_vendors"
	metricTopVendor      = "top_performing_vendor"
)

func (p *PortfolioService) loadStoredKPIs(now time.Time) (*KPISet, error) {
	rows, err := p.db.Query("SELECT metric_name, metric_value, calculated_at FROM portfolio_metrics")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio metrics: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	var calculatedAt int64
	for rows.Next() {
		var name, value string
		var ts int64
		if err := rows.Scan(&name, &value, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		values[name] = value
		calculatedAt = ts
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(values) == 0 || now.Sub(time.Unix(calculatedAt, 0)) >= kpiMaxAge {
		return nil, nil
	}

	kpis := &KPISet{
		TotalPortfolioValue: values[metricPortfolioValue],
		AvgProfitMargin:     values[metricProfitMargin],
		TopPerformingVendor: values[metricTopVendor],
		CalculatedAt:        time.Unix(calculatedAt, 0).UTC(),
	}
	kpis.ActiveVendors, _ = strconv.Atoi(values[metricActiveVendors])
	kpis.AvgRiskScore, _ = strconv.Atoi(values[metricAvgRisk])
	kpis.HighRiskVendors, _ = strconv.Atoi(values[metricHighRisk])
	return kpis, nil
}

// storeKPIs replaces the whole metric set atomically so readers never see a
// half-updated mix of old and new values.
func (p *PortfolioService) storeKPIs(kpis *KPISet, now time.Time) error {
	values := map[string]string{
		metricPortfolioValue: kpis.TotalPortfolioValue,
		metricProfitMargin:   kpis.AvgProfitMargin,
		metricActiveVendors:  strconv.Itoa(kpis.ActiveVendors),
		metricAvgRisk:        strconv.Itoa(kpis.AvgRiskScore),
		metricHighRisk:       strconv.Itoa(kpis.HighRiskVendors),
		metricTopVendor:      kpis.TopPerformingVendor,
	}

	return database.WithTransaction(p.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM portfolio_metrics"); err != nil {
			return fmt.Errorf("failed to clear portfolio metrics: %w", err)
		}
		for name, value := range values {
			if _, err := tx.Exec(
				"INSERT INTO portfolio_metrics (metric_name, metric_value, calculated_at) VALUES (?, ?, ?)",
				name, value, now.Unix(),
			); err != nil {
				return fmt.Errorf("failed to insert metric %s: %w", name, err)
			}
		}
		return nil
	})
}
