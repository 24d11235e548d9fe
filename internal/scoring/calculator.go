package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Every component starts at the neutral base and accumulates band
// adjustments before clamping to [0, 100].
const baseScore = 50

// Calculator scores financial records. It holds no state beyond its logger;
// scoring is deterministic.
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a risk calculator.
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{log: log.With().Str("component", "risk_calculator").Logger()}
}

// Score computes the four component scores and their composite for a record.
// A nil record or an internal panic yields the neutral default score rather
// than an error: scoring must never take down batch processing.
func (c *Calculator) Score(record *FinancialRecord, now time.Time) (score *RiskScore) {
	symbol := ""
	if record != nil {
		symbol = record.Symbol
	}

	defer func() {
		if p := recover(); p != nil {
			c.log.Error().Str("symbol", symbol).Interface("panic", p).Msg("Risk scoring panicked, using default score")
			score = DefaultScore(symbol, now)
		}
	}()

	if record == nil {
		return DefaultScore(symbol, now)
	}

	fh := financialHealth(record)
	ms := marketStability(record)
	gp := growthProspects(record)
	fs := financialStability(record)

	composite := int(math.Round(float64(fh+ms+gp+fs) / 4.0))

	return &RiskScore{
		Symbol:             record.Symbol,
		FinancialHealth:    fh,
		MarketStability:    ms,
		GrowthProspects:    gp,
		FinancialStability: fs,
		RiskScore:          composite,
		OverallRisk:        TierFor(composite),
		UpdatedAt:          now,
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// financialHealth rates profitability and leverage: profit margin, P/E,
// return on equity, and debt-to-equity.
func financialHealth(r *FinancialRecord) int {
	score := baseScore

	switch {
	case r.ProfitMargin > 15:
		score += 30
	case r.ProfitMargin > 10:
		score += 20
	case r.ProfitMargin > 5:
		score += 10
	case r.ProfitMargin < -10:
		score -= 40
	case r.ProfitMargin < -5:
		score -= 30
	case r.ProfitMargin < 0:
		score -= 25
	}

	switch {
	case r.PERatio >= 10 && r.PERatio <= 25:
		score += 20
	case (r.PERatio >= 5 && r.PERatio < 10) || (r.PERatio > 25 && r.PERatio <= 35):
		score += 10
	case r.PERatio > 50:
		score -= 10
	case r.PERatio == 0:
		score -= 15
	}

	switch {
	case r.ROE > 20:
		score += 20
	case r.ROE > 15:
		score += 15
	case r.ROE > 10:
		score += 10
	case r.ROE < 0:
		score -= 15
	}

	if r.DebtToEquity > 0 {
		switch {
		case r.DebtToEquity < 0.3:
			score += 10
		case r.DebtToEquity < 0.6:
			score += 5
		case r.DebtToEquity > 1.5:
			score -= 20
		case r.DebtToEquity > 1.0:
			score -= 10
		}
	}

	return clamp(score)
}

// marketStability rates size and price behavior: market cap, beta, and the
// 52-week trading range.
func marketStability(r *FinancialRecord) int {
	score := baseScore

	mcapB := r.MarketCap / 1e9
	switch {
	case mcapB > 50:
		score += 25
	case mcapB > 20:
		score += 20
	case mcapB > 10:
		score += 15
	case mcapB > 5:
		score += 10
	case mcapB < 1:
		score -= 10
	}

	if r.Beta > 0 {
		switch {
		case r.Beta < 0.5:
			score += 25
		case r.Beta < 0.8:
			score += 15
		case r.Beta < 1.2:
			score += 5
		case r.Beta < 1.5:
			score -= 5
		case r.Beta < 2.0:
			score -= 15
		default:
			score -= 25
		}
	}

	if r.WeekHigh52 > 0 && r.WeekLow52 > 0 {
		volatility := (r.WeekHigh52 - r.WeekLow52) / r.WeekLow52
		switch {
		case volatility < 0.2:
			score += 20
		case volatility < 0.4:
			score += 10
		case volatility > 1.0:
			score -= 20
		case volatility > 0.6:
			score -= 10
		}
	}

	return clamp(score)
}

// growthProspects rates revenue trajectory, sector exposure, and
// growth-priced valuation.
func growthProspects(r *FinancialRecord) int {
	score := baseScore

	if len(r.QuarterlyRevenue) >= 2 && r.QuarterlyRevenue[1] > 0 {
		latest, previous := r.QuarterlyRevenue[0], r.QuarterlyRevenue[1]
		if latest > previous {
			growth := (latest - previous) / previous
			switch {
			case growth > 0.1:
				score += 30
			case growth > 0.05:
				score += 20
			case growth > 0:
				score += 10
			}
		} else {
			decline := (previous - latest) / previous
			switch {
			case decline > 0.1:
				score -= 20
			case decline > 0.05:
				score -= 10
			}
		}
	}

	if containsFold(r.VendorType, "Sensor") || containsFold(r.Industry, "technology") {
		score += 20
	} else if containsFold(r.VendorType, "Materials") {
		score += 10
	}

	switch {
	case r.PERatio >= 15 && r.PERatio <= 30:
		score += 20
	case r.PERatio > 30 && r.PERatio <= 50:
		score += 15
	case r.PERatio > 50:
		score -= 10
	}

	return clamp(score)
}

// financialStability rates balance-sheet strength via the derived ratios.
// Without a balance sheet there is nothing to rate and the base applies.
func financialStability(r *FinancialRecord) int {
	if r.BalanceSheet == nil || r.FinancialRatios == nil {
		return baseScore
	}

	score := baseScore
	ratios := r.FinancialRatios

	switch {
	case ratios.DebtToEquity < 0.3:
		score += 25
	case ratios.DebtToEquity < 0.6:
		score += 15
	case ratios.DebtToEquity < 1.0:
		score += 5
	case ratios.DebtToEquity > 2.0:
		score -= 25
	case ratios.DebtToEquity > 1.5:
		score -= 15
	}

	switch {
	case ratios.CurrentRatio > 2.0:
		score += 20
	case ratios.CurrentRatio > 1.5:
		score += 15
	case ratios.CurrentRatio > 1.2:
		score += 10
	case ratios.CurrentRatio < 1.0:
		score -= 20
	case ratios.CurrentRatio < 1.1:
		score -= 10
	}

	switch {
	case ratios.CashRatio > 0.20:
		score += 15
	case ratios.CashRatio > 0.15:
		score += 12
	case ratios.CashRatio > 0.10:
		score += 8
	case ratios.CashRatio > 0.05:
		score += 5
	case ratios.CashRatio < 0.02:
		score -= 10
	}

	if r.BalanceSheet.TotalAssets > 0 {
		wcRatio := ratios.WorkingCapital / r.BalanceSheet.TotalAssets
		switch {
		case wcRatio > 0.20:
			score += 15
		case wcRatio > 0.10:
			score += 10
		case wcRatio > 0.05:
			score += 5
		case wcRatio < -0.05:
			score -= 15
		case wcRatio < 0:
			score -= 8
		}
	}

	switch {
	case ratios.EquityRatio > 0.60:
		score += 15
	case ratios.EquityRatio > 0.50:
		score += 12
	case ratios.EquityRatio > 0.40:
		score += 8
	case ratios.EquityRatio > 0.30:
		score += 5
	case ratios.EquityRatio < 0.20:
		score -= 15
	case ratios.EquityRatio < 0.25:
		score -= 8
	}

	switch {
	case ratios.AssetTurnover > 1.5:
		score += 10
	case ratios.AssetTurnover > 1.0:
		score += 8
	case ratios.AssetTurnover > 0.7:
		score += 5
	case ratios.AssetTurnover < 0.3:
		score -= 5
	}

	return clamp(score)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
