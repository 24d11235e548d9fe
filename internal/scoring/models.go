// Package scoring computes deterministic supplier risk scores from normalized
// financial data. Scores are pure functions of their input record; the same
// record always produces the same scores.
package scoring

import "time"

// Tier buckets a composite score into a risk category.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Composite score thresholds. Scores at or above the boundary fall into the
// safer tier.
const (
	lowRiskFloor    = 75
	mediumRiskFloor = 55
)

// TierFor maps a composite score to its risk tier. This is the single
// authority for tier boundaries; every caller that labels a score goes
// through it.
func TierFor(score int) Tier {
	switch {
	case score >= lowRiskFloor:
		return TierLow
	case score >= mediumRiskFloor:
		return TierMedium
	default:
		return TierHigh
	}
}

// BalanceSheet holds the most recent annual filing figures, in raw dollars.
type BalanceSheet struct {
	TotalAssets             float64 `json:"total_assets"`
	TotalLiabilities        float64 `json:"total_liabilities"`
	TotalShareholderEquity  float64 `json:"total_shareholder_equity"`
	CashAndCashEquivalents  float64 `json:"cash_and_cash_equivalents"`
	ShortTermDebt           float64 `json:"short_term_debt"`
	LongTermDebt            float64 `json:"long_term_debt"`
	TotalCurrentAssets      float64 `json:"total_current_assets"`
	TotalCurrentLiabilities float64 `json:"total_current_liabilities"`
	FiscalDateEnding        string  `json:"fiscal_date_ending"`
}

// FinancialRatios are derived from the balance sheet and income data.
// Zero denominators leave the corresponding ratio at zero.
type FinancialRatios struct {
	DebtToEquity      float64 `json:"debt_to_equity"`
	TotalDebtToEquity float64 `json:"total_debt_to_equity"`
	CurrentRatio      float64 `json:"current_ratio"`
	QuickRatio        float64 `json:"quick_ratio"`
	CashRatio         float64 `json:"cash_ratio"`
	AssetTurnover     float64 `json:"asset_turnover"`
	WorkingCapital    float64 `json:"working_capital"`
	EquityRatio       float64 `json:"equity_ratio"`
}

// FinancialRecord is the normalized, vendor-neutral view of one company's
// financial data. Quarterly revenue is in billions, most recent quarter first.
// Percentages (profit margin, ROE) are 0-100, not fractions.
type FinancialRecord struct {
	Symbol           string           `json:"symbol"`
	Name             string           `json:"name"`
	Industry         string           `json:"industry"`
	VendorType       string           `json:"vendor_type"`
	MarketCap        float64          `json:"market_cap"`
	Revenue          float64          `json:"revenue"`
	ProfitMargin     float64          `json:"profit_margin"`
	PERatio          float64          `json:"pe_ratio"`
	Beta             float64          `json:"beta"`
	ROE              float64          `json:"roe"`
	DebtToEquity     float64          `json:"debt_to_equity"`
	WeekHigh52       float64          `json:"week_high_52"`
	WeekLow52        float64          `json:"week_low_52"`
	QuarterlyRevenue []float64        `json:"quarterly_revenue"`
	BalanceSheet     *BalanceSheet    `json:"balance_sheet,omitempty"`
	FinancialRatios  *FinancialRatios `json:"financial_ratios,omitempty"`
	LastUpdated      string           `json:"last_updated"`
}

// RiskScore holds the four component scores and their composite for one
// vendor. All components are integers in [0, 100].
type RiskScore struct {
	Symbol             string    `json:"symbol"`
	FinancialHealth    int       `json:"financialHealth"`
	MarketStability    int       `json:"marketStability"`
	GrowthProspects    int       `json:"growthProspects"`
	FinancialStability int       `json:"financialStability"`
	RiskScore          int       `json:"riskScore"`
	OverallRisk        Tier      `json:"overallRisk"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Valid reports whether every component and the composite are in range and
// the tier labels the composite. The neutral fallback is the one exception:
// it carries the fixed medium label even though its composite sits in the
// high band.
func (s *RiskScore) Valid() bool {
	for _, v := range []int{s.FinancialHealth, s.MarketStability, s.GrowthProspects, s.FinancialStability, s.RiskScore} {
		if v < 0 || v > 100 {
			return false
		}
	}
	if s.OverallRisk == TierFor(s.RiskScore) {
		return true
	}
	return s.isNeutralDefault()
}

func (s *RiskScore) isNeutralDefault() bool {
	return s.OverallRisk == TierMedium &&
		s.FinancialHealth == baseScore &&
		s.MarketStability == baseScore &&
		s.GrowthProspects == baseScore &&
		s.FinancialStability == baseScore &&
		s.RiskScore == baseScore
}

// DefaultScore is the neutral fallback used when scoring fails entirely:
// all components at the base value. The tier is fixed at medium; the base
// value signals "unknown", not "bad", so it must not read as high risk.
func DefaultScore(symbol string, now time.Time) *RiskScore {
	return &RiskScore{
		Symbol:             symbol,
		FinancialHealth:    baseScore,
		MarketStability:    baseScore,
		GrowthProspects:    baseScore,
		FinancialStability: baseScore,
		RiskScore:          baseScore,
		OverallRisk:        TierMedium,
		UpdatedAt:          now,
	}
}
