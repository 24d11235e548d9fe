package alphavantage

import (
	"strconv"
	"strings"
	"time"

	"github.com/Atharva9281/WindBorne/internal/scoring"
)

// parseNumber converts an Alpha Vantage numeric string to a float. The
// provider mixes in "None", "-", and occasional thousands separators; anything
// unparseable becomes 0.
func parseNumber(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// parsePercentage converts a fractional string ("0.156") to a percentage
// (15.6). A trailing % means the value is already a percentage.
func parsePercentage(s string) float64 {
	if strings.Contains(s, "%") {
		return parseNumber(s)
	}
	return parseNumber(s) * 100
}

// classifyIndustry buckets the provider's industry string into the categories
// the scoring engine cares about.
func classifyIndustry(industry string) string {
	lower := strings.ToLower(industry)
	switch {
	case strings.Contains(lower, "technology"), strings.Contains(lower, "electronic"):
		return "Sensors"
	case strings.Contains(lower, "materials"), strings.Contains(lower, "chemical"):
		return "Plastics"
	default:
		return "Other"
	}
}

func vendorTypeFor(industry string) string {
	switch classifyIndustry(industry) {
	case "Sensors":
		return "Sensor Supplier"
	case "Plastics":
		return "Materials Supplier"
	default:
		return "Other Supplier"
	}
}

// Normalize merges the three raw responses into one financial record.
// The overview is required; income and sheet may be nil, in which case the
// record simply lacks quarterly history or balance-sheet data.
func Normalize(overview Overview, income *IncomeStatement, sheet *BalanceSheetResponse, now time.Time) *scoring.FinancialRecord {
	industry := overview["Industry"]

	record := &scoring.FinancialRecord{
		Symbol:       overview["Symbol"],
		Name:         overview["Name"],
		Industry:     classifyIndustry(industry),
		VendorType:   vendorTypeFor(industry),
		MarketCap:    parseNumber(overview["MarketCapitalization"]),
		Revenue:      parseNumber(overview["RevenueTTM"]),
		ProfitMargin: parsePercentage(overview["ProfitMargin"]),
		PERatio:      parseNumber(overview["PERatio"]),
		Beta:         parseNumber(overview["Beta"]),
		ROE:          parsePercentage(overview["ReturnOnEquityTTM"]),
		DebtToEquity: parseNumber(overview["DebtToEquityRatio"]),
		WeekHigh52:   parseNumber(overview["52WeekHigh"]),
		WeekLow52:    parseNumber(overview["52WeekLow"]),
		LastUpdated:  now.UTC().Format(time.RFC3339),
	}

	record.QuarterlyRevenue = quarterlyRevenue(income, record.Revenue)

	if sheet != nil && len(sheet.AnnualReports) > 0 {
		record.BalanceSheet = normalizeBalanceSheet(sheet.AnnualReports[0])
		record.FinancialRatios = deriveRatios(record.BalanceSheet, record.Revenue)
	}

	return record
}

// quarterlyRevenue returns up to four quarters of revenue in billions, most
// recent first. Without quarterly reports it synthesizes a flat history from
// trailing-twelve-month revenue so growth scoring sees no trend rather than
// a cliff.
func quarterlyRevenue(income *IncomeStatement, revenueTTM float64) []float64 {
	if income != nil && len(income.QuarterlyReports) > 0 {
		reports := income.QuarterlyReports
		if len(reports) > 4 {
			reports = reports[:4]
		}
		quarters := make([]float64, 0, len(reports))
		for _, report := range reports {
			quarters = append(quarters, parseNumber(report["totalRevenue"])/1e9)
		}
		return quarters
	}

	if revenueTTM > 0 {
		quarterly := revenueTTM / 1e9 * 0.25
		return []float64{quarterly, quarterly, quarterly, quarterly}
	}
	return nil
}

func normalizeBalanceSheet(report map[string]string) *scoring.BalanceSheet {
	return &scoring.BalanceSheet{
		TotalAssets:             parseNumber(report["totalAssets"]),
		TotalLiabilities:        parseNumber(report["totalLiabilities"]),
		TotalShareholderEquity:  parseNumber(report["totalShareholderEquity"]),
		CashAndCashEquivalents:  parseNumber(report["cashAndCashEquivalents"]),
		ShortTermDebt:           parseNumber(report["shortTermDebt"]),
		LongTermDebt:            parseNumber(report["longTermDebt"]),
		TotalCurrentAssets:      parseNumber(report["totalCurrentAssets"]),
		TotalCurrentLiabilities: parseNumber(report["totalCurrentLiabilities"]),
		FiscalDateEnding:        report["fiscalDateEnding"],
	}
}

// deriveRatios computes the stability ratios. Any zero denominator leaves the
// corresponding ratio at zero rather than erroring.
func deriveRatios(bs *scoring.BalanceSheet, revenueTTM float64) *scoring.FinancialRatios {
	ratios := &scoring.FinancialRatios{
		WorkingCapital: bs.TotalCurrentAssets - bs.TotalCurrentLiabilities,
	}

	if bs.TotalShareholderEquity > 0 {
		ratios.DebtToEquity = bs.TotalLiabilities / bs.TotalShareholderEquity
		ratios.TotalDebtToEquity = (bs.ShortTermDebt + bs.LongTermDebt) / bs.TotalShareholderEquity
	}
	if bs.TotalCurrentLiabilities > 0 {
		ratios.CurrentRatio = bs.TotalCurrentAssets / bs.TotalCurrentLiabilities
		ratios.QuickRatio = bs.CashAndCashEquivalents / bs.TotalCurrentLiabilities
	}
	if bs.TotalAssets > 0 {
		ratios.CashRatio = bs.CashAndCashEquivalents / bs.TotalAssets
		ratios.AssetTurnover = revenueTTM / bs.TotalAssets
		ratios.EquityRatio = bs.TotalShareholderEquity / bs.TotalAssets
	}

	return ratios
}
