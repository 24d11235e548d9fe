package alphavantage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 45000000000.0, parseNumber("45000000000"))
	assert.Equal(t, 1234.5, parseNumber("1,234.5"))
	assert.Equal(t, -3.2, parseNumber("-3.2"))
	assert.Equal(t, 0.0, parseNumber("None"))
	assert.Equal(t, 0.0, parseNumber("-"))
	assert.Equal(t, 0.0, parseNumber(""))
}

func TestParsePercentage(t *testing.T) {
	assert.InDelta(t, 15.6, parsePercentage("0.156"), 0.001)
	assert.InDelta(t, 12.5, parsePercentage("12.5%"), 0.001)
	assert.Equal(t, 0.0, parsePercentage("None"))
}

func TestClassifyIndustry(t *testing.T) {
	assert.Equal(t, "Sensors", classifyIndustry("Electronic Components"))
	assert.Equal(t, "Sensors", classifyIndustry("Information Technology"))
	assert.Equal(t, "Plastics", classifyIndustry("Specialty Chemicals"))
	assert.Equal(t, "Plastics", classifyIndustry("Basic Materials"))
	assert.Equal(t, "Other", classifyIndustry("Consumer Staples"))

	assert.Equal(t, "Sensor Supplier", vendorTypeFor("Electronic Components"))
	assert.Equal(t, "Materials Supplier", vendorTypeFor("Specialty Chemicals"))
	assert.Equal(t, "Other Supplier", vendorTypeFor("Banking"))
}

func testOverview() Overview {
	return Overview{
		"Symbol":               "TEL",
		"Name":                 "TE Connectivity",
		"Industry":             "Electronic Components",
		"MarketCapitalization": "45000000000",
		"RevenueTTM":           "16000000000",
		"ProfitMargin":         "0.15",
		"PERatio":              "18.5",
		"Beta":                 "1.1",
		"ReturnOnEquityTTM":    "0.21",
		"DebtToEquityRatio":    "0.45",
		"52WeekHigh":           "160.5",
		"52WeekLow":            "110.2",
	}
}

func TestNormalizeOverviewFields(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	record := Normalize(testOverview(), nil, nil, now)

	assert.Equal(t, "TEL", record.Symbol)
	assert.Equal(t, "TE Connectivity", record.Name)
	assert.Equal(t, "Sensors", record.Industry)
	assert.Equal(t, "Sensor Supplier", record.VendorType)
	assert.Equal(t, 45e9, record.MarketCap)
	assert.InDelta(t, 15.0, record.ProfitMargin, 0.001)
	assert.InDelta(t, 21.0, record.ROE, 0.001)
	assert.Equal(t, 18.5, record.PERatio)
	assert.Equal(t, 160.5, record.WeekHigh52)
	assert.Equal(t, "2026-08-01T12:00:00Z", record.LastUpdated)
}

func TestNormalizeQuarterlyRevenueInBillions(t *testing.T) {
	income := &IncomeStatement{
		Symbol: "TEL",
		QuarterlyReports: []map[string]string{
			{"totalRevenue": "4100000000"},
			{"totalRevenue": "4000000000"},
			{"totalRevenue": "3900000000"},
			{"totalRevenue": "3800000000"},
			{"totalRevenue": "3700000000"}, // fifth quarter is dropped
		},
	}

	record := Normalize(testOverview(), income, nil, time.Now().UTC())
	require.Len(t, record.QuarterlyRevenue, 4)
	assert.InDelta(t, 4.1, record.QuarterlyRevenue[0], 0.001)
	assert.InDelta(t, 3.8, record.QuarterlyRevenue[3], 0.001)
}

func TestNormalizeQuarterlyFallbackFromTTM(t *testing.T) {
	record := Normalize(testOverview(), nil, nil, time.Now().UTC())

	// 16B TTM -> 4B flat per quarter, so growth scoring sees no trend.
	require.Len(t, record.QuarterlyRevenue, 4)
	for _, q := range record.QuarterlyRevenue {
		assert.InDelta(t, 4.0, q, 0.001)
	}
}

func TestNormalizeBalanceSheetAndRatios(t *testing.T) {
	sheet := &BalanceSheetResponse{
		Symbol: "TEL",
		AnnualReports: []map[string]string{{
			"fiscalDateEnding":        "2025-09-30",
			"totalAssets":             "20000000000",
			"totalLiabilities":        "8000000000",
			"totalShareholderEquity":  "12000000000",
			"cashAndCashEquivalents":  "3000000000",
			"shortTermDebt":           "500000000",
			"longTermDebt":            "3500000000",
			"totalCurrentAssets":      "9000000000",
			"totalCurrentLiabilities": "4000000000",
		}},
	}

	record := Normalize(testOverview(), nil, sheet, time.Now().UTC())
	require.NotNil(t, record.BalanceSheet)
	require.NotNil(t, record.FinancialRatios)

	bs := record.BalanceSheet
	assert.Equal(t, "2025-09-30", bs.FiscalDateEnding)
	assert.Equal(t, 20e9, bs.TotalAssets)

	ratios := record.FinancialRatios
	assert.InDelta(t, 8.0/12.0, ratios.DebtToEquity, 0.001)
	assert.InDelta(t, 4.0/12.0, ratios.TotalDebtToEquity, 0.001)
	assert.InDelta(t, 2.25, ratios.CurrentRatio, 0.001)
	assert.InDelta(t, 0.75, ratios.QuickRatio, 0.001)
	assert.InDelta(t, 0.15, ratios.CashRatio, 0.001)
	assert.InDelta(t, 0.8, ratios.AssetTurnover, 0.001) // 16B revenue / 20B assets
	assert.InDelta(t, 5e9, ratios.WorkingCapital, 1)
	assert.InDelta(t, 0.6, ratios.EquityRatio, 0.001)
}

func TestNormalizeZeroDenominatorsLeaveRatiosZero(t *testing.T) {
	sheet := &BalanceSheetResponse{
		Symbol:        "X",
		AnnualReports: []map[string]string{{"totalAssets": "0", "totalShareholderEquity": "0"}},
	}

	record := Normalize(testOverview(), nil, sheet, time.Now().UTC())
	require.NotNil(t, record.FinancialRatios)
	assert.Equal(t, 0.0, record.FinancialRatios.DebtToEquity)
	assert.Equal(t, 0.0, record.FinancialRatios.CurrentRatio)
	assert.Equal(t, 0.0, record.FinancialRatios.EquityRatio)
}
