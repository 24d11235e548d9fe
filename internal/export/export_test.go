package export

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atharva9281/WindBorne/internal/cache"
	"github.com/Atharva9281/WindBorne/internal/clients/alphavantage"
	"github.com/Atharva9281/WindBorne/internal/scoring"
	"github.com/Atharva9281/WindBorne/internal/vendors"
)

const testSchema = `
CREATE TABLE vendor_cache (
    symbol     TEXT NOT NULL,
    data_kind  TEXT NOT NULL,
    payload    TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL,
    PRIMARY KEY (symbol, data_kind)
);
CREATE TABLE cache_stats (
    date           TEXT PRIMARY KEY,
    api_calls_made INTEGER NOT NULL DEFAULT 0,
    cache_hits     INTEGER NOT NULL DEFAULT 0,
    cache_misses   INTEGER NOT NULL DEFAULT 0,
    errors_count   INTEGER NOT NULL DEFAULT 0,
    updated_at     INTEGER NOT NULL
);
CREATE TABLE risk_scores (
    symbol              TEXT PRIMARY KEY,
    financial_health    INTEGER NOT NULL,
    market_stability    INTEGER NOT NULL,
    growth_prospects    INTEGER NOT NULL,
    financial_stability INTEGER NOT NULL,
    risk_score          INTEGER NOT NULL,
    overall_risk        TEXT NOT NULL,
    updated_at          INTEGER NOT NULL
);
CREATE TABLE portfolio_metrics (
    metric_name   TEXT PRIMARY KEY,
    metric_value  TEXT NOT NULL,
    calculated_at INTEGER NOT NULL
);
`

type staticProvider struct{}

func (staticProvider) CompanyOverview(ctx context.Context, symbol string) (alphavantage.Overview, error) {
	return alphavantage.Overview{
		"Symbol":               symbol,
		"Name":                 symbol + " Inc",
		"Industry":             "Specialty Chemicals",
		"MarketCapitalization": "12000000000",
		"RevenueTTM":           "8000000000",
		"ProfitMargin":         "0.09",
		"PERatio":              "14",
		"Beta":                 "1.0",
	}, nil
}

func (staticProvider) IncomeStatement(ctx context.Context, symbol string) (*alphavantage.IncomeStatement, error) {
	return &alphavantage.IncomeStatement{Symbol: symbol}, nil
}

func (staticProvider) BalanceSheet(ctx context.Context, symbol string) (*alphavantage.BalanceSheetResponse, error) {
	return &alphavantage.BalanceSheetResponse{Symbol: symbol}, nil
}

func setupExport(t *testing.T) *Service {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	mgr := cache.NewManager(cache.NewStore(db), cache.NewPolicy(), cache.NewStatsRepo(db), zerolog.Nop())
	scores := vendors.NewRiskRepository(db)
	svc := vendors.NewService(mgr, scores, scoring.NewCalculator(zerolog.Nop()), staticProvider{}, 5*time.Second, zerolog.Nop())
	portfolio := vendors.NewPortfolioService(db, mgr, scores, zerolog.Nop())

	return NewService(svc, portfolio, scores, zerolog.Nop())
}

func TestCSVExport(t *testing.T) {
	svc := setupExport(t)

	out, err := svc.CSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(vendors.Tracked)+1, "header plus one row per vendor")
	assert.Contains(t, lines[0], "symbol")
	assert.Contains(t, lines[0], "market_cap_billions")
	assert.Contains(t, lines[0], "overall_risk")

	// Rows sorted by symbol; CE is first alphabetically.
	assert.True(t, strings.HasPrefix(lines[1], "CE,"))
}

func TestJSONExportSorted(t *testing.T) {
	svc := setupExport(t)

	scored, err := svc.JSON(context.Background())
	require.NoError(t, err)
	require.Len(t, scored, len(vendors.Tracked))

	for i := 1; i < len(scored); i++ {
		assert.Less(t, scored[i-1].Data.Symbol, scored[i].Data.Symbol)
	}
}

func TestRiskReport(t *testing.T) {
	svc := setupExport(t)

	// Populate stored scores first.
	_, err := svc.JSON(context.Background())
	require.NoError(t, err)

	report, err := svc.RiskReport()
	require.NoError(t, err)
	assert.Len(t, report.Vendors, len(vendors.Tracked))
	require.NotNil(t, report.Portfolio)
	assert.NotEmpty(t, report.Portfolio.Recommendations)
	assert.False(t, report.GeneratedAt.IsZero())
}
