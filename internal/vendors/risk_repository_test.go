package vendors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atharva9281/WindBorne/internal/scoring"
)

func validScore(symbol string, composite int) *scoring.RiskScore {
	return &scoring.RiskScore{
		Symbol:             symbol,
		FinancialHealth:    composite,
		MarketStability:    composite,
		GrowthProspects:    composite,
		FinancialStability: composite,
		RiskScore:          composite,
		OverallRisk:        scoring.TierFor(composite),
		UpdatedAt:          time.Now().UTC().Truncate(time.Second),
	}
}

func TestRiskRepositorySaveAndGet(t *testing.T) {
	repo := NewRiskRepository(setupTestDB(t))

	score := validScore("TEL", 82)
	require.NoError(t, repo.Save(score))

	got, err := repo.Get("TEL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 82, got.RiskScore)
	assert.Equal(t, scoring.TierLow, got.OverallRisk)
	assert.Equal(t, score.UpdatedAt, got.UpdatedAt)
}

func TestRiskRepositoryGetMissing(t *testing.T) {
	repo := NewRiskRepository(setupTestDB(t))

	got, err := repo.Get("NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRiskRepositorySaveReplacesPriorScore(t *testing.T) {
	repo := NewRiskRepository(setupTestDB(t))

	require.NoError(t, repo.Save(validScore("TEL", 80)))
	require.NoError(t, repo.Save(validScore("TEL", 40)))

	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 40, all[0].RiskScore)
	assert.Equal(t, scoring.TierHigh, all[0].OverallRisk)
}

func TestRiskRepositoryRejectsInvalidScores(t *testing.T) {
	repo := NewRiskRepository(setupTestDB(t))

	outOfRange := validScore("TEL", 80)
	outOfRange.FinancialHealth = 150
	assert.Error(t, repo.Save(outOfRange))

	wrongTier := validScore("TEL", 80)
	wrongTier.OverallRisk = scoring.TierHigh
	assert.Error(t, repo.Save(wrongTier))

	assert.Error(t, repo.Save(&scoring.RiskScore{}), "missing symbol")
	assert.Error(t, repo.Save(nil))

	all, err := repo.All()
	require.NoError(t, err)
	assert.Empty(t, all, "invalid scores must never reach storage")
}

func TestRiskRepositoryAllOrdersBySymbol(t *testing.T) {
	repo := NewRiskRepository(setupTestDB(t))

	require.NoError(t, repo.Save(validScore("LYB", 60)))
	require.NoError(t, repo.Save(validScore("CE", 70)))
	require.NoError(t, repo.Save(validScore("DD", 50)))

	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "CE", all[0].Symbol)
	assert.Equal(t, "DD", all[1].Symbol)
	assert.Equal(t, "LYB", all[2].Symbol)
}
