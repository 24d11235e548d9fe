// Package vendors orchestrates fetch-and-cache processing for the tracked
// supplier portfolio: cache-first reads, paced upstream fetches, risk
// scoring, and portfolio-level aggregation.
package vendors

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Atharva9281/WindBorne/internal/database"
	"github.com/Atharva9281/WindBorne/internal/scoring"
)

// RiskRepository persists one risk score row per vendor.
type RiskRepository struct {
	db *sql.DB
}

// NewRiskRepository creates a risk score repository.
func NewRiskRepository(db *sql.DB) *RiskRepository {
	return &RiskRepository{db: db}
}

// Save validates and upserts a score. Out-of-range components or a tier that
// doesn't match the composite are rejected before touching the database.
func (r *RiskRepository) Save(score *scoring.RiskScore) error {
	if score == nil || score.Symbol == "" {
		return fmt.Errorf("risk score must have a symbol")
	}
	if !score.Valid() {
		return fmt.Errorf("risk score for %s failed validation", score.Symbol)
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM risk_scores WHERE symbol = ?", score.Symbol); err != nil {
			return fmt.Errorf("failed to clear prior score for %s: %w", score.Symbol, err)
		}
		_, err := tx.Exec(`
			INSERT INTO risk_scores
			(symbol, financial_health, market_stability, growth_prospects, financial_stability, risk_score, overall_risk, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			score.Symbol, score.FinancialHealth, score.MarketStability, score.GrowthProspects,
			score.FinancialStability, score.RiskScore, string(score.OverallRisk), score.UpdatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert score for %s: %w", score.Symbol, err)
		}
		return nil
	})
}

// Get returns the stored score for a symbol, or nil, nil if none exists.
func (r *RiskRepository) Get(symbol string) (*scoring.RiskScore, error) {
	score := &scoring.RiskScore{Symbol: symbol}
	var tier string
	var updatedAt int64

	err := r.db.QueryRow(`
		SELECT financial_health, market_stability, growth_prospects, financial_stability, risk_score, overall_risk, updated_at
		FROM risk_scores WHERE symbol = ?`, symbol,
	).Scan(&score.FinancialHealth, &score.MarketStability, &score.GrowthProspects,
		&score.FinancialStability, &score.RiskScore, &tier, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk score for %s: %w", symbol, err)
	}

	score.OverallRisk = scoring.Tier(tier)
	score.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return score, nil
}

// All returns every stored score, ordered by symbol.
func (r *RiskRepository) All() ([]*scoring.RiskScore, error) {
	rows, err := r.db.Query(`
		SELECT symbol, financial_health, market_stability, growth_prospects, financial_stability, risk_score, overall_risk, updated_at
		FROM risk_scores ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk scores: %w", err)
	}
	defer rows.Close()

	var scores []*scoring.RiskScore
	for rows.Next() {
		score := &scoring.RiskScore{}
		var tier string
		var updatedAt int64
		if err := rows.Scan(&score.Symbol, &score.FinancialHealth, &score.MarketStability,
			&score.GrowthProspects, &score.FinancialStability, &score.RiskScore, &tier, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan risk score: %w", err)
		}
		score.OverallRisk = scoring.Tier(tier)
		score.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		scores = append(scores, score)
	}
	return scores, rows.Err()
}
