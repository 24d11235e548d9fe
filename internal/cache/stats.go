package cache

import (
	"database/sql"
	"fmt"
	"time"
)

// DayStats holds one day's cache traffic counters.
type DayStats struct {
	Date      string `json:"date"`
	APICalls  int    `json:"apiCallsMade"`
	Hits      int    `json:"cacheHits"`
	Misses    int    `json:"cacheMisses"`
	Errors    int    `json:"errorsCount"`
	UpdatedAt time.Time
}

// HitRate returns the fraction of lookups served from cache, as a percentage.
// Returns 0 when there has been no traffic.
func (s *DayStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// StatsRepo tracks daily cache hit/miss/call counters in the cache_stats
// table, one row per calendar day.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo creates a new stats repository.
func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) increment(column string, now time.Time) error {
	date := now.UTC().Format("2006-01-02")
	query := fmt.Sprintf(`
		INSERT INTO cache_stats (date, %s, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(date) DO UPDATE SET %s = %s + 1, updated_at = ?`,
		column, column, column)

	_, err := r.db.Exec(query, date, now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return nil
}

// RecordAPICall increments today's upstream call counter.
func (r *StatsRepo) RecordAPICall(now time.Time) error {
	return r.increment("api_calls_made", now)
}

// RecordHit increments today's cache hit counter.
func (r *StatsRepo) RecordHit(now time.Time) error {
	return r.increment("cache_hits", now)
}

// RecordMiss increments today's cache miss counter.
func (r *StatsRepo) RecordMiss(now time.Time) error {
	return r.increment("cache_misses", now)
}

// RecordError increments today's error counter.
func (r *StatsRepo) RecordError(now time.Time) error {
	return r.increment("errors_count", now)
}

// Today returns today's counters. A zero-valued DayStats is returned when no
// traffic has been recorded yet.
func (r *StatsRepo) Today(now time.Time) (*DayStats, error) {
	date := now.UTC().Format("2006-01-02")
	stats := &DayStats{Date: date}

	var updatedAt int64
	err := r.db.QueryRow(
		"SELECT api_calls_made, cache_hits, cache_misses, errors_count, updated_at FROM cache_stats WHERE date = ?",
		date,
	).Scan(&stats.APICalls, &stats.Hits, &stats.Misses, &stats.Errors, &updatedAt)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats for %s: %w", date, err)
	}

	stats.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return stats, nil
}
