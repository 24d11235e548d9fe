// Package cache provides persistent, time-bounded caching for upstream vendor
// data. All payloads are stored as opaque JSON blobs keyed by
// (symbol, data kind) with creation and expiration timestamps.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the category of a cached payload.
type Kind string

// Data kinds tracked per vendor. Comprehensive is the merged record derived
// from the three raw upstream responses.
const (
	KindOverview      Kind = "overview"
	KindIncome        Kind = "income"
	KindBalanceSheet  Kind = "balance_sheet"
	KindComprehensive Kind = "comprehensive"
)

// AllKinds lists every data kind, used by expiry tuning and status reporting.
var AllKinds = []Kind{KindComprehensive, KindOverview, KindIncome, KindBalanceSheet}

// Entry is one cached payload. The payload is opaque to the store.
type Entry struct {
	Symbol    string
	Kind      Kind
	Payload   json.RawMessage
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store provides cache operations over the vendor_cache table.
// At most one live entry exists per (symbol, kind); writes atomically replace
// any prior entry for the same key.
type Store struct {
	db *sql.DB
}

// NewStore creates a new cache store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the entry for (symbol, kind) regardless of expiration status.
// Returns nil, nil if the key doesn't exist.
func (s *Store) Get(symbol string, kind Kind) (*Entry, error) {
	var payload string
	var createdAt, expiresAt int64

	err := s.db.QueryRow(
		"SELECT payload, created_at, expires_at FROM vendor_cache WHERE symbol = ? AND data_kind = ?",
		symbol, string(kind),
	).Scan(&payload, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry for %s/%s: %w", symbol, kind, err)
	}

	return &Entry{
		Symbol:    symbol,
		Kind:      kind,
		Payload:   json.RawMessage(payload),
		CreatedAt: time.Unix(createdAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}, nil
}

// Put stores a payload with expiration = now + ttl, replacing any existing
// entry for the same (symbol, kind).
func (s *Store) Put(symbol string, kind Kind, payload []byte, ttl time.Duration, now time.Time) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO vendor_cache (symbol, data_kind, payload, created_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		symbol, string(kind), string(payload), now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry for %s/%s: %w", symbol, kind, err)
	}
	return nil
}

// Delete removes the entry for (symbol, kind).
// Returns the number of rows deleted (0 or 1).
func (s *Store) Delete(symbol string, kind Kind) (int64, error) {
	result, err := s.db.Exec(
		"DELETE FROM vendor_cache WHERE symbol = ? AND data_kind = ?",
		symbol, string(kind),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entry for %s/%s: %w", symbol, kind, err)
	}
	return result.RowsAffected()
}

// DeleteVendor removes all entries for a symbol, across all data kinds.
// Used by force-refresh to invalidate every key of one vendor at once.
func (s *Store) DeleteVendor(symbol string) (int64, error) {
	result, err := s.db.Exec("DELETE FROM vendor_cache WHERE symbol = ?", symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries for %s: %w", symbol, err)
	}
	return result.RowsAffected()
}

// DeleteExpired removes all entries with expires_at <= now.
// Returns the number of rows deleted.
func (s *Store) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM vendor_cache WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return result.RowsAffected()
}

// AgeStats summarizes the current cache population for staleness reporting.
type AgeStats struct {
	Total       int
	Expired     int
	AvgAgeHours float64
	ByKind      map[Kind]int
}

// Age returns entry counts and the average entry age in hours, computed from
// creation timestamps (not expiry).
func (s *Store) Age(now time.Time) (*AgeStats, error) {
	stats := &AgeStats{ByKind: make(map[Kind]int)}

	err := s.db.QueryRow("SELECT COUNT(*) FROM vendor_cache").Scan(&stats.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to count cache entries: %w", err)
	}

	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM vendor_cache WHERE expires_at <= ?", now.Unix(),
	).Scan(&stats.Expired)
	if err != nil {
		return nil, fmt.Errorf("failed to count expired cache entries: %w", err)
	}

	if stats.Total > 0 {
		var avgAgeSeconds sql.NullFloat64
		err = s.db.QueryRow(
			"SELECT AVG(? - created_at) FROM vendor_cache", now.Unix(),
		).Scan(&avgAgeSeconds)
		if err != nil {
			return nil, fmt.Errorf("failed to compute average cache age: %w", err)
		}
		if avgAgeSeconds.Valid {
			stats.AvgAgeHours = avgAgeSeconds.Float64 / 3600.0
		}
	}

	rows, err := s.db.Query("SELECT data_kind, COUNT(*) FROM vendor_cache GROUP BY data_kind")
	if err != nil {
		return nil, fmt.Errorf("failed to count cache entries by kind: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan kind count: %w", err)
		}
		stats.ByKind[Kind(kind)] = count
	}
	return stats, rows.Err()
}

// NearExpiry returns the distinct symbols that have at least one entry whose
// expiry falls within (now, now+horizon]. Already-expired entries do not
// qualify; they are handled by the sweep, not by priority refresh.
func (s *Store) NearExpiry(now time.Time, horizon time.Duration) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT DISTINCT symbol FROM vendor_cache WHERE expires_at > ? AND expires_at <= ? ORDER BY symbol",
		now.Unix(), now.Add(horizon).Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query near-expiry entries: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan near-expiry symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// ExtendExpiry sets expires_at = newExpiry on all currently-unexpired entries
// of the given kind. Expired entries are left untouched - they are swept
// separately. Returns the number of rows updated.
func (s *Store) ExtendExpiry(kind Kind, newExpiry, now time.Time) (int64, error) {
	result, err := s.db.Exec(
		"UPDATE vendor_cache SET expires_at = ? WHERE data_kind = ? AND expires_at > ?",
		newExpiry.Unix(), string(kind), now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to extend expiry for kind %s: %w", kind, err)
	}
	return result.RowsAffected()
}
