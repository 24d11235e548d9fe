package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRefreshHorizon is how far ahead of expiry the priority refresh list
// looks when no horizon is given.
const DefaultRefreshHorizon = 2 * time.Hour

// TuneMultiplier is applied to high-usage kinds by expiry tuning.
const TuneMultiplier = 1.5

// Manager layers freshness policy and traffic accounting over the raw store.
// Reads treat expired or unreadable entries as misses; writes stamp expiry
// from the policy's current retention for the kind.
type Manager struct {
	store  *Store
	policy *Policy
	stats  *StatsRepo
	log    zerolog.Logger
}

// NewManager creates a cache manager.
func NewManager(store *Store, policy *Policy, stats *StatsRepo, log zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		policy: policy,
		stats:  stats,
		log:    log.With().Str("component", "cache_manager").Logger(),
	}
}

// Policy returns the freshness policy the manager stamps writes with.
func (m *Manager) Policy() *Policy {
	return m.policy
}

// Store returns the underlying store.
func (m *Manager) Store() *Store {
	return m.store
}

// ReadThrough returns the cached payload for (symbol, kind) if it exists and
// has not expired. Expiry at exactly now counts as expired. Entries whose
// payload no longer parses as JSON are deleted and reported as misses.
// Returns nil, nil on a miss.
func (m *Manager) ReadThrough(symbol string, kind Kind, now time.Time) (json.RawMessage, error) {
	entry, err := m.store.Get(symbol, kind)
	if err != nil {
		return nil, err
	}

	if entry == nil || !entry.ExpiresAt.After(now) {
		m.recordMiss(now)
		return nil, nil
	}

	if !json.Valid(entry.Payload) {
		m.log.Warn().
			Str("symbol", symbol).
			Str("kind", string(kind)).
			Msg("Cached payload is corrupted, evicting")
		if _, err := m.store.Delete(symbol, kind); err != nil {
			return nil, fmt.Errorf("failed to evict corrupted entry: %w", err)
		}
		m.recordMiss(now)
		return nil, nil
	}

	m.recordHit(now)
	return entry.Payload, nil
}

// WriteThrough stores a payload with the policy's current retention for the
// kind, replacing any prior entry for the key.
func (m *Manager) WriteThrough(symbol string, kind Kind, payload []byte, now time.Time) error {
	ttl := m.policy.TTLFor(kind)
	if err := m.store.Put(symbol, kind, payload, ttl, now); err != nil {
		return err
	}

	m.log.Debug().
		Str("symbol", symbol).
		Str("kind", string(kind)).
		Dur("ttl", ttl).
		Msg("Cached payload")
	return nil
}

// InvalidateVendor deletes every cached entry for a symbol, across all data
// kinds, so the next read is guaranteed to miss.
func (m *Manager) InvalidateVendor(symbol string) (int64, error) {
	deleted, err := m.store.DeleteVendor(symbol)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		m.log.Info().Str("symbol", symbol).Int64("deleted", deleted).Msg("Invalidated vendor cache")
	}
	return deleted, nil
}

// SweepExpired removes all entries at or past expiry and returns the count.
func (m *Manager) SweepExpired(now time.Time) (int64, error) {
	deleted, err := m.store.DeleteExpired(now)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		m.log.Info().Int64("deleted", deleted).Msg("Swept expired cache entries")
	}
	return deleted, nil
}

// StalenessReport describes the health of the cache population.
type StalenessReport struct {
	TotalEntries int          `json:"totalEntries"`
	ValidEntries int          `json:"validEntries"`
	Expired      int          `json:"expiredEntries"`
	FreshnessPct float64      `json:"freshnessPct"`
	AvgAgeHours  float64      `json:"avgAgeHours"`
	ByKind       map[Kind]int `json:"byKind"`
}

// Staleness computes entry counts, the valid fraction, and the average entry
// age. An empty cache reports 100% freshness.
func (m *Manager) Staleness(now time.Time) (*StalenessReport, error) {
	age, err := m.store.Age(now)
	if err != nil {
		return nil, err
	}

	report := &StalenessReport{
		TotalEntries: age.Total,
		ValidEntries: age.Total - age.Expired,
		Expired:      age.Expired,
		FreshnessPct: 100,
		AvgAgeHours:  age.AvgAgeHours,
		ByKind:       age.ByKind,
	}
	if age.Total > 0 {
		report.FreshnessPct = float64(report.ValidEntries) / float64(age.Total) * 100
	}
	return report, nil
}

// PriorityRefreshList returns the symbols with entries expiring within the
// horizon, soonest-expiring data first. A zero horizon means
// DefaultRefreshHorizon.
func (m *Manager) PriorityRefreshList(now time.Time, horizon time.Duration) ([]string, error) {
	if horizon <= 0 {
		horizon = DefaultRefreshHorizon
	}
	return m.store.NearExpiry(now, horizon)
}

// TuneResult reports the outcome of an expiry tuning pass.
type TuneResult struct {
	UpdatedEntries int64                  `json:"updatedEntries"`
	Retention      map[Kind]time.Duration `json:"-"`
}

// TuneExpiry lengthens retention for high-usage kinds by TuneMultiplier and
// pushes the new expiry onto all currently-valid entries of those kinds.
// Expired entries are never resurrected.
func (m *Manager) TuneExpiry(now time.Time, highUsage []Kind) (*TuneResult, error) {
	result := &TuneResult{Retention: make(map[Kind]time.Duration)}

	for _, kind := range highUsage {
		newTTL := m.policy.Adjust(kind, TuneMultiplier)
		updated, err := m.store.ExtendExpiry(kind, now.Add(newTTL), now)
		if err != nil {
			return nil, err
		}
		result.UpdatedEntries += updated
		result.Retention[kind] = newTTL

		m.log.Info().
			Str("kind", string(kind)).
			Dur("ttl", newTTL).
			Int64("updated", updated).
			Msg("Extended cache retention")
	}

	for kind, ttl := range m.policy.Snapshot() {
		if _, ok := result.Retention[kind]; !ok {
			result.Retention[kind] = ttl
		}
	}
	return result, nil
}

// Stats counter failures must never fail a cache read, so they only log.

func (m *Manager) recordHit(now time.Time) {
	if m.stats == nil {
		return
	}
	if err := m.stats.RecordHit(now); err != nil {
		m.log.Warn().Err(err).Msg("Failed to record cache hit")
	}
}

func (m *Manager) recordMiss(now time.Time) {
	if m.stats == nil {
		return
	}
	if err := m.stats.RecordMiss(now); err != nil {
		m.log.Warn().Err(err).Msg("Failed to record cache miss")
	}
}
