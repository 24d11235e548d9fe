package cache

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) *Manager {
	t.Helper()
	db := setupTestDB(t)
	return NewManager(NewStore(db), NewPolicy(), NewStatsRepo(db), zerolog.Nop())
}

func TestManagerReadThroughHit(t *testing.T) {
	m := setupManager(t)
	now := time.Now().UTC()

	require.NoError(t, m.WriteThrough("TEL", KindOverview, []byte(`{"symbol":"TEL"}`), now))

	payload, err := m.ReadThrough("TEL", KindOverview, now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.JSONEq(t, `{"symbol":"TEL"}`, string(payload))
}

func TestManagerReadThroughMissOnAbsent(t *testing.T) {
	m := setupManager(t)

	payload, err := m.ReadThrough("NOPE", KindOverview, time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestManagerReadThroughMissAtExactExpiry(t *testing.T) {
	m := setupManager(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, m.WriteThrough("TEL", KindOverview, []byte(`{}`), now))
	expiry := now.Add(TTLOverview)

	// One second before expiry: hit.
	payload, err := m.ReadThrough("TEL", KindOverview, expiry.Add(-time.Second))
	require.NoError(t, err)
	assert.NotNil(t, payload)

	// Exactly at expiry: miss.
	payload, err = m.ReadThrough("TEL", KindOverview, expiry)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestManagerReadThroughEvictsCorruptedPayload(t *testing.T) {
	m := setupManager(t)
	now := time.Now().UTC()

	require.NoError(t, m.store.Put("TEL", KindOverview, []byte(`{not json`), time.Hour, now))

	payload, err := m.ReadThrough("TEL", KindOverview, now)
	require.NoError(t, err)
	assert.Nil(t, payload)

	entry, err := m.store.Get("TEL", KindOverview)
	require.NoError(t, err)
	assert.Nil(t, entry, "corrupted entry must be deleted")
}

func TestManagerWriteThroughUsesPolicyTTL(t *testing.T) {
	m := setupManager(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, m.WriteThrough("TEL", KindBalanceSheet, []byte(`{}`), now))

	entry, err := m.store.Get("TEL", KindBalanceSheet)
	require.NoError(t, err)
	assert.Equal(t, now.Add(TTLBalanceSheet), entry.ExpiresAt)
}

func TestManagerStalenessEmptyCache(t *testing.T) {
	m := setupManager(t)

	report, err := m.Staleness(time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalEntries)
	assert.Equal(t, float64(100), report.FreshnessPct)
}

func TestManagerStaleness(t *testing.T) {
	m := setupManager(t)
	now := time.Now().UTC()

	require.NoError(t, m.store.Put("A", KindOverview, []byte(`{}`), time.Hour, now))
	require.NoError(t, m.store.Put("B", KindOverview, []byte(`{}`), time.Hour, now))
	require.NoError(t, m.store.Put("C", KindOverview, []byte(`{}`), time.Hour, now))
	require.NoError(t, m.store.Put("D", KindOverview, []byte(`{}`), -time.Hour, now))

	report, err := m.Staleness(now)
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalEntries)
	assert.Equal(t, 3, report.ValidEntries)
	assert.Equal(t, 1, report.Expired)
	assert.InDelta(t, 75.0, report.FreshnessPct, 0.01)
}

func TestManagerStatsRecordedOnReads(t *testing.T) {
	m := setupManager(t)
	now := time.Now().UTC()

	require.NoError(t, m.WriteThrough("TEL", KindOverview, []byte(`{}`), now))

	_, err := m.ReadThrough("TEL", KindOverview, now) // hit
	require.NoError(t, err)
	_, err = m.ReadThrough("MISS", KindOverview, now) // miss
	require.NoError(t, err)
	_, err = m.ReadThrough("MISS", KindOverview, now) // miss
	require.NoError(t, err)

	stats, err := m.stats.Today(now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 2, stats.Misses)
	assert.InDelta(t, 33.33, stats.HitRate(), 0.1)
}

func TestManagerTuneExpiryLengthensRetention(t *testing.T) {
	m := setupManager(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, m.store.Put("TEL", KindOverview, []byte(`{}`), time.Hour, now))

	result, err := m.TuneExpiry(now, []Kind{KindOverview})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.UpdatedEntries)
	assert.Equal(t, 18*time.Hour, result.Retention[KindOverview])
	assert.Equal(t, TTLIncome, result.Retention[KindIncome], "untouched kinds keep baseline retention")

	entry, err := m.store.Get("TEL", KindOverview)
	require.NoError(t, err)
	assert.Equal(t, now.Add(18*time.Hour), entry.ExpiresAt)

	// New writes also pick up the lengthened retention.
	require.NoError(t, m.WriteThrough("ST", KindOverview, []byte(`{}`), now))
	entry, err = m.store.Get("ST", KindOverview)
	require.NoError(t, err)
	assert.Equal(t, now.Add(18*time.Hour), entry.ExpiresAt)
}

func TestManagerInvalidateVendor(t *testing.T) {
	m := setupManager(t)
	now := time.Now().UTC()

	require.NoError(t, m.WriteThrough("TEL", KindOverview, []byte(`{}`), now))
	require.NoError(t, m.WriteThrough("TEL", KindComprehensive, []byte(`{}`), now))

	deleted, err := m.InvalidateVendor("TEL")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	payload, err := m.ReadThrough("TEL", KindOverview, now)
	require.NoError(t, err)
	assert.Nil(t, payload)
}
