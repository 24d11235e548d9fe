package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyBaselines(t *testing.T) {
	p := NewPolicy()

	assert.Equal(t, 24*time.Hour, p.TTLFor(KindComprehensive))
	assert.Equal(t, 12*time.Hour, p.TTLFor(KindOverview))
	assert.Equal(t, 24*time.Hour, p.TTLFor(KindIncome))
	assert.Equal(t, 48*time.Hour, p.TTLFor(KindBalanceSheet))
}

func TestPolicyUnknownKindGetsDefault(t *testing.T) {
	p := NewPolicy()
	assert.Equal(t, TTLDefault, p.TTLFor(Kind("mystery")))
}

func TestPolicyAdjustLengthens(t *testing.T) {
	p := NewPolicy()

	got := p.Adjust(KindOverview, 1.5)
	assert.Equal(t, 18*time.Hour, got)
	assert.Equal(t, 18*time.Hour, p.TTLFor(KindOverview))
}

func TestPolicyAdjustIsIdempotent(t *testing.T) {
	p := NewPolicy()

	// The target is baseline-relative, so repeated tuning passes with the
	// same multiplier must not keep growing retention.
	for i := 0; i < 3; i++ {
		got := p.Adjust(KindOverview, 1.5)
		assert.Equal(t, 18*time.Hour, got)
	}
	assert.Equal(t, 18*time.Hour, p.TTLFor(KindOverview))

	// A larger multiplier still wins; a smaller one never shrinks.
	assert.Equal(t, 24*time.Hour, p.Adjust(KindOverview, 2))
	assert.Equal(t, 24*time.Hour, p.Adjust(KindOverview, 1.5))
}

func TestPolicyAdjustNeverShortens(t *testing.T) {
	p := NewPolicy()

	got := p.Adjust(KindIncome, 0.5)
	assert.Equal(t, TTLIncome, got, "multipliers below 1 clamp to 1")
}

func TestPolicySnapshotIsACopy(t *testing.T) {
	p := NewPolicy()

	snap := p.Snapshot()
	snap[KindOverview] = time.Minute

	assert.Equal(t, TTLOverview, p.TTLFor(KindOverview))
}
