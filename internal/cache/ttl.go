package cache

import (
	"sync"
	"time"
)

// Baseline retention per data kind. Balance sheets are annual filings and
// change rarely; overviews carry market-sensitive fields and turn over
// fastest.
const (
	TTLComprehensive = 24 * time.Hour
	TTLOverview      = 12 * time.Hour
	TTLIncome        = 24 * time.Hour
	TTLBalanceSheet  = 48 * time.Hour

	// TTLDefault applies to unrecognized kinds.
	TTLDefault = 12 * time.Hour
)

// Policy maps data kinds to retention durations. Durations can be adjusted at
// runtime by the expiry tuner; adjustments only ever lengthen retention, and
// are always computed from the baseline so repeated tuning does not compound.
type Policy struct {
	mu   sync.RWMutex
	ttls map[Kind]time.Duration
}

// baselineFor is the fixed per-kind default the tuner adjusts against.
func baselineFor(kind Kind) time.Duration {
	switch kind {
	case KindComprehensive:
		return TTLComprehensive
	case KindOverview:
		return TTLOverview
	case KindIncome:
		return TTLIncome
	case KindBalanceSheet:
		return TTLBalanceSheet
	default:
		return TTLDefault
	}
}

// NewPolicy creates a policy with the baseline durations.
func NewPolicy() *Policy {
	return &Policy{
		ttls: map[Kind]time.Duration{
			KindComprehensive: TTLComprehensive,
			KindOverview:      TTLOverview,
			KindIncome:        TTLIncome,
			KindBalanceSheet:  TTLBalanceSheet,
		},
	}
}

// TTLFor returns the current retention for a kind, or TTLDefault for kinds
// the policy doesn't know about.
func (p *Policy) TTLFor(kind Kind) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if ttl, ok := p.ttls[kind]; ok {
		return ttl
	}
	return TTLDefault
}

// Adjust sets the retention for a kind to its baseline times the multiplier.
// Multipliers below 1 are clamped to 1 so tuning never shortens retention,
// and because the target is computed from the fixed baseline, re-applying the
// same multiplier is a no-op. Returns the effective duration.
func (p *Policy) Adjust(kind Kind, multiplier float64) time.Duration {
	if multiplier < 1 {
		multiplier = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	target := time.Duration(float64(baselineFor(kind)) * multiplier)
	if current, ok := p.ttls[kind]; ok && current > target {
		target = current
	}
	p.ttls[kind] = target
	return target
}

// Snapshot returns a copy of the current kind-to-duration table.
func (p *Policy) Snapshot() map[Kind]time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[Kind]time.Duration, len(p.ttls))
	for k, v := range p.ttls {
		out[k] = v
	}
	return out
}
