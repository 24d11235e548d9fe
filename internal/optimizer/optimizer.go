// Package optimizer keeps the vendor cache healthy: staleness analysis,
// bulk preloading, background refresh of soon-to-expire data, and retention
// tuning.
package optimizer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Atharva9281/WindBorne/internal/cache"
	"github.com/Atharva9281/WindBorne/internal/vendors"
)

// Staleness thresholds beyond which the cache is considered in need of
// optimization.
const (
	minFreshnessPct = 80.0
	maxAvgAgeHours  = 12.0
)

// Bounds for a preload run.
const (
	preloadWorkers = 5
	// MaxPreloadSymbols caps one preload request; the rate limiter makes
	// larger batches take too long to be useful.
	MaxPreloadSymbols = 10
)

// BackgroundRefresh processes at most this many symbols per run.
const refreshBatchSize = 5

// Report is the cache health summary served by the status endpoint.
type Report struct {
	*cache.StalenessReport
	TodayStats         *cache.DayStats `json:"todayStats,omitempty"`
	OptimizationNeeded bool            `json:"optimizationNeeded"`
}

// PreloadResult summarizes one preload run.
type PreloadResult struct {
	TotalProcessed int               `json:"totalProcessed"`
	Successful     int               `json:"successful"`
	Failed         int               `json:"failed"`
	Results        map[string]string `json:"results"`
}

// Optimizer drives cache maintenance using the cache manager for analysis
// and the vendor service for refetching.
type Optimizer struct {
	cache   *cache.Manager
	stats   *cache.StatsRepo
	vendors *vendors.Service
	log     zerolog.Logger
	now     func() time.Time
}

// New creates a cache optimizer. stats may be nil.
func New(cacheMgr *cache.Manager, stats *cache.StatsRepo, vendorSvc *vendors.Service, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		cache:   cacheMgr,
		stats:   stats,
		vendors: vendorSvc,
		log:     log.With().Str("component", "optimizer").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Analyze reports cache health and whether optimization is warranted:
// freshness below 80% or average entry age above 12 hours.
func (o *Optimizer) Analyze() (*Report, error) {
	now := o.now()

	staleness, err := o.cache.Staleness(now)
	if err != nil {
		return nil, err
	}

	report := &Report{
		StalenessReport:    staleness,
		OptimizationNeeded: staleness.FreshnessPct < minFreshnessPct || staleness.AvgAgeHours > maxAvgAgeHours,
	}

	if o.stats != nil {
		if today, err := o.stats.Today(now); err != nil {
			o.log.Warn().Err(err).Msg("Failed to load daily stats for report")
		} else {
			report.TodayStats = today
		}
	}
	return report, nil
}

// RefreshCandidates lists symbols with data expiring within the default
// refresh horizon.
func (o *Optimizer) RefreshCandidates() ([]string, error) {
	return o.cache.PriorityRefreshList(o.now(), 0)
}

// SweepExpired evicts everything at or past expiry.
func (o *Optimizer) SweepExpired() (int64, error) {
	return o.cache.SweepExpired(o.now())
}

// Preload warms the cache for a batch of symbols with bounded concurrency.
// Every symbol is fetched fresh and all four data kinds rewritten, even when
// a merged record is still cached. Failures are reported per symbol; an empty
// symbol list performs no work at all.
func (o *Optimizer) Preload(ctx context.Context, symbols []string) *PreloadResult {
	result := &PreloadResult{Results: make(map[string]string)}
	if len(symbols) == 0 {
		return result
	}

	type outcome struct {
		symbol string
		err    error
	}

	jobs := make(chan string, len(symbols))
	outcomes := make(chan outcome, len(symbols))

	workers := preloadWorkers
	if len(symbols) < workers {
		workers = len(symbols)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				_, err := o.vendors.ProcessOne(ctx, vendorFor(symbol), true)
				outcomes <- outcome{symbol: symbol, err: err}
			}
		}()
	}

	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	for out := range outcomes {
		result.TotalProcessed++
		if out.err != nil {
			result.Failed++
			result.Results[out.symbol] = "failed: " + out.err.Error()
			o.log.Warn().Err(out.err).Str("symbol", out.symbol).Msg("Preload failed")
		} else {
			result.Successful++
			result.Results[out.symbol] = "cached"
		}
	}
	return result
}

// BackgroundRefresh force-refreshes the highest-priority candidates, at most
// refreshBatchSize per run. Candidates still hold valid data, so the fetch
// must bypass the cache.
func (o *Optimizer) BackgroundRefresh(ctx context.Context) (int, error) {
	candidates, err := o.RefreshCandidates()
	if err != nil {
		return 0, err
	}
	if len(candidates) > refreshBatchSize {
		candidates = candidates[:refreshBatchSize]
	}

	refreshed := 0
	for _, symbol := range candidates {
		if _, err := o.vendors.ProcessOne(ctx, vendorFor(symbol), true); err != nil {
			o.log.Warn().Err(err).Str("symbol", symbol).Msg("Background refresh failed")
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		o.log.Info().Int("refreshed", refreshed).Msg("Background refresh complete")
	}
	return refreshed, nil
}

// TuneExpiry lengthens retention for the kinds carrying an above-average
// share of the cache population.
func (o *Optimizer) TuneExpiry() (*cache.TuneResult, error) {
	now := o.now()

	staleness, err := o.cache.Staleness(now)
	if err != nil {
		return nil, err
	}

	highUsage := highUsageKinds(staleness)
	return o.cache.TuneExpiry(now, highUsage)
}

// highUsageKinds picks the kinds whose entry count exceeds the mean across
// all known kinds.
func highUsageKinds(report *cache.StalenessReport) []cache.Kind {
	if report.TotalEntries == 0 {
		return nil
	}
	mean := float64(report.TotalEntries) / float64(len(cache.AllKinds))

	var kinds []cache.Kind
	for _, kind := range cache.AllKinds {
		if float64(report.ByKind[kind]) > mean {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// vendorFor resolves a symbol against the tracked portfolio, falling back to
// a bare vendor so ad-hoc symbols can still be preloaded.
func vendorFor(symbol string) vendors.Vendor {
	if v := vendors.TrackedBySymbol(symbol); v != nil {
		return *v
	}
	return vendors.Vendor{Symbol: symbol, Name: symbol, Type: "Other Supplier"}
}
