package vendors

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Atharva9281/WindBorne/internal/cache"
	"github.com/Atharva9281/WindBorne/internal/clients/alphavantage"
	"github.com/Atharva9281/WindBorne/internal/scoring"
)

// Vendor is one tracked supplier.
type Vendor struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// Tracked is the supplier portfolio the service monitors.
var Tracked = []Vendor{
	{Symbol: "TEL", Name: "TE Connectivity", Type: "Sensor Supplier"},
	{Symbol: "ST", Name: "Sensata Technologies", Type: "Sensor Supplier"},
	{Symbol: "DD", Name: "DuPont de Nemours", Type: "Materials Supplier"},
	{Symbol: "CE", Name: "Celanese Corporation", Type: "Materials Supplier"},
	{Symbol: "LYB", Name: "LyondellBasell Industries", Type: "Materials Supplier"},
}

// TrackedBySymbol returns the tracked vendor for a symbol, or nil.
func TrackedBySymbol(symbol string) *Vendor {
	for i := range Tracked {
		if Tracked[i].Symbol == symbol {
			return &Tracked[i]
		}
	}
	return nil
}

// Provider fetches the three raw datasets for a symbol. Satisfied by the
// Alpha Vantage client; tests substitute fakes.
type Provider interface {
	CompanyOverview(ctx context.Context, symbol string) (alphavantage.Overview, error)
	IncomeStatement(ctx context.Context, symbol string) (*alphavantage.IncomeStatement, error)
	BalanceSheet(ctx context.Context, symbol string) (*alphavantage.BalanceSheetResponse, error)
}

// ScoredVendor pairs a vendor's normalized financial record with its risk
// score.
type ScoredVendor struct {
	Data *scoring.FinancialRecord `json:"data"`
	Risk *scoring.RiskScore       `json:"risk"`
}

// Number of vendors processed at once in batch mode. The shared rate limiter
// paces the actual upstream calls, so this only bounds in-flight work.
const batchWorkers = 3

// Service orchestrates cache-first vendor processing: read the merged record
// from cache, otherwise fetch the three raw datasets, normalize, cache, and
// score.
type Service struct {
	cache    *cache.Manager
	scores   *RiskRepository
	calc     *scoring.Calculator
	provider Provider
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a vendor processing service. timeout bounds each
// vendor's processing in batch mode.
func NewService(cacheMgr *cache.Manager, scores *RiskRepository, calc *scoring.Calculator, provider Provider, timeout time.Duration, log zerolog.Logger) *Service {
	return &Service{
		cache:    cacheMgr,
		scores:   scores,
		calc:     calc,
		provider: provider,
		timeout:  timeout,
		log:      log.With().Str("component", "vendor_service").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProcessOne produces the scored record for one vendor. With force set, all
// cached entries for the vendor are invalidated first so fresh data is
// fetched.
func (s *Service) ProcessOne(ctx context.Context, vendor Vendor, force bool) (*ScoredVendor, error) {
	if force {
		if _, err := s.cache.InvalidateVendor(vendor.Symbol); err != nil {
			return nil, err
		}
	}

	record, fallback, err := s.record(ctx, vendor)
	if err != nil {
		return nil, err
	}

	// A fallback record carries no real financials; scoring it would
	// produce misleading bands, so it gets the fixed neutral score.
	var score *scoring.RiskScore
	if fallback {
		score = scoring.DefaultScore(vendor.Symbol, s.now())
	} else {
		score = s.calc.Score(record, s.now())
	}
	if err := s.scores.Save(score); err != nil {
		return nil, fmt.Errorf("failed to save score for %s: %w", vendor.Symbol, err)
	}

	return &ScoredVendor{Data: record, Risk: score}, nil
}

// ProcessAll processes every tracked vendor with bounded concurrency. Each
// vendor gets its own timeout; vendors that fail or time out are logged and
// dropped from the result rather than failing the batch.
func (s *Service) ProcessAll(ctx context.Context) ([]*ScoredVendor, error) {
	jobs := make(chan Vendor, len(Tracked))
	results := make(chan *ScoredVendor, len(Tracked))

	workers := batchWorkers
	if len(Tracked) < workers {
		workers = len(Tracked)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for vendor := range jobs {
				vendorCtx, cancel := context.WithTimeout(ctx, s.timeout)
				scored, err := s.ProcessOne(vendorCtx, vendor, false)
				cancel()
				if err != nil {
					s.log.Error().Err(err).Str("symbol", vendor.Symbol).Msg("Vendor processing failed, dropping from batch")
					continue
				}
				results <- scored
			}
		}()
	}

	for _, vendor := range Tracked {
		jobs <- vendor
	}
	close(jobs)
	wg.Wait()
	close(results)

	scored := make([]*ScoredVendor, 0, len(Tracked))
	for sv := range results {
		scored = append(scored, sv)
	}
	return scored, nil
}

// record returns the normalized financial record for a vendor, serving from
// the merged cache entry when fresh and rebuilding it from the three raw
// datasets otherwise.
func (s *Service) record(ctx context.Context, vendor Vendor) (*scoring.FinancialRecord, bool, error) {
	now := s.now()

	if payload, err := s.cache.ReadThrough(vendor.Symbol, cache.KindComprehensive, now); err != nil {
		return nil, false, err
	} else if payload != nil {
		var record scoring.FinancialRecord
		if err := json.Unmarshal(payload, &record); err == nil {
			return &record, false, nil
		}
		// Shape drift in the cached record; rebuild from upstream.
		s.log.Warn().Str("symbol", vendor.Symbol).Msg("Cached record no longer decodes, refetching")
	}

	overview, income, sheet, err := s.fetchRaw(ctx, vendor, now)
	if err != nil {
		return nil, false, fmt.Errorf("fetch aborted for %s: %w", vendor.Symbol, err)
	}
	if overview == nil {
		// A timed-out vendor is dropped by the caller, not served as a
		// fallback.
		if err := ctx.Err(); err != nil {
			return nil, false, fmt.Errorf("fetch aborted for %s: %w", vendor.Symbol, err)
		}
		// Without an overview there is nothing to normalize. Serve a
		// neutral placeholder so one dark vendor doesn't hide the rest.
		s.log.Warn().Str("symbol", vendor.Symbol).Msg("Overview unavailable, serving fallback record")
		return s.fallbackRecord(vendor, now), true, nil
	}

	record := alphavantage.Normalize(overview, income, sheet, now)
	if payload, err := json.Marshal(record); err == nil {
		if err := s.cache.WriteThrough(vendor.Symbol, cache.KindComprehensive, payload, now); err != nil {
			s.log.Warn().Err(err).Str("symbol", vendor.Symbol).Msg("Failed to cache merged record")
		}
	}
	return record, false, nil
}

// fetchRaw resolves the three raw datasets concurrently, each through its own
// cache kind. Income and balance-sheet failures degrade to nil; an overview
// failure returns nil overview and the caller falls back. A cancelled context
// aborts the wait; results of still-running fetches are discarded.
func (s *Service) fetchRaw(ctx context.Context, vendor Vendor, now time.Time) (alphavantage.Overview, *alphavantage.IncomeStatement, *alphavantage.BalanceSheetResponse, error) {
	var (
		overview alphavantage.Overview
		income   *alphavantage.IncomeStatement
		sheet    *alphavantage.BalanceSheetResponse
		wg       sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		overview = fetchKind(ctx, s, vendor.Symbol, cache.KindOverview, now, s.provider.CompanyOverview)
	}()
	go func() {
		defer wg.Done()
		income = fetchKind(ctx, s, vendor.Symbol, cache.KindIncome, now, s.provider.IncomeStatement)
	}()
	go func() {
		defer wg.Done()
		sheet = fetchKind(ctx, s, vendor.Symbol, cache.KindBalanceSheet, now, s.provider.BalanceSheet)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return overview, income, sheet, nil
	case <-ctx.Done():
		s.log.Warn().Str("symbol", vendor.Symbol).Msg("Vendor fetch cancelled")
		return nil, nil, nil, ctx.Err()
	}
}

// fetchKind reads one raw dataset through its cache kind, fetching and
// caching on a miss. Returns the zero value on failure.
func fetchKind[T any](ctx context.Context, s *Service, symbol string, kind cache.Kind, now time.Time, fetch func(context.Context, string) (T, error)) T {
	var zero T

	if payload, err := s.cache.ReadThrough(symbol, kind, now); err == nil && payload != nil {
		var cached T
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached
		}
	}

	fetched, err := fetch(ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Str("kind", string(kind)).Msg("Upstream fetch failed")
		return zero
	}

	if payload, err := json.Marshal(fetched); err == nil {
		if err := s.cache.WriteThrough(symbol, kind, payload, now); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Str("kind", string(kind)).Msg("Failed to cache raw dataset")
		}
	}
	return fetched
}

// fallbackRecord is the neutral record served when the overview cannot be
// fetched. Identity comes from the tracked vendor list; all financials are
// zero, and the caller scores it with the fixed neutral default rather than
// the band calculator.
func (s *Service) fallbackRecord(vendor Vendor, now time.Time) *scoring.FinancialRecord {
	industry := "Other"
	switch vendor.Type {
	case "Sensor Supplier":
		industry = "Sensors"
	case "Materials Supplier":
		industry = "Plastics"
	}
	return &scoring.FinancialRecord{
		Symbol:      vendor.Symbol,
		Name:        vendor.Name,
		Industry:    industry,
		VendorType:  vendor.Type,
		LastUpdated: now.Format(time.RFC3339),
	}
}
