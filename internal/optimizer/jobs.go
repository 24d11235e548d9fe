package optimizer

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SweepJob evicts expired cache entries on a schedule.
type SweepJob struct {
	opt *Optimizer
	log zerolog.Logger
}

// NewSweepJob creates the scheduled cache sweep.
func NewSweepJob(opt *Optimizer, log zerolog.Logger) *SweepJob {
	return &SweepJob{
		opt: opt,
		log: log.With().Str("job", "cache_sweep").Logger(),
	}
}

// Name returns the job name for scheduler logging.
func (j *SweepJob) Name() string {
	return "cache_sweep"
}

// Run executes one sweep.
func (j *SweepJob) Run() error {
	deleted, err := j.opt.SweepExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Cache sweep failed")
		return err
	}
	j.log.Info().Int64("deleted", deleted).Msg("Cache sweep complete")
	return nil
}

// RefreshJob proactively refreshes soon-to-expire vendor data so interactive
// requests rarely pay the upstream fetch cost.
type RefreshJob struct {
	opt     *Optimizer
	timeout time.Duration
	log     zerolog.Logger
}

// NewRefreshJob creates the scheduled background refresh.
func NewRefreshJob(opt *Optimizer, timeout time.Duration, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		opt:     opt,
		timeout: timeout,
		log:     log.With().Str("job", "background_refresh").Logger(),
	}
}

// Name returns the job name for scheduler logging.
func (j *RefreshJob) Name() string {
	return "background_refresh"
}

// Run refreshes one batch of candidates.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	refreshed, err := j.opt.BackgroundRefresh(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Background refresh failed")
		return err
	}
	j.log.Info().Int("refreshed", refreshed).Msg("Background refresh run complete")
	return nil
}
