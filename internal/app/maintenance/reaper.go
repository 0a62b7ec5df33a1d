package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/pkg/logger"
	"github.com/hireloop/hireloop/pkg/metrics"
)

const (
	defaultReaperSpec = "@hourly"
	defaultBatchSize  = 500
)

// Reaper periodically removes notifications whose expires_at has passed.
// Sweeps are re-entrant: an overlapping run deletes nothing the other did not
// already claim, so a slow sweep never needs a lock.
type Reaper struct {
	db        *gorm.DB
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	schedule  string
	batchSize int
}

// Option customises the Reaper.
type Option func(*Reaper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Reaper) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(r *Reaper) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(r *Reaper) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

// WithBatchSize adjusts how many rows each delete round claims.
func WithBatchSize(size int) Option {
	return func(r *Reaper) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// NewReaper constructs a Reaper with an hourly sweep.
func NewReaper(db *gorm.DB, opts ...Option) (*Reaper, error) {
	if db == nil {
		return nil, errors.New("reaper: db is required")
	}

	r := &Reaper{
		db:        db,
		now:       time.Now,
		schedule:  defaultReaperSpec,
		batchSize: defaultBatchSize,
		log:       logger.WithModule("reaper"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.cron == nil {
		r.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return r, nil
}

// Start registers the sweep with the cron scheduler and launches it. A failed
// sweep logs and waits for the next tick; it never halts the schedule.
func (r *Reaper) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			r.log.Warn("expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to complete.
func (r *Reaper) Stop() context.Context {
	if r.cron == nil {
		return context.Background()
	}
	return r.cron.Stop()
}

// RunOnce performs one full sweep, deleting expired notifications in batches
// until none remain. Batch failures are aggregated; a failed batch ends the
// sweep but keeps earlier deletions.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := r.now().UTC()
	var (
		removed int64
		errs    error
	)

	for {
		// Claim a batch of ids first so the delete stays bounded; MySQL
		// rejects LIMIT on multi-table DELETE, the two-step works everywhere.
		var ids []string
		err := r.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
			Limit(r.batchSize).
			Pluck("id", &ids).Error
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reaper: collect expired ids: %w", err))
			break
		}
		if len(ids) == 0 {
			break
		}

		result := r.db.WithContext(ctx).
			Where("id IN ?", ids).
			Delete(&models.Notification{})
		if result.Error != nil {
			errs = multierr.Append(errs, fmt.Errorf("reaper: delete batch: %w", result.Error))
			break
		}

		removed += result.RowsAffected
		if len(ids) < r.batchSize {
			break
		}
	}

	if removed > 0 {
		metrics.NotificationsReaped.Add(float64(removed))
		r.log.Info("expired notifications removed", zap.Int64("count", removed))
	}
	return removed, errs
}
