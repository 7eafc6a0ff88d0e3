package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/models"
	"github.com/assetdesk/assetdesk/internal/services"
	"github.com/assetdesk/assetdesk/pkg/logger"
	"github.com/assetdesk/assetdesk/pkg/metrics"
)

const (
	// DefaultRetentionDays controls how long read notifications are kept.
	DefaultRetentionDays = 30

	defaultCleanupSpec = "0 3 * * *"
	defaultSweepSpec   = "*/5 * * * *"
)

// Scheduler runs the notification lifecycle jobs: daily retention cleanup,
// snooze reactivation and the auto-batch sweep. Job failures are logged and
// never propagated; a failed tick waits for the next scheduled invocation.
type Scheduler struct {
	db      *gorm.DB
	batches *services.NotificationBatchService
	cron    *cron.Cron
	now     func() time.Time
	log     *zap.Logger

	cleanupEnabled bool
	retentionDays  int
	batchWindow    int

	cleanupSchedule string
	sweepSchedule   string
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for retention and snooze comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRetentionDays adjusts how long read notifications are retained.
func WithRetentionDays(days int) Option {
	return func(s *Scheduler) {
		if days > 0 {
			s.retentionDays = days
		}
	}
}

// WithCleanupEnabled toggles the daily retention job.
func WithCleanupEnabled(enabled bool) Option {
	return func(s *Scheduler) {
		s.cleanupEnabled = enabled
	}
}

// WithBatchWindow overrides the similarity window passed to the batching engine.
func WithBatchWindow(minutes int) Option {
	return func(s *Scheduler) {
		if minutes > 0 {
			s.batchWindow = minutes
		}
	}
}

// WithCleanupSchedule overrides the cron specification for retention cleanup.
func WithCleanupSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.cleanupSchedule = spec
		}
	}
}

// WithSweepSchedule overrides the cron specification for the reactivation/batch sweep.
func WithSweepSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.sweepSchedule = spec
		}
	}
}

// New constructs a Scheduler with sensible defaults.
func New(db *gorm.DB, batches *services.NotificationBatchService, opts ...Option) (*Scheduler, error) {
	if db == nil {
		return nil, errors.New("scheduler: db is required")
	}
	if batches == nil {
		return nil, errors.New("scheduler: batch service is required")
	}

	s := &Scheduler{
		db:              db,
		batches:         batches,
		now:             time.Now,
		log:             logger.WithModule("scheduler"),
		cleanupEnabled:  true,
		retentionDays:   DefaultRetentionDays,
		batchWindow:     services.DefaultBatchWindowMinutes,
		cleanupSchedule: defaultCleanupSpec,
		sweepSchedule:   defaultSweepSpec,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		// SkipIfStillRunning serialises each job with itself so a slow pass
		// never overlaps its own next tick.
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	}

	return s, nil
}

// Start registers the lifecycle jobs with the cron scheduler and launches it.
func (s *Scheduler) Start() error {
	if s.cleanupEnabled {
		if _, err := s.cron.AddFunc(s.cleanupSchedule, func() {
			if _, err := s.CleanupOldNotifications(context.Background()); err != nil {
				s.log.Warn("retention cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if _, err := s.cron.AddFunc(s.sweepSchedule, func() {
		ctx := context.Background()
		if _, err := s.ReactivateSnoozed(ctx); err != nil {
			s.log.Warn("snooze reactivation incomplete", zap.Error(err))
		}
		if err := s.AutoBatch(ctx); err != nil {
			s.log.Warn("auto-batch sweep incomplete", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes all lifecycle jobs sequentially. Primarily used in tests
// and during graceful shutdown.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx = ensureContext(ctx)

	var errs error

	if s.cleanupEnabled {
		if _, err := s.CleanupOldNotifications(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if _, err := s.ReactivateSnoozed(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}

	if err := s.AutoBatch(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}

// CleanupOldNotifications deletes read notifications older than the retention
// window. Unread rows are never deleted, regardless of age.
func (s *Scheduler) CleanupOldNotifications(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)

	var before int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).Count(&before).Error; err != nil {
		return 0, err
	}

	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, result.Error
	}

	metrics.NotificationsCleaned.Add(float64(result.RowsAffected))
	s.log.Info("retention cleanup finished",
		zap.Int64("before", before),
		zap.Int64("after", before-result.RowsAffected),
		zap.Int64("removed", result.RowsAffected),
		zap.Int("retention_days", s.retentionDays),
	)

	return result.RowsAffected, nil
}

// ReactivateSnoozed returns every elapsed snooze to the active unread state.
// Rows are updated individually; a failure partway through leaves the
// remainder for the next tick, which retries them because the snoozed_until
// predicate no longer matches already-reactivated rows.
func (s *Scheduler) ReactivateSnoozed(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	now := s.now()

	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("snoozed_until IS NOT NULL AND snoozed_until < ?", now).
		Find(&rows).Error; err != nil {
		return 0, err
	}

	var errs error
	reactivated := 0
	for _, row := range rows {
		err := s.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"snoozed_until": nil,
				"is_read":       false,
			}).Error
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		reactivated++
	}

	if reactivated > 0 {
		metrics.NotificationsReactivated.Add(float64(reactivated))
		s.log.Info("snoozed notifications reactivated", zap.Int("count", reactivated))
	}

	return reactivated, errs
}

// AutoBatch invokes the batching engine once for every user holding at least
// one unread, unbatched notification. One user's failure never prevents the
// remaining users from being processed.
func (s *Scheduler) AutoBatch(ctx context.Context) error {
	ctx = ensureContext(ctx)

	var userIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("is_read = ? AND batch_id IS NULL", false).
		Distinct().
		Pluck("user_id", &userIDs).Error; err != nil {
		return err
	}

	var errs error
	for _, userID := range userIDs {
		if _, err := s.batches.BatchForUser(ctx, userID, s.batchWindow); err != nil {
			s.log.Warn("batching failed for user", zap.String("user_id", userID), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
