// Package usage maintains the ai_usage quota table, purging rows past the
// retention horizon in the background.
package usage

import (
	"context"
	"time"

	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"github.com/Criztiandev/criztiandev-blogs/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultRetentionInterval = 6 * time.Hour
	defaultRetentionDays     = 30
	deleteBatchSize          = 5000
	maxDeleteBatchesPerRun   = 200
)

// RetentionDaysKey overrides the retention horizon via the settings table.
const RetentionDaysKey = "AI_USAGE_RETENTION_DAYS"

// RetentionCleaner periodically deletes quota rows whose date is past the
// retention horizon. Rows are keyed by UTC calendar date, so anything older
// than the horizon can never affect an admission decision again.
type RetentionCleaner struct {
	db       *gorm.DB
	interval time.Duration
}

// NewRetentionCleaner creates a cleaner; nil db yields a nil cleaner.
func NewRetentionCleaner(db *gorm.DB) *RetentionCleaner {
	if db == nil {
		return nil
	}
	return &RetentionCleaner{db: db, interval: defaultRetentionInterval}
}

// Start launches the cleanup loop in a background goroutine.
func (c *RetentionCleaner) Start(ctx context.Context) {
	if c == nil {
		return
	}
	go c.run(ctx)
	log.Infof("ai usage retention cleaner started (interval=%s)", c.interval)
}

func (c *RetentionCleaner) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		c.cleanupOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// cleanupOnce deletes expired rows in bounded batches so a large backlog
// never holds a long transaction.
func (c *RetentionCleaner) cleanupOnce(ctx context.Context) {
	cutoff := CutoffDate(time.Now().UTC())
	total := int64(0)
	for i := 0; i < maxDeleteBatchesPerRun; i++ {
		result := c.db.WithContext(ctx).
			Where("(ip_hash, date) IN (?)", c.db.Model(&models.AIUsage{}).
				Select("ip_hash, date").
				Where("date < ?", cutoff).
				Limit(deleteBatchSize)).
			Delete(&models.AIUsage{})
		if result.Error != nil {
			log.WithError(result.Error).Warn("ai usage retention cleanup failed")
			return
		}
		total += result.RowsAffected
		if result.RowsAffected < deleteBatchSize {
			break
		}
	}
	if total > 0 {
		log.Infof("ai usage retention: deleted %d rows older than %s", total, cutoff)
	}
}

// CutoffDate returns the oldest retained UTC date key for a given instant.
// The horizon comes from the settings table, falling back to 30 days.
func CutoffDate(now time.Time) string {
	days := settings.IntValue(RetentionDaysKey, defaultRetentionDays)
	return now.UTC().AddDate(0, 0, -days).Format("2006-01-02")
}
