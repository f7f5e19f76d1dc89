package roadmap

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Recorder stores save attempts.
type Recorder interface {
	Record(ctx context.Context, entry models.SettingsSave) error
}

// History is the settings_saves table.
type History struct {
	db *gorm.DB
}

// NewHistory constructs a History backed by db.
func NewHistory(db *gorm.DB) *History {
	if db == nil {
		return nil
	}
	return &History{db: db}
}

// Record inserts one save attempt.
func (h *History) Record(ctx context.Context, entry models.SettingsSave) error {
	if h == nil || h.db == nil {
		return errors.New("roadmap: nil history")
	}
	entry.Shop = strings.ToLower(strings.TrimSpace(entry.Shop))
	return h.db.WithContext(ctx).Create(&entry).Error
}

// List returns the newest save attempts for shop.
func (h *History) List(ctx context.Context, shop string, limit int) ([]models.SettingsSave, error) {
	if h == nil || h.db == nil {
		return nil, errors.New("roadmap: nil history")
	}
	if limit <= 0 {
		limit = 20
	}
	var rows []models.SettingsSave
	errFind := h.db.WithContext(ctx).
		Where("shop = ?", strings.ToLower(strings.TrimSpace(shop))).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, errFind
}

const (
	defaultRetentionInterval = 6 * time.Hour
	retentionDeleteBatchSize = 1000
	maxDeleteBatchesPerRun   = 100
)

// RetentionCleaner periodically deletes old rows from the settings_saves table.
type RetentionCleaner struct {
	db            *gorm.DB
	interval      time.Duration
	retentionDays int
	now           func() time.Time
}

// NewRetentionCleaner returns nil when retention is disabled.
func NewRetentionCleaner(db *gorm.DB, retentionDays int) *RetentionCleaner {
	if db == nil || retentionDays <= 0 {
		return nil
	}
	return &RetentionCleaner{
		db:            db,
		interval:      defaultRetentionInterval,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Run cleans once immediately and then on every interval until ctx is cancelled.
func (c *RetentionCleaner) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}
	log.Infof("settings history retention cleaner started (interval=%s retention_days=%d)", c.interval, c.retentionDays)
	for {
		c.CleanupOnce(ctx)
		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return nil
		case <-timer.C:
		}
	}
}

// CleanupOnce deletes rows older than the retention window in batches and returns the count.
func (c *RetentionCleaner) CleanupOnce(ctx context.Context) int64 {
	if c == nil || c.db == nil {
		return 0
	}
	cutoff := c.now().UTC().AddDate(0, 0, -c.retentionDays)
	var deletedTotal int64
	for i := 0; i < maxDeleteBatchesPerRun; i++ {
		if ctx.Err() != nil {
			break
		}
		var ids []uint64
		if errIDs := c.db.WithContext(ctx).
			Model(&models.SettingsSave{}).
			Where("created_at < ?", cutoff).
			Order("id ASC").
			Limit(retentionDeleteBatchSize).
			Pluck("id", &ids).Error; errIDs != nil {
			log.WithError(errIDs).Warn("settings history retention: select batch failed")
			break
		}
		if len(ids) == 0 {
			break
		}
		res := c.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.SettingsSave{})
		if res.Error != nil {
			log.WithError(res.Error).Warn("settings history retention: delete batch failed")
			break
		}
		deletedTotal += res.RowsAffected
		if len(ids) < retentionDeleteBatchSize {
			break
		}
	}
	if deletedTotal > 0 {
		log.Infof("settings history retention: deleted %d rows (cutoff=%s)", deletedTotal, cutoff.Format(time.RFC3339))
	}
	return deletedTotal
}
