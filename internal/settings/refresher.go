package settings

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultRefreshInterval = 30 * time.Second

// Refresher periodically reloads the settings snapshot so flag changes made by
// another process are picked up without a restart.
type Refresher struct {
	db       *gorm.DB
	interval time.Duration
}

// NewRefresher constructs a Refresher; interval <= 0 selects the default.
func NewRefresher(db *gorm.DB, interval time.Duration) *Refresher {
	if db == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &Refresher{db: db, interval: interval}
}

// Run blocks until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	if r == nil {
		return nil
	}
	log.Infof("settings refresher started (interval=%s)", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if errRefresh := RefreshDBConfigSnapshot(ctx, r.db); errRefresh != nil {
				if ctx.Err() == nil {
					log.WithError(errRefresh).Warn("settings refresher: reload failed")
				}
				continue
			}
			log.Debugf("settings refresher: %d keys, newest %s", len(DBConfigKeys()), DBConfigUpdatedAt().Format(time.RFC3339))
		}
	}
}
