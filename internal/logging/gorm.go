package logging

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

// GormLogger routes GORM warnings and slow queries through logrus.
func GormLogger() logger.Interface {
	return logger.New(
		log.StandardLogger(),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
