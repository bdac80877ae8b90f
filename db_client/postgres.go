package db_client

import (
	"time"

	"github.com/Strum355/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to postgres, retrying while the server comes up.
func Open(dsn string, attempts int) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	if attempts < 1 {
		attempts = 1
	}
	for range attempts {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr != nil {
				err = dbErr
			} else if err = sqlDB.Ping(); err == nil {
				return db, nil
			}
		}
		log.WithError(err).Info("Waiting for Postgres to be ready...")
		time.Sleep(time.Second)
	}
	return nil, err
}
