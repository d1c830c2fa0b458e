package database

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var db *gorm.DB

// Models lists every table AutoMigrate manages.
var Models = []interface{}{
	&models.Account{},
	&models.ReferralRecord{},
	&models.GenerationRecord{},
	&models.RateLimitCounter{},
	&models.WebhookEvent{},
	&models.SavedAsset{},
}

// SetupDatabase connects to MySQL with retries and migrates the schema.
func SetupDatabase(cfg config.DBConfig) (*gorm.DB, error) {
	var err error
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       cfg.DSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{})
		if err == nil {
			if err = db.AutoMigrate(Models...); err != nil {
				return nil, err
			}
			log.Infof("[Database] Connected to %s@%s:%s/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)
			return db, nil
		}

		log.Warnf("[Database] Failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("[Database] Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}
	return nil, err
}

// GetDB returns the connection opened by SetupDatabase.
func GetDB() *gorm.DB {
	return db
}

// Ping reports whether the database answers.
func Ping(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
