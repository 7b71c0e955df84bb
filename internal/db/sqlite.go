package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/suiteworks/suiteql-workbench/internal/db/models"
)

// CurrentAccountKey is the Config key holding the selected account ID.
const CurrentAccountKey = "current_account"

// InitDB initializes the SQLite database connection and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(&models.Account{}, &models.Config{}, &models.QueryHistory{}); err != nil {
		return nil, err
	}

	return database, nil
}

// GetConfigValue reads one Config KV entry, returning "" when unset.
func GetConfigValue(database *gorm.DB, key string) string {
	var config models.Config
	if err := database.Where("key = ?", key).First(&config).Error; err != nil {
		return ""
	}
	return config.Value
}

// SetConfigValue upserts one Config KV entry.
func SetConfigValue(database *gorm.DB, key, value string) error {
	return database.Save(&models.Config{Key: key, Value: value}).Error
}
