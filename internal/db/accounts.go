package db

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/suiteworks/suiteql-workbench/internal/db/models"
)

// GetAccount loads one account by ID.
func GetAccount(database *gorm.DB, id string) (*models.Account, error) {
	var account models.Account
	if err := database.First(&account, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("account not found: %s", id)
	}
	return &account, nil
}

// ListAccounts returns all configured accounts, newest first.
func ListAccounts(database *gorm.DB) ([]models.Account, error) {
	var accounts []models.Account
	if err := database.Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// SaveAccount persists the full account record by ID.
func SaveAccount(database *gorm.DB, account *models.Account) error {
	return database.Save(account).Error
}

// DeleteAccount removes an account together with its derived state:
// query history rows and, when it was selected, the current-account
// selection.
func DeleteAccount(database *gorm.DB, id string) error {
	if err := database.Delete(&models.Account{}, "id = ?", id).Error; err != nil {
		return err
	}
	if err := database.Delete(&models.QueryHistory{}, "account_id = ?", id).Error; err != nil {
		return err
	}
	if GetConfigValue(database, CurrentAccountKey) == id {
		if err := database.Delete(&models.Config{}, "key = ?", CurrentAccountKey).Error; err != nil {
			return err
		}
	}
	log.Printf("🗑️ Deleted account %s and its history", id)
	return nil
}

// CurrentAccount returns the selected account, falling back to the
// most recently created one when no selection is stored.
func CurrentAccount(database *gorm.DB) (*models.Account, error) {
	if id := GetConfigValue(database, CurrentAccountKey); id != "" {
		if account, err := GetAccount(database, id); err == nil {
			return account, nil
		}
	}
	var account models.Account
	if err := database.Order("created_at DESC").First(&account).Error; err != nil {
		return nil, fmt.Errorf("no accounts configured")
	}
	return &account, nil
}

// SetCurrentAccount records the account selection after verifying the
// account exists.
func SetCurrentAccount(database *gorm.DB, id string) error {
	if _, err := GetAccount(database, id); err != nil {
		return err
	}
	return SetConfigValue(database, CurrentAccountKey, id)
}

// RecordQuery appends one history entry for an account.
func RecordQuery(database *gorm.DB, accountID, query string, rowCount int, execErr error) {
	entry := models.QueryHistory{
		ID:         uuid.New().String(),
		AccountID:  accountID,
		Query:      query,
		RowCount:   rowCount,
		Status:     "ok",
		ExecutedAt: time.Now(),
	}
	if execErr != nil {
		entry.Status = "error"
		entry.Error = execErr.Error()
	}
	if err := database.Create(&entry).Error; err != nil {
		log.Printf("⚠️ Failed to record query history: %v", err)
	}
}

// HistoryForAccount returns up to limit recent history entries.
func HistoryForAccount(database *gorm.DB, accountID string, limit int) ([]models.QueryHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.QueryHistory
	if err := database.Where("account_id = ?", accountID).
		Order("executed_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
