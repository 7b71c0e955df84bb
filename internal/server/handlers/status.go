package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/suiteworks/suiteql-workbench/internal/db"
	"github.com/suiteworks/suiteql-workbench/internal/db/models"
	"github.com/suiteworks/suiteql-workbench/internal/version"
)

// StatusHandler reports service info for the root path.
func StatusHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var accountCount int64
		database.Model(&models.Account{}).Count(&accountCount)
		writeJSON(w, map[string]interface{}{
			"service":  "suiteql-workbench",
			"version":  version.Version,
			"accounts": accountCount,
			"current":  db.GetConfigValue(database, db.CurrentAccountKey),
		})
	}
}
