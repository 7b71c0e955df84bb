package handlers

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/suiteworks/suiteql-workbench/internal/db"
)

// HistoryHandler returns recent query history for one account
// (account_id query param; defaults to the current selection).
func HistoryHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			account, err := db.CurrentAccount(database)
			if err != nil {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			accountID = account.ID
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := db.HistoryForAccount(database, accountID, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]interface{}{
			"account_id": accountID,
			"history":    entries,
		})
	}
}
