package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/suiteworks/suiteql-workbench/internal/db"
	"github.com/suiteworks/suiteql-workbench/internal/db/models"
	"github.com/suiteworks/suiteql-workbench/internal/logging"
	"github.com/suiteworks/suiteql-workbench/internal/suiteql"
	"github.com/suiteworks/suiteql-workbench/internal/util"
)

type queryRequest struct {
	Query     string `json:"query"`
	AccountID string `json:"account_id,omitempty"`
}

// QueryHandler executes one SuiteQL query through the resilient
// executor, against the named account or the current selection, and
// records the outcome in history.
func QueryHandler(database *gorm.DB, executor *suiteql.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		var account *models.Account
		var err error
		if req.AccountID != "" {
			account, err = db.GetAccount(database, req.AccountID)
		} else {
			account, err = db.CurrentAccount(database)
		}
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		reqID := logging.GenerateRequestID()
		ctx := logging.WithRequestID(r.Context(), reqID)
		log.Printf("[%s] 📨 SuiteQL query for account %s: %s",
			reqID, account.NetSuiteAccountID, util.TruncateLog(req.Query, 200))

		result, err := executor.Execute(ctx, account, req.Query)
		if err != nil {
			db.RecordQuery(database, account.ID, req.Query, 0, err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		db.RecordQuery(database, account.ID, req.Query, len(result.Rows), nil)
		writeJSON(w, map[string]interface{}{
			"account_id": account.ID,
			"count":      len(result.Rows),
			"rows":       result.Rows,
			"raw":        result.Raw,
		})
	}
}
