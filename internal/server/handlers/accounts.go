package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/suiteworks/suiteql-workbench/internal/auth/netsuite"
	"github.com/suiteworks/suiteql-workbench/internal/auth/token"
	"github.com/suiteworks/suiteql-workbench/internal/db"
	"github.com/suiteworks/suiteql-workbench/internal/db/models"
)

// accountRequest is the create/update payload. Secrets travel inbound
// only; responses use the model's redacting JSON tags.
type accountRequest struct {
	Label             string `json:"label"`
	NetSuiteAccountID string `json:"netsuite_account_id"`
	ClientID          string `json:"client_id"`
	ClientSecret      string `json:"client_secret"`
	RedirectURI       string `json:"redirect_uri"`
	QueryURL          string `json:"query_url"`
	TokenURL          string `json:"token_url"`
	AuthorizeURL      string `json:"authorize_url"`
}

// AccountsListHandler lists all accounts with the current selection.
func AccountsListHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := db.ListAccounts(database)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]interface{}{
			"accounts": accounts,
			"current":  db.GetConfigValue(database, db.CurrentAccountKey),
		})
	}
}

// AccountCreateHandler registers a new credential bundle.
func AccountCreateHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.NetSuiteAccountID == "" {
			writeError(w, http.StatusBadRequest, "netsuite_account_id is required")
			return
		}

		account := models.Account{
			ID:                uuid.New().String(),
			Label:             req.Label,
			NetSuiteAccountID: req.NetSuiteAccountID,
			ClientID:          req.ClientID,
			ClientSecret:      req.ClientSecret,
			RedirectURI:       req.RedirectURI,
			QueryURL:          req.QueryURL,
			TokenURL:          req.TokenURL,
			AuthorizeURL:      req.AuthorizeURL,
		}
		if account.QueryURL == "" {
			account.QueryURL = netsuite.DefaultQueryURL(&account)
		}
		if err := database.Create(&account).Error; err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(&account)
	}
}

// AccountUpdateHandler edits a bundle in place. The record keeps its ID
// and its issued tokens unless the OAuth registration changed, in which
// case the tokens are cleared (they were issued for the old client).
func AccountUpdateHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := db.GetAccount(database, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		var req accountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		credentialsChanged := (req.ClientID != "" && req.ClientID != account.ClientID) ||
			(req.ClientSecret != "" && req.ClientSecret != account.ClientSecret) ||
			(req.NetSuiteAccountID != "" && req.NetSuiteAccountID != account.NetSuiteAccountID)

		if req.Label != "" {
			account.Label = req.Label
		}
		if req.NetSuiteAccountID != "" {
			account.NetSuiteAccountID = req.NetSuiteAccountID
		}
		if req.ClientID != "" {
			account.ClientID = req.ClientID
		}
		if req.ClientSecret != "" {
			account.ClientSecret = req.ClientSecret
		}
		if req.RedirectURI != "" {
			account.RedirectURI = req.RedirectURI
		}
		if req.QueryURL != "" {
			account.QueryURL = req.QueryURL
		}
		if req.TokenURL != "" {
			account.TokenURL = req.TokenURL
		}
		if req.AuthorizeURL != "" {
			account.AuthorizeURL = req.AuthorizeURL
		}
		if credentialsChanged {
			account.AccessToken = ""
			account.RefreshToken = ""
			account.ExpiresAt = time.Time{}
		}

		if err := db.SaveAccount(database, account); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, account)
	}
}

// AccountDeleteHandler removes a bundle and its derived state.
func AccountDeleteHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := db.GetAccount(database, id); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err := db.DeleteAccount(database, id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]string{"status": "deleted", "id": id})
	}
}

// AccountSelectHandler marks an account as the current one.
func AccountSelectHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := db.SetCurrentAccount(database, id); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, map[string]string{"status": "selected", "id": id})
	}
}

// AccountAuthorizeHandler forces a full interactive authorization.
func AccountAuthorizeHandler(database *gorm.DB, flow *netsuite.Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := db.GetAccount(database, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if _, err := flow.Run(r.Context(), account); err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, netsuite.ErrFlowInProgress) {
				status = http.StatusConflict
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, map[string]interface{}{
			"status":     "authorized",
			"expires_at": account.ExpiresAt,
		})
	}
}

// AccountRefreshHandler forces a refresh-token exchange.
func AccountRefreshHandler(database *gorm.DB, tokens *token.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := db.GetAccount(database, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if _, err := tokens.Refresh(r.Context(), account); err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, map[string]interface{}{
			"status":     "refreshed",
			"expires_at": account.ExpiresAt,
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"message": message},
	})
}
