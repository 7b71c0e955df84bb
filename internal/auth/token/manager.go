package token

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/suiteworks/suiteql-workbench/internal/auth/netsuite"
	"github.com/suiteworks/suiteql-workbench/internal/db"
	"github.com/suiteworks/suiteql-workbench/internal/db/models"
)

// ErrNoCredential means the account holds neither a usable access
// token nor a refresh token; the caller must drive a full interactive
// authorization.
var ErrNoCredential = errors.New("no usable credential stored; interactive authorization required")

// ErrRefreshFailed is the non-fatal signal that a refresh-token
// exchange did not produce a usable token. Callers fall back to full
// authorization instead of surfacing it. Transport errors during
// refresh are folded into this signal too.
var ErrRefreshFailed = errors.New("token refresh failed")

// Manager decides whether an account's access token is usable,
// refreshable, or in need of full reauthorization, and performs the
// refresh-token grant. Concurrent refreshes for the same account are
// not deduplicated; callers serialize per account.
type Manager struct {
	database   *gorm.DB
	httpClient *http.Client
}

// NewManager creates a token lifecycle manager. httpClient is used for
// refresh exchanges (nil means the default client).
func NewManager(database *gorm.DB, httpClient *http.Client) *Manager {
	return &Manager{database: database, httpClient: httpClient}
}

// ObtainUsableToken returns the stored access token when it is still
// valid, refreshes when a refresh token is available, and otherwise
// reports ErrNoCredential. A valid stored token never costs a network
// call.
func (m *Manager) ObtainUsableToken(ctx context.Context, account *models.Account) (string, error) {
	if !account.HasOAuthConfig() {
		return "", netsuite.ErrMissingCredentialConfig
	}
	if account.HasValidAccessToken(time.Now()) {
		return account.AccessToken, nil
	}
	if account.RefreshToken != "" {
		return m.Refresh(ctx, account)
	}
	return "", ErrNoCredential
}

// Refresh performs the refresh_token grant against the account's token
// endpoint and persists the updated bundle by ID before returning. Any
// failure (non-2xx, unparsable body, missing access_token, network
// error) yields ErrRefreshFailed; the stored refresh token is left in
// place for the next attempt.
func (m *Manager) Refresh(ctx context.Context, account *models.Account) (string, error) {
	if !account.HasOAuthConfig() {
		return "", netsuite.ErrMissingCredentialConfig
	}
	if account.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token stored", ErrRefreshFailed)
	}

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}
	cfg := netsuite.OAuthConfig(account)
	source := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: account.RefreshToken})

	tok, err := source.Token()
	if err != nil {
		log.Printf("❌ Token refresh failed for account %s: %v", account.NetSuiteAccountID, err)
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	account.AccessToken = tok.AccessToken
	account.ExpiresAt = tok.Expiry
	if tok.RefreshToken != "" && tok.RefreshToken != account.RefreshToken {
		log.Printf("🔄 Rotating refresh token for account %s", account.NetSuiteAccountID)
		account.RefreshToken = tok.RefreshToken
	}
	if err := db.SaveAccount(m.database, account); err != nil {
		return "", fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	log.Printf("✅ Refreshed access token for account %s (expires %s)",
		account.NetSuiteAccountID, tok.Expiry.Format(time.RFC3339))
	return tok.AccessToken, nil
}
