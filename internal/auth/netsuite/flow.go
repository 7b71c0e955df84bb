package netsuite

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/suiteworks/suiteql-workbench/internal/db"
	"github.com/suiteworks/suiteql-workbench/internal/db/models"
)

// ErrFlowInProgress is returned when an interactive authorization is
// already running. The local redirect port is a process-wide singleton,
// so a second flow fails fast instead of attempting a second bind.
var ErrFlowInProgress = errors.New("an interactive authorization is already in progress")

// Flow runs the interactive authorization-code handshake for one
// account: authorize URL, browser, redirect capture, code exchange,
// persistence.
type Flow struct {
	database    *gorm.DB
	timeout     time.Duration
	httpClient  *http.Client
	openBrowser func(string) error
	mu          sync.Mutex
}

// NewFlow creates an orchestrator. timeout bounds the redirect capture
// wait; httpClient is used for the token exchange (nil means the
// default client).
func NewFlow(database *gorm.DB, timeout time.Duration, httpClient *http.Client) *Flow {
	return &Flow{
		database:    database,
		timeout:     timeout,
		httpClient:  httpClient,
		openBrowser: OpenBrowser,
	}
}

// Run performs one full interactive authorization and returns the new
// access token. The updated credential bundle is persisted by account
// ID before returning. Only one Run may be active per process.
func (f *Flow) Run(ctx context.Context, account *models.Account) (string, error) {
	if !f.mu.TryLock() {
		return "", ErrFlowInProgress
	}
	defer f.mu.Unlock()

	if !account.HasOAuthConfig() {
		return "", ErrMissingCredentialConfig
	}

	state, err := NewStateToken()
	if err != nil {
		return "", err
	}

	cfg := OAuthConfig(account)
	authURL := cfg.AuthCodeURL(state)

	server, err := StartRedirectServer(account.RedirectURI, state, f.timeout)
	if err != nil {
		return "", err
	}
	defer server.Stop()

	// Browser-open failure never fails the flow; the user can navigate
	// manually.
	if err := f.openBrowser(authURL); err != nil {
		log.Printf("⚠️ Could not open browser automatically: %v", err)
	}
	log.Printf("🔑 Authorize NetSuite access at: %s", authURL)

	result := server.Wait(ctx)
	switch result.Outcome {
	case RedirectTimedOut:
		return "", fmt.Errorf("authorization timed out after %s; please try again", f.timeout)
	case RedirectRejected:
		return "", fmt.Errorf("authorization failed: %s", result.Reason)
	}

	if f.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	}
	tok, err := cfg.Exchange(ctx, result.Code)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	if tok.RefreshToken == "" && account.RefreshToken == "" {
		return "", fmt.Errorf("token response missing refresh_token")
	}

	account.AccessToken = tok.AccessToken
	account.ExpiresAt = tok.Expiry
	if tok.RefreshToken != "" {
		account.RefreshToken = tok.RefreshToken
	}
	if err := db.SaveAccount(f.database, account); err != nil {
		return "", fmt.Errorf("failed to persist new tokens: %w", err)
	}

	log.Printf("✅ Authorization complete for account %s (token expires %s)",
		account.NetSuiteAccountID, tok.Expiry.Format(time.RFC3339))
	return tok.AccessToken, nil
}
