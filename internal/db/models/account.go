package models

import "time"

// Account stores the OAuth 2.0 credential bundle for one NetSuite account.
type Account struct {
	ID    string `gorm:"primaryKey" json:"id"` // UUID, stable across edits
	Label string `json:"label"`

	// NetSuiteAccountID is the tenant identifier used to build the
	// suitetalk/app hostnames (e.g. "1234567" or "1234567_SB1").
	NetSuiteAccountID string `gorm:"index" json:"netsuite_account_id"`

	// OAuth client registration. All three are required before any
	// OAuth operation is attempted.
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"-"`
	RedirectURI  string `json:"redirect_uri"`

	// Issued credentials. AccessToken and ExpiresAt are set and cleared
	// together; RefreshToken survives access-token rotations unless the
	// server issues a replacement.
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`

	// QueryURL is the SuiteQL execution endpoint. Derived from
	// NetSuiteAccountID when empty.
	QueryURL string `json:"query_url"`

	// Endpoint overrides for sandbox or non-production domains.
	// Empty means derived from NetSuiteAccountID.
	TokenURL     string `json:"token_url,omitempty"`
	AuthorizeURL string `json:"authorize_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasValidAccessToken reports whether the stored access token is usable
// as-is at time now.
func (a *Account) HasValidAccessToken(now time.Time) bool {
	return a.AccessToken != "" && now.Before(a.ExpiresAt)
}

// HasOAuthConfig reports whether the registration fields required for
// any OAuth operation are present.
func (a *Account) HasOAuthConfig() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.RedirectURI != ""
}
