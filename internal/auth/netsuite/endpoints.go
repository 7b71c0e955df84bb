package netsuite

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/suiteworks/suiteql-workbench/internal/db/models"
)

// Scopes requested during interactive authorization.
var Scopes = []string{"rest_webservices", "restlets"}

// ErrMissingCredentialConfig indicates the account lacks the OAuth
// registration fields required for any token operation.
var ErrMissingCredentialConfig = errors.New("account is missing OAuth 2.0 credentials (client id, client secret, redirect URI)")

// accountDomain converts a NetSuite account ID into the form used in
// API hostnames: lowercased, with underscores replaced by hyphens
// (sandbox accounts like 1234567_SB1 become 1234567-sb1).
func accountDomain(accountID string) string {
	return strings.ToLower(strings.ReplaceAll(accountID, "_", "-"))
}

// TokenURL returns the account's OAuth token endpoint.
func TokenURL(account *models.Account) string {
	if account.TokenURL != "" {
		return account.TokenURL
	}
	return fmt.Sprintf("https://%s.suitetalk.api.netsuite.com/services/rest/auth/oauth2/v1/token",
		accountDomain(account.NetSuiteAccountID))
}

// AuthorizeURL returns the account's browser authorization endpoint.
func AuthorizeURL(account *models.Account) string {
	if account.AuthorizeURL != "" {
		return account.AuthorizeURL
	}
	return fmt.Sprintf("https://%s.app.netsuite.com/app/login/oauth2/authorize.nl",
		accountDomain(account.NetSuiteAccountID))
}

// DefaultQueryURL returns the account's SuiteQL execution endpoint.
func DefaultQueryURL(account *models.Account) string {
	return fmt.Sprintf("https://%s.suitetalk.api.netsuite.com/services/rest/query/v1/suiteql",
		accountDomain(account.NetSuiteAccountID))
}

// OAuthConfig returns the OAuth2 config for one account. NetSuite's
// token endpoint authenticates the client via HTTP Basic auth, hence
// AuthStyleInHeader.
func OAuthConfig(account *models.Account) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     account.ClientID,
		ClientSecret: account.ClientSecret,
		RedirectURL:  account.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthorizeURL(account),
			TokenURL:  TokenURL(account),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}
