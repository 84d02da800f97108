package mailbox

import (
	"context"
	"fmt"
	"net/http"

	"bill-scan-go/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// Factory opens Gmail and Zoho mailboxes from stored credentials
type Factory struct {
	gmail models.GmailConfig
	zoho  models.ZohoConfig
	saver TokenSaver
	http  *http.Client
}

func NewFactory(gmailCfg models.GmailConfig, zohoCfg models.ZohoConfig, saver TokenSaver, httpClient *http.Client) *Factory {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Factory{gmail: gmailCfg, zoho: zohoCfg, saver: saver, http: httpClient}
}

// FallbackAccount returns the env-configured Gmail mailbox, or false when no
// refresh token is set.
func (f *Factory) FallbackAccount() (models.EmailAccount, bool) {
	if f.gmail.RefreshToken == "" {
		return models.EmailAccount{}, false
	}
	return models.EmailAccount{
		Provider:     models.ProviderGmail,
		Email:        f.gmail.Address,
		RefreshToken: f.gmail.RefreshToken,
		IsActive:     true,
		ScanForBills: true,
	}, true
}

func (f *Factory) Open(ctx context.Context, account models.EmailAccount) (Client, error) {
	// oauth2 picks the transport for refresh calls out of the context
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.http)

	switch account.Provider {
	case models.ProviderGmail:
		ts := f.tokenSource(ctx, f.gmailOAuth(), account)
		return NewGmailClient(ctx, ts)
	case models.ProviderZoho:
		ts := f.tokenSource(ctx, f.zohoOAuth(), account)
		client, err := NewZohoClient(ctx, f.http, ts, f.zoho.MailAPIURL, account.ProviderAccountId)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported mailbox provider %q", account.Provider)
	}
}

func (f *Factory) tokenSource(ctx context.Context, conf *oauth2.Config, account models.EmailAccount) oauth2.TokenSource {
	tok := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
	}
	if account.TokenExpiry.Valid {
		tok.Expiry = account.TokenExpiry.Time
	}
	return newPersistingSource(ctx, conf.TokenSource(ctx, tok), f.saver, account.Id, account.AccessToken)
}

func (f *Factory) gmailOAuth() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     f.gmail.ClientId,
		ClientSecret: f.gmail.ClientSecret,
		RedirectURL:  f.gmail.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
}

func (f *Factory) zohoOAuth() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     f.zoho.ClientId,
		ClientSecret: f.zoho.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  f.zoho.AccountsURL + "/oauth/v2/auth",
			TokenURL: f.zoho.AccountsURL + "/oauth/v2/token",
		},
		Scopes: []string{"ZohoMail.messages.READ", "ZohoMail.accounts.READ"},
	}
}
