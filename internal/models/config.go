package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Gmail    GmailConfig
	Zoho     ZohoConfig
	Stripe   StripeConfig
	Auth     AuthConfig
	Notify   NotifyConfig
	Archive  ArchiveConfig
	Formance FormanceConfig
	Scan     ScanConfig
	Server   ServerConfig
	Log      LogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// GmailConfig holds the Google OAuth client and the optional fallback mailbox
type GmailConfig struct {
	ClientId     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string
	Address      string
}

// ZohoConfig holds the Zoho OAuth client
type ZohoConfig struct {
	ClientId     string
	ClientSecret string
	AccountsURL  string
	MailAPIURL   string
}

// StripeConfig holds Financial Connections credentials
type StripeConfig struct {
	SecretKey string
}

// AuthConfig holds the trigger endpoint secrets. Both empty disables auth.
type AuthConfig struct {
	CronSecret  string
	AdminAPIKey string
}

// NotifyConfig holds the push webhook target
type NotifyConfig struct {
	WebhookURL   string
	WebhookToken string
}

// ArchiveConfig holds the raw email archive bucket
type ArchiveConfig struct {
	Bucket string
}

// FormanceConfig holds the settlement journal connection
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// ScanConfig holds pipeline tuning
type ScanConfig struct {
	MaxResults      int64
	DueWindowBefore int
	DueWindowAfter  int
	HTTPTimeout     time.Duration
	DefaultDaysBack int
	DefaultMode     string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level       string
	Development bool
}
