package common

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"bill-scan-go/internal/archive"
	"bill-scan-go/internal/billing"
	"bill-scan-go/internal/database"
	"bill-scan-go/internal/financial"
	"bill-scan-go/internal/ledger"
	"bill-scan-go/internal/mailbox"
	"bill-scan-go/internal/models"
	"bill-scan-go/internal/notify"
	"bill-scan-go/internal/parser"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/http2"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Billing   *billing.Service
	Journal   ledger.Journal
	Archiver  archive.Archiver
}

func InitializeLogger(cfg models.LogConfig) (*zap.Logger, func()) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		log.Printf("Unknown LOG_LEVEL %q, using info\n", cfg.Level)
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// NewHTTPClient is the outbound client shared by the mailbox, bank and
// notification collaborators.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// InitializeServices wires the pipeline. Optional collaborators fall back to
// their no-op or log-only forms when unconfigured.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	httpClient, err := NewHTTPClient(cfg.Scan.HTTPTimeout)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("unable to create http client: %w", err)
	}

	services := &Services{DbService: dbService}

	factory := mailbox.NewFactory(cfg.Gmail, cfg.Zoho, dbService, httpClient)
	deps := billing.Deps{
		Store:    dbService,
		Opener:   factory,
		Parser:   parser.New(),
		Notifier: notify.Log{},
		Archiver: archive.Noop{},
		Journal:  ledger.Noop{},
		Config:   cfg.Scan,
	}
	if fallback, ok := factory.FallbackAccount(); ok {
		deps.Fallback = &fallback
	}

	if cfg.Stripe.SecretKey != "" {
		provider, err := financial.NewStripeProvider(cfg.Stripe.SecretKey, httpClient)
		if err != nil {
			services.Close()
			return nil, err
		}
		deps.Provider = provider
	} else {
		zap.L().Info("STRIPE_SECRET_KEY not set, bank sync disabled")
	}

	if cfg.Notify.WebhookURL != "" {
		deps.Notifier = notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.WebhookToken, httpClient)
	}

	if cfg.Archive.Bucket != "" {
		archiver, err := archive.NewGCSArchiver(ctx, cfg.Archive.Bucket)
		if err != nil {
			services.Close()
			return nil, err
		}
		deps.Archiver = archiver
		services.Archiver = archiver
	}

	if cfg.Formance.StackURL != "" {
		journal, err := ledger.NewService(ctx, cfg.Formance)
		if err != nil {
			services.Close()
			return nil, err
		}
		deps.Journal = journal
	}

	services.Billing = billing.NewService(deps)
	services.Journal = deps.Journal
	return services, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for seeding and read-only listings
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.Archiver != nil {
		if err := cs.Archiver.Close(); err != nil {
			zap.L().Warn("Failed to close archive client", zap.Error(err))
		}
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
