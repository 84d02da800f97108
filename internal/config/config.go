/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"bill-scan-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	httpTimeout, err := getEnvDuration("HTTP_CLIENT_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	mode := getEnvString("SCAN_DEFAULT_MODE", models.ModeProposed)
	if mode != models.ModeProposed && mode != models.ModeLegacy {
		return nil, fmt.Errorf("invalid SCAN_DEFAULT_MODE: %q (want %s or %s)", mode, models.ModeProposed, models.ModeLegacy)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "bills.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Gmail: models.GmailConfig{
			ClientId:     os.Getenv("GMAIL_CLIENT_ID"),
			ClientSecret: os.Getenv("GMAIL_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("GMAIL_REDIRECT_URI"),
			RefreshToken: os.Getenv("GMAIL_REFRESH_TOKEN"),
			Address:      getEnvString("GMAIL_ADDRESS", "me"),
		},
		Zoho: models.ZohoConfig{
			ClientId:     os.Getenv("ZOHO_CLIENT_ID"),
			ClientSecret: os.Getenv("ZOHO_CLIENT_SECRET"),
			AccountsURL:  getEnvString("ZOHO_ACCOUNTS_URL", "https://accounts.zoho.com"),
			MailAPIURL:   getEnvString("ZOHO_MAIL_API_URL", "https://mail.zoho.com"),
		},
		Stripe: models.StripeConfig{
			SecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		},
		Auth: models.AuthConfig{
			CronSecret:  os.Getenv("CRON_SECRET"),
			AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
		},
		Notify: models.NotifyConfig{
			WebhookURL:   os.Getenv("NOTIFY_WEBHOOK_URL"),
			WebhookToken: os.Getenv("NOTIFY_WEBHOOK_TOKEN"),
		},
		Archive: models.ArchiveConfig{
			Bucket: os.Getenv("ARCHIVE_BUCKET"),
		},
		Formance: models.FormanceConfig{
			StackURL:     os.Getenv("FORMANCE_STACK_URL"),
			ClientID:     os.Getenv("FORMANCE_CLIENT_ID"),
			ClientSecret: os.Getenv("FORMANCE_CLIENT_SECRET"),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "bill-settlements"),
		},
		Scan: models.ScanConfig{
			MaxResults:      int64(getEnvInt("SCAN_MAX_RESULTS", 100)),
			DueWindowBefore: getEnvInt("DUE_WINDOW_BEFORE_DAYS", 5),
			DueWindowAfter:  getEnvInt("DUE_WINDOW_AFTER_DAYS", 2),
			HTTPTimeout:     httpTimeout,
			DefaultDaysBack: getEnvInt("SCAN_DEFAULT_DAYS_BACK", 1),
			DefaultMode:     mode,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ShutdownTimeout: shutdownTimeout,
		},
		Log: models.LogConfig{
			Level:       getEnvString("LOG_LEVEL", "info"),
			Development: getEnvBool("LOG_DEVELOPMENT", false),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
