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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.BillStore.
var _ store.BillStore = (*Service)(nil)

type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := NewServiceFromDB(db)
	if err := service.InitSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

// NewServiceFromDB wraps an already opened handle. The schema is not created.
func NewServiceFromDB(db *sql.DB) *Service {
	return &Service{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS team_members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		is_founder BOOLEAN NOT NULL DEFAULT 0,
		splits_expenses BOOLEAN NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS email_accounts (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		email TEXT NOT NULL,
		access_token TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		token_expiry TIMESTAMP,
		provider_account_id TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		scan_for_bills BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(provider, email)
	);

	CREATE TABLE IF NOT EXISTS processed_emails (
		id TEXT PRIMARY KEY,
		email_id TEXT NOT NULL UNIQUE,
		vendor TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		email_account_id TEXT NOT NULL DEFAULT '',
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS proposed_bills (
		id TEXT PRIMARY KEY,
		email_id TEXT NOT NULL UNIQUE,
		email_account_id TEXT NOT NULL DEFAULT '',
		vendor TEXT NOT NULL,
		vendor_type TEXT NOT NULL,
		amount TEXT,
		due_date TIMESTAMP,
		balance TEXT,
		account_type TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		snippet TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS recurring_bills (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		vendor TEXT NOT NULL,
		vendor_type TEXT NOT NULL,
		amount_type TEXT NOT NULL,
		fixed_amount TEXT,
		due_day INTEGER NOT NULL DEFAULT 1,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		auto_approve BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS bill_instances (
		id TEXT PRIMARY KEY,
		recurring_bill_id TEXT REFERENCES recurring_bills(id),
		vendor TEXT NOT NULL,
		vendor_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		due_date TIMESTAMP,
		period TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		is_paid BOOLEAN NOT NULL DEFAULT 0,
		paid_date TIMESTAMP,
		payment_method TEXT NOT NULL DEFAULT '',
		stripe_transaction_id TEXT,
		email_id TEXT UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(recurring_bill_id, period)
	);

	CREATE INDEX IF NOT EXISTS idx_bill_instances_vendor_period ON bill_instances(vendor, period);
	CREATE INDEX IF NOT EXISTS idx_bill_instances_status ON bill_instances(status);

	CREATE TABLE IF NOT EXISTS bill_splits (
		id TEXT PRIMARY KEY,
		bill_instance_id TEXT NOT NULL REFERENCES bill_instances(id),
		team_member_id TEXT,
		amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		paid_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_bill_splits_instance ON bill_splits(bill_instance_id);

	CREATE TABLE IF NOT EXISTS financial_accounts (
		id TEXT PRIMARY KEY,
		provider_account_id TEXT NOT NULL UNIQUE,
		institution_name TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		last4 TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		last_sync_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS skip_rules (
		id TEXT PRIMARY KEY,
		rule_type TEXT NOT NULL,
		vendor_pattern TEXT NOT NULL DEFAULT '',
		description_pattern TEXT NOT NULL DEFAULT '',
		amount TEXT,
		amount_min TEXT,
		amount_max TEXT,
		amount_variance TEXT,
		financial_account_id TEXT,
		transaction_type TEXT,
		display_name TEXT,
		skip_count INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(rule_type, vendor_pattern, description_pattern)
	);

	CREATE TABLE IF NOT EXISTS stripe_transactions (
		id TEXT PRIMARY KEY,
		stripe_transaction_id TEXT NOT NULL UNIQUE,
		financial_account_id TEXT NOT NULL REFERENCES financial_accounts(id),
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		display_name TEXT,
		status TEXT NOT NULL DEFAULT '',
		transacted_at TIMESTAMP NOT NULL,
		approval_status TEXT,
		approved_at TIMESTAMP,
		skip_rule_id TEXT REFERENCES skip_rules(id),
		matched_recurring_bill_id TEXT REFERENCES recurring_bills(id),
		match_confidence INTEGER,
		bill_instance_id TEXT REFERENCES bill_instances(id),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_stripe_transactions_account ON stripe_transactions(financial_account_id);
	CREATE INDEX IF NOT EXISTS idx_stripe_transactions_transacted_at ON stripe_transactions(transacted_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
