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

package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bill-scan-go/internal/archive"
	"bill-scan-go/internal/financial"
	"bill-scan-go/internal/ledger"
	"bill-scan-go/internal/mailbox"
	"bill-scan-go/internal/models"
	"bill-scan-go/internal/notify"
	"bill-scan-go/internal/parser"
	"bill-scan-go/internal/store"

	"go.uber.org/zap"
)

var ErrInvalidMode = errors.New("mode must be proposed or legacy")

// Request selects what one scan run does
type Request struct {
	DaysBack  int
	Mode      string
	SkipEmail bool
	SkipBank  bool
}

// Deps are the collaborators of the pipeline. Provider may be nil, in which
// case bank sync is skipped. Fallback is scanned when the store holds no
// scan-enabled mailbox.
type Deps struct {
	Store    store.BillStore
	Opener   mailbox.Opener
	Fallback *models.EmailAccount
	Parser   *parser.Parser
	Provider financial.Provider
	Notifier notify.Notifier
	Archiver archive.Archiver
	Journal  ledger.Journal
	Config   models.ScanConfig
}

// Service runs the bill scan pipeline: email ingestion, fixed-bill
// generation and bank reconciliation.
type Service struct {
	store    store.BillStore
	opener   mailbox.Opener
	fallback *models.EmailAccount
	parser   *parser.Parser
	provider financial.Provider
	notifier notify.Notifier
	archiver archive.Archiver
	journal  ledger.Journal
	cfg      models.ScanConfig
	now      func() time.Time
}

func NewService(deps Deps) *Service {
	s := &Service{
		store:    deps.Store,
		opener:   deps.Opener,
		fallback: deps.Fallback,
		parser:   deps.Parser,
		provider: deps.Provider,
		notifier: deps.Notifier,
		archiver: deps.Archiver,
		journal:  deps.Journal,
		cfg:      deps.Config,
		now:      time.Now,
	}
	if s.parser == nil {
		s.parser = parser.New()
	}
	if s.notifier == nil {
		s.notifier = notify.Log{}
	}
	if s.archiver == nil {
		s.archiver = archive.Noop{}
	}
	if s.journal == nil {
		s.journal = ledger.Noop{}
	}
	if s.cfg.DueWindowBefore <= 0 {
		s.cfg.DueWindowBefore = 5
	}
	if s.cfg.DueWindowAfter <= 0 {
		s.cfg.DueWindowAfter = 2
	}
	return s
}

// ParseMode normalises a requested mode. Empty selects fallback.
func ParseMode(mode, fallback string) (string, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = fallback
	}
	if mode == "" {
		mode = models.ModeProposed
	}
	switch mode {
	case models.ModeProposed, models.ModeLegacy:
		return mode, nil
	default:
		return "", fmt.Errorf("%q: %w", mode, ErrInvalidMode)
	}
}

// Run executes one scan. Only configuration problems are returned as errors,
// together with a failed report; per-item failures are tallied in the report.
func (s *Service) Run(ctx context.Context, req Request) (*models.ScanReport, error) {
	mode, err := ParseMode(req.Mode, s.cfg.DefaultMode)
	if err != nil {
		return nil, err
	}
	daysBack := mailbox.ClampDays(req.DaysBack)
	report := models.NewScanReport(s.now().UTC(), daysBack, mode)

	var accounts []models.EmailAccount
	if !req.SkipEmail {
		accounts, err = s.scanAccounts(ctx)
		if err != nil {
			zap.L().Error("Scan aborted", zap.Error(err))
			report.Success = false
			report.Error = err.Error()
			return report, err
		}
	}

	zap.L().Info("Starting bill scan",
		zap.Int("days_back", daysBack),
		zap.String("mode", mode),
		zap.Int("mailboxes", len(accounts)),
		zap.Bool("skip_bank", req.SkipBank))

	if !req.SkipEmail {
		s.scanEmail(ctx, accounts, daysBack, mode, report)
	}
	s.generateFixedBills(ctx, report)
	if !req.SkipBank {
		s.syncBank(ctx, report)
	}

	zap.L().Info("Bill scan finished",
		zap.Int("emails_found", report.EmailsFound),
		zap.Any("results", report.Results),
		zap.Int("transactions_synced", report.Transactions.Synced),
		zap.Int("auto_matched", report.Transactions.AutoMatched),
		zap.Int("transaction_errors", len(report.Transactions.Errors)))
	return report, nil
}

func (s *Service) scanAccounts(ctx context.Context) ([]models.EmailAccount, error) {
	accounts, err := s.store.GetScanAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load email accounts: %w", err)
	}
	if len(accounts) > 0 {
		return accounts, nil
	}
	if s.fallback != nil {
		zap.L().Info("No mailbox in database, using fallback account", zap.String("email", s.fallback.Email))
		return []models.EmailAccount{*s.fallback}, nil
	}
	return nil, fmt.Errorf("no active scan-enabled mailbox and no GMAIL_REFRESH_TOKEN: %w", store.ErrNoEmailAccounts)
}

// notifyBillDue and notifyPayment never fail the caller. A failed send is
// counted as an error and leaves stored state untouched.
func (s *Service) notifyBillDue(ctx context.Context, report *models.ScanReport, instance *models.BillInstance) {
	var due *time.Time
	if instance.DueDate.Valid {
		due = &instance.DueDate.Time
	}
	if err := s.notifier.BillDue(ctx, instance.Vendor, instance.Amount, due); err != nil {
		zap.L().Warn("Bill due notification failed", zap.String("vendor", instance.Vendor), zap.Error(err))
		report.Results.Errors++
		return
	}
	report.Results.Notifications++
}

func (s *Service) notifyPayment(ctx context.Context, report *models.ScanReport, instance *models.BillInstance) {
	if err := s.notifier.PaymentConfirmed(ctx, instance.Vendor, instance.Amount); err != nil {
		zap.L().Warn("Payment notification failed", zap.String("vendor", instance.Vendor), zap.Error(err))
		report.Results.Errors++
		return
	}
	report.Results.Notifications++
}

// Period is the "YYYY-MM" key of t in UTC
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}
