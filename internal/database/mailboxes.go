package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetEmailAccounts(ctx context.Context) ([]models.EmailAccount, error) {
	return s.queryEmailAccounts(ctx, queryGetEmailAccounts)
}

// GetScanAccounts returns active mailboxes with bill scanning enabled
func (s *Service) GetScanAccounts(ctx context.Context) ([]models.EmailAccount, error) {
	return s.queryEmailAccounts(ctx, queryGetScanAccounts)
}

func (s *Service) queryEmailAccounts(ctx context.Context, query string) ([]models.EmailAccount, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("unable to query email accounts: %w", err)
	}
	defer closeRows(rows)

	var accounts []models.EmailAccount
	for rows.Next() {
		account, err := scanEmailAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan email account row: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating email account rows: %w", err)
	}
	return accounts, nil
}

func (s *Service) UpsertEmailAccount(ctx context.Context, params store.EmailAccountParams) (*models.EmailAccount, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return nil, fmt.Errorf("email account requires an address")
	}
	if params.Provider != models.ProviderGmail && params.Provider != models.ProviderZoho {
		return nil, fmt.Errorf("unsupported mailbox provider %q", params.Provider)
	}

	now := s.now()
	var expiry *time.Time
	if !params.TokenExpiry.IsZero() {
		expiry = &params.TokenExpiry
	}

	account, err := scanEmailAccount(s.db.QueryRowContext(ctx, queryUpsertEmailAccount,
		uuid.New().String(), params.Provider, email, params.AccessToken, params.RefreshToken,
		nullTime(expiry), params.ProviderAccountId, params.ScanForBills, now, now))
	if err != nil {
		return nil, fmt.Errorf("unable to upsert email account: %w", err)
	}

	zap.L().Info("Email account stored",
		zap.String("id", account.Id),
		zap.String("provider", account.Provider),
		zap.String("email", account.Email))
	return account, nil
}

// UpdateEmailAccountTokens persists a refreshed token. An empty refresh token keeps the stored one.
func (s *Service) UpdateEmailAccountTokens(ctx context.Context, accountId, accessToken, refreshToken string, expiry time.Time) error {
	result, err := s.db.ExecContext(ctx, queryUpdateEmailAccountTokens,
		accessToken, refreshToken, refreshToken, nullTime(&expiry), s.now(), accountId)
	if err != nil {
		return fmt.Errorf("unable to update tokens: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("email account %s: %w", accountId, store.ErrNotFound)
	}

	zap.L().Debug("Persisted refreshed mailbox token",
		zap.String("account_id", accountId),
		zap.Time("expiry", expiry))
	return nil
}

func scanEmailAccount(row rowScanner) (*models.EmailAccount, error) {
	var a models.EmailAccount
	err := row.Scan(&a.Id, &a.Provider, &a.Email, &a.AccessToken, &a.RefreshToken, &a.TokenExpiry,
		&a.ProviderAccountId, &a.IsActive, &a.ScanForBills, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// IsEmailProcessed reports whether a provider message id already has a marker
func (s *Service) IsEmailProcessed(ctx context.Context, emailId string) (bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, queryCheckProcessedEmail, emailId).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check processed email: %w", err)
}

// MarkEmailProcessed inserts the idempotency marker. It returns false when the
// message was already marked.
func (s *Service) MarkEmailProcessed(ctx context.Context, params store.ProcessedEmailParams) (bool, error) {
	if params.EmailId == "" {
		return false, fmt.Errorf("processed email requires an email id")
	}

	result, err := s.db.ExecContext(ctx, queryInsertProcessedEmail,
		uuid.New().String(), params.EmailId, params.Vendor, params.Outcome, params.EmailAccountId, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to mark email processed: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		zap.L().Debug("Email already marked processed", zap.String("email_id", params.EmailId))
		return false, nil
	}
	return true, nil
}

// CreateProposedBill stores a candidate bill. It returns false when a proposal
// for the same email already exists.
func (s *Service) CreateProposedBill(ctx context.Context, params store.ProposedBillParams) (bool, error) {
	if params.EmailId == "" {
		return false, fmt.Errorf("proposed bill requires an email id")
	}

	result, err := s.db.ExecContext(ctx, queryInsertProposedBill,
		uuid.New().String(), params.EmailId, params.EmailAccountId, params.Vendor, params.VendorType,
		nullDecimal(params.Amount), nullTime(params.DueDate), nullDecimal(params.Balance),
		params.AccountType, params.Subject, params.Snippet, models.StatusPending, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to insert proposed bill: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		zap.L().Info("Proposed bill already exists for email, skipping",
			zap.String("email_id", params.EmailId),
			zap.String("vendor", params.Vendor))
		return false, nil
	}

	zap.L().Info("Proposed bill created",
		zap.String("email_id", params.EmailId),
		zap.String("vendor", params.Vendor),
		zap.String("vendor_type", params.VendorType))
	return true, nil
}

// GetProposedBills lists proposals with the given status
func (s *Service) GetProposedBills(ctx context.Context, status string) ([]models.ProposedBill, error) {
	rows, err := s.db.QueryContext(ctx, queryGetProposedBills, status)
	if err != nil {
		return nil, fmt.Errorf("unable to query proposed bills: %w", err)
	}
	defer closeRows(rows)

	var bills []models.ProposedBill
	for rows.Next() {
		var b models.ProposedBill
		err := rows.Scan(&b.Id, &b.EmailId, &b.EmailAccountId, &b.Vendor, &b.VendorType, &b.Amount,
			&b.DueDate, &b.Balance, &b.AccountType, &b.Subject, &b.Snippet, &b.Status, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("unable to scan proposed bill row: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposed bill rows: %w", err)
	}
	return bills, nil
}
