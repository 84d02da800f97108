package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetFinancialAccounts(ctx context.Context) ([]models.FinancialAccount, error) {
	return s.queryFinancialAccounts(ctx, queryGetFinancialAccounts)
}

// GetActiveFinancialAccounts returns accounts eligible for transaction sync
func (s *Service) GetActiveFinancialAccounts(ctx context.Context) ([]models.FinancialAccount, error) {
	return s.queryFinancialAccounts(ctx, queryGetActiveFinancialAccounts)
}

func (s *Service) queryFinancialAccounts(ctx context.Context, query string) ([]models.FinancialAccount, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("unable to query financial accounts: %w", err)
	}
	defer closeRows(rows)

	var accounts []models.FinancialAccount
	for rows.Next() {
		account, err := scanFinancialAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan financial account row: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating financial account rows: %w", err)
	}
	return accounts, nil
}

func (s *Service) UpsertFinancialAccount(ctx context.Context, params store.FinancialAccountParams) (*models.FinancialAccount, error) {
	if strings.TrimSpace(params.ProviderAccountId) == "" {
		return nil, fmt.Errorf("financial account requires a provider account id")
	}
	if params.Status == "" {
		params.Status = "ACTIVE"
	}

	account, err := scanFinancialAccount(s.db.QueryRowContext(ctx, queryUpsertFinancialAccount,
		uuid.New().String(), params.ProviderAccountId, params.InstitutionName, params.DisplayName,
		params.Last4, strings.ToUpper(params.Status), s.now()))
	if err != nil {
		return nil, fmt.Errorf("unable to upsert financial account: %w", err)
	}

	zap.L().Info("Financial account stored",
		zap.String("id", account.Id),
		zap.String("provider_account_id", account.ProviderAccountId),
		zap.String("institution", account.InstitutionName),
		zap.String("status", account.Status))
	return account, nil
}

func (s *Service) UpdateFinancialAccountSyncTime(ctx context.Context, accountId string, syncedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, queryUpdateFinancialAccountSync, syncedAt.UTC(), accountId)
	if err != nil {
		return fmt.Errorf("unable to update sync time: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("financial account %s: %w", accountId, store.ErrNotFound)
	}
	return nil
}

func scanFinancialAccount(row rowScanner) (*models.FinancialAccount, error) {
	var a models.FinancialAccount
	err := row.Scan(&a.Id, &a.ProviderAccountId, &a.InstitutionName, &a.DisplayName, &a.Last4, &a.Status,
		&a.LastSyncAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
