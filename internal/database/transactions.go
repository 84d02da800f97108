package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) TransactionExists(ctx context.Context, providerTransactionId string) (bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, queryCheckTransaction, providerTransactionId).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check for existing transaction: %w", err)
	}
	return true, nil
}

// InsertBankTransaction stores a provider transaction once. A second insert of
// the same provider id returns inserted=false and no row.
func (s *Service) InsertBankTransaction(ctx context.Context, params store.BankTransactionParams) (*models.BankTransaction, bool, error) {
	if params.ProviderTransactionId == "" {
		return nil, false, fmt.Errorf("bank transaction requires a provider id")
	}

	var confidence sql.NullInt64
	if params.MatchConfidence != nil {
		confidence = sql.NullInt64{Int64: *params.MatchConfidence, Valid: true}
	}

	txn, err := scanBankTransaction(s.db.QueryRowContext(ctx, queryInsertBankTransaction,
		uuid.New().String(), params.ProviderTransactionId, params.FinancialAccountId, params.Amount,
		params.Description, nullString(params.DisplayName), params.Status, params.TransactedAt.UTC(),
		nullString(params.ApprovalStatus), nullString(params.SkipRuleId),
		nullString(params.MatchedRecurringBillId), confidence, s.now()))
	if errors.Is(err, sql.ErrNoRows) {
		zap.L().Debug("Duplicate bank transaction, skipping",
			zap.String("provider_transaction_id", params.ProviderTransactionId))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert bank transaction: %w", err)
	}
	return txn, true, nil
}

func (s *Service) GetBankTransaction(ctx context.Context, providerTransactionId string) (*models.BankTransaction, error) {
	txn, err := scanBankTransaction(s.db.QueryRowContext(ctx, queryGetBankTransaction, providerTransactionId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bank transaction %s: %w", providerTransactionId, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query bank transaction: %w", err)
	}
	return txn, nil
}

// SettleTransaction pays a recurring bill from a matched bank transaction. The
// period's instance is reused when it exists, otherwise created with its splits.
// The transaction is then linked and approved. Everything happens in one
// database transaction, so a failure leaves no partial state.
func (s *Service) SettleTransaction(ctx context.Context, params store.SettlementParams) (*models.BillInstance, bool, error) {
	if params.TransactionId == "" || params.Period == "" {
		return nil, false, fmt.Errorf("settlement requires a transaction id and period")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	paidAt := params.PaidAt.UTC()
	created := false

	var instance *models.BillInstance
	if params.RecurringBillId != "" {
		instance, err = scanBillInstance(tx.QueryRowContext(ctx, queryGetBillInstanceForPeriod, params.RecurringBillId, params.Period))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("failed to look up bill instance: %w", err)
		}
	}

	if instance != nil {
		if instance.IsPaid && instance.StripeTransactionId.Valid {
			return nil, false, fmt.Errorf("bill instance %s already settled by %s: %w",
				instance.Id, instance.StripeTransactionId.String, store.ErrDuplicate)
		}
		if _, err := tx.ExecContext(ctx, querySettleBillInstance, paidAt, params.PaymentMethod,
			nullString(params.ProviderTransactionId), instance.Id); err != nil {
			return nil, false, fmt.Errorf("failed to settle bill instance: %w", err)
		}

		var splitCount int
		if err := tx.QueryRowContext(ctx, queryCountBillSplits, instance.Id).Scan(&splitCount); err != nil {
			return nil, false, fmt.Errorf("failed to count bill splits: %w", err)
		}
		if splitCount == 0 {
			if err := insertSplits(ctx, tx, s.now(), instance.Id, models.StatusPaid, &paidAt, params.Splits); err != nil {
				return nil, false, err
			}
		} else if _, err := tx.ExecContext(ctx, queryMarkBillSplitsPaid, paidAt, instance.Id); err != nil {
			return nil, false, fmt.Errorf("failed to mark splits paid: %w", err)
		}

		instance, err = scanBillInstance(tx.QueryRowContext(ctx, queryGetBillInstanceForPeriod, params.RecurringBillId, params.Period))
		if err != nil {
			return nil, false, fmt.Errorf("failed to reload bill instance: %w", err)
		}
	} else {
		instance, err = insertBillInstance(ctx, tx, s.now(), store.BillInstanceParams{
			RecurringBillId: params.RecurringBillId,
			Vendor:          params.Vendor,
			VendorType:      params.VendorType,
			Amount:          params.Amount,
			DueDate:         params.DueDate,
			Period:          params.Period,
			Status:          models.StatusPaid,
			PaidDate:        &paidAt,
			PaymentMethod:   params.PaymentMethod,
		}, params.ProviderTransactionId)
		if err != nil {
			return nil, false, fmt.Errorf("failed to insert bill instance: %w", err)
		}
		if err := insertSplits(ctx, tx, s.now(), instance.Id, models.StatusPaid, &paidAt, params.Splits); err != nil {
			return nil, false, err
		}
		created = true
	}

	result, err := tx.ExecContext(ctx, queryApproveBankTransaction, s.now(), instance.Id, params.TransactionId)
	if err != nil {
		return nil, false, fmt.Errorf("failed to approve bank transaction: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, false, fmt.Errorf("bank transaction %s already linked: %w", params.TransactionId, store.ErrDuplicate)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Transaction settled",
		zap.String("transaction_id", params.TransactionId),
		zap.String("bill_instance_id", instance.Id),
		zap.String("vendor", instance.Vendor),
		zap.String("period", instance.Period),
		zap.String("amount", params.Amount.String()),
		zap.Bool("created", created))
	return instance, created, nil
}

func scanBankTransaction(row rowScanner) (*models.BankTransaction, error) {
	var t models.BankTransaction
	err := row.Scan(&t.Id, &t.ProviderTransactionId, &t.FinancialAccountId, &t.Amount, &t.Description,
		&t.DisplayName, &t.Status, &t.TransactedAt, &t.ApprovalStatus, &t.ApprovedAt, &t.SkipRuleId,
		&t.MatchedRecurringBillId, &t.MatchConfidence, &t.BillInstanceId, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
