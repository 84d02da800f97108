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

func (s *Service) GetActiveRecurringBills(ctx context.Context) ([]models.RecurringBill, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveRecurringBills)
	if err != nil {
		return nil, fmt.Errorf("unable to query recurring bills: %w", err)
	}
	defer closeRows(rows)

	var bills []models.RecurringBill
	for rows.Next() {
		bill, err := scanRecurringBill(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan recurring bill row: %w", err)
		}
		bills = append(bills, *bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring bill rows: %w", err)
	}
	return bills, nil
}

func (s *Service) UpsertRecurringBill(ctx context.Context, params store.RecurringBillParams) (*models.RecurringBill, error) {
	if strings.TrimSpace(params.Name) == "" || strings.TrimSpace(params.Vendor) == "" {
		return nil, fmt.Errorf("recurring bill requires name and vendor")
	}
	if params.DueDay < 1 || params.DueDay > 31 {
		return nil, fmt.Errorf("recurring bill %q: due day must be 1-31, got %d", params.Name, params.DueDay)
	}
	if params.AmountType == models.AmountFixed && params.FixedAmount == nil {
		return nil, fmt.Errorf("recurring bill %q: fixed bills need an amount", params.Name)
	}

	now := s.now()
	bill, err := scanRecurringBill(s.db.QueryRowContext(ctx, queryUpsertRecurringBill,
		uuid.New().String(), params.Name, params.Vendor, params.VendorType, params.AmountType,
		nullDecimal(params.FixedAmount), params.DueDay, params.AutoApprove, now, now))
	if err != nil {
		return nil, fmt.Errorf("unable to upsert recurring bill: %w", err)
	}

	zap.L().Info("Recurring bill stored",
		zap.String("id", bill.Id),
		zap.String("name", bill.Name),
		zap.String("amount_type", bill.AmountType),
		zap.Bool("auto_approve", bill.AutoApprove))
	return bill, nil
}

func scanRecurringBill(row rowScanner) (*models.RecurringBill, error) {
	var b models.RecurringBill
	err := row.Scan(&b.Id, &b.Name, &b.Vendor, &b.VendorType, &b.AmountType, &b.FixedAmount, &b.DueDay,
		&b.IsActive, &b.AutoApprove, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBillInstance inserts an instance and its splits atomically. When an
// instance already exists for the same (recurring bill, period) or source email,
// the existing row is returned with created=false.
func (s *Service) CreateBillInstance(ctx context.Context, params store.BillInstanceParams) (*models.BillInstance, bool, error) {
	if params.Period == "" {
		return nil, false, fmt.Errorf("bill instance requires a period")
	}
	if params.Status == "" {
		params.Status = models.StatusPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	instance, err := insertBillInstance(ctx, tx, s.now(), params, "")
	if errors.Is(err, sql.ErrNoRows) {
		existing, lookupErr := s.findExistingInstance(ctx, tx, params)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		zap.L().Info("Bill instance already exists, skipping",
			zap.String("recurring_bill_id", params.RecurringBillId),
			zap.String("period", params.Period),
			zap.String("existing_id", existing.Id))
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert bill instance: %w", err)
	}

	if err := insertSplits(ctx, tx, s.now(), instance.Id, params.Status, params.PaidDate, params.Splits); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Bill instance created",
		zap.String("id", instance.Id),
		zap.String("vendor", instance.Vendor),
		zap.String("period", instance.Period),
		zap.String("amount", instance.Amount.String()),
		zap.String("status", instance.Status),
		zap.Int("splits", len(params.Splits)))
	return instance, true, nil
}

func insertBillInstance(ctx context.Context, tx *sql.Tx, now time.Time, params store.BillInstanceParams, transactionId string) (*models.BillInstance, error) {
	isPaid := params.Status == models.StatusPaid
	return scanBillInstance(tx.QueryRowContext(ctx, queryInsertBillInstance,
		uuid.New().String(), nullString(params.RecurringBillId), params.Vendor, params.VendorType,
		params.Amount, nullTime(params.DueDate), params.Period, params.Status, isPaid,
		nullTime(params.PaidDate), params.PaymentMethod, nullString(transactionId),
		nullString(params.EmailId), now))
}

func insertSplits(ctx context.Context, tx *sql.Tx, now time.Time, instanceId, status string, paidAt *time.Time, splits []store.SplitShare) error {
	for _, split := range splits {
		_, err := tx.ExecContext(ctx, queryInsertBillSplit,
			uuid.New().String(), instanceId, nullString(split.TeamMemberId), split.Amount, status,
			nullTime(paidAt), now)
		if err != nil {
			return fmt.Errorf("failed to insert bill split: %w", err)
		}
	}
	return nil
}

func (s *Service) findExistingInstance(ctx context.Context, tx *sql.Tx, params store.BillInstanceParams) (*models.BillInstance, error) {
	if params.RecurringBillId != "" {
		instance, err := scanBillInstance(tx.QueryRowContext(ctx, queryGetBillInstanceForPeriod, params.RecurringBillId, params.Period))
		if err == nil {
			return instance, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to look up bill instance: %w", err)
		}
	}
	if params.EmailId != "" {
		instance, err := scanBillInstance(tx.QueryRowContext(ctx, queryGetBillInstanceByEmail, params.EmailId))
		if err == nil {
			return instance, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to look up bill instance: %w", err)
		}
	}
	return nil, fmt.Errorf("bill instance conflict without a matching row: %w", store.ErrDuplicate)
}

func (s *Service) GetBillInstanceForPeriod(ctx context.Context, recurringBillId, period string) (*models.BillInstance, error) {
	instance, err := scanBillInstance(s.db.QueryRowContext(ctx, queryGetBillInstanceForPeriod, recurringBillId, period))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill instance %s/%s: %w", recurringBillId, period, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query bill instance: %w", err)
	}
	return instance, nil
}

// FindBillInstanceByVendor returns the instance for a vendor and period,
// preferring unpaid ones.
func (s *Service) FindBillInstanceByVendor(ctx context.Context, vendor, period string) (*models.BillInstance, error) {
	instance, err := scanBillInstance(s.db.QueryRowContext(ctx, queryFindBillInstanceByVendor, vendor, period))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill instance for %s/%s: %w", vendor, period, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query bill instance: %w", err)
	}
	return instance, nil
}

// MarkBillInstancePaid moves an instance and its splits to PAID
func (s *Service) MarkBillInstancePaid(ctx context.Context, instanceId, paymentMethod string, paidAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, queryMarkBillInstancePaid, paidAt.UTC(), paymentMethod, instanceId)
	if err != nil {
		return fmt.Errorf("failed to mark bill paid: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("bill instance %s: %w", instanceId, store.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, queryMarkBillSplitsPaid, paidAt.UTC(), instanceId); err != nil {
		return fmt.Errorf("failed to mark splits paid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Bill instance marked paid",
		zap.String("id", instanceId),
		zap.String("payment_method", paymentMethod))
	return nil
}

func (s *Service) GetBillSplits(ctx context.Context, instanceId string) ([]models.BillSplit, error) {
	rows, err := s.db.QueryContext(ctx, queryGetBillSplits, instanceId)
	if err != nil {
		return nil, fmt.Errorf("unable to query bill splits: %w", err)
	}
	defer closeRows(rows)

	var splits []models.BillSplit
	for rows.Next() {
		var sp models.BillSplit
		if err := rows.Scan(&sp.Id, &sp.BillInstanceId, &sp.TeamMemberId, &sp.Amount, &sp.Status, &sp.PaidAt, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan bill split row: %w", err)
		}
		splits = append(splits, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bill split rows: %w", err)
	}
	return splits, nil
}

func scanBillInstance(row rowScanner) (*models.BillInstance, error) {
	var b models.BillInstance
	err := row.Scan(&b.Id, &b.RecurringBillId, &b.Vendor, &b.VendorType, &b.Amount, &b.DueDate, &b.Period,
		&b.Status, &b.IsPaid, &b.PaidDate, &b.PaymentMethod, &b.StripeTransactionId, &b.EmailId, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
