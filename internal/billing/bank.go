package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bill-scan-go/internal/financial"
	"bill-scan-go/internal/ledger"
	"bill-scan-go/internal/matcher"
	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"go.uber.org/zap"
)

// bankRun carries the rule tables loaded once per sync
type bankRun struct {
	report    *models.ScanReport
	rules     []models.SkipRule
	recurring []models.RecurringBill
}

func (r *bankRun) fail(institution string, err error) {
	r.report.Transactions.Errors = append(r.report.Transactions.Errors, fmt.Sprintf("%s: %v", institution, err))
}

func (s *Service) syncBank(ctx context.Context, report *models.ScanReport) {
	if s.provider == nil {
		zap.L().Info("STRIPE_SECRET_KEY not set, skipping bank sync")
		return
	}

	run := &bankRun{report: report}
	accounts, err := s.store.GetActiveFinancialAccounts(ctx)
	if err != nil {
		zap.L().Error("Failed to load financial accounts", zap.Error(err))
		run.fail("accounts", err)
		return
	}
	if run.rules, err = s.store.GetActiveSkipRules(ctx); err != nil {
		zap.L().Error("Failed to load skip rules", zap.Error(err))
		run.fail("skip rules", err)
		return
	}
	if run.recurring, err = s.store.GetActiveRecurringBills(ctx); err != nil {
		zap.L().Error("Failed to load recurring bills", zap.Error(err))
		run.fail("recurring bills", err)
		return
	}

	for _, account := range accounts {
		if err := s.syncAccount(ctx, run, account); err != nil {
			zap.L().Error("Failed to sync financial account",
				zap.String("institution", account.InstitutionName),
				zap.String("account_id", account.Id),
				zap.Error(err))
			run.fail(account.InstitutionName, err)
		}
	}
}

// syncAccount pages through an account's transactions in cursor order. Only
// a failed page load aborts the account; a failing transaction is recorded
// and the page continues.
func (s *Service) syncAccount(ctx context.Context, run *bankRun, account models.FinancialAccount) error {
	features := []string{financial.FeatureTransactions}
	if err := s.provider.Subscribe(ctx, account.ProviderAccountId, features); err != nil {
		zap.L().Warn("Subscribe failed, continuing",
			zap.String("institution", account.InstitutionName), zap.Error(err))
	}
	if err := s.provider.Refresh(ctx, account.ProviderAccountId, features); err != nil {
		zap.L().Warn("Refresh failed, continuing",
			zap.String("institution", account.InstitutionName), zap.Error(err))
	}

	err := financial.EachPage(ctx, s.provider, account.ProviderAccountId, func(page *financial.Page) error {
		for _, txn := range page.Transactions {
			if err := s.handleTransaction(ctx, run, account, txn); err != nil {
				zap.L().Error("Failed to process transaction",
					zap.String("institution", account.InstitutionName),
					zap.String("stripe_transaction_id", txn.Id),
					zap.Error(err))
				run.fail(account.InstitutionName, fmt.Errorf("%s: %w", txn.Id, err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.store.UpdateFinancialAccountSyncTime(ctx, account.Id, s.now())
}

func (s *Service) handleTransaction(ctx context.Context, run *bankRun, account models.FinancialAccount, txn financial.Transaction) error {
	exists, err := s.store.TransactionExists(ctx, txn.Id)
	if err != nil {
		return err
	}
	if exists {
		run.report.Transactions.Duplicates++
		return nil
	}

	params := store.BankTransactionParams{
		ProviderTransactionId: txn.Id,
		FinancialAccountId:    account.Id,
		Amount:                txn.Amount,
		Description:           txn.Description,
		Status:                txn.Status,
		TransactedAt:          txn.TransactedAt,
	}
	candidate := matcher.Transaction{
		FinancialAccountId: account.Id,
		Amount:             txn.Amount,
		Description:        txn.Description,
	}

	if rule := matcher.MatchSkipRule(run.rules, candidate); rule != nil {
		params.ApprovalStatus = models.ApprovalSkipped
		params.SkipRuleId = rule.Id
		params.DisplayName = rule.DisplayName.String
		_, created, err := s.store.InsertBankTransaction(ctx, params)
		if err != nil {
			return err
		}
		if !created {
			run.report.Transactions.Duplicates++
			return nil
		}
		run.report.Transactions.Synced++
		run.report.Transactions.Skipped++
		zap.L().Debug("Transaction skipped by rule",
			zap.String("stripe_transaction_id", txn.Id),
			zap.String("skip_rule_id", rule.Id))
		return s.store.IncrementSkipRuleCount(ctx, rule.Id)
	}

	bill := matcher.MatchRecurringBill(run.recurring, candidate)
	if bill != nil {
		confidence := int64(models.MatchConfidence)
		params.MatchedRecurringBillId = bill.Id
		params.MatchConfidence = &confidence
	}

	stored, created, err := s.store.InsertBankTransaction(ctx, params)
	if err != nil {
		return err
	}
	if !created {
		run.report.Transactions.Duplicates++
		return nil
	}
	run.report.Transactions.Synced++

	if bill == nil || !bill.AutoApprove {
		return nil
	}
	return s.autoApprove(ctx, run, account, stored, bill)
}

// autoApprove settles the matched bill, split among the team members who
// share expenses, then journals the payment. The period is that of the due
// date NextDueDate picks for the payment date, the same key the fixed-bill
// generator uses.
func (s *Service) autoApprove(ctx context.Context, run *bankRun, account models.FinancialAccount, txn *models.BankTransaction, bill *models.RecurringBill) error {
	splitters, err := s.store.GetBillSplitters(ctx)
	if err != nil {
		return fmt.Errorf("load bill splitters: %w", err)
	}

	paidAt := txn.TransactedAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	amount := txn.Amount.Abs().Round(2)
	splits := EvenSplits(amount, splitters)

	// the payment belongs to the occurrence the generator would file it under
	period := Period(paidAt)
	var due *time.Time
	if bill.DueDay > 0 {
		d := NextDueDate(paidAt, bill.DueDay)
		due = &d
		period = Period(d)
	}

	instance, created, err := s.store.SettleTransaction(ctx, store.SettlementParams{
		TransactionId:         txn.Id,
		ProviderTransactionId: txn.ProviderTransactionId,
		RecurringBillId:       bill.Id,
		Vendor:                bill.Vendor,
		VendorType:            bill.VendorType,
		Amount:                amount,
		DueDate:               due,
		Period:                period,
		PaymentMethod:         "Bank: " + account.InstitutionName,
		PaidAt:                paidAt,
		Splits:                splits,
	})
	if errors.Is(err, store.ErrDuplicate) {
		zap.L().Info("Bill already settled for period, leaving transaction matched",
			zap.String("stripe_transaction_id", txn.ProviderTransactionId),
			zap.String("recurring_bill_id", bill.Id),
			zap.String("period", period))
		return nil
	}
	if err != nil {
		return fmt.Errorf("settle: %w", err)
	}
	run.report.Transactions.AutoMatched++

	zap.L().Info("Transaction auto-approved",
		zap.String("stripe_transaction_id", txn.ProviderTransactionId),
		zap.String("recurring_bill_id", bill.Id),
		zap.String("bill_instance_id", instance.Id),
		zap.Bool("created", created))

	err = s.journal.RecordSettlement(ctx, ledger.Settlement{
		BillInstanceId:        instance.Id,
		ProviderTransactionId: txn.ProviderTransactionId,
		Vendor:                bill.Vendor,
		Institution:           account.InstitutionName,
		Period:                period,
		Amount:                amount,
		PaidAt:                paidAt,
		Splits:                len(splits),
	})
	if err != nil {
		zap.L().Warn("Failed to journal settlement", zap.String("bill_instance_id", instance.Id), zap.Error(err))
		run.fail(account.InstitutionName, fmt.Errorf("ledger: %w", err))
	}
	return nil
}
