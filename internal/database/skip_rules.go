package database

import (
	"context"
	"fmt"

	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetActiveSkipRules returns rules in evaluation order
func (s *Service) GetActiveSkipRules(ctx context.Context) ([]models.SkipRule, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveSkipRules)
	if err != nil {
		return nil, fmt.Errorf("unable to query skip rules: %w", err)
	}
	defer closeRows(rows)

	var rules []models.SkipRule
	for rows.Next() {
		rule, err := scanSkipRule(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan skip rule row: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating skip rule rows: %w", err)
	}
	return rules, nil
}

func (s *Service) UpsertSkipRule(ctx context.Context, params store.SkipRuleParams) (*models.SkipRule, error) {
	switch params.RuleType {
	case models.RuleVendor, models.RuleVendorAmount:
		if params.VendorPattern == "" {
			return nil, fmt.Errorf("%s rule requires a vendor pattern", params.RuleType)
		}
	case models.RuleDescriptionPattern:
		if params.DescriptionPattern == "" {
			return nil, fmt.Errorf("%s rule requires a description pattern", params.RuleType)
		}
	default:
		return nil, fmt.Errorf("unsupported skip rule type %q", params.RuleType)
	}
	if params.TransactionType != "" && params.TransactionType != models.TxTypeIncome && params.TransactionType != models.TxTypeExpense {
		return nil, fmt.Errorf("unsupported transaction type %q", params.TransactionType)
	}

	rule, err := scanSkipRule(s.db.QueryRowContext(ctx, queryUpsertSkipRule,
		uuid.New().String(), params.RuleType, params.VendorPattern, params.DescriptionPattern,
		nullDecimal(params.Amount), nullDecimal(params.AmountMin), nullDecimal(params.AmountMax),
		nullDecimal(params.AmountVariance), nullString(params.FinancialAccountId),
		nullString(params.TransactionType), nullString(params.DisplayName), params.SortOrder, s.now()))
	if err != nil {
		return nil, fmt.Errorf("unable to upsert skip rule: %w", err)
	}

	zap.L().Info("Skip rule stored",
		zap.String("id", rule.Id),
		zap.String("rule_type", rule.RuleType),
		zap.String("vendor_pattern", rule.VendorPattern),
		zap.String("description_pattern", rule.DescriptionPattern))
	return rule, nil
}

func (s *Service) IncrementSkipRuleCount(ctx context.Context, ruleId string) error {
	result, err := s.db.ExecContext(ctx, queryIncrementSkipRule, ruleId)
	if err != nil {
		return fmt.Errorf("unable to increment skip count: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("skip rule %s: %w", ruleId, store.ErrNotFound)
	}
	return nil
}

func scanSkipRule(row rowScanner) (*models.SkipRule, error) {
	var r models.SkipRule
	err := row.Scan(&r.Id, &r.RuleType, &r.VendorPattern, &r.DescriptionPattern, &r.Amount, &r.AmountMin,
		&r.AmountMax, &r.AmountVariance, &r.FinancialAccountId, &r.TransactionType, &r.DisplayName,
		&r.SkipCount, &r.IsActive, &r.SortOrder, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
