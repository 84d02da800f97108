package matcher

import (
	"strings"

	"bill-scan-go/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultVariancePercent applies to amount checks that do not carry their own variance
var DefaultVariancePercent = decimal.NewFromInt(5)

var hundred = decimal.NewFromInt(100)

// Transaction is the part of a bank transaction the matchers look at. Amount
// is signed: positive is income.
type Transaction struct {
	FinancialAccountId string
	Amount             decimal.Decimal
	Description        string
}

// MatchSkipRule returns the first rule, in the given order, that applies to
// the transaction. Rules are not ranked.
func MatchSkipRule(rules []models.SkipRule, txn Transaction) *models.SkipRule {
	description := strings.ToLower(txn.Description)
	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive {
			continue
		}
		if rule.FinancialAccountId.Valid && rule.FinancialAccountId.String != "" &&
			rule.FinancialAccountId.String != txn.FinancialAccountId {
			continue
		}
		if !typeAllows(rule.TransactionType.String, txn.Amount) {
			continue
		}
		if skipRuleApplies(rule, description, txn.Amount) {
			return rule
		}
	}
	return nil
}

func typeAllows(txType string, amount decimal.Decimal) bool {
	switch strings.ToUpper(txType) {
	case models.TxTypeIncome:
		return amount.IsPositive()
	case models.TxTypeExpense:
		return !amount.IsPositive()
	default:
		return true
	}
}

func skipRuleApplies(rule *models.SkipRule, description string, amount decimal.Decimal) bool {
	switch rule.RuleType {
	case models.RuleVendor:
		return containsFold(description, rule.VendorPattern)
	case models.RuleVendorAmount:
		return containsFold(description, rule.VendorPattern) && amountConstraintHolds(rule, amount.Abs())
	case models.RuleDescriptionPattern:
		return containsFold(description, rule.DescriptionPattern)
	default:
		return false
	}
}

// amountConstraintHolds checks an explicit range first, then target ± variance.
// A VENDOR_AMOUNT rule with neither never applies.
func amountConstraintHolds(rule *models.SkipRule, amount decimal.Decimal) bool {
	if rule.AmountMin.Valid || rule.AmountMax.Valid {
		if rule.AmountMin.Valid && amount.LessThan(rule.AmountMin.Decimal) {
			return false
		}
		if rule.AmountMax.Valid && amount.GreaterThan(rule.AmountMax.Decimal) {
			return false
		}
		return true
	}
	if !rule.Amount.Valid {
		return false
	}
	variance := DefaultVariancePercent
	if rule.AmountVariance.Valid {
		variance = rule.AmountVariance.Decimal
	}
	return WithinVariance(rule.Amount.Decimal.Abs(), amount, variance)
}

// WithinVariance reports whether actual lies in target*(1 ± percent/100)
func WithinVariance(target, actual, percent decimal.Decimal) bool {
	delta := target.Mul(percent).Div(hundred).Abs()
	low := target.Sub(delta)
	high := target.Add(delta)
	return !actual.LessThan(low) && !actual.GreaterThan(high)
}

// MatchRecurringBill returns the first bill whose vendor overlaps the
// description and whose fixed amount is within the default variance of the
// transaction's absolute amount.
func MatchRecurringBill(bills []models.RecurringBill, txn Transaction) *models.RecurringBill {
	description := strings.ToLower(strings.TrimSpace(txn.Description))
	if description == "" {
		return nil
	}
	firstWord := strings.Fields(description)[0]
	amount := txn.Amount.Abs()

	for i := range bills {
		bill := &bills[i]
		if !bill.IsActive || !bill.FixedAmount.Valid {
			continue
		}
		vendor := strings.ToLower(strings.TrimSpace(bill.Vendor))
		if vendor == "" {
			continue
		}
		if !strings.Contains(description, vendor) && !strings.Contains(vendor, firstWord) {
			continue
		}
		if WithinVariance(bill.FixedAmount.Decimal.Abs(), amount, DefaultVariancePercent) {
			return bill
		}
	}
	return nil
}

func containsFold(lowerHaystack, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	return needle != "" && strings.Contains(lowerHaystack, needle)
}
