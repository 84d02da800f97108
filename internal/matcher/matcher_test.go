package matcher

import (
	"database/sql"
	"testing"

	"bill-scan-go/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestMatchRecurringBill_AmountTolerance(t *testing.T) {
	bills := []models.RecurringBill{
		{Id: "rb1", Vendor: "Spectrum", AmountType: models.AmountFixed, FixedAmount: nullDec("100"), IsActive: true},
	}

	tests := []struct {
		name   string
		amount string
		want   bool
	}{
		{"exact", "-100.00", true},
		{"inside five percent", "-104.99", true},
		{"upper edge", "-105.00", true},
		{"outside five percent", "-106.00", false},
		{"below", "-94.00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchRecurringBill(bills, Transaction{Amount: dec(tt.amount), Description: "SPECTRUM INTERNET 800-555"})
			if (got != nil) != tt.want {
				t.Errorf("MatchRecurringBill(%s) matched=%v, want %v", tt.amount, got != nil, tt.want)
			}
		})
	}
}

func TestMatchRecurringBill_TextOverlap(t *testing.T) {
	bills := []models.RecurringBill{
		{Id: "variable", Vendor: "Duke Energy", AmountType: models.AmountVariable, IsActive: true},
		{Id: "inactive", Vendor: "Duke Energy", FixedAmount: nullDec("50"), IsActive: false},
		{Id: "duke", Vendor: "Duke Energy", FixedAmount: nullDec("50"), IsActive: true},
		{Id: "duke-2", Vendor: "Duke Energy Progress", FixedAmount: nullDec("50"), IsActive: true},
	}

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"description contains vendor", "PAYMENT TO DUKE ENERGY CORP", "duke"},
		{"hyphenated first word", "DUKE-PMT 12345", ""},
		{"first word overlap", "duke web pay", "duke"},
		{"no overlap", "AMAZON MKTPLACE", ""},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchRecurringBill(bills, Transaction{Amount: dec("-50"), Description: tt.description})
			gotId := ""
			if got != nil {
				gotId = got.Id
			}
			if gotId != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, gotId)
			}
		})
	}
}

func TestMatchSkipRule_NetflixVendorAmount(t *testing.T) {
	rules := []models.SkipRule{
		{Id: "netflix", RuleType: models.RuleVendorAmount, VendorPattern: "netflix", Amount: nullDec("15.49"), AmountVariance: nullDec("5"), IsActive: true},
	}

	got := MatchSkipRule(rules, Transaction{Amount: dec("-15.49"), Description: "NETFLIX.COM"})
	if got == nil || got.Id != "netflix" {
		t.Fatalf("Expected netflix rule to match, got %+v", got)
	}

	if MatchSkipRule(rules, Transaction{Amount: dec("-22.99"), Description: "NETFLIX.COM"}) != nil {
		t.Errorf("Expected a different amount to escape the rule")
	}
}

func TestMatchSkipRule_Kinds(t *testing.T) {
	tests := []struct {
		name string
		rule models.SkipRule
		txn  Transaction
		want bool
	}{
		{
			name: "vendor any amount",
			rule: models.SkipRule{RuleType: models.RuleVendor, VendorPattern: "Uber"},
			txn:  Transaction{Amount: dec("-73.20"), Description: "UBER *TRIP"},
			want: true,
		},
		{
			name: "range checked before target",
			rule: models.SkipRule{RuleType: models.RuleVendorAmount, VendorPattern: "aws", Amount: nullDec("1"), AmountMin: nullDec("10"), AmountMax: nullDec("20")},
			txn:  Transaction{Amount: dec("-15"), Description: "AWS EMEA"},
			want: true,
		},
		{
			name: "outside range",
			rule: models.SkipRule{RuleType: models.RuleVendorAmount, VendorPattern: "aws", AmountMin: nullDec("10"), AmountMax: nullDec("20")},
			txn:  Transaction{Amount: dec("-25"), Description: "AWS EMEA"},
			want: false,
		},
		{
			name: "default variance",
			rule: models.SkipRule{RuleType: models.RuleVendorAmount, VendorPattern: "gym", Amount: nullDec("40")},
			txn:  Transaction{Amount: dec("-41.50"), Description: "GYM MEMBERSHIP"},
			want: true,
		},
		{
			name: "no amount constraint",
			rule: models.SkipRule{RuleType: models.RuleVendorAmount, VendorPattern: "gym"},
			txn:  Transaction{Amount: dec("-41.50"), Description: "GYM MEMBERSHIP"},
			want: false,
		},
		{
			name: "description pattern",
			rule: models.SkipRule{RuleType: models.RuleDescriptionPattern, DescriptionPattern: "online transfer"},
			txn:  Transaction{Amount: dec("500"), Description: "Online Transfer from SAV 1234"},
			want: true,
		},
		{
			name: "income filter rejects expense",
			rule: models.SkipRule{RuleType: models.RuleDescriptionPattern, DescriptionPattern: "transfer", TransactionType: nullStr(models.TxTypeIncome)},
			txn:  Transaction{Amount: dec("-500"), Description: "TRANSFER OUT"},
			want: false,
		},
		{
			name: "expense filter accepts expense",
			rule: models.SkipRule{RuleType: models.RuleDescriptionPattern, DescriptionPattern: "transfer", TransactionType: nullStr(models.TxTypeExpense)},
			txn:  Transaction{Amount: dec("-500"), Description: "TRANSFER OUT"},
			want: true,
		},
		{
			name: "other account",
			rule: models.SkipRule{RuleType: models.RuleVendor, VendorPattern: "uber", FinancialAccountId: nullStr("acct-2")},
			txn:  Transaction{FinancialAccountId: "acct-1", Amount: dec("-10"), Description: "UBER"},
			want: false,
		},
		{
			name: "same account",
			rule: models.SkipRule{RuleType: models.RuleVendor, VendorPattern: "uber", FinancialAccountId: nullStr("acct-1")},
			txn:  Transaction{FinancialAccountId: "acct-1", Amount: dec("-10"), Description: "UBER"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rule.IsActive = true
			got := MatchSkipRule([]models.SkipRule{tt.rule}, tt.txn)
			if (got != nil) != tt.want {
				t.Errorf("matched=%v, want %v", got != nil, tt.want)
			}
		})
	}
}

func TestMatchSkipRule_FirstMatchWins(t *testing.T) {
	rules := []models.SkipRule{
		{Id: "first", RuleType: models.RuleDescriptionPattern, DescriptionPattern: "amazon", IsActive: true},
		{Id: "second", RuleType: models.RuleVendor, VendorPattern: "amazon", IsActive: true},
	}
	got := MatchSkipRule(rules, Transaction{Amount: dec("-12"), Description: "AMAZON MKTPLACE"})
	if got == nil || got.Id != "first" {
		t.Errorf("Expected first rule, got %+v", got)
	}
}
