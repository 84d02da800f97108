package common

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"bill-scan-go/internal/database"
	"bill-scan-go/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const seedYAML = `
team:
  - name: Kyle
    email: kyle@47industries.com
    founder: true
    splitsExpenses: true
  - name: Dana
    email: dana@47industries.com
    splitsExpenses: true
financialAccounts:
  - providerAccountId: fca_chase
    institution: Chase
    last4: "4242"
recurringBills:
  - name: Office Internet
    vendor: Spectrum
    vendorType: utility
    amountType: fixed
    fixedAmount: "89.99"
    dueDay: 20
    autoApprove: true
skipRules:
  - ruleType: vendor_amount
    vendorPattern: netflix
    amount: "15.49"
    amountVariance: "5"
    account: fca_chase
    displayName: Netflix (personal)
  - ruleType: DESCRIPTION_PATTERN
    descriptionPattern: TRANSFER TO SAVINGS
    transactionType: expense
emailAccounts:
  - provider: gmail
    email: Ops@47industries.com
    refreshToken: r1
    scanForBills: true
`

func setupTestDb(t *testing.T) *database.Service {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	service := database.NewServiceFromDB(db)
	if err := service.InitSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return service
}

func TestApplySeed_Idempotent(t *testing.T) {
	seed, err := ParseSeedConfig([]byte(seedYAML))
	if err != nil {
		t.Fatalf("ParseSeedConfig failed: %v", err)
	}
	db := setupTestDb(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		summary, err := ApplySeed(ctx, db, seed)
		if err != nil {
			t.Fatalf("ApplySeed run %d failed: %v", i, err)
		}
		if summary.Team != 2 || summary.SkipRules != 2 || summary.EmailAccounts != 1 {
			t.Errorf("Unexpected summary %+v", summary)
		}
	}

	team, _ := db.GetTeamMembers(ctx)
	bills, _ := db.GetActiveRecurringBills(ctx)
	rules, _ := db.GetActiveSkipRules(ctx)
	mailboxes, _ := db.GetScanAccounts(ctx)
	if len(team) != 2 || len(bills) != 1 || len(rules) != 2 || len(mailboxes) != 1 {
		t.Fatalf("Expected no duplicates after re-seeding: team=%d bills=%d rules=%d mailboxes=%d",
			len(team), len(bills), len(rules), len(mailboxes))
	}
	if bills[0].AmountType != models.AmountFixed || !bills[0].FixedAmount.Decimal.Equal(decimal.RequireFromString("89.99")) {
		t.Errorf("Unexpected recurring bill %+v", bills[0])
	}

	accounts, _ := db.GetFinancialAccounts(ctx)
	if rules[0].FinancialAccountId.String != accounts[0].Id || rules[0].RuleType != models.RuleVendorAmount {
		t.Errorf("Expected first rule scoped to the seeded account, got %+v", rules[0])
	}
	if rules[1].TransactionType.String != models.TxTypeExpense {
		t.Errorf("Expected EXPENSE filter, got %q", rules[1].TransactionType.String)
	}
}

func TestParseSeedConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"fixed without amount": "recurringBills:\n  - vendor: X\n    amountType: FIXED\n",
		"bad due day":          "recurringBills:\n  - vendor: X\n    dueDay: 40\n",
		"bad amount":           "skipRules:\n  - ruleType: VENDOR_AMOUNT\n    vendorPattern: x\n    amount: abc\n",
		"team without email":   "team:\n  - name: Kyle\n",
		"not yaml":             "team: [",
	}
	for name, doc := range tests {
		if _, err := ParseSeedConfig([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestApplySeed_UnknownAccount(t *testing.T) {
	seed, err := ParseSeedConfig([]byte("skipRules:\n  - ruleType: VENDOR\n    vendorPattern: x\n    account: fca_missing\n"))
	if err != nil {
		t.Fatalf("ParseSeedConfig failed: %v", err)
	}
	if _, err := ApplySeed(context.Background(), setupTestDb(t), seed); err == nil {
		t.Errorf("Expected error for rule scoped to an unknown account")
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatMoney(decimal.RequireFromString("-15.5")); got != "-$15.50" {
		t.Errorf("FormatMoney = %q", got)
	}
	if got := FormatSyncTime(sql.NullTime{}); got != "never" {
		t.Errorf("FormatSyncTime = %q", got)
	}
	at := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	if got := FormatSyncTime(sql.NullTime{Time: at, Valid: true}); got != "2026-03-10T12:00:00Z" {
		t.Errorf("FormatSyncTime = %q", got)
	}

	report := models.NewScanReport(at, 3, models.ModeLegacy)
	report.Transactions.Errors = append(report.Transactions.Errors, "Chase: boom")
	if out := FormatReport(report); !strings.Contains(out, "mode=legacy") || !strings.Contains(out, "- Chase: boom") {
		t.Errorf("Unexpected report rendering:\n%s", out)
	}
}

func TestNewHTTPClient(t *testing.T) {
	client, err := NewHTTPClient(0)
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	if client.Timeout != 60*time.Second {
		t.Errorf("Expected default timeout, got %v", client.Timeout)
	}
}
