package parser

import (
	"testing"
	"time"

	"bill-scan-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestParse_DukeEnergyBill(t *testing.T) {
	p := New()
	bill := p.Parse(models.EmailMessage{
		Id:      "msg-1",
		From:    "Duke Energy <noreply@duke-energy.com>",
		Subject: "Your bill is ready",
		Body:    "Account ending 1234\nAmount Due: $142.37\nPlease pay on time.\nDue Date: March 15, 2026",
	})
	if bill == nil {
		t.Fatalf("Expected Duke Energy email to be recognised")
	}

	if bill.Kind != KindBill {
		t.Errorf("Expected kind bill, got %s", bill.Kind)
	}
	if bill.Vendor != "Duke Energy" || bill.VendorType != models.VendorUtility {
		t.Errorf("Expected Duke Energy/UTILITY, got %s/%s", bill.Vendor, bill.VendorType)
	}
	if !bill.Amount.OK() || !bill.Amount.Value.Equal(decimal.RequireFromString("142.37")) {
		t.Errorf("Expected amount 142.37, got %v (%s)", bill.Amount.Value, bill.Amount.State)
	}
	want := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !bill.DueDate.OK() || !bill.DueDate.Value.Equal(want) {
		t.Errorf("Expected due date %v, got %v (%s)", want, bill.DueDate.Value, bill.DueDate.State)
	}
	if bill.Outcome() != models.OutcomeBill {
		t.Errorf("Expected outcome bill, got %s", bill.Outcome())
	}
}

func TestParse_Conservative(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		subject string
	}{
		{"bank promo", "Bank of America <onlinebanking@ealerts.bankofamerica.com>", "Welcome Bonus Offer"},
		{"chase marketing", "Chase <no.reply.alerts@chase.com>", "New feature announcement"},
		{"amex marketing", "American Express <americanexpress@welcome.aexp.com>", "Earn 3x points this month"},
		{"unknown sender", "Newsletter <news@example.com>", "Your statement is ready"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill := p.Parse(models.EmailMessage{Id: "x", From: tt.from, Subject: tt.subject, Body: "Balance: $10.00"})
			if bill != nil {
				t.Errorf("Expected nil, got %+v", bill)
			}
		})
	}
}

func TestParse_ChaseStatement(t *testing.T) {
	bill := New().Parse(models.EmailMessage{
		From:    "Chase <no.reply.alerts@chase.com>",
		Subject: "Your credit card statement is available",
		Body:    "New Balance: $1,204.50\nMinimum Payment Due: $35.00\nPayment Due Date: 04/02/2026",
	})
	if bill == nil {
		t.Fatalf("Expected Chase statement to be recognised")
	}
	if bill.VendorType != models.VendorCreditCard {
		t.Errorf("Expected CREDIT_CARD, got %s", bill.VendorType)
	}
	if !bill.Amount.Value.Equal(decimal.RequireFromString("1204.50")) {
		t.Errorf("Expected amount 1204.50 with commas stripped, got %s", bill.Amount.Value)
	}
	want := time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)
	if !bill.DueDate.Value.Equal(want) {
		t.Errorf("Expected due date %v, got %v", want, bill.DueDate.Value)
	}
}

func TestParse_BankBalance(t *testing.T) {
	bill := New().Parse(models.EmailMessage{
		From:    "Bank of America <onlinebanking@ealerts.bankofamerica.com>",
		Subject: "Your Available Balance alert",
		Body:    "Your checking account ending in 9876 has an available balance of $5,120.44",
	})
	if bill == nil {
		t.Fatalf("Expected balance alert to be recognised")
	}
	if bill.Kind != KindBalance || bill.Outcome() != models.OutcomeBalance {
		t.Errorf("Expected balance kind, got %s", bill.Kind)
	}
	if !bill.Balance.OK() || !bill.Balance.Value.Equal(decimal.RequireFromString("5120.44")) {
		t.Errorf("Expected balance 5120.44, got %v (%s)", bill.Balance.Value, bill.Balance.State)
	}
	if bill.AccountType != "checking" {
		t.Errorf("Expected checking, got %q", bill.AccountType)
	}
}

func TestParse_PaymentConfirmationWins(t *testing.T) {
	bill := New().Parse(models.EmailMessage{
		From:    "Republic Services <billing@republicservices.com>",
		Subject: "Thank you for your payment",
		Body:    "We received your payment of $64.12 for your bill.",
	})
	if bill == nil {
		t.Fatalf("Expected payment confirmation to be recognised")
	}
	if bill.Kind != KindPayment {
		t.Errorf("Expected payment kind, got %s", bill.Kind)
	}
	if bill.Vendor != "Republic Services" {
		t.Errorf("Expected Republic Services, got %s", bill.Vendor)
	}
	if !bill.Amount.Value.Equal(decimal.RequireFromString("64.12")) {
		t.Errorf("Expected amount 64.12, got %s", bill.Amount.Value)
	}
}

func TestParse_WaterNeedsContent(t *testing.T) {
	p := New()
	water := p.Parse(models.EmailMessage{
		From:    "City Utilities <noreply@invoicecloud.com>",
		Subject: "New bill available",
		Body:    "Your water bill of $48.90 is due by 05/01/2026",
	})
	if water == nil || water.VendorType != models.VendorWater {
		t.Fatalf("Expected water bill, got %+v", water)
	}

	other := p.Parse(models.EmailMessage{
		From:    "City Utilities <noreply@invoicecloud.com>",
		Subject: "New invoice available",
		Body:    "Your parking permit invoice of $20.00",
	})
	if other != nil {
		t.Errorf("Expected non-water invoice to be ignored, got %+v", other)
	}
}

func TestParse_CustomRuleOrder(t *testing.T) {
	always := Rule{
		Name:  "catch-all",
		Match: func(models.EmailMessage) bool { return true },
		Parse: func(models.EmailMessage) *ParsedBill {
			return &ParsedBill{Kind: KindBill, Vendor: "First", VendorType: models.VendorOther}
		},
	}
	never := Rule{
		Name:  "second",
		Match: func(models.EmailMessage) bool { return true },
		Parse: func(models.EmailMessage) *ParsedBill {
			return &ParsedBill{Kind: KindBill, Vendor: "Second"}
		},
	}

	bill := New(always, never).Parse(models.EmailMessage{})
	if bill == nil || bill.Vendor != "First" || bill.Rule != "catch-all" {
		t.Errorf("Expected first rule to win, got %+v", bill)
	}
}

func TestSenders(t *testing.T) {
	senders := New().Senders()
	want := map[string]bool{"duke-energy.com": false, "chase.com": false, "bankofamerica.com": false}
	for _, s := range senders {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for sender, found := range want {
		if !found {
			t.Errorf("Expected %s in sender allow-list", sender)
		}
	}

	seen := make(map[string]bool)
	for _, s := range senders {
		if seen[s] {
			t.Errorf("Duplicate sender %s", s)
		}
		seen[s] = true
	}
}
