package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Mailbox providers
const (
	ProviderGmail = "GMAIL"
	ProviderZoho  = "ZOHO"
)

// Vendor types assigned by the parser and carried on recurring bills
const (
	VendorUtility    = "UTILITY"
	VendorCreditCard = "CREDIT_CARD"
	VendorTrash      = "TRASH"
	VendorWater      = "WATER"
	VendorBank       = "BANK"
	VendorOther      = "OTHER"
)

// Amount modes for recurring bills
const (
	AmountFixed    = "FIXED"
	AmountVariable = "VARIABLE"
)

// Bill instance and split statuses
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
)

// Approval statuses for bank transactions. An empty value means unreviewed.
const (
	ApprovalSkipped  = "SKIPPED"
	ApprovalApproved = "APPROVED"
)

// Skip rule kinds
const (
	RuleVendor             = "VENDOR"
	RuleVendorAmount       = "VENDOR_AMOUNT"
	RuleDescriptionPattern = "DESCRIPTION_PATTERN"
)

// Transaction type filters for skip rules
const (
	TxTypeIncome  = "INCOME"
	TxTypeExpense = "EXPENSE"
)

// Processed email outcomes
const (
	OutcomeProposed  = "proposed"
	OutcomeBill      = "bill"
	OutcomeBalance   = "balance"
	OutcomePayment   = "payment"
	OutcomeDuplicate = "duplicate"
	OutcomeNotBill   = "not_bill"
)

// MatchConfidence is reported for every recurring bill match.
const MatchConfidence = 80

// TeamMember is a person who may share bill expenses
type TeamMember struct {
	Id             string    `db:"id"`
	Name           string    `db:"name"`
	Email          string    `db:"email"`
	IsFounder      bool      `db:"is_founder"`
	SplitsExpenses bool      `db:"splits_expenses"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// EmailAccount is a connected mailbox
type EmailAccount struct {
	Id                string       `db:"id"`
	Provider          string       `db:"provider"`
	Email             string       `db:"email"`
	AccessToken       string       `db:"access_token"`
	RefreshToken      string       `db:"refresh_token"`
	TokenExpiry       sql.NullTime `db:"token_expiry"`
	ProviderAccountId string       `db:"provider_account_id"`
	IsActive          bool         `db:"is_active"`
	ScanForBills      bool         `db:"scan_for_bills"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at"`
}

// ProcessedEmail marks a provider message id as examined
type ProcessedEmail struct {
	Id             string    `db:"id"`
	EmailId        string    `db:"email_id"`
	Vendor         string    `db:"vendor"`
	Outcome        string    `db:"outcome"`
	EmailAccountId string    `db:"email_account_id"`
	ProcessedAt    time.Time `db:"processed_at"`
}

// ProposedBill is a parsed candidate bill awaiting human approval
type ProposedBill struct {
	Id             string              `db:"id"`
	EmailId        string              `db:"email_id"`
	EmailAccountId string              `db:"email_account_id"`
	Vendor         string              `db:"vendor"`
	VendorType     string              `db:"vendor_type"`
	Amount         decimal.NullDecimal `db:"amount"`
	DueDate        sql.NullTime        `db:"due_date"`
	Balance        decimal.NullDecimal `db:"balance"`
	AccountType    string              `db:"account_type"`
	Subject        string              `db:"subject"`
	Snippet        string              `db:"snippet"`
	Status         string              `db:"status"`
	CreatedAt      time.Time           `db:"created_at"`
}

// RecurringBill describes an expected periodic obligation
type RecurringBill struct {
	Id          string              `db:"id"`
	Name        string              `db:"name"`
	Vendor      string              `db:"vendor"`
	VendorType  string              `db:"vendor_type"`
	AmountType  string              `db:"amount_type"`
	FixedAmount decimal.NullDecimal `db:"fixed_amount"`
	DueDay      int                 `db:"due_day"`
	IsActive    bool                `db:"is_active"`
	AutoApprove bool                `db:"auto_approve"`
	CreatedAt   time.Time           `db:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at"`
}

// BillInstance is one dated occurrence of a bill for a period ("YYYY-MM")
type BillInstance struct {
	Id                  string          `db:"id"`
	RecurringBillId     sql.NullString  `db:"recurring_bill_id"`
	Vendor              string          `db:"vendor"`
	VendorType          string          `db:"vendor_type"`
	Amount              decimal.Decimal `db:"amount"`
	DueDate             sql.NullTime    `db:"due_date"`
	Period              string          `db:"period"`
	Status              string          `db:"status"`
	IsPaid              bool            `db:"is_paid"`
	PaidDate            sql.NullTime    `db:"paid_date"`
	PaymentMethod       string          `db:"payment_method"`
	StripeTransactionId sql.NullString  `db:"stripe_transaction_id"`
	EmailId             sql.NullString  `db:"email_id"`
	CreatedAt           time.Time       `db:"created_at"`
}

// BillSplit is one person's share of a bill instance. TeamMemberId is empty for
// the implicit single payer used when nobody is configured to split.
type BillSplit struct {
	Id             string          `db:"id"`
	BillInstanceId string          `db:"bill_instance_id"`
	TeamMemberId   sql.NullString  `db:"team_member_id"`
	Amount         decimal.Decimal `db:"amount"`
	Status         string          `db:"status"`
	PaidAt         sql.NullTime    `db:"paid_at"`
	CreatedAt      time.Time       `db:"created_at"`
}

// FinancialAccount is a linked bank or card account at the financial-data provider
type FinancialAccount struct {
	Id                string       `db:"id"`
	ProviderAccountId string       `db:"provider_account_id"`
	InstitutionName   string       `db:"institution_name"`
	DisplayName       string       `db:"display_name"`
	Last4             string       `db:"last4"`
	Status            string       `db:"status"`
	LastSyncAt        sql.NullTime `db:"last_sync_at"`
	CreatedAt         time.Time    `db:"created_at"`
}

// BankTransaction is a ledger line pulled from the provider. Amount is signed:
// positive is income, negative is expense.
type BankTransaction struct {
	Id                     string          `db:"id"`
	ProviderTransactionId  string          `db:"stripe_transaction_id"`
	FinancialAccountId     string          `db:"financial_account_id"`
	Amount                 decimal.Decimal `db:"amount"`
	Description            string          `db:"description"`
	DisplayName            sql.NullString  `db:"display_name"`
	Status                 string          `db:"status"`
	TransactedAt           time.Time       `db:"transacted_at"`
	ApprovalStatus         sql.NullString  `db:"approval_status"`
	ApprovedAt             sql.NullTime    `db:"approved_at"`
	SkipRuleId             sql.NullString  `db:"skip_rule_id"`
	MatchedRecurringBillId sql.NullString  `db:"matched_recurring_bill_id"`
	MatchConfidence        sql.NullInt64   `db:"match_confidence"`
	BillInstanceId         sql.NullString  `db:"bill_instance_id"`
	CreatedAt              time.Time       `db:"created_at"`
}

// SkipRule suppresses known non-bill transactions from matching
type SkipRule struct {
	Id                 string              `db:"id"`
	RuleType           string              `db:"rule_type"`
	VendorPattern      string              `db:"vendor_pattern"`
	DescriptionPattern string              `db:"description_pattern"`
	Amount             decimal.NullDecimal `db:"amount"`
	AmountMin          decimal.NullDecimal `db:"amount_min"`
	AmountMax          decimal.NullDecimal `db:"amount_max"`
	AmountVariance     decimal.NullDecimal `db:"amount_variance"`
	FinancialAccountId sql.NullString      `db:"financial_account_id"`
	TransactionType    sql.NullString      `db:"transaction_type"`
	DisplayName        sql.NullString      `db:"display_name"`
	SkipCount          int64               `db:"skip_count"`
	IsActive           bool                `db:"is_active"`
	SortOrder          int                 `db:"sort_order"`
	CreatedAt          time.Time           `db:"created_at"`
}
