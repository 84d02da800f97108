package store

import (
	"context"
	"errors"
	"time"

	"bill-scan-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrNoEmailAccounts = errors.New("no email accounts configured")
)

// TeamMemberParams contains the parameters for creating or updating a team member.
type TeamMemberParams struct {
	Name           string
	Email          string
	IsFounder      bool
	SplitsExpenses bool
}

// EmailAccountParams contains the parameters for connecting a mailbox.
type EmailAccountParams struct {
	Provider          string
	Email             string
	AccessToken       string
	RefreshToken      string
	TokenExpiry       time.Time
	ProviderAccountId string
	ScanForBills      bool
}

// ProcessedEmailParams records that a provider message id has been examined.
type ProcessedEmailParams struct {
	EmailId        string
	Vendor         string
	Outcome        string
	EmailAccountId string
}

// ProposedBillParams captures a parsed candidate bill. Nil pointers mean the
// field could not be extracted.
type ProposedBillParams struct {
	EmailId        string
	EmailAccountId string
	Vendor         string
	VendorType     string
	Amount         *decimal.Decimal
	DueDate        *time.Time
	Balance        *decimal.Decimal
	AccountType    string
	Subject        string
	Snippet        string
}

// RecurringBillParams contains the parameters for defining a recurring bill.
type RecurringBillParams struct {
	Name        string
	Vendor      string
	VendorType  string
	AmountType  string
	FixedAmount *decimal.Decimal
	DueDay      int
	AutoApprove bool
}

// SplitShare is one person's portion of a bill. An empty TeamMemberId is the
// implicit single payer.
type SplitShare struct {
	TeamMemberId string
	Amount       decimal.Decimal
}

// BillInstanceParams contains the parameters for creating a bill instance and its splits.
type BillInstanceParams struct {
	RecurringBillId string
	Vendor          string
	VendorType      string
	Amount          decimal.Decimal
	DueDate         *time.Time
	Period          string
	Status          string
	PaidDate        *time.Time
	PaymentMethod   string
	EmailId         string
	Splits          []SplitShare
}

// FinancialAccountParams contains the parameters for linking a provider account.
type FinancialAccountParams struct {
	ProviderAccountId string
	InstitutionName   string
	DisplayName       string
	Last4             string
	Status            string
}

// BankTransactionParams captures a provider transaction and its match metadata.
type BankTransactionParams struct {
	ProviderTransactionId  string
	FinancialAccountId     string
	Amount                 decimal.Decimal
	Description            string
	DisplayName            string
	Status                 string
	TransactedAt           time.Time
	ApprovalStatus         string
	SkipRuleId             string
	MatchedRecurringBillId string
	MatchConfidence        *int64
}

// SkipRuleParams contains the parameters for authoring a skip rule.
type SkipRuleParams struct {
	RuleType           string
	VendorPattern      string
	DescriptionPattern string
	Amount             *decimal.Decimal
	AmountMin          *decimal.Decimal
	AmountMax          *decimal.Decimal
	AmountVariance     *decimal.Decimal
	FinancialAccountId string
	TransactionType    string
	DisplayName        string
	SortOrder          int
}

// SettlementParams settles a matched transaction against a recurring bill in
// one unit: bill instance (created or reused), splits, and transaction link.
type SettlementParams struct {
	TransactionId         string // internal id of the stored bank transaction
	ProviderTransactionId string
	RecurringBillId       string
	Vendor                string
	VendorType            string
	Amount                decimal.Decimal
	DueDate               *time.Time
	Period                string
	PaymentMethod         string
	PaidAt                time.Time
	Splits                []SplitShare
}

// BillStore defines the contract that every persistence backend must satisfy.
type BillStore interface {
	// --- Team ---
	GetTeamMembers(ctx context.Context) ([]models.TeamMember, error)
	GetBillSplitters(ctx context.Context) ([]models.TeamMember, error)
	GetFounders(ctx context.Context) ([]models.TeamMember, error)
	UpsertTeamMember(ctx context.Context, params TeamMemberParams) (*models.TeamMember, error)

	// --- Mailboxes ---
	GetEmailAccounts(ctx context.Context) ([]models.EmailAccount, error)
	GetScanAccounts(ctx context.Context) ([]models.EmailAccount, error)
	UpsertEmailAccount(ctx context.Context, params EmailAccountParams) (*models.EmailAccount, error)
	UpdateEmailAccountTokens(ctx context.Context, accountId, accessToken, refreshToken string, expiry time.Time) error

	// --- Email ingestion ---
	IsEmailProcessed(ctx context.Context, emailId string) (bool, error)
	MarkEmailProcessed(ctx context.Context, params ProcessedEmailParams) (bool, error)
	CreateProposedBill(ctx context.Context, params ProposedBillParams) (bool, error)

	// --- Bills ---
	GetActiveRecurringBills(ctx context.Context) ([]models.RecurringBill, error)
	UpsertRecurringBill(ctx context.Context, params RecurringBillParams) (*models.RecurringBill, error)
	CreateBillInstance(ctx context.Context, params BillInstanceParams) (*models.BillInstance, bool, error)
	GetBillInstanceForPeriod(ctx context.Context, recurringBillId, period string) (*models.BillInstance, error)
	FindBillInstanceByVendor(ctx context.Context, vendor, period string) (*models.BillInstance, error)
	MarkBillInstancePaid(ctx context.Context, instanceId, paymentMethod string, paidAt time.Time) error
	GetBillSplits(ctx context.Context, instanceId string) ([]models.BillSplit, error)

	// --- Bank accounts & transactions ---
	GetFinancialAccounts(ctx context.Context) ([]models.FinancialAccount, error)
	GetActiveFinancialAccounts(ctx context.Context) ([]models.FinancialAccount, error)
	UpsertFinancialAccount(ctx context.Context, params FinancialAccountParams) (*models.FinancialAccount, error)
	UpdateFinancialAccountSyncTime(ctx context.Context, accountId string, syncedAt time.Time) error
	TransactionExists(ctx context.Context, providerTransactionId string) (bool, error)
	InsertBankTransaction(ctx context.Context, params BankTransactionParams) (*models.BankTransaction, bool, error)
	GetBankTransaction(ctx context.Context, providerTransactionId string) (*models.BankTransaction, error)
	SettleTransaction(ctx context.Context, params SettlementParams) (*models.BillInstance, bool, error)

	// --- Skip rules ---
	GetActiveSkipRules(ctx context.Context) ([]models.SkipRule, error)
	UpsertSkipRule(ctx context.Context, params SkipRuleParams) (*models.SkipRule, error)
	IncrementSkipRuleCount(ctx context.Context, ruleId string) error

	// --- Lifecycle ---
	Close()
}
