package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type TeamSeed struct {
	Name           string `yaml:"name"`
	Email          string `yaml:"email"`
	Founder        bool   `yaml:"founder"`
	SplitsExpenses bool   `yaml:"splitsExpenses"`
}

type RecurringBillSeed struct {
	Name        string `yaml:"name"`
	Vendor      string `yaml:"vendor"`
	VendorType  string `yaml:"vendorType"`
	AmountType  string `yaml:"amountType"`
	FixedAmount string `yaml:"fixedAmount"`
	DueDay      int    `yaml:"dueDay"`
	AutoApprove bool   `yaml:"autoApprove"`
}

type SkipRuleSeed struct {
	RuleType           string `yaml:"ruleType"`
	VendorPattern      string `yaml:"vendorPattern"`
	DescriptionPattern string `yaml:"descriptionPattern"`
	Amount             string `yaml:"amount"`
	AmountMin          string `yaml:"amountMin"`
	AmountMax          string `yaml:"amountMax"`
	AmountVariance     string `yaml:"amountVariance"`
	// provider account id of the account the rule is scoped to
	Account         string `yaml:"account"`
	TransactionType string `yaml:"transactionType"`
	DisplayName     string `yaml:"displayName"`
}

type FinancialAccountSeed struct {
	ProviderAccountId string `yaml:"providerAccountId"`
	Institution       string `yaml:"institution"`
	DisplayName       string `yaml:"displayName"`
	Last4             string `yaml:"last4"`
	Status            string `yaml:"status"`
}

type EmailAccountSeed struct {
	Provider          string `yaml:"provider"`
	Email             string `yaml:"email"`
	RefreshToken      string `yaml:"refreshToken"`
	ProviderAccountId string `yaml:"providerAccountId"`
	ScanForBills      bool   `yaml:"scanForBills"`
}

// SeedConfig is the YAML seed file
type SeedConfig struct {
	Team              []TeamSeed             `yaml:"team"`
	RecurringBills    []RecurringBillSeed    `yaml:"recurringBills"`
	SkipRules         []SkipRuleSeed         `yaml:"skipRules"`
	FinancialAccounts []FinancialAccountSeed `yaml:"financialAccounts"`
	EmailAccounts     []EmailAccountSeed     `yaml:"emailAccounts"`
}

// SeedSummary counts rows written by ApplySeed
type SeedSummary struct {
	Team              int
	RecurringBills    int
	SkipRules         int
	FinancialAccounts int
	EmailAccounts     int
}

func LoadSeedConfig(seedFile string) (*SeedConfig, error) {
	var seedPath string
	if filepath.IsAbs(seedFile) {
		seedPath = seedFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		seedPath = filepath.Join(wd, seedFile)
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", seedFile, err)
	}
	return ParseSeedConfig(data)
}

func ParseSeedConfig(data []byte) (*SeedConfig, error) {
	var config SeedConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse seed file: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *SeedConfig) validate() error {
	for i, m := range c.Team {
		if m.Name == "" || m.Email == "" {
			return fmt.Errorf("team member at index %d missing name or email", i)
		}
	}
	for i, b := range c.RecurringBills {
		if b.Vendor == "" {
			return fmt.Errorf("recurring bill at index %d missing vendor", i)
		}
		if b.DueDay < 1 || b.DueDay > 31 {
			return fmt.Errorf("recurring bill %q has invalid dueDay %d", b.Vendor, b.DueDay)
		}
		switch strings.ToUpper(b.AmountType) {
		case models.AmountFixed:
			if b.FixedAmount == "" {
				return fmt.Errorf("recurring bill %q is FIXED but has no fixedAmount", b.Vendor)
			}
		case models.AmountVariable, "":
		default:
			return fmt.Errorf("recurring bill %q has invalid amountType %q", b.Vendor, b.AmountType)
		}
		if _, err := optionalDecimal(b.FixedAmount); err != nil {
			return fmt.Errorf("recurring bill %q: %w", b.Vendor, err)
		}
	}
	for i, r := range c.SkipRules {
		if r.RuleType == "" {
			return fmt.Errorf("skip rule at index %d missing ruleType", i)
		}
		for _, v := range []string{r.Amount, r.AmountMin, r.AmountMax, r.AmountVariance} {
			if _, err := optionalDecimal(v); err != nil {
				return fmt.Errorf("skip rule at index %d: %w", i, err)
			}
		}
	}
	for i, a := range c.FinancialAccounts {
		if a.ProviderAccountId == "" || a.Institution == "" {
			return fmt.Errorf("financial account at index %d missing providerAccountId or institution", i)
		}
	}
	for i, a := range c.EmailAccounts {
		if a.Email == "" {
			return fmt.Errorf("email account at index %d missing email", i)
		}
	}
	return nil
}

// ApplySeed upserts every section by natural key, so it can be re-run.
// Financial accounts go first so skip rules can reference them.
func ApplySeed(ctx context.Context, db store.BillStore, seed *SeedConfig) (*SeedSummary, error) {
	summary := &SeedSummary{}

	for _, m := range seed.Team {
		if _, err := db.UpsertTeamMember(ctx, store.TeamMemberParams{
			Name:           m.Name,
			Email:          m.Email,
			IsFounder:      m.Founder,
			SplitsExpenses: m.SplitsExpenses,
		}); err != nil {
			return summary, err
		}
		summary.Team++
	}

	accountIds := make(map[string]string)
	for _, a := range seed.FinancialAccounts {
		account, err := db.UpsertFinancialAccount(ctx, store.FinancialAccountParams{
			ProviderAccountId: a.ProviderAccountId,
			InstitutionName:   a.Institution,
			DisplayName:       a.DisplayName,
			Last4:             a.Last4,
			Status:            a.Status,
		})
		if err != nil {
			return summary, err
		}
		accountIds[a.ProviderAccountId] = account.Id
		summary.FinancialAccounts++
	}

	for _, b := range seed.RecurringBills {
		fixed, _ := optionalDecimal(b.FixedAmount)
		amountType := strings.ToUpper(b.AmountType)
		if amountType == "" {
			amountType = models.AmountVariable
		}
		vendorType := strings.ToUpper(b.VendorType)
		if vendorType == "" {
			vendorType = models.VendorOther
		}
		name := b.Name
		if name == "" {
			name = b.Vendor
		}
		if _, err := db.UpsertRecurringBill(ctx, store.RecurringBillParams{
			Name:        name,
			Vendor:      b.Vendor,
			VendorType:  vendorType,
			AmountType:  amountType,
			FixedAmount: fixed,
			DueDay:      b.DueDay,
			AutoApprove: b.AutoApprove,
		}); err != nil {
			return summary, err
		}
		summary.RecurringBills++
	}

	for i, r := range seed.SkipRules {
		params := store.SkipRuleParams{
			RuleType:           strings.ToUpper(r.RuleType),
			VendorPattern:      r.VendorPattern,
			DescriptionPattern: r.DescriptionPattern,
			TransactionType:    strings.ToUpper(r.TransactionType),
			DisplayName:        r.DisplayName,
			SortOrder:          i,
		}
		params.Amount, _ = optionalDecimal(r.Amount)
		params.AmountMin, _ = optionalDecimal(r.AmountMin)
		params.AmountMax, _ = optionalDecimal(r.AmountMax)
		params.AmountVariance, _ = optionalDecimal(r.AmountVariance)
		if r.Account != "" {
			id, ok := accountIds[r.Account]
			if !ok {
				return summary, fmt.Errorf("skip rule at index %d references unknown account %q", i, r.Account)
			}
			params.FinancialAccountId = id
		}
		if _, err := db.UpsertSkipRule(ctx, params); err != nil {
			return summary, err
		}
		summary.SkipRules++
	}

	for _, a := range seed.EmailAccounts {
		provider := strings.ToUpper(a.Provider)
		if provider == "" {
			provider = models.ProviderGmail
		}
		if _, err := db.UpsertEmailAccount(ctx, store.EmailAccountParams{
			Provider:          provider,
			Email:             a.Email,
			RefreshToken:      a.RefreshToken,
			ProviderAccountId: a.ProviderAccountId,
			ScanForBills:      a.ScanForBills,
		}); err != nil {
			return summary, err
		}
		summary.EmailAccounts++
	}

	zap.L().Info("Seed applied",
		zap.Int("team", summary.Team),
		zap.Int("recurring_bills", summary.RecurringBills),
		zap.Int("skip_rules", summary.SkipRules),
		zap.Int("financial_accounts", summary.FinancialAccounts),
		zap.Int("email_accounts", summary.EmailAccounts))
	return summary, nil
}

func optionalDecimal(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return &d, nil
}
