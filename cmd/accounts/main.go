package main

import (
	"context"
	"flag"
	"fmt"

	"bill-scan-go/internal/common"
	"bill-scan-go/internal/config"
	"bill-scan-go/internal/database"
	"bill-scan-go/internal/ledger"
	"bill-scan-go/internal/models"

	"go.uber.org/zap"
)

func printMailboxes(accounts []models.EmailAccount) {
	fmt.Printf("\n┌─ Mailboxes (%d)\n", len(accounts))
	for i, a := range accounts {
		fmt.Printf("%s%s\n", common.BoxPrefix(i == len(accounts)-1), common.FormatMailbox(a))
	}
}

func printFinancialAccounts(accounts []models.FinancialAccount) {
	fmt.Printf("\n┌─ Financial accounts (%d)\n", len(accounts))
	for i, a := range accounts {
		isLast := i == len(accounts)-1
		fmt.Printf("%s%-20s %-20s ****%-4s %s\n",
			common.BoxPrefix(isLast), a.InstitutionName, a.DisplayName, a.Last4, a.Status)
		fmt.Printf("%s   provider id: %s, last sync: %s\n",
			common.BoxDetailPrefix(isLast), a.ProviderAccountId, common.FormatSyncTime(a.LastSyncAt))
	}
}

func printVendorTotals(ctx context.Context, db *database.Service, journal ledger.Journal, logger *zap.Logger) {
	bills, err := db.GetActiveRecurringBills(ctx)
	if err != nil {
		logger.Error("Failed to load recurring bills", zap.Error(err))
		return
	}
	fmt.Printf("\n┌─ Settled totals by vendor (%d)\n", len(bills))
	for i, b := range bills {
		total, err := journal.VendorTotal(ctx, b.Vendor)
		if err != nil {
			logger.Error("Failed to read vendor total", zap.String("vendor", b.Vendor), zap.Error(err))
			continue
		}
		fmt.Printf("%s%-30s %s\n", common.BoxPrefix(i == len(bills)-1), b.Vendor, common.FormatMoney(total))
	}
}

func main() {
	withTotals := flag.Bool("totals", false, "Also print settled totals per vendor from the Formance ledger")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	ctx := context.Background()

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	mailboxes, err := dbService.GetEmailAccounts(ctx)
	if err != nil {
		logger.Fatal("Failed to load email accounts", zap.Error(err))
	}
	financialAccounts, err := dbService.GetFinancialAccounts(ctx)
	if err != nil {
		logger.Fatal("Failed to load financial accounts", zap.Error(err))
	}

	common.PrintHeader("Connected accounts", common.WideWidth)
	printMailboxes(mailboxes)
	printFinancialAccounts(financialAccounts)

	if *withTotals {
		if cfg.Formance.StackURL == "" {
			logger.Warn("FORMANCE_STACK_URL not set, skipping vendor totals")
		} else {
			journal, err := ledger.NewService(ctx, cfg.Formance)
			if err != nil {
				logger.Fatal("Failed to connect to Formance", zap.Error(err))
			}
			printVendorTotals(ctx, dbService, journal, logger)
		}
	}

	common.PrintFooter(fmt.Sprintf("%d mailboxes, %d financial accounts", len(mailboxes), len(financialAccounts)), common.WideWidth)
}
