package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bill-scan-go/internal/billing"
	"bill-scan-go/internal/common"
	"bill-scan-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	days := flag.Int("days", 0, "Lookback window in days, clamped to 1-60 (default: SCAN_DEFAULT_DAYS_BACK)")
	mode := flag.String("mode", "", "proposed or legacy (default: SCAN_DEFAULT_MODE)")
	skipBank := flag.Bool("skip-bank", false, "Skip the bank transaction sync")
	skipEmail := flag.Bool("skip-email", false, "Skip mailbox scanning")
	asJSON := flag.Bool("json", true, "Print the report as JSON instead of a summary")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	req := billing.Request{
		DaysBack:  *days,
		Mode:      *mode,
		SkipBank:  *skipBank,
		SkipEmail: *skipEmail,
	}
	if req.DaysBack == 0 {
		req.DaysBack = cfg.Scan.DefaultDaysBack
	}

	report, runErr := services.Billing.Run(ctx, req)
	if report != nil {
		if *asJSON {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				zap.L().Fatal("Failed to encode report", zap.Error(err))
			}
			fmt.Println(string(out))
		} else {
			common.PrintHeader("Bill scan report", common.DefaultWidth)
			fmt.Println(common.FormatReport(report))
			common.PrintFooter(fmt.Sprintf("success=%v", report.Success), common.DefaultWidth)
		}
	}

	if runErr != nil {
		zap.L().Error("Scan failed", zap.Error(runErr))
		services.Close()
		loggerCleanup()
		os.Exit(1)
	}
}
