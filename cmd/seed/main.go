/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"

	"bill-scan-go/internal/common"
	"bill-scan-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	seedFile := flag.String("file", "seed.yaml", "Path to the YAML seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	ctx := context.Background()

	seed, err := common.LoadSeedConfig(*seedFile)
	if err != nil {
		logger.Fatal("Failed to load seed file", zap.String("file", *seedFile), zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	summary, err := common.ApplySeed(ctx, dbService, seed)
	if err != nil {
		logger.Fatal("Failed to apply seed", zap.Error(err))
	}

	common.PrintHeader("Seed applied: "+*seedFile, common.DefaultWidth)
	fmt.Printf("Team members:       %d\n", summary.Team)
	fmt.Printf("Financial accounts: %d\n", summary.FinancialAccounts)
	fmt.Printf("Recurring bills:    %d\n", summary.RecurringBills)
	fmt.Printf("Skip rules:         %d\n", summary.SkipRules)
	fmt.Printf("Email accounts:     %d\n", summary.EmailAccounts)
	common.PrintFooter("Done", common.DefaultWidth)
}
