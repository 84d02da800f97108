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

package database

const (
	// Team queries
	teamColumns = `id, name, email, is_founder, splits_expenses, created_at, updated_at`

	queryGetTeamMembers = `
		SELECT ` + teamColumns + `
		FROM team_members
		WHERE active = 1
		ORDER BY created_at, name`

	queryGetBillSplitters = `
		SELECT ` + teamColumns + `
		FROM team_members
		WHERE active = 1 AND splits_expenses = 1
		ORDER BY created_at, name`

	queryGetFounders = `
		SELECT ` + teamColumns + `
		FROM team_members
		WHERE active = 1 AND is_founder = 1
		ORDER BY created_at, name`

	queryUpsertTeamMember = `
		INSERT INTO team_members (id, name, email, is_founder, splits_expenses, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			is_founder = excluded.is_founder,
			splits_expenses = excluded.splits_expenses,
			active = 1,
			updated_at = excluded.updated_at
		RETURNING ` + teamColumns

	// Mailbox queries
	emailAccountColumns = `id, provider, email, access_token, refresh_token, token_expiry,
		provider_account_id, is_active, scan_for_bills, created_at, updated_at`

	queryGetEmailAccounts = `
		SELECT ` + emailAccountColumns + `
		FROM email_accounts
		ORDER BY created_at`

	queryGetScanAccounts = `
		SELECT ` + emailAccountColumns + `
		FROM email_accounts
		WHERE is_active = 1 AND scan_for_bills = 1
		ORDER BY created_at`

	queryUpsertEmailAccount = `
		INSERT INTO email_accounts (id, provider, email, access_token, refresh_token, token_expiry,
			provider_account_id, scan_for_bills, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider, email) DO UPDATE SET
			access_token = CASE WHEN excluded.access_token != '' THEN excluded.access_token ELSE email_accounts.access_token END,
			refresh_token = CASE WHEN excluded.refresh_token != '' THEN excluded.refresh_token ELSE email_accounts.refresh_token END,
			token_expiry = COALESCE(excluded.token_expiry, email_accounts.token_expiry),
			provider_account_id = CASE WHEN excluded.provider_account_id != '' THEN excluded.provider_account_id ELSE email_accounts.provider_account_id END,
			scan_for_bills = excluded.scan_for_bills,
			is_active = 1,
			updated_at = excluded.updated_at
		RETURNING ` + emailAccountColumns

	queryUpdateEmailAccountTokens = `
		UPDATE email_accounts
		SET access_token = ?,
			refresh_token = CASE WHEN ? != '' THEN ? ELSE refresh_token END,
			token_expiry = ?,
			updated_at = ?
		WHERE id = ?`

	// Email ingestion queries
	queryCheckProcessedEmail = `
		SELECT id FROM processed_emails WHERE email_id = ? LIMIT 1`

	queryInsertProcessedEmail = `
		INSERT INTO processed_emails (id, email_id, vendor, outcome, email_account_id, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email_id) DO NOTHING`

	queryInsertProposedBill = `
		INSERT INTO proposed_bills (id, email_id, email_account_id, vendor, vendor_type, amount, due_date,
			balance, account_type, subject, snippet, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email_id) DO NOTHING`

	queryGetProposedBills = `
		SELECT id, email_id, email_account_id, vendor, vendor_type, amount, due_date, balance,
		       account_type, subject, snippet, status, created_at
		FROM proposed_bills
		WHERE status = ?
		ORDER BY created_at`

	// Recurring bill queries
	recurringBillColumns = `id, name, vendor, vendor_type, amount_type, fixed_amount, due_day,
		is_active, auto_approve, created_at, updated_at`

	queryGetActiveRecurringBills = `
		SELECT ` + recurringBillColumns + `
		FROM recurring_bills
		WHERE is_active = 1
		ORDER BY created_at, name`

	queryUpsertRecurringBill = `
		INSERT INTO recurring_bills (id, name, vendor, vendor_type, amount_type, fixed_amount, due_day,
			auto_approve, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			vendor = excluded.vendor,
			vendor_type = excluded.vendor_type,
			amount_type = excluded.amount_type,
			fixed_amount = excluded.fixed_amount,
			due_day = excluded.due_day,
			auto_approve = excluded.auto_approve,
			is_active = 1,
			updated_at = excluded.updated_at
		RETURNING ` + recurringBillColumns

	// Bill instance queries
	billInstanceColumns = `id, recurring_bill_id, vendor, vendor_type, amount, due_date, period, status,
		is_paid, paid_date, payment_method, stripe_transaction_id, email_id, created_at`

	queryInsertBillInstance = `
		INSERT INTO bill_instances (id, recurring_bill_id, vendor, vendor_type, amount, due_date, period,
			status, is_paid, paid_date, payment_method, stripe_transaction_id, email_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING ` + billInstanceColumns

	queryGetBillInstanceForPeriod = `
		SELECT ` + billInstanceColumns + `
		FROM bill_instances
		WHERE recurring_bill_id = ? AND period = ?`

	queryGetBillInstanceByEmail = `
		SELECT ` + billInstanceColumns + `
		FROM bill_instances
		WHERE email_id = ?`

	queryFindBillInstanceByVendor = `
		SELECT ` + billInstanceColumns + `
		FROM bill_instances
		WHERE LOWER(vendor) = LOWER(?) AND period = ?
		ORDER BY is_paid, created_at
		LIMIT 1`

	queryMarkBillInstancePaid = `
		UPDATE bill_instances
		SET status = 'PAID', is_paid = 1, paid_date = ?, payment_method = ?
		WHERE id = ?`

	querySettleBillInstance = `
		UPDATE bill_instances
		SET status = 'PAID', is_paid = 1, paid_date = ?, payment_method = ?, stripe_transaction_id = ?
		WHERE id = ?`

	// Split queries
	queryInsertBillSplit = `
		INSERT INTO bill_splits (id, bill_instance_id, team_member_id, amount, status, paid_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetBillSplits = `
		SELECT id, bill_instance_id, team_member_id, amount, status, paid_at, created_at
		FROM bill_splits
		WHERE bill_instance_id = ?
		ORDER BY created_at, id`

	queryCountBillSplits = `
		SELECT COUNT(*) FROM bill_splits WHERE bill_instance_id = ?`

	queryMarkBillSplitsPaid = `
		UPDATE bill_splits
		SET status = 'PAID', paid_at = ?
		WHERE bill_instance_id = ? AND status != 'PAID'`

	// Financial account queries
	financialAccountColumns = `id, provider_account_id, institution_name, display_name, last4, status,
		last_sync_at, created_at`

	queryGetFinancialAccounts = `
		SELECT ` + financialAccountColumns + `
		FROM financial_accounts
		ORDER BY institution_name, created_at`

	queryGetActiveFinancialAccounts = `
		SELECT ` + financialAccountColumns + `
		FROM financial_accounts
		WHERE status = 'ACTIVE'
		ORDER BY institution_name, created_at`

	queryUpsertFinancialAccount = `
		INSERT INTO financial_accounts (id, provider_account_id, institution_name, display_name, last4, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider_account_id) DO UPDATE SET
			institution_name = excluded.institution_name,
			display_name = excluded.display_name,
			last4 = excluded.last4,
			status = excluded.status
		RETURNING ` + financialAccountColumns

	queryUpdateFinancialAccountSync = `
		UPDATE financial_accounts SET last_sync_at = ? WHERE id = ?`

	// Bank transaction queries
	bankTransactionColumns = `id, stripe_transaction_id, financial_account_id, amount, description,
		display_name, status, transacted_at, approval_status, approved_at, skip_rule_id,
		matched_recurring_bill_id, match_confidence, bill_instance_id, created_at`

	queryCheckTransaction = `
		SELECT id FROM stripe_transactions WHERE stripe_transaction_id = ? LIMIT 1`

	queryInsertBankTransaction = `
		INSERT INTO stripe_transactions (id, stripe_transaction_id, financial_account_id, amount, description,
			display_name, status, transacted_at, approval_status, skip_rule_id, matched_recurring_bill_id,
			match_confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(stripe_transaction_id) DO NOTHING
		RETURNING ` + bankTransactionColumns

	queryGetBankTransaction = `
		SELECT ` + bankTransactionColumns + `
		FROM stripe_transactions
		WHERE stripe_transaction_id = ?`

	queryApproveBankTransaction = `
		UPDATE stripe_transactions
		SET approval_status = 'APPROVED', approved_at = ?, bill_instance_id = ?
		WHERE id = ? AND bill_instance_id IS NULL`

	// Skip rule queries
	skipRuleColumns = `id, rule_type, vendor_pattern, description_pattern, amount, amount_min, amount_max,
		amount_variance, financial_account_id, transaction_type, display_name, skip_count, is_active,
		sort_order, created_at`

	queryGetActiveSkipRules = `
		SELECT ` + skipRuleColumns + `
		FROM skip_rules
		WHERE is_active = 1
		ORDER BY sort_order, created_at, id`

	queryUpsertSkipRule = `
		INSERT INTO skip_rules (id, rule_type, vendor_pattern, description_pattern, amount, amount_min,
			amount_max, amount_variance, financial_account_id, transaction_type, display_name, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rule_type, vendor_pattern, description_pattern) DO UPDATE SET
			amount = excluded.amount,
			amount_min = excluded.amount_min,
			amount_max = excluded.amount_max,
			amount_variance = excluded.amount_variance,
			financial_account_id = excluded.financial_account_id,
			transaction_type = excluded.transaction_type,
			display_name = excluded.display_name,
			sort_order = excluded.sort_order,
			is_active = 1
		RETURNING ` + skipRuleColumns

	queryIncrementSkipRule = `
		UPDATE skip_rules SET skip_count = skip_count + 1 WHERE id = ?`
)
