package billing

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"bill-scan-go/internal/database"
	"bill-scan-go/internal/financial"
	"bill-scan-go/internal/ledger"
	"bill-scan-go/internal/mailbox"
	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

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

type fakeMailbox struct {
	order    []string
	messages map[string]models.EmailMessage
}

func (f *fakeMailbox) ListMessages(context.Context, mailbox.Query) ([]string, error) {
	return f.order, nil
}

func (f *fakeMailbox) GetMessage(_ context.Context, id string) (*models.EmailMessage, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, errors.New("no such message")
	}
	return &msg, nil
}

type fakeOpener struct {
	client mailbox.Client
	opened []string
}

func (f *fakeOpener) Open(_ context.Context, account models.EmailAccount) (mailbox.Client, error) {
	f.opened = append(f.opened, account.Email)
	return f.client, nil
}

func newMailbox(msgs ...models.EmailMessage) *fakeMailbox {
	mb := &fakeMailbox{messages: make(map[string]models.EmailMessage)}
	for _, m := range msgs {
		mb.order = append(mb.order, m.Id)
		mb.messages[m.Id] = m
	}
	return mb
}

type fakeProvider struct {
	pages   map[string][]financial.Page
	failFor map[string]bool
	calls   int
}

func (f *fakeProvider) Subscribe(context.Context, string, []string) error {
	return errors.New("already subscribed")
}

func (f *fakeProvider) Refresh(context.Context, string, []string) error { return nil }

func (f *fakeProvider) ListTransactions(_ context.Context, accountId, startingAfter string, _ int64) (*financial.Page, error) {
	f.calls++
	if f.failFor[accountId] {
		return nil, errors.New("account disconnected")
	}
	pages := f.pages[accountId]
	idx := 0
	if startingAfter != "" {
		for i, p := range pages {
			if n := len(p.Transactions); n > 0 && p.Transactions[n-1].Id == startingAfter {
				idx = i + 1
			}
		}
	}
	if idx >= len(pages) {
		return &financial.Page{}, nil
	}
	return &pages[idx], nil
}

type recordingNotifier struct {
	due      []string
	payments []string
	err      error
}

func (r *recordingNotifier) BillDue(_ context.Context, vendor string, _ decimal.Decimal, _ *time.Time) error {
	r.due = append(r.due, vendor)
	return r.err
}

func (r *recordingNotifier) PaymentConfirmed(_ context.Context, vendor string, _ decimal.Decimal) error {
	r.payments = append(r.payments, vendor)
	return r.err
}

type recordingJournal struct {
	settlements []ledger.Settlement
}

func (r *recordingJournal) RecordSettlement(_ context.Context, s ledger.Settlement) error {
	r.settlements = append(r.settlements, s)
	return nil
}

func (r *recordingJournal) VendorTotal(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func newTestService(deps Deps) *Service {
	s := NewService(deps)
	s.now = func() time.Time { return fixedNow }
	return s
}

func seedMailbox(t *testing.T, db *database.Service) {
	t.Helper()
	_, err := db.UpsertEmailAccount(context.Background(), store.EmailAccountParams{
		Provider:     models.ProviderGmail,
		Email:        "ops@47industries.com",
		RefreshToken: "refresh",
		ScanForBills: true,
	})
	if err != nil {
		t.Fatalf("UpsertEmailAccount failed: %v", err)
	}
}

func seedTeam(t *testing.T, db *database.Service, splitters int) {
	t.Helper()
	names := []string{"kyle", "dana", "sam", "lee"}
	for i := 0; i < splitters; i++ {
		_, err := db.UpsertTeamMember(context.Background(), store.TeamMemberParams{
			Name:           names[i],
			Email:          names[i] + "@47industries.com",
			IsFounder:      i < 2,
			SplitsExpenses: true,
		})
		if err != nil {
			t.Fatalf("UpsertTeamMember failed: %v", err)
		}
	}
}

var dukeBill = models.EmailMessage{
	Id:      "duke-1",
	From:    "Duke Energy <billing@duke-energy.com>",
	Subject: "Your bill is ready",
	Body:    "Amount Due: $142.37\nPlease pay by the due date.\nDue Date: March 15, 2026",
}

var newsletter = models.EmailMessage{
	Id:      "promo-1",
	From:    "Chase <news@chase.com>",
	Subject: "New feature announcement",
	Body:    "Check out our app. Earn $200 bonus.",
}

func TestRun_NoEmailAccounts(t *testing.T) {
	db := setupTestDb(t)
	opener := &fakeOpener{client: newMailbox()}
	provider := &fakeProvider{}
	s := newTestService(Deps{Store: db, Opener: opener, Provider: provider})

	report, err := s.Run(context.Background(), Request{DaysBack: 3})
	if !errors.Is(err, store.ErrNoEmailAccounts) {
		t.Fatalf("Expected ErrNoEmailAccounts, got %v", err)
	}
	if report == nil || report.Success || report.Error == "" {
		t.Errorf("Expected failed report with message, got %+v", report)
	}
	if len(opener.opened) != 0 || provider.calls != 0 {
		t.Errorf("Expected no collaborator calls, got %d opens and %d list calls", len(opener.opened), provider.calls)
	}
}

func TestRun_FallbackAccount(t *testing.T) {
	db := setupTestDb(t)
	opener := &fakeOpener{client: newMailbox(newsletter)}
	fallback := models.EmailAccount{Provider: models.ProviderGmail, Email: "me", RefreshToken: "r"}
	s := newTestService(Deps{Store: db, Opener: opener, Fallback: &fallback})

	report, err := s.Run(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(opener.opened) != 1 || opener.opened[0] != "me" {
		t.Errorf("Expected fallback mailbox to be opened, got %v", opener.opened)
	}
	if report.EmailsFound != 1 || report.Results.Skipped != 1 {
		t.Errorf("Unexpected results %+v", report.Results)
	}
}

func TestRun_InvalidMode(t *testing.T) {
	s := newTestService(Deps{Store: setupTestDb(t)})
	if _, err := s.Run(context.Background(), Request{Mode: "yolo"}); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Expected ErrInvalidMode, got %v", err)
	}
}

func TestRun_ProposedIsIdempotent(t *testing.T) {
	db := setupTestDb(t)
	seedMailbox(t, db)
	s := newTestService(Deps{Store: db, Opener: &fakeOpener{client: newMailbox(dukeBill, newsletter)}})
	ctx := context.Background()

	report, err := s.Run(ctx, Request{DaysBack: 90, Mode: models.ModeProposed, SkipBank: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.DaysBack != 60 || report.Mode != models.ModeProposed {
		t.Errorf("Unexpected header %+v", report)
	}
	if report.EmailsFound != 2 || report.Results.Processed != 2 || report.Results.Proposed != 1 || report.Results.Skipped != 1 {
		t.Errorf("Unexpected first run results %+v", report.Results)
	}

	proposed, err := db.GetProposedBills(ctx, models.StatusPending)
	if err != nil {
		t.Fatalf("GetProposedBills failed: %v", err)
	}
	if len(proposed) != 1 || proposed[0].Vendor != "Duke Energy" || !proposed[0].Amount.Decimal.Equal(decimal.RequireFromString("142.37")) {
		t.Fatalf("Unexpected proposed bills %+v", proposed)
	}

	report, err = s.Run(ctx, Request{DaysBack: 90, Mode: models.ModeProposed, SkipBank: true})
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if report.EmailsFound != 0 || report.Results.Proposed != 0 || report.Results.Processed != 0 {
		t.Errorf("Expected nothing new on replay, got %+v", report.Results)
	}
	if report.Results.Skipped != 2 || report.Results.Errors != 0 {
		t.Errorf("Expected both replayed emails counted as skipped, got %+v", report.Results)
	}
	if proposed, _ = db.GetProposedBills(ctx, models.StatusPending); len(proposed) != 1 {
		t.Errorf("Expected still one proposal, got %d", len(proposed))
	}
}

func TestRun_LegacyBillAndPayment(t *testing.T) {
	db := setupTestDb(t)
	seedMailbox(t, db)
	seedTeam(t, db, 2)
	payment := models.EmailMessage{
		Id:      "duke-2",
		From:    "billing@duke-energy.com",
		Subject: "Payment received",
		Body:    "Thank you. We received your payment of $142.37.",
		Date:    fixedNow,
	}
	notifier := &recordingNotifier{}
	s := newTestService(Deps{
		Store:    db,
		Opener:   &fakeOpener{client: newMailbox(dukeBill, payment)},
		Notifier: notifier,
	})
	ctx := context.Background()

	report, err := s.Run(ctx, Request{Mode: models.ModeLegacy, SkipBank: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Results.Created != 1 || report.Results.Paid != 1 || report.Results.Notifications != 2 {
		t.Errorf("Unexpected results %+v", report.Results)
	}
	if len(notifier.due) != 1 || len(notifier.payments) != 1 {
		t.Errorf("Expected one due and one payment notification, got %v / %v", notifier.due, notifier.payments)
	}

	instance, err := db.FindBillInstanceByVendor(ctx, "Duke Energy", "2026-03")
	if err != nil {
		t.Fatalf("FindBillInstanceByVendor failed: %v", err)
	}
	if !instance.IsPaid || instance.PaymentMethod != "Email confirmation" {
		t.Errorf("Expected instance paid by email, got %+v", instance)
	}
	splits, err := db.GetBillSplits(ctx, instance.Id)
	if err != nil {
		t.Fatalf("GetBillSplits failed: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("Expected 2 splits, got %d", len(splits))
	}
	sum := splits[0].Amount.Add(splits[1].Amount)
	if !sum.Equal(decimal.RequireFromString("142.37")) {
		t.Errorf("Splits sum to %s", sum)
	}
}

func TestRun_NotificationFailureIsCounted(t *testing.T) {
	db := setupTestDb(t)
	seedMailbox(t, db)
	notifier := &recordingNotifier{err: errors.New("push gateway down")}
	s := newTestService(Deps{
		Store:    db,
		Opener:   &fakeOpener{client: newMailbox(dukeBill)},
		Notifier: notifier,
	})
	ctx := context.Background()

	report, err := s.Run(ctx, Request{Mode: models.ModeLegacy, SkipBank: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.Success || report.Results.Created != 1 || report.Results.Errors != 1 || report.Results.Notifications != 0 {
		t.Errorf("Unexpected results %+v", report.Results)
	}
	if _, err := db.FindBillInstanceByVendor(ctx, "Duke Energy", "2026-03"); err != nil {
		t.Errorf("Expected the instance to survive the failed notification: %v", err)
	}
}

func seedBank(t *testing.T, db *database.Service, providerId, institution string) *models.FinancialAccount {
	t.Helper()
	account, err := db.UpsertFinancialAccount(context.Background(), store.FinancialAccountParams{
		ProviderAccountId: providerId,
		InstitutionName:   institution,
	})
	if err != nil {
		t.Fatalf("UpsertFinancialAccount failed: %v", err)
	}
	return account
}

func seedSpectrum(t *testing.T, db *database.Service, autoApprove bool) *models.RecurringBill {
	t.Helper()
	amount := decimal.NewFromInt(90)
	bill, err := db.UpsertRecurringBill(context.Background(), store.RecurringBillParams{
		Name:        "Office Internet",
		Vendor:      "Spectrum",
		VendorType:  models.VendorUtility,
		AmountType:  models.AmountFixed,
		FixedAmount: &amount,
		DueDay:      20,
		AutoApprove: autoApprove,
	})
	if err != nil {
		t.Fatalf("UpsertRecurringBill failed: %v", err)
	}
	return bill
}

func txn(id, amount, description string) financial.Transaction {
	return financial.Transaction{
		Id:           id,
		Amount:       decimal.RequireFromString(amount),
		Description:  description,
		Status:       "posted",
		TransactedAt: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestRun_BankSync(t *testing.T) {
	db := setupTestDb(t)
	ctx := context.Background()
	seedTeam(t, db, 3)
	seedBank(t, db, "fca_chase", "Chase")
	bill := seedSpectrum(t, db, true)

	amount := decimal.RequireFromString("15.49")
	variance := decimal.NewFromInt(5)
	rule, err := db.UpsertSkipRule(ctx, store.SkipRuleParams{
		RuleType:       models.RuleVendorAmount,
		VendorPattern:  "netflix",
		Amount:         &amount,
		AmountVariance: &variance,
		DisplayName:    "Netflix (personal)",
	})
	if err != nil {
		t.Fatalf("UpsertSkipRule failed: %v", err)
	}

	provider := &fakeProvider{pages: map[string][]financial.Page{
		"fca_chase": {
			{Transactions: []financial.Transaction{txn("txn_1", "-15.49", "NETFLIX.COM"), txn("txn_2", "-90.00", "SPECTRUM")}, HasMore: true},
			{Transactions: []financial.Transaction{txn("txn_3", "500.00", "DEPOSIT")}},
		},
	}}
	journal := &recordingJournal{}
	s := newTestService(Deps{Store: db, Provider: provider, Journal: journal})

	report, err := s.Run(ctx, Request{SkipEmail: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	tr := report.Transactions
	if tr.Synced != 3 || tr.Skipped != 1 || tr.AutoMatched != 1 || len(tr.Errors) != 0 {
		t.Fatalf("Unexpected transaction results %+v", tr)
	}

	netflix, err := db.GetBankTransaction(ctx, "txn_1")
	if err != nil {
		t.Fatalf("GetBankTransaction failed: %v", err)
	}
	if netflix.ApprovalStatus.String != models.ApprovalSkipped || netflix.DisplayName.String != "Netflix (personal)" {
		t.Errorf("Unexpected skipped transaction %+v", netflix)
	}
	rules, _ := db.GetActiveSkipRules(ctx)
	if len(rules) != 1 || rules[0].Id != rule.Id || rules[0].SkipCount != 1 {
		t.Errorf("Expected skip count 1, got %+v", rules)
	}

	spectrum, _ := db.GetBankTransaction(ctx, "txn_2")
	if spectrum.ApprovalStatus.String != models.ApprovalApproved || spectrum.MatchConfidence.Int64 != models.MatchConfidence {
		t.Errorf("Unexpected matched transaction %+v", spectrum)
	}
	instance, err := db.GetBillInstanceForPeriod(ctx, bill.Id, "2026-03")
	if err != nil {
		t.Fatalf("GetBillInstanceForPeriod failed: %v", err)
	}
	if !instance.IsPaid || instance.PaymentMethod != "Bank: Chase" || spectrum.BillInstanceId.String != instance.Id {
		t.Errorf("Unexpected settled instance %+v", instance)
	}
	splits, _ := db.GetBillSplits(ctx, instance.Id)
	if len(splits) != 3 {
		t.Fatalf("Expected 3 splits, got %d", len(splits))
	}
	for _, split := range splits {
		if !split.Amount.Equal(decimal.NewFromInt(30)) || split.Status != models.StatusPaid {
			t.Errorf("Unexpected split %+v", split)
		}
	}
	if len(journal.settlements) != 1 || journal.settlements[0].Institution != "Chase" || journal.settlements[0].Splits != 3 {
		t.Errorf("Unexpected journal entries %+v", journal.settlements)
	}

	accounts, _ := db.GetFinancialAccounts(ctx)
	if !accounts[0].LastSyncAt.Valid {
		t.Errorf("Expected lastSyncAt to be recorded")
	}

	report, err = s.Run(ctx, Request{SkipEmail: true})
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if report.Transactions.Synced != 0 || report.Transactions.Duplicates != 3 || report.Transactions.AutoMatched != 0 {
		t.Errorf("Expected replay to be all duplicates, got %+v", report.Transactions)
	}
}

func TestRun_AutoApprovalSettlesGeneratedInstance(t *testing.T) {
	db := setupTestDb(t)
	ctx := context.Background()
	seedTeam(t, db, 2)
	seedBank(t, db, "fca_chase", "Chase")

	amount := decimal.NewFromInt(90)
	bill, err := db.UpsertRecurringBill(ctx, store.RecurringBillParams{
		Name: "Office Internet", Vendor: "Spectrum", VendorType: models.VendorUtility,
		AmountType: models.AmountFixed, FixedAmount: &amount, DueDay: 1, AutoApprove: true,
	})
	if err != nil {
		t.Fatalf("UpsertRecurringBill failed: %v", err)
	}

	monthEnd := time.Date(2026, time.March, 30, 9, 0, 0, 0, time.UTC)
	payment := txn("txn_apr", "-90.00", "SPECTRUM")
	payment.TransactedAt = monthEnd
	provider := &fakeProvider{pages: map[string][]financial.Page{
		"fca_chase": {{Transactions: []financial.Transaction{payment}}},
	}}
	s := NewService(Deps{Store: db, Provider: provider})
	s.now = func() time.Time { return monthEnd }

	report, err := s.Run(ctx, Request{SkipEmail: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Results.Generated != 1 || report.Transactions.AutoMatched != 1 {
		t.Fatalf("Expected one generated and one settled bill, got %+v / %+v", report.Results, report.Transactions)
	}

	if _, err := db.GetBillInstanceForPeriod(ctx, bill.Id, "2026-03"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected no March instance, got %v", err)
	}
	instance, err := db.GetBillInstanceForPeriod(ctx, bill.Id, "2026-04")
	if err != nil {
		t.Fatalf("GetBillInstanceForPeriod failed: %v", err)
	}
	if !instance.IsPaid || instance.PaymentMethod != "Bank: Chase" {
		t.Errorf("Expected the generated April instance to be settled, got %+v", instance)
	}
	stored, _ := db.GetBankTransaction(ctx, "txn_apr")
	if stored.BillInstanceId.String != instance.Id {
		t.Errorf("Expected transaction linked to %s, got %+v", instance.Id, stored)
	}
}

func TestRun_SkipRuleWinsOverMatch(t *testing.T) {
	db := setupTestDb(t)
	ctx := context.Background()
	seedBank(t, db, "fca_chase", "Chase")
	seedSpectrum(t, db, true)
	if _, err := db.UpsertSkipRule(ctx, store.SkipRuleParams{RuleType: models.RuleVendor, VendorPattern: "spectrum"}); err != nil {
		t.Fatalf("UpsertSkipRule failed: %v", err)
	}

	provider := &fakeProvider{pages: map[string][]financial.Page{
		"fca_chase": {{Transactions: []financial.Transaction{txn("txn_1", "-90.00", "SPECTRUM")}}},
	}}
	s := newTestService(Deps{Store: db, Provider: provider})

	report, err := s.Run(ctx, Request{SkipEmail: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Transactions.Skipped != 1 || report.Transactions.AutoMatched != 0 {
		t.Errorf("Unexpected results %+v", report.Transactions)
	}
	stored, _ := db.GetBankTransaction(ctx, "txn_1")
	if stored.ApprovalStatus.String != models.ApprovalSkipped || stored.MatchedRecurringBillId.Valid {
		t.Errorf("Expected skipped transaction without a match, got %+v", stored)
	}
}

func TestRun_AccountFailureIsIsolated(t *testing.T) {
	db := setupTestDb(t)
	ctx := context.Background()
	seedBank(t, db, "fca_broken", "Broken Bank")
	seedBank(t, db, "fca_ok", "Good Bank")

	provider := &fakeProvider{
		failFor: map[string]bool{"fca_broken": true},
		pages: map[string][]financial.Page{
			"fca_ok": {{Transactions: []financial.Transaction{txn("txn_ok", "-12.00", "COFFEE")}}},
		},
	}
	s := newTestService(Deps{Store: db, Provider: provider})

	report, err := s.Run(ctx, Request{SkipEmail: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.Success || report.Transactions.Synced != 1 {
		t.Errorf("Expected the healthy account to sync, got %+v", report.Transactions)
	}
	if len(report.Transactions.Errors) != 1 || !strings.HasPrefix(report.Transactions.Errors[0], "Broken Bank:") {
		t.Errorf("Expected one error keyed by institution, got %v", report.Transactions.Errors)
	}

	accounts, _ := db.GetFinancialAccounts(ctx)
	for _, a := range accounts {
		if synced := a.LastSyncAt.Valid; synced != (a.InstitutionName == "Good Bank") {
			t.Errorf("Unexpected sync state for %s: %v", a.InstitutionName, synced)
		}
	}
}

func TestRun_NoStripeKeySkipsBank(t *testing.T) {
	db := setupTestDb(t)
	seedBank(t, db, "fca_chase", "Chase")
	s := newTestService(Deps{Store: db})

	report, err := s.Run(context.Background(), Request{SkipEmail: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Transactions.Synced != 0 || len(report.Transactions.Errors) != 0 {
		t.Errorf("Expected bank sync to be skipped, got %+v", report.Transactions)
	}
}

func TestGenerateFixedBills_AtMostOnePerPeriod(t *testing.T) {
	db := setupTestDb(t)
	ctx := context.Background()
	seedTeam(t, db, 3)

	amount := decimal.NewFromInt(1200)
	rent, err := db.UpsertRecurringBill(ctx, store.RecurringBillParams{
		Name: "Office Rent", Vendor: "Landlord LLC", VendorType: models.VendorOther,
		AmountType: models.AmountFixed, FixedAmount: &amount, DueDay: 12,
	})
	if err != nil {
		t.Fatalf("UpsertRecurringBill failed: %v", err)
	}
	late := decimal.NewFromInt(50)
	if _, err := db.UpsertRecurringBill(ctx, store.RecurringBillParams{
		Name: "Storage", Vendor: "StoreIt", VendorType: models.VendorOther,
		AmountType: models.AmountFixed, FixedAmount: &late, DueDay: 28,
	}); err != nil {
		t.Fatalf("UpsertRecurringBill failed: %v", err)
	}

	notifier := &recordingNotifier{}
	s := newTestService(Deps{Store: db, Notifier: notifier})

	for i := 0; i < 3; i++ {
		report := models.NewScanReport(fixedNow, 1, models.ModeProposed)
		s.generateFixedBills(ctx, report)
		want := 0
		if i == 0 {
			want = 1
		}
		if report.Results.Generated != want {
			t.Errorf("Run %d: expected %d generated, got %d", i, want, report.Results.Generated)
		}
	}
	if len(notifier.due) != 1 || notifier.due[0] != "Landlord LLC" {
		t.Errorf("Expected a single due notification, got %v", notifier.due)
	}

	instance, err := db.GetBillInstanceForPeriod(ctx, rent.Id, "2026-03")
	if err != nil {
		t.Fatalf("GetBillInstanceForPeriod failed: %v", err)
	}
	if instance.Status != models.StatusPending || !instance.DueDate.Time.Equal(time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected generated instance %+v", instance)
	}
	splits, _ := db.GetBillSplits(ctx, instance.Id)
	if len(splits) != 2 {
		t.Errorf("Expected founders split in two, got %d", len(splits))
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in, fallback, want string
		wantErr            bool
	}{
		{"", "", models.ModeProposed, false},
		{"", models.ModeLegacy, models.ModeLegacy, false},
		{" Legacy ", "", models.ModeLegacy, false},
		{"direct", "", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in, tt.fallback)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q, %q) = %q, %v", tt.in, tt.fallback, got, err)
		}
	}
}
