package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bill-scan-go/internal/mailbox"
	"bill-scan-go/internal/models"
	"bill-scan-go/internal/parser"
	"bill-scan-go/internal/store"

	"go.uber.org/zap"
)

const paymentMethodEmail = "Email confirmation"

// emailRun carries the per-run state shared by every message
type emailRun struct {
	mode      string
	report    *models.ScanReport
	recurring []models.RecurringBill
}

func (s *Service) scanEmail(ctx context.Context, accounts []models.EmailAccount, daysBack int, mode string, report *models.ScanReport) {
	run := &emailRun{mode: mode, report: report}
	if mode == models.ModeLegacy {
		bills, err := s.store.GetActiveRecurringBills(ctx)
		if err != nil {
			zap.L().Error("Failed to load recurring bills", zap.Error(err))
			report.Results.Errors++
		}
		run.recurring = bills
	}

	query := mailbox.Query{
		Senders:    s.parser.Senders(),
		DaysBack:   daysBack,
		MaxResults: s.cfg.MaxResults,
	}

	for _, account := range accounts {
		log := zap.L().With(zap.String("mailbox", account.Email), zap.String("provider", account.Provider))

		client, err := s.opener.Open(ctx, account)
		if err != nil {
			log.Error("Failed to open mailbox", zap.Error(err))
			report.Results.Errors++
			continue
		}

		fetched, err := mailbox.Fetch(ctx, client, s.store, query)
		if err != nil {
			log.Error("Failed to fetch mailbox", zap.Error(err))
			report.Results.Errors++
			continue
		}
		report.Results.Errors += fetched.Errors
		// seen on an earlier run
		report.Results.Skipped += fetched.AlreadyProcessed
		report.EmailsFound += len(fetched.Messages)

		for _, msg := range fetched.Messages {
			if err := s.handleEmail(ctx, run, account, msg); err != nil {
				log.Error("Failed to process email",
					zap.String("email_id", msg.Id),
					zap.String("subject", msg.Subject),
					zap.Error(err))
				report.Results.Errors++
				continue
			}
			report.Results.Processed++
		}
	}
}

// handleEmail runs one message through the parser and writes the outcome. An
// error leaves the message unmarked so the next run retries it.
func (s *Service) handleEmail(ctx context.Context, run *emailRun, account models.EmailAccount, msg models.EmailMessage) error {
	parsed := s.parser.Parse(msg)
	if parsed == nil {
		if err := s.markProcessed(ctx, account, msg.Id, "", models.OutcomeNotBill); err != nil {
			return err
		}
		run.report.Results.Skipped++
		return nil
	}

	s.archiveEmail(ctx, run.report, account, msg)

	if run.mode == models.ModeProposed {
		return s.propose(ctx, run, account, msg, parsed)
	}

	switch parsed.Kind {
	case parser.KindBill:
		return s.createFromEmail(ctx, run, account, msg, parsed)
	case parser.KindPayment:
		return s.confirmPayment(ctx, run, account, msg, parsed)
	default:
		if err := s.markProcessed(ctx, account, msg.Id, parsed.Vendor, models.OutcomeBalance); err != nil {
			return err
		}
		run.report.Results.Skipped++
		return nil
	}
}

func (s *Service) propose(ctx context.Context, run *emailRun, account models.EmailAccount, msg models.EmailMessage, parsed *parser.ParsedBill) error {
	created, err := s.store.CreateProposedBill(ctx, store.ProposedBillParams{
		EmailId:        msg.Id,
		EmailAccountId: account.Id,
		Vendor:         parsed.Vendor,
		VendorType:     parsed.VendorType,
		Amount:         parsed.Amount.Ptr(),
		DueDate:        parsed.DueDate.Ptr(),
		Balance:        parsed.Balance.Ptr(),
		AccountType:    parsed.AccountType,
		Subject:        msg.Subject,
		Snippet:        msg.Snippet,
	})
	if err != nil {
		return fmt.Errorf("create proposed bill: %w", err)
	}

	outcome := models.OutcomeProposed
	if created {
		run.report.Results.Proposed++
	} else {
		outcome = models.OutcomeDuplicate
		run.report.Results.Skipped++
	}
	return s.markProcessed(ctx, account, msg.Id, parsed.Vendor, outcome)
}

// createFromEmail turns a parsed bill straight into a pending instance. A bill
// without a usable amount is proposed for review instead.
func (s *Service) createFromEmail(ctx context.Context, run *emailRun, account models.EmailAccount, msg models.EmailMessage, parsed *parser.ParsedBill) error {
	if !parsed.Amount.OK() {
		zap.L().Info("Bill amount missing, proposing for review",
			zap.String("email_id", msg.Id),
			zap.String("vendor", parsed.Vendor),
			zap.Stringer("amount", parsed.Amount.State))
		return s.propose(ctx, run, account, msg, parsed)
	}

	periodFrom := s.now()
	if parsed.DueDate.OK() {
		periodFrom = parsed.DueDate.Value
	}
	amount := parsed.Amount.Value.Round(2)

	splitters, err := s.store.GetBillSplitters(ctx)
	if err != nil {
		return fmt.Errorf("load bill splitters: %w", err)
	}

	params := store.BillInstanceParams{
		Vendor:     parsed.Vendor,
		VendorType: parsed.VendorType,
		Amount:     amount,
		DueDate:    parsed.DueDate.Ptr(),
		Period:     Period(periodFrom),
		EmailId:    msg.Id,
		Splits:     EvenSplits(amount, splitters),
	}
	if rb := recurringForVendor(run.recurring, parsed.Vendor); rb != nil {
		params.RecurringBillId = rb.Id
	}

	instance, created, err := s.store.CreateBillInstance(ctx, params)
	if err != nil {
		return fmt.Errorf("create bill instance: %w", err)
	}

	outcome := models.OutcomeBill
	if created {
		run.report.Results.Created++
		s.notifyBillDue(ctx, run.report, instance)
	} else {
		outcome = models.OutcomeDuplicate
		run.report.Results.Skipped++
	}
	return s.markProcessed(ctx, account, msg.Id, parsed.Vendor, outcome)
}

// confirmPayment settles the vendor's instance for the current period from a
// payment confirmation email. An instance already paid by other means only
// triggers the notification.
func (s *Service) confirmPayment(ctx context.Context, run *emailRun, account models.EmailAccount, msg models.EmailMessage, parsed *parser.ParsedBill) error {
	instance, err := s.store.FindBillInstanceByVendor(ctx, parsed.Vendor, Period(s.now()))
	if errors.Is(err, store.ErrNotFound) {
		zap.L().Info("No bill instance for payment confirmation",
			zap.String("email_id", msg.Id),
			zap.String("vendor", parsed.Vendor))
		run.report.Results.Skipped++
		return s.markProcessed(ctx, account, msg.Id, parsed.Vendor, models.OutcomePayment)
	}
	if err != nil {
		return fmt.Errorf("find bill instance: %w", err)
	}

	if !instance.IsPaid {
		paidAt := msg.Date
		if paidAt.IsZero() {
			paidAt = s.now()
		}
		if err := s.store.MarkBillInstancePaid(ctx, instance.Id, paymentMethodEmail, paidAt); err != nil {
			return fmt.Errorf("mark bill paid: %w", err)
		}
		run.report.Results.Paid++
	}
	s.notifyPayment(ctx, run.report, instance)
	return s.markProcessed(ctx, account, msg.Id, parsed.Vendor, models.OutcomePayment)
}

func (s *Service) markProcessed(ctx context.Context, account models.EmailAccount, emailId, vendor, outcome string) error {
	_, err := s.store.MarkEmailProcessed(ctx, store.ProcessedEmailParams{
		EmailId:        emailId,
		Vendor:         vendor,
		Outcome:        outcome,
		EmailAccountId: account.Id,
	})
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

func (s *Service) archiveEmail(ctx context.Context, report *models.ScanReport, account models.EmailAccount, msg models.EmailMessage) {
	uri, err := s.archiver.Put(ctx, msg, account.Email)
	if err != nil {
		zap.L().Warn("Failed to archive email", zap.String("email_id", msg.Id), zap.Error(err))
		report.Results.Errors++
		return
	}
	if uri != "" {
		zap.L().Debug("Email archived", zap.String("email_id", msg.Id), zap.String("uri", uri))
	}
}

func recurringForVendor(bills []models.RecurringBill, vendor string) *models.RecurringBill {
	for i := range bills {
		if strings.EqualFold(strings.TrimSpace(bills[i].Vendor), strings.TrimSpace(vendor)) {
			return &bills[i]
		}
	}
	return nil
}
