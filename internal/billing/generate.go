package billing

import (
	"context"
	"errors"
	"time"

	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"go.uber.org/zap"
)

// rollAfterDays is how far past its due day a bill may be before the next
// month's occurrence is considered instead.
const rollAfterDays = 5

// NextDueDate returns the due date for dueDay in now's month, or in the
// following month once this month's has passed by more than five days. Days
// past the end of a month clamp to its last day.
func NextDueDate(now time.Time, dueDay int) time.Time {
	today := truncateDay(now)
	due := dueInMonth(today.Year(), today.Month(), dueDay)
	if today.Sub(due) > rollAfterDays*24*time.Hour {
		next := today.AddDate(0, 0, -today.Day()+1).AddDate(0, 1, 0)
		due = dueInMonth(next.Year(), next.Month(), dueDay)
	}
	return due
}

// InDueWindow reports whether due lies within [now-before, now+after] days
func InDueWindow(now, due time.Time, before, after int) bool {
	today := truncateDay(now)
	return !due.Before(today.AddDate(0, 0, -before)) && !due.After(today.AddDate(0, 0, after))
}

func dueInMonth(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// generateFixedBills creates the pending instance of every fixed-amount bill
// whose due date is close, split among the founders.
func (s *Service) generateFixedBills(ctx context.Context, report *models.ScanReport) {
	bills, err := s.store.GetActiveRecurringBills(ctx)
	if err != nil {
		zap.L().Error("Failed to load recurring bills", zap.Error(err))
		report.Results.Errors++
		return
	}

	now := s.now()
	var founders []models.TeamMember
	foundersLoaded := false

	for i := range bills {
		bill := &bills[i]
		if bill.AmountType != models.AmountFixed || !bill.FixedAmount.Valid || bill.DueDay <= 0 {
			continue
		}

		due := NextDueDate(now, bill.DueDay)
		if !InDueWindow(now, due, s.cfg.DueWindowBefore, s.cfg.DueWindowAfter) {
			continue
		}
		period := Period(due)
		log := zap.L().With(zap.String("recurring_bill_id", bill.Id), zap.String("period", period))

		_, err := s.store.GetBillInstanceForPeriod(ctx, bill.Id, period)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("Failed to check bill instance", zap.Error(err))
			report.Results.Errors++
			continue
		}

		if !foundersLoaded {
			founders, err = s.store.GetFounders(ctx)
			if err != nil {
				log.Error("Failed to load founders", zap.Error(err))
				report.Results.Errors++
				return
			}
			foundersLoaded = true
		}

		amount := bill.FixedAmount.Decimal.Round(2)
		instance, created, err := s.store.CreateBillInstance(ctx, store.BillInstanceParams{
			RecurringBillId: bill.Id,
			Vendor:          bill.Vendor,
			VendorType:      bill.VendorType,
			Amount:          amount,
			DueDate:         &due,
			Period:          period,
			Splits:          EvenSplits(amount, founders),
		})
		if err != nil {
			log.Error("Failed to generate bill instance", zap.Error(err))
			report.Results.Errors++
			continue
		}
		if !created {
			continue
		}

		log.Info("Generated fixed bill", zap.String("vendor", bill.Vendor), zap.Time("due_date", due))
		report.Results.Generated++
		s.notifyBillDue(ctx, report, instance)
	}
}
