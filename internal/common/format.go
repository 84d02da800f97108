package common

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bill-scan-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintHeader prints a title between two rules of '='
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", width))
}

// PrintFooter prints a closing message between two rules of '='
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix returns the box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// FormatMoney renders a dollar amount with two decimals
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// FormatSyncTime renders a nullable timestamp, "never" when unset
func FormatSyncTime(t sql.NullTime) string {
	if !t.Valid {
		return "never"
	}
	return t.Time.UTC().Format(time.RFC3339)
}

// FormatMailbox renders a mailbox on one line
func FormatMailbox(a models.EmailAccount) string {
	state := "scanning"
	switch {
	case !a.IsActive:
		state = "inactive"
	case !a.ScanForBills:
		state = "not scanned"
	}
	return fmt.Sprintf("%-6s %-40s %s", a.Provider, a.Email, state)
}

// FormatReport renders the scan counters as a short summary block
func FormatReport(r *models.ScanReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "mode=%s daysBack=%d emailsFound=%d\n", r.Mode, r.DaysBack, r.EmailsFound)
	res := r.Results
	fmt.Fprintf(&b, "emails: processed=%d proposed=%d created=%d paid=%d skipped=%d generated=%d notifications=%d errors=%d\n",
		res.Processed, res.Proposed, res.Created, res.Paid, res.Skipped, res.Generated, res.Notifications, res.Errors)
	tx := r.Transactions
	fmt.Fprintf(&b, "bank: synced=%d autoMatched=%d skipped=%d duplicates=%d errors=%d",
		tx.Synced, tx.AutoMatched, tx.Skipped, tx.Duplicates, len(tx.Errors))
	for _, e := range tx.Errors {
		b.WriteString("\n  - " + e)
	}
	return b.String()
}
