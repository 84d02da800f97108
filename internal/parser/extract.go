package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Regex patterns for field extraction
var (
	// "$1,234.56" anywhere in the text
	dollarPattern = regexp.MustCompile(`\$\s?(\d[\d,.]*)`)

	// "Amount Due: $142.37", "Total Amount Due $88.10", "Minimum Payment Due: $35.00"
	amountDuePattern = regexp.MustCompile(`(?i)(?:total\s+amount\s+due|amount\s+due|balance\s+due|total\s+due|new\s+balance|statement\s+balance|minimum\s+payment\s+due|payment\s+amount|amount)[:\s]*\$\s?(\d[\d,.]*)`)

	// "Available balance: $5,120.44", "Balance: $300.00"
	balancePattern = regexp.MustCompile(`(?i)(?:available\s+balance|current\s+balance|ending\s+balance|balance)[:\s]*(?:is\s+|of\s+)?\$\s?(\d[\d,.]*)`)

	// "Due Date: March 15, 2026", "due by 03/15/2026", "Payment Due Date: Mar. 15 2026"
	labeledDatePattern = regexp.MustCompile(`(?i)(?:payment\s+due\s+date|due\s+date|due\s+by|due\s+on|pay\s+by|is\s+due)[:\s]*(?:on\s+)?([A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4}|\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2})`)

	// Bare "March 15, 2026" or "03/15/2026"
	bareDatePattern = regexp.MustCompile(`(?i)\b((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}|\d{1,2}/\d{1,2}/\d{4})\b`)

	// "checking", "savings", "credit card" mentioned near an account reference
	accountTypePattern = regexp.MustCompile(`(?i)\b(checking|savings|credit\s+card|money\s+market)\b`)

	whitespace = regexp.MustCompile(`\s+`)
)

var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006-01-02",
}

// ExtractAmount returns the labelled amount when present, otherwise the first
// dollar figure in the text.
func ExtractAmount(text string) Field[decimal.Decimal] {
	if match := amountDuePattern.FindStringSubmatch(text); len(match) > 1 {
		return parseAmount(match[1])
	}
	if match := dollarPattern.FindStringSubmatch(text); len(match) > 1 {
		return parseAmount(match[1])
	}
	return Absent[decimal.Decimal]()
}

// ExtractBalance looks only for labelled balances
func ExtractBalance(text string) Field[decimal.Decimal] {
	if match := balancePattern.FindStringSubmatch(text); len(match) > 1 {
		return parseAmount(match[1])
	}
	return Absent[decimal.Decimal]()
}

func parseAmount(raw string) Field[decimal.Decimal] {
	// trailing punctuation belongs to the sentence
	cleaned := strings.ReplaceAll(strings.TrimRight(raw, ".,"), ",", "")
	amount, err := decimal.NewFromString(cleaned)
	if err != nil || amount.IsNegative() {
		return Malformed[decimal.Decimal](raw)
	}
	return Found(amount, raw)
}

// ExtractDueDate prefers labelled due dates and falls back to the first bare
// date in the text.
func ExtractDueDate(text string) Field[time.Time] {
	if match := labeledDatePattern.FindStringSubmatch(text); len(match) > 1 {
		return parseDate(match[1])
	}
	if match := bareDatePattern.FindStringSubmatch(text); len(match) > 1 {
		return parseDate(match[1])
	}
	return Absent[time.Time]()
}

func parseDate(raw string) Field[time.Time] {
	normalized := whitespace.ReplaceAllString(strings.TrimSpace(raw), " ")
	normalized = strings.Replace(normalized, ".", "", 1)
	normalized = strings.Replace(normalized, "Sept ", "Sep ", 1)

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, titleMonth(normalized), time.UTC); err == nil {
			return Found(t, raw)
		}
	}
	return Malformed[time.Time](raw)
}

// titleMonth turns "MARCH 15, 2026" into "March 15, 2026" so the month layouts apply
func titleMonth(s string) string {
	if s == "" || s[0] < 'A' || (s[0] > 'Z' && s[0] < 'a') || s[0] > 'z' {
		return s
	}
	end := strings.IndexByte(s, ' ')
	if end < 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:end]) + s[end:]
}

// ExtractAccountType returns a lower-cased account kind or ""
func ExtractAccountType(text string) string {
	if match := accountTypePattern.FindStringSubmatch(text); len(match) > 1 {
		return strings.ToLower(whitespace.ReplaceAllString(match[1], " "))
	}
	return ""
}
