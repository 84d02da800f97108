package parser

import (
	"strings"

	"bill-scan-go/internal/models"
)

// Rule pairs a classification predicate with its field extractor
type Rule struct {
	Name    string
	Senders []string
	Match   func(models.EmailMessage) bool
	Parse   func(models.EmailMessage) *ParsedBill
}

type biller struct {
	name       string
	vendorType string
	senders    []string
	// subject must contain one of these when set
	subjectAny []string
	// body or subject must contain one of these when set
	contentAny []string
}

var billers = []biller{
	{
		name:       "Duke Energy",
		vendorType: models.VendorUtility,
		senders:    []string{"duke-energy.com"},
	},
	{
		name:       "Chase",
		vendorType: models.VendorCreditCard,
		senders:    []string{"chase.com"},
		subjectAny: []string{"statement", "payment due", "minimum payment", "autopay"},
	},
	{
		name:       "American Express",
		vendorType: models.VendorCreditCard,
		senders:    []string{"americanexpress.com", "aexp.com"},
		subjectAny: []string{"statement", "payment due", "minimum payment", "autopay"},
	},
	{
		name:       "Republic Services",
		vendorType: models.VendorTrash,
		senders:    []string{"republicservices.com"},
		subjectAny: []string{"bill", "invoice", "statement", "payment due"},
	},
	{
		name:       "Water Utility",
		vendorType: models.VendorWater,
		senders:    []string{"invoicecloud.com", "invoicecloud.net"},
		contentAny: []string{"water"},
	},
}

var paymentSubjects = []string{
	"payment received",
	"payment confirmation",
	"thank you for your payment",
	"we received your payment",
	"payment was received",
	"payment posted",
}

var (
	bankSenders      = []string{"bankofamerica.com"}
	bankSubjects     = []string{"balance", "alert", "summary"}
	bankPromoSubject = []string{"welcome", "bonus", "offer"}
)

// DefaultRules is the built-in table. Payment confirmations come first so a
// biller's "payment received" mail is never read as a new bill.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, 2*len(billers)+1)
	for _, b := range billers {
		rules = append(rules, paymentRule(b))
	}
	for _, b := range billers {
		rules = append(rules, billRule(b))
	}
	return append(rules, bankBalanceRule())
}

func paymentRule(b biller) Rule {
	return Rule{
		Name:    b.name + " payment",
		Senders: b.senders,
		Match: func(msg models.EmailMessage) bool {
			return senderMatches(msg.From, b.senders) && containsAny(msg.Subject, paymentSubjects)
		},
		Parse: func(msg models.EmailMessage) *ParsedBill {
			return &ParsedBill{
				Kind:       KindPayment,
				Vendor:     b.name,
				VendorType: b.vendorType,
				Amount:     ExtractAmount(searchText(msg)),
			}
		},
	}
}

func billRule(b biller) Rule {
	return Rule{
		Name:    b.name,
		Senders: b.senders,
		Match: func(msg models.EmailMessage) bool {
			if !senderMatches(msg.From, b.senders) {
				return false
			}
			if len(b.subjectAny) > 0 && !containsAny(msg.Subject, b.subjectAny) {
				return false
			}
			if len(b.contentAny) > 0 && !containsAny(msg.Subject+" "+searchText(msg), b.contentAny) {
				return false
			}
			return true
		},
		Parse: func(msg models.EmailMessage) *ParsedBill {
			text := searchText(msg)
			return &ParsedBill{
				Kind:       KindBill,
				Vendor:     b.name,
				VendorType: b.vendorType,
				Amount:     ExtractAmount(text),
				DueDate:    ExtractDueDate(text),
			}
		},
	}
}

func bankBalanceRule() Rule {
	return Rule{
		Name:    "Bank of America balance",
		Senders: bankSenders,
		Match: func(msg models.EmailMessage) bool {
			return senderMatches(msg.From, bankSenders) &&
				containsAny(msg.Subject, bankSubjects) &&
				!containsAny(msg.Subject, bankPromoSubject)
		},
		Parse: func(msg models.EmailMessage) *ParsedBill {
			text := searchText(msg)
			return &ParsedBill{
				Kind:        KindBalance,
				Vendor:      "Bank of America",
				VendorType:  models.VendorBank,
				Balance:     ExtractBalance(text),
				AccountType: ExtractAccountType(text),
			}
		},
	}
}

func searchText(msg models.EmailMessage) string {
	if msg.Snippet == "" {
		return msg.Body
	}
	return msg.Body + "\n" + msg.Snippet
}

func senderMatches(from string, senders []string) bool {
	return containsAny(from, senders)
}

func containsAny(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, needle := range needles {
		if strings.Contains(lower, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}
