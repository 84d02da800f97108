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

package parser

import (
	"strings"
	"time"

	"bill-scan-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Kind is what a recognised email represents
type Kind string

const (
	KindBill    Kind = "bill"
	KindBalance Kind = "balance"
	KindPayment Kind = "payment"
)

// ParsedBill is the structured result of a recognised email
type ParsedBill struct {
	Kind        Kind
	Vendor      string
	VendorType  string
	Amount      Field[decimal.Decimal]
	DueDate     Field[time.Time]
	Balance     Field[decimal.Decimal]
	AccountType string
	Rule        string
}

// Unfilled lists the extracted fields that did not parse, with their state
func (b *ParsedBill) Unfilled() []zap.Field {
	var fields []zap.Field
	switch b.Kind {
	case KindBalance:
		if !b.Balance.OK() {
			fields = append(fields, zap.Stringer("balance", b.Balance.State))
		}
	default:
		if !b.Amount.OK() {
			fields = append(fields, zap.Stringer("amount", b.Amount.State))
		}
		if b.Kind == KindBill && !b.DueDate.OK() {
			fields = append(fields, zap.Stringer("due_date", b.DueDate.State))
		}
	}
	return fields
}

// Outcome maps the parse kind onto the processed-email outcome
func (b *ParsedBill) Outcome() string {
	switch b.Kind {
	case KindBalance:
		return models.OutcomeBalance
	case KindPayment:
		return models.OutcomePayment
	default:
		return models.OutcomeBill
	}
}

// Parser classifies emails with an ordered rule table. The first rule whose
// Match accepts the email decides the result.
type Parser struct {
	rules []Rule
}

func New(rules ...Rule) *Parser {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Parser{rules: rules}
}

// Parse returns nil when no rule recognises the email
func (p *Parser) Parse(msg models.EmailMessage) *ParsedBill {
	for _, rule := range p.rules {
		if !rule.Match(msg) {
			continue
		}
		bill := rule.Parse(msg)
		if bill == nil {
			return nil
		}
		bill.Rule = rule.Name
		if missing := bill.Unfilled(); len(missing) > 0 {
			zap.L().Debug("Parsed email with unfilled fields",
				append([]zap.Field{
					zap.String("email_id", msg.Id),
					zap.String("vendor", bill.Vendor),
					zap.String("rule", rule.Name),
				}, missing...)...)
		}
		return bill
	}
	return nil
}

// Senders returns every sender fragment the rules listen for, deduplicated in
// rule order.
func (p *Parser) Senders() []string {
	seen := make(map[string]bool)
	var senders []string
	for _, rule := range p.rules {
		for _, sender := range rule.Senders {
			key := strings.ToLower(sender)
			if seen[key] {
				continue
			}
			seen[key] = true
			senders = append(senders, sender)
		}
	}
	return senders
}
