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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"bill-scan-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Journal records bill settlements as double-entry transactions
type Journal interface {
	RecordSettlement(ctx context.Context, s Settlement) error
	VendorTotal(ctx context.Context, vendor string) (decimal.Decimal, error)
}

// Settlement is one auto-approved bill payment
type Settlement struct {
	BillInstanceId        string
	ProviderTransactionId string
	Vendor                string
	Institution           string
	Period                string
	Amount                decimal.Decimal
	PaidAt                time.Time
	Splits                int
}

// currency precision for USD amounts on the ledger
const usdPrecision = 2

var usdAsset = fmt.Sprintf("USD/%d", usdPrecision)

// Compile-time check: *Service must satisfy Journal.
var _ Journal = (*Service)(nil)

// Service implements Journal backed by a Formance Stack ledger.
type Service struct {
	client *v3.Formance
	ledger string
}

// NewService connects to the stack and creates the ledger if it doesn't already exist.
func NewService(ctx context.Context, cfg models.FormanceConfig) (*Service, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = "bill-settlements"
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	svc := &Service{client: client, ledger: cfg.LedgerName}

	if err := svc.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance journal initialized", zap.String("ledger", cfg.LedgerName))
	return svc, nil
}

func (s *Service) ensureLedger(ctx context.Context) error {
	_, err := s.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: s.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "bill-scan",
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", s.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", s.ledger))
	return nil
}

const numscriptSettlement = `vars {
  monetary $amount
  account $bank
  account $vendor
  string $bill_instance_id
  string $stripe_transaction_id
  string $period
  string $splits
}

send $amount (
  source = @banks:$bank allowing unbounded overdraft
  destination = @vendors:$vendor
)

set_tx_meta("event_type", "bill_settled")
set_tx_meta("bill_instance_id", $bill_instance_id)
set_tx_meta("stripe_transaction_id", $stripe_transaction_id)
set_tx_meta("period", $period)
set_tx_meta("splits", $splits)
`

// RecordSettlement posts the payment. A reference conflict means it was
// already posted and is not an error.
func (s *Service) RecordSettlement(ctx context.Context, st Settlement) error {
	postTx := shared.V2PostTransaction{
		Reference: strPtr(settlementReference(st.BillInstanceId)),
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptSettlement,
			Vars: map[string]string{
				"amount":                fmt.Sprintf("%s %s", usdAsset, smallestUnits(st.Amount)),
				"bank":                  accountSegment(st.Institution),
				"vendor":                accountSegment(st.Vendor),
				"bill_instance_id":      st.BillInstanceId,
				"stripe_transaction_id": st.ProviderTransactionId,
				"period":                st.Period,
				"splits":                fmt.Sprintf("%d", st.Splits),
			},
		},
	}
	if !st.PaidAt.IsZero() {
		ts := st.PaidAt.UTC()
		postTx.Timestamp = &ts
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Debug("Settlement already journaled", zap.String("bill_instance_id", st.BillInstanceId))
			return nil
		}
		return fmt.Errorf("error recording settlement: %w", err)
	}

	zap.L().Info("Settlement recorded in Formance",
		zap.String("bill_instance_id", st.BillInstanceId),
		zap.String("vendor", st.Vendor),
		zap.String("amount", st.Amount.String()))
	return nil
}

// VendorTotal returns everything ever paid to the vendor
func (s *Service) VendorTotal(ctx context.Context, vendor string) (decimal.Decimal, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: "vendors:" + accountSegment(vendor),
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get vendor account: %w", err)
	}
	return fromSmallestUnits(volumeBalance(resp.V2AccountResponse.Data.Volumes, usdAsset)), nil
}

// ---------- helpers ----------

func settlementReference(instanceId string) string {
	return "bill-" + instanceId
}

// accountSegment turns a display name into a ledger address segment
func accountSegment(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "unknown"
	}
	return out
}

func smallestUnits(amount decimal.Decimal) string {
	return amount.Abs().Shift(usdPrecision).Round(0).BigInt().String()
}

func fromSmallestUnits(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -usdPrecision)
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

func strPtr(s string) *string { return &s }

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

// isNotFoundError checks whether a Formance SDK error is NOT_FOUND.
func isNotFoundError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumNotFound
}

// Noop is used when no stack is configured
type Noop struct{}

func (Noop) RecordSettlement(context.Context, Settlement) error { return nil }
func (Noop) VendorTotal(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
