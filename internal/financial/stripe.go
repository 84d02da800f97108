package financial

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"go.uber.org/zap"
)

// Compile-time check: *StripeProvider must satisfy Provider.
var _ Provider = (*StripeProvider)(nil)

// StripeProvider reads linked accounts through Stripe Financial Connections
type StripeProvider struct {
	sc *client.API
}

func NewStripeProvider(secretKey string, httpClient *http.Client) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key cannot be empty")
	}

	var backends *stripe.Backends
	if httpClient != nil {
		config := &stripe.BackendConfig{HTTPClient: httpClient}
		backends = &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, config),
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, config),
			Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, config),
		}
	}

	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeProvider{sc: sc}, nil
}

func (p *StripeProvider) Subscribe(ctx context.Context, accountId string, features []string) error {
	params := &stripe.FinancialConnectionsAccountSubscribeParams{Features: stripe.StringSlice(features)}
	params.Context = ctx
	if _, err := p.sc.FinancialConnectionsAccounts.Subscribe(accountId, params); err != nil {
		return fmt.Errorf("subscribe %s: %w", accountId, err)
	}
	return nil
}

func (p *StripeProvider) Refresh(ctx context.Context, accountId string, features []string) error {
	params := &stripe.FinancialConnectionsAccountRefreshParams{Features: stripe.StringSlice(features)}
	params.Context = ctx
	if _, err := p.sc.FinancialConnectionsAccounts.Refresh(accountId, params); err != nil {
		return fmt.Errorf("refresh %s: %w", accountId, err)
	}
	return nil
}

// ListTransactions fetches a single page. Stripe amounts are integer cents.
func (p *StripeProvider) ListTransactions(ctx context.Context, accountId, startingAfter string, limit int64) (*Page, error) {
	params := &stripe.FinancialConnectionsTransactionListParams{
		Account: stripe.String(accountId),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true
	if startingAfter != "" {
		params.StartingAfter = stripe.String(startingAfter)
	}

	iter := p.sc.FinancialConnectionsTransactions.List(params)
	page := &Page{}
	for iter.Next() {
		txn := iter.FinancialConnectionsTransaction()
		page.Transactions = append(page.Transactions, Transaction{
			Id:           txn.ID,
			Amount:       decimal.New(txn.Amount, -2),
			Description:  txn.Description,
			Status:       string(txn.Status),
			TransactedAt: time.Unix(txn.TransactedAt, 0).UTC(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", accountId, err)
	}
	if meta := iter.Meta(); meta != nil {
		page.HasMore = meta.HasMore
	}

	zap.L().Debug("Fetched transaction page",
		zap.String("account", accountId),
		zap.String("starting_after", startingAfter),
		zap.Int("count", len(page.Transactions)),
		zap.Bool("has_more", page.HasMore))
	return page, nil
}
