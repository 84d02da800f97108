package financial

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PageSize is the number of transactions requested per page
const PageSize int64 = 100

// FeatureTransactions is the subscription feature needed for transaction sync
const FeatureTransactions = "transactions"

// Transaction is a provider ledger line. Amount is signed, positive is income.
type Transaction struct {
	Id           string
	Amount       decimal.Decimal
	Description  string
	Status       string
	TransactedAt time.Time
}

// Page is one cursor page of transactions
type Page struct {
	Transactions []Transaction
	HasMore      bool
}

// Provider is the financial-data collaborator
type Provider interface {
	Subscribe(ctx context.Context, accountId string, features []string) error
	Refresh(ctx context.Context, accountId string, features []string) error
	ListTransactions(ctx context.Context, accountId, startingAfter string, limit int64) (*Page, error)
}

// EachPage walks every page for an account in cursor order. The cursor for the
// next page is the id of the last transaction on the current one.
func EachPage(ctx context.Context, provider Provider, accountId string, fn func(*Page) error) error {
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := provider.ListTransactions(ctx, accountId, cursor, PageSize)
		if err != nil {
			return fmt.Errorf("list transactions after %q: %w", cursor, err)
		}
		if err := fn(page); err != nil {
			return err
		}

		if !page.HasMore || len(page.Transactions) == 0 {
			return nil
		}
		next := page.Transactions[len(page.Transactions)-1].Id
		if next == cursor {
			return fmt.Errorf("provider cursor did not advance past %q", cursor)
		}
		cursor = next
	}
}
