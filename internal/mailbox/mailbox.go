package mailbox

import (
	"context"
	"fmt"
	"strings"

	"bill-scan-go/internal/models"

	"go.uber.org/zap"
)

const (
	MinDaysBack     = 1
	MaxDaysBack     = 60
	DefaultDaysBack = 1
)

// Client is a read-only mailbox
type Client interface {
	ListMessages(ctx context.Context, query Query) ([]string, error)
	GetMessage(ctx context.Context, id string) (*models.EmailMessage, error)
}

// Opener builds a Client for a stored mailbox
type Opener interface {
	Open(ctx context.Context, account models.EmailAccount) (Client, error)
}

// Query selects messages from allow-listed senders within a lookback window
type Query struct {
	Senders    []string
	DaysBack   int
	MaxResults int64
}

// ClampDays keeps the lookback window in [1, 60]. Zero or negative means the default.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDaysBack
	case days > MaxDaysBack:
		return MaxDaysBack
	default:
		return days
	}
}

// GmailSearch renders the query in Gmail search syntax
func (q Query) GmailSearch() string {
	var b strings.Builder
	if len(q.Senders) > 0 {
		b.WriteString("from:(")
		b.WriteString(strings.Join(q.Senders, " OR "))
		b.WriteString(") ")
	}
	fmt.Fprintf(&b, "newer_than:%dd", ClampDays(q.DaysBack))
	return b.String()
}

// ProcessedChecker reports whether a message id has already been examined
type ProcessedChecker interface {
	IsEmailProcessed(ctx context.Context, emailId string) (bool, error)
}

// FetchResult holds the unseen messages of one mailbox
type FetchResult struct {
	Messages         []models.EmailMessage
	Listed           int
	AlreadyProcessed int
	Errors           int
}

// Fetch lists candidate messages and downloads every one not already
// processed. A failing message is counted and skipped. Only a failed listing
// is returned as an error.
func Fetch(ctx context.Context, client Client, checker ProcessedChecker, query Query) (*FetchResult, error) {
	query.DaysBack = ClampDays(query.DaysBack)

	ids, err := client.ListMessages(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	result := &FetchResult{Listed: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		processed, err := checker.IsEmailProcessed(ctx, id)
		if err != nil {
			zap.L().Error("Failed to check processed email", zap.String("email_id", id), zap.Error(err))
			result.Errors++
			continue
		}
		if processed {
			result.AlreadyProcessed++
			continue
		}

		msg, err := client.GetMessage(ctx, id)
		if err != nil {
			zap.L().Error("Failed to fetch message", zap.String("email_id", id), zap.Error(err))
			result.Errors++
			continue
		}
		result.Messages = append(result.Messages, *msg)
	}

	zap.L().Info("Mailbox fetched",
		zap.Int("listed", result.Listed),
		zap.Int("new", len(result.Messages)),
		zap.Int("already_processed", result.AlreadyProcessed),
		zap.Int("errors", result.Errors))
	return result, nil
}
