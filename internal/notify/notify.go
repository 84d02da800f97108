package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dueDateLayout = "Jan 2, 2006"

// Notifier is the push side channel. Callers treat every error as best effort.
type Notifier interface {
	BillDue(ctx context.Context, vendor string, amount decimal.Decimal, dueDate *time.Time) error
	PaymentConfirmed(ctx context.Context, vendor string, amount decimal.Decimal) error
}

// Event is the JSON body posted to the webhook
type Event struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Vendor  string `json:"vendor"`
	Amount  string `json:"amount"`
	DueDate string `json:"dueDate,omitempty"`
}

const (
	EventBillDue          = "bill_due"
	EventPaymentConfirmed = "payment_confirmed"
)

func billDueEvent(vendor string, amount decimal.Decimal, dueDate *time.Time) Event {
	event := Event{
		Type:    EventBillDue,
		Title:   fmt.Sprintf("%s bill due", vendor),
		Vendor:  vendor,
		Amount:  amount.StringFixed(2),
		Message: fmt.Sprintf("%s: $%s", vendor, amount.StringFixed(2)),
	}
	if dueDate != nil {
		event.DueDate = dueDate.Format(dueDateLayout)
		event.Message += " due " + event.DueDate
	}
	return event
}

func paymentEvent(vendor string, amount decimal.Decimal) Event {
	return Event{
		Type:    EventPaymentConfirmed,
		Title:   fmt.Sprintf("%s payment confirmed", vendor),
		Vendor:  vendor,
		Amount:  amount.StringFixed(2),
		Message: fmt.Sprintf("Payment of $%s to %s confirmed", amount.StringFixed(2), vendor),
	}
}

// Webhook posts events as JSON to a push endpoint
type Webhook struct {
	url    string
	token  string
	client *http.Client
}

func NewWebhook(url, token string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Webhook{url: url, token: token, client: client}
}

func (w *Webhook) BillDue(ctx context.Context, vendor string, amount decimal.Decimal, dueDate *time.Time) error {
	return w.post(ctx, billDueEvent(vendor, amount, dueDate))
}

func (w *Webhook) PaymentConfirmed(ctx context.Context, vendor string, amount decimal.Decimal) error {
	return w.post(ctx, paymentEvent(vendor, amount))
}

func (w *Webhook) post(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", event.Type, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s notification: %w", event.Type, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send %s notification: status %d: %s", event.Type, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	zap.L().Info("Notification sent",
		zap.String("type", event.Type),
		zap.String("vendor", event.Vendor),
		zap.String("amount", event.Amount))
	return nil
}

// Log writes notifications to the logger when no webhook is configured
type Log struct{}

func (Log) BillDue(_ context.Context, vendor string, amount decimal.Decimal, dueDate *time.Time) error {
	event := billDueEvent(vendor, amount, dueDate)
	zap.L().Info("Bill due", zap.String("vendor", vendor), zap.String("message", event.Message))
	return nil
}

func (Log) PaymentConfirmed(_ context.Context, vendor string, amount decimal.Decimal) error {
	event := paymentEvent(vendor, amount)
	zap.L().Info("Payment confirmed", zap.String("vendor", vendor), zap.String("message", event.Message))
	return nil
}
