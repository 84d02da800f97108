package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestWebhook_BillDue(t *testing.T) {
	var got Event
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	due := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	w := NewWebhook(server.URL, "tok", server.Client())
	if err := w.BillDue(context.Background(), "Duke Energy", decimal.RequireFromString("142.37"), &due); err != nil {
		t.Fatalf("BillDue failed: %v", err)
	}

	if auth != "Bearer tok" {
		t.Errorf("Expected bearer token, got %q", auth)
	}
	if got.Type != EventBillDue || got.Amount != "142.37" || got.DueDate != "Mar 15, 2026" {
		t.Errorf("Unexpected event %+v", got)
	}
}

func TestWebhook_NoDueDate(t *testing.T) {
	event := billDueEvent("Chase", decimal.NewFromInt(35), nil)
	if event.DueDate != "" {
		t.Errorf("Expected empty due date, got %q", event.DueDate)
	}
	if event.Message != "Chase: $35.00" {
		t.Errorf("Unexpected message %q", event.Message)
	}
}

func TestWebhook_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	w := NewWebhook(server.URL, "", server.Client())
	if err := w.PaymentConfirmed(context.Background(), "Chase", decimal.NewFromInt(35)); err == nil {
		t.Errorf("Expected error for 502 response")
	}
}
