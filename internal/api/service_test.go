package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bill-scan-go/internal/billing"
	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeScanner struct {
	last  billing.Request
	calls int
	err   error
}

func (f *fakeScanner) Run(_ context.Context, req billing.Request) (*models.ScanReport, error) {
	f.calls++
	f.last = req
	if _, err := billing.ParseMode(req.Mode, ""); err != nil {
		return nil, err
	}
	report := models.NewScanReport(time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), req.DaysBack, models.ModeProposed)
	if f.err != nil {
		report.Success = false
		report.Error = f.err.Error()
		return report, f.err
	}
	report.EmailsFound = 2
	return report, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) GetTeamMembers(context.Context) ([]models.TeamMember, error) {
	return nil, f.err
}

func do(router http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestScanBills_Auth(t *testing.T) {
	scanner := &fakeScanner{}
	router := NewScanService(scanner, fakeHealth{}, models.AuthConfig{CronSecret: "s3cret", AdminAPIKey: "admin"}, 1).Router()

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"wrong bearer", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"secret without scheme", map[string]string{"Authorization": "s3cret"}, http.StatusUnauthorized},
		{"cron secret", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusOK},
		{"admin key", map[string]string{"x-api-key": "admin"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(router, http.MethodGet, "/api/cron/scan-bills", tt.headers); w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
	if scanner.calls != 2 {
		t.Errorf("Expected scanner to run only for authorized requests, ran %d times", scanner.calls)
	}
}

func TestScanBills_NoAuthConfigured(t *testing.T) {
	router := NewScanService(&fakeScanner{}, fakeHealth{}, models.AuthConfig{}, 1).Router()
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		if w := do(router, method, "/api/cron/scan-bills", nil); w.Code != http.StatusOK {
			t.Errorf("%s: expected 200 without configured auth, got %d", method, w.Code)
		}
	}
}

func TestScanBills_Params(t *testing.T) {
	scanner := &fakeScanner{}
	router := NewScanService(scanner, fakeHealth{}, models.AuthConfig{}, 1).Router()

	w := do(router, http.MethodGet, "/api/cron/scan-bills?daysBack=14&mode=legacy&skipBank=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if scanner.last.DaysBack != 14 || scanner.last.Mode != "legacy" || !scanner.last.SkipBank || scanner.last.SkipEmail {
		t.Errorf("Unexpected request %+v", scanner.last)
	}

	var report models.ScanReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if !report.Success || report.EmailsFound != 2 || report.Transactions.Errors == nil {
		t.Errorf("Unexpected report %+v", report)
	}

	if w := do(router, http.MethodGet, "/api/cron/scan-bills?daysBack=abc", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for non-numeric daysBack, got %d", w.Code)
	}
	if scanner.last.DaysBack != 1 {
		t.Errorf("Expected non-numeric daysBack to fall back to the default, got %d", scanner.last.DaysBack)
	}

	do(router, http.MethodGet, "/api/cron/scan-bills?daysBack=30", nil)
	do(router, http.MethodGet, "/api/cron/scan-bills", nil)
	if scanner.last.DaysBack != 1 {
		t.Errorf("Expected default daysBack, got %d", scanner.last.DaysBack)
	}

	if w := do(router, http.MethodGet, "/api/cron/scan-bills?mode=direct", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown mode, got %d", w.Code)
	}
}

func TestScanBills_FatalConfig(t *testing.T) {
	scanner := &fakeScanner{err: fmt.Errorf("no mailbox: %w", store.ErrNoEmailAccounts)}
	router := NewScanService(scanner, fakeHealth{}, models.AuthConfig{}, 1).Router()

	w := do(router, http.MethodGet, "/api/cron/scan-bills", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["success"] != false || body["error"] == "" {
		t.Errorf("Expected failed report with message, got %v", body)
	}
}

func TestHealthCheck(t *testing.T) {
	router := NewScanService(&fakeScanner{}, fakeHealth{}, models.AuthConfig{CronSecret: "x"}, 1).Router()
	if w := do(router, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("Expected healthy, got %d", w.Code)
	}

	router = NewScanService(&fakeScanner{}, fakeHealth{err: errors.New("disk I/O error")}, models.AuthConfig{}, 1).Router()
	if w := do(router, http.MethodGet, "/healthz", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	if w := do(router, http.MethodGet, "/boom", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 after panic, got %d", w.Code)
	}
}
