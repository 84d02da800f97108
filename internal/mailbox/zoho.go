package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"bill-scan-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// zohoMaxPage is the largest limit the search endpoint accepts
const zohoMaxPage = 200

// ZohoClient reads a mailbox through the Zoho Mail REST API
type ZohoClient struct {
	http      *http.Client
	ts        oauth2.TokenSource
	baseURL   string
	accountId string

	mu      sync.Mutex
	folders map[string]zohoSummary
}

type zohoSummary struct {
	MessageId    string `json:"messageId"`
	FolderId     string `json:"folderId"`
	Subject      string `json:"subject"`
	FromAddress  string `json:"fromAddress"`
	ToAddress    string `json:"toAddress"`
	Summary      string `json:"summary"`
	ReceivedTime string `json:"receivedTime"`
}

type zohoResponse[T any] struct {
	Status struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
	} `json:"status"`
	Data T `json:"data"`
}

type zohoAccount struct {
	AccountId string `json:"accountId"`
}

type zohoContent struct {
	MessageId string `json:"messageId"`
	Content   string `json:"content"`
}

// NewZohoClient resolves the Zoho account id when it is not already known
func NewZohoClient(ctx context.Context, httpClient *http.Client, ts oauth2.TokenSource, baseURL, accountId string) (*ZohoClient, error) {
	c := &ZohoClient{
		http:      httpClient,
		ts:        ts,
		baseURL:   strings.TrimRight(baseURL, "/"),
		accountId: accountId,
		folders:   make(map[string]zohoSummary),
	}
	if c.accountId == "" {
		var accounts zohoResponse[[]zohoAccount]
		if err := c.get(ctx, "/api/accounts", nil, &accounts); err != nil {
			return nil, fmt.Errorf("resolve zoho account: %w", err)
		}
		if len(accounts.Data) == 0 {
			return nil, fmt.Errorf("resolve zoho account: no accounts returned")
		}
		c.accountId = accounts.Data[0].AccountId
	}
	return c, nil
}

// AccountId is the resolved Zoho account id
func (c *ZohoClient) AccountId() string {
	return c.accountId
}

// ListMessages pages through the search results with start/limit until a
// short page comes back.
func (c *ZohoClient) ListMessages(ctx context.Context, query Query) ([]string, error) {
	limit := query.MaxResults
	if limit <= 0 || limit > zohoMaxPage {
		limit = zohoMaxPage
	}
	cutoff := time.Now().AddDate(0, 0, -ClampDays(query.DaysBack))

	var ids []string
	pages := 0
	for start := int64(1); ; start += limit {
		params := url.Values{}
		params.Set("searchKey", zohoSearchKey(query.Senders))
		params.Set("start", strconv.FormatInt(start, 10))
		params.Set("limit", strconv.FormatInt(limit, 10))

		var resp zohoResponse[[]zohoSummary]
		if err := c.get(ctx, "/api/accounts/"+c.accountId+"/messages/search", params, &resp); err != nil {
			return nil, fmt.Errorf("zoho search: %w", err)
		}
		pages++

		c.mu.Lock()
		for _, m := range resp.Data {
			if received := zohoTime(m.ReceivedTime); !received.IsZero() && received.Before(cutoff) {
				continue
			}
			c.folders[m.MessageId] = m
			ids = append(ids, m.MessageId)
		}
		c.mu.Unlock()

		if int64(len(resp.Data)) < limit {
			break
		}
	}
	zap.L().Debug("Zoho messages listed", zap.Int("count", len(ids)), zap.Int("pages", pages))
	return ids, nil
}

func (c *ZohoClient) GetMessage(ctx context.Context, id string) (*models.EmailMessage, error) {
	c.mu.Lock()
	summary, ok := c.folders[id]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("zoho message %s was not listed", id)
	}

	var resp zohoResponse[zohoContent]
	path := fmt.Sprintf("/api/accounts/%s/folders/%s/messages/%s/content", c.accountId, summary.FolderId, id)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("zoho content %s: %w", id, err)
	}

	body := resp.Data.Content
	if strings.Contains(body, "<") {
		body = HTMLToText(body)
	}
	return &models.EmailMessage{
		Id:      id,
		From:    summary.FromAddress,
		To:      summary.ToAddress,
		Subject: summary.Subject,
		Date:    zohoTime(summary.ReceivedTime),
		Body:    body,
		Snippet: summary.Summary,
	}, nil
}

func (c *ZohoClient) get(ctx context.Context, path string, params url.Values, out any) error {
	tok, err := c.ts.Token()
	if err != nil {
		return fmt.Errorf("zoho token: %w", err)
	}

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func zohoSearchKey(senders []string) string {
	parts := make([]string, 0, len(senders))
	for _, s := range senders {
		parts = append(parts, "sender:"+s)
	}
	return strings.Join(parts, "::or:")
}

// zohoTime parses the millisecond epoch strings Zoho returns
func zohoTime(ms string) time.Time {
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(n).UTC()
}
