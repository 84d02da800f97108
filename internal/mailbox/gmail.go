package mailbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bill-scan-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

// GmailClient reads a mailbox through the Gmail API
type GmailClient struct {
	svc *gmail.Service
}

func NewGmailClient(ctx context.Context, ts oauth2.TokenSource) (*GmailClient, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailClient{svc: svc}, nil
}

// ListMessages follows nextPageToken until every match is listed. MaxResults
// sets the page size.
func (c *GmailClient) ListMessages(ctx context.Context, query Query) ([]string, error) {
	call := c.svc.Users.Messages.List(gmailUser).Q(query.GmailSearch())
	if query.MaxResults > 0 {
		call = call.MaxResults(query.MaxResults)
	}

	var ids []string
	pages := 0
	err := call.Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
		pages++
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}

	zap.L().Debug("Gmail messages listed",
		zap.String("query", query.GmailSearch()),
		zap.Int("count", len(ids)),
		zap.Int("pages", pages))
	return ids, nil
}

func (c *GmailClient) GetMessage(ctx context.Context, id string) (*models.EmailMessage, error) {
	msg, err := c.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail get %s: %w", id, err)
	}
	return convertGmailMessage(msg)
}

func convertGmailMessage(msg *gmail.Message) (*models.EmailMessage, error) {
	out := &models.EmailMessage{
		Id:      msg.Id,
		Snippet: msg.Snippet,
	}
	if msg.InternalDate > 0 {
		out.Date = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload == nil {
		return out, nil
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.From = h.Value
		case "to":
			out.To = h.Value
		case "subject":
			out.Subject = h.Value
		}
	}

	body, err := extractGmailBody(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode body of %s: %w", msg.Id, err)
	}
	out.Body = body
	return out, nil
}

// extractGmailBody prefers text/plain anywhere in the tree, then text/html
// converted to text.
func extractGmailBody(part *gmail.MessagePart) (string, error) {
	if plain := findPart(part, "text/plain"); plain != nil {
		return decodeBase64URL(plain.Body.Data)
	}
	if htmlPart := findPart(part, "text/html"); htmlPart != nil {
		raw, err := decodeBase64URL(htmlPart.Body.Data)
		if err != nil {
			return "", err
		}
		return HTMLToText(raw), nil
	}
	if part.Body != nil {
		return decodeBase64URL(part.Body.Data)
	}
	return "", nil
}

func findPart(part *gmail.MessagePart, mimeType string) *gmail.MessagePart {
	if part == nil {
		return nil
	}
	if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		return part
	}
	for _, child := range part.Parts {
		if found := findPart(child, mimeType); found != nil {
			return found
		}
	}
	return nil
}
