package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"bill-scan-go/internal/models"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// Archiver keeps a raw copy of recognised emails
type Archiver interface {
	Put(ctx context.Context, msg models.EmailMessage, account string) (string, error)
	Close() error
}

// GCSArchiver writes emails to a Cloud Storage bucket. It relies on
// Application Default Credentials.
type GCSArchiver struct {
	client *storage.Client
	bucket string
}

func NewGCSArchiver(ctx context.Context, bucket string) (*GCSArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket cannot be empty")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	zap.L().Info("Email archive enabled", zap.String("bucket", bucket))
	return &GCSArchiver{client: client, bucket: bucket}, nil
}

// Put uploads the email and returns its gs:// URI
func (a *GCSArchiver) Put(ctx context.Context, msg models.EmailMessage, account string) (string, error) {
	objectName := ObjectName(account, msg.Id)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"
	w.Metadata = map[string]string{
		"from":    msg.From,
		"subject": msg.Subject,
	}

	if _, err := w.Write(Render(msg)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s: %w", objectName, err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", objectName, err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

func (a *GCSArchiver) Close() error {
	return a.client.Close()
}

// ObjectName is emails/<account>/<emailId>.txt with path separators stripped
// from both parts.
func ObjectName(account, emailId string) string {
	if account == "" {
		account = "default"
	}
	return path.Join("emails", sanitize(account), sanitize(emailId)+".txt")
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

// Render produces the archived text form of an email
func Render(msg models.EmailMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Id: %s\n", msg.Id)
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	if !msg.Date.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", msg.Date.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// Noop is used when no bucket is configured
type Noop struct{}

func (Noop) Put(context.Context, models.EmailMessage, string) (string, error) { return "", nil }
func (Noop) Close() error                                                     { return nil }
