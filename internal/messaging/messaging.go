// Package messaging sends staff notifications by email (AWS SES) and to a
// Google Chat space.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/config"
)

// ErrNotConfigured is returned when a channel has no credentials or webhook.
// Callers treat it as "skipped", not as a failure.
var ErrNotConfigured = errors.New("messaging channel not configured")

// MockMessagePrefix prefixes the ids returned while MOCK_SES is active.
const MockMessagePrefix = "mock-msg-"

const (
	sesTimeout  = 15 * time.Second
	chatTimeout = 10 * time.Second
)

// EmailSender is the slice of the SES v2 client the notifier uses.
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Options configures a Notifier.
type Options struct {
	SESRegion    string
	SESAccessKey string
	SESSecretKey string
	FromEmail    string
	MockSES      bool

	ChatWebhookURL string

	// Email overrides the SES client built from the credentials above.
	Email EmailSender
	// HTTPClient is used for webhook calls. Defaults to a client with a short timeout.
	HTTPClient *http.Client
}

// OptionsFromConfig maps application config onto notifier options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SESRegion:      cfg.SESRegion,
		SESAccessKey:   cfg.SESAccessKey,
		SESSecretKey:   cfg.SESSecretKey,
		FromEmail:      cfg.SESFromEmail,
		MockSES:        cfg.MockSES,
		ChatWebhookURL: cfg.GoogleChatWebhookURL,
	}
}

// Notifier delivers email and chat messages.
type Notifier struct {
	opts     Options
	email    EmailSender
	http     *http.Client
	markdown goldmark.Markdown
	logger   *zap.Logger
}

// NewNotifier creates a notifier. The SES client is only built when every SES
// setting is present.
func NewNotifier(opts Options, logger *zap.Logger) *Notifier {
	n := &Notifier{
		opts:     opts,
		email:    opts.Email,
		http:     opts.HTTPClient,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:   logger.Named("messaging"),
	}
	if n.http == nil {
		n.http = &http.Client{Timeout: chatTimeout}
	}
	if n.email == nil && n.emailConfigured() {
		n.email = sesv2.New(sesv2.Options{
			Region: opts.SESRegion,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(opts.SESAccessKey, opts.SESSecretKey, ""),
			),
			HTTPClient:       &http.Client{Timeout: sesTimeout},
			RetryMaxAttempts: 1,
		})
	}
	return n
}

func (n *Notifier) emailConfigured() bool {
	o := n.opts
	return o.SESRegion != "" && o.SESAccessKey != "" && o.SESSecretKey != "" && o.FromEmail != ""
}

// RenderMarkdown converts a markdown body to HTML.
func (n *Notifier) RenderMarkdown(body string) (string, error) {
	var buf bytes.Buffer
	if err := n.markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// SendEmail sends a message to recipient with the markdown body rendered as
// HTML and kept verbatim as the text part. It returns the SES message id.
func (n *Notifier) SendEmail(ctx context.Context, recipient, subject, bodyMarkdown string) (string, error) {
	if !n.emailConfigured() {
		n.logger.Info("email skipped: SES not fully configured", zap.String("recipient", recipient))
		return "", ErrNotConfigured
	}

	bodyHTML, err := n.RenderMarkdown(bodyMarkdown)
	if err != nil {
		return "", err
	}

	if n.opts.MockSES {
		n.logger.Info("MOCK SES: email not sent", zap.String("recipient", recipient), zap.String("subject", subject))
		return MockMessagePrefix + uuid.NewString(), nil
	}

	out, err := n.email.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.opts.FromEmail),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(bodyHTML)},
					Text: &types.Content{Data: aws.String(bodyMarkdown)},
				},
			},
		},
	})
	if err != nil {
		n.logger.Error("failed to send SES email", zap.String("recipient", recipient), zap.Error(err))
		return "", fmt.Errorf("send email to %s: %w", recipient, err)
	}

	id := aws.ToString(out.MessageId)
	n.logger.Info("email sent", zap.String("recipient", recipient), zap.String("message_id", id))
	return id, nil
}

// SendChat posts text to the configured Google Chat webhook.
func (n *Notifier) SendChat(ctx context.Context, text string) error {
	if n.opts.ChatWebhookURL == "" {
		n.logger.Info("chat notification skipped: webhook URL not configured")
		return ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encode chat message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.opts.ChatWebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("post chat message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("chat webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
