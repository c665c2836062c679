package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// MailgunProvider sends email through the Mailgun messages API
type MailgunProvider struct {
	apiKey    string
	domain    string
	fromEmail string
	client    *resty.Client
}

// NewMailgunProvider creates a Mailgun provider
func NewMailgunProvider(apiKey, domain, fromEmail string, timeout time.Duration) *MailgunProvider {
	return &MailgunProvider{
		apiKey:    apiKey,
		domain:    domain,
		fromEmail: fromEmail,
		client:    resty.New().SetTimeout(timeout),
	}
}

func (p *MailgunProvider) Name() string {
	return "mailgun"
}

func (p *MailgunProvider) Configured() bool {
	return p.apiKey != "" && p.domain != ""
}

func (p *MailgunProvider) Send(ctx context.Context, to []string, subject, body string) error {
	endpoint := fmt.Sprintf("https://api.mailgun.net/v3/%s/messages", p.domain)

	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth("api", p.apiKey).
		SetFormData(map[string]string{
			"from":    p.fromEmail,
			"to":      strings.Join(to, ","),
			"subject": subject,
			"text":    body,
		}).
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("mailgun request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mailgun returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
