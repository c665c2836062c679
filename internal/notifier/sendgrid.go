package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const sendgridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGridProvider sends email through the SendGrid v3 API
type SendGridProvider struct {
	apiKey    string
	fromEmail string
	client    *resty.Client
}

// NewSendGridProvider creates a SendGrid provider
func NewSendGridProvider(apiKey, fromEmail string, timeout time.Duration) *SendGridProvider {
	return &SendGridProvider{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		client:    resty.New().SetTimeout(timeout),
	}
}

func (p *SendGridProvider) Name() string {
	return "sendgrid"
}

func (p *SendGridProvider) Configured() bool {
	return p.apiKey != ""
}

func (p *SendGridProvider) Send(ctx context.Context, to []string, subject, body string) error {
	recipients := make([]map[string]string, 0, len(to))
	for _, addr := range to {
		recipients = append(recipients, map[string]string{"email": addr})
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(map[string]interface{}{
			"personalizations": []map[string]interface{}{
				{"to": recipients},
			},
			"from":    map[string]string{"email": p.fromEmail},
			"subject": subject,
			"content": []map[string]string{
				{"type": "text/plain", "value": body},
			},
		}).
		Post(sendgridEndpoint)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
