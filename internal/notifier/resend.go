package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendProvider sends email through the Resend API
type ResendProvider struct {
	apiKey    string
	fromEmail string
	client    *resty.Client
}

// NewResendProvider creates a Resend provider
func NewResendProvider(apiKey, fromEmail string, timeout time.Duration) *ResendProvider {
	return &ResendProvider{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		client:    resty.New().SetTimeout(timeout),
	}
}

func (p *ResendProvider) Name() string {
	return "resend"
}

func (p *ResendProvider) Configured() bool {
	return p.apiKey != ""
}

func (p *ResendProvider) Send(ctx context.Context, to []string, subject, body string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(map[string]interface{}{
			"from":    p.fromEmail,
			"to":      to,
			"subject": subject,
			"text":    body,
		}).
		Post(resendEndpoint)
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
