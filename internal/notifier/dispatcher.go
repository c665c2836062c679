package notifier

import (
	"context"
	"log/slog"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/config"
)

// DispatchResult reports the outcome of a send attempt across the chain
type DispatchResult struct {
	Success  bool
	Provider string
	// Attempted lists the providers tried, in order.
	Attempted []string
}

// Dispatcher delivers email through an ordered fallback chain of providers.
// Each configured provider is attempted exactly once; unconfigured providers
// are skipped. Delivery failure is only returned once the whole chain is
// exhausted.
type Dispatcher struct {
	providers []Provider
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher with an explicit provider order
func NewDispatcher(providers []Provider, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		providers: providers,
		logger:    logger,
	}
}

// NewDispatcherFromConfig builds the provider chain from configuration
func NewDispatcherFromConfig(cfg config.EmailConfig, logger *slog.Logger) *Dispatcher {
	byName := map[string]Provider{
		"resend":   NewResendProvider(cfg.ResendAPIKey, cfg.FromEmail, cfg.AttemptTimeout),
		"sendgrid": NewSendGridProvider(cfg.SendGridAPIKey, cfg.FromEmail, cfg.AttemptTimeout),
		"mailgun":  NewMailgunProvider(cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.FromEmail, cfg.AttemptTimeout),
	}

	providers := make([]Provider, 0, len(cfg.ProviderOrder))
	for _, name := range cfg.ProviderOrder {
		if p, ok := byName[name]; ok {
			providers = append(providers, p)
		}
	}
	return NewDispatcher(providers, logger)
}

// Send attempts delivery through the chain and reports which provider
// succeeded. Errors from individual providers are logged and trigger
// fallback; the returned error is non-nil only when no provider delivered.
func (d *Dispatcher) Send(ctx context.Context, to []string, subject, body string) (*DispatchResult, error) {
	result := &DispatchResult{}

	if len(to) == 0 {
		return result, apperrors.NewValidationError("no recipients to deliver to")
	}

	var lastErr error
	for _, provider := range d.providers {
		if !provider.Configured() {
			d.logger.Warn("Email provider not configured, skipping",
				"provider", provider.Name())
			continue
		}

		result.Attempted = append(result.Attempted, provider.Name())
		if err := provider.Send(ctx, to, subject, body); err != nil {
			lastErr = err
			d.logger.Warn("Email provider failed, falling back",
				"provider", provider.Name(), "error", err)
			continue
		}

		result.Success = true
		result.Provider = provider.Name()
		d.logger.Info("Email delivered",
			"provider", provider.Name(), "recipients", len(to))
		return result, nil
	}

	if lastErr != nil {
		return result, apperrors.NewDeliveryError(lastErr, "email chain")
	}
	return result, apperrors.New(apperrors.ErrorTypeDelivery, "NO_PROVIDER",
		"no email provider configured")
}
