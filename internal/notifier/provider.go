package notifier

import "context"

// Provider delivers an email through one external service. A provider holds
// only its own credential and endpoint.
type Provider interface {
	Name() string
	// Configured reports whether the provider has a credential. Unconfigured
	// providers are skipped by the dispatcher without counting as a failure.
	Configured() bool
	Send(ctx context.Context, to []string, subject, body string) error
}
