package appcore

import (
	"context"
	"net/http"

	"github.com/go-logr/logr"
)

// Option configures an Api.
type Option func(*Api) error

// TokenSource supplies the bearer token for authenticated requests.
// An empty token means no credential is available.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to a TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// WithConfig sets the initial configuration.
func WithConfig(cfg Config) Option {
	return func(a *Api) error {
		if cfg.URL != "" {
			if err := validateBaseURL(cfg.URL); err != nil {
				return err
			}
		}
		a.config.Store(&cfg)
		return nil
	}
}

// WithLogger sets a custom logger.
// If not set, logging is disabled (logr.Discard() is used).
func WithLogger(logger logr.Logger) Option {
	return func(a *Api) error {
		a.logger = logger
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Api) error {
		a.client = client
		return nil
	}
}

// WithTokenSource sets the credential provider for authenticated requests.
func WithTokenSource(ts TokenSource) Option {
	return func(a *Api) error {
		a.tokens = ts
		return nil
	}
}

// WithStrictPayload makes successful responses without a "result" field
// classify as bad-data instead of ok with an empty payload.
func WithStrictPayload() Option {
	return func(a *Api) error {
		a.strict = true
		return nil
	}
}
