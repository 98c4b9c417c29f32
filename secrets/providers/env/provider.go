// Package env provides a secret provider backed by the process environment.
package env

import (
	"context"
	"fmt"
	"os"

	"github.com/input-output-hk/reposync/secrets"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Provider resolves a SecretRef's Path as an environment variable name.
type Provider struct {
	lookup LookupFunc
}

// Option configures a Provider.
type Option func(*Provider)

// WithLookup replaces os.LookupEnv, mainly for tests.
func WithLookup(lookup LookupFunc) Option {
	return func(p *Provider) {
		if lookup != nil {
			p.lookup = lookup
		}
	}
}

// New creates an environment provider.
func New(opts ...Option) *Provider {
	p := &Provider{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "env".
func (p *Provider) Name() string {
	return "env"
}

// Resolve returns the value of the environment variable named by ref.Path.
// Unset and empty variables both report ErrSecretNotFound.
func (p *Provider) Resolve(ctx context.Context, ref secrets.SecretRef) (*secrets.Secret, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve operation cancelled: %w", err)
	}
	if ref.Path == "" {
		return nil, fmt.Errorf("environment variable name cannot be empty: %w", secrets.ErrInvalidRef)
	}

	value, ok := p.lookup(ref.Path)
	if !ok || value == "" {
		return nil, fmt.Errorf("environment variable %s is not set: %w", ref.Path, secrets.ErrSecretNotFound)
	}

	return &secrets.Secret{Value: []byte(value)}, nil
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
