package secrets

import "context"

// Resolver defines the core interface for secret resolution.
type Resolver interface {
	// Resolve retrieves a single secret by reference.
	// Implementations return an error wrapping ErrSecretNotFound when the
	// secret does not exist.
	Resolve(ctx context.Context, ref SecretRef) (*Secret, error)
}

// Provider extends Resolver with provider management capabilities.
type Provider interface {
	Resolver

	// Name returns the provider's identifier (e.g., "env", "aws", "memory").
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}
