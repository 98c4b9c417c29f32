// Package memory provides an in-memory secret provider for testing and development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/input-output-hk/reposync/secrets"
)

// Provider implements an in-memory secret store. It is safe for concurrent use.
type Provider struct {
	name  string
	store map[string]*secrets.Secret
	mu    sync.RWMutex
}

// New creates a new memory provider named "memory".
func New() *Provider {
	return NewNamed("memory")
}

// NewNamed creates a memory provider with a custom name, so several can be
// chained in one manager.
func NewNamed(name string) *Provider {
	return &Provider{
		name:  name,
		store: make(map[string]*secrets.Secret),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Store saves a copy of value under ref.Path.
func (p *Provider) Store(ctx context.Context, ref secrets.SecretRef, value []byte) error {
	if ref.Path == "" {
		return fmt.Errorf("secret path cannot be empty: %w", secrets.ErrInvalidRef)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.store[ref.Path]; ok {
		old.Clear()
	}
	p.store[ref.Path] = &secrets.Secret{
		Value:     append([]byte(nil), value...),
		Version:   ref.Version,
		CreatedAt: time.Now(),
	}
	return nil
}

// Resolve returns a copy of the stored secret.
func (p *Provider) Resolve(ctx context.Context, ref secrets.SecretRef) (*secrets.Secret, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("resolve operation cancelled: %w", ctx.Err())
	default:
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	secret, ok := p.store[ref.Path]
	if !ok {
		return nil, fmt.Errorf("secret %q: %w", ref.Path, secrets.ErrSecretNotFound)
	}

	return &secrets.Secret{
		Value:     append([]byte(nil), secret.Value...),
		Version:   secret.Version,
		CreatedAt: secret.CreatedAt,
	}, nil
}

// Close clears all stored secrets.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for path, secret := range p.store {
		secret.Clear()
		delete(p.store, path)
	}
	return nil
}
