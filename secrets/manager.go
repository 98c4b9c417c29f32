package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Config holds the configuration for the Manager.
type Config struct {
	// AutoClear controls whether resolved secrets clear their memory after
	// Reveal or Bytes.
	AutoClear bool
}

// Manager resolves secrets through an ordered chain of providers.
type Manager struct {
	providers []Provider
	autoClear bool
	mu        sync.RWMutex
}

// NewManager creates a new Manager with the provided configuration.
func NewManager(config *Config) *Manager {
	if config == nil {
		config = &Config{}
	}
	return &Manager{autoClear: config.AutoClear}
}

// RegisterProvider appends a provider to the resolution chain.
// Names must be unique.
func (m *Manager) RegisterProvider(provider Provider) error {
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	if provider.Name() == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.providers {
		if p.Name() == provider.Name() {
			return fmt.Errorf("provider with name %q already registered", provider.Name())
		}
	}
	m.providers = append(m.providers, provider)
	return nil
}

// Providers returns the names of the registered providers in resolution order.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for _, p := range m.providers {
		names = append(names, p.Name())
	}
	return names
}

// Resolve asks each provider in order and returns the first secret found.
// A provider reporting ErrSecretNotFound, or returning an empty value, passes
// resolution to the next one; any other failure stops the chain.
func (m *Manager) Resolve(ctx context.Context, ref SecretRef) (*Secret, error) {
	if ref.Path == "" {
		return nil, fmt.Errorf("secret reference path cannot be empty: %w", ErrInvalidRef)
	}

	m.mu.RLock()
	providers := append([]Provider(nil), m.providers...)
	m.mu.RUnlock()

	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers registered")
	}

	for _, p := range providers {
		secret, err := p.Resolve(ctx, ref)
		if errors.Is(err, ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return nil, WrapProviderError(p.Name(), ref, err, "failed to resolve secret")
		}
		if secret.Empty() {
			continue
		}
		secret.AutoClear = m.autoClear
		return secret, nil
	}

	return nil, fmt.Errorf("secret %q: %w", ref.Path, ErrSecretNotFound)
}

// Close closes every registered provider and aggregates any errors.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, p := range m.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", p.Name(), err))
		}
	}
	m.providers = nil

	return errors.Join(errs...)
}
