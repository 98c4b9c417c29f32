// Package secrets resolves runtime credentials without ever embedding them
// in configuration, logs or error messages.
//
// # Basic Usage
//
// Build a manager with an ordered chain of providers. The first provider that
// holds the secret wins:
//
//	manager := secrets.NewManager(&secrets.Config{AutoClear: true})
//	defer manager.Close()
//
//	_ = manager.RegisterProvider(env.New())
//	_ = manager.RegisterProvider(awsProvider)
//
//	secret, err := manager.Resolve(ctx, secrets.SecretRef{Path: "GITHUB_TOKEN"})
//	if errors.Is(err, secrets.ErrSecretNotFound) {
//		// no provider holds the secret
//	}
//	token := secret.Reveal() // value is zeroed afterwards when AutoClear is set
//
// # Security Features
//
//   - Secret values are zeroed by Clear and, with AutoClear, after Reveal
//   - String, GoString and LogValue never return the value, so a Secret
//     passed to fmt or log/slog prints as [REDACTED]
//   - Errors name the secret path, never its contents
package secrets

import (
	"log/slog"
	"time"
)

const redacted = "[REDACTED]"

// Secret represents a resolved secret value with metadata.
type Secret struct {
	// Value contains the secret data as bytes. This should never be logged or exposed.
	Value []byte
	// Version indicates the version of this secret (useful for rotation tracking).
	Version string
	// CreatedAt records when this secret was created.
	CreatedAt time.Time
	// AutoClear controls whether Reveal and Bytes clear memory after use.
	AutoClear bool
}

// SecretRef represents a reference to a secret without containing the actual value.
type SecretRef struct {
	// Path identifies the secret location (an environment variable name,
	// a Secrets Manager id, ...).
	Path string
	// Version specifies which version of the secret to retrieve (empty for latest).
	Version string
}

// Reveal returns the secret value as a string.
// If AutoClear is enabled, the secret value is cleared after use.
func (s *Secret) Reveal() string {
	if s == nil || s.Value == nil {
		return ""
	}

	value := string(s.Value)

	if s.AutoClear {
		s.Clear()
	}

	return value
}

// Bytes returns a copy of the secret value.
// If AutoClear is enabled, the secret value is cleared after use.
func (s *Secret) Bytes() []byte {
	if s == nil || s.Value == nil {
		return nil
	}

	value := make([]byte, len(s.Value))
	copy(value, s.Value)

	if s.AutoClear {
		s.Clear()
	}

	return value
}

// Empty reports whether the secret holds no data.
func (s *Secret) Empty() bool {
	return s == nil || len(s.Value) == 0
}

// Clear zeros the secret value in memory and drops the reference to it.
func (s *Secret) Clear() {
	if s == nil || s.Value == nil {
		return
	}
	for i := range s.Value {
		s.Value[i] = 0
	}
	s.Value = nil
}

// String implements fmt.Stringer without exposing the value.
func (s *Secret) String() string {
	return redacted
}

// GoString implements fmt.GoStringer without exposing the value.
func (s *Secret) GoString() string {
	return redacted
}

// LogValue implements slog.LogValuer without exposing the value.
func (s *Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}
