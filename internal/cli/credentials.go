package cli

import (
	"context"
	"fmt"

	"github.com/input-output-hk/reposync/config"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/secrets"
	secretsenv "github.com/input-output-hk/reposync/secrets/providers/env"
)

// resolveToken walks the credential chain: the configured environment
// variable first, then the secret store when a secret id is configured.
// Errors name where the token was looked for, never its value.
func resolveToken(ctx context.Context, cfg *config.Config, env Env) (string, error) {
	manager := secrets.NewManager(&secrets.Config{AutoClear: true})
	defer manager.Close()

	if err := manager.RegisterProvider(secretsenv.New(secretsenv.WithLookup(secretsenv.LookupFunc(env.Lookup)))); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "resolve token")
	}

	if cfg.TokenSecretID != "" {
		store, err := env.Builders.SecretStore(ctx, cfg)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeInvalidConfig, "open secret store")
		}
		if err := manager.RegisterProvider(store); err != nil {
			return "", errors.Wrap(err, errors.CodeInternal, "resolve token")
		}
	}

	secret, err := manager.Resolve(ctx, secrets.SecretRef{Path: cfg.TokenEnv})
	if errors.Is(err, secrets.ErrSecretNotFound) {
		return "", errors.New(errors.CodeInvalidConfig, "resolve token", missingTokenMessage(cfg))
	}
	if err != nil {
		return "", errors.Wrap(err, errors.CodeUnauthorized, "resolve token")
	}

	return secret.Reveal(), nil
}

func missingTokenMessage(cfg *config.Config) string {
	if cfg.TokenSecretID != "" {
		return fmt.Sprintf("no source credential: set %s or store it in secret %q", cfg.TokenEnv, cfg.TokenSecretID)
	}
	return fmt.Sprintf("no source credential: set %s", cfg.TokenEnv)
}
